package store

import "errors"

var (
	// ErrNotFound is returned when an item doesn't exist or is soft deleted (has TTL <= now).
	ErrNotFound = errors.New("ddbschema: item not found")

	// ErrConditionFailed is returned when a write condition is not met.
	ErrConditionFailed = errors.New("ddbschema: condition check failed")

	// ErrInvalidKey is returned when a parsed key doesn't match the table's primary key.
	ErrInvalidKey = errors.New("ddbschema: invalid key")

	// ErrInvalidTable is returned for a table definition without a name or partition key.
	ErrInvalidTable = errors.New("ddbschema: invalid table")

	// ErrEntityRegistered is returned when an entity name is registered twice.
	ErrEntityRegistered = errors.New("ddbschema: entity already registered")
)
