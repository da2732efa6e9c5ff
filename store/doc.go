// Package store provides a schema driven DynamoDB data access layer.
//
// An [Entity] binds a schema to a [Table]. Items written through the
// [Store] are parsed with the entity schema, so defaults, links, renames
// and transforms apply; items read back are formatted, so hidden
// attributes never leave the package.
//
// # Internal Attributes
//
// [NewEntity] adds attributes on top of the user schema:
//
//   - entity (saved as "_et"): the entity name, used to tell entities
//     sharing a table apart
//   - created (saved as "_ct"): RFC3339 creation time
//   - modified (saved as "_md"): RFC3339 time of the last write
//
// Timestamps are disabled with [Timestamps](false). A user attribute using
// one of these names or stored names is rejected.
//
// # Soft Deletes
//
// [Store.Delete] sets the TTL attribute to now instead of removing the item
// unless [DeleteOptions].Hard is set. Get and Query treat items with an
// expired TTL as missing, and updates never resurrect them.
//
// # Errors
//
// The package defines domain-specific errors:
//
//   - [ErrNotFound] - item doesn't exist or is soft deleted
//   - [ErrConditionFailed] - a write condition was not met
//   - [ErrInvalidKey] - key input doesn't cover the table's primary key
//
// Parsing, formatting and expression errors are returned as *schema.Error.
package store
