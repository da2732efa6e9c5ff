package store

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/ddbschema/schema"
)

// Internal attribute names and their stored names.
const (
	EntityAttribute          = "entity"
	DefaultEntitySavedAs     = "_et"
	CreatedAttribute         = "created"
	CreatedAttributeSavedAs  = "_ct"
	ModifiedAttribute        = "modified"
	ModifiedAttributeSavedAs = "_md"
)

// KeyDef names a primary key attribute of a table.
type KeyDef struct {
	// Name is the stored attribute name.
	Name string

	// Type is the key's scalar type. Default: S
	Type types.ScalarAttributeType
}

// Table describes a DynamoDB table shared by one or more entities.
type Table struct {
	Name         string
	PartitionKey KeyDef
	SortKey      *KeyDef

	// EntityAttributeSavedAs is where the entity name is stored.
	// Default: "_et"
	EntityAttributeSavedAs string
}

// keys returns the primary key definitions, partition key first.
func (t Table) keys() []KeyDef {
	if t.SortKey == nil {
		return []KeyDef{t.PartitionKey}
	}
	return []KeyDef{t.PartitionKey, *t.SortKey}
}

func (t *Table) validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTable)
	}
	if t.PartitionKey.Name == "" {
		return fmt.Errorf("%w: %s: missing partition key", ErrInvalidTable, t.Name)
	}
	if t.EntityAttributeSavedAs == "" {
		t.EntityAttributeSavedAs = DefaultEntitySavedAs
	}
	return nil
}

// Entity binds a schema to a table. The entity's schema carries the internal
// attributes on top of the user's attributes.
type Entity struct {
	name   string
	table  Table
	schema *schema.Schema
}

type entityOptions struct {
	entityAttribute string
	hidden          bool
	timestamps      bool
	now             func() time.Time
}

// EntityOption configures NewEntity.
type EntityOption func(*entityOptions)

// EntityAttributeName renames the attribute holding the entity name.
func EntityAttributeName(name string) EntityOption {
	return func(o *entityOptions) { o.entityAttribute = name }
}

// HideEntityAttribute removes the entity name from formatted items.
func HideEntityAttribute() EntityOption {
	return func(o *entityOptions) { o.hidden = true }
}

// Timestamps toggles the created and modified attributes. Enabled by default.
func Timestamps(enabled bool) EntityOption {
	return func(o *entityOptions) { o.timestamps = enabled }
}

// Clock replaces time.Now for timestamps.
func Clock(now func() time.Time) EntityOption {
	return func(o *entityOptions) { o.now = now }
}

// NewEntity creates an entity named name stored in table. The schema's key
// attributes must cover the table's primary key.
func NewEntity(name string, table Table, s *schema.Schema, opts ...EntityOption) (*Entity, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}

	o := entityOptions{
		entityAttribute: EntityAttribute,
		timestamps:      true,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := checkKeys(table, s); err != nil {
		return nil, err
	}

	entityDef := schema.String().
		PutDefault(name).
		UpdateDefault(name).
		Enum(name).
		SavedAs(table.EntityAttributeSavedAs)
	if o.hidden {
		entityDef = entityDef.Hidden()
	}
	internal := []schema.Field{schema.Attr(o.entityAttribute, entityDef)}

	if o.timestamps {
		timestamp := schema.DefaultFunc(func() any {
			return o.now().UTC().Format(time.RFC3339)
		})
		internal = append(internal,
			// Optional: items created by an update carry no creation time.
			schema.Attr(CreatedAttribute, schema.String().
				Optional().
				PutDefault(timestamp).
				SavedAs(CreatedAttributeSavedAs)),
			schema.Attr(ModifiedAttribute, schema.String().
				PutDefault(timestamp).
				UpdateDefault(timestamp).
				SavedAs(ModifiedAttributeSavedAs)),
		)
	}

	for _, f := range internal {
		if _, ok := s.Attribute(f.Name); ok {
			return nil, schema.NewError(schema.CodeReservedAttributeName, f.Name, schema.Payload{},
				"'%s' is a reserved attribute name.", f.Name)
		}
		saved := f.Def.MustFreeze(f.Name).StoredName()
		for _, a := range s.Attributes() {
			if a.StoredName() == saved {
				return nil, schema.NewError(schema.CodeReservedAttributeSavedAs, f.Name, schema.Payload{},
					"'%s' is a reserved attribute alias (savedAs).", saved)
			}
		}
	}

	full, err := s.And(internal...)
	if err != nil {
		return nil, err
	}
	return &Entity{name: name, table: table, schema: full}, nil
}

// checkKeys ensures every table key is stored by a key attribute of s.
func checkKeys(table Table, s *schema.Schema) error {
	stored := make(map[string]bool)
	for _, a := range s.KeyAttributes() {
		stored[a.StoredName()] = true
	}
	for _, k := range table.keys() {
		if !stored[k.Name] {
			return fmt.Errorf("%w: no key attribute is saved as %q", ErrInvalidKey, k.Name)
		}
	}
	return nil
}

// Name returns the entity name.
func (e *Entity) Name() string { return e.name }

// Table returns the table the entity is stored in.
func (e *Entity) Table() Table { return e.table }

// Schema returns the schema including internal attributes.
func (e *Entity) Schema() *schema.Schema { return e.schema }

// declared returns the declared name of the top-level attribute stored
// under stored, or stored itself when none is.
func (e *Entity) declared(stored string) string {
	for _, a := range e.schema.Attributes() {
		if a.StoredName() == stored {
			return a.Name()
		}
	}
	return stored
}
