// Package schemadef loads schemas from YAML definitions.
//
//	entity: user
//	table:
//	  name: users
//	  partitionKey: pk
//	  sortKey: sk
//	attributes:
//	  - name: id
//	    type: string
//	    key: true
//	    savedAs: pk
//	    prefix: USER
//	  - name: email
//	    type: string
//	    validate: email
//	  - name: tags
//	    type: set
//	    optional: true
//	    elements: {type: string}
package schemadef

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jacentio/ddbschema/schema"
	"github.com/jacentio/ddbschema/validate"
)

// Document is one schema definition file.
type Document struct {
	Entity     string      `yaml:"entity"`
	Table      Table       `yaml:"table"`
	Attributes []Attribute `yaml:"attributes"`
}

// Table names the table an entity is stored in.
type Table struct {
	Name         string `yaml:"name"`
	PartitionKey string `yaml:"partitionKey"`
	SortKey      string `yaml:"sortKey"`
}

// Attribute is the YAML form of a schema.Def.
type Attribute struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Required string `yaml:"required"`
	Optional bool   `yaml:"optional"`
	Hidden   bool   `yaml:"hidden"`
	Key      bool   `yaml:"key"`
	SavedAs  string `yaml:"savedAs"`

	// Default is a literal default. Generate names a producer instead:
	// "uuid" or "now" (RFC 3339 UTC timestamp).
	Default  any    `yaml:"default"`
	Generate string `yaml:"generate"`

	Enum     []any  `yaml:"enum"`
	Validate string `yaml:"validate"`
	Prefix   string `yaml:"prefix"`

	Elements     *Attribute  `yaml:"elements"`
	Keys         *Attribute  `yaml:"keys"`
	Attributes   []Attribute `yaml:"attributes"`
	Alternatives []Attribute `yaml:"alternatives"`
}

// ParseFile parses a definition from a YAML file.
func ParseFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a definition from YAML bytes.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse yaml: %w", err)
	}
	if len(doc.Attributes) == 0 {
		return Document{}, fmt.Errorf("definition %q has no attributes", doc.Entity)
	}
	return doc, nil
}

// ParseDir parses every .yaml and .yml file in dir.
func ParseDir(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var docs []Document
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		doc, err := ParseFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Schema freezes the document's attributes into a schema.
func (d Document) Schema() (*schema.Schema, error) {
	fields := make([]schema.Field, 0, len(d.Attributes))
	for _, a := range d.Attributes {
		def, err := a.Def()
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
		}
		fields = append(fields, schema.Attr(a.Name, def))
	}
	return schema.New(fields...)
}

// Def converts the attribute into a definition.
func (a Attribute) Def() (schema.Def, error) {
	def, err := a.base()
	if err != nil {
		return schema.Def{}, err
	}

	if a.Key {
		def = def.Key()
	}
	switch {
	case a.Required != "":
		r := schema.Required(a.Required)
		if r != schema.Never && r != schema.AtLeastOnce && r != schema.Always {
			return schema.Def{}, fmt.Errorf("unknown required value %q", a.Required)
		}
		def = def.Required(r)
	case a.Optional:
		def = def.Optional()
	}
	if a.Hidden {
		def = def.Hidden()
	}
	if a.SavedAs != "" {
		def = def.SavedAs(a.SavedAs)
	}
	if len(a.Enum) > 0 {
		def = def.Enum(a.Enum...)
	}
	if a.Prefix != "" {
		def = def.Transform(schema.Prefix(a.Prefix))
	}
	if a.Validate != "" {
		def = def.Validate(validate.Tag(a.Validate))
	}

	switch {
	case a.Generate != "":
		gen, err := generator(a.Generate)
		if err != nil {
			return schema.Def{}, err
		}
		def = def.Default(gen)
	case a.Default != nil:
		def = def.Default(a.Default)
	}
	return def, nil
}

func (a Attribute) base() (schema.Def, error) {
	switch schema.Kind(a.Type) {
	case schema.KindAny:
		return schema.Any(), nil
	case schema.KindString:
		return schema.String(), nil
	case schema.KindNumber:
		return schema.Number(), nil
	case schema.KindBoolean:
		return schema.Boolean(), nil
	case schema.KindBinary:
		return schema.Binary(), nil
	case schema.KindSet, schema.KindList:
		if a.Elements == nil {
			return schema.Def{}, fmt.Errorf("%s needs elements", a.Type)
		}
		elements, err := a.Elements.Def()
		if err != nil {
			return schema.Def{}, fmt.Errorf("elements: %w", err)
		}
		if a.Type == string(schema.KindSet) {
			return schema.SetOf(elements), nil
		}
		return schema.List(elements), nil
	case schema.KindMap:
		fields := make([]schema.Field, 0, len(a.Attributes))
		for _, child := range a.Attributes {
			def, err := child.Def()
			if err != nil {
				return schema.Def{}, fmt.Errorf("attribute %q: %w", child.Name, err)
			}
			fields = append(fields, schema.Attr(child.Name, def))
		}
		return schema.Map(fields...), nil
	case schema.KindRecord:
		if a.Keys == nil || a.Elements == nil {
			return schema.Def{}, fmt.Errorf("record needs keys and elements")
		}
		keys, err := a.Keys.Def()
		if err != nil {
			return schema.Def{}, fmt.Errorf("keys: %w", err)
		}
		elements, err := a.Elements.Def()
		if err != nil {
			return schema.Def{}, fmt.Errorf("elements: %w", err)
		}
		return schema.Record(keys, elements), nil
	case schema.KindAnyOf:
		alts := make([]schema.Def, 0, len(a.Alternatives))
		for i, alt := range a.Alternatives {
			def, err := alt.Def()
			if err != nil {
				return schema.Def{}, fmt.Errorf("alternative %d: %w", i, err)
			}
			alts = append(alts, def)
		}
		return schema.AnyOf(alts...), nil
	}
	return schema.Def{}, fmt.Errorf("unknown type %q", a.Type)
}

func generator(name string) (schema.DefaultFunc, error) {
	switch name {
	case "uuid":
		return func() any { return uuid.NewString() }, nil
	case "now":
		return func() any { return time.Now().UTC().Format(time.RFC3339) }, nil
	}
	return nil, fmt.Errorf("unknown generator %q", name)
}
