package store

import "fmt"

// Registry holds the known entities so stored items can be mapped back to
// the entity that wrote them.
type Registry struct {
	entities []*Entity
	byName   map[string]*Entity
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Entity),
	}
}

// Register adds entities to the registry. Names must be unique.
func (r *Registry) Register(entities ...*Entity) error {
	for _, e := range entities {
		if _, ok := r.byName[e.name]; ok {
			return fmt.Errorf("%w: %s", ErrEntityRegistered, e.name)
		}
		r.entities = append(r.entities, e)
		r.byName[e.name] = e
	}
	return nil
}

// Lookup returns the entity registered under name.
func (r *Registry) Lookup(name string) (*Entity, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// Entities returns all registered entities in registration order.
func (r *Registry) Entities() []*Entity {
	return r.entities
}

// Identify returns the entity that stored item, matching the entity name
// attribute of each entity's table. An empty table matches any table.
func (r *Registry) Identify(table string, item map[string]any) (*Entity, bool) {
	for _, e := range r.entities {
		if table != "" && e.table.Name != table {
			continue
		}
		if name, ok := item[e.table.EntityAttributeSavedAs].(string); ok && name == e.name {
			return e, true
		}
	}
	return nil, false
}
