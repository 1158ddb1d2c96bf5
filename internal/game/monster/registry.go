package monster

import "fmt"

// Registry indexes monster templates by ID. It is read-only after loading.
type Registry struct {
	templates map[string]*Template
}

// NewRegistry builds a Registry from templates.
//
// Postcondition: returns an error if two templates share an ID.
func NewRegistry(templates []*Template) (*Registry, error) {
	r := &Registry{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if _, exists := r.templates[t.ID]; exists {
			return nil, fmt.Errorf("monster: duplicate template id %q", t.ID)
		}
		r.templates[t.ID] = t
	}
	return r, nil
}

// NewRegistryFromDir loads every template under dir.
func NewRegistryFromDir(dir string) (*Registry, error) {
	templates, err := LoadTemplates(dir)
	if err != nil {
		return nil, err
	}
	return NewRegistry(templates)
}

// Monster returns the template for id and whether it exists.
func (r *Registry) Monster(id string) (*Template, bool) {
	t, ok := r.templates[id]
	return t, ok
}

// IDs returns every registered template id in unspecified order.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.templates))
	for id := range r.templates {
		out = append(out, id)
	}
	return out
}
