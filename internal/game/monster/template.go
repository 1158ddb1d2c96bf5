// Package monster provides monster template definitions and drop tables
// loaded from YAML content.
package monster

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template defines a monster archetype loaded from YAML.
type Template struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Level   int    `yaml:"level"`
	HP      int    `yaml:"hp"`
	Attack  int    `yaml:"attack"`
	Defense int    `yaml:"defense"`
	Agility int    `yaml:"agility"`
	// Exp and Zeny are the victory rewards before any party split.
	Exp   int    `yaml:"exp"`
	Zeny  int    `yaml:"zeny"`
	Drops []Drop `yaml:"drops"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Level >= 1, HP >= 1,
// stats and rewards are non-negative, and every drop is valid.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("monster template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("monster template %q: name must not be empty", t.ID)
	}
	if t.Level < 1 {
		return fmt.Errorf("monster template %q: level must be >= 1", t.ID)
	}
	if t.HP < 1 {
		return fmt.Errorf("monster template %q: hp must be >= 1", t.ID)
	}
	if t.Attack < 0 || t.Defense < 0 || t.Agility < 0 {
		return fmt.Errorf("monster template %q: attack, defense and agility must be >= 0", t.ID)
	}
	if t.Exp < 0 || t.Zeny < 0 {
		return fmt.Errorf("monster template %q: exp and zeny must be >= 0", t.ID)
	}
	for i, d := range t.Drops {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("monster template %q: drops[%d]: %w", t.ID, i, err)
		}
	}
	return nil
}

// LoadTemplateFromBytes parses a single monster template from raw YAML bytes.
// Drop entries without a quantity default to 1.
//
// Postcondition: Returns a valid template or a non-nil error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	for i := range tmpl.Drops {
		if tmpl.Drops[i].Quantity == 0 {
			tmpl.Drops[i].Quantity = 1
		}
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading monster dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
