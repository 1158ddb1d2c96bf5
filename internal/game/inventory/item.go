// Package inventory defines item content and the consumable-effect rules
// applied when a character uses an item.
package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Kind constants for ItemDef.Kind.
const (
	KindConsumable = "consumable"
	KindEquipment  = "equipment"
	KindMaterial   = "material"
	KindEtc        = "etc"
)

var validKinds = map[string]bool{
	KindConsumable: true,
	KindEquipment:  true,
	KindMaterial:   true,
	KindEtc:        true,
}

// Effect is the restoration a consumable applies.
type Effect struct {
	HP int `yaml:"hp"`
	SP int `yaml:"sp"`
}

// ItemDef defines the static properties of an item loaded from YAML.
type ItemDef struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Kind        string  `yaml:"kind"`
	Price       int     `yaml:"price"`
	Effect      *Effect `yaml:"effect"`
}

// Usable reports whether the item can be consumed for an effect.
func (d *ItemDef) Usable() bool {
	return d.Kind == KindConsumable && d.Effect != nil
}

// Validate checks that the ItemDef satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if !validKinds[d.Kind] {
		errs = append(errs, fmt.Errorf("Kind must be one of consumable, equipment, material, etc; got %q", d.Kind))
	}
	if d.Price < 0 {
		errs = append(errs, errors.New("Price must be >= 0"))
	}
	if d.Effect != nil && (d.Effect.HP < 0 || d.Effect.SP < 0) {
		errs = append(errs, errors.New("Effect values must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item validation failed: %v", errs)
	}
	return nil
}

// LoadItems reads all *.yaml and *.yml files from dir, parses each as a list
// of ItemDefs, validates them, and returns the collected slice.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid ItemDefs or the first encountered error.
func LoadItems(dir string) ([]*ItemDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadItems: cannot read directory %q: %w", dir, err)
	}

	var items []*ItemDef
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: cannot read file %q: %w", path, err)
		}
		var file struct {
			Items []*ItemDef `yaml:"items"`
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("LoadItems: cannot parse file %q: %w", path, err)
		}
		for _, d := range file.Items {
			if err := d.Validate(); err != nil {
				return nil, fmt.Errorf("LoadItems: invalid item %q in %q: %w", d.ID, path, err)
			}
			items = append(items, d)
		}
	}
	return items, nil
}
