package monster

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// Drop is one entry of a monster's drop table.
type Drop struct {
	ItemID string `yaml:"item"`
	// Chance is the independent probability in [0, 1] that this entry drops.
	Chance   float64 `yaml:"chance"`
	Quantity int     `yaml:"quantity"`
}

// Validate checks the drop's invariants.
func (d Drop) Validate() error {
	if d.ItemID == "" {
		return fmt.Errorf("item id must not be empty")
	}
	if d.Chance < 0 || d.Chance > 1 {
		return fmt.Errorf("chance must be in [0, 1], got %f", d.Chance)
	}
	if d.Quantity < 1 {
		return fmt.Errorf("quantity must be >= 1, got %d", d.Quantity)
	}
	return nil
}

// RollDrops runs one Bernoulli trial per entry, in table order, and returns
// the entries that dropped.
//
// Postcondition: every returned Drop is an element of drops.
func RollDrops(drops []Drop, r *dice.Roller) []Drop {
	var out []Drop
	for _, d := range drops {
		if r.Probability("drop:"+d.ItemID, d.Chance) {
			out = append(out, d)
		}
	}
	return out
}
