// Package character defines the persisted character model and its pure
// progression rules.
package character

import (
	"errors"
	"time"
)

// ErrNotFound is returned by character stores when no character has the requested id.
var ErrNotFound = errors.New("character not found")

// Stats holds a character's combat-relevant attributes.
type Stats struct {
	HP           int `json:"hp"`
	MaxHP        int `json:"max_hp"`
	SP           int `json:"sp"`
	MaxSP        int `json:"max_sp"`
	Attack       int `json:"attack"`
	Defense      int `json:"defense"`
	Agility      int `json:"agility"`
	Intelligence int `json:"intelligence"`
	Vitality     int `json:"vitality"`
	Luck         int `json:"luck"`
}

// Position is the character's location on the world map.
type Position struct {
	Map string `json:"map"`
	X   int    `json:"x"`
	Y   int    `json:"y"`
}

// Character represents a player character's persistent state.
//
// Items maps item id to a positive stack count; ids with a zero count are absent.
type Character struct {
	ID    string
	Name  string
	Class string

	Level     int
	Exp       int
	ExpToNext int

	Stats        Stats
	StatusPoints int
	SkillPoints  int

	Zeny  int
	Items map[string]int

	Position Position

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Starting values for a freshly created character.
const (
	StartingExpToNext = 100
	StartingZeny      = 1000
	StartingMap       = "prontera"
)

// New builds a level 1 character with the starting stat line.
//
// Precondition: id and name must be non-empty.
// Postcondition: Returns a Character ready for persistence, or a non-nil error.
func New(id, name, class string) (*Character, error) {
	if id == "" {
		return nil, errors.New("character id must not be empty")
	}
	if name == "" {
		return nil, errors.New("character name must not be empty")
	}
	if class == "" {
		class = "novice"
	}
	return &Character{
		ID:        id,
		Name:      name,
		Class:     class,
		Level:     1,
		ExpToNext: StartingExpToNext,
		Stats: Stats{
			HP: 100, MaxHP: 100,
			SP: 50, MaxSP: 50,
			Attack: 10, Defense: 5, Agility: 10,
			Intelligence: 10, Vitality: 10, Luck: 10,
		},
		Zeny:     StartingZeny,
		Items:    map[string]int{},
		Position: Position{Map: StartingMap, X: 5, Y: 5},
	}, nil
}

// Clone returns a deep copy of c.
func (c *Character) Clone() *Character {
	cp := *c
	cp.Items = make(map[string]int, len(c.Items))
	for id, n := range c.Items {
		cp.Items[id] = n
	}
	return &cp
}

// ItemCount returns how many of itemID the character holds.
func (c *Character) ItemCount(itemID string) int {
	return c.Items[itemID]
}

// AddItem adds qty of itemID to the character's inventory.
//
// Precondition: qty > 0.
func (c *Character) AddItem(itemID string, qty int) {
	if c.Items == nil {
		c.Items = map[string]int{}
	}
	c.Items[itemID] += qty
}

// RemoveItem removes qty of itemID, deleting the entry when it reaches zero.
// It reports false and leaves the inventory untouched when fewer than qty are held.
func (c *Character) RemoveItem(itemID string, qty int) bool {
	have := c.Items[itemID]
	if qty <= 0 || have < qty {
		return false
	}
	if have == qty {
		delete(c.Items, itemID)
	} else {
		c.Items[itemID] = have - qty
	}
	return true
}
