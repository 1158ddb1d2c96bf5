package inventory

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/character"
)

// ErrNotOwned is returned when the item is unknown or the character holds none.
var ErrNotOwned = errors.New("item not found or not owned")

// ErrAlreadyFull is returned when a consumable would restore nothing.
var ErrAlreadyFull = errors.New("already at full hp/sp")

// NotUsableError reports an item that exists and is owned but cannot be consumed.
type NotUsableError struct {
	Name string
}

func (e *NotUsableError) Error() string {
	return fmt.Sprintf("item %q is not usable", e.Name)
}

// Reason converts an item-use error into the line shown to the player.
func Reason(err error) string {
	var nu *NotUsableError
	switch {
	case errors.Is(err, ErrNotOwned):
		return "Item not found or you do not have it."
	case errors.Is(err, ErrAlreadyFull):
		return "You are already at full HP/SP."
	case errors.As(err, &nu):
		return fmt.Sprintf("You cannot use %s.", nu.Name)
	default:
		return "You cannot use that right now."
	}
}

// UseResult describes the outcome of consuming one item.
type UseResult struct {
	ItemID   string
	ItemName string
	// HP and SP are the values after the effect.
	HP       int
	SP       int
	HealedHP int
	HealedSP int
}

// CheckUsable reports why def cannot be used by c, or nil when a use may be
// attempted. A nil def means the item id is unknown. Whether the character is
// already at full HP/SP is decided by UseConsumable.
func CheckUsable(c *character.Character, def *ItemDef) error {
	if def == nil || c.ItemCount(def.ID) <= 0 {
		return ErrNotOwned
	}
	if !def.Usable() {
		return &NotUsableError{Name: def.Name}
	}
	return nil
}

// UseConsumable applies def's effect to c starting from currentHP, which is
// the in-combat HP when a fight is in progress, and removes one from stock.
// On any error c is left unchanged.
//
// Precondition: c is non-nil.
// Postcondition: on success c.Stats.HP == result.HP, c.Stats.SP == result.SP,
// and c holds one fewer def.ID.
func UseConsumable(c *character.Character, def *ItemDef, currentHP int) (UseResult, error) {
	if err := CheckUsable(c, def); err != nil {
		return UseResult{}, err
	}

	res := UseResult{
		ItemID:   def.ID,
		ItemName: def.Name,
		HP:       currentHP,
		SP:       c.Stats.SP,
	}
	if hp := min(c.Stats.MaxHP, currentHP+def.Effect.HP); hp > currentHP {
		res.HP = hp
		res.HealedHP = hp - currentHP
	}
	if sp := min(c.Stats.MaxSP, c.Stats.SP+def.Effect.SP); sp > c.Stats.SP {
		res.SP = sp
		res.HealedSP = sp - c.Stats.SP
	}
	if res.HealedHP == 0 && res.HealedSP == 0 {
		return UseResult{}, ErrAlreadyFull
	}

	c.RemoveItem(def.ID, 1)
	c.Stats.HP = res.HP
	c.Stats.SP = res.SP
	return res, nil
}
