package combat

import (
	"context"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/inventory"
	"github.com/cory-johannsen/skirmish/internal/game/monster"
	"github.com/cory-johannsen/skirmish/internal/game/party"
)

// CharacterStore loads and persists characters. Get returns a copy the
// engine may mutate freely; writes happen only through Save.
type CharacterStore interface {
	// Get returns character.ErrNotFound when id is unknown.
	Get(ctx context.Context, id string) (*character.Character, error)
	Save(ctx context.Context, c *character.Character) error
}

// MonsterSource looks up monster templates.
type MonsterSource interface {
	Monster(id string) (*monster.Template, bool)
}

// ItemSource looks up item definitions. Item returns nil, false for an
// unknown id.
type ItemSource interface {
	Item(id string) (*inventory.ItemDef, bool)
}

// PartyProvider answers party membership and settings questions.
type PartyProvider interface {
	PartyOf(memberID string) (*party.Party, bool)
	Party(id string) (*party.Party, bool)
}

// Hooks observe session lifecycle transitions. Implementations run while
// the engine lock is held and must not call back into the Engine.
type Hooks interface {
	CombatStarted(s *Session)
	CombatEnded(s *Session)
}

type noopHooks struct{}

func (noopHooks) CombatStarted(*Session) {}
func (noopHooks) CombatEnded(*Session)   {}
