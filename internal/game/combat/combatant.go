package combat

import (
	"slices"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/monster"
)

// CombatantState is a participant's snapshot for the duration of one session.
// Stats are copied from the persisted character at creation; only HP and
// Defending change afterwards.
type CombatantState struct {
	ID      string
	Name    string
	HP      int
	MaxHP   int
	Attack  int
	Defense int
	Agility int
	Luck    int
	// Defending is set by a Defend action and cleared after the monster acts.
	Defending bool
}

// Alive reports whether the participant can still act.
func (c *CombatantState) Alive() bool { return c.HP > 0 }

func newCombatantState(c *character.Character) *CombatantState {
	return &CombatantState{
		ID:      c.ID,
		Name:    c.Name,
		HP:      c.Stats.HP,
		MaxHP:   c.Stats.MaxHP,
		Attack:  c.Stats.Attack,
		Defense: c.Stats.Defense,
		Agility: c.Stats.Agility,
		Luck:    c.Stats.Luck,
	}
}

// MonsterState is the monster's snapshot for one session.
type MonsterState struct {
	ID         string
	Name       string
	HP         int
	MaxHP      int
	Attack     int
	Defense    int
	Agility    int
	Level      int
	ExpReward  int
	ZenyReward int
	Drops      []monster.Drop
}

func newMonsterState(t *monster.Template) *MonsterState {
	return &MonsterState{
		ID:         t.ID,
		Name:       t.Name,
		HP:         t.HP,
		MaxHP:      t.HP,
		Attack:     t.Attack,
		Defense:    t.Defense,
		Agility:    t.Agility,
		Level:      t.Level,
		ExpReward:  t.Exp,
		ZenyReward: t.Zeny,
		Drops:      slices.Clone(t.Drops),
	}
}
