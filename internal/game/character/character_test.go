package character_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/character"
)

func newHero(t *testing.T) *character.Character {
	t.Helper()
	c, err := character.New("u1", "Hero", "")
	require.NoError(t, err)
	return c
}

func TestNew_StartingStatLine(t *testing.T) {
	c := newHero(t)
	assert.Equal(t, "novice", c.Class)
	assert.Equal(t, 1, c.Level)
	assert.Equal(t, 0, c.Exp)
	assert.Equal(t, 100, c.ExpToNext)
	assert.Equal(t, 100, c.Stats.HP)
	assert.Equal(t, 50, c.Stats.MaxSP)
	assert.Equal(t, 1000, c.Zeny)
	assert.Equal(t, "prontera", c.Position.Map)
	assert.NotNil(t, c.Items)
}

func TestNew_RejectsEmptyFields(t *testing.T) {
	_, err := character.New("", "Hero", "novice")
	assert.Error(t, err)
	_, err = character.New("u1", "", "novice")
	assert.Error(t, err)
}

func TestGainExp_SingleLevel(t *testing.T) {
	c := newHero(t)
	c.Exp = 90
	c.Stats.HP = 40
	c.Stats.SP = 3

	gained := c.GainExp(20)

	assert.Equal(t, 1, gained)
	assert.Equal(t, 2, c.Level)
	assert.Equal(t, 10, c.Exp)
	assert.Equal(t, 120, c.ExpToNext)
	assert.Equal(t, 110, c.Stats.MaxHP)
	assert.Equal(t, 55, c.Stats.MaxSP)
	assert.Equal(t, 110, c.Stats.HP, "hp restored to new max")
	assert.Equal(t, 55, c.Stats.SP, "sp restored to new max")
	assert.Equal(t, 3, c.StatusPoints)
	assert.Equal(t, 1, c.SkillPoints)
}

func TestGainExp_MultipleLevels(t *testing.T) {
	c := newHero(t)
	// 100 + 120 + 144 = 364 to reach level 4.
	gained := c.GainExp(370)
	assert.Equal(t, 3, gained)
	assert.Equal(t, 4, c.Level)
	assert.Equal(t, 6, c.Exp)
	assert.Equal(t, 172, c.ExpToNext)
}

func TestGainExp_NoLevelKeepsHP(t *testing.T) {
	c := newHero(t)
	c.Stats.HP = 30
	gained := c.GainExp(50)
	assert.Zero(t, gained)
	assert.Equal(t, 30, c.Stats.HP)
	assert.Equal(t, 50, c.Exp)
}

func TestGainExp_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c, _ := character.New("u", "P", "novice")
		c.Exp = rapid.IntRange(0, 99).Draw(rt, "start")
		amount := rapid.IntRange(0, 100000).Draw(rt, "amount")
		before := c.Level
		gained := c.GainExp(amount)

		assert.Less(rt, c.Exp, c.ExpToNext)
		assert.GreaterOrEqual(rt, c.Exp, 0)
		assert.Equal(rt, before+gained, c.Level)
		assert.Equal(rt, 3*gained, c.StatusPoints)
		assert.Equal(rt, 100+10*gained, c.Stats.MaxHP)
	})
}

func TestApplyDefeatPenalty(t *testing.T) {
	c := newHero(t)
	c.Exp = 250
	c.Stats.HP = 0
	loss := c.ApplyDefeatPenalty()
	assert.Equal(t, 2, loss)
	assert.Equal(t, 248, c.Exp)
	assert.Equal(t, 1, c.Stats.HP)
}

func TestApplyDefeatPenalty_SmallExpLosesNothing(t *testing.T) {
	c := newHero(t)
	c.Exp = 99
	assert.Zero(t, c.ApplyDefeatPenalty())
	assert.Equal(t, 99, c.Exp)
}

func TestInventory_AddRemove(t *testing.T) {
	c := newHero(t)
	c.AddItem("red_potion", 3)
	assert.Equal(t, 3, c.ItemCount("red_potion"))

	assert.False(t, c.RemoveItem("red_potion", 4))
	assert.Equal(t, 3, c.ItemCount("red_potion"))

	assert.True(t, c.RemoveItem("red_potion", 3))
	_, present := c.Items["red_potion"]
	assert.False(t, present, "empty stacks are deleted")
}

func TestClone_IsDeep(t *testing.T) {
	c := newHero(t)
	c.AddItem("apple", 1)
	cp := c.Clone()
	cp.AddItem("apple", 5)
	cp.Stats.HP = 1
	assert.Equal(t, 1, c.ItemCount("apple"))
	assert.Equal(t, 100, c.Stats.HP)
}
