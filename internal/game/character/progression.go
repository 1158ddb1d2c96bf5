package character

// Level-up grants, applied once per level gained.
const (
	LevelUpMaxHP        = 10
	LevelUpMaxSP        = 5
	LevelUpStatusPoints = 3
	LevelUpSkillPoints  = 1
)

// GainExp adds amount to the character's exp and runs the level-up cascade:
// while Exp >= ExpToNext the threshold is subtracted, Level increments,
// ExpToNext grows by a factor of 1.2 (floored), and the per-level grants are
// applied. When at least one level was gained HP and SP are restored to
// their new maxima.
//
// Precondition: amount >= 0; ExpToNext > 0.
// Postcondition: Exp < ExpToNext. Returns the number of levels gained.
func (c *Character) GainExp(amount int) int {
	c.Exp += amount
	gained := 0
	for c.ExpToNext > 0 && c.Exp >= c.ExpToNext {
		c.Exp -= c.ExpToNext
		c.Level++
		c.ExpToNext = c.ExpToNext * 12 / 10
		c.Stats.MaxHP += LevelUpMaxHP
		c.Stats.MaxSP += LevelUpMaxSP
		c.StatusPoints += LevelUpStatusPoints
		c.SkillPoints += LevelUpSkillPoints
		gained++
	}
	if gained > 0 {
		c.Stats.HP = c.Stats.MaxHP
		c.Stats.SP = c.Stats.MaxSP
	}
	return gained
}

// ApplyDefeatPenalty revives the character at 1 HP and deducts
// 1% of current exp, rounded down.
//
// Postcondition: Stats.HP == 1. Returns the exp lost (>= 0).
func (c *Character) ApplyDefeatPenalty() int {
	loss := c.Exp / 100
	c.Exp -= loss
	c.Stats.HP = 1
	return loss
}
