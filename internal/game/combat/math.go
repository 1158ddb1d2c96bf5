package combat

import "math"

// Combat math constants.
const (
	MinHitChance  = 10.0
	MaxHitChance  = 95.0
	MaxCritChance = 50.0

	critMultiplier   = 1.5
	defendMultiplier = 1.5
)

func clamp(lo, hi, v float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// PlayerHitChance is the percentage chance a participant's attack lands.
//
// Postcondition: result is in [MinHitChance, MaxHitChance].
func PlayerHitChance(agility, monsterAgility int) float64 {
	return clamp(MinHitChance, MaxHitChance, float64(agility)*0.5+80-float64(monsterAgility)*0.2)
}

// PlayerCritChance is the percentage chance a landed participant attack is critical.
func PlayerCritChance(luck int) float64 {
	return math.Min(MaxCritChance, float64(luck)*0.5)
}

// PlayerDamage computes participant damage against the monster. variance is a
// draw in [0, 1) scaled to 10% of attack.
//
// Postcondition: result >= 1.
func PlayerDamage(attack, monsterDefense int, variance float64, critical bool) int {
	dmg := max(1, attack-monsterDefense+int(math.Floor(variance*float64(attack)*0.1)))
	if critical {
		dmg = applyCrit(dmg)
	}
	return dmg
}

// MonsterHitChance is the percentage chance the monster's attack lands on target.
//
// Postcondition: result is in [MinHitChance, MaxHitChance].
func MonsterHitChance(targetAgility int) float64 {
	return clamp(MinHitChance, MaxHitChance, 90-float64(targetAgility)*0.2)
}

// MonsterCritChance is the percentage chance a landed monster attack is critical.
func MonsterCritChance(level int) float64 {
	return math.Min(MaxCritChance, 5+float64(level)*0.5)
}

// EffectiveDefense is the target's defense, raised by half while defending.
func EffectiveDefense(defense int, defending bool) float64 {
	if defending {
		return float64(defense) * defendMultiplier
	}
	return float64(defense)
}

// MonsterDamage computes monster damage against a participant. variance is a
// draw in [0, 1) scaled to a bonus of 0-2.
//
// Postcondition: result >= 1.
func MonsterDamage(attack int, effectiveDefense, variance float64, critical bool) int {
	raw := float64(attack) - effectiveDefense + math.Floor(variance*3)
	dmg := max(1, int(math.Floor(raw)))
	if critical {
		dmg = applyCrit(dmg)
	}
	return dmg
}

func applyCrit(dmg int) int {
	return int(math.Floor(float64(dmg) * critMultiplier))
}

// AttackOutcome is the result of one resolved attack.
//
// Invariant: Miss implies Damage == 0 and !Critical; !Miss implies Damage >= 1.
type AttackOutcome struct {
	Miss     bool
	Critical bool
	Damage   int
}
