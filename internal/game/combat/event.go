package combat

// EventKind is the closed vocabulary of round events handed to the presentation layer.
type EventKind string

const (
	EventPlayerAttack  EventKind = "player_attack"
	EventMonsterAttack EventKind = "monster_attack"
	EventDefend        EventKind = "defend"
	EventItemUse       EventKind = "item_use"
	EventActionFailed  EventKind = "player_action_failed"
	EventRunSuccess    EventKind = "run_success"
	EventRunFail       EventKind = "run_fail"
	EventVictory       EventKind = "victory"
	EventDefeat        EventKind = "defeat"
	EventRewards       EventKind = "rewards"
)

// Event records one thing that happened during resolution. Fields not
// relevant to Kind are zero.
type Event struct {
	Kind      EventKind
	ActorID   string
	ActorName string
	// TargetID and TargetName identify the attacked party for attack events.
	TargetID   string
	TargetName string
	// TargetHP is the target's HP after an attack, or the actor's HP after an item use.
	TargetHP int

	Damage   int
	Critical bool
	Miss     bool

	ItemID   string
	ItemName string
	HealedHP int
	HealedSP int
	// Success is set for a successful item use.
	Success bool
	// Message carries the verbatim reason for failed actions and item uses.
	Message string

	Rewards *RewardOutcome
}
