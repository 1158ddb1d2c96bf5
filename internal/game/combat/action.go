package combat

// ActionKind identifies what a participant does this round.
// The zero value (ActionUnknown) is intentionally invalid.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionAttack
	ActionDefend
	ActionUseItem
	ActionRun
	// ActionFailed is never submitted by callers; a UseItem that fails
	// validation is stored as ActionFailed so it still fills the turn slot.
	ActionFailed
)

// String returns the lowercase name of the ActionKind.
func (k ActionKind) String() string {
	switch k {
	case ActionAttack:
		return "attack"
	case ActionDefend:
		return "defend"
	case ActionUseItem:
		return "use_item"
	case ActionRun:
		return "run"
	case ActionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Action is one participant's choice for a round.
type Action struct {
	Kind ActionKind
	// ItemID is set for ActionUseItem.
	ItemID string
	// Reason is set for ActionFailed and is reported verbatim.
	Reason string
}

// Attack returns an attack action.
func Attack() Action { return Action{Kind: ActionAttack} }

// Defend returns a defend action.
func Defend() Action { return Action{Kind: ActionDefend} }

// UseItem returns an action consuming one itemID.
func UseItem(itemID string) Action { return Action{Kind: ActionUseItem, ItemID: itemID} }

// Run returns a flee action.
func Run() Action { return Action{Kind: ActionRun} }

func failedAction(reason string) Action { return Action{Kind: ActionFailed, Reason: reason} }
