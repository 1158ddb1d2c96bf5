package combat

import (
	"context"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/monster"
)

// AwardedItem is one item drop delivered to a participant.
type AwardedItem struct {
	ItemID      string
	Quantity    int
	RecipientID string
}

// RewardOutcome summarises what settlement changed.
//
// On victory ExpDelta and ZenyDelta are the amounts each participant
// received. On defeat ExpDelta is the negative sum of exp lost across all
// participants and ZenyDelta is zero.
type RewardOutcome struct {
	ExpDelta  int
	ZenyDelta int
	Items     []AwardedItem
	// LeveledUp holds the participants whose level-up cascade fired.
	LeveledUp map[string]bool
}

// sharing reports the exp and item sharing flags in force at settlement.
// Party settings are re-read; a disbanded party shares nothing.
func (e *Engine) sharing(s *Session) (expShare, itemShare bool) {
	if s.Mode == ModeSolo {
		return true, false
	}
	p, ok := e.parties.Party(s.PartyID)
	if !ok {
		e.logger.Debug("party gone at settlement", zap.String("party_id", s.PartyID))
		return false, false
	}
	return p.Settings.ExpShare, p.Settings.ItemShare
}

// settleVictory grants exp, zeny and drops.
//
// Precondition: s is no longer registered.
func (e *Engine) settleVictory(ctx context.Context, s *Session) *RewardOutcome {
	expShare, itemShare := e.sharing(s)

	out := &RewardOutcome{
		ExpDelta:  s.Monster.ExpReward,
		ZenyDelta: s.Monster.ZenyReward,
		LeveledUp: make(map[string]bool),
	}
	if n := len(s.Participants); expShare && n > 0 {
		out.ExpDelta /= n
		out.ZenyDelta /= n
	}

	for _, p := range s.Participants {
		c, err := e.chars.Get(ctx, p.ID)
		if err != nil {
			e.logger.Error("loading character for settlement", zap.String("participant_id", p.ID), zap.Error(err))
			continue
		}
		c.Stats.HP = p.HP
		c.Zeny += out.ZenyDelta
		if levels := c.GainExp(out.ExpDelta); levels > 0 {
			out.LeveledUp[p.ID] = true
			e.logger.Info("level up",
				zap.String("participant_id", p.ID),
				zap.Int("level", c.Level),
				zap.Int("levels_gained", levels),
			)
		}
		if err := e.chars.Save(ctx, c); err != nil {
			e.logger.Error("saving character after victory", zap.String("participant_id", p.ID), zap.Error(err))
		}
	}

	for _, d := range monster.RollDrops(s.Monster.Drops, e.roller) {
		if _, ok := e.items.Item(d.ItemID); !ok {
			e.logger.Warn("drop table references unknown item",
				zap.String("monster_id", s.Monster.ID),
				zap.String("item_id", d.ItemID),
			)
			continue
		}
		recipient := s.Participants[0]
		if s.Mode == ModeParty && itemShare {
			recipient = s.Participants[e.roller.Pick("drop_recipient", len(s.Participants))]
		}
		if e.giveItem(ctx, recipient.ID, d) {
			out.Items = append(out.Items, AwardedItem{ItemID: d.ItemID, Quantity: d.Quantity, RecipientID: recipient.ID})
		}
	}
	return out
}

func (e *Engine) giveItem(ctx context.Context, recipientID string, d monster.Drop) bool {
	c, err := e.chars.Get(ctx, recipientID)
	if err != nil {
		e.logger.Error("loading drop recipient", zap.String("participant_id", recipientID), zap.Error(err))
		return false
	}
	c.AddItem(d.ItemID, d.Quantity)
	if err := e.chars.Save(ctx, c); err != nil {
		e.logger.Error("saving drop recipient",
			zap.String("participant_id", recipientID),
			zap.String("item_id", d.ItemID),
			zap.Error(err),
		)
		return false
	}
	return true
}

// settleDefeat revives every participant at 1 HP and deducts 1% exp each.
func (e *Engine) settleDefeat(ctx context.Context, s *Session) *RewardOutcome {
	out := &RewardOutcome{LeveledUp: make(map[string]bool)}
	for _, p := range s.Participants {
		c, err := e.chars.Get(ctx, p.ID)
		if err != nil {
			e.logger.Error("loading character for defeat", zap.String("participant_id", p.ID), zap.Error(err))
			continue
		}
		out.ExpDelta -= c.ApplyDefeatPenalty()
		if err := e.chars.Save(ctx, c); err != nil {
			e.logger.Error("saving character after defeat", zap.String("participant_id", p.ID), zap.Error(err))
		}
	}
	return out
}

// syncHP writes each participant's session HP back after an escape.
func (e *Engine) syncHP(ctx context.Context, s *Session) {
	for _, p := range s.Participants {
		c, err := e.chars.Get(ctx, p.ID)
		if err != nil {
			e.logger.Error("loading character after escape", zap.String("participant_id", p.ID), zap.Error(err))
			continue
		}
		if c.Stats.HP == p.HP {
			continue
		}
		c.Stats.HP = p.HP
		if err := e.chars.Save(ctx, c); err != nil {
			e.logger.Error("saving character after escape", zap.String("participant_id", p.ID), zap.Error(err))
		}
	}
}
