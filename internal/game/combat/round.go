package combat

import (
	"context"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/inventory"
)

// resolveRound processes the collected actions of s and, unless the fight
// ended, the monster's reply.
//
// Precondition: s is Active, in PhasePlayer, and every living participant has
// a pending action.
// Postcondition: pending actions are cleared. When the round ends the fight
// the session is removed from the registry before settlement runs.
func (e *Engine) resolveRound(ctx context.Context, s *Session) ([]Event, *RewardOutcome) {
	actions := s.pendingActions()
	s.clearPending()

	var events []Event
	if e.runAttempted(s, actions) {
		if e.roller.Probability("run", e.cfg.RunChance) {
			for _, pa := range actions {
				if pa.action.Kind == ActionRun {
					events = append(events, e.actorEvent(s, EventRunSuccess, pa.participantID))
				}
			}
			return events, e.finish(ctx, s, StatusEscaped, &events)
		}
		for _, pa := range actions {
			if pa.action.Kind == ActionRun {
				events = append(events, e.actorEvent(s, EventRunFail, pa.participantID))
			}
		}
	}

	for _, pa := range actions {
		actor := s.Participant(pa.participantID)
		switch pa.action.Kind {
		case ActionAttack:
			if s.Monster.HP <= 0 {
				continue
			}
			out := e.rollPlayerAttack(actor, s.Monster)
			s.Monster.HP = max(0, s.Monster.HP-out.Damage)
			events = append(events, Event{
				Kind:       EventPlayerAttack,
				ActorID:    actor.ID,
				ActorName:  actor.Name,
				TargetID:   s.Monster.ID,
				TargetName: s.Monster.Name,
				TargetHP:   s.Monster.HP,
				Damage:     out.Damage,
				Critical:   out.Critical,
				Miss:       out.Miss,
			})
		case ActionDefend:
			actor.Defending = true
			events = append(events, e.actorEvent(s, EventDefend, actor.ID))
		case ActionUseItem:
			events = append(events, e.useItem(ctx, actor, pa.action.ItemID))
		case ActionFailed:
			ev := e.actorEvent(s, EventActionFailed, actor.ID)
			ev.Message = pa.action.Reason
			events = append(events, ev)
		case ActionRun:
			// Already handled by the run attempt.
		}
	}

	if s.Monster.HP <= 0 {
		events = append(events, Event{Kind: EventVictory, TargetID: s.Monster.ID, TargetName: s.Monster.Name})
		return events, e.finish(ctx, s, StatusVictory, &events)
	}

	s.Phase = PhaseMonster
	if ev, ok := e.monsterTurn(s); ok {
		events = append(events, ev)
	}
	if s.LivingCount() == 0 {
		events = append(events, Event{Kind: EventDefeat, ActorID: s.Monster.ID, ActorName: s.Monster.Name})
		return events, e.finish(ctx, s, StatusDefeat, &events)
	}

	s.Phase = PhasePlayer
	for _, p := range s.Participants {
		p.Defending = false
	}
	s.Round++
	e.logger.Debug("round resolved",
		zap.String("session_id", s.ID),
		zap.Int("round", s.Round),
		zap.Int("monster_hp", s.Monster.HP),
		zap.Int("events", len(events)),
	)
	return events, nil
}

// runAttempted applies the flee rule: solo, any Run triggers an attempt; in
// a party, every action this round must be Run.
func (e *Engine) runAttempted(s *Session, actions []pendingAction) bool {
	runs := 0
	for _, pa := range actions {
		if pa.action.Kind == ActionRun {
			runs++
		}
	}
	if s.Mode == ModeSolo {
		return runs > 0
	}
	return runs > 0 && runs == len(actions)
}

func (e *Engine) rollPlayerAttack(p *CombatantState, m *MonsterState) AttackOutcome {
	if hit, _ := e.roller.Percent("player_hit", PlayerHitChance(p.Agility, m.Agility)); !hit {
		return AttackOutcome{Miss: true}
	}
	crit, _ := e.roller.Percent("player_crit", PlayerCritChance(p.Luck))
	variance := e.roller.Fraction("player_damage")
	return AttackOutcome{Critical: crit, Damage: PlayerDamage(p.Attack, m.Defense, variance, crit)}
}

func (e *Engine) rollMonsterAttack(m *MonsterState, target *CombatantState) AttackOutcome {
	if hit, _ := e.roller.Percent("monster_hit", MonsterHitChance(target.Agility)); !hit {
		return AttackOutcome{Miss: true}
	}
	crit, _ := e.roller.Percent("monster_crit", MonsterCritChance(m.Level))
	variance := e.roller.Fraction("monster_damage")
	return AttackOutcome{
		Critical: crit,
		Damage:   MonsterDamage(m.Attack, EffectiveDefense(target.Defense, target.Defending), variance, crit),
	}
}

// monsterTurn picks a target and attacks it. It reports false when nobody
// is left to attack.
func (e *Engine) monsterTurn(s *Session) (Event, bool) {
	living := s.Living()
	if len(living) == 0 {
		return Event{}, false
	}
	target := living[0]
	if s.Mode == ModeParty {
		target = living[e.roller.Pick("monster_target", len(living))]
	}

	out := e.rollMonsterAttack(s.Monster, target)
	target.HP = max(0, target.HP-out.Damage)
	return Event{
		Kind:       EventMonsterAttack,
		ActorID:    s.Monster.ID,
		ActorName:  s.Monster.Name,
		TargetID:   target.ID,
		TargetName: target.Name,
		TargetHP:   target.HP,
		Damage:     out.Damage,
		Critical:   out.Critical,
		Miss:       out.Miss,
	}, true
}

// useItem consumes one item from the persisted inventory, heals the
// participant's session HP, and writes the character back immediately.
func (e *Engine) useItem(ctx context.Context, actor *CombatantState, itemID string) Event {
	ev := Event{Kind: EventItemUse, ActorID: actor.ID, ActorName: actor.Name, ItemID: itemID, TargetHP: actor.HP}

	c, err := e.chars.Get(ctx, actor.ID)
	if err != nil {
		e.logger.Warn("loading character for item use", zap.String("participant_id", actor.ID), zap.Error(err))
		ev.Message = inventory.Reason(inventory.ErrNotOwned)
		return ev
	}
	def, _ := e.items.Item(itemID)
	res, err := inventory.UseConsumable(c, def, actor.HP)
	if err != nil {
		ev.Message = inventory.Reason(err)
		return ev
	}
	actor.HP = res.HP
	if err := e.chars.Save(ctx, c); err != nil {
		e.logger.Error("saving character after item use",
			zap.String("participant_id", actor.ID),
			zap.String("item_id", itemID),
			zap.Error(err),
		)
	}

	ev.Success = true
	ev.ItemName = res.ItemName
	ev.HealedHP = res.HealedHP
	ev.HealedSP = res.HealedSP
	ev.TargetHP = actor.HP
	return ev
}

func (e *Engine) actorEvent(s *Session, kind EventKind, participantID string) Event {
	ev := Event{Kind: kind, ActorID: participantID}
	if p := s.Participant(participantID); p != nil {
		ev.ActorName = p.Name
	}
	return ev
}

// finish moves s to a terminal status, tears it down, then settles it.
// The rewards event, when there is one, is appended to events.
func (e *Engine) finish(ctx context.Context, s *Session, status Status, events *[]Event) *RewardOutcome {
	s.Status = status
	e.registry.Remove(s)

	var rewards *RewardOutcome
	switch status {
	case StatusVictory:
		rewards = e.settleVictory(ctx, s)
	case StatusDefeat:
		rewards = e.settleDefeat(ctx, s)
	case StatusEscaped:
		e.syncHP(ctx, s)
	}
	if rewards != nil {
		*events = append(*events, Event{Kind: EventRewards, Rewards: rewards})
	}
	e.hooks.CombatEnded(s)

	e.logger.Info("combat ended",
		zap.String("session_id", s.ID),
		zap.Stringer("status", status),
		zap.Int("rounds", s.Round),
	)
	return rewards
}
