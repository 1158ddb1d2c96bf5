// Package combat resolves turn-based fights between one or more characters
// and a single monster: session creation, the per-round action barrier,
// round resolution, settlement, and the idle-session sweep.
package combat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/inventory"
)

const tracerName = "github.com/cory-johannsen/skirmish/internal/game/combat"

// Config tunes engine behaviour.
type Config struct {
	// IdleTimeout is how long a session may go without an accepted submission
	// before Sweep cancels it.
	IdleTimeout time.Duration
	// RunChance is the probability in [0, 1] that a run attempt succeeds.
	RunChance float64
}

// DefaultConfig returns a two minute idle timeout and a 70% run chance.
func DefaultConfig() Config {
	return Config{IdleTimeout: 2 * time.Minute, RunChance: 0.7}
}

// Deps are the engine's collaborators. Characters, Monsters, Items, Parties,
// Source and Logger are required; Hooks, Clock and Tracer are optional.
type Deps struct {
	Characters CharacterStore
	Monsters   MonsterSource
	Items      ItemSource
	Parties    PartyProvider
	Hooks      Hooks
	Source     dice.Source
	Clock      func() time.Time
	Logger     *zap.Logger
	Tracer     trace.Tracer
}

// Engine owns every active session. All methods are safe for concurrent
// use; they are serialized by a single lock, so the submission that
// completes a round is always the one that resolves it.
type Engine struct {
	mu       sync.Mutex
	registry *Registry

	cfg      Config
	chars    CharacterStore
	monsters MonsterSource
	items    ItemSource
	parties  PartyProvider
	hooks    Hooks
	roller   *dice.Roller
	now      func() time.Time
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewEngine builds an Engine.
//
// Precondition: every required field of deps is non-nil; cfg.IdleTimeout > 0;
// cfg.RunChance is within [0, 1].
// Postcondition: Returns a ready Engine with an empty registry, or an error
// naming the first violated precondition.
func NewEngine(cfg Config, deps Deps) (*Engine, error) {
	switch {
	case deps.Characters == nil:
		return nil, errors.New("combat: character store is required")
	case deps.Monsters == nil:
		return nil, errors.New("combat: monster source is required")
	case deps.Items == nil:
		return nil, errors.New("combat: item source is required")
	case deps.Parties == nil:
		return nil, errors.New("combat: party provider is required")
	case deps.Source == nil:
		return nil, errors.New("combat: dice source is required")
	case deps.Logger == nil:
		return nil, errors.New("combat: logger is required")
	case cfg.IdleTimeout <= 0:
		return nil, fmt.Errorf("combat: idle timeout must be > 0, got %s", cfg.IdleTimeout)
	case cfg.RunChance < 0 || cfg.RunChance > 1:
		return nil, fmt.Errorf("combat: run chance must be within [0, 1], got %g", cfg.RunChance)
	}

	e := &Engine{
		registry: NewRegistry(),
		cfg:      cfg,
		chars:    deps.Characters,
		monsters: deps.Monsters,
		items:    deps.Items,
		parties:  deps.Parties,
		hooks:    deps.Hooks,
		roller:   dice.NewLoggedRoller(deps.Source, deps.Logger),
		now:      deps.Clock,
		logger:   deps.Logger,
		tracer:   deps.Tracer,
	}
	if e.hooks == nil {
		e.hooks = noopHooks{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	return e, nil
}

// Start creates a session for initiatorID against monsterID.
//
// When the initiator belongs to a party that is not AFK the session runs in
// party mode with every member on the initiator's map who is not already
// fighting elsewhere; otherwise it runs solo.
//
// Postcondition: on success the returned snapshot is registered under every
// participant id. On error nothing is registered; a missing character or
// monster yields a *CreationError and an initiator at 0 HP yields
// ErrInitiatorDefeated.
func (e *Engine) Start(ctx context.Context, initiatorID, monsterID string) (*Session, error) {
	ctx, span := e.tracer.Start(ctx, "combat.Start", trace.WithAttributes(
		attribute.String("combat.initiator_id", initiatorID),
		attribute.String("combat.monster_id", monsterID),
	))
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.start(ctx, initiatorID, monsterID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("combat.session_id", s.ID),
		attribute.String("combat.mode", s.Mode.String()),
		attribute.Int("combat.participants", len(s.Participants)),
	)
	return s.clone(), nil
}

func (e *Engine) start(ctx context.Context, initiatorID, monsterID string) (*Session, error) {
	if _, busy := e.registry.Lookup(initiatorID); busy {
		return nil, ErrAlreadyInCombat
	}

	initiator, err := e.chars.Get(ctx, initiatorID)
	if errors.Is(err, character.ErrNotFound) {
		return nil, &CreationError{Missing: MissingCharacter, ID: initiatorID}
	}
	if err != nil {
		return nil, fmt.Errorf("loading character %q: %w", initiatorID, err)
	}
	if initiator.Stats.HP <= 0 {
		return nil, ErrInitiatorDefeated
	}
	tmpl, ok := e.monsters.Monster(monsterID)
	if !ok {
		return nil, &CreationError{Missing: MissingMonster, ID: monsterID}
	}

	mode := ModeSolo
	var partyID string
	members := []*character.Character{initiator}
	if p, ok := e.parties.PartyOf(initiatorID); ok && !p.Settings.AFK {
		mode = ModeParty
		partyID = p.ID
		members = e.gatherParty(ctx, initiator, p.Members)
	}

	participants := make([]*CombatantState, len(members))
	for i, c := range members {
		participants[i] = newCombatantState(c)
	}
	s := newSession(uuid.NewString(), mode, partyID, participants, newMonsterState(tmpl), e.now())
	e.registry.Add(s)
	e.hooks.CombatStarted(s)

	e.logger.Info("combat started",
		zap.String("session_id", s.ID),
		zap.String("mode", mode.String()),
		zap.String("party_id", partyID),
		zap.Strings("participants", s.ParticipantIDs()),
		zap.String("monster", tmpl.ID),
	)
	return s, nil
}

// gatherParty returns the party members, in party order, who stand on the
// initiator's map, have HP left and are not already in another session.
// The initiator is always included.
func (e *Engine) gatherParty(ctx context.Context, initiator *character.Character, memberIDs []string) []*character.Character {
	var out []*character.Character
	for _, id := range memberIDs {
		if id == initiator.ID {
			out = append(out, initiator)
			continue
		}
		if _, busy := e.registry.Lookup(id); busy {
			e.logger.Debug("party member already in combat", zap.String("member_id", id))
			continue
		}
		c, err := e.chars.Get(ctx, id)
		if err != nil {
			e.logger.Warn("loading party member", zap.String("member_id", id), zap.Error(err))
			continue
		}
		if c.Position.Map != initiator.Position.Map {
			continue
		}
		if c.Stats.HP <= 0 {
			e.logger.Debug("party member has no HP", zap.String("member_id", id))
			continue
		}
		out = append(out, c)
	}
	return out
}

// SubmitResult is returned for every accepted submission.
type SubmitResult struct {
	SessionID string
	// Action is the action as stored; an invalid UseItem appears as ActionFailed.
	Action Action
	// Resolved is true when this submission completed the round.
	Resolved bool
	// Waiting is the number of living participants still to act when Resolved is false.
	Waiting int
	Events  []Event
	Status  Status
	// Rewards is set when the round ended in victory or defeat.
	Rewards *RewardOutcome
	// Session is a snapshot taken after this submission was processed.
	Session *Session
}

// Submit records participantID's action for the current round. If every
// living participant has now acted the round is resolved before Submit
// returns.
//
// Postcondition: on error the session is unchanged. Errors are
// ErrSessionNotFound, ErrNotYourTurn, ErrParticipantDefeated,
// ErrAlreadyActed, or an *InvalidActionError.
func (e *Engine) Submit(ctx context.Context, participantID string, a Action) (*SubmitResult, error) {
	ctx, span := e.tracer.Start(ctx, "combat.Submit", trace.WithAttributes(
		attribute.String("combat.participant_id", participantID),
		attribute.String("combat.action", a.Kind.String()),
	))
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.submit(ctx, participantID, a)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("combat.session_id", res.SessionID),
		attribute.Bool("combat.resolved", res.Resolved),
		attribute.String("combat.status", res.Status.String()),
	)
	return res, nil
}

func (e *Engine) submit(ctx context.Context, participantID string, a Action) (*SubmitResult, error) {
	s, ok := e.registry.Lookup(participantID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.Phase != PhasePlayer {
		return nil, ErrNotYourTurn
	}
	p := s.Participant(participantID)
	if p == nil || !p.Alive() {
		return nil, ErrParticipantDefeated
	}
	if s.HasPending(participantID) {
		return nil, ErrAlreadyActed
	}

	switch a.Kind {
	case ActionAttack, ActionDefend, ActionRun:
		a = Action{Kind: a.Kind}
	case ActionUseItem:
		if a.ItemID == "" {
			return nil, &InvalidActionError{Reason: "use item requires an item id"}
		}
		a = e.validateItem(ctx, participantID, a.ItemID)
	default:
		return nil, &InvalidActionError{Reason: fmt.Sprintf("unsupported action %q", a.Kind)}
	}

	s.addPending(participantID, a)
	s.LastActivityAt = e.now()

	res := &SubmitResult{SessionID: s.ID, Action: a, Status: s.Status}
	if waiting := s.LivingCount() - s.PendingCount(); waiting > 0 {
		e.logger.Debug("action accepted",
			zap.String("session_id", s.ID),
			zap.String("participant_id", participantID),
			zap.Stringer("action", a.Kind),
			zap.Int("waiting", waiting),
		)
		res.Waiting = waiting
		res.Session = s.clone()
		return res, nil
	}

	res.Resolved = true
	res.Events, res.Rewards = e.resolveRound(ctx, s)
	res.Status = s.Status
	res.Session = s.clone()
	return res, nil
}

// validateItem checks a UseItem request against the persisted inventory and
// the item registry, rewriting it to a failed action when it cannot be used.
func (e *Engine) validateItem(ctx context.Context, participantID, itemID string) Action {
	c, err := e.chars.Get(ctx, participantID)
	if err != nil {
		e.logger.Warn("loading character for item validation",
			zap.String("participant_id", participantID),
			zap.Error(err),
		)
		return failedAction(inventory.Reason(inventory.ErrNotOwned))
	}
	def, _ := e.items.Item(itemID)
	if err := inventory.CheckUsable(c, def); err != nil {
		return failedAction(inventory.Reason(err))
	}
	return UseItem(itemID)
}

// Lookup returns a snapshot of participantID's active session.
func (e *Engine) Lookup(participantID string) (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.registry.Lookup(participantID)
	if !ok {
		return nil, false
	}
	return s.clone(), true
}

// ActiveSessions returns the number of active sessions.
func (e *Engine) ActiveSessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Len()
}

// Sweep cancels every session whose last accepted submission is older than
// the idle timeout. Cancelled sessions are torn down without settlement or
// persistence writes.
//
// Postcondition: returns the cancelled session ids, oldest first. Calling
// Sweep again at the same instant cancels nothing.
func (e *Engine) Sweep(ctx context.Context) []string {
	_, span := e.tracer.Start(ctx, "combat.Sweep")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var cancelled []string
	for _, s := range e.registry.Sessions() {
		idle := now.Sub(s.LastActivityAt)
		if idle <= e.cfg.IdleTimeout {
			continue
		}
		s.Status = StatusCancelled
		s.clearPending()
		e.registry.Remove(s)
		e.hooks.CombatEnded(s)
		cancelled = append(cancelled, s.ID)
		e.logger.Info("combat cancelled by sweep",
			zap.String("session_id", s.ID),
			zap.Duration("idle", idle),
			zap.Strings("participants", s.ParticipantIDs()),
		)
	}
	span.SetAttributes(attribute.Int("combat.cancelled", len(cancelled)))
	return cancelled
}
