package combat

import (
	"slices"
	"time"
)

// Mode is how participants were gathered.
type Mode int

const (
	ModeSolo Mode = iota
	ModeParty
)

func (m Mode) String() string {
	if m == ModeParty {
		return "party"
	}
	return "solo"
}

// Phase is whose turn it is within a round.
type Phase int

const (
	PhasePlayer Phase = iota
	PhaseMonster
)

func (p Phase) String() string {
	if p == PhaseMonster {
		return "monster"
	}
	return "player"
}

// Status is a session's lifecycle state. Every status except StatusActive is terminal.
type Status int

const (
	StatusActive Status = iota
	StatusVictory
	StatusDefeat
	StatusCancelled
	// StatusEscaped ends a session through a successful run; no rewards or penalties apply.
	StatusEscaped
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusVictory:
		return "victory"
	case StatusDefeat:
		return "defeat"
	case StatusCancelled:
		return "cancelled"
	case StatusEscaped:
		return "escaped"
	default:
		return "unknown"
	}
}

// Terminal reports whether the session has ended.
func (s Status) Terminal() bool { return s != StatusActive }

// Session is one fight between a set of participants and a monster.
//
// Invariant: pending holds at most one action per living participant and is
// empty whenever no round is being collected.
type Session struct {
	ID      string
	Mode    Mode
	PartyID string
	// Participants are in creation order, which is also same-round tie-break order.
	Participants []*CombatantState
	Monster      *MonsterState
	Phase        Phase
	Status       Status
	// Round counts completed player+monster exchanges.
	Round          int
	StartedAt      time.Time
	LastActivityAt time.Time

	pendingOrder []string
	pending      map[string]Action
}

type pendingAction struct {
	participantID string
	action        Action
}

func newSession(id string, mode Mode, partyID string, participants []*CombatantState, m *MonsterState, now time.Time) *Session {
	return &Session{
		ID:             id,
		Mode:           mode,
		PartyID:        partyID,
		Participants:   participants,
		Monster:        m,
		Phase:          PhasePlayer,
		Status:         StatusActive,
		StartedAt:      now,
		LastActivityAt: now,
		pending:        make(map[string]Action),
	}
}

// Participant returns the participant with id, or nil.
func (s *Session) Participant(id string) *CombatantState {
	for _, p := range s.Participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ParticipantIDs returns participant ids in creation order.
func (s *Session) ParticipantIDs() []string {
	ids := make([]string, len(s.Participants))
	for i, p := range s.Participants {
		ids[i] = p.ID
	}
	return ids
}

// Living returns participants with HP > 0, in creation order.
func (s *Session) Living() []*CombatantState {
	var out []*CombatantState
	for _, p := range s.Participants {
		if p.Alive() {
			out = append(out, p)
		}
	}
	return out
}

// LivingCount returns the number of participants with HP > 0.
func (s *Session) LivingCount() int {
	n := 0
	for _, p := range s.Participants {
		if p.Alive() {
			n++
		}
	}
	return n
}

// PendingCount returns the number of actions collected this round.
func (s *Session) PendingCount() int { return len(s.pendingOrder) }

// HasPending reports whether participantID already acted this round.
func (s *Session) HasPending(participantID string) bool {
	_, ok := s.pending[participantID]
	return ok
}

// PendingAction returns participantID's action for this round, if any.
func (s *Session) PendingAction(participantID string) (Action, bool) {
	a, ok := s.pending[participantID]
	return a, ok
}

func (s *Session) addPending(participantID string, a Action) {
	s.pendingOrder = append(s.pendingOrder, participantID)
	s.pending[participantID] = a
}

// pendingActions returns this round's actions in submission order.
func (s *Session) pendingActions() []pendingAction {
	out := make([]pendingAction, len(s.pendingOrder))
	for i, id := range s.pendingOrder {
		out[i] = pendingAction{participantID: id, action: s.pending[id]}
	}
	return out
}

func (s *Session) clearPending() {
	s.pendingOrder = nil
	clear(s.pending)
}

// clone returns a deep copy safe to hand to callers outside the engine lock.
func (s *Session) clone() *Session {
	cp := *s
	cp.Participants = make([]*CombatantState, len(s.Participants))
	for i, p := range s.Participants {
		pc := *p
		cp.Participants[i] = &pc
	}
	m := *s.Monster
	m.Drops = slices.Clone(s.Monster.Drops)
	cp.Monster = &m
	cp.pendingOrder = slices.Clone(s.pendingOrder)
	cp.pending = make(map[string]Action, len(s.pending))
	for id, a := range s.pending {
		cp.pending[id] = a
	}
	return &cp
}
