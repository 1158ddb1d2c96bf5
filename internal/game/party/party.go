// Package party tracks in-process party membership and the sharing settings
// combat consults at creation and settlement.
package party

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// DefaultMaxMembers caps party size when no explicit limit is configured.
const DefaultMaxMembers = 6

var (
	// ErrNotFound is returned when a party id or member has no party.
	ErrNotFound = errors.New("party not found")
	// ErrAlreadyInParty is returned when a member tries to belong to two parties.
	ErrAlreadyInParty = errors.New("already in a party")
	// ErrPartyFull is returned when a join would exceed Settings.MaxMembers.
	ErrPartyFull = errors.New("party is full")
	// ErrNotLeader is returned when a leader-only operation is attempted by a member.
	ErrNotLeader = errors.New("only the party leader may do that")
)

// Settings are the party options that affect combat.
type Settings struct {
	// ExpShare splits exp and zeny evenly instead of granting each member the full amount.
	ExpShare bool
	// ItemShare gives each drop to a random participant instead of the first.
	ItemShare bool
	// AFK makes combat started by a member run solo.
	AFK        bool
	MaxMembers int
}

// DefaultSettings returns the settings of a freshly created party.
func DefaultSettings() Settings {
	return Settings{ExpShare: true, MaxMembers: DefaultMaxMembers}
}

// Party is a snapshot of one party. Members are in join order.
type Party struct {
	ID       string
	Name     string
	Leader   string
	Members  []string
	Settings Settings
}

func (p *Party) clone() *Party {
	cp := *p
	cp.Members = slices.Clone(p.Members)
	return &cp
}

// Manager owns all parties. All methods are safe for concurrent use and
// return copies, never the internal state.
type Manager struct {
	mu       sync.RWMutex
	parties  map[string]*Party
	byMember map[string]string
}

// NewManager creates an empty party Manager.
func NewManager() *Manager {
	return &Manager{
		parties:  make(map[string]*Party),
		byMember: make(map[string]string),
	}
}

// Create forms a new party led by leaderID.
//
// Precondition: leaderID must be non-empty.
// Postcondition: the leader is the sole member; returns ErrAlreadyInParty if
// leaderID already belongs to a party.
func (m *Manager) Create(leaderID, name string) (*Party, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byMember[leaderID]; ok {
		return nil, ErrAlreadyInParty
	}
	if name == "" {
		name = leaderID + "'s Party"
	}
	p := &Party{
		ID:       uuid.NewString(),
		Name:     name,
		Leader:   leaderID,
		Members:  []string{leaderID},
		Settings: DefaultSettings(),
	}
	m.parties[p.ID] = p
	m.byMember[leaderID] = p.ID
	return p.clone(), nil
}

// Join adds memberID to the party.
//
// Postcondition: memberID is the last member; the party is unchanged on error.
func (m *Manager) Join(partyID, memberID string) (*Party, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.parties[partyID]
	if !ok {
		return nil, fmt.Errorf("joining %q: %w", partyID, ErrNotFound)
	}
	if _, in := m.byMember[memberID]; in {
		return nil, ErrAlreadyInParty
	}
	if len(p.Members) >= p.Settings.MaxMembers {
		return nil, ErrPartyFull
	}
	p.Members = append(p.Members, memberID)
	m.byMember[memberID] = partyID
	return p.clone(), nil
}

// Leave removes memberID from its party. When the leader leaves, leadership
// passes to the next member; a party left empty is disbanded.
//
// Postcondition: returns the party after the change, or nil when it was disbanded.
func (m *Manager) Leave(memberID string) (*Party, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	partyID, ok := m.byMember[memberID]
	if !ok {
		return nil, ErrNotFound
	}
	p := m.parties[partyID]
	delete(m.byMember, memberID)
	p.Members = slices.DeleteFunc(p.Members, func(id string) bool { return id == memberID })
	if len(p.Members) == 0 {
		delete(m.parties, partyID)
		return nil, nil
	}
	if p.Leader == memberID {
		p.Leader = p.Members[0]
	}
	return p.clone(), nil
}

// UpdateSettings replaces the party settings. Only the leader may call it.
// A MaxMembers below the current member count is rejected.
func (m *Manager) UpdateSettings(partyID, actorID string, s Settings) (*Party, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.parties[partyID]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Leader != actorID {
		return nil, ErrNotLeader
	}
	if s.MaxMembers < len(p.Members) {
		return nil, fmt.Errorf("max members %d is below current size %d", s.MaxMembers, len(p.Members))
	}
	p.Settings = s
	return p.clone(), nil
}

// PartyOf returns the party memberID belongs to.
func (m *Manager) PartyOf(memberID string) (*Party, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byMember[memberID]
	if !ok {
		return nil, false
	}
	return m.parties[id].clone(), true
}

// Party returns the party with the given id.
func (m *Manager) Party(id string) (*Party, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.parties[id]
	if !ok {
		return nil, false
	}
	return p.clone(), true
}
