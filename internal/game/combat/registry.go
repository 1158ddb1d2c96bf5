package combat

import "sort"

// Registry maps every participant id to the id of its one active session and
// owns the sessions themselves. It is not safe for concurrent use; the
// Engine guards it with its own lock.
type Registry struct {
	sessions      map[string]*Session
	byParticipant map[string]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions:      make(map[string]*Session),
		byParticipant: make(map[string]string),
	}
}

// Add registers s under each of its participants.
//
// Precondition: no participant of s is registered.
func (r *Registry) Add(s *Session) {
	r.sessions[s.ID] = s
	for _, p := range s.Participants {
		r.byParticipant[p.ID] = s.ID
	}
}

// Lookup returns the active session for participantID.
func (r *Registry) Lookup(participantID string) (*Session, bool) {
	id, ok := r.byParticipant[participantID]
	if !ok {
		return nil, false
	}
	s, ok := r.sessions[id]
	return s, ok
}

// Remove erases s and every participant entry that points at it.
//
// Postcondition: Lookup returns false for every participant of s. Removing
// an unregistered session is a no-op.
func (r *Registry) Remove(s *Session) {
	delete(r.sessions, s.ID)
	for _, p := range s.Participants {
		if r.byParticipant[p.ID] == s.ID {
			delete(r.byParticipant, p.ID)
		}
	}
}

// Sessions returns each distinct registered session once, oldest first.
func (r *Registry) Sessions() []*Session {
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int { return len(r.sessions) }
