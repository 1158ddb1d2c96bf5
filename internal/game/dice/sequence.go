package dice

import "sync"

// Sequence replays a fixed list of rolls in [0, 1). Intn(n) maps the next
// value v to floor(v·n), so a scripted fight is described by one list in
// call order. Once the list is exhausted the last value repeats; an empty
// Sequence always yields 0.
type Sequence struct {
	mu     sync.Mutex
	values []float64
	pos    int
}

// NewSequence returns a Sequence over values.
//
// Precondition: every value is in [0, 1).
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: append([]float64(nil), values...)}
}

func (s *Sequence) next() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	if s.pos >= len(s.values) {
		return s.values[len(s.values)-1]
	}
	v := s.values[s.pos]
	s.pos++
	return v
}

// Float64 returns the next scripted value.
func (s *Sequence) Float64() float64 { return s.next() }

// Intn returns floor(next·n), clamped to n-1.
//
// Precondition: n > 0.
func (s *Sequence) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	v := int(s.next() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// Consumed reports how many scripted values have been drawn.
func (s *Sequence) Consumed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}
