package combat_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/inventory"
	"github.com/cory-johannsen/skirmish/internal/game/monster"
	"github.com/cory-johannsen/skirmish/internal/game/party"
)

// memStore is an in-memory CharacterStore that counts writes.
type memStore struct {
	mu    sync.Mutex
	chars map[string]*character.Character
	saves int
}

func newMemStore(chars ...*character.Character) *memStore {
	s := &memStore{chars: make(map[string]*character.Character)}
	for _, c := range chars {
		s.chars[c.ID] = c.Clone()
	}
	return s
}

func (s *memStore) Get(_ context.Context, id string) (*character.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chars[id]
	if !ok {
		return nil, character.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *memStore) Save(_ context.Context, c *character.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chars[c.ID] = c.Clone()
	s.saves++
	return nil
}

func (s *memStore) get(t *testing.T, id string) *character.Character {
	t.Helper()
	c, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	return c
}

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingHooks struct {
	started []string
	ended   []combat.Status
}

func (h *recordingHooks) CombatStarted(s *combat.Session) { h.started = append(h.started, s.ID) }
func (h *recordingHooks) CombatEnded(s *combat.Session)   { h.ended = append(h.ended, s.Status) }

func newHero(t *testing.T, id string) *character.Character {
	t.Helper()
	c, err := character.New(id, "Hero "+id, "swordman")
	require.NoError(t, err)
	return c
}

func heroes(t *testing.T, ids ...string) []*character.Character {
	t.Helper()
	out := make([]*character.Character, len(ids))
	for i, id := range ids {
		out[i] = newHero(t, id)
	}
	return out
}

type monsterSourceFunc func(id string) (*monster.Template, bool)

func (f monsterSourceFunc) Monster(id string) (*monster.Template, bool) { return f(id) }

// poring has no defense so a 10-attack hero always deals exactly 10 with a
// zero variance roll.
func poring() *monster.Template {
	return &monster.Template{
		ID: "poring", Name: "Poring", Level: 1,
		HP: 50, Attack: 20, Defense: 0, Agility: 0,
		Exp: 20, Zeny: 10,
	}
}

func redPotion() *inventory.ItemDef {
	return &inventory.ItemDef{
		ID: "red_potion", Name: "Red Potion", Kind: inventory.KindConsumable,
		Price: 50, Effect: &inventory.Effect{HP: 45},
	}
}

func jellopy() *inventory.ItemDef {
	return &inventory.ItemDef{ID: "jellopy", Name: "Jellopy", Kind: inventory.KindEtc, Price: 3}
}

type fixture struct {
	engine  *combat.Engine
	store   *memStore
	parties *party.Manager
	clock   *fakeClock
	hooks   *recordingHooks
	seq     *dice.Sequence
}

type fixtureOpts struct {
	monsters []*monster.Template
	chars    []*character.Character
	rolls    []float64
	source   dice.Source
	logger   *zap.Logger
	deps     func(*combat.Deps)
}

func newFixture(t *testing.T, opts fixtureOpts) *fixture {
	t.Helper()
	if len(opts.monsters) == 0 {
		opts.monsters = []*monster.Template{poring()}
	}
	monsters, err := monster.NewRegistry(opts.monsters)
	require.NoError(t, err)

	items := inventory.NewRegistry()
	require.NoError(t, items.RegisterItem(redPotion()))
	require.NoError(t, items.RegisterItem(jellopy()))

	f := &fixture{
		store:   newMemStore(opts.chars...),
		parties: party.NewManager(),
		clock:   newFakeClock(),
		hooks:   &recordingHooks{},
		seq:     dice.NewSequence(opts.rolls...),
	}
	src := opts.source
	if src == nil {
		src = f.seq
	}
	logger := opts.logger
	if logger == nil {
		logger = zaptest.NewLogger(t)
	}
	deps := combat.Deps{
		Characters: f.store,
		Monsters:   monsters,
		Items:      items,
		Parties:    f.parties,
		Hooks:      f.hooks,
		Source:     src,
		Clock:      f.clock.Now,
		Logger:     logger,
	}
	if opts.deps != nil {
		opts.deps(&deps)
	}
	f.engine, err = combat.NewEngine(combat.DefaultConfig(), deps)
	require.NoError(t, err)
	return f
}

// formParty creates a party led by the first id with the rest joined in order.
func (f *fixture) formParty(t *testing.T, ids ...string) *party.Party {
	t.Helper()
	p, err := f.parties.Create(ids[0], "testers")
	require.NoError(t, err)
	for _, id := range ids[1:] {
		p, err = f.parties.Join(p.ID, id)
		require.NoError(t, err)
	}
	return p
}

func (f *fixture) setSettings(t *testing.T, p *party.Party, mutate func(*party.Settings)) {
	t.Helper()
	s := p.Settings
	mutate(&s)
	_, err := f.parties.UpdateSettings(p.ID, p.Leader, s)
	require.NoError(t, err)
}

func (f *fixture) start(t *testing.T, initiatorID, monsterID string) *combat.Session {
	t.Helper()
	s, err := f.engine.Start(context.Background(), initiatorID, monsterID)
	require.NoError(t, err)
	return s
}

func (f *fixture) submit(t *testing.T, participantID string, a combat.Action) *combat.SubmitResult {
	t.Helper()
	res, err := f.engine.Submit(context.Background(), participantID, a)
	require.NoError(t, err)
	return res
}

func eventKinds(events []combat.Event) []combat.EventKind {
	out := make([]combat.EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func findEvent(events []combat.Event, kind combat.EventKind) (combat.Event, bool) {
	for _, ev := range events {
		if ev.Kind == kind {
			return ev, true
		}
	}
	return combat.Event{}, false
}
