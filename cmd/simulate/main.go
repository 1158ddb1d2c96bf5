// Package main embeds the combat engine the way a game host would and drives
// one reproducible fight through it. The fight runs as a lifecycle service
// beside the idle-session sweep and, for remote stores, a database health
// check. Characters live in a private in-memory SQLite store unless -persist
// points the run at the configured database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/inventory"
	"github.com/cory-johannsen/skirmish/internal/game/monster"
	"github.com/cory-johannsen/skirmish/internal/game/party"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/scripting"
	"github.com/cory-johannsen/skirmish/internal/server"
	"github.com/cory-johannsen/skirmish/internal/storage"
	"github.com/cory-johannsen/skirmish/internal/storage/sqlite"
)

// scriptSeedMix derives the Lua dice seed from the fight seed so script rolls
// never consume values from the combat stream.
const scriptSeedMix = 0x5c21b7e3a94d06f1

var errInterrupted = errors.New("simulation interrupted")

func main() {
	configPath := flag.String("config", "", "optional configuration file")
	persist := flag.Bool("persist", false, "keep characters in the configured database so heroes carry progress between runs")
	monsterID := flag.String("monster", "poring", "monster template id to fight")
	heroes := flag.Int("heroes", 1, "number of characters; more than one forms a party")
	potions := flag.Int("potions", 2, "red potions given to each new character")
	itemShare := flag.Bool("item-share", false, "party setting: distribute drops randomly")
	seed := flag.Uint64("seed", 1, "dice seed")
	maxRounds := flag.Int("max-rounds", 200, "give up after this many rounds")
	healthInterval := flag.Duration("health-interval", 30*time.Second, "database health check period")
	flag.Parse()

	ctx := context.Background()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if !*persist {
		cfg.Database = memoryDatabase()
	}

	logger, err := observability.NewLogger(cfg.Logging, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Telemetry)
	if err != nil {
		logger.Fatal("setting up tracing", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("flushing traces", zap.Error(err))
		}
	}()

	sim, err := newSimulation(ctx, cfg, *seed, logger)
	if err != nil {
		logger.Fatal("building simulation", zap.Error(err))
	}
	defer sim.close()

	if err := sim.seedHeroes(*heroes, *potions, *itemShare); err != nil {
		logger.Fatal("preparing characters", zap.Error(err))
	}
	status, err := sim.serve(ctx, *monsterID, *maxRounds, *healthInterval)
	if err != nil {
		logger.Error("simulation failed", zap.Error(err))
		return
	}
	logger.Info("simulation finished", zap.Stringer("status", status))
	sim.report()
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromViper(config.Defaults())
}

func memoryDatabase() config.DatabaseConfig {
	return config.DatabaseConfig{Driver: "sqlite", SQLitePath: sqlite.MemoryPath}
}

type simulation struct {
	ctx        context.Context
	logger     *zap.Logger
	backend    *storage.Backend
	store      storage.CharacterStore
	parties    *party.Manager
	scripts    *scripting.Manager
	engine     *combat.Engine
	sweepEvery time.Duration
	ids        []string
	stop       atomic.Bool
}

func newSimulation(ctx context.Context, cfg config.Config, seed uint64, logger *zap.Logger) (*simulation, error) {
	monsters, err := monster.NewRegistryFromDir(cfg.Content.MonstersDir)
	if err != nil {
		return nil, err
	}
	items, err := inventory.NewRegistryFromDir(cfg.Content.ItemsDir)
	if err != nil {
		return nil, err
	}
	backend, err := storage.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	sim := &simulation{
		ctx:        ctx,
		logger:     logger,
		backend:    backend,
		store:      backend.Store,
		parties:    party.NewManager(),
		sweepEvery: cfg.Combat.SweepInterval,
	}

	var hooks combat.Hooks
	if cfg.Content.ScriptsDir != "" {
		scriptSrc := dice.NewSeededSource(seed ^ scriptSeedMix)
		sim.scripts = scripting.NewManager(dice.NewLoggedRoller(scriptSrc, logger), logger)
		scopes, err := sim.scripts.LoadTree(cfg.Content.ScriptsDir, scripting.DefaultInstructionLimit)
		if err != nil {
			sim.close()
			return nil, err
		}
		logger.Debug("combat scripts loaded", zap.Strings("scopes", scopes))
		hooks = scripting.NewCombatHooks(sim.scripts)
	}

	sim.engine, err = combat.NewEngine(combat.Config{
		IdleTimeout: cfg.Combat.IdleTimeout,
		RunChance:   cfg.Combat.RunChance,
	}, combat.Deps{
		Characters: backend.Store,
		Monsters:   monsters,
		Items:      items,
		Parties:    sim.parties,
		Hooks:      hooks,
		Source:     dice.NewSeededSource(seed),
		Logger:     logger,
	})
	if err != nil {
		sim.close()
		return nil, err
	}
	return sim, nil
}

func (s *simulation) close() {
	if s.scripts != nil {
		s.scripts.Close()
	}
	s.backend.Close()
}

// seedHeroes prepares hero-1..hero-n. Characters already in the store are
// reused and rested to full HP; missing ones are created with potions.
func (s *simulation) seedHeroes(n, potions int, itemShare bool) error {
	if n < 1 {
		return fmt.Errorf("heroes must be >= 1, got %d", n)
	}
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("hero-%d", i)
		c, err := s.store.Get(s.ctx, id)
		switch {
		case err == nil:
			if c.Stats.HP < c.Stats.MaxHP {
				c.Stats.HP = c.Stats.MaxHP
				if err := s.store.Save(s.ctx, c); err != nil {
					return err
				}
			}
			s.logger.Info("reusing character", zap.String("id", id), zap.Int("level", c.Level), zap.Int("exp", c.Exp))
		case errors.Is(err, character.ErrNotFound):
			c, err = character.New(id, fmt.Sprintf("Hero%d", i), "")
			if err != nil {
				return err
			}
			if potions > 0 {
				c.AddItem("red_potion", potions)
			}
			if err := s.store.Create(s.ctx, c); err != nil {
				return err
			}
		default:
			return err
		}
		s.ids = append(s.ids, id)
	}
	if n == 1 {
		return nil
	}

	p, err := s.parties.Create(s.ids[0], "simulation")
	if err != nil {
		return err
	}
	for _, id := range s.ids[1:] {
		if _, err := s.parties.Join(p.ID, id); err != nil {
			return err
		}
	}
	settings := p.Settings
	settings.ItemShare = itemShare
	_, err = s.parties.UpdateSettings(p.ID, s.ids[0], settings)
	return err
}

// serve runs the fight as a lifecycle service next to the idle-session sweep
// and, when the store has one, the health check. It returns once the fight
// ends or the process is signalled.
func (s *simulation) serve(ctx context.Context, monsterID string, maxRounds int, healthEvery time.Duration) (combat.Status, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lc := server.NewLifecycle(s.logger)
	lc.Add("combat-sweep", server.NewTickerService(s.logger, s.sweepEvery, func(ctx context.Context) {
		if ids := s.engine.Sweep(ctx); len(ids) > 0 {
			s.logger.Info("idle sessions cancelled",
				zap.Strings("sessions", ids),
				zap.Int("still_active", s.engine.ActiveSessions()),
			)
		}
	}))
	if s.backend.Health != nil {
		lc.Add("db-health", server.NewTickerService(s.logger, healthEvery, func(ctx context.Context) {
			if err := s.backend.Health(ctx, 5*time.Second); err != nil {
				s.logger.Warn("database health check failed", zap.Error(err))
			}
		}))
	}

	var (
		status combat.Status
		runErr error
		done   = make(chan struct{})
	)
	lc.Add("fight", &server.FuncService{
		StartFn: func() error {
			defer close(done)
			status, runErr = s.run(monsterID, maxRounds)
			cancel()
			return nil
		},
		StopFn: func() {
			s.stop.Store(true)
			<-done
		},
	})

	if err := lc.Run(ctx); err != nil {
		return status, err
	}
	return status, runErr
}

// run starts the fight and submits one action per living participant per
// round until the session ends.
func (s *simulation) run(monsterID string, maxRounds int) (combat.Status, error) {
	sess, err := s.engine.Start(s.ctx, s.ids[0], monsterID)
	if err != nil {
		return combat.StatusCancelled, err
	}
	s.logger.Info("combat started",
		zap.String("session", sess.ID),
		zap.Stringer("mode", sess.Mode),
		zap.String("monster", sess.Monster.Name),
		zap.Strings("participants", sess.ParticipantIDs()),
	)

	for round := 0; round < maxRounds; round++ {
		if s.stop.Load() {
			return combat.StatusActive, errInterrupted
		}
		for _, p := range sess.Living() {
			res, err := s.engine.Submit(s.ctx, p.ID, s.choose(p))
			if err != nil {
				return combat.StatusActive, fmt.Errorf("submitting for %s: %w", p.ID, err)
			}
			sess = res.Session
			if !res.Resolved {
				continue
			}
			for _, ev := range res.Events {
				s.logEvent(ev)
			}
			if res.Status.Terminal() {
				return res.Status, nil
			}
		}
	}
	return combat.StatusActive, fmt.Errorf("no result after %d rounds", maxRounds)
}

// choose drinks a red potion below a third of max HP and attacks otherwise.
func (s *simulation) choose(p *combat.CombatantState) combat.Action {
	if p.HP*3 < p.MaxHP {
		c, err := s.store.Get(s.ctx, p.ID)
		if err == nil && c.ItemCount("red_potion") > 0 {
			return combat.UseItem("red_potion")
		}
	}
	return combat.Attack()
}

func (s *simulation) logEvent(ev combat.Event) {
	fields := []zap.Field{zap.String("kind", string(ev.Kind))}
	if ev.ActorName != "" {
		fields = append(fields, zap.String("actor", ev.ActorName))
	}
	switch ev.Kind {
	case combat.EventPlayerAttack, combat.EventMonsterAttack:
		fields = append(fields,
			zap.String("target", ev.TargetName),
			zap.Int("damage", ev.Damage),
			zap.Bool("critical", ev.Critical),
			zap.Bool("miss", ev.Miss),
			zap.Int("target_hp", ev.TargetHP),
		)
	case combat.EventItemUse:
		fields = append(fields, zap.String("item", ev.ItemName), zap.Int("healed_hp", ev.HealedHP), zap.Bool("success", ev.Success))
	case combat.EventActionFailed:
		fields = append(fields, zap.String("reason", ev.Message))
	case combat.EventRewards:
		if r := ev.Rewards; r != nil {
			fields = append(fields, zap.Int("exp", r.ExpDelta), zap.Int("zeny", r.ZenyDelta), zap.Int("items", len(r.Items)))
		}
	}
	s.logger.Info("event", fields...)
}

func (s *simulation) report() {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	for _, id := range s.ids {
		c, err := s.store.Get(ctx, id)
		if err != nil {
			s.logger.Warn("reading character", zap.String("id", id), zap.Error(err))
			continue
		}
		s.logger.Info("character",
			zap.String("name", c.Name),
			zap.Int("level", c.Level),
			zap.Int("exp", c.Exp),
			zap.Int("hp", c.Stats.HP),
			zap.Int("zeny", c.Zeny),
			zap.Any("items", c.Items),
		)
	}
}
