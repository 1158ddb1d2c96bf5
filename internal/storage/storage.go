// Package storage selects the character store backend named by configuration.
package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
	"github.com/cory-johannsen/skirmish/internal/storage/sqlite"
)

// CharacterStore is a combat.CharacterStore that can also create characters.
type CharacterStore interface {
	combat.CharacterStore
	Create(ctx context.Context, c *character.Character) error
}

// Backend is an opened store plus its lifecycle hooks.
type Backend struct {
	Store CharacterStore
	// Health pings the backend; nil for backends without a remote server.
	Health func(ctx context.Context, timeout time.Duration) error
	Close  func()
}

// Open connects the backend selected by cfg.Driver.
//
// Precondition: cfg has passed config validation; logger must be non-nil.
// Postcondition: Returns a ready Backend or a non-nil error.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Backend, error) {
	switch cfg.Driver {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store:  postgres.NewCharacterRepository(pool.DB()),
			Health: pool.Health,
			Close:  pool.Close,
		}, nil
	case "sqlite":
		store, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store: store,
			Close: func() {
				if err := store.Close(); err != nil {
					logger.Warn("closing sqlite store", zap.Error(err))
				}
			},
		}, nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
