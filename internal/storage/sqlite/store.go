// Package sqlite provides an embedded SQLite character store built on the
// pure-Go modernc.org/sqlite driver. It serves single-node deployments and
// headless simulations that do not run PostgreSQL.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/storage/sqlite/migrations"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// ErrCharacterExists is returned by Create when the id or name is already taken.
var ErrCharacterExists = errors.New("character already exists")

// Store persists characters and their item stacks in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ combat.CharacterStore = (*Store)(nil)

// Open opens or creates the database at path and applies pending migrations.
//
// Precondition: path must be non-empty; logger must be non-nil.
// Postcondition: Returns a ready Store or a non-nil error.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	var dsn string
	if path == MemoryPath {
		dsn = MemoryPath + "?_pragma=foreign_keys(1)"
	} else {
		clean := filepath.Clean(path)
		if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		dsn = clean +
			"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	applied, err := applyMigrations(ctx, db, migrations.FS)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("sqlite store opened",
		zap.String("path", path),
		zap.Strings("migrations_applied", applied),
	)
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Create inserts a new character along with its items.
//
// Postcondition: c.CreatedAt and c.UpdatedAt are set on success; returns
// ErrCharacterExists on a duplicate id or name.
func (s *Store) Create(ctx context.Context, c *character.Character) error {
	now := s.now().UTC()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO characters
				(id, name, class, level, exp, exp_to_next,
				 hp, max_hp, sp, max_sp, attack, defense, agility, intelligence, vitality, luck,
				 status_points, skill_points, zeny, map, pos_x, pos_y, created_at, updated_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			c.ID, c.Name, c.Class, c.Level, c.Exp, c.ExpToNext,
			c.Stats.HP, c.Stats.MaxHP, c.Stats.SP, c.Stats.MaxSP,
			c.Stats.Attack, c.Stats.Defense, c.Stats.Agility,
			c.Stats.Intelligence, c.Stats.Vitality, c.Stats.Luck,
			c.StatusPoints, c.SkillPoints, c.Zeny,
			c.Position.Map, c.Position.X, c.Position.Y,
			now.UnixMilli(), now.UnixMilli(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrCharacterExists
			}
			return fmt.Errorf("insert character: %w", err)
		}
		return insertItems(ctx, tx, c.ID, c.Items)
	})
	if err != nil {
		return err
	}
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

// Get loads a character and its items.
//
// Postcondition: Returns a freshly allocated Character, or character.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*character.Character, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var c character.Character
	var created, updated int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, class, level, exp, exp_to_next,
		       hp, max_hp, sp, max_sp, attack, defense, agility, intelligence, vitality, luck,
		       status_points, skill_points, zeny, map, pos_x, pos_y, created_at, updated_at
		FROM characters WHERE id = ?`, id,
	).Scan(
		&c.ID, &c.Name, &c.Class, &c.Level, &c.Exp, &c.ExpToNext,
		&c.Stats.HP, &c.Stats.MaxHP, &c.Stats.SP, &c.Stats.MaxSP,
		&c.Stats.Attack, &c.Stats.Defense, &c.Stats.Agility,
		&c.Stats.Intelligence, &c.Stats.Vitality, &c.Stats.Luck,
		&c.StatusPoints, &c.SkillPoints, &c.Zeny,
		&c.Position.Map, &c.Position.X, &c.Position.Y,
		&created, &updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, character.ErrNotFound
		}
		return nil, fmt.Errorf("query character: %w", err)
	}
	c.CreatedAt = time.UnixMilli(created).UTC()
	c.UpdatedAt = time.UnixMilli(updated).UTC()

	rows, err := s.db.QueryContext(ctx, `SELECT item_id, quantity FROM character_items WHERE character_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query character items: %w", err)
	}
	defer rows.Close()

	c.Items = make(map[string]int)
	for rows.Next() {
		var itemID string
		var qty int
		if err := rows.Scan(&itemID, &qty); err != nil {
			return nil, fmt.Errorf("scan character item: %w", err)
		}
		c.Items[itemID] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate character items: %w", err)
	}
	return &c, nil
}

// Save overwrites the stored character row and replaces its item stacks in
// one transaction.
//
// Postcondition: Returns nil on success, character.ErrNotFound if no row exists.
func (s *Store) Save(ctx context.Context, c *character.Character) error {
	now := s.now().UTC()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE characters SET
				name = ?, class = ?, level = ?, exp = ?, exp_to_next = ?,
				hp = ?, max_hp = ?, sp = ?, max_sp = ?,
				attack = ?, defense = ?, agility = ?,
				intelligence = ?, vitality = ?, luck = ?,
				status_points = ?, skill_points = ?, zeny = ?,
				map = ?, pos_x = ?, pos_y = ?, updated_at = ?
			WHERE id = ?`,
			c.Name, c.Class, c.Level, c.Exp, c.ExpToNext,
			c.Stats.HP, c.Stats.MaxHP, c.Stats.SP, c.Stats.MaxSP,
			c.Stats.Attack, c.Stats.Defense, c.Stats.Agility,
			c.Stats.Intelligence, c.Stats.Vitality, c.Stats.Luck,
			c.StatusPoints, c.SkillPoints, c.Zeny,
			c.Position.Map, c.Position.X, c.Position.Y, now.UnixMilli(),
			c.ID,
		)
		if err != nil {
			return fmt.Errorf("update character: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update character: %w", err)
		}
		if n == 0 {
			return character.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM character_items WHERE character_id = ?`, c.ID); err != nil {
			return fmt.Errorf("clear character items: %w", err)
		}
		return insertItems(ctx, tx, c.ID, c.Items)
	})
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func insertItems(ctx context.Context, tx *sql.Tx, characterID string, items map[string]int) error {
	ids := make([]string, 0, len(items))
	for id, qty := range items {
		if qty > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO character_items (character_id, item_id, quantity) VALUES (?, ?, ?)`,
			characterID, id, items[id],
		); err != nil {
			return fmt.Errorf("insert character item %s: %w", id, err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}
