package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// ErrCharacterExists is returned by Create when the id or name is already taken.
var ErrCharacterExists = errors.New("character already exists")

// CharacterRepository persists characters and their item stacks.
// It satisfies combat.CharacterStore.
type CharacterRepository struct {
	db *pgxpool.Pool
}

var _ combat.CharacterStore = (*CharacterRepository)(nil)

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

const characterColumns = `
	id, name, class, level, exp, exp_to_next,
	hp, max_hp, sp, max_sp, attack, defense, agility, intelligence, vitality, luck,
	status_points, skill_points, zeny, map, pos_x, pos_y, created_at, updated_at`

// Create inserts a new character along with its items.
//
// Precondition: c.ID and c.Name must be non-empty.
// Postcondition: c.CreatedAt and c.UpdatedAt are set on success; returns
// ErrCharacterExists on a duplicate id or name.
func (r *CharacterRepository) Create(ctx context.Context, c *character.Character) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO characters
				(id, name, class, level, exp, exp_to_next,
				 hp, max_hp, sp, max_sp, attack, defense, agility, intelligence, vitality, luck,
				 status_points, skill_points, zeny, map, pos_x, pos_y)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
			RETURNING created_at, updated_at`,
			c.ID, c.Name, c.Class, c.Level, c.Exp, c.ExpToNext,
			c.Stats.HP, c.Stats.MaxHP, c.Stats.SP, c.Stats.MaxSP,
			c.Stats.Attack, c.Stats.Defense, c.Stats.Agility,
			c.Stats.Intelligence, c.Stats.Vitality, c.Stats.Luck,
			c.StatusPoints, c.SkillPoints, c.Zeny,
			c.Position.Map, c.Position.X, c.Position.Y,
		).Scan(&c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			if isDuplicateKeyError(err) {
				return ErrCharacterExists
			}
			return fmt.Errorf("inserting character: %w", err)
		}
		return insertItems(ctx, tx, c.ID, c.Items)
	})
}

// Get loads a character and its items.
//
// Postcondition: Returns a freshly allocated Character, or character.ErrNotFound.
func (r *CharacterRepository) Get(ctx context.Context, id string) (*character.Character, error) {
	var c character.Character
	err := r.db.QueryRow(ctx, `SELECT `+characterColumns+` FROM characters WHERE id = $1`, id).Scan(
		&c.ID, &c.Name, &c.Class, &c.Level, &c.Exp, &c.ExpToNext,
		&c.Stats.HP, &c.Stats.MaxHP, &c.Stats.SP, &c.Stats.MaxSP,
		&c.Stats.Attack, &c.Stats.Defense, &c.Stats.Agility,
		&c.Stats.Intelligence, &c.Stats.Vitality, &c.Stats.Luck,
		&c.StatusPoints, &c.SkillPoints, &c.Zeny,
		&c.Position.Map, &c.Position.X, &c.Position.Y,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, character.ErrNotFound
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT item_id, quantity FROM character_items WHERE character_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("querying character items: %w", err)
	}
	defer rows.Close()

	c.Items = make(map[string]int)
	for rows.Next() {
		var itemID string
		var qty int
		if err := rows.Scan(&itemID, &qty); err != nil {
			return nil, fmt.Errorf("scanning character item row: %w", err)
		}
		c.Items[itemID] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading character items: %w", err)
	}
	return &c, nil
}

// Save overwrites the stored character row and replaces its item stacks in
// one transaction.
//
// Precondition: c must have been created.
// Postcondition: Returns nil on success, character.ErrNotFound if no row exists.
func (r *CharacterRepository) Save(ctx context.Context, c *character.Character) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE characters SET
				name = $2, class = $3, level = $4, exp = $5, exp_to_next = $6,
				hp = $7, max_hp = $8, sp = $9, max_sp = $10,
				attack = $11, defense = $12, agility = $13,
				intelligence = $14, vitality = $15, luck = $16,
				status_points = $17, skill_points = $18, zeny = $19,
				map = $20, pos_x = $21, pos_y = $22, updated_at = NOW()
			WHERE id = $1`,
			c.ID, c.Name, c.Class, c.Level, c.Exp, c.ExpToNext,
			c.Stats.HP, c.Stats.MaxHP, c.Stats.SP, c.Stats.MaxSP,
			c.Stats.Attack, c.Stats.Defense, c.Stats.Agility,
			c.Stats.Intelligence, c.Stats.Vitality, c.Stats.Luck,
			c.StatusPoints, c.SkillPoints, c.Zeny,
			c.Position.Map, c.Position.X, c.Position.Y,
		)
		if err != nil {
			return fmt.Errorf("saving character: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return character.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM character_items WHERE character_id = $1`, c.ID); err != nil {
			return fmt.Errorf("clearing character items: %w", err)
		}
		return insertItems(ctx, tx, c.ID, c.Items)
	})
}

// insertItems bulk-loads the positive stacks of items with COPY.
func insertItems(ctx context.Context, tx pgx.Tx, characterID string, items map[string]int) error {
	ids := make([]string, 0, len(items))
	for id, qty := range items {
		if qty > 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)

	rows := make([][]any, len(ids))
	for i, id := range ids {
		rows[i] = []any{characterID, id, items[id]}
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"character_items"},
		[]string{"character_id", "item_id", "quantity"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("writing character items: %w", err)
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
