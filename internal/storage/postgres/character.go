package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashfall-games/wasteland/internal/game/character"
	"github.com/ashfall-games/wasteland/internal/gamerr"
)

// CharacterRepository persists characters as JSONB documents keyed by their
// public id. The owner id is lifted into its own column for lookups.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Get retrieves a character by its public id.
//
// Postcondition: Returns the Character or a gamerr.ErrNotFound-wrapped error.
func (r *CharacterRepository) Get(ctx context.Context, id string) (*character.Character, error) {
	var doc []byte
	err := r.db.QueryRow(ctx,
		`SELECT doc FROM characters WHERE id = $1`, id,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("character %q: %w", id, gamerr.ErrNotFound)
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	return decodeCharacter(doc)
}

// GetByOwner retrieves the character owned by the given user.
//
// Postcondition: Returns the Character or a gamerr.ErrNotFound-wrapped error.
func (r *CharacterRepository) GetByOwner(ctx context.Context, ownerID string) (*character.Character, error) {
	var doc []byte
	err := r.db.QueryRow(ctx,
		`SELECT doc FROM characters WHERE owner_id = $1 ORDER BY created_at ASC LIMIT 1`, ownerID,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("character for owner %q: %w", ownerID, gamerr.ErrNotFound)
		}
		return nil, fmt.Errorf("querying character by owner: %w", err)
	}
	return decodeCharacter(doc)
}

// List returns every character ordered by creation time.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CharacterRepository) List(ctx context.Context) ([]*character.Character, error) {
	rows, err := r.db.Query(ctx, `SELECT doc FROM characters ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	chars := make([]*character.Character, 0)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		ch, err := decodeCharacter(doc)
		if err != nil {
			return nil, err
		}
		chars = append(chars, ch)
	}
	return chars, rows.Err()
}

// Put inserts or replaces the character document keyed by its id.
//
// Precondition: ch.ID and ch.OwnerID must be non-empty.
func (r *CharacterRepository) Put(ctx context.Context, ch *character.Character) error {
	if ch.ID == "" || ch.OwnerID == "" {
		return fmt.Errorf("character id and owner id required: %w", gamerr.ErrValidation)
	}
	doc, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("encoding character: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO characters (id, owner_id, doc, created_at, updated_at)
		VALUES ($1, $2, $3, COALESCE($4, NOW()), NOW())
		ON CONFLICT (id) DO UPDATE SET owner_id = $2, doc = $3, updated_at = NOW()`,
		ch.ID, ch.OwnerID, doc, nullableTime(ch.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting character: %w", err)
	}
	return nil
}

func decodeCharacter(doc []byte) (*character.Character, error) {
	var ch character.Character
	if err := json.Unmarshal(doc, &ch); err != nil {
		return nil, fmt.Errorf("decoding character: %w", err)
	}
	ch.Normalize()
	return &ch, nil
}

// nullableTime maps the zero time to NULL so COALESCE can fill NOW().
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
