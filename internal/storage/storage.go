// Package storage defines the persistence contracts for characters and the
// shop catalog, with an in-memory implementation for keyless deployments and
// tests. The postgres subpackage provides the durable implementation.
package storage

import (
	"context"

	"github.com/ashfall-games/wasteland/internal/game/character"
	"github.com/ashfall-games/wasteland/internal/game/shop"
)

// CharacterStore persists characters. Implementations return copies; callers
// own the returned values and persist changes with Put.
type CharacterStore interface {
	// Get returns the character by id, or a gamerr.ErrNotFound-wrapped error.
	Get(ctx context.Context, id string) (*character.Character, error)
	// GetByOwner returns the owner's character, or a gamerr.ErrNotFound-wrapped error.
	GetByOwner(ctx context.Context, ownerID string) (*character.Character, error)
	// List returns every character.
	List(ctx context.Context) ([]*character.Character, error)
	// Put inserts or replaces the character keyed by its ID.
	Put(ctx context.Context, ch *character.Character) error
}

// ShopStore persists the shop catalog.
type ShopStore interface {
	Get(ctx context.Context, id string) (*shop.Item, error)
	List(ctx context.Context) ([]*shop.Item, error)
	Put(ctx context.Context, item *shop.Item) error
	Delete(ctx context.Context, id string) error
}
