package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashfall-games/wasteland/internal/game/character"
	"github.com/ashfall-games/wasteland/internal/game/shop"
	"github.com/ashfall-games/wasteland/internal/gamerr"
)

func TestMemoryCharacterStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCharacterStore()

	_, err := s.Get(ctx, "c-1")
	assert.ErrorIs(t, err, gamerr.ErrNotFound)
	_, err = s.GetByOwner(ctx, "p-1")
	assert.ErrorIs(t, err, gamerr.ErrNotFound)

	ch := &character.Character{ID: "c-1", OwnerID: "p-1", Name: "Piper", Caps: 10}
	ch.Normalize()
	require.NoError(t, s.Put(ctx, ch))

	got, err := s.Get(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "Piper", got.Name)

	byOwner, err := s.GetByOwner(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "c-1", byOwner.ID)

	// Mutating a returned copy must not leak into the store.
	got.Caps = 999
	got.Inventory = append(got.Inventory, "Stimpak")
	again, err := s.Get(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 10, again.Caps)
	assert.Empty(t, again.Inventory)

	// Nor must mutating the value handed to Put.
	ch.Name = "Changed"
	again, err = s.Get(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "Piper", again.Name)
}

func TestMemoryCharacterStore_ListOrdersByCreation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCharacterStore()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"c-b", "c-a", "c-c"} {
		ch := &character.Character{ID: id, OwnerID: "p-" + id, Name: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		ch.Normalize()
		require.NoError(t, s.Put(ctx, ch))
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c-b", list[0].ID)
	assert.Equal(t, "c-a", list[1].ID)
	assert.Equal(t, "c-c", list[2].ID)
}

func TestMemoryCharacterStore_RequiresID(t *testing.T) {
	err := NewMemoryCharacterStore().Put(context.Background(), &character.Character{})
	assert.ErrorIs(t, err, gamerr.ErrValidation)
}

func TestMemoryShopStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryShopStore()

	_, err := s.Get(ctx, "i-1")
	assert.ErrorIs(t, err, gamerr.ErrNotFound)

	require.NoError(t, s.Put(ctx, &shop.Item{ID: "i-2", Name: "Stimpak", Cost: 30, Stock: 2}))
	require.NoError(t, s.Put(ctx, &shop.Item{ID: "i-1", Name: "RadAway", Cost: 40, Stock: 1}))

	got, err := s.Get(ctx, "i-2")
	require.NoError(t, err)
	assert.Equal(t, "Stimpak", got.Name)

	// Mutating the returned copy must not leak into the store.
	got.Stock = 0
	again, err := s.Get(ctx, "i-2")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Stock)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "i-1", list[0].ID, "catalog lists in id order")

	require.NoError(t, s.Delete(ctx, "i-1"))
	_, err = s.Get(ctx, "i-1")
	assert.ErrorIs(t, err, gamerr.ErrNotFound)

	require.NoError(t, s.Delete(ctx, "i-missing"), "deleting an unknown id is a no-op")
}
