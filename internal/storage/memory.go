package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ashfall-games/wasteland/internal/game/character"
	"github.com/ashfall-games/wasteland/internal/game/shop"
	"github.com/ashfall-games/wasteland/internal/gamerr"
)

var (
	_ CharacterStore = (*MemoryCharacterStore)(nil)
	_ ShopStore      = (*MemoryShopStore)(nil)
)

// MemoryCharacterStore is a map-backed CharacterStore. Safe for concurrent
// use. Values are deep-copied on the way in and out so callers never share
// state with the store.
type MemoryCharacterStore struct {
	mu    sync.RWMutex
	chars map[string]*character.Character
}

// NewMemoryCharacterStore returns an empty store.
func NewMemoryCharacterStore() *MemoryCharacterStore {
	return &MemoryCharacterStore{chars: make(map[string]*character.Character)}
}

func (s *MemoryCharacterStore) Get(_ context.Context, id string) (*character.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.chars[id]
	if !ok {
		return nil, fmt.Errorf("character %q: %w", id, gamerr.ErrNotFound)
	}
	return ch.Clone(), nil
}

func (s *MemoryCharacterStore) GetByOwner(_ context.Context, ownerID string) (*character.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.chars {
		if ch.OwnerID == ownerID {
			return ch.Clone(), nil
		}
	}
	return nil, fmt.Errorf("character for owner %q: %w", ownerID, gamerr.ErrNotFound)
}

// List returns every character ordered by creation time, oldest first.
func (s *MemoryCharacterStore) List(_ context.Context) ([]*character.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*character.Character, 0, len(s.chars))
	for _, ch := range s.chars {
		out = append(out, ch.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryCharacterStore) Put(_ context.Context, ch *character.Character) error {
	if ch.ID == "" {
		return fmt.Errorf("character id required: %w", gamerr.ErrValidation)
	}
	s.mu.Lock()
	s.chars[ch.ID] = ch.Clone()
	s.mu.Unlock()
	return nil
}

// MemoryShopStore is a map-backed ShopStore. Safe for concurrent use.
type MemoryShopStore struct {
	mu    sync.RWMutex
	items map[string]shop.Item
}

// NewMemoryShopStore returns an empty store.
func NewMemoryShopStore() *MemoryShopStore {
	return &MemoryShopStore{items: make(map[string]shop.Item)}
}

func (s *MemoryShopStore) Get(_ context.Context, id string) (*shop.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("shop item %q: %w", id, gamerr.ErrNotFound)
	}
	return &item, nil
}

// List returns the catalog sorted by item id for stable output.
func (s *MemoryShopStore) List(_ context.Context) ([]*shop.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*shop.Item, 0, len(s.items))
	for _, item := range s.items {
		it := item
		out = append(out, &it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryShopStore) Put(_ context.Context, item *shop.Item) error {
	if item.ID == "" {
		return fmt.Errorf("shop item id required: %w", gamerr.ErrValidation)
	}
	s.mu.Lock()
	s.items[item.ID] = *item
	s.mu.Unlock()
	return nil
}

func (s *MemoryShopStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}
