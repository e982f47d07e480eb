// Package service implements the authoritative game state transitions. Every
// mutation goes through a GameService method that authorizes the actor,
// applies the change under the character's lock, recomputes derived stats,
// re-runs level progression, persists, and publishes the updated record.
package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ashfall-games/wasteland/internal/game/character"
	"github.com/ashfall-games/wasteland/internal/game/combat"
	"github.com/ashfall-games/wasteland/internal/game/derived"
	"github.com/ashfall-games/wasteland/internal/game/dice"
	"github.com/ashfall-games/wasteland/internal/game/progression"
	"github.com/ashfall-games/wasteland/internal/game/shop"
	"github.com/ashfall-games/wasteland/internal/gamerr"
	"github.com/ashfall-games/wasteland/internal/rules"
	"github.com/ashfall-games/wasteland/internal/session"
	"github.com/ashfall-games/wasteland/internal/storage"
)

// lockStripes is the size of the per-character lock table.
const lockStripes = 64

// Publisher receives state-change notifications for broadcast. Methods must
// not block; the hub fans out on buffered channels.
type Publisher interface {
	CharacterUpdated(ch *character.Character)
	ShopUpdated(items []*shop.Item)
}

type noopPublisher struct{}

func (noopPublisher) CharacterUpdated(*character.Character) {}
func (noopPublisher) ShopUpdated([]*shop.Item)              {}

// GameService coordinates all game state. Safe for concurrent use: each
// character id maps to one of a fixed set of lock stripes, serializing
// mutations of the same character while letting distinct characters proceed
// in parallel.
type GameService struct {
	chars    storage.CharacterStore
	shop     storage.ShopStore
	rules    *rules.Dataset
	tracker  *combat.Tracker
	sessions *session.Registry
	roller   *dice.Roller
	logger   *zap.Logger

	mu  sync.RWMutex // guards pub
	pub Publisher

	locks     [lockStripes]sync.Mutex
	shopLocks [lockStripes]sync.Mutex
}

// New creates a GameService.
//
// Precondition: all arguments must be non-nil.
func New(
	chars storage.CharacterStore,
	shopStore storage.ShopStore,
	ruleset *rules.Dataset,
	sessions *session.Registry,
	roller *dice.Roller,
	logger *zap.Logger,
) *GameService {
	return &GameService{
		chars:    chars,
		shop:     shopStore,
		rules:    ruleset,
		tracker:  combat.NewTracker(),
		sessions: sessions,
		roller:   roller,
		logger:   logger,
		pub:      noopPublisher{},
	}
}

// SetPublisher wires the broadcast sink. Called once at startup after the
// hub is constructed.
func (g *GameService) SetPublisher(p Publisher) {
	g.mu.Lock()
	g.pub = p
	g.mu.Unlock()
}

func (g *GameService) publisher() Publisher {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pub
}

// Rules exposes the loaded ruleset for read-only use by the API layer.
func (g *GameService) Rules() *rules.Dataset {
	return g.rules
}

// Tracker exposes the combat tracker for read-only snapshots.
func (g *GameService) Tracker() *combat.Tracker {
	return g.tracker
}

// lockFor returns the lock stripe for a character id.
func (g *GameService) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &g.locks[h.Sum32()%lockStripes]
}

// shopLockFor returns the lock stripe for a shop item id. Shop items stripe
// over their own table so a purchase can hold the item lock and the buyer's
// character lock at the same time. Lock order is always item before
// character.
func (g *GameService) shopLockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &g.shopLocks[h.Sum32()%lockStripes]
}

// withCharacter runs fn under the character's lock, then recomputes derived
// stats, re-runs progression, persists, and publishes. fn returning an error
// aborts without persisting.
func (g *GameService) withCharacter(ctx context.Context, id string, fn func(ch *character.Character) error) (*character.Character, error) {
	lock := g.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	ch, err := g.chars.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(ch); err != nil {
		return nil, err
	}
	g.finalize(ch)
	if err := g.chars.Put(ctx, ch); err != nil {
		return nil, err
	}
	g.publisher().CharacterUpdated(ch)
	return ch, nil
}

// finalize recomputes derived stats and applies any pending level-ups.
// Progression can change SPECIAL-relevant state, so derived stats are
// refreshed again when it fires.
func (g *GameService) finalize(ch *character.Character) {
	derived.Refresh(ch, g.rules)
	if progression.Apply(ch) {
		derived.Refresh(ch, g.rules)
	}
}

func canActOn(ch *character.Character, actor session.User) bool {
	return ch.OwnerID == actor.ID || actor.Role == session.RoleDM
}

func requireDM(actor session.User) error {
	if actor.Role != session.RoleDM {
		return fmt.Errorf("dm only: %w", gamerr.ErrForbidden)
	}
	return nil
}

// CreateCharacter builds and persists a new character. Players are limited
// to one character each; the DM may create on another owner's behalf by
// setting ownerID.
//
// Postcondition: the returned character has derived stats computed.
func (g *GameService) CreateCharacter(ctx context.Context, actor session.User, ownerID string, in character.CreationInput) (*character.Character, error) {
	owner := actor
	if ownerID != "" && actor.Role == session.RoleDM {
		if u, ok := g.sessions.Lookup(ownerID); ok {
			owner = u
		} else {
			owner = session.User{ID: ownerID, Role: session.RolePlayer}
		}
	}

	if _, err := g.chars.GetByOwner(ctx, owner.ID); err == nil {
		return nil, fmt.Errorf("character already exists for this player: %w", gamerr.ErrAlreadyExists)
	}

	ch, err := character.Build("c-"+uuid.NewString(), owner.ID, in, g.rules)
	if err != nil {
		return nil, err
	}
	ch.OwnerName = owner.Name
	g.finalize(ch)
	if err := g.chars.Put(ctx, ch); err != nil {
		return nil, err
	}
	g.logger.Info("character created",
		zap.String("id", ch.ID),
		zap.String("owner", ch.OwnerID),
		zap.String("name", ch.Name),
	)
	g.publisher().CharacterUpdated(ch)
	return ch, nil
}

// GetCharacter returns one character by id with fresh derived stats.
func (g *GameService) GetCharacter(ctx context.Context, id string) (*character.Character, error) {
	ch, err := g.chars.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	derived.Refresh(ch, g.rules)
	return ch, nil
}

// MyCharacter returns the actor's own character, or nil when none exists.
func (g *GameService) MyCharacter(ctx context.Context, actor session.User) (*character.Character, error) {
	ch, err := g.chars.GetByOwner(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gamerr.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	derived.Refresh(ch, g.rules)
	return ch, nil
}

// ListCharacters returns every character with fresh derived stats and owner
// names attached. Role filtering happens at the emission boundary via
// VisibleCharacters.
func (g *GameService) ListCharacters(ctx context.Context) ([]*character.Character, error) {
	chars, err := g.chars.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, ch := range chars {
		derived.Refresh(ch, g.rules)
		if u, ok := g.sessions.Lookup(ch.OwnerID); ok {
			ch.OwnerName = u.Name
		}
	}
	return chars, nil
}

// VisibleCharacters applies per-viewer filtering: the DM sees everything, a
// player sees their own character in full and everyone else's redacted to
// the public fields.
func VisibleCharacters(viewer session.User, chars []*character.Character) []any {
	out := make([]any, 0, len(chars))
	for _, ch := range chars {
		if viewer.Role == session.RoleDM || ch.OwnerID == viewer.ID {
			out = append(out, ch)
		} else {
			out = append(out, character.Redact(ch))
		}
	}
	return out
}

// VisibleCharacter filters a single record for the viewer.
func VisibleCharacter(viewer session.User, ch *character.Character) any {
	if viewer.Role == session.RoleDM || ch.OwnerID == viewer.ID {
		return ch
	}
	return character.Redact(ch)
}

// PatchCharacter applies a whitelisted update to the character. The actor
// must own the character or be the DM.
func (g *GameService) PatchCharacter(ctx context.Context, actor session.User, id string, p character.Patch) (*character.Character, error) {
	return g.withCharacter(ctx, id, func(ch *character.Character) error {
		if !canActOn(ch, actor) {
			return fmt.Errorf("not your character: %w", gamerr.ErrForbidden)
		}
		ch.Apply(p)
		return nil
	})
}

// SpendSpecial spends one unspent SPECIAL point on the given ability letter.
// Abilities are capped at the ruleset maximum.
func (g *GameService) SpendSpecial(ctx context.Context, actor session.User, id, ability string) (*character.Character, error) {
	return g.withCharacter(ctx, id, func(ch *character.Character) error {
		if !canActOn(ch, actor) {
			return fmt.Errorf("not your character: %w", gamerr.ErrForbidden)
		}
		if ch.UnspentSpecialPoints <= 0 {
			return fmt.Errorf("no unspent attribute points: %w", gamerr.ErrInsufficientResources)
		}
		if !ch.Special.Increment(ability, g.rules.Special.Max) {
			return fmt.Errorf("invalid ability %q: %w", ability, gamerr.ErrValidation)
		}
		ch.UnspentSpecialPoints--
		return nil
	})
}

// DropItem removes the first case-insensitive inventory match; a matching
// material stack is decremented alongside.
func (g *GameService) DropItem(ctx context.Context, actor session.User, id, item string) (*character.Character, error) {
	return g.withCharacter(ctx, id, func(ch *character.Character) error {
		if !canActOn(ch, actor) {
			return fmt.Errorf("not your character: %w", gamerr.ErrForbidden)
		}
		if !ch.RemoveInventoryItem(item) {
			return fmt.Errorf("item %q not in inventory: %w", item, gamerr.ErrNotFound)
		}
		ch.ConsumeMaterial(item, 1)
		return nil
	})
}

// UseItem consumes the item from the inventory.
func (g *GameService) UseItem(ctx context.Context, actor session.User, id, item string) (*character.Character, error) {
	return g.withCharacter(ctx, id, func(ch *character.Character) error {
		if !canActOn(ch, actor) {
			return fmt.Errorf("not your character: %w", gamerr.ErrForbidden)
		}
		if !ch.RemoveInventoryItem(item) {
			return fmt.Errorf("item %q not in inventory: %w", item, gamerr.ErrNotFound)
		}
		return nil
	})
}

// Equip assigns an item to an equipment slot. An empty item clears the slot
// assignment; an empty slot defaults to the first weapon slot.
func (g *GameService) Equip(ctx context.Context, actor session.User, id, item, slot string) (*character.Character, error) {
	return g.withCharacter(ctx, id, func(ch *character.Character) error {
		if !canActOn(ch, actor) {
			return fmt.Errorf("not your character: %w", gamerr.ErrForbidden)
		}
		if slot == "" {
			slot = "Weapon 1"
		}
		if ch.Equipment == nil {
			ch.Equipment = map[string]string{}
		}
		ch.Equipment[slot] = item
		return nil
	})
}
