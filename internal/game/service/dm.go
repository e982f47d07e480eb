package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashfall-games/wasteland/internal/game/character"
	"github.com/ashfall-games/wasteland/internal/gamerr"
	"github.com/ashfall-games/wasteland/internal/session"
)

// ApplyXP adjusts a character's XP by delta, floored at zero, then applies
// any level-ups the new total unlocks. DM only.
func (g *GameService) ApplyXP(ctx context.Context, actor session.User, id string, delta int) (*character.Character, error) {
	if err := requireDM(actor); err != nil {
		return nil, err
	}
	return g.withCharacter(ctx, id, func(ch *character.Character) error {
		ch.XP = max(0, ch.XP+delta)
		return nil
	})
}

// ApplyDamage applies damage (positive) or healing (negative) to HP, kept
// within [0, MaxHP]. DM only.
func (g *GameService) ApplyDamage(ctx context.Context, actor session.User, id string, damage int) (*character.Character, error) {
	if err := requireDM(actor); err != nil {
		return nil, err
	}
	return g.withCharacter(ctx, id, func(ch *character.Character) error {
		switch {
		case damage > 0:
			ch.HP = max(0, ch.HP-damage)
		case damage < 0:
			ch.HP = min(ch.MaxHP, ch.HP-damage)
		}
		return nil
	})
}

// GiveCaps adjusts a character's caps by delta, floored at zero. DM only.
func (g *GameService) GiveCaps(ctx context.Context, actor session.User, id string, delta int) (*character.Character, error) {
	if err := requireDM(actor); err != nil {
		return nil, err
	}
	return g.withCharacter(ctx, id, func(ch *character.Character) error {
		ch.Caps = max(0, ch.Caps+delta)
		return nil
	})
}

// GiveItem appends an item to a character's inventory. DM only.
func (g *GameService) GiveItem(ctx context.Context, actor session.User, id, itemName string) (*character.Character, error) {
	if err := requireDM(actor); err != nil {
		return nil, err
	}
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		return nil, fmt.Errorf("item name required: %w", gamerr.ErrValidation)
	}
	return g.withCharacter(ctx, id, func(ch *character.Character) error {
		if len(ch.Inventory) >= character.MaxInventory {
			return fmt.Errorf("inventory full: %w", gamerr.ErrInsufficientResources)
		}
		ch.Inventory = append(ch.Inventory, itemName)
		return nil
	})
}

// SetShopAccess toggles whether the character may buy from the shop. DM only.
func (g *GameService) SetShopAccess(ctx context.Context, actor session.User, id string, allow bool) (*character.Character, error) {
	if err := requireDM(actor); err != nil {
		return nil, err
	}
	return g.withCharacter(ctx, id, func(ch *character.Character) error {
		ch.ShopAccess = allow
		return nil
	})
}

// SetConditions replaces a character's condition list, truncated to the cap.
// DM only.
func (g *GameService) SetConditions(ctx context.Context, actor session.User, id string, conditions []string) (*character.Character, error) {
	if err := requireDM(actor); err != nil {
		return nil, err
	}
	return g.withCharacter(ctx, id, func(ch *character.Character) error {
		if conditions == nil {
			conditions = []string{}
		}
		if len(conditions) > character.MaxConditions {
			conditions = conditions[:character.MaxConditions]
		}
		ch.Conditions = append([]string(nil), conditions...)
		return nil
	})
}

// SetDeathSaves sets a character's death save counters, clamped to [0, 3].
// DM only.
func (g *GameService) SetDeathSaves(ctx context.Context, actor session.User, id string, successes, failures int) (*character.Character, error) {
	if err := requireDM(actor); err != nil {
		return nil, err
	}
	return g.withCharacter(ctx, id, func(ch *character.Character) error {
		ch.DeathSaves = character.DeathSaves{
			Successes: clampSaves(successes),
			Failures:  clampSaves(failures),
		}
		return nil
	})
}

// MaterialsAdjustment is the payload for AdjustMaterials. Set, when present,
// replaces the whole material map; otherwise Add and Remove are applied
// per stack with quantities floored at zero and empty stacks deleted.
type MaterialsAdjustment struct {
	Add    map[string]int `json:"add"`
	Remove map[string]int `json:"remove"`
	Set    map[string]int `json:"set"`
}

// AdjustMaterials applies a material adjustment to the character. DM only.
func (g *GameService) AdjustMaterials(ctx context.Context, actor session.User, id string, adj MaterialsAdjustment) (*character.Character, error) {
	if err := requireDM(actor); err != nil {
		return nil, err
	}
	return g.withCharacter(ctx, id, func(ch *character.Character) error {
		if adj.Set != nil {
			next := make(map[string]int, len(adj.Set))
			for k, v := range adj.Set {
				next[strings.ToLower(k)] = max(0, v)
			}
			ch.Materials = next
			return nil
		}
		for k, v := range adj.Add {
			key := strings.ToLower(k)
			ch.Materials[key] = max(0, ch.Materials[key]+v)
		}
		for k, v := range adj.Remove {
			ch.ConsumeMaterial(k, max(0, v))
		}
		return nil
	})
}

func clampSaves(v int) int {
	return max(0, min(character.MaxDeathSaves, v))
}
