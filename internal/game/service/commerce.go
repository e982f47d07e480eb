package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ashfall-games/wasteland/internal/game/character"
	"github.com/ashfall-games/wasteland/internal/game/crafting"
	"github.com/ashfall-games/wasteland/internal/game/loot"
	"github.com/ashfall-games/wasteland/internal/game/shop"
	"github.com/ashfall-games/wasteland/internal/gamerr"
	"github.com/ashfall-games/wasteland/internal/session"
)

// ListShop returns the current catalog.
func (g *GameService) ListShop(ctx context.Context) ([]*shop.Item, error) {
	return g.shop.List(ctx)
}

// CreateShopItem adds a catalog entry. DM only.
func (g *GameService) CreateShopItem(ctx context.Context, actor session.User, item shop.Item) (*shop.Item, error) {
	if err := requireDM(actor); err != nil {
		return nil, err
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	item.ID = "i-" + uuid.NewString()
	item.Stock = max(0, item.Stock)
	if err := g.shop.Put(ctx, &item); err != nil {
		return nil, err
	}
	g.publishShop(ctx)
	return &item, nil
}

// UpdateShopItem applies partial edits to a catalog entry. DM only.
func (g *GameService) UpdateShopItem(ctx context.Context, actor session.User, id string, u shop.Update) (*shop.Item, error) {
	if err := requireDM(actor); err != nil {
		return nil, err
	}
	lock := g.shopLockFor(id)
	lock.Lock()
	defer lock.Unlock()

	item, err := g.shop.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Apply(u)
	if err := g.shop.Put(ctx, item); err != nil {
		return nil, err
	}
	g.publishShop(ctx)
	return item, nil
}

// DeleteShopItem removes a catalog entry. DM only.
func (g *GameService) DeleteShopItem(ctx context.Context, actor session.User, id string) error {
	if err := requireDM(actor); err != nil {
		return err
	}
	if err := g.shop.Delete(ctx, id); err != nil {
		return err
	}
	g.publishShop(ctx)
	return nil
}

// Purchase buys one unit of the catalog item for the actor's own character.
// The character needs shop access unless the actor is the DM. Purchases of
// the same item serialize on its lock stripe, and the stock is read and
// decremented under that lock, so concurrent buyers cannot oversell.
func (g *GameService) Purchase(ctx context.Context, actor session.User, itemID string) (*character.Character, *shop.Item, error) {
	buyer, err := g.chars.GetByOwner(ctx, actor.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("no character: %w", gamerr.ErrValidation)
	}

	lock := g.shopLockFor(itemID)
	lock.Lock()
	defer lock.Unlock()

	item, err := g.shop.Get(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}

	ch, err := g.withCharacter(ctx, buyer.ID, func(ch *character.Character) error {
		return shop.Purchase(ch, item, actor.Role == session.RoleDM)
	})
	if err != nil {
		return nil, nil, err
	}
	if err := g.shop.Put(ctx, item); err != nil {
		return nil, nil, err
	}
	g.logger.Info("purchase",
		zap.String("character", ch.ID),
		zap.String("item", item.Name),
		zap.Int("cost", item.Cost),
	)
	g.publishShop(ctx)
	return ch, item, nil
}

// Craft attempts to craft the named recipe with the actor's own character.
// A failed check returns the roll breakdown with a nil character; a passed
// check consumes materials, adds the item, and persists.
func (g *GameService) Craft(ctx context.Context, actor session.User, recipeName string) (crafting.Result, *character.Character, error) {
	own, err := g.chars.GetByOwner(ctx, actor.ID)
	if err != nil {
		return crafting.Result{}, nil, fmt.Errorf("no character: %w", gamerr.ErrValidation)
	}

	var result crafting.Result
	ch, err := g.withCharacter(ctx, own.ID, func(ch *character.Character) error {
		var craftErr error
		result, craftErr = crafting.Craft(ch, recipeName, g.rules, g.roller.Source())
		return craftErr
	})
	if err != nil {
		return crafting.Result{}, nil, err
	}
	if !result.OK {
		return result, nil, nil
	}
	g.logger.Info("crafted",
		zap.String("character", ch.ID),
		zap.String("item", result.Crafted),
		zap.Int("roll", result.Roll),
		zap.Int("dc", result.DC),
	)
	return result, ch, nil
}

// LootDrop is a loot roll outcome together with the recipient's name, ready
// for the table-wide loot feed.
type LootDrop struct {
	CharacterName string   `json:"characterName"`
	Tier          int      `json:"tier"`
	Caps          int      `json:"caps"`
	Items         []string `json:"items"`
}

// LootRoll generates a standard drop for the character and credits it.
// DM only.
func (g *GameService) LootRoll(ctx context.Context, actor session.User, characterID string, tier int) (LootDrop, *character.Character, error) {
	return g.lootRoll(ctx, actor, characterID, tier, func(ch *character.Character) loot.Result {
		return loot.Roll(ch, g.rules, tier, g.roller.Source())
	})
}

// LootRollAdvanced generates a drop from chosen item categories with an
// explicit item count. DM only.
func (g *GameService) LootRollAdvanced(ctx context.Context, actor session.User, characterID string, tier int, categories []string, count int) (LootDrop, *character.Character, error) {
	return g.lootRoll(ctx, actor, characterID, tier, func(ch *character.Character) loot.Result {
		return loot.RollAdvanced(ch, g.rules, tier, categories, count, g.roller.Source())
	})
}

func (g *GameService) lootRoll(ctx context.Context, actor session.User, characterID string, tier int, roll func(*character.Character) loot.Result) (LootDrop, *character.Character, error) {
	if err := requireDM(actor); err != nil {
		return LootDrop{}, nil, err
	}
	if tier < 1 {
		tier = 1
	}
	var result loot.Result
	ch, err := g.withCharacter(ctx, characterID, func(ch *character.Character) error {
		result = roll(ch)
		loot.Apply(ch, result)
		return nil
	})
	if err != nil {
		return LootDrop{}, nil, err
	}
	drop := LootDrop{
		CharacterName: ch.Name,
		Tier:          tier,
		Caps:          result.Caps,
		Items:         result.Items,
	}
	return drop, ch, nil
}

// publishShop pushes the refreshed catalog to subscribers. List failures are
// logged and swallowed: the mutation already succeeded.
func (g *GameService) publishShop(ctx context.Context) {
	items, err := g.shop.List(ctx)
	if err != nil {
		g.logger.Warn("listing shop for broadcast", zap.Error(err))
		return
	}
	g.publisher().ShopUpdated(items)
}
