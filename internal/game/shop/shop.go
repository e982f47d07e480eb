// Package shop defines the trading-post catalog and purchase rules.
package shop

import (
	"fmt"

	"github.com/ashfall-games/wasteland/internal/game/character"
	"github.com/ashfall-games/wasteland/internal/gamerr"
)

// Item is one catalog entry. Stock never goes below zero.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Cost        int    `json:"cost"`
	Stock       int    `json:"stock"`
	Description string `json:"description"`
}

// Validate checks an item is well-formed for the catalog.
func (it Item) Validate() error {
	if it.Name == "" {
		return fmt.Errorf("item name required: %w", gamerr.ErrValidation)
	}
	if it.Cost < 0 {
		return fmt.Errorf("item cost must be >= 0: %w", gamerr.ErrValidation)
	}
	return nil
}

// Update applies partial edits: nil pointers leave the field untouched.
// Stock is floored at zero.
type Update struct {
	Name        *string `json:"name"`
	Cost        *int    `json:"cost"`
	Stock       *int    `json:"stock"`
	Description *string `json:"description"`
}

// Apply folds the update into the item.
func (it *Item) Apply(u Update) {
	if u.Name != nil && *u.Name != "" {
		it.Name = *u.Name
	}
	if u.Cost != nil && *u.Cost >= 0 {
		it.Cost = *u.Cost
	}
	if u.Stock != nil {
		it.Stock = max(0, *u.Stock)
	}
	if u.Description != nil {
		it.Description = *u.Description
	}
}

// Purchase executes a buy for ch against the catalog item.
//
// The buyer needs shop access unless buying on behalf of the table as DM.
// Out-of-stock and unaffordable purchases fail without touching either side.
// On success one unit of stock and the full cost in caps move, and the item
// name lands in the buyer's inventory. The caller holds the item and buyer
// locks and recomputes derived stats afterwards.
//
// Precondition: ch and item are non-nil.
func Purchase(ch *character.Character, item *Item, isDM bool) error {
	if !ch.ShopAccess && !isDM {
		return fmt.Errorf("shop not near: %w", gamerr.ErrForbidden)
	}
	if item.Stock <= 0 {
		return fmt.Errorf("out of stock: %w", gamerr.ErrInsufficientResources)
	}
	if ch.Caps < item.Cost {
		return fmt.Errorf("not enough caps: %w", gamerr.ErrInsufficientResources)
	}

	ch.Caps -= item.Cost
	ch.Inventory = append(ch.Inventory, item.Name)
	item.Stock--
	return nil
}
