// Package loot generates loot drops scaled by tier and the recipient's Luck.
package loot

import (
	"github.com/ashfall-games/wasteland/internal/game/character"
	"github.com/ashfall-games/wasteland/internal/game/dice"
	"github.com/ashfall-games/wasteland/internal/rules"
)

// Result is a generated loot drop. Caps includes the random component
// recorded in CapsRoll.
type Result struct {
	Caps     int      `json:"caps"`
	Items    []string `json:"items"`
	CapsRoll int      `json:"capsRoll"`
}

// capsFor computes the caps portion of a drop: a flat tier base plus a Luck
// bonus plus a d(6×tier) roll.
func capsFor(ch *character.Character, tier int, src dice.Source) (total, roll int) {
	luckMod := ch.Special.L - 5
	base := 5*tier + max(0, luckMod)*2
	roll = dice.RollDie(6*tier, src)
	return base + roll, roll
}

// Roll generates a standard drop for ch: caps per capsFor plus up to three
// small items from the common goods pools, with Luck adding extra picks.
// Items are drawn with replacement; an empty pool yields no items.
//
// Precondition: ch, d, src non-nil; tier >= 1.
func Roll(ch *character.Character, d *rules.Dataset, tier int, src dice.Source) Result {
	caps, capsRoll := capsFor(ch, tier, src)

	pool := d.ItemNames("Other Equipment", "Pre-Made Food")
	luckMod := ch.Special.L - 5
	count := min(3, 1+max(0, luckMod/2))
	items := pick(pool, count, src)

	return Result{Caps: caps, Items: items, CapsRoll: capsRoll}
}

// RollAdvanced generates a drop with an explicit item count drawn from the
// item categories matching the given filters (substring match on the
// category path; no filters means the whole catalog).
//
// Precondition: ch, d, src non-nil; tier >= 1. A count below 1 is treated
// as 1.
func RollAdvanced(ch *character.Character, d *rules.Dataset, tier int, categories []string, count int, src dice.Source) Result {
	caps, capsRoll := capsFor(ch, tier, src)
	pool := d.ItemNames(categories...)
	items := pick(pool, max(1, count), src)
	return Result{Caps: caps, Items: items, CapsRoll: capsRoll}
}

// Apply credits the drop to the character. The caller recomputes derived
// stats afterwards since carry weight changes with inventory.
func Apply(ch *character.Character, r Result) {
	ch.Caps += r.Caps
	ch.Inventory = append(ch.Inventory, r.Items...)
}

func pick(pool []string, count int, src dice.Source) []string {
	items := make([]string, 0, count)
	for i := 0; i < count && len(pool) > 0; i++ {
		items = append(items, pool[src.Intn(len(pool))])
	}
	return items
}
