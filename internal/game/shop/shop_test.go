package shop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ashfall-games/wasteland/internal/game/character"
	"github.com/ashfall-games/wasteland/internal/gamerr"
)

func buyer(caps int, access bool) *character.Character {
	c := &character.Character{ID: "c-1", Name: "Buyer", Caps: caps, ShopAccess: access}
	c.Normalize()
	return c
}

func TestPurchase(t *testing.T) {
	ch := buyer(50, true)
	item := &Item{ID: "i-1", Name: "Stimpak", Cost: 30, Stock: 2}

	require.NoError(t, Purchase(ch, item, false))
	assert.Equal(t, 20, ch.Caps)
	assert.Equal(t, []string{"Stimpak"}, ch.Inventory)
	assert.Equal(t, 1, item.Stock)
}

func TestPurchase_RequiresShopAccess(t *testing.T) {
	ch := buyer(50, false)
	item := &Item{ID: "i-1", Name: "Stimpak", Cost: 30, Stock: 2}

	err := Purchase(ch, item, false)
	require.ErrorIs(t, err, gamerr.ErrForbidden)
	assert.Equal(t, 50, ch.Caps)
	assert.Equal(t, 2, item.Stock)

	// The DM can buy on a character's behalf without access.
	require.NoError(t, Purchase(ch, item, true))
}

func TestPurchase_OutOfStock(t *testing.T) {
	ch := buyer(50, true)
	item := &Item{ID: "i-1", Name: "Stimpak", Cost: 30, Stock: 0}
	assert.ErrorIs(t, Purchase(ch, item, false), gamerr.ErrInsufficientResources)
	assert.Equal(t, 50, ch.Caps)
}

func TestPurchase_NotEnoughCaps(t *testing.T) {
	ch := buyer(10, true)
	item := &Item{ID: "i-1", Name: "Stimpak", Cost: 30, Stock: 1}
	assert.ErrorIs(t, Purchase(ch, item, false), gamerr.ErrInsufficientResources)
	assert.Empty(t, ch.Inventory)
	assert.Equal(t, 1, item.Stock)
}

// TestPurchase_Conservation checks caps spent always equals cost times units
// bought, and stock plus purchases stays constant.
func TestPurchase_Conservation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		startCaps := rapid.IntRange(0, 500).Draw(rt, "caps")
		cost := rapid.IntRange(0, 100).Draw(rt, "cost")
		startStock := rapid.IntRange(0, 10).Draw(rt, "stock")
		attempts := rapid.IntRange(1, 15).Draw(rt, "attempts")

		ch := buyer(startCaps, true)
		item := &Item{ID: "i-1", Name: "Ammo", Cost: cost, Stock: startStock}

		bought := 0
		for i := 0; i < attempts; i++ {
			if Purchase(ch, item, false) == nil {
				bought++
			}
		}

		assert.Equal(rt, startCaps-bought*cost, ch.Caps)
		assert.Equal(rt, startStock-bought, item.Stock)
		assert.Len(rt, ch.Inventory, bought)
		assert.GreaterOrEqual(rt, ch.Caps, 0)
		assert.GreaterOrEqual(rt, item.Stock, 0)
	})
}

func TestItemValidate(t *testing.T) {
	assert.NoError(t, Item{Name: "Ammo", Cost: 5}.Validate())
	assert.ErrorIs(t, Item{Cost: 5}.Validate(), gamerr.ErrValidation)
	assert.ErrorIs(t, Item{Name: "Ammo", Cost: -1}.Validate(), gamerr.ErrValidation)
}

func TestItemApply(t *testing.T) {
	it := Item{ID: "i-1", Name: "Ammo", Cost: 5, Stock: 3, Description: "old"}
	name := "10mm Ammo"
	stock := -4
	desc := ""
	it.Apply(Update{Name: &name, Stock: &stock, Description: &desc})
	assert.Equal(t, "10mm Ammo", it.Name)
	assert.Equal(t, 0, it.Stock, "stock floors at zero")
	assert.Equal(t, 5, it.Cost, "nil cost leaves the field untouched")
	assert.Equal(t, "", it.Description)
}
