package derived

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/ashfall-games/wasteland/internal/game/character"
	"github.com/ashfall-games/wasteland/internal/rules"
)

func flatSpecial() character.Special {
	return character.Special{S: 5, P: 5, E: 5, C: 5, I: 5, A: 5, L: 5}
}

func testDataset() *rules.Dataset {
	return &rules.Dataset{
		Special: rules.SpecialRules{Min: 1, Max: 10, PointBudget: 28},
		Items: map[string]any{
			"Armor": []any{
				map[string]any{"name": "Leather Armor", "armor_class": 12, "damage_threshold": 1},
				map[string]any{"name": "Combat Armor", "armor_class": 14, "damage_threshold": 3},
			},
			"Armor Upgrades": []any{
				map[string]any{"name": "Reinforced"},
				map[string]any{"name": "Hardened"},
				map[string]any{"name": "Lead Lined"},
				map[string]any{"name": "Sturdy"},
			},
		},
		Traits: []rules.Effect{
			{Name: "Thick Skinned", Text: "DT is increased by 1, but AC is decreased by 1."},
			{Name: "Glowing One", Text: "Radiation DC is increased by 2.", WildWasteland: "Carry load increases by 5."},
		},
		Perks: []rules.Effect{
			{Name: "Strong Back", Text: "Carry load increases by 20."},
			{Name: "Bear Arms", Text: "Strength score increases by 1."},
		},
	}
}

func TestComputeBaseFormulas(t *testing.T) {
	c := &character.Character{Special: flatSpecial()}
	c.Normalize()

	out := Compute(c, testDataset())
	assert.Equal(t, 10, out.MaxHP)
	assert.Equal(t, 10, out.ActionPoints)
	assert.Equal(t, 10, out.StaminaPoints)
	assert.Equal(t, float64(50), out.CarryMax)
	assert.Equal(t, 10, out.ArmorClass)
	assert.Zero(t, out.DamageThreshold)
	assert.Equal(t, 12, out.RadiationDC)
	assert.Zero(t, out.LuckMod)
}

func TestComputeFloorsStayPositive(t *testing.T) {
	c := &character.Character{Special: character.Special{S: 1, P: 1, E: 1, C: 1, I: 1, A: 1, L: 1}}
	c.Normalize()

	out := Compute(c, testDataset())
	assert.Equal(t, 6, out.MaxHP)
	assert.Equal(t, 6, out.ActionPoints)
	assert.Equal(t, 16, out.RadiationDC)
	assert.Equal(t, -4, out.LuckMod)
}

func TestComputeEquipmentStacks(t *testing.T) {
	c := &character.Character{
		Special: flatSpecial(),
		Equipment: map[string]string{
			"Armor": "Leather Armor",
			"Torso": "Combat Armor",
			// Non-armor slots contribute nothing.
			"Weapon 1": "10mm Pistol",
		},
	}
	c.Normalize()

	out := Compute(c, testDataset())
	// 10 + (12-10) + (14-10).
	assert.Equal(t, 16, out.ArmorClass)
	assert.Equal(t, 4, out.DamageThreshold)
}

func TestComputeUpgrades(t *testing.T) {
	c := &character.Character{
		Special: flatSpecial(),
		EquipmentUpgrades: map[string]int{
			"Reinforced": 2,
			"hardened":   1,
			"Lead Lined": 1,
			"Unknown":    5,
		},
	}
	c.Normalize()

	out := Compute(c, testDataset())
	assert.Equal(t, 2, out.DamageThreshold)
	assert.Equal(t, 11, out.ArmorClass)
	assert.Equal(t, 10, out.RadiationDC)
}

func TestComputeSturdyRanks(t *testing.T) {
	for _, tt := range []struct {
		rank        int
		ignore      int
		noCritDecay bool
	}{
		{1, 2, false},
		{2, 4, false},
		{3, 4, true},
	} {
		c := &character.Character{
			Special:           flatSpecial(),
			EquipmentUpgrades: map[string]int{"Sturdy": tt.rank},
		}
		c.Normalize()
		out := Compute(c, testDataset())
		assert.Equal(t, tt.ignore, out.SturdyIgnoreLevels, "rank %d", tt.rank)
		assert.Equal(t, tt.noCritDecay, out.ArmorNoCritDecay, "rank %d", tt.rank)
	}
}

func TestComputeTraitAndPerkEffects(t *testing.T) {
	c := &character.Character{
		Special: flatSpecial(),
		Trait:   "Thick Skinned",
		Perks:   []string{"Strong Back", "Bear Arms"},
	}
	c.Normalize()

	out := Compute(c, testDataset())
	assert.Equal(t, 1, out.DamageThreshold)
	assert.Equal(t, 9, out.ArmorClass)
	// 50 base + 20 perk + 10 from the strength-score effect.
	assert.Equal(t, float64(80), out.CarryMax)
}

func TestComputeWildVariantAppliesAlternateText(t *testing.T) {
	d := testDataset()

	base := &character.Character{Special: flatSpecial(), Trait: "Glowing One"}
	base.Normalize()
	wild := &character.Character{Special: flatSpecial(), Trait: "Glowing One (Wild)"}
	wild.Normalize()

	assert.Equal(t, 14, Compute(base, d).RadiationDC)
	out := Compute(wild, d)
	assert.Equal(t, 14, out.RadiationDC, "wild text applies on top of the base effect")
	assert.Equal(t, float64(55), out.CarryMax)
}

func TestComputeDuplicatePerksStack(t *testing.T) {
	c := &character.Character{
		Special: flatSpecial(),
		Perks:   []string{"Strong Back", "Strong Back"},
	}
	c.Normalize()
	assert.Equal(t, float64(90), Compute(c, testDataset()).CarryMax)
}

func TestRefreshClampsHPDownOnly(t *testing.T) {
	d := testDataset()
	c := &character.Character{Special: flatSpecial(), HP: 25, MaxHP: 25}
	c.Normalize()

	Refresh(c, d)
	assert.Equal(t, 10, c.MaxHP)
	assert.Equal(t, 10, c.HP, "hp clamps down to the recomputed max")

	c.HP = 3
	c.Special.E = 9
	Refresh(c, d)
	assert.Equal(t, 14, c.MaxHP)
	assert.Equal(t, 3, c.HP, "stat changes never heal")
}

func TestComputeInvariantsProperty(t *testing.T) {
	d := testDataset()
	rapid.Check(t, func(t *rapid.T) {
		c := &character.Character{
			Special: character.Special{
				S: rapid.IntRange(1, 10).Draw(t, "s"),
				P: rapid.IntRange(1, 10).Draw(t, "p"),
				E: rapid.IntRange(1, 10).Draw(t, "e"),
				C: rapid.IntRange(1, 10).Draw(t, "c"),
				I: rapid.IntRange(1, 10).Draw(t, "i"),
				A: rapid.IntRange(1, 10).Draw(t, "a"),
				L: rapid.IntRange(1, 10).Draw(t, "l"),
			},
		}
		c.Normalize()
		out := Compute(c, d)
		assert.GreaterOrEqual(t, out.MaxHP, 1)
		assert.GreaterOrEqual(t, out.ActionPoints, 1)
		assert.GreaterOrEqual(t, out.StaminaPoints, 1)
		assert.GreaterOrEqual(t, out.RadiationDC, 0)
		assert.GreaterOrEqual(t, out.CarryMax, float64(0))
	})
}
