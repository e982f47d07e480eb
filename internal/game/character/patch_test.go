package character

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestApplyScalarFields(t *testing.T) {
	c := &Character{MaxHP: 12, HP: 12}
	c.Apply(Patch{
		Name:  strPtr("  Piper Wright  "),
		XP:    intPtr(-10),
		HP:    intPtr(50),
		Caps:  intPtr(-5),
		Level: intPtr(0),
	})

	assert.Equal(t, "Piper Wright", c.Name)
	assert.Zero(t, c.XP, "xp floors at zero")
	assert.Equal(t, 12, c.HP, "hp clamps to max")
	assert.Zero(t, c.Caps)
	assert.Equal(t, 1, c.Level)
}

func TestApplyIgnoresBlankName(t *testing.T) {
	c := &Character{Name: "Piper"}
	c.Apply(Patch{Name: strPtr("   ")})
	assert.Equal(t, "Piper", c.Name)
}

func TestApplyHPClampsAgainstPatchedMax(t *testing.T) {
	c := &Character{MaxHP: 12, HP: 12}
	c.Apply(Patch{MaxHP: intPtr(20), HP: intPtr(18)})
	assert.Equal(t, 20, c.MaxHP)
	assert.Equal(t, 18, c.HP)
}

func TestApplyListCaps(t *testing.T) {
	inv := make([]string, MaxInventory+10)
	for i := range inv {
		inv[i] = "Junk"
	}
	c := &Character{}
	c.Apply(Patch{Inventory: inv})
	assert.Len(t, c.Inventory, MaxInventory)

	conds := make([]string, MaxConditions+5)
	for i := range conds {
		conds[i] = "Dazed"
	}
	c.Apply(Patch{Conditions: conds})
	assert.Len(t, c.Conditions, MaxConditions)
}

func TestApplyMaterialsLowercasesKeys(t *testing.T) {
	c := &Character{}
	c.Apply(Patch{Materials: map[string]int{" Scrap Metal ": 3, "Adhesive": -2}})
	assert.Equal(t, 3, c.Materials["scrap metal"])
	assert.Zero(t, c.Materials["adhesive"], "negative counts floor at zero")
}

func TestApplySpecialMergesKnownKeys(t *testing.T) {
	c := &Character{Special: Special{S: 5, P: 5, E: 5, C: 5, I: 5, A: 5, L: 5}}
	c.Apply(Patch{Special: map[string]int{"e": 8, "Q": 9}})
	assert.Equal(t, 8, c.Special.E)
	assert.Equal(t, 5, c.Special.S)
}

func TestApplyEquipmentMergesSlots(t *testing.T) {
	c := &Character{Equipment: map[string]string{"Armor": "Leather Armor", "Weapon 1": "10mm Pistol"}}
	c.Apply(Patch{Equipment: map[string]string{"Weapon 1": "Hunting Rifle", "Helmet": "Combat Helmet"}})

	assert.Equal(t, "Leather Armor", c.Equipment["Armor"], "untouched slots survive")
	assert.Equal(t, "Hunting Rifle", c.Equipment["Weapon 1"])
	assert.Equal(t, "Combat Helmet", c.Equipment["Helmet"])
}

func TestApplyUpgradesRequireOwnedItem(t *testing.T) {
	c := &Character{Inventory: []string{"Reinforced"}}
	c.Apply(Patch{EquipmentUpgrades: map[string]int{"Reinforced": 2, "Hardened": 1}})

	assert.Equal(t, 2, c.EquipmentUpgrades["Reinforced"])
	_, ok := c.EquipmentUpgrades["Hardened"]
	assert.False(t, ok, "upgrades naming unowned items are dropped")
}

func TestApplyUpgradeFilterIsIdempotent(t *testing.T) {
	c := &Character{Inventory: []string{"Reinforced"}}
	patch := Patch{EquipmentUpgrades: map[string]int{"Reinforced": 2, "Hardened": 1, "Scoped": 0}}

	c.Apply(patch)
	first := map[string]int{}
	for k, v := range c.EquipmentUpgrades {
		first[k] = v
	}

	c.Apply(patch)
	assert.Equal(t, first, c.EquipmentUpgrades, "re-applying the same upgrades changes nothing")
	assert.Equal(t, map[string]int{"Reinforced": 2}, c.EquipmentUpgrades)
}

func TestApplySkillPointsBudget(t *testing.T) {
	c := &Character{
		TotalSkillPointsGranted: 5,
		SkillPoints:             map[string]int{"Sneak": 2},
	}

	c.Apply(Patch{SkillPoints: map[string]int{"Guns": 2}})
	assert.Equal(t, 2, c.SkillPoints["Guns"])
	assert.Equal(t, 1, c.UnspentSkillPoints)

	// Overspending drops the whole update.
	c.Apply(Patch{SkillPoints: map[string]int{"Science": 10}})
	_, ok := c.SkillPoints["Science"]
	assert.False(t, ok)
	assert.Equal(t, 2, c.SkillPoints["Sneak"])
	assert.Equal(t, 1, c.UnspentSkillPoints)
}

func TestApplyDeathSavesClamped(t *testing.T) {
	c := &Character{}
	c.Apply(Patch{DeathSaves: &DeathSaves{Successes: 7, Failures: -1}})
	assert.Equal(t, MaxDeathSaves, c.DeathSaves.Successes)
	assert.Zero(t, c.DeathSaves.Failures)
}

func TestApplyTrimsRaceAndBackground(t *testing.T) {
	c := &Character{}
	c.Apply(Patch{Race: strPtr(" Ghoul "), Background: strPtr(" Wastelander ")})
	assert.Equal(t, "Ghoul", c.Race)
	assert.Equal(t, "Wastelander", c.Background)
	assert.False(t, strings.ContainsAny(c.Race, " "))
}
