// Package derived recomputes a character's combat-relevant derived
// attributes from SPECIAL, equipped items, equipment upgrades, perks, and
// traits. Compute is deterministic and pure; Refresh applies the snapshot
// to a character on the write path, clamping HP to the new maximum.
package derived

import (
	"github.com/ashfall-games/wasteland/internal/game/character"
	"github.com/ashfall-games/wasteland/internal/rules"
)

// Compute builds the derived-stats snapshot for the character.
//
// The base formulas: maxHp = max(1, 10+(E-5)); AP and SP are both
// max(1, 10+(A-5)), intentionally identical since both derive from Agility;
// carryMax = max(0, S*10); radiation DC = max(0, 12-(E-5)). Equipped
// armor contributes (AC-10) and its damage threshold. Upgrade and
// perk/trait effects are layered on top, in that order.
func Compute(c *character.Character, d *rules.Dataset) character.Derived {
	s := c.Special

	out := character.Derived{
		MaxHP:         atLeast(1, 10+(s.E-5)),
		ActionPoints:  atLeast(1, 10+(s.A-5)),
		StaminaPoints: atLeast(1, 10+(s.A-5)),
		LuckMod:       s.L - 5,
		ArmorClass:    10,
		RadiationDC:   atLeast(0, 12-(s.E-5)),
	}
	if s.S > 0 {
		out.CarryMax = float64(s.S) * 10
	}
	for _, item := range c.Inventory {
		out.CarryCurrent += d.WeightOf(item)
	}

	applyEquipment(&out, c, d)
	applyUpgrades(&out, c, d)
	applyEffectTexts(&out, c, d)

	if out.RadiationDC < 0 {
		out.RadiationDC = 0
	}
	return out
}

// Refresh recomputes derived stats and applies them to the character:
// MaxHP tracks the snapshot and HP is clamped down to it. HP is never
// raised here; stat changes do not heal.
func Refresh(c *character.Character, d *rules.Dataset) {
	out := Compute(c, d)
	c.Derived = out
	c.MaxHP = out.MaxHP
	if c.HP > out.MaxHP {
		c.HP = out.MaxHP
	}
	if c.HP < 0 {
		c.HP = 0
	}
}

// applyEquipment folds every equipped armor piece into AC and DT. Slots
// holding non-armor items (weapons) contribute nothing here.
func applyEquipment(out *character.Derived, c *character.Character, d *rules.Dataset) {
	for _, item := range c.Equipment {
		if item == "" {
			continue
		}
		armor, ok := d.FindArmor(item)
		if !ok {
			continue
		}
		out.ArmorClass += armor.ArmorClass - 10
		out.DamageThreshold += armor.DamageThreshold
	}
}

// applyUpgrades folds the fixed catalog of named armor-upgrade effects.
// Upgrade names are validated against the rules catalog; unknown names
// and non-positive ranks are skipped. Ownership filtering happened at
// mutation time.
func applyUpgrades(out *character.Derived, c *character.Character, d *rules.Dataset) {
	for name, rank := range c.EquipmentUpgrades {
		if rank <= 0 {
			continue
		}
		canonical, ok := d.FindArmorUpgrade(name)
		if !ok {
			continue
		}
		switch canonical {
		case "Reinforced":
			out.DamageThreshold += rank
		case "Hardened":
			out.ArmorClass += rank
		case "Lead Lined":
			out.RadiationDC -= 2 * rank
			if out.RadiationDC < 0 {
				out.RadiationDC = 0
			}
		case "Sturdy":
			ignore := 2
			if rank >= 2 {
				ignore = 4
			}
			if ignore > out.SturdyIgnoreLevels {
				out.SturdyIgnoreLevels = ignore
			}
			if rank >= 3 {
				out.ArmorNoCritDecay = true
			}
		}
	}
}

func atLeast(floor, v int) int {
	if v < floor {
		return floor
	}
	return v
}
