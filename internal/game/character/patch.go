package character

import "strings"

// Patch is the whitelisted set of mutable character fields. Pointer and
// nil-able fields distinguish "absent" from "set to zero". Anything not
// in this struct cannot be changed by a client, derived stats included.
type Patch struct {
	Name              *string           `json:"name,omitempty"`
	XP                *int              `json:"xp,omitempty"`
	HP                *int              `json:"hp,omitempty"`
	MaxHP             *int              `json:"maxHp,omitempty"`
	Caps              *int              `json:"caps,omitempty"`
	Level             *int              `json:"level,omitempty"`
	Race              *string           `json:"race,omitempty"`
	Background        *string           `json:"background,omitempty"`
	Inventory         []string          `json:"inventory,omitempty"`
	Materials         map[string]int    `json:"materials,omitempty"`
	Special           map[string]int    `json:"special,omitempty"`
	Perks             []string          `json:"perks,omitempty"`
	Equipment         map[string]string `json:"equipment,omitempty"`
	EquipmentUpgrades map[string]int    `json:"equipmentUpgrades,omitempty"`
	SkillPoints       map[string]int    `json:"skillsPoints,omitempty"`
	Conditions        []string          `json:"conditions,omitempty"`
	DeathSaves        *DeathSaves       `json:"deathSaves,omitempty"`
}

// Apply merges the patch into the character. Semantics follow the store
// contract: equipment merges rather than replaces, upgrade entries naming
// items absent from inventory are silently dropped, and a skill-point
// update that would overspend the granted budget is dropped wholesale.
// Out-of-range values are clamped, not rejected.
//
// The caller must recompute derived stats and re-run progression after a
// successful apply; Apply itself only touches whitelisted fields.
func (c *Character) Apply(p Patch) {
	c.Normalize()

	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.XP != nil {
		c.XP = max(0, *p.XP)
	}
	if p.MaxHP != nil {
		c.MaxHP = max(1, *p.MaxHP)
	}
	if p.HP != nil {
		hp := *p.HP
		if hp < 0 {
			hp = 0
		}
		if hp > c.MaxHP {
			hp = c.MaxHP
		}
		c.HP = hp
	}
	if p.Caps != nil {
		c.Caps = max(0, *p.Caps)
	}
	if p.Level != nil {
		c.Level = max(1, *p.Level)
	}
	if p.Race != nil {
		c.Race = strings.TrimSpace(*p.Race)
	}
	if p.Background != nil {
		c.Background = strings.TrimSpace(*p.Background)
	}

	if p.Inventory != nil {
		inv := p.Inventory
		if len(inv) > MaxInventory {
			inv = inv[:MaxInventory]
		}
		c.Inventory = append([]string(nil), inv...)
	}
	if p.Materials != nil {
		c.Materials = capMaterials(p.Materials)
	}
	if p.Special != nil {
		c.applySpecialPatch(p.Special)
	}
	if p.Perks != nil {
		perks := p.Perks
		if len(perks) > MaxPerks {
			perks = perks[:MaxPerks]
		}
		c.Perks = append([]string(nil), perks...)
	}
	if p.Conditions != nil {
		conds := p.Conditions
		if len(conds) > MaxConditions {
			conds = conds[:MaxConditions]
		}
		c.Conditions = append([]string(nil), conds...)
	}

	// Equipment merges slot by slot; an empty value clears the slot entry.
	for slot, item := range p.Equipment {
		slot = strings.TrimSpace(slot)
		if slot == "" {
			continue
		}
		c.Equipment[slot] = item
	}

	c.applyUpgradePatch(p.EquipmentUpgrades)
	c.applySkillPointPatch(p.SkillPoints)

	if p.DeathSaves != nil {
		c.DeathSaves = DeathSaves{
			Successes: clampSaves(p.DeathSaves.Successes),
			Failures:  clampSaves(p.DeathSaves.Failures),
		}
	}
}

// applySpecialPatch merges single-letter attribute keys, ignoring unknown
// keys rather than rejecting the patch.
func (c *Character) applySpecialPatch(patch map[string]int) {
	for key, value := range patch {
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "S":
			c.Special.S = value
		case "P":
			c.Special.P = value
		case "E":
			c.Special.E = value
		case "C":
			c.Special.C = value
		case "I":
			c.Special.I = value
		case "A":
			c.Special.A = value
		case "L":
			c.Special.L = value
		}
	}
}

// applyUpgradePatch merges upgrade ranks, keeping only upgrades whose name
// matches an inventory item. Dropped entries are not an error.
func (c *Character) applyUpgradePatch(patch map[string]int) {
	if len(patch) == 0 {
		return
	}
	owned := make(map[string]bool, len(c.Inventory))
	for _, item := range c.Inventory {
		owned[strings.ToLower(item)] = true
	}
	for name, rank := range patch {
		if !owned[strings.ToLower(name)] {
			continue
		}
		if rank < 1 {
			rank = 1
		}
		c.EquipmentUpgrades[name] = rank
	}
}

// applySkillPointPatch merges allocations, then validates the budget: when
// total spend would exceed totalSkillPointsGranted the entire update is
// dropped and the stored map is left untouched.
func (c *Character) applySkillPointPatch(patch map[string]int) {
	if len(patch) == 0 {
		return
	}
	next := cloneIntMap(c.SkillPoints)
	for skill, points := range patch {
		if points < 0 {
			points = 0
		}
		next[skill] = points
	}
	spent := 0
	for _, v := range next {
		spent += v
	}
	if spent > c.TotalSkillPointsGranted {
		return
	}
	c.SkillPoints = next
	c.UnspentSkillPoints = c.TotalSkillPointsGranted - spent
}

func capMaterials(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for name, count := range in {
		if len(out) >= MaxMaterials {
			break
		}
		if count < 0 {
			count = 0
		}
		out[strings.ToLower(strings.TrimSpace(name))] = count
	}
	return out
}

func clampSaves(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxDeathSaves {
		return MaxDeathSaves
	}
	return v
}
