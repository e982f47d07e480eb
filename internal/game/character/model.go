// Package character defines the character domain model, creation logic,
// and the whitelisted patch application used by every mutation path.
package character

import (
	"strings"
	"time"
)

// Inventory and list caps enforced at every mutation boundary.
const (
	MaxInventory    = 100
	MaxMaterials    = 200
	MaxPerks        = 30
	MaxConditions   = 20
	MaxSkillBonuses = 10
	MaxDeathSaves   = 3
)

// EquipmentSlots are the slot names the sheet always presents. Equipment
// maps may carry additional slots.
var EquipmentSlots = []string{"Armor", "Weapon 1", "Weapon 2", "Helmet", "Torso", "Legs"}

// Special is the seven-attribute block driving all derived stats.
type Special struct {
	S int `json:"S"`
	P int `json:"P"`
	E int `json:"E"`
	C int `json:"C"`
	I int `json:"I"`
	A int `json:"A"`
	L int `json:"L"`
}

// Vars returns the SPECIAL values as formula variable bindings.
func (s Special) Vars() map[string]float64 {
	return map[string]float64{
		"S": float64(s.S), "P": float64(s.P), "E": float64(s.E),
		"C": float64(s.C), "I": float64(s.I), "A": float64(s.A),
		"L": float64(s.L),
	}
}

// DeathSaves tracks death saving throw successes and failures, each 0..3.
type DeathSaves struct {
	Successes int `json:"s"`
	Failures  int `json:"f"`
}

// Derived is the recomputed-on-every-mutation stats snapshot. It is a pure
// function of SPECIAL, equipment, upgrades, perks, trait, and inventory
// plus the rules dataset, and is never trusted from a client payload.
type Derived struct {
	MaxHP              int     `json:"maxHp"`
	ActionPoints       int     `json:"ap"`
	StaminaPoints      int     `json:"sp"`
	CarryMax           float64 `json:"carryMax"`
	CarryCurrent       float64 `json:"carryCurrent"`
	LuckMod            int     `json:"luckMod"`
	ArmorClass         int     `json:"ac"`
	DamageThreshold    int     `json:"dt"`
	RadiationDC        int     `json:"radiationDc"`
	SturdyIgnoreLevels int     `json:"sturdyIgnoreLevels,omitempty"`
	ArmorNoCritDecay   bool    `json:"armorNoCritDecay,omitempty"`
}

// Character is a player-owned (or DM-created) game entity. Field names on
// the wire match the persisted document schema.
type Character struct {
	ID        string `json:"id"`
	OwnerID   string `json:"ownerId"`
	OwnerName string `json:"ownerName,omitempty"`

	Name       string `json:"name"`
	Race       string `json:"race"`
	Background string `json:"background"`
	Trait      string `json:"trait"`

	Special Special  `json:"special"`
	Perks   []string `json:"perks"`

	Level int `json:"level"`
	XP    int `json:"xp"`
	HP    int `json:"hp"`
	MaxHP int `json:"maxHp"`
	Caps  int `json:"caps"`

	Inventory         []string          `json:"inventory"`
	Materials         map[string]int    `json:"materials"`
	Equipment         map[string]string `json:"equipment"`
	EquipmentUpgrades map[string]int    `json:"equipmentUpgrades"`

	Conditions []string   `json:"conditions"`
	DeathSaves DeathSaves `json:"deathSaves"`

	SkillPoints             map[string]int `json:"skillsPoints"`
	UnspentSkillPoints      int            `json:"unspentSkillPoints"`
	UnspentSpecialPoints    int            `json:"unspentSpecialPoints"`
	TotalSkillPointsGranted int            `json:"totalSkillPointsGranted"`

	BackgroundSkillBonuses map[string]int `json:"backgroundSkillBonuses,omitempty"`

	Derived    Derived `json:"derived"`
	ShopAccess bool    `json:"shopAccess"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Normalize defaults all map and slice fields so mutation code never deals
// with nil collections. Called at every store boundary.
func (c *Character) Normalize() {
	if c.Perks == nil {
		c.Perks = []string{}
	}
	if c.Inventory == nil {
		c.Inventory = []string{}
	}
	if c.Materials == nil {
		c.Materials = map[string]int{}
	}
	if c.Equipment == nil {
		c.Equipment = map[string]string{}
	}
	if c.EquipmentUpgrades == nil {
		c.EquipmentUpgrades = map[string]int{}
	}
	if c.Conditions == nil {
		c.Conditions = []string{}
	}
	if c.SkillPoints == nil {
		c.SkillPoints = map[string]int{}
	}
	if c.Level < 1 {
		c.Level = 1
	}
}

// Clone returns a deep copy of the character.
func (c *Character) Clone() *Character {
	out := *c
	out.Perks = append([]string(nil), c.Perks...)
	out.Inventory = append([]string(nil), c.Inventory...)
	out.Conditions = append([]string(nil), c.Conditions...)
	out.Materials = cloneIntMap(c.Materials)
	out.Equipment = cloneStringMap(c.Equipment)
	out.EquipmentUpgrades = cloneIntMap(c.EquipmentUpgrades)
	out.SkillPoints = cloneIntMap(c.SkillPoints)
	out.BackgroundSkillBonuses = cloneIntMap(c.BackgroundSkillBonuses)
	return &out
}

// HasInventoryItem reports whether the inventory contains the named item,
// case-insensitively.
func (c *Character) HasInventoryItem(name string) bool {
	return c.inventoryIndex(name) >= 0
}

// RemoveInventoryItem removes the first case-insensitive occurrence of the
// named item. Returns false when the item is not present.
func (c *Character) RemoveInventoryItem(name string) bool {
	idx := c.inventoryIndex(name)
	if idx < 0 {
		return false
	}
	c.Inventory = append(c.Inventory[:idx], c.Inventory[idx+1:]...)
	return true
}

func (c *Character) inventoryIndex(name string) int {
	target := strings.ToLower(strings.TrimSpace(name))
	for i, entry := range c.Inventory {
		if strings.ToLower(entry) == target {
			return i
		}
	}
	return -1
}

// ConsumeMaterial decrements the named material stack by qty, deleting the
// entry when it reaches zero. Unknown materials are a no-op.
func (c *Character) ConsumeMaterial(name string, qty int) {
	key := strings.ToLower(strings.TrimSpace(name))
	current, ok := c.Materials[key]
	if !ok {
		return
	}
	remaining := max(0, current-qty)
	if remaining == 0 {
		delete(c.Materials, key)
		return
	}
	c.Materials[key] = remaining
}

// Increment raises the ability named by the first letter of ability by one,
// capped at limit. Returns false when the letter is not a SPECIAL ability
// or the ability is already at the cap.
func (s *Special) Increment(ability string, limit int) bool {
	ability = strings.ToUpper(strings.TrimSpace(ability))
	if ability == "" {
		return false
	}
	var target *int
	switch ability[0] {
	case 'S':
		target = &s.S
	case 'P':
		target = &s.P
	case 'E':
		target = &s.E
	case 'C':
		target = &s.C
	case 'I':
		target = &s.I
	case 'A':
		target = &s.A
	case 'L':
		target = &s.L
	default:
		return false
	}
	if *target >= limit {
		return false
	}
	*target++
	return true
}

// SpentSkillPoints returns the total points allocated across all skills.
func (c *Character) SpentSkillPoints() int {
	total := 0
	for _, v := range c.SkillPoints {
		total += v
	}
	return total
}

func cloneIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
