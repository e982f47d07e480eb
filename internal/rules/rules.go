// Package rules loads and indexes the read-only rules content dataset:
// skills, items, perks, traits, backgrounds, crafting recipes, races, and
// conditions. The dataset is built once at startup and passed explicitly
// into every engine call; it is immutable for the lifetime of the process.
package rules

import "strings"

// Skill pairs a skill name with the base-bonus formula evaluated against
// the seven SPECIAL bindings.
type Skill struct {
	Name        string `json:"name"`
	BaseFormula string `json:"baseFormula"`
}

// Effect is a perk or trait: a named free-text rules effect. WildWasteland
// holds the optional alternate effect text for the Wild Wasteland variant.
type Effect struct {
	Name          string `json:"name"`
	Text          string `json:"effect"`
	WildWasteland string `json:"wildWasteland,omitempty"`
	Prerequisite  string `json:"prerequisite,omitempty"`
}

// Race is a playable race entry.
type Race struct {
	Name string `json:"name"`
}

// Background is a character background with race-keyed starting equipment
// buckets. Bucket values are item name lists; a "50 caps" entry is currency.
type Background struct {
	Name              string              `json:"name"`
	StartingEquipment map[string][]string `json:"starting_equipment,omitempty"`
	equipmentOrder    []string
}

// EquipmentBuckets returns the starting-equipment bucket keys in document
// order, so "first bucket" fallbacks are deterministic.
func (b Background) EquipmentBuckets() []string {
	return b.equipmentOrder
}

// SpecialRules holds the SPECIAL attribute bounds and point budget.
type SpecialRules struct {
	Min         int `json:"min"`
	Max         int `json:"max"`
	PointBudget int `json:"pointBudget"`
}

// Dataset is the normalized, queryable rules content. All lookup methods
// are case-insensitive and safe on a zero-value Dataset (empty sections).
type Dataset struct {
	Special     SpecialRules     `json:"special"`
	Skills      []Skill          `json:"skills"`
	Races       []Race           `json:"races"`
	Backgrounds []Background     `json:"backgrounds"`
	Traits      []Effect         `json:"traits"`
	Perks       []Effect         `json:"perks"`
	Crafting    map[string]any   `json:"crafting"`
	Items       map[string]any   `json:"items"`
	Conditions  []map[string]any `json:"conditions"`

	weights map[string]float64 // lowercase item name -> carry weight
}

// WeightOf returns the carry weight of the named item, 0 for unknown items.
func (d *Dataset) WeightOf(name string) float64 {
	if d == nil || d.weights == nil {
		return 0
	}
	return d.weights[strings.ToLower(name)]
}

// FindSkill returns the skill with the given name, case-insensitively.
func (d *Dataset) FindSkill(name string) (Skill, bool) {
	for _, s := range d.Skills {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Skill{}, false
}

// FindTrait returns the trait with the given name, case-insensitively.
// Names containing a "(Wild)" marker match their base trait.
func (d *Dataset) FindTrait(name string) (Effect, bool) {
	base := strings.TrimSpace(stripWildMarker(name))
	for _, t := range d.Traits {
		if strings.EqualFold(t.Name, base) {
			return t, true
		}
	}
	return Effect{}, false
}

// FindPerk returns the perk with the given name, case-insensitively.
func (d *Dataset) FindPerk(name string) (Effect, bool) {
	for _, p := range d.Perks {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Effect{}, false
}

// FindBackground returns the background with the given name,
// case-insensitively.
func (d *Dataset) FindBackground(name string) (Background, bool) {
	for _, b := range d.Backgrounds {
		if strings.EqualFold(b.Name, name) {
			return b, true
		}
	}
	return Background{}, false
}

// IsWildVariant reports whether a stored trait name carries the "(Wild)"
// marker requesting the Wild Wasteland effect text.
func IsWildVariant(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "(wild)") || strings.Contains(lower, "( wild )")
}

func stripWildMarker(name string) string {
	for _, marker := range []string{"(Wild)", "(wild)", "( wild )", "( Wild )"} {
		name = strings.ReplaceAll(name, marker, "")
	}
	return name
}
