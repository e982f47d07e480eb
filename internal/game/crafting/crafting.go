// Package crafting resolves craft attempts: recipe lookup, material costs,
// and the skill check that decides whether the item is made.
package crafting

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ashfall-games/wasteland/internal/game/character"
	"github.com/ashfall-games/wasteland/internal/game/dice"
	"github.com/ashfall-games/wasteland/internal/gamerr"
	"github.com/ashfall-games/wasteland/internal/rules"
)

const (
	defaultSkill = "Crafting"
	defaultDC    = 10
)

// materialRe matches cost entries like "x2 Cloth" or "3 Scrap Metal".
var materialRe = regexp.MustCompile(`(?i)^x?(\d+)\s+(.+)$`)

// Result is the outcome of a craft attempt. On failure OK is false and the
// breakdown fields explain the missed check; nothing was consumed.
type Result struct {
	OK      bool   `json:"ok"`
	Crafted string `json:"crafted,omitempty"`
	Skill   string `json:"skill"`
	Roll    int    `json:"roll"`
	Bonus   int    `json:"bonus"`
	Total   int    `json:"total"`
	DC      int    `json:"dc"`
}

// Recipe is a craftable entry resolved from the crafting rules document.
type Recipe struct {
	Name      string
	Materials map[string]int // lowercased material name -> quantity
	Skill     string
	DC        int
}

// FindRecipe locates a recipe by name, case-insensitively, scanning the
// CraftableItems groups first and then any other top-level recipe lists.
// Groups are visited in sorted key order so the first match is deterministic.
func FindRecipe(d *rules.Dataset, name string) (Recipe, bool) {
	var found map[string]any
	scan := func(v any) {
		list, ok := v.([]any)
		if !ok {
			return
		}
		for _, entry := range list {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			if found == nil && strings.EqualFold(entryName(m), name) {
				found = m
			}
		}
	}

	if groups, ok := d.Crafting["CraftableItems"].(map[string]any); ok {
		for _, k := range sortedKeys(groups) {
			scan(groups[k])
		}
	}
	for _, k := range sortedKeys(d.Crafting) {
		scan(d.Crafting[k])
	}

	if found == nil {
		return Recipe{}, false
	}
	skill, dc := checkOf(found)
	return Recipe{
		Name:      entryName(found),
		Materials: materialsOf(found),
		Skill:     skill,
		DC:        dc,
	}, true
}

// Craft attempts to craft the named recipe for ch.
//
// Materials are validated up front; a shortfall aborts the attempt with
// nothing consumed. The check is d20 + skill bonus vs the recipe DC. On
// failure the breakdown is returned and the character is untouched. On
// success the materials are consumed (floored at zero) and the crafted item
// appended to the inventory; the caller is responsible for recomputing
// derived stats and persisting.
//
// Precondition: ch, d, and src are non-nil.
func Craft(ch *character.Character, recipeName string, d *rules.Dataset, src dice.Source) (Result, error) {
	recipe, ok := FindRecipe(d, recipeName)
	if !ok {
		return Result{}, fmt.Errorf("recipe %q: %w", recipeName, gamerr.ErrNotFound)
	}

	for _, mat := range sortedMaterialNames(recipe.Materials) {
		need := recipe.Materials[mat]
		if ch.Materials[mat] < need {
			return Result{}, fmt.Errorf("missing material: %s x%d: %w", mat, need, gamerr.ErrInsufficientResources)
		}
	}

	bonus := ch.SkillBonus(d, recipe.Skill)
	roll := dice.RollDie(20, src)
	total := roll + bonus
	res := Result{
		Skill: recipe.Skill,
		Roll:  roll,
		Bonus: bonus,
		Total: total,
		DC:    recipe.DC,
	}
	if total < recipe.DC {
		return res, nil
	}

	if ch.Materials == nil {
		ch.Materials = map[string]int{}
	}
	for mat, need := range recipe.Materials {
		ch.Materials[mat] = max(0, ch.Materials[mat]-need)
	}
	ch.Inventory = append(ch.Inventory, recipe.Name)

	res.OK = true
	res.Crafted = recipe.Name
	return res, nil
}

// materialsOf parses the recipe's material cost list. Entries look like
// "x2 Cloth"; nested option lists are flattened and quantities for the same
// material accumulate. Unparseable entries are skipped.
func materialsOf(recipe map[string]any) map[string]int {
	out := map[string]int{}
	craft, _ := recipe["Craft"].(map[string]any)
	raw, ok := craft["Materials"]
	if !ok {
		raw = craft["materials"]
	}
	list, _ := raw.([]any)
	var addOne func(any)
	addOne = func(e any) {
		switch v := e.(type) {
		case []any:
			for _, x := range v {
				addOne(x)
			}
		case string:
			m := materialRe.FindStringSubmatch(strings.TrimSpace(v))
			if m == nil {
				return
			}
			qty := 0
			fmt.Sscanf(m[1], "%d", &qty)
			name := strings.ToLower(m[2])
			out[name] += qty
		}
	}
	for _, e := range list {
		addOne(e)
	}
	return out
}

// checkOf extracts the check skill and DC from the recipe's Craft block.
// A numeric DC uses the default skill; a per-skill map uses its first entry
// in sorted key order, with the skill name cut before any " or " alternative.
func checkOf(recipe map[string]any) (string, int) {
	skill, dc := defaultSkill, defaultDC
	craft, _ := recipe["Craft"].(map[string]any)
	switch v := craft["DC"].(type) {
	case float64:
		dc = int(v)
	case int:
		dc = v
	case map[string]any:
		keys := sortedKeys(v)
		if len(keys) > 0 {
			skill = strings.SplitN(keys[0], " or ", 2)[0]
			switch n := v[keys[0]].(type) {
			case float64:
				dc = int(n)
			case int:
				dc = n
			}
		}
	}
	return skill, dc
}

func entryName(m map[string]any) string {
	if s, ok := m["Name"].(string); ok {
		return s
	}
	if s, ok := m["name"].(string); ok {
		return s
	}
	return ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedMaterialNames(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
