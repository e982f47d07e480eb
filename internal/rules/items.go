package rules

import (
	"sort"
	"strings"
)

// Item is a flattened view of one entry in the items tree.
type Item struct {
	Name     string
	Category string         // " / "-joined path of category keys
	Attrs    map[string]any // raw numeric/text attributes from the document
}

// IntAttr returns the named attribute as an int, 0 when absent or non-numeric.
func (it Item) IntAttr(key string) int {
	f, _ := asFloat(it.Attrs[key])
	return int(f)
}

// Armor is the subset of item attributes the derived-stats engine needs.
type Armor struct {
	Name            string
	ArmorClass      int
	DamageThreshold int
}

// Structural buckets excluded from category listings; they describe item
// metadata rather than item groups.
var reservedCategoryNames = map[string]bool{
	"properties": true,
	"criticals":  true,
	"ranges":     true,
	"tags":       true,
}

// FindItemByName performs a case-insensitive search across all nested item
// category groups and returns the first match in walk order. When the same
// name exists in multiple categories the first match wins; callers needing
// deterministic category resolution must search a specific category.
func (d *Dataset) FindItemByName(name string) (Item, bool) {
	if d == nil {
		return Item{}, false
	}
	target := strings.ToLower(strings.TrimSpace(name))
	if target == "" {
		return Item{}, false
	}

	var found Item
	ok := false
	d.walkItems(func(it Item) bool {
		if strings.ToLower(it.Name) == target {
			found = it
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

// Categories returns the leaf category paths of the items tree, joined with
// " / " and sorted, excluding reserved structural buckets at any depth.
func (d *Dataset) Categories() []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]bool)
	d.walkItems(func(it Item) bool {
		if it.Category != "" {
			seen[it.Category] = true
		}
		return true
	})
	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// ItemNames returns every named item whose category path contains one of
// the given substrings; with no filters it returns all item names. Used by
// the loot engine to build drop pools.
func (d *Dataset) ItemNames(categoryFilters ...string) []string {
	if d == nil {
		return nil
	}
	var names []string
	d.walkItems(func(it Item) bool {
		if len(categoryFilters) > 0 {
			matched := false
			for _, f := range categoryFilters {
				if f != "" && strings.Contains(it.Category, f) {
					matched = true
					break
				}
			}
			if !matched {
				return true
			}
		}
		names = append(names, it.Name)
		return true
	})
	return names
}

// FindArmor returns the armor definition for the named item from the Armor
// category, case-insensitively.
func (d *Dataset) FindArmor(name string) (Armor, bool) {
	target := strings.ToLower(strings.TrimSpace(name))
	if target == "" {
		return Armor{}, false
	}
	for _, it := range d.categoryItems("Armor") {
		if strings.ToLower(it.Name) == target {
			return Armor{
				Name:            it.Name,
				ArmorClass:      it.IntAttr("armor_class"),
				DamageThreshold: it.IntAttr("damage_threshold"),
			}, true
		}
	}
	return Armor{}, false
}

// FindArmorUpgrade returns the canonical upgrade name from the
// "Armor Upgrades" category, case-insensitively.
func (d *Dataset) FindArmorUpgrade(name string) (string, bool) {
	target := strings.ToLower(strings.TrimSpace(name))
	for _, it := range d.categoryItems("Armor Upgrades") {
		if strings.ToLower(it.Name) == target {
			return it.Name, true
		}
	}
	return "", false
}

// categoryItems returns the entries of one top-level items category.
func (d *Dataset) categoryItems(category string) []Item {
	list, ok := d.Items[category].([]any)
	if !ok {
		return nil
	}
	items := make([]Item, 0, len(list))
	for _, raw := range list {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name := firstString(entry, "name", "Name")
		if name == "" {
			continue
		}
		items = append(items, Item{Name: name, Category: category, Attrs: entry})
	}
	return items
}

// walkItems visits every named item in the tree in sorted-key walk order.
// The visitor returns false to stop the walk.
func (d *Dataset) walkItems(visit func(Item) bool) {
	var walk func(val any, path string) bool
	walk = func(val any, path string) bool {
		switch v := val.(type) {
		case []any:
			for _, raw := range v {
				entry, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				name := firstString(entry, "name", "Name")
				if name == "" {
					continue
				}
				if !visit(Item{Name: name, Category: path, Attrs: entry}) {
					return false
				}
			}
		case map[string]any:
			for _, key := range sortedKeys(v) {
				if reservedCategoryNames[strings.ToLower(key)] {
					continue
				}
				sub := path
				if sub == "" {
					sub = key
				} else {
					sub = sub + " / " + key
				}
				if !walk(v[key], sub) {
					return false
				}
			}
		}
		return true
	}
	walk(d.Items, "")
}
