package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Document base names the loader looks for in the rules directory. Each may
// be provided as .json, .yaml, or .yml; a missing or corrupt document
// degrades its section to an empty default rather than failing the load.
const (
	docAbilities   = "ability_scores_skills"
	docBackgrounds = "backgrounds"
	docCrafting    = "crafting_decay_blueprints"
	docConditions  = "conditions_and_loot_gm_section"
	docItems       = "items"
	docTraits      = "traits"
	docPerks       = "perks"
	docRaces       = "character_creation_leveling_races"
)

var defaultRaces = []Race{
	{Name: "Human"}, {Name: "Ghoul"}, {Name: "Super Mutant"}, {Name: "Synth"},
}

// Load reads the rules documents from dir and builds the queryable dataset.
// Idempotent; every call rebuilds all indices from source.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Dataset. Sections whose source document
// is missing or malformed are empty; the failure is logged, never fatal.
func Load(dir string, logger *zap.Logger) *Dataset {
	ability := readDocSafe(dir, docAbilities, logger)
	backgrounds := readDocSafe(dir, docBackgrounds, logger)
	crafting := readDocSafe(dir, docCrafting, logger)
	condLoot := readDocSafe(dir, docConditions, logger)
	items := readDocSafe(dir, docItems, logger)
	traitsRaw := readDocSafe(dir, docTraits, logger)
	perksRaw := readDocSafe(dir, docPerks, logger)
	racesDoc := readDocSafe(dir, docRaces, logger)

	d := &Dataset{
		Special: SpecialRules{Min: 1, Max: 10, PointBudget: 28},
		Skills:  generateSkills(ability),
		Races:   parseRaces(racesDoc),
		// Traits may live in the backgrounds document or their own file.
		Traits:      parseEffects(firstList(backgrounds, "Traits"), firstList(traitsRaw, "traits", "Traits")),
		Perks:       parseEffects(firstList(perksRaw, "Perks", "perks")),
		Backgrounds: parseBackgrounds(backgrounds),
		Crafting:    crafting,
		Items:       items,
		Conditions:  parseConditions(condLoot),
	}
	if d.Crafting == nil {
		d.Crafting = map[string]any{}
	}
	if d.Items == nil {
		d.Items = map[string]any{}
	}
	d.weights = buildWeightIndex(d.Items)
	return d
}

// readDocSafe reads base.{json,yaml,yml} from dir into a loosely-typed tree.
// Returns nil when no variant exists or parsing fails.
func readDocSafe(dir, base string, logger *zap.Logger) map[string]any {
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		path := filepath.Join(dir, base+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			logger.Warn("reading rules document", zap.String("path", path), zap.Error(err))
			return nil
		}

		var doc map[string]any
		if ext == ".json" {
			err = json.Unmarshal(data, &doc)
		} else {
			err = yaml.Unmarshal(data, &doc)
		}
		if err != nil {
			logger.Warn("parsing rules document", zap.String("path", path), zap.Error(err))
			return nil
		}
		return doc
	}
	logger.Warn("rules document missing, section defaults to empty", zap.String("document", base))
	return nil
}

// generateSkills builds the skill list with base formulas from the abilities
// document. "Perception or Intelligence" becomes max(P - 5, I - 5) + (L - 5);
// a single primary ability X becomes (X - 5) + (L - 5).
func generateSkills(ability map[string]any) []Skill {
	checks, _ := ability["SkillChecks"].(map[string]any)
	list, _ := checks["SkillsList"].([]any)

	skills := make([]Skill, 0, len(list))
	for _, raw := range list {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name := asString(entry["Name"])
		if name == "" {
			continue
		}
		prim := asString(entry["PrimaryAbility"])
		formula := "0"
		switch {
		case strings.Contains(prim, " or "):
			parts := strings.Split(prim, " or ")
			terms := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p == "" {
					continue
				}
				terms = append(terms, fmt.Sprintf("%c - 5", p[0]))
			}
			if len(terms) > 0 {
				formula = fmt.Sprintf("max(%s) + (L - 5)", strings.Join(terms, ", "))
			}
		case prim != "":
			formula = fmt.Sprintf("(%c - 5) + (L - 5)", prim[0])
		}
		skills = append(skills, Skill{Name: name, BaseFormula: formula})
	}
	return skills
}

func parseRaces(doc map[string]any) []Race {
	list, ok := doc["races"].([]any)
	if !ok {
		return append([]Race(nil), defaultRaces...)
	}
	races := make([]Race, 0, len(list))
	for _, raw := range list {
		switch v := raw.(type) {
		case map[string]any:
			if name := asString(v["name"]); name != "" {
				races = append(races, Race{Name: name})
			}
		case string:
			races = append(races, Race{Name: v})
		}
	}
	if len(races) == 0 {
		return append([]Race(nil), defaultRaces...)
	}
	return races
}

// parseEffects normalizes perk/trait entries from the first non-empty list.
// Entries tolerate both "name"/"Name" and "effect"/"description" keys.
func parseEffects(candidates ...[]any) []Effect {
	var list []any
	for _, c := range candidates {
		if len(c) > 0 {
			list = c
			break
		}
	}

	effects := make([]Effect, 0, len(list))
	for _, raw := range list {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name := firstString(entry, "name", "Name")
		if name == "" {
			continue
		}
		effects = append(effects, Effect{
			Name:          name,
			Text:          firstString(entry, "effect", "Effect", "description", "Description"),
			WildWasteland: firstString(entry, "wildWasteland", "wild_wasteland"),
			Prerequisite:  firstString(entry, "prerequisite", "Prerequisite"),
		})
	}
	return effects
}

func parseBackgrounds(doc map[string]any) []Background {
	list, _ := doc["Backgrounds"].([]any)
	backgrounds := make([]Background, 0, len(list))
	for _, raw := range list {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name := firstString(entry, "name", "Name")
		if name == "" {
			continue
		}
		bg := Background{Name: name}
		if se, ok := entry["starting_equipment"].(map[string]any); ok {
			bg.StartingEquipment = make(map[string][]string, len(se))
			for bucket, items := range se {
				bg.StartingEquipment[bucket] = asStringList(items)
			}
			// Go maps are unordered; sorted keys keep the "first bucket"
			// fallback deterministic across loads.
			bg.equipmentOrder = sortedKeys(se)
		}
		backgrounds = append(backgrounds, bg)
	}
	return backgrounds
}

func parseConditions(condLoot map[string]any) []map[string]any {
	cal, _ := condLoot["ConditionsAndLoot"].(map[string]any)
	list, _ := cal["Conditions"].([]any)
	conditions := make([]map[string]any, 0, len(list))
	for _, raw := range list {
		if entry, ok := raw.(map[string]any); ok {
			conditions = append(conditions, entry)
		}
	}
	return conditions
}

// buildWeightIndex walks the items tree and records one carry weight per
// item name (lowercased). carry_load may be a number or a {full, empty}
// object; full is preferred.
func buildWeightIndex(items map[string]any) map[string]float64 {
	index := make(map[string]float64)
	var add func(val any)
	add = func(val any) {
		switch v := val.(type) {
		case []any:
			for _, it := range v {
				entry, ok := it.(map[string]any)
				if !ok {
					continue
				}
				name := firstString(entry, "name", "Name")
				if name == "" {
					continue
				}
				index[strings.ToLower(name)] = carryWeight(entry["carry_load"])
			}
		case map[string]any:
			for _, sub := range v {
				add(sub)
			}
		}
	}
	add(items)
	return index
}

func carryWeight(raw any) float64 {
	switch v := raw.(type) {
	case map[string]any:
		if full, ok := asFloat(v["full"]); ok {
			return full
		}
		if empty, ok := asFloat(v["empty"]); ok {
			return empty
		}
		return 0
	default:
		f, _ := asFloat(raw)
		return f
	}
}

// -------------------- loosely-typed tree helpers --------------------

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func firstString(entry map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := asString(entry[k]); s != "" {
			return s
		}
	}
	return ""
}

func firstList(doc map[string]any, keys ...string) []any {
	for _, k := range keys {
		if list, ok := doc[k].([]any); ok && len(list) > 0 {
			return list
		}
	}
	return nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func asStringList(v any) []string {
	switch items := v.(type) {
	case []any:
		out := make([]string, 0, len(items))
		for _, it := range items {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{items}
	default:
		return nil
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
