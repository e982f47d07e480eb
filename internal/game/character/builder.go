package character

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ashfall-games/wasteland/internal/gamerr"
	"github.com/ashfall-games/wasteland/internal/rules"
)

// CustomBackground carries caller-supplied extras for the "Custom
// Background" option: bonus equipment and up to three +2 skill bonuses.
type CustomBackground struct {
	Equipment    []string       `json:"equipment"`
	SkillBonuses map[string]int `json:"skillBonuses"`
}

// CreationInput is the caller-supplied portion of a new character.
type CreationInput struct {
	Name             string            `json:"name"`
	Race             string            `json:"race"`
	Background       string            `json:"background"`
	Trait            string            `json:"trait"`
	Special          Special           `json:"special"`
	Perks            []string          `json:"perks"`
	Level            int               `json:"level"`
	CustomBackground *CustomBackground `json:"customBackground,omitempty"`
}

var capsAmountRe = regexp.MustCompile(`(\d+)`)
var capsWordRe = regexp.MustCompile(`(?i)\bcaps\b`)

// Build constructs a new character from creation input and the rules
// dataset: starting equipment comes from the background's race-keyed
// bucket (race substring match on the bucket key, else the first bucket),
// "N caps" entries become currency, and custom-background extras are
// merged. Derived stats are not computed here; the caller recomputes them
// before persisting.
//
// Precondition: id and ownerID must be non-empty.
// Postcondition: Returns a normalized character at full HP, or
// gamerr.ErrValidation when the name is empty.
func Build(id, ownerID string, in CreationInput, d *rules.Dataset) (*Character, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("character name required: %w", gamerr.ErrValidation)
	}

	level := in.Level
	if level < 1 {
		level = 1
	}
	perks := in.Perks
	if len(perks) > MaxPerks {
		perks = perks[:MaxPerks]
	}

	c := &Character{
		ID:         id,
		OwnerID:    ownerID,
		Name:       name,
		Race:       strings.TrimSpace(in.Race),
		Background: strings.TrimSpace(in.Background),
		Trait:      strings.TrimSpace(in.Trait),
		Special:    clampSpecial(in.Special, d.Special),
		Perks:      append([]string(nil), perks...),
		Level:      level,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	c.Normalize()

	applyStartingEquipment(c, d)
	applyCustomBackground(c, in.CustomBackground)

	// Initial HP from the base formula; the derived recompute will clamp
	// against the full equipment-aware maximum.
	maxHP := 10 + (c.Special.E - 5)
	if maxHP < 1 {
		maxHP = 1
	}
	c.MaxHP = maxHP
	c.HP = maxHP

	return c, nil
}

// applyStartingEquipment grants the background's starting gear and caps.
func applyStartingEquipment(c *Character, d *rules.Dataset) {
	bg, ok := d.FindBackground(c.Background)
	if !ok || len(bg.StartingEquipment) == 0 {
		return
	}

	bucket := ""
	race := strings.ToLower(c.Race)
	for _, key := range bg.EquipmentBuckets() {
		if strings.Contains(strings.ToLower(key), race) {
			bucket = key
			break
		}
	}
	if bucket == "" {
		buckets := bg.EquipmentBuckets()
		if len(buckets) == 0 {
			return
		}
		bucket = buckets[0]
	}

	for _, entry := range bg.StartingEquipment[bucket] {
		if capsWordRe.MatchString(entry) {
			if m := capsAmountRe.FindString(entry); m != "" {
				n, err := strconv.Atoi(m)
				if err == nil {
					c.Caps += n
				}
				continue
			}
		}
		c.Inventory = append(c.Inventory, entry)
	}
	if len(c.Inventory) > MaxInventory {
		c.Inventory = c.Inventory[:MaxInventory]
	}
}

// applyCustomBackground merges caller-supplied equipment and skill bonuses
// when the "Custom Background" option is chosen. Bonus entries beyond the
// cap are dropped in sorted-name order.
func applyCustomBackground(c *Character, custom *CustomBackground) {
	if custom == nil || !strings.EqualFold(c.Background, "custom background") {
		return
	}

	for _, item := range custom.Equipment {
		if len(c.Inventory) >= MaxInventory {
			break
		}
		item = strings.TrimSpace(item)
		if item != "" {
			c.Inventory = append(c.Inventory, item)
		}
	}

	if len(custom.SkillBonuses) > 0 {
		c.BackgroundSkillBonuses = make(map[string]int, len(custom.SkillBonuses))
		kept := 0
		for _, skill := range sortedBonusKeys(custom.SkillBonuses) {
			if kept >= MaxSkillBonuses {
				break
			}
			c.BackgroundSkillBonuses[skill] = custom.SkillBonuses[skill]
			kept++
		}
	}
}

func clampSpecial(s Special, bounds rules.SpecialRules) Special {
	clamp := func(v int) int {
		if v < bounds.Min {
			return bounds.Min
		}
		if bounds.Max > 0 && v > bounds.Max {
			return bounds.Max
		}
		return v
	}
	return Special{
		S: clamp(s.S), P: clamp(s.P), E: clamp(s.E), C: clamp(s.C),
		I: clamp(s.I), A: clamp(s.A), L: clamp(s.L),
	}
}

func sortedBonusKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
