package derived

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ashfall-games/wasteland/internal/game/character"
	"github.com/ashfall-games/wasteland/internal/rules"
)

// Effect texts are natural-language rules prose; this pass interprets a
// small closed catalog of patterns against it. Matching perks apply
// cumulatively in perk-list order; duplicated perks apply twice. The
// pattern catalog is frozen; extending the rules language belongs in
// content, not here.
var (
	carryLoadRe   = regexp.MustCompile(`(?i)carry\s*load\s*increases\s*by\s*(\d+)`)
	armorClassRe  = regexp.MustCompile(`(?i)ac\s*(?:is\s*)?(increased|decreased|reduced)\s*by\s*(\d+)`)
	damageThresRe = regexp.MustCompile(`(?i)dt\s*(?:is\s*)?(increased|decreased|reduced)\s*by\s*(\d+)`)
	radiationRe   = regexp.MustCompile(`(?i)radiation\s*dc\s*(?:is\s*)?(increased|decreased|reduced)\s*by\s*(\d+)`)
	strengthRe    = regexp.MustCompile(`(?i)strength\s*score\s*increases\s*by\s*(\d+)`)
)

// applyEffectTexts scans the active trait and every perk for recognized
// effect patterns and applies the numeric adjustments to the snapshot.
func applyEffectTexts(out *character.Derived, c *character.Character, d *rules.Dataset) {
	if c.Trait != "" {
		if trait, ok := d.FindTrait(c.Trait); ok {
			applyEffectText(out, trait.Text)
			if rules.IsWildVariant(c.Trait) && trait.WildWasteland != "" {
				applyEffectText(out, trait.WildWasteland)
			}
		}
	}
	for _, perkName := range c.Perks {
		if perk, ok := d.FindPerk(perkName); ok {
			applyEffectText(out, perk.Text)
		}
	}
}

// applyEffectText applies every recognized pattern found in one effect
// description. A "strength score increases by N" effect adds 10*N carry
// capacity, mirroring the carryMax formula.
func applyEffectText(out *character.Derived, text string) {
	if text == "" {
		return
	}

	if m := carryLoadRe.FindStringSubmatch(text); m != nil {
		out.CarryMax += float64(atoi(m[1]))
	}
	if m := armorClassRe.FindStringSubmatch(text); m != nil {
		if isIncrease(m[1]) {
			out.ArmorClass += atoi(m[2])
		} else {
			out.ArmorClass -= atoi(m[2])
		}
	}
	if m := damageThresRe.FindStringSubmatch(text); m != nil {
		if isIncrease(m[1]) {
			out.DamageThreshold += atoi(m[2])
		} else {
			out.DamageThreshold -= atoi(m[2])
		}
	}
	if m := radiationRe.FindStringSubmatch(text); m != nil {
		if isIncrease(m[1]) {
			out.RadiationDC += atoi(m[2])
		} else {
			out.RadiationDC -= atoi(m[2])
			if out.RadiationDC < 0 {
				out.RadiationDC = 0
			}
		}
	}
	if m := strengthRe.FindStringSubmatch(text); m != nil {
		out.CarryMax += 10 * float64(atoi(m[1]))
	}
}

func isIncrease(verb string) bool {
	return strings.EqualFold(verb, "increased")
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
