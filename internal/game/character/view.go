package character

import (
	"github.com/ashfall-games/wasteland/internal/formula"
	"github.com/ashfall-games/wasteland/internal/rules"
)

// Redacted is the stub view of a character shown to non-owning,
// non-DM players. No attributes, inventory, or derived stats leak.
type Redacted struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	OwnerName string `json:"ownerName,omitempty"`
}

// Redact returns the stub view for the character.
func Redact(c *Character) Redacted {
	return Redacted{
		ID:        c.ID,
		Name:      c.Name,
		OwnerID:   c.OwnerID,
		OwnerName: c.OwnerName,
	}
}

// SkillBonus computes the character's total bonus for the named skill:
// the floored skill base formula over SPECIAL, plus allocated skill
// points, plus any background skill bonus. Unknown skills yield 0.
func (c *Character) SkillBonus(d *rules.Dataset, skillName string) int {
	skill, ok := d.FindSkill(skillName)
	if !ok {
		return 0
	}
	base := formula.EvalInt(skill.BaseFormula, c.Special.Vars())
	return base + c.SkillPoints[skill.Name] + c.BackgroundSkillBonuses[skill.Name]
}
