package combat

import (
	"fmt"
	"math"
	"strings"

	"github.com/ashfall-games/wasteland/internal/game/character"
	"github.com/ashfall-games/wasteland/internal/game/dice"
	"github.com/ashfall-games/wasteland/internal/gamerr"
	"github.com/ashfall-games/wasteland/internal/rules"
)

// enemyBaseAC is the flat target number for attacks against enemies.
const enemyBaseAC = 10

// AttackResult describes a resolved attack for the table's dice feed.
type AttackResult struct {
	Hit   bool   `json:"hit"`
	ToHit int    `json:"toHit"`
	Dealt int    `json:"dealt"`
	Note  string `json:"note,omitempty"`
}

// AttackEnemy resolves a character's attack against an enemy on the tracker.
// The attack hits when toHit meets the flat enemy AC; damage is applied
// without mitigation and the enemy's HP floors at zero.
func (t *Tracker) AttackEnemy(enemyID string, toHit, damage int) (Enemy, AttackResult, error) {
	enemy, ok := t.Enemy(enemyID)
	if !ok {
		return Enemy{}, AttackResult{}, fmt.Errorf("enemy %q: %w", enemyID, gamerr.ErrNotFound)
	}
	if toHit < enemyBaseAC {
		return enemy, AttackResult{ToHit: toHit}, nil
	}
	dealt := max(0, damage)
	enemy, _ = t.damageEnemy(enemyID, dealt)
	return enemy, AttackResult{Hit: true, ToHit: toHit, Dealt: dealt}, nil
}

// AttackCharacter resolves an enemy's attack on a character: hit when toHit
// meets the defender's derived AC, damage reduced by damage threshold and
// floored at zero, HP clamped at zero. The caller holds the defender's lock.
func AttackCharacter(def *character.Character, toHit, damage int, location string) AttackResult {
	ac := defenderAC(def)
	if toHit < ac {
		return AttackResult{ToHit: toHit}
	}
	dt := def.Derived.DamageThreshold
	dealt := max(0, damage-dt)
	def.HP = max(0, def.HP-dealt)
	if location == "" {
		location = "Body"
	}
	return AttackResult{
		Hit:   true,
		ToHit: toHit,
		Dealt: dealt,
		Note:  fmt.Sprintf("Loc %s; DT %d", location, dt),
	}
}

// TargetedAttack resolves a character-on-character attack with an injury
// note. A hit dealing at least half the defender's max HP in raw damage is
// flagged as a severe injury; reaching zero HP flags dying.
func TargetedAttack(atk, def *character.Character, hitRoll, damage int, location string) AttackResult {
	ac := defenderAC(def)
	if hitRoll < ac {
		return AttackResult{ToHit: hitRoll, Note: fmt.Sprintf("Need %d+", ac)}
	}

	dt := def.Derived.DamageThreshold
	dealt := max(0, damage-dt)
	def.HP = max(0, def.HP-dealt)
	if location == "" {
		location = "body"
	}

	note := fmt.Sprintf("%s hits %s's %s for %d (DT %d) → %d/%d",
		atk.Name, def.Name, location, damage, dt, def.HP, def.MaxHP)
	if damage >= int(math.Ceil(float64(def.MaxHP)/2)) {
		note += "  Severe Injury!"
	}
	if def.HP == 0 {
		note += "  Dying!"
	}
	return AttackResult{Hit: true, ToHit: hitRoll, Dealt: dealt, Note: note}
}

func defenderAC(def *character.Character) int {
	if def.Derived.ArmorClass > 0 {
		return def.Derived.ArmorClass
	}
	return 10
}

// CheckResult is one participant's outcome in a group skill check.
type CheckResult struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Roll  int    `json:"roll"`
	Bonus int    `json:"bonus"`
	Total int    `json:"total"`
	Pass  bool   `json:"pass"`
}

// GroupSkillCheck rolls the named skill against dc for each character.
// Advantage keeps the higher of two d20s, disadvantage the lower. Breach
// checks let a positive Luck modifier reroll once and keep the better die.
//
// Precondition: d and src are non-nil; nil characters are skipped.
func GroupSkillCheck(chars []*character.Character, d *rules.Dataset, skill string, dc int, advantage, disadvantage bool, src dice.Source) []CheckResult {
	results := make([]CheckResult, 0, len(chars))
	for _, ch := range chars {
		if ch == nil {
			continue
		}
		bonus := ch.SkillBonus(d, skill)
		a := dice.RollDie(20, src)
		b := dice.RollDie(20, src)
		roll := a
		if advantage {
			roll = max(a, b)
		}
		if disadvantage {
			roll = min(a, b)
		}
		if strings.EqualFold(skill, "Breach") && ch.Special.L-5 > 0 {
			roll = max(roll, dice.RollDie(20, src))
		}
		results = append(results, CheckResult{
			ID:    ch.ID,
			Name:  ch.Name,
			Roll:  roll,
			Bonus: bonus,
			Total: roll + bonus,
			Pass:  roll+bonus >= dc,
		})
	}
	return results
}
