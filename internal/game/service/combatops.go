package service

import (
	"context"
	"fmt"

	"github.com/ashfall-games/wasteland/internal/game/character"
	"github.com/ashfall-games/wasteland/internal/game/combat"
	"github.com/ashfall-games/wasteland/internal/game/dice"
	"github.com/ashfall-games/wasteland/internal/gamerr"
	"github.com/ashfall-games/wasteland/internal/session"
)

// RollDice evaluates a dice expression for any logged-in user.
func (g *GameService) RollDice(expr string) (dice.RollResult, error) {
	result, err := g.roller.RollExpr(expr)
	if err != nil {
		return dice.RollResult{}, fmt.Errorf("%v: %w", err, gamerr.ErrValidation)
	}
	return result, nil
}

// DieRoll is the outcome of a DM single-die roll with an advantage mode.
type DieRoll struct {
	Sides  int       `json:"sides"`
	Mode   dice.Mode `json:"mode"`
	Result int       `json:"result"`
}

// RollDie rolls one die from the allowed table set with the given mode.
// DM only.
func (g *GameService) RollDie(actor session.User, sides int, mode dice.Mode) (DieRoll, error) {
	if err := requireDM(actor); err != nil {
		return DieRoll{}, err
	}
	if !dice.SidesAllowed(sides) {
		return DieRoll{}, fmt.Errorf("d%d is not an allowed die: %w", sides, gamerr.ErrValidation)
	}
	if mode == "" {
		mode = dice.ModeNormal
	}
	return DieRoll{
		Sides:  sides,
		Mode:   mode,
		Result: dice.RollWithMode(sides, mode, g.roller.Source()),
	}, nil
}

// SkillCheck rolls a group skill check for the named characters. Characters
// that do not exist are skipped. DM only. Rolls are ephemeral: nothing is
// persisted.
func (g *GameService) SkillCheck(ctx context.Context, actor session.User, skill string, dc int, characterIDs []string, advantage, disadvantage bool) ([]combat.CheckResult, error) {
	if err := requireDM(actor); err != nil {
		return nil, err
	}
	chars := make([]*character.Character, 0, len(characterIDs))
	for _, id := range characterIDs {
		ch, err := g.chars.Get(ctx, id)
		if err != nil {
			continue
		}
		chars = append(chars, ch)
	}
	return combat.GroupSkillCheck(chars, g.rules, skill, dc, advantage, disadvantage, g.roller.Source()), nil
}

// SetEnemies replaces the shared enemy roster. DM only.
func (g *GameService) SetEnemies(actor session.User, enemies []combat.Enemy) ([]combat.Enemy, error) {
	if err := requireDM(actor); err != nil {
		return nil, err
	}
	return g.tracker.SetEnemies(enemies), nil
}

// SetInitiative replaces the initiative order. DM only.
func (g *GameService) SetInitiative(actor session.User, order []string) ([]string, error) {
	if err := requireDM(actor); err != nil {
		return nil, err
	}
	return g.tracker.SetInitiative(order), nil
}

// AttackEnemy resolves a character's attack on a roster enemy. Any logged-in
// user may attack with a character they control.
func (g *GameService) AttackEnemy(ctx context.Context, actor session.User, attackerID, enemyID string, toHit, damage int) (combat.Enemy, combat.AttackResult, string, error) {
	atk, err := g.chars.Get(ctx, attackerID)
	if err != nil {
		return combat.Enemy{}, combat.AttackResult{}, "", err
	}
	if !canActOn(atk, actor) {
		return combat.Enemy{}, combat.AttackResult{}, "", fmt.Errorf("not your character: %w", gamerr.ErrForbidden)
	}
	enemy, res, err := g.tracker.AttackEnemy(enemyID, toHit, damage)
	if err != nil {
		return combat.Enemy{}, combat.AttackResult{}, "", err
	}
	return enemy, res, atk.Name, nil
}

// EnemyAttack resolves a roster enemy's attack on a character. DM only.
func (g *GameService) EnemyAttack(ctx context.Context, actor session.User, enemyID, defenderID string, toHit, damage int, location string) (*character.Character, combat.AttackResult, string, error) {
	if err := requireDM(actor); err != nil {
		return nil, combat.AttackResult{}, "", err
	}
	enemy, ok := g.tracker.Enemy(enemyID)
	if !ok {
		return nil, combat.AttackResult{}, "", fmt.Errorf("enemy %q: %w", enemyID, gamerr.ErrNotFound)
	}

	var res combat.AttackResult
	def, err := g.withCharacter(ctx, defenderID, func(ch *character.Character) error {
		res = combat.AttackCharacter(ch, toHit, damage, location)
		return nil
	})
	if err != nil {
		return nil, combat.AttackResult{}, "", err
	}
	return def, res, enemy.Name, nil
}

// TargetedAttack resolves a character-on-character attack with injury notes.
// The actor must control the attacker.
func (g *GameService) TargetedAttack(ctx context.Context, actor session.User, attackerID, defenderID string, hitRoll, damage int, location string) (*character.Character, combat.AttackResult, string, error) {
	atk, err := g.chars.Get(ctx, attackerID)
	if err != nil {
		return nil, combat.AttackResult{}, "", err
	}
	if !canActOn(atk, actor) {
		return nil, combat.AttackResult{}, "", fmt.Errorf("not your character: %w", gamerr.ErrForbidden)
	}

	var res combat.AttackResult
	def, err := g.withCharacter(ctx, defenderID, func(ch *character.Character) error {
		res = combat.TargetedAttack(atk, ch, hitRoll, damage, location)
		return nil
	})
	if err != nil {
		return nil, combat.AttackResult{}, "", err
	}
	return def, res, atk.Name, nil
}
