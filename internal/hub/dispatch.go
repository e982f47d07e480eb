package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ashfall-games/wasteland/internal/game/character"
	"github.com/ashfall-games/wasteland/internal/game/combat"
	"github.com/ashfall-games/wasteland/internal/game/dice"
	"github.com/ashfall-games/wasteland/internal/gamerr"
)

const dispatchTimeout = 10 * time.Second

// handler processes one inbound event's payload on behalf of a connection.
type handler func(ctx context.Context, c *Connection, data json.RawMessage) error

// dispatch decodes one raw frame and routes it by type. Handler errors are
// reported to the initiating connection only; they never disconnect it.
func (h *Hub) dispatch(c *Connection, raw []byte) {
	var evt struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &evt); err != nil {
		h.sendError(c, fmt.Errorf("malformed event: %w", gamerr.ErrValidation))
		return
	}

	fn, ok := h.handlers()[evt.Type]
	if !ok {
		h.sendError(c, fmt.Errorf("unknown event type %q: %w", evt.Type, gamerr.ErrValidation))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	if err := fn(ctx, c, evt.Data); err != nil {
		h.logger.Debug("event rejected",
			zap.String("type", evt.Type),
			zap.String("user", c.user.ID),
			zap.Error(err),
		)
		h.sendError(c, err)
	}
}

func (h *Hub) sendError(c *Connection, err error) {
	c.Send(Event{Type: "error", Data: map[string]any{
		"code":    gamerr.Code(err),
		"message": err.Error(),
	}})
}

func (h *Hub) handlers() map[string]handler {
	return map[string]handler{
		"characters:request":     h.onCharactersRequest,
		"shop:request":           h.onShopRequest,
		"character:update":       h.onCharacterUpdate,
		"character:drop":         h.onCharacterDrop,
		"character:useItem":      h.onCharacterUseItem,
		"character:equip":        h.onCharacterEquip,
		"character:spendSpecial": h.onCharacterSpendSpecial,
		"dice:roll":              h.onDiceRoll,
		"dm:applyXp":             h.onApplyXP,
		"dm:applyDamage":         h.onApplyDamage,
		"dm:giveCaps":            h.onGiveCaps,
		"dm:giveItem":            h.onGiveItem,
		"dm:setShopAccess":       h.onSetShopAccess,
		"dm:setConditions":       h.onSetConditions,
		"dm:setDeathSaves":       h.onSetDeathSaves,
		"dm:rollDice":            h.onDMRollDice,
		"dm:skillCheck":          h.onSkillCheck,
		"dm:lootRoll":            h.onLootRoll,
		"dm:lootRollAdvanced":    h.onLootRollAdvanced,
		"dm:enemiesSet":          h.onEnemiesSet,
		"dm:initiativeSet":       h.onInitiativeSet,
		"attack:enemy":           h.onAttackEnemy,
		"enemy:attack":           h.onEnemyAttack,
		"attack:targeted":        h.onAttackTargeted,
	}
}

func decode(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return fmt.Errorf("missing event data: %w", gamerr.ErrValidation)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("malformed event data: %w", gamerr.ErrValidation)
	}
	return nil
}

func (h *Hub) onCharactersRequest(ctx context.Context, c *Connection, _ json.RawMessage) error {
	return h.sendCharacterList(ctx, c)
}

func (h *Hub) onShopRequest(ctx context.Context, c *Connection, _ json.RawMessage) error {
	items, err := h.svc.ListShop(ctx)
	if err != nil {
		return err
	}
	c.Send(Event{Type: "shop:update", Data: map[string]any{"items": items}})
	return nil
}

func (h *Hub) onCharacterUpdate(ctx context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		ID    string          `json:"id"`
		Patch character.Patch `json:"patch"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	_, err := h.svc.PatchCharacter(ctx, c.user, req.ID, req.Patch)
	return err
}

func (h *Hub) onCharacterDrop(ctx context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		ID   string `json:"id"`
		Item string `json:"item"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	_, err := h.svc.DropItem(ctx, c.user, req.ID, req.Item)
	return err
}

func (h *Hub) onCharacterUseItem(ctx context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		ID   string `json:"id"`
		Item string `json:"item"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	_, err := h.svc.UseItem(ctx, c.user, req.ID, req.Item)
	return err
}

func (h *Hub) onCharacterEquip(ctx context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		ID   string `json:"id"`
		Item string `json:"item"`
		Slot string `json:"slot"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	_, err := h.svc.Equip(ctx, c.user, req.ID, req.Item, req.Slot)
	return err
}

func (h *Hub) onCharacterSpendSpecial(ctx context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		ID      string `json:"id"`
		Ability string `json:"ability"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	_, err := h.svc.SpendSpecial(ctx, c.user, req.ID, req.Ability)
	return err
}

// diceRolledPayload builds the table-visible record of an expression roll.
func diceRolledPayload(by string, r dice.RollResult, note string) map[string]any {
	data := map[string]any{
		"by":    by,
		"expr":  r.Expression,
		"total": r.Total(),
		"rolls": r.Rolls,
		"used":  r.Kept,
		"mod":   r.Modifier,
		"ts":    now(),
	}
	if note != "" {
		data["note"] = note
	}
	return data
}

func (h *Hub) onDiceRoll(_ context.Context, c *Connection, data json.RawMessage) error {
	req := struct {
		Expr     string `json:"expr"`
		IsPublic *bool  `json:"isPublic"`
		Note     string `json:"note"`
	}{}
	if err := decode(data, &req); err != nil {
		return err
	}
	result, err := h.svc.RollDice(req.Expr)
	if err != nil {
		return err
	}
	evt := Event{Type: "dice:rolled", Data: diceRolledPayload(c.user.Name, result, req.Note)}
	if req.IsPublic != nil && !*req.IsPublic {
		c.Send(evt)
		return nil
	}
	h.Broadcast(evt)
	return nil
}

func (h *Hub) onApplyXP(ctx context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		ID string `json:"id"`
		XP int    `json:"xp"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	_, err := h.svc.ApplyXP(ctx, c.user, req.ID, req.XP)
	return err
}

func (h *Hub) onApplyDamage(ctx context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		ID     string `json:"id"`
		Damage int    `json:"damage"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	_, err := h.svc.ApplyDamage(ctx, c.user, req.ID, req.Damage)
	return err
}

func (h *Hub) onGiveCaps(ctx context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		ID   string `json:"id"`
		Caps int    `json:"caps"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	_, err := h.svc.GiveCaps(ctx, c.user, req.ID, req.Caps)
	return err
}

func (h *Hub) onGiveItem(ctx context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		ID   string `json:"id"`
		Item string `json:"item"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	_, err := h.svc.GiveItem(ctx, c.user, req.ID, req.Item)
	return err
}

func (h *Hub) onSetShopAccess(ctx context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		ID    string `json:"id"`
		Allow bool   `json:"allow"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	_, err := h.svc.SetShopAccess(ctx, c.user, req.ID, req.Allow)
	return err
}

func (h *Hub) onSetConditions(ctx context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		ID         string   `json:"id"`
		Conditions []string `json:"conditions"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	_, err := h.svc.SetConditions(ctx, c.user, req.ID, req.Conditions)
	return err
}

func (h *Hub) onSetDeathSaves(ctx context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		ID        string `json:"id"`
		Successes int    `json:"successes"`
		Failures  int    `json:"failures"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	_, err := h.svc.SetDeathSaves(ctx, c.user, req.ID, req.Successes, req.Failures)
	return err
}

func (h *Hub) onDMRollDice(_ context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		Sides int       `json:"sides"`
		Mode  dice.Mode `json:"mode"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	roll, err := h.svc.RollDie(c.user, req.Sides, req.Mode)
	if err != nil {
		return err
	}
	h.Broadcast(Event{Type: "dice:rolled", Data: map[string]any{
		"by":     c.user.Name,
		"sides":  roll.Sides,
		"mode":   roll.Mode,
		"result": roll.Result,
		"ts":     now(),
	}})
	return nil
}

func (h *Hub) onSkillCheck(ctx context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		Skill        string   `json:"skill"`
		DC           int      `json:"dc"`
		CharacterIDs []string `json:"characterIds"`
		Advantage    bool     `json:"advantage"`
		Disadvantage bool     `json:"disadvantage"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	results, err := h.svc.SkillCheck(ctx, c.user, req.Skill, req.DC, req.CharacterIDs, req.Advantage, req.Disadvantage)
	if err != nil {
		return err
	}
	passed := 0
	rolls := make([]map[string]any, 0, len(results))
	for _, r := range results {
		if r.Pass {
			passed++
		}
		rolls = append(rolls, map[string]any{
			"name":  r.Name,
			"roll":  r.Roll,
			"bonus": r.Bonus,
			"total": r.Total,
			"pass":  r.Pass,
		})
	}
	h.Broadcast(Event{Type: "dice:rolled", Data: map[string]any{
		"by":    "DM " + c.user.Name,
		"expr":  fmt.Sprintf("%s vs DC %d", req.Skill, req.DC),
		"total": passed,
		"rolls": rolls,
		"ts":    now(),
	}})
	return nil
}

func (h *Hub) onLootRoll(ctx context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		CharacterID string `json:"characterId"`
		Tier        int    `json:"tier"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	drop, _, err := h.svc.LootRoll(ctx, c.user, req.CharacterID, req.Tier)
	if err != nil {
		return err
	}
	h.Broadcast(Event{Type: "loot:rolled", Data: drop})
	return nil
}

func (h *Hub) onLootRollAdvanced(ctx context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		CharacterID string   `json:"characterId"`
		Tier        int      `json:"tier"`
		Categories  []string `json:"categories"`
		Count       int      `json:"count"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	drop, _, err := h.svc.LootRollAdvanced(ctx, c.user, req.CharacterID, req.Tier, req.Categories, req.Count)
	if err != nil {
		return err
	}
	h.Broadcast(Event{Type: "loot:rolled", Data: drop})
	return nil
}

func (h *Hub) onEnemiesSet(_ context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		Enemies []combat.Enemy `json:"enemies"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	enemies, err := h.svc.SetEnemies(c.user, req.Enemies)
	if err != nil {
		return err
	}
	h.Broadcast(Event{Type: "dm:enemies", Data: map[string]any{"enemies": enemies}})
	return nil
}

func (h *Hub) onInitiativeSet(_ context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		Order []string `json:"order"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	order, err := h.svc.SetInitiative(c.user, req.Order)
	if err != nil {
		return err
	}
	h.Broadcast(Event{Type: "dm:initiative", Data: map[string]any{"order": order}})
	return nil
}

// combatRollEvent reports a resolved attack on the shared roll feed. Attacks
// reuse the dice:rolled shape so every client renders them with the ordinary
// roll log: the to-hit roll is the single entry in rolls, and the damage
// dealt is the total.
func combatRollEvent(by, expr string, total, toHit int, note string) Event {
	data := map[string]any{
		"by":    by,
		"expr":  expr,
		"total": total,
		"rolls": []int{toHit},
		"used":  []int{},
		"mod":   0,
		"ts":    now(),
	}
	if note != "" {
		data["note"] = note
	}
	return Event{Type: "dice:rolled", Data: data}
}

func (h *Hub) onAttackEnemy(ctx context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		AttackerID string `json:"attackerId"`
		EnemyID    string `json:"enemyId"`
		ToHit      int    `json:"toHit"`
		Damage     int    `json:"damage"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	enemy, res, attackerName, err := h.svc.AttackEnemy(ctx, c.user, req.AttackerID, req.EnemyID, req.ToHit, req.Damage)
	if err != nil {
		return err
	}
	expr, total := "Miss "+enemy.Name, 0
	if res.Hit {
		expr, total = "Hit "+enemy.Name, res.Dealt
	}
	h.Broadcast(combatRollEvent(attackerName, expr, total, res.ToHit, ""))
	h.Broadcast(Event{Type: "dm:enemies", Data: map[string]any{"enemies": h.svc.Tracker().Enemies()}})
	return nil
}

func (h *Hub) onEnemyAttack(ctx context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		EnemyID    string `json:"enemyId"`
		DefenderID string `json:"defenderId"`
		ToHit      int    `json:"toHit"`
		Damage     int    `json:"damage"`
		Location   string `json:"location"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	def, res, enemyName, err := h.svc.EnemyAttack(ctx, c.user, req.EnemyID, req.DefenderID, req.ToHit, req.Damage, req.Location)
	if err != nil {
		return err
	}
	expr, total := "Miss "+def.Name, 0
	if res.Hit {
		expr, total = "Hit "+def.Name, res.Dealt
	}
	h.Broadcast(combatRollEvent(enemyName, expr, total, res.ToHit, res.Note))
	return nil
}

func (h *Hub) onAttackTargeted(ctx context.Context, c *Connection, data json.RawMessage) error {
	var req struct {
		AttackerID string `json:"attackerId"`
		DefenderID string `json:"defenderId"`
		HitRoll    int    `json:"hitRoll"`
		Damage     int    `json:"damage"`
		Location   string `json:"location"`
	}
	if err := decode(data, &req); err != nil {
		return err
	}
	_, res, attackerName, err := h.svc.TargetedAttack(ctx, c.user, req.AttackerID, req.DefenderID, req.HitRoll, req.Damage, req.Location)
	if err != nil {
		return err
	}
	expr, total := "Targeted Attack (miss)", 0
	if res.Hit {
		expr, total = "Targeted Attack", req.Damage
	}
	h.Broadcast(combatRollEvent(attackerName, expr, total, res.ToHit, res.Note))
	return nil
}
