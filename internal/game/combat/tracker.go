// Package combat tracks the table's enemy roster and initiative order and
// resolves attacks in both directions.
package combat

import (
	"fmt"
	"sync"
)

const (
	// MaxEnemies bounds the shared enemy roster.
	MaxEnemies = 50
	// MaxInitiative bounds the initiative order.
	MaxInitiative = 100
)

// Enemy is one entry in the shared roster. HP stays in [0, MaxHP].
type Enemy struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	HP    int    `json:"hp"`
	MaxHP int    `json:"maxHp"`
}

// Tracker holds the table-wide combat state. Safe for concurrent use.
type Tracker struct {
	mu         sync.RWMutex
	enemies    []Enemy
	initiative []string
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// SetEnemies replaces the roster. Input is truncated to MaxEnemies; entries
// without an id get a positional "e-N" id; HP defaults to 1 and MaxHP falls
// back to HP. Returns the normalized snapshot.
func (t *Tracker) SetEnemies(in []Enemy) []Enemy {
	if len(in) > MaxEnemies {
		in = in[:MaxEnemies]
	}
	enemies := make([]Enemy, len(in))
	for i, e := range in {
		if e.ID == "" {
			e.ID = fmt.Sprintf("e-%d", i)
		}
		if e.HP < 1 {
			e.HP = 1
		}
		if e.MaxHP < 1 {
			e.MaxHP = e.HP
		}
		enemies[i] = e
	}

	t.mu.Lock()
	t.enemies = enemies
	t.mu.Unlock()
	return t.Enemies()
}

// Enemies returns a snapshot of the roster.
func (t *Tracker) Enemies() []Enemy {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Enemy, len(t.enemies))
	copy(out, t.enemies)
	return out
}

// SetInitiative replaces the initiative order, truncated to MaxInitiative.
// Returns the stored snapshot.
func (t *Tracker) SetInitiative(order []string) []string {
	if order == nil {
		order = []string{}
	}
	if len(order) > MaxInitiative {
		order = order[:MaxInitiative]
	}
	stored := make([]string, len(order))
	copy(stored, order)

	t.mu.Lock()
	t.initiative = stored
	t.mu.Unlock()
	return t.Initiative()
}

// Initiative returns a snapshot of the order.
func (t *Tracker) Initiative() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.initiative))
	copy(out, t.initiative)
	return out
}

// damageEnemy applies dealt damage to the identified enemy, flooring HP at
// zero. Returns the updated enemy and whether it was found.
func (t *Tracker) damageEnemy(id string, dealt int) (Enemy, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.enemies {
		if t.enemies[i].ID == id {
			t.enemies[i].HP = max(0, t.enemies[i].HP-dealt)
			return t.enemies[i], true
		}
	}
	return Enemy{}, false
}

// Enemy returns the identified enemy without mutating it.
func (t *Tracker) Enemy(id string) (Enemy, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, e := range t.enemies {
		if e.ID == id {
			return e, true
		}
	}
	return Enemy{}, false
}
