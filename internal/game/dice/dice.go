// Package dice provides the randomness abstraction, expression parsing, and
// roll-result types shared by the table-wide dice channel, loot generation,
// crafting checks, and combat resolution.
package dice

import "fmt"

// RollResult holds the full audit trail for a single dice roll evaluation.
//
// Postcondition: Total() == sum(Kept) + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "2d6+3"
	Sides      int    // faces per die
	Rolls      []int  // every die result, in roll order
	Kept       []int  // the results that count toward the total (all of Rolls unless a keep suffix applied)
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of the kept die results plus the modifier.
//
// Postcondition: return value == sum(r.Kept) + r.Modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Kept {
		total += d
	}
	return total
}

// NaturalMax reports whether the roll was a single die landing on its highest
// face, e.g. a natural 20 on a d20.
func (r RollResult) NaturalMax() bool {
	return len(r.Rolls) == 1 && r.Rolls[0] == r.Sides
}

// NaturalMin reports whether the roll was a single die landing on 1.
func (r RollResult) NaturalMin() bool {
	return len(r.Rolls) == 1 && r.Rolls[0] == 1
}

// String returns a human-readable audit string in the format:
//
//	"2d6+3 → [4 5] +3 = 12"
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	diceStr := fmt.Sprintf("%v", r.Kept)
	modStr := fmt.Sprintf("%+d", r.Modifier)
	return fmt.Sprintf("%s → %s %s = %d", r.Expression, diceStr, modStr, r.Total())
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
