package dice

import (
	"fmt"
	"sort"
)

// allowedSides are the die sizes the table's shared dice channel accepts.
var allowedSides = map[int]bool{
	4: true, 5: true, 6: true, 8: true, 10: true,
	12: true, 14: true, 15: true, 16: true, 18: true, 20: true,
}

// SidesAllowed reports whether sides is a die size the shared dice channel
// accepts.
func SidesAllowed(sides int) bool {
	return allowedSides[sides]
}

// Mode selects straight, advantage, or disadvantage rolling.
type Mode string

const (
	ModeNormal       Mode = "normal"
	ModeAdvantage    Mode = "adv"
	ModeDisadvantage Mode = "dis"
)

// Roll evaluates an Expression using the given Source and returns a RollResult.
//
// Precondition: expr must come from Parse (Count >= 1, Sides >= 2); src must be non-nil.
// Postcondition: len(result.Rolls) == expr.Count;
//
//	len(result.Kept) == expr.KeepN when expr.Keep != KeepAll, else expr.Count.
//	result.Total() == sum(result.Kept) + result.Modifier.
func Roll(expr Expression, src Source) (RollResult, error) {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}

	kept := rolled
	if expr.Keep != KeepAll {
		sorted := make([]int, len(rolled))
		copy(sorted, rolled)
		if expr.Keep == KeepHighest {
			sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
		} else {
			sort.Ints(sorted)
		}
		kept = sorted[:expr.KeepN]
	}

	return RollResult{
		Expression: expr.Raw,
		Sides:      expr.Sides,
		Rolls:      rolled,
		Kept:       kept,
		Modifier:   expr.Modifier,
	}, nil
}

// RollExpr parses expr and rolls it using src in a single call.
//
// Precondition: expr must be a valid dice expression string; src must be non-nil.
// Postcondition: Returns a RollResult or a parse/roll error.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src)
}

// RollDie rolls a single die.
//
// Precondition: sides >= 2; src must be non-nil.
// Postcondition: return value in [1, sides].
func RollDie(sides int, src Source) int {
	return src.Intn(sides) + 1
}

// RollWithMode rolls one die twice and keeps the higher (advantage), lower
// (disadvantage), or the first roll (normal).
//
// Precondition: sides >= 2; src must be non-nil.
// Postcondition: return value in [1, sides].
func RollWithMode(sides int, mode Mode, src Source) int {
	a := RollDie(sides, src)
	b := RollDie(sides, src)
	switch mode {
	case ModeAdvantage:
		return max(a, b)
	case ModeDisadvantage:
		return min(a, b)
	default:
		return a
	}
}

// MustParse parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic(fmt.Sprintf("dice: MustParse failed for expression %s: %v", expr, err))
	}
	return e
}
