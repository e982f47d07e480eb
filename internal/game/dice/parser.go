package dice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// exprRe matches expressions like "d20", "2d6+3", "4d6kh3", "2d20kl1-2".
// Whitespace is stripped before matching.
var exprRe = regexp.MustCompile(`^(\d+)?d(\d+)(k[hl](\d+))?([+-]\d+)?$`)

// MaxDice bounds the dice count of a single expression so one roll request
// cannot allocate an arbitrarily large result.
const MaxDice = 1000

// KeepMode selects which dice count toward the total when a keep suffix is
// present.
type KeepMode int

const (
	KeepAll KeepMode = iota
	KeepHighest
	KeepLowest
)

// Expression represents a parsed dice expression ready to be rolled.
// Precondition: Count >= 1, Sides >= 2 after successful Parse.
type Expression struct {
	Raw      string // original input string
	Count    int    // number of dice
	Sides    int    // faces per die
	Modifier int    // flat modifier (may be negative)
	Keep     KeepMode
	KeepN    int // number of dice kept when Keep != KeepAll
}

// Parse parses a dice expression string into an Expression.
// Supported forms: "d20", "2d6", "2d6+3", "4d8-2", "4d6kh3", "2d20kl1".
// Expressions with more than MaxDice dice are rejected.
// Precondition: expr must be a non-empty string.
// Postcondition: Returns an Expression with Count >= 1 and Sides >= 2, or a
// descriptive error.
func Parse(expr string) (Expression, error) {
	raw := expr
	s := strings.ToLower(strings.Join(strings.Fields(expr), ""))
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}

	m := exprRe.FindStringSubmatch(s)
	if m == nil {
		return Expression{}, fmt.Errorf("dice: invalid expression %q", raw)
	}

	count := 1
	if m[1] != "" {
		count, _ = strconv.Atoi(m[1])
		if count < 1 {
			count = 1
		}
		if count > MaxDice {
			return Expression{}, fmt.Errorf("dice: too many dice in %q: max %d", raw, MaxDice)
		}
	}

	sides, _ := strconv.Atoi(m[2])
	if sides < 2 {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: must be >= 2", raw)
	}

	keep := KeepAll
	keepN := 0
	if m[3] != "" {
		if m[3][1] == 'h' {
			keep = KeepHighest
		} else {
			keep = KeepLowest
		}
		keepN, _ = strconv.Atoi(m[4])
		if keepN < 1 {
			keepN = 1
		}
		if keepN > count {
			keepN = count
		}
	}

	modifier := 0
	if m[5] != "" {
		modifier, _ = strconv.Atoi(m[5])
	}

	return Expression{
		Raw:      raw,
		Count:    count,
		Sides:    sides,
		Modifier: modifier,
		Keep:     keep,
		KeepN:    keepN,
	}, nil
}
