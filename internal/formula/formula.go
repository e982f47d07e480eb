// Package formula evaluates the small numeric expressions that rules
// content uses for ability-score and skill-base formulas, e.g.
// "max(P - 5, I - 5) + (L - 5)".
//
// Expressions run inside a restricted GopherLua state: no standard
// libraries, only the max/min/floor/ceil/abs helpers and the caller's
// variable bindings, with a hard opcode limit. Formulas come from trusted
// rules content only; character data is never spliced into an expression,
// only bound as numeric variables.
package formula

import (
	"context"
	"math"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// instructionLimit caps the Lua opcodes per evaluation. Rules formulas are
// a handful of arithmetic ops; the limit only guards against pathological
// content.
const instructionLimit = 10_000

// Eval evaluates expr with the given variable bindings and returns the
// numeric result. Malformed expressions, runtime failures, and non-numeric
// results all degrade to 0; Eval never returns an error to the caller.
//
// Precondition: vars keys must be valid Lua identifiers (single letters in
// practice: the SPECIAL bindings S, P, E, C, I, A, L).
func Eval(expr string, vars map[string]float64) float64 {
	if expr == "" {
		return 0
	}

	L := newRestrictedState()
	defer L.Close()

	for name, value := range vars {
		L.SetGlobal(name, lua.LNumber(value))
	}

	if err := L.DoString("return (" + expr + ")"); err != nil {
		return 0
	}

	ret := L.Get(-1)
	n, ok := ret.(lua.LNumber)
	if !ok {
		return 0
	}
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// EvalInt evaluates expr and floors the result, matching skill-bonus
// semantics.
func EvalInt(expr string, vars map[string]float64) int {
	return int(math.Floor(Eval(expr, vars)))
}

// newRestrictedState creates a Lua state with no standard libraries, only
// the arithmetic helper globals, limited to instructionLimit opcodes.
func newRestrictedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	L.SetGlobal("max", L.NewFunction(variadic(math.Max)))
	L.SetGlobal("min", L.NewFunction(variadic(math.Min)))
	L.SetGlobal("floor", L.NewFunction(unary(math.Floor)))
	L.SetGlobal("ceil", L.NewFunction(unary(math.Ceil)))
	L.SetGlobal("abs", L.NewFunction(unary(math.Abs)))

	ctx, _ := newCountingContext(instructionLimit)
	L.SetContext(ctx)
	return L
}

// variadic adapts a binary float fold (max/min) into a Lua function taking
// one or more numeric arguments.
func variadic(fold func(a, b float64) float64) lua.LGFunction {
	return func(L *lua.LState) int {
		n := L.GetTop()
		if n == 0 {
			L.Push(lua.LNumber(0))
			return 1
		}
		acc := float64(L.CheckNumber(1))
		for i := 2; i <= n; i++ {
			acc = fold(acc, float64(L.CheckNumber(i)))
		}
		L.Push(lua.LNumber(acc))
		return 1
	}
}

func unary(fn func(float64) float64) lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(lua.LNumber(fn(float64(L.CheckNumber(1)))))
		return 1
	}
}

// countingContext cancels itself after Done() has been called limit times.
// GopherLua's main loop calls Done() once per opcode, making this an exact
// instruction-count limit.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

// Done returns the underlying cancellation channel. Each call decrements
// the remaining counter; at zero the cancel fires and the VM terminates on
// the next opcode boundary.
func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

// newCountingContext returns a context that cancels after limit calls to
// Done().
// Precondition: limit > 0.
func newCountingContext(limit int) (context.Context, context.CancelFunc) {
	base, cancel := context.WithCancel(context.Background())
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &countingContext{Context: base, cancel: cancel, remaining: rem}, cancel
}
