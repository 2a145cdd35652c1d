package loop

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"

	"github.com/nickng/goprefetch/expr"
)

// Direction is the update direction of an induction variable.
type Direction int

const (
	Unknown    Direction = iota // Update has an unknown effect, e.g. i += n.
	Increasing                  // Update takes the variable from lower to higher values.
	Decreasing                  // Update takes the variable from higher to lower values.
)

func (d Direction) String() string {
	switch d {
	case Increasing:
		return "increasing"
	case Decreasing:
		return "decreasing"
	}
	return "unknown"
}

// candidate is an induction variable candidate found in a single part
// of a loop header.
type candidate struct {
	v     *types.Var
	bound ast.Expr    // operand left after stripping the variable and operator
	op    token.Token // operator the variable was stripped from
	dir   Direction   // update direction, for update candidates only
	node  ast.Node    // header part the candidate came from
}

// InductionVariable is a loop header variable with a monotonic update
// and, when derivable, symbolic inclusive bounds.
type InductionVariable struct {
	Var    *types.Var
	Init   ast.Expr // initialiser expression assigned to the variable
	Cond   ast.Expr // comparison the variable appears in
	Update ast.Node // update statement

	Dir Direction

	// Inclusive bounds of the values the variable takes; nil when the
	// update direction is unknown or a bound cannot be derived.
	Lower, Upper ast.Expr
}

// newInductionVar combines the three header candidates of one variable.
// Bounds are assigned by update direction (increasing: lower from init,
// upper from condition; decreasing: the reverse) and passed through the
// rewriter's bound adjustment to make exclusive comparisons inclusive.
func newInductionVar(v *types.Var, init, cond, update candidate, rw expr.Rewriter) *InductionVariable {
	iv := &InductionVariable{
		Var:    v,
		Init:   init.bound,
		Cond:   cond.node.(ast.Expr),
		Update: update.node,
		Dir:    update.dir,
	}
	switch iv.Dir {
	case Increasing:
		iv.Lower = rw.AdjustBound(init.bound, expr.AdjustNone)
		iv.Upper = rw.AdjustBound(cond.bound, condAdjust(cond.op, iv.Dir))
	case Decreasing:
		iv.Lower = rw.AdjustBound(cond.bound, condAdjust(cond.op, iv.Dir))
		iv.Upper = rw.AdjustBound(init.bound, expr.AdjustNone)
	}
	if iv.Lower == nil || iv.Upper == nil {
		iv.Lower, iv.Upper = nil, nil
	}
	return iv
}

// condAdjust converts a comparison operator into the interval
// correction needed for an inclusive bound. Strict comparisons are
// exclusive; != excludes the final value in the update direction.
func condAdjust(op token.Token, dir Direction) expr.Adjustment {
	switch op {
	case token.LSS:
		return expr.AdjustDown
	case token.GTR:
		return expr.AdjustUp
	case token.NEQ:
		switch dir {
		case Increasing:
			return expr.AdjustDown
		case Decreasing:
			return expr.AdjustUp
		}
	}
	return expr.AdjustNone
}

func (iv *InductionVariable) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s (%s)", iv.Var.Name(), iv.Dir)
	if iv.Lower != nil && iv.Upper != nil {
		fmt.Fprintf(&buf, " ∈ [%s, %s]", expr.String(iv.Lower), expr.String(iv.Upper))
	} else {
		buf.WriteString(" (no bounds)")
	}
	return buf.String()
}
