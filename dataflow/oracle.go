// Package dataflow approximates the values a variable may hold at a
// use site inside an analysed statement.
//
// The analyses consuming this package treat a result of exactly one
// expression as resolvable and substitute it; zero or more than one
// expression means the variable is unresolved and the use is skipped.
// Implementations must therefore never guess: returning every value a
// variable may hold is always safe, returning fewer is not.
package dataflow

import (
	"go/ast"
	"go/token"
	"go/types"

	"github.com/nickng/goprefetch/expr"
	"github.com/nickng/goprefetch/goast"
)

// Oracle reports the possible values of a variable at a use site.
type Oracle interface {
	// PossibleValues returns the expressions variable v may evaluate to
	// at the use site. Exactly one expression means v is resolvable
	// there.
	PossibleValues(v *types.Var, at ast.Node) []ast.Expr
}

// SimpleOracle is a conservative, flow-insensitive Oracle.
//
// It records every definition of a variable inside the statement under
// analysis. A variable defined exactly once resolves to its defining
// expression; a variable never defined inside the statement is
// invariant there and resolves to itself; anything else is unresolved.
// The use site is ignored: a definition anywhere in the statement
// counts as reaching every use.
type SimpleOracle struct {
	tinfo *types.Info
	defs  map[*types.Var][]ast.Expr
	uses  map[*types.Var]*ast.Ident // first reference, for identity results
	taint map[*types.Var]bool      // defined in a form we cannot express
}

// NewSimpleOracle returns a SimpleOracle for the statement subtree at
// root.
func NewSimpleOracle(root ast.Node, tinfo *types.Info) *SimpleOracle {
	o := &SimpleOracle{
		tinfo: tinfo,
		defs:  make(map[*types.Var][]ast.Expr),
		uses:  make(map[*types.Var]*ast.Ident),
		taint: make(map[*types.Var]bool),
	}
	if root != nil {
		o.scan(root)
	}
	return o
}

// PossibleValues implements Oracle.
func (o *SimpleOracle) PossibleValues(v *types.Var, at ast.Node) []ast.Expr {
	if v == nil || o.taint[v] {
		return nil
	}
	if defs := o.defs[v]; len(defs) > 0 {
		out := make([]ast.Expr, len(defs))
		copy(out, defs)
		return out
	}
	// Never defined inside the analysed statement: the variable is
	// invariant there and resolves to itself.
	if use, ok := o.uses[v]; ok {
		return []ast.Expr{use}
	}
	return nil
}

func (o *SimpleOracle) scan(root ast.Node) {
	ast.Inspect(root, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Ident:
			if v := goast.VarOf(o.tinfo, n); v != nil {
				if _, ok := o.uses[v]; !ok {
					o.uses[v] = n
				}
			}
		case *ast.AssignStmt:
			o.scanAssign(n)
		case *ast.IncDecStmt:
			if v := goast.ScalarIntVar(o.tinfo, goast.Ident(n.X)); v != nil {
				op := token.ADD
				if n.Tok == token.DEC {
					op = token.SUB
				}
				o.addDef(v, &ast.BinaryExpr{
					X:  goast.Ident(n.X),
					Op: op,
					Y:  &ast.BasicLit{Kind: token.INT, Value: "1"},
				})
			}
		case *ast.RangeStmt:
			// Range clause values cannot be expressed symbolically.
			for _, lhs := range []ast.Expr{n.Key, n.Value} {
				if v := goast.VarOf(o.tinfo, goast.Ident(lhs)); v != nil {
					o.taint[v] = true
				}
			}
		}
		return true
	})
}

func (o *SimpleOracle) scanAssign(a *ast.AssignStmt) {
	switch a.Tok {
	case token.ASSIGN, token.DEFINE:
		if len(a.Lhs) != len(a.Rhs) {
			// Multi-value form; values cannot be attributed.
			for _, lhs := range a.Lhs {
				if v := goast.VarOf(o.tinfo, goast.Ident(lhs)); v != nil {
					o.taint[v] = true
				}
			}
			return
		}
		for i, lhs := range a.Lhs {
			if v := goast.VarOf(o.tinfo, goast.Ident(lhs)); v != nil {
				o.addDef(v, a.Rhs[i])
			}
		}
	default:
		// Compound assignment defines the variable in terms of itself.
		if len(a.Lhs) != 1 || len(a.Rhs) != 1 {
			return
		}
		id := goast.Ident(a.Lhs[0])
		v := goast.VarOf(o.tinfo, id)
		if v == nil {
			return
		}
		op, ok := compoundOp(a.Tok)
		if !ok {
			o.taint[v] = true
			return
		}
		o.addDef(v, &ast.BinaryExpr{X: id, Op: op, Y: a.Rhs[0]})
	}
}

// addDef records a defining expression for v, dropping syntactic
// duplicates so re-assignment of the same value stays resolvable.
func (o *SimpleOracle) addDef(v *types.Var, e ast.Expr) {
	for _, d := range o.defs[v] {
		if expr.Equal(d, e) {
			return
		}
	}
	o.defs[v] = append(o.defs[v], e)
}

// compoundOp strips the assignment from a compound assignment operator.
func compoundOp(tok token.Token) (token.Token, bool) {
	switch tok {
	case token.ADD_ASSIGN:
		return token.ADD, true
	case token.SUB_ASSIGN:
		return token.SUB, true
	case token.MUL_ASSIGN:
		return token.MUL, true
	case token.QUO_ASSIGN:
		return token.QUO, true
	case token.REM_ASSIGN:
		return token.REM, true
	case token.SHL_ASSIGN:
		return token.SHL, true
	case token.SHR_ASSIGN:
		return token.SHR, true
	case token.AND_ASSIGN:
		return token.AND, true
	case token.OR_ASSIGN:
		return token.OR, true
	case token.XOR_ASSIGN:
		return token.XOR, true
	case token.AND_NOT_ASSIGN:
		return token.AND_NOT, true
	}
	return token.ILLEGAL, false
}
