package expr

import (
	"go/ast"
	"go/token"
	"go/types"
	"strconv"

	"golang.org/x/tools/go/ast/astutil"
)

// Adjustment is the interval-direction correction applied when a raw
// comparison operand is converted into a precise inclusive bound.
type Adjustment int

const (
	AdjustNone Adjustment = iota // Bound is already inclusive.
	AdjustUp                     // Bound is exclusive from below: add one.
	AdjustDown                   // Bound is exclusive from above: subtract one.
)

// Rewriter clones expressions while substituting variable references
// and applying interval-direction adjustments.
type Rewriter interface {
	// AdjustBound clones e and applies the interval correction adj,
	// folding integer literals where possible. Returns nil if e cannot
	// be cloned.
	AdjustBound(e ast.Expr, adj Adjustment) ast.Expr

	// Substitute structurally clones e, replacing every variable
	// reference found in repl. Returns false if any variable reference
	// inside e has no entry in repl.
	//
	// Replacement expressions are substituted recursively with the
	// replaced variable masked out, so no mapped variable survives in
	// the result. An identity entry (a variable mapped to a reference
	// to itself) terminates the recursion for that variable.
	Substitute(e ast.Expr, repl map[*types.Var]ast.Expr) (ast.Expr, bool)

	// VarsIn returns the variables referenced by e, including those in
	// trees the rewriter synthesised itself.
	VarsIn(e ast.Expr) []*types.Var
}

// Builder is the default Rewriter over type-checked syntax trees.
//
// Identifiers in synthesised trees are not known to the type checker;
// the Builder keeps a side table binding every identifier it creates to
// the object of the identifier it was cloned from, so rewritten trees
// stay resolvable by later rewrites of the same Builder.
type Builder struct {
	tinfo *types.Info
	objs  map[*ast.Ident]types.Object // bindings for synthesised idents
}

// NewBuilder returns a new Builder resolving identifiers through tinfo.
func NewBuilder(tinfo *types.Info) *Builder {
	return &Builder{
		tinfo: tinfo,
		objs:  make(map[*ast.Ident]types.Object),
	}
}

// objOf resolves an identifier to its object, checking the
// synthesised-ident bindings before the type checker's tables.
func (b *Builder) objOf(id *ast.Ident) types.Object {
	if o, ok := b.objs[id]; ok {
		return o
	}
	if b.tinfo != nil {
		return b.tinfo.ObjectOf(id)
	}
	return nil
}

// VarOf resolves an identifier to its variable object, or nil if the
// identifier does not name a variable.
func (b *Builder) VarOf(id *ast.Ident) *types.Var {
	v, _ := b.objOf(id).(*types.Var)
	return v
}

// clone deep-copies the supported expression kinds, carrying identifier
// bindings over to the copies. Unsupported kinds clone as nil.
func (b *Builder) clone(e ast.Expr) ast.Expr {
	switch e := e.(type) {
	case *ast.Ident:
		id := ast.NewIdent(e.Name)
		if o := b.objOf(e); o != nil {
			b.objs[id] = o
		}
		return id
	case *ast.BasicLit:
		return &ast.BasicLit{Kind: e.Kind, Value: e.Value}
	case *ast.ParenExpr:
		x := b.clone(e.X)
		if x == nil {
			return nil
		}
		return &ast.ParenExpr{X: x}
	case *ast.UnaryExpr:
		x := b.clone(e.X)
		if x == nil {
			return nil
		}
		return &ast.UnaryExpr{Op: e.Op, X: x}
	case *ast.BinaryExpr:
		x, y := b.clone(e.X), b.clone(e.Y)
		if x == nil || y == nil {
			return nil
		}
		return &ast.BinaryExpr{X: x, Op: e.Op, Y: y}
	case *ast.IndexExpr:
		x, idx := b.clone(e.X), b.clone(e.Index)
		if x == nil || idx == nil {
			return nil
		}
		return &ast.IndexExpr{X: x, Index: idx}
	case *ast.SelectorExpr:
		x := b.clone(e.X)
		if x == nil {
			return nil
		}
		sel := ast.NewIdent(e.Sel.Name)
		if o := b.objOf(e.Sel); o != nil {
			b.objs[sel] = o
		}
		return &ast.SelectorExpr{X: x, Sel: sel}
	}
	return nil
}

// AdjustBound clones e and applies the interval correction adj.
// Integer literals are folded; other expressions gain a ±1 term.
func (b *Builder) AdjustBound(e ast.Expr, adj Adjustment) ast.Expr {
	if e == nil {
		return nil
	}
	out := b.clone(astutil.Unparen(e))
	if out == nil || adj == AdjustNone {
		return out
	}
	if lit, ok := out.(*ast.BasicLit); ok && lit.Kind == token.INT {
		if v, err := strconv.ParseInt(lit.Value, 0, 64); err == nil {
			if adj == AdjustUp {
				v++
			} else {
				v--
			}
			if v < 0 {
				return &ast.UnaryExpr{
					Op: token.SUB,
					X:  &ast.BasicLit{Kind: token.INT, Value: strconv.FormatInt(-v, 10)},
				}
			}
			return &ast.BasicLit{Kind: token.INT, Value: strconv.FormatInt(v, 10)}
		}
	}
	op := token.ADD
	if adj == AdjustDown {
		op = token.SUB
	}
	return &ast.BinaryExpr{
		X:  out,
		Op: op,
		Y:  &ast.BasicLit{Kind: token.INT, Value: "1"},
	}
}

// Substitute structurally clones e, replacing every variable reference
// found in repl. See Rewriter.
func (b *Builder) Substitute(e ast.Expr, repl map[*types.Var]ast.Expr) (ast.Expr, bool) {
	return b.subst(e, repl)
}

// VarsIn returns the variables referenced by e. Identifiers are
// resolved through the builder's own bindings first, so variables in
// synthesised trees are found too.
func (b *Builder) VarsIn(e ast.Expr) []*types.Var {
	var vars []*types.Var
	if e == nil {
		return nil
	}
	ast.Inspect(e, func(n ast.Node) bool {
		id, ok := n.(*ast.Ident)
		if !ok {
			return true
		}
		if v := b.VarOf(id); v != nil {
			for _, u := range vars {
				if u == v {
					return true
				}
			}
			vars = append(vars, v)
		}
		return true
	})
	return vars
}

func (b *Builder) subst(e ast.Expr, repl map[*types.Var]ast.Expr) (ast.Expr, bool) {
	switch e := e.(type) {
	case *ast.Ident:
		switch o := b.objOf(e).(type) {
		case *types.Var:
			r, ok := repl[o]
			if !ok || r == nil {
				return nil, false
			}
			// An identity entry maps the variable to itself and stops
			// the recursion.
			if id, isIdent := astutil.Unparen(r).(*ast.Ident); isIdent && b.VarOf(id) == o {
				return b.clone(id), true
			}
			masked := make(map[*types.Var]ast.Expr, len(repl))
			for v, x := range repl {
				if v != o {
					masked[v] = x
				}
			}
			return b.subst(r, masked)
		case *types.Const:
			// Named constants are not variable references.
			return b.clone(e), true
		default:
			return nil, false
		}
	case *ast.BasicLit:
		return b.clone(e), true
	case *ast.ParenExpr:
		x, ok := b.subst(e.X, repl)
		if !ok {
			return nil, false
		}
		return &ast.ParenExpr{X: x}, true
	case *ast.UnaryExpr:
		x, ok := b.subst(e.X, repl)
		if !ok {
			return nil, false
		}
		return &ast.UnaryExpr{Op: e.Op, X: x}, true
	case *ast.BinaryExpr:
		x, okX := b.subst(e.X, repl)
		y, okY := b.subst(e.Y, repl)
		if !okX || !okY {
			return nil, false
		}
		return &ast.BinaryExpr{X: x, Op: e.Op, Y: y}, true
	case *ast.IndexExpr:
		x, okX := b.subst(e.X, repl)
		idx, okI := b.subst(e.Index, repl)
		if !okX || !okI {
			return nil, false
		}
		return &ast.IndexExpr{X: x, Index: idx}, true
	case *ast.SelectorExpr:
		// The selected name is a field, not a variable reference.
		x, ok := b.subst(e.X, repl)
		if !ok {
			return nil, false
		}
		sel := ast.NewIdent(e.Sel.Name)
		if o := b.objOf(e.Sel); o != nil {
			b.objs[sel] = o
		}
		return &ast.SelectorExpr{X: x, Sel: sel}, true
	}
	return nil, false
}
