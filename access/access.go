// Package access collects array accesses from statement subtrees.
//
// An array access is a subscript expression over an array, slice or
// pointer-to-array variable. Each access records its base variable, the
// index expression of its outermost subscript, the scalar variables the
// index references and the chain of scopes enclosing it. Accesses whose
// base or index cannot be reasoned about symbolically are marked
// invalid and dropped.
package access

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/nickng/goprefetch/expr"
	"github.com/nickng/goprefetch/goast"
)

// Kind is the direction of an array access.
type Kind int

const (
	Read  Kind = iota // Access loads from the array.
	Write             // Access stores to the array.
)

func (k Kind) String() string {
	if k == Write {
		return "write"
	}
	return "read"
}

// ArrayAccess is a single subscripted use of an array variable.
type ArrayAccess struct {
	kind      Kind
	node      ast.Expr       // the outermost subscript expression
	base      *types.Var     // the subscripted array variable
	index     ast.Expr       // index of the outermost subscript
	scope     *ScopeChain    // scopes enclosing the access, innermost first
	varsInIdx []*types.Var   // scalar variables the index references
	valid     bool
}

func newArrayAccess(e *ast.IndexExpr, kind Kind, scope *ScopeChain, tinfo *types.Info) *ArrayAccess {
	a := &ArrayAccess{
		kind:  kind,
		node:  e,
		index: e.Index,
		scope: scope,
		valid: true,
	}
	// Collapse the base chain of a multi-dimensional subscript down to
	// the subscripted variable.
	base := astutil.Unparen(e.X)
	for {
		ie, ok := base.(*ast.IndexExpr)
		if !ok {
			break
		}
		base = astutil.Unparen(ie.X)
	}
	id, ok := base.(*ast.Ident)
	if !ok {
		a.valid = false
		return a
	}
	v := goast.VarOf(tinfo, id)
	if v == nil || !goast.IndexableArray(v.Type()) {
		a.valid = false
		return a
	}
	a.base = v
	return a
}

// Kind returns the access direction.
func (a *ArrayAccess) Kind() Kind { return a.kind }

// Node returns the subscript expression the access was recorded from.
func (a *ArrayAccess) Node() ast.Expr { return a.node }

// Base returns the subscripted array variable.
func (a *ArrayAccess) Base() *types.Var { return a.base }

// Index returns the index expression of the outermost subscript.
func (a *ArrayAccess) Index() ast.Expr { return a.index }

// Scope returns the chain of scopes enclosing the access.
func (a *ArrayAccess) Scope() *ScopeChain { return a.scope }

// VarsInIndex returns the scalar variables the index references.
func (a *ArrayAccess) VarsInIndex() []*types.Var { return a.varsInIdx }

func (a *ArrayAccess) addVarInIdx(v *types.Var) {
	for _, u := range a.varsInIdx {
		if u == v {
			return
		}
	}
	a.varsInIdx = append(a.varsInIdx, v)
}

func (a *ArrayAccess) setInvalid() { a.valid = false }

func (a *ArrayAccess) String() string {
	var buf bytes.Buffer
	name := "?"
	if a.base != nil {
		name = a.base.Name()
	}
	fmt.Fprintf(&buf, "%s of %s[%s]", a.kind, name, expr.String(a.index))
	if !a.valid {
		buf.WriteString(" (invalid)")
	}
	return buf.String()
}

// side is which side of an assignment the traversal is on; subscripts
// met on the target side are writes.
type side int

const (
	sideValue side = iota
	sideTarget
)

// subSide is which part of a subscript the traversal is inside.
type subSide int

const (
	subNone  subSide = iota
	subBase          // base chain of the current subscript
	subIndex         // index of the current subscript
)

// Collector walks statements and records the array accesses they make.
//
// Three stacks track the traversal position: the assignment side
// classifies each subscript as read or write, the subscript side keeps
// base chains from being recorded as separate accesses, and the current
// access receives the variables referenced by the index under scan.
type Collector struct {
	tinfo  *types.Info
	ignore map[*types.Var]bool

	accesses []*ArrayAccess
	scope    *ScopeChain

	assign []side
	sub    []subSide
	cur    []*ArrayAccess
}

// NewCollector returns a Collector resolving identifiers through tinfo.
// Accesses to arrays in ignore are dropped.
func NewCollector(tinfo *types.Info, ignore map[*types.Var]bool) *Collector {
	if ignore == nil {
		ignore = make(map[*types.Var]bool)
	}
	return &Collector{
		tinfo:  tinfo,
		ignore: ignore,
		// Sentinel bottoms so the tops are always defined.
		assign: []side{sideValue},
		sub:    []subSide{subNone},
		cur:    []*ArrayAccess{nil},
	}
}

// Collect walks the statement s and returns the valid, deduplicated
// array accesses found in it.
func (c *Collector) Collect(s ast.Stmt) []*ArrayAccess {
	c.stmt(s)
	return c.prune()
}

func (c *Collector) pushSide(s side)       { c.assign = append(c.assign, s) }
func (c *Collector) popSide()              { c.assign = c.assign[:len(c.assign)-1] }
func (c *Collector) sideTop() side         { return c.assign[len(c.assign)-1] }
func (c *Collector) pushSub(s subSide)     { c.sub = append(c.sub, s) }
func (c *Collector) popSub()               { c.sub = c.sub[:len(c.sub)-1] }
func (c *Collector) subTop() subSide       { return c.sub[len(c.sub)-1] }
func (c *Collector) pushCur(a *ArrayAccess) { c.cur = append(c.cur, a) }
func (c *Collector) popCur()               { c.cur = c.cur[:len(c.cur)-1] }
func (c *Collector) curTop() *ArrayAccess  { return c.cur[len(c.cur)-1] }

// invalidateCurrent marks the access whose index is under scan invalid.
func (c *Collector) invalidateCurrent() {
	if a := c.curTop(); a != nil {
		a.setInvalid()
	}
}

func (c *Collector) stmt(s ast.Stmt) {
	if s == nil {
		return
	}
	if isScoping(s) {
		c.scope = c.scope.push(s)
		defer func() { c.scope = c.scope.Parent }()
	}
	switch s := s.(type) {
	case *ast.BlockStmt:
		for _, stmt := range s.List {
			c.stmt(stmt)
		}
	case *ast.AssignStmt:
		c.pushSide(sideTarget)
		for _, lhs := range s.Lhs {
			c.expr(lhs)
		}
		c.popSide()
		c.pushSide(sideValue)
		for _, rhs := range s.Rhs {
			c.expr(rhs)
		}
		c.popSide()
	case *ast.IncDecStmt:
		c.expr(s.X)
	case *ast.ExprStmt:
		c.expr(s.X)
	case *ast.SendStmt:
		c.expr(s.Chan)
		c.expr(s.Value)
	case *ast.ReturnStmt:
		for _, r := range s.Results {
			c.expr(r)
		}
	case *ast.DeclStmt:
		if gd, ok := s.Decl.(*ast.GenDecl); ok {
			for _, spec := range gd.Specs {
				if vs, ok := spec.(*ast.ValueSpec); ok {
					for _, v := range vs.Values {
						c.expr(v)
					}
				}
			}
		}
	case *ast.ForStmt:
		c.stmt(s.Init)
		c.expr(s.Cond)
		c.stmt(s.Post)
		c.stmt(s.Body)
	case *ast.RangeStmt:
		c.pushSide(sideTarget)
		c.expr(s.Key)
		c.expr(s.Value)
		c.popSide()
		c.expr(s.X)
		c.stmt(s.Body)
	case *ast.IfStmt:
		c.stmt(s.Init)
		c.expr(s.Cond)
		c.stmt(s.Body)
		c.stmt(s.Else)
	case *ast.SwitchStmt:
		c.stmt(s.Init)
		c.expr(s.Tag)
		c.stmt(s.Body)
	case *ast.TypeSwitchStmt:
		c.stmt(s.Init)
		c.stmt(s.Assign)
		c.stmt(s.Body)
	case *ast.CaseClause:
		for _, e := range s.List {
			c.expr(e)
		}
		for _, stmt := range s.Body {
			c.stmt(stmt)
		}
	case *ast.SelectStmt:
		c.stmt(s.Body)
	case *ast.CommClause:
		c.stmt(s.Comm)
		for _, stmt := range s.Body {
			c.stmt(stmt)
		}
	case *ast.LabeledStmt:
		c.stmt(s.Stmt)
	case *ast.GoStmt:
		c.expr(s.Call)
	case *ast.DeferStmt:
		c.expr(s.Call)
	}
}

func (c *Collector) expr(e ast.Expr) {
	if e == nil {
		return
	}
	switch e := e.(type) {
	case *ast.ParenExpr:
		c.expr(e.X)
	case *ast.Ident:
		c.ident(e)
	case *ast.IndexExpr:
		c.subscript(e)
	case *ast.BinaryExpr:
		c.expr(e.X)
		c.expr(e.Y)
	case *ast.UnaryExpr:
		c.expr(e.X)
	case *ast.StarExpr:
		c.expr(e.X)
	case *ast.SelectorExpr:
		c.expr(e.X)
	case *ast.BasicLit:
		// No accesses in literals.
	case *ast.CompositeLit:
		for _, elt := range e.Elts {
			c.expr(elt)
		}
	case *ast.KeyValueExpr:
		c.expr(e.Value)
	case *ast.TypeAssertExpr:
		c.expr(e.X)
	case *ast.CallExpr:
		// A call result inside an index cannot be expressed symbolically.
		c.invalidateCurrent()
		c.expr(e.Fun)
		c.pushSide(sideValue)
		for _, arg := range e.Args {
			c.expr(arg)
		}
		c.popSide()
	case *ast.SliceExpr:
		c.invalidateCurrent()
		c.expr(e.X)
		c.expr(e.Low)
		c.expr(e.High)
		c.expr(e.Max)
	case *ast.FuncLit:
		c.invalidateCurrent()
		c.stmt(e.Body)
	default:
		c.invalidateCurrent()
	}
}

// ident records identifiers met inside a subscript index as variables
// of the access under scan. Named constants are symbolic and keep the
// access valid; anything else that is not a variable invalidates it.
func (c *Collector) ident(id *ast.Ident) {
	if id.Name == "_" || c.subTop() != subIndex {
		return
	}
	a := c.curTop()
	if a == nil {
		return
	}
	switch o := c.tinfo.ObjectOf(id).(type) {
	case *types.Var:
		a.addVarInIdx(o)
	case *types.Const:
	default:
		a.setInvalid()
	}
}

func (c *Collector) subscript(e *ast.IndexExpr) {
	// Subscripts inside the base chain belong to the access already
	// being recorded: scan their parts without starting a new one.
	// Index operands are value context even on the target side of an
	// assignment, same as the outermost index below.
	if c.subTop() == subBase {
		c.pushSub(subBase)
		c.expr(e.X)
		c.popSub()
		c.pushSub(subIndex)
		c.pushSide(sideValue)
		c.expr(e.Index)
		c.popSide()
		c.popSub()
		return
	}
	kind := Read
	if c.sideTop() == sideTarget {
		kind = Write
	}
	a := newArrayAccess(e, kind, c.scope, c.tinfo)
	c.accesses = append(c.accesses, a)

	c.pushCur(a)
	c.pushSub(subBase)
	c.expr(e.X)
	c.popSub()
	c.pushSub(subIndex)
	c.pushSide(sideValue)
	c.expr(e.Index)
	c.popSide()
	c.popSub()
	c.popCur()
}

// prune drops invalid and ignored accesses and deduplicates the rest on
// base and index. A later write to the same element raises an earlier
// read so the surviving access carries the stronger kind.
func (c *Collector) prune() []*ArrayAccess {
	var kept []*ArrayAccess
next:
	for _, a := range c.accesses {
		if !a.valid || c.ignore[a.base] {
			continue
		}
		for _, k := range kept {
			if k.base == a.base && expr.Equal(k.index, a.index) {
				if a.kind == Write && k.kind == Read {
					k.kind = Write
				}
				continue next
			}
		}
		kept = append(kept, a)
	}
	return kept
}
