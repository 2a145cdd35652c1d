package loop

import (
	"bytes"
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/nickng/goprefetch/expr"
	"github.com/nickng/goprefetch/goast"
)

// Nest is the tree of loops found in one analysed statement subtree,
// indexed by their for statements.
type Nest struct {
	loops map[*ast.ForStmt]*Info
	roots []*Info
}

// Build traverses the statement subtree at root and returns its loop
// nest. Induction variables are derived per loop from the header parts
// and pruned so each variable is owned by the innermost loop defining
// it. rw derives inclusive bound expressions from the header operands.
func Build(root ast.Node, tinfo *types.Info, rw expr.Rewriter) *Nest {
	b := &builder{
		tinfo: tinfo,
		rw:    rw,
		nest:  &Nest{loops: make(map[*ast.ForStmt]*Info)},
		stk:   NewStack(),
	}
	if root != nil {
		b.walk(root)
	}
	for _, r := range b.nest.roots {
		pruneIVs(r)
	}
	return b.nest
}

// At returns the Info of f, or nil if f is not in the nest.
func (n *Nest) At(f *ast.ForStmt) *Info {
	return n.loops[f]
}

// Roots returns the outermost loops of the nest.
func (n *Nest) Roots() []*Info {
	return n.roots
}

// Len returns the number of loops in the nest.
func (n *Nest) Len() int {
	return len(n.loops)
}

func (n *Nest) String() string {
	var buf bytes.Buffer
	var dump func(*Info)
	dump = func(i *Info) {
		buf.WriteString(i.String())
		buf.WriteString("\n")
		for _, c := range i.Children {
			dump(c)
		}
	}
	for _, r := range n.roots {
		dump(r)
	}
	return buf.String()
}

// builder constructs a Nest by walking a statement subtree, keeping the
// chain of loops enclosing the traversal position on a stack.
type builder struct {
	tinfo *types.Info
	rw    expr.Rewriter
	nest  *Nest
	stk   *Stack
}

// walk descends into n, entering each for statement it meets so nested
// loops end up below the loop that encloses them.
func (b *builder) walk(n ast.Node) {
	ast.Inspect(n, func(m ast.Node) bool {
		if f, ok := m.(*ast.ForStmt); ok {
			b.enter(f)
			return false
		}
		return true
	})
}

func (b *builder) enter(f *ast.ForStmt) {
	parent := b.stk.Top()
	level := 0
	if parent != nil {
		level = parent.Level + 1
	}
	info := newInfo(f, parent, level)
	if parent != nil {
		parent.Children = append(parent.Children, info)
	} else {
		b.nest.roots = append(b.nest.roots, info)
	}
	b.nest.loops[f] = info
	b.findIVs(info)

	b.stk.Push(info)
	if f.Init != nil {
		b.walk(f.Init)
	}
	if f.Cond != nil {
		b.walk(f.Cond)
	}
	if f.Post != nil {
		b.walk(f.Post)
	}
	b.walk(f.Body)
	b.stk.Pop()
}

// findIVs scans the three header parts of a loop independently and
// promotes every variable that is a candidate in all three to an
// induction variable of the loop.
func (b *builder) findIVs(i *Info) {
	inits := b.initCandidates(i.Loop.Init)
	if len(inits) == 0 {
		return
	}
	conds := b.condCandidates(i.Loop.Cond)
	if len(conds) == 0 {
		return
	}
	updates := b.updateCandidates(i.Loop.Post)
	for v, init := range inits {
		cond, ok := conds[v]
		if !ok {
			continue
		}
		update, ok := updates[v]
		if !ok {
			continue
		}
		i.addIV(newInductionVar(v, init, cond, update, b.rw))
	}
}

// initCandidates collects scalar integer variables assigned their
// initial value in a loop init statement.
func (b *builder) initCandidates(stmt ast.Stmt) map[*types.Var]candidate {
	cands := make(map[*types.Var]candidate)
	a, ok := stmt.(*ast.AssignStmt)
	if !ok || (a.Tok != token.ASSIGN && a.Tok != token.DEFINE) {
		return cands
	}
	if len(a.Lhs) != len(a.Rhs) {
		return cands
	}
	for i, lhs := range a.Lhs {
		v := goast.ScalarIntVar(b.tinfo, goast.Ident(lhs))
		if v == nil {
			continue
		}
		if _, seen := cands[v]; !seen {
			cands[v] = candidate{v: v, bound: a.Rhs[i], op: a.Tok, node: a}
		}
	}
	return cands
}

// condCandidates collects scalar integer variables compared against an
// operand in a loop condition, looking through && and || conjuncts.
func (b *builder) condCandidates(e ast.Expr) map[*types.Var]candidate {
	cands := make(map[*types.Var]candidate)
	if e != nil {
		b.condScan(e, cands)
	}
	return cands
}

func (b *builder) condScan(e ast.Expr, cands map[*types.Var]candidate) {
	be, ok := astutil.Unparen(e).(*ast.BinaryExpr)
	if !ok {
		return
	}
	switch be.Op {
	case token.LAND, token.LOR:
		b.condScan(be.X, cands)
		b.condScan(be.Y, cands)
	case token.LSS, token.GTR, token.LEQ, token.GEQ, token.EQL, token.NEQ:
		var c candidate
		if v := goast.ScalarIntVar(b.tinfo, goast.Ident(be.X)); v != nil {
			c = candidate{v: v, bound: be.Y, op: be.Op, node: be}
		} else if v := goast.ScalarIntVar(b.tinfo, goast.Ident(be.Y)); v != nil {
			c = candidate{v: v, bound: be.X, op: mirror(be.Op), node: be}
		} else {
			return
		}
		if _, seen := cands[c.v]; !seen {
			cands[c.v] = c
		}
	}
}

// mirror flips a comparison operator so the variable reads as the left
// operand.
func mirror(op token.Token) token.Token {
	switch op {
	case token.LSS:
		return token.GTR
	case token.GTR:
		return token.LSS
	case token.LEQ:
		return token.GEQ
	case token.GEQ:
		return token.LEQ
	}
	return op
}

// updateCandidates collects scalar integer variables stepped by a loop
// post statement. Only ++ and -- give a known direction; compound
// arithmetic assignments are candidates with an unknown direction.
func (b *builder) updateCandidates(stmt ast.Stmt) map[*types.Var]candidate {
	cands := make(map[*types.Var]candidate)
	switch s := stmt.(type) {
	case *ast.IncDecStmt:
		if v := goast.ScalarIntVar(b.tinfo, goast.Ident(s.X)); v != nil {
			dir := Increasing
			if s.Tok == token.DEC {
				dir = Decreasing
			}
			cands[v] = candidate{v: v, op: s.Tok, dir: dir, node: s}
		}
	case *ast.AssignStmt:
		if len(s.Lhs) != 1 || len(s.Rhs) != 1 || !isArithAssign(s.Tok) {
			return cands
		}
		if v := goast.ScalarIntVar(b.tinfo, goast.Ident(s.Lhs[0])); v != nil {
			cands[v] = candidate{v: v, bound: s.Rhs[0], op: s.Tok, dir: Unknown, node: s}
		}
	}
	return cands
}

func isArithAssign(tok token.Token) bool {
	switch tok {
	case token.ADD_ASSIGN, token.SUB_ASSIGN, token.MUL_ASSIGN,
		token.QUO_ASSIGN, token.REM_ASSIGN,
		token.SHL_ASSIGN, token.SHR_ASSIGN:
		return true
	}
	return false
}

// pruneIVs removes from each loop the induction variables owned by any
// loop nested inside it, so the innermost defining loop is the sole
// owner. Returns the variables owned by the subtree rooted at i.
func pruneIVs(i *Info) map[*types.Var]bool {
	owned := make(map[*types.Var]bool)
	for _, c := range i.Children {
		for v := range pruneIVs(c) {
			owned[v] = true
		}
	}
	for v := range owned {
		i.removeIV(v)
	}
	for v := range i.ivs {
		owned[v] = true
	}
	return owned
}
