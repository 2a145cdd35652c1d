package loop

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/types"
)

// Info is structural information about one counted loop: its place in
// the loop nest and the induction variables it owns.
//
// An Info owns its children; the parent link is a non-owning upward
// reference, so the nest forms a tree with no reference cycles.
type Info struct {
	Loop     *ast.ForStmt
	Parent   *Info   // enclosing loop, nil at nest roots
	Children []*Info // nested loops, owned
	Level    int     // nesting level, roots at 0

	ivs map[*types.Var]*InductionVariable
}

func newInfo(l *ast.ForStmt, parent *Info, level int) *Info {
	return &Info{
		Loop:   l,
		Parent: parent,
		Level:  level,
		ivs:    make(map[*types.Var]*InductionVariable),
	}
}

func (i *Info) addIV(iv *InductionVariable) {
	i.ivs[iv.Var] = iv
}

// removeIV removes an induction variable if present. Returns true if
// removed or false if the loop does not own the variable.
func (i *Info) removeIV(v *types.Var) bool {
	if _, ok := i.ivs[v]; ok {
		delete(i.ivs, v)
		return true
	}
	return false
}

// IV returns the induction variable of v owned by this loop, or nil.
func (i *Info) IV(v *types.Var) *InductionVariable {
	return i.ivs[v]
}

// IVs returns the induction variables owned by this loop.
func (i *Info) IVs() []*InductionVariable {
	ivs := make([]*InductionVariable, 0, len(i.ivs))
	for _, iv := range i.ivs {
		ivs = append(ivs, iv)
	}
	return ivs
}

// VisibleIVs returns the induction variables in scope at this loop:
// those of the loop itself and of every enclosing loop, with the
// innermost definition winning on collision.
func (i *Info) VisibleIVs() map[*types.Var]*InductionVariable {
	vis := make(map[*types.Var]*InductionVariable)
	for l := i; l != nil; l = l.Parent {
		for v, iv := range l.ivs {
			if _, ok := vis[v]; !ok {
				vis[v] = iv
			}
		}
	}
	return vis
}

func (i *Info) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "loop @ level %d: %d induction variable(s)", i.Level, len(i.ivs))
	for _, iv := range i.ivs {
		fmt.Fprintf(&buf, "\n\t%s", iv)
	}
	return buf.String()
}
