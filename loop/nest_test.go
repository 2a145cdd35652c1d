package loop

import (
	"go/ast"
	"strings"
	"testing"

	"github.com/nickng/goprefetch/expr"
	"github.com/nickng/goprefetch/goast/build"
)

func buildNest(t *testing.T, src string) *Nest {
	t.Helper()
	info, err := build.FromReader(strings.NewReader(src)).Default().Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	var body *ast.BlockStmt
	for _, f := range info.Files {
		for _, d := range f.Decls {
			if fd, ok := d.(*ast.FuncDecl); ok && fd.Name.Name == "main" {
				body = fd.Body
			}
		}
	}
	if body == nil {
		t.Fatal("no main function in source")
	}
	return Build(body, info.TInfo, expr.NewBuilder(info.TInfo))
}

func onlyIV(t *testing.T, i *Info) *InductionVariable {
	t.Helper()
	ivs := i.IVs()
	if len(ivs) != 1 {
		t.Fatalf("expected 1 induction variable, got %d", len(ivs))
	}
	return ivs[0]
}

func TestIncreasing(t *testing.T) {
	nest := buildNest(t, `package main

func main() {
	total := 0
	for i := 0; i < 10; i++ {
		total += i
	}
	println(total)
}
`)
	if expect, got := 1, nest.Len(); expect != got {
		t.Fatalf("number of loops wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
	iv := onlyIV(t, nest.Roots()[0])
	if iv.Dir != Increasing {
		t.Errorf("direction wrong:\nExpect:\t%v\nGot:\t%v\n", Increasing, iv.Dir)
	}
	if expect, got := "0", expr.String(iv.Lower); expect != got {
		t.Errorf("lower bound wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
	if expect, got := "9", expr.String(iv.Upper); expect != got {
		t.Errorf("upper bound wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
}

func TestDecreasing(t *testing.T) {
	nest := buildNest(t, `package main

func main() {
	n := 10
	total := 0
	for i := n; i > 0; i-- {
		total += i
	}
	println(total)
}
`)
	iv := onlyIV(t, nest.Roots()[0])
	if iv.Dir != Decreasing {
		t.Errorf("direction wrong:\nExpect:\t%v\nGot:\t%v\n", Decreasing, iv.Dir)
	}
	if expect, got := "1", expr.String(iv.Lower); expect != got {
		t.Errorf("lower bound wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
	if expect, got := "n", expr.String(iv.Upper); expect != got {
		t.Errorf("upper bound wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
}

func TestInclusiveCond(t *testing.T) {
	nest := buildNest(t, `package main

func main() {
	n := 10
	total := 0
	for i := 0; i <= n; i++ {
		total += i
	}
	println(total)
}
`)
	iv := onlyIV(t, nest.Roots()[0])
	if expect, got := "n", expr.String(iv.Upper); expect != got {
		t.Errorf("upper bound wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
}

func TestMirroredCond(t *testing.T) {
	nest := buildNest(t, `package main

func main() {
	total := 0
	for i := 0; 10 > i; i++ {
		total += i
	}
	println(total)
}
`)
	iv := onlyIV(t, nest.Roots()[0])
	if expect, got := "9", expr.String(iv.Upper); expect != got {
		t.Errorf("upper bound wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
}

func TestCompoundUpdate(t *testing.T) {
	nest := buildNest(t, `package main

func main() {
	total := 0
	for i := 0; i < 10; i += 2 {
		total += i
	}
	println(total)
}
`)
	iv := onlyIV(t, nest.Roots()[0])
	if iv.Dir != Unknown {
		t.Errorf("direction wrong:\nExpect:\t%v\nGot:\t%v\n", Unknown, iv.Dir)
	}
	if iv.Lower != nil || iv.Upper != nil {
		t.Error("expected no bounds for unknown update direction")
	}
}

func TestNoInductionVar(t *testing.T) {
	nest := buildNest(t, `package main

func main() {
	total := 0
	for total < 10 {
		total++
	}
	println(total)
}
`)
	if expect, got := 1, nest.Len(); expect != got {
		t.Fatalf("number of loops wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
	if expect, got := 0, len(nest.Roots()[0].IVs()); expect != got {
		t.Errorf("number of induction variables wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
}

func TestNestedPrune(t *testing.T) {
	nest := buildNest(t, `package main

func main() {
	total := 0
	for i := 0; i < 10; i++ {
		for i = 0; i < 5; i++ {
			total += i
		}
	}
	println(total)
}
`)
	outer := nest.Roots()[0]
	if expect, got := 0, len(outer.IVs()); expect != got {
		t.Errorf("outer loop should not own pruned variable:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
	inner := outer.Children[0]
	if expect, got := 1, len(inner.IVs()); expect != got {
		t.Errorf("inner loop should own the variable:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
	if expect, got := 1, inner.Level; expect != got {
		t.Errorf("inner loop level wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
}

func TestSiblingLoops(t *testing.T) {
	nest := buildNest(t, `package main

func main() {
	total := 0
	for i := 0; i < 3; i++ {
		total += i
	}
	for i := 0; i < 5; i++ {
		total += i
	}
	println(total)
}
`)
	roots := nest.Roots()
	if expect, got := 2, len(roots); expect != got {
		t.Fatalf("number of outer loops wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
	// The two i variables are distinct declarations; both loops keep
	// their own after pruning.
	if expect, got := "2", expr.String(onlyIV(t, roots[0]).Upper); expect != got {
		t.Errorf("first upper bound wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
	if expect, got := "4", expr.String(onlyIV(t, roots[1]).Upper); expect != got {
		t.Errorf("second upper bound wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
}

func TestNestedSiblingLoops(t *testing.T) {
	nest := buildNest(t, `package main

func main() {
	total := 0
	for i := 0; i < 4; i++ {
		var b int
		for b = 0; b < 10; b++ {
			total += b
		}
		for b = 0; b < 20; b++ {
			total += b
		}
	}
	println(total)
}
`)
	outer := nest.Roots()[0]
	if expect, got := 2, len(outer.Children); expect != got {
		t.Fatalf("number of inner loops wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
	// The shared variable is owned by each inner loop with its own
	// bounds; the outer loop keeps only its own.
	if expect, got := "9", expr.String(onlyIV(t, outer.Children[0]).Upper); expect != got {
		t.Errorf("first inner upper bound wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
	if expect, got := "19", expr.String(onlyIV(t, outer.Children[1]).Upper); expect != got {
		t.Errorf("second inner upper bound wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
	if expect, got := "i", onlyIV(t, outer).Var.Name(); expect != got {
		t.Errorf("outer variable wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
}

func TestVisibleIVs(t *testing.T) {
	nest := buildNest(t, `package main

func main() {
	total := 0
	for i := 0; i < 4; i++ {
		for j := 0; j < 8; j++ {
			total += i * j
		}
	}
	println(total)
}
`)
	inner := nest.Roots()[0].Children[0]
	if expect, got := 2, len(inner.VisibleIVs()); expect != got {
		t.Errorf("number of visible variables wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
	if expect, got := 1, len(inner.IVs()); expect != got {
		t.Errorf("number of owned variables wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
}

func TestAt(t *testing.T) {
	nest := buildNest(t, `package main

func main() {
	total := 0
	for i := 0; i < 4; i++ {
		total += i
	}
	println(total)
}
`)
	root := nest.Roots()[0]
	if nest.At(root.Loop) != root {
		t.Error("loop lookup did not return the root")
	}
	var unrelated ast.ForStmt
	if nest.At(&unrelated) != nil {
		t.Error("expected nil for a loop outside the nest")
	}
}
