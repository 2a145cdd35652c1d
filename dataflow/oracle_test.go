package dataflow

import (
	"go/ast"
	"go/parser"
	"go/types"
	"strings"
	"testing"

	"github.com/nickng/goprefetch/expr"
	"github.com/nickng/goprefetch/goast"
	"github.com/nickng/goprefetch/goast/build"
)

func buildInfo(t *testing.T, src string) *goast.Info {
	t.Helper()
	info, err := build.FromReader(strings.NewReader(src)).Default().Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return info
}

func mainBody(t *testing.T, info *goast.Info) *ast.BlockStmt {
	t.Helper()
	for _, f := range info.Files {
		for _, d := range f.Decls {
			if fd, ok := d.(*ast.FuncDecl); ok && fd.Name.Name == "main" {
				return fd.Body
			}
		}
	}
	t.Fatal("no main function in source")
	return nil
}

func findVar(t *testing.T, info *goast.Info, name string) *types.Var {
	t.Helper()
	for _, o := range info.TInfo.Defs {
		if v, ok := o.(*types.Var); ok && v.Name() == name {
			return v
		}
	}
	t.Fatalf("variable %s not found", name)
	return nil
}

func parse(t *testing.T, s string) ast.Expr {
	t.Helper()
	e, err := parser.ParseExpr(s)
	if err != nil {
		t.Fatalf("cannot parse %q: %v", s, err)
	}
	return e
}

func TestSingleDef(t *testing.T) {
	const src = `package main

func main() {
	i := 1
	k := i * 2
	println(i, k)
}
`
	info := buildInfo(t, src)
	o := NewSimpleOracle(mainBody(t, info), info.TInfo)
	vals := o.PossibleValues(findVar(t, info, "k"), nil)
	if expect, got := 1, len(vals); expect != got {
		t.Fatalf("number of values wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
	if !expr.Equal(vals[0], parse(t, "i * 2")) {
		t.Errorf("value wrong:\nExpect:\ti * 2\nGot:\t%v\n", expr.String(vals[0]))
	}
}

func TestMultiDef(t *testing.T) {
	const src = `package main

func main() {
	b := true
	var x int
	if b {
		x = 1
	} else {
		x = 2
	}
	println(x)
}
`
	info := buildInfo(t, src)
	o := NewSimpleOracle(mainBody(t, info), info.TInfo)
	vals := o.PossibleValues(findVar(t, info, "x"), nil)
	if expect, got := 2, len(vals); expect != got {
		t.Errorf("number of values wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
}

func TestInvariant(t *testing.T) {
	const src = `package main

func main() {
	n := 10
	total := 0
	for i := 0; i < n; i++ {
		total += i
	}
	println(total, n)
}
`
	info := buildInfo(t, src)
	var forStmt *ast.ForStmt
	ast.Inspect(mainBody(t, info), func(node ast.Node) bool {
		if f, ok := node.(*ast.ForStmt); ok && forStmt == nil {
			forStmt = f
		}
		return true
	})
	o := NewSimpleOracle(forStmt, info.TInfo)

	// n is never defined inside the loop and resolves to itself.
	n := findVar(t, info, "n")
	vals := o.PossibleValues(n, nil)
	if expect, got := 1, len(vals); expect != got {
		t.Fatalf("number of values wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
	if goast.VarOf(info.TInfo, goast.Ident(vals[0])) != n {
		t.Errorf("expected n to resolve to itself, got %v", expr.String(vals[0]))
	}

	// i is defined twice inside the loop (init and update).
	if expect, got := 2, len(o.PossibleValues(findVar(t, info, "i"), nil)); expect != got {
		t.Errorf("number of values wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
}

func TestIncDec(t *testing.T) {
	const src = `package main

func main() {
	i := 0
	i++
	println(i)
}
`
	info := buildInfo(t, src)
	o := NewSimpleOracle(mainBody(t, info), info.TInfo)
	vals := o.PossibleValues(findVar(t, info, "i"), nil)
	if expect, got := 2, len(vals); expect != got {
		t.Fatalf("number of values wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
	if !expr.Equal(vals[1], parse(t, "i + 1")) {
		t.Errorf("value wrong:\nExpect:\ti + 1\nGot:\t%v\n", expr.String(vals[1]))
	}
}

func TestTainted(t *testing.T) {
	const src = `package main

func f() (int, int) { return 1, 2 }

func main() {
	p, q := f()
	vals := []int{1, 2, 3}
	total := 0
	for r := range vals {
		total += r
	}
	println(p, q, total)
}
`
	info := buildInfo(t, src)
	o := NewSimpleOracle(mainBody(t, info), info.TInfo)
	for _, name := range []string{"p", "q", "r"} {
		if vals := o.PossibleValues(findVar(t, info, name), nil); vals != nil {
			t.Errorf("expected %s to be unresolved, got %d value(s)", name, len(vals))
		}
	}
}
