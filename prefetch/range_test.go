package prefetch

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/nickng/goprefetch/access"
)

func parseExpr(t *testing.T, s string) ast.Expr {
	t.Helper()
	e, err := parser.ParseExpr(s)
	if err != nil {
		t.Fatalf("cannot parse %q: %v", s, err)
	}
	return e
}

func sliceVar(name string) *types.Var {
	return types.NewVar(token.NoPos, nil, name, types.NewSlice(types.Typ[types.Int]))
}

func TestRangeString(t *testing.T) {
	r := &Range{
		Kind:  access.Read,
		Base:  sliceVar("buf"),
		Start: parseExpr(t, "0"),
		End:   parseExpr(t, "n - 1"),
	}
	if expect, got := "Array 'buf': 0 to n - 1 (read)", r.String(); expect != got {
		t.Errorf("rendered range wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
	r.Kind = access.Write
	if expect, got := "Array 'buf': 0 to n - 1 (write)", r.String(); expect != got {
		t.Errorf("rendered range wrong:\nExpect:\t%v\nGot:\t%v\n", expect, got)
	}
}

func TestRangeEqual(t *testing.T) {
	buf := sliceVar("buf")
	r1 := &Range{Kind: access.Read, Base: buf, Start: parseExpr(t, "0"), End: parseExpr(t, "n - 1")}
	r2 := &Range{Kind: access.Write, Base: buf, Start: parseExpr(t, "(0)"), End: parseExpr(t, "(n - 1)")}
	if !r1.EqualExceptKind(r2) {
		t.Error("expected ranges to span the same elements")
	}
	if r1.Equal(r2) {
		t.Error("expected ranges with different kinds to differ")
	}
	r3 := &Range{Kind: access.Read, Base: buf, Start: parseExpr(t, "1"), End: parseExpr(t, "n - 1")}
	if r1.EqualExceptKind(r3) {
		t.Error("expected ranges with different spans to differ")
	}
	other := &Range{Kind: access.Read, Base: sliceVar("buf"), Start: parseExpr(t, "0"), End: parseExpr(t, "n - 1")}
	if r1.EqualExceptKind(other) {
		t.Error("expected ranges over distinct arrays to differ")
	}
}
