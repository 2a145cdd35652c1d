// Package expr provides utilities for comparing, rendering and
// rewriting Go expressions.
//
// The analyses in this module synthesise new expression trees (e.g.
// loop bounds with interval corrections applied). Synthesised trees
// carry no position information and do not belong to any type-checked
// file, so nothing here relies on token positions, and the Builder
// keeps its own bindings for identifiers it creates.
package expr

import (
	"bytes"
	"go/ast"
	"go/printer"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"
)

// Equal returns true if two expressions are syntactically equal, or
// false otherwise. Parentheses are ignored and identifiers compare by
// name; only the expression kinds the analyses produce are supported.
func Equal(a, b ast.Expr) bool {
	if a == nil || b == nil {
		return a == b
	}
	a, b = astutil.Unparen(a), astutil.Unparen(b)
	switch a := a.(type) {
	case *ast.Ident:
		b, ok := b.(*ast.Ident)
		return ok && a.Name == b.Name
	case *ast.BasicLit:
		b, ok := b.(*ast.BasicLit)
		return ok && a.Kind == b.Kind && a.Value == b.Value
	case *ast.UnaryExpr:
		b, ok := b.(*ast.UnaryExpr)
		return ok && a.Op == b.Op && Equal(a.X, b.X)
	case *ast.BinaryExpr:
		b, ok := b.(*ast.BinaryExpr)
		return ok && a.Op == b.Op && Equal(a.X, b.X) && Equal(a.Y, b.Y)
	case *ast.IndexExpr:
		b, ok := b.(*ast.IndexExpr)
		return ok && Equal(a.X, b.X) && Equal(a.Index, b.Index)
	case *ast.SelectorExpr:
		b, ok := b.(*ast.SelectorExpr)
		return ok && Equal(a.X, b.X) && a.Sel.Name == b.Sel.Name
	case *ast.CallExpr:
		b, ok := b.(*ast.CallExpr)
		if !ok || !Equal(a.Fun, b.Fun) || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders an expression to source form.
func String(e ast.Expr) string {
	if e == nil {
		return "<nil>"
	}
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, token.NewFileSet(), e); err != nil {
		return "<unprintable>"
	}
	return buf.String()
}
