// Package goast is a library to build and work with type-checked Go
// syntax trees.
// For most part the package contains helper or wrapper functions over
// the go/ast, go/parser and go/types packages of the standard library.
//
// The analyses in this module work on statement subtrees and resolve
// identifiers through the type checker's object tables, so variables
// are compared by their canonical *types.Var object rather than by
// name or by syntax node.
package goast

import (
	"go/ast"
	"go/token"
	"go/types"
	"io"
	"log"

	"golang.org/x/tools/go/ast/astutil"
)

// Info holds the results of a parse-and-typecheck build for analysis.
// To populate this structure, the 'build' subpackage should be used.
type Info struct {
	FSet  *token.FileSet // FileSet for parsed source files.
	Files []*ast.File    // Parsed source files.
	Pkg   *types.Package // Type-checked package.
	TInfo *types.Info    // Object and expression type information.

	BldLog io.Writer // Build log.

	Logger *log.Logger // Build logger.
}

// IsScalarInt returns true if the type is a scalar integer type, or
// false otherwise.
func IsScalarInt(t types.Type) bool {
	if t == nil {
		return false
	}
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Info()&types.IsInteger != 0
}

// Ident unwraps parentheses around an expression and returns the
// identifier underneath, or nil if the expression is not an identifier.
func Ident(e ast.Expr) *ast.Ident {
	if e == nil {
		return nil
	}
	id, _ := astutil.Unparen(e).(*ast.Ident)
	return id
}

// VarOf resolves an identifier to its canonical variable object, or nil
// if the identifier does not name a variable.
func VarOf(tinfo *types.Info, id *ast.Ident) *types.Var {
	if tinfo == nil || id == nil {
		return nil
	}
	v, _ := tinfo.ObjectOf(id).(*types.Var)
	return v
}

// ScalarIntVar resolves an identifier to a variable of scalar integer
// type, or nil otherwise.
func ScalarIntVar(tinfo *types.Info, id *ast.Ident) *types.Var {
	if v := VarOf(tinfo, id); v != nil && IsScalarInt(v.Type()) {
		return v
	}
	return nil
}

// IndexableArray returns true if t is an array, slice or pointer to
// array type, i.e. a subscript base whose elements occupy contiguous
// memory. Maps and strings are not prefetchable bases.
func IndexableArray(t types.Type) bool {
	if t == nil {
		return false
	}
	switch u := t.Underlying().(type) {
	case *types.Array, *types.Slice:
		return true
	case *types.Pointer:
		_, ok := u.Elem().Underlying().(*types.Array)
		return ok
	}
	return false
}

// Loops returns all for-loops under root in source order.
func Loops(root ast.Node) []*ast.ForStmt {
	var loops []*ast.ForStmt
	if root == nil {
		return nil
	}
	ast.Inspect(root, func(n ast.Node) bool {
		if f, ok := n.(*ast.ForStmt); ok {
			loops = append(loops, f)
		}
		return true
	})
	return loops
}

// OuterLoops returns the outermost for-loops under root, i.e. loops not
// nested inside another for-loop.
func OuterLoops(root ast.Node) []*ast.ForStmt {
	var loops []*ast.ForStmt
	if root == nil {
		return nil
	}
	ast.Inspect(root, func(n ast.Node) bool {
		if f, ok := n.(*ast.ForStmt); ok {
			loops = append(loops, f)
			return false
		}
		return true
	})
	return loops
}
