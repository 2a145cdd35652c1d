package access

import "go/ast"

// ScopeChain is one link in the chain of scoping statements enclosing
// an array access, innermost first. Chains share their tails, so
// accesses recorded in the same block compare equal on the shared
// links.
type ScopeChain struct {
	Stmt   ast.Stmt
	Parent *ScopeChain
}

func (c *ScopeChain) push(s ast.Stmt) *ScopeChain {
	return &ScopeChain{Stmt: s, Parent: c}
}

// EnclosingFor returns the innermost for statement in the chain, or nil
// if the chain has none.
func (c *ScopeChain) EnclosingFor() *ast.ForStmt {
	for sc := c; sc != nil; sc = sc.Parent {
		if f, ok := sc.Stmt.(*ast.ForStmt); ok {
			return f
		}
	}
	return nil
}

// isScoping reports whether a statement opens a scope worth recording
// in the chain.
func isScoping(s ast.Stmt) bool {
	switch s.(type) {
	case *ast.BlockStmt, *ast.ForStmt, *ast.RangeStmt,
		*ast.IfStmt, *ast.SwitchStmt, *ast.TypeSwitchStmt,
		*ast.SelectStmt, *ast.CaseClause, *ast.CommClause,
		*ast.LabeledStmt:
		return true
	}
	return false
}
