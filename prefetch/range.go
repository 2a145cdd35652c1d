package prefetch

import (
	"fmt"
	"go/ast"
	"go/types"

	"github.com/nickng/goprefetch/access"
	"github.com/nickng/goprefetch/expr"
)

// Range is a symbolic span of array elements a statement may touch:
// Base[Start] through Base[End] inclusive. Start and End reference only
// variables whose values are known before the statement runs.
type Range struct {
	Kind  access.Kind
	Base  *types.Var
	Start ast.Expr
	End   ast.Expr
}

// EqualExceptKind reports whether two ranges span the same elements of
// the same array, irrespective of access direction.
func (r *Range) EqualExceptKind(o *Range) bool {
	return r.Base == o.Base && expr.Equal(r.Start, o.Start) && expr.Equal(r.End, o.End)
}

// Equal reports whether two ranges are identical.
func (r *Range) Equal(o *Range) bool {
	return r.Kind == o.Kind && r.EqualExceptKind(o)
}

func (r *Range) String() string {
	return fmt.Sprintf("Array '%s': %s to %s (%s)",
		r.Base.Name(), expr.String(r.Start), expr.String(r.End), r.Kind)
}
