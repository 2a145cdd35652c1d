// Package prefetch derives symbolic prefetch ranges from counted loops.
//
// An Analysis takes one statement of a type-checked source file, builds
// its loop nest and collects the array accesses made under the loops.
// Each index expression is rewritten twice, once against the lower
// bounds of the variables it references and once against the upper
// bounds; the two results delimit the span of elements the statement
// may touch, expressed in variables whose values are known before the
// statement runs.
package prefetch

import (
	"fmt"
	"go/ast"
	"go/types"
	"io"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/nickng/goprefetch/access"
	"github.com/nickng/goprefetch/dataflow"
	"github.com/nickng/goprefetch/expr"
	"github.com/nickng/goprefetch/goast"
	"github.com/nickng/goprefetch/loop"
	"github.com/nickng/goprefetch/prog"
)

// ErrNotAnalysed is the error returned when results are requested for a
// statement that has not been through Analyse.
var ErrNotAnalysed = errors.New("statement not analysed")

// Analysis derives the prefetch ranges of a single statement.
type Analysis struct {
	info *goast.Info
	stmt ast.Stmt

	ignore map[*types.Var]bool
	oracle dataflow.Oracle
	rw     expr.Rewriter

	nest     *loop.Nest
	accesses []*access.ArrayAccess
	ranges   []*Range

	*Logger
}

var _ prog.Analyser = (*Analysis)(nil)

// New returns a new Analysis of stmt within the type-checked source
// info.
func New(info *goast.Info, stmt ast.Stmt) *Analysis {
	return &Analysis{
		info:   info,
		stmt:   stmt,
		ignore: make(map[*types.Var]bool),
		rw:     expr.NewBuilder(info.TInfo),
		Logger: newLogger(),
	}
}

// Ignore excludes accesses to the given array variables from the
// analysis.
func (a *Analysis) Ignore(vars ...*types.Var) {
	for _, v := range vars {
		a.ignore[v] = true
	}
}

// SetOracle replaces the value flow oracle used to resolve variables
// that are not induction variables.
func (a *Analysis) SetOracle(o dataflow.Oracle) {
	a.oracle = o
}

// SetRewriter replaces the expression rewriter.
func (a *Analysis) SetRewriter(rw expr.Rewriter) {
	a.rw = rw
}

// SetLogger sets logger for Analysis.
func (a *Analysis) SetLogger(l *Logger) {
	a.Logger = &Logger{
		SugaredLogger: l.SugaredLogger,
		module:        color.CyanString("range"),
	}
}

// AddLogFiles extends current Logger and writes additional log to files.
func (a *Analysis) AddLogFiles(file ...string) {
	a.Logger = newFileLogger(file...)
}

// Analyse builds the loop nest of the statement and collects the array
// accesses made in it. It must be called before CalculateRanges.
func (a *Analysis) Analyse() {
	// Sync error ignored. See https://github.com/uber-go/zap/issues/328
	defer a.Logger.Sync()

	a.nest = loop.Build(a.stmt, a.info.TInfo, a.rw)
	a.Debugf("%s found %d loop(s)", a.Module(), a.nest.Len())
	a.accesses = access.NewCollector(a.info.TInfo, a.ignore).Collect(a.stmt)
	a.Debugf("%s found %d array access(es)", a.Module(), len(a.accesses))
	if a.oracle == nil {
		a.oracle = dataflow.NewSimpleOracle(a.stmt, a.info.TInfo)
	}
}

// CalculateRanges synthesises the prefetch ranges of the analysed
// statement, then merges and prunes them. Returns ErrNotAnalysed if
// called before Analyse.
func (a *Analysis) CalculateRanges() error {
	if a.nest == nil {
		return ErrNotAnalysed
	}
	a.ranges = nil
	for _, acc := range a.accesses {
		if r := a.synthesise(acc); r != nil {
			a.ranges = append(a.ranges, r)
		}
	}
	a.mergeRanges()
	a.pruneRanges()
	return nil
}

// Ranges returns the calculated prefetch ranges. Returns ErrNotAnalysed
// if called before Analyse.
func (a *Analysis) Ranges() ([]*Range, error) {
	if a.nest == nil {
		return nil, ErrNotAnalysed
	}
	return a.ranges, nil
}

// WriteRanges writes the calculated ranges to w, one per line.
func (a *Analysis) WriteRanges(w io.Writer) error {
	ranges, err := a.Ranges()
	if err != nil {
		return err
	}
	for _, r := range ranges {
		if _, err := fmt.Fprintln(w, r); err != nil {
			return errors.Wrap(err, "cannot write ranges")
		}
	}
	return nil
}

// synthesise derives the range of one access. Every variable the
// subscript chain references is bound to a pair of expressions, the
// bounds of its loop for an induction variable or its single known
// value otherwise, and the outermost index is rewritten against each
// side of the pairs. Returns nil if the access is outside a loop or
// the index references an unbound variable.
func (a *Analysis) synthesise(acc *access.ArrayAccess) *Range {
	f := acc.Scope().EnclosingFor()
	if f == nil {
		return nil
	}
	info := a.nest.At(f)
	if info == nil {
		return nil
	}
	vis := info.VisibleIVs()
	lower := make(map[*types.Var]ast.Expr)
	upper := make(map[*types.Var]ast.Expr)
	for _, v := range acc.VarsInIndex() {
		if !a.bindVar(v, acc.Node(), vis, lower, upper) {
			// Left unmapped. Substitution fails only if the outermost
			// index references the variable; inner-chain variables do
			// not block the range.
			a.Debugf("%s %s: variable %s left unmapped", a.Module(), acc, v.Name())
		}
	}
	start, ok := a.rw.Substitute(acc.Index(), lower)
	if !ok {
		return nil
	}
	end, ok := a.rw.Substitute(acc.Index(), upper)
	if !ok {
		return nil
	}
	return &Range{Kind: acc.Kind(), Base: acc.Base(), Start: start, End: end}
}

// bindVar binds v to its lower and upper expressions. Variables the
// bound expressions reference are bound transitively so the final
// substitution can eliminate them too.
func (a *Analysis) bindVar(v *types.Var, at ast.Node, vis map[*types.Var]*loop.InductionVariable, lower, upper map[*types.Var]ast.Expr) bool {
	if _, ok := lower[v]; ok {
		return true
	}
	if iv, ok := vis[v]; ok {
		if iv.Lower == nil || iv.Upper == nil {
			return false
		}
		lower[v], upper[v] = iv.Lower, iv.Upper
		return a.bindVarsIn(iv.Lower, v, at, vis, lower, upper) &&
			a.bindVarsIn(iv.Upper, v, at, vis, lower, upper)
	}
	vals := a.oracle.PossibleValues(v, at)
	if len(vals) != 1 {
		return false
	}
	lower[v], upper[v] = vals[0], vals[0]
	return a.bindVarsIn(vals[0], v, at, vis, lower, upper)
}

// bindVarsIn binds the variables a bound expression of v references.
func (a *Analysis) bindVarsIn(e ast.Expr, v *types.Var, at ast.Node, vis map[*types.Var]*loop.InductionVariable, lower, upper map[*types.Var]ast.Expr) bool {
	for _, u := range a.rw.VarsIn(e) {
		if u == v {
			// Self-referential values fail during substitution.
			continue
		}
		if !a.bindVar(u, at, vis, lower, upper) {
			return false
		}
	}
	return true
}

// mergeRanges coalesces overlapping or adjacent spans of the same
// array. Deciding overlap of symbolic spans needs expression comparison
// beyond syntactic equality, so for now every span is kept separate and
// exact duplicates are left to pruning.
func (a *Analysis) mergeRanges() {
}

// pruneRanges drops degenerate and duplicate ranges. A write over the
// same span as an earlier read raises the read, so the surviving range
// carries the stronger kind.
func (a *Analysis) pruneRanges() {
	var kept []*Range
next:
	for _, r := range a.ranges {
		if expr.Equal(r.Start, r.End) {
			a.Debugf("%s dropping single-element range %s", a.Module(), r)
			continue
		}
		for _, k := range kept {
			if k.EqualExceptKind(r) {
				if r.Kind == access.Write && k.Kind == access.Read {
					k.Kind = access.Write
				}
				continue next
			}
		}
		kept = append(kept, r)
	}
	a.ranges = kept
}
