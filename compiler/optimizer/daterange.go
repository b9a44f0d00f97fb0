package optimizer

import (
	"slices"

	"github.com/brimdata/cql"
	"github.com/brimdata/cql/compiler/ir"
	"go.uber.org/zap"
)

// DateRanges rewrites the filter of q by hoisting, for each source that is
// a retrieve without a date range, the first predicate of the form
// "Alias.path in R" or "Alias.path included in R" into the retrieve, where
// R is a DateTime or an Interval<DateTime>.  The retrieve is updated in
// place and the residual filter replaces q.Where.  It returns the number of
// predicates hoisted.
func (o *Optimizer) DateRanges(q *ir.Query) int {
	var n int
	for _, src := range q.Sources {
		r, ok := src.Expression.(*ir.Retrieve)
		if !ok {
			continue
		}
		where, ok := DateRange(q.Where, src.Alias, r)
		if !ok {
			continue
		}
		o.logger.Debug("hoisted date range into retrieve",
			zap.String("alias", src.Alias),
			zap.Stringer("dataType", r.DataType),
			zap.String("dateProperty", r.DateProperty),
		)
		q.Where = where
		n++
	}
	return n
}

// DateRange hoists the first eligible predicate of where into r, searching
// conjunctions depth first and left to right.  The matched predicate is
// removed from its conjunction, literal true conjuncts along the way are
// dropped, and the remaining conjuncts keep their order.  The result is nil when nothing of where remains.  Nodes of where
// are copied, not modified.  DateRange does nothing if r already has a date
// range, so applying it again is a no-op.
func DateRange(where ir.Expr, alias string, r *ir.Retrieve) (ir.Expr, bool) {
	if where == nil || r == nil || r.DateRange != nil {
		return where, false
	}
	rest, path, rng, ok := hoist(where, alias)
	if !ok {
		return where, false
	}
	r.DateProperty = path
	r.DateRange = rng
	if ir.IsTrue(rest) {
		rest = nil
	}
	return rest, true
}

func hoist(e ir.Expr, alias string) (ir.Expr, string, ir.Expr, bool) {
	call, ok := e.(*ir.Call)
	if !ok {
		return e, "", nil, false
	}
	if path, rng, ok := match(call, alias); ok {
		return ir.NewBool(true), path, rng, true
	}
	if call.Name != "And" || len(call.Operands) != 2 {
		return e, "", nil, false
	}
	for k, operand := range call.Operands {
		rest, path, rng, ok := hoist(operand, alias)
		if !ok {
			continue
		}
		other := call.Operands[1-k]
		switch {
		case ir.IsTrue(rest):
			return other, path, rng, true
		case ir.IsTrue(other):
			return rest, path, rng, true
		}
		out := *call
		out.Operands = slices.Clone(call.Operands)
		out.Operands[k] = rest
		return &out, path, rng, true
	}
	return e, "", nil, false
}

func match(call *ir.Call, alias string) (string, ir.Expr, bool) {
	if call.Name != "In" && call.Name != "IncludedIn" {
		return "", nil, false
	}
	if len(call.Operands) != 2 || call.Precision != "" {
		return "", nil, false
	}
	path, ok := AliasPath(call.Operands[0], alias)
	if !ok {
		return "", nil, false
	}
	rng := unpromote(call.Operands[1])
	if !isDateRange(ir.TypeOf(rng)) {
		return "", nil, false
	}
	return path, rng, true
}

// AliasPath returns the dotted property path of e when e is a chain of
// property accesses rooted at alias.
func AliasPath(e ir.Expr, alias string) (string, bool) {
	p, ok := e.(*ir.Property)
	if !ok {
		return "", false
	}
	switch src := p.Source.(type) {
	case nil:
		return p.Path, p.Scope == alias
	case *ir.AliasRef:
		return p.Path, src.Name == alias
	}
	prefix, ok := AliasPath(p.Source, alias)
	if !ok {
		return "", false
	}
	return prefix + "." + p.Path, true
}

// unpromote undoes the implicit promotion of a DateTime to a one element
// list, which resolution applies when a point is tested for membership in a
// DateTime.
func unpromote(e ir.Expr) ir.Expr {
	if list, ok := e.(*ir.List); ok && len(list.Elements) == 1 {
		if ir.TypeOf(list.Elements[0]) == cql.TypeDateTime {
			return list.Elements[0]
		}
	}
	return e
}

func isDateRange(t cql.Type) bool {
	if t == cql.TypeDateTime {
		return true
	}
	point, ok := cql.IntervalPoint(t)
	return ok && point == cql.TypeDateTime
}
