package semantic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brimdata/cql"
	"github.com/brimdata/cql/compiler/ast"
	"github.com/brimdata/cql/compiler/ir"
)

var precisions = map[string]string{
	"year":        "Year",
	"month":       "Month",
	"week":        "Week",
	"day":         "Day",
	"hour":        "Hour",
	"minute":      "Minute",
	"second":      "Second",
	"millisecond": "Millisecond",
}

// normalizePrecision maps a singular or plural precision keyword to its
// IR spelling.  The empty precision is left empty.
func normalizePrecision(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if p, ok := precisions[strings.TrimSuffix(strings.ToLower(s), "s")]; ok {
		return p, nil
	}
	return "", fmt.Errorf("Unknown precision '%s'.", s)
}

var boundaryOps = map[string]string{
	"meets":           "Meets",
	"meets before":    "MeetsBefore",
	"meets after":     "MeetsAfter",
	"overlaps":        "Overlaps",
	"overlaps before": "OverlapsBefore",
	"overlaps after":  "OverlapsAfter",
	"starts":          "Starts",
	"ends":            "Ends",
}

// semTiming translates an interval timing phrase.  A starts or ends
// prefix applies to the left operand.  Whether "included in" and
// "includes" compare points or intervals depends on the operand that
// may be a point.
func (t *translator) semTiming(e *ast.Timing) ir.Expr {
	p := e.Phrase
	lhs := t.semExpr(e.LHS)
	rhs := t.semExpr(e.RHS)
	if p.Relation != "" {
		return t.errorAs(p, errors.New("Timing phrases with quantity offsets are not supported."), cql.TypeBoolean)
	}
	precision, err := normalizePrecision(p.Precision)
	if err != nil {
		return t.errorAs(p, err, cql.TypeBoolean)
	}
	switch p.Prefix {
	case "starts":
		lhs = t.system(e.LHS, "Start", lhs)
	case "ends":
		lhs = t.system(e.LHS, "End", lhs)
	}
	var name string
	switch p.Op {
	case "same as":
		name = "SameAs"
	case "same or before":
		name = "SameOrBefore"
	case "same or after":
		name = "SameOrAfter"
	case "before":
		name = "Before"
	case "after":
		name = "After"
	case "included in":
		name = proper(p.Proper, "IncludedIn")
		if isPoint(ir.TypeOf(lhs)) {
			name = proper(p.Proper, "In")
		}
	case "includes":
		name = proper(p.Proper, "Includes")
		if isPoint(ir.TypeOf(rhs)) {
			name = proper(p.Proper, "Contains")
		}
	default:
		var ok bool
		if name, ok = boundaryOps[p.Op]; !ok {
			return t.errorAs(p, fmt.Errorf("Unsupported timing phrase %s.", p.Op), cql.TypeBoolean)
		}
	}
	return t.systemPrecision(e, name, precision, lhs, rhs)
}

func proper(ok bool, name string) string {
	if ok {
		return "Proper" + name
	}
	return name
}

// isPoint reports whether typ is neither an interval nor a list.  Any is
// not a point since a null operand takes the shape of the other side.
func isPoint(typ cql.Type) bool {
	switch typ.(type) {
	case *cql.TypeInterval, *cql.TypeList:
		return false
	}
	return typ != cql.TypeAny
}
