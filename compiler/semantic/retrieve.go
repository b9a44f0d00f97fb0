package semantic

import (
	"errors"
	"fmt"

	"github.com/brimdata/cql"
	"github.com/brimdata/cql/compiler/ast"
	"github.com/brimdata/cql/compiler/ir"
)

// newRetrieve returns a retrieve of all instances of typ and records it in
// the unit's data requirements.
func (t *translator) newRetrieve(typ *cql.TypeNamed) *ir.Retrieve {
	r := &ir.Retrieve{Kind: "Retrieve", Node: ir.Typed(t.list(typ)), DataType: typ}
	t.unit.Retrieves = append(t.unit.Retrieves, r)
	return r
}

func (t *translator) semRetrieve(r *ast.Retrieve) ir.Expr {
	typ, err := t.resolveNamedType(r.Type)
	if err != nil {
		return t.error(r.Type, err)
	}
	named, ok := typ.(*cql.TypeNamed)
	if !ok || !named.Retrievable {
		return t.error(r.Type, fmt.Errorf("Specified data type %s does not support retrieval.", typ))
	}
	if r.Terminology == nil {
		return t.newRetrieve(named)
	}
	path := r.CodePath
	if path == "" {
		path = named.PrimaryCodePath
	}
	if path == "" {
		err := errors.New("Retrieve has a terminology target but does not specify a code path and the type of the retrieve does not have a primary code path defined.")
		return t.errorAs(r, err, t.list(named))
	}
	if ptyp, err := t.tctx.LookupProperty(named, path); err != nil || ptyp == nil {
		return t.errorAs(r, fmt.Errorf("Could not resolve code path %s for the type of the retrieve %s.", path, named), t.list(named))
	}
	codes := t.semExpr(r.Terminology)
	if ir.IsBad(codes) {
		return badExpr(t.list(named), rootCause([]ir.Expr{codes}))
	}
	comparator, ok := codeComparator(codes)
	if !ok {
		err := fmt.Errorf("Terminology target of type %s must be a value set, code, concept, or a list of codes or concepts.", ir.TypeOf(codes))
		return t.errorAs(r.Terminology, err, t.list(named))
	}
	out := t.newRetrieve(named)
	out.CodeProperty = path
	out.CodeComparator = comparator
	out.Codes = codes
	return out
}

// codeComparator returns "in" for a value set or a list of codes and "~"
// for a single code or concept.
func codeComparator(codes ir.Expr) (string, bool) {
	if _, ok := codes.(*ir.ValueSetRef); ok {
		return "in", true
	}
	switch typ := ir.TypeOf(codes); typ {
	case cql.TypeCode, cql.TypeConcept:
		return "~", true
	default:
		if elem, ok := cql.ListElem(typ); ok && (elem == cql.TypeCode || elem == cql.TypeConcept) {
			return "in", true
		}
	}
	return "", false
}
