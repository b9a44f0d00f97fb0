package semantic

import (
	"errors"
	"fmt"

	"github.com/brimdata/cql"
	"github.com/brimdata/cql/compiler/ast"
	"github.com/brimdata/cql/compiler/ir"
	"github.com/brimdata/cql/compiler/resolve"
	"go.uber.org/zap"
)

type alias struct {
	name string
	typ  cql.Type
}

// queryScope is the state of one query under translation.  While its sort
// clause is translated, sortElem is the type of a result element and
// identifiers resolve to the element's properties instead of the aliases.
type queryScope struct {
	aliases  []alias
	lets     map[string]cql.Type
	singular bool
	sortElem cql.Type
}

func (q *queryScope) alias(name string) (cql.Type, bool) {
	for k := len(q.aliases) - 1; k >= 0; k-- {
		if q.aliases[k].name == name {
			return q.aliases[k].typ, true
		}
	}
	return nil, false
}

func (q *queryScope) inUse(name string) bool {
	_, ok := q.alias(name)
	if !ok {
		_, ok = q.lets[name]
	}
	return ok
}

// pushQuery makes q the innermost query scope until the returned function
// is called.
func (t *translator) pushQuery(q *queryScope) func() {
	t.queries = append(t.queries, q)
	n := len(t.queries)
	return func() {
		t.queries = t.queries[:n-1]
	}
}

func (t *translator) semQuery(q *ast.Query) ir.Expr {
	if t.opts.RequireFromKeyword && !q.From {
		t.error(q, errors.New("The from keyword is required for queries."))
	}
	scope := &queryScope{lets: make(map[string]cql.Type), singular: true}
	out := &ir.Query{Kind: "Query"}
	for _, src := range q.Sources {
		e := t.semExpr(src.Expr)
		typ := ir.TypeOf(e)
		elem, ok := cql.ListElem(typ)
		if ok {
			scope.singular = false
		} else {
			elem = typ
		}
		name := src.Alias.Name
		if scope.inUse(name) {
			t.error(src.Alias, fmt.Errorf("Alias %s is already in use in this query.", name))
		}
		scope.aliases = append(scope.aliases, alias{name, elem})
		out.Sources = append(out.Sources, &ir.AliasedSource{Alias: name, Expression: e, Type: typ})
	}
	if t.context != Patient && t.patientSources(out.Sources) {
		saved := t.context
		t.context = Patient
		defer func() { t.context = saved }()
	}
	release := t.pushQuery(scope)
	defer release()
	for _, let := range q.Lets {
		e := t.semExpr(let.Expr)
		name := let.Name.Name
		if scope.inUse(name) {
			t.error(let.Name, fmt.Errorf("Identifier %s is already in use in this query.", name))
		}
		scope.lets[name] = ir.TypeOf(e)
		out.Lets = append(out.Lets, &ir.LetClause{Identifier: name, Expression: e, Type: ir.TypeOf(e)})
	}
	for _, rel := range q.Relationships {
		out.Relationship = append(out.Relationship, t.semRelationship(rel, scope))
	}
	if q.Where != nil {
		out.Where = t.coerce(q.Where, t.semExpr(q.Where), cql.TypeBoolean)
		if t.opts.DateRangeOptimization && !ir.IsBad(out.Where) {
			t.optimizer.DateRanges(out)
		}
	}
	var elem cql.Type
	switch {
	case q.Return != nil:
		e := t.semExpr(q.Return.Expr)
		out.Return = &ir.ReturnClause{Distinct: !q.Return.All && !scope.singular, Expression: e}
		elem = ir.TypeOf(e)
	case len(out.Sources) > 1:
		out.Return, elem = t.defaultReturn(q, scope)
	default:
		elem = scope.aliases[0].typ
	}
	typ := elem
	if !scope.singular {
		typ = t.list(elem)
	}
	out.Node = ir.Typed(typ)
	if q.Sort != nil {
		if scope.singular {
			t.error(q.Sort, errors.New("Sort clause cannot be used in a singular query."))
		} else {
			out.Sort = t.semSort(q.Sort, scope, elem)
		}
	}
	return out
}

// patientSources reports whether any source refers to a definition in the
// Patient context, in which case the clauses of the query are translated
// in that context.
func (t *translator) patientSources(sources []*ir.AliasedSource) bool {
	var found bool
	for _, src := range sources {
		ir.Walk(src.Expression, func(e ir.Expr) bool {
			ref, ok := e.(*ir.ExpressionRef)
			if !ok || found {
				return !found
			}
			if ref.LibraryName == "" {
				d, ok := t.registry.defs[ref.Name]
				found = ok && d.context == Patient
			} else if u, ok := t.includes[ref.LibraryName]; ok {
				sym, ok := u.Symbol(ref.Name)
				found = ok && sym.Context == Patient
			}
			return !found
		}, nil)
	}
	if found {
		t.logger.Debug("query crosses into patient context", zap.String("from", t.context))
	}
	return found
}

func (t *translator) semRelationship(rel *ast.Relationship, scope *queryScope) *ir.Relationship {
	src := t.semExpr(rel.Source.Expr)
	typ := ir.TypeOf(src)
	elem, ok := cql.ListElem(typ)
	if !ok {
		elem = typ
	}
	name := rel.Source.Alias.Name
	if scope.inUse(name) {
		t.error(rel.Source.Alias, fmt.Errorf("Alias %s is already in use in this query.", name))
	}
	scope.aliases = append(scope.aliases, alias{name, elem})
	such := t.coerce(rel.SuchThat, t.semExpr(rel.SuchThat), cql.TypeBoolean)
	scope.aliases = scope.aliases[:len(scope.aliases)-1]
	kind := "With"
	if rel.Without {
		kind = "Without"
	}
	return &ir.Relationship{Kind: kind, Alias: name, Expression: src, SuchThat: such}
}

// defaultReturn builds the distinct tuple of every source alias returned
// by a multi-source query without a return clause.
func (t *translator) defaultReturn(q *ast.Query, scope *queryScope) (*ir.ReturnClause, cql.Type) {
	tuple := &ir.Tuple{Kind: "Tuple"}
	fields := make([]cql.Field, 0, len(q.Sources))
	for _, a := range scope.aliases {
		ref := &ir.AliasRef{Kind: "AliasRef", Node: ir.Typed(a.typ), Name: a.name}
		tuple.Elements = append(tuple.Elements, ir.TupleElement{Name: a.name, Value: ref})
		fields = append(fields, cql.NewField(a.name, a.typ))
	}
	typ, err := t.tctx.LookupTypeTuple(fields)
	if err != nil {
		bad := t.error(q, err)
		return &ir.ReturnClause{Expression: bad}, ir.TypeOf(bad)
	}
	tuple.Node = ir.Typed(typ)
	return &ir.ReturnClause{Distinct: !scope.singular, Expression: tuple}, typ
}

func (t *translator) semSort(s *ast.SortClause, scope *queryScope, elem cql.Type) *ir.SortClause {
	scope.sortElem = elem
	defer func() { scope.sortElem = nil }()
	out := &ir.SortClause{}
	for _, item := range s.Items {
		dir := ir.Asc
		if item.Desc {
			dir = ir.Desc
		}
		if item.Expr == nil {
			t.comparable(item, elem)
			out.By = append(out.By, &ir.ByDirection{Kind: "ByDirection", Direction: dir})
			continue
		}
		if id, ok := item.Expr.(*ast.Identifier); ok {
			typ, err := t.tctx.LookupProperty(elem, id.Name)
			if err != nil {
				out.By = append(out.By, &ir.ByExpression{Kind: "ByExpression", Expression: t.error(item.Expr, err), Direction: dir})
				continue
			}
			if typ != nil {
				t.comparable(item.Expr, typ)
				out.By = append(out.By, &ir.ByColumn{Kind: "ByColumn", Path: id.Name, Direction: dir})
				continue
			}
		}
		e := t.semExpr(item.Expr)
		if !ir.IsBad(e) {
			t.comparable(item.Expr, ir.TypeOf(e))
		}
		out.By = append(out.By, &ir.ByExpression{Kind: "ByExpression", Expression: e, Direction: dir})
	}
	return out
}

// comparable reports whether values of typ are ordered, that is, whether
// Less(typ, typ) resolves.
func (t *translator) comparable(n ast.Node, typ cql.Type) bool {
	call := resolve.CallContext{Library: resolve.SystemLibrary, Name: "Less", Args: []cql.Type{typ, typ}}
	if _, err := t.resolver.Resolve(call, true); err != nil {
		t.error(n, fmt.Errorf("Type %s cannot be used as a sort key because it has no ordering.", typ))
		return false
	}
	return true
}
