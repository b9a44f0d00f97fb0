package optimizer_test

import (
	"testing"

	"github.com/brimdata/cql"
	"github.com/brimdata/cql/compiler/ir"
	"github.com/brimdata/cql/compiler/optimizer"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var typeCmp = cmp.Comparer(func(a, b cql.Type) bool { return a == b })

func prop(alias, path string, typ cql.Type) *ir.Property {
	return &ir.Property{Kind: "Property", Node: ir.Typed(typ), Scope: alias, Path: path}
}

func and(a, b ir.Expr) ir.Expr {
	return ir.NewCall("And", cql.TypeBoolean, a, b)
}

func date(s string) ir.Expr {
	return ir.NewLiteral(cql.TypeDateTime, s)
}

// promoted is the shape resolution gives "x in @date": the date is promoted
// to a one element list.
func promoted(tctx *cql.Context, e ir.Expr) ir.Expr {
	return &ir.List{Kind: "List", Node: ir.Typed(tctx.LookupTypeList(cql.TypeDateTime)), Elements: []ir.Expr{e}}
}

func status(alias string) ir.Expr {
	return ir.NewCall("Equal", cql.TypeBoolean, prop(alias, "status", cql.TypeString), ir.NewLiteral(cql.TypeString, "completed"))
}

func retrieve() *ir.Retrieve {
	return &ir.Retrieve{Kind: "Retrieve", DataType: cql.TypeAny}
}

func TestConjunctionRewrite(t *testing.T) {
	tctx := cql.NewContext()
	d := date("2020-01-01")
	in := ir.NewCall("In", cql.TypeBoolean, prop("O", "effective", cql.TypeDateTime), promoted(tctx, d))
	where := and(in, status("O"))
	r := retrieve()
	rest, ok := optimizer.DateRange(where, "O", r)
	require.True(t, ok)
	assert.Equal(t, "effective", r.DateProperty)
	assert.Same(t, d, r.DateRange)
	assert.Empty(t, cmp.Diff(status("O"), rest, typeCmp))
	// The input tree is unchanged.
	assert.Same(t, in, where.(*ir.Call).Operands[0])

	again, ok := optimizer.DateRange(rest, "O", r)
	assert.False(t, ok)
	assert.Same(t, rest, again)
	assert.Same(t, d, r.DateRange)
}

func TestSinglePredicateRewrite(t *testing.T) {
	tctx := cql.NewContext()
	period := tctx.LookupTypeInterval(cql.TypeDateTime)
	rng := &ir.Interval{Kind: "Interval", Node: ir.Typed(period), Low: date("2020-01-01"), LowClosed: true, High: date("2021-01-01")}
	where := ir.NewCall("IncludedIn", cql.TypeBoolean, prop("E", "period", period), rng)
	r := retrieve()
	rest, ok := optimizer.DateRange(where, "E", r)
	require.True(t, ok)
	assert.Nil(t, rest)
	assert.Equal(t, "period", r.DateProperty)
	assert.Same(t, rng, r.DateRange)
}

func TestTrueConjunctsDropped(t *testing.T) {
	tctx := cql.NewContext()
	in := ir.NewCall("In", cql.TypeBoolean, prop("O", "effective", cql.TypeDateTime), promoted(tctx, date("2020-01-01")))

	rest, ok := optimizer.DateRange(and(ir.NewBool(true), in), "O", retrieve())
	require.True(t, ok)
	assert.Nil(t, rest)

	rest, ok = optimizer.DateRange(and(and(in, ir.NewBool(true)), status("O")), "O", retrieve())
	require.True(t, ok)
	assert.Empty(t, cmp.Diff(status("O"), rest, typeCmp))

	rest, ok = optimizer.DateRange(and(status("O"), and(ir.NewBool(true), in)), "O", retrieve())
	require.True(t, ok)
	assert.Empty(t, cmp.Diff(status("O"), rest, typeCmp))
}

func TestNestedConjunction(t *testing.T) {
	tctx := cql.NewContext()
	a := ir.NewCall("Not", cql.TypeBoolean, ir.NewBool(false))
	nested := &ir.Property{
		Kind:   "Property",
		Node:   ir.Typed(cql.TypeDateTime),
		Source: prop("O", "issued", cql.TypeAny),
		Path:   "instant",
	}
	in := ir.NewCall("In", cql.TypeBoolean, nested, promoted(tctx, date("2020")))
	where := and(a, and(status("O"), in))
	r := retrieve()
	rest, ok := optimizer.DateRange(where, "O", r)
	require.True(t, ok)
	assert.Equal(t, "issued.instant", r.DateProperty)
	assert.Empty(t, cmp.Diff(and(a, status("O")), rest, typeCmp))
}

func TestFirstMatchOnly(t *testing.T) {
	tctx := cql.NewContext()
	first := ir.NewCall("In", cql.TypeBoolean, prop("O", "effective", cql.TypeDateTime), promoted(tctx, date("2020")))
	second := ir.NewCall("In", cql.TypeBoolean, prop("O", "issued", cql.TypeDateTime), promoted(tctx, date("2021")))
	r := retrieve()
	rest, ok := optimizer.DateRange(and(first, second), "O", r)
	require.True(t, ok)
	assert.Equal(t, "effective", r.DateProperty)
	assert.Same(t, second, rest)
}

func TestIneligiblePredicates(t *testing.T) {
	tctx := cql.NewContext()
	cases := map[string]ir.Expr{
		"other alias": ir.NewCall("In", cql.TypeBoolean, prop("X", "effective", cql.TypeDateTime), promoted(tctx, date("2020"))),
		"not a date":  ir.NewCall("In", cql.TypeBoolean, prop("O", "status", cql.TypeString), promoted(tctx, ir.NewLiteral(cql.TypeString, "a"))),
		"or":          ir.NewCall("Or", cql.TypeBoolean, ir.NewCall("In", cql.TypeBoolean, prop("O", "effective", cql.TypeDateTime), promoted(tctx, date("2020"))), status("O")),
		"precision": &ir.Call{
			Kind:      "Call",
			Node:      ir.Typed(cql.TypeBoolean),
			Name:      "In",
			Operands:  []ir.Expr{prop("O", "effective", cql.TypeDateTime), promoted(tctx, date("2020"))},
			Precision: "day",
		},
	}
	for name, where := range cases {
		t.Run(name, func(t *testing.T) {
			r := retrieve()
			rest, ok := optimizer.DateRange(where, "O", r)
			assert.False(t, ok)
			assert.Same(t, where, rest)
			assert.Nil(t, r.DateRange)
		})
	}
	r := retrieve()
	r.DateRange = date("2019")
	where := ir.NewCall("In", cql.TypeBoolean, prop("O", "effective", cql.TypeDateTime), promoted(tctx, date("2020")))
	_, ok := optimizer.DateRange(where, "O", r)
	assert.False(t, ok)
}

func TestOptimizeLibrary(t *testing.T) {
	tctx := cql.NewContext()
	r := retrieve()
	q := &ir.Query{
		Kind:    "Query",
		Sources: []*ir.AliasedSource{{Alias: "O", Expression: r}},
		Where:   and(ir.NewCall("In", cql.TypeBoolean, prop("O", "effective", cql.TypeDateTime), promoted(tctx, date("2020"))), status("O")),
	}
	lib := &ir.Library{Statements: []ir.Def{&ir.ExpressionDef{Kind: "ExpressionDef", Name: "Obs", Expression: q}}}
	o := optimizer.New(nil)
	assert.Equal(t, 1, o.Library(lib))
	assert.Equal(t, "effective", r.DateProperty)
	assert.Empty(t, cmp.Diff(status("O"), q.Where, typeCmp))
	assert.Equal(t, 0, o.Library(lib))
}
