package parser_test

import (
	"errors"
	"testing"

	"github.com/brimdata/cql/compiler/ast"
	"github.com/brimdata/cql/compiler/parser"
	"github.com/brimdata/cql/compiler/srcfiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	p, err := parser.ParseLibrary("", "define X: "+src)
	require.NoError(t, err, "source: %q", src)
	stmts := p.Parsed().Statements
	require.Len(t, stmts, 1)
	def, ok := stmts[0].(*ast.ExpressionDef)
	require.True(t, ok)
	return def.Expr
}

func TestLibraryHeader(t *testing.T) {
	const src = `library Example.Measures version '1.0.0'
using Simple version '1.0.0'
include Common version '2' called C
codesystem "LOINC": 'http://loinc.org'
valueset "Diabetes": 'urn:oid:1.2.3' codesystems { "LOINC" }
code "Glucose": '2345-7' from "LOINC" display 'Glucose'
concept "Sugar": { "Glucose" } display 'Sugar'
parameter MeasurementPeriod Interval<DateTime>
context Patient
define private "Initial Population": true
define fluent function Double(x Integer) returns Integer: x * 2
define function Ext(x String) returns String: external
`
	p, err := parser.ParseLibrary("example.cql", src)
	require.NoError(t, err)
	lib := p.Parsed()
	assert.Equal(t, "Example.Measures", lib.Name.Name)
	assert.Equal(t, "1.0.0", lib.Version)
	require.Len(t, lib.Statements, 11)

	using := lib.Statements[0].(*ast.UsingDef)
	assert.Equal(t, "Simple", using.Model.Name)
	assert.Equal(t, "1.0.0", using.Version)

	include := lib.Statements[1].(*ast.IncludeDef)
	assert.Equal(t, "Common", include.Path.Name)
	assert.Equal(t, "C", include.Alias.Name)

	cs := lib.Statements[2].(*ast.CodeSystemDef)
	assert.Equal(t, "LOINC", cs.Name.Name)
	assert.Equal(t, "http://loinc.org", cs.URI)

	vs := lib.Statements[3].(*ast.ValueSetDef)
	require.Len(t, vs.CodeSystems, 1)
	assert.Equal(t, "LOINC", vs.CodeSystems[0].Name)

	code := lib.Statements[4].(*ast.CodeDef)
	assert.Equal(t, "2345-7", code.Code)
	assert.Equal(t, "Glucose", code.Display)

	param := lib.Statements[6].(*ast.ParameterDef)
	ival, ok := param.Type.(*ast.IntervalType)
	require.True(t, ok)
	assert.Equal(t, "DateTime", ival.Point.(*ast.NamedType).Name)

	def := lib.Statements[8].(*ast.ExpressionDef)
	assert.Equal(t, ast.Private, def.Access)
	assert.Equal(t, "Initial Population", def.Name.Name)

	fn := lib.Statements[9].(*ast.FunctionDef)
	assert.True(t, fn.Fluent)
	require.Len(t, fn.Operands, 1)
	assert.Equal(t, "x", fn.Operands[0].Name.Name)
	assert.NotNil(t, fn.Returns)

	ext := lib.Statements[10].(*ast.FunctionDef)
	assert.True(t, ext.External)
	assert.Nil(t, ext.Body)
}

func TestPrecedence(t *testing.T) {
	e := parseExpr(t, "1 + 2 * 3")
	add, ok := e.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "+", add.Op)
	mul, ok := add.RHS.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Op)

	e = parseExpr(t, "A or B and C")
	or := e.(*ast.Binary)
	assert.Equal(t, "or", or.Op)
	assert.Equal(t, "and", or.RHS.(*ast.Binary).Op)

	e = parseExpr(t, "1 - 2 - 3")
	sub := e.(*ast.Binary)
	assert.Equal(t, "-", sub.LHS.(*ast.Binary).Op)
	assert.Equal(t, "3", sub.RHS.(*ast.Literal).Text)
}

func TestConvert(t *testing.T) {
	conv, ok := parseExpr(t, "convert '5' to Integer").(*ast.Convert)
	require.True(t, ok)
	assert.Equal(t, "5", conv.Expr.(*ast.Literal).Text)
	assert.Equal(t, "Integer", conv.Type.(*ast.NamedType).Name)

	conv, ok = parseExpr(t, "convert X to List<String>").(*ast.Convert)
	require.True(t, ok)
	list, ok := conv.Type.(*ast.ListType)
	require.True(t, ok)
	assert.Equal(t, "String", list.Elem.(*ast.NamedType).Name)
}

func TestLiterals(t *testing.T) {
	tests := []struct {
		src  string
		typ  string
		text string
	}{
		{"42", ast.LitInteger, "42"},
		{"4.5", ast.LitDecimal, "4.5"},
		{`'it\'s'`, ast.LitString, "it's"},
		{"true", ast.LitBoolean, "true"},
		{"null", ast.LitNull, "null"},
		{"@2014-01-25T14:30:14.559", ast.LitDateTime, "2014-01-25T14:30:14.559"},
		{"@2014", ast.LitDateTime, "2014"},
		{"@T12:00", ast.LitTime, "12:00"},
	}
	for _, tc := range tests {
		lit, ok := parseExpr(t, tc.src).(*ast.Literal)
		require.True(t, ok, "source: %q", tc.src)
		assert.Equal(t, tc.typ, lit.Type, "source: %q", tc.src)
		assert.Equal(t, tc.text, lit.Text, "source: %q", tc.src)
	}
}

func TestQuantity(t *testing.T) {
	q, ok := parseExpr(t, "5 'mg'").(*ast.Quantity)
	require.True(t, ok)
	assert.Equal(t, "5", q.Value)
	assert.Equal(t, "mg", q.Unit)

	q, ok = parseExpr(t, "3 days").(*ast.Quantity)
	require.True(t, ok)
	assert.Equal(t, "days", q.Unit)
}

func TestQuery(t *testing.T) {
	e := parseExpr(t, `[Encounter: type in "Inpatient"] E
  with [Condition] C such that C.onset during E.period
  where E.status = 'finished'
  return E.period
  sort by start of period desc`)
	q, ok := e.(*ast.Query)
	require.True(t, ok)
	assert.False(t, q.From)
	require.Len(t, q.Sources, 1)
	assert.Equal(t, "E", q.Sources[0].Alias.Name)

	r, ok := q.Sources[0].Expr.(*ast.Retrieve)
	require.True(t, ok)
	assert.Equal(t, "Encounter", r.Type.Name)
	assert.Equal(t, "type", r.CodePath)
	assert.Equal(t, "Inpatient", r.Terminology.(*ast.Identifier).Name)

	require.Len(t, q.Relationships, 1)
	rel := q.Relationships[0]
	assert.False(t, rel.Without)
	timing, ok := rel.SuchThat.(*ast.Timing)
	require.True(t, ok)
	assert.Equal(t, "included in", timing.Phrase.Op)

	assert.NotNil(t, q.Where)
	require.NotNil(t, q.Return)
	require.NotNil(t, q.Sort)
	require.Len(t, q.Sort.Items, 1)
	assert.True(t, q.Sort.Items[0].Desc)
	assert.Equal(t, "start of", q.Sort.Items[0].Expr.(*ast.Unary).Op)
}

func TestMultiSourceQuery(t *testing.T) {
	q, ok := parseExpr(t, "from [Encounter] E, [Condition] C").(*ast.Query)
	require.True(t, ok)
	assert.True(t, q.From)
	require.Len(t, q.Sources, 2)
	assert.Equal(t, "C", q.Sources[1].Alias.Name)
}

func TestTimingPhrases(t *testing.T) {
	tests := []struct {
		src       string
		op        string
		prefix    string
		proper    bool
		precision string
	}{
		{"A same day as B", "same as", "", false, "day"},
		{"A same or before B", "same or before", "", false, ""},
		{"A starts before B", "before", "starts", false, ""},
		{"A properly included in B", "included in", "", true, ""},
		{"A includes day of B", "includes", "", false, "day"},
		{"A overlaps after B", "overlaps after", "", false, ""},
		{"A meets B", "meets", "", false, ""},
	}
	for _, tc := range tests {
		timing, ok := parseExpr(t, tc.src).(*ast.Timing)
		require.True(t, ok, "source: %q", tc.src)
		p := timing.Phrase
		assert.Equal(t, tc.op, p.Op, "source: %q", tc.src)
		assert.Equal(t, tc.prefix, p.Prefix, "source: %q", tc.src)
		assert.Equal(t, tc.proper, p.Proper, "source: %q", tc.src)
		assert.Equal(t, tc.precision, p.Precision, "source: %q", tc.src)
	}
}

func TestSelectors(t *testing.T) {
	ival, ok := parseExpr(t, "Interval[1, 10)").(*ast.IntervalSel)
	require.True(t, ok)
	assert.True(t, ival.LowClosed)
	assert.False(t, ival.HighClosed)

	list, ok := parseExpr(t, "{1, 2, 3}").(*ast.ListSel)
	require.True(t, ok)
	assert.Len(t, list.Elems, 3)

	tuple, ok := parseExpr(t, "Tuple { a: 1, b: 'x' }").(*ast.TupleSel)
	require.True(t, ok)
	require.Len(t, tuple.Elems, 2)
	assert.Equal(t, "b", tuple.Elems[1].Name.Name)

	code, ok := parseExpr(t, `Code '123' from "SNOMED" display 'x'`).(*ast.CodeSel)
	require.True(t, ok)
	assert.Equal(t, "123", code.Code)
	assert.Equal(t, "SNOMED", code.System.Name)
}

func TestQuotedIdentifier(t *testing.T) {
	id, ok := parseExpr(t, `"Inpatient Encounters"`).(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "Inpatient Encounters", id.Name)
}

func TestLocations(t *testing.T) {
	p, err := parser.ParseLibrary("", "define X: 1 + 22")
	require.NoError(t, err)
	def := p.Parsed().Statements[0].(*ast.ExpressionDef)
	assert.Equal(t, 10, def.Expr.Pos())
	assert.Equal(t, 16, def.Expr.End())
}

func TestParseError(t *testing.T) {
	_, err := parser.ParseLibrary("bad.cql", "define X: (1 + ")
	require.Error(t, err)
	var list srcfiles.ErrorList
	require.True(t, errors.As(err, &list))
	require.Len(t, list, 1)
	assert.Contains(t, list[0].Msg, "parse error")
}
