package semantic_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/brimdata/cql"
	"github.com/brimdata/cql/compiler/ir"
	"github.com/brimdata/cql/compiler/parser"
	"github.com/brimdata/cql/compiler/resolve"
	"github.com/brimdata/cql/compiler/semantic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv(opts ...func(*semantic.Options)) *semantic.Environment {
	o := semantic.DefaultOptions()
	for _, f := range opts {
		f(&o)
	}
	return semantic.NewEnvironment(o)
}

func analyze(t *testing.T, env *semantic.Environment, src string) (*semantic.Unit, error) {
	t.Helper()
	p, err := parser.ParseLibrary("", src)
	require.NoError(t, err)
	u, err := semantic.Analyze(p, env)
	require.NotNil(t, u)
	return u, err
}

func mustAnalyze(t *testing.T, env *semantic.Environment, src string) *semantic.Unit {
	t.Helper()
	u, err := analyze(t, env, src)
	require.NoError(t, err)
	return u
}

func exprDef(t *testing.T, u *semantic.Unit, name string) *ir.ExpressionDef {
	t.Helper()
	for _, d := range u.Definitions {
		if def, ok := d.(*ir.ExpressionDef); ok && def.Name == name {
			return def
		}
	}
	require.FailNow(t, "definition not found", name)
	return nil
}

func modelType(t *testing.T, env *semantic.Environment, name string) *cql.TypeNamed {
	t.Helper()
	m, err := env.Models.Load("Simple", "")
	require.NoError(t, err)
	typ := m.LookupType(name)
	require.NotNil(t, typ, name)
	return typ
}

// libraries resolves includes from units compiled earlier in a test.
type libraries map[string]*semantic.Unit

func (l libraries) Library(path, version string) (*semantic.Unit, error) {
	u, ok := l[path]
	if !ok {
		return nil, fmt.Errorf("Could not load source for library %s, version %s.", path, version)
	}
	return u, nil
}

func TestIntegerPlusDecimal(t *testing.T) {
	u := mustAnalyze(t, newEnv(), "define X: 3 + 4.5")
	def := exprDef(t, u, "X")
	assert.Same(t, cql.TypeDecimal, def.Type)
	add, ok := def.Expression.(*ir.Call)
	require.True(t, ok)
	assert.Equal(t, "Add", add.Name)
	require.Len(t, add.Operands, 2)
	conv, ok := add.Operands[0].(*ir.Call)
	require.True(t, ok)
	assert.Equal(t, "ToDecimal", conv.Name)
	assert.Same(t, cql.TypeDecimal, conv.Type)
	assert.Empty(t, add.Signature)
}

func TestSignatureLevelAll(t *testing.T) {
	env := newEnv(func(o *semantic.Options) { o.SignatureLevel = semantic.SignatureAll })
	u := mustAnalyze(t, env, "define X: 3 + 4.5")
	add := exprDef(t, u, "X").Expression.(*ir.Call)
	assert.Equal(t, []cql.Type{cql.TypeDecimal, cql.TypeDecimal}, add.Signature)
}

func TestForwardFunctionReference(t *testing.T) {
	u := mustAnalyze(t, newEnv(), `define X: Double(2)
define function Double(x Integer): x * 2
`)
	def := exprDef(t, u, "X")
	ref, ok := def.Expression.(*ir.FunctionRef)
	require.True(t, ok)
	assert.Equal(t, "Double", ref.Name)
	assert.Empty(t, ref.LibraryName)
	assert.Same(t, cql.TypeInteger, def.Type)

	require.Len(t, u.Definitions, 2)
	fn, ok := u.Definitions[1].(*ir.FunctionDef)
	require.True(t, ok)
	require.Len(t, fn.Operands, 1)
	assert.Equal(t, "x", fn.Operands[0].Name)
	_, ok = fn.Expression.(*ir.Call).Operands[0].(*ir.OperandRef)
	assert.True(t, ok)
}

func TestRecursiveFunction(t *testing.T) {
	u := mustAnalyze(t, newEnv(), `define function Fact(n Integer) returns Integer:
  if n <= 1 then 1 else n * Fact(n - 1)
define X: Fact(5)
`)
	assert.Same(t, cql.TypeInteger, exprDef(t, u, "X").Type)
}

func TestDefinitionCycle(t *testing.T) {
	_, err := analyze(t, newEnv(), `define A: B
define B: A
`)
	require.Error(t, err)
	var cycle *semantic.CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"A", "B", "A"}, cycle.Path)
	assert.Contains(t, err.Error(), "Circular reference: A -> B -> A")
}

func TestFunctionCycleWithoutReturnType(t *testing.T) {
	_, err := analyze(t, newEnv(), "define function Loop(n Integer): Loop(n)")
	var cycle *semantic.CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"Loop", "Loop"}, cycle.Path)
}

func TestDuplicateDefinition(t *testing.T) {
	u, err := analyze(t, newEnv(), `define A: 1
define A: 'two'
`)
	var dup *semantic.DuplicateError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "A", dup.Name)
	require.Len(t, u.Errors(), 1)
	assert.Same(t, cql.TypeInteger, exprDef(t, u, "A").Type)
	assert.Len(t, u.Definitions, 1)
}

func TestDuplicateFunctionSignature(t *testing.T) {
	_, err := analyze(t, newEnv(), `define function F(x Integer): x
define function F(y Integer): y + 1
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Function F with signature")
}

func TestFunctionOverloads(t *testing.T) {
	u := mustAnalyze(t, newEnv(), `define function F(x Integer): x
define function F(x String): x
define A: F(1)
define B: F('b')
`)
	assert.Same(t, cql.TypeInteger, exprDef(t, u, "A").Type)
	assert.Same(t, cql.TypeString, exprDef(t, u, "B").Type)
	sym, ok := u.Symbol("F")
	require.True(t, ok)
	assert.Equal(t, semantic.SymbolFunction, sym.Kind)
	assert.Len(t, sym.Signatures, 2)
}

func TestUnresolvedIdentifierSuggestion(t *testing.T) {
	_, err := analyze(t, newEnv(), `define Alpha: 1
define Beta: Alphx
`)
	var ident *semantic.IdentifierError
	require.True(t, errors.As(err, &ident))
	assert.Equal(t, "Alphx", ident.Name)
	assert.Equal(t, "Alpha", ident.Suggestion)
	assert.Contains(t, err.Error(), "Could not resolve identifier Alphx in the current library. Did you mean Alpha?")
}

func TestPrivateDefinitionAcrossLibraries(t *testing.T) {
	env := newEnv()
	common := mustAnalyze(t, env, `library Common
define private Helper: 1
define Shared: Helper + 1
`)
	assert.Equal(t, "Common", common.Name)
	env.Libraries = libraries{"Common": common}

	u, err := analyze(t, env, `library Main
include Common called C
define X: Helper
define Y: C.Helper
define Z: C.Shared
`)
	require.Error(t, err)
	errs := u.Errors()
	require.Len(t, errs, 2)

	var ident *semantic.IdentifierError
	require.True(t, errors.As(errs[0], &ident))
	assert.Equal(t, "Helper", ident.Name)

	var access *resolve.AccessError
	require.True(t, errors.As(errs[1], &access))
	assert.Contains(t, errs[1].Msg, "is marked private")

	z := exprDef(t, u, "Z")
	ref, ok := z.Expression.(*ir.ExpressionRef)
	require.True(t, ok)
	assert.Equal(t, "Shared", ref.Name)
	assert.Equal(t, "C", ref.LibraryName)
	assert.Same(t, cql.TypeInteger, z.Type)
}

func TestQualifiedFunctionCall(t *testing.T) {
	env := newEnv()
	common := mustAnalyze(t, env, `library Common
define function Twice(s String): s + s
`)
	env.Libraries = libraries{"Common": common}
	u := mustAnalyze(t, env, `library Main
include Common
define X: Common.Twice('a')
`)
	ref, ok := exprDef(t, u, "X").Expression.(*ir.FunctionRef)
	require.True(t, ok)
	assert.Equal(t, "Twice", ref.Name)
	assert.Equal(t, "Common", ref.LibraryName)
	require.Len(t, u.Library.Includes, 1)
	assert.Equal(t, "Common", u.Library.Includes[0].LocalIdentifier)
}

func TestMissingLibraryResolver(t *testing.T) {
	_, err := analyze(t, newEnv(), "include Common version '1.0'")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not load source for library Common, version 1.0.")
}

func TestDefaultReturnOfMultiSourceQuery(t *testing.T) {
	env := newEnv()
	u := mustAnalyze(t, env, `using Simple version '1.0.0'
define Q: from [Encounter] E, [Condition] C
`)
	q, ok := exprDef(t, u, "Q").Expression.(*ir.Query)
	require.True(t, ok)
	require.NotNil(t, q.Return)
	assert.True(t, q.Return.Distinct)
	tuple, ok := q.Return.Expression.(*ir.Tuple)
	require.True(t, ok)
	require.Len(t, tuple.Elements, 2)
	assert.Equal(t, "E", tuple.Elements[0].Name)
	assert.Equal(t, "C", tuple.Elements[1].Name)
	e, ok := tuple.Elements[0].Value.(*ir.AliasRef)
	require.True(t, ok)
	assert.Same(t, modelType(t, env, "Encounter"), e.Type)

	elem, ok := cql.ListElem(q.Type)
	require.True(t, ok)
	assert.Same(t, tuple.Type, elem)
	assert.Len(t, u.Retrieves, 2)
}

func TestDateRangeOptimization(t *testing.T) {
	env := newEnv(func(o *semantic.Options) { o.DateRangeOptimization = true })
	u := mustAnalyze(t, env, `using Simple version '1.0.0'
context Patient
define Q: [Observation] O where O.effective included in @2020-01-01 and O.status = 'completed'
`)
	q, ok := exprDef(t, u, "Q").Expression.(*ir.Query)
	require.True(t, ok)
	r, ok := q.Sources[0].Expression.(*ir.Retrieve)
	require.True(t, ok)
	assert.Same(t, modelType(t, env, "Observation"), r.DataType)
	assert.Equal(t, "effective", r.DateProperty)
	lit, ok := r.DateRange.(*ir.Literal)
	require.True(t, ok)
	assert.Equal(t, "2020-01-01", lit.Value)
	assert.Equal(t, "Day", lit.Precision)

	where, ok := q.Where.(*ir.Call)
	require.True(t, ok)
	assert.Equal(t, "Equal", where.Name)
}

func TestDateRangeOptimizationDisabled(t *testing.T) {
	u := mustAnalyze(t, newEnv(), `using Simple version '1.0.0'
define Q: [Observation] O where O.effective included in @2020-01-01
`)
	q := exprDef(t, u, "Q").Expression.(*ir.Query)
	r := q.Sources[0].Expression.(*ir.Retrieve)
	assert.Empty(t, r.DateProperty)
	assert.Nil(t, r.DateRange)
	in, ok := q.Where.(*ir.Call)
	require.True(t, ok)
	assert.Equal(t, "In", in.Name)
	_, ok = in.Operands[1].(*ir.List)
	assert.True(t, ok)
}

func TestImplicitPatientDefinition(t *testing.T) {
	env := newEnv()
	u := mustAnalyze(t, env, `using Simple version '1.0.0'
context Patient
define Birth: Patient.birthDate
context Population
define Births: Birth
`)
	patient := exprDef(t, u, "Patient")
	assert.Equal(t, semantic.Patient, patient.Context)
	single, ok := patient.Expression.(*ir.Call)
	require.True(t, ok)
	assert.Equal(t, "SingletonFrom", single.Name)
	assert.Same(t, modelType(t, env, "Patient"), patient.Type)

	assert.Same(t, cql.TypeDateTime, exprDef(t, u, "Birth").Type)
	births := exprDef(t, u, "Births")
	assert.Equal(t, semantic.Population, births.Context)
	assert.Same(t, env.Context.LookupTypeList(cql.TypeDateTime), births.Type)
	require.Len(t, u.Library.Contexts, 2)
}

func TestImplicitPatientWithoutModel(t *testing.T) {
	u := mustAnalyze(t, newEnv(), `context Patient
define X: Patient
`)
	_, ok := exprDef(t, u, "Patient").Expression.(*ir.Null)
	assert.True(t, ok)
	assert.Empty(t, u.Retrieves)
}

func TestRetrieveTerminology(t *testing.T) {
	u := mustAnalyze(t, newEnv(), `using Simple version '1.0.0'
codesystem "LOINC": 'http://loinc.org'
valueset "Glucose Tests": 'urn:oid:1.2.3'
code "Glucose": '2345-7' from "LOINC"
define ByValueSet: [Observation: "Glucose Tests"]
define ByCode: [Observation: "Glucose"]
`)
	r := exprDef(t, u, "ByValueSet").Expression.(*ir.Retrieve)
	assert.Equal(t, "code", r.CodeProperty)
	assert.Equal(t, "in", r.CodeComparator)
	_, ok := r.Codes.(*ir.ValueSetRef)
	assert.True(t, ok)

	r = exprDef(t, u, "ByCode").Expression.(*ir.Retrieve)
	assert.Equal(t, "~", r.CodeComparator)
	_, ok = r.Codes.(*ir.CodeRef)
	assert.True(t, ok)

	require.Len(t, u.Library.Codes, 1)
	assert.Equal(t, "LOINC", u.Library.Codes[0].CodeSystem.Name)
}

func TestRetrieveNonRetrievableType(t *testing.T) {
	_, err := analyze(t, newEnv(), `using Simple version '1.0.0'
define X: [Diagnosis]
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support retrieval.")
}

func TestLiteralErrors(t *testing.T) {
	tests := []struct {
		src string
		msg string
	}{
		{"@2020-13-01", "Invalid date-time input (2020-13-01)."},
		{"@2021-02-29", "Invalid date-time input (2021-02-29)."},
		{"@T24:00", "Invalid time input (24:00)."},
		{"2147483648", "Integer literal 2147483648 is out of range."},
	}
	for _, tc := range tests {
		_, err := analyze(t, newEnv(), "define X: "+tc.src)
		require.Error(t, err, "source: %q", tc.src)
		assert.Contains(t, err.Error(), tc.msg, "source: %q", tc.src)
	}
	u := mustAnalyze(t, newEnv(), "define Min: -2147483648")
	lit, ok := exprDef(t, u, "Min").Expression.(*ir.Literal)
	require.True(t, ok)
	assert.Equal(t, "-2147483648", lit.Value)

	_, err := analyze(t, newEnv(), "define X: @2020-13-01")
	var lerr *semantic.LiteralError
	require.True(t, errors.As(err, &lerr))
	assert.EqualError(t, lerr.Err, "Invalid month in date/time literal (2020-13-01).")
}

func TestConditionTypeError(t *testing.T) {
	_, err := analyze(t, newEnv(), "define X: if 1 then 2 else 3")
	var terr *semantic.TypeError
	require.True(t, errors.As(err, &terr))
	assert.Same(t, cql.TypeBoolean, terr.Expected)
	assert.Same(t, cql.TypeInteger, terr.Found)
}

func TestJoinFailureIsOneDiagnostic(t *testing.T) {
	for _, src := range []string{
		"define X: (if true then 1 else 'a') + 'b'",
		"define X: (case when true then 1 else 'a' end) + 'b'",
		"define X: (case 1 when 'a' then 2 else 3 end) + 'b'",
		"define X: Interval[1, 'a'] + 'b'",
	} {
		u, err := analyze(t, newEnv(), src)
		require.Error(t, err, src)
		errs := u.Errors()
		require.Len(t, errs, 1, src)
		assert.Contains(t, errs[0].Msg, "Expected an expression of type", src)

		u, err = analyze(t, newEnv(func(o *semantic.Options) { o.DetailedErrors = true }), src)
		require.Error(t, err, src)
		errs = u.Errors()
		require.Len(t, errs, 1, src)
		require.Error(t, errs[0].Cause, src)
		assert.Contains(t, errs[0].Cause.Error(), "Could not resolve call to operator Add", src)
	}
}

func TestSortInSingularQuery(t *testing.T) {
	_, err := analyze(t, newEnv(), `using Simple version '1.0.0'
context Patient
define S: Patient P sort by birthDate
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sort clause cannot be used in a singular query.")
}

func TestSortByColumn(t *testing.T) {
	u := mustAnalyze(t, newEnv(), `using Simple version '1.0.0'
define S: [Observation] O sort by issued desc
`)
	q := exprDef(t, u, "S").Expression.(*ir.Query)
	require.NotNil(t, q.Sort)
	require.Len(t, q.Sort.By, 1)
	col, ok := q.Sort.By[0].(*ir.ByColumn)
	require.True(t, ok)
	assert.Equal(t, "issued", col.Path)
	assert.Equal(t, ir.Desc, col.Direction)
}

func TestSortByProhibitedColumn(t *testing.T) {
	u, err := analyze(t, newEnv(), `using Simple version '1.0.0'
define S: [Observation] O sort by meta
`)
	var perr *cql.PropertyError
	require.True(t, errors.As(err, &perr))
	assert.True(t, perr.Prohibited)
	errs := u.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "Element meta cannot be referenced because it is marked prohibited in type Simple.Observation.", errs[0].Msg)
}

func TestSetOperatorChoiceCast(t *testing.T) {
	u := mustAnalyze(t, newEnv(), "define U: {1, 2} union {'a'}")
	union, ok := exprDef(t, u, "U").Expression.(*ir.Call)
	require.True(t, ok)
	assert.Equal(t, "Union", union.Name)
	for _, operand := range union.Operands {
		_, ok := operand.(*ir.As)
		assert.True(t, ok)
	}
}

func TestLocators(t *testing.T) {
	env := newEnv(func(o *semantic.Options) { o.Locators = true })
	u := mustAnalyze(t, env, "define X: 1 + 2")
	add := exprDef(t, u, "X").Expression
	assert.NotEmpty(t, add.Header().LocalID)
	assert.Equal(t, "1:11-1:15", add.Header().Locator)
}

func TestRequireFromKeyword(t *testing.T) {
	env := newEnv(func(o *semantic.Options) { o.RequireFromKeyword = true })
	_, err := analyze(t, env, `using Simple version '1.0.0'
define Q: [Observation] O
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "The from keyword is required for queries.")
}

func TestMethodInvocation(t *testing.T) {
	src := `define function Twice(s String): s + s
define fluent function Thrice(s String): s + s + s
define A: 'x'.Thrice()
define B: 'x'.Twice()
`
	u, err := analyze(t, newEnv(), src)
	require.Error(t, err)
	require.Len(t, u.Errors(), 1)
	assert.Contains(t, err.Error(), "Function Twice is not fluent and cannot be invoked as a method.")
	ref, ok := exprDef(t, u, "A").Expression.(*ir.FunctionRef)
	require.True(t, ok)
	assert.Equal(t, "Thrice", ref.Name)

	env := newEnv(func(o *semantic.Options) { o.MethodInvocation = false })
	_, err = analyze(t, env, "define A: 'x'.Length()")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method invocation is disabled")
}
