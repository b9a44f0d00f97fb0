package resolve_test

import (
	"testing"

	"github.com/brimdata/cql"
	"github.com/brimdata/cql/compiler/ir"
	"github.com/brimdata/cql/compiler/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultEngineOptions = resolve.EngineOptions{
	ListPromotion: true,
	ListDemotion:  true,
}

type fixture struct {
	tctx     *cql.Context
	system   *resolve.Table
	engine   *resolve.Engine
	resolver *resolve.Resolver
}

func newFixture(t *testing.T, opts resolve.EngineOptions, local *resolve.Table) *fixture {
	tctx := cql.NewContext()
	system := resolve.NewSystem(tctx)
	engine, err := resolve.NewEngine(tctx, opts, system)
	require.NoError(t, err)
	if local == nil {
		local = resolve.NewTable("Test")
	}
	return &fixture{tctx, system, engine, resolve.NewResolver(engine, system, local)}
}

func call(name string, args ...cql.Type) resolve.CallContext {
	return resolve.CallContext{Name: name, Args: args}
}

func TestSystemCatalogBuilds(t *testing.T) {
	f := newFixture(t, defaultEngineOptions, nil)
	assert.True(t, f.system.Frozen())
	assert.NotEmpty(t, f.system.Lookup("Add"))
	err := f.system.Add(&resolve.Operator{Name: "Foo"})
	var frozen *resolve.FrozenError
	assert.ErrorAs(t, err, &frozen)
}

func TestIntegerPlusDecimal(t *testing.T) {
	f := newFixture(t, defaultEngineOptions, nil)
	res, err := f.resolver.Resolve(call("Add", cql.TypeInteger, cql.TypeDecimal), true)
	require.NoError(t, err)
	assert.Equal(t, "System.Add(System.Decimal,System.Decimal)", res.Operator.String())
	assert.Same(t, cql.TypeDecimal, res.Signature.Result)
	require.NotNil(t, res.Conversions[0])
	assert.Equal(t, resolve.OperatorStep, res.Conversions[0].Step)
	assert.Equal(t, "ToDecimal", res.Conversions[0].Operator.Name)
	assert.Nil(t, res.Conversions[1])
	assert.Equal(t, 1, res.Score)
}

func TestIntegerDivide(t *testing.T) {
	f := newFixture(t, defaultEngineOptions, nil)
	res, err := f.resolver.Resolve(call("Divide", cql.TypeInteger, cql.TypeInteger), true)
	require.NoError(t, err)
	assert.Same(t, cql.TypeDecimal, res.Signature.Result)
}

func TestExactMatchWins(t *testing.T) {
	f := newFixture(t, defaultEngineOptions, nil)
	res, err := f.resolver.Resolve(call("Add", cql.TypeInteger, cql.TypeInteger), true)
	require.NoError(t, err)
	assert.True(t, res.Exact)
	assert.Same(t, cql.TypeInteger, res.Signature.Result)
	assert.False(t, res.Converted())
}

func TestResolutionDeterministic(t *testing.T) {
	f := newFixture(t, defaultEngineOptions, nil)
	c := call("Less", cql.TypeInteger, cql.TypeDecimal)
	first, err := f.resolver.Resolve(c, true)
	require.NoError(t, err)
	for range 10 {
		res, err := f.resolver.Resolve(c, true)
		require.NoError(t, err)
		assert.Same(t, first.Operator, res.Operator)
		assert.Equal(t, first.Signature, res.Signature)
	}
}

func TestAmbiguity(t *testing.T) {
	local := resolve.NewTable("Test")
	local.MustAdd(&resolve.Operator{
		Name:      "F",
		Signature: resolve.Signature{Operands: []cql.Type{cql.TypeInteger, cql.TypeDecimal}, Result: cql.TypeBoolean},
	})
	local.MustAdd(&resolve.Operator{
		Name:      "F",
		Signature: resolve.Signature{Operands: []cql.Type{cql.TypeDecimal, cql.TypeInteger}, Result: cql.TypeBoolean},
	})
	f := newFixture(t, defaultEngineOptions, local)
	_, err := f.resolver.Resolve(call("F", cql.TypeInteger, cql.TypeInteger), true)
	var ambiguous *resolve.AmbiguityError
	require.ErrorAs(t, err, &ambiguous)
	assert.EqualError(t, err, "Call to operator F(System.Integer,System.Integer) is ambiguous with: Test.F(System.Integer,System.Decimal) and Test.F(System.Decimal,System.Integer).")
}

func TestDuplicateSignature(t *testing.T) {
	local := resolve.NewTable("Test")
	op := func() *resolve.Operator {
		return &resolve.Operator{
			Name:      "F",
			Signature: resolve.Signature{Operands: []cql.Type{cql.TypeInteger}, Result: cql.TypeInteger},
		}
	}
	require.NoError(t, local.Add(op()))
	err := local.Add(op())
	assert.EqualError(t, err, "Function F with signature (System.Integer) is already defined in this library.")
}

func TestUnresolved(t *testing.T) {
	f := newFixture(t, defaultEngineOptions, nil)
	res, err := f.resolver.Resolve(call("Upper", cql.TypeBoolean), false)
	assert.NoError(t, err)
	assert.Nil(t, res)
	_, err = f.resolver.Resolve(call("Upper", cql.TypeBoolean), true)
	var unresolved *resolve.ResolutionError
	require.ErrorAs(t, err, &unresolved)
	assert.EqualError(t, err, "Could not resolve call to operator Upper with signature (System.Boolean).")
}

func TestLocalShadowsSystem(t *testing.T) {
	local := resolve.NewTable("Test")
	local.MustAdd(&resolve.Operator{
		Name:      "Upper",
		Signature: resolve.Signature{Operands: []cql.Type{cql.TypeString}, Result: cql.TypeInteger},
	})
	f := newFixture(t, defaultEngineOptions, local)
	res, err := f.resolver.Resolve(call("Upper", cql.TypeString), true)
	require.NoError(t, err)
	assert.Equal(t, "Test", res.Operator.Library)
	// Unresolved locally falls through to System.
	res, err = f.resolver.Resolve(call("Lower", cql.TypeString), true)
	require.NoError(t, err)
	assert.True(t, res.Operator.IsSystem())
}

func TestPrivateAccess(t *testing.T) {
	f := newFixture(t, defaultEngineOptions, nil)
	other := resolve.NewTable("Other")
	other.MustAdd(&resolve.Operator{
		Name:      "Helper",
		Access:    resolve.Private,
		Signature: resolve.Signature{Operands: []cql.Type{}, Result: cql.TypeInteger},
	})
	other.MustAdd(&resolve.Operator{
		Name:      "Shared",
		Signature: resolve.Signature{Operands: []cql.Type{}, Result: cql.TypeInteger},
	})
	other.Freeze()
	f.resolver.Includes["O"] = other

	_, err := f.resolver.Resolve(resolve.CallContext{Library: "O", Name: "Helper"}, true)
	var access *resolve.AccessError
	require.ErrorAs(t, err, &access)
	assert.EqualError(t, err, "Object Helper in library Other is marked private and cannot be referenced from another library.")

	res, err := f.resolver.Resolve(resolve.CallContext{Library: "O", Name: "Shared"}, true)
	require.NoError(t, err)
	assert.Equal(t, "Other", res.Operator.Library)

	// Unqualified references never reach into included libraries.
	_, err = f.resolver.Resolve(call("Helper"), true)
	var unresolved *resolve.ResolutionError
	assert.ErrorAs(t, err, &unresolved)

	_, err = f.resolver.Resolve(resolve.CallContext{Library: "Nope", Name: "Shared"}, true)
	assert.EqualError(t, err, "Could not resolve library name Nope.")
}

func TestGenericBinding(t *testing.T) {
	f := newFixture(t, defaultEngineOptions, nil)
	res, err := f.resolver.Resolve(call("Equal", cql.TypeInteger, cql.TypeDecimal), true)
	require.NoError(t, err)
	assert.Equal(t, "(System.Decimal,System.Decimal)", res.Signature.String())
	assert.Same(t, cql.TypeBoolean, res.Signature.Result)

	res, err = f.resolver.Resolve(call("In", cql.TypeDateTime, cql.TypeDateTime), true)
	require.NoError(t, err)
	assert.Equal(t, "(System.DateTime,List<System.DateTime>)", res.Signature.String())
	assert.Equal(t, resolve.ListPromotion, res.Conversions[1].Step)

	ival := f.tctx.LookupTypeInterval(cql.TypeDateTime)
	res, err = f.resolver.Resolve(call("In", cql.TypeDateTime, ival), true)
	require.NoError(t, err)
	assert.True(t, res.Exact)

	res, err = f.resolver.Resolve(call("SingletonFrom", f.tctx.LookupTypeList(cql.TypeString)), true)
	require.NoError(t, err)
	assert.Same(t, cql.TypeString, res.Signature.Result)

	res, err = f.resolver.Resolve(call("Avg", f.tctx.LookupTypeList(cql.TypeInteger)), true)
	require.NoError(t, err)
	assert.Same(t, cql.TypeDecimal, res.Signature.Result)
	assert.Equal(t, resolve.ListElement, res.Conversions[0].Step)
}

func TestIdentityConversion(t *testing.T) {
	f := newFixture(t, defaultEngineOptions, nil)
	types := []cql.Type{
		cql.TypeInteger,
		cql.TypeCode,
		f.tctx.LookupTypeList(cql.TypeString),
		f.tctx.LookupTypeInterval(cql.TypeDateTime),
	}
	for _, typ := range types {
		for _, implicit := range []bool{true, false} {
			c := f.engine.FindConversion(typ, typ, implicit)
			require.NotNil(t, c)
			assert.True(t, c.IsIdentity())
			lit := ir.NewNull(typ)
			assert.Same(t, lit, f.engine.Apply(lit, c))
		}
	}
}

func TestPromotionDemotionRoundTrip(t *testing.T) {
	f := newFixture(t, defaultEngineOptions, nil)
	list := f.tctx.LookupTypeList(cql.TypeInteger)
	x := ir.NewLiteral(cql.TypeInteger, "7")

	promote := f.engine.FindConversion(cql.TypeInteger, list, true)
	require.NotNil(t, promote)
	assert.Equal(t, resolve.ListPromotion, promote.Step)
	promoted := f.engine.Apply(x, promote)
	assert.Same(t, list, ir.TypeOf(promoted))

	demote := f.engine.FindConversion(list, cql.TypeInteger, true)
	require.NotNil(t, demote)
	assert.Equal(t, resolve.ListDemotion, demote.Step)
	demoted := f.engine.Apply(promoted, demote)
	assert.Same(t, cql.TypeInteger, ir.TypeOf(demoted))

	singleton, ok := demoted.(*ir.Call)
	require.True(t, ok)
	assert.Equal(t, "SingletonFrom", singleton.Name)
	inner, ok := singleton.Operands[0].(*ir.List)
	require.True(t, ok)
	assert.Equal(t, []ir.Expr{x}, inner.Elements)
	// The input is never modified.
	assert.Equal(t, "7", x.Value)
	assert.Same(t, cql.TypeInteger, x.Type)
}

func TestPromotionDisabled(t *testing.T) {
	f := newFixture(t, resolve.EngineOptions{}, nil)
	assert.Nil(t, f.engine.FindConversion(cql.TypeInteger, f.tctx.LookupTypeList(cql.TypeInteger), true))
	assert.Nil(t, f.engine.FindConversion(f.tctx.LookupTypeList(cql.TypeInteger), cql.TypeInteger, true))
}

func TestIntervalPromotion(t *testing.T) {
	ival := func(f *fixture) cql.Type { return f.tctx.LookupTypeInterval(cql.TypeInteger) }
	off := newFixture(t, defaultEngineOptions, nil)
	assert.Nil(t, off.engine.FindConversion(cql.TypeInteger, ival(off), true))
	on := newFixture(t, resolve.EngineOptions{IntervalPromotion: true, IntervalDemotion: true}, nil)
	c := on.engine.FindConversion(cql.TypeInteger, ival(on), true)
	require.NotNil(t, c)
	assert.Equal(t, resolve.IntervalPromotion, c.Step)
	c = on.engine.FindConversion(ival(on), cql.TypeInteger, true)
	require.NotNil(t, c)
	assert.Equal(t, resolve.IntervalDemotion, c.Step)
}

func TestElementConversions(t *testing.T) {
	f := newFixture(t, defaultEngineOptions, nil)
	from := f.tctx.LookupTypeList(cql.TypeInteger)
	to := f.tctx.LookupTypeList(cql.TypeDecimal)
	c := f.engine.FindConversion(from, to, true)
	require.NotNil(t, c)
	assert.Equal(t, resolve.ListElement, c.Step)
	q, ok := f.engine.Apply(ir.NewNull(from), c).(*ir.Query)
	require.True(t, ok)
	assert.Same(t, to, q.Type)
	assert.Equal(t, resolve.ElementAlias, q.Sources[0].Alias)
	ret, ok := q.Return.Expression.(*ir.Call)
	require.True(t, ok)
	assert.Equal(t, "ToDecimal", ret.Name)

	ifrom := f.tctx.LookupTypeInterval(cql.TypeInteger)
	ito := f.tctx.LookupTypeInterval(cql.TypeDecimal)
	c = f.engine.FindConversion(ifrom, ito, true)
	require.NotNil(t, c)
	ival, ok := f.engine.Apply(ir.NewNull(ifrom), c).(*ir.Interval)
	require.True(t, ok)
	assert.Same(t, cql.TypeDecimal, ir.TypeOf(ival.Low))
	assert.NotNil(t, ival.LowClosedExpr)
}

func TestExplicitConversions(t *testing.T) {
	f := newFixture(t, defaultEngineOptions, nil)
	assert.Nil(t, f.engine.FindConversion(cql.TypeString, cql.TypeInteger, true))
	c := f.engine.FindConversion(cql.TypeString, cql.TypeInteger, false)
	require.NotNil(t, c)
	assert.Equal(t, resolve.BuiltinStep, c.Step)
	call, ok := f.engine.Apply(ir.NewLiteral(cql.TypeString, "12"), c).(*ir.Call)
	require.True(t, ok)
	assert.Equal(t, "ToInteger", call.Name)
	assert.Nil(t, f.engine.FindConversion(cql.TypeBoolean, cql.TypeDateTime, false))
}

func TestDeclaredConversion(t *testing.T) {
	tctx := cql.NewContext()
	system := resolve.NewSystem(tctx)
	coding, err := tctx.DefineTypeNamed("Test", "Coding", nil)
	require.NoError(t, err)
	helpers := resolve.NewTable("TestHelpers")
	helpers.MustAdd(&resolve.Operator{
		Name:       "ToCode",
		Signature:  resolve.Signature{Operands: []cql.Type{coding}, Result: cql.TypeCode},
		Conversion: resolve.ImplicitConversion,
	})
	helpers.Freeze()
	engine, err := resolve.NewEngine(tctx, defaultEngineOptions, system, helpers)
	require.NoError(t, err)

	c := engine.FindConversion(coding, cql.TypeCode, true)
	require.NotNil(t, c)
	ref, ok := engine.Apply(ir.NewNull(coding), c).(*ir.FunctionRef)
	require.True(t, ok)
	assert.Equal(t, "TestHelpers", ref.LibraryName)
	assert.Equal(t, "ToCode", ref.Name)

	// Explicit conversion yields a Convert node justified by the operator.
	c = engine.FindConversion(coding, cql.TypeCode, false)
	require.NotNil(t, c)
	_, ok = engine.Apply(ir.NewNull(coding), c).(*ir.Convert)
	assert.True(t, ok)
}

func TestEngineJoin(t *testing.T) {
	f := newFixture(t, defaultEngineOptions, nil)
	typ, ok := f.engine.Join(cql.TypeInteger, cql.TypeDecimal)
	require.True(t, ok)
	assert.Same(t, cql.TypeDecimal, typ)
	typ, ok = f.engine.Join(cql.TypeDecimal, cql.TypeInteger)
	require.True(t, ok)
	assert.Same(t, cql.TypeDecimal, typ)
	_, ok = f.engine.Join(cql.TypeInteger, f.tctx.LookupTypeList(cql.TypeInteger))
	assert.False(t, ok)
	_, ok = f.engine.Join(cql.TypeBoolean, cql.TypeString)
	assert.False(t, ok)
}

func TestNullArgumentNarrowed(t *testing.T) {
	f := newFixture(t, defaultEngineOptions, nil)
	res, err := f.resolver.Resolve(call("Add", cql.TypeAny, cql.TypeInteger), true)
	require.NoError(t, err)
	assert.Same(t, cql.TypeInteger, res.Signature.Result)
	as, ok := f.engine.Apply(ir.NewNull(cql.TypeAny), res.Conversions[0]).(*ir.As)
	require.True(t, ok)
	assert.Same(t, cql.TypeInteger, as.AsType)
}
