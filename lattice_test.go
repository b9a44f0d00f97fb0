package cql_test

import (
	"testing"

	"github.com/brimdata/cql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testTypes struct {
	tctx        *cql.Context
	resource    *cql.TypeNamed
	encounter   *cql.TypeNamed
	observation *cql.TypeNamed
}

func newTestTypes(t *testing.T) *testTypes {
	tctx := cql.NewContext()
	resource, err := tctx.DefineTypeNamed("Test", "Resource", nil)
	require.NoError(t, err)
	resource.Properties = []cql.Property{
		{Name: "id", Type: cql.TypeString},
		{Name: "secret", Type: cql.TypeString, Prohibited: true},
	}
	encounter, err := tctx.DefineTypeNamed("Test", "Encounter", resource)
	require.NoError(t, err)
	encounter.Properties = []cql.Property{
		{Name: "period", Type: tctx.LookupTypeInterval(cql.TypeDateTime)},
	}
	observation, err := tctx.DefineTypeNamed("Test", "Observation", resource)
	require.NoError(t, err)
	observation.Properties = []cql.Property{
		{Name: "value", Type: tctx.LookupTypeChoice([]cql.Type{cql.TypeQuantity, cql.TypeString})},
		{Name: "effective", Type: cql.TypeDateTime},
	}
	return &testTypes{tctx, resource, encounter, observation}
}

func TestSupertypeReflexiveAndTop(t *testing.T) {
	tt := newTestTypes(t)
	types := []cql.Type{
		cql.TypeBoolean,
		cql.TypeInteger,
		cql.TypeCode,
		tt.encounter,
		tt.tctx.LookupTypeList(cql.TypeString),
		tt.tctx.LookupTypeInterval(cql.TypeDateTime),
		tt.tctx.MustLookupTypeTuple([]cql.Field{cql.NewField("x", cql.TypeInteger)}),
		tt.tctx.LookupTypeChoice([]cql.Type{cql.TypeInteger, cql.TypeString}),
	}
	for _, typ := range types {
		assert.True(t, cql.IsSupertypeOf(typ, typ), typ.String())
		assert.True(t, cql.IsSupertypeOf(cql.TypeAny, typ), typ.String())
		assert.True(t, cql.IsCompatibleWith(typ, typ), typ.String())
	}
}

func TestSupertypeNominal(t *testing.T) {
	tt := newTestTypes(t)
	assert.True(t, cql.IsSupertypeOf(tt.resource, tt.encounter))
	assert.False(t, cql.IsSupertypeOf(tt.encounter, tt.resource))
	assert.False(t, cql.IsSupertypeOf(tt.observation, tt.encounter))
	assert.False(t, cql.IsSupertypeOf(cql.TypeDecimal, cql.TypeInteger))
	assert.True(t, cql.IsSupertypeOf(tt.tctx.LookupTypeList(tt.resource), tt.tctx.LookupTypeList(tt.encounter)))
}

func TestSupertypeChoice(t *testing.T) {
	tt := newTestTypes(t)
	choice := tt.tctx.LookupTypeChoice([]cql.Type{cql.TypeInteger, cql.TypeString})
	assert.True(t, cql.IsSupertypeOf(choice, cql.TypeInteger))
	assert.False(t, cql.IsSupertypeOf(cql.TypeInteger, choice))
	assert.True(t, cql.IsCompatibleWith(cql.TypeInteger, choice))
	assert.False(t, cql.IsCompatibleWith(cql.TypeBoolean, choice))
}

func TestCompatibleAny(t *testing.T) {
	assert.True(t, cql.IsCompatibleWith(cql.TypeInteger, cql.TypeAny))
	assert.False(t, cql.IsCompatibleWith(cql.TypeInteger, cql.TypeDecimal))
}

func TestTupleSubtype(t *testing.T) {
	tt := newTestTypes(t)
	sub := tt.tctx.MustLookupTypeTuple([]cql.Field{cql.NewField("a", tt.encounter), cql.NewField("b", cql.TypeString)})
	sup := tt.tctx.MustLookupTypeTuple([]cql.Field{cql.NewField("b", cql.TypeString), cql.NewField("a", tt.resource)})
	assert.True(t, cql.IsSupertypeOf(sup, sub))
	assert.False(t, cql.IsSupertypeOf(sub, sup))
}

func TestJoin(t *testing.T) {
	tt := newTestTypes(t)
	typ, ok := tt.tctx.Join(tt.encounter, tt.observation)
	require.True(t, ok)
	assert.Same(t, tt.resource, typ)

	typ, ok = tt.tctx.Join(cql.TypeAny, cql.TypeInteger)
	require.True(t, ok)
	assert.Same(t, cql.TypeInteger, typ)

	typ, ok = tt.tctx.Join(tt.tctx.LookupTypeList(tt.encounter), tt.tctx.LookupTypeList(tt.resource))
	require.True(t, ok)
	assert.Equal(t, "List<Test.Resource>", typ.String())

	_, ok = tt.tctx.Join(cql.TypeInteger, cql.TypeDecimal)
	assert.False(t, ok)
	_, ok = tt.tctx.Join(cql.TypeInteger, tt.encounter)
	assert.False(t, ok)
}

func TestCastable(t *testing.T) {
	tt := newTestTypes(t)
	assert.True(t, cql.IsCastable(tt.resource, tt.encounter))
	assert.True(t, cql.IsCastable(tt.encounter, tt.resource))
	assert.True(t, cql.IsCastable(tt.tctx.LookupTypeChoice([]cql.Type{cql.TypeQuantity, cql.TypeString}), cql.TypeQuantity))
	assert.False(t, cql.IsCastable(cql.TypeInteger, cql.TypeString))
	assert.True(t, cql.IsCastable(cql.TypeAny, cql.TypeString))
}

func TestResolveProperty(t *testing.T) {
	tt := newTestTypes(t)
	typ, err := tt.tctx.ResolveProperty(tt.encounter, "id")
	require.NoError(t, err)
	assert.Same(t, cql.TypeString, typ)

	_, err = tt.tctx.ResolveProperty(tt.encounter, "secret")
	assert.EqualError(t, err, "Element secret cannot be referenced because it is marked prohibited in type Test.Encounter.")

	_, err = tt.tctx.ResolveProperty(tt.encounter, "nope")
	assert.EqualError(t, err, "Member nope not found for type Test.Encounter.")

	period := tt.tctx.LookupTypeInterval(cql.TypeDateTime)
	typ, err = tt.tctx.ResolveProperty(period, "low")
	require.NoError(t, err)
	assert.Same(t, cql.TypeDateTime, typ)
	typ, err = tt.tctx.ResolveProperty(period, "highClosed")
	require.NoError(t, err)
	assert.Same(t, cql.TypeBoolean, typ)
	_, err = tt.tctx.ResolveProperty(period, "width")
	assert.EqualError(t, err, "Invalid interval property name width.")

	typ, err = tt.tctx.ResolveProperty(cql.TypeQuantity, "unit")
	require.NoError(t, err)
	assert.Same(t, cql.TypeString, typ)

	choice := tt.tctx.LookupTypeChoice([]cql.Type{tt.encounter, tt.observation})
	typ, err = tt.tctx.ResolveProperty(choice, "effective")
	require.NoError(t, err)
	assert.Same(t, cql.TypeDateTime, typ)
	typ, err = tt.tctx.ResolveProperty(choice, "id")
	require.NoError(t, err)
	assert.Same(t, cql.TypeString, typ)
}

func TestLookupPrimitive(t *testing.T) {
	assert.Same(t, cql.TypeInteger, cql.LookupPrimitive("Integer"))
	assert.Same(t, cql.TypeInteger, cql.LookupPrimitive("System.Integer"))
	assert.Nil(t, cql.LookupPrimitive("Code"))
	assert.Same(t, cql.TypeCode, cql.LookupSystemType("Code"))
}
