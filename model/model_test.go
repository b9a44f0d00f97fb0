package model_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/brimdata/cql"
	"github.com/brimdata/cql/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinSimple(t *testing.T) {
	tctx := cql.NewContext()
	reg := model.NewRegistry(tctx, model.Builtin)
	m, err := reg.Load("Simple", "")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", m.Version)
	require.NotNil(t, m.PatientClass)
	assert.Equal(t, "Simple.Patient", m.PatientClass.String())
	assert.Equal(t, "birthDate", m.BirthDate)

	encounter := m.LookupType("Encounter")
	require.NotNil(t, encounter)
	assert.Same(t, encounter, m.LookupType("Simple.Encounter"))
	assert.Same(t, encounter, tctx.LookupTypeNamed("Simple.Encounter"))
	assert.True(t, encounter.Retrievable)
	assert.Equal(t, "type", encounter.PrimaryCodePath)
	assert.Same(t, m.LookupType("Resource"), encounter.Base)

	typ, err := tctx.ResolveProperty(encounter, "type")
	require.NoError(t, err)
	assert.Same(t, tctx.LookupTypeList(cql.TypeCode), typ)
	typ, err = tctx.ResolveProperty(encounter, "period")
	require.NoError(t, err)
	assert.Same(t, tctx.LookupTypeInterval(cql.TypeDateTime), typ)
	typ, err = tctx.ResolveProperty(encounter, "id")
	require.NoError(t, err)
	assert.Same(t, cql.TypeString, typ)
	_, err = tctx.ResolveProperty(encounter, "meta")
	assert.EqualError(t, err, "Element meta cannot be referenced because it is marked prohibited in type Simple.Encounter.")

	observation := m.LookupType("Observation")
	require.NotNil(t, observation)
	typ, err = tctx.ResolveProperty(observation, "value")
	require.NoError(t, err)
	assert.Same(t, tctx.LookupTypeChoice([]cql.Type{cql.TypeString, cql.TypeCode, cql.TypeQuantity}), typ)
	typ, err = tctx.ResolveProperty(observation, "component")
	require.NoError(t, err)
	elem, ok := cql.ListElem(typ)
	require.True(t, ok)
	assert.Equal(t, "Tuple{code System.Code, value System.Quantity}", elem.String())

	assert.False(t, m.LookupType("Resource").Retrievable)
	assert.Nil(t, m.LookupType("Medication"))
}

func TestRegistryCachesModels(t *testing.T) {
	reg := model.NewRegistry(cql.NewContext(), model.Builtin)
	var wg sync.WaitGroup
	models := make([]*model.Model, 8)
	for k := range models {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			m, err := reg.Load("Simple", "1.0.0")
			assert.NoError(t, err)
			models[k] = m
		}(k)
	}
	wg.Wait()
	for _, m := range models[1:] {
		assert.Same(t, models[0], m)
	}
	assert.Len(t, reg.Models(), 1)
}

func TestRegistryErrors(t *testing.T) {
	reg := model.NewRegistry(cql.NewContext(), model.Builtin)
	_, err := reg.Load("FHIR", "4.0.1")
	assert.EqualError(t, err, "Could not load model information for model FHIR, version 4.0.1.")
	_, err = reg.Load("FHIR", "")
	assert.EqualError(t, err, "Could not load model information for model FHIR.")
	_, err = reg.Load("Simple", "2.0")
	assert.EqualError(t, err, "Could not load model information for model Simple, version 2.0.")
	_, err = reg.Load("Simple", "")
	require.NoError(t, err)
	_, err = reg.Load("Simple", "2.0")
	assert.EqualError(t, err, "Could not load model information for model Simple, version 2.0 because version 1.0.0 is already loaded.")
}

const lab = `
name: Lab
version: "2"
patientClass: Subject
types:
  - name: Specimen
    base: Thing
    retrievable: true
    properties:
      - name: collected
        type: Interval<System.DateTime>
      - name: subject
        type: Lab.Subject
  - name: Thing
  - name: Subject
    base: Thing
conversions:
  - from: Specimen
    to: String
    function: LabHelpers.SpecimenToString
`

func TestDirSourceAndForwardReferences(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Lab.yaml"), []byte(lab), 0o644))
	tctx := cql.NewContext()
	reg := model.NewRegistry(tctx, model.Chain(model.Builtin, model.Dir(dir)))
	m, err := reg.Load("Lab", "2")
	require.NoError(t, err)
	specimen := m.LookupType("Specimen")
	require.NotNil(t, specimen)
	assert.Same(t, m.LookupType("Thing"), specimen.Base)
	assert.True(t, cql.IsSubtypeOf(specimen, m.LookupType("Thing")))
	typ, err := tctx.ResolveProperty(specimen, "subject")
	require.NoError(t, err)
	assert.Same(t, m.PatientClass, typ)
	require.Len(t, m.Conversions, 1)
	c := m.Conversions[0]
	assert.Same(t, specimen, c.From)
	assert.Same(t, cql.TypeString, c.To)
	assert.Equal(t, "LabHelpers", c.Library)
	assert.Equal(t, "SpecimenToString", c.Function)
	_, err = reg.Load("Simple", "")
	require.NoError(t, err)
	assert.Len(t, m.Types(), 3)
}

func TestBuildErrors(t *testing.T) {
	for _, c := range []struct {
		name string
		doc  string
		err  string
	}{
		{
			name: "unknown base",
			doc:  "name: M\ntypes:\n  - name: A\n    base: B\n",
			err:  "type M.A: unknown type B",
		},
		{
			name: "unknown property type",
			doc:  "name: M\ntypes:\n  - name: A\n    properties:\n      - name: x\n        type: List<Nope>\n",
			err:  "type M.A, property x: unknown type Nope",
		},
		{
			name: "circular base",
			doc:  "name: M\ntypes:\n  - name: A\n    base: B\n  - name: B\n    base: A\n",
			err:  "type M.A has a circular base type chain",
		},
		{
			name: "unqualified conversion",
			doc:  "name: M\nconversions:\n  - from: Integer\n    to: String\n    function: ToS\n",
			err:  `model M: conversion function "ToS" must be qualified by its library`,
		},
		{
			name: "unknown patient class",
			doc:  "name: M\npatientClass: P\n",
			err:  "model M: unknown patient class P",
		},
	} {
		t.Run(c.name, func(t *testing.T) {
			info, err := model.ParseInfo([]byte(c.doc))
			require.NoError(t, err)
			_, err = info.Build(cql.NewContext())
			assert.EqualError(t, err, c.err)
		})
	}
	_, err := model.ParseInfo([]byte("url: x\n"))
	assert.EqualError(t, err, "model information is missing a name")
}

func TestParseTypeSpec(t *testing.T) {
	tctx := cql.NewContext()
	resolve := func(name string) (cql.Type, error) {
		return cql.LookupSystemType(name), nil
	}
	typ, err := model.ParseTypeSpec(tctx, "List<Interval<System.Integer>>", resolve)
	require.NoError(t, err)
	assert.Same(t, tctx.LookupTypeList(tctx.LookupTypeInterval(cql.TypeInteger)), typ)
	typ, err = model.ParseTypeSpec(tctx, "Tuple{a: Integer, b String}", resolve)
	require.NoError(t, err)
	assert.Equal(t, "Tuple{a System.Integer, b System.String}", typ.String())
	_, err = model.ParseTypeSpec(tctx, "List<", resolve)
	assert.Error(t, err)
	_, err = model.ParseTypeSpec(tctx, "Tuple{a Integer, a String}", resolve)
	assert.EqualError(t, err, `duplicate tuple element "a"`)
}
