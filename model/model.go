package model

import (
	"fmt"
	"strings"

	"github.com/brimdata/cql"
)

// Model is a loaded model: its named types, interned in a cql.Context, and
// its declared conversions.
type Model struct {
	Name         string
	Version      string
	URL          string
	PatientClass *cql.TypeNamed
	BirthDate    string
	Conversions  []Conversion
	types        map[string]*cql.TypeNamed
	order        []*cql.TypeNamed
}

// Conversion is an implicit conversion implemented by Library.Function.
type Conversion struct {
	From     cql.Type
	To       cql.Type
	Library  string
	Function string
}

// LookupType returns the model type with the given name, which may be
// qualified with the model name.
func (m *Model) LookupType(name string) *cql.TypeNamed {
	if rest, ok := strings.CutPrefix(name, m.Name+"."); ok {
		name = rest
	}
	return m.types[name]
}

// Types returns the model's types in declaration order.
func (m *Model) Types() []*cql.TypeNamed {
	return m.order
}

// Build creates the types described by info in tctx.  All types are
// declared before any base or property is resolved so declarations may
// refer to each other in any order.
func (info *Info) Build(tctx *cql.Context) (*Model, error) {
	m := &Model{
		Name:      info.Name,
		Version:   info.Version,
		URL:       info.URL,
		BirthDate: info.BirthDate,
		types:     make(map[string]*cql.TypeNamed),
	}
	for _, ti := range info.Types {
		typ, err := tctx.DefineTypeNamed(info.Name, ti.Name, nil)
		if err != nil {
			return nil, err
		}
		typ.Retrievable = ti.Retrievable
		typ.PrimaryCodePath = ti.PrimaryCodePath
		m.types[ti.Name] = typ
		m.order = append(m.order, typ)
	}
	resolve := m.resolver(tctx)
	for k, ti := range info.Types {
		typ := m.order[k]
		if ti.Base != "" {
			base, err := resolve(ti.Base)
			if err != nil {
				return nil, fmt.Errorf("type %s: %w", typ, err)
			}
			typ.Base = base
		}
		for _, pi := range ti.Properties {
			ptyp, err := ParseTypeSpec(tctx, pi.Type, resolve)
			if err != nil {
				return nil, fmt.Errorf("type %s, property %s: %w", typ, pi.Name, err)
			}
			typ.Properties = append(typ.Properties, cql.Property{
				Name:       pi.Name,
				Type:       ptyp,
				Prohibited: pi.Prohibited,
			})
		}
	}
	for _, typ := range m.order {
		if err := checkBaseChain(typ); err != nil {
			return nil, err
		}
	}
	if info.PatientClass != "" {
		if m.PatientClass = m.LookupType(info.PatientClass); m.PatientClass == nil {
			return nil, fmt.Errorf("model %s: unknown patient class %s", info.Name, info.PatientClass)
		}
	}
	for _, ci := range info.Conversions {
		c, err := m.conversion(tctx, ci, resolve)
		if err != nil {
			return nil, err
		}
		m.Conversions = append(m.Conversions, c)
	}
	return m, nil
}

func (m *Model) resolver(tctx *cql.Context) TypeResolver {
	return func(name string) (cql.Type, error) {
		if typ := m.LookupType(name); typ != nil {
			return typ, nil
		}
		if typ := cql.LookupSystemType(name); typ != nil {
			return typ, nil
		}
		if typ := tctx.LookupTypeNamed(name); typ != nil {
			return typ, nil
		}
		return nil, fmt.Errorf("unknown type %s", name)
	}
}

func (m *Model) conversion(tctx *cql.Context, ci ConversionInfo, resolve TypeResolver) (Conversion, error) {
	from, err := ParseTypeSpec(tctx, ci.From, resolve)
	if err != nil {
		return Conversion{}, err
	}
	to, err := ParseTypeSpec(tctx, ci.To, resolve)
	if err != nil {
		return Conversion{}, err
	}
	library, function, ok := strings.Cut(ci.Function, ".")
	if !ok {
		return Conversion{}, fmt.Errorf("model %s: conversion function %q must be qualified by its library", m.Name, ci.Function)
	}
	return Conversion{From: from, To: to, Library: library, Function: function}, nil
}

func checkBaseChain(typ *cql.TypeNamed) error {
	seen := map[*cql.TypeNamed]struct{}{typ: {}}
	for base, ok := typ.Base.(*cql.TypeNamed); ok; base, ok = base.Base.(*cql.TypeNamed) {
		if _, dup := seen[base]; dup {
			return fmt.Errorf("type %s has a circular base type chain", typ)
		}
		seen[base] = struct{}{}
	}
	return nil
}
