// Package cql implements the CQL type system: the System primitives, the
// structured type variants, and the subtype lattice the compiler uses to
// type-check and convert expressions.
//
// Types are interned by a Context so two structurally equal types from the
// same Context are the same pointer and can be compared with ==.
package cql

import (
	"encoding/json"
	"strings"
)

type Type interface {
	ID() int
	Kind() Kind
	String() string
}

type Kind int

const (
	PrimitiveKind Kind = iota
	NamedKind
	ListKind
	IntervalKind
	TupleKind
	ChoiceKind
	ParameterKind
)

func (k Kind) String() string {
	switch k {
	case PrimitiveKind:
		return "primitive"
	case NamedKind:
		return "named"
	case ListKind:
		return "list"
	case IntervalKind:
		return "interval"
	case TupleKind:
		return "tuple"
	case ChoiceKind:
		return "choice"
	case ParameterKind:
		return "parameter"
	}
	return "unknown"
}

// Property is an element of a named type.  A prohibited property exists in
// the model but may not be referenced.
type Property struct {
	Name       string
	Type       Type
	Prohibited bool
}

// TypeNamed is a nominal type declared by a model (or System).  Base is the
// parent in the nominal hierarchy; a nil Base means the type derives
// directly from Any.
type TypeNamed struct {
	id              int
	Namespace       string
	Name            string
	Base            Type
	Properties      []Property
	Retrievable     bool
	PrimaryCodePath string
}

func (t *TypeNamed) ID() int {
	return t.id
}

func (t *TypeNamed) Kind() Kind {
	return NamedKind
}

func (t *TypeNamed) String() string {
	return t.Namespace + "." + t.Name
}

func (t *TypeNamed) MarshalJSON() ([]byte, error) {
	return marshalType(t)
}

// Parent returns the base type, which is Any at the root of the hierarchy.
func (t *TypeNamed) Parent() Type {
	if t.Base == nil {
		return TypeAny
	}
	return t.Base
}

// Property returns the property declared directly on t.
func (t *TypeNamed) Property(name string) (Property, bool) {
	for _, p := range t.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

type TypeList struct {
	id   int
	Elem Type
}

func (t *TypeList) ID() int {
	return t.id
}

func (t *TypeList) Kind() Kind {
	return ListKind
}

func (t *TypeList) String() string {
	return "List<" + t.Elem.String() + ">"
}

func (t *TypeList) MarshalJSON() ([]byte, error) {
	return marshalType(t)
}

type TypeInterval struct {
	id    int
	Point Type
}

func (t *TypeInterval) ID() int {
	return t.id
}

func (t *TypeInterval) Kind() Kind {
	return IntervalKind
}

func (t *TypeInterval) String() string {
	return "Interval<" + t.Point.String() + ">"
}

func (t *TypeInterval) MarshalJSON() ([]byte, error) {
	return marshalType(t)
}

type Field struct {
	Name string
	Type Type
}

func NewField(name string, typ Type) Field {
	return Field{name, typ}
}

type TypeTuple struct {
	id     int
	Fields []Field
}

func (t *TypeTuple) ID() int {
	return t.id
}

func (t *TypeTuple) Kind() Kind {
	return TupleKind
}

func (t *TypeTuple) String() string {
	var b strings.Builder
	b.WriteString("Tuple{")
	for k, f := range t.Fields {
		if k > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteByte(' ')
		b.WriteString(f.Type.String())
	}
	b.WriteByte('}')
	return b.String()
}

func (t *TypeTuple) MarshalJSON() ([]byte, error) {
	return marshalType(t)
}

// Field returns the field named name.
func (t *TypeTuple) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// TypeChoice is a union of two or more types.  Its members are flattened,
// deduplicated, and kept in type ID order.
type TypeChoice struct {
	id    int
	Types []Type
}

func (t *TypeChoice) ID() int {
	return t.id
}

func (t *TypeChoice) Kind() Kind {
	return ChoiceKind
}

func (t *TypeChoice) String() string {
	var b strings.Builder
	b.WriteString("Choice<")
	for k, typ := range t.Types {
		if k > 0 {
			b.WriteByte(',')
		}
		b.WriteString(typ.String())
	}
	b.WriteByte('>')
	return b.String()
}

func (t *TypeChoice) MarshalJSON() ([]byte, error) {
	return marshalType(t)
}

type TypeParameter struct {
	Name string
}

func (*TypeParameter) ID() int {
	return IDTypeParameter
}

func (*TypeParameter) Kind() Kind {
	return ParameterKind
}

func (t *TypeParameter) String() string {
	return t.Name
}

func marshalType(t Type) ([]byte, error) {
	return json.Marshal(t.String())
}

// ListElem returns the element type of a list type.
func ListElem(t Type) (Type, bool) {
	if l, ok := t.(*TypeList); ok {
		return l.Elem, true
	}
	return nil, false
}

// IntervalPoint returns the point type of an interval type.
func IntervalPoint(t Type) (Type, bool) {
	if i, ok := t.(*TypeInterval); ok {
		return i.Point, true
	}
	return nil, false
}

// HasParameter reports whether t mentions the generic type parameter.
func HasParameter(t Type) bool {
	switch t := t.(type) {
	case *TypeParameter:
		return true
	case *TypeList:
		return HasParameter(t.Elem)
	case *TypeInterval:
		return HasParameter(t.Point)
	case *TypeTuple:
		for _, f := range t.Fields {
			if HasParameter(f.Type) {
				return true
			}
		}
	case *TypeChoice:
		for _, typ := range t.Types {
			if HasParameter(typ) {
				return true
			}
		}
	}
	return false
}
