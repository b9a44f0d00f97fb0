package cql

import (
	"fmt"
	"strings"
)

const SystemNamespace = "System"

// Fixed type IDs.  Types allocated by a Context begin at IDTypeComplex.
const (
	IDAny = iota
	IDBoolean
	IDInteger
	IDDecimal
	IDString
	IDDateTime
	IDTime
	IDQuantity
	IDCode
	IDConcept
	IDCodeList
	IDTypeParameter
	IDTypeComplex
)

// TypePrimitive is one of the System primitive types.  Primitives are
// singletons shared by every Context.
type TypePrimitive struct {
	id   int
	name string
}

func (t *TypePrimitive) ID() int {
	return t.id
}

func (t *TypePrimitive) Kind() Kind {
	return PrimitiveKind
}

// Name returns the unqualified name, e.g., "Integer".
func (t *TypePrimitive) Name() string {
	return t.name
}

func (t *TypePrimitive) String() string {
	return SystemNamespace + "." + t.name
}

func (t *TypePrimitive) MarshalJSON() ([]byte, error) {
	return marshalType(t)
}

var (
	TypeAny      = &TypePrimitive{IDAny, "Any"}
	TypeBoolean  = &TypePrimitive{IDBoolean, "Boolean"}
	TypeInteger  = &TypePrimitive{IDInteger, "Integer"}
	TypeDecimal  = &TypePrimitive{IDDecimal, "Decimal"}
	TypeString   = &TypePrimitive{IDString, "String"}
	TypeDateTime = &TypePrimitive{IDDateTime, "DateTime"}
	TypeTime     = &TypePrimitive{IDTime, "Time"}
	TypeQuantity = &TypePrimitive{IDQuantity, "Quantity"}
)

// TypeCode and TypeConcept are the System terminology structures.  Like the
// primitives, they have fixed IDs and are shared across contexts.
var (
	TypeCode = &TypeNamed{
		id:        IDCode,
		Namespace: SystemNamespace,
		Name:      "Code",
		Properties: []Property{
			{Name: "code", Type: TypeString},
			{Name: "system", Type: TypeString},
			{Name: "version", Type: TypeString},
			{Name: "display", Type: TypeString},
		},
	}
	typeCodeList = &TypeList{id: IDCodeList, Elem: TypeCode}
	TypeConcept  = &TypeNamed{
		id:        IDConcept,
		Namespace: SystemNamespace,
		Name:      "Concept",
		Properties: []Property{
			{Name: "codes", Type: typeCodeList},
			{Name: "display", Type: TypeString},
		},
	}
)

// TypeT is the type parameter used by generic operator signatures.  It never
// appears as the type of a compiled expression.
var TypeT = &TypeParameter{Name: "T"}

var primitives = []*TypePrimitive{
	TypeAny,
	TypeBoolean,
	TypeInteger,
	TypeDecimal,
	TypeString,
	TypeDateTime,
	TypeTime,
	TypeQuantity,
}

// LookupPrimitive returns the primitive named name, which may be qualified
// with the System namespace.  It returns nil if there is no such primitive.
func LookupPrimitive(name string) *TypePrimitive {
	name = strings.TrimPrefix(name, SystemNamespace+".")
	for _, p := range primitives {
		if p.name == name {
			return p
		}
	}
	return nil
}

// LookupSystemType is like LookupPrimitive but also knows the System
// structured types Code and Concept.
func LookupSystemType(name string) Type {
	if p := LookupPrimitive(name); p != nil {
		return p
	}
	switch strings.TrimPrefix(name, SystemNamespace+".") {
	case "Code":
		return TypeCode
	case "Concept":
		return TypeConcept
	}
	return nil
}

func lookupFixedByID(id int) (Type, error) {
	switch {
	case id < 0:
		return nil, fmt.Errorf("type id (%d) cannot be negative", id)
	case id < len(primitives):
		return primitives[id], nil
	case id == IDCode:
		return TypeCode, nil
	case id == IDConcept:
		return TypeConcept, nil
	case id == IDCodeList:
		return typeCodeList, nil
	case id == IDTypeParameter:
		return TypeT, nil
	}
	return nil, fmt.Errorf("type id (%d) is not a fixed type", id)
}
