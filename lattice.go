package cql

import "fmt"

// IsSupertypeOf reports whether every value of type b is also a value of
// type a.  The relation is reflexive and Any is its top.
func IsSupertypeOf(a, b Type) bool {
	if a == b || a == TypeAny {
		return true
	}
	if choice, ok := b.(*TypeChoice); ok {
		for _, typ := range choice.Types {
			if !IsSupertypeOf(a, typ) {
				return false
			}
		}
		return true
	}
	switch a := a.(type) {
	case *TypeChoice:
		for _, typ := range a.Types {
			if IsSupertypeOf(typ, b) {
				return true
			}
		}
		return false
	case *TypeNamed:
		if named, ok := b.(*TypeNamed); ok {
			for base := named.Base; base != nil; {
				if base == a {
					return true
				}
				parent, ok := base.(*TypeNamed)
				if !ok {
					break
				}
				base = parent.Base
			}
		}
		return false
	case *TypeList:
		if b, ok := b.(*TypeList); ok {
			return IsSupertypeOf(a.Elem, b.Elem)
		}
	case *TypeInterval:
		if b, ok := b.(*TypeInterval); ok {
			return IsSupertypeOf(a.Point, b.Point)
		}
	case *TypeTuple:
		if b, ok := b.(*TypeTuple); ok {
			return tupleRelated(a, b, IsSupertypeOf)
		}
	}
	return false
}

// IsSubtypeOf is IsSupertypeOf with the operands reversed.
func IsSubtypeOf(a, b Type) bool {
	return IsSupertypeOf(b, a)
}

// IsCompatibleWith reports whether a value of static type b may be used
// where a is expected without a conversion.  This is supertype or a
// narrowing that can only be checked at run time: b is Any (the type of
// null) or b is a choice with a member compatible with a.
func IsCompatibleWith(a, b Type) bool {
	if IsSupertypeOf(a, b) || b == TypeAny {
		return true
	}
	if choice, ok := b.(*TypeChoice); ok {
		for _, typ := range choice.Types {
			if IsCompatibleWith(a, typ) {
				return true
			}
		}
		return false
	}
	switch a := a.(type) {
	case *TypeChoice:
		for _, typ := range a.Types {
			if IsCompatibleWith(typ, b) {
				return true
			}
		}
	case *TypeList:
		if b, ok := b.(*TypeList); ok {
			return IsCompatibleWith(a.Elem, b.Elem)
		}
	case *TypeInterval:
		if b, ok := b.(*TypeInterval); ok {
			return IsCompatibleWith(a.Point, b.Point)
		}
	case *TypeTuple:
		if b, ok := b.(*TypeTuple); ok {
			return tupleRelated(a, b, IsCompatibleWith)
		}
	}
	return false
}

func tupleRelated(a, b *TypeTuple, rel func(Type, Type) bool) bool {
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	for _, fa := range a.Fields {
		fb, ok := b.Field(fa.Name)
		if !ok || !rel(fa.Type, fb.Type) {
			return false
		}
	}
	return true
}

// IsCastable reports whether "as" may be applied to a value of type from to
// obtain type to.  Casting allows upcasts, downcasts, and choice narrowing.
func IsCastable(from, to Type) bool {
	if from == TypeAny || IsCompatibleWith(to, from) || IsSupertypeOf(from, to) {
		return true
	}
	if choice, ok := from.(*TypeChoice); ok {
		for _, typ := range choice.Types {
			if IsCastable(typ, to) {
				return true
			}
		}
		return false
	}
	if choice, ok := to.(*TypeChoice); ok {
		for _, typ := range choice.Types {
			if IsCastable(from, typ) {
				return true
			}
		}
		return false
	}
	switch from := from.(type) {
	case *TypeList:
		if to, ok := to.(*TypeList); ok {
			return IsCastable(from.Elem, to.Elem)
		}
	case *TypeInterval:
		if to, ok := to.(*TypeInterval); ok {
			return IsCastable(from.Point, to.Point)
		}
	}
	return false
}

// Join returns the least common type of a and b with respect to the lattice
// alone, i.e., without considering implicit conversions.  Any acts as the
// identity so that a null operand takes the type of the other operand.
// The result is false if a and b are unrelated.
func (c *Context) Join(a, b Type) (Type, bool) {
	switch {
	case a == b:
		return a, true
	case a == TypeAny:
		return b, true
	case b == TypeAny:
		return a, true
	case IsSupertypeOf(a, b):
		return a, true
	case IsSupertypeOf(b, a):
		return b, true
	}
	switch a := a.(type) {
	case *TypeList:
		if b, ok := b.(*TypeList); ok {
			if elem, ok := c.Join(a.Elem, b.Elem); ok {
				return c.LookupTypeList(elem), true
			}
		}
	case *TypeInterval:
		if b, ok := b.(*TypeInterval); ok {
			if point, ok := c.Join(a.Point, b.Point); ok {
				return c.LookupTypeInterval(point), true
			}
		}
	case *TypeTuple:
		if b, ok := b.(*TypeTuple); ok && len(a.Fields) == len(b.Fields) {
			fields := make([]Field, 0, len(a.Fields))
			for _, fa := range a.Fields {
				fb, ok := b.Field(fa.Name)
				if !ok {
					return nil, false
				}
				typ, ok := c.Join(fa.Type, fb.Type)
				if !ok {
					return nil, false
				}
				fields = append(fields, Field{fa.Name, typ})
			}
			return c.MustLookupTypeTuple(fields), true
		}
	case *TypeNamed:
		if _, ok := b.(*TypeNamed); ok {
			// Nearest common ancestor below Any.
			for anc := a.Base; anc != nil; {
				if IsSupertypeOf(anc, b) {
					return anc, true
				}
				named, ok := anc.(*TypeNamed)
				if !ok {
					break
				}
				anc = named.Base
			}
		}
	}
	if IsCompatibleWith(a, b) {
		return a, true
	}
	if IsCompatibleWith(b, a) {
		return b, true
	}
	return nil, false
}

type PropertyError struct {
	Type       Type
	Name       string
	Prohibited bool
}

func (p *PropertyError) Error() string {
	if p.Prohibited {
		return fmt.Sprintf("Element %s cannot be referenced because it is marked prohibited in type %s.", p.Name, p.Type)
	}
	if _, ok := p.Type.(*TypeInterval); ok {
		return fmt.Sprintf("Invalid interval property name %s.", p.Name)
	}
	return fmt.Sprintf("Member %s not found for type %s.", p.Name, p.Type)
}

// ResolveProperty returns the type of the property name of t.  It is an
// error if the property does not exist or is prohibited.
func (c *Context) ResolveProperty(t Type, name string) (Type, error) {
	typ, err := c.LookupProperty(t, name)
	if err == nil && typ == nil {
		err = &PropertyError{Type: t, Name: name}
	}
	return typ, err
}

// LookupProperty is like ResolveProperty but returns nil without an error
// when the property does not exist.  For a choice type, the result is the
// choice of the property's type across the members that have it.
func (c *Context) LookupProperty(t Type, name string) (Type, error) {
	switch t := t.(type) {
	case *TypeNamed:
		for typ := t; ; {
			if p, ok := typ.Property(name); ok {
				if p.Prohibited {
					return nil, &PropertyError{Type: t, Name: name, Prohibited: true}
				}
				return p.Type, nil
			}
			base, ok := typ.Base.(*TypeNamed)
			if !ok {
				return nil, nil
			}
			typ = base
		}
	case *TypeTuple:
		if f, ok := t.Field(name); ok {
			return f.Type, nil
		}
	case *TypeInterval:
		switch name {
		case "low", "high":
			return t.Point, nil
		case "lowClosed", "highClosed":
			return TypeBoolean, nil
		}
		return nil, &PropertyError{Type: t, Name: name}
	case *TypeChoice:
		var found []Type
		for _, typ := range t.Types {
			ptyp, err := c.LookupProperty(typ, name)
			if err != nil {
				return nil, err
			}
			if ptyp != nil {
				found = append(found, ptyp)
			}
		}
		if len(found) != 0 {
			return c.LookupTypeChoice(found), nil
		}
	case *TypePrimitive:
		if t == TypeQuantity {
			switch name {
			case "value":
				return TypeDecimal, nil
			case "unit":
				return TypeString, nil
			}
		}
	}
	return nil, nil
}
