package cql

import (
	"encoding/binary"
	"fmt"
	"slices"
	"sort"
	"sync"
)

// A Context manages the closure of structured and named types used by a
// compilation session.  Each unique type corresponds to exactly one Type
// pointer so type equivalence is pointer comparison.  A Context is safe for
// concurrent use: lookups of existing types only take a read lock.
type Context struct {
	mu        sync.RWMutex
	byID      []Type
	lists     map[Type]*TypeList
	intervals map[Type]*TypeInterval
	tuples    map[string]*TypeTuple
	choices   map[string]*TypeChoice
	nameds    map[string]*TypeNamed
}

func NewContext() *Context {
	c := &Context{
		byID:      make([]Type, IDTypeComplex, 2*IDTypeComplex),
		lists:     map[Type]*TypeList{TypeCode: typeCodeList},
		intervals: make(map[Type]*TypeInterval),
		tuples:    make(map[string]*TypeTuple),
		choices:   make(map[string]*TypeChoice),
		nameds: map[string]*TypeNamed{
			TypeCode.String():    TypeCode,
			TypeConcept.String(): TypeConcept,
		},
	}
	return c
}

func (c *Context) nextIDWithLock() int {
	return len(c.byID)
}

func (c *Context) enterWithLock(typ Type) {
	c.byID = append(c.byID, typ)
}

func (c *Context) LookupType(id int) (Type, error) {
	if id < IDTypeComplex {
		return lookupFixedByID(id)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if id >= len(c.byID) {
		return nil, fmt.Errorf("type id (%d) not in type context (size %d)", id, len(c.byID))
	}
	return c.byID[id], nil
}

var keyPool = sync.Pool{
	New: func() interface{} {
		// Return a pointer to avoid allocation on conversion to
		// interface.
		buf := make([]byte, 64)
		return &buf
	},
}

type DuplicateFieldError struct {
	Name string
}

func (d *DuplicateFieldError) Error() string {
	return fmt.Sprintf("duplicate tuple element %q", d.Name)
}

func (c *Context) LookupTypeList(elem Type) *TypeList {
	c.mu.RLock()
	typ, ok := c.lists[elem]
	c.mu.RUnlock()
	if ok {
		return typ
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if typ, ok := c.lists[elem]; ok {
		return typ
	}
	typ = &TypeList{id: c.nextIDWithLock(), Elem: elem}
	c.enterWithLock(typ)
	c.lists[elem] = typ
	return typ
}

func (c *Context) LookupTypeInterval(point Type) *TypeInterval {
	c.mu.RLock()
	typ, ok := c.intervals[point]
	c.mu.RUnlock()
	if ok {
		return typ
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if typ, ok := c.intervals[point]; ok {
		return typ
	}
	typ = &TypeInterval{id: c.nextIDWithLock(), Point: point}
	c.enterWithLock(typ)
	c.intervals[point] = typ
	return typ
}

// LookupTypeTuple returns the tuple type with the given fields in the given
// order.  Subsequent calls with the same fields return the same pointer.
func (c *Context) LookupTypeTuple(fields []Field) (*TypeTuple, error) {
	key := keyPool.Get().(*[]byte)
	defer keyPool.Put(key)
	bytes := (*key)[:0]
	for _, field := range fields {
		bytes = binary.LittleEndian.AppendUint32(bytes, uint32(len(field.Name)))
		bytes = append(bytes, field.Name...)
		bytes = binary.LittleEndian.AppendUint32(bytes, uint32(field.Type.ID()))
	}
	*key = bytes
	c.mu.RLock()
	typ, ok := c.tuples[string(bytes)]
	c.mu.RUnlock()
	if ok {
		return typ, nil
	}
	if name, ok := duplicateField(fields); ok {
		return nil, &DuplicateFieldError{name}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if typ, ok := c.tuples[string(bytes)]; ok {
		return typ, nil
	}
	typ = &TypeTuple{id: c.nextIDWithLock(), Fields: slices.Clone(fields)}
	c.enterWithLock(typ)
	c.tuples[string(bytes)] = typ
	return typ, nil
}

func (c *Context) MustLookupTypeTuple(fields []Field) *TypeTuple {
	t, err := c.LookupTypeTuple(fields)
	if err != nil {
		panic(err)
	}
	return t
}

func duplicateField(fields []Field) (string, bool) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f.Name]; ok {
			return f.Name, true
		}
		seen[f.Name] = struct{}{}
	}
	return "", false
}

// LookupTypeChoice returns the choice of types.  Nested choices are
// flattened and duplicates removed.  If a single type remains, that type
// is returned instead of a choice.
func (c *Context) LookupTypeChoice(types []Type) Type {
	var members []Type
	for _, typ := range types {
		if choice, ok := typ.(*TypeChoice); ok {
			members = append(members, choice.Types...)
		} else {
			members = append(members, typ)
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].ID() < members[j].ID()
	})
	members = slices.CompactFunc(members, func(a, b Type) bool { return a == b })
	switch len(members) {
	case 0:
		return TypeAny
	case 1:
		return members[0]
	}
	key := keyPool.Get().(*[]byte)
	defer keyPool.Put(key)
	bytes := (*key)[:0]
	for _, typ := range members {
		bytes = binary.LittleEndian.AppendUint32(bytes, uint32(typ.ID()))
	}
	*key = bytes
	c.mu.RLock()
	typ, ok := c.choices[string(bytes)]
	c.mu.RUnlock()
	if ok {
		return typ
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if typ, ok := c.choices[string(bytes)]; ok {
		return typ
	}
	typ = &TypeChoice{id: c.nextIDWithLock(), Types: members}
	c.enterWithLock(typ)
	c.choices[string(bytes)] = typ
	return typ
}

// DefineTypeNamed creates the named type namespace.name.  The caller fills in
// properties and other attributes before the type is used by other
// goroutines.  It is an error to define the same name twice.
func (c *Context) DefineTypeNamed(namespace, name string, base Type) (*TypeNamed, error) {
	if namespace == "" || name == "" {
		return nil, fmt.Errorf("bad type name %q.%q", namespace, name)
	}
	if namespace == SystemNamespace {
		return nil, fmt.Errorf("bad type name %s.%s: System namespace is reserved", namespace, name)
	}
	qualified := namespace + "." + name
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.nameds[qualified]; ok {
		return nil, fmt.Errorf("type %s is already defined", qualified)
	}
	typ := &TypeNamed{
		id:        c.nextIDWithLock(),
		Namespace: namespace,
		Name:      name,
		Base:      base,
	}
	c.enterWithLock(typ)
	c.nameds[qualified] = typ
	return typ, nil
}

// LookupTypeNamed returns the named type with the qualified name or nil.
func (c *Context) LookupTypeNamed(qualified string) *TypeNamed {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nameds[qualified]
}

// Substitute replaces the type parameter in t with arg.
func (c *Context) Substitute(t Type, arg Type) Type {
	switch t := t.(type) {
	case *TypeParameter:
		return arg
	case *TypeList:
		return c.LookupTypeList(c.Substitute(t.Elem, arg))
	case *TypeInterval:
		return c.LookupTypeInterval(c.Substitute(t.Point, arg))
	case *TypeTuple:
		fields := make([]Field, 0, len(t.Fields))
		for _, f := range t.Fields {
			fields = append(fields, Field{f.Name, c.Substitute(f.Type, arg)})
		}
		return c.MustLookupTypeTuple(fields)
	case *TypeChoice:
		var types []Type
		for _, typ := range t.Types {
			types = append(types, c.Substitute(typ, arg))
		}
		return c.LookupTypeChoice(types)
	}
	return t
}
