// Package resolve implements operator tables, the conversion engine, and
// overload resolution for CQL calls.
package resolve

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/brimdata/cql"
)

const SystemLibrary = "System"

type Access int

const (
	Public Access = iota
	Private
)

func (a Access) String() string {
	if a == Private {
		return "Private"
	}
	return "Public"
}

// ConversionKind marks an operator as usable by the conversion engine.
type ConversionKind int

const (
	NotConversion ConversionKind = iota
	ImplicitConversion
	ExplicitConversion
)

type Signature struct {
	Operands []cql.Type
	Result   cql.Type
}

func (s Signature) String() string {
	return FormatArgs(s.Operands)
}

// IsGeneric reports whether the signature mentions the type parameter.
func (s Signature) IsGeneric() bool {
	for _, t := range s.Operands {
		if cql.HasParameter(t) {
			return true
		}
	}
	return false
}

// FormatArgs formats a list of types as a parenthesized argument list.
func FormatArgs(types []cql.Type) string {
	var b strings.Builder
	b.WriteByte('(')
	for k, t := range types {
		if k > 0 {
			b.WriteByte(',')
		}
		if t == nil {
			b.WriteString("<unknown>")
			continue
		}
		b.WriteString(t.String())
	}
	b.WriteByte(')')
	return b.String()
}

type Operator struct {
	Name       string
	Library    string
	Access     Access
	Signature  Signature
	Conversion ConversionKind
	Fluent     bool
	External   bool
}

func (o *Operator) String() string {
	return o.Library + "." + o.Name + o.Signature.String()
}

func (o *Operator) IsSystem() bool {
	return o.Library == SystemLibrary
}

type FrozenError struct {
	Library string
}

func (f *FrozenError) Error() string {
	return fmt.Sprintf("operator table for library %s is frozen", f.Library)
}

type DuplicateError struct {
	Operator *Operator
}

func (d *DuplicateError) Error() string {
	return fmt.Sprintf("Function %s with signature %s is already defined in this library.", d.Operator.Name, d.Operator.Signature)
}

// Table holds the overload sets of one library.  A Table is built by a
// single goroutine and frozen when its library is published, after which
// it may be read concurrently.
type Table struct {
	Library     string
	sets        map[string][]*Operator
	conversions []*Operator
	frozen      atomic.Bool
}

func NewTable(library string) *Table {
	return &Table{
		Library: library,
		sets:    make(map[string][]*Operator),
	}
}

// Add adds op to the overload set for its name.  It is an error to add an
// operator whose signature duplicates one already in the set.
func (t *Table) Add(op *Operator) error {
	if t.frozen.Load() {
		return &FrozenError{t.Library}
	}
	if op.Library == "" {
		op.Library = t.Library
	}
	for _, existing := range t.sets[op.Name] {
		if sameOperands(existing.Signature.Operands, op.Signature.Operands) {
			return &DuplicateError{op}
		}
	}
	t.sets[op.Name] = append(t.sets[op.Name], op)
	if op.Conversion != NotConversion {
		t.conversions = append(t.conversions, op)
	}
	return nil
}

func (t *Table) MustAdd(op *Operator) {
	if err := t.Add(op); err != nil {
		panic(err)
	}
}

func sameOperands(a, b []cql.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if a[k] != b[k] {
			return false
		}
	}
	return true
}

// Lookup returns the overload set for name in insertion order.
func (t *Table) Lookup(name string) []*Operator {
	return t.sets[name]
}

// Conversions returns the conversion operators of the table.
func (t *Table) Conversions() []*Operator {
	return t.conversions
}

func (t *Table) Freeze() {
	t.frozen.Store(true)
}

func (t *Table) Frozen() bool {
	return t.frozen.Load()
}
