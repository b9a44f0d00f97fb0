package resolve

import (
	"github.com/brimdata/cql"
	arc "github.com/hashicorp/golang-lru/arc/v2"
)

// Step identifies how a Conversion transforms a value.
type Step int

const (
	Identity Step = iota
	ListPromotion
	ListDemotion
	ListElement
	IntervalPoint
	IntervalPromotion
	IntervalDemotion
	OperatorStep
	BuiltinStep
	ConvertStep
)

func (s Step) String() string {
	switch s {
	case Identity:
		return "identity"
	case ListPromotion:
		return "list promotion"
	case ListDemotion:
		return "list demotion"
	case ListElement:
		return "list element"
	case IntervalPoint:
		return "interval point"
	case IntervalPromotion:
		return "interval promotion"
	case IntervalDemotion:
		return "interval demotion"
	case OperatorStep:
		return "operator"
	case BuiltinStep:
		return "builtin"
	case ConvertStep:
		return "convert"
	}
	return "unknown"
}

// A Conversion is a directed edge from one type to another.  Inner is the
// element or point conversion applied inside a list or interval.
type Conversion struct {
	Step     Step
	From     cql.Type
	To       cql.Type
	Inner    *Conversion
	Operator *Operator
}

func (c *Conversion) IsIdentity() bool {
	return c == nil || c.Step == Identity
}

type EngineOptions struct {
	ListPromotion     bool
	ListDemotion      bool
	IntervalPromotion bool
	IntervalDemotion  bool
}

const conversionCacheSize = 1024

type conversionKey struct {
	from     cql.Type
	to       cql.Type
	implicit bool
}

// Engine finds conversions between types using the lattice and the
// conversion operators of a fixed set of tables.  The first table must be
// the System table.
type Engine struct {
	tctx   *cql.Context
	opts   EngineOptions
	system *Table
	tables []*Table
	cache  *arc.ARCCache[conversionKey, *Conversion]
}

func NewEngine(tctx *cql.Context, opts EngineOptions, system *Table, tables ...*Table) (*Engine, error) {
	cache, err := arc.NewARC[conversionKey, *Conversion](conversionCacheSize)
	if err != nil {
		return nil, err
	}
	return &Engine{
		tctx:   tctx,
		opts:   opts,
		system: system,
		tables: append([]*Table{system}, tables...),
		cache:  cache,
	}, nil
}

func (e *Engine) Context() *cql.Context {
	return e.tctx
}

// FindConversion returns the conversion from one type to another or nil if
// there is none.  With allowImplicit, the search covers list and interval
// promotion and demotion (as enabled by the engine options) and implicit
// conversion operators.  Without it, only explicitly legal conversions are
// considered: element-wise conversions, the System ToX operators, and a
// Convert justified by a declared conversion operator.
func (e *Engine) FindConversion(from, to cql.Type, allowImplicit bool) *Conversion {
	if from == nil || to == nil {
		return nil
	}
	key := conversionKey{from, to, allowImplicit}
	if c, ok := e.cache.Get(key); ok {
		return c
	}
	c := e.findConversion(from, to, allowImplicit)
	e.cache.Add(key, c)
	return c
}

func (e *Engine) findConversion(from, to cql.Type, implicit bool) *Conversion {
	if cql.IsCompatibleWith(to, from) {
		return &Conversion{Step: Identity, From: from, To: to}
	}
	toElem, toList := cql.ListElem(to)
	fromElem, fromList := cql.ListElem(from)
	if implicit {
		if e.opts.ListPromotion && toList && !fromList && cql.IsCompatibleWith(toElem, from) {
			return &Conversion{Step: ListPromotion, From: from, To: to}
		}
		if e.opts.ListDemotion && fromList && !toList && cql.IsCompatibleWith(to, fromElem) {
			return &Conversion{Step: ListDemotion, From: from, To: to}
		}
	}
	if fromList && toList {
		if inner := e.FindConversion(fromElem, toElem, implicit); inner != nil {
			return &Conversion{Step: ListElement, From: from, To: to, Inner: inner}
		}
	}
	toPoint, toInterval := cql.IntervalPoint(to)
	fromPoint, fromInterval := cql.IntervalPoint(from)
	if fromInterval && toInterval {
		if inner := e.FindConversion(fromPoint, toPoint, implicit); inner != nil {
			return &Conversion{Step: IntervalPoint, From: from, To: to, Inner: inner}
		}
	}
	if !implicit {
		return e.findExplicit(from, to)
	}
	if e.opts.IntervalPromotion && toInterval && !fromInterval && cql.IsCompatibleWith(toPoint, from) {
		return &Conversion{Step: IntervalPromotion, From: from, To: to}
	}
	if e.opts.IntervalDemotion && fromInterval && !toInterval && cql.IsCompatibleWith(to, fromPoint) {
		return &Conversion{Step: IntervalDemotion, From: from, To: to}
	}
	return e.findOperator(from, to, func(op *Operator) bool {
		return op.Conversion == ImplicitConversion
	})
}

// findOperator looks for a unary conversion operator accepting from whose
// result is acceptable as to.  An operator producing exactly to is
// preferred over one producing a subtype of to.
func (e *Engine) findOperator(from, to cql.Type, accept func(*Operator) bool) *Conversion {
	var found *Operator
	for _, table := range e.tables {
		for _, op := range table.Conversions() {
			if !accept(op) || len(op.Signature.Operands) != 1 {
				continue
			}
			if !cql.IsCompatibleWith(op.Signature.Operands[0], from) || !cql.IsSupertypeOf(to, op.Signature.Result) {
				continue
			}
			if op.Signature.Result == to {
				return &Conversion{Step: OperatorStep, From: from, To: to, Operator: op}
			}
			if found == nil {
				found = op
			}
		}
	}
	if found != nil {
		return &Conversion{Step: OperatorStep, From: from, To: to, Operator: found}
	}
	return nil
}

var builtinTargets = map[cql.Type]string{
	cql.TypeBoolean:  "ToBoolean",
	cql.TypeInteger:  "ToInteger",
	cql.TypeDecimal:  "ToDecimal",
	cql.TypeString:   "ToString",
	cql.TypeDateTime: "ToDateTime",
	cql.TypeTime:     "ToTime",
	cql.TypeQuantity: "ToQuantity",
	cql.TypeConcept:  "ToConcept",
}

func (e *Engine) findExplicit(from, to cql.Type) *Conversion {
	if name, ok := builtinTargets[to]; ok {
		for _, op := range e.system.Lookup(name) {
			if len(op.Signature.Operands) == 1 && cql.IsCompatibleWith(op.Signature.Operands[0], from) {
				return &Conversion{Step: BuiltinStep, From: from, To: to, Operator: op}
			}
		}
	}
	c := e.findOperator(from, to, func(op *Operator) bool { return !op.IsSystem() })
	if c != nil {
		c.Step = ConvertStep
	}
	return c
}

// Join returns the narrowest type both a and b can be used as.  It tries
// the lattice join and then a one-way implicit conversion in either
// direction.
func (e *Engine) Join(a, b cql.Type) (cql.Type, bool) {
	if t, ok := e.tctx.Join(a, b); ok {
		return t, true
	}
	if c := e.FindConversion(a, b, true); c != nil && isScalarWidening(c) {
		return b, true
	}
	if c := e.FindConversion(b, a, true); c != nil && isScalarWidening(c) {
		return a, true
	}
	return nil, false
}

// isScalarWidening excludes promotion and demotion from joins so that
// joining Integer and List<Integer> does not silently pick one.
func isScalarWidening(c *Conversion) bool {
	switch c.Step {
	case ListPromotion, ListDemotion, IntervalPromotion, IntervalDemotion:
		return false
	case ListElement, IntervalPoint:
		return isScalarWidening(c.Inner)
	}
	return true
}

// Weight ranks a conversion for breaking ties between overloads that need
// the same number of conversions.  Conversions to simple System types rank
// ahead of conversions to structured types, which rank ahead of interval
// and list promotion and demotion.
func (c *Conversion) Weight() int {
	if c.IsIdentity() {
		return 0
	}
	switch c.Step {
	case ListElement, IntervalPoint:
		return c.Inner.Weight()
	case OperatorStep, BuiltinStep, ConvertStep:
		if p, ok := c.To.(*cql.TypePrimitive); ok && p != cql.TypeQuantity {
			return 4
		}
		return 5
	case IntervalPromotion:
		return 6
	case ListDemotion:
		return 7
	case IntervalDemotion:
		return 8
	case ListPromotion:
		return 9
	}
	return 10
}
