package resolve

import (
	"fmt"

	"github.com/brimdata/cql"
)

// CallContext is the key for overload lookup.  Library is the qualifier of
// the call or empty for an unqualified call.
type CallContext struct {
	Library string
	Name    string
	Args    []cql.Type
}

func (c CallContext) String() string {
	name := c.Name
	if c.Library != "" {
		name = c.Library + "." + name
	}
	return name + FormatArgs(c.Args)
}

// Resolution is the outcome of resolving a call: the chosen operator, its
// signature instantiated for the call, and the conversion needed for each
// argument (nil for arguments used as is).
type Resolution struct {
	Operator    *Operator
	Signature   Signature
	Conversions []*Conversion
	Score       int
	Weight      int
	Exact       bool
}

func (r *Resolution) less(s *Resolution) bool {
	if r.Score != s.Score {
		return r.Score < s.Score
	}
	return r.Weight < s.Weight
}

func (r *Resolution) ties(s *Resolution) bool {
	return r.Score == s.Score && r.Weight == s.Weight
}

// Converted reports whether any argument needs a conversion.
func (r *Resolution) Converted() bool {
	for _, c := range r.Conversions {
		if !c.IsIdentity() {
			return true
		}
	}
	return false
}

type ResolutionError struct {
	Call CallContext
}

func (r *ResolutionError) Error() string {
	return fmt.Sprintf("Could not resolve call to operator %s with signature %s.", r.Call.Name, FormatArgs(r.Call.Args))
}

type AmbiguityError struct {
	Call       CallContext
	Candidates []*Operator
}

func (a *AmbiguityError) Error() string {
	return fmt.Sprintf("Call to operator %s is ambiguous with: %s and %s.", a.Call, a.Candidates[0], a.Candidates[1])
}

type AccessError struct {
	Name    string
	Library string
}

func (a *AccessError) Error() string {
	return fmt.Sprintf("Object %s in library %s is marked private and cannot be referenced from another library.", a.Name, a.Library)
}

type LibraryError struct {
	Name string
}

func (l *LibraryError) Error() string {
	return fmt.Sprintf("Could not resolve library name %s.", l.Name)
}

// Resolver resolves calls made from one library.  Local is that library's
// own table and Includes maps an include alias to the included library's
// published table.
type Resolver struct {
	Local    *Table
	System   *Table
	Includes map[string]*Table
	Engine   *Engine
}

func NewResolver(engine *Engine, system, local *Table) *Resolver {
	return &Resolver{
		Local:    local,
		System:   system,
		Includes: make(map[string]*Table),
		Engine:   engine,
	}
}

// Resolve finds the best operator for call.  Unqualified calls consult the
// local table and then System.  Qualified calls consult only the named
// library and may not resolve to a private operator of another library.
// If nothing matches, Resolve returns a *ResolutionError when mustResolve is
// set and a nil resolution otherwise.
func (r *Resolver) Resolve(call CallContext, mustResolve bool) (*Resolution, error) {
	var res *Resolution
	var err error
	if call.Library != "" {
		table, ok := r.lookupTable(call.Library)
		if !ok {
			return nil, &LibraryError{call.Library}
		}
		res, err = r.resolveIn(table, call)
		if err != nil {
			return nil, err
		}
		if res != nil && res.Operator.Access == Private && table != r.Local {
			return nil, &AccessError{Name: call.Name, Library: table.Library}
		}
	} else {
		if r.Local != nil {
			if res, err = r.resolveIn(r.Local, call); err != nil {
				return nil, err
			}
		}
		if res == nil {
			if res, err = r.resolveIn(r.System, call); err != nil {
				return nil, err
			}
		}
	}
	if res == nil && mustResolve {
		return nil, &ResolutionError{call}
	}
	return res, nil
}

func (r *Resolver) lookupTable(name string) (*Table, bool) {
	if name == SystemLibrary {
		return r.System, true
	}
	if r.Local != nil && name == r.Local.Library {
		return r.Local, true
	}
	table, ok := r.Includes[name]
	return table, ok
}

// Overloaded reports whether the overload set that res was chosen from
// has more than one member.
func (r *Resolver) Overloaded(res *Resolution) bool {
	if table, ok := r.lookupTable(res.Operator.Library); ok {
		return len(table.Lookup(res.Operator.Name)) > 1
	}
	return false
}

func (r *Resolver) resolveIn(table *Table, call CallContext) (*Resolution, error) {
	var best []*Resolution
	for _, op := range table.Lookup(call.Name) {
		if len(op.Signature.Operands) != len(call.Args) {
			continue
		}
		res := r.match(op, call.Args)
		if res == nil {
			continue
		}
		if res.Exact {
			return res, nil
		}
		switch {
		case len(best) == 0 || res.less(best[0]):
			best = []*Resolution{res}
		case res.ties(best[0]):
			best = append(best, res)
		}
	}
	switch len(best) {
	case 0:
		return nil, nil
	case 1:
		return best[0], nil
	}
	return nil, &AmbiguityError{Call: call, Candidates: []*Operator{best[0].Operator, best[1].Operator}}
}

func (r *Resolver) match(op *Operator, args []cql.Type) *Resolution {
	sig := op.Signature
	if sig.IsGeneric() {
		var ok bool
		if sig, ok = r.instantiate(sig, args); !ok {
			return nil
		}
	}
	res := &Resolution{
		Operator:    op,
		Signature:   sig,
		Conversions: make([]*Conversion, len(args)),
		Exact:       true,
	}
	for k, formal := range sig.Operands {
		if args[k] == formal {
			continue
		}
		res.Exact = false
		c := r.Engine.FindConversion(args[k], formal, true)
		if c == nil {
			return nil
		}
		if !c.IsIdentity() {
			res.Score++
			res.Weight += c.Weight()
		}
		res.Conversions[k] = c
	}
	return res
}

// instantiate binds the type parameter of a generic signature to the join
// of the argument types found in parameter positions and substitutes it.
func (r *Resolver) instantiate(sig Signature, args []cql.Type) (Signature, bool) {
	var bound []cql.Type
	for k, formal := range sig.Operands {
		bound = collectBindings(bound, formal, args[k])
	}
	arg := cql.Type(cql.TypeAny)
	for _, t := range bound {
		joined, ok := r.Engine.Join(arg, t)
		if !ok {
			return Signature{}, false
		}
		arg = joined
	}
	tctx := r.Engine.Context()
	operands := make([]cql.Type, 0, len(sig.Operands))
	for _, formal := range sig.Operands {
		operands = append(operands, tctx.Substitute(formal, arg))
	}
	return Signature{Operands: operands, Result: tctx.Substitute(sig.Result, arg)}, true
}

func collectBindings(bound []cql.Type, formal, actual cql.Type) []cql.Type {
	if actual == nil || actual == cql.TypeAny {
		return bound
	}
	switch formal := formal.(type) {
	case *cql.TypeParameter:
		return append(bound, actual)
	case *cql.TypeList:
		if elem, ok := cql.ListElem(actual); ok {
			return collectBindings(bound, formal.Elem, elem)
		}
		return collectBindings(bound, formal.Elem, actual)
	case *cql.TypeInterval:
		if point, ok := cql.IntervalPoint(actual); ok {
			return collectBindings(bound, formal.Point, point)
		}
		return collectBindings(bound, formal.Point, actual)
	}
	return bound
}
