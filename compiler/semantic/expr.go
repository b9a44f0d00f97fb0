package semantic

import (
	"fmt"

	"github.com/brimdata/cql"
	"github.com/brimdata/cql/compiler/ast"
	"github.com/brimdata/cql/compiler/ir"
	"github.com/brimdata/cql/compiler/resolve"
	"go.uber.org/zap"
)

func (t *translator) expr(e ast.Expr) ir.Expr {
	switch e := e.(type) {
	case *ast.Literal:
		return t.semLiteral(e, false)
	case *ast.Quantity:
		return t.semQuantity(e)
	case *ast.Identifier:
		return t.semIdentifier(e)
	case *ast.Member:
		return t.semMember(e)
	case *ast.Index:
		return t.system(e, "Indexer", t.semExpr(e.Expr), t.semExpr(e.Index))
	case *ast.Call:
		return t.semCall(e)
	case *ast.Unary:
		return t.semUnary(e)
	case *ast.Binary:
		return t.semBinary(e)
	case *ast.Timing:
		return t.semTiming(e)
	case *ast.Between:
		return t.semBetween(e)
	case *ast.DurationBetween:
		return t.semDurationBetween(e)
	case *ast.DurationOf:
		return t.semDurationOf(e)
	case *ast.Component:
		return t.semComponent(e)
	case *ast.TypeExpr:
		return t.semTypeExpr(e)
	case *ast.BooleanTest:
		return t.semBooleanTest(e)
	case *ast.Convert:
		return t.semConvert(e)
	case *ast.MinMaxValue:
		return t.semMinMax(e)
	case *ast.If:
		return t.semIf(e)
	case *ast.Case:
		return t.semCase(e)
	case *ast.IntervalSel:
		return t.semInterval(e)
	case *ast.ListSel:
		return t.semList(e)
	case *ast.TupleSel:
		return t.semTuple(e)
	case *ast.InstanceSel:
		return t.semInstance(e)
	case *ast.CodeSel:
		return t.semCode(e)
	case *ast.ConceptSel:
		return t.semConcept(e)
	case *ast.Retrieve:
		return t.semRetrieve(e)
	case *ast.Query:
		return t.semQuery(e)
	}
	return t.error(e, fmt.Errorf("unknown expression type %T", e))
}

func (t *translator) semIdentifier(id *ast.Identifier) ir.Expr {
	name := id.Name
	for k := len(t.queries) - 1; k >= 0; k-- {
		q := t.queries[k]
		if q.sortElem != nil {
			if typ, _ := t.tctx.LookupProperty(q.sortElem, name); typ != nil {
				return &ir.IdentifierRef{Kind: "IdentifierRef", Node: ir.Typed(typ), Name: name}
			}
			continue
		}
		if typ, ok := q.alias(name); ok {
			return &ir.AliasRef{Kind: "AliasRef", Node: ir.Typed(typ), Name: name}
		}
		if typ, ok := q.lets[name]; ok {
			return &ir.QueryLetRef{Kind: "QueryLetRef", Node: ir.Typed(typ), Name: name}
		}
	}
	if typ, ok := t.operands[name]; ok {
		return &ir.OperandRef{Kind: "OperandRef", Node: ir.Typed(typ), Name: name}
	}
	if d, ok := t.registry.defs[name]; ok {
		return t.defRef(id, d)
	}
	if _, ok := t.registry.funcs[name]; ok {
		return t.error(id, fmt.Errorf("Function %s must be invoked with an argument list.", name))
	}
	return t.error(id, &IdentifierError{Name: name, Suggestion: suggest(name, t.candidates())})
}

// localName reports whether name resolves without consulting the included
// libraries.
func (t *translator) localName(name string) bool {
	for _, q := range t.queries {
		if _, ok := q.alias(name); ok {
			return true
		}
		if _, ok := q.lets[name]; ok {
			return true
		}
	}
	if _, ok := t.operands[name]; ok {
		return true
	}
	_, ok := t.registry.defs[name]
	return ok
}

// defRef returns a reference to the local definition d, translating d
// first if needed.
func (t *translator) defRef(n ast.Node, d *definition) ir.Expr {
	if d.state != resolved {
		t.logger.Debug("forward reference", zap.String("name", d.name), zap.String("from", t.context))
	}
	if err := t.resolveDef(d); err != nil {
		return t.error(n, err)
	}
	return t.symbolRef(d.name, "", d.kind, d.context, d.typ)
}

func (t *translator) symbolRef(name, library string, kind SymbolKind, context string, typ cql.Type) ir.Expr {
	if typ == nil {
		typ = cql.TypeAny
	}
	switch kind {
	case SymbolExpression:
		if t.crossesContext(context) {
			typ = t.list(typ)
		}
		return &ir.ExpressionRef{Kind: "ExpressionRef", Node: ir.Typed(typ), Name: name, LibraryName: library}
	case SymbolParameter:
		return &ir.ParameterRef{Kind: "ParameterRef", Node: ir.Typed(typ), Name: name, LibraryName: library}
	case SymbolCodeSystem:
		return &ir.CodeSystemRef{Kind: "CodeSystemRef", Node: ir.Typed(typ), Name: name, LibraryName: library}
	case SymbolValueSet:
		return &ir.ValueSetRef{Kind: "ValueSetRef", Node: ir.Typed(typ), Name: name, LibraryName: library}
	case SymbolCode:
		return &ir.CodeRef{Kind: "CodeRef", Node: ir.Typed(typ), Name: name, LibraryName: library}
	case SymbolConcept:
		return &ir.ConceptRef{Kind: "ConceptRef", Node: ir.Typed(typ), Name: name, LibraryName: library}
	}
	return badExpr(typ, nil)
}

// crossesContext reports whether a definition in context is referenced from
// a population-level context, where it evaluates to one result per
// patient.
func (t *translator) crossesContext(context string) bool {
	return context == Patient && (t.context == Population || t.context == Unfiltered)
}

func (t *translator) semMember(m *ast.Member) ir.Expr {
	if id, ok := m.Expr.(*ast.Identifier); ok && !t.localName(id.Name) {
		if u, ok := t.includes[id.Name]; ok {
			return t.libraryRef(m, id.Name, u, m.Name)
		}
	}
	return t.property(m, t.semExpr(m.Expr), m.Name)
}

func (t *translator) libraryRef(n ast.Node, alias string, u *Unit, name string) ir.Expr {
	sym, ok := u.Symbol(name)
	if !ok {
		names := make([]string, 0, len(u.Symbols))
		for _, s := range u.Symbols {
			names = append(names, s.Name)
		}
		return t.error(n, &IdentifierError{Name: name, Library: alias, Suggestion: suggest(name, names)})
	}
	if sym.Access == resolve.Private {
		return t.error(n, &resolve.AccessError{Name: name, Library: u.Name})
	}
	if sym.Kind == SymbolFunction {
		return t.error(n, fmt.Errorf("Function %s must be invoked with an argument list.", name))
	}
	return t.symbolRef(name, alias, sym.Kind, sym.Context, sym.Type)
}

// property accesses name on source.  With list traversal, accessing a
// property of a list yields the list of the property values, flattened
// when the property is itself a list.
func (t *translator) property(n ast.Node, source ir.Expr, name string) ir.Expr {
	if ir.IsBad(source) {
		return source
	}
	typ := ir.TypeOf(source)
	if elem, ok := cql.ListElem(typ); ok && t.opts.ListTraversal {
		ptyp, err := t.tctx.ResolveProperty(elem, name)
		if err != nil {
			return t.error(n, err)
		}
		var out ir.Expr = newProperty(source, name, t.list(ptyp))
		if inner, ok := cql.ListElem(ptyp); ok {
			out = ir.NewCall("Flatten", t.list(inner), out)
		}
		return out
	}
	ptyp, err := t.tctx.ResolveProperty(typ, name)
	if err != nil {
		return t.error(n, err)
	}
	return newProperty(source, name, ptyp)
}

func newProperty(source ir.Expr, path string, typ cql.Type) *ir.Property {
	p := &ir.Property{Kind: "Property", Node: ir.Typed(typ), Path: path}
	if alias, ok := source.(*ir.AliasRef); ok {
		p.Scope = alias.Name
	} else {
		p.Source = source
	}
	return p
}

var unaryOps = map[string]string{
	"not":            "Not",
	"exists":         "Exists",
	"-":              "Negate",
	"distinct":       "Distinct",
	"flatten":        "Flatten",
	"collapse":       "Collapse",
	"start of":       "Start",
	"end of":         "End",
	"width of":       "Width",
	"successor of":   "Successor",
	"predecessor of": "Predecessor",
	"singleton from": "SingletonFrom",
	"point from":     "PointFrom",
}

func (t *translator) semUnary(u *ast.Unary) ir.Expr {
	name, ok := unaryOps[u.Op]
	if !ok {
		return t.error(u, fmt.Errorf("unknown operator %s", u.Op))
	}
	if lit, ok := u.Expr.(*ast.Literal); ok && name == "Negate" && lit.Type == ast.LitInteger {
		// The magnitude of the smallest Integer is out of range on its own.
		return t.semLiteral(lit, true)
	}
	return t.system(u, name, t.semExpr(u.Expr))
}

var binaryOps = map[string]string{
	"and":     "And",
	"or":      "Or",
	"xor":     "Xor",
	"implies": "Implies",
	"=":       "Equal",
	"~":       "Equivalent",
	"<":       "Less",
	"<=":      "LessOrEqual",
	">":       "Greater",
	">=":      "GreaterOrEqual",
	"+":       "Add",
	"-":       "Subtract",
	"*":       "Multiply",
	"/":       "Divide",
	"div":     "TruncatedDivide",
	"mod":     "Modulo",
	"^":       "Power",
}

func (t *translator) semBinary(b *ast.Binary) ir.Expr {
	lhs := t.semExpr(b.LHS)
	rhs := t.semExpr(b.RHS)
	switch b.Op {
	case "!=":
		return t.negate(b, t.system(b, "Equal", lhs, rhs))
	case "!~":
		return t.negate(b, t.system(b, "Equivalent", lhs, rhs))
	case "+":
		if ir.TypeOf(lhs) == cql.TypeString && ir.TypeOf(rhs) == cql.TypeString {
			return t.system(b, "Concatenate", lhs, rhs)
		}
	case "&":
		empty := ir.NewLiteral(cql.TypeString, "")
		return t.system(b, "Concatenate",
			t.system(b.LHS, "Coalesce", lhs, empty),
			t.system(b.RHS, "Coalesce", rhs, empty))
	case "in":
		return t.membership(b, "In", lhs, rhs)
	case "contains":
		return t.membership(b, "Contains", lhs, rhs)
	case "union", "|":
		return t.setOp(b, "Union", lhs, rhs)
	case "intersect":
		return t.setOp(b, "Intersect", lhs, rhs)
	case "except":
		return t.setOp(b, "Except", lhs, rhs)
	}
	name, ok := binaryOps[b.Op]
	if !ok {
		return t.error(b, fmt.Errorf("unknown operator %s", b.Op))
	}
	return t.system(b, name, lhs, rhs)
}

func (t *translator) negate(n ast.Node, e ir.Expr) ir.Expr {
	if ir.IsBad(e) {
		return e
	}
	return t.system(n, "Not", e)
}

// membership translates "in" and "contains".  Testing a code against a
// value set or code system becomes a terminology membership test.
func (t *translator) membership(b *ast.Binary, name string, lhs, rhs ir.Expr) ir.Expr {
	precision, err := normalizePrecision(b.Precision)
	if err != nil {
		return t.error(b, err)
	}
	if name == "In" {
		switch rhs.(type) {
		case *ir.ValueSetRef:
			return t.terminologyTest(b, "InValueSet", lhs, rhs)
		case *ir.CodeSystemRef:
			return t.terminologyTest(b, "InCodeSystem", lhs, rhs)
		}
	}
	return t.systemPrecision(b, name, precision, lhs, rhs)
}

func (t *translator) terminologyTest(n ast.Node, name string, code, ref ir.Expr) ir.Expr {
	if ir.IsBad(code) {
		return code
	}
	typ := ir.TypeOf(code)
	if elem, ok := cql.ListElem(typ); ok {
		name = "Any" + name
		typ = elem
	}
	switch typ {
	case cql.TypeString, cql.TypeCode, cql.TypeConcept, cql.TypeAny:
	default:
		return t.errorAs(n, &TypeError{Expected: cql.TypeCode, Found: typ}, cql.TypeBoolean)
	}
	return ir.NewCall(name, cql.TypeBoolean, code, ref)
}

// setOp resolves a set operator.  Lists of unrelated element types are
// both cast to a list of the choice of their element types.
func (t *translator) setOp(n ast.Node, name string, lhs, rhs ir.Expr) ir.Expr {
	args := []ir.Expr{lhs, rhs}
	res, err := t.lookup(resolve.SystemLibrary, name, args)
	if err == nil {
		return t.build(n, resolve.SystemLibrary, res, "", args)
	}
	lelem, lok := cql.ListElem(ir.TypeOf(lhs))
	relem, rok := cql.ListElem(ir.TypeOf(rhs))
	if !lok || !rok || rootCause(args) != nil {
		return t.fail(n, err, cql.TypeAny, args...)
	}
	typ := t.list(t.tctx.LookupTypeChoice([]cql.Type{lelem, relem}))
	cast := func(e ir.Expr) ir.Expr {
		return &ir.As{Kind: "As", Node: ir.Typed(typ), Operand: e, AsType: typ}
	}
	return t.system(n, name, cast(lhs), cast(rhs))
}

func (t *translator) semBetween(b *ast.Between) ir.Expr {
	x := t.semExpr(b.Expr)
	low := t.semExpr(b.Low)
	high := t.semExpr(b.High)
	lower, upper := "GreaterOrEqual", "LessOrEqual"
	if b.Proper {
		lower, upper = "Greater", "Less"
	}
	return t.system(b, "And", t.system(b, lower, x, low), t.system(b, upper, x, high))
}

func (t *translator) semDurationBetween(d *ast.DurationBetween) ir.Expr {
	lhs := t.semExpr(d.LHS)
	rhs := t.semExpr(d.RHS)
	precision, err := normalizePrecision(d.Precision)
	if err != nil {
		return t.errorAs(d, err, cql.TypeInteger)
	}
	name := "DurationBetween"
	if d.Difference {
		name = "DifferenceBetween"
	}
	return t.systemPrecision(d, name, precision, lhs, rhs)
}

func (t *translator) semDurationOf(d *ast.DurationOf) ir.Expr {
	ival := t.semExpr(d.Expr)
	precision, err := normalizePrecision(d.Precision)
	if err != nil {
		return t.errorAs(d, err, cql.TypeInteger)
	}
	name := "DurationBetween"
	if d.Difference {
		name = "DifferenceBetween"
	}
	start := t.system(d, "Start", ival)
	end := t.system(d, "End", ival)
	return t.systemPrecision(d, name, precision, start, end)
}

func (t *translator) semComponent(c *ast.Component) ir.Expr {
	x := t.semExpr(c.Expr)
	switch c.Component {
	case "date":
		return t.system(c, "DateFrom", x)
	case "time":
		return t.system(c, "TimeFrom", x)
	case "timezoneoffset":
		return t.system(c, "TimezoneOffsetFrom", x)
	}
	precision, err := normalizePrecision(c.Component)
	if err != nil {
		return t.errorAs(c, err, cql.TypeInteger)
	}
	return t.systemPrecision(c, "DateTimeComponentFrom", precision, x)
}

func (t *translator) semTypeExpr(e *ast.TypeExpr) ir.Expr {
	x := t.semExpr(e.Expr)
	typ, err := t.resolveTypeSpec(e.Type)
	if err != nil {
		return t.error(e.Type, err)
	}
	if e.Op == "is" {
		return &ir.Is{Kind: "Is", Node: ir.Typed(cql.TypeBoolean), Operand: x, IsType: typ}
	}
	if from := ir.TypeOf(x); !cql.IsCastable(from, typ) {
		err := fmt.Errorf("Expression of type '%s' cannot be cast as a value of type '%s'.", from, typ)
		return t.fail(e, err, typ, x)
	}
	return &ir.As{Kind: "As", Node: ir.Typed(typ), Operand: x, AsType: typ, Strict: e.Op == "cast"}
}

var booleanTests = map[string]string{
	"null":  "IsNull",
	"true":  "IsTrue",
	"false": "IsFalse",
}

func (t *translator) semBooleanTest(b *ast.BooleanTest) ir.Expr {
	out := t.system(b, booleanTests[b.Value], t.semExpr(b.Expr))
	if b.Not {
		return t.negate(b, out)
	}
	return out
}

func (t *translator) semConvert(c *ast.Convert) ir.Expr {
	x := t.semExpr(c.Expr)
	typ, err := t.resolveTypeSpec(c.Type)
	if err != nil {
		return t.error(c.Type, err)
	}
	if ir.IsBad(x) {
		return badExpr(typ, rootCause([]ir.Expr{x}))
	}
	from := ir.TypeOf(x)
	conv := t.engine.FindConversion(from, typ, false)
	if conv == nil {
		return t.errorAs(c, fmt.Errorf("Could not resolve conversion from type %s to type %s.", from, typ), typ)
	}
	return t.engine.Apply(x, conv)
}

func (t *translator) semMinMax(m *ast.MinMaxValue) ir.Expr {
	typ, err := t.resolveNamedType(m.Type)
	if err != nil {
		return t.error(m.Type, err)
	}
	switch typ {
	case cql.TypeInteger, cql.TypeDecimal, cql.TypeQuantity, cql.TypeDateTime, cql.TypeTime:
	default:
		return t.errorAs(m, fmt.Errorf("Could not determine %s value for type %s.", m.Op, typ), typ)
	}
	if m.Op == "minimum" {
		return &ir.MinValue{Kind: "MinValue", Node: ir.Typed(typ), ValueType: typ}
	}
	return &ir.MaxValue{Kind: "MaxValue", Node: ir.Typed(typ), ValueType: typ}
}

// join returns the common type of exprs.  If there is none, it reports a
// type error at n and returns the placeholder standing for n.
func (t *translator) join(n ast.Node, exprs ...ir.Expr) (cql.Type, *ir.BadExpr) {
	typ := cql.Type(cql.TypeAny)
	for _, e := range exprs {
		next := ir.TypeOf(e)
		joined, ok := t.engine.Join(typ, next)
		if !ok {
			return typ, t.fail(n, &TypeError{Expected: typ, Found: next}, typ, exprs...)
		}
		typ = joined
	}
	return typ, nil
}

func (t *translator) semIf(i *ast.If) ir.Expr {
	cond := t.coerce(i.Cond, t.semExpr(i.Cond), cql.TypeBoolean)
	then := t.semExpr(i.Then)
	els := t.semExpr(i.Else)
	typ, bad := t.join(i, then, els)
	if bad != nil {
		return bad
	}
	return &ir.If{
		Kind:      "If",
		Node:      ir.Typed(typ),
		Condition: cond,
		Then:      t.coerce(i.Then, then, typ),
		Else:      t.coerce(i.Else, els, typ),
	}
}

func (t *translator) semCase(c *ast.Case) ir.Expr {
	var comparand ir.Expr
	var whenType cql.Type = cql.TypeBoolean
	if c.Comparand != nil {
		comparand = t.semExpr(c.Comparand)
		whenType = ir.TypeOf(comparand)
	}
	whens := make([]ir.Expr, len(c.Whens))
	results := make([]ir.Expr, 0, len(c.Whens)+1)
	for k, item := range c.Whens {
		whens[k] = t.semExpr(item.When)
		results = append(results, t.semExpr(item.Then))
	}
	if comparand != nil {
		typ, bad := t.join(c, append([]ir.Expr{comparand}, whens...)...)
		if bad != nil {
			return bad
		}
		whenType = typ
		comparand = t.coerce(c.Comparand, comparand, typ)
	}
	results = append(results, t.semExpr(c.Else))
	typ, bad := t.join(c, results...)
	if bad != nil {
		return bad
	}
	out := &ir.Case{Kind: "Case", Node: ir.Typed(typ), Comparand: comparand}
	for k, item := range c.Whens {
		out.CaseItems = append(out.CaseItems, ir.CaseItem{
			When: t.coerce(item.When, whens[k], whenType),
			Then: t.coerce(item.Then, results[k], typ),
		})
	}
	out.Else = t.coerce(c.Else, results[len(results)-1], typ)
	return out
}

func (t *translator) semInterval(i *ast.IntervalSel) ir.Expr {
	low := t.semExpr(i.Low)
	high := t.semExpr(i.High)
	point, bad := t.join(i, low, high)
	if bad != nil {
		return bad
	}
	return &ir.Interval{
		Kind:       "Interval",
		Node:       ir.Typed(t.tctx.LookupTypeInterval(point)),
		Low:        t.coerce(i.Low, low, point),
		LowClosed:  i.LowClosed,
		High:       t.coerce(i.High, high, point),
		HighClosed: i.HighClosed,
	}
}

// semList infers the element type of a list selector from the join of its
// elements, or the choice of their types if they have no common type.
func (t *translator) semList(l *ast.ListSel) ir.Expr {
	elems := t.semExprs(l.Elems)
	var elem cql.Type = cql.TypeAny
	if l.Type != nil {
		typ, err := t.resolveTypeSpec(l.Type)
		if err != nil {
			return t.error(l.Type, err)
		}
		elem = typ
	} else {
		var types []cql.Type
		for _, e := range elems {
			typ := ir.TypeOf(e)
			types = append(types, typ)
			if elem == nil {
				continue
			}
			if joined, ok := t.engine.Join(elem, typ); ok {
				elem = joined
			} else {
				elem = nil
			}
		}
		if elem == nil {
			elem = t.tctx.LookupTypeChoice(types)
		}
	}
	for k, e := range elems {
		elems[k] = t.coerce(l.Elems[k], e, elem)
	}
	return &ir.List{Kind: "List", Node: ir.Typed(t.list(elem)), Elements: elems}
}

func (t *translator) semTuple(s *ast.TupleSel) ir.Expr {
	elems := make([]ir.TupleElement, 0, len(s.Elems))
	fields := make([]cql.Field, 0, len(s.Elems))
	for _, e := range s.Elems {
		value := t.semExpr(e.Expr)
		elems = append(elems, ir.TupleElement{Name: e.Name.Name, Value: value})
		fields = append(fields, cql.NewField(e.Name.Name, ir.TypeOf(value)))
	}
	typ, err := t.tctx.LookupTypeTuple(fields)
	if err != nil {
		return t.error(s, err)
	}
	return &ir.Tuple{Kind: "Tuple", Node: ir.Typed(typ), Elements: elems}
}

func (t *translator) semInstance(s *ast.InstanceSel) ir.Expr {
	typ, err := t.resolveNamedType(s.Type)
	if err != nil {
		return t.error(s.Type, err)
	}
	if _, ok := typ.(*cql.TypeNamed); !ok {
		return t.error(s.Type, fmt.Errorf("Could not resolve type name %s.", s.Type))
	}
	out := &ir.Instance{Kind: "Instance", Node: ir.Typed(typ), ClassType: typ}
	for _, e := range s.Elems {
		value := t.semExpr(e.Expr)
		ptyp, err := t.tctx.ResolveProperty(typ, e.Name.Name)
		if err != nil {
			value = t.error(e, err)
		} else {
			value = t.coerce(e.Expr, value, ptyp)
		}
		out.Elements = append(out.Elements, ir.TupleElement{Name: e.Name.Name, Value: value})
	}
	return out
}

func (t *translator) semCode(c *ast.CodeSel) ir.Expr {
	system, err := t.codeSystemRef(c.System)
	if err != nil {
		return t.errorAs(c.System, err, cql.TypeCode)
	}
	return &ir.Code{
		Kind:    "Code",
		Node:    ir.Typed(cql.TypeCode),
		Code:    c.Code,
		System:  system,
		Display: c.Display,
	}
}

func (t *translator) semConcept(c *ast.ConceptSel) ir.Expr {
	out := &ir.Concept{Kind: "Concept", Node: ir.Typed(cql.TypeConcept), Display: c.Display}
	for _, sel := range c.Codes {
		e := t.semCode(sel)
		code, ok := e.(*ir.Code)
		if !ok {
			return badExpr(cql.TypeConcept, rootCause([]ir.Expr{e}))
		}
		out.Codes = append(out.Codes, code)
	}
	return out
}
