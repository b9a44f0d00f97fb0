package semantic

import (
	"fmt"
	"path"
	"slices"

	"github.com/brimdata/cql"
	"github.com/brimdata/cql/compiler/ast"
	"github.com/brimdata/cql/compiler/ir"
	"github.com/brimdata/cql/compiler/resolve"
	"go.uber.org/zap"
)

func (t *translator) translate(lib *ast.Library) *Unit {
	if lib.Name != nil {
		t.unit.Name = lib.Name.Name
		t.unit.Version = lib.Version
		t.lib.Identifier = ir.Identifier{ID: lib.Name.Name, Version: lib.Version}
	}
	t.files.Library = t.unit.Name
	t.table = resolve.NewTable(t.unit.Name)
	for _, stmt := range lib.Statements {
		switch s := stmt.(type) {
		case *ast.UsingDef:
			t.semUsing(s)
		case *ast.IncludeDef:
			t.semInclude(s)
		}
	}
	engine, err := resolve.NewEngine(t.tctx, t.opts.engineOptions(), t.env.System, t.conversions)
	if err != nil {
		t.error(lib, err)
		return t.finish()
	}
	t.engine = engine
	t.resolver = resolve.NewResolver(engine, t.env.System, t.table)
	for alias, u := range t.includes {
		t.resolver.Includes[alias] = u.Table
	}
	t.registry = newRegistry(lib.Statements)
	for _, stmt := range lib.Statements {
		if t.aborted {
			t.logger.Debug("translation aborted", zap.String("library", t.unit.Name))
			break
		}
		switch s := stmt.(type) {
		case *ast.UsingDef, *ast.IncludeDef:
		case *ast.ContextDef:
			t.semContext(s)
		default:
			switch entry := t.registry.byStmt[stmt].(type) {
			case *function:
				t.resolveFunction(entry)
			case *definition:
				t.resolveDef(entry)
			}
		}
	}
	return t.finish()
}

func (t *translator) semUsing(u *ast.UsingDef) {
	name := u.Model.Name
	if name == cql.SystemNamespace {
		return
	}
	if t.env.Models == nil {
		t.error(u, fmt.Errorf("Could not load model information for model %s.", name))
		return
	}
	m, err := t.env.Models.Load(name, u.Version)
	if err != nil {
		t.error(u, err)
		return
	}
	t.models = append(t.models, m)
	t.lib.Usings = append(t.lib.Usings, &ir.UsingDef{
		LocalIdentifier: name,
		URI:             m.URL,
		Version:         m.Version,
	})
	for _, c := range m.Conversions {
		op := &resolve.Operator{
			Name:       c.Function,
			Library:    c.Library,
			Signature:  resolve.Signature{Operands: []cql.Type{c.From}, Result: c.To},
			Conversion: resolve.ImplicitConversion,
		}
		if err := t.conversions.Add(op); err != nil {
			t.error(u, err)
		}
	}
}

func (t *translator) semInclude(i *ast.IncludeDef) {
	alias := path.Base(i.Path.Name)
	if i.Alias != nil {
		alias = i.Alias.Name
	}
	if t.env.Libraries == nil {
		t.error(i, fmt.Errorf("Could not load source for library %s, version %s.", i.Path.Name, i.Version))
		return
	}
	if _, ok := t.includes[alias]; ok {
		t.error(i, &DuplicateError{Name: alias})
		return
	}
	u, err := t.env.Libraries.Library(i.Path.Name, i.Version)
	if err != nil {
		t.error(i, err)
		return
	}
	t.includes[alias] = u
	t.lib.Includes = append(t.lib.Includes, &ir.IncludeDef{
		LocalIdentifier: alias,
		Path:            i.Path.Name,
		Version:         i.Version,
	})
	t.logger.Debug("included library",
		zap.String("path", i.Path.Name),
		zap.String("alias", alias),
		zap.Int("symbols", len(u.Symbols)),
	)
}

func (t *translator) semContext(c *ast.ContextDef) {
	name := c.Name.Name
	switch name {
	case Patient, Population, Unfiltered:
	default:
		if _, err := t.lookupModelType(name); err != nil {
			t.error(c, fmt.Errorf("Unknown context %s.", name))
			return
		}
	}
	t.context = name
	t.lib.Contexts = append(t.lib.Contexts, &ir.ContextDef{Name: name})
	if d, ok := t.registry.defs[Patient]; ok && d.implicit && d.state == unseen {
		t.resolveDef(d)
	}
}

type scope struct {
	context  string
	queries  []*queryScope
	operands map[string]cql.Type
}

func (t *translator) enterScope(context string) scope {
	saved := scope{t.context, t.queries, t.operands}
	t.context = context
	t.queries = nil
	t.operands = nil
	return saved
}

func (t *translator) exitScope(s scope) {
	t.context = s.context
	t.queries = s.queries
	t.operands = s.operands
}

// resolveDef translates d unless it already has been.  It returns a
// *CycleError if d is part of a definition currently being translated.
func (t *translator) resolveDef(d *definition) error {
	if d.state == resolved {
		return nil
	}
	if err := t.registry.enter(d.name); err != nil {
		return err
	}
	d.state = resolving
	saved := t.enterScope(d.context)
	switch s := d.stmt.(type) {
	case nil:
		t.semImplicitPatient(d)
	case *ast.ExpressionDef:
		t.semExpressionDef(d, s)
	case *ast.ParameterDef:
		t.semParameterDef(d, s)
	case *ast.CodeSystemDef:
		t.semCodeSystemDef(d, s)
	case *ast.ValueSetDef:
		t.semValueSetDef(d, s)
	case *ast.CodeDef:
		t.semCodeDef(d, s)
	case *ast.ConceptDef:
		t.semConceptDef(d, s)
	case *ast.FunctionDef:
		// A function that shares its name with another definition is
		// only reported.
	}
	t.exitScope(saved)
	t.registry.exit()
	d.state = resolved
	if d.dup {
		t.error(d.stmt, &DuplicateError{Name: d.name})
	}
	return nil
}

func (t *translator) semImplicitPatient(d *definition) {
	var body ir.Expr = ir.NewNull(cql.TypeAny)
	for _, m := range t.models {
		if m.PatientClass != nil {
			r := t.newRetrieve(m.PatientClass)
			body = ir.NewCall("SingletonFrom", m.PatientClass, r)
			break
		}
	}
	d.typ = ir.TypeOf(body)
	d.out = &ir.ExpressionDef{
		Kind:       "ExpressionDef",
		Node:       ir.Typed(d.typ),
		Name:       Patient,
		Context:    Patient,
		Access:     resolve.Public.String(),
		Expression: body,
	}
}

func (t *translator) semExpressionDef(d *definition, s *ast.ExpressionDef) {
	body := t.semExpr(s.Expr)
	d.typ = ir.TypeOf(body)
	d.out = &ir.ExpressionDef{
		Kind:       "ExpressionDef",
		Node:       ir.Typed(d.typ),
		Name:       d.name,
		Context:    d.context,
		Access:     d.access.String(),
		Expression: body,
	}
}

func (t *translator) semParameterDef(d *definition, s *ast.ParameterDef) {
	var declared cql.Type
	if s.Type != nil {
		typ, err := t.resolveTypeSpec(s.Type)
		if err != nil {
			t.error(s.Type, err)
			typ = cql.TypeAny
		}
		declared = typ
	}
	var def ir.Expr
	if s.Default != nil {
		def = t.semExpr(s.Default)
		if declared != nil {
			def = t.coerce(s.Default, def, declared)
		}
	}
	typ := declared
	switch {
	case typ != nil:
	case def != nil:
		typ = ir.TypeOf(def)
	default:
		t.error(s, fmt.Errorf("Could not determine parameter type for parameter %s.", d.name))
		typ = cql.TypeAny
	}
	d.typ = typ
	d.out = &ir.ParameterDef{
		Node:          ir.Typed(typ),
		Name:          d.name,
		Access:        d.access.String(),
		ParameterType: declared,
		Default:       def,
	}
}

func (t *translator) semCodeSystemDef(d *definition, s *ast.CodeSystemDef) {
	d.typ = t.list(cql.TypeCode)
	d.out = &ir.CodeSystemDef{
		Node:    ir.Typed(d.typ),
		Name:    d.name,
		ID:      s.URI,
		Version: s.Version,
		Access:  d.access.String(),
	}
}

func (t *translator) semValueSetDef(d *definition, s *ast.ValueSetDef) {
	var systems []*ir.CodeSystemRef
	for _, ref := range s.CodeSystems {
		if cs, err := t.codeSystemRef(ref); err != nil {
			t.error(ref, err)
		} else {
			systems = append(systems, cs)
		}
	}
	d.typ = t.list(cql.TypeCode)
	d.out = &ir.ValueSetDef{
		Node:        ir.Typed(d.typ),
		Name:        d.name,
		ID:          s.URI,
		Version:     s.Version,
		Access:      d.access.String(),
		CodeSystems: systems,
	}
}

func (t *translator) semCodeDef(d *definition, s *ast.CodeDef) {
	cs, err := t.codeSystemRef(s.System)
	if err != nil {
		t.error(s.System, err)
	}
	d.typ = cql.TypeCode
	d.out = &ir.CodeDef{
		Node:       ir.Typed(d.typ),
		Name:       d.name,
		ID:         s.Code,
		Display:    s.Display,
		Access:     d.access.String(),
		CodeSystem: cs,
	}
}

func (t *translator) semConceptDef(d *definition, s *ast.ConceptDef) {
	var codes []*ir.CodeRef
	for _, ref := range s.Codes {
		name, lib, err := t.termDef(ref, SymbolCode)
		if err != nil {
			t.error(ref, err)
			continue
		}
		codes = append(codes, &ir.CodeRef{Kind: "CodeRef", Node: ir.Typed(cql.TypeCode), Name: name, LibraryName: lib})
	}
	d.typ = cql.TypeConcept
	d.out = &ir.ConceptDef{
		Node:    ir.Typed(d.typ),
		Name:    d.name,
		Display: s.Display,
		Access:  d.access.String(),
		Codes:   codes,
	}
}

func (t *translator) codeSystemRef(ref *ast.TermRef) (*ir.CodeSystemRef, error) {
	name, lib, err := t.termDef(ref, SymbolCodeSystem)
	if err != nil {
		return nil, err
	}
	return &ir.CodeSystemRef{
		Kind:        "CodeSystemRef",
		Node:        ir.Typed(t.list(cql.TypeCode)),
		Name:        name,
		LibraryName: lib,
	}, nil
}

// termDef finds the terminology definition named by ref, translating it
// first if it is local.
func (t *translator) termDef(ref *ast.TermRef, kind SymbolKind) (string, string, error) {
	notFound := func() error {
		if kind == SymbolCodeSystem {
			return fmt.Errorf("Could not resolve reference to code system %s.", ref.Name)
		}
		return fmt.Errorf("Could not resolve reference to code %s.", ref.Name)
	}
	if ref.Library != "" {
		u, ok := t.includes[ref.Library]
		if !ok {
			return "", "", &resolve.LibraryError{Name: ref.Library}
		}
		sym, ok := u.Symbol(ref.Name)
		if !ok || sym.Kind != kind {
			return "", "", notFound()
		}
		if sym.Access == resolve.Private {
			return "", "", &resolve.AccessError{Name: ref.Name, Library: u.Name}
		}
		return ref.Name, ref.Library, nil
	}
	d, ok := t.registry.defs[ref.Name]
	if !ok || d.kind != kind {
		return "", "", notFound()
	}
	if err := t.resolveDef(d); err != nil {
		return "", "", err
	}
	return ref.Name, "", nil
}

// resolveFunction translates f.  A function with a declared return type is
// added to the operator table before its body is translated so that it
// may call itself.  Otherwise, a reference to f from its own body is a
// cycle.
func (t *translator) resolveFunction(f *function) error {
	name := f.def.Name.Name
	switch f.state {
	case resolved:
		return nil
	case resolving:
		if f.op != nil {
			return nil
		}
		path := []string{name}
		if k := slices.Index(t.registry.stack, name); k >= 0 {
			path = slices.Clone(t.registry.stack[k:])
		}
		return &CycleError{Path: append(path, name)}
	}
	f.state = resolving
	t.registry.stack = append(t.registry.stack, name)
	saved := t.enterScope(f.context)
	def := f.def
	t.operands = make(map[string]cql.Type)
	var operands []cql.Type
	var operandDefs []*ir.OperandDef
	for _, o := range def.Operands {
		typ, err := t.resolveTypeSpec(o.Type)
		if err != nil {
			t.error(o.Type, err)
			typ = cql.TypeAny
		}
		if _, ok := t.operands[o.Name.Name]; ok {
			t.error(o, &DuplicateError{Name: o.Name.Name})
		}
		t.operands[o.Name.Name] = typ
		operands = append(operands, typ)
		operandDefs = append(operandDefs, &ir.OperandDef{Name: o.Name.Name, Type: typ})
	}
	op := &resolve.Operator{
		Name:      name,
		Access:    access(def.Access),
		Signature: resolve.Signature{Operands: operands},
		Fluent:    def.Fluent,
		External:  def.External,
	}
	if def.Returns != nil {
		typ, err := t.resolveTypeSpec(def.Returns)
		if err != nil {
			t.error(def.Returns, err)
			typ = cql.TypeAny
		}
		op.Signature.Result = typ
		t.addFunction(f, op)
	}
	var body ir.Expr
	switch {
	case def.External:
		if def.Returns == nil {
			t.error(def, fmt.Errorf("External function %s must declare a return type.", name))
		}
	case def.Body != nil:
		body = t.semExpr(def.Body)
		if op.Signature.Result != nil {
			body = t.coerce(def.Body, body, op.Signature.Result)
		} else {
			op.Signature.Result = ir.TypeOf(body)
		}
	}
	if op.Signature.Result == nil {
		op.Signature.Result = cql.TypeAny
	}
	if f.op == nil {
		t.addFunction(f, op)
	}
	f.out = &ir.FunctionDef{
		Kind:       "FunctionDef",
		Node:       ir.Typed(op.Signature.Result),
		Name:       name,
		Context:    f.context,
		Access:     op.Access.String(),
		Fluent:     def.Fluent,
		External:   def.External,
		Operands:   operandDefs,
		Expression: body,
	}
	t.exitScope(saved)
	t.registry.stack = t.registry.stack[:len(t.registry.stack)-1]
	f.state = resolved
	t.logger.Debug("resolved function",
		zap.String("name", name),
		zap.Stringer("signature", op.Signature),
		zap.Stringer("result", op.Signature.Result),
	)
	return nil
}

func (t *translator) addFunction(f *function, op *resolve.Operator) {
	if err := t.table.Add(op); err != nil {
		t.error(f.def, err)
	}
	f.op = op
}

// ensureFunctions translates every local function called name so their
// signatures are in the operator table before a call is resolved.
func (t *translator) ensureFunctions(name string) error {
	for _, f := range t.registry.funcs[name] {
		if err := t.resolveFunction(f); err != nil {
			return err
		}
	}
	return nil
}

func (t *translator) finish() *Unit {
	if t.registry != nil {
		for _, entry := range t.registry.order {
			switch entry := entry.(type) {
			case *definition:
				if !entry.dup {
					t.emitDef(entry)
				}
			case *function:
				if entry.out == nil {
					continue
				}
				t.lib.Statements = append(t.lib.Statements, entry.out)
				t.unit.Definitions = append(t.unit.Definitions, entry.out)
				t.unit.addSymbol(&Symbol{
					Name:       entry.out.Name,
					Kind:       SymbolFunction,
					Access:     entry.op.Access,
					Type:       entry.op.Signature.Result,
					Context:    entry.context,
					Signatures: []resolve.Signature{entry.op.Signature},
				})
			}
		}
	}
	t.table.Freeze()
	t.unit.Library = t.lib
	t.unit.Table = t.table
	for _, d := range t.files.Diagnostics() {
		if t.opts.MinSeverity == 0 || d.Severity >= t.opts.MinSeverity {
			t.unit.Diagnostics = append(t.unit.Diagnostics, d)
		}
	}
	return t.unit
}

func (t *translator) emitDef(d *definition) {
	switch out := d.out.(type) {
	case *ir.ExpressionDef:
		t.lib.Statements = append(t.lib.Statements, out)
		t.unit.Definitions = append(t.unit.Definitions, out)
	case *ir.ParameterDef:
		t.lib.Parameters = append(t.lib.Parameters, out)
	case *ir.CodeSystemDef:
		t.lib.CodeSystems = append(t.lib.CodeSystems, out)
	case *ir.ValueSetDef:
		t.lib.ValueSets = append(t.lib.ValueSets, out)
	case *ir.CodeDef:
		t.lib.Codes = append(t.lib.Codes, out)
	case *ir.ConceptDef:
		t.lib.Concepts = append(t.lib.Concepts, out)
	default:
		return
	}
	t.unit.addSymbol(&Symbol{
		Name:    d.name,
		Kind:    d.kind,
		Access:  d.access,
		Type:    d.typ,
		Context: d.context,
	})
}
