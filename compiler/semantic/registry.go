package semantic

import (
	"slices"

	"github.com/brimdata/cql"
	"github.com/brimdata/cql/compiler/ast"
	"github.com/brimdata/cql/compiler/ir"
	"github.com/brimdata/cql/compiler/resolve"
)

// Evaluation contexts.
const (
	Patient    = "Patient"
	Population = "Population"
	Unfiltered = "Unfiltered"
)

type defState int

const (
	unseen defState = iota
	resolving
	resolved
)

// definition is a named, non-function statement.  A definition whose
// name is taken by an earlier statement is translated like any other and
// reported as a duplicate when it completes.
type definition struct {
	name     string
	stmt     ast.Stmt
	context  string
	kind     SymbolKind
	access   resolve.Access
	state    defState
	dup      bool
	implicit bool
	typ      cql.Type
	out      any
}

type function struct {
	def     *ast.FunctionDef
	context string
	state   defState
	op      *resolve.Operator
	out     *ir.FunctionDef
}

// registry is the forward-declaration index of a library: every named
// statement with the context in force at its position, in source order.
type registry struct {
	defs   map[string]*definition
	funcs  map[string][]*function
	byStmt map[ast.Stmt]any
	order  []any
	stack  []string
}

func newRegistry(stmts []ast.Stmt) *registry {
	r := &registry{
		defs:   make(map[string]*definition),
		funcs:  make(map[string][]*function),
		byStmt: make(map[ast.Stmt]any),
	}
	context := Unfiltered
	var seenContext bool
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.ContextDef:
			if !seenContext {
				r.implicitPatient(stmts)
				seenContext = true
			}
			context = s.Name.Name
		case *ast.FunctionDef:
			f := &function{def: s, context: context}
			if _, ok := r.defs[s.Name.Name]; ok {
				r.add(stmt, &definition{name: s.Name.Name, stmt: stmt, context: context, kind: SymbolFunction, dup: true})
				continue
			}
			r.funcs[s.Name.Name] = append(r.funcs[s.Name.Name], f)
			r.byStmt[stmt] = f
			r.order = append(r.order, f)
		default:
			name, kind, access, ok := statementName(stmt)
			if !ok {
				continue
			}
			d := &definition{name: name, stmt: stmt, context: context, kind: kind, access: access}
			if _, ok := r.defs[name]; ok {
				d.dup = true
			} else if _, ok := r.funcs[name]; ok {
				d.dup = true
			}
			r.add(stmt, d)
		}
	}
	return r
}

func (r *registry) add(stmt ast.Stmt, d *definition) {
	if d.dup {
		r.byStmt[stmt] = d
		r.order = append(r.order, d)
		return
	}
	r.defs[d.name] = d
	r.byStmt[stmt] = d
	r.order = append(r.order, d)
}

// implicitPatient registers the Patient definition synthesized at the
// first context statement unless the library defines Patient itself.
func (r *registry) implicitPatient(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		if def, ok := stmt.(*ast.ExpressionDef); ok && def.Name.Name == Patient {
			return
		}
	}
	d := &definition{name: Patient, context: Patient, kind: SymbolExpression, implicit: true}
	r.defs[Patient] = d
	r.order = append(r.order, d)
}

// enter marks d as being translated and reports a cycle if it already is.
func (r *registry) enter(name string) *CycleError {
	if k := slices.Index(r.stack, name); k >= 0 {
		path := append(slices.Clone(r.stack[k:]), name)
		return &CycleError{Path: path}
	}
	r.stack = append(r.stack, name)
	return nil
}

func (r *registry) exit() {
	r.stack = r.stack[:len(r.stack)-1]
}

// names returns the names of every definition and function, for
// suggestions.
func (r *registry) names() []string {
	var out []string
	for name := range r.defs {
		out = append(out, name)
	}
	for name := range r.funcs {
		out = append(out, name)
	}
	return out
}

func statementName(stmt ast.Stmt) (string, SymbolKind, resolve.Access, bool) {
	switch s := stmt.(type) {
	case *ast.ExpressionDef:
		return s.Name.Name, SymbolExpression, access(s.Access), true
	case *ast.ParameterDef:
		return s.Name.Name, SymbolParameter, access(s.Access), true
	case *ast.CodeSystemDef:
		return s.Name.Name, SymbolCodeSystem, access(s.Access), true
	case *ast.ValueSetDef:
		return s.Name.Name, SymbolValueSet, access(s.Access), true
	case *ast.CodeDef:
		return s.Name.Name, SymbolCode, access(s.Access), true
	case *ast.ConceptDef:
		return s.Name.Name, SymbolConcept, access(s.Access), true
	}
	return "", "", resolve.Public, false
}

func access(s string) resolve.Access {
	if s == ast.Private {
		return resolve.Private
	}
	return resolve.Public
}
