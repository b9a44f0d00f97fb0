package semantic

import (
	"fmt"

	"github.com/brimdata/cql"
	"github.com/brimdata/cql/compiler/ast"
	"github.com/brimdata/cql/compiler/ir"
	"github.com/brimdata/cql/compiler/resolve"
)

// lookup resolves a call of name with args.  An unqualified call first
// makes sure every local function of that name has been translated.
func (t *translator) lookup(library, name string, args []ir.Expr) (*resolve.Resolution, error) {
	if library == "" {
		if err := t.ensureFunctions(name); err != nil {
			return nil, err
		}
	}
	types := make([]cql.Type, 0, len(args))
	for _, arg := range args {
		types = append(types, ir.TypeOf(arg))
	}
	return t.resolver.Resolve(resolve.CallContext{Library: library, Name: name, Args: types}, true)
}

// invoke resolves and builds a call.  A failed resolution whose arguments
// already failed is a secondary error.
func (t *translator) invoke(n ast.Node, library, name, precision string, args ...ir.Expr) ir.Expr {
	res, err := t.lookup(library, name, args)
	if err != nil {
		return t.fail(n, err, cql.TypeAny, args...)
	}
	return t.build(n, library, res, precision, args)
}

// system calls the System operator name.
func (t *translator) system(n ast.Node, name string, args ...ir.Expr) ir.Expr {
	return t.invoke(n, resolve.SystemLibrary, name, "", args...)
}

func (t *translator) systemPrecision(n ast.Node, name, precision string, args ...ir.Expr) ir.Expr {
	return t.invoke(n, resolve.SystemLibrary, name, precision, args...)
}

func (t *translator) build(n ast.Node, library string, res *resolve.Resolution, precision string, args []ir.Expr) ir.Expr {
	operands := make([]ir.Expr, len(args))
	for k, arg := range args {
		operands[k] = t.apply(n, arg, res.Conversions[k])
	}
	op := res.Operator
	var sig []cql.Type
	if t.annotate(res) {
		sig = res.Signature.Operands
	}
	if op.IsSystem() {
		call := ir.NewCall(op.Name, res.Signature.Result, operands...)
		call.Precision = precision
		call.Signature = sig
		return call
	}
	if library == resolve.SystemLibrary || library == t.unit.Name {
		library = ""
	}
	return &ir.FunctionRef{
		Kind:        "FunctionRef",
		Node:        ir.Typed(res.Signature.Result),
		Name:        op.Name,
		LibraryName: library,
		Operands:    operands,
		Signature:   sig,
	}
}

func (t *translator) annotate(res *resolve.Resolution) bool {
	switch t.opts.SignatureLevel {
	case SignatureAll:
		return true
	case SignatureOverloads:
		return t.resolver.Overloaded(res)
	case SignatureDiffering:
		return res.Converted()
	}
	return false
}

func (t *translator) semExprs(exprs []ast.Expr) []ir.Expr {
	out := make([]ir.Expr, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, t.semExpr(e))
	}
	return out
}

func (t *translator) semCall(c *ast.Call) ir.Expr {
	if c.Source == nil {
		return t.invoke(c, "", c.Name, "", t.semExprs(c.Args)...)
	}
	if id, ok := c.Source.(*ast.Identifier); ok && !t.localName(id.Name) {
		if _, ok := t.includes[id.Name]; ok || id.Name == resolve.SystemLibrary {
			return t.invoke(c, id.Name, c.Name, "", t.semExprs(c.Args)...)
		}
	}
	return t.semMethod(c)
}

// semMethod translates "x.F(args)" as "F(x, args)".  Besides System
// operators, only fluent functions may be invoked this way.
func (t *translator) semMethod(c *ast.Call) ir.Expr {
	if !t.opts.MethodInvocation {
		return t.error(c, fmt.Errorf("Could not resolve method %s: method invocation is disabled.", c.Name))
	}
	args := append([]ir.Expr{t.semExpr(c.Source)}, t.semExprs(c.Args)...)
	res, err := t.lookup("", c.Name, args)
	if err != nil {
		return t.fail(c, err, cql.TypeAny, args...)
	}
	if op := res.Operator; !op.IsSystem() && !op.Fluent {
		return t.error(c, fmt.Errorf("Function %s is not fluent and cannot be invoked as a method.", op.Name))
	}
	return t.build(c, "", res, "", args)
}
