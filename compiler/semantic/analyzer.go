// Package semantic translates the syntax tree of a CQL library into typed
// IR.  Definitions are translated on demand so they may appear in any
// order, and errors are contained at the smallest failing subtree, which is
// replaced by an ir.BadExpr so the rest of the library is still checked.
package semantic

import (
	"errors"
	"strconv"

	"github.com/brimdata/cql"
	"github.com/brimdata/cql/compiler/ast"
	"github.com/brimdata/cql/compiler/ir"
	"github.com/brimdata/cql/compiler/optimizer"
	"github.com/brimdata/cql/compiler/parser"
	"github.com/brimdata/cql/compiler/resolve"
	"github.com/brimdata/cql/compiler/srcfiles"
	"github.com/brimdata/cql/model"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Analyze translates a parsed library.  The returned Unit holds the IR,
// which may be partial, along with every diagnostic.  The error is the
// list of error-severity diagnostics, if any, or a failure to set up the
// translation.
func Analyze(p *parser.AST, env *Environment) (*Unit, error) {
	t, err := newTranslator(p.Files(), env)
	if err != nil {
		return nil, err
	}
	unit := t.translate(p.Parsed())
	if errs := unit.Errors(); len(errs) > 0 {
		return unit, errs
	}
	return unit, nil
}

type translator struct {
	env         *Environment
	opts        Options
	files       *srcfiles.List
	tctx        *cql.Context
	logger      *zap.Logger
	unit        *Unit
	lib         *ir.Library
	table       *resolve.Table
	conversions *resolve.Table
	engine      *resolve.Engine
	resolver    *resolve.Resolver
	optimizer   *optimizer.Optimizer
	models      []*model.Model
	includes    map[string]*Unit
	registry    *registry
	context     string
	queries     []*queryScope
	operands    map[string]cql.Type
	nextID      int
	aborted     bool
}

func newTranslator(files *srcfiles.List, env *Environment) (*translator, error) {
	if env.Context == nil || env.System == nil {
		return nil, errors.New("semantic: environment is missing a type context or System library")
	}
	logger := env.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &translator{
		env:         env,
		opts:        env.Options,
		files:       files,
		tctx:        env.Context,
		logger:      logger,
		unit:        &Unit{},
		lib:         &ir.Library{Kind: "Library"},
		conversions: resolve.NewTable("Conversions"),
		optimizer:   optimizer.New(logger),
		includes:    make(map[string]*Unit),
		context:     Unfiltered,
	}, nil
}

// badExpr returns a placeholder for an expression that failed because of
// the diagnostic cause.
func badExpr(typ cql.Type, cause *srcfiles.Error) *ir.BadExpr {
	if typ == nil {
		typ = cql.TypeAny
	}
	bad := &ir.BadExpr{Kind: "BadExpr", Node: ir.Typed(typ)}
	if cause != nil {
		bad.Cause = cause
	}
	return bad
}

func (t *translator) error(n ast.Node, err error) *ir.BadExpr {
	return t.errorAs(n, err, cql.TypeAny)
}

func (t *translator) errorAs(n ast.Node, err error, typ cql.Type) *ir.BadExpr {
	return badExpr(typ, t.report(srcfiles.Err, n, err))
}

func (t *translator) warn(n ast.Node, msg string) {
	t.report(srcfiles.Warning, n, errors.New(msg))
}

func (t *translator) report(sev srcfiles.Severity, n ast.Node, err error) *srcfiles.Error {
	pos, end := -1, -1
	if n != nil {
		pos, end = n.Pos(), n.End()
	}
	e := t.files.Add(sev, err.Error(), pos, end)
	e.Cause = err
	if t.opts.AbortSeverity != 0 && sev >= t.opts.AbortSeverity {
		t.aborted = true
	}
	return e
}

// fail reports err at n unless one of operands already failed, in which
// case err is secondary: it is dropped, or attached to the root diagnostic
// when detailed errors are requested.
func (t *translator) fail(n ast.Node, err error, typ cql.Type, operands ...ir.Expr) *ir.BadExpr {
	if root := rootCause(operands); root != nil {
		if t.opts.DetailedErrors {
			root.Cause = multierr.Append(root.Cause, err)
		}
		return badExpr(typ, root)
	}
	return t.errorAs(n, err, typ)
}

func rootCause(exprs []ir.Expr) *srcfiles.Error {
	for _, e := range exprs {
		if bad, ok := e.(*ir.BadExpr); ok {
			if cause, ok := bad.Cause.(*srcfiles.Error); ok {
				return cause
			}
		}
	}
	return nil
}

// semExpr translates e and, when locators are enabled, stamps the result
// with a local ID and the source span of e.
func (t *translator) semExpr(e ast.Expr) ir.Expr {
	out := t.expr(e)
	if t.opts.Locators && out != nil {
		if h := out.Header(); h.LocalID == "" {
			t.nextID++
			h.LocalID = strconv.Itoa(t.nextID)
			h.Locator = t.files.Locator(e.Pos(), e.End())
		}
	}
	return out
}

// coerce implicitly converts e to typ.
func (t *translator) coerce(n ast.Node, e ir.Expr, typ cql.Type) ir.Expr {
	if ir.IsBad(e) {
		return e
	}
	from := ir.TypeOf(e)
	c := t.engine.FindConversion(from, typ, true)
	if c == nil {
		return t.errorAs(n, &TypeError{Expected: typ, Found: from}, typ)
	}
	return t.apply(n, e, c)
}

// apply applies c to e and warns when the conversion demotes a list.
func (t *translator) apply(n ast.Node, e ir.Expr, c *resolve.Conversion) ir.Expr {
	if c != nil && c.Step == resolve.ListDemotion {
		t.warn(n, "List-valued expression was demoted to a singleton.")
	}
	return t.engine.Apply(e, c)
}

func (t *translator) list(typ cql.Type) cql.Type {
	return t.tctx.LookupTypeList(typ)
}
