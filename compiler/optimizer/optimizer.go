// Package optimizer implements rewrites of typed IR that preserve program
// semantics.
package optimizer

import (
	"github.com/brimdata/cql/compiler/ir"
	"go.uber.org/zap"
)

type Optimizer struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimizer{logger: logger}
}

// Library applies DateRanges to every query in the definitions of lib,
// innermost queries first.  It returns the number of predicates hoisted.
func (o *Optimizer) Library(lib *ir.Library) int {
	var n int
	for _, def := range lib.Statements {
		var body ir.Expr
		switch def := def.(type) {
		case *ir.ExpressionDef:
			body = def.Expression
		case *ir.FunctionDef:
			body = def.Expression
		}
		ir.Walk(body, func(e ir.Expr) bool {
			return true
		}, func(e ir.Expr) {
			if q, ok := e.(*ir.Query); ok {
				n += o.DateRanges(q)
			}
		})
	}
	return n
}
