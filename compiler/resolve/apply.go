package resolve

import (
	"github.com/brimdata/cql"
	"github.com/brimdata/cql/compiler/ir"
)

// ElementAlias is the alias of the synthetic query built for element-wise
// list conversions.
const ElementAlias = "X"

// Apply returns expr converted by c.  The input expression is never
// modified; conversions wrap it in new nodes.
func (e *Engine) Apply(expr ir.Expr, c *Conversion) ir.Expr {
	if c == nil {
		return expr
	}
	switch c.Step {
	case Identity:
		from := ir.TypeOf(expr)
		if cql.IsSupertypeOf(c.To, from) {
			return expr
		}
		// Compatible but not a supertype: a null or a choice narrowed
		// to one of its members.
		return &ir.As{
			Kind:    "As",
			Node:    ir.Typed(c.To),
			Operand: expr,
			AsType:  c.To,
		}
	case ListPromotion:
		return &ir.List{
			Kind:     "List",
			Node:     ir.Typed(c.To),
			Elements: []ir.Expr{expr},
		}
	case ListDemotion:
		return ir.NewCall("SingletonFrom", c.To, expr)
	case ListElement:
		elem, _ := cql.ListElem(c.From)
		alias := &ir.AliasRef{Kind: "AliasRef", Node: ir.Typed(elem), Name: ElementAlias}
		return &ir.Query{
			Kind: "Query",
			Node: ir.Typed(c.To),
			Sources: []*ir.AliasedSource{{
				Alias:      ElementAlias,
				Expression: expr,
				Type:       c.From,
			}},
			Return: &ir.ReturnClause{
				Expression: e.Apply(alias, c.Inner),
			},
		}
	case IntervalPoint:
		point, _ := cql.IntervalPoint(c.From)
		return &ir.Interval{
			Kind:           "Interval",
			Node:           ir.Typed(c.To),
			Low:            e.Apply(property(expr, "low", point), c.Inner),
			LowClosedExpr:  property(expr, "lowClosed", cql.TypeBoolean),
			High:           e.Apply(property(expr, "high", point), c.Inner),
			HighClosedExpr: property(expr, "highClosed", cql.TypeBoolean),
		}
	case IntervalPromotion:
		return &ir.Interval{
			Kind:       "Interval",
			Node:       ir.Typed(c.To),
			Low:        expr,
			LowClosed:  true,
			High:       expr,
			HighClosed: true,
		}
	case IntervalDemotion:
		return ir.NewCall("PointFrom", c.To, expr)
	case OperatorStep:
		op := c.Operator
		if op.IsSystem() {
			return ir.NewCall(op.Name, op.Signature.Result, expr)
		}
		return &ir.FunctionRef{
			Kind:        "FunctionRef",
			Node:        ir.Typed(op.Signature.Result),
			Name:        op.Name,
			LibraryName: op.Library,
			Operands:    []ir.Expr{expr},
		}
	case BuiltinStep:
		return ir.NewCall(c.Operator.Name, c.To, expr)
	case ConvertStep:
		return &ir.Convert{
			Kind:    "Convert",
			Node:    ir.Typed(c.To),
			Operand: expr,
			ToType:  c.To,
		}
	}
	return expr
}

func property(source ir.Expr, path string, typ cql.Type) *ir.Property {
	return &ir.Property{
		Kind:   "Property",
		Node:   ir.Typed(typ),
		Source: source,
		Path:   path,
	}
}
