package ir

// Walk traverses the expression tree rooted at e in depth-first order.
// pre is called before a node's children and may return false to skip
// them.  post, if not nil, is called after the children.
func Walk(e Expr, pre func(Expr) bool, post func(Expr)) {
	if e == nil {
		return
	}
	if !pre(e) {
		return
	}
	for _, child := range Children(e) {
		Walk(child, pre, post)
	}
	if post != nil {
		post(e)
	}
}

// Children returns the direct subexpressions of e in evaluation order.
func Children(e Expr) []Expr {
	var out []Expr
	add := func(exprs ...Expr) {
		for _, e := range exprs {
			if e != nil {
				out = append(out, e)
			}
		}
	}
	switch e := e.(type) {
	case *Interval:
		add(e.Low, e.LowClosedExpr, e.High, e.HighClosedExpr)
	case *List:
		add(e.Elements...)
	case *Tuple:
		for _, elem := range e.Elements {
			add(elem.Value)
		}
	case *Instance:
		for _, elem := range e.Elements {
			add(elem.Value)
		}
	case *Code:
		if e.System != nil {
			add(e.System)
		}
	case *Concept:
		for _, c := range e.Codes {
			add(c)
		}
	case *Call:
		add(e.Operands...)
	case *FunctionRef:
		add(e.Operands...)
	case *Property:
		add(e.Source)
	case *As:
		add(e.Operand)
	case *Is:
		add(e.Operand)
	case *Convert:
		add(e.Operand)
	case *If:
		add(e.Condition, e.Then, e.Else)
	case *Case:
		add(e.Comparand)
		for _, item := range e.CaseItems {
			add(item.When, item.Then)
		}
		add(e.Else)
	case *Retrieve:
		add(e.Codes, e.DateRange)
	case *Query:
		for _, src := range e.Sources {
			add(src.Expression)
		}
		for _, let := range e.Lets {
			add(let.Expression)
		}
		for _, rel := range e.Relationship {
			add(rel.Expression, rel.SuchThat)
		}
		add(e.Where)
		if e.Return != nil {
			add(e.Return.Expression)
		}
		if e.Sort != nil {
			for _, by := range e.Sort.By {
				if by, ok := by.(*ByExpression); ok {
					add(by.Expression)
				}
			}
		}
	}
	return out
}
