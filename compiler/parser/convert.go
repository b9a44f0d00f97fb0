package parser

import (
	"strings"

	"github.com/brimdata/cql/compiler/ast"
)

func binary(op string, lhs, rhs ast.Expr, precision string) ast.Expr {
	return &ast.Binary{
		Kind:      "Binary",
		Op:        op,
		LHS:       lhs,
		RHS:       rhs,
		Precision: precision,
		Loc:       ast.NewLoc(lhs.Pos(), rhs.End()),
	}
}

func convertExpr(e *expr) ast.Expr {
	out := convertImplies(e.Left)
	for _, r := range e.Rest {
		out = binary(r.Op, out, convertImplies(r.Right), "")
	}
	return out
}

func convertImplies(e *impliesExpr) ast.Expr {
	out := convertOr(e.Left)
	for _, r := range e.Rest {
		out = binary(r.Op, out, convertOr(r.Right), "")
	}
	return out
}

func convertOr(e *orExpr) ast.Expr {
	out := convertAnd(e.Left)
	for _, r := range e.Rest {
		out = binary(r.Op, out, convertAnd(r.Right), "")
	}
	return out
}

func convertAnd(e *andExpr) ast.Expr {
	out := convertMembership(e.Left)
	for _, r := range e.Rest {
		out = binary(r.Op, out, convertMembership(r.Right), "")
	}
	return out
}

func convertMembership(e *membershipExpr) ast.Expr {
	out := convertEquality(e.Left)
	for _, r := range e.Rest {
		out = binary(r.Op, out, convertEquality(r.Right), r.Precision)
	}
	return out
}

func convertEquality(e *equalityExpr) ast.Expr {
	out := convertTiming(e.Left)
	for _, r := range e.Rest {
		out = binary(r.Op, out, convertTiming(r.Right), "")
	}
	return out
}

func convertTiming(e *timingExpr) ast.Expr {
	out := convertInequality(e.Left)
	for _, r := range e.Rest {
		rhs := convertInequality(r.Right)
		out = &ast.Timing{
			Kind:   "Timing",
			Phrase: convertPhrase(r.Phrase),
			LHS:    out,
			RHS:    rhs,
			Loc:    ast.NewLoc(out.Pos(), rhs.End()),
		}
	}
	return out
}

func convertPhrase(p *timingPhrase) *ast.TimingPhrase {
	out := &ast.TimingPhrase{Kind: "TimingPhrase", Loc: loc(p.Pos, p.EndPos)}
	switch {
	case p.Same != nil:
		out.Prefix = phrasePrefix(p.Same.Prefix)
		out.Precision = p.Same.Precision
		if p.Same.Relation == "" {
			out.Op = "same as"
		} else {
			out.Op = "same or " + p.Same.Relation
		}
	case p.Included != nil:
		out.Op = "included in"
		out.Prefix = phrasePrefix(p.Included.Prefix)
		out.Proper = p.Included.Proper
		out.Precision = p.Included.Precision
	case p.Relative != nil:
		out.Op = p.Relative.Op
		out.Prefix = phrasePrefix(p.Relative.Prefix)
		out.Precision = p.Relative.Precision
	case p.Includes != nil:
		out.Op = "includes"
		out.Proper = p.Includes.Proper
		out.Precision = p.Includes.Precision
	case p.Meets != nil:
		out.Op = p.Meets.Op
		if p.Meets.Direction != "" {
			out.Op += " " + p.Meets.Direction
		}
		out.Precision = p.Meets.Precision
	}
	return out
}

// phrasePrefix drops "occurs", which selects the whole operand.
func phrasePrefix(s string) string {
	if s == "occurs" {
		return ""
	}
	return s
}

func convertInequality(e *inequalityExpr) ast.Expr {
	out := convertTypeExpr(e.Left)
	for _, r := range e.Rest {
		out = binary(r.Op, out, convertTypeExpr(r.Right), "")
	}
	return out
}

func convertTypeExpr(e *typeExpr) ast.Expr {
	out := convertPrefix(e.Operand)
	for _, s := range e.Suffixes {
		l := ast.NewLoc(out.Pos(), s.EndPos.Offset)
		switch {
		case s.Test != nil:
			out = &ast.BooleanTest{
				Kind:  "BooleanTest",
				Expr:  out,
				Not:   s.Test.Not,
				Value: s.Test.Value,
				Loc:   l,
			}
		case s.Is != nil:
			out = &ast.TypeExpr{Kind: "TypeExpr", Op: "is", Expr: out, Type: convertTypeSpec(s.Is), Loc: l}
		case s.As != nil:
			out = &ast.TypeExpr{Kind: "TypeExpr", Op: "as", Expr: out, Type: convertTypeSpec(s.As), Loc: l}
		case s.Between != nil:
			out = &ast.Between{
				Kind:   "Between",
				Expr:   out,
				Low:    convertTerm(s.Between.Low),
				High:   convertTerm(s.Between.High),
				Proper: s.Between.Proper,
				Loc:    l,
			}
		}
	}
	return out
}

func convertPrefix(p *prefixExpr) ast.Expr {
	l := loc(p.Pos, p.EndPos)
	switch {
	case p.Not != nil:
		return &ast.Unary{Kind: "Unary", Op: "not", Expr: convertTypeExpr(p.Not), Loc: l}
	case p.Exists != nil:
		return &ast.Unary{Kind: "Unary", Op: "exists", Expr: convertTypeExpr(p.Exists), Loc: l}
	case p.Cast != nil:
		return &ast.TypeExpr{
			Kind: "TypeExpr",
			Op:   "cast",
			Expr: convertPrefix(p.Cast.Operand),
			Type: convertTypeSpec(p.Cast.Type),
			Loc:  l,
		}
	case p.Duration != nil:
		d := p.Duration
		return &ast.DurationBetween{
			Kind:       "DurationBetween",
			Precision:  d.Precision,
			Difference: d.Difference,
			LHS:        convertTerm(d.Low),
			RHS:        convertTerm(d.High),
			Loc:        l,
		}
	case p.Query != nil:
		return convertQuery(p.Query)
	}
	return convertTerm(p.Term)
}

func convertTerm(e *termExpr) ast.Expr {
	out := convertMult(e.Left)
	for _, r := range e.Rest {
		out = binary(r.Op, out, convertMult(r.Right), "")
	}
	return out
}

func convertMult(e *multExpr) ast.Expr {
	out := convertPower(e.Left)
	for _, r := range e.Rest {
		out = binary(r.Op, out, convertPower(r.Right), "")
	}
	return out
}

func convertPower(e *powerExpr) ast.Expr {
	out := convertUnary(e.Left)
	for _, r := range e.Rest {
		out = binary(r.Op, out, convertUnary(r.Right), "")
	}
	return out
}

func convertUnary(u *unaryTerm) ast.Expr {
	l := loc(u.Pos, u.EndPos)
	switch {
	case u.Polarity != nil:
		operand := convertUnary(u.Polarity.Operand)
		if u.Polarity.Op == "+" {
			return operand
		}
		return &ast.Unary{Kind: "Unary", Op: "-", Expr: operand, Loc: l}
	case u.Keyword != nil:
		op := u.Keyword.Op
		if op == "singleton" || op == "point" {
			op += " from"
		} else {
			op += " of"
		}
		return &ast.Unary{Kind: "Unary", Op: op, Expr: convertUnary(u.Keyword.Operand), Loc: l}
	case u.Component != nil:
		return &ast.Component{
			Kind:      "Component",
			Component: u.Component.Name,
			Expr:      convertUnary(u.Component.Operand),
			Loc:       l,
		}
	case u.DurationOf != nil:
		return &ast.DurationOf{
			Kind:       "DurationOf",
			Precision:  u.DurationOf.Precision,
			Difference: u.DurationOf.Op == "difference",
			Expr:       convertUnary(u.DurationOf.Operand),
			Loc:        l,
		}
	case u.MinMax != nil:
		return &ast.MinMaxValue{
			Kind: "MinMaxValue",
			Op:   u.MinMax.Op,
			Type: convertNamedType(u.MinMax.Type),
			Loc:  l,
		}
	case u.Convert != nil:
		return &ast.Convert{
			Kind: "Convert",
			Expr: convertExpr(u.Convert.Operand),
			Type: convertTypeSpec(u.Convert.Type),
			Loc:  l,
		}
	case u.If != nil:
		return &ast.If{
			Kind: "If",
			Cond: convertExpr(u.If.Cond),
			Then: convertExpr(u.If.Then),
			Else: convertExpr(u.If.Else),
			Loc:  l,
		}
	case u.Case != nil:
		out := &ast.Case{Kind: "Case", Else: convertExpr(u.Case.Else), Loc: l}
		if u.Case.Comparand != nil {
			out.Comparand = convertExpr(u.Case.Comparand)
		}
		for _, item := range u.Case.Items {
			out.Whens = append(out.Whens, &ast.CaseItem{
				Kind: "CaseItem",
				When: convertExpr(item.When),
				Then: convertExpr(item.Then),
				Loc:  loc(item.Pos, item.EndPos),
			})
		}
		return out
	case u.ListOp != nil:
		return &ast.Unary{Kind: "Unary", Op: u.ListOp.Op, Expr: convertExpr(u.ListOp.Operand), Loc: l}
	}
	return convertPostfix(u.Postfix)
}

func convertPostfix(p *postfixExpr) ast.Expr {
	out := convertPrimary(p.Primary)
	for _, op := range p.Ops {
		l := ast.NewLoc(out.Pos(), op.EndPos.Offset)
		switch {
		case op.Call != nil:
			out = &ast.Call{
				Kind:   "Call",
				Source: out,
				Name:   identName(op.Call.Name),
				Args:   convertExprs(op.Call.Args),
				Loc:    l,
			}
		case op.Member != nil:
			out = &ast.Member{Kind: "Member", Expr: out, Name: identName(*op.Member), Loc: l}
		case op.Index != nil:
			out = &ast.Index{Kind: "Index", Expr: out, Index: convertExpr(op.Index), Loc: l}
		}
	}
	return out
}

func convertExprs(exprs []*expr) []ast.Expr {
	var out []ast.Expr
	for _, e := range exprs {
		out = append(out, convertExpr(e))
	}
	return out
}

func literal(typ, text string, l ast.Loc) *ast.Literal {
	return &ast.Literal{Kind: "Literal", Type: typ, Text: text, Loc: l}
}

func convertPrimary(p *primary) ast.Expr {
	l := loc(p.Pos, p.EndPos)
	switch {
	case p.DateTime != nil:
		return literal(ast.LitDateTime, strings.TrimPrefix(*p.DateTime, "@"), l)
	case p.Time != nil:
		return literal(ast.LitTime, strings.TrimPrefix(*p.Time, "@T"), l)
	case p.Quantity != nil:
		unit := p.Quantity.Unit
		if strings.HasPrefix(unit, "'") {
			unit = unquote(unit)
		}
		return &ast.Quantity{Kind: "Quantity", Value: p.Quantity.Value, Unit: unit, Loc: l}
	case p.Number != nil:
		if strings.Contains(*p.Number, ".") {
			return literal(ast.LitDecimal, *p.Number, l)
		}
		return literal(ast.LitInteger, *p.Number, l)
	case p.String != nil:
		return literal(ast.LitString, unquote(*p.String), l)
	case p.Bool != nil:
		return literal(ast.LitBoolean, *p.Bool, l)
	case p.Null:
		return literal(ast.LitNull, "null", l)
	case p.Interval != nil:
		return &ast.IntervalSel{
			Kind:       "IntervalSel",
			Low:        convertExpr(p.Interval.Low),
			LowClosed:  p.Interval.Open == "[",
			High:       convertExpr(p.Interval.High),
			HighClosed: p.Interval.Close == "]",
			Loc:        l,
		}
	case p.Tuple != nil:
		return &ast.TupleSel{Kind: "TupleSel", Elems: convertTupleElems(p.Tuple.Elems), Loc: l}
	case p.List != nil:
		out := &ast.ListSel{Kind: "ListSel", Elems: convertExprs(p.List.Elems), Loc: l}
		if p.List.Type != nil {
			out.Type = convertTypeSpec(p.List.Type)
		}
		return out
	case p.Code != nil:
		return convertCodeSel(p.Code)
	case p.Concept != nil:
		out := &ast.ConceptSel{Kind: "ConceptSel", Display: optString(p.Concept.Display), Loc: l}
		for _, c := range p.Concept.Codes {
			out.Codes = append(out.Codes, convertCodeSel(c))
		}
		return out
	case p.Instance != nil:
		return &ast.InstanceSel{
			Kind:  "InstanceSel",
			Type:  convertNamedType(p.Instance.Type),
			Elems: convertTupleElems(p.Instance.Elems),
			Loc:   l,
		}
	case p.Retrieve != nil:
		return convertRetrieve(p.Retrieve)
	case p.Call != nil:
		return &ast.Call{Kind: "Call", Name: identName(p.Call.Name), Args: convertExprs(p.Call.Args), Loc: l}
	case p.Ident != nil:
		return &ast.Identifier{Kind: "Identifier", Name: identName(p.Ident.Name), Loc: l}
	}
	return convertExpr(p.Paren)
}

func convertTupleElems(elems []*tupleElemSel) []*ast.TupleElem {
	var out []*ast.TupleElem
	for _, e := range elems {
		l := loc(e.Pos, e.EndPos)
		out = append(out, &ast.TupleElem{
			Kind: "TupleElem",
			Name: newID(e.Name, l),
			Expr: convertExpr(e.Expr),
			Loc:  l,
		})
	}
	return out
}

func convertCodeSel(c *codeSel) *ast.CodeSel {
	return &ast.CodeSel{
		Kind:    "CodeSel",
		Code:    unquote(c.Code),
		System:  convertTermRef(c.System),
		Display: optString(c.Display),
		Loc:     loc(c.Pos, c.EndPos),
	}
}

func convertRetrieve(r *retrieve) *ast.Retrieve {
	out := &ast.Retrieve{
		Kind:     "Retrieve",
		Type:     convertNamedType(r.Type),
		CodePath: identName(r.CodePath),
		Loc:      loc(r.Pos, r.EndPos),
	}
	if r.Terminology != nil {
		out.Terminology = convertExpr(r.Terminology)
	}
	return out
}

func convertQuery(q *query) *ast.Query {
	out := &ast.Query{Kind: "Query", Loc: loc(q.Pos, q.EndPos)}
	if q.Sources.Single != nil {
		out.Sources = []*ast.AliasedSource{convertSource(q.Sources.Single)}
	} else {
		out.From = true
		for _, s := range q.Sources.From {
			out.Sources = append(out.Sources, convertSource(s))
		}
	}
	for _, let := range q.Lets {
		out.Lets = append(out.Lets, &ast.LetClause{
			Kind: "LetClause",
			Name: convertIdent(let.Name),
			Expr: convertExpr(let.Expr),
			Loc:  loc(let.Pos, let.EndPos),
		})
	}
	for _, r := range q.Relationships {
		out.Relationships = append(out.Relationships, &ast.Relationship{
			Kind:     "Relationship",
			Without:  r.Op == "without",
			Source:   convertSource(r.Source),
			SuchThat: convertExpr(r.SuchThat),
			Loc:      loc(r.Pos, r.EndPos),
		})
	}
	if q.Where != nil {
		out.Where = convertExpr(q.Where)
	}
	if r := q.Return; r != nil {
		out.Return = &ast.ReturnClause{
			Kind:     "ReturnClause",
			Distinct: r.Modifier == "distinct",
			All:      r.Modifier == "all",
			Expr:     convertExpr(r.Expr),
			Loc:      loc(r.Pos, r.EndPos),
		}
	}
	if s := q.Sort; s != nil {
		out.Sort = &ast.SortClause{Kind: "SortClause", Loc: loc(s.Pos, s.EndPos)}
		if s.Direction != "" {
			out.Sort.Items = []*ast.SortItem{{
				Kind: "SortItem",
				Desc: isDescending(s.Direction),
				Loc:  loc(s.Pos, s.EndPos),
			}}
		}
		for _, item := range s.Items {
			out.Sort.Items = append(out.Sort.Items, &ast.SortItem{
				Kind: "SortItem",
				Expr: convertTerm(item.Expr),
				Desc: isDescending(item.Direction),
				Loc:  loc(item.Pos, item.EndPos),
			})
		}
	}
	return out
}

func isDescending(dir string) bool {
	return strings.HasPrefix(dir, "desc")
}

func convertSource(s *aliasedSource) *ast.AliasedSource {
	out := &ast.AliasedSource{
		Kind:  "AliasedSource",
		Alias: convertIdent(s.Alias),
		Loc:   loc(s.Pos, s.EndPos),
	}
	src := s.Source
	switch {
	case src.Retrieve != nil:
		out.Expr = convertRetrieve(src.Retrieve)
	case src.Paren != nil:
		out.Expr = convertExpr(src.Paren)
	default:
		out.Expr = qualifiedExpr(src.Name)
	}
	return out
}

// qualifiedExpr turns "A.B.C" into a chain of Member nodes rooted at an
// Identifier.
func qualifiedExpr(q *qualifiedIdent) ast.Expr {
	var out ast.Expr = &ast.Identifier{
		Kind: "Identifier",
		Name: identName(q.Parts[0]),
		Loc:  ast.NewLoc(q.Pos.Offset, q.Pos.Offset+len(q.Parts[0])),
	}
	for _, p := range q.Parts[1:] {
		out = &ast.Member{Kind: "Member", Expr: out, Name: identName(p), Loc: loc(q.Pos, q.EndPos)}
	}
	return out
}
