package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/brimdata/cql/compiler/ast"
	"golang.org/x/text/unicode/norm"
)

func loc(pos, end lexer.Position) ast.Loc {
	return ast.NewLoc(pos.Offset, end.Offset)
}

// unquote strips the delimiters from a string literal or quoted identifier
// and resolves its escape sequences.  Unknown escapes are kept verbatim.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	s = s[1 : len(s)-1]
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'f':
			b.WriteByte('\f')
		case 'u':
			if i+4 < len(s) {
				if r, err := strconv.ParseUint(s[i+1:i+5], 16, 32); err == nil {
					b.WriteRune(rune(r))
					i += 4
					continue
				}
			}
			b.WriteString(`\u`)
		case '\'', '"', '`', '\\', '/':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// identName returns the normalized name of an identifier token.
func identName(s string) string {
	if s != "" && (s[0] == '"' || s[0] == '`') {
		s = unquote(s)
	}
	if !utf8.ValidString(s) {
		return s
	}
	return norm.NFC.String(s)
}

func newID(name string, l ast.Loc) *ast.ID {
	return &ast.ID{Kind: "ID", Name: identName(name), Loc: l}
}

func convertLibrary(l *library) *ast.Library {
	out := &ast.Library{Kind: "Library", Loc: loc(l.Pos, l.EndPos)}
	if h := l.Header; h != nil {
		out.Name = &ast.ID{Kind: "ID", Name: h.Name.String(), Loc: loc(h.Name.Pos, h.Name.EndPos)}
		if h.Version != nil {
			out.Version = unquote(*h.Version)
		}
	}
	for _, s := range l.Statements {
		out.Statements = append(out.Statements, convertStatement(s))
	}
	return out
}

func (q *qualifiedIdent) String() string {
	parts := make([]string, 0, len(q.Parts))
	for _, p := range q.Parts {
		parts = append(parts, identName(p))
	}
	return strings.Join(parts, ".")
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return unquote(*s)
}

func convertStatement(s *statement) ast.Stmt {
	switch {
	case s.Using != nil:
		u := s.Using
		return &ast.UsingDef{
			Kind:    "UsingDef",
			Model:   convertIdent(u.Model),
			Version: optString(u.Version),
			Loc:     loc(u.Pos, u.EndPos),
		}
	case s.Include != nil:
		i := s.Include
		out := &ast.IncludeDef{
			Kind:    "IncludeDef",
			Path:    &ast.ID{Kind: "ID", Name: i.Path.String(), Loc: loc(i.Path.Pos, i.Path.EndPos)},
			Version: optString(i.Version),
			Loc:     loc(i.Pos, i.EndPos),
		}
		if i.Alias != nil {
			out.Alias = convertIdent(i.Alias)
		}
		return out
	case s.CodeSystem != nil:
		c := s.CodeSystem
		return &ast.CodeSystemDef{
			Kind:    "CodeSystemDef",
			Access:  c.Access,
			Name:    convertIdent(c.Name),
			URI:     unquote(c.URI),
			Version: optString(c.Version),
			Loc:     loc(c.Pos, c.EndPos),
		}
	case s.ValueSet != nil:
		v := s.ValueSet
		return &ast.ValueSetDef{
			Kind:        "ValueSetDef",
			Access:      v.Access,
			Name:        convertIdent(v.Name),
			URI:         unquote(v.URI),
			Version:     optString(v.Version),
			CodeSystems: convertTermRefs(v.CodeSystems),
			Loc:         loc(v.Pos, v.EndPos),
		}
	case s.Code != nil:
		c := s.Code
		return &ast.CodeDef{
			Kind:    "CodeDef",
			Access:  c.Access,
			Name:    convertIdent(c.Name),
			Code:    unquote(c.Code),
			System:  convertTermRef(c.System),
			Display: optString(c.Display),
			Loc:     loc(c.Pos, c.EndPos),
		}
	case s.Concept != nil:
		c := s.Concept
		return &ast.ConceptDef{
			Kind:    "ConceptDef",
			Access:  c.Access,
			Name:    convertIdent(c.Name),
			Codes:   convertTermRefs(c.Codes),
			Display: optString(c.Display),
			Loc:     loc(c.Pos, c.EndPos),
		}
	case s.Parameter != nil:
		p := s.Parameter
		out := &ast.ParameterDef{
			Kind:   "ParameterDef",
			Access: p.Access,
			Name:   convertIdent(p.Name),
			Loc:    loc(p.Pos, p.EndPos),
		}
		if p.Type != nil {
			out.Type = convertTypeSpec(p.Type)
		}
		if p.Default != nil {
			out.Default = convertExpr(p.Default)
		}
		return out
	case s.Context != nil:
		return &ast.ContextDef{
			Kind: "ContextDef",
			Name: convertIdent(s.Context.Name),
			Loc:  loc(s.Context.Pos, s.Context.EndPos),
		}
	case s.Function != nil:
		return convertFunction(s.Function)
	case s.Expression != nil:
		e := s.Expression
		return &ast.ExpressionDef{
			Kind:   "ExpressionDef",
			Access: e.Access,
			Name:   convertIdent(e.Name),
			Expr:   convertExpr(e.Expr),
			Loc:    loc(e.Pos, e.EndPos),
		}
	}
	panic("parser: empty statement")
}

func convertFunction(f *functionDef) *ast.FunctionDef {
	out := &ast.FunctionDef{
		Kind:     "FunctionDef",
		Access:   f.Access,
		Fluent:   f.Fluent,
		Name:     convertIdent(f.Name),
		External: f.External,
		Loc:      loc(f.Pos, f.EndPos),
	}
	for _, o := range f.Operands {
		out.Operands = append(out.Operands, &ast.Operand{
			Kind: "Operand",
			Name: convertIdent(o.Name),
			Type: convertTypeSpec(o.Type),
			Loc:  loc(o.Pos, o.EndPos),
		})
	}
	if f.Returns != nil {
		out.Returns = convertTypeSpec(f.Returns)
	}
	if f.Body != nil {
		out.Body = convertExpr(f.Body)
	}
	return out
}

func convertIdent(i *ident) *ast.ID {
	return newID(i.Name, loc(i.Pos, i.EndPos))
}

func convertTermRef(t *termRef) *ast.TermRef {
	out := &ast.TermRef{
		Kind: "TermRef",
		Name: identName(t.Name),
		Loc:  loc(t.Pos, t.EndPos),
	}
	if t.Library != nil {
		out.Library = identName(*t.Library)
	}
	return out
}

func convertTermRefs(refs []*termRef) []*ast.TermRef {
	var out []*ast.TermRef
	for _, r := range refs {
		out = append(out, convertTermRef(r))
	}
	return out
}

func convertTypeSpec(t *typeSpec) ast.TypeSpec {
	l := loc(t.Pos, t.EndPos)
	switch {
	case t.List != nil:
		return &ast.ListType{Kind: "ListType", Elem: convertTypeSpec(t.List), Loc: l}
	case t.Interval != nil:
		return &ast.IntervalType{Kind: "IntervalType", Point: convertTypeSpec(t.Interval), Loc: l}
	case t.Choice != nil:
		var types []ast.TypeSpec
		for _, c := range t.Choice {
			types = append(types, convertTypeSpec(c))
		}
		return &ast.ChoiceType{Kind: "ChoiceType", Types: types, Loc: l}
	case t.Tuple != nil:
		out := &ast.TupleType{Kind: "TupleType", Loc: l}
		for _, f := range t.Tuple {
			fl := loc(f.Pos, f.EndPos)
			out.Fields = append(out.Fields, &ast.TupleField{
				Kind: "TupleField",
				Name: newID(f.Name, fl),
				Type: convertTypeSpec(f.Type),
				Loc:  fl,
			})
		}
		return out
	case t.Named != nil:
		return convertNamedType(t.Named)
	}
	// "Tuple { }" leaves every alternative empty.
	return &ast.TupleType{Kind: "TupleType", Loc: l}
}

func convertNamedType(n *namedType) *ast.NamedType {
	out := &ast.NamedType{Kind: "NamedType", Loc: loc(n.Pos, n.EndPos)}
	if len(n.Parts) == 2 {
		out.Model = identName(n.Parts[0])
		out.Name = identName(n.Parts[1])
	} else {
		out.Name = identName(n.Parts[0])
	}
	return out
}
