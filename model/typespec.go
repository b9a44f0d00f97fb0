package model

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/brimdata/cql"
)

type typeSpec struct {
	Pos      lexer.Position
	List     *typeSpec    `parser:"  'List' '<' @@ '>'"`
	Interval *typeSpec    `parser:"| 'Interval' '<' @@ '>'"`
	Choice   []*typeSpec  `parser:"| 'Choice' '<' @@ ( ',' @@ )* '>'"`
	Tuple    []*tupleElem `parser:"| 'Tuple' '{' @@ ( ',' @@ )* '}'"`
	Name     []string     `parser:"| @Ident ( '.' @Ident )*"`
}

type tupleElem struct {
	Name string    `parser:"@Ident ':'?"`
	Type *typeSpec `parser:"@@"`
}

var typeSpecParser = participle.MustBuild[typeSpec](
	participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Ident", Pattern: `[a-zA-Z_]\w*`},
		{Name: "Punct", Pattern: `[<>{},.:]`},
		{Name: "Whitespace", Pattern: `[ \r\n\t]+`},
	})),
	participle.Elide("Whitespace"),
	participle.UseLookahead(4),
)

// TypeResolver maps a possibly qualified type name to a type.
type TypeResolver func(name string) (cql.Type, error)

// ParseTypeSpec parses a CQL type specifier and resolves its names with
// resolve.
func ParseTypeSpec(tctx *cql.Context, spec string, resolve TypeResolver) (cql.Type, error) {
	ts, err := typeSpecParser.ParseString("", spec)
	if err != nil {
		return nil, fmt.Errorf("bad type specifier %q: %w", spec, err)
	}
	return ts.build(tctx, resolve)
}

func (t *typeSpec) build(tctx *cql.Context, resolve TypeResolver) (cql.Type, error) {
	switch {
	case t.List != nil:
		elem, err := t.List.build(tctx, resolve)
		if err != nil {
			return nil, err
		}
		return tctx.LookupTypeList(elem), nil
	case t.Interval != nil:
		point, err := t.Interval.build(tctx, resolve)
		if err != nil {
			return nil, err
		}
		return tctx.LookupTypeInterval(point), nil
	case t.Choice != nil:
		var types []cql.Type
		for _, c := range t.Choice {
			typ, err := c.build(tctx, resolve)
			if err != nil {
				return nil, err
			}
			types = append(types, typ)
		}
		return tctx.LookupTypeChoice(types), nil
	case t.Tuple != nil:
		var fields []cql.Field
		for _, elem := range t.Tuple {
			typ, err := elem.Type.build(tctx, resolve)
			if err != nil {
				return nil, err
			}
			fields = append(fields, cql.NewField(elem.Name, typ))
		}
		return tctx.LookupTypeTuple(fields)
	}
	return resolve(strings.Join(t.Name, "."))
}
