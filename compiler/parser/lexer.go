package parser

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var keywords = []string{
	"after", "all", "and", "as", "asc", "ascending", "before", "between",
	"by", "called", "case", "cast", "code", "codesystem", "codesystems",
	"collapse", "concept", "contains", "context", "convert", "date", "day",
	"days", "default", "define", "desc", "descending", "difference",
	"display", "distinct", "div", "duration", "during", "else", "end",
	"ends", "except", "exists", "external", "false", "flatten", "fluent",
	"from", "function", "hour", "hours", "if", "implies", "in", "include",
	"included", "includes", "intersect", "is", "let", "library", "maximum",
	"meets", "millisecond", "milliseconds", "minimum", "minute", "minutes",
	"mod", "month", "months", "not", "null", "occurs", "of", "or",
	"overlaps", "parameter", "point", "predecessor", "private", "properly",
	"public", "return", "returns", "same", "second", "seconds", "singleton",
	"sort", "start", "starts", "successor", "such", "that", "then", "time",
	"timezoneoffset", "to", "true", "union", "using", "valueset", "version",
	"week", "weeks", "when", "where", "width", "with", "without", "xor",
	"year", "years",
	"Code", "Concept", "Interval", "List", "Tuple",
}

var cqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*(?:[^*]|\*+[^*/])*\*+/`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Time", Pattern: `@T\d{2}(?::\d{2}(?::\d{2}(?:\.\d+)?)?)?`},
	{Name: "DateTime", Pattern: `@\d{4}(?:-\d{2}(?:-\d{2})?)?(?:T(?:\d{2}(?::\d{2}(?::\d{2}(?:\.\d+)?)?)?)?(?:Z|[+-]\d{2}:\d{2})?)?`},
	{Name: "String", Pattern: `'(?:\\.|[^'\\])*'`},
	{Name: "QuotedIdent", Pattern: "\"(?:\\\\.|[^\"\\\\])*\"|`(?:\\\\.|[^`\\\\])*`"},
	{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
	{Name: "Keyword", Pattern: `(?:` + strings.Join(keywords, "|") + `)\b`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `<=|>=|!=|!~|[~<>=+\-*/^&|.,:()\[\]{}]`},
})

var cqlParser = participle.MustBuild[library](
	participle.Lexer(cqlLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(1024),
)
