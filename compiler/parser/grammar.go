package parser

import "github.com/alecthomas/participle/v2/lexer"

// The grammar types below mirror the CQL grammar closely enough for
// participle to parse it.  Each binary precedence level is a left operand
// followed by a list of operator and right operand pairs, folded left to
// right into ast.Binary nodes by the converter.

type library struct {
	Pos        lexer.Position
	EndPos     lexer.Position
	Header     *libraryHeader `parser:"@@?"`
	Statements []*statement   `parser:"@@*"`
}

type libraryHeader struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Name    *qualifiedIdent `parser:"'library' @@"`
	Version *string         `parser:"( 'version' @String )?"`
}

type qualifiedIdent struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Parts  []string `parser:"@(Ident | QuotedIdent) ( '.' @(Ident | QuotedIdent) )*"`
}

type ident struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   string `parser:"@(Ident | QuotedIdent)"`
}

type statement struct {
	Using      *usingDef      `parser:"  @@"`
	Include    *includeDef    `parser:"| @@"`
	CodeSystem *codeSystemDef `parser:"| @@"`
	ValueSet   *valueSetDef   `parser:"| @@"`
	Code       *codeDef       `parser:"| @@"`
	Concept    *conceptDef    `parser:"| @@"`
	Parameter  *parameterDef  `parser:"| @@"`
	Context    *contextDef    `parser:"| @@"`
	Function   *functionDef   `parser:"| @@"`
	Expression *expressionDef `parser:"| @@"`
}

type usingDef struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Model   *ident  `parser:"'using' @@"`
	Version *string `parser:"( 'version' @String )?"`
}

type includeDef struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Path    *qualifiedIdent `parser:"'include' @@"`
	Version *string         `parser:"( 'version' @String )?"`
	Alias   *ident          `parser:"( 'called' @@ )?"`
}

type codeSystemDef struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Access  string  `parser:"@( 'public' | 'private' )?"`
	Name    *ident  `parser:"'codesystem' @@ ':'"`
	URI     string  `parser:"@String"`
	Version *string `parser:"( 'version' @String )?"`
}

type valueSetDef struct {
	Pos         lexer.Position
	EndPos      lexer.Position
	Access      string     `parser:"@( 'public' | 'private' )?"`
	Name        *ident     `parser:"'valueset' @@ ':'"`
	URI         string     `parser:"@String"`
	Version     *string    `parser:"( 'version' @String )?"`
	CodeSystems []*termRef `parser:"( 'codesystems' '{' @@ ( ',' @@ )* '}' )?"`
}

type codeDef struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Access  string   `parser:"@( 'public' | 'private' )?"`
	Name    *ident   `parser:"'code' @@ ':'"`
	Code    string   `parser:"@String"`
	System  *termRef `parser:"'from' @@"`
	Display *string  `parser:"( 'display' @String )?"`
}

type conceptDef struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Access  string     `parser:"@( 'public' | 'private' )?"`
	Name    *ident     `parser:"'concept' @@ ':'"`
	Codes   []*termRef `parser:"'{' @@ ( ',' @@ )* '}'"`
	Display *string    `parser:"( 'display' @String )?"`
}

type parameterDef struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Access  string    `parser:"@( 'public' | 'private' )?"`
	Name    *ident    `parser:"'parameter' @@"`
	Type    *typeSpec `parser:"@@?"`
	Default *expr     `parser:"( 'default' @@ )?"`
}

type contextDef struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   *ident `parser:"'context' @@"`
}

type expressionDef struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Access string `parser:"'define' @( 'public' | 'private' )?"`
	Name   *ident `parser:"@@ ':'"`
	Expr   *expr  `parser:"@@"`
}

type functionDef struct {
	Pos      lexer.Position
	EndPos   lexer.Position
	Access   string        `parser:"'define' @( 'public' | 'private' )?"`
	Fluent   bool          `parser:"@'fluent'?"`
	Name     *ident        `parser:"'function' @@"`
	Operands []*operandDef `parser:"'(' ( @@ ( ',' @@ )* )? ')'"`
	Returns  *typeSpec     `parser:"( 'returns' @@ )? ':'"`
	External bool          `parser:"( @'external'"`
	Body     *expr         `parser:"| @@ )"`
}

type operandDef struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   *ident    `parser:"@@"`
	Type   *typeSpec `parser:"@@"`
}

// termRef is a possibly library-qualified terminology name.
type termRef struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Library *string `parser:"( @(Ident | QuotedIdent) '.' )?"`
	Name    string  `parser:"@(Ident | QuotedIdent)"`
}

type typeSpec struct {
	Pos      lexer.Position
	EndPos   lexer.Position
	List     *typeSpec         `parser:"  'List' '<' @@ '>'"`
	Interval *typeSpec         `parser:"| 'Interval' '<' @@ '>'"`
	Choice   []*typeSpec       `parser:"| 'Choice' '<' @@ ( ',' @@ )* '>'"`
	Tuple    []*tupleFieldSpec `parser:"| 'Tuple' '{' ( @@ ( ',' @@ )* )? '}'"`
	Named    *namedType        `parser:"| @@"`
}

type tupleFieldSpec struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   string    `parser:"@(Ident | QuotedIdent | Keyword)"`
	Type   *typeSpec `parser:"@@"`
}

type namedType struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Parts  []string `parser:"@(Ident | QuotedIdent | 'Code' | 'Concept') ( '.' @(Ident | QuotedIdent | 'Code' | 'Concept') )?"`
}

// Binary precedence levels, lowest first.

type expr struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Left   *impliesExpr `parser:"@@"`
	Rest   []*setOp     `parser:"@@*"`
}

type setOp struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Op     string       `parser:"@( '|' | 'union' | 'intersect' | 'except' )"`
	Right  *impliesExpr `parser:"@@"`
}

type impliesExpr struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Left   *orExpr      `parser:"@@"`
	Rest   []*impliesOp `parser:"@@*"`
}

type impliesOp struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Op     string  `parser:"@'implies'"`
	Right  *orExpr `parser:"@@"`
}

type orExpr struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Left   *andExpr `parser:"@@"`
	Rest   []*orOp  `parser:"@@*"`
}

type orOp struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Op     string   `parser:"@( 'or' | 'xor' )"`
	Right  *andExpr `parser:"@@"`
}

type andExpr struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Left   *membershipExpr `parser:"@@"`
	Rest   []*andOp        `parser:"@@*"`
}

type andOp struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Op     string          `parser:"@'and'"`
	Right  *membershipExpr `parser:"@@"`
}

type membershipExpr struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Left   *equalityExpr   `parser:"@@"`
	Rest   []*membershipOp `parser:"@@*"`
}

type membershipOp struct {
	Pos       lexer.Position
	EndPos    lexer.Position
	Op        string        `parser:"@( 'in' | 'contains' )"`
	Precision string        `parser:"( @( 'year' | 'month' | 'week' | 'day' | 'hour' | 'minute' | 'second' | 'millisecond' ) 'of' )?"`
	Right     *equalityExpr `parser:"@@"`
}

type equalityExpr struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Left   *timingExpr   `parser:"@@"`
	Rest   []*equalityOp `parser:"@@*"`
}

type equalityOp struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Op     string      `parser:"@( '=' | '!=' | '~' | '!~' )"`
	Right  *timingExpr `parser:"@@"`
}

type timingExpr struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Left   *inequalityExpr `parser:"@@"`
	Rest   []*timingOp     `parser:"@@*"`
}

type timingOp struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Phrase *timingPhrase   `parser:"@@"`
	Right  *inequalityExpr `parser:"@@"`
}

type inequalityExpr struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Left   *typeExpr       `parser:"@@"`
	Rest   []*inequalityOp `parser:"@@*"`
}

type inequalityOp struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Op     string    `parser:"@( '<=' | '<' | '>=' | '>' )"`
	Right  *typeExpr `parser:"@@"`
}

// Timing phrases.

type timingPhrase struct {
	Pos      lexer.Position
	EndPos   lexer.Position
	Same     *samePhrase     `parser:"  @@"`
	Included *includedPhrase `parser:"| @@"`
	Relative *relativePhrase `parser:"| @@"`
	Includes *includesPhrase `parser:"| @@"`
	Meets    *boundaryPhrase `parser:"| @@"`
}

type samePhrase struct {
	Prefix    string `parser:"@( 'starts' | 'ends' | 'occurs' )?"`
	Op        string `parser:"@'same'"`
	Precision string `parser:"@( 'year' | 'month' | 'week' | 'day' | 'hour' | 'minute' | 'second' | 'millisecond' )?"`
	Relation  string `parser:"( 'or' @( 'before' | 'after' ) | 'as' )"`
}

type includedPhrase struct {
	Prefix    string `parser:"@( 'starts' | 'ends' | 'occurs' )?"`
	Proper    bool   `parser:"@'properly'?"`
	Op        string `parser:"( @'during' | @'included' 'in' )"`
	Precision string `parser:"( @( 'year' | 'month' | 'week' | 'day' | 'hour' | 'minute' | 'second' | 'millisecond' ) 'of' )?"`
}

type relativePhrase struct {
	Prefix    string `parser:"@( 'starts' | 'ends' | 'occurs' )?"`
	Op        string `parser:"@( 'before' | 'after' )"`
	Precision string `parser:"( @( 'year' | 'month' | 'week' | 'day' | 'hour' | 'minute' | 'second' | 'millisecond' ) 'of' )?"`
}

type includesPhrase struct {
	Proper    bool   `parser:"@'properly'?"`
	Op        string `parser:"@'includes'"`
	Precision string `parser:"( @( 'year' | 'month' | 'week' | 'day' | 'hour' | 'minute' | 'second' | 'millisecond' ) 'of' )?"`
}

// boundaryPhrase covers meets, overlaps, starts and ends.
type boundaryPhrase struct {
	Op        string `parser:"@( 'meets' | 'overlaps' | 'starts' | 'ends' )"`
	Direction string `parser:"@( 'before' | 'after' )?"`
	Precision string `parser:"( @( 'year' | 'month' | 'week' | 'day' | 'hour' | 'minute' | 'second' | 'millisecond' ) 'of' )?"`
}

// Prefix and postfix operators that bind tighter than the binary levels
// above but looser than arithmetic.

type typeExpr struct {
	Pos      lexer.Position
	EndPos   lexer.Position
	Operand  *prefixExpr   `parser:"@@"`
	Suffixes []*typeSuffix `parser:"@@*"`
}

type prefixExpr struct {
	Pos      lexer.Position
	EndPos   lexer.Position
	Not      *typeExpr        `parser:"  'not' @@"`
	Exists   *typeExpr        `parser:"| 'exists' @@"`
	Cast     *castExpr        `parser:"| @@"`
	Duration *durationBetween `parser:"| @@"`
	Query    *query           `parser:"| @@"`
	Term     *termExpr        `parser:"| @@"`
}

type castExpr struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Operand *prefixExpr `parser:"'cast' @@"`
	Type    *typeSpec   `parser:"'as' @@"`
}

type durationBetween struct {
	Pos        lexer.Position
	EndPos     lexer.Position
	Difference bool      `parser:"( @'difference' 'in' )?"`
	Precision  string    `parser:"@( 'years' | 'months' | 'weeks' | 'days' | 'hours' | 'minutes' | 'seconds' | 'milliseconds' ) 'between'"`
	Low        *termExpr `parser:"@@"`
	High       *termExpr `parser:"'and' @@"`
}

type typeSuffix struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Test    *booleanTest   `parser:"  @@"`
	Is      *typeSpec      `parser:"| 'is' @@"`
	As      *typeSpec      `parser:"| 'as' @@"`
	Between *betweenSuffix `parser:"| @@"`
}

type booleanTest struct {
	Not   bool   `parser:"'is' @'not'?"`
	Value string `parser:"@( 'null' | 'true' | 'false' )"`
}

type betweenSuffix struct {
	Proper bool      `parser:"@'properly'? 'between'"`
	Low    *termExpr `parser:"@@"`
	High   *termExpr `parser:"'and' @@"`
}

// Queries.

type query struct {
	Pos           lexer.Position
	EndPos        lexer.Position
	Sources       *querySources   `parser:"@@"`
	Lets          []*letItem      `parser:"( 'let' @@ ( ',' @@ )* )?"`
	Relationships []*relationship `parser:"@@*"`
	Where         *expr           `parser:"( 'where' @@ )?"`
	Return        *returnClause   `parser:"@@?"`
	Sort          *sortClause     `parser:"@@?"`
}

type querySources struct {
	From   []*aliasedSource `parser:"  'from' @@ ( ',' @@ )*"`
	Single *aliasedSource   `parser:"| @@"`
}

type aliasedSource struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Source *querySource `parser:"@@"`
	Alias  *ident       `parser:"@@"`
}

type querySource struct {
	Pos      lexer.Position
	EndPos   lexer.Position
	Retrieve *retrieve       `parser:"  @@"`
	Paren    *expr           `parser:"| '(' @@ ')'"`
	Name     *qualifiedIdent `parser:"| @@"`
}

type letItem struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   *ident `parser:"@@ ':'"`
	Expr   *expr  `parser:"@@"`
}

type relationship struct {
	Pos      lexer.Position
	EndPos   lexer.Position
	Op       string         `parser:"@( 'with' | 'without' )"`
	Source   *aliasedSource `parser:"@@"`
	SuchThat *expr          `parser:"'such' 'that' @@"`
}

type returnClause struct {
	Pos      lexer.Position
	EndPos   lexer.Position
	Modifier string `parser:"'return' @( 'all' | 'distinct' )?"`
	Expr     *expr  `parser:"@@"`
}

type sortClause struct {
	Pos       lexer.Position
	EndPos    lexer.Position
	Direction string      `parser:"'sort' ( @( 'asc' | 'ascending' | 'desc' | 'descending' )"`
	Items     []*sortItem `parser:"| 'by' @@ ( ',' @@ )* )"`
}

type sortItem struct {
	Pos       lexer.Position
	EndPos    lexer.Position
	Expr      *termExpr `parser:"@@"`
	Direction string    `parser:"@( 'asc' | 'ascending' | 'desc' | 'descending' )?"`
}

type retrieve struct {
	Pos         lexer.Position
	EndPos      lexer.Position
	Type        *namedType `parser:"'[' @@"`
	CodePath    string     `parser:"( ':' ( @(Ident | Keyword) 'in' )?"`
	Terminology *expr      `parser:"  @@ )? ']'"`
}

// Arithmetic levels.

type termExpr struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Left   *multExpr `parser:"@@"`
	Rest   []*termOp `parser:"@@*"`
}

type termOp struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Op     string    `parser:"@( '+' | '-' | '&' )"`
	Right  *multExpr `parser:"@@"`
}

type multExpr struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Left   *powerExpr `parser:"@@"`
	Rest   []*multOp  `parser:"@@*"`
}

type multOp struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Op     string     `parser:"@( '*' | '/' | 'div' | 'mod' )"`
	Right  *powerExpr `parser:"@@"`
}

type powerExpr struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Left   *unaryTerm `parser:"@@"`
	Rest   []*powerOp `parser:"@@*"`
}

type powerOp struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Op     string     `parser:"@'^'"`
	Right  *unaryTerm `parser:"@@"`
}

type unaryTerm struct {
	Pos        lexer.Position
	EndPos     lexer.Position
	Polarity   *polarity    `parser:"  @@"`
	Keyword    *keywordOp   `parser:"| @@"`
	Component  *component   `parser:"| @@"`
	DurationOf *durationOf  `parser:"| @@"`
	MinMax     *minMax      `parser:"| @@"`
	Convert    *convertSel  `parser:"| @@"`
	If         *ifExpr      `parser:"| @@"`
	Case       *caseExpr    `parser:"| @@"`
	ListOp     *listOp      `parser:"| @@"`
	Postfix    *postfixExpr `parser:"| @@"`
}

type polarity struct {
	Op      string     `parser:"@( '+' | '-' )"`
	Operand *unaryTerm `parser:"@@"`
}

type keywordOp struct {
	Op      string     `parser:"( @( 'start' | 'end' | 'width' | 'successor' | 'predecessor' ) 'of' | @( 'singleton' | 'point' ) 'from' )"`
	Operand *unaryTerm `parser:"@@"`
}

type component struct {
	Name    string     `parser:"@( 'year' | 'month' | 'week' | 'day' | 'hour' | 'minute' | 'second' | 'millisecond' | 'date' | 'time' | 'timezoneoffset' ) 'from'"`
	Operand *unaryTerm `parser:"@@"`
}

type durationOf struct {
	Op        string     `parser:"@( 'duration' | 'difference' ) 'in'"`
	Precision string     `parser:"@( 'years' | 'months' | 'weeks' | 'days' | 'hours' | 'minutes' | 'seconds' | 'milliseconds' ) 'of'"`
	Operand   *unaryTerm `parser:"@@"`
}

type minMax struct {
	Op   string     `parser:"@( 'minimum' | 'maximum' )"`
	Type *namedType `parser:"@@"`
}

type convertSel struct {
	Operand *expr     `parser:"'convert' @@"`
	Type    *typeSpec `parser:"'to' @@"`
}

type ifExpr struct {
	Cond *expr `parser:"'if' @@"`
	Then *expr `parser:"'then' @@"`
	Else *expr `parser:"'else' @@"`
}

type caseExpr struct {
	Comparand *expr       `parser:"'case' @@?"`
	Items     []*caseItem `parser:"@@+"`
	Else      *expr       `parser:"'else' @@ 'end'"`
}

type caseItem struct {
	Pos    lexer.Position
	EndPos lexer.Position
	When   *expr `parser:"'when' @@"`
	Then   *expr `parser:"'then' @@"`
}

type listOp struct {
	Op      string `parser:"@( 'distinct' | 'flatten' | 'collapse' )"`
	Operand *expr  `parser:"@@"`
}

type postfixExpr struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Primary *primary     `parser:"@@"`
	Ops     []*postfixOp `parser:"@@*"`
}

type postfixOp struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Call   *memberCall `parser:"  '.' @@"`
	Member *string     `parser:"| '.' @(Ident | QuotedIdent | Keyword)"`
	Index  *expr       `parser:"| '[' @@ ']'"`
}

type memberCall struct {
	Name string  `parser:"@(Ident | QuotedIdent | Keyword) '('"`
	Args []*expr `parser:"( @@ ( ',' @@ )* )? ')'"`
}

// Terms.

type primary struct {
	Pos      lexer.Position
	EndPos   lexer.Position
	DateTime *string      `parser:"  @DateTime"`
	Time     *string      `parser:"| @Time"`
	Quantity *quantity    `parser:"| @@"`
	Number   *string      `parser:"| @Number"`
	String   *string      `parser:"| @String"`
	Bool     *string      `parser:"| @( 'true' | 'false' )"`
	Null     bool         `parser:"| @'null'"`
	Interval *intervalSel `parser:"| @@"`
	Tuple    *tupleSel    `parser:"| @@"`
	List     *listSel     `parser:"| @@"`
	Code     *codeSel     `parser:"| @@"`
	Concept  *conceptSel  `parser:"| @@"`
	Instance *instanceSel `parser:"| @@"`
	Retrieve *retrieve    `parser:"| @@"`
	Call     *funcCall    `parser:"| @@"`
	Ident    *ident       `parser:"| @@"`
	Paren    *expr        `parser:"| '(' @@ ')'"`
}

type quantity struct {
	Value string `parser:"@Number"`
	Unit  string `parser:"@( String | 'year' | 'years' | 'month' | 'months' | 'week' | 'weeks' | 'day' | 'days' | 'hour' | 'hours' | 'minute' | 'minutes' | 'second' | 'seconds' | 'millisecond' | 'milliseconds' )"`
}

type intervalSel struct {
	Open  string `parser:"'Interval' @( '[' | '(' )"`
	Low   *expr  `parser:"@@ ','"`
	High  *expr  `parser:"@@"`
	Close string `parser:"@( ']' | ')' )"`
}

type tupleSel struct {
	Empty bool            `parser:"'Tuple'? '{' ( @':'"`
	Elems []*tupleElemSel `parser:"| @@ ( ',' @@ )* ) '}'"`
}

type tupleElemSel struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   string `parser:"@(Ident | QuotedIdent | Keyword) ':'"`
	Expr   *expr  `parser:"@@"`
}

type listSel struct {
	Type  *typeSpec `parser:"( 'List' ( '<' @@ '>' )? )? '{'"`
	Elems []*expr   `parser:"( @@ ( ',' @@ )* )? '}'"`
}

type codeSel struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Code    string   `parser:"'Code' @String"`
	System  *termRef `parser:"'from' @@"`
	Display *string  `parser:"( 'display' @String )?"`
}

type conceptSel struct {
	Codes   []*codeSel `parser:"'Concept' '{' @@ ( ',' @@ )* '}'"`
	Display *string    `parser:"( 'display' @String )?"`
}

type instanceSel struct {
	Type  *namedType      `parser:"@@ '{'"`
	Empty bool            `parser:"( @':'"`
	Elems []*tupleElemSel `parser:"| @@ ( ',' @@ )* ) '}'"`
}

type funcCall struct {
	Name string  `parser:"@(Ident | QuotedIdent) '('"`
	Args []*expr `parser:"( @@ ( ',' @@ )* )? ')'"`
}
