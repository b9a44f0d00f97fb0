package ast

type Expr interface {
	Node
	ExprAST()
}

// Literal types.
const (
	LitNull     = "Null"
	LitBoolean  = "Boolean"
	LitString   = "String"
	LitInteger  = "Integer"
	LitDecimal  = "Decimal"
	LitDateTime = "DateTime"
	LitTime     = "Time"
)

type (
	// Literal holds the source text of a literal.  String literals are
	// unescaped and DateTime and Time literals omit the leading '@'.
	Literal struct {
		Kind string `json:"kind" unpack:""`
		Type string `json:"type"`
		Text string `json:"text"`
		Loc  `json:"loc"`
	}
	// Quantity is a number with a UCUM unit or a calendar duration word.
	Quantity struct {
		Kind  string `json:"kind" unpack:""`
		Value string `json:"value"`
		Unit  string `json:"unit"`
		Loc   `json:"loc"`
	}
	Identifier struct {
		Kind string `json:"kind" unpack:""`
		Name string `json:"name"`
		Loc  `json:"loc"`
	}
	// Member is "expr.name".  The semantic pass decides whether expr is
	// a library alias or a value.
	Member struct {
		Kind string `json:"kind" unpack:""`
		Expr Expr   `json:"expr"`
		Name string `json:"name"`
		Loc  `json:"loc"`
	}
	Index struct {
		Kind  string `json:"kind" unpack:""`
		Expr  Expr   `json:"expr"`
		Index Expr   `json:"index"`
		Loc   `json:"loc"`
	}
	// Call is "name(args)" or "source.name(args)".
	Call struct {
		Kind   string `json:"kind" unpack:""`
		Source Expr   `json:"source"`
		Name   string `json:"name"`
		Args   []Expr `json:"args"`
		Loc    `json:"loc"`
	}
	// Unary covers prefix operators including the keyword forms
	// "exists", "distinct", "start of" and the like.
	Unary struct {
		Kind string `json:"kind" unpack:""`
		Op   string `json:"op"`
		Expr Expr   `json:"expr"`
		Loc  `json:"loc"`
	}
	Binary struct {
		Kind      string `json:"kind" unpack:""`
		Op        string `json:"op"`
		LHS       Expr   `json:"lhs"`
		RHS       Expr   `json:"rhs"`
		Precision string `json:"precision"`
		Loc       `json:"loc"`
	}
	Timing struct {
		Kind   string        `json:"kind" unpack:""`
		Phrase *TimingPhrase `json:"phrase"`
		LHS    Expr          `json:"lhs"`
		RHS    Expr          `json:"rhs"`
		Loc    `json:"loc"`
	}
	// TimingPhrase describes an interval operator phrase such as
	// "starts 3 days or less before start of".
	TimingPhrase struct {
		Kind      string `json:"kind" unpack:""`
		Op        string `json:"op"`
		Prefix    string `json:"prefix"`
		Suffix    string `json:"suffix"`
		Proper    bool   `json:"proper"`
		Precision string `json:"precision"`
		Relation  string `json:"relation"`
		Loc       `json:"loc"`
	}
	Between struct {
		Kind   string `json:"kind" unpack:""`
		Expr   Expr   `json:"expr"`
		Low    Expr   `json:"low"`
		High   Expr   `json:"high"`
		Proper bool   `json:"proper"`
		Loc    `json:"loc"`
	}
	// DurationBetween is "years between a and b" or, with Difference set,
	// "difference in years between a and b".
	DurationBetween struct {
		Kind       string `json:"kind" unpack:""`
		Precision  string `json:"precision"`
		Difference bool   `json:"difference"`
		LHS        Expr   `json:"lhs"`
		RHS        Expr   `json:"rhs"`
		Loc        `json:"loc"`
	}
	// DurationOf is "duration in days of interval".
	DurationOf struct {
		Kind       string `json:"kind" unpack:""`
		Precision  string `json:"precision"`
		Difference bool   `json:"difference"`
		Expr       Expr   `json:"expr"`
		Loc        `json:"loc"`
	}
	// Component is "year from x", "date from x" and friends.
	Component struct {
		Kind      string `json:"kind" unpack:""`
		Component string `json:"component"`
		Expr      Expr   `json:"expr"`
		Loc       `json:"loc"`
	}
	// TypeExpr is "x is T", "x as T", or "cast x as T".
	TypeExpr struct {
		Kind string   `json:"kind" unpack:""`
		Op   string   `json:"op"`
		Expr Expr     `json:"expr"`
		Type TypeSpec `json:"type"`
		Loc  `json:"loc"`
	}
	// BooleanTest is "x is [not] null|true|false".
	BooleanTest struct {
		Kind  string `json:"kind" unpack:""`
		Expr  Expr   `json:"expr"`
		Not   bool   `json:"not"`
		Value string `json:"value"`
		Loc   `json:"loc"`
	}
	Convert struct {
		Kind string   `json:"kind" unpack:""`
		Expr Expr     `json:"expr"`
		Type TypeSpec `json:"type"`
		Loc  `json:"loc"`
	}
	// MinMaxValue is "minimum T" or "maximum T".
	MinMaxValue struct {
		Kind string     `json:"kind" unpack:""`
		Op   string     `json:"op"`
		Type *NamedType `json:"type"`
		Loc  `json:"loc"`
	}
	If struct {
		Kind string `json:"kind" unpack:""`
		Cond Expr   `json:"cond"`
		Then Expr   `json:"then"`
		Else Expr   `json:"else"`
		Loc  `json:"loc"`
	}
	Case struct {
		Kind      string      `json:"kind" unpack:""`
		Comparand Expr        `json:"comparand"`
		Whens     []*CaseItem `json:"whens"`
		Else      Expr        `json:"else"`
		Loc       `json:"loc"`
	}
	CaseItem struct {
		Kind string `json:"kind" unpack:""`
		When Expr   `json:"when"`
		Then Expr   `json:"then"`
		Loc  `json:"loc"`
	}
	IntervalSel struct {
		Kind       string `json:"kind" unpack:""`
		Low        Expr   `json:"low"`
		LowClosed  bool   `json:"low_closed"`
		High       Expr   `json:"high"`
		HighClosed bool   `json:"high_closed"`
		Loc        `json:"loc"`
	}
	ListSel struct {
		Kind  string   `json:"kind" unpack:""`
		Type  TypeSpec `json:"type"`
		Elems []Expr   `json:"elems"`
		Loc   `json:"loc"`
	}
	TupleSel struct {
		Kind  string       `json:"kind" unpack:""`
		Elems []*TupleElem `json:"elems"`
		Loc   `json:"loc"`
	}
	TupleElem struct {
		Kind string `json:"kind" unpack:""`
		Name *ID    `json:"name"`
		Expr Expr   `json:"expr"`
		Loc  `json:"loc"`
	}
	InstanceSel struct {
		Kind  string       `json:"kind" unpack:""`
		Type  *NamedType   `json:"type"`
		Elems []*TupleElem `json:"elems"`
		Loc   `json:"loc"`
	}
	CodeSel struct {
		Kind    string   `json:"kind" unpack:""`
		Code    string   `json:"code"`
		System  *TermRef `json:"system"`
		Display string   `json:"display"`
		Loc     `json:"loc"`
	}
	ConceptSel struct {
		Kind    string     `json:"kind" unpack:""`
		Codes   []*CodeSel `json:"codes"`
		Display string     `json:"display"`
		Loc     `json:"loc"`
	}
	// Retrieve is "[Type: codePath in terminology]".
	Retrieve struct {
		Kind        string     `json:"kind" unpack:""`
		Type        *NamedType `json:"type"`
		CodePath    string     `json:"code_path"`
		Terminology Expr       `json:"terminology"`
		Loc         `json:"loc"`
	}
	Query struct {
		Kind          string           `json:"kind" unpack:""`
		From          bool             `json:"from"`
		Sources       []*AliasedSource `json:"sources"`
		Lets          []*LetClause     `json:"lets"`
		Relationships []*Relationship  `json:"relationships"`
		Where         Expr             `json:"where"`
		Return        *ReturnClause    `json:"return"`
		Sort          *SortClause      `json:"sort"`
		Loc           `json:"loc"`
	}
	AliasedSource struct {
		Kind  string `json:"kind" unpack:""`
		Expr  Expr   `json:"expr"`
		Alias *ID    `json:"alias"`
		Loc   `json:"loc"`
	}
	LetClause struct {
		Kind string `json:"kind" unpack:""`
		Name *ID    `json:"name"`
		Expr Expr   `json:"expr"`
		Loc  `json:"loc"`
	}
	// Relationship is a "with" or "without" clause.
	Relationship struct {
		Kind     string         `json:"kind" unpack:""`
		Without  bool           `json:"without"`
		Source   *AliasedSource `json:"source"`
		SuchThat Expr           `json:"such_that"`
		Loc      `json:"loc"`
	}
	ReturnClause struct {
		Kind     string `json:"kind" unpack:""`
		Distinct bool   `json:"distinct"`
		All      bool   `json:"all"`
		Expr     Expr   `json:"expr"`
		Loc      `json:"loc"`
	}
	SortClause struct {
		Kind  string      `json:"kind" unpack:""`
		Items []*SortItem `json:"items"`
		Loc   `json:"loc"`
	}
	// SortItem with a nil Expr is a bare "sort asc|desc".
	SortItem struct {
		Kind string `json:"kind" unpack:""`
		Expr Expr   `json:"expr"`
		Desc bool   `json:"desc"`
		Loc  `json:"loc"`
	}
)

func (*Literal) ExprAST()         {}
func (*Quantity) ExprAST()        {}
func (*Identifier) ExprAST()      {}
func (*Member) ExprAST()          {}
func (*Index) ExprAST()           {}
func (*Call) ExprAST()            {}
func (*Unary) ExprAST()           {}
func (*Binary) ExprAST()          {}
func (*Timing) ExprAST()          {}
func (*Between) ExprAST()         {}
func (*DurationBetween) ExprAST() {}
func (*DurationOf) ExprAST()      {}
func (*Component) ExprAST()       {}
func (*TypeExpr) ExprAST()        {}
func (*BooleanTest) ExprAST()     {}
func (*Convert) ExprAST()         {}
func (*MinMaxValue) ExprAST()     {}
func (*If) ExprAST()              {}
func (*Case) ExprAST()            {}
func (*IntervalSel) ExprAST()     {}
func (*ListSel) ExprAST()         {}
func (*TupleSel) ExprAST()        {}
func (*InstanceSel) ExprAST()     {}
func (*CodeSel) ExprAST()         {}
func (*ConceptSel) ExprAST()      {}
func (*Retrieve) ExprAST()        {}
func (*Query) ExprAST()           {}
