package ir

import "github.com/brimdata/cql"

type (
	// A BadExpr node is a placeholder for an expression containing semantic
	// errors.  Its type is the best type known at the point of failure.
	BadExpr struct {
		Kind string `json:"kind" unpack:""`
		Node
		Cause error `json:"-"`
	}
	Null struct {
		Kind string `json:"kind" unpack:""`
		Node
	}
	// Literal holds a scalar constant in its canonical text form.
	// Precision is set for DateTime and Time literals.
	Literal struct {
		Kind string `json:"kind" unpack:""`
		Node
		Value     string `json:"value"`
		Precision string `json:"precision,omitempty"`
	}
	Quantity struct {
		Kind string `json:"kind" unpack:""`
		Node
		Value string `json:"value"`
		Unit  string `json:"unit"`
	}
	// Interval selects an interval.  When LowClosedExpr or HighClosedExpr
	// is set it takes precedence over the corresponding static flag.
	Interval struct {
		Kind string `json:"kind" unpack:""`
		Node
		Low            Expr `json:"low"`
		LowClosed      bool `json:"lowClosed"`
		LowClosedExpr  Expr `json:"lowClosedExpression,omitempty"`
		High           Expr `json:"high"`
		HighClosed     bool `json:"highClosed"`
		HighClosedExpr Expr `json:"highClosedExpression,omitempty"`
	}
	List struct {
		Kind string `json:"kind" unpack:""`
		Node
		Elements []Expr `json:"elements"`
	}
	Tuple struct {
		Kind string `json:"kind" unpack:""`
		Node
		Elements []TupleElement `json:"elements"`
	}
	TupleElement struct {
		Name  string `json:"name"`
		Value Expr   `json:"value"`
	}
	Instance struct {
		Kind string `json:"kind" unpack:""`
		Node
		ClassType cql.Type       `json:"classType"`
		Elements  []TupleElement `json:"elements"`
	}
	Code struct {
		Kind string `json:"kind" unpack:""`
		Node
		Code    string         `json:"code"`
		System  *CodeSystemRef `json:"system"`
		Display string         `json:"display,omitempty"`
	}
	Concept struct {
		Kind string `json:"kind" unpack:""`
		Node
		Codes   []*Code `json:"codes"`
		Display string  `json:"display,omitempty"`
	}
	// Call applies a System operator.  Signature is the declared operand
	// types when signature annotation is requested.
	Call struct {
		Kind string `json:"kind" unpack:""`
		Node
		Name      string     `json:"name"`
		Operands  []Expr     `json:"operands"`
		Precision string     `json:"precision,omitempty"`
		Signature []cql.Type `json:"signature,omitempty"`
	}
	FunctionRef struct {
		Kind string `json:"kind" unpack:""`
		Node
		Name        string     `json:"name"`
		LibraryName string     `json:"libraryName,omitempty"`
		Operands    []Expr     `json:"operands"`
		Signature   []cql.Type `json:"signature,omitempty"`
	}
	ExpressionRef struct {
		Kind string `json:"kind" unpack:""`
		Node
		Name        string `json:"name"`
		LibraryName string `json:"libraryName,omitempty"`
	}
	ParameterRef struct {
		Kind string `json:"kind" unpack:""`
		Node
		Name        string `json:"name"`
		LibraryName string `json:"libraryName,omitempty"`
	}
	CodeSystemRef struct {
		Kind string `json:"kind" unpack:""`
		Node
		Name        string `json:"name"`
		LibraryName string `json:"libraryName,omitempty"`
	}
	ValueSetRef struct {
		Kind string `json:"kind" unpack:""`
		Node
		Name        string `json:"name"`
		LibraryName string `json:"libraryName,omitempty"`
	}
	CodeRef struct {
		Kind string `json:"kind" unpack:""`
		Node
		Name        string `json:"name"`
		LibraryName string `json:"libraryName,omitempty"`
	}
	ConceptRef struct {
		Kind string `json:"kind" unpack:""`
		Node
		Name        string `json:"name"`
		LibraryName string `json:"libraryName,omitempty"`
	}
	OperandRef struct {
		Kind string `json:"kind" unpack:""`
		Node
		Name string `json:"name"`
	}
	AliasRef struct {
		Kind string `json:"kind" unpack:""`
		Node
		Name string `json:"name"`
	}
	QueryLetRef struct {
		Kind string `json:"kind" unpack:""`
		Node
		Name string `json:"name"`
	}
	// IdentifierRef names a property of the current query element in a
	// sort clause.
	IdentifierRef struct {
		Kind string `json:"kind" unpack:""`
		Node
		Name string `json:"name"`
	}
	// Property accesses Path on Source, or on the alias named by Scope when
	// Source is nil.
	Property struct {
		Kind string `json:"kind" unpack:""`
		Node
		Source Expr   `json:"source,omitempty"`
		Scope  string `json:"scope,omitempty"`
		Path   string `json:"path"`
	}
	As struct {
		Kind string `json:"kind" unpack:""`
		Node
		Operand Expr     `json:"operand"`
		AsType  cql.Type `json:"asType"`
		Strict  bool     `json:"strict"`
	}
	Is struct {
		Kind string `json:"kind" unpack:""`
		Node
		Operand Expr     `json:"operand"`
		IsType  cql.Type `json:"isType"`
	}
	// Convert is a conversion justified by a declared conversion operator
	// that has no built-in System counterpart.
	Convert struct {
		Kind string `json:"kind" unpack:""`
		Node
		Operand Expr     `json:"operand"`
		ToType  cql.Type `json:"toType"`
	}
	If struct {
		Kind string `json:"kind" unpack:""`
		Node
		Condition Expr   `json:"condition"`
		Then      Expr   `json:"then"`
		Else      Expr   `json:"else"`
	}
	Case struct {
		Kind string `json:"kind" unpack:""`
		Node
		Comparand Expr       `json:"comparand,omitempty"`
		CaseItems []CaseItem `json:"caseItem"`
		Else      Expr       `json:"else"`
	}
	CaseItem struct {
		When Expr `json:"when"`
		Then Expr `json:"then"`
	}
	MinValue struct {
		Kind string `json:"kind" unpack:""`
		Node
		ValueType cql.Type `json:"valueType"`
	}
	MaxValue struct {
		Kind string `json:"kind" unpack:""`
		Node
		ValueType cql.Type `json:"valueType"`
	}
)

func (*BadExpr) exprNode()       {}
func (*Null) exprNode()          {}
func (*Literal) exprNode()       {}
func (*Quantity) exprNode()      {}
func (*Interval) exprNode()      {}
func (*List) exprNode()          {}
func (*Tuple) exprNode()         {}
func (*Instance) exprNode()      {}
func (*Code) exprNode()          {}
func (*Concept) exprNode()       {}
func (*Call) exprNode()          {}
func (*FunctionRef) exprNode()   {}
func (*ExpressionRef) exprNode() {}
func (*ParameterRef) exprNode()  {}
func (*CodeSystemRef) exprNode() {}
func (*ValueSetRef) exprNode()   {}
func (*CodeRef) exprNode()       {}
func (*ConceptRef) exprNode()    {}
func (*OperandRef) exprNode()    {}
func (*AliasRef) exprNode()      {}
func (*QueryLetRef) exprNode()   {}
func (*IdentifierRef) exprNode() {}
func (*Property) exprNode()      {}
func (*As) exprNode()            {}
func (*Is) exprNode()            {}
func (*Convert) exprNode()       {}
func (*If) exprNode()            {}
func (*Case) exprNode()          {}
func (*MinValue) exprNode()      {}
func (*MaxValue) exprNode()      {}
func (*Retrieve) exprNode()      {}
func (*Query) exprNode()         {}

// NewCall returns a Call of the System operator name with result type typ.
func NewCall(name string, typ cql.Type, operands ...Expr) *Call {
	return &Call{
		Kind:     "Call",
		Node:     Typed(typ),
		Name:     name,
		Operands: operands,
	}
}

func NewLiteral(typ cql.Type, value string) *Literal {
	return &Literal{Kind: "Literal", Node: Typed(typ), Value: value}
}

func NewBool(b bool) *Literal {
	if b {
		return NewLiteral(cql.TypeBoolean, "true")
	}
	return NewLiteral(cql.TypeBoolean, "false")
}

func NewNull(typ cql.Type) *Null {
	return &Null{Kind: "Null", Node: Typed(typ)}
}

// IsTrue reports whether e is the Boolean literal true.
func IsTrue(e Expr) bool {
	lit, ok := e.(*Literal)
	return ok && lit.Type == cql.TypeBoolean && lit.Value == "true"
}
