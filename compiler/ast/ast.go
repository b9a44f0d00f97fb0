// Package ast declares the types used to represent syntax trees for CQL
// libraries.
package ast

// Stmt is the interface implemented by library-level statements.
type Stmt interface {
	Node
	StmtAST()
}

type ID struct {
	Kind string `json:"kind" unpack:""`
	Name string `json:"name"`
	Loc  `json:"loc"`
}

type Library struct {
	Kind       string `json:"kind" unpack:""`
	Name       *ID    `json:"name"`
	Version    string `json:"version"`
	Statements []Stmt `json:"statements"`
	Loc        `json:"loc"`
}

// Access values.
const (
	Public  = "public"
	Private = "private"
)

type (
	UsingDef struct {
		Kind    string `json:"kind" unpack:""`
		Model   *ID    `json:"model"`
		Version string `json:"version"`
		Loc     `json:"loc"`
	}
	IncludeDef struct {
		Kind    string `json:"kind" unpack:""`
		Path    *ID    `json:"path"`
		Version string `json:"version"`
		Alias   *ID    `json:"alias"`
		Loc     `json:"loc"`
	}
	CodeSystemDef struct {
		Kind    string `json:"kind" unpack:""`
		Access  string `json:"access"`
		Name    *ID    `json:"name"`
		URI     string `json:"uri"`
		Version string `json:"version"`
		Loc     `json:"loc"`
	}
	ValueSetDef struct {
		Kind        string     `json:"kind" unpack:""`
		Access      string     `json:"access"`
		Name        *ID        `json:"name"`
		URI         string     `json:"uri"`
		Version     string     `json:"version"`
		CodeSystems []*TermRef `json:"codesystems"`
		Loc         `json:"loc"`
	}
	CodeDef struct {
		Kind    string   `json:"kind" unpack:""`
		Access  string   `json:"access"`
		Name    *ID      `json:"name"`
		Code    string   `json:"code"`
		System  *TermRef `json:"system"`
		Display string   `json:"display"`
		Loc     `json:"loc"`
	}
	ConceptDef struct {
		Kind    string     `json:"kind" unpack:""`
		Access  string     `json:"access"`
		Name    *ID        `json:"name"`
		Codes   []*TermRef `json:"codes"`
		Display string     `json:"display"`
		Loc     `json:"loc"`
	}
	ParameterDef struct {
		Kind    string   `json:"kind" unpack:""`
		Access  string   `json:"access"`
		Name    *ID      `json:"name"`
		Type    TypeSpec `json:"type"`
		Default Expr     `json:"default"`
		Loc     `json:"loc"`
	}
	ContextDef struct {
		Kind string `json:"kind" unpack:""`
		Name *ID    `json:"name"`
		Loc  `json:"loc"`
	}
	ExpressionDef struct {
		Kind   string `json:"kind" unpack:""`
		Access string `json:"access"`
		Name   *ID    `json:"name"`
		Expr   Expr   `json:"expr"`
		Loc    `json:"loc"`
	}
	// A FunctionDef with External set has no Body and must declare its
	// return type.
	FunctionDef struct {
		Kind     string     `json:"kind" unpack:""`
		Access   string     `json:"access"`
		Fluent   bool       `json:"fluent"`
		Name     *ID        `json:"name"`
		Operands []*Operand `json:"operands"`
		Returns  TypeSpec   `json:"returns"`
		Body     Expr       `json:"body"`
		External bool       `json:"external"`
		Loc      `json:"loc"`
	}
	Operand struct {
		Kind string   `json:"kind" unpack:""`
		Name *ID      `json:"name"`
		Type TypeSpec `json:"type"`
		Loc  `json:"loc"`
	}
	// TermRef names a terminology definition, optionally qualified by an
	// included library alias.
	TermRef struct {
		Kind    string `json:"kind" unpack:""`
		Library string `json:"library"`
		Name    string `json:"name"`
		Loc     `json:"loc"`
	}
)

func (*UsingDef) StmtAST()      {}
func (*IncludeDef) StmtAST()    {}
func (*CodeSystemDef) StmtAST() {}
func (*ValueSetDef) StmtAST()   {}
func (*CodeDef) StmtAST()       {}
func (*ConceptDef) StmtAST()    {}
func (*ParameterDef) StmtAST()  {}
func (*ContextDef) StmtAST()    {}
func (*ExpressionDef) StmtAST() {}
func (*FunctionDef) StmtAST()   {}

// TypeSpec is the interface implemented by type specifiers.
type TypeSpec interface {
	Node
	TypeAST()
}

type (
	// NamedType is a possibly model-qualified type name like FHIR.Patient.
	NamedType struct {
		Kind  string `json:"kind" unpack:""`
		Model string `json:"model"`
		Name  string `json:"name"`
		Loc   `json:"loc"`
	}
	ListType struct {
		Kind string   `json:"kind" unpack:""`
		Elem TypeSpec `json:"elem"`
		Loc  `json:"loc"`
	}
	IntervalType struct {
		Kind  string   `json:"kind" unpack:""`
		Point TypeSpec `json:"point"`
		Loc   `json:"loc"`
	}
	TupleType struct {
		Kind   string        `json:"kind" unpack:""`
		Fields []*TupleField `json:"fields"`
		Loc    `json:"loc"`
	}
	TupleField struct {
		Kind string   `json:"kind" unpack:""`
		Name *ID      `json:"name"`
		Type TypeSpec `json:"type"`
		Loc  `json:"loc"`
	}
	ChoiceType struct {
		Kind  string     `json:"kind" unpack:""`
		Types []TypeSpec `json:"types"`
		Loc   `json:"loc"`
	}
)

func (*NamedType) TypeAST()    {}
func (*ListType) TypeAST()     {}
func (*IntervalType) TypeAST() {}
func (*TupleType) TypeAST()    {}
func (*ChoiceType) TypeAST()   {}

func (n *NamedType) String() string {
	if n.Model != "" {
		return n.Model + "." + n.Name
	}
	return n.Name
}
