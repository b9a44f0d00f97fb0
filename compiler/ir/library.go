package ir

import "github.com/brimdata/cql"

type Library struct {
	Kind        string           `json:"kind" unpack:""`
	Identifier  Identifier       `json:"identifier"`
	Usings      []*UsingDef      `json:"usings,omitempty"`
	Includes    []*IncludeDef    `json:"includes,omitempty"`
	Parameters  []*ParameterDef  `json:"parameters,omitempty"`
	CodeSystems []*CodeSystemDef `json:"codeSystems,omitempty"`
	ValueSets   []*ValueSetDef   `json:"valueSets,omitempty"`
	Codes       []*CodeDef       `json:"codes,omitempty"`
	Concepts    []*ConceptDef    `json:"concepts,omitempty"`
	Contexts    []*ContextDef    `json:"contexts,omitempty"`
	Statements  []Def            `json:"statements"`
}

type Identifier struct {
	ID      string `json:"id,omitempty"`
	Version string `json:"version,omitempty"`
}

// Def is implemented by ExpressionDef and FunctionDef.
type Def interface {
	DefName() string
	Header() *Node
	defNode()
}

type (
	UsingDef struct {
		LocalIdentifier string `json:"localIdentifier"`
		URI             string `json:"uri"`
		Version         string `json:"version,omitempty"`
	}
	IncludeDef struct {
		LocalIdentifier string `json:"localIdentifier"`
		Path            string `json:"path"`
		Version         string `json:"version,omitempty"`
	}
	ParameterDef struct {
		Node
		Name          string   `json:"name"`
		Access        string   `json:"accessLevel"`
		ParameterType cql.Type `json:"parameterType,omitempty"`
		Default       Expr     `json:"default,omitempty"`
	}
	CodeSystemDef struct {
		Node
		Name    string `json:"name"`
		ID      string `json:"id"`
		Version string `json:"version,omitempty"`
		Access  string `json:"accessLevel"`
	}
	ValueSetDef struct {
		Node
		Name        string           `json:"name"`
		ID          string           `json:"id"`
		Version     string           `json:"version,omitempty"`
		Access      string           `json:"accessLevel"`
		CodeSystems []*CodeSystemRef `json:"codeSystem,omitempty"`
	}
	CodeDef struct {
		Node
		Name       string         `json:"name"`
		ID         string         `json:"id"`
		Display    string         `json:"display,omitempty"`
		Access     string         `json:"accessLevel"`
		CodeSystem *CodeSystemRef `json:"codeSystem"`
	}
	ConceptDef struct {
		Node
		Name    string     `json:"name"`
		Display string     `json:"display,omitempty"`
		Access  string     `json:"accessLevel"`
		Codes   []*CodeRef `json:"code"`
	}
	ContextDef struct {
		Name string `json:"name"`
	}
	ExpressionDef struct {
		Kind string `json:"kind" unpack:""`
		Node
		Name       string `json:"name"`
		Context    string `json:"context"`
		Access     string `json:"accessLevel"`
		Expression Expr   `json:"expression"`
	}
	FunctionDef struct {
		Kind string `json:"kind" unpack:""`
		Node
		Name       string        `json:"name"`
		Context    string        `json:"context"`
		Access     string        `json:"accessLevel"`
		Fluent     bool          `json:"fluent,omitempty"`
		External   bool          `json:"external,omitempty"`
		Operands   []*OperandDef `json:"operand"`
		Expression Expr          `json:"expression,omitempty"`
	}
	OperandDef struct {
		Name string   `json:"name"`
		Type cql.Type `json:"operandType"`
	}
)

func (d *ExpressionDef) DefName() string { return d.Name }
func (d *FunctionDef) DefName() string   { return d.Name }

func (*ExpressionDef) defNode() {}
func (*FunctionDef) defNode()   {}
