package ir

import "github.com/brimdata/cql"

type (
	// Retrieve is a request for all instances of a retrievable model type,
	// optionally filtered by terminology on CodeProperty and by a date range
	// on DateProperty.
	Retrieve struct {
		Kind string `json:"kind" unpack:""`
		Node
		DataType       cql.Type `json:"dataType"`
		TemplateID     string   `json:"templateId,omitempty"`
		CodeProperty   string   `json:"codeProperty,omitempty"`
		CodeComparator string   `json:"codeComparator,omitempty"`
		Codes          Expr     `json:"codes,omitempty"`
		DateProperty   string   `json:"dateProperty,omitempty"`
		DateRange      Expr     `json:"dateRange,omitempty"`
	}
	Query struct {
		Kind string `json:"kind" unpack:""`
		Node
		Sources      []*AliasedSource `json:"source"`
		Lets         []*LetClause     `json:"let,omitempty"`
		Relationship []*Relationship  `json:"relationship,omitempty"`
		Where        Expr             `json:"where,omitempty"`
		Return       *ReturnClause    `json:"return,omitempty"`
		Sort         *SortClause      `json:"sort,omitempty"`
	}
	AliasedSource struct {
		Alias      string   `json:"alias"`
		Expression Expr     `json:"expression"`
		Type       cql.Type `json:"resultType"`
	}
	LetClause struct {
		Identifier string   `json:"identifier"`
		Expression Expr     `json:"expression"`
		Type       cql.Type `json:"resultType"`
	}
	// Relationship is a semi-join ("With") or anti-join ("Without").
	Relationship struct {
		Kind       string `json:"kind"`
		Alias      string `json:"alias"`
		Expression Expr   `json:"expression"`
		SuchThat   Expr   `json:"suchThat"`
	}
	ReturnClause struct {
		Distinct   bool `json:"distinct"`
		Expression Expr `json:"expression"`
	}
	SortClause struct {
		By []SortBy `json:"by"`
	}
)

// SortBy is implemented by ByDirection, ByColumn and ByExpression.
type SortBy interface {
	sortByNode()
}

type (
	ByDirection struct {
		Kind      string `json:"kind" unpack:""`
		Direction string `json:"direction"`
	}
	ByColumn struct {
		Kind      string `json:"kind" unpack:""`
		Path      string `json:"path"`
		Direction string `json:"direction"`
	}
	ByExpression struct {
		Kind       string `json:"kind" unpack:""`
		Expression Expr   `json:"expression"`
		Direction  string `json:"direction"`
	}
)

func (*ByDirection) sortByNode()  {}
func (*ByColumn) sortByNode()     {}
func (*ByExpression) sortByNode() {}

// Sort directions.
const (
	Asc  = "asc"
	Desc = "desc"
)
