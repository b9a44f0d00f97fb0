// Package ir defines the typed intermediate representation produced by the
// semantic pass.  Every expression node carries its result type and,
// optionally, a local ID and a source locator.
package ir

import "github.com/brimdata/cql"

// Node is the header shared by every IR expression.
type Node struct {
	LocalID string   `json:"localId,omitempty"`
	Locator string   `json:"locator,omitempty"`
	Type    cql.Type `json:"resultType,omitempty"`
}

func (n *Node) Header() *Node { return n }

// ResultType returns the type of the node's value.
func (n *Node) ResultType() cql.Type { return n.Type }

func Typed(t cql.Type) Node {
	return Node{Type: t}
}

type Expr interface {
	Header() *Node
	ResultType() cql.Type
	exprNode()
}

// TypeOf returns the result type of e or Any if e is nil or untyped.
func TypeOf(e Expr) cql.Type {
	if e == nil {
		return cql.TypeAny
	}
	if t := e.ResultType(); t != nil {
		return t
	}
	return cql.TypeAny
}

// IsBad reports whether e is a BadExpr placeholder.
func IsBad(e Expr) bool {
	_, ok := e.(*BadExpr)
	return ok
}
