// Package irfmt renders typed IR as an indented tree for humans.  Each line
// shows the result type of a node in brackets followed by the node's kind
// and its distinguishing attributes.
package irfmt

import (
	"fmt"
	"strings"

	"github.com/brimdata/cql"
	"github.com/brimdata/cql/compiler/ir"
	"github.com/xlab/treeprint"
)

// Library returns the tree of every definition in lib.
func Library(lib *ir.Library) string {
	if lib == nil {
		return ""
	}
	root := treeprint.New()
	name := lib.Identifier.ID
	if name == "" {
		name = "(anonymous)"
	}
	if lib.Identifier.Version != "" {
		name += " version " + lib.Identifier.Version
	}
	root.SetValue("library " + name)
	for _, u := range lib.Usings {
		root.AddNode(join("using", u.LocalIdentifier, u.Version))
	}
	for _, inc := range lib.Includes {
		root.AddNode(join("include", inc.Path, inc.Version, "called", inc.LocalIdentifier))
	}
	for _, p := range lib.Parameters {
		b := root.AddMetaBranch(typeString(p.ParameterType), join(p.Access, "parameter", p.Name))
		if p.Default != nil {
			newVisitor(b).expr(p.Default)
		}
	}
	for _, cs := range lib.CodeSystems {
		root.AddNode(join(cs.Access, "codesystem", cs.Name, quote(cs.ID)))
	}
	for _, vs := range lib.ValueSets {
		root.AddNode(join(vs.Access, "valueset", vs.Name, quote(vs.ID)))
	}
	for _, c := range lib.Codes {
		root.AddNode(join(c.Access, "code", c.Name, quote(c.ID)))
	}
	for _, c := range lib.Concepts {
		root.AddNode(join(c.Access, "concept", c.Name))
	}
	for _, def := range lib.Statements {
		switch def := def.(type) {
		case *ir.ExpressionDef:
			b := root.AddMetaBranch(typeString(def.Type), join(def.Access, "define", def.Name, "in", def.Context))
			newVisitor(b).expr(def.Expression)
		case *ir.FunctionDef:
			var operands []string
			for _, o := range def.Operands {
				operands = append(operands, o.Name+" "+typeString(o.Type))
			}
			label := join(def.Access, fluent(def.Fluent), "function", def.Name+"("+strings.Join(operands, ", ")+")")
			if def.External {
				label += " external"
			}
			b := root.AddMetaBranch(typeString(def.Type), label)
			if def.Expression != nil {
				newVisitor(b).expr(def.Expression)
			}
		}
	}
	return Render(root)
}

// Expr returns the tree of e.
func Expr(e ir.Expr) string {
	if e == nil {
		return ""
	}
	root := treeprint.New()
	v := newVisitor(root)
	root.SetMetaValue(typeString(ir.TypeOf(e)))
	root.SetValue(label(e))
	v.children(root, e)
	return Render(root)
}

// Render returns the text of tree.  treeprint pads nested levels with
// non-breaking spaces, which are written as plain spaces.
func Render(tree treeprint.Tree) string {
	return strings.ReplaceAll(tree.String(), "\u00a0", " ")
}

type visitor struct {
	trees []treeprint.Tree
}

func newVisitor(root treeprint.Tree) *visitor {
	return &visitor{trees: []treeprint.Tree{root}}
}

func (v *visitor) top() treeprint.Tree {
	return v.trees[len(v.trees)-1]
}

func (v *visitor) push(t treeprint.Tree) {
	v.trees = append(v.trees, t)
}

func (v *visitor) pop() {
	v.trees[len(v.trees)-1] = nil
	v.trees = v.trees[:len(v.trees)-1]
}

func (v *visitor) expr(e ir.Expr) {
	if e == nil {
		return
	}
	t := v.top().AddMetaBranch(typeString(ir.TypeOf(e)), label(e))
	v.children(t, e)
}

// children adds the subexpressions of e beneath t.  Query clauses get a
// branch of their own so that their role stays visible.
func (v *visitor) children(t treeprint.Tree, e ir.Expr) {
	v.push(t)
	defer v.pop()
	q, ok := e.(*ir.Query)
	if !ok {
		for _, child := range ir.Children(e) {
			v.expr(child)
		}
		return
	}
	for _, src := range q.Sources {
		v.clause("source "+src.Alias, src.Expression)
	}
	for _, let := range q.Lets {
		v.clause("let "+let.Identifier, let.Expression)
	}
	for _, rel := range q.Relationship {
		b := t.AddBranch(strings.ToLower(rel.Kind) + " " + rel.Alias)
		v.push(b)
		v.expr(rel.Expression)
		v.clause("such that", rel.SuchThat)
		v.pop()
	}
	if q.Where != nil {
		v.clause("where", q.Where)
	}
	if q.Return != nil {
		name := "return"
		if q.Return.Distinct {
			name = "return distinct"
		}
		v.clause(name, q.Return.Expression)
	}
	if q.Sort != nil {
		b := t.AddBranch("sort")
		v.push(b)
		for _, by := range q.Sort.By {
			switch by := by.(type) {
			case *ir.ByDirection:
				b.AddNode(by.Direction)
			case *ir.ByColumn:
				b.AddNode(by.Path + " " + by.Direction)
			case *ir.ByExpression:
				v.clause(by.Direction, by.Expression)
			}
		}
		v.pop()
	}
}

func (v *visitor) clause(name string, e ir.Expr) {
	b := v.top().AddBranch(name)
	v.push(b)
	v.expr(e)
	v.pop()
}

func label(e ir.Expr) string {
	switch e := e.(type) {
	case *ir.BadExpr:
		if e.Cause != nil {
			return "BadExpr: " + e.Cause.Error()
		}
		return "BadExpr"
	case *ir.Null:
		return "Null"
	case *ir.Literal:
		return join("Literal", e.Value, e.Precision)
	case *ir.Quantity:
		return join("Quantity", e.Value, quote(e.Unit))
	case *ir.Interval:
		return fmt.Sprintf("Interval %s%s", bracket(e.LowClosed, "[", "("), bracket(e.HighClosed, "]", ")"))
	case *ir.List:
		return "List"
	case *ir.Tuple:
		return "Tuple " + elementNames(e.Elements)
	case *ir.Instance:
		return join("Instance", typeString(e.ClassType), elementNames(e.Elements))
	case *ir.Code:
		return join("Code", quote(e.Code))
	case *ir.Concept:
		return "Concept"
	case *ir.Call:
		return join("Call", e.Name, e.Precision)
	case *ir.FunctionRef:
		return "FunctionRef " + qualified(e.LibraryName, e.Name)
	case *ir.ExpressionRef:
		return "ExpressionRef " + qualified(e.LibraryName, e.Name)
	case *ir.ParameterRef:
		return "ParameterRef " + qualified(e.LibraryName, e.Name)
	case *ir.CodeSystemRef:
		return "CodeSystemRef " + qualified(e.LibraryName, e.Name)
	case *ir.ValueSetRef:
		return "ValueSetRef " + qualified(e.LibraryName, e.Name)
	case *ir.CodeRef:
		return "CodeRef " + qualified(e.LibraryName, e.Name)
	case *ir.ConceptRef:
		return "ConceptRef " + qualified(e.LibraryName, e.Name)
	case *ir.OperandRef:
		return "OperandRef " + e.Name
	case *ir.AliasRef:
		return "AliasRef " + e.Name
	case *ir.QueryLetRef:
		return "QueryLetRef " + e.Name
	case *ir.IdentifierRef:
		return "IdentifierRef " + e.Name
	case *ir.Property:
		if e.Scope != "" {
			return "Property " + e.Scope + "." + e.Path
		}
		return "Property " + e.Path
	case *ir.As:
		if e.Strict {
			return "As " + typeString(e.AsType) + " strict"
		}
		return "As " + typeString(e.AsType)
	case *ir.Is:
		return "Is " + typeString(e.IsType)
	case *ir.Convert:
		return "Convert " + typeString(e.ToType)
	case *ir.If:
		return "If"
	case *ir.Case:
		return "Case"
	case *ir.MinValue:
		return "MinValue " + typeString(e.ValueType)
	case *ir.MaxValue:
		return "MaxValue " + typeString(e.ValueType)
	case *ir.Retrieve:
		s := "Retrieve " + typeString(e.DataType)
		if e.CodeProperty != "" {
			s += " " + e.CodeProperty + " " + e.CodeComparator
		}
		if e.DateProperty != "" {
			s += " during " + e.DateProperty
		}
		return s
	case *ir.Query:
		return "Query"
	}
	return fmt.Sprintf("%T", e)
}

func typeString(t cql.Type) string {
	if t == nil {
		return "?"
	}
	return t.String()
}

func elementNames(elems []ir.TupleElement) string {
	names := make([]string, 0, len(elems))
	for _, e := range elems {
		names = append(names, e.Name)
	}
	return "{" + strings.Join(names, ", ") + "}"
}

func qualified(lib, name string) string {
	if lib == "" {
		return name
	}
	return lib + "." + name
}

func quote(s string) string {
	if s == "" {
		return ""
	}
	return "'" + s + "'"
}

func bracket(closed bool, yes, no string) string {
	if closed {
		return yes
	}
	return no
}

func fluent(ok bool) string {
	if ok {
		return "fluent"
	}
	return ""
}

// join joins the non-empty words with single spaces.
func join(words ...string) string {
	var out []string
	for _, w := range words {
		if w != "" {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}
