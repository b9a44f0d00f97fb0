// Package compiler translates CQL libraries into typed IR.  A Manager
// compiles a library together with the libraries it includes.  Compile is
// a shortcut for a single library.
package compiler

import (
	"context"

	"github.com/brimdata/cql/compiler/parser"
	"github.com/brimdata/cql/compiler/semantic"
)

func Parse(name, src string) (*parser.AST, error) {
	return parser.ParseLibrary(name, src)
}

func Analyze(p *parser.AST, env *semantic.Environment) (*semantic.Unit, error) {
	return semantic.Analyze(p, env)
}

// Compile translates the source text of a library that includes no other
// library, using the builtin models.
func Compile(src string, opts semantic.Options) (*semantic.Unit, error) {
	m := NewManager(semantic.NewEnvironment(opts), nil)
	return m.CompileSource(context.Background(), "", src)
}
