package semantic

import (
	"github.com/brimdata/cql"
	"github.com/brimdata/cql/compiler/ir"
	"github.com/brimdata/cql/compiler/resolve"
	"github.com/brimdata/cql/compiler/srcfiles"
	"github.com/brimdata/cql/model"
	"github.com/brimdata/cql/ucum"
	"go.uber.org/zap"
)

// LibraryResolver supplies the compiled units of included libraries.
type LibraryResolver interface {
	Library(path, version string) (*Unit, error)
}

// Environment holds the collaborators shared by the compilation of every
// library of a program.  Units and Logger are optional.
type Environment struct {
	Context   *cql.Context
	System    *resolve.Table
	Models    *model.Registry
	Libraries LibraryResolver
	Units     ucum.Validator
	Options   Options
	Logger    *zap.Logger
}

// NewEnvironment returns an Environment with a fresh type context, the
// System library, and the builtin models.
func NewEnvironment(opts Options) *Environment {
	tctx := cql.NewContext()
	return &Environment{
		Context: tctx,
		System:  resolve.NewSystem(tctx),
		Models:  model.NewRegistry(tctx, model.Builtin),
		Options: opts,
		Logger:  zap.NewNop(),
	}
}

// SymbolKind classifies the named statements of a library.
type SymbolKind string

const (
	SymbolExpression SymbolKind = "Expression"
	SymbolFunction   SymbolKind = "Function"
	SymbolParameter  SymbolKind = "Parameter"
	SymbolCodeSystem SymbolKind = "CodeSystem"
	SymbolValueSet   SymbolKind = "ValueSet"
	SymbolCode       SymbolKind = "Code"
	SymbolConcept    SymbolKind = "Concept"
)

// Symbol describes a name exported by a library.  Signatures is set for
// functions and lists one entry per overload.
type Symbol struct {
	Name       string
	Kind       SymbolKind
	Access     resolve.Access
	Type       cql.Type
	Context    string
	Signatures []resolve.Signature
}

// Unit is the result of compiling one library.
type Unit struct {
	Library     *ir.Library
	Name        string
	Version     string
	Retrieves   []*ir.Retrieve
	Definitions []ir.Def
	Symbols     []*Symbol
	Table       *resolve.Table
	Diagnostics srcfiles.ErrorList
	symbols     map[string]*Symbol
}

// Symbol returns the symbol for name.
func (u *Unit) Symbol(name string) (*Symbol, bool) {
	s, ok := u.symbols[name]
	return s, ok
}

func (u *Unit) addSymbol(s *Symbol) {
	if u.symbols == nil {
		u.symbols = make(map[string]*Symbol)
	}
	if existing, ok := u.symbols[s.Name]; ok {
		if existing.Kind == SymbolFunction && s.Kind == SymbolFunction {
			existing.Signatures = append(existing.Signatures, s.Signatures...)
		}
		return
	}
	u.symbols[s.Name] = s
	u.Symbols = append(u.Symbols, s)
}

// Errors returns the error-severity diagnostics of u.
func (u *Unit) Errors() srcfiles.ErrorList {
	return u.Diagnostics.Errors()
}
