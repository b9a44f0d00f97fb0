package parser

import (
	"errors"

	"github.com/alecthomas/participle/v2"
	"github.com/brimdata/cql/compiler/ast"
	"github.com/brimdata/cql/compiler/srcfiles"
)

type AST struct {
	lib   *ast.Library
	files *srcfiles.List
}

func (a *AST) Parsed() *ast.Library {
	return a.lib
}

func (a *AST) Files() *srcfiles.List {
	return a.files
}

// ParseLibrary parses the CQL source text of a library.  The name is used
// only for error reporting.  Syntax errors are recorded in the returned
// error's srcfiles.ErrorList.
func ParseLibrary(name, src string) (*AST, error) {
	files := srcfiles.NewList(name, src)
	lib, err := parseFiles(files)
	if err != nil {
		return nil, err
	}
	return &AST{lib, files}, nil
}

// ParseFile reads and parses a CQL library from a file.
func ParseFile(path string) (*AST, error) {
	files, err := srcfiles.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lib, err := parseFiles(files)
	if err != nil {
		return nil, err
	}
	return &AST{lib, files}, nil
}

func parseFiles(files *srcfiles.List) (*ast.Library, error) {
	l, err := cqlParser.ParseString(files.Files[0].Name, files.Text)
	if err != nil {
		if err := convertParseErr(err, files); err != nil {
			return nil, err
		}
		return nil, files.Error()
	}
	return convertLibrary(l), nil
}

func convertParseErr(err error, files *srcfiles.List) error {
	var perr participle.Error
	if !errors.As(err, &perr) {
		return err
	}
	files.AddError("parse error: "+perr.Message(), perr.Position().Offset, -1)
	return nil
}
