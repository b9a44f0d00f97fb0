package compiler

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/brimdata/cql/compiler/parser"
)

//go:generate mockgen -destination=mock/source.go -package=mock github.com/brimdata/cql/compiler Source

// Source supplies the parsed text of libraries by path and version.  An
// empty version matches any version.
type Source interface {
	ReadLibrary(path, version string) (*parser.AST, error)
}

// ErrNotFound is returned by a Source that has no library for a path.
var ErrNotFound = errors.New("library not found")

// Dir returns a Source reading "<path>-<version>.cql" or "<path>.cql" files
// from the directory root.
func Dir(root string) Source {
	return dir(root)
}

type dir string

func (d dir) ReadLibrary(path, version string) (*parser.AST, error) {
	var names []string
	if version != "" {
		names = append(names, path+"-"+version+".cql")
	}
	names = append(names, path+".cql")
	for _, name := range names {
		p, err := parser.ParseFile(filepath.Join(string(d), name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return p, err
	}
	return nil, ErrNotFound
}

// Map is a Source of library text keyed by path.
type Map map[string]string

func (m Map) ReadLibrary(path, _ string) (*parser.AST, error) {
	src, ok := m[path]
	if !ok {
		return nil, ErrNotFound
	}
	return parser.ParseLibrary(path+".cql", src)
}
