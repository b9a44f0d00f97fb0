package model

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/brimdata/cql"
)

// Source supplies model information documents by model name and version.
// An empty version matches any version.
type Source interface {
	ReadInfo(name, version string) (*Info, error)
}

var ErrNotFound = errors.New("model not found")

//go:embed models/*.yaml
var builtinFS embed.FS

// Builtin is the Source of the models shipped with this package.
var Builtin Source = &fsSource{fsys: builtinFS, dir: "models"}

// Dir returns a Source reading "<name>.yaml" files from a directory.
func Dir(path string) Source {
	return &fsSource{fsys: os.DirFS(path), dir: "."}
}

type fsSource struct {
	fsys fs.FS
	dir  string
}

func (f *fsSource) ReadInfo(name, version string) (*Info, error) {
	b, err := fs.ReadFile(f.fsys, filepath.ToSlash(filepath.Join(f.dir, name+".yaml")))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	info, err := ParseInfo(b)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}
	if version != "" && info.Version != version {
		return nil, ErrNotFound
	}
	return info, nil
}

// Chain returns a Source consulting each source in order.
func Chain(sources ...Source) Source {
	return chain(sources)
}

type chain []Source

func (c chain) ReadInfo(name, version string) (*Info, error) {
	for _, src := range c {
		info, err := src.ReadInfo(name, version)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return info, err
	}
	return nil, ErrNotFound
}

// Registry loads each model at most once into a type context.  It is safe
// for concurrent use by compilations sharing the context.
type Registry struct {
	tctx   *cql.Context
	source Source
	mu     sync.Mutex
	models map[string]*Model
}

func NewRegistry(tctx *cql.Context, source Source) *Registry {
	return &Registry{
		tctx:   tctx,
		source: source,
		models: make(map[string]*Model),
	}
}

func (r *Registry) Context() *cql.Context {
	return r.tctx
}

// Load returns the named model, loading it on first use.  Requesting a
// version different from the one already loaded is an error.
func (r *Registry) Load(name, version string) (*Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.models[name]; ok {
		if version != "" && m.Version != version {
			return nil, fmt.Errorf("Could not load model information for model %s, version %s because version %s is already loaded.", name, version, m.Version)
		}
		return m, nil
	}
	info, err := r.source.ReadInfo(name, version)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if version != "" {
				return nil, fmt.Errorf("Could not load model information for model %s, version %s.", name, version)
			}
			return nil, fmt.Errorf("Could not load model information for model %s.", name)
		}
		return nil, err
	}
	m, err := info.Build(r.tctx)
	if err != nil {
		return nil, err
	}
	r.models[name] = m
	return m, nil
}

// Models returns the models loaded so far.
func (r *Registry) Models() []*Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	models := make([]*Model, 0, len(r.models))
	for _, m := range r.models {
		models = append(models, m)
	}
	return models
}
