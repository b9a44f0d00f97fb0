package compiler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/brimdata/cql/compiler/ast"
	"github.com/brimdata/cql/compiler/parser"
	"github.com/brimdata/cql/compiler/semantic"
	"github.com/brimdata/cql/compiler/srcfiles"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CycleError reports libraries that include each other.  Path starts and
// ends with the same library.
type CycleError struct {
	Path []string
}

func (c *CycleError) Error() string {
	return fmt.Sprintf("Circular library reference %s.", strings.Join(c.Path, " -> "))
}

// Manager compiles libraries together with the libraries they include.
// Every library is compiled once, after all of its includes, and libraries
// that do not depend on each other are compiled concurrently.  A Manager
// is the library resolver of its environment.
type Manager struct {
	// Parallelism bounds the number of libraries compiled at once.
	Parallelism int
	// Metrics, if not nil, records every library compiled.
	Metrics *Metrics

	env    *semantic.Environment
	source Source
	logger *zap.Logger

	mu    sync.RWMutex
	units map[string]*semantic.Unit
	order []*semantic.Unit
}

// NewManager returns a Manager that reads included libraries from source,
// which may be nil if no library includes another.
func NewManager(env *semantic.Environment, source Source) *Manager {
	logger := env.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		Parallelism: runtime.GOMAXPROCS(0),
		env:         env,
		source:      source,
		logger:      logger,
		units:       make(map[string]*semantic.Unit),
	}
	env.Libraries = m
	return m
}

// Library returns the unit of a library compiled earlier.
func (m *Manager) Library(path, version string) (*semantic.Unit, error) {
	m.mu.RLock()
	u, ok := m.units[path]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("Could not load source for library %s, version %s.", path, version)
	}
	if version != "" && u.Version != "" && version != u.Version {
		return nil, fmt.Errorf("Library %s was included as version %s, but version %s of the library was found.", path, version, u.Version)
	}
	return u, nil
}

// Units returns every unit compiled so far, each after the units it
// includes.
func (m *Manager) Units() []*semantic.Unit {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*semantic.Unit(nil), m.order...)
}

// Compile compiles the library at path along with everything it includes
// and returns the library's unit.  The error lists the error diagnostics of
// every library compiled.
func (m *Manager) Compile(ctx context.Context, path, version string) (*semantic.Unit, error) {
	if m.source == nil {
		return nil, fmt.Errorf("Could not load source for library %s, version %s.", path, version)
	}
	p, err := m.source.ReadLibrary(path, version)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("Could not load source for library %s, version %s.", path, version)
	}
	if err != nil {
		return nil, err
	}
	return m.compile(ctx, path, p)
}

// CompileSource compiles library text that does not come from the
// manager's source.  The name is used for error reporting.
func (m *Manager) CompileSource(ctx context.Context, name, src string) (*semantic.Unit, error) {
	p, err := parser.ParseLibrary(name, src)
	if err != nil {
		return nil, err
	}
	key := name
	if lib := p.Parsed(); lib.Name != nil {
		key = lib.Name.Name
	}
	return m.compile(ctx, key, p)
}

func (m *Manager) compile(ctx context.Context, key string, p *parser.AST) (*semantic.Unit, error) {
	g, err := m.load(key, p)
	if err != nil {
		return nil, err
	}
	if path := g.cycle(); path != nil {
		return nil, &CycleError{Path: path}
	}
	var errs srcfiles.ErrorList
	for depth, level := range g.levels() {
		m.logger.Debug("compiling libraries", zap.Int("depth", depth), zap.Int("count", len(level)))
		units, err := m.compileLevel(ctx, level)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		for k, n := range level {
			m.units[n.path] = units[k]
			m.order = append(m.order, units[k])
			errs = append(errs, units[k].Errors()...)
		}
		m.mu.Unlock()
	}
	m.mu.RLock()
	u := m.units[key]
	m.mu.RUnlock()
	if len(errs) > 0 {
		return u, errs
	}
	return u, nil
}

func (m *Manager) compileLevel(ctx context.Context, level []*node) ([]*semantic.Unit, error) {
	units := make([]*semantic.Unit, len(level))
	g, ctx := errgroup.WithContext(ctx)
	if m.Parallelism > 0 {
		g.SetLimit(m.Parallelism)
	}
	for k, n := range level {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			u, err := semantic.Analyze(n.ast, m.env)
			if u == nil {
				return err
			}
			m.Metrics.observe(u, time.Since(start))
			m.logger.Debug("compiled library",
				zap.String("path", n.path),
				zap.Int("definitions", len(u.Definitions)),
				zap.Int("errors", len(u.Errors())),
			)
			units[k] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}

type node struct {
	path     string
	ast      *parser.AST
	includes []string
}

// graph is the include graph of the libraries not yet compiled, in the
// order they were discovered.
type graph struct {
	nodes map[string]*node
	order []*node
}

// load reads the library p and, transitively, the libraries it includes.
// An include that the source cannot find is left for the semantic pass to
// report at the include statement.
func (m *Manager) load(key string, p *parser.AST) (*graph, error) {
	root := &node{path: key, ast: p}
	g := &graph{nodes: map[string]*node{key: root}, order: []*node{root}}
	for queue := []*node{root}; len(queue) > 0; queue = queue[1:] {
		n := queue[0]
		for _, stmt := range n.ast.Parsed().Statements {
			inc, ok := stmt.(*ast.IncludeDef)
			if !ok {
				continue
			}
			path := inc.Path.Name
			n.includes = append(n.includes, path)
			if _, ok := g.nodes[path]; ok || m.compiled(path) || m.source == nil {
				continue
			}
			child, err := m.source.ReadLibrary(path, inc.Version)
			if errors.Is(err, ErrNotFound) {
				m.logger.Debug("included library not found", zap.String("path", path), zap.String("version", inc.Version))
				continue
			}
			if err != nil {
				return nil, err
			}
			c := &node{path: path, ast: child}
			g.nodes[path] = c
			g.order = append(g.order, c)
			queue = append(queue, c)
		}
	}
	return g, nil
}

func (m *Manager) compiled(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.units[path]
	return ok
}

// cycle returns the first include cycle found by a depth-first search, or
// nil if the graph is acyclic.
func (g *graph) cycle() []string {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int)
	var stack []string
	var visit func(n *node) []string
	visit = func(n *node) []string {
		state[n.path] = active
		stack = append(stack, n.path)
		for _, path := range n.includes {
			next, ok := g.nodes[path]
			if !ok {
				continue
			}
			switch state[path] {
			case active:
				for k, p := range stack {
					if p == path {
						return append(append([]string(nil), stack[k:]...), path)
					}
				}
			case unvisited:
				if c := visit(next); c != nil {
					return c
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[n.path] = done
		return nil
	}
	for _, n := range g.order {
		if state[n.path] == unvisited {
			if c := visit(n); c != nil {
				return c
			}
		}
	}
	return nil
}

// levels groups an acyclic graph by depth so that each library appears in
// a later level than every library it includes.
func (g *graph) levels() [][]*node {
	depth := make(map[string]int)
	var measure func(n *node) int
	measure = func(n *node) int {
		if d, ok := depth[n.path]; ok {
			return d
		}
		d := 0
		for _, path := range n.includes {
			if next, ok := g.nodes[path]; ok {
				d = max(d, measure(next)+1)
			}
		}
		depth[n.path] = d
		return d
	}
	var levels [][]*node
	for _, n := range g.order {
		d := measure(n)
		for len(levels) <= d {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], n)
	}
	return levels
}
