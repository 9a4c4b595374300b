package typefinder

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"io"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/tools/go/packages"
	"ocm.software/open-component-model/bindings/go/dag"
)

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo | packages.NeedImports |
	packages.NeedDeps | packages.NeedModule

// WorkspaceConfig configures a Workspace.
type WorkspaceConfig struct {
	Dir      string   // directory of the host module
	Patterns []string // host root patterns, default ./...
	Logger   *log.Logger
}

// Workspace is the host registry and module loader backed by go/packages.
// The host is a Go module; its libraries are the packages matched by the root
// patterns and everything they import. Packages loaded by name are loaded
// together with the host packages so that all types share one universe.
type Workspace struct {
	dir      string
	patterns []string
	logger   *log.Logger

	// extras are names loaded alongside the root patterns.
	extras   []string
	extraSet map[string]bool

	loaded  bool
	fset    *token.FileSet
	index   map[string]*packages.Package // every package reached, by import path
	host    map[string]bool              // import paths reachable from the root patterns
	names   map[string]string            // local pattern -> import path
	modules map[string]*Module
	ignore  *ignoreRules
	modRoot string
}

var (
	_ HostRegistry = (*Workspace)(nil)
	_ Loader       = (*Workspace)(nil)
	_ Preparer     = (*Workspace)(nil)
)

// NewWorkspace creates a workspace. Nothing is loaded until first use.
func NewWorkspace(cfg WorkspaceConfig) *Workspace {
	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{Prefix: "workspace"})
	}
	return &Workspace{
		dir:      cfg.Dir,
		patterns: patterns,
		logger:   logger,
		extraSet: make(map[string]bool),
	}
}

func (w *Workspace) config(ctx context.Context, mode packages.LoadMode, fset *token.FileSet) *packages.Config {
	return &packages.Config{
		Mode:    mode,
		Context: ctx,
		Dir:     w.dir,
		Fset:    fset,
	}
}

func (w *Workspace) ensureLoaded(ctx context.Context) error {
	if w.loaded {
		return nil
	}
	return w.reload(ctx)
}

// reload loads the root patterns and the extra names in a single
// packages.Load and replaces the index. Modules handed out before belong to
// the previous universe.
func (w *Workspace) reload(ctx context.Context) error {
	fset := token.NewFileSet()
	pkgs, err := packages.Load(w.config(ctx, loadMode, fset), append(slices.Clone(w.patterns), w.extras...)...)
	if err != nil {
		return fmt.Errorf("load packages: %w", err)
	}

	roots := pkgs
	if len(w.extras) > 0 {
		if roots, err = w.hostRoots(ctx, pkgs); err != nil {
			return err
		}
	}

	index := make(map[string]*packages.Package)
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		if _, ok := index[p.PkgPath]; !ok {
			index[p.PkgPath] = p
		}
	})
	host := make(map[string]bool)
	packages.Visit(roots, nil, func(p *packages.Package) {
		host[p.PkgPath] = true
	})

	w.fset = fset
	w.index = index
	w.host = host
	w.names = make(map[string]string)
	w.modules = make(map[string]*Module)
	if root, err := FindModuleRoot(w.dirOrCwd()); err == nil {
		w.modRoot = root
		w.ignore = loadIgnoreRules(root)
	}

	w.logger.Debug("loaded packages", "patterns", w.patterns, "extra", w.extras, "packages", len(index), "host", len(host))
	w.loaded = true
	return nil
}

// hostRoots picks the packages matched by the root patterns out of a load
// that also contains extra names.
func (w *Workspace) hostRoots(ctx context.Context, pkgs []*packages.Package) ([]*packages.Package, error) {
	matched, err := packages.Load(w.config(ctx, packages.NeedName, nil), w.patterns...)
	if err != nil {
		return nil, fmt.Errorf("list host packages: %w", err)
	}
	paths := make(map[string]bool, len(matched))
	for _, p := range matched {
		paths[p.PkgPath] = true
	}
	roots := make([]*packages.Package, 0, len(matched))
	for _, p := range pkgs {
		if paths[p.PkgPath] {
			roots = append(roots, p)
		}
	}
	return roots, nil
}

func (w *Workspace) dirOrCwd() string {
	if w.dir == "" {
		return "."
	}
	return w.dir
}

// Prepare loads names together with the host packages. Names the workspace
// already resolves are not reloaded.
func (w *Workspace) Prepare(ctx context.Context, names []string) error {
	var pending []string
	for _, name := range names {
		if w.extraSet[name] {
			continue
		}
		if w.loaded {
			if _, ok := w.lookup(name); ok {
				continue
			}
		}
		pending = append(pending, name)
	}
	if len(pending) == 0 {
		return w.ensureLoaded(ctx)
	}

	prev := len(w.extras)
	for _, name := range pending {
		w.extras = append(w.extras, name)
		w.extraSet[name] = true
	}
	w.logger.Debug("loading configured packages with host", "names", pending)
	if err := w.reload(ctx); err != nil {
		w.extras = w.extras[:prev]
		for _, name := range pending {
			delete(w.extraSet, name)
		}
		return err
	}
	return nil
}

// lookup finds an indexed package by import path or by a local pattern such
// as ./plugins/mail.
func (w *Workspace) lookup(name string) (*packages.Package, bool) {
	if p, ok := w.index[name]; ok {
		return p, true
	}
	if path, ok := w.names[name]; ok {
		p, ok := w.index[path]
		return p, ok
	}
	if !isLocalPattern(name) {
		return nil, false
	}

	want := name
	if !filepath.IsAbs(want) {
		want = filepath.Join(w.dirOrCwd(), name)
	}
	want, err := filepath.Abs(want)
	if err != nil {
		return nil, false
	}
	for path, p := range w.index {
		if len(p.GoFiles) > 0 && filepath.Dir(p.GoFiles[0]) == want {
			w.names[name] = path
			return p, true
		}
	}
	return nil, false
}

func isLocalPattern(name string) bool {
	return name == "." || name == ".." || strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../") || filepath.IsAbs(name)
}

// Libraries returns the host's packages in dependency-first order.
func (w *Workspace) Libraries(ctx context.Context) ([]Library, error) {
	if err := w.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	g := dag.NewDirectedAcyclicGraph[string]()
	for path := range w.host {
		if err := g.AddVertex(path); err != nil {
			return nil, fmt.Errorf("add %s to import graph: %w", path, err)
		}
	}
	deps := make(map[string][]string, len(w.host))
	for path := range w.host {
		for _, imp := range w.index[path].Imports {
			impPath := imp.PkgPath
			if impPath == path || !g.Contains(impPath) {
				continue
			}
			if err := g.AddEdge(path, impPath); err != nil {
				return nil, fmt.Errorf("import graph %s -> %s: %w", path, impPath, err)
			}
			deps[path] = append(deps[path], impPath)
		}
	}

	order, err := g.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("sort import graph: %w", err)
	}

	libs := make([]Library, 0, len(order))
	for _, path := range order {
		if w.ignored(w.index[path]) {
			w.logger.Debug("skipping gitignored package", "path", path)
			continue
		}
		d := deps[path]
		sort.Strings(d)
		libs = append(libs, Library{Name: path, Dependencies: d})
	}
	return libs, nil
}

// ignored reports whether a main-module package lives in a gitignored dir.
func (w *Workspace) ignored(p *packages.Package) bool {
	if p == nil || w.ignore == nil || p.Module == nil || !p.Module.Main || len(p.GoFiles) == 0 {
		return false
	}
	rel, err := filepath.Rel(w.modRoot, filepath.Dir(p.GoFiles[0]))
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return w.ignore.Ignored(rel)
}

// Load resolves an import path or local package pattern to a module. A name
// the workspace has not seen is loaded together with the host packages, which
// replaces the index.
func (w *Workspace) Load(ctx context.Context, name string) (*Module, error) {
	if err := w.ensureLoaded(ctx); err != nil {
		return nil, &ModuleLoadError{Name: name, Err: err}
	}
	if m, ok := w.modules[name]; ok {
		return m, nil
	}

	p, ok := w.lookup(name)
	if !ok && !w.extraSet[name] {
		if err := w.Prepare(ctx, []string{name}); err != nil {
			return nil, &ModuleLoadError{Name: name, Err: err}
		}
		p, ok = w.lookup(name)
	}
	if !ok {
		return nil, &ModuleLoadError{Name: name, Err: errors.New("no single package matched")}
	}
	if unresolved(p) {
		return nil, &ModuleLoadError{Name: name, Err: packageErrors(p)}
	}

	m, ok := w.modules[p.PkgPath]
	if !ok {
		m = moduleFromPackage(p)
		w.modules[p.PkgPath] = m
	}
	w.modules[name] = m
	return m, nil
}

// unresolved reports a package go list could not find.
func unresolved(p *packages.Package) bool {
	return len(p.Errors) > 0 && len(p.GoFiles) == 0 && len(p.CompiledGoFiles) == 0
}

func packageErrors(p *packages.Package) error {
	errs := make([]error, 0, len(p.Errors))
	for _, e := range p.Errors {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

func moduleFromPackage(p *packages.Package) *Module {
	var errs []error
	for _, e := range p.Errors {
		errs = append(errs, e)
	}
	m := NewModule(p.Types, p.TypesInfo, p.Fset, p.Syntax, errs...)
	m.Path = p.PkgPath
	m.Name = p.Name
	if len(p.GoFiles) > 0 {
		m.Dir = filepath.Dir(p.GoFiles[0])
	}
	return m
}
