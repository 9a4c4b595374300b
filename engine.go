package typefinder

import (
	"context"
	"errors"
	"fmt"
	"go/types"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Engine resolves candidate modules and matches their types against a target.
type Engine struct {
	host   HostRegistry
	loader Loader
	filter *NameFilter
	opts   Options
	logger *log.Logger

	moduleNames []string
	version     uint64
	cache       *lru.Cache[cacheKey, []*TypeDescriptor]
}

var _ ResolvingFinder = (*Engine)(nil)

type cacheKey struct {
	target       string
	onlyConcrete bool
	version      uint64
}

// New creates an Engine. host may be nil when opts.LoadFromHost is false.
func New(host HostRegistry, loader Loader, opts Options) (*Engine, error) {
	if loader == nil {
		return nil, errors.New("typefinder: loader is required")
	}
	if opts.LoadFromHost && host == nil {
		return nil, errors.New("typefinder: host registry is required when loading from host")
	}
	filter, err := NewNameFilter(opts.SkipPattern, opts.RestrictPattern)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		host:        host,
		loader:      loader,
		filter:      filter,
		opts:        opts,
		logger:      opts.logger(),
		moduleNames: append([]string(nil), opts.ModuleNames...),
	}
	if opts.CacheSize > 0 {
		e.cache, err = lru.New[cacheKey, []*TypeDescriptor](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create result cache: %w", err)
		}
	}
	return e, nil
}

// ModuleNames returns the configured module names.
func (e *Engine) ModuleNames() []string {
	return append([]string(nil), e.moduleNames...)
}

// SetModuleNames replaces the configured module names. Must not be called
// while a discovery call is in flight.
func (e *Engine) SetModuleNames(names ...string) {
	e.moduleNames = append([]string(nil), names...)
	e.invalidate()
}

// AddModuleNames appends to the configured module names.
func (e *Engine) AddModuleNames(names ...string) {
	e.moduleNames = append(e.moduleNames, names...)
	e.invalidate()
}

func (e *Engine) invalidate() {
	e.version++
	if e.cache != nil {
		e.cache.Purge()
	}
}

// Modules resolves the candidate modules: host libraries first, then the
// configured module names, each admitted once.
func (e *Engine) Modules(ctx context.Context) ([]*Module, error) {
	if err := e.prepare(ctx); err != nil {
		return nil, err
	}

	added := make(map[string]bool)
	var modules []*Module

	if e.opts.LoadFromHost {
		libs, err := e.host.Libraries(ctx)
		if err != nil {
			return nil, fmt.Errorf("enumerate host libraries: %w", err)
		}
		for _, lib := range libs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !e.filter.Matches(lib.Name) {
				continue
			}
			if added[lib.Name] {
				continue
			}
			m, err := e.loader.Load(ctx, lib.Name)
			if err != nil {
				return nil, asModuleLoadError(lib.Name, err)
			}
			modules = append(modules, m)
			added[lib.Name] = true
			added[m.Path] = true
		}
	}

	for _, name := range e.moduleNames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := e.loader.Load(ctx, name)
		if err != nil {
			return nil, asModuleLoadError(name, err)
		}
		if !e.filter.Matches(m.Path) {
			e.logger.Debug("configured module filtered out", "name", name, "path", m.Path)
			continue
		}
		if added[m.Path] {
			continue
		}
		modules = append(modules, m)
		added[m.Path] = true
	}

	e.logger.Debug("resolved modules", "count", len(modules))
	return modules, nil
}

// FindClassesOfType returns every type in the resolved modules assignable to
// target. Any enumeration failure aborts the whole call.
func (e *Engine) FindClassesOfType(ctx context.Context, target types.Type, opts ...FindOption) ([]*TypeDescriptor, error) {
	cfg := newFindConfig(opts)
	tn, err := targetTypeName(target)
	if err != nil {
		return nil, err
	}

	key := cacheKey{target: types.TypeString(tn.Type(), nil), onlyConcrete: cfg.onlyConcrete, version: e.version}
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			return append([]*TypeDescriptor(nil), cached...), nil
		}
	}

	if err := e.prepare(ctx); err != nil {
		return nil, err
	}
	tn = e.current(ctx, tn)

	modules, err := e.Modules(ctx)
	if err != nil {
		return nil, err
	}
	result, err := e.findClassesOfType(ctx, tn, modules, cfg.onlyConcrete)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.Add(key, append([]*TypeDescriptor(nil), result...))
	}
	return result, nil
}

func (e *Engine) findClassesOfType(ctx context.Context, target *types.TypeName, modules []*Module, onlyConcrete bool) ([]*TypeDescriptor, error) {
	named, _ := target.Type().(*types.Named)
	openGeneric := named != nil && named.TypeParams().Len() > 0

	var result []*TypeDescriptor
	for _, m := range modules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		defined, err := m.DefinedTypes()
		if err != nil {
			e.logger.Debug("type enumeration failed", "module", m.Path, "err", err)
			return nil, err
		}
		for _, t := range defined {
			subject := t
			if e.opts.ReportDeclaringType {
				subject = t.DeclaringOrSelf()
			}
			isMatch := assignable(target, t) || (openGeneric && implementsOpenGeneric(subject, named))
			if !isMatch || t.IsInterface() {
				continue
			}
			if onlyConcrete && !t.IsConcrete() {
				continue
			}
			result = append(result, e.report(t))
		}
	}
	return result, nil
}

func (e *Engine) report(t *TypeDescriptor) *TypeDescriptor {
	if e.opts.ReportDeclaringType {
		return t.DeclaringOrSelf()
	}
	return t
}

// ResolveType loads the package of a qualified name and returns the type.
func (e *Engine) ResolveType(ctx context.Context, qualified string) (types.Type, error) {
	pkgPath, name, err := splitQualified(qualified)
	if err != nil {
		return nil, err
	}
	if err := e.prepare(ctx); err != nil {
		return nil, err
	}
	m, err := e.loader.Load(ctx, pkgPath)
	if err != nil {
		return nil, asModuleLoadError(pkgPath, err)
	}
	tn := m.Lookup(name)
	if tn == nil {
		return nil, fmt.Errorf("type %s not found in %s", name, m.Path)
	}
	return tn.Type(), nil
}

// prepare hands the configured module names to a Preparer loader.
func (e *Engine) prepare(ctx context.Context) error {
	p, ok := e.loader.(Preparer)
	if !ok {
		return nil
	}
	if err := p.Prepare(ctx, e.moduleNames); err != nil {
		return fmt.Errorf("prepare modules: %w", err)
	}
	return nil
}

// current re-resolves a package-level target through a Preparer loader, so a
// target resolved before the module list changed still belongs to the
// loader's current type universe. Other targets are returned unchanged.
func (e *Engine) current(ctx context.Context, tn *types.TypeName) *types.TypeName {
	if _, ok := e.loader.(Preparer); !ok {
		return tn
	}
	if tn.Pkg() == nil || tn.Parent() != tn.Pkg().Scope() {
		return tn
	}
	m, err := e.loader.Load(ctx, tn.Pkg().Path())
	if err != nil {
		return tn
	}
	if cur := m.Lookup(tn.Name()); cur != nil {
		return cur
	}
	return tn
}

func asModuleLoadError(name string, err error) error {
	var loadErr *ModuleLoadError
	if errors.As(err, &loadErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &ModuleLoadError{Name: name, Err: err}
}
