package typefinder

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

// IService and MyFirstClass mirror the declarations of the services fixture
// so that FindClassesOf can resolve them through reflection.
type IService interface {
	Serve() string
}

type MyFirstClass struct {
	ID int
}

var servicesPath = reflect.TypeFor[IService]().PkgPath()

var servicesSrc = `package typefinder

type IService interface {
	Serve() string
}

type MyFirstClass struct {
	ID int
}

func (c MyFirstClass) Describe() string { return "first" }

type Repository[T any] interface {
	Get(id string) (T, error)
}
`

const implPath = "example.com/app/impl"

var implSrc = fmt.Sprintf(`package impl

import services %q

type MailService struct{}

func (MailService) Serve() string { return "mail" }

type QueueService struct{ name string }

func (q *QueueService) Serve() string { return q.name }

type AuditService struct {
	MailService
}

//typefinder:abstract
type baseService struct{}

func (baseService) Serve() string { return "base" }

type ExtendedService interface {
	services.IService
	Extra()
}

type ServeFunc func() string

func (f ServeFunc) Serve() string { return f() }

type MySecondClass struct {
	services.MyFirstClass
}

//typefinder:abstract
type AbstractFirst struct {
	*services.MyFirstClass
}

type Unrelated struct{}

//typefinder:ignore
type HiddenService struct{}

func (HiddenService) Serve() string { return "hidden" }
`, servicesPath)

const genericPath = "example.com/app/generic"

var genericSrc = fmt.Sprintf(`package generic

import _ %q

type MemoryRepo[T any] struct{ items map[string]T }

func (r *MemoryRepo[T]) Get(id string) (T, error) { return r.items[id], nil }

type User struct{}

type UserRepo struct{}

func (UserRepo) Get(id string) (User, error) { return User{}, nil }

type PairRepo[K comparable, V any] struct{}

func (PairRepo[K, V]) Get(id string) (V, error) {
	var v V
	return v, nil
}
`, servicesPath)

const localPath = "example.com/app/local"

var localSrc = fmt.Sprintf(`package local

import services %q

type Factory struct{}

func (f *Factory) Build() services.IService {
	type impl struct{ services.IService }
	return impl{}
}

func helper() services.IService {
	type plain struct{ services.IService }
	return plain{}
}
`, servicesPath)

// fixture type-checks source snippets into modules and serves them as a
// Loader. It also implements types.Importer for cross-fixture imports.
type fixture struct {
	fset    *token.FileSet
	pkgs    map[string]*types.Package
	modules map[string]*Module
	loads   map[string]int
}

func newFixture() *fixture {
	return &fixture{
		fset:    token.NewFileSet(),
		pkgs:    make(map[string]*types.Package),
		modules: make(map[string]*Module),
		loads:   make(map[string]int),
	}
}

// standardFixture holds the services, impl, generic and local packages.
func standardFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture()
	f.add(t, servicesPath, servicesSrc)
	f.add(t, implPath, implSrc)
	f.add(t, genericPath, genericSrc)
	f.add(t, localPath, localSrc)
	return f
}

func (f *fixture) Import(path string) (*types.Package, error) {
	if pkg, ok := f.pkgs[path]; ok {
		return pkg, nil
	}
	return nil, fmt.Errorf("fixture package %q not found", path)
}

func (f *fixture) add(t *testing.T, path string, srcs ...string) *Module {
	t.Helper()
	var files []*ast.File
	for i, src := range srcs {
		file, err := parser.ParseFile(f.fset, fmt.Sprintf("%s/file%d.go", path, i), src, parser.ParseComments)
		require.NoError(t, err)
		files = append(files, file)
	}
	info := &types.Info{
		Defs:  make(map[*ast.Ident]types.Object),
		Uses:  make(map[*ast.Ident]types.Object),
		Types: make(map[ast.Expr]types.TypeAndValue),
	}
	conf := types.Config{Importer: f}
	pkg, err := conf.Check(path, f.fset, files, info)
	require.NoError(t, err)

	f.pkgs[path] = pkg
	m := NewModule(pkg, info, f.fset, files)
	f.modules[path] = m
	return m
}

func (f *fixture) Load(_ context.Context, name string) (*Module, error) {
	f.loads[name]++
	m, ok := f.modules[name]
	if !ok {
		return nil, &ModuleLoadError{Name: name, Err: errors.New("no such package")}
	}
	return m, nil
}

func (f *fixture) totalLoads() int {
	n := 0
	for _, c := range f.loads {
		n += c
	}
	return n
}

// staticHost reports a fixed list of libraries.
type staticHost struct {
	libs []Library
	err  error
}

func (h staticHost) Libraries(context.Context) ([]Library, error) {
	return h.libs, h.err
}

func hostOf(names ...string) staticHost {
	libs := make([]Library, len(names))
	for i, n := range names {
		libs[i] = Library{Name: n}
	}
	return staticHost{libs: libs}
}

func names(ds []*TypeDescriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name
	}
	return out
}

func lookupType(t *testing.T, f *fixture, path, name string) types.Type {
	t.Helper()
	tn := f.modules[path].Lookup(name)
	require.NotNil(t, tn, "%s.%s", path, name)
	return tn.Type()
}
