package typefinder

import (
	"context"
	"fmt"
	"go/types"
	"reflect"
	"strings"
)

// Finder discovers the types assignable to a target across a set of modules.
type Finder interface {
	// FindClassesOfType returns every type assignable to target. By default
	// only concrete structs are returned; interfaces never are.
	FindClassesOfType(ctx context.Context, target types.Type, opts ...FindOption) ([]*TypeDescriptor, error)
	// Modules returns the candidate modules for the current configuration.
	Modules(ctx context.Context) ([]*Module, error)
}

// TypeResolver resolves a qualified type name such as "example.com/app/svc.Service".
type TypeResolver interface {
	ResolveType(ctx context.Context, qualified string) (types.Type, error)
}

// ResolvingFinder is a Finder that can also resolve target names.
type ResolvingFinder interface {
	Finder
	TypeResolver
}

type findConfig struct {
	onlyConcrete bool
}

// FindOption configures a single FindClassesOfType call.
type FindOption func(*findConfig)

// IncludeAbstract also returns abstract and non-struct types.
func IncludeAbstract() FindOption {
	return func(c *findConfig) { c.onlyConcrete = false }
}

func newFindConfig(opts []FindOption) findConfig {
	cfg := findConfig{onlyConcrete: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// FindClassesOf is FindClassesOfType with the target fixed at compile time.
// An instantiated generic T resolves to its generic definition.
func FindClassesOf[T any](ctx context.Context, f ResolvingFinder, opts ...FindOption) ([]*TypeDescriptor, error) {
	qualified, err := qualifiedName(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	target, err := f.ResolveType(ctx, qualified)
	if err != nil {
		return nil, err
	}
	return f.FindClassesOfType(ctx, target, opts...)
}

func qualifiedName(rt reflect.Type) (string, error) {
	for rt.Kind() == reflect.Pointer && rt.Name() == "" {
		rt = rt.Elem()
	}
	name := rt.Name()
	if name == "" || rt.PkgPath() == "" {
		return "", fmt.Errorf("%v is not a named type", rt)
	}
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return rt.PkgPath() + "." + name, nil
}

// splitQualified splits "import/path.Name" into its package path and name.
// Type arguments are dropped.
func splitQualified(qualified string) (pkgPath, name string, err error) {
	if i := strings.IndexByte(qualified, '['); i >= 0 {
		qualified = qualified[:i]
	}
	slash := strings.LastIndex(qualified, "/")
	dot := strings.LastIndex(qualified, ".")
	if dot <= slash || dot == len(qualified)-1 {
		return "", "", fmt.Errorf("%q is not a qualified type name (want import/path.Type)", qualified)
	}
	return qualified[:dot], qualified[dot+1:], nil
}
