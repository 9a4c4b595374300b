package typefinder

import "context"

// Library is a package known to the host, with the import paths it depends on.
type Library struct {
	Name         string
	Dependencies []string
}

// HostRegistry enumerates the libraries of the host's dependency graph.
type HostRegistry interface {
	Libraries(ctx context.Context) ([]Library, error)
}

// Loader resolves a module name to a loaded module. Implementations should
// return a *ModuleLoadError when the name does not resolve.
type Loader interface {
	Load(ctx context.Context, name string) (*Module, error)
}

// Preparer is implemented by loaders that resolve module names in one shared
// type universe with the host libraries. The engine prepares the configured
// module names before resolving modules or target types, so that types from
// configured modules compare identical to host types.
type Preparer interface {
	Prepare(ctx context.Context, names []string) error
}
