// Package registry holds the factories registered for each capability type.
//
// Registration normally happens in init functions written by
// "typefinder generate", so that discovered implementations are available
// without hand-written wiring:
//
//	func init() {
//		registry.Register[svc.Service]("example.com/app/impl.Mailer", func() svc.Service { return &impl.Mailer{} })
//	}
//
// Consumers then call Resolve[svc.Service]() to obtain one instance per
// registered implementation.
package registry

import (
	"fmt"
	"reflect"
	"sync"
)

// Entry is a named factory for capability C.
type Entry[C any] struct {
	Name    string
	Factory func() C
}

type entry struct {
	name    string
	factory any
}

var (
	mu      sync.RWMutex
	entries = make(map[reflect.Type][]entry)
)

// Register adds a factory for capability C. It panics if name is empty,
// factory is nil, or name is already registered for C.
func Register[C any](name string, factory func() C) {
	if name == "" {
		panic("registry: Register with empty name")
	}
	if factory == nil {
		panic("registry: Register factory is nil for " + name)
	}

	key := reflect.TypeFor[C]()
	mu.Lock()
	defer mu.Unlock()
	for _, e := range entries[key] {
		if e.name == name {
			panic(fmt.Sprintf("registry: Register called twice for %s as %v", name, key))
		}
	}
	entries[key] = append(entries[key], entry{name: name, factory: factory})
}

// Factories returns the factories registered for C in registration order.
func Factories[C any]() []Entry[C] {
	mu.RLock()
	defer mu.RUnlock()

	registered := entries[reflect.TypeFor[C]()]
	out := make([]Entry[C], 0, len(registered))
	for _, e := range registered {
		out = append(out, Entry[C]{Name: e.name, Factory: e.factory.(func() C)})
	}
	return out
}

// Names returns the registered names for C.
func Names[C any]() []string {
	factories := Factories[C]()
	names := make([]string, len(factories))
	for i, f := range factories {
		names[i] = f.Name
	}
	return names
}

// Resolve calls every factory registered for C.
func Resolve[C any]() []C {
	factories := Factories[C]()
	out := make([]C, 0, len(factories))
	for _, f := range factories {
		out = append(out, f.Factory())
	}
	return out
}

// Reset removes all registrations. Intended for tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	entries = make(map[reflect.Type][]entry)
}
