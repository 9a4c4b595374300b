package typefinder

import (
	"fmt"
	"strings"
)

// ModuleLoadError reports a module name that could not be resolved or loaded.
type ModuleLoadError struct {
	Name string
	Err  error
}

func (e *ModuleLoadError) Error() string {
	return fmt.Sprintf("load module %q: %v", e.Name, e.Err)
}

func (e *ModuleLoadError) Unwrap() error { return e.Err }

// TypeEnumerationError reports a module whose types could only be partially
// enumerated. The message is the underlying messages joined by newline.
type TypeEnumerationError struct {
	Module string
	Causes []error
}

func (e *TypeEnumerationError) Error() string {
	msgs := make([]string, 0, len(e.Causes))
	for _, c := range e.Causes {
		msgs = append(msgs, c.Error())
	}
	return strings.Join(msgs, "\n")
}

func (e *TypeEnumerationError) Unwrap() []error { return e.Causes }
