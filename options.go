package typefinder

import (
	"io"

	"github.com/charmbracelet/log"
)

// DefaultSkipPattern excludes the standard library, the Go runtime and test
// framework packages. Anchored at the start of the import path.
const DefaultSkipPattern = `^(archive|bufio|builtin|bytes|cmp|compress|container|context|crypto|database|debug|embed|encoding|errors|expvar|flag|fmt|go|hash|html|image|index|internal|io|iter|log|maps|math|mime|net|os|path|plugin|reflect|regexp|runtime|slices|sort|strconv|strings|structs|sync|syscall|testing|text|time|unicode|unique|unsafe|vendor|weak|C)(/|$)|^golang\.org/x/|^github\.com/stretchr/testify(/|$)`

// DefaultRestrictPattern allows every module name.
const DefaultRestrictPattern = `.*`

// Options configures an Engine.
type Options struct {
	SkipPattern     string // modules to exclude by name, regex
	RestrictPattern string // modules to allow by name, regex

	// LoadFromHost also scans the libraries reported by the HostRegistry.
	LoadFromHost bool

	// ModuleNames are loaded in addition to the host libraries.
	ModuleNames []string

	// ReportDeclaringType reports the enclosing type of a match instead of
	// the match itself, and matches open generic targets against it. Types
	// without an enclosing type are reported as is. On by default.
	ReportDeclaringType bool

	// CacheSize enables result memoization when > 0.
	CacheSize int

	Logger *log.Logger
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		SkipPattern:         DefaultSkipPattern,
		RestrictPattern:     DefaultRestrictPattern,
		LoadFromHost:        true,
		ReportDeclaringType: true,
	}
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.NewWithOptions(io.Discard, log.Options{Prefix: "typefinder"})
}
