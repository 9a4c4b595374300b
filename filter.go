package typefinder

import (
	"fmt"
	"regexp"
)

// NameFilter decides which modules are scanned. A name passes when it does
// not match the skip pattern and does match the restrict pattern. Both
// patterns are case-insensitive; an empty pattern is not applied.
type NameFilter struct {
	skip     *regexp.Regexp
	restrict *regexp.Regexp
}

// NewNameFilter compiles the skip/restrict pair.
func NewNameFilter(skipPattern, restrictPattern string) (*NameFilter, error) {
	f := &NameFilter{}
	var err error
	if skipPattern != "" {
		if f.skip, err = regexp.Compile("(?i)" + skipPattern); err != nil {
			return nil, fmt.Errorf("compile skip pattern %q: %w", skipPattern, err)
		}
	}
	if restrictPattern != "" {
		if f.restrict, err = regexp.Compile("(?i)" + restrictPattern); err != nil {
			return nil, fmt.Errorf("compile restrict pattern %q: %w", restrictPattern, err)
		}
	}
	return f, nil
}

// Matches reports whether the module name should be scanned.
func (f *NameFilter) Matches(name string) bool {
	if f.skip != nil && f.skip.MatchString(name) {
		return false
	}
	return f.restrict == nil || f.restrict.MatchString(name)
}
