package typefinder

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/monochromegane/go-gitignore"
)

// ignoreRules is the parsed .gitignore of a module root. Host packages living
// in an ignored directory are not reported as host libraries. Nested
// .gitignore files are not read.
type ignoreRules struct {
	root    string
	matcher gitignore.IgnoreMatcher
}

// loadIgnoreRules parses .gitignore from the module root. A missing or
// unreadable file yields nil.
func loadIgnoreRules(root string) *ignoreRules {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	matcher, err := gitignore.NewGitIgnore(path, root)
	if err != nil {
		return nil
	}
	return &ignoreRules{root: root, matcher: matcher}
}

// Ignored reports whether relDir, relative to the module root, is ignored.
// A directory below an ignored directory is ignored too, as git cannot
// re-include files from an excluded parent.
func (r *ignoreRules) Ignored(relDir string) bool {
	if r == nil {
		return false
	}
	relDir = filepath.ToSlash(filepath.Clean(relDir))
	if relDir == "." || relDir == "" {
		return false
	}

	parts := strings.Split(relDir, "/")
	for i := range parts {
		dir := filepath.Join(r.root, filepath.FromSlash(strings.Join(parts[:i+1], "/")))
		if r.matcher.Match(dir, true) {
			return true
		}
	}
	return false
}
