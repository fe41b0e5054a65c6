// Package walker implements the directory traversal that yields a
// deterministic pre-order sequence of (entry, effective config) pairs for
// the compiler, applying __ignore__ pattern matching, __config__.toml/
// *.__config__.toml consumption, and symlink and non-UTF-8 name policies
// along the way.
package walker

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFileName is the recognized name of a per-directory ignore file.
const IgnoreFileName = "__ignore__"

// Ignorer decides whether a path should be excluded from the walk.
type Ignorer interface {
	IsIgnored(path string, isDir bool) bool
}

// IgnoreMatcher loads every __ignore__ file under a root directory and, for
// a given path, applies only the patterns from its *nearest* ancestor
// directory that has one -- patterns in a deeper directory take full
// precedence over any shallower directory's __ignore__, rather than
// accumulating across the ancestor chain the way .gitignore does.
type IgnoreMatcher struct {
	root     string
	matchers map[string]*gitignore.GitIgnore
	// dirs holds matchers' keys sorted longest-first so the first prefix
	// match found is always the nearest ancestor.
	dirs []string
}

// NewIgnoreMatcher walks rootDir, compiling every __ignore__ file it finds.
// A tree with no __ignore__ files produces a matcher whose IsIgnored always
// returns false.
func NewIgnoreMatcher(rootDir string) (*IgnoreMatcher, error) {
	m := &IgnoreMatcher{
		root:     filepath.Clean(rootDir),
		matchers: make(map[string]*gitignore.GitIgnore),
	}

	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() != IgnoreFileName {
			return nil
		}

		dirPath := filepath.Dir(path)
		relDir, err := filepath.Rel(m.root, dirPath)
		if err != nil {
			return nil
		}
		relDir = filepath.ToSlash(relDir)
		if relDir == "." {
			relDir = ""
		}

		compiled, err := gitignore.CompileIgnoreFile(path)
		if err != nil {
			return fmt.Errorf("compiling %s: %w", path, err)
		}
		m.matchers[relDir] = compiled
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering %s files in %s: %w", IgnoreFileName, rootDir, err)
	}

	m.dirs = make([]string, 0, len(m.matchers))
	for dir := range m.matchers {
		m.dirs = append(m.dirs, dir)
	}
	// Longest path first so the nearest ancestor is matched before any
	// shallower one.
	sort.Slice(m.dirs, func(i, j int) bool { return len(m.dirs[i]) > len(m.dirs[j]) })

	return m, nil
}

// IsIgnored reports whether path (slash-separated, relative to root) is
// excluded by the nearest ancestor __ignore__ file. isDir marks whether
// path names a directory so trailing-slash-only patterns apply correctly.
func (m *IgnoreMatcher) IsIgnored(path string, isDir bool) bool {
	path = strings.TrimPrefix(filepath.ToSlash(path), "./")
	if path == "" || path == "." {
		return false
	}

	matchPath := path
	if isDir && !strings.HasSuffix(matchPath, "/") {
		matchPath += "/"
	}

	for _, dir := range m.dirs {
		if dir != "" {
			prefix := dir + "/"
			if !strings.HasPrefix(path, prefix) {
				continue
			}
		}

		relPath := matchPath
		if dir != "" {
			relPath = strings.TrimPrefix(matchPath, dir+"/")
		}

		return m.matchers[dir].MatchesPath(relPath)
	}

	return false
}

var _ Ignorer = (*IgnoreMatcher)(nil)
