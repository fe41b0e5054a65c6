package walker

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/smap/smap/internal/assetconfig"
	"github.com/smap/smap/internal/smaperr"
)

// Entry is one pre-order step of a walk: a directory or file path paired
// with its resolved effective config. Err is set when this specific entry
// could not be processed (a non-UTF-8 name, or a config file for it that
// fails to parse); the walk continues past it.
type Entry struct {
	// Path is slash-separated and relative to the walk root.
	Path   string
	IsDir  bool
	Config assetconfig.EffectiveConfig
	Err    error
}

// Walker produces a single, finite, pre-order sequence of Entry values for
// a directory tree. A Walker is good for exactly one walk; start a new one
// to walk again.
type Walker struct {
	root                    string
	ignorer                 Ignorer
	logger                  *slog.Logger
	defaultCompressionLevel int
}

// New constructs a Walker rooted at root. It eagerly compiles every
// __ignore__ file under root (the matcher is small relative to the tree and
// is needed before the first entry can be evaluated).
func New(root string) (*Walker, error) {
	im, err := NewIgnoreMatcher(root)
	if err != nil {
		return nil, err
	}
	return &Walker{
		root:    filepath.Clean(root),
		ignorer: im,
		logger:  slog.Default().With("component", "walker"),
	}, nil
}

// SetDefaultCompressionLevel overrides the compression level an asset falls
// back to when nothing in its __config__.toml chain sets one explicitly. A
// level <= 0 leaves assetconfig's own built-in default in place.
func (w *Walker) SetDefaultCompressionLevel(level int) {
	w.defaultCompressionLevel = level
}

// yieldCheckInterval controls how often the walk checks ctx for
// cancellation while scanning, rather than on every single entry.
const yieldCheckInterval = 1024

// Walk starts the traversal and returns a channel of Entry values in
// deterministic pre-order. The channel is closed when the walk completes or
// the context is cancelled. A filesystem error on a path (for example an
// unreadable directory) is logged at debug level and that path is skipped;
// no Entry is sent for it.
func (w *Walker) Walk(ctx context.Context) <-chan Entry {
	out := make(chan Entry)

	go func() {
		defer close(out)

		resolver := assetconfig.NewResolver(w.root)
		if w.defaultCompressionLevel > 0 {
			resolver.SetDefaultCompressionLevel(w.defaultCompressionLevel)
		}
		count := 0

		_ = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
			count++
			if count%yieldCheckInterval == 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
			}

			if err != nil {
				w.logger.Debug("walk error", "path", path, "error", err)
				return nil
			}

			relPath, relErr := filepath.Rel(w.root, path)
			if relErr != nil {
				return nil
			}
			relPath = filepath.ToSlash(relPath)
			if relPath == "." {
				return nil
			}

			if !utf8.ValidString(d.Name()) {
				select {
				case out <- Entry{Path: relPath, IsDir: d.IsDir(), Err: &smaperr.Utf8Error{Raw: []byte(d.Name())}}:
				case <-ctx.Done():
					return ctx.Err()
				}
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			isDir := d.IsDir()

			if isSymlink(d) {
				w.logger.Warn("skipping symlink", "path", relPath)
				if isDir {
					return fs.SkipDir
				}
				return nil
			}

			if w.ignorer.IsIgnored(relPath, isDir) {
				if isDir {
					return fs.SkipDir
				}
				return nil
			}

			name := d.Name()
			if !isDir && (name == IgnoreFileName || name == assetconfig.DirConfigFile || hasConfigSuffix(name)) {
				// Consumed by the resolver, never yielded as an asset.
				return nil
			}

			cfg, cfgErr := resolver.EffectiveConfigFor(relPath)
			if cfgErr != nil {
				select {
				case out <- Entry{Path: relPath, IsDir: isDir, Err: &smaperr.ConfigDeserializeError{Path: relPath, Err: cfgErr}}:
				case <-ctx.Done():
					return ctx.Err()
				}
				return nil
			}

			select {
			case out <- Entry{Path: relPath, IsDir: isDir, Config: cfg}:
			case <-ctx.Done():
				return ctx.Err()
			}

			return nil
		})
	}()

	return out
}

func hasConfigSuffix(name string) bool {
	suffix := assetconfig.FileConfigSuffix
	if len(name) <= len(suffix) {
		return false
	}
	return name[len(name)-len(suffix):] == suffix
}

func isSymlink(d fs.DirEntry) bool {
	return d.Type()&os.ModeSymlink != 0
}

// DirectoryList returns the slash-separated relative paths of every
// directory Entry in entries, excluding "__unique__" and anything beneath
// it, sorted lexicographically. Callers (the compiler) pass the full set of
// entries consumed from one Walk.
func DirectoryList(entries []Entry) []string {
	var dirs []string
	for _, e := range entries {
		if !e.IsDir || e.Err != nil {
			continue
		}
		if e.Path == "__unique__" || isUnderUnique(e.Path) {
			continue
		}
		dirs = append(dirs, e.Path)
	}
	sort.Strings(dirs)
	return dirs
}

func isUnderUnique(path string) bool {
	return len(path) > len("__unique__/") && path[:len("__unique__/")] == "__unique__/"
}
