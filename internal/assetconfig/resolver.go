package assetconfig

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Resolver resolves the EffectiveConfig of any asset under a root directory
// by walking its ancestor chain of __config__.toml files plus its own
// file-scope sidecar.
//
// Resolution runs in three passes, each strictly overriding the previous:
//
//  1. Directory scope: each __config__.toml's own top-level
//     [compression]/[transform] tables, merged root-to-leaf so a deeper
//     directory's settings win over a shallower one.
//  2. Glob scope: every other top-level key in a __config__.toml is a glob
//     pattern matched against the asset's path relative to that directory.
//     Patterns are applied in two nested orders: root-to-leaf across
//     directories, then declaration order within one file (a later glob
//     entry in the same file overrides an earlier one it also matches).
//  3. File scope: a "<name>.__config__.toml" sidecar next to the asset,
//     applied unconditionally on top of the first two passes.
type Resolver struct {
	root         string
	cache        map[string]*dirConfig
	defaultLevel int // 0 means "use Default()'s built-in level"
}

// NewResolver constructs a Resolver rooted at root. root should be the
// directory the walker is scanning; all __config__.toml lookups and glob
// matches are relative to it.
func NewResolver(root string) *Resolver {
	return &Resolver{
		root:  filepath.Clean(root),
		cache: make(map[string]*dirConfig),
	}
}

// SetDefaultCompressionLevel overrides the compression level every asset's
// resolution starts from, before any __config__.toml scope is applied. This
// is how a caller's own compression-level setting (e.g. a CLI tool's
// configured default) takes effect without every asset needing an explicit
// [compression] table.
func (r *Resolver) SetDefaultCompressionLevel(level int) {
	r.defaultLevel = level
}

// EffectiveConfigFor resolves the effective config for the asset at relPath
// (slash-separated, relative to the resolver's root).
func (r *Resolver) EffectiveConfigFor(relPath string) (EffectiveConfig, error) {
	relPath = filepath.ToSlash(relPath)
	chain, err := r.dirChain(relPath)
	if err != nil {
		return EffectiveConfig{}, err
	}

	cfg := Default()
	if r.defaultLevel > 0 {
		cfg.Compression.Level = r.defaultLevel
	}

	// Pass 1: directory scope, root to leaf.
	for _, dc := range chain {
		if dc == nil {
			continue
		}
		cfg = apply(cfg, dc.scope)
	}

	// Pass 2: glob scope, root to leaf, declaration order within each file.
	for i, dc := range chain {
		if dc == nil {
			continue
		}
		dirRel := ancestorRelPaths(relPath)[i]
		assetRelToDir := relativeTo(dirRel, relPath)
		for _, ge := range dc.globs {
			matched, err := doublestar.Match(ge.pattern, assetRelToDir)
			if err != nil {
				return EffectiveConfig{}, fmt.Errorf("glob pattern %q: %w", ge.pattern, err)
			}
			if matched {
				cfg = apply(cfg, ge.cfg)
			}
		}
	}

	// Pass 3: file scope sidecar, unconditional.
	dir, name := filepath.Split(filepath.FromSlash(relPath))
	sidecar := filepath.Join(r.root, dir, name+FileConfigSuffix)
	if fileExists(sidecar) {
		p, err := loadFileConfig(sidecar)
		if err != nil {
			return EffectiveConfig{}, err
		}
		cfg = apply(cfg, p)
	}

	return cfg, nil
}

// dirChain returns the parsed __config__.toml of every ancestor directory of
// relPath, root first, leaf (the asset's immediate parent) last. A directory
// with no __config__.toml contributes a nil entry.
func (r *Resolver) dirChain(relPath string) ([]*dirConfig, error) {
	var chain []*dirConfig
	for _, dirRel := range ancestorRelPaths(relPath) {
		dc, err := r.dirConfigFor(dirRel)
		if err != nil {
			return nil, err
		}
		chain = append(chain, dc)
	}
	return chain, nil
}

// dirConfigFor loads (with caching) the __config__.toml for the directory at
// dirRel (slash-separated, relative to root; "" means root itself).
func (r *Resolver) dirConfigFor(dirRel string) (*dirConfig, error) {
	if dc, ok := r.cache[dirRel]; ok {
		return dc, nil
	}

	path := filepath.Join(r.root, filepath.FromSlash(dirRel), DirConfigFile)
	if !fileExists(path) {
		r.cache[dirRel] = nil
		return nil, nil
	}

	dc, err := loadDirConfig(path)
	if err != nil {
		return nil, err
	}
	r.cache[dirRel] = dc
	return dc, nil
}

// ancestorRelPaths returns the slash-separated relative directory path of
// every ancestor of relPath, root ("") first and the asset's immediate
// parent last.
func ancestorRelPaths(relPath string) []string {
	dir := filepath.ToSlash(filepath.Dir(relPath))
	if dir == "." {
		return []string{""}
	}

	parts := strings.Split(dir, "/")
	out := make([]string, 0, len(parts)+1)
	out = append(out, "")
	cur := ""
	for _, p := range parts {
		if cur == "" {
			cur = p
		} else {
			cur = cur + "/" + p
		}
		out = append(out, cur)
	}
	return out
}

// relativeTo returns relPath expressed relative to dirRel (both
// slash-separated; dirRel == "" means root).
func relativeTo(dirRel, relPath string) string {
	if dirRel == "" {
		return relPath
	}
	return strings.TrimPrefix(relPath, dirRel+"/")
}
