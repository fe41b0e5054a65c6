// Package packgroup layers multiple packs into a single logical namespace:
// an ordered list of enabled packs, an immovable override pack, and a set
// of built-in packs embedded in the host program. It resolves each logical
// path to exactly one pack, recomputing that resolution only when the
// group's membership or ordering actually changes.
package packgroup

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/smap/smap/internal/pack"
	"github.com/smap/smap/internal/smaperr"
)

// BuiltInPrefix namespaces a built-in pack's synthetic path.
const BuiltInPrefix = "/__built_in/"

// overrideKey is the internal resolution-map key for the override pack; it
// can never collide with a discovered path (os paths never start with "__").
const overrideKey = "__override__"

// packHandle lazily opens its underlying pack.Reader: a discovered pack is
// not read from disk until something actually needs its TOC. Built-in and
// override handles carry an already-open reader and skip lazy-open
// entirely.
type packHandle struct {
	path     string
	external bool

	once    sync.Once
	file    *os.File
	reader  *pack.Reader
	openErr error
}

func (h *packHandle) open(ctx context.Context, verifyConcurrency int) (*pack.Reader, error) {
	if h.reader != nil {
		return h.reader, nil
	}
	h.once.Do(func() {
		f, err := os.Open(h.path)
		if err != nil {
			h.openErr = smaperr.NewIoError(smaperr.StepOpenPack, err)
			return
		}
		h.file = f
		h.reader, h.openErr = pack.Open(ctx, f, pack.WithVerifyConcurrency(verifyConcurrency))
	})
	return h.reader, h.openErr
}

// Group is a pack-group reader: a root directory of discoverable packs plus
// an ordered enabled list, an optional override pack, and a set of built-in
// packs. Nothing here is safe for concurrent use without external locking,
// matching pack.Reader's own discipline.
type Group struct {
	rootDir   string
	extension string

	available map[string]*packHandle // discovered/external packs, keyed by path
	builtIn   map[string]*packHandle // keyed by id (without BuiltInPrefix)
	enabled   []string               // precedence order, first = highest; may reference built-in paths
	override  *packHandle

	resolution map[string]string // logical path -> resolution-map key

	dirty             bool
	logger            *slog.Logger
	verifyConcurrency int
}

// SetVerifyConcurrency bounds how many goroutines each pack's payload
// verification runs concurrently when it is lazily opened. n <= 0 leaves
// pack.Open's runtime.NumCPU() default in place.
func (g *Group) SetVerifyConcurrency(n int) {
	g.verifyConcurrency = n
}

// New constructs a Group rooted at rootDir, scoped to pack files with the
// given extension (pack.DefaultPackExtension if empty). It reads any
// existing packs.toml in rootDir for the initial enabled order and
// discovers the pack files in rootDir (discovery runs again in Load), but
// opens no pack files yet; opening happens in Load.
func New(rootDir, extension string) (*Group, error) {
	if extension == "" {
		extension = pack.DefaultPackExtension
	}
	g := &Group{
		rootDir:    rootDir,
		extension:  extension,
		available:  make(map[string]*packHandle),
		builtIn:    make(map[string]*packHandle),
		resolution: make(map[string]string),
		dirty:      true,
		logger:     slog.Default().With("component", "pack-group"),
	}

	entries, err := loadManifest(rootDir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		g.enabled = append(g.enabled, e.Path)
		if e.External {
			g.available[e.Path] = &packHandle{path: e.Path, external: true}
		}
	}

	// Discovery (a directory listing) is cheap and done eagerly so that
	// SetEnabledPacks can validate against it right away; opening any pack's
	// bytes stays lazy, deferred to Load's resolution rebuild or first read.
	if err := g.rediscoverAvailable(); err != nil {
		return nil, err
	}

	return g, nil
}

// AddExternalPack registers a pack path outside rootDir as available,
// surviving rediscovery. It does not enable the pack; call SetEnabledPacks
// to do that.
func (g *Group) AddExternalPack(path string) {
	if _, ok := g.available[path]; !ok {
		g.available[path] = &packHandle{path: path, external: true}
	}
	g.dirty = true
}

// SetEnabledPacks replaces the enabled precedence order. Paths not present
// in the available set (and not a registered built-in) are logged and
// dropped. Built-in packs absent from paths are appended at the end; when
// more than one is appended, their order relative to each other is not
// defined. Marks the group dirty.
func (g *Group) SetEnabledPacks(paths []string) {
	next := make([]string, 0, len(paths)+len(g.builtIn))
	seen := make(map[string]bool, len(paths))

	for _, p := range paths {
		if seen[p] {
			continue
		}
		if !g.isKnown(p) {
			g.logger.Warn("ignoring unknown pack path", "path", p)
			continue
		}
		seen[p] = true
		next = append(next, p)
	}

	for id := range g.builtIn {
		p := BuiltInPrefix + id
		if !seen[p] {
			seen[p] = true
			next = append(next, p)
		}
	}

	g.enabled = next
	g.dirty = true
}

func (g *Group) isKnown(path string) bool {
	if strings.HasPrefix(path, BuiltInPrefix) {
		_, ok := g.builtIn[strings.TrimPrefix(path, BuiltInPrefix)]
		return ok
	}
	_, ok := g.available[path]
	return ok
}

// RegisterBuiltInPack adds a built-in pack under id, reachable at the
// synthetic path BuiltInPrefix+id. Dirties the group.
func (g *Group) RegisterBuiltInPack(id string, reader *pack.Reader) {
	g.builtIn[id] = &packHandle{path: BuiltInPrefix + id, reader: reader}
	g.dirty = true
}

// RemoveBuiltInPack removes a built-in pack and drops it from the enabled
// order. Dirties the group.
func (g *Group) RemoveBuiltInPack(id string) {
	delete(g.builtIn, id)
	path := BuiltInPrefix + id
	filtered := g.enabled[:0]
	for _, p := range g.enabled {
		if p != path {
			filtered = append(filtered, p)
		}
	}
	g.enabled = filtered
	g.dirty = true
}

// SetOverridePack installs reader as the group's override pack, which wins
// over every enabled pack for any key it contains. Dirties the group.
func (g *Group) SetOverridePack(reader *pack.Reader) {
	g.override = &packHandle{path: overrideKey, reader: reader}
	g.dirty = true
}

// RemoveOverridePack clears the override pack. Dirties the group.
func (g *Group) RemoveOverridePack() {
	g.override = nil
	g.dirty = true
}

// Load rediscovers available packs, drops enabled entries no longer
// available, rebuilds the resolution map if the group is dirty, and
// persists the enabled order back to packs.toml.
func (g *Group) Load(ctx context.Context) error {
	if err := g.rediscoverAvailable(); err != nil {
		return err
	}

	filtered := g.enabled[:0:0]
	for _, p := range g.enabled {
		if strings.HasPrefix(p, BuiltInPrefix) {
			if _, ok := g.builtIn[strings.TrimPrefix(p, BuiltInPrefix)]; ok {
				filtered = append(filtered, p)
			}
			continue
		}
		if _, ok := g.available[p]; ok {
			filtered = append(filtered, p)
		} else {
			g.logger.Warn("dropping enabled pack no longer available", "path", p)
		}
	}
	g.enabled = filtered

	if g.dirty {
		if err := g.rebuildResolution(ctx); err != nil {
			return err
		}
	}

	if err := g.persistEnabled(); err != nil {
		return err
	}

	g.dirty = false
	return nil
}

// rediscoverAvailable re-scans rootDir's top level for files matching the
// configured extension, retaining every externally-registered handle (and
// any already-opened handle for a path still present).
func (g *Group) rediscoverAvailable() error {
	discovered := make(map[string]*packHandle)

	entries, err := os.ReadDir(g.rootDir)
	if err != nil && !os.IsNotExist(err) {
		return smaperr.NewIoError(smaperr.StepWalk, err)
	}

	suffix := "." + g.extension
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		path := filepath.Join(g.rootDir, e.Name())
		discovered[path] = g.existingOrNewHandle(path)
	}

	for path, h := range g.available {
		if h.external {
			discovered[path] = h
		}
	}

	g.available = discovered
	return nil
}

func (g *Group) existingOrNewHandle(path string) *packHandle {
	if existing, ok := g.available[path]; ok {
		return existing
	}
	return &packHandle{path: path}
}

// persistEnabled writes the current enabled order to packs.toml, excluding
// built-in and override entries (neither is persisted).
func (g *Group) persistEnabled() error {
	entries := make([]packEntry, 0, len(g.enabled))
	for _, p := range g.enabled {
		if strings.HasPrefix(p, BuiltInPrefix) {
			continue
		}
		external := false
		if h, ok := g.available[p]; ok {
			external = h.external
		}
		entries = append(entries, packEntry{Path: p, External: external})
	}
	return saveManifest(g.rootDir, entries)
}

// GetFileReader resolves path to its owning pack and returns a reader over
// its stored bytes.
func (g *Group) GetFileReader(ctx context.Context, path string) (io.ReadSeeker, error) {
	key, ok := g.resolution[path]
	if !ok {
		return nil, &smaperr.FileNotFound{Path: path}
	}
	h, err := g.handleFor(key)
	if err != nil {
		return nil, err
	}
	reader, err := h.open(ctx, g.verifyConcurrency)
	if err != nil {
		return nil, err
	}
	return reader.GetFileReader(path)
}

// ListFiles returns every resolved logical path under dir (a "/"-joined
// directory prefix; "" or "/" lists everything), in no particular order.
func (g *Group) ListFiles(dir string) []string {
	prefix := normalizeDirPrefix(dir)
	out := make([]string, 0)
	for p := range g.resolution {
		if prefix == "" || strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}

// HasDirectory reports whether any resolved logical path falls under dir.
func (g *Group) HasDirectory(dir string) bool {
	prefix := normalizeDirPrefix(dir)
	if prefix == "" {
		return len(g.resolution) > 0
	}
	for p := range g.resolution {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func normalizeDirPrefix(dir string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return ""
	}
	return dir + "/"
}

// EnabledPacks returns the current precedence order, first = highest.
func (g *Group) EnabledPacks() []string {
	out := make([]string, len(g.enabled))
	copy(out, g.enabled)
	return out
}

// AvailablePacks returns the discovered/external pack paths, unordered.
func (g *Group) AvailablePacks() []string {
	out := make([]string, 0, len(g.available))
	for p := range g.available {
		out = append(out, p)
	}
	return out
}
