// Package transform implements the pluggable byte-to-byte "uncooker"
// registry: transforms are registered under a stable type name and/or a set
// of source extensions, and the registry resolves a lookup by either key
// without ever handing one transform's deserialized options to another.
//
// The shape mirrors a narrow interface plus a name-keyed factory, the same
// pattern used elsewhere in this codebase for pluggable, swappable
// implementations selected by a short string name.
package transform

import (
	"fmt"
	"log/slog"
	"sync"
)

// Transform converts an asset's raw bytes into its storage form. TypeName is
// the stable identifier chosen at registration time and is what config files
// reference via `transform.type_name`. SourceExts lists the file extensions
// (without a leading dot, lowercase) this transform applies to by default
// when no explicit type name is given. TargetExt is appended to the logical
// path when the transform runs successfully.
type Transform interface {
	// TypeName returns the stable registration identifier.
	TypeName() string

	// SourceExts returns the extensions this transform is the default
	// handler for (without leading dots, lowercase).
	SourceExts() []string

	// TargetExt returns the extension appended to a logical path after a
	// successful transform.
	TargetExt() string

	// DefaultOptions returns the options value used when a config supplies
	// an empty options table.
	DefaultOptions() any

	// DeserializeOptions converts a generic key-value table (as decoded from
	// TOML) into this transform's concrete options shape. An empty or nil
	// raw table must return DefaultOptions(), not an error.
	DeserializeOptions(raw map[string]any) (any, error)

	// Run applies the transform to data. opts is always a value this same
	// transform produced via DeserializeOptions or DefaultOptions -- the
	// registry never passes another transform's options here.
	Run(data []byte, sourceExt string, opts any) ([]byte, error)
}

// Registry holds transforms keyed by type name and, separately, by source
// extension. It is safe for concurrent registration and lookup.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Transform
	byExt  map[string][]Transform
	logger *slog.Logger
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Transform),
		byExt:  make(map[string][]Transform),
		logger: slog.Default().With("component", "transform-registry"),
	}
}

// ErrDuplicateTypeName is returned by Register when a type name is already
// taken.
type ErrDuplicateTypeName struct {
	TypeName string
}

func (e *ErrDuplicateTypeName) Error() string {
	return fmt.Sprintf("transform type name %q already registered", e.TypeName)
}

// Register adds t to the registry under its type name and every source
// extension it declares. Registering a second transform under an
// already-used type name is an error; registering a second transform for an
// already-claimed extension is allowed (the first-registered transform keeps
// priority for extension-based lookup, and a warning is logged).
func (r *Registry) Register(t Transform) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.TypeName()
	if _, exists := r.byName[name]; exists {
		return &ErrDuplicateTypeName{TypeName: name}
	}
	r.byName[name] = t

	for _, ext := range t.SourceExts() {
		if existing := r.byExt[ext]; len(existing) > 0 {
			r.logger.Warn("multiple transforms registered for extension, keeping first-registered",
				"extension", ext,
				"existing", existing[0].TypeName(),
				"new", name,
			)
		}
		r.byExt[ext] = append(r.byExt[ext], t)
	}

	return nil
}

// ByName returns the transform registered under the given type name, or
// (nil, false) if none is registered.
func (r *Registry) ByName(name string) (Transform, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// ByExtension returns the transform that handles sourceExt by default: the
// first one registered for that extension. Returns (nil, false) if no
// transform claims the extension.
func (r *Registry) ByExtension(sourceExt string) (Transform, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ts := r.byExt[sourceExt]
	if len(ts) == 0 {
		return nil, false
	}
	return ts[0], true
}

// Resolve finds the transform to use for an entry: typeName, if non-empty,
// is looked up by exact name; otherwise sourceExt is looked up by extension.
// Returns (nil, false) if neither lookup finds a transform -- this is not an
// error, callers skip the transform step for that entry.
func (r *Registry) Resolve(typeName, sourceExt string) (Transform, bool) {
	if typeName != "" {
		return r.ByName(typeName)
	}
	return r.ByExtension(sourceExt)
}
