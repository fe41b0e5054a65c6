package assetconfig

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DirConfigFile is the recognized name of a directory-scoped config file.
const DirConfigFile = "__config__.toml"

// FileConfigSuffix is the suffix recognized as a file-scoped config sidecar
// for "<name>" at "<name>.__config__.toml".
const FileConfigSuffix = ".__config__.toml"

// globEntry pairs one glob pattern with its parsed partial config, preserving
// the declaration order from the source TOML file (insertion order
// determines precedence per spec: later entries override earlier ones on
// overlap).
type globEntry struct {
	pattern string
	cfg     partial
}

// dirConfig is the fully parsed contents of one __config__.toml: its
// directory-level scope (the top-level [compression]/[transform] tables)
// plus, in declaration order, every other top-level key treated as a glob
// pattern.
type dirConfig struct {
	scope partial
	globs []globEntry
}

// loadDirConfig parses a __config__.toml at path. A missing file is
// reported as an error like any other parse failure; callers only invoke
// this after confirming the file exists.
func loadDirConfig(path string) (*dirConfig, error) {
	var raw map[string]interface{}
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	order := topLevelKeyOrder(meta)

	dc := &dirConfig{}
	for _, key := range order {
		section, ok := raw[key].(map[string]interface{})
		if key == "compression" || key == "transform" {
			if ok {
				mergeSectionInto(&dc.scope, key, section)
			}
			continue
		}
		if !ok {
			// Not a table: cannot be a valid glob entry, skip.
			continue
		}
		var p partial
		if comp, ok := section["compression"].(map[string]interface{}); ok {
			mergeSectionInto(&p, "compression", comp)
		}
		if tr, ok := section["transform"].(map[string]interface{}); ok {
			mergeSectionInto(&p, "transform", tr)
		}
		dc.globs = append(dc.globs, globEntry{pattern: key, cfg: p})
	}

	return dc, nil
}

// loadFileConfig parses a "<file>.__config__.toml" sidecar the same way as
// the directory-scope section of a __config__.toml: only [compression] and
// [transform] are recognized, no glob entries.
func loadFileConfig(path string) (partial, error) {
	var raw map[string]interface{}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return partial{}, fmt.Errorf("parse %s: %w", path, err)
	}

	var p partial
	if comp, ok := raw["compression"].(map[string]interface{}); ok {
		mergeSectionInto(&p, "compression", comp)
	}
	if tr, ok := raw["transform"].(map[string]interface{}); ok {
		mergeSectionInto(&p, "transform", tr)
	}
	return p, nil
}

// mergeSectionInto decodes one [compression] or [transform] table into p's
// corresponding fields.
func mergeSectionInto(p *partial, section string, raw map[string]interface{}) {
	switch section {
	case "compression":
		if v, ok := raw["enabled"].(bool); ok {
			p.compressionEnabled = &v
		}
		if v, ok := rawToInt(raw["level"]); ok {
			p.compressionLevel = &v
		}
	case "transform":
		if v, ok := raw["enabled"].(bool); ok {
			p.transformEnabled = &v
		}
		if v, ok := raw["type_name"].(string); ok {
			p.transformTypeName = &v
		}
		if opts, ok := raw["options"].(map[string]interface{}); ok {
			p.transformOptions = opts
		}
	}
}

func rawToInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

// topLevelKeyOrder returns the distinct top-level keys of a decoded TOML
// document in file declaration order, using toml.MetaData.Keys() (which
// preserves source order) rather than Go map iteration order.
func topLevelKeyOrder(meta toml.MetaData) []string {
	seen := make(map[string]bool)
	var order []string
	for _, k := range meta.Keys() {
		if len(k) == 0 {
			continue
		}
		top := k[0]
		if !seen[top] {
			seen[top] = true
			order = append(order, top)
		}
	}
	return order
}

// fileExists reports whether path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
