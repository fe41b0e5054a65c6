// Package assetconfig implements the per-asset config resolver: directory,
// glob, and file scoped option tables merged with higher-scope-wins and
// recursive deep merge, producing an EffectiveConfig for each asset the
// walker yields.
//
// Merge rules are generalized from a two-level (base profile / named
// override) inheritance model into the spec's three-level scope model:
// scalars and booleans use override-if-present (a value left unset at a
// higher scope keeps the lower scope's value), nested tables recurse with
// the same rule, and lists replace rather than concatenate.
package assetconfig

// EffectiveConfig is the fully resolved per-file configuration after
// merging directory, glob, and file scopes.
type EffectiveConfig struct {
	Compression CompressionConfig
	Transform   TransformConfig
}

// CompressionConfig controls whether and how strongly an asset's stored
// payload is LZ4-compressed.
type CompressionConfig struct {
	Enabled bool
	Level   int // 0-16
}

// TransformConfig controls whether and which uncooker transform runs on an
// asset before storage.
type TransformConfig struct {
	Enabled  bool
	TypeName string // empty means "resolve by source extension"
	Options  map[string]any
}

// Default returns the effective config applied to an asset with no
// applicable __config__.toml or file-scope sidecar: compression disabled at
// level 4, transform enabled with no explicit type name, empty options.
func Default() EffectiveConfig {
	return EffectiveConfig{
		Compression: CompressionConfig{Enabled: false, Level: 4},
		Transform:   TransformConfig{Enabled: true, TypeName: "", Options: map[string]any{}},
	}
}

// partial is the optional-field representation of one config section (a
// directory's top-level [compression]/[transform] tables, or one glob
// entry's nested tables, or a file-scope sidecar). Pointer fields
// distinguish "not set at this scope" from "explicitly set to the zero
// value" so merge can implement the spec's per-field override rules.
type partial struct {
	compressionEnabled *bool
	compressionLevel   *int
	transformEnabled   *bool
	transformTypeName  *string
	transformOptions   map[string]any
}

// apply merges override on top of base following the spec's per-field merge
// rules and returns the result. Neither input is mutated.
func apply(base EffectiveConfig, override partial) EffectiveConfig {
	result := base

	if override.compressionEnabled != nil {
		result.Compression.Enabled = *override.compressionEnabled
	}
	if override.compressionLevel != nil {
		result.Compression.Level = *override.compressionLevel
	}
	if override.transformEnabled != nil {
		result.Transform.Enabled = *override.transformEnabled
	}
	if override.transformTypeName != nil {
		result.Transform.TypeName = *override.transformTypeName
	}
	if len(override.transformOptions) > 0 {
		result.Transform.Options = deepMergeMap(result.Transform.Options, override.transformOptions)
	}

	return result
}

// deepMergeMap recursively merges override on top of base: overlapping keys
// take override's value (recursing into nested maps), keys present only in
// base are preserved, and non-map values (including lists) are replaced
// wholesale rather than concatenated.
func deepMergeMap(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		if baseChild, ok := result[k].(map[string]any); ok {
			if overrideChild, ok := v.(map[string]any); ok {
				result[k] = deepMergeMap(baseChild, overrideChild)
				continue
			}
		}
		result[k] = v
	}
	return result
}
