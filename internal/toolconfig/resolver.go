package toolconfig

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	koanf "github.com/knadh/koanf/v2"
	"github.com/knadh/koanf/providers/confmap"
)

// ResolveOptions configures the layered tool-config resolution.
type ResolveOptions struct {
	// GlobalConfigPath overrides the default ~/.config/smap/config.toml.
	// Useful for testing.
	GlobalConfigPath string

	// RepoConfigPath overrides the default ./smap.toml.
	RepoConfigPath string

	// CLIFlags holds explicit CLI flag overrides (highest precedence).
	// Keys are flat ToolConfig field names: "log_level", "compression_level", etc.
	CLIFlags map[string]any
}

// Resolved is the result of layered tool-config resolution.
type Resolved struct {
	Config  *ToolConfig
	Sources SourceMap
}

// Resolve runs the 5-layer tool-config resolution pipeline:
//  1. Built-in defaults
//  2. Global config (~/.config/smap/config.toml)
//  3. Repo config (smap.toml in the working directory)
//  4. Environment variables (SMAP_* prefix)
//  5. CLI flags (highest precedence)
//
// Missing config files are silently skipped; invalid ones return an error.
func Resolve(opts ResolveOptions) (*Resolved, error) {
	k := koanf.New(".")
	sources := make(SourceMap)

	if err := loadLayer(k, defaultsFlatMap(DefaultToolConfig()), sources, SourceDefault); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	globalPath := opts.GlobalConfigPath
	if globalPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			globalPath = filepath.Join(home, ".config", "smap", "config.toml")
		}
	}
	if globalPath != "" {
		if err := loadFileLayer(k, globalPath, sources, SourceGlobal); err != nil {
			return nil, err
		}
	}

	repoPath := opts.RepoConfigPath
	if repoPath == "" {
		repoPath = "smap.toml"
	}
	if err := loadFileLayer(k, repoPath, sources, SourceRepo); err != nil {
		return nil, err
	}

	if envMap := buildEnvMap(); len(envMap) > 0 {
		if err := loadLayer(k, envMap, sources, SourceEnv); err != nil {
			return nil, fmt.Errorf("loading env vars: %w", err)
		}
	}

	if len(opts.CLIFlags) > 0 {
		if err := loadLayer(k, opts.CLIFlags, sources, SourceFlag); err != nil {
			return nil, fmt.Errorf("loading CLI flags: %w", err)
		}
	}

	return &Resolved{
		Config:  flatMapToToolConfig(k),
		Sources: sources,
	}, nil
}

// loadFileLayer loads path as TOML, merges its top-level keys into k, and
// records source attribution. A missing file is silently skipped.
func loadFileLayer(k *koanf.Koanf, path string, sources SourceMap, src Source) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			slog.Debug("tool config file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}

	var raw map[string]interface{}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	flat := flattenRaw(raw)
	slog.Debug("loading tool config layer", "path", path, "source", src.String())
	return loadLayer(k, flat, sources, src)
}

// flattenRaw keeps only the scalar top-level keys ToolConfig recognizes;
// anything else is ignored rather than rejected, so an smap.toml that also
// carries unrelated sections doesn't break resolution.
func flattenRaw(raw map[string]interface{}) map[string]any {
	flat := make(map[string]any)
	for _, key := range []string{"log_level", "log_format", "pack_extension", "packs_root"} {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok {
				flat[key] = s
			}
		}
	}
	for _, key := range []string{"compression_level", "walker_concurrency"} {
		if v, ok := raw[key]; ok {
			flat[key] = rawToInt(v)
		}
	}
	return flat
}

func rawToInt(v interface{}) any {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	default:
		return v
	}
}

// loadLayer merges a flat map into k and marks every key in it as
// originating from src, so later identical values still attribute
// correctly to the layer that actually set them.
func loadLayer(k *koanf.Koanf, m map[string]any, sources SourceMap, src Source) error {
	if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
		return fmt.Errorf("merge layer %s: %w", src.String(), err)
	}
	for key := range m {
		sources[key] = src
	}
	return nil
}

func defaultsFlatMap(c *ToolConfig) map[string]any {
	return map[string]any{
		"compression_level":  c.CompressionLevel,
		"walker_concurrency": c.WalkerConcurrency,
		"log_level":          c.LogLevel,
		"log_format":         c.LogFormat,
		"pack_extension":     c.PackExtension,
		"packs_root":         c.PacksRoot,
	}
}

func flatMapToToolConfig(k *koanf.Koanf) *ToolConfig {
	return &ToolConfig{
		CompressionLevel:  k.Int("compression_level"),
		WalkerConcurrency: k.Int("walker_concurrency"),
		LogLevel:          k.String("log_level"),
		LogFormat:         k.String("log_format"),
		PackExtension:     k.String("pack_extension"),
		PacksRoot:         k.String("packs_root"),
	}
}
