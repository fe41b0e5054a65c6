// Package toolconfig resolves smap's CLI-level settings — the ambient
// configuration layer used by cmd/smap itself, not the per-asset
// EffectiveConfig resolved by internal/assetconfig. The two are independent:
// this package never reads __config__.toml, and internal/assetconfig never
// reads smap.toml or SMAP_* environment variables.
package toolconfig

// ToolConfig holds every CLI-level setting smap's commands consult.
type ToolConfig struct {
	// CompressionLevel is the default LZ4 level a compile uses when an
	// asset's EffectiveConfig doesn't specify one explicitly.
	CompressionLevel int

	// WalkerConcurrency bounds how many goroutines the pack reader uses to
	// verify payloads when a pack is opened.
	WalkerConcurrency int

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string

	// LogFormat is "text" or "json".
	LogFormat string

	// PackExtension is the file extension (without leading dot) a pack
	// group looks for when discovering packs in its root directory.
	PackExtension string

	// PacksRoot is the default root directory for `smap group` commands
	// when none is given on the command line.
	PacksRoot string
}
