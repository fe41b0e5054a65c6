package toolconfig

import "runtime"

// DefaultToolConfig returns the built-in defaults, the lowest-precedence
// layer of Resolve. Callers receive a fresh copy each time; mutating the
// returned value does not affect subsequent calls.
func DefaultToolConfig() *ToolConfig {
	return &ToolConfig{
		CompressionLevel:  4,
		WalkerConcurrency: runtime.NumCPU(),
		LogLevel:          "info",
		LogFormat:         "text",
		PackExtension:     "smap",
		PacksRoot:         ".",
	}
}
