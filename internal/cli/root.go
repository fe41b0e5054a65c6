// Package cli implements the Cobra command hierarchy for the smap CLI tool.
// The root command defined here is the entry point for all subcommands and
// handles cross-cutting concerns like configuration resolution, logging
// initialization, and exit-code mapping.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/smap/smap/internal/pack"
	"github.com/smap/smap/internal/smaperr"
	"github.com/smap/smap/internal/toolconfig"
)

var (
	toolCfg       *toolconfig.ToolConfig
	globalConfig  string
	repoConfig    string
	logLevelFlag  string
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "smap",
	Short: "Compile and serve binary asset packs.",
	Long: `smap compiles a directory tree of game assets into a single
self-describing, integrity-checked, optionally-compressed container file,
and provides random-access readers that layer multiple such containers
into one logical namespace with override precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		flags := map[string]any{}
		if logLevelFlag != "" {
			flags["log_level"] = logLevelFlag
		}
		if logFormatFlag != "" {
			flags["log_format"] = logFormatFlag
		}

		resolved, err := toolconfig.Resolve(toolconfig.ResolveOptions{
			GlobalConfigPath: globalConfig,
			RepoConfigPath:   repoConfig,
			CLIFlags:         flags,
		})
		if err != nil {
			return err
		}
		toolCfg = resolved.Config

		toolconfig.SetupLogging(toolCfg)
		slog.Debug("tool config resolved",
			"log_level", toolCfg.LogLevel,
			"pack_extension", toolCfg.PackExtension,
		)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&logFormatFlag, "log-format", "", "log output format: text, json")
	pf.StringVar(&globalConfig, "global-config", "", "path to global config.toml (default ~/.config/smap/config.toml)")
	pf.StringVar(&repoConfig, "config", "", "path to repo-local smap.toml (default ./smap.toml)")

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

// Execute runs the root command and returns an appropriate process exit
// code, derived from the smaperr kind wrapped in the returned error if any.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		return int(smaperr.ExitCodeFor(err))
	}
	return 0
}

// exitCodeFor is kept as a thin alias so tests can call it without
// round-tripping through int(ExitCode); the mapping itself lives in
// smaperr.ExitCodeFor, next to the error kinds it classifies.
func exitCodeFor(err error) int {
	return int(smaperr.ExitCodeFor(err))
}

// exitGeneric is ExitError's value, named here for readability at call sites
// that compare against "no specific mapping applied".
const exitGeneric = int(smaperr.ExitError)

// RootCmd returns the root cobra.Command, for testing and subcommand
// registration.
func RootCmd() *cobra.Command {
	return rootCmd
}

// ToolConfig returns the resolved tool configuration, valid after
// PersistentPreRunE has run.
func ToolConfig() *toolconfig.ToolConfig {
	return toolCfg
}

// verifyOpts builds the pack.OpenOption set a command should pass to
// pack.Open, carrying toolCfg.WalkerConcurrency through when a config has
// been resolved.
func verifyOpts() []pack.OpenOption {
	if toolCfg == nil {
		return nil
	}
	return []pack.OpenOption{pack.WithVerifyConcurrency(toolCfg.WalkerConcurrency)}
}

// resolvedPacksRoot returns root if non-empty, else toolCfg.PacksRoot as a
// fallback, matching that field's documented purpose.
func resolvedPacksRoot(root string) (string, error) {
	if root != "" {
		return root, nil
	}
	if toolCfg != nil && toolCfg.PacksRoot != "" {
		return toolCfg.PacksRoot, nil
	}
	return "", fmt.Errorf("no root directory given and no default configured (set packs_root or pass <root>)")
}
