package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smap/smap/internal/pack"
)

var compileCmd = &cobra.Command{
	Use:   "compile <asset-dir> <output.smap>",
	Short: "Compile a directory of assets into a pack file",
	Args:  cobra.ExactArgs(2),
	RunE:  runCompile,
}

func runCompile(cmd *cobra.Command, args []string) error {
	assetDir, outputPath := args[0], args[1]

	compiler, err := pack.NewCompiler()
	if err != nil {
		return err
	}
	if toolCfg != nil {
		compiler.SetDefaultCompressionLevel(toolCfg.CompressionLevel)
	}

	report, err := compiler.Compile(cmd.Context(), assetDir, outputPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "compiled %s -> %s\n", assetDir, outputPath)
	fmt.Fprintf(out, "  files:       %d\n", report.FileCount)
	fmt.Fprintf(out, "  directories: %d\n", report.DirectoryCount)
	fmt.Fprintf(out, "  transformed: %d\n", report.TransformedCount)
	fmt.Fprintf(out, "  compressed:  %d\n", report.CompressedCount)
	fmt.Fprintf(out, "  skipped:     %d\n", report.SkippedCount)
	fmt.Fprintf(out, "  payload:     %d bytes\n", report.PayloadBytes)
	return nil
}
