package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smap/smap/internal/pack"
	"github.com/smap/smap/internal/smaperr"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <pack>",
	Short: "Open a pack with full payload integrity verification",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	packPath := args[0]

	f, err := os.Open(packPath)
	if err != nil {
		return err
	}
	defer f.Close()

	reader, err := pack.Open(cmd.Context(), f, verifyOpts()...)
	if err != nil {
		var damagedFile *smaperr.DamagedFile
		var damagedTOC *smaperr.DamagedTOC
		var damagedDL *smaperr.DamagedDirectoryList
		switch {
		case errors.As(err, &damagedFile):
			fmt.Fprintf(cmd.OutOrStdout(), "damaged: entry %q failed its content hash\n", damagedFile.Path)
		case errors.As(err, &damagedTOC):
			fmt.Fprintln(cmd.OutOrStdout(), "damaged: table of contents hash mismatch")
		case errors.As(err, &damagedDL):
			fmt.Fprintln(cmd.OutOrStdout(), "damaged: directory list hash mismatch")
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ok: %d entries verified\n", len(reader.Paths()))
	return nil
}
