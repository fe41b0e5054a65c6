package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/smap/smap/internal/pack"
)

var readUnique bool

var readCmd = &cobra.Command{
	Use:   "read <pack> <logical-path>",
	Short: "Stream one entry's decoded bytes to stdout",
	Args:  cobra.ExactArgs(2),
	RunE:  runRead,
}

func init() {
	readCmd.Flags().BoolVar(&readUnique, "unique", false, "read from the pack's unique namespace instead of its normal one")
}

func runRead(cmd *cobra.Command, args []string) error {
	packPath, logicalPath := args[0], args[1]

	f, err := os.Open(packPath)
	if err != nil {
		return err
	}
	defer f.Close()

	reader, err := pack.Open(cmd.Context(), f, verifyOpts()...)
	if err != nil {
		return err
	}

	var entry io.Reader
	if readUnique {
		entry, err = reader.GetUniqueFileReader(logicalPath)
	} else {
		entry, err = reader.GetFileReader(logicalPath)
	}
	if err != nil {
		return err
	}

	_, err = io.Copy(cmd.OutOrStdout(), entry)
	return err
}
