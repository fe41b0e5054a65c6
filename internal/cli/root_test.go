package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandUse(t *testing.T) {
	assert.Equal(t, "smap", rootCmd.Use)
}

func TestRootCommandSilenceUsage(t *testing.T) {
	assert.True(t, rootCmd.SilenceUsage, "SilenceUsage must be true to avoid printing usage on errors")
}

func TestRootCommandSilenceErrors(t *testing.T) {
	assert.True(t, rootCmd.SilenceErrors, "SilenceErrors must be true for manual error handling")
}

func TestRootCommandHasConfigFlags(t *testing.T) {
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("log-level"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("log-format"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("global-config"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestRootCommandPopulatesToolConfig(t *testing.T) {
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	defer rootCmd.SetOut(nil)

	code := Execute()
	require.Equal(t, 0, code)
	require.NotNil(t, ToolConfig())
}

func TestExitCodeForUnknownErrorIsGeneric(t *testing.T) {
	assert.Equal(t, exitGeneric, exitCodeFor(assert.AnError))
}
