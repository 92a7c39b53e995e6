package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"run", "bomrun", "serve", "runs", "patterns"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "reflow-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRunCommand_Flags(t *testing.T) {
	flag := runCmd.Flags().Lookup("mpn")
	require.NotNil(t, flag, "run command should have --mpn flag")

	for _, name := range []string{"force", "report", "output", "offline"} {
		assert.NotNil(t, runCmd.Flags().Lookup(name), "run command should have --%s flag", name)
	}
}

func TestBomrunCommand_Flags(t *testing.T) {
	flag := bomrunCmd.Flags().Lookup("bom")
	require.NotNil(t, flag, "bomrun command should have --bom flag")

	for _, name := range []string{"limit", "concurrency", "dry-run", "force", "offline", "output"} {
		assert.NotNil(t, bomrunCmd.Flags().Lookup(name), "bomrun command should have --%s flag", name)
	}

	limit := bomrunCmd.Flags().Lookup("limit")
	assert.Equal(t, "0", limit.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	cmds := runsCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"list", "show", "stats"}
	for _, name := range expected {
		assert.True(t, names[name], "runs should have subcommand %q", name)
	}
}

func TestRunsListCommand_Flags(t *testing.T) {
	for _, name := range []string{"status", "mpn", "limit", "offset"} {
		flag := runsListCmd.Flags().Lookup(name)
		assert.NotNil(t, flag, "runs list should have --%s flag", name)
	}
}

func TestPatternsCommand_Flags(t *testing.T) {
	flag := patternsCmd.Flags().Lookup("file")
	require.NotNil(t, flag, "patterns command should have --file flag")
}
