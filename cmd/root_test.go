package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"score", "serve", "profile"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "rfp-scorer", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestScoreCommand_Flags(t *testing.T) {
	for _, name := range []string{"input", "profile", "format", "output", "at", "min-score", "qualified-only", "concurrency", "alerts"} {
		assert.NotNil(t, scoreCmd.Flags().Lookup(name), "score should have --%s flag", name)
	}
	flag := scoreCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "table", flag.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
	assert.NotNil(t, serveCmd.Flags().Lookup("profile"))
}

func TestProfileCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range profileCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["validate"])
	assert.True(t, names["show"])
}

func TestResolveProfilePath(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })

	cfg = nil
	assert.Empty(t, resolveProfilePath(""))
	assert.Equal(t, "flag.yaml", resolveProfilePath("flag.yaml"))
}

func TestLoadEngine_Embedded(t *testing.T) {
	e, err := loadEngine("")
	require.NoError(t, err)
	assert.NotEmpty(t, e.Version())
}

func TestLoadEngine_MissingFile(t *testing.T) {
	_, err := loadEngine("does-not-exist.yaml")
	assert.Error(t, err)
}
