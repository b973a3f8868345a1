package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/webbuilder/internal/foundation/errors"
)

func writeProject(t *testing.T, doc string, withSources bool) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "webbuilder.yaml"), []byte(doc), 0o644))
	if withSources {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "index.js"), []byte("export const answer = 42;\n"), 0o644))
	}
	return dir
}

const project = `
browsers: "last 2 versions"
entries:
  start:
    entry: ./src/index.js
preflight:
  hook: false
`

func TestParseFlags(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Exit(func(int) {}))
	require.NoError(t, err)

	_, err = parser.Parse([]string{"wds", "-c", "custom.yaml", "--dry-run", "--preflight-only"})
	require.NoError(t, err)
	require.Equal(t, "wds", cli.Mode)
	require.Equal(t, "custom.yaml", cli.Config)
	require.True(t, cli.DryRun)
	require.True(t, cli.PreflightOnly)
	require.False(t, cli.Verbose)
}

func TestParseDefaults(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Exit(func(int) {}))
	require.NoError(t, err)

	_, err = parser.Parse(nil)
	require.NoError(t, err)
	require.Empty(t, cli.Mode)
	require.Equal(t, "webbuilder.yaml", cli.Config)
}

func TestRunDryRunProductionBuild(t *testing.T) {
	dir := writeProject(t, project, true)
	t.Chdir(dir)

	previous := filepath.Join(dir, "dist", "start-abc123.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(previous), 0o755))
	require.NoError(t, os.WriteFile(previous, []byte("old"), 0o644))

	cli := CLI{Config: "webbuilder.yaml", DryRun: true}
	require.NoError(t, cli.Run(context.Background()))
	require.FileExists(t, previous)
	require.NoFileExists(t, filepath.Join(dir, "dist", ".gitignore"))
}

func TestRunExitCodes(t *testing.T) {
	adapter := errors.NewCLIErrorAdapter(false, nil)

	t.Run("configuration", func(t *testing.T) {
		t.Chdir(writeProject(t, "browsers: \"last 2 versions\"\nentries: {}\n", true))
		cli := CLI{Mode: "wds", Config: "webbuilder.yaml", DryRun: true}
		err := cli.Run(context.Background())
		require.Error(t, err)
		require.Equal(t, 7, adapter.ExitCodeFor(err))
	})

	t.Run("preflight", func(t *testing.T) {
		t.Chdir(writeProject(t, project, false))
		cli := CLI{Config: "webbuilder.yaml", DryRun: true}
		err := cli.Run(context.Background())
		require.Error(t, err)
		require.Equal(t, 9, adapter.ExitCodeFor(err))
	})

	t.Run("missing file", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cli := CLI{Config: "webbuilder.yaml"}
		err := cli.Run(context.Background())
		require.Equal(t, 7, adapter.ExitCodeFor(err))
	})
}
