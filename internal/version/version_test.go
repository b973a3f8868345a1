package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	require.NotEmpty(t, Version)
	require.NotEmpty(t, BuildTime)
	require.NotEmpty(t, GitCommit)
}

func TestString(t *testing.T) {
	old := [3]string{Version, GitCommit, BuildTime}
	t.Cleanup(func() { Version, GitCommit, BuildTime = old[0], old[1], old[2] })

	Version, GitCommit, BuildTime = "v1.2.3", "abc123", "2026-01-01"
	require.Equal(t, "webbuilder v1.2.3 (commit abc123, built 2026-01-01)", String())
}
