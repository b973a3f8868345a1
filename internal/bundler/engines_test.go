package bundler

import (
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/require"
)

func TestParseEngines(t *testing.T) {
	engines, ignored := ParseEngines("chrome >= 58, last 2 versions, firefox>=52, Safari >= 10.1, chrome >= 49, > 1%, netscape >= 4")

	require.Equal(t, []api.Engine{
		{Name: api.EngineChrome, Version: "49"},
		{Name: api.EngineFirefox, Version: "52"},
		{Name: api.EngineSafari, Version: "10.1"},
	}, engines)
	require.Equal(t, []string{"last 2 versions", "> 1%", "netscape >= 4"}, ignored)
}

func TestParseEnginesEmpty(t *testing.T) {
	engines, ignored := ParseEngines("  ")
	require.Empty(t, engines)
	require.Empty(t, ignored)
}

func TestCompareVersions(t *testing.T) {
	require.Equal(t, 0, compareVersions("10.1", "10.1.0"))
	require.Equal(t, -1, compareVersions("9", "10"))
	require.Equal(t, 1, compareVersions("10.2", "10.1.9"))
}
