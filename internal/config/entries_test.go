package config

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/webbuilder/internal/bundle"
)

func TestEntriesSetKeepsFirstPosition(t *testing.T) {
	e := NewEntries(bundle.Config{Name: "a"}, bundle.Config{Name: "b"})
	e.Set("a", bundle.Config{Entry: "./a2.js"})
	e.Set("c", bundle.Config{})

	require.Equal(t, []string{"a", "b", "c"}, e.Names())
	require.Equal(t, 3, e.Len())
	a, ok := e.Get("a")
	require.True(t, ok)
	require.Equal(t, "./a2.js", a.Entry)
	require.Equal(t, "a", a.Name)
}

func TestEntriesGetReturnsCopy(t *testing.T) {
	e := NewEntries(bundle.Config{Name: "start", Rules: []bundle.Rule{{Test: "x"}}})
	got, _ := e.Get("start")
	got.Rules[0].Test = "changed"

	again, _ := e.Get("start")
	require.Equal(t, "x", again.Rules[0].Test)
}

func TestEntriesNamesIsCopy(t *testing.T) {
	e := NewEntries(bundle.Config{Name: "a"})
	names := e.Names()
	names[0] = "z"
	require.Equal(t, []string{"a"}, e.Names())
}

func TestEntriesYAMLRoundTripKeepsOrder(t *testing.T) {
	var doc struct {
		Entries Entries `yaml:"entries"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("entries:\n  c: {entry: c.js}\n  a: {entry: a.js}\n  b: {entry: b.js}\n"), &doc))
	require.Equal(t, []string{"c", "a", "b"}, doc.Entries.Names())

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)

	var back struct {
		Entries Entries `yaml:"entries"`
	}
	require.NoError(t, yaml.Unmarshal(out, &back))
	require.Equal(t, []string{"c", "a", "b"}, back.Entries.Names())
}

func TestEntriesNull(t *testing.T) {
	var doc struct {
		Entries Entries `yaml:"entries"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("entries:\n"), &doc))
	require.Equal(t, 0, doc.Entries.Len())
}
