package bundler

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
)

// metafile is the subset of esbuild's metafile read after a build.
type metafile struct {
	Inputs  map[string]struct{ Bytes int } `json:"inputs"`
	Outputs map[string]struct {
		Bytes      int    `json:"bytes"`
		EntryPoint string `json:"entryPoint,omitempty"`
	} `json:"outputs"`
}

func parseMetafile(raw string) (*metafile, error) {
	var m metafile
	if raw == "" {
		return &m, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// outputNames returns base names of emitted scripts and stylesheets, sorted.
func (m *metafile) outputNames() (scripts, styles []string) {
	for path := range m.Outputs {
		name := filepath.Base(path)
		switch {
		case strings.HasSuffix(name, ".js"):
			scripts = append(scripts, name)
		case strings.HasSuffix(name, ".css"):
			styles = append(styles, name)
		}
	}
	sort.Strings(scripts)
	sort.Strings(styles)
	return scripts, styles
}
