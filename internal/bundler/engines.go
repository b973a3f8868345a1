package bundler

import (
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

var engineNames = map[string]api.EngineName{
	"chrome":   api.EngineChrome,
	"and_chr":  api.EngineChrome,
	"edge":     api.EngineEdge,
	"firefox":  api.EngineFirefox,
	"ff":       api.EngineFirefox,
	"ie":       api.EngineIE,
	"explorer": api.EngineIE,
	"ios":      api.EngineIOS,
	"ios_saf":  api.EngineIOS,
	"opera":    api.EngineOpera,
	"safari":   api.EngineSafari,
	"node":     api.EngineNode,
	"and_ff":   api.EngineFirefox,
}

var versionTerm = regexp.MustCompile(`^([A-Za-z_]+)\s*>=?\s*([0-9]+(?:\.[0-9]+){0,2})$`)

// ParseEngines maps the "name >= version" terms of a browser compatibility
// query to esbuild engines. Other terms ("last 2 versions", "> 1%") have no
// engine equivalent and are returned in ignored. When a browser appears
// more than once the lowest version wins.
func ParseEngines(query string) (engines []api.Engine, ignored []string) {
	index := make(map[api.EngineName]int)
	for _, term := range strings.Split(query, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		m := versionTerm.FindStringSubmatch(term)
		if m == nil {
			ignored = append(ignored, term)
			continue
		}
		name, ok := engineNames[strings.ToLower(m[1])]
		if !ok {
			ignored = append(ignored, term)
			continue
		}
		if i, seen := index[name]; seen {
			if compareVersions(m[2], engines[i].Version) < 0 {
				engines[i].Version = m[2]
			}
			continue
		}
		index[name] = len(engines)
		engines = append(engines, api.Engine{Name: name, Version: m[2]})
	}
	return engines, ignored
}

func compareVersions(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		x, y := 0, 0
		if i < len(as) {
			x = atoi(as[i])
		}
		if i < len(bs) {
			y = atoi(bs[i])
		}
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	return 0
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}
