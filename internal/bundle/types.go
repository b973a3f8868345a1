package bundle

import (
	"sort"
	"strings"
)

// PluginKind identifies a plugin descriptor understood by the bundler invoker.
type PluginKind string

const (
	PluginHTML            PluginKind = "html"
	PluginDefine          PluginKind = "define"
	PluginDedupe          PluginKind = "dedupe"
	PluginOccurrenceOrder PluginKind = "occurrence-order"
	PluginMinify          PluginKind = "minify"
	PluginExtractCSS      PluginKind = "extract-css"
	PluginBanner          PluginKind = "banner"
)

// LoaderPaths names the loaders used to build the injected style chains.
type LoaderPaths struct {
	Style        string `yaml:"style"`
	CSS          string `yaml:"css"`
	Autoprefixer string `yaml:"autoprefixer"`
	Sass         string `yaml:"sass"`
}

// Missing returns the names of loaders without a configured path, in a fixed order.
func (p LoaderPaths) Missing() []string {
	var missing []string
	for _, l := range []struct{ name, value string }{
		{"autoprefixer", p.Autoprefixer},
		{"css", p.CSS},
		{"sass", p.Sass},
		{"style", p.Style},
	} {
		if strings.TrimSpace(l.value) == "" {
			missing = append(missing, l.name)
		}
	}
	return missing
}

// Loader is a single processing stage of a rule's chain.
type Loader struct {
	Name    string            `yaml:"name"`
	Options map[string]string `yaml:"options,omitempty"`
}

// String renders the loader in query form, e.g. "sass-loader?sourceMap=true".
// Option keys are sorted.
func (l Loader) String() string {
	if len(l.Options) == 0 {
		return l.Name
	}
	keys := make([]string, 0, len(l.Options))
	for k := range l.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+l.Options[k])
	}
	return l.Name + "?" + strings.Join(parts, "&")
}

// Extraction marks a rule whose processed output is written to a separate
// stylesheet. Fallback is used for chunks the extractor does not capture.
type Extraction struct {
	Fallback Loader `yaml:"fallback"`
}

// Rule applies an ordered loader chain to files whose path matches Test.
type Rule struct {
	Test    string      `yaml:"test"`
	Use     []Loader    `yaml:"use,omitempty"`
	Extract *Extraction `yaml:"extract,omitempty"`
}

// Chain renders the loader chain the way bundler loader strings are written.
func (r Rule) Chain() string {
	names := make([]string, 0, len(r.Use))
	for _, l := range r.Use {
		names = append(names, l.String())
	}
	chain := strings.Join(names, "!")
	if r.Extract != nil {
		return "extract(" + r.Extract.Fallback.String() + ", " + chain + ")"
	}
	return chain
}

// HasLoader reports whether the chain contains a loader with the given name.
func (r Rule) HasLoader(name string) bool {
	for _, l := range r.Use {
		if l.Name == name {
			return true
		}
	}
	return false
}

// Plugin is an ordered plugin descriptor with free-form options.
type Plugin struct {
	Kind    PluginKind     `yaml:"kind"`
	Options map[string]any `yaml:"options,omitempty"`
}

// String option accessor; missing or non-string values yield "".
func (p Plugin) String(key string) string {
	if v, ok := p.Options[key].(string); ok {
		return v
	}
	return ""
}

// Bool option accessor; missing or non-bool values yield false.
func (p Plugin) Bool(key string) bool {
	if v, ok := p.Options[key].(bool); ok {
		return v
	}
	return false
}

// Output holds where and how bundle files are written.
type Output struct {
	Path       string `yaml:"path,omitempty"`
	Filename   string `yaml:"filename,omitempty"`
	PublicPath string `yaml:"public_path,omitempty"`
}

// Config is the bundler configuration of one entry point.
//
// Name is the entry-point name (filled from the entry map key), Prelude is
// source text prepended to the entry module before bundling. Unknown keys
// of the project file are kept in Extra and passed through untouched.
type Config struct {
	Name    string         `yaml:"-"`
	Entry   string         `yaml:"entry,omitempty"`
	Prelude string         `yaml:"-"`
	Output  *Output        `yaml:"output,omitempty"`
	Rules   []Rule         `yaml:"rules,omitempty"`
	Plugins []Plugin       `yaml:"plugins,omitempty"`
	Extra   map[string]any `yaml:",inline"`
}

// FindPlugin returns the first plugin of the given kind.
func (c Config) FindPlugin(kind PluginKind) (Plugin, bool) {
	for _, p := range c.Plugins {
		if p.Kind == kind {
			return p, true
		}
	}
	return Plugin{}, false
}
