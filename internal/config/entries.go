package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/webbuilder/internal/bundle"
)

// Entries maps entry-point names to bundle configurations and remembers
// declaration order. Production builds iterate entries in this order.
type Entries struct {
	order  []string
	byName map[string]bundle.Config
}

// NewEntries builds an Entries value from configurations in order; the
// configuration's Name is used as the key.
func NewEntries(cfgs ...bundle.Config) Entries {
	var e Entries
	for _, cfg := range cfgs {
		e.Set(cfg.Name, cfg)
	}
	return e
}

// Set adds or replaces an entry. New names are appended to the order.
func (e *Entries) Set(name string, cfg bundle.Config) {
	if e.byName == nil {
		e.byName = make(map[string]bundle.Config)
	}
	if _, exists := e.byName[name]; !exists {
		e.order = append(e.order, name)
	}
	cfg = cfg.Clone()
	cfg.Name = name
	e.byName[name] = cfg
}

// Get returns a copy of the named entry.
func (e Entries) Get(name string) (bundle.Config, bool) {
	cfg, ok := e.byName[name]
	if !ok {
		return bundle.Config{}, false
	}
	return cfg.Clone(), true
}

// Has reports whether name is configured.
func (e Entries) Has(name string) bool {
	_, ok := e.byName[name]
	return ok
}

// Names returns entry names in declaration order.
func (e Entries) Names() []string {
	return append([]string(nil), e.order...)
}

// Len returns the number of entries.
func (e Entries) Len() int { return len(e.order) }

// UnmarshalYAML decodes a mapping node while keeping key order.
func (e *Entries) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: entries must be a mapping of name to bundle configuration", node.Line)
	}
	out := Entries{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		var cfg bundle.Config
		if err := value.Decode(&cfg); err != nil {
			return fmt.Errorf("entry %q: %w", key.Value, err)
		}
		out.Set(key.Value, cfg)
	}
	*e = out
	return nil
}

// MarshalYAML encodes entries as an ordered mapping.
func (e Entries) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, name := range e.order {
		var value yaml.Node
		if err := value.Encode(e.byName[name]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			&value,
		)
	}
	return node, nil
}
