package bundle

// Clone returns a deep copy of c. Nested slices, maps and option values are
// copied so the result shares no mutable state with c.
func (c Config) Clone() Config {
	out := Config{
		Name:    c.Name,
		Entry:   c.Entry,
		Prelude: c.Prelude,
	}
	if c.Output != nil {
		o := *c.Output
		out.Output = &o
	}
	if c.Rules != nil {
		out.Rules = make([]Rule, len(c.Rules))
		for i, r := range c.Rules {
			out.Rules[i] = r.Clone()
		}
	}
	if c.Plugins != nil {
		out.Plugins = make([]Plugin, len(c.Plugins))
		for i, p := range c.Plugins {
			out.Plugins[i] = p.Clone()
		}
	}
	if c.Extra != nil {
		out.Extra = cloneMap(c.Extra)
	}
	return out
}

// Clone returns a deep copy of r.
func (r Rule) Clone() Rule {
	out := Rule{Test: r.Test}
	if r.Use != nil {
		out.Use = make([]Loader, len(r.Use))
		for i, l := range r.Use {
			out.Use[i] = l.Clone()
		}
	}
	if r.Extract != nil {
		out.Extract = &Extraction{Fallback: r.Extract.Fallback.Clone()}
	}
	return out
}

// Clone returns a deep copy of l.
func (l Loader) Clone() Loader {
	out := Loader{Name: l.Name}
	if l.Options != nil {
		out.Options = make(map[string]string, len(l.Options))
		for k, v := range l.Options {
			out.Options[k] = v
		}
	}
	return out
}

// Clone returns a deep copy of p.
func (p Plugin) Clone() Plugin {
	out := Plugin{Kind: p.Kind}
	if p.Options != nil {
		out.Options = cloneMap(p.Options)
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	case map[string]string:
		m := make(map[string]string, len(t))
		for k, s := range t {
			m[k] = s
		}
		return m
	default:
		return v
	}
}
