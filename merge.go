package logfactory

import (
	"github.com/knadh/koanf/maps"
)

// koanf's maps helpers only descend into plain map[string]any values, so the
// named Options type is flattened to plain maps before any merge or copy.

func plain(v any) any {
	switch m := v.(type) {
	case Options:
		return plainMap(m)
	case map[string]any:
		return plainMap(m)
	default:
		return v
	}
}

func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plain(v)
	}
	return out
}

func cloneTree(m map[string]any) map[string]any {
	if len(m) == 0 {
		return map[string]any{}
	}
	return maps.Copy(m)
}

func toTree(c TransportConfig) map[string]any {
	out := make(map[string]any, len(c))
	for name, opts := range c {
		out[name] = plainMap(opts)
	}
	return out
}

func fromTree(m map[string]any) TransportConfig {
	out := make(TransportConfig, len(m))
	for name, v := range m {
		switch opts := v.(type) {
		case map[string]any:
			out[name] = Options(opts)
		case Options:
			out[name] = opts
		default:
			out[name] = Options{}
		}
	}
	return out
}

// mergeOptions deep-merges over on top of base. Neither argument is modified
// and values in over win on conflicting keys.
func mergeOptions(base, over Options) Options {
	merged := cloneTree(plainMap(base))
	maps.Merge(cloneTree(plainMap(over)), merged)
	return Options(merged)
}

// mergeTransportConfig deep-merges overrides on top of a clone of defaults.
// An override set carrying the replace directive is used on its own.
func mergeTransportConfig(defaults, overrides TransportConfig) TransportConfig {
	var merged map[string]any
	if overrides.Strategy() == MergeReplace {
		merged = cloneTree(toTree(overrides))
	} else {
		merged = cloneTree(toTree(defaults))
		maps.Merge(cloneTree(toTree(overrides)), merged)
	}
	delete(merged, MergeKey)
	return fromTree(merged)
}

// stampLabel sets label on every transport entry of c. An empty label is a no-op.
func stampLabel(c TransportConfig, label string) {
	if label == emptyString {
		return
	}
	for name, opts := range c {
		if name == MergeKey {
			continue
		}
		if opts == nil {
			opts = Options{}
			c[name] = opts
		}
		opts[LabelOption] = label
	}
}
