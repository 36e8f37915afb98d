package logfactory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeOptions(t *testing.T) {
	base := Options{
		"level": "info",
		"http":  Options{"host": "localhost", "port": 80},
	}
	over := Options{
		"level": "debug",
		"http":  map[string]any{"port": 8080},
	}

	merged := mergeOptions(base, over)

	assert.Equal(t, "debug", merged["level"])
	assert.Equal(t, map[string]any{"host": "localhost", "port": 8080}, merged["http"])

	t.Run("inputs untouched", func(t *testing.T) {
		assert.Equal(t, "info", base["level"])
		assert.Equal(t, Options{"host": "localhost", "port": 80}, base["http"])
		assert.Equal(t, map[string]any{"port": 8080}, over["http"])
	})

	t.Run("nil sides", func(t *testing.T) {
		assert.Equal(t, Options{}, mergeOptions(nil, nil))
		assert.Equal(t, Options{"a": 1}, mergeOptions(Options{"a": 1}, nil))
		assert.Equal(t, Options{"a": 1}, mergeOptions(nil, Options{"a": 1}))
	})
}

func TestMergeTransportConfig(t *testing.T) {
	defaults := TransportConfig{
		"console": {"level": "info"},
		"file":    {"filename": "app.log"},
	}

	t.Run("deep merge", func(t *testing.T) {
		merged := mergeTransportConfig(defaults, TransportConfig{
			"console": {"level": "debug", "colorize": true},
			"memory":  {},
		})
		assert.Equal(t, TransportConfig{
			"console": {"level": "debug", "colorize": true},
			"file":    {"filename": "app.log"},
			"memory":  {},
		}, merged)
		assert.Equal(t, "info", defaults["console"]["level"])
	})

	t.Run("replace directive drops defaults", func(t *testing.T) {
		overrides := TransportConfig{"memory": {"capacity": 3}}.ReplaceDefaults()
		merged := mergeTransportConfig(defaults, overrides)
		assert.Equal(t, TransportConfig{"memory": {"capacity": 3}}, merged)
		_, hasDirective := overrides[MergeKey]
		assert.True(t, hasDirective)
	})

	t.Run("directive never survives a merge", func(t *testing.T) {
		merged := mergeTransportConfig(defaults, TransportConfig{MergeKey: {"strategy": "unknown"}})
		_, ok := merged[MergeKey]
		assert.False(t, ok)
		assert.Len(t, merged, 2)
	})
}

func TestStampLabel(t *testing.T) {
	cfg := TransportConfig{
		"console": nil,
		"file":    {"filename": "x.log", "label": "old"},
		MergeKey:  {MergeStrategyKey: MergeReplace},
	}
	stampLabel(cfg, "svc")

	assert.Equal(t, "svc", cfg["console"][LabelOption])
	assert.Equal(t, "svc", cfg["file"][LabelOption])
	assert.NotContains(t, cfg[MergeKey], LabelOption)

	before := cfg.Clone()
	stampLabel(cfg, "")
	assert.Equal(t, before, cfg)
}

func TestTransportConfigClone(t *testing.T) {
	orig := TransportConfig{"file": {"rotation": Options{"maxSizeMB": 5}}}
	clone := orig.Clone()
	require.Equal(t, map[string]any{"maxSizeMB": 5}, clone["file"]["rotation"])

	clone["file"]["rotation"].(map[string]any)["maxSizeMB"] = 10
	clone["file"]["extra"] = true

	assert.Equal(t, Options{"maxSizeMB": 5}, orig["file"]["rotation"])
	assert.NotContains(t, orig["file"], "extra")
	assert.Equal(t, "", orig.Strategy())
	assert.Equal(t, MergeReplace, orig.ReplaceDefaults().Strategy())
}
