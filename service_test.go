package logfactory

import (
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietConfig() *Config {
	cfg := DefaultConfig()
	cfg.Transports = TransportConfig{"memory": {}}
	cfg.Diagnostics = &syncBuffer{}
	return cfg
}

func TestSetupRequiresCallback(t *testing.T) {
	assert.ErrorIs(t, Setup(quietConfig(), Imports{}, nil), ErrNilCallback)
}

func TestSetupCallsBackOnce(t *testing.T) {
	var calls int
	var got *Service
	err := Setup(quietConfig(), Imports{
		Transports: []Registration{{Type: newStubType("Custom"), Defaults: Options{"level": "debug"}}},
	}, func(err error, svc *Service) {
		calls++
		require.NoError(t, err)
		got = svc
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.NotNil(t, got)
	t.Cleanup(func() { _ = got.Close() })

	assert.True(t, got.Initialized())
	assert.Contains(t, got.Registry().Registered(), "Custom")
	assert.Equal(t, Options{"level": "debug"}, got.Registry().Defaults("custom"))

	l, err := got.Create("setup", "", TransportConfig{"custom": {}})
	require.NoError(t, err)
	tr, ok := l.Transport("custom")
	require.True(t, ok)
	assert.Equal(t, "Custom", tr.Name())
}

func TestSetupReportsInvalidConfig(t *testing.T) {
	cfg := quietConfig()
	cfg.DiagnosticLevel = "loud"

	var calls int
	err := Setup(cfg, Imports{}, func(err error, svc *Service) {
		calls++
		assert.Error(t, err)
		assert.Nil(t, svc)
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestSetupReportsInvalidImport(t *testing.T) {
	var calls int
	err := Setup(quietConfig(), Imports{
		Transports: []Registration{{Type: &TransportType{Name: "Broken"}}},
	}, func(err error, svc *Service) {
		calls++
		assert.ErrorIs(t, err, ErrInvalidTransportType)
		assert.Nil(t, svc)
	})
	assert.ErrorIs(t, err, ErrInvalidTransportType)
	assert.Equal(t, 1, calls)
}

func TestServiceInitializeIsIdempotent(t *testing.T) {
	svc := NewService(quietConfig())
	require.NoError(t, svc.Initialize())
	t.Cleanup(func() { _ = svc.Close() })

	f := svc.Factory()
	require.NoError(t, svc.Initialize())
	assert.Same(t, f, svc.Factory())
}

func TestServiceInitializeErrors(t *testing.T) {
	var nilSvc *Service
	assert.Error(t, nilSvc.Initialize())

	svc := NewService(nil)
	assert.Error(t, svc.Initialize())
	assert.False(t, svc.Initialized())

	_, err := svc.Create("x", "", nil)
	assert.Error(t, err)
}

func TestServiceCloseIsIdempotent(t *testing.T) {
	var nilSvc *Service
	assert.NoError(t, nilSvc.Close())

	svc := NewService(quietConfig())
	assert.NoError(t, svc.Close())

	require.NoError(t, svc.Initialize())
	l, err := svc.Create("closing", "", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Close())
	require.NoError(t, svc.Close())
	assert.False(t, svc.Initialized())
	assert.True(t, l.Closed())
}

func TestServiceNilTransportsUseDefault(t *testing.T) {
	cfg := quietConfig()
	cfg.Transports = nil
	svc := NewService(cfg)
	require.NoError(t, svc.Initialize())
	t.Cleanup(func() { _ = svc.Close() })

	assert.Equal(t, DefaultTransportConfig(), svc.Factory().DefaultTransports())
}

func TestServiceMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := quietConfig()
	cfg.Registerer = reg

	svc := NewService(cfg)
	require.NoError(t, svc.Initialize())
	t.Cleanup(func() { _ = svc.Close() })

	l, err := svc.Create("metered", "", nil)
	require.NoError(t, err)
	l.InfoWith().Msg("one")
	l.ErrorWith().Msg("two")

	m := svc.Metrics()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.loggers))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.built.WithLabelValues(MemoryName)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.events.WithLabelValues("info")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.events.WithLabelValues("error")))

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "logfactory_loggers")
	assert.Contains(t, names, "logfactory_events_total")

	second := NewService(&Config{Registerer: reg, Diagnostics: &syncBuffer{}})
	assert.Error(t, second.Initialize())
}

func TestServiceFailedInitializeReleasesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := quietConfig()
	cfg.Registerer = reg
	cfg.WatchConfig = true
	cfg.ConfigFile = filepath.Join(t.TempDir(), "missing", "logfactory.yaml")

	failed := NewService(cfg)
	require.Error(t, failed.Initialize())
	assert.False(t, failed.Initialized())

	retry := quietConfig()
	retry.Registerer = reg
	svc := NewService(retry)
	require.NoError(t, svc.Initialize())
	t.Cleanup(func() { _ = svc.Close() })
}

func TestServiceCloseReleasesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	for i := 0; i < 2; i++ {
		cfg := quietConfig()
		cfg.Registerer = reg
		svc := NewService(cfg)
		require.NoError(t, svc.Initialize(), "round %d", i)
		require.NoError(t, svc.Close())
	}
}

func TestNewMetricsConflictKeepsExistingCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	require.Error(t, err)

	first.setLoggers(3)
	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() == "logfactory_loggers" {
			found = true
		}
	}
	assert.True(t, found)
}
