package logfactory

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryCreate(t *testing.T) {
	svc, _ := newTestService(t, TransportConfig{"memory": {"capacity": 10}})
	f := svc.Factory()

	t.Run("category is required", func(t *testing.T) {
		l, err := f.Create("", "label", nil)
		require.ErrorIs(t, err, ErrCategoryRequired)
		assert.Nil(t, l)
		assert.Equal(t, 0, svc.Container().Len())
	})

	t.Run("defaults only", func(t *testing.T) {
		l, err := f.Create("plain", "", nil)
		require.NoError(t, err)

		transports := l.Transports()
		require.Len(t, transports, 1)
		assert.Equal(t, Options{"capacity": 10}, transports["memory"].Options())
		assert.Equal(t, "", l.Label())
		assert.Equal(t, "plain", l.Category())
	})

	t.Run("label on every transport", func(t *testing.T) {
		l, err := f.Create("labeled", "svc-prefix", TransportConfig{"console": {"silent": true}})
		require.NoError(t, err)

		transports := l.Transports()
		require.Len(t, transports, 2)
		for name, tr := range transports {
			assert.Equal(t, "svc-prefix", tr.Label(), name)
		}
		assert.Equal(t, "svc-prefix", l.Label())
	})

	t.Run("overrides do not leak into defaults", func(t *testing.T) {
		_, err := f.Create("override", "x", TransportConfig{"memory": {"capacity": 1}})
		require.NoError(t, err)
		assert.Equal(t, TransportConfig{"memory": {"capacity": 10}}, f.DefaultTransports())
	})

	t.Run("replace directive", func(t *testing.T) {
		l, err := f.Create("replaced", "", TransportConfig{"console": {"silent": true}}.ReplaceDefaults())
		require.NoError(t, err)
		transports := l.Transports()
		assert.Len(t, transports, 1)
		assert.Contains(t, transports, "console")
	})
}

func TestFactoryCreateTwiceUpdatesInPlace(t *testing.T) {
	svc, _ := newTestService(t, TransportConfig{"memory": {}})
	f := svc.Factory()

	first, err := f.Create("svc", "one", nil)
	require.NoError(t, err)
	oldMem := memoryTransport(t, first, "memory")

	second, err := f.Create("svc", "two", TransportConfig{"memory": {"level": "debug"}})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, first.ID(), second.ID())
	got, ok := f.Get("svc")
	require.True(t, ok)
	assert.Same(t, second, got)

	assert.Equal(t, "two", second.Label())
	newMem := memoryTransport(t, second, "memory")
	assert.NotSame(t, oldMem, newMem)
	assert.True(t, oldMem.Closed())
	assert.Equal(t, zerolog.DebugLevel, newMem.Level())
	assert.Equal(t, 1, svc.Container().Len())
}

func TestCreateChild(t *testing.T) {
	svc, _ := newTestService(t, TransportConfig{"memory": {}})
	f := svc.Factory()

	parent, err := f.Create("someParentLogger", "parent", TransportConfig{"memory": {"level": "trace"}})
	require.NoError(t, err)

	child, err := parent.CreateChild("prefix2")
	require.NoError(t, err)

	assert.Equal(t, "parent:prefix2", child.Label())
	assert.Equal(t, "someParentLoggerprefix2", child.Category())
	for name, tr := range child.Transports() {
		assert.Equal(t, "parent:prefix2", tr.Label(), name)
	}

	t.Run("child uses current defaults only", func(t *testing.T) {
		assert.Equal(t, zerolog.InfoLevel, memoryTransport(t, child, "memory").Level())
	})

	t.Run("grandchild", func(t *testing.T) {
		grandchild, err := child.CreateChild("leaf")
		require.NoError(t, err)
		assert.Equal(t, "parent:prefix2:leaf", grandchild.Label())
		assert.Equal(t, "someParentLoggerprefix2Leaf", grandchild.Category())
		assert.True(t, svc.Container().Has(grandchild.Category()))
	})

	t.Run("child category casing", func(t *testing.T) {
		tests := []struct {
			parent, child, want string
		}{
			{"HTTPApi", "worker", "httpapiworker"},
			{"billing-api", "refunds", "billingApirefunds"},
			{"jobs_v2", "retry", "jobsV2Retry"},
		}
		for _, tt := range tests {
			p, err := f.Create(tt.parent, "", nil)
			require.NoError(t, err)
			c, err := p.CreateChild(tt.child)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Category(), tt.parent+"+"+tt.child)
		}
	})

	t.Run("parent without label", func(t *testing.T) {
		unlabeled, err := f.Create("unlabeled", "", nil)
		require.NoError(t, err)
		c, err := unlabeled.CreateChild("worker")
		require.NoError(t, err)
		assert.Equal(t, "worker", c.Label())
	})

	t.Run("label is required", func(t *testing.T) {
		_, err := parent.CreateChild("")
		require.ErrorIs(t, err, ErrLabelRequired)
	})
}

func TestFactoryDestroy(t *testing.T) {
	svc, _ := newTestService(t, TransportConfig{"memory": {}})
	f := svc.Factory()

	first, err := f.Create("svc", "", TransportConfig{"memory": {"level": "error"}})
	require.NoError(t, err)
	mem := memoryTransport(t, first, "memory")

	require.NoError(t, f.Destroy("svc"))
	_, ok := f.Get("svc")
	assert.False(t, ok)
	assert.True(t, first.Closed())
	assert.True(t, mem.Closed())

	fresh, err := f.Create("svc", "", nil)
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)
	assert.NotEqual(t, first.ID(), fresh.ID())
	assert.Equal(t, zerolog.InfoLevel, memoryTransport(t, fresh, "memory").Level())

	t.Run("stale handle leaves newer logger alone", func(t *testing.T) {
		require.NoError(t, first.Destroy())
		got, ok := f.Get("svc")
		require.True(t, ok)
		assert.Same(t, fresh, got)
		assert.False(t, fresh.Closed())
	})

	t.Run("handle destroy", func(t *testing.T) {
		require.NoError(t, fresh.Destroy())
		assert.False(t, svc.Container().Has("svc"))
		require.NoError(t, fresh.Destroy())
	})

	t.Run("category is required", func(t *testing.T) {
		require.ErrorIs(t, f.Destroy(""), ErrCategoryRequired)
	})

	t.Run("unknown category", func(t *testing.T) {
		require.NoError(t, f.Destroy("missing"))
	})
}

func TestDefaultTransportsSharedReference(t *testing.T) {
	svc, _ := newTestService(t, TransportConfig{"memory": {}})
	f := svc.Factory()

	defaults := f.DefaultTransports()
	defaults["console"] = Options{"silent": true}

	l, err := f.Create("shared", "", nil)
	require.NoError(t, err)
	assert.Len(t, l.Transports(), 2)

	next := TransportConfig{"memory": {"capacity": 1}}
	f.SetDefaultTransports(next)
	next["memory"]["capacity"] = 5
	assert.Equal(t, 5, f.DefaultTransports()["memory"]["capacity"])
}

func TestEndToEndConsoleLabel(t *testing.T) {
	var out bytes.Buffer
	svc, _ := newTestService(t, TransportConfig{"console": {}})
	require.NoError(t, svc.Registry().Register(NewConsoleType(&out, &out), nil))

	l, err := svc.Factory().Create("svc", "svc-prefix", nil)
	require.NoError(t, err)

	tr, ok := l.Transport("console")
	require.True(t, ok)
	console, ok := tr.(*ConsoleTransport)
	require.True(t, ok)

	assert.Equal(t, "svc-prefix", console.Label())
	assert.Equal(t, "info", console.Config().Level)
	assert.Equal(t, zerolog.InfoLevel, console.Level())

	l.InfoWith().Str("k", "v").Msg("hello")
	l.DebugWith().Msg("hidden")
	assert.Contains(t, out.String(), "[svc-prefix] hello")
	assert.Contains(t, out.String(), "k=v")
	assert.NotContains(t, out.String(), "hidden")
	assert.NotContains(t, out.String(), "label=")
}
