package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phanxgames/bramble"
)

func TestObserverRecordsFrames(t *testing.T) {
	reg := prometheus.NewRegistry()
	o, err := New(Config{Registerer: reg, ConstLabels: map[string]string{"profile": "vertical"}})
	require.NoError(t, err)

	o.ObserveFrame(bramble.FrameStats{
		Frame: 1, Trees: 17, Segments: 40, Drawn: 38, FieldRects: 3, Alpha: 1,
		Tick:       bramble.TickStats{Created: 5, Completed: 2, Bursts: 1},
		UpdateTime: time.Millisecond,
	})
	o.ObserveFrame(bramble.FrameStats{
		Frame: 2, Trees: 17, Dormant: 2, Segments: 44, FieldRefreshed: true,
		Phase: bramble.PhaseReceding, Alpha: 0.5,
		Tick: bramble.TickStats{Created: 4, Dropped: 1},
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(o.frames))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.fieldRefreshes))
	assert.Equal(t, 44.0, testutil.ToFloat64(o.segments))
	assert.Equal(t, 2.0, testutil.ToFloat64(o.dormant))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.receding))
	assert.Equal(t, 0.5, testutil.ToFloat64(o.alpha))
	assert.Equal(t, 9.0, testutil.ToFloat64(o.segmentEvents.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.segmentEvents.WithLabelValues("dropped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.segmentEvents.WithLabelValues("burst")))

	n, err := testutil.GatherAndCount(reg, "bramble_frame_update_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestObserverLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	o, err := New(Config{Registerer: reg, Namespace: "test"})
	require.NoError(t, err)

	o.ObserveLifecycle(bramble.LifecycleInit)
	o.ObserveLifecycle(bramble.LifecycleStop)
	o.ObserveLifecycle(bramble.LifecycleInit)

	expected := `
# HELP test_driver_lifecycle_events_total Driver lifecycle transitions.
# TYPE test_driver_lifecycle_events_total counter
test_driver_lifecycle_events_total{event="init"} 2
test_driver_lifecycle_events_total{event="stop"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_driver_lifecycle_events_total"))
}

func TestNewReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := New(Config{Registerer: reg})
	require.NoError(t, err)
	b, err := New(Config{Registerer: reg})
	require.NoError(t, err)

	a.ObserveFrame(bramble.FrameStats{})
	b.ObserveFrame(bramble.FrameStats{})
	assert.Equal(t, 2.0, testutil.ToFloat64(a.frames))
}

func TestObserverWithDriver(t *testing.T) {
	reg := prometheus.NewRegistry()
	o, err := New(Config{Registerer: reg})
	require.NoError(t, err)

	cfg := bramble.DefaultConfig()
	cfg.Seed = 11
	cfg.MaxRunTime = 0
	cfg.Observer = o
	h := bramble.NewHeadless(cfg, &bramble.StaticEnvironment{Width: 1280, Height: 720})
	require.True(t, h.Driver.Init())
	_, err = h.Run(t.Context(), 30, nil)
	require.NoError(t, err)

	assert.Equal(t, 30.0, testutil.ToFloat64(o.frames))
	assert.Equal(t, 17.0, testutil.ToFloat64(o.trees))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.lifecycle.WithLabelValues("init")))
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	o, err := New(Config{Registerer: reg})
	require.NoError(t, err)
	o.ObserveFrame(bramble.FrameStats{Trees: 3})

	path := filepath.Join(t.TempDir(), "bramble.prom")
	require.NoError(t, WriteTextfile(path, reg))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bramble_driver_trees 3")
}
