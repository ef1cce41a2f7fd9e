// Package metrics exports bramble frame statistics as Prometheus metrics.
//
// An Observer is plugged into bramble.Config.Observer. Nothing is served
// over the network: gather the registry or write it to a text file for the
// node exporter's textfile collector.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/phanxgames/bramble"
)

const defaultNamespace = "bramble"

// Config contains metrics configuration.
type Config struct {
	// Namespace prefixes every metric. Empty means "bramble".
	Namespace string
	// ConstLabels are added to every metric.
	ConstLabels map[string]string
	// Registerer receives the collectors. Nil uses prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// Observer records driver frames and lifecycle events.
type Observer struct {
	frames         prometheus.Counter
	fieldRefreshes prometheus.Counter
	segmentEvents  *prometheus.CounterVec
	lifecycle      *prometheus.CounterVec

	trees      prometheus.Gauge
	dormant    prometheus.Gauge
	segments   prometheus.Gauge
	drawn      prometheus.Gauge
	fieldRects prometheus.Gauge
	alpha      prometheus.Gauge
	receding   prometheus.Gauge

	updateSeconds prometheus.Histogram
	drawSeconds   prometheus.Histogram
}

var _ bramble.Observer = (*Observer)(nil)

// tickBuckets cover 50µs to about 100ms; a frame budget is 16ms.
var tickBuckets = prometheus.ExponentialBuckets(0.00005, 2, 12)

// New creates an Observer and registers its collectors. Collectors that are
// already registered are reused, so tests can create several observers on
// one registry.
func New(cfg Config) (*Observer, error) {
	registerer := cfg.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = defaultNamespace
	}
	labels := prometheus.Labels(cfg.ConstLabels)

	counter := func(sub, name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: name, Help: help, ConstLabels: labels,
		})
	}
	gauge := func(sub, name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub, Name: name, Help: help, ConstLabels: labels,
		})
	}
	histogram := func(name, help string) prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: "frame", Name: name, Help: help,
			Buckets: tickBuckets, ConstLabels: labels,
		})
	}

	o := &Observer{
		frames:         counter("frame", "total", "Frames ticked by the driver."),
		fieldRefreshes: counter("field", "refreshes_total", "Periodic collision field rebuilds."),
		segmentEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "tree",
			Name:        "segment_events_total",
			Help:        "Segment events summed over all trees.",
			ConstLabels: labels,
		}, []string{"event"}),
		lifecycle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "driver",
			Name:        "lifecycle_events_total",
			Help:        "Driver lifecycle transitions.",
			ConstLabels: labels,
		}, []string{"event"}),
		trees:         gauge("driver", "trees", "Trees in the current layout."),
		dormant:       gauge("driver", "dormant_trees", "Trees that stopped growing."),
		segments:      gauge("driver", "segments", "Segments over all trees."),
		drawn:         gauge("frame", "drawn_segments", "Segments drawn in the last frame."),
		fieldRects:    gauge("field", "rects", "Rectangles in the collision field."),
		alpha:         gauge("frame", "alpha", "Draw alpha of the last frame."),
		receding:      gauge("driver", "receding", "1 while the recession phase is active."),
		updateSeconds: histogram("update_seconds", "Time spent updating trees per frame."),
		drawSeconds:   histogram("draw_seconds", "Time spent drawing per frame."),
	}

	collectors := []prometheus.Collector{
		o.frames, o.fieldRefreshes, o.segmentEvents, o.lifecycle,
		o.trees, o.dormant, o.segments, o.drawn, o.fieldRects, o.alpha, o.receding,
		o.updateSeconds, o.drawSeconds,
	}
	for i, c := range collectors {
		if err := registerer.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, fmt.Errorf("register collector %d: %w", i, err)
			}
			collectors[i] = are.ExistingCollector
		}
	}
	o.rebind(collectors)
	return o, nil
}

// rebind points the observer at collectors that were registered earlier.
func (o *Observer) rebind(cs []prometheus.Collector) {
	o.frames = cs[0].(prometheus.Counter)
	o.fieldRefreshes = cs[1].(prometheus.Counter)
	o.segmentEvents = cs[2].(*prometheus.CounterVec)
	o.lifecycle = cs[3].(*prometheus.CounterVec)
	o.trees = cs[4].(prometheus.Gauge)
	o.dormant = cs[5].(prometheus.Gauge)
	o.segments = cs[6].(prometheus.Gauge)
	o.drawn = cs[7].(prometheus.Gauge)
	o.fieldRects = cs[8].(prometheus.Gauge)
	o.alpha = cs[9].(prometheus.Gauge)
	o.receding = cs[10].(prometheus.Gauge)
	o.updateSeconds = cs[11].(prometheus.Histogram)
	o.drawSeconds = cs[12].(prometheus.Histogram)
}

// ObserveFrame records one tick.
func (o *Observer) ObserveFrame(st bramble.FrameStats) {
	o.frames.Inc()
	if st.FieldRefreshed {
		o.fieldRefreshes.Inc()
	}
	tick := st.Tick
	for _, ev := range []struct {
		name string
		n    int
	}{
		{"created", tick.Created},
		{"dropped", tick.Dropped},
		{"completed", tick.Completed},
		{"blocked", tick.Blocked},
		{"recovered", tick.Recovered},
		{"burst", tick.Bursts},
	} {
		if ev.n > 0 {
			o.segmentEvents.WithLabelValues(ev.name).Add(float64(ev.n))
		}
	}

	o.trees.Set(float64(st.Trees))
	o.dormant.Set(float64(st.Dormant))
	o.segments.Set(float64(st.Segments))
	o.drawn.Set(float64(st.Drawn))
	o.fieldRects.Set(float64(st.FieldRects))
	o.alpha.Set(st.Alpha)
	if st.Phase == bramble.PhaseReceding {
		o.receding.Set(1)
	} else {
		o.receding.Set(0)
	}
	o.updateSeconds.Observe(st.UpdateTime.Seconds())
	o.drawSeconds.Observe(st.DrawTime.Seconds())
}

// ObserveLifecycle counts a lifecycle transition.
func (o *Observer) ObserveLifecycle(e bramble.LifecycleEvent) {
	o.lifecycle.WithLabelValues(e.String()).Inc()
}

// WriteTextfile writes every metric of g to path in the Prometheus text
// format. The file is replaced atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
