package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const DefaultNamespace = "levelgym"

type Manager struct {
	// counters
	CounterCommands        *prometheus.CounterVec
	CounterUnlocks         *prometheus.CounterVec
	CounterLevelUps        prometheus.Counter
	CounterXPAwarded       prometheus.Counter
	CounterPersistWrites   *prometheus.CounterVec
	CounterPersistCoalesce prometheus.Counter
	CounterRequests        *prometheus.CounterVec

	// gauges
	GaugeExercises prometheus.Gauge
	GaugeSessions  prometheus.Gauge

	// histograms
	HistPersistDuration prometheus.Histogram
	HistRequestDuration prometheus.Histogram
}

// Discard returns a Manager registered on a private registry nobody scrapes.
func Discard() *Manager {
	return NewManager(DefaultNamespace, "discard", prometheus.NewRegistry())
}

func NewTestManager() *Manager {
	return NewManager(DefaultNamespace, "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager(DefaultNamespace, "test", reg), reg
}

// SetupPrometheus returns a registry with the Go runtime, process and build
// info collectors plus any extra collectors given.
func SetupPrometheus(extra ...prometheus.Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, c := range extra {
		reg.MustRegister(c)
	}
	return reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterCommands := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "commands_total",
		Help:      "Commands dispatched to the progression store",
	}, []string{"command", "outcome"})
	counterUnlocks := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "achievements_unlocked_total",
		Help:      "Achievements unlocked",
	}, []string{"achievement"})
	counterLevelUps := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "level_ups_total",
		Help:      "Exercise level-ups",
	})
	counterXPAwarded := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "xp_awarded_total",
		Help:      "XP awarded for completed sets",
	})
	counterPersistWrites := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "persist_writes_total",
		Help:      "Snapshot writes to the blob store",
	}, []string{"op", "result"})
	counterPersistCoalesce := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "persist_coalesced_total",
		Help:      "Pending snapshot writes replaced by a newer one before being written",
	})
	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "requests_total",
		Help:      "HTTP requests served",
	}, []string{"method", "status"})

	gaugeExercises := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "exercises",
		Help:      "Exercises currently tracked",
	})
	gaugeSessions := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sessions",
		Help:      "Workout sessions logged",
	})

	histPersistDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "persist_duration_seconds",
		Help:      "Duration of a single snapshot write",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
	histRequestDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests",
		Buckets:   prometheus.DefBuckets,
	})

	return &Manager{
		CounterCommands:        counterCommands,
		CounterUnlocks:         counterUnlocks,
		CounterLevelUps:        counterLevelUps,
		CounterXPAwarded:       counterXPAwarded,
		CounterPersistWrites:   counterPersistWrites,
		CounterPersistCoalesce: counterPersistCoalesce,
		CounterRequests:        counterRequests,
		GaugeExercises:         gaugeExercises,
		GaugeSessions:          gaugeSessions,
		HistPersistDuration:    histPersistDuration,
		HistRequestDuration:    histRequestDuration,
	}
}
