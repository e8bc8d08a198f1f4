package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Call kinds.
const (
	KindBase = "base"
	KindDay  = "day"
	KindChat = "chat"
)

// Call outcomes.
const (
	OutcomeOK              = "ok"
	OutcomeGenerationError = "generation_error"
	OutcomeParseFailure    = "parse_failure"
)

var (
	generationCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitai",
		Subsystem: "generation",
		Name:      "calls_total",
		Help:      "Text generation calls by kind and outcome.",
	}, []string{"kind", "outcome"})

	planDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fitai",
		Subsystem: "generation",
		Name:      "plan_duration_seconds",
		Help:      "Wall time to generate a full diet plan or week.",
		Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120, 300},
	})

	plansPersisted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitai",
		Subsystem: "persistence",
		Name:      "plans_persisted_total",
		Help:      "Diet plans written to the plan store.",
	})

	eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitai",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Plan events handed to the broker, by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(generationCalls, planDuration, plansPersisted, eventsPublished)
}

// RecordGeneration counts one generation call.
func RecordGeneration(kind, outcome string) {
	generationCalls.WithLabelValues(kind, outcome).Inc()
}

// ObservePlanDuration records how long a plan took from first prompt to assembly.
func ObservePlanDuration(d time.Duration) {
	planDuration.Observe(d.Seconds())
}

func RecordPlanPersisted() {
	plansPersisted.Inc()
}

// RecordEventPublished counts a publish attempt; ok is false when the broker rejected it.
func RecordEventPublished(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	eventsPublished.WithLabelValues(result).Inc()
}
