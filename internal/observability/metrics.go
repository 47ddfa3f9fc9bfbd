package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ent0n29/callcoach/internal/insight"
)

// Stages observed outside the insight pipeline.
const (
	StageTranscription = "transcription"
	StagePhase         = "phase_classification"
	StageChunkTotal    = "chunk_total"
)

// Metrics groups all Prometheus instruments used by the service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	ActiveSessions     prometheus.Gauge
	SessionEvents      *prometheus.CounterVec
	WSMessages         *prometheus.CounterVec
	Decisions          *prometheus.CounterVec
	RelevanceScore     prometheus.Histogram
	StageLatency       *prometheus.HistogramVec
	CollaboratorErrors *prometheus.CounterVec

	stages *stageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live call sessions.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insight_decisions_total",
			Help:      "Insight pipeline outcomes by reason.",
		}, []string{"reason"}),
		RelevanceScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "relevance_score",
			Help:      "Relevance score of evaluated conversation tails.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		StageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_latency_ms",
			Help:      "Latency of processing stages in milliseconds.",
			Buckets:   []float64{1, 5, 25, 100, 250, 500, 1000, 2000, 4000},
		}, []string{"stage"}),
		CollaboratorErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_errors_total",
			Help:      "Failed calls to external collaborators by name.",
		}, []string{"collaborator"}),
		stages: newStageWindow(256),
	}
}

// ObserveStage implements insight.Observer.
func (m *Metrics) ObserveStage(stage insight.Stage, d time.Duration) {
	m.ObserveDuration(string(stage), d)
}

// ObserveOutcome implements insight.Observer.
func (m *Metrics) ObserveOutcome(o insight.Outcome) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(string(o.Reason)).Inc()
	m.RelevanceScore.Observe(float64(o.Relevance.Score))
	m.stages.ObserveIndicator(string(o.Reason))
}

// ObserveDuration records a stage latency in the histogram and the window.
func (m *Metrics) ObserveDuration(stage string, d time.Duration) {
	if m == nil {
		return
	}
	ms := float64(d.Microseconds()) / 1000
	m.StageLatency.WithLabelValues(stage).Observe(ms)
	m.stages.Observe(stage, ms)
}

// Indicate counts a named event in the perf window, e.g. no_speech.
func (m *Metrics) Indicate(name string) {
	if m == nil {
		return
	}
	m.stages.ObserveIndicator(name)
}

func (m *Metrics) CollaboratorFailed(name string) {
	if m == nil {
		return
	}
	m.CollaboratorErrors.WithLabelValues(name).Inc()
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
	m.SessionEvents.WithLabelValues("started").Inc()
}

func (m *Metrics) SessionEnded(expired bool) {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
	event := "ended"
	if expired {
		event = "expired"
	}
	m.SessionEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) WSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// SnapshotStages returns the rolling latency window.
func (m *Metrics) SnapshotStages() StageSnapshot {
	if m == nil {
		return StageSnapshot{Stages: []StageStats{}}
	}
	return m.stages.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
