package observability

import (
	"time"

	"github.com/boddenberg/cleverbot-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Ask outcomes used as label values.
const (
	OutcomeSuccess   = "success"
	OutcomeRejected  = "rejected"
	OutcomeDenied    = "denied"
	OutcomeTransport = "transport_error"
	OutcomeCircuit   = "circuit_open"
)

// Metrics holds all Prometheus metrics for the chat service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	askDuration   *prometheus.HistogramVec
	asksTotal     *prometheus.CounterVec
	conversations prometheus.Gauge
	dialogues     prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		askDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cleverbot_ask_duration_seconds",
				Help:    "Duration of ask turns by outcome.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		asksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cleverbot_asks_total",
				Help: "Total ask turns by outcome.",
			},
			[]string{"outcome"},
		),
		conversations: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cleverbot_active_conversations",
				Help: "Conversations currently held in memory.",
			},
		),
		dialogues: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cleverbot_dialogues_total",
				Help: "Total bot-to-bot dialogues run.",
			},
		),
	}
}

// RecordAsk records one ask turn.
func (m *Metrics) RecordAsk(outcome string, d time.Duration) {
	m.askDuration.WithLabelValues(outcome).Observe(d.Seconds())
	m.asksTotal.WithLabelValues(outcome).Inc()
}

// SetActiveConversations sets the live conversation gauge.
func (m *Metrics) SetActiveConversations(n int) {
	m.conversations.Set(float64(n))
}

// IncrDialogue increments the dialogue counter.
func (m *Metrics) IncrDialogue() {
	m.dialogues.Inc()
}

// GetChatSnapshot returns a snapshot suitable for GET /v1/metrics/chat.
func (m *Metrics) GetChatSnapshot() *domain.ChatMetrics {
	// Prometheus counters expose cumulative values.
	success := getCounterValue(m.asksTotal, OutcomeSuccess)
	rejected := getCounterValue(m.asksTotal, OutcomeRejected)
	denied := getCounterValue(m.asksTotal, OutcomeDenied)
	transport := getCounterValue(m.asksTotal, OutcomeTransport)
	circuit := getCounterValue(m.asksTotal, OutcomeCircuit)

	total := success + rejected + denied + transport + circuit
	rejectionRate := float64(0)
	if total > 0 {
		rejectionRate = (rejected + denied) / total
	}

	return &domain.ChatMetrics{
		TotalAsks:           int64(total),
		Rejections:          int64(rejected + denied),
		DeniedRejections:    int64(denied),
		TransportErrors:     int64(transport),
		RejectionRate:       rejectionRate,
		ActiveConversations: int64(metricValue(m.conversations)),
		DialoguesRun:        int64(metricValue(m.dialogues)),
		Period:              "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return metricValue(cv.WithLabelValues(label))
}

func metricValue(metric prometheus.Metric) float64 {
	m := &dto.Metric{}
	if err := metric.Write(m); err != nil {
		return 0
	}
	switch {
	case m.Counter != nil && m.Counter.Value != nil:
		return *m.Counter.Value
	case m.Gauge != nil && m.Gauge.Value != nil:
		return *m.Gauge.Value
	}
	return 0
}
