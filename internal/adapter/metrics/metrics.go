package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/V4T54L/restnav/internal/domain"
)

// Fetch outcomes recorded by the resource proxy.
const (
	OutcomeHit       = "hit"
	OutcomeMiss      = "miss"
	OutcomeCoalesced = "coalesced"
)

// ClientMetrics holds all Prometheus metrics for the client. All methods are
// safe on a nil receiver so components can run without metrics.
type ClientMetrics struct {
	FetchTotal         *prometheus.CounterVec
	EntriesTotal       *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	InFlight           prometheus.Gauge
	ArchiveWritesTotal *prometheus.CounterVec
	StatusPublished    *prometheus.CounterVec
	StreamAvailable    prometheus.Gauge
}

// NewClientMetrics initializes the metrics and registers them with reg.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	factory := promauto.With(reg)
	return &ClientMetrics{
		FetchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restnav",
			Subsystem: "proxy",
			Name:      "fetch_total",
			Help:      "Total number of link fetches by outcome.",
		}, []string{"outcome"}), // outcome: hit, miss, coalesced
		EntriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restnav",
			Subsystem: "log",
			Name:      "entry_transitions_total",
			Help:      "Total number of log entry status updates by resulting state.",
		}, []string{"state"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "restnav",
			Subsystem: "transport",
			Name:      "request_duration_seconds",
			Help:      "Duration of link invocations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "result"}), // result: success, error
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "restnav",
			Subsystem: "transport",
			Name:      "requests_in_flight",
			Help:      "Number of link invocations awaiting a response.",
		}),
		ArchiveWritesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restnav",
			Subsystem: "archive",
			Name:      "entries_written_total",
			Help:      "Total number of archived entry snapshots by status.",
		}, []string{"status"}), // status: ok, error
		StatusPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restnav",
			Subsystem: "stream",
			Name:      "status_published_total",
			Help:      "Total number of status updates published to the stream by status.",
		}, []string{"status"}), // status: published, failed, dropped, skipped
		StreamAvailable: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "restnav",
			Subsystem: "stream",
			Name:      "available",
			Help:      "Indicates if the status stream is reachable (1 for available, 0 for unavailable).",
		}),
	}
}

func (m *ClientMetrics) ObserveFetch(outcome string) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(outcome).Inc()
}

func (m *ClientMetrics) RequestStarted() {
	if m == nil {
		return
	}
	m.InFlight.Inc()
}

func (m *ClientMetrics) RequestFinished(method string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.InFlight.Dec()
	result := "success"
	if err != nil {
		result = "error"
	}
	m.RequestDuration.WithLabelValues(method, result).Observe(d.Seconds())
}

func (m *ClientMetrics) ObserveArchive(n int, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ArchiveWritesTotal.WithLabelValues(status).Add(float64(n))
}

func (m *ClientMetrics) ObservePublish(status string) {
	if m == nil {
		return
	}
	m.StatusPublished.WithLabelValues(status).Inc()
}

func (m *ClientMetrics) SetStreamAvailable(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.StreamAvailable.Set(1)
		return
	}
	m.StreamAvailable.Set(0)
}

// UpdateStatus counts entry transitions by resulting state.
func (m *ClientMetrics) UpdateStatus(entry *domain.LogEntry) {
	if m == nil {
		return
	}
	m.EntriesTotal.WithLabelValues(entry.State().String()).Inc()
}

var _ domain.StatusObserver = (*ClientMetrics)(nil)
