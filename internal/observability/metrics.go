package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Resolutions   *prometheus.CounterVec
	RemoteErrors  *prometheus.CounterVec
	RemoteLatency prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Resolved questions by resolver mode and answer source.",
		}, []string{"mode", "source"}),
		RemoteErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_errors_total",
			Help:      "Failed remote completions by error kind.",
		}, []string{"kind"}),
		RemoteLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_latency_seconds",
			Help:      "Latency of remote completion calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		}),
	}
}

func (m *Metrics) ObserveResolution(mode, source string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(mode, source).Inc()
}

// ObserveRemote records one remote call. kind is empty on success.
func (m *Metrics) ObserveRemote(d time.Duration, kind string) {
	if m == nil {
		return
	}
	m.RemoteLatency.Observe(d.Seconds())
	if kind != "" {
		m.RemoteErrors.WithLabelValues(kind).Inc()
	}
}

func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
