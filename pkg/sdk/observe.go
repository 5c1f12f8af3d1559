package courses

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "courses"
	metricsSubsystem = "sdk"
	callsHelp        = "SDK calls by method and outcome."
	latencyHelp      = "SDK call latency in seconds by method and outcome."
)

var callLabels = []string{"method", "outcome"}

// sdkMetrics are the per-call collectors of one client. Clients sharing a
// registerer share the collectors.
type sdkMetrics struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "calls_total",
			Help:      callsHelp,
		}, callLabels),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "call_duration_seconds",
			Help:      latencyHelp,
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, callLabels),
	}

	for _, c := range []prometheus.Collector{m.calls, m.latency} {
		err := reg.Register(c)
		if err == nil {
			continue
		}
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("courses: register sdk metrics: %w", err)
		}
		if err := m.adopt(are.ExistingCollector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// adopt takes over a collector a previous client already registered.
func (m *sdkMetrics) adopt(existing prometheus.Collector) error {
	switch c := existing.(type) {
	case *prometheus.CounterVec:
		m.calls = c
	case *prometheus.HistogramVec:
		m.latency = c
	default:
		return fmt.Errorf("courses: sdk metric registered as %T", existing)
	}
	return nil
}

// observer logs and counts SDK calls. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// observe records one finished call. Not-found, conflict-on-create and
// validation outcomes count as "rejected", not "error".
func (o *observer) observe(method string, start time.Time, err error) {
	if o == nil {
		return
	}
	elapsed := time.Since(start)
	result := outcome(err)

	if o.metrics != nil {
		o.metrics.calls.WithLabelValues(method, result).Inc()
		o.metrics.latency.WithLabelValues(method, result).Observe(elapsed.Seconds())
	}
	if o.logger == nil {
		return
	}

	attrs := []any{"method", method, "outcome", result, "elapsed", elapsed}
	switch result {
	case "error":
		o.logger.Warn("sdk call failed", append(attrs, "error", err)...)
	case "rejected":
		o.logger.Debug("sdk call rejected", append(attrs, "error", err)...)
	default:
		o.logger.Debug("sdk call", attrs...)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrReviewNotFound),
		errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrValidation):
		return "rejected"
	default:
		return "error"
	}
}
