package webhook

import (
	"github.com/rudderlabs/automationbot/pkg/metrics"
)

// SetMetrics sets the metrics instance for the dispatcher
func (d *Dispatcher) SetMetrics(m *metrics.Metrics) {
	d.metrics = m
	if m == nil {
		return
	}
	for _, dest := range []Destination{DestinationData, DestinationApproval} {
		configured := 0.0
		if d.Configured(dest) {
			configured = 1
		}
		m.WebhookDestinationConfig.WithLabelValues(string(dest)).Set(configured)
	}
}

// recordDispatch records metrics for one dispatch. dl is nil when no request
// was attempted.
func (d *Dispatcher) recordDispatch(dest Destination, result Result, dl *delivery) {
	if d.metrics == nil {
		return
	}

	d.metrics.WebhookDispatchesTotal.WithLabelValues(string(dest), result.String()).Inc()

	if dl == nil {
		return
	}
	d.metrics.WebhookDispatchDuration.WithLabelValues(string(dest)).Observe(dl.duration.Seconds())
	d.metrics.WebhookResponseStatus.WithLabelValues(string(dest), statusClass(dl.statusCode)).Inc()
}

// statusClass buckets an HTTP status; 0 means the request never got a response.
func statusClass(code int) string {
	switch {
	case code == 0:
		return "error"
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
