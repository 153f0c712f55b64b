package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	HTTPResponseSize     *prometheus.HistogramVec
	HTTPRequestTimeouts  *prometheus.CounterVec

	// Slack-specific metrics
	SlackCommandsTotal     *prometheus.CounterVec
	SlackInteractionsTotal *prometheus.CounterVec
	SlackAPIErrors         *prometheus.CounterVec
	SlackSocketConnected   prometheus.Gauge

	// Outbound webhook metrics
	WebhookDispatchesTotal   *prometheus.CounterVec
	WebhookDispatchDuration  *prometheus.HistogramVec
	WebhookResponseStatus    *prometheus.CounterVec
	WebhookDestinationConfig *prometheus.GaugeVec

	// Background task metrics
	AsyncTasksTotal    *prometheus.CounterVec
	AsyncTasksInFlight prometheus.Gauge

	// Application metrics
	OutcomesTotal        *prometheus.CounterVec
	PanicRecoveriesTotal prometheus.Counter
}

// NewMetrics creates all Prometheus metrics and registers them with reg.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// HTTP request counter by endpoint and status code
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "automationbot_http_requests_total",
				Help: "Total number of HTTP requests by endpoint and status code",
			},
			[]string{"endpoint", "method", "status"},
		),

		// HTTP request duration histogram by endpoint
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "automationbot_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets, // [0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10]
			},
			[]string{"endpoint", "method"},
		),

		// HTTP requests currently in flight
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "automationbot_http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),

		// HTTP response size histogram
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "automationbot_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8), // 100B to 100MB
			},
			[]string{"endpoint", "method"},
		),

		// Handlers that hit the middleware deadline
		HTTPRequestTimeouts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "automationbot_http_request_timeouts_total",
				Help: "Total number of HTTP requests that exceeded the handler timeout",
			},
			[]string{"path"},
		),

		// Slack slash command invocations
		SlackCommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "automationbot_slack_commands_total",
				Help: "Total number of Slack slash commands received",
			},
			[]string{"command", "status"},
		),

		// Slack interactive component events
		SlackInteractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "automationbot_slack_interactions_total",
				Help: "Total number of Slack interactive component events received",
			},
			[]string{"type", "action", "status"},
		),

		// Failed Slack Web API calls (views.open, views.update, chat.postMessage)
		SlackAPIErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "automationbot_slack_api_errors_total",
				Help: "Total number of failed Slack Web API calls",
			},
			[]string{"method"},
		),

		// Socket Mode connection state (1 connected, 0 otherwise)
		SlackSocketConnected: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "automationbot_slack_socket_connected",
				Help: "Whether the Slack Socket Mode connection is established",
			},
		),

		// Outbound webhook dispatches by destination and result
		WebhookDispatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "automationbot_webhook_dispatches_total",
				Help: "Total number of outbound webhook dispatches by destination and result",
			},
			[]string{"destination", "result"},
		),

		// Outbound webhook latency (only for attempts that reached the network)
		WebhookDispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "automationbot_webhook_dispatch_duration_seconds",
				Help:    "Outbound webhook request duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"destination"},
		),

		// Outbound webhook HTTP status classes (2xx, 4xx, 5xx, error)
		WebhookResponseStatus: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "automationbot_webhook_response_status_total",
				Help: "Outbound webhook responses by destination and status class",
			},
			[]string{"destination", "class"},
		),

		// Whether each destination URL is configured (1) or not (0)
		WebhookDestinationConfig: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "automationbot_webhook_destination_configured",
				Help: "Whether the webhook destination URL is configured",
			},
			[]string{"destination"},
		),

		// User-visible outcomes by operation
		// Background tasks started from acknowledged Slack requests
		AsyncTasksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "automationbot_async_tasks_total",
				Help: "Total number of background tasks by task name and status",
			},
			[]string{"task", "status"}, // status: completed, panicked, rejected
		),

		AsyncTasksInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "automationbot_async_tasks_in_flight",
				Help: "Current number of background tasks running",
			},
		),

		OutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "automationbot_outcomes_total",
				Help: "Total number of user-visible outcomes by operation and kind",
			},
			[]string{"operation", "outcome"},
		),

		// Panic recoveries
		PanicRecoveriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "automationbot_panic_recoveries_total",
				Help: "Total number of recovered panics in handlers",
			},
		),
	}
}

var defaultMetrics *Metrics

// Init initializes the default metrics instance on the default registry
func Init() *Metrics {
	if defaultMetrics == nil {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	}
	return defaultMetrics
}

// Get returns the default metrics instance
func Get() *Metrics {
	if defaultMetrics == nil {
		return Init()
	}
	return defaultMetrics
}
