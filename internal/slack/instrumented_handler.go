package slack

import (
	"github.com/rudderlabs/automationbot/internal/relay"
	"github.com/rudderlabs/automationbot/pkg/metrics"
)

// SetMetrics sets the metrics instance for the handler
func (h *Handler) SetMetrics(m *metrics.Metrics) {
	h.metrics = m
}

// recordSlackCommand records metrics for slash command invocations
func (h *Handler) recordSlackCommand(command, status string) {
	if h.metrics != nil {
		h.metrics.SlackCommandsTotal.WithLabelValues(command, status).Inc()
	}
}

// recordSlackInteraction records metrics for interactive component events
func (h *Handler) recordSlackInteraction(interactionType, action, status string) {
	if h.metrics != nil {
		h.metrics.SlackInteractionsTotal.WithLabelValues(interactionType, action, status).Inc()
	}
}

// recordSlackAPIError records a failed Slack Web API call
func (h *Handler) recordSlackAPIError(method string) {
	if h.metrics != nil {
		h.metrics.SlackAPIErrors.WithLabelValues(method).Inc()
	}
}

// recordOutcome records the user-visible outcome of an operation
func (h *Handler) recordOutcome(op Operation, kind relay.OutcomeKind) {
	if h.metrics != nil {
		h.metrics.OutcomesTotal.WithLabelValues(op.String(), kind.String()).Inc()
	}
}
