// Package health serves the liveness and readiness endpoints.
//
// This package handles:
// - Running registered checks in parallel under a shared deadline
// - Folding individual results into an overall status
// - Checkers for Slack API auth, webhook configuration and the Socket Mode link
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rudderlabs/automationbot/pkg/constants"
	"go.uber.org/zap"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// Check represents a single health check
type Check struct {
	Name     string                 `json:"name"`
	Status   Status                 `json:"status"`
	Message  string                 `json:"message,omitempty"`
	Duration string                 `json:"duration,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Response represents the overall health response
type Response struct {
	Status    Status  `json:"status"`
	Version   string  `json:"version,omitempty"`
	Uptime    string  `json:"uptime"`
	Timestamp string  `json:"timestamp"`
	Checks    []Check `json:"checks,omitempty"`
}

// Checker defines the interface for health checks
type Checker interface {
	Check(ctx context.Context) Check
}

// CheckerFunc is a function adapter for the Checker interface
type CheckerFunc func(ctx context.Context) Check

func (f CheckerFunc) Check(ctx context.Context) Check {
	return f(ctx)
}

// Manager manages health checks and provides handlers
type Manager struct {
	startTime       time.Time
	version         string
	livenessChecks  map[string]Checker
	readinessChecks map[string]Checker
	mu              sync.RWMutex
	logger          *zap.Logger
}

// NewManager creates a new health check manager. version is echoed in every
// response and may be empty.
func NewManager(logger *zap.Logger, version string) *Manager {
	return &Manager{
		startTime:       time.Now(),
		version:         version,
		livenessChecks:  make(map[string]Checker),
		readinessChecks: make(map[string]Checker),
		logger:          logger,
	}
}

// RegisterLivenessCheck registers a check that fails only when the process
// should be restarted.
func (m *Manager) RegisterLivenessCheck(name string, checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.livenessChecks[name] = checker
}

// RegisterReadinessCheck registers a check that gates traffic.
func (m *Manager) RegisterReadinessCheck(name string, checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readinessChecks[name] = checker
}

// runChecks executes all checks in parallel and returns them sorted by name
func (m *Manager) runChecks(ctx context.Context, checks map[string]Checker) []Check {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]Check, 0, len(checks))
	resultsChan := make(chan Check, len(checks))

	var wg sync.WaitGroup
	for name, checker := range checks {
		wg.Add(1)
		go func(n string, c Checker) {
			defer wg.Done()
			start := time.Now()
			check := c.Check(ctx)
			check.Duration = time.Since(start).String()
			if check.Name == "" {
				check.Name = n
			}
			resultsChan <- check
		}(name, checker)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for check := range resultsChan {
		results = append(results, check)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

// determineOverallStatus determines the overall status based on individual checks
func determineOverallStatus(checks []Check) Status {
	overall := StatusHealthy
	for _, check := range checks {
		switch check.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			overall = StatusDegraded
		}
	}
	return overall
}

// LivenessHandler returns an HTTP handler for liveness checks.
// Only an unhealthy result produces a 503.
func (m *Manager) LivenessHandler() http.HandlerFunc {
	return m.handler(constants.LivenessCheckTimeout, m.livenessChecks, func(s Status) bool {
		return s == StatusUnhealthy
	})
}

// ReadinessHandler returns an HTTP handler for readiness checks.
// Degraded is treated as not ready.
func (m *Manager) ReadinessHandler() http.HandlerFunc {
	return m.handler(constants.ReadinessCheckTimeout, m.readinessChecks, func(s Status) bool {
		return s != StatusHealthy
	})
}

func (m *Manager) handler(timeout time.Duration, checks map[string]Checker, failing func(Status) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		results := m.runChecks(ctx, checks)
		status := determineOverallStatus(results)

		response := Response{
			Status:    status,
			Version:   m.version,
			Uptime:    time.Since(m.startTime).Round(time.Second).String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    results,
		}

		statusCode := http.StatusOK
		if failing(status) {
			statusCode = http.StatusServiceUnavailable
			m.logger.Warn("health check failing",
				zap.String("path", r.URL.Path),
				zap.String("status", string(status)),
			)
		}

		m.writeResponse(w, statusCode, response)
	}
}

// writeResponse writes the JSON response
func (m *Manager) writeResponse(w http.ResponseWriter, statusCode int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		m.logger.Error("failed to encode health response", zap.Error(err))
	}
}

// AlwaysHealthyChecker returns a checker that always reports healthy
func AlwaysHealthyChecker() Checker {
	return CheckerFunc(func(ctx context.Context) Check {
		return Check{
			Name:    "server",
			Status:  StatusHealthy,
			Message: "Server is running",
		}
	})
}

// SlackAPIChecker reports whether the bot token still authenticates.
// authTest is typically a wrapper around auth.test.
func SlackAPIChecker(authTest func(ctx context.Context) error) Checker {
	return CheckerFunc(func(ctx context.Context) Check {
		if err := authTest(ctx); err != nil {
			return Check{
				Name:    "slack_api",
				Status:  StatusUnhealthy,
				Message: fmt.Sprintf("Failed to authenticate with Slack API: %v", err),
			}
		}
		return Check{
			Name:    "slack_api",
			Status:  StatusHealthy,
			Message: "Slack API is reachable",
		}
	})
}

// WebhookConfigChecker reports which webhook destinations are configured.
// The bot still runs with none, but every operation would end in a
// configuration error, so that case is degraded.
func WebhookConfigChecker(dataConfigured, approvalConfigured bool) Checker {
	return CheckerFunc(func(ctx context.Context) Check {
		metadata := map[string]interface{}{
			"data_webhook":     dataConfigured,
			"approval_webhook": approvalConfigured,
		}

		switch {
		case dataConfigured && approvalConfigured:
			return Check{
				Name:     "webhook_config",
				Status:   StatusHealthy,
				Message:  "All webhook destinations are configured",
				Metadata: metadata,
			}
		case dataConfigured || approvalConfigured:
			return Check{
				Name:     "webhook_config",
				Status:   StatusHealthy,
				Message:  "Some webhook destinations are not configured",
				Metadata: metadata,
			}
		default:
			return Check{
				Name:     "webhook_config",
				Status:   StatusDegraded,
				Message:  "No webhook destinations are configured",
				Metadata: metadata,
			}
		}
	})
}

// SocketConnectionChecker reports the Socket Mode websocket state.
func SocketConnectionChecker(connected func() bool) Checker {
	return CheckerFunc(func(ctx context.Context) Check {
		if !connected() {
			return Check{
				Name:    "slack_socket",
				Status:  StatusUnhealthy,
				Message: "Socket Mode connection is down",
			}
		}
		return Check{
			Name:    "slack_socket",
			Status:  StatusHealthy,
			Message: "Socket Mode connection is up",
		}
	})
}
