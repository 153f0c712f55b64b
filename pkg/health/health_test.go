package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

// TestStatusConsts tests Status constants
func TestStatusConsts(t *testing.T) {
	if StatusHealthy != "healthy" {
		t.Errorf("StatusHealthy = %v, want healthy", StatusHealthy)
	}

	if StatusUnhealthy != "unhealthy" {
		t.Errorf("StatusUnhealthy = %v, want unhealthy", StatusUnhealthy)
	}

	if StatusDegraded != "degraded" {
		t.Errorf("StatusDegraded = %v, want degraded", StatusDegraded)
	}
}

// TestNewManager tests manager creation
func TestNewManager(t *testing.T) {
	manager := NewManager(zap.NewNop(), "1.2.3")

	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}

	if manager.startTime.IsZero() {
		t.Error("startTime should be set")
	}

	if manager.version != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", manager.version)
	}

	if manager.livenessChecks == nil || manager.readinessChecks == nil {
		t.Error("check maps should be initialized")
	}
}

// TestRegisterChecks tests liveness and readiness registration
func TestRegisterChecks(t *testing.T) {
	manager := NewManager(zap.NewNop(), "")

	manager.RegisterLivenessCheck("server", AlwaysHealthyChecker())
	manager.RegisterReadinessCheck("webhooks", WebhookConfigChecker(true, true))
	manager.RegisterReadinessCheck("server", AlwaysHealthyChecker())

	if len(manager.livenessChecks) != 1 {
		t.Errorf("liveness checks = %d, want 1", len(manager.livenessChecks))
	}
	if len(manager.readinessChecks) != 2 {
		t.Errorf("readiness checks = %d, want 2", len(manager.readinessChecks))
	}
}

// TestSlackAPIChecker tests the Slack auth checker
func TestSlackAPIChecker(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		check := SlackAPIChecker(func(ctx context.Context) error { return nil }).Check(context.Background())
		if check.Status != StatusHealthy {
			t.Errorf("status = %v, want %v", check.Status, StatusHealthy)
		}
		if check.Name != "slack_api" {
			t.Errorf("name = %s, want slack_api", check.Name)
		}
	})

	t.Run("unhealthy", func(t *testing.T) {
		check := SlackAPIChecker(func(ctx context.Context) error {
			return errors.New("invalid_auth")
		}).Check(context.Background())
		if check.Status != StatusUnhealthy {
			t.Errorf("status = %v, want %v", check.Status, StatusUnhealthy)
		}
		if !strings.Contains(check.Message, "invalid_auth") {
			t.Errorf("message should carry the error, got %q", check.Message)
		}
	})
}

// TestWebhookConfigChecker tests every combination of configured destinations
func TestWebhookConfigChecker(t *testing.T) {
	tests := []struct {
		data     bool
		approval bool
		want     Status
	}{
		{true, true, StatusHealthy},
		{true, false, StatusHealthy},
		{false, true, StatusHealthy},
		{false, false, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("data=%v,approval=%v", tt.data, tt.approval), func(t *testing.T) {
			check := WebhookConfigChecker(tt.data, tt.approval).Check(context.Background())
			if check.Status != tt.want {
				t.Errorf("status = %v, want %v", check.Status, tt.want)
			}
			if check.Metadata["data_webhook"] != tt.data || check.Metadata["approval_webhook"] != tt.approval {
				t.Errorf("unexpected metadata %v", check.Metadata)
			}
		})
	}
}

// TestSocketConnectionChecker tests the Socket Mode checker
func TestSocketConnectionChecker(t *testing.T) {
	up := false
	checker := SocketConnectionChecker(func() bool { return up })

	if got := checker.Check(context.Background()).Status; got != StatusUnhealthy {
		t.Errorf("disconnected status = %v, want %v", got, StatusUnhealthy)
	}

	up = true
	if got := checker.Check(context.Background()).Status; got != StatusHealthy {
		t.Errorf("connected status = %v, want %v", got, StatusHealthy)
	}
}

// TestDetermineOverallStatus tests status aggregation
func TestDetermineOverallStatus(t *testing.T) {
	tests := []struct {
		name   string
		checks []Check
		want   Status
	}{
		{"no checks", nil, StatusHealthy},
		{"all healthy", []Check{{Status: StatusHealthy}, {Status: StatusHealthy}}, StatusHealthy},
		{"one degraded", []Check{{Status: StatusHealthy}, {Status: StatusDegraded}}, StatusDegraded},
		{"unhealthy wins", []Check{{Status: StatusDegraded}, {Status: StatusUnhealthy}, {Status: StatusHealthy}}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := determineOverallStatus(tt.checks); got != tt.want {
				t.Errorf("determineOverallStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func serve(t *testing.T, h http.HandlerFunc, path string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, path, nil))

	var response Response
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return w, response
}

// TestLivenessHandler tests liveness endpoint
func TestLivenessHandler(t *testing.T) {
	manager := NewManager(zap.NewNop(), "1.2.3")
	manager.RegisterLivenessCheck("server", AlwaysHealthyChecker())

	w, response := serve(t, manager.LivenessHandler(), "/health")

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected JSON content type, got %s", w.Header().Get("Content-Type"))
	}
	if response.Status != StatusHealthy {
		t.Errorf("response status = %v, want %v", response.Status, StatusHealthy)
	}
	if response.Version != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", response.Version)
	}
	if len(response.Checks) != 1 || response.Checks[0].Duration == "" {
		t.Errorf("expected 1 timed check, got %+v", response.Checks)
	}
	if _, err := time.Parse(time.RFC3339, response.Timestamp); err != nil {
		t.Errorf("invalid timestamp format: %v", err)
	}
	if response.Uptime == "" {
		t.Error("uptime should not be empty")
	}
}

// TestLivenessHandler_DegradedIsLive tests that degraded checks keep the process alive
func TestLivenessHandler_DegradedIsLive(t *testing.T) {
	manager := NewManager(zap.NewNop(), "")
	manager.RegisterLivenessCheck("webhooks", WebhookConfigChecker(false, false))

	w, response := serve(t, manager.LivenessHandler(), "/health")

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if response.Status != StatusDegraded {
		t.Errorf("response status = %v, want %v", response.Status, StatusDegraded)
	}
}

// TestLivenessHandler_Unhealthy tests liveness endpoint with unhealthy check
func TestLivenessHandler_Unhealthy(t *testing.T) {
	manager := NewManager(zap.NewNop(), "")
	manager.RegisterLivenessCheck("slack_socket", SocketConnectionChecker(func() bool { return false }))

	w, response := serve(t, manager.LivenessHandler(), "/health")

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
	if response.Status != StatusUnhealthy {
		t.Errorf("response status = %v, want %v", response.Status, StatusUnhealthy)
	}
}

// TestReadinessHandler tests readiness endpoint
func TestReadinessHandler(t *testing.T) {
	manager := NewManager(zap.NewNop(), "")
	manager.RegisterReadinessCheck("slack_api", SlackAPIChecker(func(ctx context.Context) error { return nil }))
	manager.RegisterReadinessCheck("webhooks", WebhookConfigChecker(true, false))

	w, response := serve(t, manager.ReadinessHandler(), "/ready")

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if response.Status != StatusHealthy {
		t.Errorf("response status = %v, want %v", response.Status, StatusHealthy)
	}
}

// TestReadinessHandler_Degraded tests readiness endpoint with degraded status
func TestReadinessHandler_Degraded(t *testing.T) {
	manager := NewManager(zap.NewNop(), "")
	manager.RegisterReadinessCheck("webhooks", WebhookConfigChecker(false, false))

	w, _ := serve(t, manager.ReadinessHandler(), "/ready")

	// Readiness should fail on degraded
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}

// TestReadinessHandler_Deadline tests that checks see the request deadline
func TestReadinessHandler_Deadline(t *testing.T) {
	manager := NewManager(zap.NewNop(), "")
	manager.RegisterReadinessCheck("slack_api", SlackAPIChecker(func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("no deadline")
		}
		return nil
	}))

	w, _ := serve(t, manager.ReadinessHandler(), "/ready")

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

// TestMultipleChecks tests that parallel checks come back sorted by name
func TestMultipleChecks(t *testing.T) {
	manager := NewManager(zap.NewNop(), "")

	for _, name := range []string{"e", "c", "a", "d", "b"} {
		n := name
		manager.RegisterLivenessCheck(n, CheckerFunc(func(ctx context.Context) Check {
			time.Sleep(time.Millisecond)
			return Check{Status: StatusHealthy}
		}))
	}

	_, response := serve(t, manager.LivenessHandler(), "/health")

	if len(response.Checks) != 5 {
		t.Fatalf("expected 5 checks, got %d", len(response.Checks))
	}
	for i, want := range []string{"a", "b", "c", "d", "e"} {
		if response.Checks[i].Name != want {
			t.Errorf("check %d name = %q, want %q", i, response.Checks[i].Name, want)
		}
	}
}
