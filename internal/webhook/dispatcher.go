// Package webhook delivers JSON payloads to the outbound automation webhooks.
//
// This package handles:
// - Resolving a destination (data or approval) to its configured URL
// - Attaching Basic credentials when both halves are configured
// - Performing a single, time-bounded POST per dispatch
// - Classifying the result as success, not configured, or failure
//
// There is no retry. A dispatch either completes, times out, or errors, and the
// caller only ever sees the classification. Status codes and response bodies are
// logged for operators and never drive control flow.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rudderlabs/automationbot/pkg/constants"
	"github.com/rudderlabs/automationbot/pkg/metrics"
	"go.uber.org/zap"
)

// Result classifies a single dispatch.
type Result int

const (
	// ResultFailure is the zero value so an unset Result never reads as success.
	ResultFailure Result = iota
	ResultSuccess
	ResultNotConfigured
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultNotConfigured:
		return "not_configured"
	default:
		return "failure"
	}
}

// Config holds the destinations and credentials. It is read-only after
// construction.
type Config struct {
	DataURL      string
	ApprovalURL  string
	AuthUser     string
	AuthPassword string
	Timeout      time.Duration
}

// Dispatcher sends payloads to the configured destinations. It is safe for
// concurrent use; it holds no mutable state beyond the HTTP client's pool.
type Dispatcher struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewDispatcher creates a dispatcher. A non-positive timeout falls back to
// constants.DefaultWebhookTimeout.
func NewDispatcher(cfg Config, logger *zap.Logger) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultWebhookTimeout
	}
	return &Dispatcher{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			// A redirect would turn the POST into a GET elsewhere; report the
			// 3xx itself instead.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}
}

// Timeout returns the bound applied to each outbound request.
func (d *Dispatcher) Timeout() time.Duration {
	return d.config.Timeout
}

// URL returns the configured URL for dest, or "" when unset.
func (d *Dispatcher) URL(dest Destination) string {
	switch dest {
	case DestinationData:
		return d.config.DataURL
	case DestinationApproval:
		return d.config.ApprovalURL
	default:
		return ""
	}
}

// Configured reports whether dest has a URL.
func (d *Dispatcher) Configured(dest Destination) bool {
	return d.URL(dest) != ""
}

// delivery captures what came back from one POST.
type delivery struct {
	statusCode int
	body       string
	duration   time.Duration
}

func (dl *delivery) ok() bool {
	return dl != nil && dl.statusCode >= 200 && dl.statusCode < 300
}

// Send POSTs payload to dest once and classifies the result.
func (d *Dispatcher) Send(ctx context.Context, dest Destination, payload any) Result {
	url := d.URL(dest)
	if url == "" {
		d.logger.Warn("webhook destination not configured",
			zap.String("destination", string(dest)),
		)
		d.recordDispatch(dest, ResultNotConfigured, nil)
		return ResultNotConfigured
	}

	logger := d.logger.With(
		zap.String("destination", string(dest)),
		zap.String("dispatch_id", uuid.NewString()),
	)

	dl, err := d.deliver(ctx, url, payload)
	if err != nil {
		logger.Error("webhook dispatch failed",
			zap.Error(err),
			zap.Duration("duration", dl.duration),
		)
		d.recordDispatch(dest, ResultFailure, dl)
		return ResultFailure
	}

	if !dl.ok() {
		logger.Error("webhook returned non-2xx status",
			zap.Int("status_code", dl.statusCode),
			zap.String("response_body", dl.body),
			zap.Duration("duration", dl.duration),
		)
		d.recordDispatch(dest, ResultFailure, dl)
		return ResultFailure
	}

	logger.Info("webhook dispatched",
		zap.Int("status_code", dl.statusCode),
		zap.Duration("duration", dl.duration),
	)
	logger.Debug("webhook response", zap.String("response_body", dl.body))
	d.recordDispatch(dest, ResultSuccess, dl)
	return ResultSuccess
}

// Probe is the detailed result of a connectivity check against one destination.
type Probe struct {
	Destination Destination
	URL         string
	Configured  bool
	StatusCode  int
	Body        string
	Duration    time.Duration
	Err         error
}

// OK reports whether the destination answered with a 2xx status.
func (p Probe) OK() bool {
	return p.Configured && p.Err == nil && p.StatusCode >= 200 && p.StatusCode < 300
}

// Probe sends payload to dest exactly like Send, but returns the raw status and
// body instead of a classification. It is used by the check-webhooks command.
func (d *Dispatcher) Probe(ctx context.Context, dest Destination, payload any) Probe {
	p := Probe{Destination: dest}

	url := d.URL(dest)
	if url == "" {
		return p
	}
	p.URL = url
	p.Configured = true

	dl, err := d.deliver(ctx, url, payload)
	p.Duration = dl.duration
	if err != nil {
		p.Err = err
		return p
	}
	p.StatusCode = dl.statusCode
	p.Body = dl.body
	return p
}

// deliver performs the POST. It always returns a non-nil delivery so callers
// can log the elapsed time even on error.
func (d *Dispatcher) deliver(ctx context.Context, url string, payload any) (*delivery, error) {
	dl := &delivery{}

	body, err := json.Marshal(payload)
	if err != nil {
		return dl, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return dl, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if d.config.AuthUser != "" && d.config.AuthPassword != "" {
		req.SetBasicAuth(d.config.AuthUser, d.config.AuthPassword)
	}

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	dl.duration = time.Since(start)
	if err != nil {
		return dl, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	dl.statusCode = resp.StatusCode

	// The body is for operator logs only; a read error does not change the result.
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, constants.MaxLoggedResponseBody))
	dl.body = string(excerpt)
	dl.duration = time.Since(start)

	return dl, nil
}
