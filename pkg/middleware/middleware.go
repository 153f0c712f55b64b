package middleware

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/rudderlabs/automationbot/pkg/metrics"
	"go.uber.org/zap"
)

// responseWriter wraps http.ResponseWriter to capture status code and response size
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.statusCode == 0 {
		rw.statusCode = http.StatusOK
	}
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// timeoutWriter drops writes from a handler that outlived its deadline.
type timeoutWriter struct {
	w           http.ResponseWriter
	header      http.Header
	mu          sync.Mutex
	timedOut    bool
	wroteHeader bool
}

func (tw *timeoutWriter) Header() http.Header {
	return tw.header
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut || tw.wroteHeader {
		return
	}
	tw.writeHeaderLocked(code)
}

func (tw *timeoutWriter) writeHeaderLocked(code int) {
	dst := tw.w.Header()
	for k, v := range tw.header {
		dst[k] = v
	}
	tw.wroteHeader = true
	tw.w.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if !tw.wroteHeader {
		tw.writeHeaderLocked(http.StatusOK)
	}
	return tw.w.Write(b)
}

// WithMetrics wraps an HTTP handler with Prometheus metrics collection
func WithMetrics(endpoint string, m *metrics.Metrics, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Increment in-flight requests
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		start := time.Now()

		// Wrap response writer to capture status and size
		rw := &responseWriter{
			ResponseWriter: w,
		}

		handler(rw, r)

		duration := time.Since(start).Seconds()
		status := rw.statusCode
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestsTotal.WithLabelValues(endpoint, r.Method, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(endpoint, r.Method).Observe(duration)
		m.HTTPResponseSize.WithLabelValues(endpoint, r.Method).Observe(float64(rw.size))
	}
}

// WithTimeout wraps an HTTP handler with context-based timeout.
// A handler still running at the deadline gets a 408 written on its behalf and
// any later writes it attempts are discarded.
func WithTimeout(timeout time.Duration, logger *zap.Logger, m *metrics.Metrics, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		tw := &timeoutWriter{
			w:      w,
			header: make(http.Header),
		}

		done := make(chan struct{})
		panicked := make(chan any, 1)

		go func() {
			defer func() {
				if p := recover(); p != nil {
					panicked <- p
				}
			}()
			handler(tw, r.WithContext(ctx))
			close(done)
		}()

		select {
		case <-done:
			return
		case p := <-panicked:
			// Re-raise on the serving goroutine so WithRecovery sees it
			panic(p)
		case <-ctx.Done():
			tw.mu.Lock()
			defer tw.mu.Unlock()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				logger.Warn("request timed out",
					zap.String("path", r.URL.Path),
					zap.Duration("timeout", timeout),
				)
				if m != nil {
					m.HTTPRequestTimeouts.WithLabelValues(r.URL.Path).Inc()
				}
				if !tw.wroteHeader {
					http.Error(w, "Request timeout", http.StatusRequestTimeout)
				}
			}
			tw.timedOut = true
		}
	}
}

// WithRecovery wraps HTTP handlers with panic recovery to prevent server crashes
func WithRecovery(logger *zap.Logger, m *metrics.Metrics, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if m != nil {
					m.PanicRecoveriesTotal.Inc()
				}
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("stack", string(debug.Stack())),
					zap.String("method", r.Method),
					zap.String("url", r.URL.String()),
				)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		handler(w, r)
	}
}

// WithLogging wraps HTTP handlers with request/response logging
func WithLogging(logger *zap.Logger, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
		}

		handler(rw, r)

		status := rw.statusCode
		if status == 0 {
			status = http.StatusOK
		}

		logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.Int("size", rw.size),
			zap.String("user_agent", r.UserAgent()),
		)
	}
}

// Chain combines multiple middleware functions into one
func Chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	// Apply middleware in reverse order so they execute in the order specified
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// Standard wraps a Slack endpoint with the full stack used by the server:
// logging, timeout, metrics, and panic recovery, in that order.
func Standard(endpoint string, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics, handler http.HandlerFunc) http.HandlerFunc {
	return Chain(
		handler,
		func(next http.HandlerFunc) http.HandlerFunc {
			return WithLogging(logger, next)
		},
		func(next http.HandlerFunc) http.HandlerFunc {
			return WithTimeout(timeout, logger, m, next)
		},
		func(next http.HandlerFunc) http.HandlerFunc {
			return WithMetrics(endpoint, m, next)
		},
		func(next http.HandlerFunc) http.HandlerFunc {
			return WithRecovery(logger, m, next)
		},
	)
}
