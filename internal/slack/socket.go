package slack

import (
	"context"
	"sync/atomic"

	"github.com/rudderlabs/automationbot/pkg/metrics"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"
)

// socketConn is the part of *socketmode.Client the runner drives.
type socketConn interface {
	Ack(req socketmode.Request, payload ...interface{})
	RunContext(ctx context.Context) error
}

// SocketRunner feeds Socket Mode envelopes into a Handler. It replaces the two
// HTTP endpoints when the bot has no public URL.
type SocketRunner struct {
	conn      socketConn
	events    <-chan socketmode.Event
	handler   *Handler
	logger    *zap.Logger
	metrics   *metrics.Metrics
	connected atomic.Bool
}

// NewSocketRunner wraps api, which must carry an app-level token
// (slack.OptionAppLevelToken).
func NewSocketRunner(api *slack.Client, h *Handler, logger *zap.Logger, debug bool) *SocketRunner {
	client := socketmode.New(api, socketmode.OptionDebug(debug))
	return &SocketRunner{
		conn:    client,
		events:  client.Events,
		handler: h,
		logger:  logger,
	}
}

// SetMetrics sets the metrics instance for the runner
func (s *SocketRunner) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Connected reports whether the websocket is currently up.
func (s *SocketRunner) Connected() bool {
	return s.connected.Load()
}

// Run processes events until ctx is cancelled or the connection fails for good.
func (s *SocketRunner) Run(ctx context.Context) error {
	go s.consume(ctx)
	return s.conn.RunContext(ctx)
}

func (s *SocketRunner) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-s.events:
			if !ok {
				return
			}
			s.handleEvent(ctx, evt)
		}
	}
}

func (s *SocketRunner) handleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		s.logger.Info("connecting to Slack with Socket Mode")

	case socketmode.EventTypeConnected:
		s.logger.Info("connected to Slack with Socket Mode")
		s.setConnected(true)

	case socketmode.EventTypeConnectionError:
		s.logger.Warn("socket mode connection error", zap.Any("error", evt.Data))
		s.setConnected(false)

	case socketmode.EventTypeDisconnect:
		s.logger.Warn("socket mode disconnected")
		s.setConnected(false)

	case socketmode.EventTypeSlashCommand:
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok || evt.Request == nil {
			return
		}
		if !isAutomationCommand(cmd.Command) {
			s.conn.Ack(*evt.Request, ephemeralResponse(s.handler.runCommand(ctx, cmd)))
			return
		}
		s.conn.Ack(*evt.Request)
		// Already acked, so a failure can only be logged. views.open runs off
		// the event loop so other envelopes are not held up behind it.
		s.handler.runCommandAsync(cmd)

	case socketmode.EventTypeInteractive:
		if evt.Request == nil {
			return
		}
		s.conn.Ack(*evt.Request)

		payload, err := parseInteractionPayload(evt.Request.Payload)
		if err != nil {
			s.logger.Error("failed to parse socket mode interaction", zap.Error(err))
			return
		}
		if err := payload.Validate(); err != nil {
			s.logger.Error("invalid socket mode interaction", zap.Error(err))
			return
		}
		s.handler.handleInteraction(payload)
	}
}

func (s *SocketRunner) setConnected(up bool) {
	s.connected.Store(up)
	if s.metrics == nil {
		return
	}
	if up {
		s.metrics.SlackSocketConnected.Set(1)
	} else {
		s.metrics.SlackSocketConnected.Set(0)
	}
}
