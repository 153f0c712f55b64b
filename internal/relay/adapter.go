// Package relay turns an inbound interaction into at most one webhook dispatch
// and a discriminated outcome.
//
// It knows nothing about Slack: callers extract the user and the raw text field
// value, pick an entry point, and render the returned Outcome however their
// surface requires. All network I/O stays behind the Sender.
package relay

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rudderlabs/automationbot/internal/webhook"
	"go.uber.org/zap"
)

// EventKind says which trigger produced an Event.
type EventKind int

const (
	EventKindButton EventKind = iota
	EventKindFormSubmission
	EventKindApprove
	EventKindReject
)

func (k EventKind) String() string {
	switch k {
	case EventKindButton:
		return "button"
	case EventKindFormSubmission:
		return "form_submission"
	case EventKindApprove:
		return "approve"
	case EventKindReject:
		return "reject"
	default:
		return "unknown"
	}
}

// Event is what the adapter needs from an inbound interaction.
// Text is the raw field value and may be empty.
type Event struct {
	UserID   string
	UserName string
	Text     string
	Kind     EventKind
}

func (e Event) user() webhook.User {
	return webhook.User{ID: e.UserID, Name: e.UserName}
}

// Decision is the approve/reject choice carried by an approval.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Valid reports whether d is one of the two accepted decisions.
func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// OutcomeKind is the terminal state of one handled event.
type OutcomeKind int

const (
	// OutcomeFailure is the zero value so a partially built Outcome reads as failure.
	OutcomeFailure OutcomeKind = iota
	OutcomeSuccess
	OutcomeNotConfigured
	OutcomeNoInput
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotConfigured:
		return "not_configured"
	case OutcomeNoInput:
		return "no_input"
	default:
		return "failure"
	}
}

// Outcome is returned by every handler. Data echoes the submitted text on a
// successful data submission and is empty otherwise.
type Outcome struct {
	Kind OutcomeKind
	Data string
}

// Sender is the dispatch side of the adapter. *webhook.Dispatcher satisfies it.
type Sender interface {
	Configured(dest webhook.Destination) bool
	Send(ctx context.Context, dest webhook.Destination, payload any) webhook.Result
}

// Adapter maps events to dispatches. It holds no per-event state and is safe
// for concurrent use.
type Adapter struct {
	sender Sender
	logger *zap.Logger
	now    func() time.Time
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithClock overrides the time source used to stamp payloads.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		a.now = now
	}
}

// NewAdapter creates an adapter dispatching through sender.
func NewAdapter(sender Sender, logger *zap.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HandleDataSubmit forwards the event's text to the data destination.
//
// An unconfigured destination wins over everything else. Text that is blank
// after trimming short-circuits to OutcomeNoInput without a network call.
// Otherwise the untrimmed text is sent and echoed back on success.
func (a *Adapter) HandleDataSubmit(ctx context.Context, ev Event) (out Outcome) {
	defer a.recoverTo(&out, "data_submit", ev)

	if !a.sender.Configured(webhook.DestinationData) {
		a.logger.Warn("data webhook not configured",
			zap.String("user_id", ev.UserID),
			zap.Stringer("event_kind", ev.Kind),
		)
		return Outcome{Kind: OutcomeNotConfigured}
	}

	if strings.TrimSpace(ev.Text) == "" {
		a.logger.Info("submission had no data",
			zap.String("user_id", ev.UserID),
			zap.Stringer("event_kind", ev.Kind),
		)
		return Outcome{Kind: OutcomeNoInput}
	}

	payload, err := webhook.NewSubmission(ev.user(), ev.Text, a.now())
	if err != nil {
		return Outcome{Kind: OutcomeNoInput}
	}

	out = fromResult(a.sender.Send(ctx, webhook.DestinationData, payload))
	if out.Kind == OutcomeSuccess {
		out.Data = ev.Text
	}
	a.logger.Info("data submission handled",
		zap.String("user_id", ev.UserID),
		zap.Stringer("event_kind", ev.Kind),
		zap.Stringer("outcome", out.Kind),
	)
	return out
}

// HandleApproval sends an approval payload carrying decision to the approval
// destination. The event's text is never forwarded.
func (a *Adapter) HandleApproval(ctx context.Context, ev Event, decision Decision) (out Outcome) {
	defer a.recoverTo(&out, "approval", ev)

	if !decision.Valid() {
		a.logger.Error("invalid approval decision",
			zap.String("decision", string(decision)),
			zap.String("user_id", ev.UserID),
		)
		return Outcome{Kind: OutcomeFailure}
	}

	payload, err := webhook.NewApproval(ev.user(), string(decision), a.now())
	if err != nil {
		a.logger.Error("failed to build approval payload", zap.Error(err))
		return Outcome{Kind: OutcomeFailure}
	}

	out = fromResult(a.sender.Send(ctx, webhook.DestinationApproval, payload))
	a.logger.Info("approval handled",
		zap.String("user_id", ev.UserID),
		zap.String("decision", string(decision)),
		zap.Stringer("outcome", out.Kind),
	)
	return out
}

func fromResult(r webhook.Result) Outcome {
	switch r {
	case webhook.ResultSuccess:
		return Outcome{Kind: OutcomeSuccess}
	case webhook.ResultNotConfigured:
		return Outcome{Kind: OutcomeNotConfigured}
	default:
		return Outcome{Kind: OutcomeFailure}
	}
}

func (a *Adapter) recoverTo(out *Outcome, op string, ev Event) {
	if r := recover(); r != nil {
		a.logger.Error("panic recovered in relay handler",
			zap.String("operation", op),
			zap.String("user_id", ev.UserID),
			zap.Any("error", r),
			zap.String("stack", string(debug.Stack())),
		)
		*out = Outcome{Kind: OutcomeFailure}
	}
}
