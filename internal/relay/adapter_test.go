package relay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rudderlabs/automationbot/internal/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSender records dispatches and returns a canned result.
type fakeSender struct {
	mu         sync.Mutex
	configured map[webhook.Destination]bool
	result     webhook.Result
	panicOn    bool
	calls      []sentCall
}

type sentCall struct {
	dest    webhook.Destination
	payload any
}

func newFakeSender(result webhook.Result, dests ...webhook.Destination) *fakeSender {
	f := &fakeSender{configured: map[webhook.Destination]bool{}, result: result}
	for _, d := range dests {
		f.configured[d] = true
	}
	return f
}

func (f *fakeSender) Configured(dest webhook.Destination) bool {
	return f.configured[dest]
}

func (f *fakeSender) Send(_ context.Context, dest webhook.Destination, payload any) webhook.Result {
	if f.panicOn {
		panic("sender exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sentCall{dest: dest, payload: payload})
	if !f.configured[dest] {
		return webhook.ResultNotConfigured
	}
	return f.result
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var fixedNow = time.Date(2024, 3, 5, 7, 8, 9, 123000000, time.UTC)

func newTestAdapter(s Sender) *Adapter {
	return NewAdapter(s, zap.NewNop(), WithClock(func() time.Time { return fixedNow }))
}

func submitEvent(text string) Event {
	return Event{UserID: "U123", UserName: "alice", Text: text, Kind: EventKindButton}
}

func TestHandleDataSubmit_Success(t *testing.T) {
	s := newFakeSender(webhook.ResultSuccess, webhook.DestinationData)
	a := newTestAdapter(s)

	out := a.HandleDataSubmit(context.Background(), submitEvent("  hello  "))

	assert.Equal(t, OutcomeSuccess, out.Kind)
	assert.Equal(t, "  hello  ", out.Data)
	require.Equal(t, 1, s.callCount())

	call := s.calls[0]
	assert.Equal(t, webhook.DestinationData, call.dest)
	payload, ok := call.payload.(webhook.SubmissionPayload)
	require.True(t, ok, "payload should be a SubmissionPayload, got %T", call.payload)
	assert.Equal(t, "  hello  ", payload.Data)
	assert.Equal(t, webhook.User{ID: "U123", Name: "alice"}, payload.User)
	assert.Equal(t, "2024-03-05T07:08:09.123Z", payload.Timestamp)
	assert.Equal(t, "slack_bot", payload.Source)
}

func TestHandleDataSubmit_NoInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		s := newFakeSender(webhook.ResultSuccess, webhook.DestinationData)
		a := newTestAdapter(s)

		out := a.HandleDataSubmit(context.Background(), submitEvent(text))

		assert.Equal(t, OutcomeNoInput, out.Kind, "text %q", text)
		assert.Empty(t, out.Data)
		assert.Zero(t, s.callCount(), "text %q must not trigger a dispatch", text)
	}
}

func TestHandleDataSubmit_NotConfiguredRegardlessOfInput(t *testing.T) {
	for _, text := range []string{"", "   ", "hello"} {
		s := newFakeSender(webhook.ResultSuccess, webhook.DestinationApproval)
		a := newTestAdapter(s)

		out := a.HandleDataSubmit(context.Background(), submitEvent(text))

		assert.Equal(t, OutcomeNotConfigured, out.Kind, "text %q", text)
		assert.Zero(t, s.callCount())
	}
}

func TestHandleDataSubmit_Failure(t *testing.T) {
	s := newFakeSender(webhook.ResultFailure, webhook.DestinationData)
	a := newTestAdapter(s)

	out := a.HandleDataSubmit(context.Background(), submitEvent("hello"))

	assert.Equal(t, OutcomeFailure, out.Kind)
	assert.Empty(t, out.Data, "failed submissions do not echo data")
	assert.Equal(t, 1, s.callCount())
}

func TestHandleDataSubmit_SamePathForBothEntryPoints(t *testing.T) {
	button := newFakeSender(webhook.ResultSuccess, webhook.DestinationData)
	form := newFakeSender(webhook.ResultSuccess, webhook.DestinationData)

	ev := submitEvent("same text")
	newTestAdapter(button).HandleDataSubmit(context.Background(), ev)
	ev.Kind = EventKindFormSubmission
	newTestAdapter(form).HandleDataSubmit(context.Background(), ev)

	require.Equal(t, 1, button.callCount())
	require.Equal(t, 1, form.callCount())
	assert.Equal(t, button.calls[0], form.calls[0])
}

func TestHandleDataSubmit_RecoversPanic(t *testing.T) {
	s := newFakeSender(webhook.ResultSuccess, webhook.DestinationData)
	s.panicOn = true
	a := newTestAdapter(s)

	var out Outcome
	assert.NotPanics(t, func() {
		out = a.HandleDataSubmit(context.Background(), submitEvent("hello"))
	})
	assert.Equal(t, OutcomeFailure, out.Kind)
}

func TestHandleApproval(t *testing.T) {
	tests := []struct {
		name     string
		decision Decision
		result   webhook.Result
		dests    []webhook.Destination
		want     OutcomeKind
		calls    int
	}{
		{name: "approve success", decision: DecisionApprove, result: webhook.ResultSuccess, dests: []webhook.Destination{webhook.DestinationApproval}, want: OutcomeSuccess, calls: 1},
		{name: "reject success", decision: DecisionReject, result: webhook.ResultSuccess, dests: []webhook.Destination{webhook.DestinationApproval}, want: OutcomeSuccess, calls: 1},
		{name: "approve failure", decision: DecisionApprove, result: webhook.ResultFailure, dests: []webhook.Destination{webhook.DestinationApproval}, want: OutcomeFailure, calls: 1},
		{name: "not configured", decision: DecisionReject, result: webhook.ResultSuccess, dests: []webhook.Destination{webhook.DestinationData}, want: OutcomeNotConfigured, calls: 1},
		{name: "invalid decision", decision: Decision("maybe"), result: webhook.ResultSuccess, dests: []webhook.Destination{webhook.DestinationApproval}, want: OutcomeFailure, calls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeSender(tt.result, tt.dests...)
			a := newTestAdapter(s)

			ev := Event{UserID: "U9", UserName: "bob", Text: "ignored", Kind: EventKindApprove}
			out := a.HandleApproval(context.Background(), ev, tt.decision)

			assert.Equal(t, tt.want, out.Kind)
			assert.Empty(t, out.Data)
			require.Equal(t, tt.calls, s.callCount())
			if tt.calls == 0 {
				return
			}

			call := s.calls[0]
			assert.Equal(t, webhook.DestinationApproval, call.dest)
			payload, ok := call.payload.(webhook.ApprovalPayload)
			require.True(t, ok, "payload should be an ApprovalPayload, got %T", call.payload)
			assert.Equal(t, string(tt.decision), payload.Action)
			assert.Equal(t, "approval_action", payload.Type)
			assert.Equal(t, webhook.User{ID: "U9", Name: "bob"}, payload.User)
		})
	}
}

func TestHandleApproval_RecoversPanic(t *testing.T) {
	s := newFakeSender(webhook.ResultSuccess, webhook.DestinationApproval)
	s.panicOn = true
	a := newTestAdapter(s)

	out := a.HandleApproval(context.Background(), Event{UserID: "U1"}, DecisionApprove)
	assert.Equal(t, OutcomeFailure, out.Kind)
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "not_configured", OutcomeNotConfigured.String())
	assert.Equal(t, "no_input", OutcomeNoInput.String())
	assert.Equal(t, "failure", OutcomeFailure.String())

	assert.Equal(t, "button", EventKindButton.String())
	assert.Equal(t, "form_submission", EventKindFormSubmission.String())
	assert.Equal(t, "unknown", EventKind(99).String())
}

func TestAdapterWithRealDispatcher(t *testing.T) {
	// Not configured data destination: no URL, so no request can be made.
	d := webhook.NewDispatcher(webhook.Config{}, zap.NewNop())
	a := NewAdapter(d, zap.NewNop())

	out := a.HandleDataSubmit(context.Background(), submitEvent("hello"))
	assert.Equal(t, OutcomeNotConfigured, out.Kind)

	out = a.HandleApproval(context.Background(), submitEvent(""), DecisionApprove)
	assert.Equal(t, OutcomeNotConfigured, out.Kind)
}
