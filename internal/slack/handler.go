package slack

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/rudderlabs/automationbot/internal/relay"
	"github.com/rudderlabs/automationbot/pkg/constants"
	"github.com/rudderlabs/automationbot/pkg/metrics"
	"github.com/rudderlabs/automationbot/pkg/worker"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// API is the subset of *slack.Client the handler calls.
type API interface {
	OpenViewContext(ctx context.Context, triggerID string, view slack.ModalViewRequest) (*slack.ViewResponse, error)
	UpdateViewContext(ctx context.Context, view slack.ModalViewRequest, externalID, hash, viewID string) (*slack.ViewResponse, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
}

type Handler struct {
	config  *Config
	api     API
	adapter *relay.Adapter
	pool    *worker.Pool
	logger  *zap.Logger
	metrics *metrics.Metrics
}

type Config struct {
	SigningSecret string
}

type slackRequest struct {
	Body   []byte
	Values url.Values
}

// NewHandler creates a handler. Interaction work runs on pool so Slack can be
// acknowledged before the webhook call completes.
func NewHandler(cfg *Config, api API, adapter *relay.Adapter, pool *worker.Pool, logger *zap.Logger) *Handler {
	return &Handler{
		config:  cfg,
		api:     api,
		adapter: adapter,
		pool:    pool,
		logger:  logger,
	}
}

// Wait blocks until all scheduled interaction work has finished.
func (h *Handler) Wait() {
	h.pool.Wait()
}

// HandleSlashCommand handles incoming Slack slash commands
func (h *Handler) HandleSlashCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Validate and parse Slack request
	req, ok := h.validateSlackRequest(w, r)
	if !ok {
		return
	}

	cmd := slashCommandFromValues(req.Values)
	if reply := h.runCommand(r.Context(), cmd); reply != "" {
		respondToSlack(w, reply)
		return
	}

	// Respond with 200 OK immediately (empty response)
	w.WriteHeader(http.StatusOK)
}

// runCommand opens the automation modal for a known command. It returns the
// ephemeral reply to show the user, or "" when there is nothing to say.
func (h *Handler) runCommand(ctx context.Context, cmd slack.SlashCommand) string {
	h.logger.Info("received slash command",
		zap.String("command", cmd.Command),
		zap.String("user_id", cmd.UserID),
		zap.String("user", cmd.UserName),
		zap.Int("trigger_id_length", len(cmd.TriggerID)),
	)

	if !isAutomationCommand(cmd.Command) {
		h.logger.Warn("unknown slash command", zap.String("command", cmd.Command))
		h.recordSlackCommand(cmd.Command, "unknown")
		return fmt.Sprintf(TextUnknownCommand, cmd.Command)
	}

	return h.openAutomationModal(ctx, cmd)
}

// runCommandAsync runs cmd on the worker pool. It is for transports that have
// already acknowledged the command and cannot reply with its result.
func (h *Handler) runCommandAsync(cmd slack.SlashCommand) bool {
	accepted := h.pool.Go("slash_command", func(ctx context.Context) {
		h.runCommand(ctx, cmd)
	})
	if !accepted {
		h.logger.Warn("slash command rejected - shutting down", zap.String("command", cmd.Command))
		h.recordSlackCommand(cmd.Command, "rejected")
	}
	return accepted
}

func isAutomationCommand(command string) bool {
	return command == CommandAutomation || command == CommandN8NBot
}

// openAutomationModal opens the form for cmd's trigger ID.
func (h *Handler) openAutomationModal(ctx context.Context, cmd slack.SlashCommand) string {
	if cmd.TriggerID == "" {
		h.logger.Error("trigger_id is empty", zap.String("command", cmd.Command))
		h.recordSlackCommand(cmd.Command, "error")
		return TextOpenModalFailure
	}

	ctx, cancel := context.WithTimeout(ctx, constants.SlackAPITimeout)
	defer cancel()

	modal := BuildAutomationModal()
	viewResponse, err := h.api.OpenViewContext(ctx, cmd.TriggerID, modal)
	if err != nil {
		h.logSlackError("views.open", err)

		if modalJSON, marshalErr := json.Marshal(modal); marshalErr == nil {
			h.logger.Debug("modal that failed to open", zap.String("modal_json", string(modalJSON)))
		}

		h.recordSlackCommand(cmd.Command, "error")
		return TextOpenModalFailure
	}

	viewID := ""
	if viewResponse != nil {
		viewID = viewResponse.ID
	}
	h.logger.Info("modal opened successfully",
		zap.String("command", cmd.Command),
		zap.String("view_id", viewID),
	)
	h.recordSlackCommand(cmd.Command, "success")
	return ""
}

// HandleInteractive handles button clicks and modal submissions.
// Slack is answered immediately; the webhook call and the result rendering
// happen in the background.
func (h *Handler) HandleInteractive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Validate and parse Slack request
	req, ok := h.validateSlackRequest(w, r)
	if !ok {
		return
	}

	payload, err := parseInteractionPayload([]byte(req.Values.Get("payload")))
	if err != nil {
		h.handleError(w, err, "Bad request", http.StatusBadRequest)
		return
	}

	// Validate the payload
	if err := payload.Validate(); err != nil {
		h.handleError(w, err, "Invalid interaction payload", http.StatusBadRequest)
		return
	}

	h.handleInteraction(payload)

	// An empty 200 closes the modal on view_submission and acks block_actions
	w.WriteHeader(http.StatusOK)
}

// handleInteraction routes an acknowledged interaction. It reports whether
// work was scheduled; unrelated interactions are ignored.
func (h *Handler) handleInteraction(p *InteractionPayload) bool {
	h.logger.Info("received interaction",
		zap.String("type", p.Type),
		zap.String("action_id", p.ActionID()),
		zap.String("callback_id", p.View.CallbackID),
		zap.String("user_id", p.User.ID),
	)

	switch p.Type {
	case InteractionTypeBlockActions:
		switch p.ActionID() {
		case ActionIDSubmitData:
			return h.schedule(p, OperationSubmitData, SurfaceModal)
		case ActionIDApprove:
			return h.schedule(p, OperationApprove, SurfaceModal)
		case ActionIDReject:
			return h.schedule(p, OperationReject, SurfaceModal)
		}
	case InteractionTypeViewSubmission:
		if p.View.CallbackID == ModalCallbackIDAutomation {
			return h.schedule(p, OperationSubmitData, SurfaceMessage)
		}
	}

	h.logger.Info("ignoring interaction",
		zap.String("type", p.Type),
		zap.String("action_id", p.ActionID()),
		zap.String("callback_id", p.View.CallbackID),
	)
	h.recordSlackInteraction(p.Type, interactionLabel(p), "ignored")
	return false
}

// interactionLabel names an interaction for metrics: the action for button
// clicks, the callback ID otherwise.
func interactionLabel(p *InteractionPayload) string {
	if id := p.ActionID(); id != "" {
		return id
	}
	return p.View.CallbackID
}

func (h *Handler) schedule(p *InteractionPayload, op Operation, surface Surface) bool {
	accepted := h.pool.Go(op.String(), func(ctx context.Context) {
		h.runOperation(ctx, p, op, surface)
	})

	status := "accepted"
	if !accepted {
		status = "rejected"
	}
	h.recordSlackInteraction(p.Type, interactionLabel(p), status)
	return accepted
}

// runOperation performs op and shows its outcome on surface. A panic anywhere
// in here still leaves the user with the generic error message.
func (h *Handler) runOperation(ctx context.Context, p *InteractionPayload, op Operation, surface Surface) {
	defer func() {
		if r := recover(); r != nil {
			if h.metrics != nil {
				h.metrics.PanicRecoveriesTotal.Inc()
			}
			h.logger.Error("panic recovered while handling interaction",
				zap.String("operation", op.String()),
				zap.String("user_id", p.User.ID),
				zap.Any("error", r),
				zap.String("stack", string(debug.Stack())),
			)
			h.recordOutcome(op, relay.OutcomeFailure)
			h.present(ctx, p, surface, op, failureMessage(op))
		}
	}()

	var out relay.Outcome
	switch op {
	case OperationSubmitData:
		out = h.submitData(ctx, p, surface)
	case OperationApprove:
		out = h.adapter.HandleApproval(ctx, eventFrom(p, relay.EventKindApprove), relay.DecisionApprove)
	case OperationReject:
		out = h.adapter.HandleApproval(ctx, eventFrom(p, relay.EventKindReject), relay.DecisionReject)
	}

	h.recordOutcome(op, out.Kind)
	h.present(ctx, p, surface, op, RenderOutcome(op, surface, out))
}

// submitData is the one path for both the Submit Data button and the modal
// submission. Only the surface differs.
func (h *Handler) submitData(ctx context.Context, p *InteractionPayload, surface Surface) relay.Outcome {
	kind := relay.EventKindButton
	if surface == SurfaceMessage {
		kind = relay.EventKindFormSubmission
	}
	return h.adapter.HandleDataSubmit(ctx, eventFrom(p, kind))
}

func eventFrom(p *InteractionPayload, kind relay.EventKind) relay.Event {
	return relay.Event{
		UserID:   p.User.ID,
		UserName: p.UserName(),
		Text:     p.DataValue(),
		Kind:     kind,
	}
}

// present shows msg to the user. If Slack rejects it, the generic failure
// message for op is shown instead so the form is never left without a result.
// The Slack calls get their own deadline so a slow webhook cannot starve them.
func (h *Handler) present(ctx context.Context, p *InteractionPayload, surface Surface, op Operation, msg DisplayMessage) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.SlackAPITimeout)
	defer cancel()

	err := h.show(ctx, p, surface, msg)
	if err == nil {
		return
	}

	fallback := failureMessage(op)
	if msg == fallback {
		return
	}

	h.logger.Warn("presenting failure message after Slack rejected the result",
		zap.String("surface", surface.String()),
		zap.String("operation", op.String()),
		zap.String("user_id", p.User.ID),
	)
	h.show(ctx, p, surface, fallback)
}

// show makes a single Slack call rendering msg on surface. Failures are
// logged and counted before being returned.
func (h *Handler) show(ctx context.Context, p *InteractionPayload, surface Surface, msg DisplayMessage) error {
	switch surface {
	case SurfaceMessage:
		if _, _, err := h.api.PostMessageContext(ctx, p.User.ID, slack.MsgOptionText(msg.Text, false)); err != nil {
			h.logSlackError("chat.postMessage", err)
			return err
		}
	default:
		viewID := p.View.ID
		if viewID == "" {
			viewID = p.Container.ViewID
		}
		if _, err := h.api.UpdateViewContext(ctx, BuildResultModal(msg), "", "", viewID); err != nil {
			h.logSlackError("views.update", err)
			return err
		}
	}

	h.logger.Debug("outcome presented",
		zap.String("surface", surface.String()),
		zap.String("user_id", p.User.ID),
		zap.String("title", msg.Title),
	)
	return nil
}

// logSlackError logs a Slack Web API failure with whatever detail Slack returned.
func (h *Handler) logSlackError(method string, err error) {
	h.recordSlackAPIError(method)

	var slackErr slack.SlackErrorResponse
	if errors.As(err, &slackErr) {
		h.logger.Error("slack API error",
			zap.String("method", method),
			zap.String("error", slackErr.Err),
			zap.String("response_metadata", fmt.Sprintf("%+v", slackErr.ResponseMetadata)),
		)
		return
	}

	h.logger.Error("slack API call failed",
		zap.String("method", method),
		zap.Error(err),
		zap.String("error_type", fmt.Sprintf("%T", err)),
	)
}

// handleError handles errors consistently across all handlers by logging the error
// and sending an appropriate HTTP response with a user-friendly message
func (h *Handler) handleError(w http.ResponseWriter, err error, userMessage string, statusCode int) {
	h.logger.Error("handler error",
		zap.Error(err),
		zap.String("user_message", userMessage),
		zap.Int("status_code", statusCode),
	)
	http.Error(w, userMessage, statusCode)
}

// validateSlackRequest validates and parses a Slack request
// Returns the parsed request and true if valid, or nil and false if invalid (error response already written)
func (h *Handler) validateSlackRequest(w http.ResponseWriter, r *http.Request) (*slackRequest, bool) {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.handleError(w, err, "Bad request", http.StatusBadRequest)
		return nil, false
	}

	if !h.verifySlackRequest(r.Header, body) {
		h.handleError(w, fmt.Errorf("invalid Slack signature"), "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		h.handleError(w, err, "Bad request", http.StatusBadRequest)
		return nil, false
	}

	return &slackRequest{
		Body:   body,
		Values: values,
	}, true
}

// verifySlackRequest verifies that the request came from Slack
func (h *Handler) verifySlackRequest(headers http.Header, body []byte) bool {
	timestamp := headers.Get(HeaderSlackRequestTimestamp)
	signature := headers.Get(HeaderSlackSignature)

	if timestamp == "" || signature == "" {
		return false
	}

	// Check timestamp is within 5 minutes
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	if time.Now().Unix()-ts > constants.MaxSlackRequestAge {
		return false
	}

	sigBaseString := fmt.Sprintf("%s:%s:%s", SignatureVersion, timestamp, string(body))
	mac := hmac.New(sha256.New, []byte(h.config.SigningSecret))
	mac.Write([]byte(sigBaseString))
	expectedSignature := SignaturePrefix + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expectedSignature), []byte(signature))
}

func slashCommandFromValues(v url.Values) slack.SlashCommand {
	return slack.SlashCommand{
		Command:   v.Get("command"),
		Text:      v.Get("text"),
		TriggerID: v.Get("trigger_id"),
		UserID:    v.Get("user_id"),
		UserName:  v.Get("user_name"),
		ChannelID: v.Get("channel_id"),
		TeamID:    v.Get("team_id"),
	}
}

// ephemeralResponse is a slash command reply only the invoking user sees
func ephemeralResponse(message string) map[string]string {
	return map[string]string{
		"response_type": "ephemeral",
		"text":          message,
	}
}

// respondToSlack sends a response back to Slack
func respondToSlack(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ephemeralResponse(message))
}
