// Package slack provides handlers and types for Slack integration.
//
// This package implements the Slack side of the bot:
// - Slash command handling (/automation, /n8n-bot)
// - The automation modal and its result views
// - Routing of button clicks and modal submissions to the relay adapter
// - Slack request signature verification for HTTP callbacks
// - A Socket Mode runner for deployments without a public endpoint
package slack

import (
	"encoding/json"
	"fmt"
)

// InteractionPayload is the subset of a Slack interaction the bot reads:
// button clicks (block_actions) and modal submissions (view_submission).
//
// Over HTTP it arrives URL-encoded in the "payload" form parameter; in Socket
// Mode it is the envelope's raw payload. Both decode into this struct.
type InteractionPayload struct {
	Type      string    `json:"type"`
	User      User      `json:"user"`
	Team      Team      `json:"team"`
	View      View      `json:"view"`
	TriggerID string    `json:"trigger_id,omitempty"`
	Actions   []Action  `json:"actions,omitempty"`
	Container Container `json:"container,omitempty"`
}

// User represents the Slack user who triggered the interaction
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	TeamID   string `json:"team_id"`
}

// Team represents the Slack workspace
type Team struct {
	ID     string `json:"id"`
	Domain string `json:"domain"`
}

// View represents the modal the interaction came from
type View struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	CallbackID string            `json:"callback_id"`
	Blocks     []json.RawMessage `json:"blocks,omitempty"`
	State      ViewState         `json:"state"`
	Hash       string            `json:"hash"`
}

// ViewState represents the state of a view, containing all input values.
//
// The structure is nested: state.values[block_id][action_id] -> StateValue
type ViewState struct {
	Values map[string]map[string]StateValue `json:"values"`
}

// StateValue represents a single input value from the view state.
// Slack sends a null value for an untouched optional text input.
type StateValue struct {
	Type  string  `json:"type"`
	Value *string `json:"value,omitempty"`
}

// Action represents a button click in a block_actions interaction
type Action struct {
	Type     string `json:"type"`
	ActionID string `json:"action_id"`
	BlockID  string `json:"block_id"`
	Value    string `json:"value,omitempty"`
	ActionTS string `json:"action_ts"`
}

// Container represents the container of an interactive component
type Container struct {
	Type   string `json:"type"`
	ViewID string `json:"view_id,omitempty"`
}

// Validate checks if the InteractionPayload has all required fields
func (ip *InteractionPayload) Validate() error {
	if ip.Type == "" {
		return fmt.Errorf("interaction type is required")
	}
	if ip.User.ID == "" {
		return fmt.Errorf("user ID is required")
	}
	if ip.Team.ID == "" {
		return fmt.Errorf("team ID is required")
	}
	return nil
}

// ActionID returns the action ID of the first action, or "" when the payload
// carries none. Slack sends exactly one action per button click.
func (ip *InteractionPayload) ActionID() string {
	if len(ip.Actions) == 0 {
		return ""
	}
	return ip.Actions[0].ActionID
}

// UserName returns the display name Slack sent, falling back to the username.
func (ip *InteractionPayload) UserName() string {
	if ip.User.Name != "" {
		return ip.User.Name
	}
	return ip.User.Username
}

// DataValue returns the raw "Data Input" field value. A missing block, a
// missing action or a null value all read as "".
func (ip *InteractionPayload) DataValue() string {
	value, err := ip.View.State.GetValue(BlockIDDataInput, ActionIDDataValue)
	if err != nil {
		return ""
	}
	return value
}

// GetValue extracts a plain text value from the view state.
//
// Returns an error if the block/action doesn't exist, and an empty string
// (without error) if the field exists but has no value.
//
// Example:
//
//	data, err := state.GetValue("data_input", "data_value")
//	if err != nil {
//	    // Field doesn't exist in the form
//	}
func (vs *ViewState) GetValue(blockID, actionID string) (string, error) {
	if vs.Values == nil {
		return "", fmt.Errorf("view state values is nil")
	}

	block, exists := vs.Values[blockID]
	if !exists {
		return "", fmt.Errorf("block %q not found in view state", blockID)
	}

	stateValue, exists := block[actionID]
	if !exists {
		return "", fmt.Errorf("action %q not found in block %q", actionID, blockID)
	}

	if stateValue.Value != nil {
		return *stateValue.Value, nil
	}

	return "", nil
}

// parseInteractionPayload decodes a raw interaction JSON document
func parseInteractionPayload(raw []byte) (*InteractionPayload, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing payload in request")
	}

	var payload InteractionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return &payload, nil
}
