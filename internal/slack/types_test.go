package slack

import (
	"testing"
)

// stringPtr is a helper function to create string pointers for tests
func stringPtr(s string) *string {
	return &s
}

// TestGetValue_NilPointerSafety tests that GetValue handles nil pointers safely
func TestGetValue_NilPointerSafety(t *testing.T) {
	tests := []struct {
		name      string
		state     *ViewState
		blockID   string
		actionID  string
		want      string
		wantError bool
	}{
		{
			name:      "nil ViewState Values",
			state:     &ViewState{Values: nil},
			blockID:   BlockIDDataInput,
			actionID:  ActionIDDataValue,
			wantError: true,
		},
		{
			name: "missing block",
			state: &ViewState{
				Values: map[string]map[string]StateValue{},
			},
			blockID:   BlockIDDataInput,
			actionID:  ActionIDDataValue,
			wantError: true,
		},
		{
			name: "missing action",
			state: &ViewState{
				Values: map[string]map[string]StateValue{
					BlockIDDataInput: {},
				},
			},
			blockID:   BlockIDDataInput,
			actionID:  ActionIDDataValue,
			wantError: true,
		},
		{
			name: "nil Value pointer",
			state: &ViewState{
				Values: map[string]map[string]StateValue{
					BlockIDDataInput: {
						ActionIDDataValue: {Type: "plain_text_input", Value: nil},
					},
				},
			},
			blockID:  BlockIDDataInput,
			actionID: ActionIDDataValue,
			want:     "",
		},
		{
			name: "valid Value",
			state: &ViewState{
				Values: map[string]map[string]StateValue{
					BlockIDDataInput: {
						ActionIDDataValue: {Type: "plain_text_input", Value: stringPtr("  some data  ")},
					},
				},
			},
			blockID:  BlockIDDataInput,
			actionID: ActionIDDataValue,
			want:     "  some data  ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.state.GetValue(tt.blockID, tt.actionID)
			if (err != nil) != tt.wantError {
				t.Errorf("GetValue() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if got != tt.want {
				t.Errorf("GetValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestInteractionPayload_Validate tests the Validate method
func TestInteractionPayload_Validate(t *testing.T) {
	tests := []struct {
		name    string
		payload InteractionPayload
		wantErr bool
	}{
		{
			name: "valid payload",
			payload: InteractionPayload{
				Type: InteractionTypeBlockActions,
				User: User{ID: "U123"},
				Team: Team{ID: "T123"},
			},
		},
		{
			name: "missing type",
			payload: InteractionPayload{
				User: User{ID: "U123"},
				Team: Team{ID: "T123"},
			},
			wantErr: true,
		},
		{
			name: "missing user ID",
			payload: InteractionPayload{
				Type: InteractionTypeViewSubmission,
				Team: Team{ID: "T123"},
			},
			wantErr: true,
		},
		{
			name: "missing team ID",
			payload: InteractionPayload{
				Type: InteractionTypeViewSubmission,
				User: User{ID: "U123"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestInteractionPayload_Accessors tests ActionID, UserName and DataValue
func TestInteractionPayload_Accessors(t *testing.T) {
	p := &InteractionPayload{}
	if p.ActionID() != "" {
		t.Errorf("ActionID() with no actions = %q, want empty", p.ActionID())
	}
	if p.DataValue() != "" {
		t.Errorf("DataValue() with no state = %q, want empty", p.DataValue())
	}

	p = &InteractionPayload{
		User:    User{ID: "U1", Username: "alice.smith", Name: "alice"},
		Actions: []Action{{ActionID: ActionIDApprove}, {ActionID: ActionIDReject}},
		View: View{State: ViewState{Values: map[string]map[string]StateValue{
			BlockIDDataInput: {ActionIDDataValue: {Value: stringPtr("hello")}},
		}}},
	}
	if p.ActionID() != ActionIDApprove {
		t.Errorf("ActionID() = %q, want %q", p.ActionID(), ActionIDApprove)
	}
	if p.UserName() != "alice" {
		t.Errorf("UserName() = %q, want alice", p.UserName())
	}
	if p.DataValue() != "hello" {
		t.Errorf("DataValue() = %q, want hello", p.DataValue())
	}

	p.User.Name = ""
	if p.UserName() != "alice.smith" {
		t.Errorf("UserName() fallback = %q, want alice.smith", p.UserName())
	}
}

// TestParseInteractionPayload tests decoding of raw interaction JSON
func TestParseInteractionPayload(t *testing.T) {
	raw := []byte(`{
		"type": "block_actions",
		"user": {"id": "U123", "username": "alice", "name": "alice"},
		"team": {"id": "T123", "domain": "example"},
		"view": {
			"id": "V123",
			"callback_id": "automation_modal",
			"state": {"values": {"data_input": {"data_value": {"type": "plain_text_input", "value": null}}}}
		},
		"actions": [{"type": "button", "action_id": "submit_data_action", "block_id": "submit_data_action", "value": "submit_data"}]
	}`)

	p, err := parseInteractionPayload(raw)
	if err != nil {
		t.Fatalf("parseInteractionPayload() error = %v", err)
	}
	if p.Type != InteractionTypeBlockActions {
		t.Errorf("Type = %q", p.Type)
	}
	if p.View.ID != "V123" {
		t.Errorf("View.ID = %q, want V123", p.View.ID)
	}
	if p.ActionID() != ActionIDSubmitData {
		t.Errorf("ActionID() = %q", p.ActionID())
	}
	if p.DataValue() != "" {
		t.Errorf("null value should read as empty, got %q", p.DataValue())
	}

	if _, err := parseInteractionPayload(nil); err == nil {
		t.Error("expected error for missing payload")
	}
	if _, err := parseInteractionPayload([]byte("{invalid json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
