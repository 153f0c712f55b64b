package webhook

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rudderlabs/automationbot/pkg/constants"
)

// Destination names one of the two configured outbound endpoints.
type Destination string

const (
	DestinationData     Destination = "data"
	DestinationApproval Destination = "approval"
)

// ErrEmptyData is returned when a submission would carry blank data.
var ErrEmptyData = errors.New("submission data is empty")

// User identifies the Slack user who triggered the payload.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SubmissionPayload is the body POSTed to the data destination.
type SubmissionPayload struct {
	Type      string `json:"type"`
	Data      string `json:"data"`
	User      User   `json:"user"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

// ApprovalPayload is the body POSTed to the approval destination.
// It never carries a data field.
type ApprovalPayload struct {
	Type      string `json:"type"`
	Action    string `json:"action"`
	User      User   `json:"user"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

// NewSubmission builds a submission payload stamped with now.
// data is forwarded verbatim; only the blank check trims it.
func NewSubmission(user User, data string, now time.Time) (SubmissionPayload, error) {
	if strings.TrimSpace(data) == "" {
		return SubmissionPayload{}, ErrEmptyData
	}
	return SubmissionPayload{
		Type:      constants.PayloadTypeDataSubmission,
		Data:      data,
		User:      user,
		Timestamp: FormatTimestamp(now),
		Source:    constants.SourceSlackBot,
	}, nil
}

// NewApproval builds an approval payload stamped with now.
// action must be "approve" or "reject".
func NewApproval(user User, action string, now time.Time) (ApprovalPayload, error) {
	if action != constants.ActionApprove && action != constants.ActionReject {
		return ApprovalPayload{}, fmt.Errorf("invalid approval action %q", action)
	}
	return ApprovalPayload{
		Type:      constants.PayloadTypeApprovalAction,
		Action:    action,
		User:      user,
		Timestamp: FormatTimestamp(now),
		Source:    constants.SourceSlackBot,
	}, nil
}

// FormatTimestamp renders t in UTC as 2006-01-02T15:04:05.000Z.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(constants.TimestampLayout)
}
