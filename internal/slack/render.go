package slack

import (
	"fmt"
	"unicode/utf8"

	"github.com/rudderlabs/automationbot/internal/relay"
)

// Surface is where an outcome is shown.
type Surface int

const (
	// SurfaceModal replaces the open modal with a result view.
	SurfaceModal Surface = iota
	// SurfaceMessage sends a direct message to the user.
	SurfaceMessage
)

func (s Surface) String() string {
	if s == SurfaceMessage {
		return "message"
	}
	return "modal"
}

// Operation is the user action whose outcome is being rendered.
type Operation int

const (
	OperationSubmitData Operation = iota
	OperationApprove
	OperationReject
)

func (o Operation) String() string {
	switch o {
	case OperationApprove:
		return "approve"
	case OperationReject:
		return "reject"
	default:
		return "submit_data"
	}
}

// DisplayMessage is a rendered outcome. Title is only used on the modal surface.
type DisplayMessage struct {
	Title string
	Text  string
}

// RenderOutcome maps an outcome to its fixed message. It never panics; any
// failure while rendering yields the operation's generic error message.
func RenderOutcome(op Operation, surface Surface, out relay.Outcome) (msg DisplayMessage) {
	defer func() {
		if r := recover(); r != nil {
			msg = failureMessage(op)
		}
	}()

	if op == OperationSubmitData {
		return renderSubmission(surface, out)
	}
	return renderApproval(op, out)
}

func renderSubmission(surface Surface, out relay.Outcome) DisplayMessage {
	switch out.Kind {
	case relay.OutcomeSuccess:
		data := truncateData(out.Data)
		if surface == SurfaceMessage {
			return DisplayMessage{Title: TitleDataSubmitted, Text: fmt.Sprintf(TextSubmitSuccessMessage, data)}
		}
		return DisplayMessage{Title: TitleDataSubmitted, Text: fmt.Sprintf(TextSubmitSuccessModal, data)}
	case relay.OutcomeNotConfigured:
		return DisplayMessage{Title: TitleConfigurationError, Text: TextDataNotConfigured}
	case relay.OutcomeNoInput:
		// A plain modal submission without data is an acknowledgement, not a warning.
		if surface == SurfaceMessage {
			return DisplayMessage{Title: TitleDataSubmitted, Text: TextModalAcknowledged}
		}
		return DisplayMessage{Title: TitleNoData, Text: TextNoData}
	default:
		return failureMessage(OperationSubmitData)
	}
}

// truncateData shortens data to MaxEchoedDataRunes, marking the cut with an
// ellipsis. Only the echo is shortened; the webhook got the full value.
func truncateData(data string) string {
	if utf8.RuneCountInString(data) <= MaxEchoedDataRunes {
		return data
	}
	runes := []rune(data)
	return string(runes[:MaxEchoedDataRunes-1]) + "…"
}

func renderApproval(op Operation, out relay.Outcome) DisplayMessage {
	switch out.Kind {
	case relay.OutcomeSuccess:
		if op == OperationReject {
			return DisplayMessage{Title: TitleActionComplete, Text: TextRejectSuccess}
		}
		return DisplayMessage{Title: TitleActionComplete, Text: TextApproveSuccess}
	case relay.OutcomeNotConfigured:
		return DisplayMessage{Title: TitleConfigurationError, Text: TextApprovalNotConfigured}
	default:
		return failureMessage(op)
	}
}

func failureMessage(op Operation) DisplayMessage {
	switch op {
	case OperationApprove:
		return DisplayMessage{Title: TitleError, Text: TextApproveFailure}
	case OperationReject:
		return DisplayMessage{Title: TitleError, Text: TextRejectFailure}
	default:
		return DisplayMessage{Title: TitleError, Text: TextSubmitFailure}
	}
}
