// Package slack provides handlers and types for Slack integration.
//
// This file implements Slack modal building functions. The automation modal
// is the form that appears when users invoke /automation or /n8n-bot:
//
// Blocks:
//   - Intro section
//   - Data Input: optional multiline text input
//   - Submit Data button (sends the field without closing the modal)
//   - Divider and approval section
//   - Approve / Reject buttons
//
// Every outcome is shown either by replacing the open modal with a result
// modal (BuildResultModal) or by a direct message to the user.
//
// Example of building a modal:
//
//	modal := BuildAutomationModal()
//	// Returns a ModalViewRequest with callback ID "automation_modal"
package slack

import (
	"github.com/slack-go/slack"
)

// BuildAutomationModal constructs the modal opened by the slash commands.
//
// The modal has 6 blocks:
// 1. Intro section (mrkdwn)
// 2. Data input (optional, multiline)
// 3. Actions block with the Submit Data button
// 4. Divider
// 5. Approval section (mrkdwn)
// 6. Actions block with Approve and Reject buttons
//
// Example:
//
//	modal := BuildAutomationModal()
//	// modal.Type == VTModal
//	// modal.CallbackID == "automation_modal"
//	// len(modal.Blocks.BlockSet) == 6
func BuildAutomationModal() slack.ModalViewRequest {
	return slack.ModalViewRequest{
		Type:       slack.VTModal,
		CallbackID: ModalCallbackIDAutomation,
		Title:      newPlainText(ModalTitle),
		Submit:     newPlainText(ModalSubmitText),
		Close:      newPlainText(ModalCancelText),
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{
				newMarkdownSection(BlockIDIntro, IntroText),
				buildDataInputBlock(),
				slack.NewActionBlock(
					BlockIDSubmitData,
					newButton(ActionIDSubmitData, ButtonValueSubmitData, ButtonTextSubmitData, slack.StylePrimary),
				),
				slack.NewDividerBlock(),
				newMarkdownSection(BlockIDApprovalSection, ApprovalSectionText),
				slack.NewActionBlock(
					BlockIDApprovalActions,
					newButton(ActionIDApprove, ButtonValueApprove, ButtonTextApprove, slack.StylePrimary),
					newButton(ActionIDReject, ButtonValueReject, ButtonTextReject, slack.StyleDanger),
				),
			},
		},
	}
}

// BuildResultModal builds the view that replaces the automation modal after a
// button click: a title, a Close button and one mrkdwn section.
func BuildResultModal(msg DisplayMessage) slack.ModalViewRequest {
	return slack.ModalViewRequest{
		Type:  slack.VTModal,
		Title: newPlainText(msg.Title),
		Close: newPlainText(ModalCloseText),
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{
				newMarkdownSection(BlockIDResult, msg.Text),
			},
		},
	}
}

// buildDataInputBlock creates the optional multiline "Data Input" field.
//
// BlockID: "data_input"
// ActionID: "data_value"
func buildDataInputBlock() *slack.InputBlock {
	element := slack.NewPlainTextInputBlockElement(
		newPlainText(PlaceholderDataInput),
		ActionIDDataValue,
	)
	element.Multiline = true

	block := slack.NewInputBlock(
		BlockIDDataInput,
		newPlainText(LabelDataInput),
		nil,
		element,
	)
	block.Optional = true

	return block
}

func newMarkdownSection(blockID, text string) *slack.SectionBlock {
	return slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
		nil,
		nil,
		slack.SectionBlockOptionBlockID(blockID),
	)
}

// newButton creates a button whose label may contain emoji.
func newButton(actionID, value, text string, style slack.Style) *slack.ButtonBlockElement {
	return slack.NewButtonBlockElement(
		actionID,
		value,
		slack.NewTextBlockObject(slack.PlainTextType, text, true, false),
	).WithStyle(style)
}

// newPlainText creates a Slack TextBlockObject of type "plain_text".
// Used for labels, placeholders and modal titles.
func newPlainText(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, false, false)
}
