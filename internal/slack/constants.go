package slack

// Slash commands that open the automation modal
const (
	CommandAutomation = "/automation"
	CommandN8NBot     = "/n8n-bot"
)

// Modal callback IDs
const (
	ModalCallbackIDAutomation = "automation_modal"
)

// Block IDs for the automation modal
const (
	BlockIDIntro           = "intro_block"
	BlockIDDataInput       = "data_input"
	BlockIDSubmitData      = "submit_data_action"
	BlockIDApprovalSection = "approval_section"
	BlockIDApprovalActions = "approval_actions"
	BlockIDResult          = "result_block"
)

// Action IDs for the automation modal
const (
	ActionIDDataValue  = "data_value"
	ActionIDSubmitData = "submit_data_action"
	ActionIDApprove    = "approve_action"
	ActionIDReject     = "reject_action"
)

// Button values
const (
	ButtonValueSubmitData = "submit_data"
	ButtonValueApprove    = "approve"
	ButtonValueReject     = "reject"
)

// Modal UI text
const (
	ModalTitle      = "N8N Automation Request" // Must be < 25 chars (Slack limit)
	ModalSubmitText = "Submit"
	ModalCancelText = "Cancel"
	ModalCloseText  = "Close"

	IntroText           = "*Submit data to N8N automation workflow*"
	ApprovalSectionText = "*Approval workflow (Optional)*"

	LabelDataInput       = "Data Input (Optional)"
	PlaceholderDataInput = "Enter your data here..."

	ButtonTextSubmitData = "Submit Data"
	ButtonTextApprove    = "✅ Approve"
	ButtonTextReject     = "❌ Reject"
)

// Result modal titles
const (
	TitleDataSubmitted      = "Data Submitted"
	TitleActionComplete     = "Action Complete"
	TitleConfigurationError = "Configuration Error"
	TitleNoData             = "No Data Provided"
	TitleError              = "Error"
)

// MaxEchoedDataRunes caps how much submitted data is echoed back. Slack rejects
// section text over 3000 characters; the rest of the message needs the headroom.
const MaxEchoedDataRunes = 2800

// Result texts. The %s verbs take the submitted data.
const (
	TextSubmitSuccessModal   = "✅ *Your data has been successfully sent to N8N automation workflow!*\n\n*Data submitted:*\n```%s```"
	TextSubmitSuccessMessage = "✅ Your data has been successfully sent to N8N automation workflow!\n\n*Data submitted:*\n```%s```"
	TextDataNotConfigured    = "⚠️ N8N webhook URL not configured. Please check your environment variables."
	TextNoData               = "⚠️ No data was provided. Please enter some data before submitting."
	TextModalAcknowledged    = "✅ Modal submitted successfully! Use the approval buttons for workflow actions."
	TextSubmitFailure        = "❌ Error processing your request. Please try again."

	TextApproveSuccess        = "✅ *Approval sent to N8N!*\n\nYour approval has been processed and sent to the automation workflow."
	TextRejectSuccess         = "❌ *Rejection sent to N8N!*\n\nYour rejection has been processed and sent to the automation workflow."
	TextApprovalNotConfigured = "⚠️ N8N approval webhook URL not configured. Please check your environment variables."
	TextApproveFailure        = "❌ Error processing approval. Please try again."
	TextRejectFailure         = "❌ Error processing rejection. Please try again."
)

// Command replies
const (
	TextUnknownCommand   = "Unknown command: %s"
	TextOpenModalFailure = "Failed to open the automation form. Please try again."
)

// Slack request headers
const (
	HeaderSlackRequestTimestamp = "X-Slack-Request-Timestamp"
	HeaderSlackSignature        = "X-Slack-Signature"
)

// Slack signature components
const (
	SignatureVersion = "v0"
	SignaturePrefix  = "v0="
)

// Interaction types
const (
	InteractionTypeBlockActions   = "block_actions"
	InteractionTypeViewSubmission = "view_submission"
)
