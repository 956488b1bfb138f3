package bot

import "strings"

// Reply texts.
const (
	MsgDecline = "Thank you for your response!\n" +
		"You have been marked unavailable for this interview.\n" +
		"We’ll reach out for future rounds.\n"

	MsgSelectSlot = "Please select at least one slot or enter a manual date and time."

	MsgNoUpdate = "No update for now. Kindly wait for some time."

	MsgInvalidInput = "Invalid input"

	// MsgInternalError is sent by adapters that must answer even when dispatch fails.
	MsgInternalError = "Sorry, something went wrong on our side. Please try again later."

	msgConfirmHeader = "Thanks! I have recorded your availability." +
		"\n\n" +
		"You will receive an email invite with all relevant details to block this time in your calendar. " +
		"A reminder will be sent 2 hours before your scheduled interview.\n\n" +
		"Selected slot(s):\n"

	msgUpdateHeaderFormat = "Hey! Here is the slot selected by %s.\n\nSelected slot(s):\n"
)

// updateKeywords trigger an availability lookup. Matching is a case-sensitive substring test.
var updateKeywords = []string{"update", "onboarding", "interview"}

func confirmMessage(lines []string) string {
	return msgConfirmHeader + joinLines(lines)
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

func hasUpdateKeyword(text string) bool {
	for _, kw := range updateKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
