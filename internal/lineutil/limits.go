package lineutil

// LINE Messaging API limits, counted in runes.
// https://developers.line.biz/en/reference/messaging-api/
const (
	MaxTextMessageLength = 5000
	MaxAltTextLength     = 400
	MaxPostbackData      = 300
	MaxMessagesPerReply  = 5
)
