// Package lineutil builds LINE messages from dispatcher replies.
package lineutil

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// NewTextMessage creates a text message, truncating past the LINE limit.
func NewTextMessage(text string) *messaging_api.TextMessage {
	if utf8.RuneCountInString(text) > MaxTextMessageLength {
		text = TruncateRunes(text, MaxTextMessageLength-3) + "..."
	}
	return &messaging_api.TextMessage{Text: text}
}

// NewFlexMessage wraps a flex container. altText is shown in notifications.
func NewFlexMessage(altText string, contents messaging_api.FlexContainerInterface) *messaging_api.FlexMessage {
	if utf8.RuneCountInString(altText) > MaxAltTextLength {
		altText = TruncateRunes(altText, MaxAltTextLength)
	}
	return &messaging_api.FlexMessage{
		AltText:  altText,
		Contents: contents,
	}
}

// FlexMessageFromJSON decodes a bubble or carousel document into a flex message.
func FlexMessageFromJSON(altText string, raw json.RawMessage) (*messaging_api.FlexMessage, error) {
	contents, err := messaging_api.UnmarshalFlexContainer(raw)
	if err != nil {
		return nil, fmt.Errorf("lineutil: decode flex container: %w", err)
	}
	return NewFlexMessage(altText, contents), nil
}

// TruncateRunes returns at most n runes of s.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
