// Package activity serves the JSON activity endpoint: one activity in, at
// most one reply activity out, answered synchronously.
package activity

import "encoding/json"

// Activity types accepted on the endpoint.
const (
	TypeMessage            = "message"
	TypeConversationUpdate = "conversationUpdate"
)

// AdaptiveCardContentType marks an attachment as an Adaptive Card.
const AdaptiveCardContentType = "application/vnd.microsoft.card.adaptive"

// Account identifies a participant.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Conversation identifies the chat an activity belongs to.
type Conversation struct {
	ID string `json:"id"`
}

// Activity is an inbound activity. Value carries submitted card data.
type Activity struct {
	Type         string          `json:"type"`
	Text         string          `json:"text,omitempty"`
	Value        json.RawMessage `json:"value,omitempty"`
	MembersAdded []Account       `json:"membersAdded,omitempty"`
	From         *Account        `json:"from,omitempty"`
	Conversation *Conversation   `json:"conversation,omitempty"`
}

// Attachment is a rich payload on a reply.
type Attachment struct {
	ContentType string          `json:"contentType"`
	Content     json.RawMessage `json:"content"`
}

// Reply is the outbound activity.
type Reply struct {
	Type        string       `json:"type"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Response is the body of a 200 answer.
type Response struct {
	Activities []Reply `json:"activities"`
}

// decodeValue flattens submitted card data into strings. null becomes "";
// numbers, booleans and nested values keep their raw JSON spelling.
// A value that is not an object yields nil.
func decodeValue(raw json.RawMessage) map[string]string {
	var obj map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &obj) != nil || obj == nil {
		return nil
	}

	form := make(map[string]string, len(obj))
	for k, v := range obj {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			form[k] = s
			continue
		}
		form[k] = string(v)
	}
	return form
}
