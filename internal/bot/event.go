// Package bot holds the transport-independent conversation logic: it turns
// an inbound event into exactly one reply.
package bot

// EventType is the kind of inbound event.
type EventType int

const (
	// EventUnknown is anything the dispatcher does not answer.
	EventUnknown EventType = iota
	// EventMessage is a typed message or a submitted card form.
	EventMessage
	// EventConversationUpdate is a membership change (user followed, bot joined).
	EventConversationUpdate
)

func (t EventType) String() string {
	switch t {
	case EventMessage:
		return "message"
	case EventConversationUpdate:
		return "conversation_update"
	default:
		return "unknown"
	}
}

// Form keys understood by the dispatcher.
const (
	FormAction       = "action"
	FormSelectedSlot = "selectedSlot"
	FormManualDate   = "manualDate"
	FormManualTime   = "manualTime"
)

// Form is the set of values submitted from a card. Unknown keys are kept and ignored.
type Form map[string]string

// Action returns the submitted action tag and whether the key is present.
func (f Form) Action() (string, bool) {
	if f == nil {
		return "", false
	}
	v, ok := f[FormAction]
	return v, ok
}

// Get returns the value for key, or "".
func (f Form) Get(key string) string {
	return f[key]
}

// Event is one inbound activity as seen by the dispatcher. Transport
// adapters build it; the dispatcher never mutates it.
type Event struct {
	Type EventType
	Text string
	// Form is nil when no card was submitted.
	Form Form
	// MembersAdded counts members who joined, for EventConversationUpdate.
	MembersAdded int
	UserID       string
	ChatID       string
}
