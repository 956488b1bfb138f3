package bot

import "github.com/garyellow/interview-linebot-go/internal/card"

// ReplyKind tells the adapter how to render a Reply.
type ReplyKind int

const (
	ReplyText ReplyKind = iota + 1
	ReplyCard
)

// Reply is the single outbound message for an event.
type Reply struct {
	Kind ReplyKind
	Text string
	Card card.Name
}

// TextReply creates a plain text reply.
func TextReply(text string) Reply {
	return Reply{Kind: ReplyText, Text: text}
}

// CardReply creates a reply rendering the named card.
func CardReply(name card.Name) Reply {
	return Reply{Kind: ReplyCard, Card: name}
}
