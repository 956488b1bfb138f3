package webhook

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/garyellow/interview-linebot-go/internal/bot"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// Datetime picker parameter names sent with a postback.
const (
	paramDate     = "date"
	paramTime     = "time"
	paramDatetime = "datetime"
)

// eventMeta is the LINE bookkeeping carried by every supported event.
type eventMeta struct {
	kind       string
	eventID    string
	replyToken string
	source     webhook.SourceInterface
	redelivery *bool
}

// toEvent maps a LINE event to a dispatcher event. ok is false for events
// the bot never answers (unfollow, leave, non-text messages, ...).
func toEvent(event webhook.EventInterface) (bot.Event, eventMeta, bool) {
	var (
		ev   bot.Event
		meta eventMeta
	)

	switch e := event.(type) {
	case webhook.MessageEvent:
		meta = eventMeta{"message", e.WebhookEventId, e.ReplyToken, e.Source, redelivery(e.DeliveryContext)}
		text, isText := e.Message.(webhook.TextMessageContent)
		if !isText {
			return ev, meta, false
		}
		ev = bot.Event{Type: bot.EventMessage, Text: text.Text}

	case webhook.PostbackEvent:
		meta = eventMeta{"postback", e.WebhookEventId, e.ReplyToken, e.Source, redelivery(e.DeliveryContext)}
		var data string
		var params map[string]string
		if e.Postback != nil {
			data, params = e.Postback.Data, e.Postback.Params
		}
		ev = bot.Event{Type: bot.EventMessage, Form: parsePostback(data, params)}

	case webhook.FollowEvent:
		meta = eventMeta{"follow", e.WebhookEventId, e.ReplyToken, e.Source, redelivery(e.DeliveryContext)}
		ev = bot.Event{Type: bot.EventConversationUpdate, MembersAdded: 1}

	case webhook.JoinEvent:
		meta = eventMeta{"join", e.WebhookEventId, e.ReplyToken, e.Source, redelivery(e.DeliveryContext)}
		ev = bot.Event{Type: bot.EventConversationUpdate, MembersAdded: 1}

	case webhook.MemberJoinedEvent:
		meta = eventMeta{"member_joined", e.WebhookEventId, e.ReplyToken, e.Source, redelivery(e.DeliveryContext)}
		n := 0
		if e.Joined != nil {
			n = len(e.Joined.Members)
		}
		ev = bot.Event{Type: bot.EventConversationUpdate, MembersAdded: n}

	default:
		return ev, eventMeta{kind: fmt.Sprintf("%T", event)}, false
	}

	ev.UserID = userID(meta.source)
	ev.ChatID = chatID(meta.source)
	return ev, meta, true
}

// parsePostback decodes URL-query encoded postback data into a form.
// Undecodable data is kept whole under "action" so it is treated as an
// unknown action. Datetime picker params fill manualDate and manualTime.
func parsePostback(data string, params map[string]string) bot.Form {
	form := bot.Form{}

	if values, err := url.ParseQuery(data); err == nil {
		for k, v := range values {
			if len(v) > 0 {
				form[k] = v[0]
			}
		}
	} else {
		form[bot.FormAction] = data
	}

	if dt, ok := params[paramDatetime]; ok {
		date, clock, _ := strings.Cut(dt, "T")
		form[bot.FormManualDate] = date
		form[bot.FormManualTime] = clock
	}
	if date, ok := params[paramDate]; ok {
		form[bot.FormManualDate] = date
	}
	if clock, ok := params[paramTime]; ok {
		form[bot.FormManualTime] = clock
	}

	return form
}

func redelivery(ctx *webhook.DeliveryContext) *bool {
	if ctx == nil {
		return nil
	}
	v := ctx.IsRedelivery
	return &v
}

// chatID returns the conversation to reply in: the group or room when
// present, otherwise the user.
func chatID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.GroupId
	case webhook.RoomSource:
		return s.RoomId
	default:
		return ""
	}
}

func userID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	default:
		return ""
	}
}
