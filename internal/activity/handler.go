package activity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/garyellow/interview-linebot-go/internal/bot"
	"github.com/garyellow/interview-linebot-go/internal/card"
	"github.com/garyellow/interview-linebot-go/internal/ctxutil"
	domerrors "github.com/garyellow/interview-linebot-go/internal/errors"
	"github.com/garyellow/interview-linebot-go/internal/logger"
	"github.com/garyellow/interview-linebot-go/internal/sentry"
	"github.com/gin-gonic/gin"
)

// Response bodies for failures.
const (
	msgInvalidJSON     = "Invalid JSON"
	msgProcessingError = "Error processing request"
)

const maxBodyBytes = 1 << 20

// Dispatcher turns one event into one reply.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev bot.Event) (bot.Reply, error)
}

// CardLoader returns the Adaptive Card document for a card.
type CardLoader interface {
	Load(ctx context.Context, name card.Name) (json.RawMessage, error)
}

// Recorder counts handled activities.
type Recorder interface {
	RecordWebhook(channel, eventType, status string, duration float64)
}

// Handler serves POST /api/messages.
type Handler struct {
	dispatcher Dispatcher
	cards      CardLoader
	metrics    Recorder
	logger     *logger.Logger
	timeout    time.Duration
}

// NewHandler creates an activity handler. metrics may be nil; a zero
// timeout leaves the request context as is.
func NewHandler(dispatcher Dispatcher, cards CardLoader, metrics Recorder, log *logger.Logger, timeout time.Duration) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		cards:      cards,
		metrics:    metrics,
		logger:     log.WithModule("activity"),
		timeout:    timeout,
	}
}

// Handle decodes the activity, dispatches it and writes the reply.
func (h *Handler) Handle(c *gin.Context) {
	start := time.Now()

	var act Activity
	dec := json.NewDecoder(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err := dec.Decode(&act); err != nil {
		h.logger.WithError(err).Debug("Malformed activity")
		c.String(http.StatusBadRequest, msgInvalidJSON)
		return
	}
	ev, ok := toEvent(act, decodeValue(act.Value))
	if !ok {
		c.Status(http.StatusCreated)
		return
	}

	ctx := ctxutil.WithChannel(c.Request.Context(), ctxutil.ChannelActivity)
	ctx = ctxutil.WithUserID(ctx, ev.UserID)
	ctx = ctxutil.WithChatID(ctx, ev.ChatID)
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	eventType := ev.Type.String()
	reply, err := h.dispatcher.Dispatch(ctx, ev)
	switch {
	case errors.Is(err, domerrors.ErrNoReply):
		h.record(eventType, "no_reply", start)
		c.Status(http.StatusCreated)
		return
	case err != nil:
		h.fail(ctx, c, eventType, start, err)
		return
	}

	out, err := h.render(ctx, reply)
	if err != nil {
		h.fail(ctx, c, eventType, start, err)
		return
	}

	h.record(eventType, "success", start)
	c.JSON(http.StatusOK, Response{Activities: []Reply{out}})
}

func (h *Handler) fail(ctx context.Context, c *gin.Context, eventType string, start time.Time, err error) {
	h.logger.WithError(err).ErrorContext(ctx, "Failed to process activity", "event_type", eventType)
	sentry.CaptureEventError(ctx, err)
	h.record(eventType, "error", start)
	c.String(http.StatusInternalServerError, msgProcessingError)
}

func (h *Handler) render(ctx context.Context, reply bot.Reply) (Reply, error) {
	if reply.Kind != bot.ReplyCard {
		return Reply{Type: TypeMessage, Text: reply.Text}, nil
	}
	content, err := h.cards.Load(ctx, reply.Card)
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		Type:        TypeMessage,
		Attachments: []Attachment{{ContentType: AdaptiveCardContentType, Content: content}},
	}, nil
}

func (h *Handler) record(eventType, status string, start time.Time) {
	if h.metrics != nil {
		h.metrics.RecordWebhook(ctxutil.ChannelActivity, eventType, status, time.Since(start).Seconds())
	}
}

func toEvent(act Activity, form map[string]string) (bot.Event, bool) {
	var ev bot.Event
	switch act.Type {
	case TypeMessage:
		ev = bot.Event{Type: bot.EventMessage, Text: act.Text}
		if form != nil {
			ev.Form = bot.Form(form)
		}
	case TypeConversationUpdate:
		ev = bot.Event{Type: bot.EventConversationUpdate, MembersAdded: len(act.MembersAdded)}
	default:
		return ev, false
	}
	if act.From != nil {
		ev.UserID = act.From.ID
	}
	if act.Conversation != nil {
		ev.ChatID = act.Conversation.ID
	}
	return ev, true
}
