// Package webhook adapts LINE webhook events to the bot dispatcher and sends
// its replies back through the Messaging API.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/garyellow/interview-linebot-go/internal/bot"
	"github.com/garyellow/interview-linebot-go/internal/card"
	"github.com/garyellow/interview-linebot-go/internal/ctxutil"
	domerrors "github.com/garyellow/interview-linebot-go/internal/errors"
	"github.com/garyellow/interview-linebot-go/internal/lineutil"
	"github.com/garyellow/interview-linebot-go/internal/logger"
	"github.com/garyellow/interview-linebot-go/internal/ratelimit"
	"github.com/garyellow/interview-linebot-go/internal/sentry"
	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

const (
	defaultTimeout      = 60 * time.Second
	maxEventsPerWebhook = 100
	// LINE accepts 5..60 seconds in steps of 5.
	loadingSeconds int32 = 60
)

// Alt texts shown in chat lists and notifications for each card.
var altTexts = map[card.Name]string{
	card.HiringMessage:       "We are hiring: interview invitation",
	card.Requirement:         "Role requirements",
	card.SlotSuggestion:      "Suggested interview slots",
	card.ProvideAvailability: "Share your availability",
}

// Client is the part of the Messaging API the handler replies through.
type Client interface {
	ReplyMessage(req *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error)
}

// Dispatcher turns one event into one reply.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev bot.Event) (bot.Reply, error)
}

// CardLoader returns the Flex document for a card.
type CardLoader interface {
	Load(ctx context.Context, name card.Name) (json.RawMessage, error)
}

// Recorder counts handled events.
type Recorder interface {
	RecordWebhook(channel, eventType, status string, duration float64)
}

// HandlerConfig holds the dependencies of a Handler.
type HandlerConfig struct {
	ChannelSecret string
	ChannelToken  string
	// Client overrides the Messaging API client built from ChannelToken.
	Client         Client
	Dispatcher     Dispatcher
	Cards          CardLoader
	Metrics        Recorder
	Logger         *logger.Logger
	ReplyLimiter   *ratelimit.ReplyLimiter
	WebhookTimeout time.Duration
}

// Handler handles LINE webhook events.
type Handler struct {
	channelSecret string
	client        Client
	api           *messaging_api.MessagingApiAPI // nil when Client was overridden
	dispatcher    Dispatcher
	cards         CardLoader
	metrics       Recorder
	logger        *logger.Logger
	limiter       *ratelimit.ReplyLimiter
	timeout       time.Duration
	wg            sync.WaitGroup
}

// NewHandler creates a webhook handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.ChannelSecret == "" {
		return nil, errors.New("webhook: channel secret is required")
	}
	if cfg.Dispatcher == nil || cfg.Cards == nil || cfg.Logger == nil {
		return nil, errors.New("webhook: dispatcher, cards and logger are required")
	}

	var api *messaging_api.MessagingApiAPI
	client := cfg.Client
	if client == nil {
		var err error
		api, err = messaging_api.NewMessagingApiAPI(cfg.ChannelToken)
		if err != nil {
			return nil, fmt.Errorf("create messaging API client: %w", err)
		}
		client = api
	}

	timeout := cfg.WebhookTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Handler{
		channelSecret: cfg.ChannelSecret,
		client:        client,
		api:           api,
		dispatcher:    cfg.Dispatcher,
		cards:         cfg.Cards,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger.WithModule("webhook"),
		limiter:       cfg.ReplyLimiter,
		timeout:       timeout,
	}, nil
}

// Handle is the gin handler for POST /webhook. It answers 200 as soon as the
// request is authenticated and processes the events in the background.
func (h *Handler) Handle(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warn("Invalid webhook signature")
		} else {
			h.logger.WithError(err).Warn("Malformed webhook request")
		}
		c.Status(http.StatusBadRequest)
		return
	}

	c.Status(http.StatusOK)

	if len(cb.Events) > maxEventsPerWebhook {
		h.logger.WithField("event_count", len(cb.Events)).Warn("Too many events in webhook batch; truncating")
		cb.Events = cb.Events[:maxEventsPerWebhook]
	}

	// The request is done once we return; keep our own copy.
	events := make([]webhook.EventInterface, len(cb.Events))
	copy(events, cb.Events)
	base := ctxutil.PreserveTracing(c.Request.Context())

	h.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.WithField("panic", r).Error("Panic in async event processing")
			}
		}()
		for _, event := range events {
			h.processEvent(base, event)
		}
	})
}

func (h *Handler) processEvent(base context.Context, event webhook.EventInterface) {
	start := time.Now()

	ev, meta, ok := toEvent(event)
	if !ok {
		h.logger.WithField("event_type", meta.kind).Debug("Unsupported event type")
		return
	}

	ctx := ctxutil.WithChannel(base, ctxutil.ChannelLINE)
	if meta.eventID != "" {
		ctx = ctxutil.WithRequestID(ctx, meta.eventID)
	}
	ctx = ctxutil.WithUserID(ctx, ev.UserID)
	ctx = ctxutil.WithChatID(ctx, ev.ChatID)
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	log := h.logger.WithField("event_type", meta.kind)
	if meta.eventID != "" {
		log = log.WithRequestID(meta.eventID)
	}
	if meta.redelivery != nil {
		log = log.WithField("is_redelivery", *meta.redelivery)
	}

	if ev.Type == bot.EventMessage && ev.ChatID != "" && ev.ChatID == ev.UserID {
		h.showLoading(ev.ChatID, log)
	}

	status := "success"
	defer func() {
		h.record(meta.kind, status, start)
	}()

	reply, err := h.dispatcher.Dispatch(ctx, ev)
	switch {
	case errors.Is(err, domerrors.ErrNoReply):
		status = "no_reply"
		log.DebugContext(ctx, "No reply for event")
		return
	case err != nil:
		status = "error"
		log.WithError(err).ErrorContext(ctx, "Failed to handle event")
		sentry.CaptureEventError(ctx, err)
		reply = bot.TextReply(bot.MsgInternalError)
	}

	msg, err := h.render(ctx, reply)
	if err != nil {
		status = "error"
		log.WithError(err).ErrorContext(ctx, "Failed to render reply")
		sentry.CaptureEventError(ctx, err)
		msg = lineutil.NewTextMessage(bot.MsgInternalError)
	}

	if err := h.reply(ctx, meta.replyToken, msg); err != nil {
		status = "reply_error"
		log.WithError(err).WarnContext(ctx, "Failed to send reply")
		return
	}

	log.WithField("duration_ms", time.Since(start).Milliseconds()).InfoContext(ctx, "Event processed")
}

// render converts a dispatcher reply to a LINE message.
func (h *Handler) render(ctx context.Context, reply bot.Reply) (messaging_api.MessageInterface, error) {
	if reply.Kind != bot.ReplyCard {
		return lineutil.NewTextMessage(reply.Text), nil
	}

	raw, err := h.cards.Load(ctx, reply.Card)
	if err != nil {
		return nil, err
	}
	alt, ok := altTexts[reply.Card]
	if !ok {
		alt = string(reply.Card)
	}
	return lineutil.FlexMessageFromJSON(alt, raw)
}

func (h *Handler) reply(ctx context.Context, token string, msg messaging_api.MessageInterface) error {
	if token == "" {
		return errors.New("empty reply token")
	}
	if h.limiter != nil {
		if err := h.limiter.Acquire(ctx); err != nil {
			return err
		}
	}

	_, err := h.client.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: token,
		Messages:   []messaging_api.MessageInterface{msg},
	})
	if err != nil && strings.Contains(err.Error(), "Invalid reply token") {
		return fmt.Errorf("reply token expired or reused: %w", err)
	}
	return err
}

// showLoading only works in one-to-one chats.
func (h *Handler) showLoading(chatID string, log *logger.Logger) {
	if h.api == nil {
		return
	}
	_, err := h.api.ShowLoadingAnimation(&messaging_api.ShowLoadingAnimationRequest{
		ChatId:         chatID,
		LoadingSeconds: loadingSeconds,
	})
	if err != nil {
		log.WithError(err).Debug("Failed to show loading animation")
	}
}

func (h *Handler) record(kind, status string, start time.Time) {
	if h.metrics != nil {
		h.metrics.RecordWebhook(ctxutil.ChannelLINE, kind, status, time.Since(start).Seconds())
	}
}

// Shutdown waits for in-flight events. It returns ctx.Err() if ctx ends first.
func (h *Handler) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.wg.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
