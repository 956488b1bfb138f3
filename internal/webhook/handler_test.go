package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/garyellow/interview-linebot-go/internal/availability"
	"github.com/garyellow/interview-linebot-go/internal/bot"
	"github.com/garyellow/interview-linebot-go/internal/card"
	"github.com/garyellow/interview-linebot-go/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-channel-secret"

type fakeClient struct {
	mu      sync.Mutex
	replies []*messaging_api.ReplyMessageRequest
}

func (f *fakeClient) ReplyMessage(req *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, req)
	return &messaging_api.ReplyMessageResponse{}, nil
}

func (f *fakeClient) sent() []*messaging_api.ReplyMessageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*messaging_api.ReplyMessageRequest(nil), f.replies...)
}

type failingDispatcher struct{}

func (failingDispatcher) Dispatch(context.Context, bot.Event) (bot.Reply, error) {
	return bot.Reply{}, errors.New("disk on fire")
}

type recordedWebhook struct {
	eventType, status string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedWebhook
}

func (r *fakeRecorder) RecordWebhook(_, eventType, status string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedWebhook{eventType, status})
}

func newTestHandler(t *testing.T, dispatcher Dispatcher) (*Handler, *fakeClient, *fakeRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewWithWriter("error", io.Discard)
	cards := card.NewCatalog("../../assets/cards/line", nil)

	if dispatcher == nil {
		d, err := bot.NewDispatcher(bot.DispatcherConfig{
			Store:  availability.NewFileStore(t.TempDir()),
			Cards:  cards,
			Logger: log,
		})
		require.NoError(t, err)
		dispatcher = d
	}

	client := &fakeClient{}
	rec := &fakeRecorder{}
	h, err := NewHandler(HandlerConfig{
		ChannelSecret:  testSecret,
		Client:         client,
		Dispatcher:     dispatcher,
		Cards:          cards,
		Metrics:        rec,
		Logger:         log,
		WebhookTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return h, client, rec
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func serve(h *Handler, body []byte, signature string) *httptest.ResponseRecorder {
	router := gin.New()
	router.POST("/webhook", h.Handle)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Line-Signature", signature)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func drain(t *testing.T, h *Handler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.Shutdown(ctx))
}

func callback(event string) []byte {
	return []byte(`{"destination":"Ubot","events":[` + event + `]}`)
}

func TestHandle_InvalidSignature(t *testing.T) {
	t.Parallel()
	h, client, _ := newTestHandler(t, nil)

	body := callback(`{"type":"follow","replyToken":"rt-follow-0001","timestamp":1,"mode":"active","source":{"type":"user","userId":"U1"}}`)
	w := serve(h, body, "bm90LWEtc2lnbmF0dXJl")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	drain(t, h)
	assert.Empty(t, client.sent())
}

func TestHandle_MalformedBody(t *testing.T) {
	t.Parallel()
	h, client, _ := newTestHandler(t, nil)

	body := []byte(`{"events":`)
	w := serve(h, body, sign(body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	drain(t, h)
	assert.Empty(t, client.sent())
}

func TestHandle_FollowRepliesWithHiringCard(t *testing.T) {
	t.Parallel()
	h, client, rec := newTestHandler(t, nil)

	body := callback(`{"type":"follow","replyToken":"rt-follow-0001","timestamp":1,"mode":"active",` +
		`"webhookEventId":"01EVENT","deliveryContext":{"isRedelivery":false},` +
		`"source":{"type":"user","userId":"U1"}}`)
	w := serve(h, body, sign(body))
	require.Equal(t, http.StatusOK, w.Code)
	drain(t, h)

	sent := client.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "rt-follow-0001", sent[0].ReplyToken)
	require.Len(t, sent[0].Messages, 1)
	flex, ok := sent[0].Messages[0].(*messaging_api.FlexMessage)
	require.True(t, ok, "got %T", sent[0].Messages[0])
	assert.Equal(t, altTexts[card.HiringMessage], flex.AltText)
	assert.Equal(t, []recordedWebhook{{"follow", "success"}}, rec.calls)
}

func TestHandle_ConfirmPostbackThenUpdate(t *testing.T) {
	t.Parallel()
	h, client, _ := newTestHandler(t, nil)

	confirm := callback(`{"type":"postback","replyToken":"rt-confirm-01","timestamp":1,"mode":"active",` +
		`"source":{"type":"user","userId":"U1"},` +
		`"postback":{"data":"action=confirm&selectedSlot=Slot+1%7C2025-02-15T14:00",` +
		`"params":{"datetime":"2025-02-18T09:00"}}}`)
	require.Equal(t, http.StatusOK, serve(h, confirm, sign(confirm)).Code)
	drain(t, h)

	update := callback(`{"type":"message","replyToken":"rt-update-001","timestamp":2,"mode":"active",` +
		`"source":{"type":"user","userId":"U9"},` +
		`"message":{"id":"1","type":"text","quoteToken":"q","text":"interview update please"}}`)
	require.Equal(t, http.StatusOK, serve(h, update, sign(update)).Code)
	drain(t, h)

	sent := client.sent()
	require.Len(t, sent, 2)

	first, ok := sent[0].Messages[0].(*messaging_api.TextMessage)
	require.True(t, ok)
	assert.Contains(t, first.Text, "Thanks! I have recorded your availability.")
	assert.Contains(t, first.Text, "- Slot 1 : Sat, 15 Feb - 2:00 PM to 2:45 PM")
	assert.Contains(t, first.Text, "- Slot 4 : Tue, 18 Feb - 9:00 AM to 9:45 AM")

	second, ok := sent[1].Messages[0].(*messaging_api.TextMessage)
	require.True(t, ok)
	assert.Contains(t, second.Text, "Hey! Here is the slot selected by Aman.")
	assert.Contains(t, second.Text, "- Slot 1 : Sat, 15 Feb - 2:00 PM to 2:45 PM")
}

func TestHandle_InternalFaultRepliesGenericError(t *testing.T) {
	t.Parallel()
	h, client, rec := newTestHandler(t, failingDispatcher{})

	body := callback(`{"type":"message","replyToken":"rt-message-01","timestamp":1,"mode":"active",` +
		`"source":{"type":"user","userId":"U1"},` +
		`"message":{"id":"1","type":"text","quoteToken":"q","text":"hello"}}`)
	require.Equal(t, http.StatusOK, serve(h, body, sign(body)).Code)
	drain(t, h)

	sent := client.sent()
	require.Len(t, sent, 1)
	msg, ok := sent[0].Messages[0].(*messaging_api.TextMessage)
	require.True(t, ok)
	assert.Equal(t, bot.MsgInternalError, msg.Text)
	assert.Equal(t, []recordedWebhook{{"message", "error"}}, rec.calls)
}

func TestHandle_UnsupportedEventIsSkipped(t *testing.T) {
	t.Parallel()
	h, client, rec := newTestHandler(t, nil)

	body := callback(`{"type":"unfollow","timestamp":1,"mode":"active","source":{"type":"user","userId":"U1"}}`)
	require.Equal(t, http.StatusOK, serve(h, body, sign(body)).Code)
	drain(t, h)

	assert.Empty(t, client.sent())
	assert.Empty(t, rec.calls)
}

func TestNewHandler_RequiresSecret(t *testing.T) {
	t.Parallel()
	_, err := NewHandler(HandlerConfig{})
	assert.Error(t, err)
}
