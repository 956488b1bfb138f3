package app

import (
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/garyellow/interview-linebot-go/internal/activity"
	"github.com/garyellow/interview-linebot-go/internal/config"
	"github.com/garyellow/interview-linebot-go/internal/logger"
	"github.com/garyellow/interview-linebot-go/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nopLineClient struct{}

func (nopLineClient) ReplyMessage(*messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error) {
	return &messaging_api.ReplyMessageResponse{}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		LineChannelToken:  "token",
		LineChannelSecret: "secret",
		Port:              "0",
		ShutdownTimeout:   time.Second,
		WebhookTimeout:    5 * time.Second,
		GlobalRateRPS:     100,
		DataDir:           t.TempDir(),
		CardsDir:          "../../assets/cards",
		StoreBackend:      config.BackendFile,
		InterviewKey:      "default",
		CandidateName:     "Aman",
		ActivityEnabled:   true,
		ActivityUsername:  "bot",
		MetricsUsername:   "prometheus",
		R2LockTTL:         config.R2LockTTL,
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	log := logger.NewWithWriter("error", io.Discard)
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	store, closeStore, err := openStore(context.Background(), cfg, m, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeStore() })

	app, err := build(cfg, m, components{
		logger:     log,
		registry:   registry,
		store:      store,
		closeStore: closeStore,
		lineClient: nopLineClient{},
	})
	require.NoError(t, err)
	return app
}

func do(app *Application, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, req)
	return w
}

func TestLiveness(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, testConfig(t))

	w := do(app, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alive")
}

func TestReadiness(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, testConfig(t))

	w := do(app, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, config.BackendFile, body["store"])
}

func TestReadiness_MissingCards(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.CardsDir = t.TempDir()
	app := newTestApp(t, cfg)

	w := do(app, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "cards unavailable")
}

func TestRootRedirects(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, testConfig(t))

	w := do(app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, projectURL, w.Header().Get("Location"))
}

func TestRequestIDAndSecurityHeaders(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, testConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	req.Header.Set("X-Request-Id", "req-123")
	w := do(app, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = do(app, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, testConfig(t))

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"events":[]}`))
	req.Header.Set("X-Line-Signature", "invalid")
	w := do(app, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActivityEndpoint(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, testConfig(t))

	req := httptest.NewRequest(http.MethodPost, "/api/messages",
		strings.NewReader(`{"type":"conversationUpdate","membersAdded":[{"id":"u1"}]}`))
	w := do(app, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp activity.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Activities, 1)
	require.Len(t, resp.Activities[0].Attachments, 1)
	assert.Equal(t, activity.AdaptiveCardContentType, resp.Activities[0].Attachments[0].ContentType)
}

func TestActivityEndpoint_Disabled(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.ActivityEnabled = false
	app := newTestApp(t, cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"type":"message"}`))
	assert.Equal(t, http.StatusNotFound, do(app, req).Code)
}

func TestActivityEndpoint_BasicAuth(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.ActivityPassword = "s3cret"
	app := newTestApp(t, cfg)

	body := `{"type":"message","text":"hello"}`
	w := do(app, httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(body))
	req.SetBasicAuth("bot", "s3cret")
	assert.Equal(t, http.StatusOK, do(app, req).Code)
}

func TestResponsesAreCompressed(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, testConfig(t))

	req := httptest.NewRequest(http.MethodPost, "/api/messages",
		strings.NewReader(`{"type":"message","value":{"action":"slot_suggestion"}}`))
	req.Header.Set("Accept-Encoding", "gzip")
	w := do(app, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(plain), "selectedSlot")
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.MetricsPassword = "scrape"
	app := newTestApp(t, cfg)

	// Produce one webhook observation.
	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"type":"message","text":"hi"}`))
	require.Equal(t, http.StatusOK, do(app, req).Code)

	w := do(app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("prometheus:scrape")))
	w = do(app, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "recruit_webhook_requests_total")
	assert.Contains(t, w.Body.String(), "recruit_dispatch_total")
}

func TestOpenStore_Backends(t *testing.T) {
	t.Parallel()
	log := logger.NewWithWriter("error", io.Discard)
	m := metrics.New(prometheus.NewRegistry())
	ctx := context.Background()

	cfg := testConfig(t)
	cfg.StoreBackend = config.BackendSQLite
	store, closeStore, err := openStore(ctx, cfg, m, log)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "default", []string{"- a", "- b"}))
	lines, err := store.Load(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, []string{"- a", "- b"}, lines)
	require.NoError(t, closeStore())

	cfg.StoreBackend = "redis"
	_, _, err = openStore(ctx, cfg, m, log)
	assert.Error(t, err)
}
