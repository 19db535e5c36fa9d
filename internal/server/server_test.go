package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kipper0508/escape-bot/internal/daemon"
	"github.com/kipper0508/escape-bot/internal/metrics"
	"github.com/kipper0508/escape-bot/internal/model"
	"github.com/kipper0508/escape-bot/internal/notify"
	"github.com/kipper0508/escape-bot/internal/parser"
	"github.com/kipper0508/escape-bot/internal/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const secret = "channel-secret"

type call struct {
	Creator model.Creator
	Kind    parser.Kind
}

type fakeHandler struct {
	mu    sync.Mutex
	calls []call
}

func (f *fakeHandler) Handle(_ context.Context, c model.Creator, cmd parser.Command) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Creator: c, Kind: cmd.Kind()})
	return "reply:" + string(cmd.Kind())
}

type fakeReplier struct {
	mu      sync.Mutex
	replies map[string]string
	err     error
}

func (f *fakeReplier) Reply(_ context.Context, token, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.replies[token] = text
	return nil
}

type fixture struct {
	server  *Server
	handler *fakeHandler
	replier *fakeReplier
	health  *daemon.HealthChecker
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, groupOnly bool) *fixture {
	t.Helper()
	f := &fixture{
		handler: &fakeHandler{},
		replier: &fakeReplier{replies: map[string]string{}},
		health:  daemon.NewHealthChecker("test"),
		metrics: metrics.New(),
	}
	f.server = New(Config{ChannelSecret: secret, GroupOnly: groupOnly, Version: "test"},
		parser.New(), f.handler, f.replier, f.health, f.metrics)
	return f
}

func (f *fixture) post(t *testing.T, body string, sign bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	if sign {
		req.Header.Set(notify.SignatureHeader, notify.Sign(secret, []byte(body)))
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func payload(events ...map[string]any) string {
	b, _ := json.Marshal(map[string]any{"destination": "bot", "events": events})
	return string(b)
}

func textEvent(token, text string, source map[string]any) map[string]any {
	return map[string]any{
		"type":       "message",
		"replyToken": token,
		"source":     source,
		"message":    map[string]any{"id": "m1", "type": "text", "text": text},
	}
}

var (
	inGroup = map[string]any{"type": "group", "groupId": "G1", "userId": "U1"}
	direct  = map[string]any{"type": "user", "userId": "U1"}
)

// =============================================================================
// Webhook Tests
// =============================================================================

func TestWebhookSignature(t *testing.T) {
	f := newFixture(t, true)
	body := payload(textEvent("t1", "小精靈 幫助", inGroup))

	t.Run("missing_signature", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, f.post(t, body, false).Code)
	})

	t.Run("tampered_body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body+" "))
		req.Header.Set(notify.SignatureHeader, notify.Sign(secret, []byte(body)))
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	assert.Empty(t, f.handler.calls)
}

func TestWebhookBadPayload(t *testing.T) {
	f := newFixture(t, true)
	assert.Equal(t, http.StatusBadRequest, f.post(t, "{not json", true).Code)
}

func TestWebhookBatch(t *testing.T) {
	f := newFixture(t, true)
	body := payload(
		textEvent("t1", "小精靈 查詢所有", inGroup),
		textEvent("t2", "小精靈 幫助", inGroup),
		textEvent("t3", "hello there", inGroup),
		textEvent("t4", "小精靈 查詢所有", direct),
		map[string]any{"type": "join", "replyToken": "t5", "source": inGroup},
		map[string]any{"type": "follow", "replyToken": "t6", "source": direct},
	)

	rec := f.post(t, body, true)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "reply:queryUpcomings", f.replier.replies["t1"])
	assert.Equal(t, "reply:help", f.replier.replies["t2"])
	assert.NotContains(t, f.replier.replies, "t3")
	assert.NotContains(t, f.replier.replies, "t4")
	assert.Equal(t, service.WelcomeMessage(parser.DefaultTrigger), f.replier.replies["t5"])
	assert.NotContains(t, f.replier.replies, "t6")

	require.Len(t, f.handler.calls, 2)
	for _, c := range f.handler.calls {
		assert.Equal(t, model.Creator{ID: "G1", Kind: model.CreatorGroup}, c.Creator)
	}
	assert.Equal(t, 4.0, testutil.ToFloat64(f.metrics.WebhookEvents.WithLabelValues("message")))
}

func TestWebhookDirectChatAllowed(t *testing.T) {
	f := newFixture(t, false)
	rec := f.post(t, payload(textEvent("t1", "小精靈 你好", direct)), true)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.handler.calls, 1)
	assert.Equal(t, model.Creator{ID: "U1", Kind: model.CreatorUser}, f.handler.calls[0].Creator)
	assert.Equal(t, parser.KindNone, f.handler.calls[0].Kind)
}

func TestWebhookReplyFailureStillAcknowledged(t *testing.T) {
	f := newFixture(t, true)
	f.replier.err = errors.New("reply token expired")
	rec := f.post(t, payload(textEvent("t1", "小精靈 幫助", inGroup)), true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// =============================================================================
// Operational Endpoint Tests
// =============================================================================

func get(t *testing.T, f *fixture, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t, true)

	rec := get(t, f, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	f.health.AddCheck("store", func(context.Context) error { return errors.New("closed") })
	rec = get(t, f, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"closed"`)
}

func TestIndexAndMetrics(t *testing.T) {
	f := newFixture(t, true)

	rec := get(t, f, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "POST /webhook")

	rec = get(t, f, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "escape_bot_http_request_duration_seconds")
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t, true)
	assert.Equal(t, http.StatusNotFound, get(t, f, "/nope").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, get(t, f, "/webhook").Code)
}
