package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kipper0508/escape-bot/internal/errors"
	"github.com/kipper0508/escape-bot/internal/model"
)

func fastRetries() Option {
	return WithRetryDelays(0, time.Millisecond, time.Millisecond)
}

// =============================================================================
// HTTPClient Tests
// =============================================================================

func TestHTTPClientSend(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []int
		wantErr      bool
		wantAttempts int
	}{
		{"success", []int{200}, false, 1},
		{"retry_server_error", []int{500, 200}, false, 2},
		{"retry_rate_limit", []int{429, 429, 200}, false, 3},
		{"client_error_not_retried", []int{400}, true, 1},
		{"exhausted", []int{503, 503, 503}, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.statuses[n-1])
			}))
			defer srv.Close()

			c := NewHTTPClient(fastRetries())
			res := c.Send(context.Background(), srv.URL, "application/json", []byte(`{}`))
			assert.Equal(t, tt.wantAttempts, res.Attempts)
			if tt.wantErr {
				assert.Error(t, res.Error)
			} else {
				assert.NoError(t, res.Error)
			}
		})
	}
}

func TestHTTPClientCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := NewHTTPClient(WithRetryDelays(0, time.Hour))
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	res := c.Send(ctx, srv.URL, "application/json", nil)
	assert.ErrorIs(t, res.Error, context.Canceled)
	assert.Equal(t, 2, res.Attempts)
}

// =============================================================================
// LineClient Tests
// =============================================================================

func TestLineClientReplyAndPush(t *testing.T) {
	var mu sync.Mutex
	got := map[string]map[string]any{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer chan-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		got[r.URL.Path] = body
		mu.Unlock()
		_, _ = io.WriteString(w, "{}")
	}))
	defer srv.Close()

	c := NewLineClient("chan-token", fastRetries()).WithBaseURL(srv.URL + "/")
	ctx := context.Background()

	require.NoError(t, c.Reply(ctx, "rt-1", "✅ 已新增活動"))
	require.NoError(t, c.Push(ctx, "G1", "⏰ 活動提醒"))

	reply := got["/message/reply"]
	assert.Equal(t, "rt-1", reply["replyToken"])
	msgs := reply["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, map[string]any{"type": "text", "text": "✅ 已新增活動"}, msgs[0])

	assert.Equal(t, "G1", got["/message/push"]["to"])
}

func TestLineClientFailureIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"Invalid reply token"}`)
	}))
	defer srv.Close()

	c := NewLineClient("t", fastRetries()).WithBaseURL(srv.URL)
	err := c.Reply(context.Background(), "used", "hi")
	up, ok := apperrors.AsUpstream(err)
	require.True(t, ok)
	assert.Equal(t, ServiceName, up.Service)
	assert.Equal(t, "reply", up.Op)
}

func TestTextMessageTruncates(t *testing.T) {
	m := TextMessage(strings.Repeat("密", MaxTextRunes+10))
	assert.Equal(t, "text", m.Type)
	assert.Equal(t, MaxTextRunes, len([]rune(m.Text)))
}

// =============================================================================
// Signature Tests
// =============================================================================

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"events":[]}`)
	sig := Sign("secret", body)

	tests := []struct {
		name   string
		secret string
		body   []byte
		sig    string
		want   bool
	}{
		{"valid", "secret", body, sig, true},
		{"wrong_secret", "other", body, sig, false},
		{"tampered_body", "secret", []byte(`{"events":[{}]}`), sig, false},
		{"not_base64", "secret", body, "%%%", false},
		{"empty_signature", "secret", body, "", false},
		{"empty_secret", "", body, sig, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifySignature(tt.secret, tt.body, tt.sig))
		})
	}
}

// =============================================================================
// Webhook Tests
// =============================================================================

func TestParseWebhook(t *testing.T) {
	body := `{"destination":"U0","events":[
		{"type":"message","replyToken":"r1","source":{"type":"group","groupId":"G1","userId":"U1"},
		 "message":{"id":"m1","type":"text","text":"小精靈 help"}},
		{"type":"join","replyToken":"r2","source":{"type":"group","groupId":"G2"}},
		{"type":"message","replyToken":"r3","source":{"type":"user","userId":"U3"},
		 "message":{"id":"m3","type":"sticker"}}
	]}`

	p, err := ParseWebhook([]byte(body))
	require.NoError(t, err)
	require.Len(t, p.Events, 3)

	assert.Equal(t, "小精靈 help", p.Events[0].Text())
	c, ok := p.Events[0].Source.Creator()
	require.True(t, ok)
	assert.Equal(t, model.Creator{ID: "G1", Kind: model.CreatorGroup}, c)

	assert.Equal(t, EventJoin, p.Events[1].Type)
	assert.Empty(t, p.Events[1].Text())

	assert.Empty(t, p.Events[2].Text())
	c, ok = p.Events[2].Source.Creator()
	require.True(t, ok)
	assert.Equal(t, model.CreatorUser, c.Kind)

	_, ok = EventSource{Type: SourceRoom}.Creator()
	assert.False(t, ok)

	_, err = ParseWebhook([]byte("{"))
	assert.Error(t, err)
}

// =============================================================================
// Dispatcher Tests
// =============================================================================

type fakePusher struct {
	mu   sync.Mutex
	sent map[string]string
	fail map[string]bool
}

func (f *fakePusher) Push(_ context.Context, to, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[to] {
		return errors.New("push failed")
	}
	f.sent[to] = text
	return nil
}

func TestDispatcher(t *testing.T) {
	p := &fakePusher{sent: map[string]string{}, fail: map[string]bool{"G2": true}}
	d := NewDispatcher(p, 2)

	results := d.Dispatch(context.Background(), []Outbound{
		{Ref: "e1", To: "G1", Text: "a"},
		{Ref: "e2", To: "G2", Text: "b"},
		{Ref: "e3", To: "G3", Text: "c"},
	})

	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.Equal(t, "e1", results[0].Ref)
	assert.False(t, results[1].Success)
	assert.Error(t, results[1].Error)
	assert.True(t, results[2].Success)
	assert.Equal(t, map[string]string{"G1": "a", "G3": "c"}, p.sent)
}
