package notify

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kipper0508/escape-bot/internal/errors"
	"github.com/kipper0508/escape-bot/internal/logging"
)

// ServiceName identifies LINE in errors, logs and metrics.
const ServiceName = "line"

// DefaultAPIBase is the LINE Messaging API root.
const DefaultAPIBase = "https://api.line.me/v2/bot"

// LineClient sends reply and push messages.
type LineClient struct {
	http *HTTPClient
	base string
}

// NewLineClient creates a LINE client authenticated with the channel access token.
func NewLineClient(accessToken string, opts ...Option) *LineClient {
	opts = append([]Option{WithBearer(accessToken)}, opts...)
	return &LineClient{http: NewHTTPClient(opts...), base: DefaultAPIBase}
}

// WithBaseURL points the client at another API root.
func (c *LineClient) WithBaseURL(base string) *LineClient {
	c.base = strings.TrimRight(base, "/")
	return c
}

// Reply answers an inbound event using its single-use reply token.
func (c *LineClient) Reply(ctx context.Context, replyToken, text string) error {
	return c.post(ctx, "reply", "/message/reply", replyRequest{
		ReplyToken: replyToken,
		Messages:   []Message{TextMessage(text)},
	})
}

// Push sends a message to a user or group without a reply token.
func (c *LineClient) Push(ctx context.Context, to, text string) error {
	return c.post(ctx, "push", "/message/push", pushRequest{
		To:       to,
		Messages: []Message{TextMessage(text)},
	})
}

func (c *LineClient) post(ctx context.Context, op, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	res := c.http.Send(ctx, c.base+path, "application/json", body)
	logging.DebugContext(ctx, "line request",
		logging.KeyOperation, op,
		logging.KeyStatus, res.StatusCode,
		logging.KeyDuration, res.Duration.Milliseconds(),
		"attempts", res.Attempts,
	)
	if res.Error != nil {
		return errors.Upstream(ServiceName, op, res.Error)
	}
	return nil
}
