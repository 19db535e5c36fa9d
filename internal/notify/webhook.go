package notify

import (
	"encoding/json"
	"fmt"

	"github.com/kipper0508/escape-bot/internal/model"
)

// Webhook event and source types.
const (
	EventMessage = "message"
	EventJoin    = "join"

	SourceUser  = "user"
	SourceGroup = "group"
	SourceRoom  = "room"

	MessageText = "text"
)

// WebhookPayload is the body LINE posts to the webhook.
type WebhookPayload struct {
	Destination string         `json:"destination"`
	Events      []WebhookEvent `json:"events"`
}

// WebhookEvent is one inbound event.
type WebhookEvent struct {
	Type       string          `json:"type"`
	ReplyToken string          `json:"replyToken"`
	Timestamp  int64           `json:"timestamp"`
	Source     EventSource     `json:"source"`
	Message    *InboundMessage `json:"message,omitempty"`
}

// EventSource identifies where an event came from.
type EventSource struct {
	Type    string `json:"type"`
	UserID  string `json:"userId,omitempty"`
	GroupID string `json:"groupId,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
}

// InboundMessage is the message attached to a message event.
type InboundMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ParseWebhook decodes a webhook body.
func ParseWebhook(body []byte) (*WebhookPayload, error) {
	var p WebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	return &p, nil
}

// Text returns the message text of a text message event, or "".
func (e WebhookEvent) Text() string {
	if e.Type != EventMessage || e.Message == nil || e.Message.Type != MessageText {
		return ""
	}
	return e.Message.Text
}

// Creator maps the source to the chat that owns events: a group wins over
// the user who spoke in it.
func (s EventSource) Creator() (model.Creator, bool) {
	switch {
	case s.GroupID != "":
		return model.Creator{ID: s.GroupID, Kind: model.CreatorGroup}, true
	case s.UserID != "":
		return model.Creator{ID: s.UserID, Kind: model.CreatorUser}, true
	default:
		return model.Creator{}, false
	}
}
