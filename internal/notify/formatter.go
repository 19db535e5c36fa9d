package notify

import (
	"github.com/kipper0508/escape-bot/internal/validate"
)

// MaxTextRunes is the LINE limit for one text message.
const MaxTextRunes = 5000

// Message is one LINE message object.
type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextMessage builds a text message, truncated to the LINE limit.
func TextMessage(text string) Message {
	return Message{Type: "text", Text: validate.TruncateRunes(text, MaxTextRunes)}
}

type replyRequest struct {
	ReplyToken string    `json:"replyToken"`
	Messages   []Message `json:"messages"`
}

type pushRequest struct {
	To       string    `json:"to"`
	Messages []Message `json:"messages"`
}
