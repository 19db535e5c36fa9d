// Package summarize condenses player reviews into a short verdict using an
// OpenAI-compatible chat completions endpoint.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kipper0508/escape-bot/internal/breaker"
	"github.com/kipper0508/escape-bot/internal/errors"
	"github.com/kipper0508/escape-bot/internal/logging"
	"github.com/kipper0508/escape-bot/internal/model"
)

// ServiceName identifies the summarizer in errors, logs and metrics.
const ServiceName = "summarizer"

// Defaults for the completion request.
const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o"
	DefaultTemperature = 0.7
	DefaultTimeout     = 60 * time.Second
)

// NoReviews is returned without calling the model when a game has no reviews.
const NoReviews = "目前尚無玩家評論可供分析"

const systemPrompt = "你是一位密室逃脫老手，會看其他玩家的留言"

const userPromptTemplate = "請幫我根據留言，分析這個主題: \n%s的特色、令人讚賞的地方與被嫌棄的地方，" +
	"分別條列式這些內容，內容請精簡，不要過多的贅述或鋪陳，" +
	"請根據feedbackPoints(代表其他人贊不贊同這則留言)，與rating(留言者給此主題的評價)，做為加權。" +
	"另外請給出總分1~5分，需參考留言多寡，去除標準差問題，可以有小數點，" +
	"總分請以分數/總分表示，希望總分可以放在回覆的開頭以便閱讀"

// ReviewSource supplies the reviews for a game.
type ReviewSource interface {
	GetReviews(ctx context.Context, gameID string) ([]model.Review, error)
}

// Config configures a Summarizer.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Summarizer turns catalog reviews into a summary.
type Summarizer struct {
	cfg     Config
	reviews ReviewSource
	http    *http.Client
	breaker *breaker.Breaker
}

// New creates a Summarizer reading reviews from src.
func New(cfg Config, src ReviewSource) *Summarizer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Summarizer{
		cfg:     cfg,
		reviews: src,
		http:    hc,
		breaker: breaker.New(breaker.DefaultConfig(ServiceName)),
	}
}

// Check reports whether the summarizer breaker is accepting calls.
func (s *Summarizer) Check(ctx context.Context) error {
	return s.breaker.Check(ctx)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// SummarizeReviews fetches the game's reviews and asks the model for a summary.
func (s *Summarizer) SummarizeReviews(ctx context.Context, gameID string) (string, error) {
	reviews, err := s.reviews.GetReviews(ctx, gameID)
	if err != nil {
		return "", err
	}
	if len(reviews) == 0 {
		return NoReviews, nil
	}

	prompt, err := BuildPrompt(reviews)
	if err != nil {
		return "", err
	}

	start := time.Now()
	out, err := breaker.Do(s.breaker, func() (string, error) {
		return s.complete(ctx, prompt)
	})
	logging.DebugContext(ctx, "summarizer request",
		logging.KeyGameID, gameID,
		logging.KeyCount, len(reviews),
		logging.KeyDuration, time.Since(start).Milliseconds(),
		logging.KeyError, err,
	)
	if err != nil {
		return "", errors.Upstream(ServiceName, "complete", err)
	}
	return out, nil
}

// BuildPrompt renders the user prompt with the reviews as indented JSON.
func BuildPrompt(reviews []model.Review) (string, error) {
	type promptReview struct {
		Rating         float64 `json:"rating"`
		Comment        string  `json:"comment"`
		FeedbackPoints int     `json:"feedbackPoints"`
	}
	rows := make([]promptReview, len(reviews))
	for i, r := range reviews {
		rows[i] = promptReview{Rating: r.Rating, Comment: r.Comment, FeedbackPoints: r.FeedbackPoints}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return "", fmt.Errorf("failed to encode reviews: %w", err)
	}
	return fmt.Sprintf(userPromptTemplate, strings.TrimSuffix(buf.String(), "\n")), nil
}

func (s *Summarizer) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model: s.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: DefaultTemperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(s.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("unexpected status %d: %w", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if out.Error != nil {
			return "", fmt.Errorf("status %d: %s", resp.StatusCode, out.Error.Message)
		}
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("empty completion")
	}
	return out.Choices[0].Message.Content, nil
}
