package catalog

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/kipper0508/escape-bot/internal/errors"
	"github.com/kipper0508/escape-bot/internal/model"
)

// ReviewPages is how many review pages are read per game.
const ReviewPages = 3

type reviewPage struct {
	ReviewDataList   []model.Review `json:"reviewDataList"`
	LastUserCustomID flexID         `json:"lastUserCustomId"`
}

// GetReviews returns non-spoiler reviews sorted by feedback points, following
// the pagination cursor for up to ReviewPages pages.
func (c *Client) GetReviews(ctx context.Context, gameID string) ([]model.Review, error) {
	var (
		all    []model.Review
		cursor string
	)

	for i := 0; i < ReviewPages; i++ {
		q := url.Values{}
		q.Set("gameId", gameID)
		q.Set("sort", "feedbackPoints")
		if cursor != "" {
			q.Set("lastUserCustomId", cursor)
		}

		body, err := c.fetch(ctx, "reviews", c.cfg.ReviewURL+"/review/get-by-game?"+q.Encode())
		if err != nil {
			return nil, err
		}

		var page reviewPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, errors.Upstream(ServiceName, "reviews", err)
		}
		for _, r := range page.ReviewDataList {
			if !r.Spoiler {
				all = append(all, r)
			}
		}

		cursor = string(page.LastUserCustomID)
		if cursor == "" {
			break
		}
	}
	return all, nil
}
