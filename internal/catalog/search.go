package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kipper0508/escape-bot/internal/logging"
	"github.com/kipper0508/escape-bot/internal/model"
)

// flightChunk matches one streamed payload push in the search page.
var flightChunk = regexp.MustCompile(`(?s)self\.__next_f\.push\(\[\d+,"(b:.*?)"\]\)`)

// flexID accepts a JSON string or number.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type listedGame struct {
	Title  string `json:"title"`
	CityID flexID `json:"cityId"`
	GameID flexID `json:"gameId"`
}

type gamesProps struct {
	GamesListData []listedGame `json:"gamesListData"`
}

// SearchGames returns catalog games whose title contains title, in catalog order.
func (c *Client) SearchGames(ctx context.Context, title string) ([]model.Game, error) {
	q := url.Values{}
	q.Set("outdoor", "true")
	q.Set("over", "true")
	q.Set("q", title)

	body, err := c.fetch(ctx, "search", c.cfg.BaseURL+"/games?"+q.Encode())
	if err != nil {
		return nil, err
	}

	doc, err := parseHTML(bytes.NewReader(body), "search")
	if err != nil {
		return nil, err
	}

	var games []model.Game
	for _, script := range scriptBodies(doc) {
		found, err := parseGamesScript(script)
		if err != nil {
			logging.WarnContext(ctx, "skipping unparsable search payload", logging.KeyError, err)
			continue
		}
		for _, g := range found {
			if strings.Contains(g.Title, title) {
				games = append(games, g)
			}
		}
	}
	return games, nil
}

// scriptBodies returns the text of every <script> that pushes a payload chunk.
func scriptBodies(doc *html.Node) []string {
	var out []string
	for n := range doc.Descendants() {
		if n.Type != html.ElementNode || n.DataAtom != atom.Script {
			continue
		}
		text := textContent(n)
		if strings.Contains(text, "self.__next_f.push") {
			out = append(out, text)
		}
	}
	return out
}

// parseGamesScript decodes the games list out of one payload script.
// Scripts without a games list yield no games and no error.
func parseGamesScript(script string) ([]model.Game, error) {
	m := flightChunk.FindStringSubmatch(script)
	if m == nil {
		return nil, nil
	}
	encoded := m[1]
	colon := strings.IndexByte(encoded, ':')
	if colon < 0 {
		return nil, nil
	}

	// The chunk is a JS string literal holding JSON text.
	var jsonText string
	if err := json.Unmarshal([]byte(`"`+encoded[colon+1:]+`"`), &jsonText); err != nil {
		return nil, fmt.Errorf("decode payload string: %w", err)
	}

	var tuple []json.RawMessage
	if err := json.Unmarshal([]byte(jsonText), &tuple); err != nil {
		return nil, fmt.Errorf("decode payload tuple: %w", err)
	}
	if len(tuple) < 4 {
		return nil, nil
	}

	var props gamesProps
	if err := json.Unmarshal(tuple[3], &props); err != nil {
		// index 3 is not always an object
		return nil, nil
	}

	games := make([]model.Game, 0, len(props.GamesListData))
	for _, g := range props.GamesListData {
		venue, err := strconv.Atoi(string(g.CityID))
		if err != nil {
			continue
		}
		games = append(games, model.Game{
			Title:   g.Title,
			VenueID: venue,
			GameID:  string(g.GameID),
		})
	}
	return games, nil
}
