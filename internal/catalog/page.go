package catalog

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kipper0508/escape-bot/internal/model"
	"github.com/kipper0508/escape-bot/internal/validate"
)

// unknown fills page fields that could not be scraped.
const unknown = "未知"

// ScaryTag marks horror-themed games.
const ScaryTag = "恐怖驚悚"

// Class selectors on the game page.
var (
	infoSpanClasses = []string{"text-sm", "lg:text-base", "font-medium"}
	addressClasses  = []string{"text-sm", "lg:text-base", "hover:text-secondary"}
	priceClasses    = []string{"mb-2", "pl-4", "leading-normal", "text-sm", "lg:text-base", "whitespace-pre-wrap"}
	studioClasses   = []string{"chakra-heading", "css-o8iskg"}
	tagBarClasses   = []string{"chakra-stack", "css-1rafi8n"}
	tagClasses      = []string{"chakra-text", "css-0"}
)

func (c *Client) page(ctx context.Context, op, gameID string) (*html.Node, error) {
	body, err := c.fetch(ctx, op, c.GameURL(gameID))
	if err != nil {
		return nil, err
	}
	return parseHTML(bytes.NewReader(body), op)
}

// GetDetails scrapes the facts block of a game page.
func (c *Client) GetDetails(ctx context.Context, gameID string) (*model.GameDetails, error) {
	doc, err := c.page(ctx, "details", gameID)
	if err != nil {
		return nil, err
	}
	return parseDetails(doc), nil
}

// GetDescription returns the multi-line description shown to players.
func (c *Client) GetDescription(ctx context.Context, gameID string) (string, error) {
	d, err := c.GetDetails(ctx, gameID)
	if err != nil {
		return "", err
	}
	return FormatDescription(d, c.GameURL(gameID)), nil
}

// GetTags returns the topic tags of a game.
func (c *Client) GetTags(ctx context.Context, gameID string) ([]string, error) {
	doc, err := c.page(ctx, "tags", gameID)
	if err != nil {
		return nil, err
	}
	return parseTags(doc), nil
}

// IsScary reports whether the game is tagged as horror.
func (c *Client) IsScary(ctx context.Context, gameID string) (bool, error) {
	tags, err := c.GetTags(ctx, gameID)
	if err != nil {
		return false, err
	}
	return slices.Contains(tags, ScaryTag), nil
}

// FormatDescription renders details the way replies and stored events show them.
func FormatDescription(d *model.GameDetails, pageURL string) string {
	return fmt.Sprintf("人數：%s\n遊戲時長：%s\n價格: %s\n工作室: %s\n主題介紹: %s\n地址：%s\n%s",
		d.People, d.Duration, d.Price, d.Studio, pageURL, d.Address, d.MapURL)
}

func parseDetails(doc *html.Node) *model.GameDetails {
	d := &model.GameDetails{
		People:   unknown,
		Duration: unknown,
		Price:    unknown,
		Studio:   unknown,
		Address:  unknown,
	}

	spans := findAll(doc, atom.Span, infoSpanClasses)
	if len(spans) > 0 {
		d.People = orUnknown(textContent(spans[0]))
	}
	if len(spans) > 1 {
		d.Duration = orUnknown(textContent(spans[1]))
	}

	if a := findFirst(doc, atom.A, addressClasses); a != nil {
		d.Address = orUnknown(textContent(a))
		d.MapURL = attr(a, "href")
	}
	if p := findFirst(doc, atom.P, priceClasses); p != nil {
		d.Price = orUnknown(validate.CollapseSpaces(textContent(p)))
	}
	if h := findFirst(doc, atom.H5, studioClasses); h != nil {
		d.Studio = orUnknown(textContent(h))
	}
	return d
}

func parseTags(doc *html.Node) []string {
	bar := findFirst(doc, atom.Div, tagBarClasses)
	if bar == nil {
		return nil
	}
	var tags []string
	for _, b := range findAll(bar, atom.B, tagClasses) {
		if t := textContent(b); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return unknown
	}
	return s
}

// findAll returns elements of kind a carrying every class in classes, in document order.
func findAll(root *html.Node, a atom.Atom, classes []string) []*html.Node {
	var out []*html.Node
	for n := range root.Descendants() {
		if n.Type == html.ElementNode && n.DataAtom == a && hasClasses(n, classes) {
			out = append(out, n)
		}
	}
	return out
}

func findFirst(root *html.Node, a atom.Atom, classes []string) *html.Node {
	for n := range root.Descendants() {
		if n.Type == html.ElementNode && n.DataAtom == a && hasClasses(n, classes) {
			return n
		}
	}
	return nil
}

func hasClasses(n *html.Node, classes []string) bool {
	have := strings.Fields(attr(n, "class"))
	for _, c := range classes {
		if !slices.Contains(have, c) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textContent concatenates the text nodes under n, trimmed.
func textContent(n *html.Node) string {
	var sb strings.Builder
	for d := range n.Descendants() {
		if d.Type == html.TextNode {
			sb.WriteString(d.Data)
		}
	}
	return strings.TrimSpace(sb.String())
}
