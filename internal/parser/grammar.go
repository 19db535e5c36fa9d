// Package parser turns chat text into typed commands.
//
// A line is normalized, split into whitespace tokens and an optional trailing
// parenthesized meta section, then matched against an ordered grammar table.
// The first rule whose keyword and shape fit wins; anything else is None.
package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTrigger is the wake-word every command starts with.
const DefaultTrigger = "小精靈"

// Command keywords.
const (
	KeywordAdd            = "新增"
	KeywordQueryUpcomings = "查詢所有"
	KeywordQueryHistory   = "查詢歷史"
	KeywordQuery          = "查詢"
	KeywordDelete         = "刪除"
	KeywordSearch         = "找主題"
	KeywordComment        = "看評論"
	KeywordHelp           = "幫助"
)

// Parser classifies chat text. It is safe for concurrent use.
type Parser struct {
	trigger string
	clock   clockwork.Clock
	loc     *time.Location
}

// Option configures a Parser.
type Option func(*Parser)

// WithTrigger overrides the wake-word.
func WithTrigger(trigger string) Option {
	return func(p *Parser) {
		if trigger != "" {
			p.trigger = trigger
		}
	}
}

// WithClock sets the clock used to infer the year of short dates.
func WithClock(clock clockwork.Clock) Option {
	return func(p *Parser) {
		p.clock = clock
	}
}

// WithLocation sets the zone wall-clock dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// New creates a parser.
func New(opts ...Option) *Parser {
	p := &Parser{
		trigger: DefaultTrigger,
		clock:   clockwork.NewRealClock(),
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Trigger returns the configured wake-word.
func (p *Parser) Trigger() string {
	return p.trigger
}

// Location returns the zone dates are interpreted in.
func (p *Parser) Location() *time.Location {
	return p.loc
}

// HasTrigger reports whether text starts with the wake-word.
func (p *Parser) HasTrigger(text string) bool {
	return strings.HasPrefix(Normalize(text), p.trigger)
}

// line is a tokenized command line.
type line struct {
	keyword string
	args    []string // tokens after the keyword, outside the parentheses
	meta    []string // tokens inside the trailing parentheses
	parens  bool     // a parenthesized section was present, even if empty
}

func (l line) hasMeta() bool {
	return len(l.meta) > 0
}

// rule matches one command shape. Returning ok=true stops the scan even
// when the command is None, so a malformed date cannot fall through to a
// later rule.
type rule struct {
	kind    Kind
	keyword string
	match   func(p *Parser, l line) (cmd Command, ok bool)
}

// grammar is the ordered rule table.
var grammar = []rule{
	{KindAdd, KeywordAdd, (*Parser).matchAdd},
	{KindQueryUpcomings, KeywordQueryUpcomings, exact(QueryUpcomings{})},
	{KindQueryHistory, KeywordQueryHistory, exact(QueryHistory{})},
	{KindQuery, KeywordQuery, matchEventRef(func(r EventRef) Command { return Query{r} })},
	{KindDelete, KeywordDelete, matchEventRef(func(r EventRef) Command { return Delete{r} })},
	{KindSearch, KeywordSearch, matchGameRef(func(r GameRef) Command { return Search{r} })},
	{KindComment, KeywordComment, matchGameRef(func(r GameRef) Command { return Comment{r} })},
	{KindHelp, KeywordHelp, exact(Help{})},
}

// Parse classifies text into a command.
func (p *Parser) Parse(text string) Command {
	l, ok := p.tokenize(Normalize(text))
	if !ok {
		return None{}
	}

	for _, r := range grammar {
		if r.keyword != l.keyword {
			continue
		}
		if cmd, ok := r.match(p, l); ok {
			return cmd
		}
	}
	return None{}
}

// tokenize splits off the trailing "(...)" meta and checks the trigger.
// Nested or repeated parentheses are rejected.
func (p *Parser) tokenize(text string) (line, bool) {
	head := text
	var meta string

	if open := strings.IndexByte(text, '('); open >= 0 {
		if !strings.HasSuffix(text, ")") {
			return line{}, false
		}
		head = text[:open]
		meta = text[open+1 : len(text)-1]
		if strings.ContainsAny(meta, "()") {
			return line{}, false
		}
	}

	tokens := strings.Fields(head)
	if len(tokens) < 2 || tokens[0] != p.trigger {
		return line{}, false
	}

	return line{
		keyword: tokens[1],
		args:    tokens[2:],
		meta:    strings.Fields(meta),
		parens:  head != text,
	}, true
}

func exact(cmd Command) func(*Parser, line) (Command, bool) {
	return func(_ *Parser, l line) (Command, bool) {
		if len(l.args) != 0 || l.parens {
			return nil, false
		}
		return cmd, true
	}
}

// matchAdd handles "新增 <date> <time> <title> [(<location> [n])]" and the
// bare form "新增 <date> <time> <title> [<location>...] [n]".
func (p *Parser) matchAdd(l line) (Command, bool) {
	if len(l.args) < 3 || !IsDateToken(l.args[0]) || !IsTimeToken(l.args[1]) {
		return nil, false
	}

	at, ok := ResolveDateTime(l.args[0]+" "+l.args[1], p.clock.Now(), p.loc)
	if !ok {
		return None{}, true
	}

	var ref GameRef
	if l.hasMeta() {
		ref.Title = strings.Join(l.args[2:], " ")
		ref.Location, ref.ChoiceIndex = locationAndChoice(l.meta)
	} else {
		ref.Title = l.args[2]
		ref.Location, ref.ChoiceIndex = locationAndChoice(l.args[3:])
	}

	return Add{GameRef: ref, EventTime: at}, true
}

func matchEventRef(build func(EventRef) Command) func(*Parser, line) (Command, bool) {
	return func(p *Parser, l line) (Command, bool) {
		if len(l.args) == 0 {
			return nil, false
		}

		ref := EventRef{Title: strings.Join(l.args, " ")}
		if l.hasMeta() {
			when, location, ok := p.dateAndLocation(l.meta)
			if !ok {
				return None{}, true
			}
			ref.When = when
			ref.Location = location
		}
		return build(ref), true
	}
}

func matchGameRef(build func(GameRef) Command) func(*Parser, line) (Command, bool) {
	return func(_ *Parser, l line) (Command, bool) {
		if len(l.args) == 0 {
			return nil, false
		}

		ref := GameRef{Title: strings.Join(l.args, " ")}
		ref.Location, ref.ChoiceIndex = locationAndChoice(l.meta)
		return build(ref), true
	}
}

// dateAndLocation reads "[date [time]] [location...]". ok is false when a
// date or time token has the right shape but names an impossible instant.
func (p *Parser) dateAndLocation(tokens []string) (*When, string, bool) {
	if len(tokens) == 0 || !IsDateToken(tokens[0]) {
		return nil, strings.Join(tokens, " "), true
	}

	clock, hasHour, rest := "00:00", false, tokens[1:]
	if len(rest) > 0 && IsTimeToken(rest[0]) {
		clock, hasHour, rest = rest[0], true, rest[1:]
	}

	at, ok := ResolveDateTime(tokens[0]+" "+clock, p.clock.Now(), p.loc)
	if !ok {
		return nil, "", false
	}
	return &When{Time: at, HasHour: hasHour}, strings.Join(rest, " "), true
}

// locationAndChoice reads "[location...] [n]". A trailing all-digit token is
// the 1-based choice; anything else is location text.
func locationAndChoice(tokens []string) (string, *int) {
	if len(tokens) == 0 {
		return "", nil
	}

	last := tokens[len(tokens)-1]
	if isDigits(last) {
		if n, err := strconv.Atoi(last); err == nil {
			return strings.Join(tokens[:len(tokens)-1], " "), &n
		}
	}
	return strings.Join(tokens, " "), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
