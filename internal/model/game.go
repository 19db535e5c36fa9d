package model

// Game is one catalog entry returned by a title search.
type Game struct {
	Title   string `json:"title"`
	VenueID int    `json:"cityId"`
	GameID  string `json:"gameId"`
}

// Review is a single player review from the catalog.
type Review struct {
	Rating         float64 `json:"rating"`
	Comment        string  `json:"comment"`
	FeedbackPoints int     `json:"feedbackPoints"`
	Spoiler        bool    `json:"isSpoiler"`
}

// GameDetails is the scraped description of a game page.
type GameDetails struct {
	People   string
	Duration string
	Price    string
	Studio   string
	Address  string
	MapURL   string
}
