package premise

import "strings"

// Premise is a ready-made story opening the player can pick instead of
// writing their own.
type Premise struct {
	ID          string `json:"id"`
	Genre       string `json:"genre"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Catalog holds the built-in premises, grouped by genre.
type Catalog struct {
	premises []Premise
}

// NewCatalog returns the built-in premise catalog.
func NewCatalog() *Catalog {
	return &Catalog{premises: builtin}
}

// ByGenre returns the premises matching the given genre, case-insensitively.
// An empty genre returns the whole catalog.
func (c *Catalog) ByGenre(genre string) []Premise {
	if strings.TrimSpace(genre) == "" {
		out := make([]Premise, len(c.premises))
		copy(out, c.premises)
		return out
	}

	var out []Premise
	for _, p := range c.premises {
		if strings.EqualFold(p.Genre, genre) {
			out = append(out, p)
		}
	}
	return out
}

// Genres returns the distinct genres in catalog order.
func (c *Catalog) Genres() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range c.premises {
		if !seen[p.Genre] {
			seen[p.Genre] = true
			out = append(out, p.Genre)
		}
	}
	return out
}

var builtin = []Premise{
	{
		ID:          "fantasy-forgotten-tower",
		Genre:       "Fantasy",
		Title:       "The Forgotten Tower",
		Description: "An abandoned wizard's tower appears overnight at the edge of your village, and only you can hear the voice calling from its highest window.",
	},
	{
		ID:          "fantasy-last-dragon",
		Genre:       "Fantasy",
		Title:       "The Last Dragon's Heir",
		Description: "A dying dragon entrusts you with its final egg, and every kingdom on the map wants it.",
	},
	{
		ID:          "scifi-silent-colony",
		Genre:       "Science Fiction",
		Title:       "The Silent Colony",
		Description: "Your supply ship docks at a colony station that stopped transmitting three weeks ago. The airlock opens from the inside.",
	},
	{
		ID:          "scifi-borrowed-time",
		Genre:       "Science Fiction",
		Title:       "Borrowed Time",
		Description: "You wake from cryosleep two hundred years late, the only crew member the ship bothered to revive.",
	},
	{
		ID:          "mystery-lighthouse",
		Genre:       "Mystery",
		Title:       "The Lighthouse Keeper's Ledger",
		Description: "The lighthouse keeper vanished, leaving a ledger that records ships no one else ever saw.",
	},
	{
		ID:          "horror-hollow-house",
		Genre:       "Horror",
		Title:       "The Hollow House",
		Description: "The house you inherited has one more room on the inside than the outside, and it isn't empty.",
	},
	{
		ID:          "adventure-cartographer",
		Genre:       "Adventure",
		Title:       "The Cartographer's Debt",
		Description: "A dying mapmaker hands you an unfinished chart and begs you to complete the one coastline no expedition has returned from.",
	},
}
