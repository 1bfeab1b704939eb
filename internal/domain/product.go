package domain

// Urgency levels produced by the intent parser
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// Product represents a single product offer returned by the agent backend.
// Products are immutable once received; ID is the only key used for set
// membership (selection, saved, alerts).
type Product struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency,omitempty"`
	Platform     string  `json:"platform"`
	Rating       float64 `json:"rating,omitempty"` // 0-5
	ReviewsCount int     `json:"reviewsCount,omitempty"`
	ImageURL     string  `json:"imageUrl,omitempty"`
	Link         string  `json:"link"`
	Description  string  `json:"description,omitempty"`
}

// BudgetRange is the price band the intent parser extracted from the query.
// Max is nil when the user expressed no upper bound.
type BudgetRange struct {
	Min float64  `json:"min"`
	Max *float64 `json:"max"`
}

// SearchIntent is the parsed understanding of the user's query, produced
// once per search and read-only afterwards.
type SearchIntent struct {
	Category         string      `json:"category"`
	BudgetRange      BudgetRange `json:"budgetRange"`
	KeyFeatures      []string    `json:"keyFeatures"`
	Urgency          string      `json:"urgency"` // low | medium | high
	UserProfileMatch string      `json:"userProfileMatch"`
}

// Source is a web citation backing the agent's summary.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// SearchResult is the aggregate response of a single search round trip.
// Product order is relevance order as returned by the backend. A result is
// replaced wholesale by the next successful search.
type SearchResult struct {
	Summary  string       `json:"summary"`
	Products []Product    `json:"products"`
	Intent   SearchIntent `json:"intent"`
	Sources  []Source     `json:"sources"`
}
