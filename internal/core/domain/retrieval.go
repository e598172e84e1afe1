package domain

// Route names the answering strategy chosen for a question.
type Route string

const (
	// RouteFiling answers from a single filing (or unfiltered when no
	// company is named).
	RouteFiling Route = "filing"
	// RouteComparison retrieves a balanced slice from each named filing.
	RouteComparison Route = "comparison"
	// RouteWeb answers from live web search.
	RouteWeb Route = "web"
)

type SearchFilter struct {
	SourceFile string
}

type RetrievedChunk struct {
	ID         string  `json:"id"`
	SourceFile string  `json:"source_file"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	PageNumber int     `json:"page_number,omitempty"`
	Section    string  `json:"section,omitempty"`
}

type Answer struct {
	Text    string           `json:"text"`
	Route   Route            `json:"route"`
	Sources []RetrievedChunk `json:"sources"`
}

type WebResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

type WebSearchResponse struct {
	Answer  string      `json:"answer,omitempty"`
	Results []WebResult `json:"results"`
}

type IndexStats struct {
	Dimension        int
	TotalVectorCount int
}
