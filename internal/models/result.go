package models

// Recommendation is a single ranked product with its similarity score.
type Recommendation struct {
	Product *Product `json:"product"`
	Score   float64  `json:"score"`
	Rank    int      `json:"rank"`
}

// Query kinds reported in RecommendResponse.Kind.
const (
	KindProduct = "product"
	KindCart    = "cart"
	KindSearch  = "search"
)

// RecommendResponse is the response for any of the three recommendation queries.
type RecommendResponse struct {
	Kind       string            `json:"kind"`
	ProductIDs []int64           `json:"product_ids,omitempty"`
	Query      string            `json:"query,omitempty"`
	Results    []*Recommendation `json:"results"`
	Total      int               `json:"total"`
	// Generation is the catalog snapshot generation every result was drawn from.
	Generation uint64 `json:"generation"`
	QueryTime  int64  `json:"query_time_ms"`
	// Fallback is set when results come from a same-category listing instead of the
	// similarity index (the engine had no catalog loaded).
	Fallback bool `json:"fallback,omitempty"`
	// CorrectedQuery is the analyzed query after spelling correction, set only when a
	// term was replaced.
	CorrectedQuery string `json:"corrected_query,omitempty"`
}
