package domain

// SearchResult is a ranked passage returned by a query.
type SearchResult struct {
	// Content is the chunk text.
	Content string `json:"content"`

	// Metadata identifies the chunk's origin.
	Metadata RecordMetadata `json:"metadata"`

	// Distance is the vector distance to the query.
	Distance float64 `json:"distance"`

	// RelevanceScore is set when a cross-encoder scored this passage.
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
}

// SearchResponse is the outcome of a search.
type SearchResponse struct {
	// Results are the ranked passages, at most the requested count.
	Results []SearchResult `json:"results"`

	// Reranked is true if a cross-encoder ordered the results.
	Reranked bool `json:"reranked"`

	// Candidates is how many hits were considered before truncation.
	Candidates int `json:"candidates"`

	// Warnings lists degradations that occurred while searching.
	Warnings []Warning `json:"warnings,omitempty"`
}

// HitToResult converts a vector hit into an unscored search result.
func HitToResult(h VectorHit) SearchResult {
	return SearchResult{
		Content:  h.Content,
		Metadata: h.Metadata,
		Distance: h.Distance,
	}
}
