package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/genrewiki/genrewiki-server/internal/domain"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query string             // User's search query
	Types []domain.GenreType // Genre types to include (empty = all)

	// Filters
	ParentID     string // Only direct children of this genre
	IncludeNSFW  bool   // NSFW genres are hidden unless set
	MinRelevance *int   // Only rated genres at or above this relevance

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string // "relevance", "name", "recent", "rating"
	SortOrder string // "asc", "desc"

	// Options
	IncludeFacets bool // Include type facet counts
	Highlight     bool // Include match highlighting
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:         20,
		SortBy:        "relevance",
		SortOrder:     "desc",
		IncludeFacets: true,
		Highlight:     true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []SearchHit  `json:"hits"`
	Facets []FacetCount `json:"facets,omitempty"`
}

// SearchHit represents a single matching genre.
type SearchHit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Name       string            `json:"name"`
	Subtitle   string            `json:"subtitle,omitempty"`
	Type       domain.GenreType  `json:"type"`
	AKAs       []string          `json:"akas,omitempty"`
	Relevance  int               `json:"relevance"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a search query.
func (s *GenreIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(searchRequest, params)

	if params.IncludeFacets {
		searchRequest.AddFacet("type", bleve.NewFacetRequest("type", len(domain.GenreTypes)))
	}
	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("name")
		searchRequest.Highlight.AddField("akas")
	}

	searchRequest.Fields = []string{"name", "subtitle", "type", "akas", "relevance"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if n, ok := hit.Fields["name"].(string); ok {
			searchHit.Name = n
		}
		if st, ok := hit.Fields["subtitle"].(string); ok {
			searchHit.Subtitle = st
		}
		if t, ok := hit.Fields["type"].(string); ok {
			searchHit.Type = domain.GenreType(t)
		}
		if r, ok := hit.Fields["relevance"].(float64); ok {
			searchHit.Relevance = int(r)
		}
		searchHit.AKAs = storedStrings(hit.Fields["akas"])

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	if typeFacet, ok := searchResult.Facets["type"]; ok && typeFacet.Terms != nil {
		for _, term := range typeFacet.Terms.Terms() {
			result.Facets = append(result.Facets, FacetCount{Value: term.Term, Count: term.Count})
		}
	}

	return result, nil
}

// storedStrings reads a stored multi-value field, which Bleve returns as a
// plain string when only one value was indexed.
func storedStrings(v any) []string {
	switch v := v.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	// Names outrank alternate names, which outrank descriptions.
	if params.Query != "" {
		nameMatch := bleve.NewMatchQuery(params.Query)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)

		akaMatch := bleve.NewMatchQuery(params.Query)
		akaMatch.SetField("akas")
		akaMatch.SetBoost(2.0)

		subtitleMatch := bleve.NewMatchQuery(params.Query)
		subtitleMatch.SetField("subtitle")
		subtitleMatch.SetBoost(1.2)

		descMatch := bleve.NewMatchQuery(params.Query)
		descMatch.SetField("description")
		descMatch.SetBoost(0.5)

		// Typo tolerance on name
		fuzzyQuery := bleve.NewFuzzyQuery(strings.ToLower(params.Query))
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("name")
		fuzzyQuery.SetBoost(0.8)

		textQueries := []query.Query{nameMatch, akaMatch, subtitleMatch, descMatch, fuzzyQuery}

		// Prefix query for autocomplete (minimum 2 chars)
		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("name")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if len(params.Types) > 0 {
		typeQueries := make([]query.Query, len(params.Types))
		for i, t := range params.Types {
			tq := bleve.NewTermQuery(string(t))
			tq.SetField("type")
			typeQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(typeQueries...))
	}

	if params.ParentID != "" {
		pq := bleve.NewTermQuery(params.ParentID)
		pq.SetField("parents")
		queries = append(queries, pq)
	}

	if !params.IncludeNSFW {
		sfw := bleve.NewBoolFieldQuery(false)
		sfw.SetField("nsfw")
		queries = append(queries, sfw)
	}

	if params.MinRelevance != nil {
		low := float64(*params.MinRelevance)
		high := float64(domain.MaxRelevance)
		inclusive := true
		rangeQuery := bleve.NewNumericRangeInclusiveQuery(&low, &high, &inclusive, &inclusive)
		rangeQuery.SetField("relevance")
		queries = append(queries, rangeQuery)
	}

	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	desc := params.SortOrder == "desc"
	field := func(name string) string {
		if desc {
			return "-" + name
		}
		return name
	}

	switch params.SortBy {
	case "name":
		req.SortBy([]string{field("name")})
	case "recent":
		req.SortBy([]string{field("created_at")})
	case "rating":
		req.SortBy([]string{field("relevance"), "name"})
	default:
		// Relevance (score) is default - Bleve handles this
		req.SortBy([]string{"-_score"})
	}
}
