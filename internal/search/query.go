package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/shelfwise/shelfwise-server/internal/category"
)

// DefaultLimit is the number of hits returned when Params.Limit is unset.
const DefaultLimit = 20

// Params configures a search.
type Params struct {
	Query         string
	Category      string // Restrict to a category, matched by slug
	AvailableOnly bool
	Limit         int
	Offset        int
}

// Result is a page of hits ordered by relevance.
type Result struct {
	Query string `json:"query"`
	Total uint64 `json:"total"`
	Hits  []Hit  `json:"hits"`
}

// Hit is a single matching book.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Title string  `json:"title"`
}

// IDs returns the hit IDs in rank order.
func (r *Result) IDs() []string {
	ids := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.ID
	}
	return ids
}

// Search runs a relevance-ranked query over titles, authors, categories
// and descriptions.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	req.SortBy([]string{"-_score", "-created_at"})
	req.Fields = []string{"title"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &Result{
		Query: params.Query,
		Total: res.Total,
		Hits:  make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if t, ok := h.Fields["title"].(string); ok {
			hit.Title = t
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

func buildQuery(params Params) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		title := bleve.NewMatchQuery(q)
		title.SetField("title")
		title.SetBoost(3.0)

		author := bleve.NewMatchQuery(q)
		author.SetField("author")
		author.SetBoost(2.0)

		cats := bleve.NewMatchQuery(q)
		cats.SetField("categories")
		cats.SetBoost(1.5)

		desc := bleve.NewMatchQuery(q)
		desc.SetField("description")

		// Typo tolerance on titles.
		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)

		text := []query.Query{title, author, cats, desc, fuzzy}
		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			text = append(text, prefix)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(text...))
	}

	if params.Category != "" {
		tq := bleve.NewTermQuery(category.Slugify(params.Category))
		tq.SetField("category_slugs")
		queries = append(queries, tq)
	}

	if params.AvailableOnly {
		bq := bleve.NewBoolFieldQuery(true)
		bq.SetField("available")
		queries = append(queries, bq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
