// Package query implements addresskit's autocomplete query composer (spec
// §4.9, component C9): it turns a user string and page request into a
// ranked search against the backend and decodes the result into suggestion
// records.
package query

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/gnaf-kit/addresskit/internal/searchindex"
)

var tracer = otel.Tracer("github.com/gnaf-kit/addresskit/internal/query")

// Defaults for pagination clamping.
const (
	DefaultPageSize = 8
	MaxPageNumber   = 10_000
	MaxPageSize     = 100
)

// Suggestion is one ranked autocomplete result.
type Suggestion struct {
	PID   string  `json:"pid"`
	SLA   string  `json:"sla"`
	Score float64 `json:"score"`
}

// Result is the composer's paginated response.
type Result struct {
	Items []Suggestion `json:"items"`
	Total int64        `json:"total"`
}

// Composer builds and issues autocomplete searches against a backend.
type Composer struct {
	Backend         searchindex.Backend
	DefaultPageSize int
}

// NewComposer constructs a Composer. defaultPageSize <= 0 falls back to
// DefaultPageSize.
func NewComposer(backend searchindex.Backend, defaultPageSize int) *Composer {
	if defaultPageSize <= 0 {
		defaultPageSize = DefaultPageSize
	}
	return &Composer{Backend: backend, DefaultPageSize: defaultPageSize}
}

// Search implements spec §4.9: a bool/should of a fuzzy bool_prefix
// multi-match and a strict phrase_prefix multi-match against sla/ssla,
// sorted by score desc, confidence desc, ssla.raw asc, sla.raw asc.
func (c *Composer) Search(ctx context.Context, q string, page, pageSize int) (Result, error) {
	ctx, span := tracer.Start(ctx, "query.Search")
	defer span.End()

	page = clampPage(page)
	pageSize = clampPageSize(pageSize, c.defaultPageSize())
	offset := (page - 1) * pageSize

	body, err := json.Marshal(buildQuery(q, offset, pageSize))
	if err != nil {
		return Result{}, fmt.Errorf("query: encoding search body: %w", err)
	}

	raw, err := c.Backend.Search(ctx, body)
	if err != nil {
		return Result{}, fmt.Errorf("query: backend search: %w", err)
	}

	return decodeResponse(raw)
}

func (c *Composer) defaultPageSize() int {
	if c.DefaultPageSize > 0 {
		return c.DefaultPageSize
	}
	return DefaultPageSize
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	if page > MaxPageNumber {
		return MaxPageNumber
	}
	return page
}

func clampPageSize(pageSize, fallback int) int {
	if pageSize <= 0 {
		pageSize = fallback
	}
	if pageSize < 1 {
		return 1
	}
	if pageSize > MaxPageSize {
		return MaxPageSize
	}
	return pageSize
}

// buildQuery constructs the Elasticsearch/OpenSearch-shaped query body: a
// bool/should of the two multi-match sub-queries named in spec §4.9, a
// multi-level sort, and standard offset/size pagination.
func buildQuery(q string, offset, size int) map[string]any {
	fields := []string{"sla", "ssla"}
	return map[string]any{
		"from": offset,
		"size": size,
		"query": map[string]any{
			"bool": map[string]any{
				"should": []map[string]any{
					{
						"multi_match": map[string]any{
							"query":                  q,
							"type":                   "bool_prefix",
							"fields":                 fields,
							"fuzziness":              "AUTO",
							"operator":               "AND",
							"lenient":                true,
							"auto_generate_synonyms_phrase_query": false,
						},
					},
					{
						"multi_match": map[string]any{
							"query":    q,
							"type":     "phrase_prefix",
							"fields":   fields,
							"operator": "AND",
							"lenient":  true,
							"auto_generate_synonyms_phrase_query": false,
						},
					},
				},
			},
		},
		"sort": []map[string]any{
			{"_score": "desc"},
			{"confidence": "desc"},
			{"ssla.raw": "asc"},
			{"sla.raw": "asc"},
		},
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Score  float64 `json:"_score"`
			Source struct {
				PID string `json:"pid"`
				SLA string `json:"sla"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func decodeResponse(raw json.RawMessage) (Result, error) {
	var resp searchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Result{}, fmt.Errorf("query: decoding search response: %w", err)
	}
	items := make([]Suggestion, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		items = append(items, Suggestion{PID: h.Source.PID, SLA: h.Source.SLA, Score: h.Score})
	}
	return Result{Items: items, Total: resp.Hits.Total.Value}, nil
}
