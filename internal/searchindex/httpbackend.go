package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gnaf-kit/addresskit/internal/httputil"
)

// HTTPBackend is a reference [Backend] implementation against a search
// service exposing an Elasticsearch/OpenSearch-shaped bulk API: newline-
// delimited JSON action/document pairs posted to "_bulk", and conventional
// per-index endpoints for the remaining operations. It's complete enough
// for integration tests against a real or fake search service; it is not
// this repo's concern to implement the service itself (spec §1).
type HTTPBackend struct {
	BaseURL string
	Index   string
	Client  *http.Client
}

// NewHTTPBackend constructs an HTTPBackend. client may be nil to use
// http.DefaultClient.
func NewHTTPBackend(baseURL, index string, client *http.Client) *HTTPBackend {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPBackend{BaseURL: baseURL, Index: index, Client: client}
}

type bulkAction struct {
	Index *bulkActionIndex `json:"index"`
}

type bulkActionIndex struct {
	ID string `json:"_id"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID    string `json:"_id"`
			Error *struct {
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

func (b *HTTPBackend) Bulk(ctx context.Context, items []BulkItem, opts BulkOptions) (BulkResult, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, item := range items {
		if err := enc.Encode(bulkAction{Index: &bulkActionIndex{ID: item.ID}}); err != nil {
			return BulkResult{}, err
		}
		buf.Write(item.Body)
		buf.WriteByte('\n')
	}

	url := fmt.Sprintf("%s/%s/_bulk", b.BaseURL, b.Index)
	if opts.Refresh {
		url += "?refresh=true"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return BulkResult{}, err
	}
	req.Header.Set("Content-Type", "application/x-ndjson")

	resp, err := b.Client.Do(req)
	if err != nil {
		return BulkResult{}, err
	}
	defer resp.Body.Close()
	if err := httputil.CheckResponse(resp, http.StatusOK); err != nil {
		return BulkResult{}, err
	}

	var parsed bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return BulkResult{}, err
	}

	result := BulkResult{Errors: parsed.Errors}
	for _, item := range parsed.Items {
		if item.Index.Error != nil {
			result.Items = append(result.Items, ItemError{ID: item.Index.ID, Message: item.Index.Error.Reason})
		}
	}
	return result, nil
}

func (b *HTTPBackend) Get(ctx context.Context, id string) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/%s/_doc/%s", b.BaseURL, b.Index, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err := httputil.CheckResponse(resp, http.StatusOK); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

func (b *HTTPBackend) Search(ctx context.Context, query json.RawMessage) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/%s/_search", b.BaseURL, b.Index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(query))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := httputil.CheckResponse(resp, http.StatusOK); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

func (b *HTTPBackend) Refresh(ctx context.Context) error {
	url := fmt.Sprintf("%s/%s/_refresh", b.BaseURL, b.Index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	resp, err := b.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return httputil.CheckResponse(resp, http.StatusOK)
}

func (b *HTTPBackend) CreateIndex(ctx context.Context, synonyms []Synonym) error {
	body := map[string]any{
		"settings": map[string]any{
			"analysis": map[string]any{
				"filter": map[string]any{
					"address_synonyms": map[string]any{
						"type":     "synonym",
						"synonyms": synonymRules(synonyms),
					},
				},
			},
		},
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/%s", b.BaseURL, b.Index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return httputil.CheckResponse(resp, http.StatusOK)
}

func (b *HTTPBackend) DropIndex(ctx context.Context) error {
	url := fmt.Sprintf("%s/%s", b.BaseURL, b.Index)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	resp, err := b.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return httputil.CheckResponse(resp, http.StatusOK, http.StatusNotFound)
}

// synonymRules formats synonyms as "CODE => NAME" rules, the shape most
// synonym-expansion analysers (Elasticsearch/OpenSearch included) expect.
func synonymRules(synonyms []Synonym) []string {
	rules := make([]string, len(synonyms))
	for i, s := range synonyms {
		rules[i] = fmt.Sprintf("%s => %s", s.Code, s.Name)
	}
	return rules
}
