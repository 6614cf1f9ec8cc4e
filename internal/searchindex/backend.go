// Package searchindex implements addresskit's bulk index sink (spec §4.6,
// component C6): submitting batches of index operations against an
// external full-text search backend, with retry-on-error backoff and a
// steady-state submission rate cap.
package searchindex

import (
	"context"
	"encoding/json"
)

// BulkItem is one {index-directive, document} pair: ID is the backend
// document id (spec §3.2: `/addresses/{pid}`), Body is the document.
type BulkItem struct {
	ID   string
	Body json.RawMessage
}

// BulkOptions controls a single Bulk call.
type BulkOptions struct {
	// Refresh requests the backend make the submitted documents
	// immediately searchable. Normal ingestion runs with Refresh=false
	// (spec §4.6); the orchestrator may request a final explicit refresh.
	Refresh bool
}

// ItemError is a per-item failure reported by a bulk submission.
type ItemError struct {
	ID      string
	Message string
}

// BulkResult reports the outcome of one Bulk call. Errors is true when the
// backend reports a top-level failure or any item failed; either condition
// triggers the sink's retry-the-whole-batch behavior.
type BulkResult struct {
	Errors bool
	Items  []ItemError
}

// Backend is the external full-text search service this repo indexes into
// (spec §1: "assumed: a full-text search service with bulk, get, search,
// refresh, and create/drop-index operations"). It is never implemented by
// this repo beyond a reference HTTP client good enough for integration
// tests — the service itself is an external collaborator.
type Backend interface {
	Bulk(ctx context.Context, items []BulkItem, opts BulkOptions) (BulkResult, error)
	// Get returns the stored document for id, or (nil, nil) if no document
	// with that id exists.
	Get(ctx context.Context, id string) (json.RawMessage, error)
	Search(ctx context.Context, query json.RawMessage) (json.RawMessage, error)
	Refresh(ctx context.Context) error
	CreateIndex(ctx context.Context, synonyms []Synonym) error
	DropIndex(ctx context.Context) error
}

// Synonym is a {CODE, NAME} pair fed to the backend's synonym-expansion
// analyser at index-creation time (spec §4.3, §4.8 step 6).
type Synonym struct {
	Code string
	Name string
}
