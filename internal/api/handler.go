// Package api implements addresskit's user-facing HTTP surface (spec
// §6.2): an autocomplete search endpoint and an address detail lookup,
// each returning a JSON error envelope on failure.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gnaf-kit/addresskit/internal/address"
	"github.com/gnaf-kit/addresskit/internal/query"
	"github.com/gnaf-kit/addresskit/internal/searchindex"
)

// errorEnvelope is the JSON shape of every non-2xx response (spec §7
// "User-visible failure").
type errorEnvelope struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorEnvelope{Error: msg})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("api: encoding response failed", "error", err)
	}
}

// SearchHandler serves GET /search?q=...&page=...&pageSize=..., composing a
// ranked autocomplete result via composer.
func SearchHandler(composer *query.Composer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusBadRequest, "endpoint only allows GET")
			return
		}
		q := r.URL.Query().Get("q")
		if q == "" {
			writeError(w, http.StatusBadRequest, "query parameter q is required")
			return
		}
		page := parseIntOrDefault(r.URL.Query().Get("page"), 1)
		pageSize := parseIntOrDefault(r.URL.Query().Get("pageSize"), 0)

		result, err := composer.Search(r.Context(), q, page, pageSize)
		if err != nil {
			status, msg := classifySearchError(err)
			slog.WarnContext(r.Context(), "api: search failed", "error", err, "q", q)
			writeError(w, status, msg)
			return
		}
		writeJSON(w, result)
	}
}

// AddressHandler serves GET /addresses/{pid}, returning the stored
// document's structured address, sla, and a self link, or a 404 envelope.
func AddressHandler(backend searchindex.Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusBadRequest, "endpoint only allows GET")
			return
		}
		pid := r.PathValue("pid")
		if pid == "" {
			writeError(w, http.StatusBadRequest, "pid path segment is required")
			return
		}
		id := address.DocumentID(pid)

		body, err := backend.Get(r.Context(), id)
		if err != nil {
			slog.WarnContext(r.Context(), "api: backend get failed", "error", err, "pid", pid)
			writeError(w, http.StatusServiceUnavailable, "search backend unavailable")
			return
		}
		if body == nil {
			writeError(w, http.StatusNotFound, "address not found")
			return
		}

		var detail address.AddressDetail
		if err := json.Unmarshal(body, &detail); err != nil {
			slog.ErrorContext(r.Context(), "api: decoding stored document failed", "error", err, "pid", pid)
			writeError(w, http.StatusInternalServerError, "stored document is malformed")
			return
		}

		writeJSON(w, struct {
			Structured address.StructuredAddress `json:"structured"`
			SLA        string                    `json:"sla"`
			Links      map[string]string         `json:"links"`
		}{
			Structured: detail.Structured,
			SLA:        detail.SLA,
			Links:      map[string]string{"self": id},
		})
	}
}

// classifySearchError maps a composer error to the HTTP status contract of
// spec §7: a context deadline overrun surfaces as 504, every other composer
// failure as 503 (backend unavailable).
func classifySearchError(err error) (int, string) {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "search backend timed out"
	}
	return http.StatusServiceUnavailable, "search backend unavailable"
}

func parseIntOrDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
