package fetch

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestFetchFreshDownload(t *testing.T) {
	body := strings.Repeat("A", 1000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Write([]byte(body))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "archive.zip")
	f := &Fetcher{}
	err := f.Fetch(t.Context(), srv.URL, dest, &Options{ExpectedSize: int64(len(body))})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != body {
		t.Fatalf("got %d bytes, want %d", len(got), len(body))
	}
}

func TestFetchResumesPartialDownload(t *testing.T) {
	full := strings.Repeat("B", 2000)
	existing := full[:800]

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rng := r.Header.Get("Range")
		if rng == "" {
			t.Errorf("expected a Range request, got none")
		}
		if rng != "bytes=800-" {
			t.Errorf("unexpected range header: %q", rng)
		}
		w.Header().Set("Content-Range", "bytes 800-1999/2000")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte(full[800:]))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "archive.zip")
	if err := os.WriteFile(dest, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	f := &Fetcher{}
	err := f.Fetch(t.Context(), srv.URL, dest, &Options{ExpectedSize: int64(len(full))})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != full {
		t.Fatalf("resumed file mismatch: got %d bytes want %d", len(got), len(full))
	}
}

func TestFetchServerIgnoresRangeRestartsFresh(t *testing.T) {
	full := strings.Repeat("C", 500)
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// Server doesn't honor Range: always answers 200 with the full body.
		w.Header().Set("Content-Length", strconv.Itoa(len(full)))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(full))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "archive.zip")
	if err := os.WriteFile(dest, []byte(full[:200]), 0o644); err != nil {
		t.Fatal(err)
	}

	f := &Fetcher{}
	err := f.Fetch(t.Context(), srv.URL, dest, &Options{ExpectedSize: int64(len(full))})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != full {
		t.Fatalf("got %d bytes, want %d", len(got), len(full))
	}
	if calls != 2 {
		t.Fatalf("expected exactly 2 requests (initial range attempt + restart), got %d", calls)
	}
}

func TestFetchRangeNotSatisfiableDeletesAndRestarts(t *testing.T) {
	full := strings.Repeat("D", 300)
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Range") != "" && calls == 1 {
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(full)))
		w.Write([]byte(full))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "archive.zip")
	// Seed a partial file larger than expected, forcing a Range request that
	// the fake server rejects with 416.
	if err := os.WriteFile(dest, []byte(strings.Repeat("D", 310)), 0o644); err != nil {
		t.Fatal(err)
	}

	f := &Fetcher{}
	// expectedSize unknown here (0) so the oversize-on-disk branch isn't hit
	// directly; this exercises the 416-from-server path instead.
	err := f.Fetch(t.Context(), srv.URL, dest, &Options{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != full {
		t.Fatalf("got %q, want %q", got, full)
	}
}

func TestFetchSizeMismatchIsDeletedAndRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// Sends only 50 of the 100 expected bytes: triggers SIZE_MISMATCH.
			w.Write([]byte(strings.Repeat("E", 50)))
			return
		}
		w.Write([]byte(strings.Repeat("E", 100)))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "archive.zip")
	f := &Fetcher{}
	err := f.Fetch(t.Context(), srv.URL, dest, &Options{
		ExpectedSize:   100,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 100 {
		t.Fatalf("got %d bytes, want 100", len(got))
	}
}

func TestFetchNonRetryableStatusFailsImmediately(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "archive.zip")
	f := &Fetcher{}
	err := f.Fetch(t.Context(), srv.URL, dest, &Options{})
	if err == nil {
		t.Fatal("expected an error")
	}
	de, ok := err.(*DownloadError)
	if !ok {
		t.Fatalf("expected *DownloadError, got %T", err)
	}
	if de.Retryable {
		t.Fatal("403 should not be retryable")
	}
}

func TestProgressCallbackThrottled(t *testing.T) {
	body := strings.Repeat("F", 1 << 20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	var updates int
	dest := filepath.Join(t.TempDir(), "archive.zip")
	f := &Fetcher{}
	err := f.Fetch(t.Context(), srv.URL, dest, &Options{
		ExpectedSize:     int64(len(body)),
		Progress:         func(Progress) { updates++ },
		ProgressInterval: time.Hour, // force throttling to at most the final, forced report
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if updates != 1 {
		t.Fatalf("expected exactly one throttled+final progress update, got %d", updates)
	}
}
