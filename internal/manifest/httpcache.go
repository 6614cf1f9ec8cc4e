package manifest

import (
	"bufio"
	"bytes"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/gnaf-kit/addresskit/pkg/tmp"
)

// DefaultHTTPCacheTTL is the short TTL for the secondary request cache
// (spec §4.7: "a second parallel cache ... short-TTL, populated by the
// HTTP client").
const DefaultHTTPCacheTTL = 60 * time.Second

type httpCacheEntry struct {
	Response []byte // a raw HTTP/1.1 response, via httputil.DumpResponse
	CachedAt time.Time
}

// HTTPCache is a short-TTL, GET-only response cache wrapping an
// http.RoundTripper, persisted to disk (spec §6.4 names
// "target/gnaf-http-cache.msgpack"). It exists to transparently avoid
// re-downloading identical small resources (e.g. repeated manifest polls
// within one run) — it is not the primary tiered cache (Cache, above),
// which has its own fresh/stale/expired policy.
type HTTPCache struct {
	Path      string
	TTL       time.Duration
	Transport http.RoundTripper

	mu      sync.Mutex
	entries map[string]httpCacheEntry
	loaded  bool
}

// NewHTTPCache wraps transport (http.DefaultTransport if nil) with a
// TTL-bounded response cache persisted to path.
func NewHTTPCache(path string, transport http.RoundTripper) *HTTPCache {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &HTTPCache{Path: path, Transport: transport, TTL: DefaultHTTPCacheTTL}
}

// RoundTrip implements http.RoundTripper. Only GET requests are cached.
func (c *HTTPCache) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return c.Transport.RoundTrip(req)
	}

	c.ensureLoaded()
	key := req.URL.String()

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && time.Since(entry.CachedAt) <= c.ttl() {
		return http.ReadResponse(bufio.NewReader(bytes.NewReader(entry.Response)), req)
	}

	resp, err := c.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	dumped, dumpErr := httputil.DumpResponse(resp, true)
	if dumpErr != nil {
		return resp, nil
	}
	c.mu.Lock()
	c.entries[key] = httpCacheEntry{Response: dumped, CachedAt: time.Now()}
	c.mu.Unlock()
	c.persist()

	return http.ReadResponse(bufio.NewReader(bytes.NewReader(dumped)), req)
}

func (c *HTTPCache) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return DefaultHTTPCacheTTL
}

func (c *HTTPCache) ensureLoaded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return
	}
	c.entries = make(map[string]httpCacheEntry)
	c.loaded = true

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return
	}
	_ = msgpack.Unmarshal(data, &c.entries)
}

func (c *HTTPCache) persist() {
	c.mu.Lock()
	data, err := msgpack.Marshal(c.entries)
	c.mu.Unlock()
	if err != nil {
		return
	}

	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	scratch, err := tmp.NewFile(dir, "http-cache-*")
	if err != nil {
		return
	}
	if _, err := scratch.Write(data); err != nil {
		scratch.Close()
		return
	}
	if err := scratch.File.Close(); err != nil {
		os.Remove(scratch.Name())
		return
	}
	os.Rename(scratch.Name(), c.Path)
}
