package manifest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"github.com/gnaf-kit/addresskit/pkg/tmp"
)

// Default age tiers (spec §4.7).
const (
	DefaultFreshWindow   = 24 * time.Hour
	DefaultExpiredWindow = 30 * 24 * time.Hour
)

// Fetcher retrieves the upstream manifest body and headers for url. It's
// the network side of Cache; the reference implementation is a plain HTTP
// GET, injected so tests can substitute a fake.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (body []byte, header map[string][]string, err error)
}

// FetcherFunc adapts a function to a Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, map[string][]string, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, map[string][]string, error) {
	return f(ctx, url)
}

// Entry is one cached manifest response.
type Entry struct {
	Body     []byte
	Header   map[string][]string
	CachedAt time.Time
}

// Cache is the file-backed package manifest cache (spec §4.7): fresh
// entries (age <= FreshWindow) are returned without a network call; stale
// entries (age < ExpiredWindow) attempt a refresh and fall back to the
// cached value with a staleness warning if the network fails; entries at
// or past ExpiredWindow are treated as absent, surfacing any network
// failure directly.
type Cache struct {
	Path          string
	Fetcher       Fetcher
	FreshWindow   time.Duration
	ExpiredWindow time.Duration

	mu       sync.Mutex
	entries  map[string]Entry
	loaded   bool
	group    singleflight.Group
}

// NewCache constructs a Cache persisted to path (spec §6.4 names
// "target/keyv-file.msgpack" for this cache).
func NewCache(path string, fetcher Fetcher) *Cache {
	return &Cache{Path: path, Fetcher: fetcher}
}

func (c *Cache) freshWindow() time.Duration {
	if c.FreshWindow > 0 {
		return c.FreshWindow
	}
	return DefaultFreshWindow
}

func (c *Cache) expiredWindow() time.Duration {
	if c.ExpiredWindow > 0 {
		return c.ExpiredWindow
	}
	return DefaultExpiredWindow
}

// Get returns the manifest body cached (or freshly fetched) for url. stale
// reports whether the returned entry is past FreshWindow but was served
// from cache because the network refresh failed — callers should log a
// staleness warning when stale is true but err is nil.
func (c *Cache) Get(ctx context.Context, url string) (entry Entry, stale bool, err error) {
	if err := c.ensureLoaded(); err != nil {
		slog.WarnContext(ctx, "manifest: cache load failed, starting empty", "error", err)
	}

	c.mu.Lock()
	cached, ok := c.entries[url]
	c.mu.Unlock()

	now := time.Now()
	if ok {
		age := now.Sub(cached.CachedAt)
		if age <= c.freshWindow() {
			return cached, false, nil
		}
		if age < c.expiredWindow() {
			fresh, fetchErr := c.fetchAndStore(ctx, url)
			if fetchErr != nil {
				slog.WarnContext(ctx, "manifest: network refresh failed, serving stale cache", "url", url, "age", age, "error", fetchErr)
				return cached, true, nil
			}
			return fresh, false, nil
		}
		// age >= expiredWindow: treated as absent below.
	}

	fresh, fetchErr := c.fetchAndStore(ctx, url)
	if fetchErr != nil {
		return Entry{}, false, fetchErr
	}
	return fresh, false, nil
}

func (c *Cache) fetchAndStore(ctx context.Context, url string) (Entry, error) {
	v, err, _ := c.group.Do(url, func() (any, error) {
		body, header, err := c.Fetcher.Fetch(ctx, url)
		if err != nil {
			return Entry{}, err
		}
		entry := Entry{Body: body, Header: header, CachedAt: time.Now()}
		c.mu.Lock()
		c.entries[url] = entry
		c.mu.Unlock()
		if persistErr := c.persist(); persistErr != nil {
			slog.WarnContext(ctx, "manifest: cache persist failed", "error", persistErr)
		}
		return entry, nil
	})
	if err != nil {
		return Entry{}, err
	}
	return v.(Entry), nil
}

func (c *Cache) ensureLoaded() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}
	c.entries = make(map[string]Entry)
	c.loaded = true

	data, err := os.ReadFile(c.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(data, &c.entries)
}

func (c *Cache) persist() error {
	c.mu.Lock()
	data, err := msgpack.Marshal(c.entries)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	scratch, err := tmp.NewFile(dir, "manifest-cache-*")
	if err != nil {
		return err
	}
	if _, err := scratch.Write(data); err != nil {
		scratch.Close()
		return err
	}
	if err := scratch.File.Close(); err != nil {
		os.Remove(scratch.Name())
		return err
	}
	return os.Rename(scratch.Name(), c.Path)
}
