package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// envPrefix matches the bare, unprefixed keys spec §6.3 documents
// (COVERED_STATES, not ADDRESSKIT_COVERED_STATES) — only the
// ADDRESSKIT_-prefixed keys in §6.3 actually carry that prefix, so the
// mapping below is explicit per key rather than a single blanket prefix.
const envPrefix = ""

// envKeyMap maps spec §6.3's literal environment variable names to this
// package's koanf dot-paths.
var envKeyMap = map[string]string{
	"COVERED_STATES":                 "covered_states",
	"PAGE_SIZE":                      "page_size",
	"ES_INDEX_NAME":                  "es_index_name",
	"ADDRESSKIT_ENABLE_GEO":          "enable_geo",
	"ADDRESSKIT_INDEX_TIMEOUT":       "index_timeout",
	"ADDRESSKIT_INDEX_BACKOFF":       "index_backoff",
	"ADDRESSKIT_INDEX_BACKOFF_INCREMENT": "index_backoff_increment",
	"ADDRESSKIT_INDEX_BACKOFF_MAX":   "index_backoff_max",
	"ADDRESSKIT_INDEX_RATE":          "index_rate",
	"ADDRESSKIT_LOADING_CHUNK_SIZE":  "loading_chunk_mb",
	"GNAF_DIR":                       "gnaf_dir",
	"ADDRESSKIT_CACHE_DIR":           "cache_dir",
	"ADDRESSKIT_MANIFEST_URL":        "manifest_url",
	"ADDRESSKIT_CLEAR":               "clear",
}

// Loader loads Config from defaults then the process environment, following
// the precedence (defaults -> env, highest wins) adapted from
// Hola-to-network_logistics_problem/pkg/config, minus its config-file tier:
// spec §6.3 defines an environment-only contract.
type Loader struct {
	k *koanf.Koanf
	// getenv is overridable for tests.
	getenv func(string) string
}

// NewLoader constructs a Loader reading from the real process environment.
func NewLoader() *Loader {
	return &Loader{k: koanf.New("."), getenv: lookupOrEmpty}
}

func lookupOrEmpty(key string) string { return osGetenv(key) }

// Load resolves the full Config, validating invalid COVERED_STATES entries
// down to full coverage (spec §4.8 step 1) and returning an *xerr.Error for
// any other validation failure.
func (l *Loader) Load() (*Config, error) {
	if err := l.k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	translated := map[string]string{}
	for envKey, path := range envKeyMap {
		if v := l.getenv(envKey); v != "" {
			translated[path] = v
		}
	}
	if err := l.k.Load(confmap.Provider(stringMapToAny(translated), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}
	// env.Provider is retained as a dependency and used for the
	// un-renamed, already-dot-path-shaped keys (anything an operator sets
	// directly in koanf's own naming convention, bypassing the §6.3
	// literal names above).
	if err := l.k.Load(env.Provider("ADDRESSKIT_CFG_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "ADDRESSKIT_CFG_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load ADDRESSKIT_CFG_ overrides: %w", err)
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.CoveredStates = ParseCoveredStates(l.k.String("covered_states"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func stringMapToAny(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Load is a convenience wrapper equivalent to NewLoader().Load().
func Load() (*Config, error) {
	return NewLoader().Load()
}
