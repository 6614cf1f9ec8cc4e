// Package config resolves addresskit's environment-variable configuration
// (spec §6.3) into a validated Config value.
package config

import (
	"fmt"
	"strings"

	"github.com/gnaf-kit/addresskit/internal/xerr"
	"github.com/gnaf-kit/addresskit/internal/xtime"
)

// Region is one of the nine G-NAF administrative regions.
type Region string

// The closed set of covered regions (spec §4.8 step 1).
const (
	RegionACT Region = "ACT"
	RegionNSW Region = "NSW"
	RegionNT  Region = "NT"
	RegionOT  Region = "OT"
	RegionQLD Region = "QLD"
	RegionSA  Region = "SA"
	RegionTAS Region = "TAS"
	RegionVIC Region = "VIC"
	RegionWA  Region = "WA"
)

// AllRegions is the full coverage set, in the fixed dependency order used
// nowhere in particular — region iteration order doesn't matter, only the
// per-region file load order (locality -> street-locality -> geocode ->
// address-detail) does.
var AllRegions = []Region{
	RegionACT, RegionNSW, RegionNT, RegionOT, RegionQLD,
	RegionSA, RegionTAS, RegionVIC, RegionWA,
}

func validRegion(s string) (Region, bool) {
	r := Region(strings.ToUpper(strings.TrimSpace(s)))
	for _, v := range AllRegions {
		if v == r {
			return r, true
		}
	}
	return "", false
}

// Config is addresskit's resolved runtime configuration, sourced entirely
// from environment variables per spec §6.3.
type Config struct {
	// CoveredStates is the set of regions to ingest. Default and
	// invalid-input fallback is AllRegions (spec §4.8 step 1, §8).
	CoveredStates []Region `koanf:"covered_states"`

	// PageSize is the default page size for the query composer (C9).
	PageSize int `koanf:"page_size"`

	// ESIndexName is the backend index name.
	ESIndexName string `koanf:"es_index_name"`

	// EnableGeo toggles geocode mapping/indexing (spec §4.8 "Geocoding switch").
	EnableGeo bool `koanf:"enable_geo"`

	// IndexTimeout bounds a single bulk submit request (C6).
	IndexTimeout xtime.Duration `koanf:"index_timeout"`
	// IndexBackoff, IndexBackoffIncrement, IndexBackoffMax configure C6's
	// linear backoff-on-error schedule (spec §4.6).
	IndexBackoff          xtime.Duration `koanf:"index_backoff"`
	IndexBackoffIncrement xtime.Duration `koanf:"index_backoff_increment"`
	IndexBackoffMax       xtime.Duration `koanf:"index_backoff_max"`
	// IndexRate caps steady-state bulk submissions per second (domain-stack
	// addition, SPEC_FULL §3 — golang.org/x/time/rate).
	IndexRate float64 `koanf:"index_rate"`

	// LoadingChunkMB is the CSV driver's chunk size in megabytes (C5).
	LoadingChunkMB int `koanf:"loading_chunk_mb"`

	// GNAFDir is the extraction root (spec §6.4).
	GNAFDir string `koanf:"gnaf_dir"`
	// CacheDir holds the two file-backed caches (spec §6.4: target/).
	CacheDir string `koanf:"cache_dir"`

	// ManifestURL is the upstream package manifest URL (C7, C8 step 2).
	ManifestURL string `koanf:"manifest_url"`

	// Clear requests index drop+recreate before loading (spec §9, Open
	// Question 1).
	Clear bool `koanf:"clear"`
}

// Defaults returns the configuration defaults loaded before the environment
// tier, mirroring the precedence used by the teacher's config loader (here:
// defaults -> environment, with no file tier — spec §6.3 is environment-only).
func Defaults() map[string]any {
	return map[string]any{
		"covered_states":          "",
		"page_size":               8,
		"es_index_name":           "addresskit",
		"enable_geo":              false,
		"index_timeout":           "30s",
		"index_backoff":           "30s",
		"index_backoff_increment": "30s",
		"index_backoff_max":       "600s",
		"index_rate":              5.0,
		"loading_chunk_mb":        10,
		"gnaf_dir":                "./gnaf",
		"cache_dir":               "./target",
		"manifest_url":            "https://data.gov.au/api/3/action/package_show?id=geocoded-national-address-file-g-naf",
		"clear":                   false,
	}
}

// Validate normalizes and checks the config: non-positive PageSize and
// LoadingChunkMB and an empty ESIndexName take their defaults, and an empty
// GNAFDir or ManifestURL is an error. CoveredStates is left as is; spec §4.8
// step 1's degrade-to-all-regions rule is applied by ParseCoveredStates.
func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		c.PageSize = 8
	}
	if c.LoadingChunkMB <= 0 {
		c.LoadingChunkMB = 10
	}
	if c.ESIndexName == "" {
		c.ESIndexName = "addresskit"
	}
	if c.GNAFDir == "" {
		return xerr.New("config.Validate", xerr.ErrConfig, "GNAF_DIR must not be empty", nil)
	}
	if c.ManifestURL == "" {
		return xerr.New("config.Validate", xerr.ErrConfig, "manifest URL must not be empty", nil)
	}
	return nil
}

// ParseCoveredStates implements spec §4.8 step 1 and §8's boundary rule:
// any invalid entry collapses the whole filter to AllRegions.
func ParseCoveredStates(raw string) []Region {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return append([]Region(nil), AllRegions...)
	}
	parts := strings.Split(raw, ",")
	out := make([]Region, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		r, ok := validRegion(p)
		if !ok {
			return append([]Region(nil), AllRegions...)
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return append([]Region(nil), AllRegions...)
	}
	return out
}

// String implements fmt.Stringer for logging.
func (c *Config) String() string {
	names := make([]string, len(c.CoveredStates))
	for i, r := range c.CoveredStates {
		names[i] = string(r)
	}
	return fmt.Sprintf("Config{states=%s index=%s geo=%t chunkMB=%d}",
		strings.Join(names, ","), c.ESIndexName, c.EnableGeo, c.LoadingChunkMB)
}
