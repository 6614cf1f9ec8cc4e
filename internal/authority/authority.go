// Package authority implements addresskit's authority-code index (component
// C3): constant-time code-to-name lookups over G-NAF's small reference
// tables, plus the synonym list the search backend uses to expand queries
// like "ST" into "STREET" at index time.
package authority

import (
	"context"
	"log/slog"
	"sort"
)

// Table names one of the nine authority-code tables G-NAF ships alongside
// its address-detail data.
type Table string

const (
	LevelType          Table = "level_type"
	FlatType           Table = "flat_type"
	StreetType         Table = "street_type"
	StreetClass        Table = "street_class"
	LocalityClass      Table = "locality_class"
	StreetSuffix       Table = "street_suffix"
	GeocodeReliability Table = "geocode_reliability"
	GeocodeType        Table = "geocode_type"
	GeocodedLevelType  Table = "geocoded_level_type"
)

// synonymTables lists the tables whose code/name pairs feed the backend's
// synonym-expansion analyser (spec §4.3).
var synonymTables = []Table{StreetType, FlatType, LevelType, StreetSuffix}

// Code is a single (code, name) row as loaded from an authority table file.
type Code struct {
	Code string
	Name string
}

// Synonym is one flattened, deduplicated {CODE, NAME} pair destined for the
// backend's synonym analyser.
type Synonym struct {
	Code string
	Name string
}

// Index holds the code-to-name maps for all nine authority tables. The zero
// value is empty; call Load to populate it. An Index is built once per
// ingestion run and discarded at the end of it (spec §3.3) — it carries no
// identity beyond the data loaded into it.
type Index struct {
	tables map[Table]map[string]string
}

// New returns an empty Index ready for Load calls.
func New() *Index {
	return &Index{tables: make(map[Table]map[string]string)}
}

// Load replaces the contents of table with codes. Calling Load again for the
// same table (e.g. on a fresh ingestion run against a newer quarterly
// release) replaces the prior contents outright — the index has no memory
// of earlier runs.
func (idx *Index) Load(table Table, codes []Code) {
	m := make(map[string]string, len(codes))
	for _, c := range codes {
		m[c.Code] = c.Name
	}
	idx.tables[table] = m
}

// Resolve looks up code in table. ok is false when the table hasn't been
// loaded or the code is absent from it; callers fall back to the raw code
// per spec §4.4 rather than treating this as fatal.
func (idx *Index) Resolve(ctx context.Context, table Table, code string) (name string, ok bool) {
	if code == "" {
		return "", false
	}
	m, loaded := idx.tables[table]
	if !loaded {
		return "", false
	}
	name, ok = m[code]
	if !ok {
		slog.DebugContext(ctx, "authority: unresolved code", "table", table, "code", code)
	}
	return name, ok
}

// ResolveOrCode resolves code against table, returning the raw code
// unchanged when resolution fails. This is the fallback behavior spec §4.4
// requires of the row mapper: rendering proceeds with a less human-friendly
// but well-formed value rather than aborting.
func (idx *Index) ResolveOrCode(ctx context.Context, table Table, code string) string {
	if name, ok := idx.Resolve(ctx, table, code); ok {
		return name
	}
	return code
}

// Synonyms returns the flattened, deduplicated {CODE, NAME} pairs across
// street-type, flat-type, level-type, and street-suffix tables. The result
// is sorted by code then name so repeated calls (and repeated runs over the
// same release) produce identical output — map iteration order isn't.
func (idx *Index) Synonyms() []Synonym {
	seen := make(map[string]struct{})
	var out []Synonym
	for _, table := range synonymTables {
		m, loaded := idx.tables[table]
		if !loaded {
			continue
		}
		for code, name := range m {
			key := code + "\x00" + name
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, Synonym{Code: code, Name: name})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Name < out[j].Name
	})
	return out
}
