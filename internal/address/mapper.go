// Package address implements addresskit's row mapper (spec §4.4, component
// C4): a pure function from one G-NAF address-detail row, its joined
// satellite records, and the loaded authority-code index, to a structured
// address plus its three rendered forms.
package address

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gnaf-kit/addresskit/internal/authority"
	"github.com/gnaf-kit/addresskit/internal/xerr"
)

// maxMLALines is the hard cap on the multi-line address's length (spec
// §3.2): building name, level+flat, number+street, locality+state+postcode.
// A row that would produce a fifth line signals G-NAF malformation.
const maxMLALines = 4

// Map transforms row, its joins, and the geocode inputs into an
// AddressDetail. geoEnabled mirrors ADDRESSKIT_ENABLE_GEO: when false, the
// geocode inputs are ignored and the returned document carries no geo
// field, matching the orchestrator's contract of not reading geocode files
// at all when geocoding is disabled.
func Map(ctx context.Context, idx *authority.Index, row Row, locality *LocalityJoin, streetLocality *StreetLocalityJoin, site, def []GeocodeInput, geoEnabled bool) (*AddressDetail, error) {
	structured := StructuredAddress{
		BuildingName: row.BuildingName,
		Number: NumberRange{
			FirstPrefix: row.NumberFirstPrefix,
			First:       row.NumberFirst,
			FirstSuffix: row.NumberFirstSuffix,
			LastPrefix:  row.NumberLastPrefix,
			Last:        row.NumberLast,
			LastSuffix:  row.NumberLastSuffix,
		},
		Street: StreetPart{
			Name:       row.StreetName,
			TypeCode:   row.StreetTypeCode,
			TypeName:   idx.ResolveOrCode(ctx, authority.StreetType, row.StreetTypeCode),
			SuffixCode: row.StreetSuffixCode,
			SuffixName: idx.ResolveOrCode(ctx, authority.StreetSuffix, row.StreetSuffixCode),
		},
		State:    row.State,
		Postcode: row.Postcode,
	}

	if locality != nil {
		structured.Locality = locality.Name
	}
	if row.LotNumber != "" {
		structured.Lot = &LotPart{Number: row.LotNumber}
	}
	if row.FlatTypeCode != "" || row.FlatNumber != "" {
		structured.Flat = &FlatOrLevel{
			TypeCode: row.FlatTypeCode,
			TypeName: idx.ResolveOrCode(ctx, authority.FlatType, row.FlatTypeCode),
			Prefix:   row.FlatPrefix,
			Number:   row.FlatNumber,
			Suffix:   row.FlatSuffix,
		}
	}
	if row.LevelTypeCode != "" || row.LevelNumber != "" {
		structured.Level = &FlatOrLevel{
			TypeCode: row.LevelTypeCode,
			TypeName: idx.ResolveOrCode(ctx, authority.LevelType, row.LevelTypeCode),
			Prefix:   row.LevelPrefix,
			Number:   row.LevelNumber,
			Suffix:   row.LevelSuffix,
		}
	}
	mla := renderMLA(structured)
	if len(mla) > maxMLALines {
		return nil, xerr.New("address.Map", xerr.ErrStructural,
			"mla produced more than "+strconv.Itoa(maxMLALines)+" lines for pid "+row.PID, nil)
	}

	detail := &AddressDetail{
		PID:        row.PID,
		Structured: structured,
		SLA:        renderSLA(structured),
		SSLA:       renderSSLA(structured),
		MLA:        mla,
		Confidence: row.Confidence,
	}

	if geoEnabled && (len(site) > 0 || len(def) > 0) {
		geo, err := buildGeocodeBundle(ctx, idx, site, def)
		if err != nil {
			return nil, err
		}
		detail.Geo = geo
	}

	return detail, nil
}

// buildGeocodeBundle merges site and default geocode inputs, site entries
// first (spec §4.4), and computes the overall geo-level as the finest
// (highest-rank) entry present. A geocode record whose level-type code
// isn't a recognized rank rejects the entire bundle: unlike display codes,
// which fall back to the raw string, the geo-level computation has no
// well-formed fallback (spec §7 kind 4).
func buildGeocodeBundle(ctx context.Context, idx *authority.Index, site, def []GeocodeInput) (*GeocodeBundle, error) {
	bundle := &GeocodeBundle{}
	for _, set := range [][]GeocodeInput{site, def} {
		for _, g := range set {
			rank, ok := geocodeRank(idx, g.LevelTypeCode)
			if !ok {
				return nil, xerr.New("address.buildGeocodeBundle", xerr.ErrStructural,
					fmt.Sprintf("unrecognized geocoded-level-type code %q", g.LevelTypeCode), nil)
			}
			if rank > bundle.Level {
				bundle.Level = rank
			}
			bundle.Entries = append(bundle.Entries, GeocodeEntry{
				Latitude:        g.Latitude,
				Longitude:       g.Longitude,
				IsDefault:       g.IsDefault,
				ReliabilityCode: g.ReliabilityCode,
				ReliabilityName: idx.ResolveOrCode(ctx, authority.GeocodeReliability, g.ReliabilityCode),
				TypeCode:        g.TypeCode,
				TypeName:        idx.ResolveOrCode(ctx, authority.GeocodeType, g.TypeCode),
			})
		}
	}
	return bundle, nil
}

// geocodeRank resolves a geocoded-level-type code to its numeric rank. The
// authority table's codes are themselves the rank digits (1..7); a code
// absent from the table, or one that isn't a valid rank, is unrecognized.
func geocodeRank(idx *authority.Index, code string) (int, bool) {
	if _, ok := idx.Resolve(context.Background(), authority.GeocodedLevelType, code); !ok {
		return 0, false
	}
	rank, err := strconv.Atoi(code)
	if err != nil || rank < 1 || rank > 7 {
		return 0, false
	}
	return rank, true
}
