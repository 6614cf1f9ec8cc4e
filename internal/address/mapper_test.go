package address

import (
	"reflect"
	"testing"

	"github.com/gnaf-kit/addresskit/internal/authority"
	"github.com/gnaf-kit/addresskit/internal/xerr"
)

func testIndex() *authority.Index {
	idx := authority.New()
	idx.Load(authority.LevelType, []authority.Code{{Code: "L", Name: "LEVEL"}})
	idx.Load(authority.FlatType, []authority.Code{{Code: "U", Name: "UNIT"}})
	idx.Load(authority.StreetType, []authority.Code{{Code: "AV", Name: "AV"}})
	idx.Load(authority.StreetSuffix, []authority.Code{{Code: "N", Name: "N"}})
	idx.Load(authority.GeocodeReliability, []authority.Code{{Code: "1", Name: "WITHIN PROPERTY"}})
	idx.Load(authority.GeocodeType, []authority.Code{{Code: "PC", Name: "PROPERTY CENTROID"}})
	idx.Load(authority.GeocodedLevelType, []authority.Code{
		{Code: "1", Name: "LOCALITY"},
		{Code: "5", Name: "PROPERTY"},
		{Code: "7", Name: "ADDRESS SITE"},
	})
	return idx
}

func confidence(n int) *int { return &n }

// TestSingleRowFullPipeline is spec §8 scenario 1, reproduced exactly.
func TestSingleRowFullPipeline(t *testing.T) {
	idx := testIndex()
	row := Row{
		PID:          "GANSW716635811",
		BuildingName: "Tower 3",
		LevelTypeCode: "L",
		LevelNumber:   "25",
		NumberFirst:   "300",
		StreetName:    "Barangaroo",
		StreetTypeCode: "AV",
		State:         "NSW",
		Postcode:      "2000",
		Confidence:    confidence(2),
	}
	locality := &LocalityJoin{Name: "Barangaroo"}

	got, err := Map(t.Context(), idx, row, locality, nil, nil, nil, false)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	wantSLA := "LEVEL 25, TOWER 3, 300 BARANGAROO AV, BARANGAROO NSW 2000"
	if got.SLA != wantSLA {
		t.Errorf("sla = %q, want %q", got.SLA, wantSLA)
	}
	wantSSLA := "25/300 BARANGAROO AV, BARANGAROO NSW 2000"
	if got.SSLA != wantSSLA {
		t.Errorf("ssla = %q, want %q", got.SSLA, wantSSLA)
	}
	if len(got.MLA) != 4 {
		t.Fatalf("mla has %d lines, want 4: %v", len(got.MLA), got.MLA)
	}
	if got.PID != "GANSW716635811" {
		t.Errorf("pid = %q", got.PID)
	}
	if DocumentID(got.PID) != "/addresses/GANSW716635811" {
		t.Errorf("DocumentID = %q", DocumentID(got.PID))
	}
	if got.Confidence == nil || *got.Confidence != 2 {
		t.Errorf("confidence = %v, want 2", got.Confidence)
	}
}

// TestUnknownAuthorityCodeFallsBackToRawCode is spec §8 scenario 4.
func TestUnknownAuthorityCodeFallsBackToRawCode(t *testing.T) {
	idx := testIndex()
	row := Row{
		PID:            "GANSW1",
		NumberFirst:    "1",
		StreetName:     "Example",
		StreetTypeCode: "XYZ",
		State:          "NSW",
		Postcode:       "2000",
	}
	got, err := Map(t.Context(), idx, row, &LocalityJoin{Name: "Sydney"}, nil, nil, nil, false)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if got.SLA != "1 EXAMPLE XYZ, SYDNEY NSW 2000" {
		t.Fatalf("sla = %q", got.SLA)
	}
}

func TestMLAInvariantLineCount(t *testing.T) {
	idx := testIndex()
	row := Row{
		PID:           "GANSW2",
		BuildingName:  "Tower A",
		FlatTypeCode:  "U",
		FlatNumber:    "2",
		LevelTypeCode: "L",
		LevelNumber:   "5",
		NumberFirst:   "10",
		StreetName:    "Test",
		StreetTypeCode: "AV",
		State:         "NSW",
		Postcode:      "2000",
	}
	got, err := Map(t.Context(), idx, row, &LocalityJoin{Name: "Testville"}, nil, nil, nil, false)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if n := len(got.MLA); n < 1 || n > maxMLALines {
		t.Fatalf("mla has %d lines, want [1,%d]", n, maxMLALines)
	}
}

func TestGeocodeSitePrecedesDefaultAndRanksByFinest(t *testing.T) {
	idx := testIndex()
	row := Row{PID: "GANSW3", NumberFirst: "1", StreetName: "A", StreetTypeCode: "AV", State: "NSW", Postcode: "2000"}
	site := []GeocodeInput{{Latitude: -33.1, Longitude: 151.1, LevelTypeCode: "7", ReliabilityCode: "1", TypeCode: "PC"}}
	def := []GeocodeInput{{Latitude: -33.0, Longitude: 151.0, IsDefault: true, LevelTypeCode: "1", ReliabilityCode: "1", TypeCode: "PC"}}

	got, err := Map(t.Context(), idx, row, &LocalityJoin{Name: "A"}, nil, site, def, true)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if got.Geo == nil {
		t.Fatal("expected a geo bundle")
	}
	if got.Geo.Level != 7 {
		t.Errorf("geo level = %d, want 7 (finest of site=7, default=1)", got.Geo.Level)
	}
	if len(got.Geo.Entries) != 2 {
		t.Fatalf("expected 2 geocode entries, got %d", len(got.Geo.Entries))
	}
	if got.Geo.Entries[0].IsDefault {
		t.Error("expected the site entry first, default entry last")
	}
}

func TestGeocodeDisabledOmitsGeoField(t *testing.T) {
	idx := testIndex()
	row := Row{PID: "GANSW4", NumberFirst: "1", StreetName: "A", StreetTypeCode: "AV", State: "NSW", Postcode: "2000"}
	site := []GeocodeInput{{LevelTypeCode: "7"}}

	got, err := Map(t.Context(), idx, row, &LocalityJoin{Name: "A"}, nil, site, nil, false)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if got.Geo != nil {
		t.Fatal("expected geo to be omitted when geocoding is disabled")
	}
}

func TestGeocodeUnrecognizedLevelTypeRejectsBundle(t *testing.T) {
	idx := testIndex()
	row := Row{PID: "GANSW5", NumberFirst: "1", StreetName: "A", StreetTypeCode: "AV", State: "NSW", Postcode: "2000"}
	site := []GeocodeInput{{LevelTypeCode: "99"}}

	_, err := Map(t.Context(), idx, row, &LocalityJoin{Name: "A"}, nil, site, nil, true)
	if err == nil {
		t.Fatal("expected an error for an unrecognized geocoded-level-type code")
	}
	if !xerrIsStructural(err) {
		t.Fatalf("expected a structural error, got %v", err)
	}
}

func xerrIsStructural(err error) bool {
	type kinder interface{ Is(error) bool }
	k, ok := err.(kinder)
	return ok && k.Is(xerr.ErrStructural)
}

// TestStructuredJSONTagIsNotMisspelled guards the known upstream typo
// (spec §9 open questions): the field must serialize as "structured", never
// "structurted".
func TestStructuredJSONTagIsNotMisspelled(t *testing.T) {
	field, ok := reflect.TypeOf(AddressDetail{}).FieldByName("Structured")
	if !ok {
		t.Fatal("AddressDetail has no Structured field")
	}
	tag := field.Tag.Get("json")
	if tag != "structured" {
		t.Fatalf("json tag = %q, want %q", tag, "structured")
	}
}
