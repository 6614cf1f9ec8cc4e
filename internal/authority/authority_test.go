package authority

import (
	"reflect"
	"testing"
)

func TestResolveKnownAndUnknown(t *testing.T) {
	idx := New()
	idx.Load(StreetType, []Code{{Code: "ST", Name: "STREET"}, {Code: "AV", Name: "AVENUE"}})

	name, ok := idx.Resolve(t.Context(), StreetType, "ST")
	if !ok || name != "STREET" {
		t.Fatalf("Resolve(ST) = %q, %v", name, ok)
	}

	if _, ok := idx.Resolve(t.Context(), StreetType, "ZZ"); ok {
		t.Fatal("expected unresolved code to report ok=false")
	}

	if _, ok := idx.Resolve(t.Context(), FlatType, "U"); ok {
		t.Fatal("expected lookup against an unloaded table to report ok=false")
	}
}

func TestResolveOrCodeFallsBackToRawCode(t *testing.T) {
	idx := New()
	idx.Load(FlatType, []Code{{Code: "U", Name: "UNIT"}})

	if got := idx.ResolveOrCode(t.Context(), FlatType, "U"); got != "UNIT" {
		t.Fatalf("got %q, want UNIT", got)
	}
	if got := idx.ResolveOrCode(t.Context(), FlatType, "ZZZ"); got != "ZZZ" {
		t.Fatalf("expected raw-code fallback, got %q", got)
	}
}

func TestLoadReplacesPriorContents(t *testing.T) {
	idx := New()
	idx.Load(LevelType, []Code{{Code: "G", Name: "GROUND"}})
	idx.Load(LevelType, []Code{{Code: "L", Name: "LEVEL"}})

	if _, ok := idx.Resolve(t.Context(), LevelType, "G"); ok {
		t.Fatal("expected second Load to replace, not merge, prior contents")
	}
	if name, ok := idx.Resolve(t.Context(), LevelType, "L"); !ok || name != "LEVEL" {
		t.Fatalf("Resolve(L) = %q, %v", name, ok)
	}
}

func TestSynonymsDeduplicatedAndSorted(t *testing.T) {
	idx := New()
	idx.Load(StreetType, []Code{{Code: "ST", Name: "STREET"}, {Code: "AV", Name: "AVENUE"}})
	idx.Load(FlatType, []Code{{Code: "U", Name: "UNIT"}})
	idx.Load(LevelType, []Code{{Code: "ST", Name: "STREET"}}) // duplicate pair, different table
	idx.Load(StreetSuffix, []Code{{Code: "N", Name: "NORTH"}})
	// GeocodeReliability isn't one of the synonym-feeding tables.
	idx.Load(GeocodeReliability, []Code{{Code: "1", Name: "HIGH"}})

	want := []Synonym{
		{Code: "AV", Name: "AVENUE"},
		{Code: "N", Name: "NORTH"},
		{Code: "ST", Name: "STREET"},
		{Code: "U", Name: "UNIT"},
	}
	got := idx.Synonyms()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Synonyms() = %+v, want %+v", got, want)
	}
}

func TestSynonymsStableAcrossCalls(t *testing.T) {
	idx := New()
	idx.Load(StreetType, []Code{{Code: "ST", Name: "STREET"}, {Code: "AV", Name: "AVENUE"}, {Code: "RD", Name: "ROAD"}})

	first := idx.Synonyms()
	second := idx.Synonyms()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Synonyms() not stable across calls: %+v vs %+v", first, second)
	}
}
