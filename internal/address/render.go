package address

import "strings"

// renderSLA builds the single-line address per spec §4.4. Empty components
// are omitted along with their separating comma; the whole string is
// upper-cased. The worked example in spec §8 scenario 1 orders the level
// designation before the building name ("LEVEL 25, TOWER 3, ...") — this
// renderer follows that worked order rather than the prose's
// building-before-level bracket listing, which the example contradicts.
func renderSLA(s StructuredAddress) string {
	parts := []string{
		levelPart(s.Level),
		s.BuildingName,
		flatPart(s.Flat),
		numberStreetPart(s),
		localityLine(s),
	}
	return strings.ToUpper(joinNonEmpty(parts, ", "))
}

// renderSSLA builds the short single-line address: sub-unit (flat, or level
// when no flat) as a "N/" prefix on the street number, then street,
// locality, state, postcode.
func renderSSLA(s StructuredAddress) string {
	numberStreet := numberStreetPart(s)
	if sub := subUnitNumber(s); sub != "" {
		numberStreet = sub + "/" + numberStreet
	}
	parts := []string{numberStreet, localityLine(s)}
	return strings.ToUpper(joinNonEmpty(parts, ", "))
}

// renderMLA builds the 1-4 line multi-line address: building name; level
// and flat together; number and street; locality, state and postcode.
// Empty lines are omitted. A 5th non-empty line can never occur given the
// four fixed groupings, but callers still enforce the length invariant.
func renderMLA(s StructuredAddress) []string {
	levelFlat := joinNonEmpty([]string{flatPart(s.Flat), levelPart(s.Level)}, " ")
	lines := []string{s.BuildingName, levelFlat, numberStreetPart(s), localityLine(s)}
	return upperNonEmpty(lines)
}

// renderShortMLA is mla's shortened sibling: the level/flat line collapses
// to the bare sub-unit number and the number/street line uses the short
// numeric range instead of the long form (they're identical here, since
// numberStreetPart already renders the short range — the distinction from
// mla is solely in the sub-unit line).
func renderShortMLA(s StructuredAddress) []string {
	lines := []string{s.BuildingName, subUnitNumber(s), numberStreetPart(s), localityLine(s)}
	return upperNonEmpty(lines)
}

func levelPart(l *FlatOrLevel) string {
	if l == nil {
		return ""
	}
	return joinNonEmpty([]string{l.TypeName, l.numberWithAffixes()}, " ")
}

func flatPart(f *FlatOrLevel) string {
	if f == nil {
		return ""
	}
	return joinNonEmpty([]string{f.TypeName, f.numberWithAffixes()}, " ")
}

// subUnitNumber is the bare number used in ssla/short-mla's "N/" prefix:
// flat's number takes precedence over level's when both are present.
func subUnitNumber(s StructuredAddress) string {
	if s.Flat != nil && s.Flat.numberWithAffixes() != "" {
		return s.Flat.numberWithAffixes()
	}
	if s.Level != nil {
		return s.Level.numberWithAffixes()
	}
	return ""
}

func numberStreetPart(s StructuredAddress) string {
	var number string
	switch {
	case s.Lot != nil && s.Lot.Number != "":
		number = "LOT " + s.Lot.Number
	default:
		number = s.Number.compact()
	}
	street := joinNonEmpty([]string{s.Street.Name, s.Street.TypeName, s.Street.SuffixName}, " ")
	return joinNonEmpty([]string{number, street}, " ")
}

func localityLine(s StructuredAddress) string {
	return joinNonEmpty([]string{s.Locality, s.State, s.Postcode}, " ")
}

func joinNonEmpty(parts []string, sep string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func upperNonEmpty(lines []string) []string {
	var out []string
	for _, l := range lines {
		if l != "" {
			out = append(out, strings.ToUpper(l))
		}
	}
	return out
}
