package ingest

import (
	"strconv"

	"github.com/gnaf-kit/addresskit/internal/address"
	"github.com/gnaf-kit/addresskit/internal/authority"
	"github.com/gnaf-kit/addresskit/internal/csvstream"
)

// decodeAuthorityCode maps a {CODE, NAME} pipe-separated row, the shape
// common to all nine authority-code tables (spec §4.3).
func decodeAuthorityCode(rec csvstream.Record) authority.Code {
	return authority.Code{Code: rec["CODE"], Name: rec["NAME"]}
}

func decodeLocality(rec csvstream.Record) (pid string, join address.LocalityJoin) {
	return rec["LOCALITY_PID"], address.LocalityJoin{Name: rec["LOCALITY_NAME"]}
}

func decodeStreetLocality(rec csvstream.Record) (pid string, join address.StreetLocalityJoin) {
	return rec["STREET_LOCALITY_PID"], address.StreetLocalityJoin{ClassCode: rec["STREET_CLASS_CODE"]}
}

// decodeGeocode maps one GEOCODE row; isDefault is determined by which of
// the two geocode files (site or default) the record came from, not by a
// column in the row itself.
func decodeGeocode(rec csvstream.Record, isDefault bool) (addressPID string, input address.GeocodeInput) {
	lat, _ := strconv.ParseFloat(rec["LATITUDE"], 64)
	lon, _ := strconv.ParseFloat(rec["LONGITUDE"], 64)
	return rec["ADDRESS_DETAIL_PID"], address.GeocodeInput{
		Latitude:        lat,
		Longitude:       lon,
		IsDefault:       isDefault,
		ReliabilityCode: rec["RELIABILITY_CODE"],
		TypeCode:        rec["GEOCODE_TYPE_CODE"],
		LevelTypeCode:   rec["GEOCODED_LEVEL_TYPE_CODE"],
	}
}

// decodeAddressRow maps one ADDRESS_DETAIL row (spec §6.1's minimum column
// set) to address.Row.
func decodeAddressRow(rec csvstream.Record) address.Row {
	var confidence *int
	if raw := rec["CONFIDENCE"]; raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			confidence = &n
		}
	}
	return address.Row{
		PID:          rec["ADDRESS_DETAIL_PID"],
		BuildingName: rec["BUILDING_NAME"],

		FlatTypeCode: rec["FLAT_TYPE_CODE"],
		FlatPrefix:   rec["FLAT_NUMBER_PREFIX"],
		FlatNumber:   rec["FLAT_NUMBER"],
		FlatSuffix:   rec["FLAT_NUMBER_SUFFIX"],

		LevelTypeCode: rec["LEVEL_TYPE_CODE"],
		LevelPrefix:   rec["LEVEL_NUMBER_PREFIX"],
		LevelNumber:   rec["LEVEL_NUMBER"],
		LevelSuffix:   rec["LEVEL_NUMBER_SUFFIX"],

		NumberFirstPrefix: rec["NUMBER_FIRST_PREFIX"],
		NumberFirst:       rec["NUMBER_FIRST"],
		NumberFirstSuffix: rec["NUMBER_FIRST_SUFFIX"],
		NumberLastPrefix:  rec["NUMBER_LAST_PREFIX"],
		NumberLast:        rec["NUMBER_LAST"],
		NumberLastSuffix:  rec["NUMBER_LAST_SUFFIX"],

		LotNumber: rec["LOT_NUMBER"],

		StreetName:       rec["STREET_NAME"],
		StreetTypeCode:   rec["STREET_TYPE_CODE"],
		StreetSuffixCode: rec["STREET_SUFFIX_CODE"],

		LocalityPID:       rec["LOCALITY_PID"],
		StreetLocalityPID: rec["STREET_LOCALITY_PID"],

		State:    rec["STATE_ABBREVIATION"],
		Postcode: rec["POSTCODE"],

		Confidence: confidence,
	}
}
