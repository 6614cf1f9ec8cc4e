package ingest

import (
	"path/filepath"

	"github.com/gnaf-kit/addresskit/internal/authority"
	"github.com/gnaf-kit/addresskit/internal/config"
)

// authorityFiles maps each authority table to its pipe-separated filename
// within the extracted archive's Authority Code directory, following
// G-NAF's own "Authority_Code_<TABLE>_AUT_psv.psv" naming convention.
var authorityFiles = map[authority.Table]string{
	authority.LevelType:          "Authority_Code_LEVEL_TYPE_AUT_psv.psv",
	authority.FlatType:           "Authority_Code_FLAT_TYPE_AUT_psv.psv",
	authority.StreetType:         "Authority_Code_STREET_TYPE_AUT_psv.psv",
	authority.StreetClass:        "Authority_Code_STREET_CLASS_AUT_psv.psv",
	authority.LocalityClass:      "Authority_Code_LOCALITY_CLASS_AUT_psv.psv",
	authority.StreetSuffix:       "Authority_Code_STREET_SUFFIX_AUT_psv.psv",
	authority.GeocodeReliability: "Authority_Code_GEOCODE_RELIABILITY_AUT_psv.psv",
	authority.GeocodeType:        "Authority_Code_GEOCODE_TYPE_AUT_psv.psv",
	authority.GeocodedLevelType:  "Authority_Code_GEOCODED_LEVEL_TYPE_AUT_psv.psv",
}

// regionFile builds the path to one region's constituent file, following
// G-NAF's "<REGION>_<TABLE>_psv.psv" naming convention.
func regionFile(extractedDir string, region config.Region, table string) string {
	return filepath.Join(extractedDir, "Standard", string(region)+"_"+table+"_psv.psv")
}

func localityFile(extractedDir string, region config.Region) string {
	return regionFile(extractedDir, region, "LOCALITY")
}

func streetLocalityFile(extractedDir string, region config.Region) string {
	return regionFile(extractedDir, region, "STREET_LOCALITY")
}

func geocodeSiteFile(extractedDir string, region config.Region) string {
	return regionFile(extractedDir, region, "ADDRESS_SITE_GEOCODE")
}

func geocodeDefaultFile(extractedDir string, region config.Region) string {
	return regionFile(extractedDir, region, "ADDRESS_DEFAULT_GEOCODE")
}

func addressDetailFile(extractedDir string, region config.Region) string {
	return regionFile(extractedDir, region, "ADDRESS_DETAIL")
}
