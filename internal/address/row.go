package address

// Row carries the columns the mapper needs from one ADDRESS_DETAIL record
// (spec §6.1): raw codes, not yet resolved against the authority index.
type Row struct {
	PID string

	BuildingName string

	FlatTypeCode string
	FlatPrefix   string
	FlatNumber   string
	FlatSuffix   string

	LevelTypeCode string
	LevelPrefix   string
	LevelNumber   string
	LevelSuffix   string

	NumberFirstPrefix string
	NumberFirst       string
	NumberFirstSuffix string
	NumberLastPrefix  string
	NumberLast        string
	NumberLastSuffix  string

	LotNumber string

	StreetName       string
	StreetTypeCode   string
	StreetSuffixCode string

	LocalityPID       string
	StreetLocalityPID string

	State    string
	Postcode string

	Confidence *int
}

// LocalityJoin is the satellite record joined via Row.LocalityPID.
type LocalityJoin struct {
	Name string
}

// StreetLocalityJoin is the satellite record joined via
// Row.StreetLocalityPID. Its class code is currently carried for parity
// with the G-NAF schema; the renderers don't consume it directly.
type StreetLocalityJoin struct {
	ClassCode string
}

// GeocodeInput is one raw geocode record, prior to authority resolution. Site
// and default geocodes share this shape; the two sets are passed to Map
// separately so site-precedence (spec §4.4) can be applied.
type GeocodeInput struct {
	Latitude        float64
	Longitude       float64
	IsDefault       bool
	ReliabilityCode string
	TypeCode        string
	// LevelTypeCode is the geocoded-level-type code (rank 1..7) for this
	// entry. An empty or unresolvable code rejects the whole bundle (spec
	// §4.4, §7 kind 4): the overall geo-level can't be computed without it.
	LevelTypeCode string
}
