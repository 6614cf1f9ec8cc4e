package address

// FlatOrLevel is the shared shape of flat and level sub-unit designations:
// a type code/name pair plus a number that may itself carry a prefix/suffix
// (e.g. flat number "12A", level number "G").
type FlatOrLevel struct {
	TypeCode string
	TypeName string
	Prefix   string
	Number   string
	Suffix   string
}

func (f *FlatOrLevel) numberWithAffixes() string {
	if f == nil {
		return ""
	}
	return f.Prefix + f.Number + f.Suffix
}

// NumberRange is a street-number range: first and last numbers, each with
// its own optional prefix/suffix. Last is empty when the address isn't a
// ranged number.
type NumberRange struct {
	FirstPrefix string
	First       string
	FirstSuffix string
	LastPrefix  string
	Last        string
	LastSuffix  string
}

func (n NumberRange) empty() bool {
	return n.First == "" && n.Last == ""
}

// compact renders the number range per ssla's shape: a single number, or
// "first-last" when a last number is present.
func (n NumberRange) compact() string {
	if n.empty() {
		return ""
	}
	first := n.FirstPrefix + n.First + n.FirstSuffix
	if n.Last == "" {
		return first
	}
	last := n.LastPrefix + n.Last + n.LastSuffix
	return first + "-" + last
}

// StreetPart names a street: its name plus its authority-coded type
// ("AV" → "AVENUE") and optional suffix ("N" → "NORTH").
type StreetPart struct {
	Name       string
	TypeCode   string
	TypeName   string
	SuffixCode string
	SuffixName string
}

// LotPart is a lot-number designation, used in place of a street number for
// some rural and remote addresses.
type LotPart struct {
	Number string
}

// StructuredAddress is the fielded form of an address, prior to rendering.
type StructuredAddress struct {
	BuildingName string
	Flat         *FlatOrLevel
	Level        *FlatOrLevel
	Number       NumberRange
	Lot          *LotPart
	Street       StreetPart
	Locality     string
	State        string
	Postcode     string
}

// GeocodeEntry is one point in a geocode bundle.
type GeocodeEntry struct {
	Latitude         float64
	Longitude        float64
	IsDefault        bool
	ReliabilityCode  string
	ReliabilityName  string
	TypeCode         string
	TypeName         string
}

// GeocodeBundle is the geocode block attached to an AddressDetail. Level is
// the coarse-to-fine rank (1..7) of the finest-granularity entry present.
type GeocodeBundle struct {
	Level   int
	Entries []GeocodeEntry
}

// AddressDetail is the document produced for one G-NAF address-detail row:
// the mapper's sole output, and the unit submitted to the search backend.
type AddressDetail struct {
	PID        string            `json:"pid"`
	Structured StructuredAddress `json:"structured"`
	SLA        string            `json:"sla"`
	SSLA       string            `json:"ssla"`
	MLA        []string          `json:"mla"`
	Confidence *int              `json:"confidence,omitempty"`
	Geo        *GeocodeBundle    `json:"geo,omitempty"`
}

// DocumentID is the backend document id for an AddressDetail: the stable,
// deterministic path that makes re-ingestion idempotent (spec §3.2).
func DocumentID(pid string) string {
	return "/addresses/" + pid
}
