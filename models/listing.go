package models

// Semantic field keys emitted by the feature parser. Repeated occurrences of
// the same base key within one feature string get a zero-based suffix
// (rooms_0, rooms_1, ...).
const (
	FieldSquareMetersArea    = "square_meters_area"
	FieldSquareMetersTotal   = "square_meters_total"
	FieldSquareMetersCovered = "square_meters_covered"
	FieldSquareMetersLand    = "square_meters_land"
	FieldRooms               = "rooms"
	FieldBedrooms            = "bedrooms"
	FieldBathrooms           = "bathrooms"
	FieldParking             = "parking"
)

// ListingCard is the flat field mapping parsed from one search-result card.
// "url" is always present; currency pairs are stored as <name>_value /
// <name>_type; feature values are merged in under their suffixed keys.
// Absence of a key means the card did not report it.
type ListingCard map[string]string

// URL returns the card's listing URL as found on the card (possibly relative).
func (c ListingCard) URL() string {
	return c["url"]
}

// AreaRecord holds the three area metrics a detail page may report, in m².
// Nil means the metric was not found by any extractor.
type AreaRecord struct {
	M2Total   *float64
	M2Covered *float64
	M2Land    *float64
}

// Complete reports whether all three metrics are filled, so extractors can
// stop scanning early.
func (a AreaRecord) Complete() bool {
	return a.M2Total != nil && a.M2Covered != nil && a.M2Land != nil
}

// ListingDetail is the result of resolving one listing's detail page.
type ListingDetail struct {
	Link  string
	Title string
	Areas AreaRecord
}

// ExportRow is the final merged record for one listing. Price and expense
// values stay strings: a price that failed currency extraction degrades to
// its raw card text rather than being dropped.
type ExportRow struct {
	Link          string
	Title         string
	Location      string
	PriceValue    string
	PriceType     string
	ExpensesValue string
	ExpensesType  string
	M2Total       *float64
	M2Covered     *float64
	M2Land        *float64
	PrecioPorM2   *float64
	Rooms         *float64
	Bedrooms      *float64
	Bathrooms     *float64
	Parking       *float64
	Description   string
	DetailError   string
}

// ExportColumns is the fixed column order for serialized output.
var ExportColumns = []string{
	"link", "title", "location",
	"price_value", "price_type", "expenses_value", "expenses_type",
	"m2_total", "m2_covered", "m2_land", "precio_por_m2",
	"rooms", "bedrooms", "bathrooms", "parking",
	"description", "detail_error",
}
