package pricing

// Adjudicator identifies which upstream provider produced a record.
type Adjudicator string

const (
	AdjudicatorDSNT       Adjudicator = "dsnt"
	AdjudicatorScriptSave Adjudicator = "scriptsave"
)

// OrderKind selects the sort field and the cache namespace for a search.
type OrderKind string

const (
	OrderByPrice    OrderKind = "price"
	OrderByDistance OrderKind = "distance"
)

// Result is the provider-agnostic pharmacy price record produced by
// normalization. Within one search response there is at most one Result per
// pharmacy name, and every Result's distance is within the requested radius.
type Result struct {
	Adjudicator     Adjudicator `json:"adjudicator"`
	PharmacyName    string      `json:"pharmacy_name"`
	PharmacyAddress string      `json:"pharmacy_address"`
	PharmacyPhone   string      `json:"pharmacy_phone,omitempty"`
	NDC             string      `json:"ndc"`
	LabelName       string      `json:"label_name"`
	Price           float64     `json:"price"`
	Latitude        float64     `json:"latitude"`
	Longitude       float64     `json:"longitude"`
	DistanceMiles   float64     `json:"distance_miles"`
}

// Query holds the caller-supplied parameters of a price search.
type Query struct {
	DrugName       string
	ZipCode        string
	RadiusMiles    int
	IncludeGeneric bool
}
