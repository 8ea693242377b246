package pricing

import (
	"strconv"
	"strings"

	"github.com/scriptscout/scriptscout/internal/platform/geo"
	"github.com/scriptscout/scriptscout/internal/provider/dsnt"
	"github.com/scriptscout/scriptscout/internal/provider/scriptsave"
)

// normalizeDSNT converts raw DSNT records into Results. DSNT does not return
// pharmacy coordinates, so each record's location is resolved from its zip
// code; records whose zip cannot be resolved are dropped because their
// distance is uncomputable.
func normalizeDSNT(records []dsnt.PriceRecord, resolver *geo.Resolver, user geo.Coordinates) []Result {
	results := make([]Result, 0, len(records))
	for _, rec := range records {
		loc, ok := resolver.Resolve(rec.ZipCode)
		if !ok {
			continue
		}
		results = append(results, Result{
			Adjudicator:     AdjudicatorDSNT,
			PharmacyName:    rec.PharmacyName,
			PharmacyAddress: joinDSNTAddress(rec),
			PharmacyPhone:   rec.Phone,
			NDC:             rec.NDC,
			LabelName:       rec.LabelName,
			Price:           rec.Price,
			Latitude:        loc.Latitude,
			Longitude:       loc.Longitude,
			DistanceMiles:   geo.Distance(user, loc),
		})
	}
	return results
}

// joinDSNTAddress flattens DSNT's structured address fields into a single
// line. The second address line is included only when present.
func joinDSNTAddress(rec dsnt.PriceRecord) string {
	parts := []string{rec.AddressLine1}
	if rec.AddressLine2 != "" {
		parts = append(parts, rec.AddressLine2)
	}
	parts = append(parts, rec.City, rec.State+" "+rec.ZipCode)
	return strings.Join(parts, ", ")
}

// normalizeScriptSave converts raw ScriptSave records into Results. ScriptSave
// stringifies every numeric field; records whose price or coordinates fail to
// parse are dropped.
func normalizeScriptSave(records []scriptsave.PriceRecord, user geo.Coordinates) []Result {
	results := make([]Result, 0, len(records))
	for _, rec := range records {
		price, err := strconv.ParseFloat(rec.Price, 64)
		if err != nil {
			continue
		}
		lat, err := strconv.ParseFloat(rec.Latitude, 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(rec.Longitude, 64)
		if err != nil {
			continue
		}
		loc := geo.Coordinates{Latitude: lat, Longitude: lon}
		results = append(results, Result{
			Adjudicator:     AdjudicatorScriptSave,
			PharmacyName:    rec.PharmacyName,
			PharmacyAddress: rec.Address,
			PharmacyPhone:   rec.Phone,
			NDC:             rec.NDC,
			LabelName:       rec.LabelName,
			Price:           price,
			Latitude:        lat,
			Longitude:       lon,
			DistanceMiles:   geo.Distance(user, loc),
		})
	}
	return results
}

// filterByLabel keeps only results whose label name contains the searched
// drug name. Matching is case-sensitive, mirroring how upstream label names
// are compared against catalog entries.
func filterByLabel(results []Result, drugName string) []Result {
	kept := results[:0]
	for _, r := range results {
		if strings.Contains(r.LabelName, drugName) {
			kept = append(kept, r)
		}
	}
	return kept
}
