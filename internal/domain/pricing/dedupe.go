package pricing

// dedupe collapses results that share a pharmacy name down to the single
// cheapest offer. Ties keep the first record seen, and surviving records keep
// their first-seen relative order; the engine imposes the final ordering.
func dedupe(results []Result) []Result {
	best := make(map[string]int, len(results))
	kept := make([]Result, 0, len(results))
	for _, r := range results {
		idx, seen := best[r.PharmacyName]
		if !seen {
			best[r.PharmacyName] = len(kept)
			kept = append(kept, r)
			continue
		}
		if r.Price < kept[idx].Price {
			kept[idx] = r
		}
	}
	return kept
}
