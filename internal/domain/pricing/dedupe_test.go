package pricing

import "testing"

func TestDedupe_KeepsLowestPrice(t *testing.T) {
	results := []Result{
		{PharmacyName: "CVS Pharmacy", Price: 12.50},
		{PharmacyName: "CVS Pharmacy", Price: 9.75},
	}

	kept := dedupe(results)
	if len(kept) != 1 {
		t.Fatalf("expected 1 result, got %d", len(kept))
	}
	if kept[0].Price != 9.75 {
		t.Errorf("price = %v, want 9.75", kept[0].Price)
	}
}

func TestDedupe_TieKeepsFirstSeen(t *testing.T) {
	results := []Result{
		{PharmacyName: "CVS Pharmacy", Price: 9.75, NDC: "first"},
		{PharmacyName: "CVS Pharmacy", Price: 9.75, NDC: "second"},
	}

	kept := dedupe(results)
	if len(kept) != 1 {
		t.Fatalf("expected 1 result, got %d", len(kept))
	}
	if kept[0].NDC != "first" {
		t.Errorf("tie kept %q, want the first-seen record", kept[0].NDC)
	}
}

func TestDedupe_DistinctPharmaciesUntouched(t *testing.T) {
	results := []Result{
		{PharmacyName: "CVS Pharmacy", Price: 9.75},
		{PharmacyName: "Walgreens", Price: 11.20},
		{PharmacyName: "Giant Pharmacy", Price: 8.40},
	}

	kept := dedupe(results)
	if len(kept) != 3 {
		t.Fatalf("expected 3 results, got %d", len(kept))
	}
	seen := map[string]bool{}
	for _, r := range kept {
		if seen[r.PharmacyName] {
			t.Errorf("duplicate pharmacy %q survived", r.PharmacyName)
		}
		seen[r.PharmacyName] = true
	}
}
