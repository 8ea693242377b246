package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/scriptscout/scriptscout/internal/provider/dsnt"
	"github.com/scriptscout/scriptscout/internal/provider/scriptsave"
)

type stubDSNT struct {
	calls     int
	lastQuery dsnt.PriceQuery
	records   []dsnt.PriceRecord
	err       error
}

func (s *stubDSNT) QueryPrices(_ context.Context, q dsnt.PriceQuery) ([]dsnt.PriceRecord, error) {
	s.calls++
	s.lastQuery = q
	return s.records, s.err
}

type stubScriptSave struct {
	searchCalls int
	priceCalls  int
	matches     []scriptsave.DrugMatch
	searchErr   error
	records     []scriptsave.PriceRecord
	priceErr    error
}

func (s *stubScriptSave) SearchDrugs(_ context.Context, _ string) ([]scriptsave.DrugMatch, error) {
	s.searchCalls++
	return s.matches, s.searchErr
}

func (s *stubScriptSave) QueryPrices(_ context.Context, _, _ string, _ int) ([]scriptsave.PriceRecord, error) {
	s.priceCalls++
	return s.records, s.priceErr
}

func lipitorMatches() []scriptsave.DrugMatch {
	return []scriptsave.DrugMatch{
		{NDC: "00071015523", DrugName: "Lipitor", IsBrand: true},
		{NDC: "00093505698", DrugName: "Atorvastatin Calcium", IsBrand: false},
	}
}

// Fixture geography: the user searches from College Park, MD. CVS sits in
// the next zip over, Walgreens and Giant a few miles out, Rite Aid in
// Baltimore roughly 27 miles away.
func fixtureDSNTRecords() []dsnt.PriceRecord {
	return []dsnt.PriceRecord{
		{PharmacyName: "CVS Pharmacy", AddressLine1: "7300 Baltimore Ave", City: "College Park", State: "MD", ZipCode: "20740", NDC: "00071015523", LabelName: "Lipitor 10mg", Price: 12.50},
		{PharmacyName: "CVS Pharmacy", AddressLine1: "6200 Riverdale Rd", City: "Riverdale", State: "MD", ZipCode: "20737", NDC: "00071015523", LabelName: "Lipitor 10mg", Price: 9.75},
		{PharmacyName: "Rite Aid", AddressLine1: "300 N Charles St", City: "Baltimore", State: "MD", ZipCode: "21201", NDC: "00071015523", LabelName: "Lipitor 10mg", Price: 5.00},
	}
}

func fixtureScriptSaveRecords() []scriptsave.PriceRecord {
	return []scriptsave.PriceRecord{
		{PharmacyName: "Walgreens", Address: "3050 Queens Chapel Rd, Hyattsville, MD 20782", NDC: "00071015523", LabelName: "Lipitor 10mg", Price: "11.20", Latitude: "38.9654", Longitude: "-76.9639"},
		{PharmacyName: "Giant Pharmacy", Address: "7547 Greenbelt Rd, Greenbelt, MD 20770", NDC: "00093505698", LabelName: "Atorvastatin Calcium 10mg", Price: "8.40", Latitude: "39.0046", Longitude: "-76.8755"},
	}
}

func newTestEngine(t *testing.T, d *stubDSNT, s *stubScriptSave) *Engine {
	t.Helper()
	resolver := mustResolver(t)
	cfg := Config{
		DSNTMaxRadius:        50,
		DSNTQuantity:         30,
		ScriptSaveMaxResults: 200,
		CacheMaxEntries:      64,
		CacheMaxAge:          15 * time.Minute,
	}
	return NewEngine(d, s, resolver, cfg, zerolog.Nop())
}

func testQuery() Query {
	return Query{DrugName: "Lipitor", ZipCode: "20740", RadiusMiles: 5, IncludeGeneric: true}
}

func TestSearchByPrice_SortsAndDedupesWithinRadius(t *testing.T) {
	d := &stubDSNT{records: fixtureDSNTRecords()}
	s := &stubScriptSave{matches: lipitorMatches(), records: fixtureScriptSaveRecords()}
	e := newTestEngine(t, d, s)

	results := e.SearchByPrice(context.Background(), testQuery())

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d: %+v", len(results), results)
	}
	want := []string{"Giant Pharmacy", "CVS Pharmacy", "Walgreens"}
	for i, name := range want {
		if results[i].PharmacyName != name {
			t.Errorf("results[%d] = %q, want %q", i, results[i].PharmacyName, name)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Price < results[i-1].Price {
			t.Errorf("prices not non-decreasing at %d: %v after %v", i, results[i].Price, results[i-1].Price)
		}
	}
	// Dedup keeps CVS's cheaper Riverdale offer.
	if results[1].Price != 9.75 {
		t.Errorf("CVS price = %v, want 9.75", results[1].Price)
	}
	// Rite Aid in Baltimore is outside the 5 mile radius.
	for _, r := range results {
		if r.PharmacyName == "Rite Aid" {
			t.Errorf("Rite Aid should have been filtered out at %v miles", r.DistanceMiles)
		}
		if r.DistanceMiles > 5 {
			t.Errorf("%s distance %v exceeds radius", r.PharmacyName, r.DistanceMiles)
		}
	}
}

func TestSearchByDistance_SortsByDistance(t *testing.T) {
	d := &stubDSNT{records: fixtureDSNTRecords()}
	s := &stubScriptSave{matches: lipitorMatches(), records: fixtureScriptSaveRecords()}
	e := newTestEngine(t, d, s)

	results := e.SearchByDistance(context.Background(), testQuery())

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].DistanceMiles < results[i-1].DistanceMiles {
			t.Errorf("distances not non-decreasing at %d", i)
		}
	}
}

func TestSearch_SecondIdenticalCallHitsCache(t *testing.T) {
	d := &stubDSNT{records: fixtureDSNTRecords()}
	s := &stubScriptSave{matches: lipitorMatches(), records: fixtureScriptSaveRecords()}
	e := newTestEngine(t, d, s)

	first := e.SearchByPrice(context.Background(), testQuery())
	second := e.SearchByPrice(context.Background(), testQuery())

	if s.searchCalls != 1 || s.priceCalls != 1 || d.calls != 1 {
		t.Errorf("providers called again on cache hit: search=%d price=%d dsnt=%d", s.searchCalls, s.priceCalls, d.calls)
	}
	if len(first) != len(second) {
		t.Fatalf("cached call returned %d results, first returned %d", len(second), len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("results[%d] differ between calls", i)
		}
	}
}

func TestSearch_OtherOrderingDerivedWithoutProviderCalls(t *testing.T) {
	d := &stubDSNT{records: fixtureDSNTRecords()}
	s := &stubScriptSave{matches: lipitorMatches(), records: fixtureScriptSaveRecords()}
	e := newTestEngine(t, d, s)

	byPrice := e.SearchByPrice(context.Background(), testQuery())
	byDistance := e.SearchByDistance(context.Background(), testQuery())

	if s.searchCalls != 1 || s.priceCalls != 1 || d.calls != 1 {
		t.Errorf("derivation should not call providers: search=%d price=%d dsnt=%d", s.searchCalls, s.priceCalls, d.calls)
	}
	if len(byPrice) != len(byDistance) {
		t.Fatalf("set sizes differ: %d vs %d", len(byPrice), len(byDistance))
	}
	members := map[string]bool{}
	for _, r := range byPrice {
		members[r.PharmacyName] = true
	}
	for _, r := range byDistance {
		if !members[r.PharmacyName] {
			t.Errorf("%q in derived set but not the original", r.PharmacyName)
		}
	}
	for i := 1; i < len(byDistance); i++ {
		if byDistance[i].DistanceMiles < byDistance[i-1].DistanceMiles {
			t.Errorf("derived ordering not sorted by distance at %d", i)
		}
	}
	// The cached by-price list must not have been re-sorted in place.
	for i := 1; i < len(byPrice); i++ {
		if byPrice[i].Price < byPrice[i-1].Price {
			t.Errorf("original by-price list mutated by derivation")
		}
	}
}

func TestSearch_ZeroDrugMatchesSkipsPricingCalls(t *testing.T) {
	d := &stubDSNT{records: fixtureDSNTRecords()}
	s := &stubScriptSave{matches: nil}
	e := newTestEngine(t, d, s)

	results := e.SearchByPrice(context.Background(), testQuery())

	if len(results) != 0 {
		t.Errorf("expected empty result set, got %d", len(results))
	}
	if d.calls != 0 || s.priceCalls != 0 {
		t.Errorf("pricing adapters called despite zero matches: dsnt=%d scriptsave=%d", d.calls, s.priceCalls)
	}
}

func TestSearch_OneProviderFailingKeepsTheOther(t *testing.T) {
	d := &stubDSNT{err: errors.New("dsnt: request rejected with status 422")}
	s := &stubScriptSave{matches: lipitorMatches(), records: fixtureScriptSaveRecords()}
	e := newTestEngine(t, d, s)

	results := e.SearchByPrice(context.Background(), testQuery())

	if len(results) != 2 {
		t.Fatalf("expected 2 ScriptSave results, got %d", len(results))
	}
	for _, r := range results {
		if r.Adjudicator != AdjudicatorScriptSave {
			t.Errorf("unexpected adjudicator %q", r.Adjudicator)
		}
	}
}

func TestSearch_NameSearchFailureCollapsesToEmpty(t *testing.T) {
	d := &stubDSNT{}
	s := &stubScriptSave{searchErr: errors.New("scriptsave: request failed")}
	e := newTestEngine(t, d, s)

	if _, err := e.search(context.Background(), testQuery(), OrderByPrice); err == nil {
		t.Error("expected a typed failure from the internal pipeline")
	}
	results := e.SearchByPrice(context.Background(), testQuery())
	if results == nil || len(results) != 0 {
		t.Errorf("public entry point must collapse failure to an empty list, got %v", results)
	}
}

func TestSearch_UnknownUserZipReturnsEmpty(t *testing.T) {
	d := &stubDSNT{records: fixtureDSNTRecords()}
	s := &stubScriptSave{matches: lipitorMatches(), records: fixtureScriptSaveRecords()}
	e := newTestEngine(t, d, s)

	q := testQuery()
	q.ZipCode = "99999"
	results := e.SearchByPrice(context.Background(), q)

	if len(results) != 0 {
		t.Errorf("expected empty result set, got %d", len(results))
	}
	if s.searchCalls != 0 || d.calls != 0 {
		t.Errorf("providers called without a resolvable user location")
	}
}

func TestSearch_DSNTQueryUsesMaxRadiusAndQuantity(t *testing.T) {
	d := &stubDSNT{records: fixtureDSNTRecords()}
	s := &stubScriptSave{matches: lipitorMatches(), records: fixtureScriptSaveRecords()}
	e := newTestEngine(t, d, s)

	e.SearchByPrice(context.Background(), testQuery())

	if d.lastQuery.RadiusMiles != 50 {
		t.Errorf("DSNT radius = %d, want the provider maximum 50", d.lastQuery.RadiusMiles)
	}
	if d.lastQuery.Quantity != 30 {
		t.Errorf("DSNT quantity = %d, want 30", d.lastQuery.Quantity)
	}
	if d.lastQuery.NDC != "00071015523" {
		t.Errorf("DSNT NDC = %q, want the first name-search match", d.lastQuery.NDC)
	}
}

func TestSearch_GenericExclusionFiltersByLabel(t *testing.T) {
	d := &stubDSNT{records: fixtureDSNTRecords()}
	s := &stubScriptSave{matches: lipitorMatches(), records: fixtureScriptSaveRecords()}
	e := newTestEngine(t, d, s)

	q := testQuery()
	q.IncludeGeneric = false
	results := e.SearchByPrice(context.Background(), q)

	for _, r := range results {
		if r.PharmacyName == "Giant Pharmacy" {
			t.Errorf("generic atorvastatin record survived the label filter")
		}
	}
	if len(results) != 2 {
		t.Errorf("expected 2 brand results, got %d", len(results))
	}
}
