package pricing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/scriptscout/scriptscout/internal/platform/cache"
	"github.com/scriptscout/scriptscout/internal/platform/geo"
	"github.com/scriptscout/scriptscout/internal/provider/dsnt"
	"github.com/scriptscout/scriptscout/internal/provider/scriptsave"
)

// DSNTAPI is the slice of the DSNT client the engine needs.
type DSNTAPI interface {
	QueryPrices(ctx context.Context, q dsnt.PriceQuery) ([]dsnt.PriceRecord, error)
}

// ScriptSaveAPI is the slice of the ScriptSave client the engine needs: name
// search for NDC resolution plus price lookup by NDC.
type ScriptSaveAPI interface {
	SearchDrugs(ctx context.Context, name string) ([]scriptsave.DrugMatch, error)
	QueryPrices(ctx context.Context, ndc, zipCode string, maxResults int) ([]scriptsave.PriceRecord, error)
}

// Config bounds the provider queries and the result caches.
type Config struct {
	// DSNTMaxRadius is sent to DSNT on every query regardless of the
	// caller's radius; the true radius is enforced locally after merge.
	DSNTMaxRadius int
	// DSNTQuantity is the dispensed quantity priced by DSNT.
	DSNTQuantity int
	// ScriptSaveMaxResults caps the ScriptSave pricing response.
	ScriptSaveMaxResults int
	CacheMaxEntries      int
	CacheMaxAge          time.Duration
}

// Engine aggregates prices from both providers into a single ranked list. It
// owns one cache per ordering kind; between the two namespaces a result set
// cached under one ordering is re-sorted rather than re-fetched.
type Engine struct {
	dsnt       DSNTAPI
	scriptSave ScriptSaveAPI
	resolver   *geo.Resolver
	byPrice    *cache.Store
	byDistance *cache.Store
	cfg        Config
	log        zerolog.Logger
}

func NewEngine(dsntClient DSNTAPI, scriptSaveClient ScriptSaveAPI, resolver *geo.Resolver, cfg Config, logger zerolog.Logger) *Engine {
	if cfg.DSNTMaxRadius <= 0 {
		cfg.DSNTMaxRadius = 50
	}
	if cfg.DSNTQuantity <= 0 {
		cfg.DSNTQuantity = 30
	}
	if cfg.ScriptSaveMaxResults <= 0 {
		cfg.ScriptSaveMaxResults = 200
	}
	return &Engine{
		dsnt:       dsntClient,
		scriptSave: scriptSaveClient,
		resolver:   resolver,
		byPrice:    cache.New(cfg.CacheMaxEntries, cfg.CacheMaxAge),
		byDistance: cache.New(cfg.CacheMaxEntries, cfg.CacheMaxAge),
		cfg:        cfg,
		log:        logger,
	}
}

// SearchByPrice returns results ordered by ascending price. Failures anywhere
// in the pipeline are logged and collapsed to an empty list; callers cannot
// distinguish "no matching pharmacies" from an upstream outage.
func (e *Engine) SearchByPrice(ctx context.Context, q Query) []Result {
	return e.collapse(ctx, q, OrderByPrice)
}

// SearchByDistance returns results ordered by ascending distance, with the
// same collapse-to-empty failure contract as SearchByPrice.
func (e *Engine) SearchByDistance(ctx context.Context, q Query) []Result {
	return e.collapse(ctx, q, OrderByDistance)
}

func (e *Engine) collapse(ctx context.Context, q Query, kind OrderKind) []Result {
	results, err := e.search(ctx, q, kind)
	if err != nil {
		e.log.Error().Err(err).
			Str("drug", q.DrugName).
			Str("zip", q.ZipCode).
			Int("radius_miles", q.RadiusMiles).
			Str("order", string(kind)).
			Msg("price search failed")
		return []Result{}
	}
	if results == nil {
		results = []Result{}
	}
	return results
}

// search runs the full pipeline and keeps failures typed so tests and logging
// can tell an empty market from a broken one.
func (e *Engine) search(ctx context.Context, q Query, kind OrderKind) ([]Result, error) {
	key := cache.Key(string(kind), q.DrugName, q.ZipCode, q.RadiusMiles)
	if v, ok := e.cacheFor(kind).Get(key); ok {
		return v.([]Result), nil
	}

	// A hit under the other ordering means the matched set is already
	// known; re-sorting it saves both provider round trips.
	other := otherKind(kind)
	otherKey := cache.Key(string(other), q.DrugName, q.ZipCode, q.RadiusMiles)
	if v, ok := e.cacheFor(other).Get(otherKey); ok {
		derived := resortCopy(v.([]Result), kind)
		e.cacheFor(kind).Set(key, derived)
		return derived, nil
	}

	userLoc, ok := e.resolver.Resolve(q.ZipCode)
	if !ok {
		e.log.Debug().Str("zip", q.ZipCode).Msg("user zip not in geo table")
		return []Result{}, nil
	}

	matches, err := e.scriptSave.SearchDrugs(ctx, q.DrugName)
	if err != nil {
		return nil, fmt.Errorf("resolve drug name %q: %w", q.DrugName, err)
	}
	if len(matches) == 0 {
		return []Result{}, nil
	}
	ndc := matches[0].NDC

	var (
		wg          sync.WaitGroup
		dsntRecords []dsnt.PriceRecord
		ssRecords   []scriptsave.PriceRecord
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		recs, err := e.dsnt.QueryPrices(ctx, dsnt.PriceQuery{
			NDC:         ndc,
			Quantity:    e.cfg.DSNTQuantity,
			ZipCode:     q.ZipCode,
			RadiusMiles: e.cfg.DSNTMaxRadius,
		})
		if err != nil {
			e.log.Warn().Err(err).Str("ndc", ndc).Msg("dsnt price query failed")
			return
		}
		dsntRecords = recs
	}()
	go func() {
		defer wg.Done()
		recs, err := e.scriptSave.QueryPrices(ctx, ndc, q.ZipCode, e.cfg.ScriptSaveMaxResults)
		if err != nil {
			e.log.Warn().Err(err).Str("ndc", ndc).Msg("scriptsave price query failed")
			return
		}
		ssRecords = recs
	}()
	wg.Wait()

	results := normalizeDSNT(dsntRecords, e.resolver, userLoc)
	results = append(results, normalizeScriptSave(ssRecords, userLoc)...)
	if !q.IncludeGeneric {
		results = filterByLabel(results, q.DrugName)
	}
	results = dedupe(results)
	results = filterWithinRadius(results, float64(q.RadiusMiles))
	sortResults(results, kind)

	e.cacheFor(kind).Set(key, results)
	return results, nil
}

func (e *Engine) cacheFor(kind OrderKind) *cache.Store {
	if kind == OrderByDistance {
		return e.byDistance
	}
	return e.byPrice
}

func otherKind(kind OrderKind) OrderKind {
	if kind == OrderByPrice {
		return OrderByDistance
	}
	return OrderByPrice
}

// filterWithinRadius drops results farther than the requested radius. A
// result exactly at the radius is kept.
func filterWithinRadius(results []Result, radiusMiles float64) []Result {
	kept := results[:0]
	for _, r := range results {
		if r.DistanceMiles <= radiusMiles {
			kept = append(kept, r)
		}
	}
	return kept
}

func sortResults(results []Result, kind OrderKind) {
	if kind == OrderByDistance {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].DistanceMiles < results[j].DistanceMiles
		})
		return
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Price < results[j].Price
	})
}

// resortCopy re-sorts a cached list under the other ordering without mutating
// the cached slice.
func resortCopy(results []Result, kind OrderKind) []Result {
	cp := make([]Result, len(results))
	copy(cp, results)
	sortResults(cp, kind)
	return cp
}
