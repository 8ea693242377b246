package directory

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/scriptscout/scriptscout/internal/platform/cache"
	"github.com/scriptscout/scriptscout/internal/platform/geo"
)

// Service answers nearby-pharmacy lookups from the local directory. Unlike
// the price engine it keeps a single cache namespace: results are only ever
// ordered by distance.
type Service struct {
	repo     PharmacyRepository
	resolver *geo.Resolver
	cache    *cache.Store
	log      zerolog.Logger
}

func NewService(repo PharmacyRepository, resolver *geo.Resolver, maxEntries int, maxAge time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		cache:    cache.New(maxEntries, maxAge),
		log:      logger,
	}
}

// Nearby returns directory pharmacies within radiusMiles of the given zip,
// sorted ascending by distance. Rows use their stored coordinates when
// present and fall back to resolving their own zip code; rows that resolve
// neither are skipped. Lookup failures collapse to an empty list.
func (s *Service) Nearby(ctx context.Context, zipCode string, radiusMiles int) []NearbyPharmacy {
	key := cache.Key("nearby", "pharmacies", zipCode, radiusMiles)
	if v, ok := s.cache.Get(key); ok {
		return v.([]NearbyPharmacy)
	}

	user, ok := s.resolver.Resolve(zipCode)
	if !ok {
		s.log.Debug().Str("zip", zipCode).Msg("user zip not in geo table")
		return []NearbyPharmacy{}
	}

	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("pharmacy directory unavailable")
		return []NearbyPharmacy{}
	}

	nearby := make([]NearbyPharmacy, 0, len(rows))
	for _, p := range rows {
		loc, ok := s.locate(p)
		if !ok {
			continue
		}
		d := geo.Distance(user, loc)
		if d > float64(radiusMiles) {
			continue
		}
		nearby = append(nearby, NearbyPharmacy{Pharmacy: *p, DistanceMiles: d})
	}
	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceMiles < nearby[j].DistanceMiles
	})

	s.cache.Set(key, nearby)
	return nearby
}

func (s *Service) locate(p *Pharmacy) (geo.Coordinates, bool) {
	if p.Latitude != nil && p.Longitude != nil {
		return geo.Coordinates{Latitude: *p.Latitude, Longitude: *p.Longitude}, true
	}
	return s.resolver.Resolve(p.ZipCode)
}

func (s *Service) CreatePharmacy(ctx context.Context, p *Pharmacy) error {
	return s.repo.Create(ctx, p)
}

func (s *Service) ListPharmacies(ctx context.Context, limit, offset int) ([]*Pharmacy, int, error) {
	return s.repo.List(ctx, limit, offset)
}
