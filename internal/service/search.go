package service

import (
	"context"
	"log"

	"proppanda/internal/model"
	"proppanda/internal/utils"
)

// SearchService runs the staged property search: a flexible user gets the
// cheapest listings outright, a named area tries a text match first and
// falls back to a geocoded radius, and a dead end still returns whatever
// the table has rather than nothing.
type SearchService struct {
	properties   PropertyStore
	geocoder     Geocoder
	resultLimit  int
	radiusMeters float64
}

// NewSearchService creates the search orchestrator
func NewSearchService(properties PropertyStore, geocoder Geocoder, resultLimit int, radiusMeters float64) *SearchService {
	if resultLimit <= 0 {
		resultLimit = 10
	}
	if radiusMeters <= 0 {
		radiusMeters = 3000
	}
	return &SearchService{
		properties:   properties,
		geocoder:     geocoder,
		resultLimit:  resultLimit,
		radiusMeters: radiusMeters,
	}
}

// Search executes the staged query and resets the presentation cursor.
func (s *SearchService) Search(ctx context.Context, state *model.SessionState) (model.StateUpdate, error) {
	found, err := s.run(ctx, state)
	if err != nil {
		return model.StateUpdate{}, err
	}

	return model.StateUpdate{
		FoundProperties:    dedupeByProperty(found),
		SetFoundProperties: true,
		ShownCount:         model.IntPtr(0),
		NextStep:           model.StepDisplayResults,
	}, nil
}

func (s *SearchService) run(ctx context.Context, state *model.SessionState) ([]model.Property, error) {
	base := model.PropertyQuery{
		Table:   state.TargetTable,
		Filters: state.Filters,
		Limit:   s.resultLimit,
	}

	if state.Filters.IsFlexibleLocation() {
		return s.properties.SearchProperties(ctx, base)
	}

	location := *state.Filters.LocationPreference

	// Stage 1: match the cleaned place name against address columns.
	if term := utils.CleanLocationTerm(location); term != "" {
		q := base
		q.TextSearch = term
		results, err := s.properties.SearchProperties(ctx, q)
		if err != nil {
			return nil, err
		}
		if len(results) > 0 {
			return results, nil
		}
	}

	// Stage 2: geocode and search a radius around the point. A place we
	// located but found nothing near is an honest empty result; the broad
	// fallback is only for places we could not pin down at all.
	lat, lng, ok, err := s.geocoder.Geocode(ctx, location)
	if err != nil || !ok {
		if err != nil {
			log.Printf("Search: geocoding %q failed, falling back: %v", location, err)
		}
		return s.properties.SearchProperties(ctx, base)
	}

	q := base
	q.Lat, q.Lng = &lat, &lng
	q.RadiusMeters = s.radiusMeters
	return s.properties.SearchProperties(ctx, q)
}

// dedupeByProperty collapses multiple rooms of the same building down to
// the first (cheapest) one. Rows without a property id are all kept.
func dedupeByProperty(properties []model.Property) []model.Property {
	seen := make(map[string]bool, len(properties))
	out := make([]model.Property, 0, len(properties))
	for _, p := range properties {
		key, ok := p.DedupeKey()
		if ok {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, p)
	}
	return out
}
