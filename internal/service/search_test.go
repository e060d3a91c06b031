package service

import (
	"context"
	"testing"

	"proppanda/internal/model"
)

func searchSession(location string) *model.SessionState {
	s := model.NewSessionState("t-search")
	s.TargetTable = model.TableColiving
	s.Filters = &model.PropertyFilters{
		LocationPreference: model.StrPtr(location),
		BudgetMax:          model.FloatPtr(1500),
	}
	return s
}

func TestSearchFlexibleLocationSkipsGeocoding(t *testing.T) {
	store := &fakePropertyStore{searchFn: func(q model.PropertyQuery) ([]model.Property, error) {
		return []model.Property{{ID: 1}}, nil
	}}
	geo := &fakeGeocoder{}
	svc := NewSearchService(store, geo, 10, 3000)

	update, err := svc.Search(context.Background(), searchSession(model.FlexibleLocation))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(geo.calls) != 0 {
		t.Error("a flexible user must not trigger geocoding")
	}
	if len(store.queries) != 1 || store.queries[0].TextSearch != "" {
		t.Errorf("expected one base query, got %+v", store.queries)
	}
	if !update.SetFoundProperties || len(update.FoundProperties) != 1 {
		t.Error("results were not propagated")
	}
	if update.ShownCount == nil || *update.ShownCount != 0 {
		t.Error("the presentation cursor must reset on a new search")
	}
}

func TestSearchTextMatchWinsOverRadius(t *testing.T) {
	store := &fakePropertyStore{searchFn: func(q model.PropertyQuery) ([]model.Property, error) {
		if q.TextSearch == "tampines" {
			return []model.Property{{ID: 42}}, nil
		}
		return nil, nil
	}}
	geo := &fakeGeocoder{found: true, lat: 1.35, lng: 103.94}
	svc := NewSearchService(store, geo, 10, 3000)

	update, err := svc.Search(context.Background(), searchSession("near tampines mrt"))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(geo.calls) != 0 {
		t.Error("a text hit should stop the pipeline before geocoding")
	}
	if len(update.FoundProperties) != 1 || update.FoundProperties[0].ID != 42 {
		t.Errorf("wrong results: %+v", update.FoundProperties)
	}
}

func TestSearchFallsBackToRadius(t *testing.T) {
	store := &fakePropertyStore{searchFn: func(q model.PropertyQuery) ([]model.Property, error) {
		if q.Lat != nil {
			return []model.Property{{ID: 7}}, nil
		}
		return nil, nil
	}}
	geo := &fakeGeocoder{found: true, lat: 1.3, lng: 103.85}
	svc := NewSearchService(store, geo, 10, 3000)

	update, err := svc.Search(context.Background(), searchSession("lorong kilat"))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(geo.calls) != 1 {
		t.Fatalf("geocoder calls = %d, want 1", len(geo.calls))
	}
	if len(update.FoundProperties) != 1 || update.FoundProperties[0].ID != 7 {
		t.Errorf("radius results were not used: %+v", update.FoundProperties)
	}

	// The radius query carries the configured radius.
	last := store.queries[len(store.queries)-1]
	if last.RadiusMeters != 3000 || last.Lat == nil || *last.Lat != 1.3 {
		t.Errorf("radius query malformed: %+v", last)
	}
}

func TestSearchDeadEndReturnsBestAvailable(t *testing.T) {
	calls := 0
	store := &fakePropertyStore{searchFn: func(q model.PropertyQuery) ([]model.Property, error) {
		calls++
		// Only the final unfiltered query finds anything.
		if q.TextSearch == "" && q.Lat == nil {
			return []model.Property{{ID: 9}}, nil
		}
		return nil, nil
	}}
	geo := &fakeGeocoder{found: false}
	svc := NewSearchService(store, geo, 10, 3000)

	update, err := svc.Search(context.Background(), searchSession("atlantis"))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(update.FoundProperties) != 1 || update.FoundProperties[0].ID != 9 {
		t.Error("an unknown place must still surface the table's best listings")
	}
	if calls != 2 {
		t.Errorf("queries = %d, want text then fallback", calls)
	}
}

func TestSearchLocatedAreaWithNothingNearbyStaysEmpty(t *testing.T) {
	store := &fakePropertyStore{searchFn: func(q model.PropertyQuery) ([]model.Property, error) {
		return nil, nil
	}}
	geo := &fakeGeocoder{found: true, lat: 1.28, lng: 103.84}
	svc := NewSearchService(store, geo, 10, 3000)

	update, err := svc.Search(context.Background(), searchSession("sentosa cove"))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(update.FoundProperties) != 0 {
		t.Errorf("a located area with no nearby listings must stay empty, got %+v", update.FoundProperties)
	}
	// Text then radius, never the broad fallback.
	if len(store.queries) != 2 {
		t.Fatalf("queries = %d, want text then radius", len(store.queries))
	}
	if store.queries[1].Lat == nil {
		t.Error("the second query should be the radius search")
	}
}

func TestDedupeByProperty(t *testing.T) {
	in := []model.Property{
		{ID: 1, PropertyID: model.StrPtr("PG-1")},
		{ID: 2, PropertyID: model.StrPtr("PG-1")},
		{ID: 3, PropertyID: model.StrPtr("PG-2")},
		{ID: 4},
		{ID: 5},
	}
	out := dedupeByProperty(in)
	if len(out) != 4 {
		t.Fatalf("len = %d, want 4", len(out))
	}
	if out[0].ID != 1 {
		t.Error("the first (cheapest) room of a building must survive")
	}
	for _, p := range out {
		if p.ID == 2 {
			t.Error("duplicate building slipped through")
		}
	}
}
