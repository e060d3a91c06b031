package repository

import (
	"strings"
	"testing"

	"proppanda/internal/model"
)

func buildFor(t *testing.T, q model.PropertyQuery) (string, []interface{}) {
	t.Helper()
	query, args, err := buildSearchQuery(q)
	if err != nil {
		t.Fatalf("buildSearchQuery() error: %v", err)
	}
	return query, args
}

func TestSearchQueryStatusClauses(t *testing.T) {
	query, _ := buildFor(t, model.PropertyQuery{Table: model.TableColiving})
	if !strings.Contains(query, "listing_status = 'active'") {
		t.Error("every search must filter on active listings")
	}
	if !strings.Contains(query, "current_listing = 'Available to rent'") {
		t.Error("room tables must also filter on the room being on the market")
	}

	query, _ = buildFor(t, model.PropertyQuery{Table: model.TableResidentialRent})
	if !strings.Contains(query, "listing_status = 'active'") {
		t.Error("whole-unit searches must filter on active listings")
	}
	if strings.Contains(query, "current_listing") {
		t.Error("whole-unit tables have no per-room listing column")
	}
}

func TestSearchQueryGenderCompatibility(t *testing.T) {
	male, _ := buildFor(t, model.PropertyQuery{
		Table:   model.TableRoomsForRent,
		Filters: &model.PropertyFilters{GenderPreference: model.StrPtr("male")},
	})
	if !strings.Contains(male, "environment NOT ILIKE 'female'") ||
		!strings.Contains(male, "environment NOT ILIKE 'ladies'") {
		t.Errorf("male searchers must be kept out of female environments:\n%s", male)
	}

	female, args := buildFor(t, model.PropertyQuery{
		Table:   model.TableRoomsForRent,
		Filters: &model.PropertyFilters{GenderPreference: model.StrPtr("female")},
	})
	if !strings.Contains(female, "environment NOT ILIKE 'male'") {
		t.Errorf("female searchers must be kept out of male environments:\n%s", female)
	}
	// Exact label match: a '%male%' pattern would also match "female".
	if strings.Contains(female, "NOT ILIKE '%male%'") {
		t.Errorf("environment exclusions must match the label exactly:\n%s", female)
	}
	if args[0] != "female" {
		t.Errorf("gender compatibility should bind the bare value, got %v", args[0])
	}
}

func TestSearchQueryRoomTypeMapping(t *testing.T) {
	tests := []struct {
		name    string
		filters *model.PropertyFilters
		want    string
	}{
		{"Ensuite wanted", &model.PropertyFilters{EnsuiteRequired: model.BoolPtr(true)}, "room_type ILIKE '%with attached%'"},
		{"Ensuite declined", &model.PropertyFilters{EnsuiteRequired: model.BoolPtr(false)}, "room_type ILIKE '%without attached%'"},
		{"Master room", &model.PropertyFilters{RoomType: model.StrPtr("Master")}, "room_type ILIKE '%with attached%'"},
		{"Common room", &model.PropertyFilters{RoomType: model.StrPtr("common")}, "room_type ILIKE '%without attached%'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, _ := buildFor(t, model.PropertyQuery{Table: model.TableColiving, Filters: tt.filters})
			if !strings.Contains(query, tt.want) {
				t.Errorf("missing %q in:\n%s", tt.want, query)
			}
		})
	}

	// The bathroom answer wins over a contradicting room type.
	query, _ := buildFor(t, model.PropertyQuery{
		Table: model.TableColiving,
		Filters: &model.PropertyFilters{
			RoomType:        model.StrPtr("common"),
			EnsuiteRequired: model.BoolPtr(true),
		},
	})
	if !strings.Contains(query, "'%with attached%'") {
		t.Errorf("ensuite answer should decide the mapping:\n%s", query)
	}
}

func TestSearchQueryRoomAmenities(t *testing.T) {
	query, _ := buildFor(t, model.PropertyQuery{
		Table: model.TableColiving,
		Filters: &model.PropertyFilters{
			CookingRequired:  model.BoolPtr(true),
			WifiRequired:     model.BoolPtr(true),
			VisitorsRequired: model.BoolPtr(true),
			GymRequired:      model.BoolPtr(true),
			PoolRequired:     model.BoolPtr(true),
		},
	})
	for _, want := range []string{
		"(cooking_allowed = true OR gas_stove = true)",
		"(wifi ILIKE 'true' OR wifi ILIKE 'available' OR wifi ILIKE 'free')",
		"visitor_policy NOT ILIKE '%not allowed%'",
		"gym = true",
		"swimming_pool = true",
	} {
		if !strings.Contains(query, want) {
			t.Errorf("missing %q in:\n%s", want, query)
		}
	}
}

func TestSearchQueryResidentialClauses(t *testing.T) {
	query, args := buildFor(t, model.PropertyQuery{
		Table: model.TableResidentialRent,
		Filters: &model.PropertyFilters{
			Bedrooms:            model.IntPtr(3),
			Bathrooms:           model.IntPtr(2),
			Nationality:         model.StrPtr("Malaysian"),
			WasherDryerRequired: model.BoolPtr(true),
		},
	})
	// A family asking for 3 bedrooms does not want a 5 bedroom house.
	if !strings.Contains(query, "num_bedrooms = $") {
		t.Errorf("bedrooms must match exactly:\n%s", query)
	}
	if !strings.Contains(query, "bathrooms >= $") {
		t.Errorf("bathrooms are a minimum:\n%s", query)
	}
	if !strings.Contains(query, "nationality_preference IS NULL OR nationality_preference ILIKE '%no preference%'") {
		t.Errorf("nationality must tolerate unrestricted landlords:\n%s", query)
	}
	if !strings.Contains(query, `"washer/dryer" = true`) {
		t.Errorf("the washer/dryer column needs quoting:\n%s", query)
	}
	found := false
	for _, a := range args {
		if a == "%Malaysian%" {
			found = true
		}
	}
	if !found {
		t.Errorf("nationality pattern not bound: %v", args)
	}
}

func TestSearchQueryRadius(t *testing.T) {
	lat, lng := 1.35, 103.94
	query, args := buildFor(t, model.PropertyQuery{
		Table:        model.TableColiving,
		Filters:      &model.PropertyFilters{BudgetMax: model.FloatPtr(1500)},
		Lat:          &lat,
		Lng:          &lng,
		RadiusMeters: 3000,
		Limit:        10,
	})
	if !strings.Contains(query, "6371000") || !strings.Contains(query, "dist_meters") {
		t.Errorf("radius query should compute haversine distance:\n%s", query)
	}
	if !strings.Contains(query, "listing_status = 'active'") {
		t.Error("the status filter must survive into the radius query")
	}
	// budget, lat, lng, lat, radius, limit
	if len(args) != 6 {
		t.Errorf("args = %v, want 6 bound values", args)
	}
}

func TestSearchQueryUnknownTable(t *testing.T) {
	if _, _, err := buildSearchQuery(model.PropertyQuery{Table: "users"}); err == nil {
		t.Error("an unknown table must refuse to build")
	}
}
