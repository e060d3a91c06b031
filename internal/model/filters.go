package model

import (
	"fmt"
	"reflect"
	"time"
)

// PropertyFilters holds the accumulated search criteria for a session.
// All fields are pointers so "not provided" is distinguishable from a
// zero value; extraction only ever returns the fields it saw in the
// latest message.
type PropertyFilters struct {
	LocationPreference  *string  `json:"location_preference,omitempty"`
	BudgetMin           *float64 `json:"budget_min,omitempty"`
	BudgetMax           *float64 `json:"budget_max,omitempty"`
	MoveInDate          *string  `json:"move_in_date,omitempty"`
	LeaseDurationMonths *int     `json:"lease_duration_months,omitempty"`

	// Tenant demographics. These describe the person, not the search, and
	// follow the user across every table family.
	GenderPreference *string `json:"gender_preference,omitempty"`
	Nationality      *string `json:"nationality,omitempty"`

	// Amenity asks every family filters on.
	PetFriendly    *bool `json:"pet_friendly,omitempty"`
	AirconRequired *bool `json:"aircon_required,omitempty"`
	GymRequired    *bool `json:"gym_required,omitempty"`
	PoolRequired   *bool `json:"pool_required,omitempty"`

	// Room-based rentals only (coliving, rooms for rent)
	Environment      *string `json:"environment,omitempty"`
	RoomType         *string `json:"room_type,omitempty"`
	EnsuiteRequired  *bool   `json:"ensuite_required,omitempty"`
	CookingRequired  *bool   `json:"cooking_required,omitempty"`
	WifiRequired     *bool   `json:"wifi_required,omitempty"`
	VisitorsRequired *bool   `json:"visitors_required,omitempty"`

	// Whole residential units only
	Bedrooms            *int    `json:"bedrooms,omitempty"`
	Bathrooms           *int    `json:"bathrooms,omitempty"`
	PropertyType        *string `json:"property_type,omitempty"`
	FurnishingStatus    *string `json:"furnishing_status,omitempty"`
	WasherDryerRequired *bool   `json:"washer_dryer_required,omitempty"`
}

// Field scoping per table family. Fields listed here are cleared when the
// active table falls outside their family, so a criterion can never leak
// into a query that has no matching column. Demographics and the shared
// amenity asks are never scoped.
var (
	roomOnlyFields        = []string{"Environment", "RoomType", "EnsuiteRequired", "CookingRequired", "WifiRequired", "VisitorsRequired"}
	residentialOnlyFields = []string{"Bedrooms", "Bathrooms", "PropertyType", "FurnishingStatus", "WasherDryerRequired"}

	// demographicFields survive a domain switch; they describe the tenant,
	// not the search.
	demographicFields = []string{"GenderPreference", "Nationality"}
)

// Merge overlays update onto f and enforces the cross-field rules, returning
// the new filter set and a validation message ("" when everything applied).
// Overlay is last-write-wins per field: any non-nil field in update replaces
// the stored value. The receiver is not modified.
func (f *PropertyFilters) Merge(update *PropertyFilters, table string, now time.Time) (*PropertyFilters, string) {
	merged := &PropertyFilters{}
	if f != nil {
		*merged = *f
	}
	if update == nil {
		merged.scopeToTable(table)
		return merged, ""
	}

	overlay(merged, update)

	// A new single bound only invalidates the opposite bound when the two
	// contradict each other. "under 2000" after "above 1500" is still a
	// band; "under 1200" after "above 1500" is a new budget.
	if update.BudgetMax != nil && update.BudgetMin == nil &&
		merged.BudgetMin != nil && *update.BudgetMax < *merged.BudgetMin {
		merged.BudgetMin = nil
	}
	if update.BudgetMin != nil && update.BudgetMax == nil &&
		merged.BudgetMax != nil && *update.BudgetMin > *merged.BudgetMax {
		merged.BudgetMax = nil
	}

	validation := ""
	if update.MoveInDate != nil {
		if msg := validateMoveInDate(*update.MoveInDate, now); msg != "" {
			validation = msg
			if f != nil {
				merged.MoveInDate = f.MoveInDate
			} else {
				merged.MoveInDate = nil
			}
		}
	}

	merged.scopeToTable(table)
	return merged, validation
}

// ResetForDomainSwitch returns the filters to carry into a new domain:
// everything cleared except tenant demographics.
func (f *PropertyFilters) ResetForDomainSwitch() *PropertyFilters {
	fresh := &PropertyFilters{}
	if f == nil {
		return fresh
	}
	src := reflect.ValueOf(f).Elem()
	dst := reflect.ValueOf(fresh).Elem()
	for _, name := range demographicFields {
		dst.FieldByName(name).Set(src.FieldByName(name))
	}
	return fresh
}

// HasLocation reports whether a location preference has been captured,
// including the flexible sentinel.
func (f *PropertyFilters) HasLocation() bool {
	return f != nil && f.LocationPreference != nil && *f.LocationPreference != ""
}

// IsFlexibleLocation reports whether the user declined to name an area.
func (f *PropertyFilters) IsFlexibleLocation() bool {
	return f.HasLocation() && *f.LocationPreference == FlexibleLocation
}

// HasBudgetCap reports whether an upper budget bound is set.
func (f *PropertyFilters) HasBudgetCap() bool {
	return f != nil && f.BudgetMax != nil
}

// HasGender reports whether a tenant gender has been captured.
func (f *PropertyFilters) HasGender() bool {
	return f != nil && f.GenderPreference != nil && *f.GenderPreference != ""
}

func (f *PropertyFilters) scopeToTable(table string) {
	if IsRoomBased(table) {
		f.clearFields(residentialOnlyFields)
	} else {
		f.clearFields(roomOnlyFields)
	}
}

func (f *PropertyFilters) clearFields(names []string) {
	v := reflect.ValueOf(f).Elem()
	for _, name := range names {
		field := v.FieldByName(name)
		field.Set(reflect.Zero(field.Type()))
	}
}

// overlay copies every non-nil pointer field from src onto dst. Both
// structs must be the same type; all PropertyFilters fields are pointers
// so the loop covers the full set without per-field code.
func overlay(dst, src *PropertyFilters) {
	d := reflect.ValueOf(dst).Elem()
	s := reflect.ValueOf(src).Elem()
	for i := 0; i < s.NumField(); i++ {
		if !s.Field(i).IsNil() {
			d.Field(i).Set(s.Field(i))
		}
	}
}

func validateMoveInDate(raw string, now time.Time) string {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return "I couldn't read that move-in date. Could you give it as a date like 2026-10-01?"
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if t.Before(today) {
		return fmt.Sprintf("The move-in date %s is in the past. When would you actually like to move in?", raw)
	}
	return ""
}
