package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"proppanda/internal/model"
)

// Column sets per table family. Each property table evolved under a
// different crawler, so the shared Property struct is filled from
// whichever columns the family actually has. Sale tables alias their
// asking price onto rental_price so scanning stays uniform.
const roomColumns = `
	id, property_id, agent_id, property_name, property_address, nearest_mrt,
	district, room_number, room_type, monthly_rent, environment,
	gender_preference, nationality_preference, cooking_allowed, aircon,
	pet_friendly, wifi, available_from, current_listing, media,
	latitude, longitude`

const residentialColumns = `
	id, property_id, agent_id, condo_name, property_address, nearest_mrt,
	district, unit_number, property_type, rental_price, num_bedrooms,
	bathrooms, furnishing_status, available_from, media, latitude, longitude`

const commercialRentColumns = `
	id, property_id, agent_id, property_name, property_address, nearest_mrt,
	district, property_type, rental_price, media, latitude, longitude`

const saleColumns = `
	id, property_id, agent_id, property_name, property_address, nearest_mrt,
	district, property_type, asking_price AS rental_price, media,
	latitude, longitude`

var tableColumns = map[string]string{
	model.TableColiving:        roomColumns,
	model.TableRoomsForRent:    roomColumns,
	model.TableResidentialRent: residentialColumns,
	model.TableResidentialSale: strings.Replace(residentialColumns, "rental_price", "asking_price AS rental_price", 1),
	model.TableCommercialRent:  commercialRentColumns,
	model.TableCommercialSale:  saleColumns,
	model.TableIndustrialRent:  commercialRentColumns,
	model.TableIndustrialSale:  saleColumns,
}

func rentColumn(table string) string {
	if model.IsRoomBased(table) {
		return "monthly_rent"
	}
	if table == model.TableResidentialSale || table == model.TableCommercialSale || table == model.TableIndustrialSale {
		return "asking_price"
	}
	return "rental_price"
}

// SearchProperties runs one filtered query against a property table.
// Results come back cheapest first, or nearest first for radius queries.
func (r *PostgresRepository) SearchProperties(ctx context.Context, q model.PropertyQuery) ([]model.Property, error) {
	query, args, err := buildSearchQuery(q)
	if err != nil {
		return nil, err
	}

	var properties []model.Property
	if err := r.db.SelectContext(ctx, &properties, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", q.Table, err)
	}
	return properties, nil
}

// buildSearchQuery assembles the SQL for one property search.
func buildSearchQuery(q model.PropertyQuery) (string, []interface{}, error) {
	columns, ok := tableColumns[q.Table]
	if !ok {
		return "", nil, fmt.Errorf("unknown property table: %s", q.Table)
	}

	// Every table carries listing_status; room tables additionally track
	// whether the individual room is still on the market.
	whereClauses := []string{"listing_status = 'active'"}
	if model.IsRoomBased(q.Table) {
		whereClauses = append(whereClauses, "current_listing = 'Available to rent'")
	}
	args := []interface{}{}
	argIndex := 1

	add := func(clause string, vals ...interface{}) {
		placeholders := make([]interface{}, len(vals))
		for i := range vals {
			placeholders[i] = argIndex
			argIndex++
		}
		whereClauses = append(whereClauses, fmt.Sprintf(clause, placeholders...))
		args = append(args, vals...)
	}

	rent := rentColumn(q.Table)
	f := q.Filters
	if f != nil {
		if f.BudgetMin != nil {
			add(rent+" >= $%d", *f.BudgetMin)
		}
		if f.BudgetMax != nil {
			add(rent+" <= $%d", *f.BudgetMax)
		}
		if f.MoveInDate != nil {
			add("(available_from IS NULL OR available_from <= $%d)", *f.MoveInDate)
		}
		if model.IsRoomBased(q.Table) {
			addRoomClauses(f, add)
		} else {
			addUnitClauses(q.Table, f, add)
		}
	}

	if q.TextSearch != "" {
		pattern := "%" + q.TextSearch + "%"
		nameCol := "property_name"
		if q.Table == model.TableResidentialRent || q.Table == model.TableResidentialSale {
			nameCol = "condo_name"
		}
		add("(property_address ILIKE $%d OR nearest_mrt ILIKE $%d OR district ILIKE $%d OR "+nameCol+" ILIKE $%d)",
			pattern, pattern, pattern, pattern)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	whereClause := strings.Join(whereClauses, " AND ")

	if q.Lat != nil && q.Lng != nil {
		return buildRadiusQuery(q.Table, columns, whereClause, args, argIndex, *q.Lat, *q.Lng, q.RadiusMeters, limit)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s ASC NULLS LAST LIMIT $%d`,
		columns, q.Table, whereClause, rent, argIndex)
	args = append(args, limit)
	return query, args, nil
}

// addRoomClauses applies the tenant compatibility rules for room-based
// tables. A room with no stated restriction accepts everyone.
//
// Environment labels are matched exactly: "female" contains "male" as a
// substring, so a wildcard exclusion would knock out the wrong rows.
func addRoomClauses(f *model.PropertyFilters, add func(string, ...interface{})) {
	if f.GenderPreference != nil {
		add("(gender_preference IS NULL OR gender_preference ILIKE 'any' OR gender_preference ILIKE 'mixed' OR gender_preference ILIKE '%%no preference%%' OR gender_preference ILIKE $%d)",
			*f.GenderPreference)
		switch *f.GenderPreference {
		case "male":
			add("(environment IS NULL OR (environment NOT ILIKE 'female' AND environment NOT ILIKE 'ladies'))")
		case "female":
			add("(environment IS NULL OR environment NOT ILIKE 'male')")
		}
	}
	if f.Nationality != nil {
		pattern := "%" + *f.Nationality + "%"
		add("(nationality_preference IS NULL OR nationality_preference ILIKE '%%any%%' OR nationality_preference ILIKE '%%no preference%%' OR nationality_preference ILIKE $%d)", pattern)
	}
	if f.Environment != nil {
		add("environment ILIKE $%d", "%"+*f.Environment+"%")
	}

	// An ensuite answer wins over a named room type; "a common room with
	// attached bathroom" is a contradiction we resolve toward the bathroom.
	roomType := ""
	if f.RoomType != nil {
		roomType = strings.ToLower(*f.RoomType)
	}
	switch {
	case f.EnsuiteRequired != nil && *f.EnsuiteRequired:
		add("room_type ILIKE '%%with attached%%'")
	case f.EnsuiteRequired != nil && !*f.EnsuiteRequired:
		add("room_type ILIKE '%%without attached%%'")
	case roomType == "master":
		add("room_type ILIKE '%%with attached%%'")
	case roomType == "common":
		add("room_type ILIKE '%%without attached%%'")
	}

	if f.CookingRequired != nil && *f.CookingRequired {
		add("(cooking_allowed = true OR gas_stove = true)")
	}
	if f.WifiRequired != nil && *f.WifiRequired {
		add("(wifi ILIKE 'true' OR wifi ILIKE 'available' OR wifi ILIKE 'free')")
	}
	if f.VisitorsRequired != nil && *f.VisitorsRequired {
		add("(visitor_policy IS NULL OR visitor_policy NOT ILIKE '%%not allowed%%')")
	}
	addAmenityClauses(f, add)
}

// addUnitClauses applies whole-unit filters for residential tables.
func addUnitClauses(table string, f *model.PropertyFilters, add func(string, ...interface{})) {
	if !model.IsResidentialUnit(table) {
		if f.PropertyType != nil {
			add("property_type ILIKE $%d", "%"+*f.PropertyType+"%")
		}
		return
	}
	if f.Bedrooms != nil {
		add("num_bedrooms = $%d", *f.Bedrooms)
	}
	if f.Bathrooms != nil {
		add("bathrooms >= $%d", *f.Bathrooms)
	}
	if f.PropertyType != nil {
		add("property_type ILIKE $%d", "%"+*f.PropertyType+"%")
	}
	if f.FurnishingStatus != nil {
		add("furnishing_status ILIKE $%d", "%"+*f.FurnishingStatus+"%")
	}
	if f.Nationality != nil {
		pattern := "%" + *f.Nationality + "%"
		add("(nationality_preference IS NULL OR nationality_preference ILIKE '%%no preference%%' OR nationality_preference ILIKE $%d)", pattern)
	}
	if f.WasherDryerRequired != nil && *f.WasherDryerRequired {
		add(`"washer/dryer" = true`)
	}
	addAmenityClauses(f, add)
}

// addAmenityClauses covers the building amenities both table families share.
func addAmenityClauses(f *model.PropertyFilters, add func(string, ...interface{})) {
	if f.AirconRequired != nil && *f.AirconRequired {
		add("aircon = true")
	}
	if f.PetFriendly != nil && *f.PetFriendly {
		add("pet_friendly = true")
	}
	if f.GymRequired != nil && *f.GymRequired {
		add("gym = true")
	}
	if f.PoolRequired != nil && *f.PoolRequired {
		add("swimming_pool = true")
	}
}

// buildRadiusQuery wraps the filtered query in a haversine distance
// computation and orders nearest first. 6371000 is the earth radius in
// meters.
func buildRadiusQuery(
	table, columns, whereClause string,
	args []interface{},
	argIndex int,
	lat, lng, radiusMeters float64,
	limit int,
) (string, []interface{}, error) {
	if radiusMeters <= 0 {
		radiusMeters = 3000
	}

	haversine := fmt.Sprintf(
		`(6371000 * acos(least(1.0,
			cos(radians($%d)) * cos(radians(latitude)) * cos(radians(longitude) - radians($%d)) +
			sin(radians($%d)) * sin(radians(latitude)))))`,
		argIndex, argIndex+1, argIndex+2)
	args = append(args, lat, lng, lat)
	argIndex += 3

	query := fmt.Sprintf(`
		SELECT * FROM (
			SELECT %s, %s AS dist_meters
			FROM %s
			WHERE %s AND latitude IS NOT NULL AND longitude IS NOT NULL
		) nearby
		WHERE dist_meters <= $%d
		ORDER BY dist_meters ASC
		LIMIT $%d`,
		columns, haversine, table, whereClause, argIndex, argIndex+1)
	args = append(args, radiusMeters, limit)
	return query, args, nil
}

// GetByUnitRef finds a room or unit by the number a user referred to.
// Returns nil when nothing matches.
func (r *PostgresRepository) GetByUnitRef(ctx context.Context, table, ref string) (*model.Property, error) {
	columns, ok := tableColumns[table]
	if !ok {
		return nil, fmt.Errorf("unknown property table: %s", table)
	}

	refCol := "unit_number"
	if model.IsRoomBased(table) {
		refCol = "room_number"
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ILIKE $1 LIMIT 1`, columns, table, refCol)

	var property model.Property
	err := r.db.GetContext(ctx, &property, query, "%"+ref+"%")
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up unit %s in %s: %w", ref, table, err)
	}
	return &property, nil
}

// DistinctEnvironments returns the environment labels present in a room
// table, lowercased, so extraction can match user phrasing against real
// values instead of guessing.
func (r *PostgresRepository) DistinctEnvironments(ctx context.Context, table string) (map[string]bool, error) {
	if !model.IsRoomBased(table) {
		return map[string]bool{}, nil
	}

	query := fmt.Sprintf(`SELECT DISTINCT LOWER(environment) FROM %s WHERE environment IS NOT NULL`, table)
	var labels []string
	if err := r.db.SelectContext(ctx, &labels, query); err != nil {
		return nil, fmt.Errorf("failed to list environments for %s: %w", table, err)
	}

	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[l] = true
	}
	return set, nil
}
