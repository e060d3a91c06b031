package model

// Property tables served by the engine. Each agent account is scoped to a
// subset of these via its capability flags.
const (
	TableColiving            = "coliving_property"
	TableRoomsForRent        = "rooms_for_rent"
	TableResidentialRent     = "residential_properties_for_rent"
	TableResidentialSale     = "residential_properties_for_sale"
	TableCommercialRent      = "commercial_properties_for_rent"
	TableCommercialSale      = "commercial_properties_for_sale"
	TableIndustrialRent      = "industrial_properties_for_rent"
	TableIndustrialSale      = "industrial_properties_for_sale"
)

// FlexibleLocation is the sentinel stored when the user has no area
// preference. It keeps the "asked and answered" state distinct from
// "never asked".
const FlexibleLocation = "anywhere"

// IsRoomBased reports whether listings in the table are individual rooms
// with per-tenant rules (gender, nationality, environment) rather than
// whole units.
func IsRoomBased(table string) bool {
	return table == TableColiving || table == TableRoomsForRent
}

// IsResidentialUnit reports whether the table holds whole residential units.
func IsResidentialUnit(table string) bool {
	return table == TableResidentialRent || table == TableResidentialSale
}

// MinLeaseMonths returns the shortest lease the landlord accepts for the
// table. Whole residential units require a year, rooms allow three months.
func MinLeaseMonths(table string) int {
	if IsResidentialUnit(table) {
		return 12
	}
	return 3
}
