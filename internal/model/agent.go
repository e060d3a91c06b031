package model

// Agent is an agent account row. The boolean flags gate which property
// tables the agent serves; a missing row means the account runs in common
// mode and serves everything.
type Agent struct {
	AgentID     string  `json:"agent_id" db:"agent_id"`
	AgentName   *string `json:"agent_name,omitempty" db:"agent_name"`
	CompanyName *string `json:"company_name,omitempty" db:"company_name"`
	Bio         *string `json:"bio,omitempty" db:"bio"`

	Coliving        bool `json:"coliving" db:"coliving"`
	RoomsForRent    bool `json:"rooms_for_rent" db:"rooms_for_rent"`
	ResidentialRent bool `json:"residential_rent" db:"residential_rent"`
	ResidentialSale bool `json:"residential_sale" db:"residential_sale"`
	CommercialRent  bool `json:"commercial_rent" db:"commercial_rent"`
	CommercialSale  bool `json:"commercial_sale" db:"commercial_sale"`
	IndustrialRent  bool `json:"industrial_rent" db:"industrial_rent"`
	IndustrialSale  bool `json:"industrial_sale" db:"industrial_sale"`
}

// Serves reports whether the agent handles the given property table.
func (a *Agent) Serves(table string) bool {
	switch table {
	case TableColiving:
		return a.Coliving
	case TableRoomsForRent:
		return a.RoomsForRent
	case TableResidentialRent:
		return a.ResidentialRent
	case TableResidentialSale:
		return a.ResidentialSale
	case TableCommercialRent:
		return a.CommercialRent
	case TableCommercialSale:
		return a.CommercialSale
	case TableIndustrialRent:
		return a.IndustrialRent
	case TableIndustrialSale:
		return a.IndustrialSale
	}
	return false
}

// ServiceLabel is the human name for a property table, used in capability
// rejection messages.
func ServiceLabel(table string) string {
	switch table {
	case TableColiving:
		return "co-living rooms"
	case TableRoomsForRent:
		return "rooms for rent"
	case TableResidentialRent:
		return "residential rentals"
	case TableResidentialSale:
		return "residential sales"
	case TableCommercialRent:
		return "commercial rentals"
	case TableCommercialSale:
		return "commercial sales"
	case TableIndustrialRent:
		return "industrial rentals"
	case TableIndustrialSale:
		return "industrial sales"
	}
	return "property services"
}
