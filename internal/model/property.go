package model

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"
)

// Property is one row from any of the property tables. The tables do not
// share a schema, so every column is optional and the accessors below pick
// whichever variant a row actually carries.
type Property struct {
	ID         int64   `json:"id" db:"id"`
	PropertyID *string `json:"property_id,omitempty" db:"property_id"`
	AgentID    *string `json:"agent_id,omitempty" db:"agent_id"`

	PropertyName    *string `json:"property_name,omitempty" db:"property_name"`
	CondoName       *string `json:"condo_name,omitempty" db:"condo_name"`
	PropertyAddress *string `json:"property_address,omitempty" db:"property_address"`
	NearestMRT      *string `json:"nearest_mrt,omitempty" db:"nearest_mrt"`
	District        *string `json:"district,omitempty" db:"district"`

	RoomNumber   *string `json:"room_number,omitempty" db:"room_number"`
	UnitNumber   *string `json:"unit_number,omitempty" db:"unit_number"`
	RoomType     *string `json:"room_type,omitempty" db:"room_type"`
	PropertyType *string `json:"property_type,omitempty" db:"property_type"`

	MonthlyRent *float64 `json:"monthly_rent,omitempty" db:"monthly_rent"`
	RentalPrice *float64 `json:"rental_price,omitempty" db:"rental_price"`

	NumBedrooms *int `json:"num_bedrooms,omitempty" db:"num_bedrooms"`
	Bedrooms    *int `json:"bedrooms,omitempty" db:"bedrooms"`
	Bathrooms   *int `json:"bathrooms,omitempty" db:"bathrooms"`

	FurnishingStatus *string `json:"furnishing_status,omitempty" db:"furnishing_status"`
	Environment      *string `json:"environment,omitempty" db:"environment"`
	GenderPreference *string `json:"gender_preference,omitempty" db:"gender_preference"`
	NationalityPref  *string `json:"nationality_preference,omitempty" db:"nationality_preference"`

	CookingAllowed *bool   `json:"cooking_allowed,omitempty" db:"cooking_allowed"`
	Aircon         *bool   `json:"aircon,omitempty" db:"aircon"`
	PetFriendly    *bool   `json:"pet_friendly,omitempty" db:"pet_friendly"`
	Wifi           *string `json:"wifi,omitempty" db:"wifi"`

	AvailableFrom  *time.Time `json:"available_from,omitempty" db:"available_from"`
	CurrentListing *string    `json:"current_listing,omitempty" db:"current_listing"`

	Media     *string  `json:"media,omitempty" db:"media"`
	Latitude  *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" db:"longitude"`

	// Populated only by radius searches.
	DistMeters *float64 `json:"dist_meters,omitempty" db:"dist_meters"`
}

// DisplayName returns the best human name for the listing.
func (p *Property) DisplayName() string {
	if p.PropertyName != nil && *p.PropertyName != "" {
		return *p.PropertyName
	}
	if p.CondoName != nil && *p.CondoName != "" {
		return *p.CondoName
	}
	return "Property"
}

// Rent returns the monthly price regardless of which column the table uses.
func (p *Property) Rent() *float64 {
	if p.MonthlyRent != nil {
		return p.MonthlyRent
	}
	return p.RentalPrice
}

// UnitLabel describes what kind of unit this is, e.g. "Master Room" or
// "Condominium".
func (p *Property) UnitLabel() string {
	if p.RoomType != nil && *p.RoomType != "" {
		return *p.RoomType
	}
	if p.PropertyType != nil && *p.PropertyType != "" {
		return *p.PropertyType
	}
	return "Unit"
}

// UnitRef returns the room or unit number a user can refer to when booking.
func (p *Property) UnitRef() string {
	if p.RoomNumber != nil && *p.RoomNumber != "" {
		return *p.RoomNumber
	}
	if p.UnitNumber != nil && *p.UnitNumber != "" {
		return *p.UnitNumber
	}
	return ""
}

// BedroomCount unifies the two bedroom column variants.
func (p *Property) BedroomCount() *int {
	if p.NumBedrooms != nil {
		return p.NumBedrooms
	}
	return p.Bedrooms
}

// DisplayAddress returns the best available location line.
func (p *Property) DisplayAddress() string {
	if p.PropertyAddress != nil && *p.PropertyAddress != "" {
		return *p.PropertyAddress
	}
	if p.NearestMRT != nil && *p.NearestMRT != "" {
		return "Near " + *p.NearestMRT
	}
	return "Singapore"
}

// FirstImage extracts the first media URL. The media column holds either a
// bare URL or a JSON array of URLs depending on which crawler wrote the row.
func (p *Property) FirstImage() string {
	if p.Media == nil {
		return ""
	}
	raw := strings.TrimSpace(*p.Media)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "[") {
		var urls []string
		if err := json.Unmarshal([]byte(raw), &urls); err == nil && len(urls) > 0 {
			return urls[0]
		}
		return ""
	}
	return raw
}

// DedupeKey identifies a building across multiple room rows. Rows without a
// property id never collapse into each other.
func (p *Property) DedupeKey() (string, bool) {
	if p.PropertyID != nil && *p.PropertyID != "" {
		return *p.PropertyID, true
	}
	return "", false
}

// JSONArray represents a JSON array column.
type JSONArray []string

// Value implements driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), j)
	}
	return json.Unmarshal(bytes, j)
}

// JSONMap represents a JSON object column.
type JSONMap map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), j)
	}
	return json.Unmarshal(bytes, j)
}
