package model

// RouteResult is the JSON payload the classifier model returns when the
// keyword checks cannot decide a message.
type RouteResult struct {
	Intent      string  `json:"intent"`
	TargetTable string  `json:"target_table,omitempty"`
	Question    string  `json:"question,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// Intent labels produced by routing.
const (
	IntentPropertySearch  = "PROPERTY_SEARCH"
	IntentAppointment     = "APPOINTMENT"
	IntentSwitchDomain    = "SWITCH_DOMAIN"
	IntentClarification   = "CLARIFICATION"
	IntentIntelligentChat = "INTELLIGENT_CHAT"
)

// ExtractResult is the JSON payload the extraction model returns: only the
// fields present in the latest message, never echoes of stored state.
type ExtractResult struct {
	Filters      *PropertyFilters `json:"filters,omitempty"`
	InventoryAsk *string          `json:"inventory_ask,omitempty"`
	WantsMore    *bool            `json:"wants_more,omitempty"`
}

// AppointmentExtract is the extraction payload for the booking flow.
type AppointmentExtract struct {
	PropertyRef    string `json:"property_ref,omitempty"`
	Email          string `json:"email,omitempty"`
	PassType       string `json:"pass_type,omitempty"`
	LeaseMonths    int    `json:"lease_months,omitempty"`
	ViewingType    string `json:"viewing_type,omitempty"`
	TimePreference string `json:"time_preference,omitempty"`
	WantsExit      bool   `json:"wants_exit,omitempty"`
}

// LeadExtract is the extraction payload for demographic collection.
type LeadExtract struct {
	Email       string `json:"email,omitempty"`
	Name        string `json:"name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	Profession  string `json:"profession,omitempty"`
	AgeGroup    string `json:"age_group,omitempty"`
	PassType    string `json:"pass_type,omitempty"`
}
