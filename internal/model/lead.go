package model

import "time"

// Lead is a row in the leads table, keyed by email. Fields are pointers
// because the record accretes over many conversations and most columns
// start out empty.
type Lead struct {
	ID          int64      `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	Name        *string    `json:"name,omitempty" db:"name"`
	Phone       *string    `json:"phone,omitempty" db:"phone"`
	Gender      *string    `json:"gender,omitempty" db:"gender"`
	Nationality *string    `json:"nationality,omitempty" db:"nationality"`
	Profession  *string    `json:"profession,omitempty" db:"profession"`
	AgeGroup    *string    `json:"age_group,omitempty" db:"age_group"`
	PassType    *string    `json:"pass_type,omitempty" db:"pass_type"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// LeadInteraction records what one agent learned about a lead: the last
// table they searched and a rolling conversation summary.
type LeadInteraction struct {
	LeadID              int64    `json:"lead_id" db:"lead_id"`
	AgentID             string   `json:"agent_id" db:"agent_id"`
	SessionID           *string  `json:"session_id,omitempty" db:"session_id"`
	LastTargetTable     *string  `json:"last_target_table,omitempty" db:"last_target_table"`
	ConversationSummary *string  `json:"conversation_summary,omitempty" db:"conversation_summary"`
	BudgetMin           *float64 `json:"budget_min,omitempty" db:"budget_min"`
	BudgetMax           *float64 `json:"budget_max,omitempty" db:"budget_max"`
	LocationPreference  *string  `json:"location_preference,omitempty" db:"location_preference"`
}

// MissingDemographics lists the profile fields still unknown for this lead,
// in the order they should be asked. Room-based rentals need the fuller
// profile; whole units only need contact basics.
func (l *Lead) MissingDemographics(table string) []string {
	var missing []string
	check := func(field string, v *string) {
		if v == nil || *v == "" {
			missing = append(missing, field)
		}
	}
	check("name", l.Name)
	check("phone", l.Phone)
	if IsRoomBased(table) {
		check("gender", l.Gender)
		check("nationality", l.Nationality)
		check("profession", l.Profession)
		check("age_group", l.AgeGroup)
	}
	return missing
}
