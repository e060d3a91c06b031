package service

import (
	"context"

	"proppanda/internal/model"
)

// Store interfaces consumed by the services. The Postgres repository
// satisfies all of them; tests substitute fakes.

// PropertyStore runs listing queries.
type PropertyStore interface {
	SearchProperties(ctx context.Context, q model.PropertyQuery) ([]model.Property, error)
	GetByUnitRef(ctx context.Context, table, ref string) (*model.Property, error)
	DistinctEnvironments(ctx context.Context, table string) (map[string]bool, error)
}

// AgentStore loads agent accounts and capability flags.
type AgentStore interface {
	GetAgent(ctx context.Context, agentID string) (*model.Agent, error)
}

// LeadStore persists lead profiles and per-agent interaction records.
type LeadStore interface {
	GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error)
	UpsertLead(ctx context.Context, lead *model.Lead) (int64, error)
	SaveInteraction(ctx context.Context, in *model.LeadInteraction) error
	GetInteraction(ctx context.Context, leadID int64, agentID string) (*model.LeadInteraction, error)
}

// KnowledgeStore retrieves agent knowledge base content.
type KnowledgeStore interface {
	SearchDocuments(ctx context.Context, agentID string, embedding []float32, limit int) ([]model.KnowledgeDoc, error)
	GetFAQs(ctx context.Context, agentID string) ([]model.FAQ, error)
}

// ChatLogStore records transcript lines. Failures are logged, not surfaced.
type ChatLogStore interface {
	LogMessage(ctx context.Context, sessionID, userID, agentID, sender, message string) error
}

// Geocoder resolves a place name to coordinates. found is false when the
// service has no match; err is reserved for transport failures.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (lat, lng float64, found bool, err error)
}

// Scheduler talks to the external booking system.
type Scheduler interface {
	AvailableSlots(ctx context.Context, agentID, timePreference string) ([]model.DaySlots, error)
	ScheduleAppointment(ctx context.Context, booking BookingPayload) error
}

// BookingPayload is the appointment body sent to the scheduling webhook.
type BookingPayload struct {
	AgentID        string `json:"agent_id"`
	UserEmail      string `json:"user_email"`
	UserName       string `json:"user_name,omitempty"`
	PropertyID     string `json:"property_id,omitempty"`
	PropertyName   string `json:"property_name"`
	RoomNumber     string `json:"room_number,omitempty"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	ViewingType    string `json:"viewing_type"`
	PassType       string `json:"pass_type,omitempty"`
	LeaseMonths    int    `json:"lease_months,omitempty"`
	TimePreference string `json:"prefered_time,omitempty"`
}
