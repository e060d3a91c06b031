package model

import (
	"encoding/json"
	"time"
)

// Message roles in the conversation transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of the transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NextStep names the node a turn should execute next. Routing writes it,
// the engine dispatches on it, and it persists across turns so multi-turn
// flows resume where they stopped.
type NextStep string

const (
	StepPropertySearch   NextStep = "PROPERTY_SEARCH"
	StepAppointment      NextStep = "APPOINTMENT"
	StepResetMemory      NextStep = "RESET_MEMORY"
	StepCheckCapability  NextStep = "CHECK_CAPABILITY"
	StepAskClarification NextStep = "ASK_CLARIFICATION"
	StepIntelligentChat  NextStep = "INTELLIGENT_CHAT"

	StepAskLocation    NextStep = "ASK_LOCATION"
	StepAskBudget      NextStep = "ASK_BUDGET"
	StepAskGender      NextStep = "ASK_GENDER"
	StepExecuteSearch  NextStep = "EXECUTE_SEARCH"
	StepDisplayResults NextStep = "DISPLAY_RESULTS"
	StepCheckInventory NextStep = "CHECK_INVENTORY"
	StepEnd            NextStep = "END"
)

// ActiveFlow marks a sticky multi-turn flow that captures every message
// until it completes or the user exits.
type ActiveFlow string

const (
	FlowNone        ActiveFlow = ""
	FlowAppointment ActiveFlow = "APPOINTMENT"
	FlowLead        ActiveFlow = "LEAD_COLLECTION"
)

// Inventory check lifecycle for the "is unit X still available" question.
const (
	InventoryPending   = "PENDING"
	InventoryConfirmed = "CONFIRMED"
)

// AppointmentStage tracks how far the booking sub-flow has progressed.
type AppointmentStage string

const (
	StageProperty    AppointmentStage = "PROPERTY"
	StageEmail       AppointmentStage = "EMAIL"
	StagePassType    AppointmentStage = "PASS_TYPE"
	StageLease       AppointmentStage = "LEASE"
	StageViewingType AppointmentStage = "VIEWING_TYPE"
	StageTimePref    AppointmentStage = "TIME_PREF"
	StageSlot        AppointmentStage = "SLOT"
	StageDone        AppointmentStage = "DONE"
)

// AppointmentState accumulates booking details across turns. Zero values
// mean "not collected yet".
type AppointmentState struct {
	Stage          AppointmentStage `json:"stage"`
	Email          string           `json:"email,omitempty"`
	PassType       string           `json:"pass_type,omitempty"`
	LeaseMonths    int              `json:"lease_months,omitempty"`
	ViewingType    string           `json:"viewing_type,omitempty"`
	TimePreference string           `json:"time_preference,omitempty"`
	SelectedDate   string           `json:"selected_date,omitempty"`
	SelectedTime   string           `json:"selected_time,omitempty"`
}

// DaySlots is one day of agent availability from the scheduling service.
type DaySlots struct {
	Date  string   `json:"date"`
	Day   string   `json:"day"`
	Slots []string `json:"slots"`
}

// SessionState is everything the engine remembers about one conversation.
// It round-trips through the checkpoint store as JSON between turns.
type SessionState struct {
	ThreadID string    `json:"thread_id"`
	Messages []Message `json:"messages"`

	// Agent and user context, re-stamped from the request every turn.
	AgentID     string `json:"agent_id"`
	AgentName   string `json:"agent_name,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	AgentBio    string `json:"agent_bio,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	UserName    string `json:"user_name,omitempty"`

	// Control flow.
	NextStep      NextStep   `json:"next_step,omitempty"`
	ActiveFlow    ActiveFlow `json:"active_flow,omitempty"`
	TargetTable   string     `json:"target_table,omitempty"`
	Clarification string     `json:"clarification,omitempty"`

	// Search state.
	Filters         *PropertyFilters `json:"filters,omitempty"`
	FoundProperties []Property       `json:"found_properties,omitempty"`
	ShownCount      int              `json:"shown_count"`
	ValidationError string           `json:"validation_error,omitempty"`
	InventoryStatus string           `json:"inventory_status,omitempty"`

	// Booking state.
	Appointment      *AppointmentState `json:"appointment,omitempty"`
	SelectedProperty *Property         `json:"selected_property,omitempty"`
	AvailableSlots   []DaySlots        `json:"available_slots,omitempty"`

	// Lead state.
	UserEmail       string `json:"user_email,omitempty"`
	Lead            *Lead  `json:"lead,omitempty"`
	PendingFollowUp string `json:"pending_follow_up,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewSessionState returns a fresh session for a thread.
func NewSessionState(threadID string) *SessionState {
	return &SessionState{ThreadID: threadID}
}

// Clone deep-copies the session through the same JSON round-trip the
// checkpoint store uses, so a failed turn can be rolled back to it.
func (s *SessionState) Clone() *SessionState {
	data, err := json.Marshal(s)
	if err != nil {
		copied := *s
		return &copied
	}
	var out SessionState
	if err := json.Unmarshal(data, &out); err != nil {
		copied := *s
		return &copied
	}
	return &out
}

// AppendUser records an incoming user message.
func (s *SessionState) AppendUser(content string) {
	s.Messages = append(s.Messages, Message{Role: RoleUser, Content: content})
}

// AppendAssistant records an outgoing reply.
func (s *SessionState) AppendAssistant(content string) {
	s.Messages = append(s.Messages, Message{Role: RoleAssistant, Content: content})
}

// LastUserMessage returns the most recent user message, or "".
func (s *SessionState) LastUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// LastAssistantMessage returns the most recent reply, or "".
func (s *SessionState) LastAssistantMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i].Content
		}
	}
	return ""
}

// RecentMessages returns the last n transcript entries.
func (s *SessionState) RecentMessages(n int) []Message {
	if len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// RemainingProperties counts results found but not yet shown.
func (s *SessionState) RemainingProperties() int {
	if r := len(s.FoundProperties) - s.ShownCount; r > 0 {
		return r
	}
	return 0
}
