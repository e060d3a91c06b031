package model

// StateUpdate is a partial patch produced by one pipeline stage. Stages
// never mutate SessionState directly; they return an update and the engine
// applies it, so every transition is a value that can be logged and
// asserted on in tests.
//
// Pointer fields mean "unchanged when nil". Slices that may legitimately
// become empty carry an explicit Set flag, and clearable pointers carry a
// Clear flag, because nil cannot express both "leave alone" and "remove".
type StateUpdate struct {
	AppendMessages []Message

	Filters     *PropertyFilters
	NextStep    NextStep // "" = unchanged
	ActiveFlow  *ActiveFlow
	TargetTable *string

	Clarification   *string
	ValidationError *string
	InventoryStatus *string

	FoundProperties    []Property
	SetFoundProperties bool
	ShownCount         *int

	Appointment      *AppointmentState
	ClearAppointment bool

	SelectedProperty      *Property
	ClearSelectedProperty bool

	AvailableSlots    []DaySlots
	SetAvailableSlots bool

	UserEmail       *string
	Lead            *Lead
	PendingFollowUp *string
}

// Apply merges the patch into the state.
func (s *SessionState) Apply(u StateUpdate) {
	s.Messages = append(s.Messages, u.AppendMessages...)

	if u.Filters != nil {
		s.Filters = u.Filters
	}
	if u.NextStep != "" {
		s.NextStep = u.NextStep
	}
	if u.ActiveFlow != nil {
		s.ActiveFlow = *u.ActiveFlow
	}
	if u.TargetTable != nil {
		s.TargetTable = *u.TargetTable
	}
	if u.Clarification != nil {
		s.Clarification = *u.Clarification
	}
	if u.ValidationError != nil {
		s.ValidationError = *u.ValidationError
	}
	if u.InventoryStatus != nil {
		s.InventoryStatus = *u.InventoryStatus
	}
	if u.SetFoundProperties {
		s.FoundProperties = u.FoundProperties
	}
	if u.ShownCount != nil {
		s.ShownCount = *u.ShownCount
	}
	if u.ClearAppointment {
		s.Appointment = nil
	} else if u.Appointment != nil {
		s.Appointment = u.Appointment
	}
	if u.ClearSelectedProperty {
		s.SelectedProperty = nil
	} else if u.SelectedProperty != nil {
		s.SelectedProperty = u.SelectedProperty
	}
	if u.SetAvailableSlots {
		s.AvailableSlots = u.AvailableSlots
	}
	if u.UserEmail != nil {
		s.UserEmail = *u.UserEmail
	}
	if u.Lead != nil {
		s.Lead = u.Lead
	}
	if u.PendingFollowUp != nil {
		s.PendingFollowUp = *u.PendingFollowUp
	}
}

// Reply builds an update that only appends an assistant message.
func Reply(content string) StateUpdate {
	return StateUpdate{AppendMessages: []Message{{Role: RoleAssistant, Content: content}}}
}

// StrPtr, FloatPtr, IntPtr and FlowPtr keep update literals readable.
func StrPtr(s string) *string          { return &s }
func FloatPtr(f float64) *float64      { return &f }
func IntPtr(i int) *int                { return &i }
func BoolPtr(b bool) *bool             { return &b }
func FlowPtr(f ActiveFlow) *ActiveFlow { return &f }
