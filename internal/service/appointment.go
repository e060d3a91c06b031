package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"proppanda/internal/model"
	"proppanda/internal/utils"
)

// Sentinels used when the user's slot choice cannot be parsed. The booking
// still goes through; a human confirms the exact time afterwards.
const (
	unknownDate = "UNKNOWN-DATE"
	unknownTime = "UNKNOWN-TIME"
)

var (
	datePattern   = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	hourPattern   = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	numberPattern = regexp.MustCompile(`\b([1-9])\b`)

	ordinalWords = map[string]int{
		"first": 0, "1st": 0,
		"second": 1, "2nd": 1,
		"third": 2, "3rd": 2,
	}

	dayNames = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
)

// AppointmentFlow walks the user through booking a viewing: which unit,
// contact and tenancy details, then an available slot. It owns the session
// while active; every message lands here until it finishes or the user
// backs out.
type AppointmentFlow struct {
	llm        LLMClient
	properties PropertyStore
	scheduler  Scheduler
}

// NewAppointmentFlow creates the booking flow
func NewAppointmentFlow(llm LLMClient, properties PropertyStore, scheduler Scheduler) *AppointmentFlow {
	return &AppointmentFlow{llm: llm, properties: properties, scheduler: scheduler}
}

// Handle advances the flow by one turn.
func (f *AppointmentFlow) Handle(ctx context.Context, state *model.SessionState) model.StateUpdate {
	message := state.LastUserMessage()

	if IsExitMessage(message) {
		update := model.StateUpdate{
			ClearAppointment: true,
			ActiveFlow:       model.FlowPtr(model.FlowNone),
			NextStep:         model.StepEnd,
		}
		return withReply(update, "No problem, we can come back to the viewing anytime. Anything else I can help you find?")
	}

	appt := state.Appointment
	if appt == nil {
		appt = &model.AppointmentState{Stage: model.StageProperty}
	} else {
		copied := *appt
		appt = &copied
	}

	update := model.StateUpdate{
		ActiveFlow:  model.FlowPtr(model.FlowAppointment),
		Appointment: appt,
		NextStep:    model.StepEnd,
	}

	// Absorb the user's answer for the stage we are waiting on.
	if reply := f.absorb(ctx, state, appt, message, &update); reply != "" {
		return withReply(update, reply)
	}

	// Skip stages already satisfied by session context.
	f.prefill(state, appt)

	// Ask for the next missing piece, or finish.
	return f.advance(ctx, state, appt, update)
}

// absorb parses the answer to the pending stage. A non-empty return is a
// correction prompt that ends the turn.
func (f *AppointmentFlow) absorb(ctx context.Context, state *model.SessionState, appt *model.AppointmentState, message string, update *model.StateUpdate) string {
	switch appt.Stage {
	case model.StageProperty:
		return f.resolveProperty(ctx, state, appt, message, update)
	case model.StageEmail:
		if email := utils.ExtractEmail(message); email != "" {
			appt.Email = email
			update.UserEmail = model.StrPtr(email)
		} else {
			return "I didn't catch an email address there. Could you type it out for me?"
		}
	case model.StagePassType:
		if pass := parsePassType(message); pass != "" {
			appt.PassType = pass
		} else {
			return "Just so I get it right: are you on an EP, S Pass, Work Permit, Student Pass, DP, or are you a Citizen/PR?"
		}
	case model.StageLease:
		months, ok := parseLeaseMonths(message)
		if !ok {
			return "How many months are you planning to stay?"
		}
		minMonths := model.MinLeaseMonths(state.TargetTable)
		if months < minMonths {
			return fmt.Sprintf("For this type of place the minimum lease is %d months. Would that work for you?", minMonths)
		}
		appt.LeaseMonths = months
	case model.StageViewingType:
		if vt := parseViewingType(message); vt != "" {
			appt.ViewingType = vt
		} else {
			return "Would you prefer a physical viewing or a virtual one over video call?"
		}
	case model.StageTimePref:
		if tp := parseTimePreference(message); tp != "" {
			appt.TimePreference = tp
		} else {
			return "Do mornings, afternoons, or evenings suit you best? Or any time?"
		}
	case model.StageSlot:
		f.pickSlot(state, appt, message)
	}
	return ""
}

// prefill copies details we already know so the flow never re-asks them.
func (f *AppointmentFlow) prefill(state *model.SessionState, appt *model.AppointmentState) {
	if appt.Email == "" && state.UserEmail != "" {
		appt.Email = state.UserEmail
	}
	if appt.PassType == "" && state.Lead != nil && state.Lead.PassType != nil {
		appt.PassType = *state.Lead.PassType
	}
}

// advance asks the question for the next missing detail, fetching slots and
// finalizing when everything is in place.
func (f *AppointmentFlow) advance(ctx context.Context, state *model.SessionState, appt *model.AppointmentState, update model.StateUpdate) model.StateUpdate {
	property := state.SelectedProperty
	if update.SelectedProperty != nil {
		property = update.SelectedProperty
	}

	switch {
	case property == nil:
		appt.Stage = model.StageProperty
		if len(state.FoundProperties) > 0 {
			return withReply(update, "Which of the places I showed you would you like to view? You can say the first, second, or give me the room number.")
		}
		return withReply(update, "Which property would you like to view? If you give me a room or unit number I can look it up.")
	case appt.Email == "":
		appt.Stage = model.StageEmail
		return withReply(update, fmt.Sprintf("Great choice! To set up the viewing for %s, could I get your email?", property.DisplayName()))
	case appt.PassType == "":
		appt.Stage = model.StagePassType
		return withReply(update, "What pass are you holding in Singapore? (EP, S Pass, Work Permit, Student Pass, DP, or Citizen/PR)")
	case appt.LeaseMonths == 0:
		appt.Stage = model.StageLease
		return withReply(update, fmt.Sprintf("How long are you planning to stay? The minimum here is %d months.", model.MinLeaseMonths(state.TargetTable)))
	case appt.ViewingType == "":
		appt.Stage = model.StageViewingType
		return withReply(update, "Would you like a physical viewing, or a virtual one over video call?")
	case appt.TimePreference == "":
		appt.Stage = model.StageTimePref
		return withReply(update, "When works best for you: mornings, afternoons, or evenings?")
	case appt.SelectedDate == "" || appt.SelectedTime == "":
		appt.Stage = model.StageSlot
		return f.offerSlots(ctx, state, appt, update)
	default:
		appt.Stage = model.StageDone
		return f.finalize(ctx, state, appt, property, update)
	}
}

// resolveProperty figures out which listing the user means. Returns a
// question when it cannot.
func (f *AppointmentFlow) resolveProperty(ctx context.Context, state *model.SessionState, appt *model.AppointmentState, message string, update *model.StateUpdate) string {
	if state.SelectedProperty != nil {
		return ""
	}

	if ref := utils.RoomReference(message); ref != "" {
		prop, err := f.properties.GetByUnitRef(ctx, state.TargetTable, ref)
		if err != nil {
			log.Printf("AppointmentFlow: unit lookup %q failed: %v", ref, err)
		}
		if prop != nil {
			update.SelectedProperty = prop
			return ""
		}
		return fmt.Sprintf("I couldn't find a unit matching %q. Could you double-check the number, or pick one of the options I showed you?", ref)
	}

	if idx := resolveOrdinal(message, state.ShownCount); idx >= 0 && idx < len(state.FoundProperties) {
		prop := state.FoundProperties[idx]
		update.SelectedProperty = &prop
		return ""
	}

	// The user may name the place instead of pointing at it.
	lower := strings.ToLower(strings.TrimSpace(message))
	for i := range state.FoundProperties {
		name := strings.ToLower(state.FoundProperties[i].DisplayName())
		if name == "" {
			continue
		}
		if strings.Contains(lower, name) || strings.Contains(name, lower) {
			prop := state.FoundProperties[i]
			update.SelectedProperty = &prop
			return ""
		}
	}

	// Only one thing on the table; "book a viewing" can only mean that one.
	if len(state.FoundProperties) == 1 {
		prop := state.FoundProperties[0]
		update.SelectedProperty = &prop
		return ""
	}

	return ""
}

// offerSlots fetches availability on first entry and matches the user's
// pick on subsequent turns.
func (f *AppointmentFlow) offerSlots(ctx context.Context, state *model.SessionState, appt *model.AppointmentState, update model.StateUpdate) model.StateUpdate {
	if len(state.AvailableSlots) == 0 {
		slots, err := f.scheduler.AvailableSlots(ctx, state.AgentID, appt.TimePreference)
		if err != nil || len(slots) == 0 {
			if err != nil {
				log.Printf("AppointmentFlow: slot fetch failed: %v", err)
			}
			// Nothing open for that preference; drop it and ask again.
			appt.TimePreference = ""
			appt.Stage = model.StageTimePref
			return withReply(update,
				"I couldn't find any open slots for that time. Would mornings, afternoons, or evenings work instead?")
		}

		update.AvailableSlots = slots
		update.SetAvailableSlots = true

		var b strings.Builder
		b.WriteString("Here's when the agent is free:\n\n")
		for _, day := range slots {
			fmt.Fprintf(&b, "%s (%s): %s\n", day.Day, day.Date, strings.Join(day.Slots, ", "))
		}
		b.WriteString("\nWhich day and time suit you?")
		return withReply(update, b.String())
	}

	if appt.SelectedDate == "" || appt.SelectedTime == "" {
		return withReply(update, "Which of those days and times works for you?")
	}
	return f.advance(ctx, state, appt, update)
}

// pickSlot matches the user's answer against the offered slots. Anything
// unmatchable books with sentinel values rather than looping forever.
func (f *AppointmentFlow) pickSlot(state *model.SessionState, appt *model.AppointmentState, message string) {
	lower := strings.ToLower(message)

	if d := datePattern.FindString(message); d != "" {
		appt.SelectedDate = d
	} else {
		for _, day := range state.AvailableSlots {
			if strings.Contains(lower, strings.ToLower(day.Day)) || strings.Contains(lower, day.Date) {
				appt.SelectedDate = day.Date
				break
			}
		}
	}
	if appt.SelectedDate == "" {
		for _, name := range dayNames {
			if strings.Contains(lower, name) {
				appt.SelectedDate = unknownDate
				break
			}
		}
	}
	if appt.SelectedDate == "" && len(state.AvailableSlots) > 0 {
		appt.SelectedDate = unknownDate
	}

	appt.SelectedTime = matchSlotTime(state.AvailableSlots, appt.SelectedDate, message)
}

// finalize sends the booking and confirms it back to the user.
func (f *AppointmentFlow) finalize(ctx context.Context, state *model.SessionState, appt *model.AppointmentState, property *model.Property, update model.StateUpdate) model.StateUpdate {
	booking := BookingPayload{
		AgentID:        state.AgentID,
		UserEmail:      appt.Email,
		UserName:       state.UserName,
		PropertyName:   "the property",
		Date:           appt.SelectedDate,
		Time:           appt.SelectedTime,
		ViewingType:    appt.ViewingType,
		PassType:       appt.PassType,
		LeaseMonths:    appt.LeaseMonths,
		TimePreference: appt.TimePreference,
	}
	if property != nil {
		booking.PropertyName = property.DisplayName()
		booking.RoomNumber = property.UnitRef()
		if property.PropertyID != nil {
			booking.PropertyID = *property.PropertyID
		}
	}

	if err := f.scheduler.ScheduleAppointment(ctx, booking); err != nil {
		log.Printf("AppointmentFlow: booking failed: %v", err)
		update.Appointment = appt
		return withReply(update,
			"I hit a snag sending the booking through. Give me a moment and say \"book\" again, or the agent will reach out to you directly.")
	}

	update.ClearAppointment = true
	update.Appointment = nil
	update.ActiveFlow = model.FlowPtr(model.FlowNone)
	update.AvailableSlots = nil
	update.SetAvailableSlots = true

	return withReply(update, f.confirmation(ctx, state, appt, booking))
}

func (f *AppointmentFlow) confirmation(ctx context.Context, state *model.SessionState, appt *model.AppointmentState, booking BookingPayload) string {
	when := fmt.Sprintf("on %s at %s", booking.Date, booking.Time)
	if booking.Date == unknownDate || booking.Time == unknownTime {
		when = "at a time the agent will confirm with you"
	}
	canned := fmt.Sprintf("You're all set! I've requested a %s viewing of %s %s. %s will confirm the details with you at %s shortly.",
		booking.ViewingType, booking.PropertyName, when, agentOr(state.AgentName), booking.UserEmail)

	system := "You are a friendly Singapore property assistant. Rewrite the confirmation warmly in at most three sentences. Keep every factual detail exactly as given. Respond with plain text only."
	text, err := f.llm.Complete(ctx, system, canned, 0.6)
	if err != nil || strings.TrimSpace(text) == "" {
		return canned
	}
	return strings.TrimSpace(text)
}

func agentOr(name string) string {
	if name == "" {
		return "The agent"
	}
	return name
}

// resolveOrdinal maps "the first one" or a bare small number onto an index
// into the listings already shown. Bare digits only count in short
// messages; "I earn 5000" must not select anything.
func resolveOrdinal(message string, shown int) int {
	lower := strings.ToLower(message)
	for word, idx := range ordinalWords {
		if strings.Contains(lower, word) {
			return idx
		}
	}
	if strings.Contains(lower, "last") && shown > 0 {
		return shown - 1
	}
	if len(strings.TrimSpace(message)) < 10 {
		if m := numberPattern.FindString(message); m != "" {
			n, _ := strconv.Atoi(m)
			return n - 1
		}
	}
	return -1
}

func parsePassType(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "employment") || regexp.MustCompile(`\bep\b`).MatchString(lower):
		return "EP"
	case strings.Contains(lower, "s pass") || strings.Contains(lower, "s-pass") || regexp.MustCompile(`\bsp\b`).MatchString(lower):
		return "SP"
	case strings.Contains(lower, "work permit"):
		return "Work Permit"
	case strings.Contains(lower, "student"):
		return "Student Pass"
	case strings.Contains(lower, "dependent") || regexp.MustCompile(`\bdp\b`).MatchString(lower):
		return "DP"
	case strings.Contains(lower, "citizen"):
		return "Citizen"
	case strings.Contains(lower, "permanent") || regexp.MustCompile(`\bpr\b`).MatchString(lower):
		return "PR"
	}
	return ""
}

var leaseMonthsPattern = regexp.MustCompile(`\b(\d{1,2})\b`)

func parseLeaseMonths(message string) (int, bool) {
	lower := strings.ToLower(message)
	if m := regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*year`).FindStringSubmatch(lower); len(m) > 1 {
		years, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return int(years * 12), true
		}
	}
	if m := leaseMonthsPattern.FindString(lower); m != "" {
		n, err := strconv.Atoi(m)
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

func parseViewingType(message string) string {
	lower := strings.ToLower(message)
	switch {
	case utils.ContainsAny(lower, []string{"virtual", "video", "online", "remote"}):
		return "virtual"
	case utils.ContainsAny(lower, []string{"physical", "person", "visit", "on site", "onsite", "face to face"}):
		return "physical"
	}
	return ""
}

func parseTimePreference(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "morning"):
		return "morning"
	case strings.Contains(lower, "afternoon"):
		return "afternoon"
	case strings.Contains(lower, "evening") || strings.Contains(lower, "night"):
		return "evening"
	case utils.ContainsAny(lower, []string{"any", "whenever", "flexible", "doesn't matter", "dont mind", "don't mind"}):
		return "any"
	}
	return ""
}

// matchSlotTime finds the offered slot whose hour matches what the user
// said, normalizing "2pm" and "14:00" to the same thing.
func matchSlotTime(days []model.DaySlots, date, message string) string {
	hour, ok := parseHour(message)
	if !ok {
		return unknownTime
	}

	for _, day := range days {
		if date != "" && date != unknownDate && day.Date != date {
			continue
		}
		for _, slot := range day.Slots {
			if slotHour, ok := parseHour(slot); ok && slotHour == hour {
				return slot
			}
		}
	}
	return fmt.Sprintf("%02d:00", hour)
}

func parseHour(text string) (int, bool) {
	m := hourPattern.FindStringSubmatch(text)
	if len(m) == 0 {
		return 0, false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil || hour > 23 {
		return 0, false
	}
	if strings.EqualFold(m[3], "pm") && hour < 12 {
		hour += 12
	}
	if strings.EqualFold(m[3], "am") && hour == 12 {
		hour = 0
	}
	return hour, true
}
