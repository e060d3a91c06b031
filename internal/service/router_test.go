package service

import (
	"context"
	"testing"

	"proppanda/internal/model"
)

func routeState(message string) *model.SessionState {
	s := model.NewSessionState("t-route")
	s.AppendUser(message)
	return s
}

func TestRouteStickyFlows(t *testing.T) {
	router := NewRouter(&fakeLLM{})

	s := routeState("10am works")
	s.ActiveFlow = model.FlowAppointment
	s.TargetTable = model.TableColiving
	if got := router.Route(context.Background(), s); got.NextStep != model.StepAppointment {
		t.Errorf("appointment flow should capture the message, got %s", got.NextStep)
	}

	s = routeState("jane@example.com")
	s.ActiveFlow = model.FlowLead
	s.TargetTable = model.TableColiving
	if got := router.Route(context.Background(), s); got.NextStep != model.StepCheckCapability {
		t.Errorf("lead flow should resume the search pipeline, got %s", got.NextStep)
	}
}

func TestRoutePagination(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		remaining int
		wantStep  model.NextStep
	}{
		{"Bare yes with queued results", "yes", 3, model.StepPropertySearch},
		{"Show more phrasing", "show more please", 3, model.StepPropertySearch},
		{"Yes with nothing queued goes to the model", "yes", 0, model.StepIntelligentChat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(&fakeLLM{}) // failing LLM: keyword paths must not need it
			s := routeState(tt.message)
			s.TargetTable = model.TableColiving
			for i := 0; i < tt.remaining; i++ {
				s.FoundProperties = append(s.FoundProperties, model.Property{ID: int64(i)})
			}
			if got := router.Route(context.Background(), s); got.NextStep != tt.wantStep {
				t.Errorf("Route(%q) = %s, want %s", tt.message, got.NextStep, tt.wantStep)
			}
		})
	}
}

func TestRouteBookingBeatsRoomReference(t *testing.T) {
	router := NewRouter(&fakeLLM{})
	s := routeState("I want to book room 5")
	s.TargetTable = model.TableColiving

	got := router.Route(context.Background(), s)
	if got.NextStep != model.StepAppointment {
		t.Errorf("booking wording must reach the appointment flow, got %s", got.NextStep)
	}
}

func TestRouteBareRoomReferenceGoesToChat(t *testing.T) {
	router := NewRouter(&fakeLLM{})
	s := routeState("is room 5 still there?")
	s.TargetTable = model.TableColiving

	got := router.Route(context.Background(), s)
	if got.NextStep != model.StepIntelligentChat {
		t.Errorf("a bare room mention is a question, not a new search, got %s", got.NextStep)
	}
}

func TestRouteYesAnswersBookingOffer(t *testing.T) {
	router := NewRouter(&fakeLLM{})
	s := routeState("sure")
	s.TargetTable = model.TableColiving
	s.FoundProperties = []model.Property{{ID: 1}, {ID: 2}}
	s.Messages = append([]model.Message{
		{Role: model.RoleAssistant, Content: "Would you like to book a viewing?"},
	}, s.Messages...)

	got := router.Route(context.Background(), s)
	if got.NextStep != model.StepAppointment {
		t.Errorf("a yes after a booking offer must start the booking, got %s", got.NextStep)
	}
}

func TestRouteYesAnswersShortQuestion(t *testing.T) {
	llm := &fakeLLM{jsonFn: func(system, user string) string {
		return `{"intent": "INTELLIGENT_CHAT"}`
	}}
	router := NewRouter(llm)
	s := routeState("yes")
	s.TargetTable = model.TableColiving
	s.FoundProperties = []model.Property{{ID: 1}, {ID: 2}}
	s.Messages = append([]model.Message{
		{Role: model.RoleAssistant, Content: "Do you cook at home often?"},
	}, s.Messages...)

	got := router.Route(context.Background(), s)
	if got.NextStep != model.StepIntelligentChat {
		t.Errorf("a yes to our own question is not a pagination request, got %s", got.NextStep)
	}
}

func TestRouteDomainKeywords(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		table     string
		wantStep  model.NextStep
		wantTable string
	}{
		{"Coliving fresh session", "do you have coliving rooms", "", model.StepCheckCapability, model.TableColiving},
		{"Coliving switch resets", "actually show me coliving", model.TableResidentialRent, model.StepResetMemory, model.TableColiving},
		{"Office fresh session", "looking for an office", "", model.StepCheckCapability, model.TableCommercialRent},
		{"Office switch resets", "what about an office instead", model.TableColiving, model.StepResetMemory, model.TableCommercialRent},
		{"Same domain keyword refines", "a condo near the river", model.TableResidentialRent, model.StepPropertySearch, model.TableResidentialRent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(&fakeLLM{})
			s := routeState(tt.message)
			s.TargetTable = tt.table
			got := router.Route(context.Background(), s)
			if got.NextStep != tt.wantStep || got.TargetTable != tt.wantTable {
				t.Errorf("Route(%q) = %s/%s, want %s/%s",
					tt.message, got.NextStep, got.TargetTable, tt.wantStep, tt.wantTable)
			}
		})
	}
}

func TestRouteMidSearchRefinement(t *testing.T) {
	router := NewRouter(&fakeLLM{})
	s := routeState("under $1800")
	s.TargetTable = model.TableColiving

	got := router.Route(context.Background(), s)
	if got.NextStep != model.StepPropertySearch {
		t.Errorf("budget wording mid-search should stay in the search flow, got %s", got.NextStep)
	}
}

func TestRouteClassifierOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		response string
		table    string
		wantStep model.NextStep
	}{
		{
			name:     "Search intent on fresh session checks capability",
			response: `{"intent": "PROPERTY_SEARCH", "target_table": "rooms_for_rent"}`,
			wantStep: model.StepCheckCapability,
		},
		{
			name:     "Search intent without table asks clarification",
			response: `{"intent": "PROPERTY_SEARCH"}`,
			wantStep: model.StepAskClarification,
		},
		{
			name:     "Chat intent",
			response: `{"intent": "INTELLIGENT_CHAT"}`,
			wantStep: model.StepIntelligentChat,
		},
		{
			name:     "Clarification intent",
			response: `{"intent": "CLARIFICATION", "question": "A room or a whole unit?"}`,
			wantStep: model.StepAskClarification,
		},
		{
			name:     "Model table drift without switch wording continues the search",
			response: `{"intent": "PROPERTY_SEARCH", "target_table": "residential_properties_for_rent"}`,
			table:    model.TableColiving,
			wantStep: model.StepPropertySearch,
		},
		{
			name:     "Table change with switch wording resets",
			message:  "I'd rather find a residential place for myself",
			response: `{"intent": "PROPERTY_SEARCH", "target_table": "residential_properties_for_rent"}`,
			table:    model.TableColiving,
			wantStep: model.StepResetMemory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{jsonFn: func(system, user string) string { return tt.response }}
			router := NewRouter(llm)
			message := tt.message
			if message == "" {
				message = "hmm let me think about what I need"
			}
			s := routeState(message)
			s.TargetTable = tt.table
			got := router.Route(context.Background(), s)
			if got.NextStep != tt.wantStep {
				t.Errorf("Route() = %s, want %s", got.NextStep, tt.wantStep)
			}
		})
	}
}

func TestRouteClassifierFailureFallsBackToChat(t *testing.T) {
	router := NewRouter(&fakeLLM{}) // CompleteJSON errors
	s := routeState("tell me something")

	got := router.Route(context.Background(), s)
	if got.NextStep != model.StepIntelligentChat {
		t.Errorf("a broken classifier must fall back to chat, got %s", got.NextStep)
	}

	// Garbage output falls back the same way.
	router = NewRouter(&fakeLLM{jsonFn: func(system, user string) string { return "sorry, as an AI" }})
	got = router.Route(context.Background(), s)
	if got.NextStep != model.StepIntelligentChat {
		t.Errorf("unparseable classification must fall back to chat, got %s", got.NextStep)
	}
}

func TestIsExitMessage(t *testing.T) {
	if !IsExitMessage("actually cancel that") {
		t.Error("cancel should read as an exit")
	}
	if IsExitMessage("book a viewing for saturday") {
		t.Error("a booking request is not an exit")
	}
}
