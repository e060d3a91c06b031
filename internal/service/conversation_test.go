package service

import (
	"context"
	"strings"
	"testing"

	"proppanda/internal/checkpoint"
	"proppanda/internal/model"
)

// scriptedLLM answers each model surface from canned JSON so a full
// conversation can run without the network.
func scriptedLLM() *fakeLLM {
	return &fakeLLM{
		jsonFn: func(system, user string) string {
			switch {
			case strings.Contains(system, "intent router"):
				return `{"intent": "PROPERTY_SEARCH", "target_table": "coliving_property"}`
			case strings.Contains(system, "search criteria"):
				latest := user[strings.LastIndex(user, "Latest message:"):]
				switch {
				case strings.Contains(latest, "tampines"):
					return `{"filters": {"location_preference": "tampines"}}`
				case strings.Contains(latest, "1500"):
					return `{"filters": {"budget_max": 1500}}`
				default:
					return `{"filters": {}}`
				}
			default: // lead extraction
				return `{}`
			}
		},
		textFn: func(system, user string) string { return "Hi! I'm here to help you find a place." },
	}
}

func newTestEngine(t *testing.T, llm LLMClient, properties PropertyStore, scheduler Scheduler) (*Engine, *checkpoint.MemoryStore, *fakeLeadStore) {
	t.Helper()
	store := checkpoint.NewMemoryStore()
	geo := &fakeGeocoder{}
	extractor := newTestExtractor(llm)
	leads := newFakeLeadStore()
	engine := NewEngine(
		store, nil, llm,
		NewRouter(llm),
		extractor,
		NewLeadCollector(leads, extractor),
		NewCapabilityGate(&fakeAgentStore{}),
		NewSearchService(properties, geo, 10, 3000),
		NewPresenter(3),
		NewAppointmentFlow(llm, properties, scheduler),
		NewGenerator(llm, properties, &fakeKnowledgeStore{}, 7),
	)
	return engine, store, leads
}

func colivingListings(n int) []model.Property {
	var out []model.Property
	for i := 1; i <= n; i++ {
		name := "Sunny Heights"
		id := string(rune('A' + i - 1))
		out = append(out, model.Property{
			ID:           int64(i),
			PropertyID:   model.StrPtr("PG-" + id),
			PropertyName: &name,
			MonthlyRent:  model.FloatPtr(float64(1000 + i*50)),
		})
	}
	return out
}

func TestFullSearchConversation(t *testing.T) {
	properties := &fakePropertyStore{searchFn: func(q model.PropertyQuery) ([]model.Property, error) {
		return colivingListings(4), nil
	}}
	engine, store, leads := newTestEngine(t, scriptedLLM(), properties, &fakeScheduler{})
	ctx := context.Background()
	tc := TurnContext{AgentID: "agent-1", AgentName: "Jamie"}

	turn := func(message string) string {
		t.Helper()
		reply, _, err := engine.ProcessTurn(ctx, "conv-1", message, tc)
		if err != nil {
			t.Fatalf("ProcessTurn(%q) error: %v", message, err)
		}
		return reply
	}

	if reply := turn("I'm looking for a coliving room"); !strings.Contains(reply, "email") {
		t.Fatalf("turn 1 should gate on the email, got: %s", reply)
	}
	if reply := turn("jane@example.com"); !strings.Contains(reply, "area") {
		t.Fatalf("turn 2 should ask for the area, got: %s", reply)
	}
	if reply := turn("tampines please"); !strings.Contains(reply, "budget") {
		t.Fatalf("turn 3 should ask for the budget, got: %s", reply)
	}
	if reply := turn("under 1500"); !strings.Contains(reply, "male or female") {
		t.Fatalf("turn 4 should ask for gender on coliving, got: %s", reply)
	}
	if reply := turn("female"); !strings.Contains(reply, "Here's what I found") {
		t.Fatalf("turn 5 should show results, got: %s", reply)
	}
	if reply := turn("yes"); !strings.Contains(reply, "Here are a few more") {
		t.Fatalf("turn 6 should page to the next batch, got: %s", reply)
	}

	// The session round-trips through the checkpoint store between turns.
	state, err := store.Load(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if state.UserEmail != "jane@example.com" {
		t.Errorf("email not persisted: %q", state.UserEmail)
	}
	if state.TargetTable != model.TableColiving {
		t.Errorf("target table = %q", state.TargetTable)
	}
	if state.ShownCount != 4 {
		t.Errorf("shown count = %d, want 4 after both batches", state.ShownCount)
	}
	if state.Filters == nil || state.Filters.GenderPreference == nil || *state.Filters.GenderPreference != "female" {
		t.Errorf("filters lost: %+v", state.Filters)
	}

	// The gender answer also landed on the lead record.
	enriched := false
	for _, lead := range leads.upserted {
		if lead.Gender != nil && *lead.Gender == "female" {
			enriched = true
		}
	}
	if !enriched {
		t.Error("demographics shared while searching should enrich the lead")
	}
}

func TestTurnSurvivesNodePanic(t *testing.T) {
	properties := &fakePropertyStore{searchFn: func(q model.PropertyQuery) ([]model.Property, error) {
		panic("boom")
	}}
	llm := scriptedLLM()
	engine, store, _ := newTestEngine(t, llm, properties, &fakeScheduler{})
	ctx := context.Background()
	tc := TurnContext{AgentID: "agent-1"}

	turn := func(message string) string {
		reply, _, err := engine.ProcessTurn(ctx, "conv-2", message, tc)
		if err != nil {
			t.Fatalf("ProcessTurn(%q) error: %v", message, err)
		}
		return reply
	}

	turn("I'm looking for a coliving room")
	turn("jane@example.com")
	turn("tampines please")
	turn("under 1500")

	reply := turn("female") // search path panics
	if !strings.Contains(reply, "sorry") {
		t.Errorf("a panic must surface as an apology, got: %s", reply)
	}

	// The session stayed loadable and the half-applied turn rolled back:
	// the gender extracted right before the panic must not be persisted.
	state, err := store.Load(ctx, "conv-2")
	if err != nil {
		t.Fatalf("session lost after a panic: %v", err)
	}
	if state.Filters != nil && state.Filters.GenderPreference != nil {
		t.Error("a panicking turn must not persist partial filter changes")
	}
	if !strings.Contains(state.LastAssistantMessage(), "sorry") {
		t.Error("the apology should be part of the saved transcript")
	}
}

func TestDomainSwitchKeepsDemographics(t *testing.T) {
	properties := &fakePropertyStore{searchFn: func(q model.PropertyQuery) ([]model.Property, error) {
		return colivingListings(2), nil
	}}
	engine, store, _ := newTestEngine(t, scriptedLLM(), properties, &fakeScheduler{})
	ctx := context.Background()
	tc := TurnContext{AgentID: "agent-1"}

	turn := func(message string) {
		t.Helper()
		if _, _, err := engine.ProcessTurn(ctx, "conv-3", message, tc); err != nil {
			t.Fatalf("ProcessTurn(%q) error: %v", message, err)
		}
	}

	turn("I'm looking for a coliving room")
	turn("jane@example.com")
	turn("tampines please")
	turn("under 1500")
	turn("female")

	// Switching to whole units resets the search but not who the user is.
	turn("actually I want a whole hdb flat")

	state, err := store.Load(ctx, "conv-3")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if state.TargetTable != model.TableResidentialRent {
		t.Errorf("target table = %q, want residential rent", state.TargetTable)
	}
	if state.Filters == nil || state.Filters.LocationPreference != nil {
		t.Error("location must be cleared on a domain switch")
	}
	if state.UserEmail != "jane@example.com" {
		t.Error("identity must survive a domain switch")
	}
	if state.FoundProperties != nil {
		t.Error("old results must be cleared on a domain switch")
	}
}
