package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"proppanda/internal/model"
)

func newTestExtractor(llm LLMClient) *Extractor {
	e := NewExtractor(llm)
	e.now = func() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) }
	return e
}

func extractorState(table string) *model.SessionState {
	s := model.NewSessionState("t-extract")
	s.TargetTable = table
	return s
}

func TestExtractFlexibleAnswerSkipsModel(t *testing.T) {
	llm := &fakeLLM{}
	e := newTestExtractor(llm)
	s := extractorState(model.TableColiving)
	s.AppendAssistant("Which area would you like to stay in?")
	s.AppendUser("anywhere is fine")

	update := e.ExtractSearch(context.Background(), s)
	if llm.jsonCalls != 0 {
		t.Error("a direct answer to the location question must not call the model")
	}
	if update.Filters == nil || !update.Filters.IsFlexibleLocation() {
		t.Errorf("filters = %+v, want the flexible sentinel", update.Filters)
	}
}

func TestExtractGenderAnswerSkipsModel(t *testing.T) {
	llm := &fakeLLM{}
	e := newTestExtractor(llm)
	s := extractorState(model.TableColiving)
	s.AppendAssistant("And your gender, so I can match you with the right units?")
	s.AppendUser("I'm a guy")

	update := e.ExtractSearch(context.Background(), s)
	if llm.jsonCalls != 0 {
		t.Error("a direct gender answer must not call the model")
	}
	if update.Filters == nil || update.Filters.GenderPreference == nil || *update.Filters.GenderPreference != "male" {
		t.Errorf("filters = %+v, want male", update.Filters)
	}
}

func TestExtractModelFiltersMergeIn(t *testing.T) {
	llm := &fakeLLM{jsonFn: func(system, user string) string {
		return `{"filters": {"location_preference": "tampines", "budget_max": 1500}}`
	}}
	e := newTestExtractor(llm)
	s := extractorState(model.TableColiving)
	s.Filters = &model.PropertyFilters{GenderPreference: model.StrPtr("female")}
	s.AppendUser("somewhere in tampines under 1500")

	update := e.ExtractSearch(context.Background(), s)
	f := update.Filters
	if f == nil || f.LocationPreference == nil || *f.LocationPreference != "tampines" {
		t.Fatalf("filters = %+v", f)
	}
	if f.BudgetMax == nil || *f.BudgetMax != 1500 {
		t.Error("budget cap missing")
	}
	if f.GenderPreference == nil || *f.GenderPreference != "female" {
		t.Error("existing criteria must survive an unrelated update")
	}
}

func TestExtractPastMoveInDateSetsValidation(t *testing.T) {
	llm := &fakeLLM{jsonFn: func(system, user string) string {
		return `{"filters": {"move_in_date": "2026-01-15"}}`
	}}
	e := newTestExtractor(llm)
	s := extractorState(model.TableColiving)
	s.AppendUser("moving in on the 15th of january")

	update := e.ExtractSearch(context.Background(), s)
	if update.ValidationError == nil || *update.ValidationError == "" {
		t.Error("a past move-in date must produce a validation message")
	}
	if update.Filters.MoveInDate != nil {
		t.Error("the rejected date must not be stored")
	}
}

func TestExtractRoomReferenceMarksInventoryCheck(t *testing.T) {
	e := newTestExtractor(&fakeLLM{})
	s := extractorState(model.TableColiving)
	s.AppendUser("is room 7 still available?")

	update := e.ExtractSearch(context.Background(), s)
	if update.InventoryStatus == nil || *update.InventoryStatus != model.InventoryPending {
		t.Error("a room reference should queue an inventory check")
	}

	// Already mid-check: do not re-queue.
	s.InventoryStatus = model.InventoryConfirmed
	update = e.ExtractSearch(context.Background(), s)
	if update.InventoryStatus != nil {
		t.Error("an active inventory check must not be restarted")
	}
}

func TestExtractEnvironmentChangeQueuesInventoryCheck(t *testing.T) {
	llm := &fakeLLM{jsonFn: func(system, user string) string {
		return `{"filters": {"environment": "ladies unit"}}`
	}}
	e := newTestExtractor(llm)
	s := extractorState(model.TableColiving)
	s.AppendUser("do you have any ladies units?")

	update := e.ExtractSearch(context.Background(), s)
	if update.InventoryStatus == nil || *update.InventoryStatus != model.InventoryPending {
		t.Error("a new environment ask should queue an inventory check")
	}

	// Restating the same environment does not re-queue.
	s.Filters = update.Filters
	update = e.ExtractSearch(context.Background(), s)
	if update.InventoryStatus != nil {
		t.Error("an unchanged environment must not restart the check")
	}

	// "mixed" is the default everywhere; nothing to verify.
	llm.jsonFn = func(system, user string) string {
		return `{"filters": {"environment": "mixed"}}`
	}
	s2 := extractorState(model.TableColiving)
	s2.AppendUser("mixed is fine")
	update = e.ExtractSearch(context.Background(), s2)
	if update.InventoryStatus != nil {
		t.Error("a mixed environment needs no inventory check")
	}
}

func TestExtractRoomFieldsInPrompt(t *testing.T) {
	var captured string
	llm := &fakeLLM{jsonFn: func(system, user string) string {
		captured = system
		return `{"filters": {"room_type": "master", "ensuite_required": true}}`
	}}
	e := newTestExtractor(llm)
	s := extractorState(model.TableColiving)
	s.AppendUser("a master room with its own bathroom")

	update := e.ExtractSearch(context.Background(), s)
	for _, field := range []string{"room_type", "ensuite_required", "wifi_required", "visitors_required", "gym_required", "pool_required"} {
		if !strings.Contains(captured, field) {
			t.Errorf("room extraction prompt missing %q", field)
		}
	}
	if update.Filters == nil || update.Filters.RoomType == nil || *update.Filters.RoomType != "master" {
		t.Errorf("filters = %+v", update.Filters)
	}
	if update.Filters.EnsuiteRequired == nil || !*update.Filters.EnsuiteRequired {
		t.Error("ensuite flag lost")
	}
}

func TestExtractUnitFieldsInPrompt(t *testing.T) {
	var captured string
	llm := &fakeLLM{jsonFn: func(system, user string) string {
		captured = system
		return `{"filters": {}}`
	}}
	e := newTestExtractor(llm)
	s := extractorState(model.TableResidentialRent)
	s.AppendUser("a flat with a washer")

	e.ExtractSearch(context.Background(), s)
	for _, field := range []string{"washer_dryer_required", "nationality", "gym_required", "pool_required"} {
		if !strings.Contains(captured, field) {
			t.Errorf("unit extraction prompt missing %q", field)
		}
	}
}

func TestExtractModelFailureKeepsFilters(t *testing.T) {
	e := newTestExtractor(&fakeLLM{}) // CompleteJSON errors
	s := extractorState(model.TableColiving)
	s.Filters = &model.PropertyFilters{BudgetMax: model.FloatPtr(1200)}
	s.AppendUser("something something")

	update := e.ExtractSearch(context.Background(), s)
	if update.Filters == nil || update.Filters.BudgetMax == nil || *update.Filters.BudgetMax != 1200 {
		t.Error("a failed extraction must leave the existing filters intact")
	}
}

func TestExtractLeadEmailRegexWins(t *testing.T) {
	llm := &fakeLLM{jsonFn: func(system, user string) string {
		return `{"email": "wrong@model.invented", "name": "Jane", "gender": "woman"}`
	}}
	e := newTestExtractor(llm)
	s := extractorState(model.TableColiving)
	s.AppendUser("it's jane.doe@example.com, I'm Jane")

	lead := e.ExtractLead(context.Background(), s)
	if lead.Email != "jane.doe@example.com" {
		t.Errorf("email = %q, the regex match must win over the model", lead.Email)
	}
	if lead.Name != "Jane" {
		t.Errorf("name = %q", lead.Name)
	}
	if lead.Gender != "female" {
		t.Errorf("gender = %q, want normalized", lead.Gender)
	}
}

func TestExtractLeadModelFailureStillReturnsEmail(t *testing.T) {
	e := newTestExtractor(&fakeLLM{})
	s := extractorState(model.TableColiving)
	s.AppendUser("jane@example.com")

	lead := e.ExtractLead(context.Background(), s)
	if lead.Email != "jane@example.com" {
		t.Errorf("email = %q, regex extraction must survive a model outage", lead.Email)
	}
}
