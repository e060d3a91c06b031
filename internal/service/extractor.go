package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"proppanda/internal/model"
	"proppanda/internal/utils"
)

// flexibleKeywords mark a "no preference" answer to the location question.
var flexibleKeywords = []string{
	"anywhere", "any location", "any area", "no preference", "flexible",
	"doesn't matter", "dont mind", "don't mind", "up to you",
}

// Extractor pulls structured criteria out of free-form messages. Cheap
// deterministic checks handle the answers we just asked for; the model
// handles everything else.
type Extractor struct {
	llm LLMClient
	now func() time.Time
}

// NewExtractor creates a slot extractor
func NewExtractor(llm LLMClient) *Extractor {
	return &Extractor{llm: llm, now: time.Now}
}

// ExtractSearch reads new search criteria from the latest message and
// merges them into the session filters. It also detects availability
// questions about a specific room.
func (e *Extractor) ExtractSearch(ctx context.Context, state *model.SessionState) model.StateUpdate {
	message := state.LastUserMessage()
	update := model.StateUpdate{}

	// Availability question about a specific room short-circuits extraction.
	if ref := utils.RoomReference(message); ref != "" && state.InventoryStatus == "" {
		update.InventoryStatus = model.StrPtr(model.InventoryPending)
	}

	extracted := e.deterministicAnswer(state, message)
	if extracted == nil {
		extracted = e.modelExtract(ctx, state, message)
	}

	merged, validation := state.Filters.Merge(extracted, state.TargetTable, e.now())

	// A new environment ask (e.g. "a ladies unit") needs an inventory check
	// before we promise anything.
	if environmentChanged(state.Filters, merged) && state.InventoryStatus == "" {
		update.InventoryStatus = model.StrPtr(model.InventoryPending)
	}

	update.Filters = merged
	update.ValidationError = model.StrPtr(validation)
	return update
}

func environmentChanged(old, merged *model.PropertyFilters) bool {
	if merged == nil || merged.Environment == nil {
		return false
	}
	env := strings.ToLower(*merged.Environment)
	if env == "" || env == "mixed" {
		return false
	}
	if old != nil && old.Environment != nil && strings.ToLower(*old.Environment) == env {
		return false
	}
	return true
}

// deterministicAnswer resolves direct answers to the question we just
// asked, so "anywhere" or "female" never burn a model call. Returns nil
// when the message needs real extraction.
func (e *Extractor) deterministicAnswer(state *model.SessionState, message string) *model.PropertyFilters {
	lastQuestion := strings.ToLower(state.LastAssistantMessage())

	if strings.Contains(lastQuestion, "area") || strings.Contains(lastQuestion, "location") || strings.Contains(lastQuestion, "where") {
		if utils.ContainsAny(strings.ToLower(message), flexibleKeywords) {
			return &model.PropertyFilters{LocationPreference: model.StrPtr(model.FlexibleLocation)}
		}
	}

	if strings.Contains(lastQuestion, "gender") || strings.Contains(lastQuestion, "male or female") {
		for _, word := range strings.Fields(message) {
			if gender := utils.NormalizeGender(strings.Trim(word, ",.!?")); gender != "" {
				return &model.PropertyFilters{GenderPreference: model.StrPtr(gender)}
			}
		}
	}

	return nil
}

const extractSystemPrompt = `You extract property search criteria from a user message in a Singapore rental conversation.

Return ONLY the criteria stated in the LATEST message. Never repeat criteria from earlier turns.
Today is %s. Resolve relative dates ("next month", "in two weeks") to YYYY-MM-DD.

Respond ONLY with JSON of the form {"filters": {...}} where filters may contain:
- location_preference: area, district, or MRT name (string). Use "anywhere" if the user says they are flexible.
- budget_min, budget_max: monthly SGD amounts (numbers). "under 2000" sets only budget_max; "above 1500" sets only budget_min; "between 1500 and 2000" sets both.
- move_in_date: YYYY-MM-DD
- lease_duration_months: integer
%s
Omit every field the latest message does not mention. If nothing was stated, return {"filters": {}}.`

const roomFields = `- gender_preference: "male" or "female" (the tenant's own gender)
- nationality: tenant nationality (string)
- environment: unit environment preference, e.g. "mixed gender", "ladies unit"
- room_type: "master" or "common"
- ensuite_required: boolean, true when they want an attached bathroom
- cooking_required, pet_friendly, aircon_required: booleans, only when explicitly requested
- wifi_required, visitors_required, gym_required, pool_required: booleans, only when explicitly requested
`

const unitFields = `- bedrooms, bathrooms: integers
- property_type: e.g. "HDB", "Condo", "Landed"
- furnishing_status: e.g. "fully furnished", "partial"
- nationality: tenant nationality (string)
- washer_dryer_required, gym_required, pool_required, aircon_required, pet_friendly: booleans, only when explicitly requested
`

func (e *Extractor) modelExtract(ctx context.Context, state *model.SessionState, message string) *model.PropertyFilters {
	fields := unitFields
	if model.IsRoomBased(state.TargetTable) {
		fields = roomFields
	}
	system := fmt.Sprintf(extractSystemPrompt, e.now().Format("2006-01-02"), fields)
	prompt := fmt.Sprintf("Conversation so far:\n%s\nLatest message: %s",
		transcript(state.RecentMessages(6)), message)

	content, err := e.llm.CompleteJSON(ctx, system, prompt)
	if err != nil {
		log.Printf("Extractor: model call failed, keeping existing filters: %v", err)
		return nil
	}

	var result model.ExtractResult
	if err := utils.ParseAIJSON(content, &result); err != nil {
		log.Printf("Extractor: unparseable extraction %q: %v", content, err)
		return nil
	}

	if result.Filters != nil && result.Filters.GenderPreference != nil {
		if g := utils.NormalizeGender(*result.Filters.GenderPreference); g != "" {
			result.Filters.GenderPreference = model.StrPtr(g)
		}
	}
	return result.Filters
}

const leadSystemPrompt = `You extract personal details a prospective tenant shares about themselves.

Respond ONLY with JSON containing any of:
- email, name, phone, gender ("male"/"female"), nationality, profession, age_group, pass_type

pass_type is their Singapore pass: "EP", "SP", "Work Permit", "Student Pass", "DP", "Citizen", or "PR".
Omit everything the message does not state. Return {} when nothing personal was shared.`

// ExtractLead reads demographic details from the latest message.
func (e *Extractor) ExtractLead(ctx context.Context, state *model.SessionState) model.LeadExtract {
	message := state.LastUserMessage()

	result := model.LeadExtract{}
	if email := utils.ExtractEmail(message); email != "" {
		result.Email = email
	}

	content, err := e.llm.CompleteJSON(ctx, leadSystemPrompt, message)
	if err != nil {
		log.Printf("Extractor: lead extraction failed: %v", err)
		return result
	}

	var extracted model.LeadExtract
	if err := utils.ParseAIJSON(content, &extracted); err != nil {
		log.Printf("Extractor: unparseable lead extraction %q: %v", content, err)
		return result
	}

	if result.Email != "" {
		extracted.Email = result.Email
	}
	if g := utils.NormalizeGender(extracted.Gender); g != "" {
		extracted.Gender = g
	} else {
		extracted.Gender = ""
	}
	return extracted
}
