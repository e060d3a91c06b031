package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"proppanda/internal/model"
	"proppanda/internal/utils"
)

// Deterministic routing vocabulary. Keyword checks run in a fixed order
// before any model call so the common cases never depend on the LLM.
var (
	exitKeywords        = []string{"stop", "cancel", "back", "exit", "don't want", "dont want", "nevermind", "never mind"}
	bookingKeywords     = []string{"book", "viewing", "view the", "appointment", "schedule", "visit the", "arrange"}
	paginationEquals    = []string{"yes", "yeah", "yep", "sure", "ok", "okay", "more"}
	paginationContains  = []string{"show more", "next", "continue", "more options", "see more"}
	budgetKeywords      = []string{"above", "under", "below", "between", "min", "max", "$", "budget"}
	locationKeywords    = []string{"near", "mrt", "station", "area", "location", "district"}
	colivingKeywords    = []string{"coliving", "co-living", "co living"}
	// A model-suggested table change only resets the session when the user
	// actually said something that signals a switch.
	explicitSwitchKeywords = []string{"buy", "rent", "commercial", "residential", "office", "shop", "store"}

	switchKeywordTables = map[string]string{
		"office":      model.TableCommercialRent,
		"shop":        model.TableCommercialRent,
		"store":       model.TableCommercialRent,
		"warehouse":   model.TableIndustrialRent,
		"factory":     model.TableIndustrialRent,
		"whole unit":  model.TableResidentialRent,
		"whole house": model.TableResidentialRent,
		"whole flat":  model.TableResidentialRent,
		"hdb":         model.TableResidentialRent,
		"condo":       model.TableResidentialRent,
	}
)

// Router decides which node handles the incoming message. Cheap keyword
// checks win over the classifier model; the model only sees messages the
// vocabulary cannot place.
type Router struct {
	llm LLMClient
}

// NewRouter creates an intent router
func NewRouter(llm LLMClient) *Router {
	return &Router{llm: llm}
}

// RouteDecision is the outcome of routing one message.
type RouteDecision struct {
	NextStep      model.NextStep
	TargetTable   string
	Clarification string
}

// Route classifies the latest user message against the session state.
func (r *Router) Route(ctx context.Context, state *model.SessionState) RouteDecision {
	message := state.LastUserMessage()
	lower := strings.ToLower(message)

	// A sticky flow captures everything except an explicit exit.
	if state.ActiveFlow == model.FlowAppointment {
		return RouteDecision{NextStep: model.StepAppointment, TargetTable: state.TargetTable}
	}
	if state.ActiveFlow == model.FlowLead {
		return RouteDecision{NextStep: model.StepCheckCapability, TargetTable: state.TargetTable}
	}

	// Short confirmations while results are queued mean "show the next batch",
	// unless the last thing we said was a booking offer or a question of our
	// own, in which case the "yes" answers that instead.
	if state.RemainingProperties() > 0 &&
		(utils.EqualsAny(message, paginationEquals) || utils.ContainsAny(lower, paginationContains)) {
		lastBot := strings.ToLower(state.LastAssistantMessage())
		switch {
		case utils.ContainsAny(lastBot, []string{"book", "viewing", "appointment"}):
			return RouteDecision{NextStep: model.StepAppointment, TargetTable: state.TargetTable}
		case strings.Contains(lastBot, "?") && len(lastBot) < 200 && !strings.Contains(lastBot, "more"):
			// A short open question; fall through to the classifier.
		default:
			return RouteDecision{NextStep: model.StepPropertySearch, TargetTable: state.TargetTable}
		}
	}

	if utils.ContainsAny(lower, bookingKeywords) {
		if state.TargetTable == "" {
			// Nothing to book against yet; let the search flow establish context.
			return r.classify(ctx, state, message)
		}
		return RouteDecision{NextStep: model.StepAppointment, TargetTable: state.TargetTable}
	}

	// A bare room reference is an availability question, not a booking.
	if utils.HasRoomReference(message) && state.TargetTable != "" {
		return RouteDecision{NextStep: model.StepIntelligentChat, TargetTable: state.TargetTable}
	}

	if utils.ContainsAny(lower, colivingKeywords) {
		if state.TargetTable != "" && state.TargetTable != model.TableColiving {
			return RouteDecision{NextStep: model.StepResetMemory, TargetTable: model.TableColiving}
		}
		return RouteDecision{NextStep: model.StepCheckCapability, TargetTable: model.TableColiving}
	}

	for keyword, table := range switchKeywordTables {
		if strings.Contains(lower, keyword) {
			if state.TargetTable == "" {
				return RouteDecision{NextStep: model.StepCheckCapability, TargetTable: table}
			}
			if state.TargetTable != table {
				return RouteDecision{NextStep: model.StepResetMemory, TargetTable: table}
			}
			return RouteDecision{NextStep: model.StepPropertySearch, TargetTable: table}
		}
	}

	// Mid-search refinements stay in the search flow without a model call.
	if state.TargetTable != "" &&
		(utils.ContainsAny(lower, budgetKeywords) || utils.ContainsAny(lower, locationKeywords)) {
		return RouteDecision{NextStep: model.StepPropertySearch, TargetTable: state.TargetTable}
	}

	return r.classify(ctx, state, message)
}

const routerSystemPrompt = `You are the intent router for a Singapore property rental assistant.
Classify the user's latest message into one of these intents:

- "PROPERTY_SEARCH": the user is looking for a place, refining criteria, or asking about listings
- "APPOINTMENT": the user wants to view or book a specific property
- "SWITCH_DOMAIN": the user is changing to a different property category
- "CLARIFICATION": the message is about property but you cannot tell which category; ask one short question
- "INTELLIGENT_CHAT": greetings, questions about the agent or company, or anything else

When the intent involves property, also pick target_table from:
"coliving_property", "rooms_for_rent", "residential_properties_for_rent",
"residential_properties_for_sale", "commercial_properties_for_rent",
"commercial_properties_for_sale", "industrial_properties_for_rent",
"industrial_properties_for_sale"

Room rentals and shared flats map to "rooms_for_rent". Coliving brands map to "coliving_property".

Respond ONLY with JSON: {"intent": "...", "target_table": "...", "question": "..."}`

// classify falls through to the model. Any failure lands in intelligent
// chat; a broken classifier must never make the assistant go silent.
func (r *Router) classify(ctx context.Context, state *model.SessionState, message string) RouteDecision {
	prompt := fmt.Sprintf("Current property category: %s\nConversation so far:\n%s\nLatest message: %s",
		orNone(state.TargetTable), transcript(state.RecentMessages(6)), message)

	content, err := r.llm.CompleteJSON(ctx, routerSystemPrompt, prompt)
	if err != nil {
		log.Printf("Router: classification failed, falling back to chat: %v", err)
		return RouteDecision{NextStep: model.StepIntelligentChat, TargetTable: state.TargetTable}
	}

	var result model.RouteResult
	if err := utils.ParseAIJSON(content, &result); err != nil {
		log.Printf("Router: unparseable classification %q: %v", content, err)
		return RouteDecision{NextStep: model.StepIntelligentChat, TargetTable: state.TargetTable}
	}

	switch result.Intent {
	case model.IntentPropertySearch:
		table := result.TargetTable
		if table == "" {
			table = state.TargetTable
		}
		if table == "" {
			return RouteDecision{
				NextStep:      model.StepAskClarification,
				Clarification: "Are you looking for a room in a shared place, or a whole unit to yourself?",
			}
		}
		if state.TargetTable != "" && state.TargetTable != table {
			if utils.ContainsAny(strings.ToLower(message), explicitSwitchKeywords) {
				return RouteDecision{NextStep: model.StepResetMemory, TargetTable: table}
			}
			// The model drifted; stick with the established category.
			return RouteDecision{NextStep: model.StepPropertySearch, TargetTable: state.TargetTable}
		}
		if state.TargetTable == "" {
			return RouteDecision{NextStep: model.StepCheckCapability, TargetTable: table}
		}
		return RouteDecision{NextStep: model.StepPropertySearch, TargetTable: table}
	case model.IntentAppointment:
		return RouteDecision{NextStep: model.StepAppointment, TargetTable: state.TargetTable}
	case model.IntentSwitchDomain:
		if result.TargetTable != "" && result.TargetTable != state.TargetTable {
			return RouteDecision{NextStep: model.StepResetMemory, TargetTable: result.TargetTable}
		}
		return RouteDecision{NextStep: model.StepPropertySearch, TargetTable: state.TargetTable}
	case model.IntentClarification:
		question := result.Question
		if question == "" {
			question = "Could you tell me a bit more about what kind of place you're after?"
		}
		return RouteDecision{NextStep: model.StepAskClarification, Clarification: question}
	default:
		return RouteDecision{NextStep: model.StepIntelligentChat, TargetTable: state.TargetTable}
	}
}

// IsExitMessage reports whether the user wants out of the current flow.
func IsExitMessage(message string) bool {
	return utils.ContainsAny(strings.ToLower(message), exitKeywords)
}

func transcript(messages []model.Message) string {
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
