package service

import (
	"context"
	"fmt"
	"log"

	"proppanda/internal/checkpoint"
	"proppanda/internal/model"
)

const apologyReply = "I'm so sorry, something went wrong on my end. Could you send that again?"

// TurnContext carries the per-request identity stamped onto the session.
type TurnContext struct {
	AgentID     string
	AgentName   string
	CompanyName string
	AgentBio    string
	UserID      string
	UserName    string
}

// Engine runs one conversation turn end to end: restore state, route,
// execute the chosen node, persist, reply. Each stage returns a state
// patch; the engine is the only thing that applies them.
type Engine struct {
	store         checkpoint.Store
	chatlog       ChatLogStore
	llm           LLMClient
	router        *Router
	extractor     *Extractor
	leadCollector *LeadCollector
	capability    *CapabilityGate
	search        *SearchService
	presenter     *Presenter
	appointment   *AppointmentFlow
	generator     *Generator
}

// NewEngine wires the turn pipeline
func NewEngine(
	store checkpoint.Store,
	chatlog ChatLogStore,
	llm LLMClient,
	router *Router,
	extractor *Extractor,
	leadCollector *LeadCollector,
	capability *CapabilityGate,
	search *SearchService,
	presenter *Presenter,
	appointment *AppointmentFlow,
	generator *Generator,
) *Engine {
	return &Engine{
		store:         store,
		chatlog:       chatlog,
		llm:           llm,
		router:        router,
		extractor:     extractor,
		leadCollector: leadCollector,
		capability:    capability,
		search:        search,
		presenter:     presenter,
		appointment:   appointment,
		generator:     generator,
	}
}

// ProcessTurn handles one user message and returns the assistant reply.
// Whatever breaks mid-turn, the user gets an apology instead of silence
// and the session stays loadable.
func (e *Engine) ProcessTurn(ctx context.Context, threadID, message string, tc TurnContext) (reply string, state *model.SessionState, err error) {
	state, err = e.store.Load(ctx, threadID)
	if err == checkpoint.ErrNotFound {
		state = model.NewSessionState(threadID)
	} else if err != nil {
		return "", nil, fmt.Errorf("failed to restore session %s: %w", threadID, err)
	}

	state.AgentID = tc.AgentID
	state.AgentName = tc.AgentName
	state.CompanyName = tc.CompanyName
	state.AgentBio = tc.AgentBio
	state.UserID = tc.UserID
	state.UserName = tc.UserName
	state.AppendUser(message)

	e.logMessage(ctx, state, "user", message)

	// A panic mid-turn rolls the session back to this point, so the saved
	// state never carries a half-applied turn.
	snapshot := state.Clone()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Engine: panic in turn for %s: %v", threadID, r)
			state = snapshot
			state.AppendAssistant(apologyReply)
			reply = apologyReply
			err = nil
		}
		if reply != "" {
			e.logMessage(ctx, state, "assistant", reply)
		}
		e.recordLead(ctx, state)
		if saveErr := e.store.Save(ctx, state); saveErr != nil {
			log.Printf("Engine: failed to save session %s: %v", threadID, saveErr)
		}
	}()

	decision := e.router.Route(ctx, state)

	switch decision.NextStep {
	case model.StepAskClarification:
		state.Apply(model.Reply(decision.Clarification))
		state.NextStep = model.StepEnd
	case model.StepIntelligentChat:
		state.Apply(e.generator.Chat(ctx, state))
	case model.StepAppointment:
		state.Apply(e.appointment.Handle(ctx, state))
	case model.StepResetMemory:
		e.resetForDomainSwitch(state)
		e.runCapabilityAndSearch(ctx, state, decision.TargetTable)
	case model.StepCheckCapability:
		e.runCapabilityAndSearch(ctx, state, decision.TargetTable)
	case model.StepPropertySearch:
		if decision.TargetTable != "" {
			state.TargetTable = decision.TargetTable
		}
		e.runSearchFlow(ctx, state)
	default:
		state.Apply(e.generator.Chat(ctx, state))
	}

	return state.LastAssistantMessage(), state, nil
}

// resetForDomainSwitch clears search and booking progress while keeping
// who the user is.
func (e *Engine) resetForDomainSwitch(state *model.SessionState) {
	state.Filters = state.Filters.ResetForDomainSwitch()
	state.FoundProperties = nil
	state.ShownCount = 0
	state.ValidationError = ""
	state.InventoryStatus = ""
	state.Appointment = nil
	state.SelectedProperty = nil
	state.AvailableSlots = nil
	state.ActiveFlow = model.FlowNone
}

func (e *Engine) runCapabilityAndSearch(ctx context.Context, state *model.SessionState, table string) {
	update := e.capability.Check(ctx, state, table)
	state.Apply(update)
	if state.NextStep != model.StepPropertySearch {
		return
	}
	e.runSearchFlow(ctx, state)
}

// runSearchFlow is the search pipeline: lead gate, extraction, decision,
// then whichever node the decision picked.
func (e *Engine) runSearchFlow(ctx context.Context, state *model.SessionState) {
	leadUpdate, proceed := e.leadCollector.Collect(ctx, state)
	state.Apply(leadUpdate)
	if !proceed {
		state.NextStep = model.StepEnd
		return
	}

	state.Apply(e.extractor.ExtractSearch(ctx, state))
	e.enrichLeadProfile(ctx, state)

	if state.ValidationError != "" {
		msg := state.ValidationError
		state.ValidationError = ""
		state.Apply(model.Reply(msg))
		state.NextStep = model.StepEnd
		return
	}

	step := Decide(state)
	if step == model.StepCheckInventory {
		inv := e.generator.CheckInventory(ctx, state)
		state.Apply(inv)
		if len(inv.AppendMessages) > 0 {
			return
		}
		// The check passed quietly; keep the search moving.
		step = Decide(state)
	}

	switch step {
	case model.StepDisplayResults:
		state.Apply(e.presenter.Present(state))
	case model.StepAskLocation, model.StepAskBudget, model.StepAskGender:
		state.Apply(e.generator.AskMissing(state, step))
	case model.StepExecuteSearch:
		update, err := e.search.Search(ctx, state)
		if err != nil {
			log.Printf("Engine: search failed for %s: %v", state.ThreadID, err)
			state.Apply(model.Reply("I had trouble searching just now. Could you try once more in a moment?"))
			state.NextStep = model.StepEnd
			return
		}
		state.Apply(update)
		state.Apply(e.presenter.Present(state))
	}
}

// enrichLeadProfile copies demographics the user mentioned while searching
// onto their lead record, so the next agent never has to ask again.
func (e *Engine) enrichLeadProfile(ctx context.Context, state *model.SessionState) {
	if state.UserEmail == "" || state.Filters == nil {
		return
	}
	var extract model.LeadExtract
	if state.Filters.GenderPreference != nil {
		extract.Gender = *state.Filters.GenderPreference
	}
	if state.Filters.Nationality != nil {
		extract.Nationality = *state.Filters.Nationality
	}
	if extract.Gender == "" && extract.Nationality == "" {
		return
	}
	e.leadCollector.Enrich(ctx, state, extract)
}

// recordLead persists the per-agent interaction row, with a model-written
// summary every few turns so a returning lead has context.
func (e *Engine) recordLead(ctx context.Context, state *model.SessionState) {
	if state.Lead == nil {
		return
	}

	summary := ""
	if len(state.Messages) >= 6 && len(state.Messages)%6 == 0 && e.llm.IsEnabled() {
		text, err := e.llm.Complete(ctx,
			"Summarize this property conversation in two sentences for the agent's CRM: what the person wants and how far along they are. Plain text.",
			transcript(state.RecentMessages(12)), 0.3)
		if err != nil {
			log.Printf("Engine: summary generation failed: %v", err)
		} else {
			summary = text
		}
	}

	e.leadCollector.RecordInteraction(ctx, state, summary)
}

// ResetSession discards a conversation entirely.
func (e *Engine) ResetSession(ctx context.Context, threadID string) error {
	return e.store.Delete(ctx, threadID)
}

func (e *Engine) logMessage(ctx context.Context, state *model.SessionState, sender, message string) {
	if e.chatlog == nil {
		return
	}
	if err := e.chatlog.LogMessage(ctx, state.ThreadID, state.UserID, state.AgentID, sender, message); err != nil {
		log.Printf("Engine: chat log write failed: %v", err)
	}
}
