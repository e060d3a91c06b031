package service

import (
	"context"
	"log"

	"proppanda/internal/model"
)

// LeadCollector captures who we are talking to. An email address gates the
// search flow; everything else is picked up opportunistically from what the
// user volunteers and merged into the lead record without re-asking other
// agents' questions.
type LeadCollector struct {
	leads     LeadStore
	extractor *Extractor
}

// NewLeadCollector creates a lead collector
func NewLeadCollector(leads LeadStore, extractor *Extractor) *LeadCollector {
	return &LeadCollector{leads: leads, extractor: extractor}
}

// Collect ensures we have an email for the session. The second return is
// false when the turn must stop and wait for the user's answer.
func (c *LeadCollector) Collect(ctx context.Context, state *model.SessionState) (model.StateUpdate, bool) {
	if state.UserEmail != "" {
		return model.StateUpdate{ActiveFlow: model.FlowPtr(model.FlowNone)}, true
	}

	// The email ask must not trap the user; "never mind" releases the flow.
	if state.ActiveFlow == model.FlowLead && IsExitMessage(state.LastUserMessage()) {
		update := model.StateUpdate{ActiveFlow: model.FlowPtr(model.FlowNone), NextStep: model.StepEnd}
		return withReply(update,
			"No problem, we can skip that for now. What would you like to do next?"), false
	}

	extract := c.extractor.ExtractLead(ctx, state)
	if extract.Email == "" {
		update := model.StateUpdate{ActiveFlow: model.FlowPtr(model.FlowLead)}
		return withReply(update,
			"Happy to help with that! Could I grab your email first so I can send you the details?"), false
	}

	lead := leadFromExtract(extract)
	if id, err := c.leads.UpsertLead(ctx, lead); err != nil {
		// Persistence trouble should not block the search.
		log.Printf("LeadCollector: upsert failed for %s: %v", extract.Email, err)
	} else {
		lead.ID = id
	}

	if stored, err := c.leads.GetLeadByEmail(ctx, extract.Email); err == nil && stored != nil {
		lead = stored
	}

	update := model.StateUpdate{
		UserEmail:  model.StrPtr(extract.Email),
		Lead:       lead,
		ActiveFlow: model.FlowPtr(model.FlowNone),
	}

	// A returning lead may have told this agent their criteria before; seed
	// the fresh session from that record rather than re-asking everything.
	if lead.ID != 0 && !hasSearchCriteria(state.Filters) {
		if prior, err := c.leads.GetInteraction(ctx, lead.ID, state.AgentID); err == nil && prior != nil {
			update.Filters = priorCriteria(state.Filters, prior)
		}
	}

	return update, true
}

func hasSearchCriteria(f *model.PropertyFilters) bool {
	return f != nil && (f.LocationPreference != nil || f.BudgetMin != nil || f.BudgetMax != nil)
}

func priorCriteria(current *model.PropertyFilters, prior *model.LeadInteraction) *model.PropertyFilters {
	f := &model.PropertyFilters{}
	if current != nil {
		copied := *current
		f = &copied
	}
	f.LocationPreference = prior.LocationPreference
	f.BudgetMin = prior.BudgetMin
	f.BudgetMax = prior.BudgetMax
	return f
}

// Enrich persists any personal details volunteered mid-conversation.
func (c *LeadCollector) Enrich(ctx context.Context, state *model.SessionState, extract model.LeadExtract) {
	if state.UserEmail == "" {
		return
	}
	extract.Email = state.UserEmail
	if _, err := c.leads.UpsertLead(ctx, leadFromExtract(extract)); err != nil {
		log.Printf("LeadCollector: enrich failed for %s: %v", state.UserEmail, err)
	}
}

// RecordInteraction saves what this agent now knows about the lead.
func (c *LeadCollector) RecordInteraction(ctx context.Context, state *model.SessionState, summary string) {
	if state.Lead == nil || state.Lead.ID == 0 {
		return
	}

	in := &model.LeadInteraction{
		LeadID:    state.Lead.ID,
		AgentID:   state.AgentID,
		SessionID: model.StrPtr(state.ThreadID),
	}
	if state.TargetTable != "" {
		in.LastTargetTable = model.StrPtr(state.TargetTable)
	}
	if summary != "" {
		in.ConversationSummary = model.StrPtr(summary)
	}
	if f := state.Filters; f != nil {
		in.BudgetMin = f.BudgetMin
		in.BudgetMax = f.BudgetMax
		in.LocationPreference = f.LocationPreference
	}

	if err := c.leads.SaveInteraction(ctx, in); err != nil {
		log.Printf("LeadCollector: interaction save failed for lead %d: %v", state.Lead.ID, err)
	}
}

func leadFromExtract(e model.LeadExtract) *model.Lead {
	lead := &model.Lead{Email: e.Email}
	set := func(dst **string, v string) {
		if v != "" {
			*dst = &v
		}
	}
	set(&lead.Name, e.Name)
	set(&lead.Phone, e.Phone)
	set(&lead.Gender, e.Gender)
	set(&lead.Nationality, e.Nationality)
	set(&lead.Profession, e.Profession)
	set(&lead.AgeGroup, e.AgeGroup)
	set(&lead.PassType, e.PassType)
	return lead
}

// MissingProfilePrompt asks for the next unknown profile field, if the
// agent wants to fill the lead record further. Returns "" when complete.
func MissingProfilePrompt(lead *model.Lead, table string) string {
	if lead == nil {
		return ""
	}
	missing := lead.MissingDemographics(table)
	if len(missing) == 0 {
		return ""
	}
	switch missing[0] {
	case "name":
		return "By the way, may I have your name?"
	case "phone":
		return "Could I also get a contact number for the agent to reach you?"
	case "gender":
		return "May I ask if you're male or female? Some units have house rules around this."
	case "nationality":
		return "May I ask your nationality? Some landlords have preferences."
	case "profession":
		return "What do you do for work, if you don't mind me asking?"
	case "age_group":
		return "Which age group are you in, roughly?"
	}
	return ""
}
