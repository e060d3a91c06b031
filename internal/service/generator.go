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

// Generator produces the conversational replies that are not search
// results: questions for missing criteria, availability answers, and the
// open-ended chat path backed by the agent's knowledge base.
type Generator struct {
	llm           LLMClient
	properties    PropertyStore
	knowledge     KnowledgeStore
	historyWindow int
}

// NewGenerator creates a reply generator
func NewGenerator(llm LLMClient, properties PropertyStore, knowledge KnowledgeStore, historyWindow int) *Generator {
	if historyWindow <= 0 {
		historyWindow = 7
	}
	return &Generator{llm: llm, properties: properties, knowledge: knowledge, historyWindow: historyWindow}
}

// AskMissing asks for the criterion the decision step found missing. The
// questions are fixed; what varies is only which one fires.
func (g *Generator) AskMissing(state *model.SessionState, step model.NextStep) model.StateUpdate {
	update := model.StateUpdate{NextStep: model.StepEnd}

	var question string
	switch step {
	case model.StepAskLocation:
		question = "Which area of Singapore would you like to stay in? An MRT station or district works too, or just say \"anywhere\" if you're flexible."
	case model.StepAskBudget:
		question = "What's your monthly budget? A rough maximum is fine."
	case model.StepAskGender:
		question = "May I ask if you're male or female? Co-living houses often have rules about this."
	default:
		question = "Could you tell me a bit more about what you're looking for?"
	}

	return withReply(update, question)
}

// CheckInventory answers "is room X still available" by looking the unit
// up directly.
func (g *Generator) CheckInventory(ctx context.Context, state *model.SessionState) model.StateUpdate {
	update := model.StateUpdate{
		NextStep:        model.StepEnd,
		InventoryStatus: model.StrPtr(""),
	}

	ref := utils.RoomReference(state.LastUserMessage())
	if ref == "" {
		if state.Filters != nil && state.Filters.Environment != nil {
			return g.checkEnvironment(ctx, state, update)
		}
		return withReply(update, "Which room number were you asking about?")
	}

	prop, err := g.properties.GetByUnitRef(ctx, state.TargetTable, ref)
	if err != nil {
		log.Printf("Generator: inventory lookup %q failed: %v", ref, err)
		return withReply(update, "I couldn't check that room right now. Could you try again in a moment?")
	}

	if prop == nil || (prop.CurrentListing != nil && strings.EqualFold(*prop.CurrentListing, "inactive")) {
		return withReply(update, fmt.Sprintf(
			"It looks like room %s is no longer available, sorry about that. Want me to find you similar options?", ref))
	}

	update.SelectedProperty = prop
	update.InventoryStatus = model.StrPtr(model.InventoryConfirmed)

	reply := fmt.Sprintf("Good news, room %s at %s is still available", ref, prop.DisplayName())
	if rent := prop.Rent(); rent != nil {
		reply += fmt.Sprintf(" at S$%.0f/month", *rent)
	}
	reply += ". Would you like to book a viewing?"
	return withReply(update, reply)
}

// checkEnvironment verifies an environment ask ("a ladies unit") against
// what the table actually stocks before the search promises it.
func (g *Generator) checkEnvironment(ctx context.Context, state *model.SessionState, update model.StateUpdate) model.StateUpdate {
	want := strings.ToLower(*state.Filters.Environment)

	envs, err := g.properties.DistinctEnvironments(ctx, state.TargetTable)
	if err != nil {
		log.Printf("Generator: environment lookup failed: %v", err)
		update.InventoryStatus = model.StrPtr(model.InventoryConfirmed)
		return update
	}

	for env := range envs {
		if strings.Contains(strings.ToLower(env), want) || strings.Contains(want, strings.ToLower(env)) {
			update.InventoryStatus = model.StrPtr(model.InventoryConfirmed)
			return update
		}
	}

	available := make([]string, 0, len(envs))
	for env := range envs {
		available = append(available, env)
	}
	filters := *state.Filters
	filters.Environment = nil
	update.Filters = &filters
	reply := fmt.Sprintf("I don't have any %s units at the moment, sorry about that.", want)
	if len(available) > 0 {
		reply += " The houses I do have are: " + strings.Join(available, ", ") + ". Would any of those work?"
	} else {
		reply += " Want me to show you what's available instead?"
	}
	return withReply(update, reply)
}

const chatSystemPrompt = `You are %s, a property consultant%s in Singapore. It is currently %s in Singapore (%s).
%s
Stay warm and concise. You help people find rooms and homes; when the conversation drifts far from property, answer briefly and steer back.
If relevant reference material is provided below, ground your answer in it and do not invent facts beyond it.
%s`

// Chat handles everything that is not a search or booking: greetings,
// questions about the agent, and general questions answered from the
// knowledge base.
func (g *Generator) Chat(ctx context.Context, state *model.SessionState) model.StateUpdate {
	update := model.StateUpdate{NextStep: model.StepEnd}
	message := state.LastUserMessage()

	reference := g.retrieveKnowledge(ctx, state, message) + shownListings(state)

	persona := ""
	if state.CompanyName != "" {
		persona = " at " + state.CompanyName
	}
	bio := ""
	if state.AgentBio != "" {
		bio = "About you: " + state.AgentBio
	}

	now := singaporeNow()
	system := fmt.Sprintf(chatSystemPrompt,
		agentOr(state.AgentName), persona,
		dayGreeting(now), now.Format("Mon 15:04"),
		bio, reference)

	prompt := fmt.Sprintf("Conversation so far:\n%s\nLatest message: %s",
		transcript(state.RecentMessages(g.historyWindow)), message)

	text, err := g.llm.Complete(ctx, system, prompt, 0.7)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			log.Printf("Generator: chat completion failed: %v", err)
		}
		return withReply(update, "Sorry, I lost my train of thought for a second there. Could you say that again?")
	}

	return withReply(update, strings.TrimSpace(text))
}

// retrieveKnowledge pulls the agent's FAQ pairs plus the knowledge chunks
// nearest to the question. Retrieval failures degrade to an unassisted
// answer.
func (g *Generator) retrieveKnowledge(ctx context.Context, state *model.SessionState, message string) string {
	var b strings.Builder

	if faqs, err := g.knowledge.GetFAQs(ctx, state.AgentID); err == nil && len(faqs) > 0 {
		b.WriteString("\nFrequently asked questions:\n")
		for _, faq := range faqs {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", faq.Question, faq.Answer)
		}
	}

	if g.llm.IsEnabled() {
		embedding, err := g.llm.CreateEmbedding(ctx, message)
		if err != nil {
			log.Printf("Generator: embedding failed, skipping document retrieval: %v", err)
		} else if docs, err := g.knowledge.SearchDocuments(ctx, state.AgentID, embedding, 3); err == nil && len(docs) > 0 {
			b.WriteString("\nReference material:\n")
			for _, doc := range docs {
				if doc.Title != nil && *doc.Title != "" {
					fmt.Fprintf(&b, "[%s] ", *doc.Title)
				}
				b.WriteString(doc.Content)
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

// shownListings summarizes what the user has already been shown, so
// follow-up questions about a specific room can be answered in chat.
func shownListings(state *model.SessionState) string {
	if state.ShownCount == 0 || len(state.FoundProperties) == 0 {
		return ""
	}
	shown := state.FoundProperties
	if state.ShownCount < len(shown) {
		shown = shown[:state.ShownCount]
	}

	var b strings.Builder
	b.WriteString("\nListings already shown to the user:\n")
	for i, p := range shown {
		fmt.Fprintf(&b, "%d. %s", i+1, p.DisplayName())
		if ref := p.UnitRef(); ref != "" {
			fmt.Fprintf(&b, " (unit %s)", ref)
		}
		if rent := p.Rent(); rent != nil {
			fmt.Fprintf(&b, " S$%.0f/month", *rent)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func singaporeNow() time.Time {
	loc, err := time.LoadLocation("Asia/Singapore")
	if err != nil {
		return time.Now().UTC()
	}
	return time.Now().In(loc)
}

func dayGreeting(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "morning"
	case h < 18:
		return "afternoon"
	default:
		return "evening"
	}
}
