package service

import (
	"fmt"
	"strings"

	"proppanda/internal/model"
)

// Presenter formats search results in batches so the user is never walled
// with ten listings at once.
type Presenter struct {
	batchSize int
}

// NewPresenter creates a result presenter
func NewPresenter(batchSize int) *Presenter {
	if batchSize <= 0 {
		batchSize = 3
	}
	return &Presenter{batchSize: batchSize}
}

// Present renders the next batch of found properties and advances the
// cursor.
func (p *Presenter) Present(state *model.SessionState) model.StateUpdate {
	total := len(state.FoundProperties)

	if total == 0 {
		return withReply(model.StateUpdate{NextStep: model.StepEnd},
			"I couldn't find anything matching all of that just yet. Want to try a different area or adjust the budget?")
	}

	if state.ShownCount >= total {
		return withReply(model.StateUpdate{NextStep: model.StepEnd},
			"That's everything I have for this search. We can change the area or budget to see different options.")
	}

	end := state.ShownCount + p.batchSize
	if end > total {
		end = total
	}
	batch := state.FoundProperties[state.ShownCount:end]

	var b strings.Builder
	if state.ShownCount == 0 {
		fmt.Fprintf(&b, "Here's what I found for you:\n\n")
	} else {
		fmt.Fprintf(&b, "Here are a few more:\n\n")
	}

	for i, prop := range batch {
		b.WriteString(p.formatProperty(state.ShownCount+i+1, &prop))
		b.WriteString("\n")
	}

	remaining := total - end
	if remaining > 0 {
		fmt.Fprintf(&b, "I have %d more option", remaining)
		if remaining > 1 {
			b.WriteString("s")
		}
		b.WriteString(". Want to see them?")
	} else {
		b.WriteString("Let me know if you'd like to view any of these.")
		// The last batch is a natural moment to fill a profile gap.
		if prompt := MissingProfilePrompt(state.Lead, state.TargetTable); prompt != "" {
			b.WriteString(" ")
			b.WriteString(prompt)
		}
	}

	update := model.StateUpdate{
		ShownCount: model.IntPtr(end),
		NextStep:   model.StepEnd,
	}
	return withReply(update, b.String())
}

func (p *Presenter) formatProperty(position int, prop *model.Property) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%d. %s", position, prop.DisplayName())
	if ref := prop.UnitRef(); ref != "" {
		fmt.Fprintf(&b, " (%s %s)", strings.ToLower(prop.UnitLabel()), ref)
	} else if label := prop.UnitLabel(); label != "Unit" {
		fmt.Fprintf(&b, " (%s)", strings.ToLower(label))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "   %s\n", prop.DisplayAddress())

	if rent := prop.Rent(); rent != nil {
		fmt.Fprintf(&b, "   S$%.0f/month\n", *rent)
	} else {
		b.WriteString("   Price on request\n")
	}

	if beds := prop.BedroomCount(); beds != nil {
		fmt.Fprintf(&b, "   %d bedroom", *beds)
		if *beds > 1 {
			b.WriteString("s")
		}
		b.WriteString("\n")
	}

	if prop.DistMeters != nil {
		fmt.Fprintf(&b, "   %.1f km away\n", *prop.DistMeters/1000)
	}

	if img := prop.FirstImage(); img != "" {
		fmt.Fprintf(&b, "   %s\n", img)
	}

	return b.String()
}

func withReply(update model.StateUpdate, reply string) model.StateUpdate {
	update.AppendMessages = append(update.AppendMessages,
		model.Message{Role: model.RoleAssistant, Content: reply})
	return update
}
