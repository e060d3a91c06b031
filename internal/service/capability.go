package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"proppanda/internal/model"
)

// CapabilityGate checks whether the agent account behind this conversation
// actually serves the requested property category before any search runs.
type CapabilityGate struct {
	agents AgentStore
}

// NewCapabilityGate creates a capability gate
func NewCapabilityGate(agents AgentStore) *CapabilityGate {
	return &CapabilityGate{agents: agents}
}

// Check approves or rejects the target table for the session's agent.
// An account with no capability row runs in common mode and serves
// everything. Approved checks hand off to the search flow.
func (g *CapabilityGate) Check(ctx context.Context, state *model.SessionState, table string) model.StateUpdate {
	agent, err := g.agents.GetAgent(ctx, state.AgentID)
	if err != nil {
		// A capability lookup failure must not kill the conversation.
		log.Printf("CapabilityGate: lookup failed for agent %s, approving: %v", state.AgentID, err)
		agent = nil
	}

	if agent == nil || agent.Serves(table) {
		return model.StateUpdate{
			TargetTable: model.StrPtr(table),
			NextStep:    model.StepPropertySearch,
		}
	}

	served := servedLabels(agent)
	var reply string
	if len(served) == 0 {
		reply = fmt.Sprintf("I'm sorry, we don't handle %s at the moment.", model.ServiceLabel(table))
	} else {
		reply = fmt.Sprintf("I'm sorry, we don't handle %s. We can help you with %s though. Would any of those work?",
			model.ServiceLabel(table), humanJoin(served))
	}

	update := model.StateUpdate{NextStep: model.StepEnd}
	return withReply(update, reply)
}

func servedLabels(agent *model.Agent) []string {
	tables := []string{
		model.TableColiving, model.TableRoomsForRent,
		model.TableResidentialRent, model.TableResidentialSale,
		model.TableCommercialRent, model.TableCommercialSale,
		model.TableIndustrialRent, model.TableIndustrialSale,
	}
	var labels []string
	for _, t := range tables {
		if agent.Serves(t) {
			labels = append(labels, model.ServiceLabel(t))
		}
	}
	return labels
}

func humanJoin(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
