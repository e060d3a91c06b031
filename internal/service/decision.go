package service

import (
	"strings"

	"proppanda/internal/model"
	"proppanda/internal/utils"
)

// Decide picks the next node for the search flow. It is a pure function of
// the session state so the progression is fully testable: pending
// availability questions come first, then pagination, then the required
// criteria in a fixed order, and only a complete criteria set reaches the
// database.
func Decide(state *model.SessionState) model.NextStep {
	if state.InventoryStatus == model.InventoryPending {
		return model.StepCheckInventory
	}

	message := state.LastUserMessage()
	if state.RemainingProperties() > 0 &&
		(utils.EqualsAny(message, paginationEquals) || utils.ContainsAny(strings.ToLower(message), paginationContains)) {
		return model.StepDisplayResults
	}

	f := state.Filters
	if f == nil || !f.HasLocation() {
		return model.StepAskLocation
	}
	if !f.HasBudgetCap() {
		return model.StepAskBudget
	}
	if model.IsRoomBased(state.TargetTable) && !f.HasGender() {
		return model.StepAskGender
	}

	return model.StepExecuteSearch
}
