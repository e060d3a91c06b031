package repository

import (
	"context"
	"database/sql"
	"fmt"

	"proppanda/internal/model"
)

// GetAgent loads an agent account with its capability flags. A nil result
// with nil error means no row exists, which callers treat as common mode.
func (r *PostgresRepository) GetAgent(ctx context.Context, agentID string) (*model.Agent, error) {
	query := `
		SELECT agent_id, agent_name, company_name, bio,
			coliving, rooms_for_rent, residential_rent, residential_sale,
			commercial_rent, commercial_sale, industrial_rent, industrial_sale
		FROM agents
		WHERE agent_id = $1
	`
	var agent model.Agent
	err := r.db.GetContext(ctx, &agent, query, agentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get agent %s: %w", agentID, err)
	}
	return &agent, nil
}
