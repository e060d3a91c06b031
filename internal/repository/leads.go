package repository

import (
	"context"
	"database/sql"
	"fmt"

	"proppanda/internal/model"
)

// GetLeadByEmail loads a lead record, or nil when none exists.
func (r *PostgresRepository) GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error) {
	query := `
		SELECT id, email, name, phone, gender, nationality, profession,
			age_group, pass_type, created_at, updated_at
		FROM leads
		WHERE LOWER(email) = LOWER($1)
	`
	var lead model.Lead
	err := r.db.GetContext(ctx, &lead, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lead %s: %w", email, err)
	}
	return &lead, nil
}

// UpsertLead inserts or enriches a lead by email. Existing profile values
// win over incoming ones; a lead telling agent B their nationality must not
// clobber what agent A already recorded. Returns the lead id.
func (r *PostgresRepository) UpsertLead(ctx context.Context, lead *model.Lead) (int64, error) {
	query := `
		INSERT INTO leads (email, name, phone, gender, nationality, profession, age_group, pass_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET
			name        = COALESCE(leads.name, EXCLUDED.name),
			phone       = COALESCE(leads.phone, EXCLUDED.phone),
			gender      = COALESCE(leads.gender, EXCLUDED.gender),
			nationality = COALESCE(leads.nationality, EXCLUDED.nationality),
			profession  = COALESCE(leads.profession, EXCLUDED.profession),
			age_group   = COALESCE(leads.age_group, EXCLUDED.age_group),
			pass_type   = COALESCE(leads.pass_type, EXCLUDED.pass_type),
			updated_at  = NOW()
		RETURNING id
	`
	var id int64
	err := r.db.GetContext(ctx, &id, query,
		lead.Email, lead.Name, lead.Phone, lead.Gender, lead.Nationality,
		lead.Profession, lead.AgeGroup, lead.PassType)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert lead %s: %w", lead.Email, err)
	}
	return id, nil
}

// SaveInteraction records what one agent learned about a lead. The
// conversation summary always reflects the latest session; the other
// fields only update when a new value was captured.
func (r *PostgresRepository) SaveInteraction(ctx context.Context, in *model.LeadInteraction) error {
	query := `
		INSERT INTO lead_interactions (lead_id, agent_id, session_id, last_target_table,
			conversation_summary, budget_min, budget_max, location_preference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (lead_id, agent_id) DO UPDATE SET
			session_id           = COALESCE(EXCLUDED.session_id, lead_interactions.session_id),
			last_target_table    = COALESCE(EXCLUDED.last_target_table, lead_interactions.last_target_table),
			conversation_summary = COALESCE(EXCLUDED.conversation_summary, lead_interactions.conversation_summary),
			budget_min           = COALESCE(EXCLUDED.budget_min, lead_interactions.budget_min),
			budget_max           = COALESCE(EXCLUDED.budget_max, lead_interactions.budget_max),
			location_preference  = COALESCE(EXCLUDED.location_preference, lead_interactions.location_preference)
	`
	_, err := r.db.ExecContext(ctx, query,
		in.LeadID, in.AgentID, in.SessionID, in.LastTargetTable,
		in.ConversationSummary, in.BudgetMin, in.BudgetMax, in.LocationPreference)
	if err != nil {
		return fmt.Errorf("failed to save interaction for lead %d: %w", in.LeadID, err)
	}
	return nil
}

// GetInteraction loads the per-agent view of a lead, or nil when the agent
// has never spoken to them.
func (r *PostgresRepository) GetInteraction(ctx context.Context, leadID int64, agentID string) (*model.LeadInteraction, error) {
	query := `
		SELECT lead_id, agent_id, session_id, last_target_table,
			conversation_summary, budget_min, budget_max, location_preference
		FROM lead_interactions
		WHERE lead_id = $1 AND agent_id = $2
	`
	var in model.LeadInteraction
	err := r.db.GetContext(ctx, &in, query, leadID, agentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get interaction for lead %d: %w", leadID, err)
	}
	return &in, nil
}
