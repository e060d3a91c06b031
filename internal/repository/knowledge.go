package repository

import (
	"context"
	"fmt"

	"proppanda/internal/model"

	"github.com/pgvector/pgvector-go"
)

// SearchDocuments returns the agent's knowledge chunks nearest to the query
// embedding.
func (r *PostgresRepository) SearchDocuments(ctx context.Context, agentID string, embedding []float32, limit int) ([]model.KnowledgeDoc, error) {
	if limit <= 0 {
		limit = 3
	}
	vec := pgvector.NewVector(embedding)
	query := `
		SELECT id, agent_id, title, content
		FROM agent_documents
		WHERE agent_id = $1
		ORDER BY embedding <-> $2
		LIMIT $3
	`
	var docs []model.KnowledgeDoc
	if err := r.db.SelectContext(ctx, &docs, query, agentID, vec, limit); err != nil {
		return nil, fmt.Errorf("failed to search documents for agent %s: %w", agentID, err)
	}
	return docs, nil
}

// GetFAQs returns the agent's configured FAQ pairs.
func (r *PostgresRepository) GetFAQs(ctx context.Context, agentID string) ([]model.FAQ, error) {
	query := `
		SELECT question, answer
		FROM agent_faqs
		WHERE agent_id = $1
		ORDER BY id
	`
	var faqs []model.FAQ
	if err := r.db.SelectContext(ctx, &faqs, query, agentID); err != nil {
		return nil, fmt.Errorf("failed to get FAQs for agent %s: %w", agentID, err)
	}
	return faqs, nil
}
