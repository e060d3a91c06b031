package repository

import (
	"context"
	"fmt"
)

// LogMessage appends one transcript line to the chat log. Callers treat
// failures as non-fatal; losing a log line must never break a turn.
func (r *PostgresRepository) LogMessage(ctx context.Context, sessionID, userID, agentID, sender, message string) error {
	query := `
		INSERT INTO chat_logs (session_id, user_id, agent_id, sender, message, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := r.db.ExecContext(ctx, query, sessionID, userID, agentID, sender, message)
	if err != nil {
		return fmt.Errorf("failed to log chat message: %w", err)
	}
	return nil
}
