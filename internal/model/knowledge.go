package model

// KnowledgeDoc is one chunk of an agent's knowledge base, retrieved by
// embedding similarity for off-topic questions.
type KnowledgeDoc struct {
	ID      int64   `json:"id" db:"id"`
	AgentID string  `json:"agent_id" db:"agent_id"`
	Title   *string `json:"title,omitempty" db:"title"`
	Content string  `json:"content" db:"content"`
}

// FAQ is a canned question/answer pair configured per agent.
type FAQ struct {
	Question string `json:"question" db:"question"`
	Answer   string `json:"answer" db:"answer"`
}
