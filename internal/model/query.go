package model

// PropertyQuery is one database search against a property table. The
// repository translates it into SQL; which extra clauses apply depends on
// the table family.
type PropertyQuery struct {
	Table   string
	Filters *PropertyFilters

	// TextSearch matches the cleaned location term against address and MRT
	// columns. Empty means no text constraint.
	TextSearch string

	// Lat/Lng switch the query to a radius search ordered by distance.
	Lat, Lng     *float64
	RadiusMeters float64

	Limit int
}

// ChatRequest is the inbound turn payload.
type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id,omitempty"`
	AgentID   string `json:"agent_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	UserName  string `json:"user_name,omitempty"`
}

// ChatResponse is the reply payload for one turn.
type ChatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
	NextStep  string `json:"next_step,omitempty"`
	TookMs    int64  `json:"took_ms"`
}
