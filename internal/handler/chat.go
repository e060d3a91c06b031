package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"proppanda/internal/model"
	"proppanda/internal/service"
)

// ChatHandler exposes the conversation engine over HTTP.
type ChatHandler struct {
	engine *service.Engine
	agents service.AgentStore
}

// NewChatHandler creates a chat handler
func NewChatHandler(engine *service.Engine, agents service.AgentStore) *ChatHandler {
	return &ChatHandler{engine: engine, agents: agents}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	start := time.Now()

	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	tc := service.TurnContext{
		AgentID:  req.AgentID,
		UserID:   req.UserID,
		UserName: req.UserName,
	}
	if req.AgentID != "" {
		if agent, err := h.agents.GetAgent(c.Request.Context(), req.AgentID); err != nil {
			log.Printf("ChatHandler: agent lookup failed for %s: %v", req.AgentID, err)
		} else if agent != nil {
			if agent.AgentName != nil {
				tc.AgentName = *agent.AgentName
			}
			if agent.CompanyName != nil {
				tc.CompanyName = *agent.CompanyName
			}
			if agent.Bio != nil {
				tc.AgentBio = *agent.Bio
			}
		}
	}

	reply, state, err := h.engine.ProcessTurn(c.Request.Context(), sessionID, req.Message, tc)
	if err != nil {
		log.Printf("ChatHandler: turn failed for session %s: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process message"})
		return
	}

	c.JSON(http.StatusOK, model.ChatResponse{
		Reply:     reply,
		SessionID: sessionID,
		NextStep:  string(state.NextStep),
		TookMs:    time.Since(start).Milliseconds(),
	})
}

// Reset handles DELETE /api/v1/chat/:session_id
func (h *ChatHandler) Reset(c *gin.Context) {
	sessionID := c.Param("session_id")
	if err := h.engine.ResetSession(c.Request.Context(), sessionID); err != nil {
		log.Printf("ChatHandler: reset failed for session %s: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset", "session_id": sessionID})
}
