package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"proppanda/internal/config"
	"proppanda/internal/model"
	"proppanda/internal/utils"
)

// WebhookScheduler talks to the external scheduling workflow over two
// webhooks: one for availability, one for the actual booking.
type WebhookScheduler struct {
	config     *config.SchedulerConfig
	httpClient *http.Client
}

var _ Scheduler = (*WebhookScheduler)(nil)

// NewWebhookScheduler creates a scheduling client
func NewWebhookScheduler(cfg *config.SchedulerConfig) *WebhookScheduler {
	return &WebhookScheduler{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

type slotsRequest struct {
	AgentID string `json:"agent_id"`
	// The webhook contract spells it this way; keep it.
	PreferedTime string `json:"prefered_time"`
}

type slotsResponse struct {
	Slots []model.DaySlots `json:"slots"`
	// Some workflow versions return the slots as a JSON string instead.
	SlotsString string `json:"slots_string,omitempty"`
}

// AvailableSlots fetches the agent's open viewing slots, capped at the
// configured number of days.
func (s *WebhookScheduler) AvailableSlots(ctx context.Context, agentID, timePreference string) ([]model.DaySlots, error) {
	if s.config.SlotsURL == "" {
		return nil, fmt.Errorf("scheduler slots URL is not configured")
	}

	body, err := s.post(ctx, s.config.SlotsURL, slotsRequest{AgentID: agentID, PreferedTime: timePreference})
	if err != nil {
		return nil, err
	}

	var resp slotsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal slots response: %w", err)
	}

	slots := resp.Slots
	if len(slots) == 0 && resp.SlotsString != "" {
		var nested struct {
			Slots []model.DaySlots `json:"slots"`
		}
		if err := utils.ParseAIJSON(resp.SlotsString, &nested); err != nil {
			return nil, fmt.Errorf("failed to parse nested slots payload: %w", err)
		}
		slots = nested.Slots
	}

	maxDays := s.config.MaxDays
	if maxDays <= 0 {
		maxDays = 5
	}
	if len(slots) > maxDays {
		slots = slots[:maxDays]
	}
	return slots, nil
}

// ScheduleAppointment posts the booking to the workflow.
func (s *WebhookScheduler) ScheduleAppointment(ctx context.Context, booking BookingPayload) error {
	if s.config.BookingURL == "" {
		return fmt.Errorf("scheduler booking URL is not configured")
	}
	_, err := s.post(ctx, s.config.BookingURL, booking)
	return err
}

func (s *WebhookScheduler) post(ctx context.Context, url string, payload interface{}) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scheduler payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach scheduler: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read scheduler response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scheduler request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
