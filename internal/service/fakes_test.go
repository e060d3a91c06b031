package service

import (
	"context"
	"errors"

	"proppanda/internal/model"
)

// Shared fakes for the service tests. Each fake records what it was asked
// so tests can assert on the queries the services build.

type fakeLLM struct {
	// jsonFn answers CompleteJSON; textFn answers Complete. Nil means the
	// call fails.
	jsonFn func(system, user string) string
	textFn func(system, user string) string

	jsonCalls int
	textCalls int
}

var errLLMDown = errors.New("model unavailable")

func (f *fakeLLM) Complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	f.textCalls++
	if f.textFn == nil {
		return "", errLLMDown
	}
	return f.textFn(system, user), nil
}

func (f *fakeLLM) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	f.jsonCalls++
	if f.jsonFn == nil {
		return "", errLLMDown
	}
	return f.jsonFn(system, user), nil
}

func (f *fakeLLM) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeLLM) IsEnabled() bool { return true }

type fakePropertyStore struct {
	searchFn  func(q model.PropertyQuery) ([]model.Property, error)
	byRefFn   func(table, ref string) (*model.Property, error)
	envs      map[string]bool
	queries   []model.PropertyQuery
	refLookup []string
}

func (f *fakePropertyStore) SearchProperties(ctx context.Context, q model.PropertyQuery) ([]model.Property, error) {
	f.queries = append(f.queries, q)
	if f.searchFn == nil {
		return nil, nil
	}
	return f.searchFn(q)
}

func (f *fakePropertyStore) GetByUnitRef(ctx context.Context, table, ref string) (*model.Property, error) {
	f.refLookup = append(f.refLookup, ref)
	if f.byRefFn == nil {
		return nil, nil
	}
	return f.byRefFn(table, ref)
}

func (f *fakePropertyStore) DistinctEnvironments(ctx context.Context, table string) (map[string]bool, error) {
	return f.envs, nil
}

type fakeGeocoder struct {
	lat, lng float64
	found    bool
	err      error
	calls    []string
}

func (f *fakeGeocoder) Geocode(ctx context.Context, place string) (float64, float64, bool, error) {
	f.calls = append(f.calls, place)
	return f.lat, f.lng, f.found, f.err
}

type fakeAgentStore struct {
	agent *model.Agent
	err   error
}

func (f *fakeAgentStore) GetAgent(ctx context.Context, agentID string) (*model.Agent, error) {
	return f.agent, f.err
}

type fakeScheduler struct {
	slots    []model.DaySlots
	slotsErr error
	bookErr  error
	booked   []BookingPayload
}

func (f *fakeScheduler) AvailableSlots(ctx context.Context, agentID, timePreference string) ([]model.DaySlots, error) {
	return f.slots, f.slotsErr
}

func (f *fakeScheduler) ScheduleAppointment(ctx context.Context, booking BookingPayload) error {
	if f.bookErr != nil {
		return f.bookErr
	}
	f.booked = append(f.booked, booking)
	return nil
}

type fakeLeadStore struct {
	leads       map[string]*model.Lead
	upserted    []*model.Lead
	saved       []*model.LeadInteraction
	interaction *model.LeadInteraction
}

func newFakeLeadStore() *fakeLeadStore {
	return &fakeLeadStore{leads: make(map[string]*model.Lead)}
}

func (f *fakeLeadStore) GetLeadByEmail(ctx context.Context, email string) (*model.Lead, error) {
	return f.leads[email], nil
}

func (f *fakeLeadStore) UpsertLead(ctx context.Context, lead *model.Lead) (int64, error) {
	f.upserted = append(f.upserted, lead)
	if lead.Email == "" {
		return 0, nil
	}
	if existing, ok := f.leads[lead.Email]; ok {
		return existing.ID, nil
	}
	id := int64(len(f.leads) + 1)
	stored := *lead
	stored.ID = id
	f.leads[lead.Email] = &stored
	return id, nil
}

func (f *fakeLeadStore) SaveInteraction(ctx context.Context, in *model.LeadInteraction) error {
	f.saved = append(f.saved, in)
	return nil
}

func (f *fakeLeadStore) GetInteraction(ctx context.Context, leadID int64, agentID string) (*model.LeadInteraction, error) {
	if f.interaction != nil && f.interaction.LeadID == leadID && f.interaction.AgentID == agentID {
		return f.interaction, nil
	}
	return nil, nil
}

type fakeKnowledgeStore struct {
	docs []model.KnowledgeDoc
	faqs []model.FAQ
}

func (f *fakeKnowledgeStore) SearchDocuments(ctx context.Context, agentID string, embedding []float32, limit int) ([]model.KnowledgeDoc, error) {
	return f.docs, nil
}

func (f *fakeKnowledgeStore) GetFAQs(ctx context.Context, agentID string) ([]model.FAQ, error) {
	return f.faqs, nil
}

// Interface checks keep the fakes honest.
var (
	_ LLMClient      = (*fakeLLM)(nil)
	_ PropertyStore  = (*fakePropertyStore)(nil)
	_ Geocoder       = (*fakeGeocoder)(nil)
	_ AgentStore     = (*fakeAgentStore)(nil)
	_ Scheduler      = (*fakeScheduler)(nil)
	_ LeadStore      = (*fakeLeadStore)(nil)
	_ KnowledgeStore = (*fakeKnowledgeStore)(nil)
)
