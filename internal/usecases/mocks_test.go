package usecases

import (
	"context"
	"time"

	"neobot/internal/entities"
	"neobot/internal/interfaces"
)

type mockSessionStore struct {
	sessions  map[int]*entities.Session
	getErr    error
	upsertErr error
	upserts   []interfaces.SessionFields
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[int]*entities.Session)}
}

func (m *mockSessionStore) Get(ctx context.Context, tenantID int) (*entities.Session, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.sessions[tenantID]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (m *mockSessionStore) Upsert(ctx context.Context, tenantID int, fields interfaces.SessionFields) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts = append(m.upserts, fields)
	m.sessions[tenantID] = &entities.Session{
		TenantID:     tenantID,
		QRCode:       fields.QRCode,
		IsConnected:  fields.IsConnected,
		PhoneNumber:  fields.PhoneNumber,
		ConnectedAt:  fields.ConnectedAt,
		LastActivity: fields.LastActivity,
	}
	return nil
}

type mockTransport struct {
	qr         string
	genErr     error
	sendErr    error
	probeAlive bool
	probeErr   error

	genCalls   int
	sendCalls  int
	probeCalls int
	sentTo     []string
	sentBodies []string
}

func (m *mockTransport) GenerateSession(ctx context.Context, tenantID int) (string, error) {
	m.genCalls++
	if m.genErr != nil {
		return "", m.genErr
	}
	return m.qr, nil
}

func (m *mockTransport) Send(ctx context.Context, tenantID int, to, body string) error {
	m.sendCalls++
	m.sentTo = append(m.sentTo, to)
	m.sentBodies = append(m.sentBodies, body)
	return m.sendErr
}

func (m *mockTransport) Probe(ctx context.Context, tenantID int) (bool, error) {
	m.probeCalls++
	if m.probeErr != nil {
		return false, m.probeErr
	}
	return m.probeAlive, nil
}

type mockMessageStore struct {
	count    int
	countErr error

	lastFrom time.Time
	lastTo   time.Time

	appendErr error
	appended  []appendedMessage
	nextConv  int
}

type appendedMessage struct {
	conversationID int
	content        string
	direction      string
	isAI           bool
}

func (m *mockMessageStore) EnsureConversation(ctx context.Context, tenantID int, customerPhone string) (*entities.Conversation, error) {
	m.nextConv++
	return &entities.Conversation{ID: m.nextConv, TenantID: tenantID, CustomerPhone: customerPhone}, nil
}

func (m *mockMessageStore) Append(ctx context.Context, conversationID int, content, direction string, isAI bool) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appended = append(m.appended, appendedMessage{conversationID, content, direction, isAI})
	return nil
}

func (m *mockMessageStore) CountOutboundBetween(ctx context.Context, tenantID int, from, to time.Time) (int, error) {
	m.lastFrom, m.lastTo = from, to
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.count, nil
}

type mockTenantStore struct {
	tenants     map[int]*entities.Tenant
	incremented []int
}

func newMockTenantStore() *mockTenantStore {
	return &mockTenantStore{tenants: make(map[int]*entities.Tenant)}
}

func (m *mockTenantStore) GetByID(ctx context.Context, id int) (*entities.Tenant, error) {
	return m.tenants[id], nil
}

func (m *mockTenantStore) ListActive(ctx context.Context) ([]entities.Tenant, error) {
	var out []entities.Tenant
	for _, t := range m.tenants {
		if t.IsActive {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockTenantStore) IncrementMessagesUsed(ctx context.Context, id int) error {
	m.incremented = append(m.incremented, id)
	return nil
}

type mockQuotaCache struct {
	values      map[int]int
	sets        map[int]int
	invalidated []int
}

func newMockQuotaCache() *mockQuotaCache {
	return &mockQuotaCache{values: make(map[int]int), sets: make(map[int]int)}
}

func (m *mockQuotaCache) Get(ctx context.Context, tenantID int) (int, bool) {
	v, ok := m.values[tenantID]
	return v, ok
}

func (m *mockQuotaCache) Set(ctx context.Context, tenantID int, count int) {
	m.sets[tenantID] = count
}

func (m *mockQuotaCache) Invalidate(ctx context.Context, tenantID int) {
	m.invalidated = append(m.invalidated, tenantID)
	delete(m.values, tenantID)
}

type mockNotifier struct {
	messages []string
}

func (m *mockNotifier) Notify(ctx context.Context, message string) {
	m.messages = append(m.messages, message)
}

type mockAIClient struct {
	reply string
	err   error
	calls int
}

func (m *mockAIClient) GenerateResponse(ctx context.Context, message, businessType, businessName string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}
