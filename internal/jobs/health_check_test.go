package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neobot/internal/entities"
	"neobot/internal/interfaces"
	"neobot/internal/usecases"
)

type stubTenantStore struct {
	active []entities.Tenant
}

func (s *stubTenantStore) GetByID(ctx context.Context, id int) (*entities.Tenant, error) {
	return nil, nil
}

func (s *stubTenantStore) ListActive(ctx context.Context) ([]entities.Tenant, error) {
	return s.active, nil
}

func (s *stubTenantStore) IncrementMessagesUsed(ctx context.Context, id int) error {
	return nil
}

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[int]*entities.Session
}

func (s *stubSessionStore) Get(ctx context.Context, tenantID int) (*entities.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[tenantID]
	if !ok {
		return nil, nil
	}
	copied := *sess
	return &copied, nil
}

func (s *stubSessionStore) Upsert(ctx context.Context, tenantID int, fields interfaces.SessionFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[tenantID] = &entities.Session{
		TenantID:     tenantID,
		QRCode:       fields.QRCode,
		IsConnected:  fields.IsConnected,
		PhoneNumber:  fields.PhoneNumber,
		ConnectedAt:  fields.ConnectedAt,
		LastActivity: fields.LastActivity,
	}
	return nil
}

type deadTransport struct {
	mu     sync.Mutex
	probed []int
}

func (t *deadTransport) GenerateSession(ctx context.Context, tenantID int) (string, error) {
	return "", nil
}

func (t *deadTransport) Send(ctx context.Context, tenantID int, to, body string) error {
	return nil
}

func (t *deadTransport) Probe(ctx context.Context, tenantID int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.probed = append(t.probed, tenantID)
	return false, nil
}

type countingMessageStore struct{}

func (countingMessageStore) EnsureConversation(ctx context.Context, tenantID int, customerPhone string) (*entities.Conversation, error) {
	return &entities.Conversation{}, nil
}

func (countingMessageStore) Append(ctx context.Context, conversationID int, content, direction string, isAI bool) error {
	return nil
}

func (countingMessageStore) CountOutboundBetween(ctx context.Context, tenantID int, from, to time.Time) (int, error) {
	return 0, nil
}

func TestSweepDowngradesDeadSessions(t *testing.T) {
	sessions := &stubSessionStore{sessions: map[int]*entities.Session{
		1: {TenantID: 1, IsConnected: true, PhoneNumber: "+237650000001"},
		2: {TenantID: 2}, // awaiting scan: nothing to probe
	}}
	transport := &deadTransport{}
	quota := usecases.NewQuotaCounter(countingMessageStore{}, nil)
	lifecycle := usecases.NewConnectionLifecycle(sessions, transport, quota, nil)

	tenants := &stubTenantStore{active: []entities.Tenant{{ID: 1}, {ID: 2}}}
	job := NewHealthCheckJob(tenants, lifecycle, time.Minute)

	job.sweep()

	assert.Equal(t, []int{1}, transport.probed, "only connected sessions get probed")

	sess, err := sessions.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, sess.IsConnected)
	assert.Empty(t, sess.PhoneNumber)
}

func TestStartStopDoesNotLeak(t *testing.T) {
	tenants := &stubTenantStore{}
	quota := usecases.NewQuotaCounter(countingMessageStore{}, nil)
	sessions := &stubSessionStore{sessions: map[int]*entities.Session{}}
	lifecycle := usecases.NewConnectionLifecycle(sessions, &deadTransport{}, quota, nil)

	job := NewHealthCheckJob(tenants, lifecycle, 10*time.Millisecond)
	job.Start()
	time.Sleep(30 * time.Millisecond)
	job.Stop()
}
