package infrastructure

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"

	_ "modernc.org/sqlite" // Pure Go SQLite driver for the device store
)

// WhatsAppTransport implements the Transport port on top of whatsmeow.
// One client per tenant, each with its own SQLite device store.
type WhatsAppTransport struct {
	clients map[int]*waClient
	mu      sync.RWMutex
	baseDir string
}

type waClient struct {
	client *whatsmeow.Client
}

func NewWhatsAppTransport(baseDir string) (*WhatsAppTransport, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create device store directory: %w", err)
	}

	return &WhatsAppTransport{
		clients: make(map[int]*waClient),
		baseDir: baseDir,
	}, nil
}

func (t *WhatsAppTransport) getClient(tenantID int) *waClient {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.clients[tenantID]
}

func (t *WhatsAppTransport) getOrCreateClient(tenantID int) (*waClient, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c, exists := t.clients[tenantID]; exists {
		return c, nil
	}

	dbPath := fmt.Sprintf("%s/tenant_%d.db", t.baseDir, tenantID)
	dbLog := waLog.Stdout("Database", "ERROR", true)
	container, err := sqlstore.New(context.Background(), "sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)", dbLog)
	if err != nil {
		return nil, fmt.Errorf("open device store for tenant %d: %w", tenantID, err)
	}

	deviceStore, err := container.GetFirstDevice(context.Background())
	if err != nil {
		return nil, fmt.Errorf("get device for tenant %d: %w", tenantID, err)
	}

	clientLog := waLog.Stdout("Client", "ERROR", true)
	c := &waClient{client: whatsmeow.NewClient(deviceStore, clientLog)}
	t.clients[tenantID] = c
	return c, nil
}

// GenerateSession connects the tenant's client and returns the first QR
// code emitted by the pairing channel. A previously paired device is
// logged out first so a fresh code can be issued.
func (t *WhatsAppTransport) GenerateSession(ctx context.Context, tenantID int) (string, error) {
	c, err := t.getOrCreateClient(tenantID)
	if err != nil {
		return "", err
	}

	if c.client.Store.ID != nil {
		if err := c.client.Logout(ctx); err != nil {
			log.Warn().Err(err).Int("tenant_id", tenantID).Msg("logout before re-pairing failed")
		}
		c.client.Disconnect()
	}

	qrChan, err := c.client.GetQRChannel(ctx)
	if err != nil {
		return "", fmt.Errorf("open QR channel for tenant %d: %w", tenantID, err)
	}
	if err := c.client.Connect(); err != nil {
		return "", fmt.Errorf("connect tenant %d: %w", tenantID, err)
	}

	select {
	case evt, ok := <-qrChan:
		if !ok {
			return "", fmt.Errorf("QR channel closed for tenant %d", tenantID)
		}
		if evt.Event != "code" {
			return "", fmt.Errorf("unexpected pairing event %q for tenant %d", evt.Event, tenantID)
		}
		// Drain the rest of the channel so whatsmeow can keep rotating
		// codes; the served payload is the one persisted by the caller.
		go func() {
			for range qrChan {
			}
		}()
		return evt.Code, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (t *WhatsAppTransport) Send(ctx context.Context, tenantID int, to, body string) error {
	c := t.getClient(tenantID)
	if c == nil || c.client.Store.ID == nil {
		return fmt.Errorf("no live session for tenant %d", tenantID)
	}

	// Customers are addressed by bare number ("2376...")
	jid, err := types.ParseJID(to + "@s.whatsapp.net")
	if err != nil {
		return fmt.Errorf("invalid number format: %w", err)
	}

	_, err = c.client.SendMessage(ctx, jid, &waProto.Message{
		Conversation: &body,
	})
	return err
}

func (t *WhatsAppTransport) Probe(ctx context.Context, tenantID int) (bool, error) {
	c := t.getClient(tenantID)
	if c == nil {
		return false, nil
	}
	return c.client.IsConnected() && c.client.Store.ID != nil, nil
}

// Disconnect drops the tenant's client, e.g. when an admin force-disables
// WhatsApp for the account.
func (t *WhatsAppTransport) Disconnect(tenantID int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c, exists := t.clients[tenantID]; exists {
		c.client.Disconnect()
		delete(t.clients, tenantID)
	}
}

// Close disconnects all clients for graceful shutdown.
func (t *WhatsAppTransport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, c := range t.clients {
		c.client.Disconnect()
	}
	t.clients = make(map[int]*waClient)
}
