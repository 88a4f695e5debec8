package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(connString string) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Pool configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	client := &PostgresClient{Pool: pool}

	// Auto-migrate schema
	if err := client.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

func (p *PostgresClient) Migrate() error {
	ctx := context.Background()

	// Tenants Table
	_, err := p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tenants (
			id SERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			email VARCHAR(100) UNIQUE NOT NULL,
			phone VARCHAR(20) NOT NULL DEFAULT '',
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) DEFAULT 'tenant',
			business_type VARCHAR(50) DEFAULT 'service',
			is_active BOOLEAN DEFAULT TRUE,
			plan VARCHAR(20) DEFAULT 'basique',
			messages_limit INT DEFAULT 1000,
			messages_used INT DEFAULT 0,
			is_trial BOOLEAN DEFAULT TRUE,
			trial_ends_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("create tenants table: %w", err)
	}

	// WhatsApp Sessions Table. UNIQUE(tenant_id): at most one session per
	// tenant, mutated in place, never deleted.
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS whatsapp_sessions (
			id SERIAL PRIMARY KEY,
			tenant_id INT UNIQUE NOT NULL REFERENCES tenants(id),
			qr_code TEXT,
			is_connected BOOLEAN DEFAULT FALSE,
			phone_number VARCHAR(20),
			connected_at TIMESTAMPTZ,
			last_activity TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("create whatsapp_sessions table: %w", err)
	}

	// Conversations Table
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS conversations (
			id SERIAL PRIMARY KEY,
			tenant_id INT NOT NULL REFERENCES tenants(id),
			customer_phone VARCHAR(20) NOT NULL,
			customer_name VARCHAR(100),
			status VARCHAR(20) DEFAULT 'active',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			last_message_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE (tenant_id, customer_phone)
		);
	`)
	if err != nil {
		return fmt.Errorf("create conversations table: %w", err)
	}

	// Messages Table (append-only log; daily usage is derived from it)
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id SERIAL PRIMARY KEY,
			conversation_id INT NOT NULL REFERENCES conversations(id),
			content TEXT NOT NULL,
			direction VARCHAR(10) NOT NULL,
			is_ai BOOLEAN DEFAULT FALSE,
			message_type VARCHAR(20) DEFAULT 'text',
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("create messages table: %w", err)
	}

	// Index for the per-tenant daily outbound count query
	_, err = p.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_messages_direction_created
		ON messages (conversation_id, direction, created_at);
	`)
	if err != nil {
		return fmt.Errorf("create messages index: %w", err)
	}

	// Payments Table
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS payments (
			id SERIAL PRIMARY KEY,
			tenant_id INT NOT NULL REFERENCES tenants(id),
			reference VARCHAR(100) UNIQUE NOT NULL,
			plan VARCHAR(20) NOT NULL,
			amount_fcfa INT NOT NULL,
			status VARCHAR(20) DEFAULT 'pending',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("create payments table: %w", err)
	}

	return nil
}

func (p *PostgresClient) Close() {
	p.Pool.Close()
}
