package db

import (
	"context"
	"fmt"
)

// Document collections live in one JSONB table each; outbox_tasks is the only
// relational table.
var collectionTables = []string{
	"machines",
	"orders",
	"payments",
	"tokens",
	"vouchers",
	"users",
}

const outboxSchema = `
CREATE TABLE IF NOT EXISTS outbox_tasks (
    id UUID PRIMARY KEY,
    status TEXT NOT NULL,
    payload JSONB NOT NULL,
    topic TEXT NOT NULL,
    attempts INT NOT NULL DEFAULT 0,
    last_error TEXT,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_outbox_tasks_status ON outbox_tasks (status, updated_at);
`

func InitSchema(ctx context.Context, database DB) error {
	for _, table := range collectionTables {
		query := fmt.Sprintf(`
            CREATE TABLE IF NOT EXISTS %s (
                id TEXT PRIMARY KEY,
                data JSONB NOT NULL
            )`, table)
		if _, err := database.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}

	if _, err := database.Exec(ctx, outboxSchema); err != nil {
		return fmt.Errorf("failed to create outbox schema: %w", err)
	}
	return nil
}
