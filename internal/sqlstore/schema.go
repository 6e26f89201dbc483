package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
)

// Timestamps are unix microseconds so both engines compare them the same way.
const schema = `
CREATE TABLE IF NOT EXISTS order_items (
    id                      TEXT PRIMARY KEY,
    order_id                TEXT NOT NULL,
    table_id                TEXT NOT NULL DEFAULT '',
    name                    TEXT NOT NULL DEFAULT '',
    quantity                INTEGER NOT NULL CHECK (quantity > 0),
    order_time              BIGINT NOT NULL,
    is_quick_cook           BOOLEAN NOT NULL DEFAULT FALSE,
    requires_cooking        BOOLEAN NOT NULL DEFAULT TRUE,
    is_empty_table_priority BOOLEAN NOT NULL DEFAULT FALSE,
    served_dishes_count     INTEGER NOT NULL DEFAULT 0,
    status                  TEXT NOT NULL CHECK (status IN ('pending', 'preparing', 'ready', 'served', 'canceled')),
    order_type              TEXT NOT NULL DEFAULT '',
    notes                   TEXT NOT NULL DEFAULT '',
    group_key               TEXT NOT NULL,
    started_at              BIGINT,
    ready_at                BIGINT,
    served_at               BIGINT,
    canceled_at             BIGINT,
    created_at              BIGINT NOT NULL,
    updated_at              BIGINT NOT NULL,
    version                 BIGINT NOT NULL DEFAULT 1
);

-- One row per party seated at a table: a group key plus the order.
CREATE TABLE IF NOT EXISTS table_parties (
    group_key           TEXT NOT NULL,
    order_id            TEXT NOT NULL,
    served_dishes_count INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (group_key, order_id)
);

CREATE INDEX IF NOT EXISTS idx_order_items_status ON order_items(status, requires_cooking);
CREATE INDEX IF NOT EXISTS idx_order_items_party ON order_items(group_key, order_id);
CREATE INDEX IF NOT EXISTS idx_order_items_ready_at ON order_items(ready_at);
`

// EnsureSchema creates the tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
