package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/aranyasourav/triggerhub/internal/models"
)

// SetTriggerSchema upserts the optional JSON Schema used to validate the
// payload of ad-hoc scheduled-event inserts. No other payload is checked
// against it.
func (c *MySQLClient) SetTriggerSchema(ctx context.Context, kind models.TriggerKind, name string, schema json.RawMessage) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO trigger_schemas (kind, name, schema)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE schema = VALUES(schema)
	`, kind, name, []byte(schema))
	if err != nil {
		return fmt.Errorf("set trigger schema: %w", err)
	}
	return nil
}

// GetTriggerSchema returns the stored schema for a trigger, or nil if none
// has been uploaded.
func (c *MySQLClient) GetTriggerSchema(ctx context.Context, kind models.TriggerKind, name string) (json.RawMessage, error) {
	var schema sql.NullString
	err := c.db.QueryRowContext(ctx, `
		SELECT schema FROM trigger_schemas WHERE kind = ? AND name = ?
	`, kind, name).Scan(&schema)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get trigger schema: %w", err)
	}
	if !schema.Valid {
		return nil, nil
	}
	return json.RawMessage(schema.String), nil
}
