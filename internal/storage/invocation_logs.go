package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aranyasourav/triggerhub/internal/models"
)

// insertInvocation writes an invocation log row through whichever execer is
// given it, so it can run standalone against c.db or as one statement of a
// larger transaction against a *sql.Tx (see RecordEventDelivered and its
// siblings in event_queue.go / scheduled_queue.go).
func insertInvocation(ctx context.Context, exec execer, inv *models.InvocationLog) error {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO invocation_logs (id, queue, row_id, status, request, response, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, inv.ID, inv.Queue, inv.RowID, inv.Status, []byte(inv.Request), []byte(inv.Response), inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("record invocation: %w", err)
	}
	return nil
}

// RecordInvocation writes a standalone invocation log row with no
// accompanying queue-row transition. Queue dispatch never calls this
// directly — it goes through the atomic Record* combo methods instead — but
// it remains available for callers (tooling, backfills) that only need the
// log row.
func (c *MySQLClient) RecordInvocation(ctx context.Context, inv *models.InvocationLog) error {
	return insertInvocation(ctx, c.db, inv)
}

// ListInvocations returns invocation log rows for one queue row, most
// recent first — the admin API's per-event/per-scheduled-event drill down.
func (c *MySQLClient) ListInvocations(ctx context.Context, queue models.QueueKind, rowID string) ([]models.InvocationLog, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, queue, row_id, status, request, response, created_at
		FROM invocation_logs
		WHERE queue = ? AND row_id = ?
		ORDER BY created_at DESC
	`, queue, rowID)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()

	out := []models.InvocationLog{}
	for rows.Next() {
		var inv models.InvocationLog
		var request, response sql.NullString
		if err := rows.Scan(&inv.ID, &inv.Queue, &inv.RowID, &inv.Status, &request, &response, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		if request.Valid {
			inv.Request = json.RawMessage(request.String)
		}
		if response.Valid {
			inv.Response = json.RawMessage(response.String)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// ListInvocationsByIDs batches the drill-down lookup for multiple rows at
// once, used by list endpoints that show the latest invocation inline.
func (c *MySQLClient) ListInvocationsByIDs(ctx context.Context, queue models.QueueKind, rowIDs []string) (map[string][]models.InvocationLog, error) {
	out := make(map[string][]models.InvocationLog, len(rowIDs))
	if len(rowIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(rowIDs)), ",")
	args := make([]interface{}, 0, len(rowIDs)+1)
	args = append(args, queue)
	for _, id := range rowIDs {
		args = append(args, id)
	}

	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, queue, row_id, status, request, response, created_at
		FROM invocation_logs
		WHERE queue = ? AND row_id IN (%s)
		ORDER BY created_at DESC
	`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var inv models.InvocationLog
		var request, response sql.NullString
		if err := rows.Scan(&inv.ID, &inv.Queue, &inv.RowID, &inv.Status, &request, &response, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		if request.Valid {
			inv.Request = json.RawMessage(request.String)
		}
		if response.Valid {
			inv.Response = json.RawMessage(response.String)
		}
		out[inv.RowID] = append(out[inv.RowID], inv)
	}
	return out, rows.Err()
}
