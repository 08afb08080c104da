package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aranyasourav/triggerhub/internal/models"
)

// ErrRowNotFound is returned by execRowUpdate when no row matched the
// target id, for either queue (observability endpoints use it to return
// 404 instead of a generic 500).
var ErrRowNotFound = errors.New("row not found")

// CreateEventLog inserts a new row change event into the ET queue. The id
// is an opaque UUID; fetch order comes from created_at.
func (c *MySQLClient) CreateEventLog(ctx context.Context, e *models.EventLog) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO event_log (id, schema_name, table_name, trigger_name, payload, tries, created_at, locked, delivered, error, archived)
		VALUES (?, ?, ?, ?, ?, 0, ?, 0, 0, 0, 0)
	`, e.ID, e.SchemaName, e.TableName, e.TriggerName, []byte(e.Payload), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

// LeaseEventLogs atomically claims up to limit non-terminal, unlocked,
// due rows and marks them locked, within a single transaction.
// Rows whose next_retry_at is in the future are excluded.
func (c *MySQLClient) LeaseEventLogs(ctx context.Context, now time.Time, limit int) ([]models.EventLog, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, schema_name, table_name, trigger_name, payload, tries, created_at, error
		FROM event_log
		WHERE locked = 0 AND delivered = 0 AND error = 0 AND archived = 0
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at ASC
		LIMIT ?
		FOR UPDATE SKIP LOCKED
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("select due event logs: %w", err)
	}

	var leased []models.EventLog
	ids := make([]string, 0, limit)
	for rows.Next() {
		var e models.EventLog
		var payload sql.NullString
		if err := rows.Scan(&e.ID, &e.SchemaName, &e.TableName, &e.TriggerName, &payload, &e.Tries, &e.CreatedAt, &e.Error); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan event log: %w", err)
		}
		if payload.Valid {
			e.Payload = json.RawMessage(payload.String)
		}
		e.Locked = true
		leased = append(leased, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate event logs: %w", err)
	}
	rows.Close()

	if len(ids) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
		args := make([]interface{}, len(ids))
		for i, id := range ids {
			args[i] = id
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			"UPDATE event_log SET locked = 1 WHERE id IN (%s)", placeholders), args...); err != nil {
			return nil, fmt.Errorf("lock event logs: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit lease: %w", err)
	}
	return leased, nil
}

// RecordEventDelivered atomically inserts the invocation log row and applies
// the event_log row's terminal delivered=1 transition in one transaction:
// either both writes land or neither does, so tries on the queue row always
// tracks the invocation_logs rows recorded for it one-for-one.
func (c *MySQLClient) RecordEventDelivered(ctx context.Context, inv *models.InvocationLog, id string, tries int) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertInvocation(ctx, tx, inv); err != nil {
			return err
		}
		return execRowUpdate(ctx, tx,
			`UPDATE event_log SET delivered = 1, locked = 0, tries = ?, next_retry_at = NULL WHERE id = ?`,
			"event log", tries, id)
	})
}

// RecordEventError atomically inserts the invocation log row and applies
// the event_log row's terminal error=1 transition (retries exhausted).
// Unlike the ST queue, ET clears next_retry_at on this transition (design
// note: the two source variants disagreed here; ET clears it).
func (c *MySQLClient) RecordEventError(ctx context.Context, inv *models.InvocationLog, id string, tries int) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertInvocation(ctx, tx, inv); err != nil {
			return err
		}
		return execRowUpdate(ctx, tx,
			`UPDATE event_log SET error = 1, locked = 0, tries = ?, next_retry_at = NULL WHERE id = ?`,
			"event log", tries, id)
	})
}

// RecordEventRetry atomically inserts the invocation log row and records a
// failed attempt that has retries remaining: bumps tries, sets
// next_retry_at, and unlocks the row for a later fetch cycle.
func (c *MySQLClient) RecordEventRetry(ctx context.Context, inv *models.InvocationLog, id string, tries int, nextRetryAt time.Time) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertInvocation(ctx, tx, inv); err != nil {
			return err
		}
		return execRowUpdate(ctx, tx,
			`UPDATE event_log SET locked = 0, tries = ?, next_retry_at = ? WHERE id = ?`,
			"event log", tries, nextRetryAt, id)
	})
}

// UnlockAllEventLogs clears locked on every non-terminal row; called once
// at supervisor startup so rows held by a crashed process become eligible
// for leasing again.
func (c *MySQLClient) UnlockAllEventLogs(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `
		UPDATE event_log SET locked = 0
		WHERE locked = 1 AND delivered = 0 AND error = 0 AND archived = 0
	`)
	if err != nil {
		return 0, fmt.Errorf("unlock event logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// GetEventLog retrieves a single row by id for observability endpoints.
func (c *MySQLClient) GetEventLog(ctx context.Context, id string) (*models.EventLog, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, schema_name, table_name, trigger_name, payload, tries, created_at,
			locked, delivered, error, archived, next_retry_at
		FROM event_log WHERE id = ?
	`, id)

	var e models.EventLog
	var payload sql.NullString
	var nextRetryAt sql.NullTime
	err := row.Scan(&e.ID, &e.SchemaName, &e.TableName, &e.TriggerName, &payload, &e.Tries, &e.CreatedAt,
		&e.Locked, &e.Delivered, &e.Error, &e.Archived, &nextRetryAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan event log: %w", err)
	}
	if payload.Valid {
		e.Payload = json.RawMessage(payload.String)
	}
	if nextRetryAt.Valid {
		e.NextRetryAt = &nextRetryAt.Time
	}
	return &e, nil
}

// ListEventLogs returns rows matching query filters with pagination.
func (c *MySQLClient) ListEventLogs(ctx context.Context, q models.ListEventsQuery) ([]models.EventLog, int64, error) {
	criteria := []string{"archived = 0"}
	args := []interface{}{}

	if q.TriggerName != "" {
		criteria = append(criteria, "trigger_name = ?")
		args = append(args, q.TriggerName)
	}
	if q.Delivered != nil {
		criteria = append(criteria, "delivered = ?")
		args = append(args, *q.Delivered)
	}

	where := "WHERE " + strings.Join(criteria, " AND ")

	var total int64
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM event_log "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count event logs: %w", err)
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	listArgs := append(append([]interface{}{}, args...), limit, offset)
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, schema_name, table_name, trigger_name, payload, tries, created_at,
			locked, delivered, error, archived, next_retry_at
		FROM event_log %s
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`, where), listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query event logs: %w", err)
	}
	defer rows.Close()

	out := []models.EventLog{}
	for rows.Next() {
		var e models.EventLog
		var payload sql.NullString
		var nextRetryAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.SchemaName, &e.TableName, &e.TriggerName, &payload, &e.Tries, &e.CreatedAt,
			&e.Locked, &e.Delivered, &e.Error, &e.Archived, &nextRetryAt); err != nil {
			return nil, 0, fmt.Errorf("scan event log row: %w", err)
		}
		if payload.Valid {
			e.Payload = json.RawMessage(payload.String)
		}
		if nextRetryAt.Valid {
			e.NextRetryAt = &nextRetryAt.Time
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate event logs: %w", err)
	}
	return out, total, nil
}

// EventQueueCounts reports the ET queue's delivered/error/pending totals
// for the admin API's /metrics endpoint.
func (c *MySQLClient) EventQueueCounts(ctx context.Context) (delivered, errored, pending int64, err error) {
	err = c.db.QueryRowContext(ctx, `SELECT
		COALESCE(SUM(delivered), 0), COALESCE(SUM(error), 0), COALESCE(SUM(NOT delivered AND NOT error AND NOT archived), 0)
		FROM event_log`).Scan(&delivered, &errored, &pending)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("event queue counts: %w", err)
	}
	return delivered, errored, pending, nil
}
