package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aranyasourav/triggerhub/internal/models"
)

// InsertScheduledEvent inserts one ST row idempotently: a duplicate
// (name, scheduled_time) pair — the materializer re-generating the same
// horizon slot twice, or an ad-hoc insert racing a cron one — is silently
// ignored rather than erroring. Relies on uq_hdb_scheduled_events_name_time;
// without that unique constraint this insert would never collide and every
// call would just add a new row.
func (c *MySQLClient) InsertScheduledEvent(ctx context.Context, e *models.ScheduledEvent) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO hdb_scheduled_events (id, name, scheduled_time, additional_payload, tries, created_at, locked, delivered, error, dead, cancelled)
		VALUES (?, ?, ?, ?, 0, ?, 0, 0, 0, 0, 0)
		ON DUPLICATE KEY UPDATE id = id
	`, e.ID, e.Name, e.ScheduledTime, nullableRaw(e.AdditionalPayload), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert scheduled event: %w", err)
	}
	return nil
}

// LeaseScheduledEvents atomically claims up to limit non-terminal, unlocked,
// due rows, mirroring LeaseEventLogs for the ST queue.
func (c *MySQLClient) LeaseScheduledEvents(ctx context.Context, now time.Time, limit int) ([]models.ScheduledEvent, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, scheduled_time, additional_payload, tries, created_at
		FROM hdb_scheduled_events
		WHERE locked = 0 AND delivered = 0 AND error = 0 AND dead = 0 AND cancelled = 0
		  AND scheduled_time <= ?
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY scheduled_time ASC
		LIMIT ?
		FOR UPDATE SKIP LOCKED
	`, now, now, limit)
	if err != nil {
		return nil, fmt.Errorf("select due scheduled events: %w", err)
	}

	var leased []models.ScheduledEvent
	ids := make([]string, 0, limit)
	for rows.Next() {
		var e models.ScheduledEvent
		var payload sql.NullString
		if err := rows.Scan(&e.ID, &e.Name, &e.ScheduledTime, &payload, &e.Tries, &e.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan scheduled event: %w", err)
		}
		if payload.Valid {
			e.AdditionalPayload = json.RawMessage(payload.String)
		}
		e.Locked = true
		leased = append(leased, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate scheduled events: %w", err)
	}
	rows.Close()

	if len(ids) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
		args := make([]interface{}, len(ids))
		for i, id := range ids {
			args[i] = id
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			"UPDATE hdb_scheduled_events SET locked = 1 WHERE id IN (%s)", placeholders), args...); err != nil {
			return nil, fmt.Errorf("lock scheduled events: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit lease: %w", err)
	}
	return leased, nil
}

// RecordScheduledDelivered atomically inserts the invocation log row and
// applies the hdb_scheduled_events row's terminal delivered=1 transition in
// one transaction, mirroring RecordEventDelivered for the ST queue.
func (c *MySQLClient) RecordScheduledDelivered(ctx context.Context, inv *models.InvocationLog, id string, tries int) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertInvocation(ctx, tx, inv); err != nil {
			return err
		}
		return execRowUpdate(ctx, tx,
			`UPDATE hdb_scheduled_events SET delivered = 1, locked = 0, tries = ?, next_retry_at = NULL WHERE id = ?`,
			"scheduled event", tries, id)
	})
}

// RecordScheduledError atomically inserts the invocation log row and
// applies the terminal error=1 transition. next_retry_at is left as-is on
// this queue (it doesn't matter once the row is terminal, but ET explicitly
// clears it and ST doesn't).
func (c *MySQLClient) RecordScheduledError(ctx context.Context, inv *models.InvocationLog, id string, tries int) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertInvocation(ctx, tx, inv); err != nil {
			return err
		}
		return execRowUpdate(ctx, tx,
			`UPDATE hdb_scheduled_events SET error = 1, locked = 0, tries = ? WHERE id = ?`,
			"scheduled event", tries, id)
	})
}

// MarkScheduledDead sets the terminal dead=1 state: the row was never
// delivered within its trigger's lateness tolerance. No delivery attempt is
// ever made for this transition, so there is no invocation log row to write
// alongside it and no transaction is needed.
func (c *MySQLClient) MarkScheduledDead(ctx context.Context, id string) error {
	return execRowUpdate(ctx, c.db,
		`UPDATE hdb_scheduled_events SET dead = 1, locked = 0 WHERE id = ?`,
		"scheduled event", id)
}

// MarkScheduledCancelled sets the terminal cancelled=1 state for an ad-hoc
// event cancelled via the admin API before it fired.
func (c *MySQLClient) MarkScheduledCancelled(ctx context.Context, id string) error {
	return execRowUpdate(ctx, c.db,
		`UPDATE hdb_scheduled_events
		 SET cancelled = 1, locked = 0
		 WHERE id = ? AND delivered = 0 AND error = 0 AND dead = 0 AND cancelled = 0`,
		"scheduled event", id)
}

// RecordScheduledRetry atomically inserts the invocation log row and
// records a failed attempt with retries remaining.
func (c *MySQLClient) RecordScheduledRetry(ctx context.Context, inv *models.InvocationLog, id string, tries int, nextRetryAt time.Time) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertInvocation(ctx, tx, inv); err != nil {
			return err
		}
		return execRowUpdate(ctx, tx,
			`UPDATE hdb_scheduled_events SET locked = 0, tries = ?, next_retry_at = ? WHERE id = ?`,
			"scheduled event", tries, nextRetryAt, id)
	})
}

// UnlockAllScheduledEvents mirrors UnlockAllEventLogs for the ST queue.
func (c *MySQLClient) UnlockAllScheduledEvents(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `
		UPDATE hdb_scheduled_events SET locked = 0
		WHERE locked = 1 AND delivered = 0 AND error = 0 AND dead = 0 AND cancelled = 0
	`)
	if err != nil {
		return 0, fmt.Errorf("unlock scheduled events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// ScheduledEventStats computes hdb_scheduled_events_stats: per cron trigger, how many
// non-terminal rows exist and the latest scheduled_time among them, used
// by the Materializer to decide how many more occurrences to generate.
func (c *MySQLClient) ScheduledEventStats(ctx context.Context, names []string) (map[string]models.ScheduledEventStats, error) {
	out := make(map[string]models.ScheduledEventStats, len(names))
	if len(names) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	args := make([]interface{}, len(names))
	for i, n := range names {
		args[i] = n
	}

	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT name, COUNT(*), MAX(scheduled_time)
		FROM hdb_scheduled_events
		WHERE name IN (%s) AND delivered = 0 AND error = 0 AND dead = 0 AND cancelled = 0
		GROUP BY name
	`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("query scheduled event stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.ScheduledEventStats
		var maxTime sql.NullTime
		if err := rows.Scan(&s.Name, &s.UpcomingEventsCount, &maxTime); err != nil {
			return nil, fmt.Errorf("scan scheduled event stats: %w", err)
		}
		if maxTime.Valid {
			t := maxTime.Time
			s.MaxScheduledTime = &t
		}
		out[s.Name] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scheduled event stats: %w", err)
	}
	return out, nil
}

// GetScheduledEvent retrieves a single row by id for observability endpoints.
func (c *MySQLClient) GetScheduledEvent(ctx context.Context, id string) (*models.ScheduledEvent, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, name, scheduled_time, additional_payload, tries, created_at,
			locked, delivered, error, dead, cancelled, next_retry_at
		FROM hdb_scheduled_events WHERE id = ?
	`, id)

	var e models.ScheduledEvent
	var payload sql.NullString
	var nextRetryAt sql.NullTime
	err := row.Scan(&e.ID, &e.Name, &e.ScheduledTime, &payload, &e.Tries, &e.CreatedAt,
		&e.Locked, &e.Delivered, &e.Error, &e.Dead, &e.Cancelled, &nextRetryAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan scheduled event: %w", err)
	}
	if payload.Valid {
		e.AdditionalPayload = json.RawMessage(payload.String)
	}
	if nextRetryAt.Valid {
		e.NextRetryAt = &nextRetryAt.Time
	}
	return &e, nil
}

// ListScheduledEvents returns rows matching query filters with pagination.
func (c *MySQLClient) ListScheduledEvents(ctx context.Context, q models.ListScheduledEventsQuery) ([]models.ScheduledEvent, int64, error) {
	criteria := []string{}
	args := []interface{}{}

	if q.Name != "" {
		criteria = append(criteria, "name = ?")
		args = append(args, q.Name)
	}

	where := ""
	if len(criteria) > 0 {
		where = "WHERE " + strings.Join(criteria, " AND ")
	}

	var total int64
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hdb_scheduled_events "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count scheduled events: %w", err)
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
		SELECT id, name, scheduled_time, additional_payload, tries, created_at,
			locked, delivered, error, dead, cancelled, next_retry_at
		FROM hdb_scheduled_events %s
		ORDER BY scheduled_time DESC
		LIMIT ? OFFSET ?
	`, where), listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query scheduled events: %w", err)
	}
	defer rows.Close()

	out := []models.ScheduledEvent{}
	for rows.Next() {
		var e models.ScheduledEvent
		var payload sql.NullString
		var nextRetryAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.Name, &e.ScheduledTime, &payload, &e.Tries, &e.CreatedAt,
			&e.Locked, &e.Delivered, &e.Error, &e.Dead, &e.Cancelled, &nextRetryAt); err != nil {
			return nil, 0, fmt.Errorf("scan scheduled event row: %w", err)
		}
		if payload.Valid {
			e.AdditionalPayload = json.RawMessage(payload.String)
		}
		if nextRetryAt.Valid {
			e.NextRetryAt = &nextRetryAt.Time
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate scheduled events: %w", err)
	}
	return out, total, nil
}

// ScheduledQueueCounts reports the ST queue's delivered/error/dead/pending
// totals for the admin API's /metrics endpoint.
func (c *MySQLClient) ScheduledQueueCounts(ctx context.Context) (delivered, errored, dead, pending int64, err error) {
	err = c.db.QueryRowContext(ctx, `SELECT
		COALESCE(SUM(delivered), 0), COALESCE(SUM(error), 0), COALESCE(SUM(dead), 0),
		COALESCE(SUM(NOT delivered AND NOT error AND NOT dead AND NOT cancelled), 0)
		FROM hdb_scheduled_events`).Scan(&delivered, &errored, &dead, &pending)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("scheduled queue counts: %w", err)
	}
	return delivered, errored, dead, pending, nil
}

func nullableRaw(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
