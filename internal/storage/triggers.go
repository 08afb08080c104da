package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aranyasourav/triggerhub/internal/models"
)

// ErrTriggerNotFound is returned when a trigger config row is not found.
var ErrTriggerNotFound = errors.New("trigger not found")

// CreateTrigger inserts a trigger config row into whichever table its kind
// backs: event_trigger_config for ET triggers, hdb_scheduled_trigger for ST.
func (c *MySQLClient) CreateTrigger(ctx context.Context, row *models.TriggerConfigRow) error {
	var err error
	switch row.Kind {
	case models.TriggerKindEvent:
		var retry models.RetryPolicy
		if len(row.Retry) > 0 {
			if jsonErr := json.Unmarshal(row.Retry, &retry); jsonErr != nil {
				return fmt.Errorf("decode retry policy: %w", jsonErr)
			}
		}
		_, err = c.db.ExecContext(ctx, `
			INSERT INTO event_trigger_config
				(id, name, status, webhook_url, headers, num_retries, interval_seconds, timeout_seconds, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
		`, row.ID, row.Name, row.Status, row.WebhookURL, string(row.Headers),
			retry.NumRetries, retry.IntervalSeconds, retry.TimeoutSeconds)
	case models.TriggerKindScheduled:
		var spec models.ScheduleSpec
		if len(row.Schedule) > 0 {
			if jsonErr := json.Unmarshal(row.Schedule, &spec); jsonErr != nil {
				return fmt.Errorf("decode schedule spec: %w", jsonErr)
			}
		}
		var retry models.RetryPolicy
		if len(row.Retry) > 0 {
			if jsonErr := json.Unmarshal(row.Retry, &retry); jsonErr != nil {
				return fmt.Errorf("decode retry policy: %w", jsonErr)
			}
		}
		_, err = c.db.ExecContext(ctx, `
			INSERT INTO hdb_scheduled_trigger
				(id, name, status, webhook_url, headers, num_retries, interval_seconds, timeout_seconds,
				 schedule_kind, cron_expr, default_payload, tolerance_seconds, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
		`, row.ID, row.Name, row.Status, row.WebhookURL, string(row.Headers),
			retry.NumRetries, retry.IntervalSeconds, retry.TimeoutSeconds,
			spec.Kind, nullIfEmpty(spec.CronExpr), nullableRaw(spec.DefaultPayload), spec.ToleranceSeconds)
	default:
		return fmt.Errorf("unknown trigger kind %q", row.Kind)
	}
	if err != nil {
		return fmt.Errorf("insert trigger: %w", err)
	}
	return nil
}

// GetTriggerRow looks a trigger config row up by id across both backing
// tables; the admin API's single-trigger GET/PATCH/DELETE surface takes an
// opaque id without knowing which kind it belongs to.
func (c *MySQLClient) GetTriggerRow(ctx context.Context, id string) (*models.TriggerConfigRow, error) {
	rows, err := c.listEventTriggerRowsWhere(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}
	rows, err = c.listScheduledTriggerRowsWhere(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}
	return nil, ErrTriggerNotFound
}

// UpdateTriggerStatus flips a trigger's active/inactive flag in whichever
// table it belongs to.
func (c *MySQLClient) UpdateTriggerStatus(ctx context.Context, kind models.TriggerKind, name string, status models.TriggerStatus) error {
	table := triggerTable(kind)
	res, err := c.db.ExecContext(ctx, fmt.Sprintf(
		"UPDATE %s SET status = ?, updated_at = NOW() WHERE name = ?", table), status, name)
	if err != nil {
		return fmt.Errorf("update trigger status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrTriggerNotFound
	}
	return nil
}

// UpdateTriggerFields patches the mutable columns shared by both trigger
// tables (webhook_url, headers, retry policy); nil/empty arguments leave
// the corresponding column untouched.
func (c *MySQLClient) UpdateTriggerFields(ctx context.Context, kind models.TriggerKind, name string, webhookURL *string, headers json.RawMessage, retry *models.RetryPolicy) error {
	table := triggerTable(kind)
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{}

	if webhookURL != nil {
		sets = append(sets, "webhook_url = ?")
		args = append(args, *webhookURL)
	}
	if headers != nil {
		sets = append(sets, "headers = ?")
		args = append(args, string(headers))
	}
	if retry != nil {
		sets = append(sets, "num_retries = ?", "interval_seconds = ?", "timeout_seconds = ?")
		args = append(args, retry.NumRetries, retry.IntervalSeconds, retry.TimeoutSeconds)
	}
	if len(sets) == 1 {
		return nil
	}

	args = append(args, name)
	res, err := c.db.ExecContext(ctx, fmt.Sprintf(
		"UPDATE %s SET %s WHERE name = ?", table, strings.Join(sets, ", ")), args...)
	if err != nil {
		return fmt.Errorf("update trigger fields: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrTriggerNotFound
	}
	return nil
}

// DeleteTrigger removes a trigger config row from whichever table it
// belongs to.
func (c *MySQLClient) DeleteTrigger(ctx context.Context, kind models.TriggerKind, name string) error {
	table := triggerTable(kind)
	res, err := c.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE name = ?", table), name)
	if err != nil {
		return fmt.Errorf("delete trigger: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrTriggerNotFound
	}
	return nil
}

// ListTriggerRows returns trigger config rows for the admin API, reading
// from both tables and merging by kind filter.
func (c *MySQLClient) ListTriggerRows(ctx context.Context, q models.ListTriggersQuery) ([]models.TriggerConfigRow, int64, error) {
	var out []models.TriggerConfigRow

	if q.Kind == "" || q.Kind == string(models.TriggerKindEvent) {
		rows, err := c.listEventTriggerRows(ctx, q.Status)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rows...)
	}
	if q.Kind == "" || q.Kind == string(models.TriggerKindScheduled) {
		rows, err := c.listScheduledTriggerRows(ctx, q.Status)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rows...)
	}

	total := int64(len(out))
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = 20
	}
	start := (page - 1) * limit
	if start > len(out) {
		start = len(out)
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (c *MySQLClient) listEventTriggerRows(ctx context.Context, status string) ([]models.TriggerConfigRow, error) {
	if status == "" {
		return c.listEventTriggerRowsWhere(ctx, "")
	}
	return c.listEventTriggerRowsWhere(ctx, "status = ?", status)
}

func (c *MySQLClient) listEventTriggerRowsWhere(ctx context.Context, cond string, args ...interface{}) ([]models.TriggerConfigRow, error) {
	where := ""
	if cond != "" {
		where = "WHERE " + cond
	}
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, name, status, webhook_url, headers, num_retries, interval_seconds, timeout_seconds, created_at, updated_at
		FROM event_trigger_config %s ORDER BY created_at DESC
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("query event trigger config: %w", err)
	}
	defer rows.Close()

	var out []models.TriggerConfigRow
	for rows.Next() {
		var row models.TriggerConfigRow
		var headers string
		var retry models.RetryPolicy
		if err := rows.Scan(&row.ID, &row.Name, &row.Status, &row.WebhookURL, &headers,
			&retry.NumRetries, &retry.IntervalSeconds, &retry.TimeoutSeconds, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan event trigger config: %w", err)
		}
		row.Kind = models.TriggerKindEvent
		row.Headers = jsonRawMessage(headers)
		row.Retry, _ = json.Marshal(retry)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (c *MySQLClient) listScheduledTriggerRows(ctx context.Context, status string) ([]models.TriggerConfigRow, error) {
	if status == "" {
		return c.listScheduledTriggerRowsWhere(ctx, "")
	}
	return c.listScheduledTriggerRowsWhere(ctx, "status = ?", status)
}

func (c *MySQLClient) listScheduledTriggerRowsWhere(ctx context.Context, cond string, args ...interface{}) ([]models.TriggerConfigRow, error) {
	where := ""
	if cond != "" {
		where = "WHERE " + cond
	}
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, name, status, webhook_url, headers, num_retries, interval_seconds, timeout_seconds,
			schedule_kind, cron_expr, default_payload, tolerance_seconds, created_at, updated_at
		FROM hdb_scheduled_trigger %s ORDER BY created_at DESC
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("query scheduled trigger config: %w", err)
	}
	defer rows.Close()

	var out []models.TriggerConfigRow
	for rows.Next() {
		var row models.TriggerConfigRow
		var headers string
		var retry models.RetryPolicy
		var spec models.ScheduleSpec
		var cronExpr sql.NullString
		var defaultPayload sql.NullString
		if err := rows.Scan(&row.ID, &row.Name, &row.Status, &row.WebhookURL, &headers,
			&retry.NumRetries, &retry.IntervalSeconds, &retry.TimeoutSeconds,
			&spec.Kind, &cronExpr, &defaultPayload, &spec.ToleranceSeconds, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan scheduled trigger config: %w", err)
		}
		if cronExpr.Valid {
			spec.CronExpr = cronExpr.String
		}
		if defaultPayload.Valid {
			spec.DefaultPayload = json.RawMessage(defaultPayload.String)
		}
		row.Kind = models.TriggerKindScheduled
		row.Headers = jsonRawMessage(headers)
		row.Retry, _ = json.Marshal(retry)
		row.Schedule, _ = json.Marshal(spec)
		out = append(out, row)
	}
	return out, rows.Err()
}

func triggerTable(kind models.TriggerKind) string {
	if kind == models.TriggerKindScheduled {
		return "hdb_scheduled_trigger"
	}
	return "event_trigger_config"
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func jsonRawMessage(value string) json.RawMessage {
	if value == "" {
		return nil
	}
	return json.RawMessage(value)
}
