package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/aranyasourav/triggerhub/internal/models"
)

// MySQLProvider loads trigger configuration from the
// `event_trigger_config` and `hdb_scheduled_trigger` tables.
type MySQLProvider struct {
	db *sql.DB
}

// NewMySQLProvider wires a Provider backed by db.
func NewMySQLProvider(db *sql.DB) *MySQLProvider {
	return &MySQLProvider{db: db}
}

// Snapshot implements Provider by reading both trigger config tables.
func (p *MySQLProvider) Snapshot(ctx context.Context) (Snapshot, error) {
	events, err := p.loadEventTriggers(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load event triggers: %w", err)
	}
	scheduled, err := p.loadScheduledTriggers(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load scheduled triggers: %w", err)
	}
	return NewSnapshot(events, scheduled), nil
}

func (p *MySQLProvider) loadEventTriggers(ctx context.Context) ([]models.EventTriggerConfig, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT name, status, webhook_url, headers, num_retries, interval_seconds, timeout_seconds
		FROM event_trigger_config
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EventTriggerConfig
	for rows.Next() {
		var cfg models.EventTriggerConfig
		var headersJSON string
		if err := rows.Scan(&cfg.Name, &cfg.Status, &cfg.WebhookURL, &headersJSON,
			&cfg.Retry.NumRetries, &cfg.Retry.IntervalSeconds, &cfg.Retry.TimeoutSeconds); err != nil {
			return nil, err
		}
		if headersJSON != "" {
			if err := json.Unmarshal([]byte(headersJSON), &cfg.Headers); err != nil {
				return nil, fmt.Errorf("decode headers for %s: %w", cfg.Name, err)
			}
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

func (p *MySQLProvider) loadScheduledTriggers(ctx context.Context) ([]models.ScheduledTriggerConfig, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT name, status, webhook_url, headers, num_retries, interval_seconds, timeout_seconds,
			schedule_kind, cron_expr, default_payload, tolerance_seconds
		FROM hdb_scheduled_trigger
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScheduledTriggerConfig
	for rows.Next() {
		var cfg models.ScheduledTriggerConfig
		var headersJSON string
		var cronExpr sql.NullString
		var defaultPayload sql.NullString
		if err := rows.Scan(&cfg.Name, &cfg.Status, &cfg.WebhookURL, &headersJSON,
			&cfg.Retry.NumRetries, &cfg.Retry.IntervalSeconds, &cfg.Retry.TimeoutSeconds,
			&cfg.Schedule, &cronExpr, &defaultPayload, &cfg.ToleranceSeconds); err != nil {
			return nil, err
		}
		if headersJSON != "" {
			if err := json.Unmarshal([]byte(headersJSON), &cfg.Headers); err != nil {
				return nil, fmt.Errorf("decode headers for %s: %w", cfg.Name, err)
			}
		}
		if cronExpr.Valid {
			cfg.CronExpr = cronExpr.String
		}
		if defaultPayload.Valid {
			cfg.DefaultPayload = json.RawMessage(defaultPayload.String)
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}
