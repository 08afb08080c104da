package triggers

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// CalculateNextFireTime returns the next occurrence of cronExpr strictly
// after from, in UTC.
func CalculateNextFireTime(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule.Next(from.UTC()).UTC(), nil
}

// GenerateScheduleTimes returns the next n strictly-increasing occurrences
// of cronExpr starting after from. It is a pure function of its three
// arguments. The Materializer calls this with from = the latest already-materialized
// scheduled_time for a trigger (or now, on first run) to top up its
// horizon without ever regenerating an occurrence it has already inserted.
func GenerateScheduleTimes(cronExpr string, from time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return nil, nil
	}
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	out := make([]time.Time, 0, n)
	cursor := from.UTC()
	for i := 0; i < n; i++ {
		next := schedule.Next(cursor).UTC()
		out = append(out, next)
		cursor = next
	}
	return out, nil
}

// ValidateCronExpr reports whether cronExpr parses under the same grammar
// GenerateScheduleTimes and CalculateNextFireTime use, for admin API
// request validation.
func ValidateCronExpr(cronExpr string) error {
	_, err := cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}
