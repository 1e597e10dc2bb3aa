package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/smarthome-core/internal/device"
)

// Filter controls which entries List returns.
type Filter struct {
	DeviceID string // optional
	Username string // optional
	Limit    int    // default 50, max 500
	Offset   int
}

// ListResult is one page of entries, newest first.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

const (
	defaultListLimit = 50
	maxListLimit     = 500

	// timestampLayout is fixed-width so recorded_at sorts as text.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// SQLiteSink stores entries in the event_log table.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink creates a sink over a migrated database.
func NewSQLiteSink(db *sql.DB) *SQLiteSink {
	return &SQLiteSink{db: db}
}

// WriteEntry inserts one entry.
func (s *SQLiteSink) WriteEntry(ctx context.Context, e Entry) error {
	var fieldsJSON *string
	if len(e.Fields) > 0 {
		b, err := json.Marshal(e.Fields)
		if err != nil {
			return fmt.Errorf("marshalling event fields: %w", err)
		}
		str := string(b)
		fieldsJSON = &str
	}

	var deviceID, deviceName, power any
	if e.Device != nil {
		deviceID = e.Device.ID
		deviceName = e.Device.Name
		power = nullableString(string(e.Device.Power))
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event_log (id, recorded_at, message, device_id, device_name, power, username, fields)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time.UTC().Format(timestampLayout), e.Message,
		deviceID, deviceName, power,
		nullableString(e.Username), fieldsJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// nullableString returns nil for empty strings so the column stores NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns entries matching the filter, most recent first.
func (s *SQLiteSink) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any
	if filter.DeviceID != "" {
		conditions = append(conditions, "device_id = ?")
		args = append(args, filter.DeviceID)
	}
	if filter.Username != "" {
		conditions = append(conditions, "username = ?")
		args = append(args, filter.Username)
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM event_log " + where //nolint:gosec // WHERE built from parameterised conditions
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting events: %w", err)
	}

	query := "SELECT id, recorded_at, message, device_id, device_name, power, username, fields FROM event_log " + //nolint:gosec // WHERE built from parameterised conditions
		where + " ORDER BY recorded_at DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e                                         Entry
			recordedAt                                string
			deviceID, deviceName, power, user, fields sql.NullString
		)
		if err := rows.Scan(&e.ID, &recordedAt, &e.Message, &deviceID, &deviceName, &power, &user, &fields); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}

		t, err := time.Parse(timestampLayout, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing event timestamp %q: %w", recordedAt, err)
		}
		e.Time = t

		if deviceID.Valid {
			e.Device = &DeviceRef{ID: deviceID.String, Name: deviceName.String}
			if power.Valid {
				e.Device.Power = device.Power(power.String)
			}
		}
		if user.Valid {
			e.Username = user.String
		}
		if fields.Valid && fields.String != "" {
			var m map[string]any
			if json.Unmarshal([]byte(fields.String), &m) == nil {
				e.Fields = m
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}
