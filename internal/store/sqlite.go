package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/smarthome-core/internal/automation"
	"github.com/nerrad567/smarthome-core/internal/device"
	"github.com/nerrad567/smarthome-core/internal/home"
)

// SQLiteStore keeps the snapshot and rules in the migrated SQLite schema.
// Position columns preserve every ordering the snapshot carries.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store over a migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Load reads users, ownership, devices and shares.
func (s *SQLiteStore) Load(ctx context.Context) (*home.Snapshot, error) {
	snap := emptySnapshot()

	owned, err := s.loadOrderedPairs(ctx, "SELECT username, device_id FROM user_devices ORDER BY username, position")
	if err != nil {
		return nil, fmt.Errorf("loading ownership: %w", err)
	}
	shares, err := s.loadOrderedPairs(ctx, "SELECT device_id, username FROM device_shares ORDER BY device_id, position")
	if err != nil {
		return nil, fmt.Errorf("loading shares: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT username FROM users ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		devices := owned[name]
		if devices == nil {
			devices = []string{}
		}
		snap.Users = append(snap.Users, home.UserState{Username: name, Devices: devices})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, "SELECT id, kind, power, attributes FROM devices ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			ds        home.DeviceState
			power     string
			attrsJSON string
		)
		if err := rows.Scan(&ds.ID, &ds.Kind, &power, &attrsJSON); err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		ds.Power = device.Power(power)
		if err := json.Unmarshal([]byte(attrsJSON), &ds.Attributes); err != nil {
			return nil, fmt.Errorf("%w: device %s attributes: %w", ErrMalformed, ds.ID, err)
		}
		ds.SharedWith = shares[ds.ID]
		if ds.SharedWith == nil {
			ds.SharedWith = []string{}
		}
		snap.Devices = append(snap.Devices, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return snap, nil
}

// loadOrderedPairs groups (key, value) rows into ordered lists per key.
func (s *SQLiteStore) loadOrderedPairs(ctx context.Context, query string) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = append(out[k], v)
	}
	return out, rows.Err()
}

// Save replaces the stored users and devices in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap *home.Snapshot) error {
	if snap == nil {
		snap = emptySnapshot()
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"device_shares", "user_devices", "devices", "users"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil { //nolint:gosec // fixed table names
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}

		for i, u := range snap.Users {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO users (username, position) VALUES (?, ?)", u.Username, i); err != nil {
				return fmt.Errorf("inserting user %s: %w", u.Username, err)
			}
			for j, id := range u.Devices {
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO user_devices (username, device_id, position) VALUES (?, ?, ?)",
					u.Username, id, j); err != nil {
					return fmt.Errorf("inserting ownership %s/%s: %w", u.Username, id, err)
				}
			}
		}

		for i, d := range snap.Devices {
			attrs := d.Attributes
			if attrs == nil {
				attrs = map[string]any{}
			}
			attrsJSON, err := json.Marshal(attrs)
			if err != nil {
				return fmt.Errorf("marshalling attributes of %s: %w", d.ID, err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO devices (id, kind, power, attributes, position) VALUES (?, ?, ?, ?, ?)",
				d.ID, d.Kind, string(d.Power), string(attrsJSON), i); err != nil {
				return fmt.Errorf("inserting device %s: %w", d.ID, err)
			}
			for j, name := range d.SharedWith {
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO device_shares (device_id, username, position) VALUES (?, ?, ?)",
					d.ID, name, j); err != nil {
					return fmt.Errorf("inserting share %s/%s: %w", d.ID, name, err)
				}
			}
		}
		return nil
	})
}

// LoadRules reads rule records in order.
func (s *SQLiteStore) LoadRules(ctx context.Context) ([]automation.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT description, template, params FROM automation_rules ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer rows.Close()

	records := []automation.Record{}
	for rows.Next() {
		var (
			rec        automation.Record
			template   string
			paramsJSON string
		)
		if err := rows.Scan(&rec.Description, &template, &paramsJSON); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		rec.Template = automation.Template(template)
		if err := json.Unmarshal([]byte(paramsJSON), &rec.Params); err != nil {
			return nil, fmt.Errorf("%w: rule params: %w", ErrMalformed, err)
		}
		if len(rec.Params) == 0 {
			rec.Params = nil
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rules: %w", err)
	}
	return records, nil
}

// SaveRules replaces the stored rules in one transaction.
func (s *SQLiteStore) SaveRules(ctx context.Context, records []automation.Record) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM automation_rules"); err != nil {
			return fmt.Errorf("clearing rules: %w", err)
		}
		for i, rec := range records {
			params := rec.Params
			if params == nil {
				params = map[string]any{}
			}
			paramsJSON, err := json.Marshal(params)
			if err != nil {
				return fmt.Errorf("marshalling rule %d params: %w", i, err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO automation_rules (position, description, template, params) VALUES (?, ?, ?, ?)",
				i, rec.Description, string(rec.Template), string(paramsJSON)); err != nil {
				return fmt.Errorf("inserting rule %d: %w", i, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback() //nolint:errcheck,gosec // original error takes precedence
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
