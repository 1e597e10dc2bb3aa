package store

import (
	"context"
	"errors"

	"github.com/nerrad567/smarthome-core/internal/automation"
	"github.com/nerrad567/smarthome-core/internal/home"
)

// ErrMalformed is returned when stored content cannot be parsed or does
// not match its schema. Callers report it and start empty.
var ErrMalformed = errors.New("store: malformed content")

// SnapshotStore loads and saves users and devices. Load returns an empty
// snapshot and nil error when nothing has been saved yet.
type SnapshotStore interface {
	Load(ctx context.Context) (*home.Snapshot, error)
	Save(ctx context.Context, s *home.Snapshot) error
}

// RuleStore loads and saves automation rule records. LoadRules returns no
// records and nil error when nothing has been saved yet.
type RuleStore interface {
	LoadRules(ctx context.Context) ([]automation.Record, error)
	SaveRules(ctx context.Context, records []automation.Record) error
}

// Store is a backend holding both.
type Store interface {
	SnapshotStore
	RuleStore
}

func emptySnapshot() *home.Snapshot {
	return &home.Snapshot{Users: []home.UserState{}, Devices: []home.DeviceState{}}
}
