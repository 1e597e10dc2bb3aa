package automation

import (
	"github.com/nerrad567/smarthome-core/internal/device"
)

// Actuator is how a rule changes the home. The home implements it so every
// change a rule makes goes through the same path (and event log) as a
// user's own command.
type Actuator interface {
	ControlDevice(id, action string, params device.Params) (device.Result, error)

	// RecordAlert logs a message that needs attention but changes no device.
	RecordAlert(message string, fields map[string]any)
}

// Rule is a condition paired with an action.
//
// Evaluate must not change anything. Execute runs only after Evaluate
// returned true for the same snapshot.
type Rule interface {
	Description() string
	Evaluate(s Snapshot) (bool, error)
	Execute(s Snapshot, act Actuator) error
}

// Record is the persisted form of a rule. Template is empty for rules
// that cannot be rebuilt from data.
type Record struct {
	Description string         `json:"description"`
	Template    Template       `json:"template,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

// recorder is implemented by rules that can describe themselves as a Record.
type recorder interface {
	Record() Record
}

// RecordOf returns the persisted form of r.
func RecordOf(r Rule) Record {
	if rr, ok := r.(recorder); ok {
		return rr.Record()
	}
	return Record{Description: r.Description()}
}

// FromRecord rebuilds a rule. Records without a template come back as
// Detached rules that keep their description but never trigger.
func FromRecord(rec Record) (Rule, error) {
	if rec.Template == "" {
		return Detached{Desc: rec.Description}, nil
	}
	t, err := NewTemplate(rec.Template, rec.Params)
	if err != nil {
		return nil, err
	}
	if rec.Description != "" {
		t.description = rec.Description
	}
	return t, nil
}

// Func is a rule built from closures. It persists as its description only.
//
// The closures run while the home holds its lock. They must read state
// through the Snapshot and change it through the Actuator they are given;
// calling back into the home's own methods deadlocks.
type Func struct {
	Desc      string
	Condition func(s Snapshot) (bool, error)
	Action    func(s Snapshot, act Actuator) error
}

func (f *Func) Description() string { return f.Desc }

func (f *Func) Evaluate(s Snapshot) (bool, error) {
	if f.Condition == nil {
		return false, nil
	}
	return f.Condition(s)
}

func (f *Func) Execute(s Snapshot, act Actuator) error {
	if f.Action == nil {
		return nil
	}
	return f.Action(s, act)
}

// Detached is a rule whose logic was not restored. It keeps its place in
// the list and its description, and never triggers.
type Detached struct {
	Desc string
}

func (d Detached) Description() string { return d.Desc }

func (Detached) Evaluate(Snapshot) (bool, error) { return false, nil }

func (Detached) Execute(Snapshot, Actuator) error { return nil }
