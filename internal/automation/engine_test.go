package automation

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/nerrad567/smarthome-core/internal/device"
)

// ─── Mock Dependencies ──────────────────────────────────────────────────────

// mockDevices is an ordered in-memory DeviceView.
type mockDevices struct {
	list []*device.Device
}

func newMockDevices(devs ...*device.Device) *mockDevices {
	return &mockDevices{list: devs}
}

func (m *mockDevices) Device(id string) (*device.Device, error) {
	for _, d := range m.list {
		if d.ID == id {
			return d.DeepCopy(), nil
		}
	}
	return nil, fmt.Errorf("device %s: not found", id)
}

func (m *mockDevices) Devices() []*device.Device {
	out := make([]*device.Device, len(m.list))
	for i, d := range m.list {
		out[i] = d.DeepCopy()
	}
	return out
}

type controlCall struct {
	ID     string
	Action string
}

// mockActuator applies power actions to the mockDevices list and records calls.
type mockActuator struct {
	devices *mockDevices
	calls   []controlCall
	alerts  []string
	failOn  string
}

func (m *mockActuator) ControlDevice(id, action string, _ device.Params) (device.Result, error) {
	m.calls = append(m.calls, controlCall{ID: id, Action: action})
	if id == m.failOn {
		return device.NoOp, errors.New("control failed")
	}
	if m.devices == nil {
		return device.Changed, nil
	}
	for _, d := range m.devices.list {
		if d.ID != id {
			continue
		}
		switch action {
		case "turn_on":
			return d.TurnOn(), nil
		case "turn_off":
			return d.TurnOff(), nil
		}
	}
	return device.NoOp, nil
}

func (m *mockActuator) RecordAlert(message string, _ map[string]any) {
	m.alerts = append(m.alerts, message)
}

// mockMetrics counts calls.
type mockMetrics struct {
	evaluated int
	triggered int
	failed    map[string]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{failed: map[string]int{}}
}

func (m *mockMetrics) RuleEvaluated()          { m.evaluated++ }
func (m *mockMetrics) RuleTriggered()          { m.triggered++ }
func (m *mockMetrics) RuleFailed(stage string) { m.failed[stage]++ }

func constRule(desc string, result bool) *Func {
	return &Func{
		Desc:      desc,
		Condition: func(Snapshot) (bool, error) { return result, nil },
	}
}

// ─── Tests ──────────────────────────────────────────────────────────────────

func TestEngine_AddRemoveReplace(t *testing.T) {
	e := NewEngine()

	for _, d := range []string{"a", "b", "c"} {
		if err := e.Add(constRule(d, false)); err != nil {
			t.Fatalf("Add(%s) error = %v", d, err)
		}
	}
	if err := e.Add(nil); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("Add(nil) error = %v, want ErrInvalidRule", err)
	}

	removed, err := e.Remove(1)
	if err != nil {
		t.Fatalf("Remove(1) error = %v", err)
	}
	if removed.Description() != "b" {
		t.Errorf("Remove(1) returned %q, want b", removed.Description())
	}
	if got := e.Rules(); !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("Rules() = %v, want [a c]", got)
	}

	if err := e.Replace(0, constRule("z", false)); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if got := e.Rules(); !slices.Equal(got, []string{"z", "c"}) {
		t.Errorf("Rules() after Replace = %v, want [z c]", got)
	}
}

func TestEngine_InvalidIndex(t *testing.T) {
	e := NewEngine()
	_ = e.Add(constRule("only", false))

	for _, idx := range []int{-1, 1, 5} {
		t.Run(fmt.Sprint(idx), func(t *testing.T) {
			if _, err := e.Remove(idx); !errors.Is(err, ErrInvalidRuleIndex) {
				t.Errorf("Remove(%d) error = %v, want ErrInvalidRuleIndex", idx, err)
			}
			if err := e.Replace(idx, constRule("x", false)); !errors.Is(err, ErrInvalidRuleIndex) {
				t.Errorf("Replace(%d) error = %v, want ErrInvalidRuleIndex", idx, err)
			}
		})
	}
	if e.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (invalid index must not change the list)", e.Len())
	}
}

func TestEngine_EvaluateAll_CountsTriggers(t *testing.T) {
	e := NewEngine()
	m := newMockMetrics()
	e.SetMetrics(m)

	var order []string
	mk := func(desc string, result bool) Rule {
		return &Func{
			Desc:      desc,
			Condition: func(Snapshot) (bool, error) { return result, nil },
			Action: func(Snapshot, Actuator) error {
				order = append(order, desc)
				return nil
			},
		}
	}
	_ = e.Add(mk("first", true))
	_ = e.Add(mk("second", false))
	_ = e.Add(mk("third", true))

	got := e.EvaluateAll(Snapshot{}, &mockActuator{})
	if got != 2 {
		t.Errorf("EvaluateAll() = %d, want 2", got)
	}
	if !slices.Equal(order, []string{"first", "third"}) {
		t.Errorf("actions ran in order %v, want [first third]", order)
	}
	if m.evaluated != 3 || m.triggered != 2 {
		t.Errorf("metrics evaluated=%d triggered=%d, want 3/2", m.evaluated, m.triggered)
	}
}

func TestEngine_EvaluateAll_IsolatesFailures(t *testing.T) {
	e := NewEngine()
	m := newMockMetrics()
	e.SetMetrics(m)

	ran := false
	_ = e.Add(&Func{
		Desc:      "condition panics",
		Condition: func(Snapshot) (bool, error) { panic("boom") },
	})
	_ = e.Add(&Func{
		Desc:      "condition errors",
		Condition: func(Snapshot) (bool, error) { return true, errors.New("bad sensor") },
	})
	_ = e.Add(&Func{
		Desc:      "action panics",
		Condition: func(Snapshot) (bool, error) { return true, nil },
		Action:    func(Snapshot, Actuator) error { panic("kaboom") },
	})
	_ = e.Add(&Func{
		Desc:      "action errors",
		Condition: func(Snapshot) (bool, error) { return true, nil },
		Action:    func(Snapshot, Actuator) error { return errors.New("device offline") },
	})
	_ = e.Add(&Func{
		Desc:      "healthy",
		Condition: func(Snapshot) (bool, error) { return true, nil },
		Action: func(Snapshot, Actuator) error {
			ran = true
			return nil
		},
	})

	got := e.EvaluateAll(Snapshot{}, &mockActuator{})

	// Rules whose condition held count as triggered even when the action fails.
	if got != 3 {
		t.Errorf("EvaluateAll() = %d, want 3", got)
	}
	if !ran {
		t.Error("healthy rule did not run after failing rules")
	}
	if m.failed[StageCondition] != 2 {
		t.Errorf("condition failures = %d, want 2", m.failed[StageCondition])
	}
	if m.failed[StageAction] != 2 {
		t.Errorf("action failures = %d, want 2", m.failed[StageAction])
	}
}

func TestEngine_EvaluateAll_Empty(t *testing.T) {
	if got := NewEngine().EvaluateAll(Snapshot{}, &mockActuator{}); got != 0 {
		t.Errorf("EvaluateAll() on empty engine = %d, want 0", got)
	}
}

func TestEngine_RecordsAndFromRecord(t *testing.T) {
	e := NewEngine()
	high, err := NewTemplate(TemplateTemperatureHigh, map[string]any{"threshold": 28, "device_id": "ac-1"})
	if err != nil {
		t.Fatalf("NewTemplate() error = %v", err)
	}
	_ = e.Add(high)
	_ = e.Add(constRule("custom closure", true))

	records := e.Records()
	if len(records) != 2 {
		t.Fatalf("Records() len = %d, want 2", len(records))
	}
	if records[0].Template != TemplateTemperatureHigh {
		t.Errorf("records[0].Template = %q", records[0].Template)
	}
	if records[0].Params[ParamThreshold] != 28.0 {
		t.Errorf("records[0] threshold = %v, want 28", records[0].Params[ParamThreshold])
	}
	if records[1].Template != "" || records[1].Description != "custom closure" {
		t.Errorf("records[1] = %+v, want description-only", records[1])
	}

	restored := NewEngine()
	for _, rec := range records {
		r, err := FromRecord(rec)
		if err != nil {
			t.Fatalf("FromRecord(%+v) error = %v", rec, err)
		}
		_ = restored.Add(r)
	}
	if !slices.Equal(restored.Rules(), e.Rules()) {
		t.Errorf("restored Rules() = %v, want %v", restored.Rules(), e.Rules())
	}
	if _, ok := restored.rules[1].(Detached); !ok {
		t.Errorf("description-only record restored as %T, want Detached", restored.rules[1])
	}

	// The detached placeholder never fires.
	if got := restored.EvaluateAll(Snapshot{Readings: map[string]any{"temperature": 10}}, &mockActuator{}); got != 0 {
		t.Errorf("restored EvaluateAll() = %d, want 0", got)
	}
}
