package home

import (
	"errors"
	"fmt"
	"maps"

	"github.com/nerrad567/smarthome-core/internal/automation"
	"github.com/nerrad567/smarthome-core/internal/device"
)

// AddRule appends an automation rule.
func (h *Home) AddRule(r automation.Rule) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.engine.Add(r); err != nil {
		return err
	}
	h.recorder.RecordEvent("automation rule added", nil, "", map[string]any{
		"index": h.engine.Len() - 1,
		"rule":  r.Description(),
	})
	return nil
}

// RemoveRule deletes the rule at index.
func (h *Home) RemoveRule(index int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, err := h.engine.Remove(index)
	if err != nil {
		return err
	}
	h.recorder.RecordEvent("automation rule removed", nil, "", map[string]any{
		"index": index,
		"rule":  r.Description(),
	})
	return nil
}

// ReplaceRule swaps the rule at index, typically to re-attach live logic
// to a restored description.
func (h *Home) ReplaceRule(index int, r automation.Rule) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engine.Replace(index, r)
}

// Rules returns rule descriptions in order.
func (h *Home) Rules() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engine.Rules()
}

// RuleRecords returns the persisted form of every rule.
func (h *Home) RuleRecords() []automation.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engine.Records()
}

// RestoreRules replaces the rule list with rules rebuilt from records.
// A record that cannot be rebuilt keeps its slot as a detached rule and
// its error is included in the returned error.
func (h *Home) RestoreRules(records []automation.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.engine.Clear()
	var errs []error
	for i, rec := range records {
		r, err := automation.FromRecord(rec)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %d: %w", i, err))
			r = automation.Detached{Desc: rec.Description}
		}
		_ = h.engine.Add(r)
	}
	h.logger.Info("automation rules restored", "count", len(records), "failed", len(errs))
	return errors.Join(errs...)
}

// RunRules evaluates every rule against readings and returns how many
// triggered. When readings carry no door_locked value it is taken from
// the first door lock in registration order.
func (h *Home) RunRules(readings map[string]any) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	r := maps.Clone(readings)
	if r == nil {
		r = map[string]any{}
	}
	if _, ok := r[automation.ReadingDoorLocked]; !ok {
		for _, id := range h.order {
			if d := h.devices[id]; d.Kind == device.KindDoorLock {
				r[automation.ReadingDoorLocked] = d.IsLocked()
				break
			}
		}
	}

	view := lockedView{h}
	s := automation.Snapshot{Readings: r, Devices: view}
	return h.engine.EvaluateAll(s, ruleActuator{h})
}

// lockedView and ruleActuator give rules access to the home while RunRules
// already holds the lock.
type lockedView struct{ h *Home }

func (v lockedView) Device(id string) (*device.Device, error) { return v.h.deviceLocked(id) }

func (v lockedView) Devices() []*device.Device { return v.h.devicesLocked() }

type ruleActuator struct{ h *Home }

func (a ruleActuator) ControlDevice(id, action string, params device.Params) (device.Result, error) {
	return a.h.controlLocked(id, action, params, map[string]any{"trigger": "automation"})
}

func (a ruleActuator) RecordAlert(message string, fields map[string]any) {
	a.h.logger.Warn("automation alert", "message", message)
	a.h.recorder.RecordEvent(message, nil, "", withAlert(fields))
}

func withAlert(fields map[string]any) map[string]any {
	out := maps.Clone(fields)
	if out == nil {
		out = map[string]any{}
	}
	out["alert"] = true
	out["trigger"] = "automation"
	return out
}
