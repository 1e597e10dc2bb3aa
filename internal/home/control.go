package home

import (
	"fmt"
	"maps"
	"slices"

	"github.com/nerrad567/smarthome-core/internal/device"
	"github.com/nerrad567/smarthome-core/internal/user"
)

// Built-in control actions. Any other action names a method from the
// device's kind table (see device.Methods).
const (
	ActionTurnOn  = "turn_on"
	ActionTurnOff = "turn_off"
	ActionSetAttr = "set_attr"
)

// ControlDevice applies an action to a device.
//
//   - turn_on / turn_off return device.NoOp when the power state already
//     matches; no event is recorded in that case.
//   - set_attr reads params "key" and "value".
//   - anything else runs the named method with params.
//
// Rejected values leave the device unchanged.
func (h *Home) ControlDevice(id, action string, params device.Params) (device.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.controlLocked(id, action, params, nil)
}

// controlLocked applies an action; extra is merged into the event fields.
func (h *Home) controlLocked(id, action string, params device.Params, extra map[string]any) (device.Result, error) {
	d, ok := h.devices[id]
	if !ok {
		return device.NoOp, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}

	var (
		msg    string
		fields = map[string]any{"device_id": id}
	)

	switch action {
	case ActionTurnOn, ActionTurnOff:
		old := d.Power
		var res device.Result
		if action == ActionTurnOn {
			res, msg = d.TurnOn(), "device turned on"
		} else {
			res, msg = d.TurnOff(), "device turned off"
		}
		if res == device.NoOp {
			h.logger.Debug("power unchanged", "device_id", id, "action", action, "power", old)
			return device.NoOp, nil
		}
		fields["old_power"] = string(old)
		fields["new_power"] = string(d.Power)

	case ActionSetAttr:
		key, err := params.Text("key")
		if err != nil {
			return device.NoOp, err
		}
		value, ok := params["value"]
		if !ok || value == nil {
			return device.NoOp, fmt.Errorf("%w: missing %q", device.ErrInvalidParam, "value")
		}
		if err := d.SetAttr(key, value); err != nil {
			return device.NoOp, err
		}
		msg = "device attribute set"
		fields["key"] = key
		fields["value"] = value

	default:
		if !slices.Contains(device.Methods(d.Kind), action) {
			return device.NoOp, fmt.Errorf("%w: %q on %s %s", ErrUnknownAction, action, d.Name, id)
		}
		if err := d.Invoke(action, params); err != nil {
			return device.NoOp, err
		}
		msg = "device action"
		fields["action"] = action
		maps.Copy(fields, params)
	}

	maps.Copy(fields, extra)
	h.recorder.RecordEvent(msg, d, "", fields)
	h.mutated(action)
	return device.Changed, nil
}

// ShareDevice grants username access to a device.
func (h *Home) ShareDevice(id, username string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	d, ok := h.devices[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	if !h.users.Exists(username) {
		return fmt.Errorf("%w: %s", user.ErrUserNotFound, username)
	}
	if err := d.Share(username); err != nil {
		return err
	}

	h.recorder.RecordEvent("device shared", d, username, map[string]any{"device_id": id})
	h.mutated("share")
	return nil
}

// UnshareDevice revokes access granted with ShareDevice.
func (h *Home) UnshareDevice(id, username string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	d, ok := h.devices[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	if err := d.Unshare(username); err != nil {
		return err
	}

	h.recorder.RecordEvent("device unshared", d, username, map[string]any{"device_id": id})
	h.mutated("unshare")
	return nil
}

func (h *Home) mutated(action string) {
	if h.metrics != nil {
		h.metrics.DeviceMutated(action)
	}
}
