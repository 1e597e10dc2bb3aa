package automation

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/nerrad567/smarthome-core/internal/device"
)

// Template names a built-in rule that can be rebuilt from a Record.
type Template string

// Built-in templates.
const (
	TemplateTemperatureHigh Template = "temperature_high"
	TemplateTemperatureLow  Template = "temperature_low"
	TemplateNoPerson        Template = "no_person"
	TemplateDoorUnlocked    Template = "door_unlocked"
)

// AllTemplates returns every built-in template.
func AllTemplates() []Template {
	return []Template{
		TemplateTemperatureHigh,
		TemplateTemperatureLow,
		TemplateNoPerson,
		TemplateDoorUnlocked,
	}
}

// Default thresholds in °C.
const (
	DefaultHighThreshold = 30.0
	DefaultLowThreshold  = 20.0
)

// Template parameter keys.
const (
	ParamThreshold = "threshold"
	ParamDeviceID  = "device_id"
)

// TemplateRule is one of the built-in rules. Its target is either an
// explicit device id or, when none is set, the first device of the
// template's kind in registration order.
type TemplateRule struct {
	template    Template
	threshold   float64
	deviceID    string
	description string
}

// NewTemplate builds a template rule. Recognised params are "threshold"
// (temperature templates only) and "device_id".
func NewTemplate(t Template, params map[string]any) (*TemplateRule, error) {
	r := &TemplateRule{template: t}

	switch t {
	case TemplateTemperatureHigh:
		r.threshold = DefaultHighThreshold
	case TemplateTemperatureLow:
		r.threshold = DefaultLowThreshold
	case TemplateNoPerson, TemplateDoorUnlocked:
		if _, ok := params[ParamThreshold]; ok {
			return nil, fmt.Errorf("%w: %s takes no threshold", ErrInvalidRule, t)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, t)
	}

	if v, ok := params[ParamThreshold]; ok {
		f, ok := toFloat(v)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: threshold must be a finite number, got %v", ErrInvalidRule, v)
		}
		r.threshold = f
	}
	if v, ok := params[ParamDeviceID]; ok {
		id, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: device_id must be a string, got %T", ErrInvalidRule, v)
		}
		r.deviceID = id
	}

	r.description = r.defaultDescription()
	return r, nil
}

// Template returns the template name.
func (r *TemplateRule) Template() Template { return r.template }

// Threshold returns the temperature threshold (zero for non-temperature templates).
func (r *TemplateRule) Threshold() float64 { return r.threshold }

// Description returns a human-readable summary.
func (r *TemplateRule) Description() string { return r.description }

// Record returns the persisted form.
func (r *TemplateRule) Record() Record {
	params := map[string]any{}
	if r.template == TemplateTemperatureHigh || r.template == TemplateTemperatureLow {
		params[ParamThreshold] = r.threshold
	}
	if r.deviceID != "" {
		params[ParamDeviceID] = r.deviceID
	}
	return Record{Description: r.description, Template: r.template, Params: params}
}

// Evaluate checks the template's condition.
func (r *TemplateRule) Evaluate(s Snapshot) (bool, error) {
	switch r.template {
	case TemplateTemperatureHigh:
		t, err := s.Temperature()
		if err != nil {
			return false, err
		}
		return t > r.threshold, nil
	case TemplateTemperatureLow:
		t, err := s.Temperature()
		if err != nil {
			return false, err
		}
		return t < r.threshold, nil
	case TemplateNoPerson:
		return !s.HasPerson(), nil
	case TemplateDoorUnlocked:
		return !s.DoorLocked(), nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownTemplate, r.template)
}

// Execute performs the template's action.
func (r *TemplateRule) Execute(s Snapshot, act Actuator) error {
	switch r.template {
	case TemplateTemperatureHigh:
		return r.powerTarget(s, act, device.KindAirConditioner, "turn_on")
	case TemplateTemperatureLow:
		return r.powerTarget(s, act, device.KindAirConditioner, "turn_off")
	case TemplateNoPerson:
		return r.lightsOff(s, act)
	case TemplateDoorUnlocked:
		fields := map[string]any{"rule": r.description}
		if lock := r.target(s, device.KindDoorLock); lock != nil {
			fields["device_id"] = lock.ID
		}
		act.RecordAlert("door lock is unlocked", fields)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownTemplate, r.template)
}

func (r *TemplateRule) powerTarget(s Snapshot, act Actuator, kind device.Kind, action string) error {
	d := r.target(s, kind)
	if d == nil {
		return fmt.Errorf("%w: no %s", ErrNoTargetDevice, kind)
	}
	_, err := act.ControlDevice(d.ID, action, nil)
	return err
}

// lightsOff turns off every light that is on, or just the configured one.
func (r *TemplateRule) lightsOff(s Snapshot, act Actuator) error {
	var errs []error
	for _, d := range s.DeviceList() {
		if d.Kind != device.KindLight || !d.IsOn() {
			continue
		}
		if r.deviceID != "" && d.ID != r.deviceID {
			continue
		}
		if _, err := act.ControlDevice(d.ID, "turn_off", nil); err != nil {
			errs = append(errs, fmt.Errorf("light %s: %w", d.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (r *TemplateRule) target(s Snapshot, kind device.Kind) *device.Device {
	if r.deviceID != "" && s.Devices != nil {
		d, err := s.Devices.Device(r.deviceID)
		if err != nil || d.Kind != kind {
			return nil
		}
		return d
	}
	for _, d := range s.DeviceList() {
		if d.Kind == kind {
			return d
		}
	}
	return nil
}

func (r *TemplateRule) defaultDescription() string {
	var desc string
	switch r.template {
	case TemplateTemperatureHigh:
		desc = "temperature above " + formatCelsius(r.threshold) + " turns on the air conditioner"
	case TemplateTemperatureLow:
		desc = "temperature below " + formatCelsius(r.threshold) + " turns off the air conditioner"
	case TemplateNoPerson:
		desc = "lights turn off when nobody is home"
	case TemplateDoorUnlocked:
		desc = "alert when the door is unlocked"
	}
	if r.deviceID != "" {
		desc += " (" + r.deviceID + ")"
	}
	return desc
}

func formatCelsius(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "°C"
}
