package automation

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nerrad567/smarthome-core/internal/device"
)

// Reading keys understood by the built-in templates.
const (
	ReadingTemperature = "temperature"
	ReadingHasPerson   = "has_person"
	ReadingDoorLocked  = "door_locked"
)

// DeviceView gives rules read access to the home's devices.
// Implementations return copies; mutating them has no effect.
type DeviceView interface {
	Device(id string) (*device.Device, error)

	// Devices returns every device in registration order.
	Devices() []*device.Device
}

// Snapshot is the state a rule evaluation sees: sensor readings plus a
// view of the devices. Rules must treat it as read-only.
type Snapshot struct {
	Readings map[string]any
	Devices  DeviceView
}

// Reading returns a raw reading.
func (s Snapshot) Reading(key string) (any, bool) {
	v, ok := s.Readings[key]
	return v, ok
}

// Temperature returns the temperature reading in °C.
func (s Snapshot) Temperature() (float64, error) {
	v, ok := s.Readings[ReadingTemperature]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingReading, ReadingTemperature)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s is %T, not a number", ErrMissingReading, ReadingTemperature, v)
	}
	return f, nil
}

// HasPerson reports the presence reading, defaulting to true when absent.
func (s Snapshot) HasPerson() bool {
	return s.flag(ReadingHasPerson, true)
}

// DoorLocked reports the door lock reading, defaulting to true when absent.
func (s Snapshot) DoorLocked() bool {
	return s.flag(ReadingDoorLocked, true)
}

// DeviceList returns the devices in registration order, or nil without a view.
func (s Snapshot) DeviceList() []*device.Device {
	if s.Devices == nil {
		return nil
	}
	return s.Devices.Devices()
}

func (s Snapshot) flag(key string, fallback bool) bool {
	switch v := s.Readings[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
