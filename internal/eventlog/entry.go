package eventlog

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/nerrad567/smarthome-core/internal/device"
)

// TimeLayout is the timestamp format of text log lines.
const TimeLayout = "2006-01-02 15:04:05"

// Categories returned by Entry.Category.
const (
	CategoryAlert  = "alert"
	CategoryDevice = "device"
	CategoryUser   = "user"
	CategorySystem = "system"
)

// Entry is one recorded event.
type Entry struct {
	ID       string         `json:"id"`
	Time     time.Time      `json:"time"`
	Message  string         `json:"message"`
	Device   *DeviceRef     `json:"device,omitempty"`
	Username string         `json:"username,omitempty"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// DeviceRef is the device state captured when the event was recorded.
type DeviceRef struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Kind       device.Kind    `json:"kind"`
	Power      device.Power   `json:"power"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// RefOf captures a device. It returns nil for a nil device.
func RefOf(d *device.Device) *DeviceRef {
	if d == nil {
		return nil
	}
	cpy := d.DeepCopy()
	return &DeviceRef{
		ID:         cpy.ID,
		Name:       cpy.Name,
		Kind:       cpy.Kind,
		Power:      cpy.Power,
		Attributes: cpy.Attributes,
	}
}

// IsAlert reports whether the entry was flagged as an alert.
func (e Entry) IsAlert() bool {
	alert, _ := e.Fields["alert"].(bool)
	return alert
}

// Category classifies the entry for routing: alert, device, user or system.
func (e Entry) Category() string {
	switch {
	case e.IsAlert():
		return CategoryAlert
	case e.Device != nil:
		return CategoryDevice
	case e.Username != "":
		return CategoryUser
	default:
		return CategorySystem
	}
}

// String renders the entry as one text log line:
//
//	[2026-03-01 09:00:00] device turned on | user: alice | device: light(L1) | power: on | new_power: on
//
// Field keys are sorted.
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(e.Time.Format(TimeLayout))
	b.WriteString("] ")
	b.WriteString(e.Message)

	if e.Username != "" {
		b.WriteString(" | user: ")
		b.WriteString(e.Username)
	}
	if e.Device != nil {
		fmt.Fprintf(&b, " | device: %s(%s)", e.Device.Name, e.Device.ID)
		if e.Device.Power != "" {
			fmt.Fprintf(&b, " | power: %s", e.Device.Power)
		}
	}
	for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
		fmt.Fprintf(&b, " | %s: %v", k, e.Fields[k])
	}
	return b.String()
}
