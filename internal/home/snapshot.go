package home

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/nerrad567/smarthome-core/internal/device"
	"github.com/nerrad567/smarthome-core/internal/user"
)

// Snapshot is the serialisable state of a home:
//
//	{
//	  "users":   {"alice": {"devices": ["light-1"]}},
//	  "devices": {"light-1": {"kind": "light", "id": "light-1", "power": "off",
//	              "attributes": {...}, "shared_with": []}}
//	}
//
// Both objects are written and read in order, so user order, device
// registration order and every id list survive a round trip.
type Snapshot struct {
	Users   []UserState
	Devices []DeviceState
}

// UserState is one entry of the "users" object.
type UserState struct {
	Username string
	Devices  []string
}

// DeviceState is one entry of the "devices" object.
type DeviceState struct {
	Kind       string         `json:"kind"`
	ID         string         `json:"id"`
	Power      device.Power   `json:"power"`
	Attributes map[string]any `json:"attributes"`
	SharedWith []string       `json:"shared_with"`
}

// IsEmpty reports whether the snapshot holds no users and no devices.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || (len(s.Users) == 0 && len(s.Devices) == 0)
}

// Snapshot captures the current users and devices.
func (h *Home) Snapshot() *Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &Snapshot{
		Users:   []UserState{},
		Devices: make([]DeviceState, 0, len(h.order)),
	}
	for _, u := range h.users.List() {
		s.Users = append(s.Users, UserState{Username: u.Username, Devices: u.Devices})
	}
	for _, id := range h.order {
		d := h.devices[id].DeepCopy()
		s.Devices = append(s.Devices, DeviceState{
			Kind:       d.Name,
			ID:         d.ID,
			Power:      d.Power,
			Attributes: d.Attributes,
			SharedWith: d.SharedWith,
		})
	}
	return s
}

// Restore replaces users and devices with the snapshot's contents. Rules
// are untouched. Ownership entries naming unknown devices are dropped and
// logged. On error the home is left empty.
func (h *Home) Restore(s *Snapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.users = user.NewRegistry()
	h.devices = make(map[string]*device.Device)
	h.order = nil
	if s == nil {
		return nil
	}

	if err := h.restoreLocked(s); err != nil {
		h.users = user.NewRegistry()
		h.devices = make(map[string]*device.Device)
		h.order = nil
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	h.logger.Info("home state restored", "users", h.users.Len(), "devices", len(h.order))
	return nil
}

func (h *Home) restoreLocked(s *Snapshot) error {
	for _, ds := range s.Devices {
		if ds.ID == "" {
			return errors.New("device with empty id")
		}
		if _, dup := h.devices[ds.ID]; dup {
			return fmt.Errorf("duplicate device %s", ds.ID)
		}
		d, err := device.FromState(ds.Kind, ds.ID, ds.Power, ds.Attributes, ds.SharedWith)
		if err != nil {
			return fmt.Errorf("device %s: %w", ds.ID, err)
		}
		h.devices[ds.ID] = d
		h.order = append(h.order, ds.ID)
	}

	for _, us := range s.Users {
		if _, err := h.users.Add(us.Username); err != nil {
			return err
		}
		for _, id := range us.Devices {
			if _, ok := h.devices[id]; !ok {
				h.logger.Warn("dropping unknown device from user", "username", us.Username, "device_id", id)
				continue
			}
			if err := h.users.LinkDevice(us.Username, id); err != nil {
				h.logger.Warn("dropping device already owned", "username", us.Username, "device_id", id, "error", err)
			}
		}
	}
	return nil
}

// MarshalJSON writes users and devices as ordered JSON objects.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"users":{`)
	for i, u := range s.Users {
		if i > 0 {
			buf.WriteByte(',')
		}
		devices := u.Devices
		if devices == nil {
			devices = []string{}
		}
		if err := writeMember(&buf, u.Username, struct {
			Devices []string `json:"devices"`
		}{devices}); err != nil {
			return nil, err
		}
	}
	buf.WriteString(`},"devices":{`)
	for i, d := range s.Devices {
		if i > 0 {
			buf.WriteByte(',')
		}
		if d.Attributes == nil {
			d.Attributes = map[string]any{}
		}
		if d.SharedWith == nil {
			d.SharedWith = []string{}
		}
		if err := writeMember(&buf, d.ID, d); err != nil {
			return nil, err
		}
	}
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshalling %s: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// UnmarshalJSON reads the ordered form written by MarshalJSON. Unknown
// top-level keys are ignored.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var out Snapshot
	err := readObject(dec, func(key string) error {
		switch key {
		case "users":
			return readObject(dec, func(name string) error {
				var v struct {
					Devices []string `json:"devices"`
				}
				if err := dec.Decode(&v); err != nil {
					return fmt.Errorf("user %s: %w", name, err)
				}
				out.Users = append(out.Users, UserState{Username: name, Devices: v.Devices})
				return nil
			})
		case "devices":
			return readObject(dec, func(id string) error {
				var v deviceStateJSON
				if err := dec.Decode(&v); err != nil {
					return fmt.Errorf("device %s: %w", id, err)
				}
				out.Devices = append(out.Devices, v.state(id))
				return nil
			})
		default:
			var skip json.RawMessage
			return dec.Decode(&skip)
		}
	})
	if err != nil {
		return err
	}

	if out.Users == nil {
		out.Users = []UserState{}
	}
	if out.Devices == nil {
		out.Devices = []DeviceState{}
	}
	*s = out
	return nil
}

// readObject consumes one JSON object, calling member for each key with
// the decoder positioned at the value.
func readObject(dec *json.Decoder, member func(key string) error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		if err := member(key); err != nil {
			return err
		}
	}
	_, err = dec.Token() // closing '}'
	return err
}

// deviceStateJSON also accepts the older field names (name, device_id,
// status, shared_users) so data files from earlier releases still load.
// The object key is the device id.
type deviceStateJSON struct {
	Kind       string         `json:"kind"`
	Power      device.Power   `json:"power"`
	Attributes map[string]any `json:"attributes"`
	SharedWith []string       `json:"shared_with"`

	Name        string       `json:"name"`
	Status      device.Power `json:"status"`
	SharedUsers []string     `json:"shared_users"`
}

func (v deviceStateJSON) state(key string) DeviceState {
	ds := DeviceState{
		Kind:       cmp.Or(v.Kind, v.Name),
		ID:         key,
		Power:      cmp.Or(v.Power, v.Status),
		Attributes: numbersToValues(v.Attributes),
		SharedWith: v.SharedWith,
	}
	if ds.SharedWith == nil {
		ds.SharedWith = slices.Clone(v.SharedUsers)
	}
	return ds
}

// numbersToValues converts json.Number leaves to int (when whole) or float64.
func numbersToValues(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = numberValue(v)
	}
	return out
}

func numberValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i)
		}
		f, _ := val.Float64()
		return f
	case map[string]any:
		return numbersToValues(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = numberValue(e)
		}
		return out
	default:
		return v
	}
}
