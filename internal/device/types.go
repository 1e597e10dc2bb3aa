package device

import "strings"

// Device is one controllable appliance in the home.
//
// Every kind shares this shape: a power state plus a free-form attribute
// map whose keys and value domains are fixed per kind by the kind table.
// ID, Kind and Name are set by New and never change afterwards.
type Device struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	// Name is the display name: the kind string for built-in kinds, or the
	// raw kind string a generic device was created with.
	Name string `json:"name"`

	Power      Power      `json:"power"`
	Attributes Attributes `json:"attributes"`

	// SharedWith lists usernames granted access, in the order they were added.
	// The owner may appear here too; ownership and sharing are independent.
	SharedWith []string `json:"shared_with"`
}

// Attributes holds kind-specific state, e.g.
//   - Light: {"brightness": 50, "color_temp": "warm"}
//   - AirConditioner: {"temperature": 26, "mode": "cool"}
type Attributes map[string]any

// Params carries the arguments of a named method. Setters read "value".
type Params map[string]any

// DeepCopy creates a complete independent copy of the Device.
// Maps and slices are cloned so modifications to the copy do not
// affect the original.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d
	cpy.Attributes = Attributes(deepCopyMap(d.Attributes))
	if d.SharedWith != nil {
		cpy.SharedWith = make([]string, len(d.SharedWith))
		copy(cpy.SharedWith, d.SharedWith)
	}
	return &cpy
}

// IsOn reports whether the device is powered on.
func (d *Device) IsOn() bool {
	return d.Power == PowerOn
}

// Kind identifies which attribute set and methods a device has.
type Kind string

// Kind constants. The string values are the names accepted by New.
const (
	KindLight          Kind = "light"
	KindAirConditioner Kind = "aircon"
	KindDoorLock       Kind = "doorlock"
	KindCamera         Kind = "camera"
	KindCurtain        Kind = "curtain"
	KindMusicPlayer    Kind = "musicplayer"
	KindMoodLight      Kind = "moodlight"

	// KindGeneric has no attributes or methods beyond power and
	// SetAttribute. Unknown kind strings map here.
	KindGeneric Kind = "generic"
)

// AllKinds returns every built-in kind (excluding generic).
func AllKinds() []Kind {
	return []Kind{
		KindLight, KindAirConditioner, KindDoorLock, KindCamera,
		KindCurtain, KindMusicPlayer, KindMoodLight,
	}
}

// ParseKind maps a kind string to a Kind, ignoring case and surrounding
// space. Unknown strings return KindGeneric and false.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == KindGeneric {
		return KindGeneric, true
	}
	if _, ok := kindSpecs[k]; ok {
		return k, true
	}
	return KindGeneric, false
}

// Power is a device's on/off state.
type Power string

// Power constants.
const (
	PowerOn  Power = "on"
	PowerOff Power = "off"
)

// Valid reports whether p is "on" or "off".
func (p Power) Valid() bool {
	return p == PowerOn || p == PowerOff
}

// Result reports whether a power transition changed anything.
type Result int

// Result values.
const (
	NoOp Result = iota
	Changed
)

func (r Result) String() string {
	if r == Changed {
		return "changed"
	}
	return "no-op"
}

// deepCopyMap creates a deep copy of a map[string]any.
// Nested maps and slices are recursively copied.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case Attributes:
		return Attributes(deepCopyMap(val))
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		return v
	}
}
