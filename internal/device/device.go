package device

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"
)

// now is replaced in tests.
var now = time.Now

// New creates a device of the given kind with that kind's default
// attributes. The kind string is matched case-insensitively; an unknown
// kind yields a generic device whose Name keeps the raw kind string.
func New(kind, id string) *Device {
	k, known := ParseKind(kind)
	name := string(k)
	if !known {
		name = strings.TrimSpace(kind)
	}
	spec := kindSpecs[k]

	return &Device{
		ID:         id,
		Kind:       k,
		Name:       name,
		Power:      spec.power,
		Attributes: spec.defaults(),
		SharedWith: []string{},
	}
}

// FromState rebuilds a persisted device. Attributes replace the kind's
// defaults wholesale and are not validated, matching SetAttribute.
func FromState(kind, id string, power Power, attrs map[string]any, sharedWith []string) (*Device, error) {
	if !power.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPower, power)
	}

	d := New(kind, id)
	d.Power = power
	if attrs != nil {
		d.Attributes = NormalizeAttributes(attrs)
	}
	if len(sharedWith) > 0 {
		d.SharedWith = slices.Clone(sharedWith)
	}
	return d, nil
}

// TurnOn powers the device on. It returns NoOp when already on.
//
// For a door lock this locks it; for a curtain it opens fully.
func (d *Device) TurnOn() Result {
	if d.Power == PowerOn {
		return NoOp
	}
	switch d.Kind {
	case KindDoorLock:
		d.setLocked(true)
	case KindCurtain:
		d.Attributes[AttrOpenness] = MaxOpenness
		d.Power = PowerOn
	default:
		d.Power = PowerOn
	}
	return Changed
}

// TurnOff powers the device off. It returns NoOp when already off.
//
// For a door lock this unlocks it; for a curtain it closes fully.
func (d *Device) TurnOff() Result {
	if d.Power == PowerOff {
		return NoOp
	}
	switch d.Kind {
	case KindDoorLock:
		d.setLocked(false)
	case KindCurtain:
		d.Attributes[AttrOpenness] = MinOpenness
		d.Power = PowerOff
	default:
		d.Power = PowerOff
	}
	return Changed
}

// SetAttribute stores value under key without any validation. It is the
// escape hatch for restore paths and generic devices.
func (d *Device) SetAttribute(key string, value any) {
	if d.Attributes == nil {
		d.Attributes = Attributes{}
	}
	d.Attributes[key] = value
}

// SetAttr sets one attribute. Keys the kind defines go through their
// validated setter, so out-of-domain values are rejected with the device
// unchanged; any other key is stored as is. NaN and infinite numbers
// are rejected for every key.
func (d *Device) SetAttr(key string, value any) error {
	if key == "" {
		return fmt.Errorf("%w: empty attribute key", ErrInvalidParam)
	}
	if !finite(value) {
		return fmt.Errorf("%w: %q must be a finite number, got %v", ErrInvalidParam, key, value)
	}
	if set, ok := kindSpecs[d.Kind].setters[key]; ok {
		return set(d, Params{"value": value})
	}
	d.SetAttribute(key, value)
	return nil
}

// Invoke runs a named method from the device's kind table.
func (d *Device) Invoke(name string, params Params) error {
	fn, ok := kindSpecs[d.Kind].methods[name]
	if !ok {
		return fmt.Errorf("%w: %q on %s", ErrUnsupportedAction, name, d.Kind)
	}
	if params == nil {
		params = Params{}
	}
	return fn(d, params)
}

// Share grants username access. Sharing twice with the same user fails
// with ErrAlreadyShared and leaves the list unchanged.
func (d *Device) Share(username string) error {
	if username == "" {
		return ErrInvalidUsername
	}
	if slices.Contains(d.SharedWith, username) {
		return fmt.Errorf("%w: %s", ErrAlreadyShared, username)
	}
	d.SharedWith = append(d.SharedWith, username)
	return nil
}

// Unshare revokes access previously granted with Share.
func (d *Device) Unshare(username string) error {
	i := slices.Index(d.SharedWith, username)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotShared, username)
	}
	d.SharedWith = slices.Delete(d.SharedWith, i, i+1)
	return nil
}

// IsSharedWith reports whether username appears in the share list.
func (d *Device) IsSharedWith(username string) bool {
	return slices.Contains(d.SharedWith, username)
}

// IntAttr returns an integer attribute. Values restored from JSON are accepted.
func (d *Device) IntAttr(key string) (int, bool) {
	v, ok := d.Attributes[key]
	if !ok {
		return 0, false
	}
	return toInt(v)
}

// StringAttr returns a string attribute.
func (d *Device) StringAttr(key string) (string, bool) {
	s, ok := d.Attributes[key].(string)
	return s, ok
}

// BoolAttr returns a boolean attribute.
func (d *Device) BoolAttr(key string) (bool, bool) {
	b, ok := d.Attributes[key].(bool)
	return b, ok
}

// IsLocked reports a door lock's locked attribute. Non-locks report false.
func (d *Device) IsLocked() bool {
	if d.Kind != KindDoorLock {
		return false
	}
	locked, _ := d.BoolAttr(AttrLocked)
	return locked
}

// Light

// SetBrightness sets a light's brightness in [0, 100].
func (d *Device) SetBrightness(level int) error {
	return d.setInt(KindLight, AttrBrightness, level, MinBrightness, MaxBrightness)
}

// SetColorTemp sets a light's colour temperature ("warm" or "cool").
func (d *Device) SetColorTemp(temp string) error {
	return d.setEnum(KindLight, AttrColorTemp, temp, ColorTemps)
}

// Air conditioner

// SetTemperature sets the target temperature in [16, 30].
func (d *Device) SetTemperature(celsius int) error {
	return d.setInt(KindAirConditioner, AttrTemperature, celsius, MinTemperature, MaxTemperature)
}

// SetMode sets the operating mode ("cool", "heat" or "fan").
func (d *Device) SetMode(mode string) error {
	return d.setEnum(KindAirConditioner, AttrMode, mode, ACModes)
}

// Door lock

// Lock locks the door. Locking an already locked door is not an error.
func (d *Device) Lock() error {
	if err := d.requireKind(KindDoorLock); err != nil {
		return err
	}
	d.setLocked(true)
	return nil
}

// Unlock unlocks the door.
func (d *Device) Unlock() error {
	if err := d.requireKind(KindDoorLock); err != nil {
		return err
	}
	d.setLocked(false)
	return nil
}

func (d *Device) setLocked(locked bool) {
	d.Attributes[AttrLocked] = locked
	d.Attributes[AttrLastActionTime] = now().Format(time.RFC3339)
	if locked {
		d.Power = PowerOn
	} else {
		d.Power = PowerOff
	}
}

// Camera

// SetAngle points the camera, in degrees [0, 360].
func (d *Device) SetAngle(degrees int) error {
	return d.setInt(KindCamera, AttrAngle, degrees, MinAngle, MaxAngle)
}

// SetNightVision toggles night vision.
func (d *Device) SetNightVision(enabled bool) error {
	if err := d.requireKind(KindCamera); err != nil {
		return err
	}
	d.Attributes[AttrNightVision] = enabled
	return nil
}

// Curtain

// SetOpenness opens the curtain to a percentage in [0, 100]. Fully
// closed (0) turns the curtain off; any other value turns it on.
func (d *Device) SetOpenness(percent int) error {
	if err := d.setInt(KindCurtain, AttrOpenness, percent, MinOpenness, MaxOpenness); err != nil {
		return err
	}
	if percent == MinOpenness {
		d.Power = PowerOff
	} else {
		d.Power = PowerOn
	}
	return nil
}

// Music player

// SetVolume sets the volume in [0, 100].
func (d *Device) SetVolume(level int) error {
	return d.setInt(KindMusicPlayer, AttrVolume, level, MinVolume, MaxVolume)
}

// SetPlayMode sets "single", "loop" or "shuffle".
func (d *Device) SetPlayMode(mode string) error {
	return d.setEnum(KindMusicPlayer, AttrPlayMode, mode, PlayModes)
}

// PlaySong starts playing song, powering the player on.
func (d *Device) PlaySong(song string) error {
	if err := d.requireKind(KindMusicPlayer); err != nil {
		return err
	}
	if strings.TrimSpace(song) == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidAttribute, AttrCurrentSong)
	}
	d.Attributes[AttrCurrentSong] = song
	d.Power = PowerOn
	return nil
}

// Mood light

// SetColor sets a colour from MoodPalette.
func (d *Device) SetColor(color string) error {
	return d.setEnum(KindMoodLight, AttrColor, color, MoodPalette)
}

// SetAutoChange toggles automatic colour cycling.
func (d *Device) SetAutoChange(enabled bool) error {
	if err := d.requireKind(KindMoodLight); err != nil {
		return err
	}
	d.Attributes[AttrAutoChange] = enabled
	return nil
}

// AutoChangeColor switches to a random palette colour and returns it.
func (d *Device) AutoChangeColor() (string, error) {
	if err := d.requireKind(KindMoodLight); err != nil {
		return "", err
	}
	color := MoodPalette[rand.IntN(len(MoodPalette))]
	d.Attributes[AttrColor] = color
	return color, nil
}

func (d *Device) requireKind(kind Kind) error {
	if d.Kind != kind {
		return fmt.Errorf("%w: %s is a %s, not a %s", ErrUnsupportedAction, d.ID, d.Kind, kind)
	}
	return nil
}

func (d *Device) setInt(kind Kind, key string, v, lo, hi int) error {
	if err := d.requireKind(kind); err != nil {
		return err
	}
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrInvalidAttribute, key, lo, hi, v)
	}
	d.Attributes[key] = v
	return nil
}

func (d *Device) setEnum(kind Kind, key, v string, allowed []string) error {
	if err := d.requireKind(kind); err != nil {
		return err
	}
	if !slices.Contains(allowed, v) {
		return fmt.Errorf("%w: %s must be one of %s, got %q", ErrInvalidAttribute, key, strings.Join(allowed, ", "), v)
	}
	d.Attributes[key] = v
	return nil
}
