package device

import "sort"

// Attribute keys.
const (
	AttrBrightness     = "brightness"
	AttrColorTemp      = "color_temp"
	AttrTemperature    = "temperature"
	AttrMode           = "mode"
	AttrLocked         = "locked"
	AttrLastActionTime = "last_action_time"
	AttrAngle          = "angle"
	AttrNightVision    = "night_vision"
	AttrOpenness       = "openness"
	AttrVolume         = "volume"
	AttrPlayMode       = "play_mode"
	AttrCurrentSong    = "current_song"
	AttrColor          = "color"
	AttrAutoChange     = "auto_change"
)

// Value domains for validated setters.
var (
	ColorTemps = []string{"warm", "cool"}
	ACModes    = []string{"cool", "heat", "fan"}
	PlayModes  = []string{"single", "loop", "shuffle"}

	// MoodPalette is the fixed set of colours a mood light can show.
	MoodPalette = []string{"red", "blue", "green", "purple", "yellow"}
)

// Numeric bounds, inclusive.
const (
	MinBrightness  = 0
	MaxBrightness  = 100
	MinTemperature = 16
	MaxTemperature = 30
	MinAngle       = 0
	MaxAngle       = 360
	MinOpenness    = 0
	MaxOpenness    = 100
	MinVolume      = 0
	MaxVolume      = 100
)

// method is a named operation invoked through Device.Invoke.
type method func(d *Device, p Params) error

// kindSpec is one row of the kind table: the initial state, the named
// methods a kind supports, and the validated setter behind each attribute
// key that SetAttr routes through.
type kindSpec struct {
	power    Power
	defaults func() Attributes
	methods  map[string]method
	setters  map[string]method
}

var kindSpecs map[Kind]kindSpec

func init() {
	kindSpecs = map[Kind]kindSpec{
		KindLight: {
			power: PowerOff,
			defaults: func() Attributes {
				return Attributes{AttrBrightness: 50, AttrColorTemp: "warm"}
			},
			methods: map[string]method{
				"set_brightness": intMethod((*Device).SetBrightness),
				"set_color_temp": stringMethod((*Device).SetColorTemp),
			},
			setters: map[string]method{
				AttrBrightness: intMethod((*Device).SetBrightness),
				AttrColorTemp:  stringMethod((*Device).SetColorTemp),
			},
		},
		KindAirConditioner: {
			power: PowerOff,
			defaults: func() Attributes {
				return Attributes{AttrTemperature: 26, AttrMode: "cool"}
			},
			methods: map[string]method{
				"set_temperature": intMethod((*Device).SetTemperature),
				"set_mode":        stringMethod((*Device).SetMode),
			},
			setters: map[string]method{
				AttrTemperature: intMethod((*Device).SetTemperature),
				AttrMode:        stringMethod((*Device).SetMode),
			},
		},
		KindDoorLock: {
			// Power mirrors the lock: on means locked.
			power: PowerOn,
			defaults: func() Attributes {
				return Attributes{AttrLocked: true, AttrLastActionTime: ""}
			},
			methods: map[string]method{
				"lock":   noArgMethod((*Device).Lock),
				"unlock": noArgMethod((*Device).Unlock),
			},
			setters: map[string]method{
				AttrLocked: boolMethod(func(d *Device, locked bool) error {
					if locked {
						return d.Lock()
					}
					return d.Unlock()
				}),
			},
		},
		KindCamera: {
			power: PowerOff,
			defaults: func() Attributes {
				return Attributes{AttrAngle: 0, AttrNightVision: false}
			},
			methods: map[string]method{
				"set_angle":        intMethod((*Device).SetAngle),
				"set_night_vision": boolMethod((*Device).SetNightVision),
			},
			setters: map[string]method{
				AttrAngle:       intMethod((*Device).SetAngle),
				AttrNightVision: boolMethod((*Device).SetNightVision),
			},
		},
		KindCurtain: {
			power: PowerOff,
			defaults: func() Attributes {
				return Attributes{AttrOpenness: 0}
			},
			methods: map[string]method{
				"set_openness": intMethod((*Device).SetOpenness),
			},
			setters: map[string]method{
				AttrOpenness: intMethod((*Device).SetOpenness),
			},
		},
		KindMusicPlayer: {
			power: PowerOff,
			defaults: func() Attributes {
				return Attributes{AttrVolume: 50, AttrPlayMode: "loop", AttrCurrentSong: ""}
			},
			methods: map[string]method{
				"set_volume":    intMethod((*Device).SetVolume),
				"set_play_mode": stringMethod((*Device).SetPlayMode),
				"play_song":     stringMethod((*Device).PlaySong),
			},
			setters: map[string]method{
				AttrVolume:      intMethod((*Device).SetVolume),
				AttrPlayMode:    stringMethod((*Device).SetPlayMode),
				AttrCurrentSong: stringMethod((*Device).PlaySong),
			},
		},
		KindMoodLight: {
			power: PowerOff,
			defaults: func() Attributes {
				return Attributes{AttrColor: "blue", AttrAutoChange: false}
			},
			methods: map[string]method{
				"set_color":       stringMethod((*Device).SetColor),
				"set_auto_change": boolMethod((*Device).SetAutoChange),
				"auto_change_color": func(d *Device, _ Params) error {
					_, err := d.AutoChangeColor()
					return err
				},
			},
			setters: map[string]method{
				AttrColor:      stringMethod((*Device).SetColor),
				AttrAutoChange: boolMethod((*Device).SetAutoChange),
			},
		},
		KindGeneric: {
			power:    PowerOff,
			defaults: func() Attributes { return Attributes{} },
		},
	}
}

// Methods returns the named methods supported by kind, sorted.
func Methods(kind Kind) []string {
	spec, ok := kindSpecs[kind]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(spec.methods))
	for name := range spec.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func intMethod(set func(*Device, int) error) method {
	return func(d *Device, p Params) error {
		v, err := p.Int("value")
		if err != nil {
			return err
		}
		return set(d, v)
	}
}

func stringMethod(set func(*Device, string) error) method {
	return func(d *Device, p Params) error {
		v, err := p.Text("value")
		if err != nil {
			return err
		}
		return set(d, v)
	}
}

func boolMethod(set func(*Device, bool) error) method {
	return func(d *Device, p Params) error {
		v, err := p.Bool("value")
		if err != nil {
			return err
		}
		return set(d, v)
	}
}

func noArgMethod(fn func(*Device) error) method {
	return func(d *Device, _ Params) error {
		return fn(d)
	}
}
