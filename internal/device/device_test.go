package device

import (
	"errors"
	"math"
	"slices"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	tests := []struct {
		kind      string
		wantKind  Kind
		wantPower Power
		wantAttrs Attributes
	}{
		{"light", KindLight, PowerOff, Attributes{AttrBrightness: 50, AttrColorTemp: "warm"}},
		{"aircon", KindAirConditioner, PowerOff, Attributes{AttrTemperature: 26, AttrMode: "cool"}},
		{"doorlock", KindDoorLock, PowerOn, Attributes{AttrLocked: true, AttrLastActionTime: ""}},
		{"camera", KindCamera, PowerOff, Attributes{AttrAngle: 0, AttrNightVision: false}},
		{"curtain", KindCurtain, PowerOff, Attributes{AttrOpenness: 0}},
		{"musicplayer", KindMusicPlayer, PowerOff, Attributes{AttrVolume: 50, AttrPlayMode: "loop", AttrCurrentSong: ""}},
		{"moodlight", KindMoodLight, PowerOff, Attributes{AttrColor: "blue", AttrAutoChange: false}},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			d := New(tt.kind, "dev-1")
			if d.ID != "dev-1" {
				t.Errorf("ID = %q, want dev-1", d.ID)
			}
			if d.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", d.Kind, tt.wantKind)
			}
			if d.Name != tt.kind {
				t.Errorf("Name = %q, want %q", d.Name, tt.kind)
			}
			if d.Power != tt.wantPower {
				t.Errorf("Power = %q, want %q", d.Power, tt.wantPower)
			}
			if len(d.Attributes) != len(tt.wantAttrs) {
				t.Fatalf("Attributes = %v, want %v", d.Attributes, tt.wantAttrs)
			}
			for k, v := range tt.wantAttrs {
				if d.Attributes[k] != v {
					t.Errorf("Attributes[%q] = %v, want %v", k, d.Attributes[k], v)
				}
			}
			if d.SharedWith == nil || len(d.SharedWith) != 0 {
				t.Errorf("SharedWith = %v, want empty non-nil", d.SharedWith)
			}
		})
	}
}

func TestNew_CaseInsensitive(t *testing.T) {
	d := New("  AirCon ", "ac-1")
	if d.Kind != KindAirConditioner {
		t.Errorf("Kind = %q, want %q", d.Kind, KindAirConditioner)
	}
}

func TestNew_UnknownKindIsGeneric(t *testing.T) {
	d := New("Fan", "fan-1")

	if d.Kind != KindGeneric {
		t.Errorf("Kind = %q, want generic", d.Kind)
	}
	if d.Name != "Fan" {
		t.Errorf("Name = %q, want raw kind string %q", d.Name, "Fan")
	}
	if d.Power != PowerOff || len(d.Attributes) != 0 {
		t.Errorf("generic device state = %s %v", d.Power, d.Attributes)
	}

	if r := d.TurnOn(); r != Changed {
		t.Errorf("TurnOn() = %v, want changed", r)
	}
	d.SetAttribute("speed", 3)
	if d.Attributes["speed"] != 3 {
		t.Errorf("SetAttribute did not store value")
	}
	if err := d.Invoke("set_brightness", Params{"value": 10}); !errors.Is(err, ErrUnsupportedAction) {
		t.Errorf("Invoke() error = %v, want ErrUnsupportedAction", err)
	}
}

func TestTurnOnOff_Idempotent(t *testing.T) {
	d := New("light", "light-1")

	steps := []struct {
		name string
		op   func() Result
		want Result
		pow  Power
	}{
		{"first on", d.TurnOn, Changed, PowerOn},
		{"second on", d.TurnOn, NoOp, PowerOn},
		{"first off", d.TurnOff, Changed, PowerOff},
		{"second off", d.TurnOff, NoOp, PowerOff},
	}
	for _, s := range steps {
		if got := s.op(); got != s.want {
			t.Errorf("%s: result = %v, want %v", s.name, got, s.want)
		}
		if d.Power != s.pow {
			t.Errorf("%s: Power = %q, want %q", s.name, d.Power, s.pow)
		}
	}
}

func TestDoorLock_PowerMirrorsLock(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	orig := now
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = orig })

	d := New("doorlock", "lock-1")
	if !d.IsLocked() || !d.IsOn() {
		t.Fatal("new door lock should be locked and on")
	}

	if r := d.TurnOff(); r != Changed {
		t.Errorf("TurnOff() = %v, want changed", r)
	}
	if d.IsLocked() {
		t.Error("TurnOff should unlock")
	}
	if got := d.Attributes[AttrLastActionTime]; got != "2026-03-01T08:30:00Z" {
		t.Errorf("last_action_time = %v", got)
	}

	if err := d.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if !d.IsLocked() || d.Power != PowerOn {
		t.Error("Lock should lock and power on")
	}
	if r := d.TurnOn(); r != NoOp {
		t.Errorf("TurnOn() on locked door = %v, want no-op", r)
	}

	if err := d.Invoke("unlock", nil); err != nil {
		t.Fatalf("Invoke(unlock) error = %v", err)
	}
	if d.IsLocked() || d.Power != PowerOff {
		t.Error("unlock should unlock and power off")
	}
}

func TestCurtain_OpennessDrivesPower(t *testing.T) {
	d := New("curtain", "curtain-1")

	tests := []struct {
		openness  int
		wantPower Power
	}{
		{40, PowerOn},
		{0, PowerOff},
		{100, PowerOn},
	}
	for _, tt := range tests {
		if err := d.SetOpenness(tt.openness); err != nil {
			t.Fatalf("SetOpenness(%d) error = %v", tt.openness, err)
		}
		if d.Power != tt.wantPower {
			t.Errorf("SetOpenness(%d): Power = %q, want %q", tt.openness, d.Power, tt.wantPower)
		}
	}

	if r := d.TurnOff(); r != Changed {
		t.Errorf("TurnOff() = %v, want changed", r)
	}
	if v, _ := d.IntAttr(AttrOpenness); v != 0 {
		t.Errorf("openness after TurnOff = %d, want 0", v)
	}
	if r := d.TurnOn(); r != Changed {
		t.Errorf("TurnOn() = %v, want changed", r)
	}
	if v, _ := d.IntAttr(AttrOpenness); v != 100 {
		t.Errorf("openness after TurnOn = %d, want 100", v)
	}
}

func TestSetters_Validation(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		set     func(d *Device) error
		key     string
		want    any
		wantErr error
	}{
		{"brightness ok", "light", func(d *Device) error { return d.SetBrightness(80) }, AttrBrightness, 80, nil},
		{"brightness lower bound", "light", func(d *Device) error { return d.SetBrightness(0) }, AttrBrightness, 0, nil},
		{"brightness too high", "light", func(d *Device) error { return d.SetBrightness(150) }, AttrBrightness, 50, ErrInvalidAttribute},
		{"brightness negative", "light", func(d *Device) error { return d.SetBrightness(-1) }, AttrBrightness, 50, ErrInvalidAttribute},
		{"color temp ok", "light", func(d *Device) error { return d.SetColorTemp("cool") }, AttrColorTemp, "cool", nil},
		{"color temp bad", "light", func(d *Device) error { return d.SetColorTemp("blue") }, AttrColorTemp, "warm", ErrInvalidAttribute},
		{"temperature ok", "aircon", func(d *Device) error { return d.SetTemperature(16) }, AttrTemperature, 16, nil},
		{"temperature too low", "aircon", func(d *Device) error { return d.SetTemperature(15) }, AttrTemperature, 26, ErrInvalidAttribute},
		{"temperature too high", "aircon", func(d *Device) error { return d.SetTemperature(31) }, AttrTemperature, 26, ErrInvalidAttribute},
		{"mode ok", "aircon", func(d *Device) error { return d.SetMode("heat") }, AttrMode, "heat", nil},
		{"mode bad", "aircon", func(d *Device) error { return d.SetMode("dry") }, AttrMode, "cool", ErrInvalidAttribute},
		{"angle upper bound", "camera", func(d *Device) error { return d.SetAngle(360) }, AttrAngle, 360, nil},
		{"angle too high", "camera", func(d *Device) error { return d.SetAngle(361) }, AttrAngle, 0, ErrInvalidAttribute},
		{"night vision", "camera", func(d *Device) error { return d.SetNightVision(true) }, AttrNightVision, true, nil},
		{"openness too high", "curtain", func(d *Device) error { return d.SetOpenness(101) }, AttrOpenness, 0, ErrInvalidAttribute},
		{"volume ok", "musicplayer", func(d *Device) error { return d.SetVolume(100) }, AttrVolume, 100, nil},
		{"volume bad", "musicplayer", func(d *Device) error { return d.SetVolume(101) }, AttrVolume, 50, ErrInvalidAttribute},
		{"play mode ok", "musicplayer", func(d *Device) error { return d.SetPlayMode("shuffle") }, AttrPlayMode, "shuffle", nil},
		{"play mode bad", "musicplayer", func(d *Device) error { return d.SetPlayMode("repeat") }, AttrPlayMode, "loop", ErrInvalidAttribute},
		{"empty song", "musicplayer", func(d *Device) error { return d.PlaySong("  ") }, AttrCurrentSong, "", ErrInvalidAttribute},
		{"color ok", "moodlight", func(d *Device) error { return d.SetColor("purple") }, AttrColor, "purple", nil},
		{"color outside palette", "moodlight", func(d *Device) error { return d.SetColor("orange") }, AttrColor, "blue", ErrInvalidAttribute},
		{"auto change", "moodlight", func(d *Device) error { return d.SetAutoChange(true) }, AttrAutoChange, true, nil},
		{"wrong kind", "aircon", func(d *Device) error { return d.SetBrightness(10) }, AttrBrightness, nil, ErrUnsupportedAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(tt.kind, "dev-1")
			powerBefore := d.Power

			err := tt.set(d)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if d.Attributes[tt.key] != tt.want {
				t.Errorf("Attributes[%q] = %v, want %v", tt.key, d.Attributes[tt.key], tt.want)
			}
			if err != nil && d.Power != powerBefore {
				t.Errorf("failed setter changed power from %q to %q", powerBefore, d.Power)
			}
		})
	}
}

func TestPlaySong_PowersOn(t *testing.T) {
	d := New("musicplayer", "player-1")
	if err := d.PlaySong("Clair de Lune"); err != nil {
		t.Fatalf("PlaySong() error = %v", err)
	}
	if !d.IsOn() {
		t.Error("PlaySong should power the player on")
	}
	if s, _ := d.StringAttr(AttrCurrentSong); s != "Clair de Lune" {
		t.Errorf("current_song = %q", s)
	}
}

func TestAutoChangeColor_PicksFromPalette(t *testing.T) {
	d := New("moodlight", "mood-1")
	for range 20 {
		color, err := d.AutoChangeColor()
		if err != nil {
			t.Fatalf("AutoChangeColor() error = %v", err)
		}
		if !slices.Contains(MoodPalette, color) {
			t.Fatalf("AutoChangeColor() = %q, not in palette", color)
		}
		if d.Attributes[AttrColor] != color {
			t.Fatalf("color attribute = %v, want %q", d.Attributes[AttrColor], color)
		}
	}

	if _, err := New("light", "l").AutoChangeColor(); !errors.Is(err, ErrUnsupportedAction) {
		t.Errorf("AutoChangeColor() on light error = %v", err)
	}
}

func TestSetAttribute_Unvalidated(t *testing.T) {
	d := New("light", "light-1")
	d.SetAttribute(AttrBrightness, 500)
	if d.Attributes[AttrBrightness] != 500 {
		t.Errorf("SetAttribute should store out-of-range values, got %v", d.Attributes[AttrBrightness])
	}
}

func TestShare(t *testing.T) {
	d := New("light", "light-1")

	if err := d.Share("alice"); err != nil {
		t.Fatalf("Share(alice) error = %v", err)
	}
	if err := d.Share("bob"); err != nil {
		t.Fatalf("Share(bob) error = %v", err)
	}
	if err := d.Share("alice"); !errors.Is(err, ErrAlreadyShared) {
		t.Errorf("second Share(alice) error = %v, want ErrAlreadyShared", err)
	}
	if err := d.Share(""); !errors.Is(err, ErrInvalidUsername) {
		t.Errorf("Share(\"\") error = %v, want ErrInvalidUsername", err)
	}
	if !slices.Equal(d.SharedWith, []string{"alice", "bob"}) {
		t.Errorf("SharedWith = %v, want [alice bob]", d.SharedWith)
	}

	if err := d.Unshare("alice"); err != nil {
		t.Fatalf("Unshare(alice) error = %v", err)
	}
	if err := d.Unshare("alice"); !errors.Is(err, ErrNotShared) {
		t.Errorf("second Unshare(alice) error = %v, want ErrNotShared", err)
	}
	if d.IsSharedWith("alice") || !d.IsSharedWith("bob") {
		t.Errorf("SharedWith = %v after unshare", d.SharedWith)
	}
}

func TestInvoke(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		method  string
		params  Params
		key     string
		want    any
		wantErr error
	}{
		{"int from json float", "light", "set_brightness", Params{"value": float64(75)}, AttrBrightness, 75, nil},
		{"int from string", "aircon", "set_temperature", Params{"value": "22"}, AttrTemperature, 22, nil},
		{"fractional rejected", "light", "set_brightness", Params{"value": 7.5}, AttrBrightness, 50, ErrInvalidParam},
		{"missing value", "light", "set_brightness", Params{}, AttrBrightness, 50, ErrInvalidParam},
		{"out of range", "light", "set_brightness", Params{"value": 101}, AttrBrightness, 50, ErrInvalidAttribute},
		{"string method", "moodlight", "set_color", Params{"value": "red"}, AttrColor, "red", nil},
		{"string wrong type", "moodlight", "set_color", Params{"value": 3}, AttrColor, "blue", ErrInvalidParam},
		{"bool from string", "camera", "set_night_vision", Params{"value": "true"}, AttrNightVision, true, nil},
		{"bool bad", "camera", "set_night_vision", Params{"value": "maybe"}, AttrNightVision, false, ErrInvalidParam},
		{"unknown method", "camera", "self_destruct", nil, AttrAngle, 0, ErrUnsupportedAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(tt.kind, "dev-1")
			err := d.Invoke(tt.method, tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Invoke() error = %v, want %v", err, tt.wantErr)
			}
			if d.Attributes[tt.key] != tt.want {
				t.Errorf("Attributes[%q] = %v, want %v", tt.key, d.Attributes[tt.key], tt.want)
			}
		})
	}
}

func TestDeepCopy(t *testing.T) {
	d := New("light", "light-1")
	d.SetAttribute("schedule", map[string]any{"on": "07:00"})
	_ = d.Share("alice")

	cpy := d.DeepCopy()
	cpy.Attributes[AttrBrightness] = 1
	cpy.Attributes["schedule"].(map[string]any)["on"] = "09:00"
	cpy.SharedWith[0] = "mallory"

	if d.Attributes[AttrBrightness] != 50 {
		t.Error("copy shares attribute map with original")
	}
	if d.Attributes["schedule"].(map[string]any)["on"] != "07:00" {
		t.Error("copy shares nested map with original")
	}
	if d.SharedWith[0] != "alice" {
		t.Error("copy shares share list with original")
	}

	var nilDevice *Device
	if nilDevice.DeepCopy() != nil {
		t.Error("DeepCopy of nil should be nil")
	}
}

func TestFromState(t *testing.T) {
	attrs := map[string]any{AttrBrightness: float64(80), AttrColorTemp: "cool", "ratio": 0.5}

	d, err := FromState("light", "light-1", PowerOn, attrs, []string{"bob"})
	if err != nil {
		t.Fatalf("FromState() error = %v", err)
	}
	if d.Attributes[AttrBrightness] != 80 {
		t.Errorf("brightness = %#v, want int 80", d.Attributes[AttrBrightness])
	}
	if d.Attributes["ratio"] != 0.5 {
		t.Errorf("ratio = %#v, want 0.5", d.Attributes["ratio"])
	}
	if !d.IsOn() || !slices.Equal(d.SharedWith, []string{"bob"}) {
		t.Errorf("restored device = %+v", d)
	}

	if _, err := FromState("light", "light-1", Power("dim"), nil, nil); !errors.Is(err, ErrInvalidPower) {
		t.Errorf("FromState() with bad power error = %v, want ErrInvalidPower", err)
	}

	g, err := FromState("Heater", "heater-1", PowerOff, map[string]any{"watts": float64(1500)}, nil)
	if err != nil {
		t.Fatalf("FromState() generic error = %v", err)
	}
	if g.Kind != KindGeneric || g.Name != "Heater" || g.Attributes["watts"] != 1500 {
		t.Errorf("generic restored = %+v", g)
	}
}

func TestMethods(t *testing.T) {
	got := Methods(KindLight)
	if !slices.Equal(got, []string{"set_brightness", "set_color_temp"}) {
		t.Errorf("Methods(light) = %v", got)
	}
	if len(Methods(KindGeneric)) != 0 {
		t.Errorf("Methods(generic) = %v, want none", Methods(KindGeneric))
	}
	for _, k := range AllKinds() {
		if len(Methods(k)) == 0 {
			t.Errorf("kind %s has no methods", k)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in     string
		want   Kind
		wantOK bool
	}{
		{"light", KindLight, true},
		{"MOODLIGHT", KindMoodLight, true},
		{"generic", KindGeneric, true},
		{"toaster", KindGeneric, false},
		{"", KindGeneric, false},
	}
	for _, tt := range tests {
		got, ok := ParseKind(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseKind(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSetAttr(t *testing.T) {
	tests := []struct {
		name      string
		kind      string
		key       string
		value     any
		wantErr   error
		wantValue any
		wantPower Power
	}{
		{"light brightness validated", "light", AttrBrightness, 70, nil, 70, PowerOff},
		{"light brightness from json number", "light", AttrBrightness, 40.0, nil, 40, PowerOff},
		{"light brightness out of range", "light", AttrBrightness, 150, ErrInvalidAttribute, 50, PowerOff},
		{"aircon bad mode", "aircon", AttrMode, "dry", ErrInvalidAttribute, "cool", PowerOff},
		{"doorlock unlock", "doorlock", AttrLocked, false, nil, false, PowerOff},
		{"curtain openness powers on", "curtain", AttrOpenness, 30, nil, 30, PowerOn},
		{"extra key stored unchecked", "light", "room", "kitchen", nil, "kitchen", PowerOff},
		{"generic anything goes", "toaster", "slots", 4, nil, 4, PowerOff},
		{"empty key", "light", "", 1, ErrInvalidParam, nil, PowerOff},
		{"generic NaN rejected", "toaster", "crispness", math.NaN(), ErrInvalidParam, nil, PowerOff},
		{"generic infinity rejected", "toaster", "crispness", math.Inf(1), ErrInvalidParam, nil, PowerOff},
		{"nested infinity rejected", "toaster", "profile", map[string]any{"max": math.Inf(-1)}, ErrInvalidParam, nil, PowerOff},
		{"light brightness NaN rejected", "light", AttrBrightness, math.NaN(), ErrInvalidParam, 50, PowerOff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(tt.kind, "x")
			err := d.SetAttr(tt.key, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetAttr() error = %v, want %v", err, tt.wantErr)
			}
			if got := d.Attributes[tt.key]; got != tt.wantValue {
				t.Errorf("Attributes[%q] = %v, want %v", tt.key, got, tt.wantValue)
			}
			if d.Power != tt.wantPower {
				t.Errorf("Power = %s, want %s", d.Power, tt.wantPower)
			}
		})
	}
}
