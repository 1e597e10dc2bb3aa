package home

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/nerrad567/smarthome-core/internal/automation"
	"github.com/nerrad567/smarthome-core/internal/device"
	"github.com/nerrad567/smarthome-core/internal/user"
)

// Logger defines the logging interface used by the Home.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder receives one event per successful mutation.
// eventlog.Recorder implements it.
type Recorder interface {
	RecordEvent(message string, dev *device.Device, username string, fields map[string]any)
}

type noopRecorder struct{}

func (noopRecorder) RecordEvent(string, *device.Device, string, map[string]any) {}

// Metrics receives mutation and rule counts. metrics.Collector implements it.
type Metrics interface {
	automation.Metrics
	DeviceMutated(action string)
}

// Home is the aggregate root: users, devices and automation rules.
//
// Thread Safety: all methods are safe for concurrent use. A single mutex
// guards the whole aggregate; readers receive copies.
type Home struct {
	mu sync.Mutex

	users   *user.Registry
	devices map[string]*device.Device
	order   []string // device ids in registration order
	engine  *automation.Engine

	recorder Recorder
	logger   Logger
	metrics  Metrics
}

// New creates an empty home.
func New() *Home {
	return &Home{
		users:    user.NewRegistry(),
		devices:  make(map[string]*device.Device),
		engine:   automation.NewEngine(),
		recorder: noopRecorder{},
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the home and its rule engine.
func (h *Home) SetLogger(logger Logger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if logger == nil {
		logger = noopLogger{}
	}
	h.logger = logger
	h.engine.SetLogger(logger)
}

// SetRecorder sets where mutation events go.
func (h *Home) SetRecorder(r Recorder) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r == nil {
		r = noopRecorder{}
	}
	h.recorder = r
}

// SetMetrics sets the metrics collector for the home and its rule engine.
func (h *Home) SetMetrics(m Metrics) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.metrics = m
	h.engine.SetMetrics(m)
}

// ─── Users ──────────────────────────────────────────────────────────────────

// AddUser registers a new user.
func (h *Home) AddUser(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.users.Add(name); err != nil {
		return err
	}
	h.recorder.RecordEvent("user added", nil, name, nil)
	return nil
}

// RemoveUser deletes a user together with every device the user owns.
// Each device removal is attempted independently; failures are joined
// into the returned error but do not stop the user being removed.
// Devices merely shared with the user stay, minus the user's share.
func (h *Home) RemoveUser(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	u, err := h.users.Get(name)
	if err != nil {
		return err
	}

	var errs []error
	for _, id := range slices.Clone(u.Devices) {
		if err := h.removeDeviceLocked(id); err != nil {
			errs = append(errs, fmt.Errorf("removing device %s: %w", id, err))
		}
	}
	for _, id := range h.order {
		d := h.devices[id]
		if !d.IsSharedWith(name) {
			continue
		}
		if err := d.Unshare(name); err != nil {
			errs = append(errs, fmt.Errorf("unsharing device %s: %w", id, err))
			continue
		}
		h.recorder.RecordEvent("device unshared", d, name, map[string]any{"device_id": id})
		h.mutated("unshare")
	}
	if _, err := h.users.Remove(name); err != nil {
		errs = append(errs, err)
	}

	h.recorder.RecordEvent("user removed", nil, name, nil)
	return errors.Join(errs...)
}

// Users returns copies of every user in insertion order.
func (h *Home) Users() []*user.User {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.users.List()
}

// UserDevices groups the device ids a user can reach.
type UserDevices struct {
	Owned  []string `json:"own"`
	Shared []string `json:"shared"`
	All    []string `json:"all"`
}

// DevicesFor returns the ids a user owns (in ownership order) and the ids
// shared with them (in registration order). All is Owned followed by Shared.
func (h *Home) DevicesFor(name string) (UserDevices, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	u, err := h.users.Get(name)
	if err != nil {
		return UserDevices{}, err
	}

	out := UserDevices{Owned: slices.Clone(u.Devices), Shared: []string{}}
	for _, id := range h.order {
		if h.devices[id].IsSharedWith(name) {
			out.Shared = append(out.Shared, id)
		}
	}
	out.All = append(slices.Clone(out.Owned), out.Shared...)
	return out, nil
}

// ─── Devices ────────────────────────────────────────────────────────────────

// AddDevice creates a device of kind and assigns it to owner. Unknown
// kinds produce a generic device.
func (h *Home) AddDevice(kind, id, owner string) (*device.Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidDeviceID
	}
	if _, ok := h.devices[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceExists, id)
	}
	if !h.users.Exists(owner) {
		return nil, fmt.Errorf("%w: %s", user.ErrUserNotFound, owner)
	}

	d := device.New(kind, id)
	if err := h.users.LinkDevice(owner, id); err != nil {
		return nil, err
	}
	h.devices[id] = d
	h.order = append(h.order, id)

	h.recorder.RecordEvent("device added", d, owner, map[string]any{"device_id": id})
	return d.DeepCopy(), nil
}

// RemoveDevice deletes a device and unlinks it from every user.
func (h *Home) RemoveDevice(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.removeDeviceLocked(id)
}

func (h *Home) removeDeviceLocked(id string) error {
	d, ok := h.devices[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}

	h.users.UnlinkDevice(id)
	delete(h.devices, id)
	h.order = slices.DeleteFunc(h.order, func(o string) bool { return o == id })

	h.recorder.RecordEvent("device removed", d, "", map[string]any{"device_id": id})
	return nil
}

// Device returns a copy of one device.
func (h *Home) Device(id string) (*device.Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.deviceLocked(id)
}

func (h *Home) deviceLocked(id string) (*device.Device, error) {
	d, ok := h.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return d.DeepCopy(), nil
}

// Devices returns copies of every device in registration order.
func (h *Home) Devices() []*device.Device {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.devicesLocked()
}

func (h *Home) devicesLocked() []*device.Device {
	out := make([]*device.Device, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.devices[id].DeepCopy())
	}
	return out
}

// OwnerOf returns the username owning a device, if any.
func (h *Home) OwnerOf(id string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.users.OwnerOf(id)
}
