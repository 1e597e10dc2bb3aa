package home

import "errors"

// Domain errors for the home package. User lookups wrap user.ErrUserNotFound.
var (
	// ErrDeviceNotFound is returned when a device id does not exist.
	ErrDeviceNotFound = errors.New("home: device not found")

	// ErrDeviceExists is returned when adding a device id that is already registered.
	ErrDeviceExists = errors.New("home: device already exists")

	// ErrInvalidDeviceID is returned for blank device ids.
	ErrInvalidDeviceID = errors.New("home: invalid device id")

	// ErrUnknownAction is returned by ControlDevice for an action the device does not support.
	ErrUnknownAction = errors.New("home: unknown action")

	// ErrInvalidSnapshot is returned by Restore when the snapshot cannot be applied.
	// The home is left empty.
	ErrInvalidSnapshot = errors.New("home: invalid snapshot")
)
