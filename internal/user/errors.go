package user

import "errors"

// Domain errors for the user package.
var (
	// ErrUserNotFound is returned when a username does not exist.
	ErrUserNotFound = errors.New("user: not found")

	// ErrUserExists is returned when adding a username that is already registered.
	ErrUserExists = errors.New("user: already exists")

	// ErrInvalidUsername is returned for blank usernames.
	ErrInvalidUsername = errors.New("user: invalid username")

	// ErrDeviceAlreadyOwned is returned when linking a device id the user already owns.
	ErrDeviceAlreadyOwned = errors.New("user: device already owned")
)
