package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrInvalidAttribute) {
//	    // value rejected, device unchanged
//	}
var (
	// ErrInvalidAttribute is returned when a setter rejects a value.
	// The device is left unchanged.
	ErrInvalidAttribute = errors.New("device: invalid attribute value")

	// ErrInvalidParam is returned when a named method's parameters are
	// missing or have the wrong type.
	ErrInvalidParam = errors.New("device: invalid parameter")

	// ErrUnsupportedAction is returned when a method does not exist for the device's kind.
	ErrUnsupportedAction = errors.New("device: action not supported by kind")

	// ErrInvalidPower is returned when a restored power value is neither "on" nor "off".
	ErrInvalidPower = errors.New("device: invalid power state")

	// ErrInvalidUsername is returned when sharing with an empty username.
	ErrInvalidUsername = errors.New("device: invalid username")

	// ErrAlreadyShared is returned when sharing with a user already in the share list.
	ErrAlreadyShared = errors.New("device: already shared with user")

	// ErrNotShared is returned when unsharing a user not in the share list.
	ErrNotShared = errors.New("device: not shared with user")
)
