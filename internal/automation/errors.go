package automation

import "errors"

// Domain errors for the automation package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, automation.ErrInvalidRuleIndex) {
//	    // index out of range
//	}
var (
	// ErrInvalidRuleIndex is returned when a rule index is outside [0, len).
	ErrInvalidRuleIndex = errors.New("automation: invalid rule index")

	// ErrInvalidRule is returned for a nil rule or malformed template parameters.
	ErrInvalidRule = errors.New("automation: invalid rule")

	// ErrUnknownTemplate is returned when a template name is not recognised.
	ErrUnknownTemplate = errors.New("automation: unknown template")

	// ErrMissingReading is returned when a condition needs a reading the
	// snapshot does not carry, or carries with the wrong type.
	ErrMissingReading = errors.New("automation: missing reading")

	// ErrNoTargetDevice is returned when an action finds no device to act on.
	ErrNoTargetDevice = errors.New("automation: no target device")

	// ErrRulePanicked wraps a panic recovered from a rule's condition or action.
	ErrRulePanicked = errors.New("automation: rule panicked")
)
