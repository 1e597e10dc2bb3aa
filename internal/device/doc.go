// Package device models the appliances in a home.
//
// All kinds share one Device shape: an immutable identity, a power state,
// an attribute map and an ordered share list. What differs per kind lives
// in a kind table: the initial power and attributes, and the named methods
// reachable through Invoke.
//
// # Kinds
//
//	light        brightness [0,100], color_temp warm|cool
//	aircon       temperature [16,30], mode cool|heat|fan
//	doorlock     locked, last_action_time (power on = locked)
//	camera       angle [0,360], night_vision
//	curtain      openness [0,100] (0 = off, anything else = on)
//	musicplayer  volume [0,100], play_mode single|loop|shuffle, current_song
//	moodlight    color red|blue|green|purple|yellow, auto_change
//	generic      no attributes; any unknown kind string
//
// # Validation
//
// Typed setters validate and return ErrInvalidAttribute without touching
// the device when a value is out of its domain. SetAttribute stores any
// value unchecked; it exists for restoring persisted state and for
// generic devices.
//
// Devices are not safe for concurrent use. The home package serialises
// all access and hands out DeepCopy results to readers.
package device
