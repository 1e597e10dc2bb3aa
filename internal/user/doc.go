// Package user keeps the home's accounts and which device ids each one owns.
//
// The registry only tracks ids; device state lives in the home aggregate,
// which is responsible for keeping both sides consistent (no user may list
// an id the home does not know).
package user
