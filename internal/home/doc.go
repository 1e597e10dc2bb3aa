// Package home is the aggregate root of smarthome-core.
//
// A Home owns the user registry, the devices (kept in registration order)
// and the automation engine, and keeps them consistent: every owned device
// id refers to a registered device, removing a device unlinks it from all
// users, and removing a user cascades to the devices they own.
//
// Every successful mutation produces one event through the Recorder.
// No-op power changes produce none.
//
// RunRules hands the engine a snapshot whose device view and actuator are
// backed by the Home itself, so device changes made by rules are validated
// and recorded the same way as direct ControlDevice calls.
package home
