// Package eventlog records what happens in the home.
//
// The Recorder turns each mutation into an Entry (uuid, timestamp, message,
// captured device state, user and fields) and hands it to every configured
// sink:
//
//   - TextFile: append-only "logs.txt" with one line per entry.
//   - SQLiteSink: the event_log table, queryable with List.
//   - MQTTSink: JSON events plus retained per-device state.
//   - InfluxSink: device_state time series points.
//   - LogSink: the process's structured logger.
//
// Sink failures are logged and never reach the caller; an event log that
// cannot be written must not block a device command.
package eventlog
