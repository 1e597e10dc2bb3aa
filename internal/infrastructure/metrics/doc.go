// Package metrics exposes rule engine and device mutation counters via
// prometheus/client_golang.
//
// The home is a short-lived command, so metrics are not served over HTTP;
// they are written to a node_exporter textfile after each invocation when
// metrics.enabled is set. Counters therefore describe a single run.
package metrics
