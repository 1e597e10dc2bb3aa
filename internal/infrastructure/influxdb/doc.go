// Package influxdb records device state history in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with a non-blocking,
// batched write API. Each device mutation becomes a device_state point
// tagged with the device id and kind; rule evaluation passes also record
// the sensor readings they were given.
//
// The integration is optional (influxdb.enabled). Connect returns
// ErrDisabled when it is off so callers can skip the sink.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without history
//	}
//	defer client.Close()
//
//	client.WriteDeviceState("light-1", "light", "on", attrs, time.Now())
package influxdb
