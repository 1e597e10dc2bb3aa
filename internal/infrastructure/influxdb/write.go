package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the home.
const (
	MeasurementDeviceState = "device_state"
	MeasurementSensor      = "sensor_reading"
)

// DeviceStatePoint builds a device_state point: one row per mutation with
// the power state as a boolean field and every scalar attribute as its
// own field. Attributes of other types are skipped.
func DeviceStatePoint(deviceID, kind, power string, attrs map[string]any, ts time.Time) *write.Point {
	fields := map[string]any{
		"on": power == "on",
	}
	for k, v := range attrs {
		switch v.(type) {
		case bool, string, int, int64, float64:
			fields[k] = v
		}
	}

	return write.NewPoint(
		MeasurementDeviceState,
		map[string]string{
			"device_id": deviceID,
			"kind":      kind,
		},
		fields,
		ts,
	)
}

// WriteDeviceState records a device's state after a mutation.
// The write is non-blocking; data is batched and sent asynchronously.
func (c *Client) WriteDeviceState(deviceID, kind, power string, attrs map[string]any, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(DeviceStatePoint(deviceID, kind, power, attrs, ts))
}

// WriteSensorReading records a sensor value handed to a rule evaluation
// pass (temperature, presence).
func (c *Client) WriteSensorReading(name string, value any, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementSensor,
		map[string]string{"sensor": name},
		map[string]any{"value": value},
		ts,
	))
}
