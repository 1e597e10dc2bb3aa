package eventlog

import (
	"context"
	"time"
)

// StateWriter is the part of influxdb.Client the Influx sink needs.
type StateWriter interface {
	WriteDeviceState(deviceID, kind, power string, attrs map[string]any, ts time.Time)
}

// InfluxSink writes a device_state point for every event that carries a
// device. Other events are skipped. Writes are batched by the client, so
// failures surface through its error callback rather than here.
type InfluxSink struct {
	w StateWriter
}

// NewInfluxSink creates a sink over w.
func NewInfluxSink(w StateWriter) *InfluxSink {
	return &InfluxSink{w: w}
}

// WriteEntry records the device state carried by e.
func (s *InfluxSink) WriteEntry(_ context.Context, e Entry) error {
	if e.Device == nil {
		return nil
	}
	s.w.WriteDeviceState(e.Device.ID, string(e.Device.Kind), string(e.Device.Power), e.Device.Attributes, e.Time)
	return nil
}
