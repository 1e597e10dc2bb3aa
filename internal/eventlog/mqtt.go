package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/smarthome-core/internal/infrastructure/mqtt"
)

// Publisher is the part of mqtt.Client the MQTT sink needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTSink publishes each entry as JSON on smarthome/event/<category>
// (alerts on smarthome/alert) and, for device events, the device's
// current state as a retained message on smarthome/device/<id>/state.
type MQTTSink struct {
	pub    Publisher
	qos    byte
	topics mqtt.Topics
}

// NewMQTTSink creates a sink publishing with the given QoS.
func NewMQTTSink(pub Publisher, qos byte) *MQTTSink {
	return &MQTTSink{pub: pub, qos: qos}
}

// deviceStatePayload is the retained per-device message.
type deviceStatePayload struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Kind       string         `json:"kind"`
	Power      string         `json:"power"`
	Attributes map[string]any `json:"attributes"`
	UpdatedAt  string         `json:"updated_at"`
}

// WriteEntry publishes e.
func (s *MQTTSink) WriteEntry(_ context.Context, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}

	topic := s.topics.Event(e.Category())
	if e.IsAlert() {
		topic = s.topics.Alert()
	}
	var errs []error
	if err := s.pub.Publish(topic, payload, s.qos, false); err != nil {
		errs = append(errs, fmt.Errorf("publishing to %q: %w", topic, err))
	}

	if e.Device != nil {
		state, err := json.Marshal(deviceStatePayload{
			ID:         e.Device.ID,
			Name:       e.Device.Name,
			Kind:       string(e.Device.Kind),
			Power:      string(e.Device.Power),
			Attributes: e.Device.Attributes,
			UpdatedAt:  e.Time.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return fmt.Errorf("marshalling device state: %w", err)
		}
		stateTopic := s.topics.DeviceState(e.Device.ID)
		if err := s.pub.Publish(stateTopic, state, s.qos, true); err != nil {
			errs = append(errs, fmt.Errorf("publishing to %q: %w", stateTopic, err))
		}
	}
	return errors.Join(errs...)
}
