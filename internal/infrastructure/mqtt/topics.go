package mqtt

import "fmt"

// Topic prefixes for everything the home publishes.
const (
	// TopicPrefix is the root of the smart home topic tree.
	TopicPrefix = "smarthome"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "smarthome/system"
)

// Topics provides builders for smart home MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.DeviceState("light-1") // "smarthome/device/light-1/state"
type Topics struct{}

// DeviceState returns the retained state topic for a device.
//
// Example: smarthome/device/light-1/state
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/state", TopicPrefix, deviceID)
}

// Event returns the topic for recorded events of the given category.
//
// Example: smarthome/event/device
func (Topics) Event(category string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, category)
}

// Alert returns the topic for automation alerts.
//
// Example: smarthome/alert
func (Topics) Alert() string {
	return TopicPrefix + "/alert"
}

// SystemStatus returns the topic for online/offline status (LWT).
//
// Example: smarthome/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
