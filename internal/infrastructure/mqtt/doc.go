// Package mqtt publishes smart home events to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS validation and a 1MB payload cap
//   - Last Will and Testament (LWT) for offline detection
//
// Publishing is optional and disabled by default (mqtt.enabled). When on,
// the event log mirrors every recorded event to smarthome/event/{category}
// and keeps the retained smarthome/device/{id}/state topic current, so
// dashboards can follow the home without reading its state files.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Publish(mqtt.Topics{}.DeviceState("light-1"), payload, client.QoS(), true)
package mqtt
