// Package mqtt publishes vectorlink events to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// vectorlink is a publisher only. Robot events and control state are
// relayed onto the bus so that home automation and dashboards can react
// without holding a gRPC session to the robot themselves.
//
//	Robot ↔ vectorlink → MQTT Broker → Subscribers
//
// Topic layout (see Topics):
//
//	vectorlink/system/status                   online/offline (retained, LWT)
//	vectorlink/robot/{device}/event/{type}     wake_word, robot_state
//	vectorlink/robot/{device}/control          suppression state (retained)
//	vectorlink/robot/{device}/battery          battery snapshot (retained)
//
// # Security Considerations
//
//   - TLS is recommended whenever the broker is not on localhost (cfg.Broker.TLS=true)
//   - Payloads never carry credentials; robot tokens stay in the credential store
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.RobotEvent("Vector-A1B2", "wake_word")
//	client.Publish(topic, payload, 1, false)
package mqtt
