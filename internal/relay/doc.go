// Package relay forwards robot activity to the rest of the house.
//
// A Relay listens to the event dispatcher and the behavior control arbiter
// and fans what it hears out to three optional sinks:
//
//   - Publisher: the MQTT bus (events, retained control and battery state)
//   - Telemetry: InfluxDB points (battery, decimated motion, event counts)
//   - Broadcaster: the status API WebSocket hub
//
// A nil sink is skipped. robot_state arrives at frame rate and is dropped
// unless StateInterval has passed since the last relayed sample.
//
// Thread Safety: listeners may be invoked from the dispatcher and arbiter
// goroutines concurrently; all methods are safe for concurrent use.
package relay
