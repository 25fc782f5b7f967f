// Package influxdb records robot telemetry in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched non-blocking writes and health monitoring.
//
// Measurements:
//   - robot_battery: volts, charging state and level per device
//   - robot_motion: decimated robot_state samples (wheels, head, lift, pose)
//   - robot_event: one point per relayed event, tagged by type
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteEvent("Vector-A1B2", "wake_word")
//
// # Error Handling
//
// Writes never return errors; batch failures are delivered to the
// SetOnError callback. Connection and health check errors are returned.
package influxdb
