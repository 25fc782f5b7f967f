package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementBattery = "robot_battery"
	measurementMotion  = "robot_motion"
	measurementEvent   = "robot_event"
)

// BatterySample is one battery reading for a robot.
type BatterySample struct {
	DeviceID    string
	Level       string
	Volts       float64
	Charging    bool
	OnCharger   bool
	CubeVolts   float64 // zero when no cube is paired
	SampledTime time.Time
}

// MotionSample is a decimated robot_state snapshot.
type MotionSample struct {
	DeviceID       string
	LeftWheelMMPS  float64
	RightWheelMMPS float64
	HeadAngleRad   float64
	LiftHeightMM   float64
	PoseX          float64
	PoseY          float64
	ProximityMM    float64
	CarryingObject int32
	SampledTime    time.Time
}

// WriteBattery records a battery sample. Non-blocking.
func (c *Client) WriteBattery(s BatterySample) {
	fields := map[string]interface{}{
		"volts":      s.Volts,
		"charging":   s.Charging,
		"on_charger": s.OnCharger,
	}
	if s.CubeVolts > 0 {
		fields["cube_volts"] = s.CubeVolts
	}
	c.writeAt(measurementBattery,
		map[string]string{"device_id": s.DeviceID, "level": s.Level},
		fields,
		s.SampledTime,
	)
}

// WriteMotion records a motion sample. Non-blocking.
func (c *Client) WriteMotion(s MotionSample) {
	c.writeAt(measurementMotion,
		map[string]string{"device_id": s.DeviceID},
		map[string]interface{}{
			"left_wheel_mmps":  s.LeftWheelMMPS,
			"right_wheel_mmps": s.RightWheelMMPS,
			"head_angle_rad":   s.HeadAngleRad,
			"lift_height_mm":   s.LiftHeightMM,
			"pose_x":           s.PoseX,
			"pose_y":           s.PoseY,
			"proximity_mm":     s.ProximityMM,
			"carrying_object":  s.CarryingObject,
		},
		s.SampledTime,
	)
}

// WriteEvent counts one occurrence of an event type, e.g. a wake word.
func (c *Client) WriteEvent(deviceID, eventType string) {
	c.writeAt(measurementEvent,
		map[string]string{"device_id": deviceID, "type": eventType},
		map[string]interface{}{"count": 1},
		time.Time{},
	)
}

// WritePoint writes a custom point stamped now.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.writeAt(measurement, tags, fields, time.Time{})
}

// writeAt queues a point. A zero ts means now. Dropped when disconnected.
func (c *Client) writeAt(measurement string, tags map[string]string, fields map[string]interface{}, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, ts))
}
