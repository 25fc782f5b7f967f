package relay

import (
	"time"

	"github.com/nerrad567/vectorlink/internal/infrastructure/influxdb"
	"github.com/nerrad567/vectorlink/internal/robot"
)

// EventMessage is the JSON envelope for relayed events and snapshots.
type EventMessage struct {
	DeviceID  string          `json:"device_id"`
	Type      robot.EventType `json:"type"`
	Timestamp string          `json:"timestamp"`
	Data      any             `json:"data"`
}

// ControlMessage is the retained payload of the control topic.
type ControlMessage struct {
	DeviceID   string `json:"device_id"`
	Suppressed bool   `json:"suppressed"`
	Timestamp  string `json:"timestamp"`
}

func (r *Relay) envelope(t robot.EventType, data any) EventMessage {
	return EventMessage{
		DeviceID:  r.cfg.DeviceID,
		Type:      t,
		Timestamp: r.timestamp(),
		Data:      data,
	}
}

func (r *Relay) timestamp() string {
	return r.now().UTC().Format(time.RFC3339Nano)
}

func motionSample(deviceID string, s robot.RobotState, at time.Time) influxdb.MotionSample {
	return influxdb.MotionSample{
		DeviceID:       deviceID,
		LeftWheelMMPS:  float64(s.LeftWheelSpeedMmps),
		RightWheelMMPS: float64(s.RightWheelSpeedMmps),
		HeadAngleRad:   float64(s.HeadAngleRad),
		LiftHeightMM:   float64(s.LiftHeightMm),
		PoseX:          float64(s.Pose.X),
		PoseY:          float64(s.Pose.Y),
		ProximityMM:    float64(s.Proximity.DistanceMm),
		CarryingObject: s.CarryingObjectID,
		SampledTime:    at,
	}
}

func batterySample(deviceID string, b robot.BatteryState, at time.Time) influxdb.BatterySample {
	sample := influxdb.BatterySample{
		DeviceID:    deviceID,
		Level:       string(b.Level),
		Volts:       float64(b.Volts),
		Charging:    b.IsCharging,
		OnCharger:   b.IsOnChargerPlatform,
		SampledTime: at,
	}
	if b.Cube.FactoryID != "" {
		sample.CubeVolts = float64(b.Cube.Volts)
	}
	return sample
}
