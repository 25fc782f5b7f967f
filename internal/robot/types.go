package robot

// BatteryLevel is the robot's coarse battery classification.
type BatteryLevel string

// Battery levels.
const (
	BatteryLevelUnknown BatteryLevel = "unknown"
	BatteryLevelLow     BatteryLevel = "low"
	BatteryLevelNominal BatteryLevel = "nominal"
	BatteryLevelFull    BatteryLevel = "full"
)

// BatteryState is a snapshot of the robot battery.
type BatteryState struct {
	Level               BatteryLevel `json:"level"`
	Volts               float32      `json:"volts"`
	IsCharging          bool         `json:"is_charging"`
	IsOnChargerPlatform bool         `json:"is_on_charger_platform"`
	SuggestedChargerSec float32      `json:"suggested_charger_sec"`
	Cube                CubeBattery  `json:"cube"`
}

// CubeBattery is a snapshot of the light cube battery. Zero when no cube is connected.
type CubeBattery struct {
	Level                   int32   `json:"level"`
	FactoryID               string  `json:"factory_id"`
	Volts                   float32 `json:"volts"`
	TimeSinceLastReadingSec float32 `json:"time_since_last_reading_sec"`
}

// VersionState identifies the robot firmware.
type VersionState struct {
	OSVersion     string `json:"os_version"`
	EngineBuildID string `json:"engine_build_id"`
}

// NetworkState reports link counters. The robot's implementation is not
// considered reliable; treat the values as best-effort.
type NetworkState struct {
	PacketsReceived uint32 `json:"packets_received"`
	PacketsSent     uint32 `json:"packets_sent"`
	PacketsLost     uint32 `json:"packets_lost"`
	TCPConnections  uint32 `json:"tcp_connections"`
}

// WakeWord is a flattened wake word event.
//
// Begin is true when the event signals the start of an interaction.
// IntentHeard and IntentJSON are only set on the end of one.
type WakeWord struct {
	Begin       bool   `json:"begin"`
	IntentHeard string `json:"intent_heard,omitempty"`
	IntentJSON  string `json:"intent_json,omitempty"`
}

// Pose is a position (mm) and quaternion rotation in a numbered origin frame.
type Pose struct {
	X        float32 `json:"x"`
	Y        float32 `json:"y"`
	Z        float32 `json:"z"`
	Q0       float32 `json:"q0"`
	Q1       float32 `json:"q1"`
	Q2       float32 `json:"q2"`
	Q3       float32 `json:"q3"`
	OriginID uint32  `json:"origin_id"`
}

// Vector3 is a three-axis sensor sample.
type Vector3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Proximity is the forward distance sensor reading.
type Proximity struct {
	DistanceMm    uint32  `json:"distance_mm"`
	SignalQuality float32 `json:"signal_quality"`
	Unobstructed  bool    `json:"unobstructed"`
	FoundObject   bool    `json:"found_object"`
	IsLiftInFOV   bool    `json:"is_lift_in_fov"`
}

// Touch is the back sensor reading.
type Touch struct {
	RawValue       uint32 `json:"raw_value"`
	IsBeingTouched bool   `json:"is_being_touched"`
}

// RobotState is one frame of robot telemetry.
type RobotState struct {
	Pose                  Pose      `json:"pose"`
	PoseAngleRad          float32   `json:"pose_angle_rad"`
	PosePitchRad          float32   `json:"pose_pitch_rad"`
	LeftWheelSpeedMmps    float32   `json:"left_wheel_speed_mmps"`
	RightWheelSpeedMmps   float32   `json:"right_wheel_speed_mmps"`
	HeadAngleRad          float32   `json:"head_angle_rad"`
	LiftHeightMm          float32   `json:"lift_height_mm"`
	Accel                 Vector3   `json:"accel"`
	Gyro                  Vector3   `json:"gyro"`
	CarryingObjectID      int32     `json:"carrying_object_id"`
	CarryingObjectOnTopID int32     `json:"carrying_object_on_top_id"`
	HeadTrackingObjectID  int32     `json:"head_tracking_object_id"`
	LocalizedToObjectID   int32     `json:"localized_to_object_id"`
	LastImageTimeStamp    uint32    `json:"last_image_time_stamp"`
	Status                Status    `json:"status"`
	Proximity             Proximity `json:"proximity"`
	Touch                 Touch     `json:"touch"`
}

// Status is the robot status bit field.
type Status uint32

// Status bits.
const (
	StatusMoving           Status = 0x1
	StatusCarryingBlock    Status = 0x2
	StatusPickingOrPlacing Status = 0x4
	StatusPickedUp         Status = 0x8
	StatusButtonPressed    Status = 0x10
	StatusFalling          Status = 0x20
	StatusAnimating        Status = 0x40
	StatusPathing          Status = 0x80
	StatusLiftInPos        Status = 0x100
	StatusHeadInPos        Status = 0x200
	StatusCalmPowerMode    Status = 0x400
	StatusOnCharger        Status = 0x1000
	StatusIsCharging       Status = 0x2000
	StatusCliffDetected    Status = 0x4000
	StatusAreWheelsMoving  Status = 0x8000
	StatusBeingHeld        Status = 0x10000
	StatusMotionDetected   Status = 0x20000
)

// Has reports whether every bit in flag is set.
func (s Status) Has(flag Status) bool {
	return s&flag == flag
}

// EventType discriminates the event stream union.
type EventType string

// Event types carried by the event stream.
const (
	EventTypeUnknown                    EventType = "unknown"
	EventTypeTimeStampedStatus          EventType = "time_stamped_status"
	EventTypeWakeWord                   EventType = "wake_word"
	EventTypeRobotObservedFace          EventType = "robot_observed_face"
	EventTypeRobotChangedObservedFaceID EventType = "robot_changed_observed_face_id"
	EventTypeObjectEvent                EventType = "object_event"
	EventTypeStimulationInfo            EventType = "stimulation_info"
	EventTypePhotoTaken                 EventType = "photo_taken"
	EventTypeRobotState                 EventType = "robot_state"
	EventTypeCubeBattery                EventType = "cube_battery"
	EventTypeKeepAlive                  EventType = "keep_alive"
	EventTypeConnectionResponse         EventType = "connection_response"
	EventTypeMirrorModeDisabled         EventType = "mirror_mode_disabled"
	EventTypeVisionModesAutoDisabled    EventType = "vision_modes_auto_disabled"
)

// Event is a typed envelope for dispatched events. Exactly one payload
// pointer matches Type; events vectorlink does not interpret carry none.
type Event struct {
	Type       EventType   `json:"type"`
	WakeWord   *WakeWord   `json:"wake_word,omitempty"`
	RobotState *RobotState `json:"robot_state,omitempty"`
}
