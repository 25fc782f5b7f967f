package gateway

import "strconv"

// ResponseCode is the status code carried in every unary response.
type ResponseCode int32

// Response codes defined by the external interface.
const (
	ResponseUnknown               ResponseCode = 0
	ResponseReceived              ResponseCode = 1
	RequestProcessing             ResponseCode = 2
	ResponseOK                    ResponseCode = 3
	ResponseForbidden             ResponseCode = 100
	ResponseNotFound              ResponseCode = 101
	ResponseErrorUpdateInProgress ResponseCode = 102
)

var responseCodeNames = map[ResponseCode]string{
	ResponseUnknown:               "UNKNOWN",
	ResponseReceived:              "RESPONSE_RECEIVED",
	RequestProcessing:             "REQUEST_PROCESSING",
	ResponseOK:                    "OK",
	ResponseForbidden:             "FORBIDDEN",
	ResponseNotFound:              "NOT_FOUND",
	ResponseErrorUpdateInProgress: "ERROR_UPDATE_IN_PROGRESS",
}

func (c ResponseCode) String() string {
	if name, ok := responseCodeNames[c]; ok {
		return name
	}
	return "ResponseCode(" + strconv.Itoa(int(c)) + ")"
}

// ResponseStatus wraps the response code.
type ResponseStatus struct {
	Code ResponseCode
}

// Succeeded reports whether the status is RESPONSE_RECEIVED or OK.
func (s *ResponseStatus) Succeeded() bool {
	if s == nil {
		return false
	}
	return s.Code == ResponseReceived || s.Code == ResponseOK
}

// BatteryLevel is the robot's coarse battery classification.
type BatteryLevel int32

// Battery levels.
const (
	BatteryLevelUnknown BatteryLevel = 0
	BatteryLevelLow     BatteryLevel = 1
	BatteryLevelNominal BatteryLevel = 2
	BatteryLevelFull    BatteryLevel = 3
)

// BatteryStateRequest has no fields.
type BatteryStateRequest struct{}

// BatteryStateResponse is the robot and cube battery report.
type BatteryStateResponse struct {
	Status              *ResponseStatus
	BatteryLevel        BatteryLevel
	BatteryVolts        float32
	IsCharging          bool
	IsOnChargerPlatform bool
	SuggestedChargerSec float32
	CubeBattery         *CubeBattery
}

// CubeBattery reports the light cube's battery. Also pushed as an event.
type CubeBattery struct {
	Level                   int32
	FactoryID               string
	BatteryVolts            float32
	TimeSinceLastReadingSec float32
}

// VersionStateRequest has no fields.
type VersionStateRequest struct{}

// VersionStateResponse carries firmware identification.
type VersionStateResponse struct {
	Status        *ResponseStatus
	OSVersion     string
	EngineBuildID string
}

// NetworkStateRequest has no fields.
type NetworkStateRequest struct{}

// NetworkStateResponse carries link statistics.
type NetworkStateResponse struct {
	Status       *ResponseStatus
	NetworkStats *NetworkStats
}

// NetworkStats are counters kept by the robot's network stack.
type NetworkStats struct {
	NumIPPacketsReceived uint32
	NumIPPacketsSent     uint32
	NumIPPacketsLost     uint32
	NumTCPConnections    uint32
}

// UserAuthCode is the outcome of UserAuthentication.
type UserAuthCode int32

// User authentication codes.
const (
	UserAuthUnauthorized UserAuthCode = 0
	UserAuthAuthorized   UserAuthCode = 1
)

// UserAuthenticationRequest exchanges a cloud session token for a client token.
type UserAuthenticationRequest struct {
	UserSessionID []byte
	ClientName    []byte
}

// UserAuthenticationResponse carries the client token on success.
type UserAuthenticationResponse struct {
	Status          *ResponseStatus
	Code            UserAuthCode
	ClientTokenGUID []byte
}

// EventRequest opens the event subscription.
type EventRequest struct {
	ConnectionID string
}

// EventResponse is one message on the event stream.
type EventResponse struct {
	Status *ResponseStatus
	Event  *Event
}

// Event is a discriminated union; exactly one field is set on a well-formed event.
//
// Payloads vectorlink does not interpret are kept as raw protobuf bytes. A
// present but empty payload is a non-nil empty slice.
type Event struct {
	TimeStampedStatus          []byte
	WakeWord                   *WakeWord
	RobotObservedFace          []byte
	RobotChangedObservedFaceID []byte
	ObjectEvent                []byte
	StimulationInfo            []byte
	PhotoTaken                 []byte
	RobotState                 *RobotState
	CubeBattery                *CubeBattery
	KeepAlive                  []byte
	ConnectionResponse         []byte
	MirrorModeDisabled         []byte
	VisionModesAutoDisabled    []byte
}

// WakeWord signals the start or end of a wake word interaction.
type WakeWord struct {
	WakeWordBegin *WakeWordBegin
	WakeWordEnd   *WakeWordEnd
}

// WakeWordBegin has no fields; its presence is the signal.
type WakeWordBegin struct{}

// WakeWordEnd carries what the robot heard after the wake word.
//
// intent_heard is accepted as either a bool or a string on the wire. A bool
// decodes as "true" or "false"; IntentHeard is always encoded as a string.
type WakeWordEnd struct {
	IntentHeard string
	IntentJSON  string
}

// RobotState is pushed at the robot's frame rate.
type RobotState struct {
	Pose                  *Pose
	PoseAngleRad          float32
	PosePitchRad          float32
	LeftWheelSpeedMmps    float32
	RightWheelSpeedMmps   float32
	HeadAngleRad          float32
	LiftHeightMm          float32
	Accel                 *Vector3
	Gyro                  *Vector3
	CarryingObjectID      int32
	CarryingObjectOnTopID int32
	HeadTrackingObjectID  int32
	LocalizedToObjectID   int32
	LastImageTimeStamp    uint32
	Status                uint32
	ProxData              *ProxData
	TouchData             *TouchData
}

// Pose is a position and quaternion rotation in a numbered origin frame.
type Pose struct {
	X        float32
	Y        float32
	Z        float32
	Q0       float32
	Q1       float32
	Q2       float32
	Q3       float32
	OriginID uint32
}

// Vector3 is an accelerometer or gyroscope sample.
type Vector3 struct {
	X float32
	Y float32
	Z float32
}

// ProxData is the time-of-flight sensor reading.
type ProxData struct {
	DistanceMm    uint32
	SignalQuality float32
	Unobstructed  bool
	FoundObject   bool
	IsLiftInFOV   bool
}

// TouchData is the back sensor reading.
type TouchData struct {
	RawTouchValue  uint32
	IsBeingTouched bool
}

// ControlPriority is the wire priority of a control request. Lower values win.
type ControlPriority int32

// Control priorities.
const (
	ControlPriorityUnknown           ControlPriority = 0
	ControlPriorityOverrideBehaviors ControlPriority = 10
	ControlPriorityDefault           ControlPriority = 20
	ControlPriorityReserveControl    ControlPriority = 30
)

// BehaviorControlRequest is sent on the control stream. Set exactly one field.
type BehaviorControlRequest struct {
	ControlRelease *ControlRelease
	ControlRequest *ControlRequest
}

// ControlRelease gives control back to the robot.
type ControlRelease struct{}

// ControlRequest asks for control at a priority.
type ControlRequest struct {
	Priority ControlPriority
}

// BehaviorControlResponse is received on the control stream.
type BehaviorControlResponse struct {
	ControlGrantedResponse   *ControlGrantedResponse
	ControlLostEvent         *ControlLostEvent
	KeepAlive                *KeepAlivePing
	ReservedControlLostEvent *ReservedControlLostEvent
}

// ControlGrantedResponse means the SDK now holds control.
type ControlGrantedResponse struct{}

// ControlLostEvent means a higher priority behaviour took control.
type ControlLostEvent struct{}

// ReservedControlLostEvent is sent when reserved control is lost.
type ReservedControlLostEvent struct{}

// KeepAlivePing keeps idle streams open.
type KeepAlivePing struct{}
