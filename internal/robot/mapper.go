package robot

import "github.com/nerrad567/vectorlink/internal/gateway"

// Mapper translates gateway wire records into domain values.
//
// Mapper has no state. Construct one at startup and share it by pointer.
type Mapper struct{}

// NewMapper returns the Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

var batteryLevels = map[gateway.BatteryLevel]BatteryLevel{
	gateway.BatteryLevelLow:     BatteryLevelLow,
	gateway.BatteryLevelNominal: BatteryLevelNominal,
	gateway.BatteryLevelFull:    BatteryLevelFull,
}

// BatteryState maps a battery response.
func (m *Mapper) BatteryState(r *gateway.BatteryStateResponse) BatteryState {
	if r == nil {
		return BatteryState{Level: BatteryLevelUnknown}
	}

	level, ok := batteryLevels[r.BatteryLevel]
	if !ok {
		level = BatteryLevelUnknown
	}

	return BatteryState{
		Level:               level,
		Volts:               r.BatteryVolts,
		IsCharging:          r.IsCharging,
		IsOnChargerPlatform: r.IsOnChargerPlatform,
		SuggestedChargerSec: r.SuggestedChargerSec,
		Cube:                m.CubeBattery(r.CubeBattery),
	}
}

// CubeBattery maps a cube battery record.
func (m *Mapper) CubeBattery(c *gateway.CubeBattery) CubeBattery {
	if c == nil {
		return CubeBattery{}
	}
	return CubeBattery{
		Level:                   c.Level,
		FactoryID:               c.FactoryID,
		Volts:                   c.BatteryVolts,
		TimeSinceLastReadingSec: c.TimeSinceLastReadingSec,
	}
}

// VersionState maps a version response.
func (m *Mapper) VersionState(r *gateway.VersionStateResponse) VersionState {
	if r == nil {
		return VersionState{}
	}
	return VersionState{
		OSVersion:     r.OSVersion,
		EngineBuildID: r.EngineBuildID,
	}
}

// NetworkState maps a network response.
func (m *Mapper) NetworkState(r *gateway.NetworkStateResponse) NetworkState {
	if r == nil || r.NetworkStats == nil {
		return NetworkState{}
	}
	s := r.NetworkStats
	return NetworkState{
		PacketsReceived: s.NumIPPacketsReceived,
		PacketsSent:     s.NumIPPacketsSent,
		PacketsLost:     s.NumIPPacketsLost,
		TCPConnections:  s.NumTCPConnections,
	}
}

// WakeWord flattens a wake word event. The intent fields come only from the
// end payload; Begin depends only on the begin payload.
func (m *Mapper) WakeWord(w *gateway.WakeWord) WakeWord {
	if w == nil {
		return WakeWord{}
	}
	out := WakeWord{Begin: w.WakeWordBegin != nil}
	if w.WakeWordEnd != nil {
		out.IntentHeard = w.WakeWordEnd.IntentHeard
		out.IntentJSON = w.WakeWordEnd.IntentJSON
	}
	return out
}

// RobotState maps a robot state frame.
func (m *Mapper) RobotState(s *gateway.RobotState) RobotState {
	if s == nil {
		return RobotState{}
	}

	out := RobotState{
		PoseAngleRad:          s.PoseAngleRad,
		PosePitchRad:          s.PosePitchRad,
		LeftWheelSpeedMmps:    s.LeftWheelSpeedMmps,
		RightWheelSpeedMmps:   s.RightWheelSpeedMmps,
		HeadAngleRad:          s.HeadAngleRad,
		LiftHeightMm:          s.LiftHeightMm,
		Accel:                 vector3(s.Accel),
		Gyro:                  vector3(s.Gyro),
		CarryingObjectID:      s.CarryingObjectID,
		CarryingObjectOnTopID: s.CarryingObjectOnTopID,
		HeadTrackingObjectID:  s.HeadTrackingObjectID,
		LocalizedToObjectID:   s.LocalizedToObjectID,
		LastImageTimeStamp:    s.LastImageTimeStamp,
		Status:                Status(s.Status),
	}
	if p := s.Pose; p != nil {
		out.Pose = Pose{X: p.X, Y: p.Y, Z: p.Z, Q0: p.Q0, Q1: p.Q1, Q2: p.Q2, Q3: p.Q3, OriginID: p.OriginID}
	}
	if p := s.ProxData; p != nil {
		out.Proximity = Proximity{
			DistanceMm:    p.DistanceMm,
			SignalQuality: p.SignalQuality,
			Unobstructed:  p.Unobstructed,
			FoundObject:   p.FoundObject,
			IsLiftInFOV:   p.IsLiftInFOV,
		}
	}
	if t := s.TouchData; t != nil {
		out.Touch = Touch{RawValue: t.RawTouchValue, IsBeingTouched: t.IsBeingTouched}
	}
	return out
}

func vector3(v *gateway.Vector3) Vector3 {
	if v == nil {
		return Vector3{}
	}
	return Vector3{X: v.X, Y: v.Y, Z: v.Z}
}

// Type returns the discriminator of a wire event.
// The first populated field wins; an empty event is EventTypeUnknown.
func (m *Mapper) Type(e *gateway.Event) EventType {
	switch {
	case e == nil:
		return EventTypeUnknown
	case e.WakeWord != nil:
		return EventTypeWakeWord
	case e.RobotState != nil:
		return EventTypeRobotState
	case e.TimeStampedStatus != nil:
		return EventTypeTimeStampedStatus
	case e.RobotObservedFace != nil:
		return EventTypeRobotObservedFace
	case e.RobotChangedObservedFaceID != nil:
		return EventTypeRobotChangedObservedFaceID
	case e.ObjectEvent != nil:
		return EventTypeObjectEvent
	case e.StimulationInfo != nil:
		return EventTypeStimulationInfo
	case e.PhotoTaken != nil:
		return EventTypePhotoTaken
	case e.CubeBattery != nil:
		return EventTypeCubeBattery
	case e.KeepAlive != nil:
		return EventTypeKeepAlive
	case e.ConnectionResponse != nil:
		return EventTypeConnectionResponse
	case e.MirrorModeDisabled != nil:
		return EventTypeMirrorModeDisabled
	case e.VisionModesAutoDisabled != nil:
		return EventTypeVisionModesAutoDisabled
	}
	return EventTypeUnknown
}

// Event maps a wire event to its typed envelope.
func (m *Mapper) Event(e *gateway.Event) Event {
	out := Event{Type: m.Type(e)}
	switch out.Type {
	case EventTypeWakeWord:
		w := m.WakeWord(e.WakeWord)
		out.WakeWord = &w
	case EventTypeRobotState:
		s := m.RobotState(e.RobotState)
		out.RobotState = &s
	}
	return out
}
