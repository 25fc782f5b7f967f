package gateway

import (
	"math"
	"strconv"

	"google.golang.org/protobuf/encoding/protowire"
)

// message is implemented by every wire type. Field numbers follow the
// robot's external_interface protos. Unknown fields are skipped.
type message interface {
	marshalProto(b []byte) []byte
	unmarshalProto(b []byte) error
}

// field is one decoded tag/value pair. Scalar values are in u; payloads of
// length-delimited fields are in b.
type field struct {
	num protowire.Number
	typ protowire.Type
	u   uint64
	b   []byte
}

func (f field) float32() float32 {
	if f.typ != protowire.Fixed32Type {
		return 0
	}
	return math.Float32frombits(uint32(f.u))
}

func (f field) bool() bool     { return protowire.DecodeBool(f.u) }
func (f field) int32() int32   { return int32(f.u) }
func (f field) uint32() uint32 { return uint32(f.u) }
func (f field) string() string { return string(f.b) }

// bytes copies the payload. The result is non-nil even when empty.
func (f field) bytes() []byte { return append([]byte{}, f.b...) }

// eachField walks the top-level fields of an encoded message.
func eachField(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.u, n = protowire.ConsumeVarint(b)
		case protowire.Fixed32Type:
			var v uint32
			v, n = protowire.ConsumeFixed32(b)
			f.u = uint64(v)
		case protowire.Fixed64Type:
			f.u, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			f.b, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// sub decodes a length-delimited field into a new T.
func sub[T any, P interface {
	*T
	message
}](f field) (*T, error) {
	var v T
	if err := P(&v).unmarshalProto(f.b); err != nil {
		return nil, err
	}
	return &v, nil
}

// skipAll validates b as a message with no interpreted fields.
func skipAll(b []byte) error {
	return eachField(b, func(field) error { return nil })
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// appendInt32 sign-extends negative values to ten bytes, as protobuf int32 does.
func appendInt32(b []byte, num protowire.Number, v int32) []byte {
	return appendVarint(b, num, uint64(int64(v)))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendVarint(b, num, protowire.EncodeBool(v))
}

func appendFloat(b []byte, num protowire.Number, v float32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(v))
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// appendRaw writes a oneof payload. A non-nil empty payload is still written.
func appendRaw(b []byte, num protowire.Number, v []byte) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendMessage(b []byte, num protowire.Number, m message) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.marshalProto(nil))
}

// ResponseStatus

func (s *ResponseStatus) marshalProto(b []byte) []byte {
	return appendInt32(b, 1, int32(s.Code))
}

func (s *ResponseStatus) unmarshalProto(b []byte) error {
	*s = ResponseStatus{}
	return eachField(b, func(f field) error {
		if f.num == 1 {
			s.Code = ResponseCode(f.int32())
		}
		return nil
	})
}

// decodeStatus is shared by every response carrying status = 1.
func decodeStatus(f field, dst **ResponseStatus) error {
	st, err := sub[ResponseStatus](f)
	if err != nil {
		return err
	}
	*dst = st
	return nil
}

// Messages without interpreted fields

func (*BatteryStateRequest) marshalProto(b []byte) []byte { return b }

func (*BatteryStateRequest) unmarshalProto(b []byte) error { return skipAll(b) }

func (*VersionStateRequest) marshalProto(b []byte) []byte { return b }

func (*VersionStateRequest) unmarshalProto(b []byte) error { return skipAll(b) }

func (*NetworkStateRequest) marshalProto(b []byte) []byte { return b }

func (*NetworkStateRequest) unmarshalProto(b []byte) error { return skipAll(b) }

func (*WakeWordBegin) marshalProto(b []byte) []byte { return b }

func (*WakeWordBegin) unmarshalProto(b []byte) error { return skipAll(b) }

func (*ControlRelease) marshalProto(b []byte) []byte { return b }

func (*ControlRelease) unmarshalProto(b []byte) error { return skipAll(b) }

func (*ControlGrantedResponse) marshalProto(b []byte) []byte { return b }

func (*ControlGrantedResponse) unmarshalProto(b []byte) error { return skipAll(b) }

func (*ControlLostEvent) marshalProto(b []byte) []byte { return b }

func (*ControlLostEvent) unmarshalProto(b []byte) error { return skipAll(b) }

func (*ReservedControlLostEvent) marshalProto(b []byte) []byte { return b }

func (*ReservedControlLostEvent) unmarshalProto(b []byte) error { return skipAll(b) }

func (*KeepAlivePing) marshalProto(b []byte) []byte { return b }

func (*KeepAlivePing) unmarshalProto(b []byte) error { return skipAll(b) }

// BatteryStateResponse

func (r *BatteryStateResponse) marshalProto(b []byte) []byte {
	if r.Status != nil {
		b = appendMessage(b, 1, r.Status)
	}
	b = appendInt32(b, 2, int32(r.BatteryLevel))
	b = appendFloat(b, 3, r.BatteryVolts)
	b = appendBool(b, 4, r.IsCharging)
	b = appendBool(b, 5, r.IsOnChargerPlatform)
	b = appendFloat(b, 6, r.SuggestedChargerSec)
	if r.CubeBattery != nil {
		b = appendMessage(b, 7, r.CubeBattery)
	}
	return b
}

func (r *BatteryStateResponse) unmarshalProto(b []byte) error {
	*r = BatteryStateResponse{}
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			err = decodeStatus(f, &r.Status)
		case 2:
			r.BatteryLevel = BatteryLevel(f.int32())
		case 3:
			r.BatteryVolts = f.float32()
		case 4:
			r.IsCharging = f.bool()
		case 5:
			r.IsOnChargerPlatform = f.bool()
		case 6:
			r.SuggestedChargerSec = f.float32()
		case 7:
			r.CubeBattery, err = sub[CubeBattery](f)
		}
		return err
	})
}

// CubeBattery

func (c *CubeBattery) marshalProto(b []byte) []byte {
	b = appendInt32(b, 1, c.Level)
	b = appendString(b, 2, c.FactoryID)
	b = appendFloat(b, 3, c.BatteryVolts)
	return appendFloat(b, 4, c.TimeSinceLastReadingSec)
}

func (c *CubeBattery) unmarshalProto(b []byte) error {
	*c = CubeBattery{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			c.Level = f.int32()
		case 2:
			c.FactoryID = f.string()
		case 3:
			c.BatteryVolts = f.float32()
		case 4:
			c.TimeSinceLastReadingSec = f.float32()
		}
		return nil
	})
}

// VersionStateResponse

func (r *VersionStateResponse) marshalProto(b []byte) []byte {
	if r.Status != nil {
		b = appendMessage(b, 1, r.Status)
	}
	b = appendString(b, 2, r.OSVersion)
	return appendString(b, 3, r.EngineBuildID)
}

func (r *VersionStateResponse) unmarshalProto(b []byte) error {
	*r = VersionStateResponse{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			return decodeStatus(f, &r.Status)
		case 2:
			r.OSVersion = f.string()
		case 3:
			r.EngineBuildID = f.string()
		}
		return nil
	})
}

// NetworkStateResponse

func (r *NetworkStateResponse) marshalProto(b []byte) []byte {
	if r.Status != nil {
		b = appendMessage(b, 1, r.Status)
	}
	if r.NetworkStats != nil {
		b = appendMessage(b, 2, r.NetworkStats)
	}
	return b
}

func (r *NetworkStateResponse) unmarshalProto(b []byte) error {
	*r = NetworkStateResponse{}
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			err = decodeStatus(f, &r.Status)
		case 2:
			r.NetworkStats, err = sub[NetworkStats](f)
		}
		return err
	})
}

// NetworkStats

func (s *NetworkStats) marshalProto(b []byte) []byte {
	b = appendVarint(b, 1, uint64(s.NumIPPacketsReceived))
	b = appendVarint(b, 2, uint64(s.NumIPPacketsSent))
	b = appendVarint(b, 3, uint64(s.NumIPPacketsLost))
	return appendVarint(b, 4, uint64(s.NumTCPConnections))
}

func (s *NetworkStats) unmarshalProto(b []byte) error {
	*s = NetworkStats{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			s.NumIPPacketsReceived = f.uint32()
		case 2:
			s.NumIPPacketsSent = f.uint32()
		case 3:
			s.NumIPPacketsLost = f.uint32()
		case 4:
			s.NumTCPConnections = f.uint32()
		}
		return nil
	})
}

// UserAuthentication

func (r *UserAuthenticationRequest) marshalProto(b []byte) []byte {
	b = appendBytes(b, 1, r.UserSessionID)
	return appendBytes(b, 2, r.ClientName)
}

func (r *UserAuthenticationRequest) unmarshalProto(b []byte) error {
	*r = UserAuthenticationRequest{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			r.UserSessionID = f.bytes()
		case 2:
			r.ClientName = f.bytes()
		}
		return nil
	})
}

func (r *UserAuthenticationResponse) marshalProto(b []byte) []byte {
	if r.Status != nil {
		b = appendMessage(b, 1, r.Status)
	}
	b = appendInt32(b, 2, int32(r.Code))
	return appendBytes(b, 3, r.ClientTokenGUID)
}

func (r *UserAuthenticationResponse) unmarshalProto(b []byte) error {
	*r = UserAuthenticationResponse{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			return decodeStatus(f, &r.Status)
		case 2:
			r.Code = UserAuthCode(f.int32())
		case 3:
			r.ClientTokenGUID = f.bytes()
		}
		return nil
	})
}

// Event stream

func (r *EventRequest) marshalProto(b []byte) []byte {
	return appendString(b, 3, r.ConnectionID)
}

func (r *EventRequest) unmarshalProto(b []byte) error {
	*r = EventRequest{}
	return eachField(b, func(f field) error {
		if f.num == 3 {
			r.ConnectionID = f.string()
		}
		return nil
	})
}

func (r *EventResponse) marshalProto(b []byte) []byte {
	if r.Status != nil {
		b = appendMessage(b, 1, r.Status)
	}
	if r.Event != nil {
		b = appendMessage(b, 2, r.Event)
	}
	return b
}

func (r *EventResponse) unmarshalProto(b []byte) error {
	*r = EventResponse{}
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			err = decodeStatus(f, &r.Status)
		case 2:
			r.Event, err = sub[Event](f)
		}
		return err
	})
}

// Event oneof field numbers.
const (
	eventTimeStampedStatus          = 1
	eventWakeWord                   = 3
	eventRobotObservedFace          = 5
	eventRobotChangedObservedFaceID = 6
	eventObjectEvent                = 7
	eventStimulationInfo            = 8
	eventPhotoTaken                 = 9
	eventRobotState                 = 10
	eventCubeBattery                = 11
	eventKeepAlive                  = 12
	eventConnectionResponse         = 13
	eventMirrorModeDisabled         = 16
	eventVisionModesAutoDisabled    = 17
)

func (e *Event) marshalProto(b []byte) []byte {
	b = appendRaw(b, eventTimeStampedStatus, e.TimeStampedStatus)
	if e.WakeWord != nil {
		b = appendMessage(b, eventWakeWord, e.WakeWord)
	}
	b = appendRaw(b, eventRobotObservedFace, e.RobotObservedFace)
	b = appendRaw(b, eventRobotChangedObservedFaceID, e.RobotChangedObservedFaceID)
	b = appendRaw(b, eventObjectEvent, e.ObjectEvent)
	b = appendRaw(b, eventStimulationInfo, e.StimulationInfo)
	b = appendRaw(b, eventPhotoTaken, e.PhotoTaken)
	if e.RobotState != nil {
		b = appendMessage(b, eventRobotState, e.RobotState)
	}
	if e.CubeBattery != nil {
		b = appendMessage(b, eventCubeBattery, e.CubeBattery)
	}
	b = appendRaw(b, eventKeepAlive, e.KeepAlive)
	b = appendRaw(b, eventConnectionResponse, e.ConnectionResponse)
	b = appendRaw(b, eventMirrorModeDisabled, e.MirrorModeDisabled)
	return appendRaw(b, eventVisionModesAutoDisabled, e.VisionModesAutoDisabled)
}

func (e *Event) unmarshalProto(b []byte) error {
	*e = Event{}
	return eachField(b, func(f field) error {
		if f.typ != protowire.BytesType {
			return nil
		}
		var err error
		switch f.num {
		case eventTimeStampedStatus:
			e.TimeStampedStatus = f.bytes()
		case eventWakeWord:
			e.WakeWord, err = sub[WakeWord](f)
		case eventRobotObservedFace:
			e.RobotObservedFace = f.bytes()
		case eventRobotChangedObservedFaceID:
			e.RobotChangedObservedFaceID = f.bytes()
		case eventObjectEvent:
			e.ObjectEvent = f.bytes()
		case eventStimulationInfo:
			e.StimulationInfo = f.bytes()
		case eventPhotoTaken:
			e.PhotoTaken = f.bytes()
		case eventRobotState:
			e.RobotState, err = sub[RobotState](f)
		case eventCubeBattery:
			e.CubeBattery, err = sub[CubeBattery](f)
		case eventKeepAlive:
			e.KeepAlive = f.bytes()
		case eventConnectionResponse:
			e.ConnectionResponse = f.bytes()
		case eventMirrorModeDisabled:
			e.MirrorModeDisabled = f.bytes()
		case eventVisionModesAutoDisabled:
			e.VisionModesAutoDisabled = f.bytes()
		}
		return err
	})
}

// WakeWord

func (w *WakeWord) marshalProto(b []byte) []byte {
	if w.WakeWordBegin != nil {
		b = appendMessage(b, 1, w.WakeWordBegin)
	}
	if w.WakeWordEnd != nil {
		b = appendMessage(b, 2, w.WakeWordEnd)
	}
	return b
}

func (w *WakeWord) unmarshalProto(b []byte) error {
	*w = WakeWord{}
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			w.WakeWordBegin, err = sub[WakeWordBegin](f)
		case 2:
			w.WakeWordEnd, err = sub[WakeWordEnd](f)
		}
		return err
	})
}

func (w *WakeWordEnd) marshalProto(b []byte) []byte {
	b = appendString(b, 1, w.IntentHeard)
	return appendString(b, 2, w.IntentJSON)
}

func (w *WakeWordEnd) unmarshalProto(b []byte) error {
	*w = WakeWordEnd{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			if f.typ == protowire.VarintType {
				w.IntentHeard = strconv.FormatBool(f.bool())
			} else {
				w.IntentHeard = f.string()
			}
		case 2:
			w.IntentJSON = f.string()
		}
		return nil
	})
}

// RobotState

func (s *RobotState) marshalProto(b []byte) []byte {
	if s.Pose != nil {
		b = appendMessage(b, 1, s.Pose)
	}
	b = appendFloat(b, 2, s.PoseAngleRad)
	b = appendFloat(b, 3, s.PosePitchRad)
	b = appendFloat(b, 4, s.LeftWheelSpeedMmps)
	b = appendFloat(b, 5, s.RightWheelSpeedMmps)
	b = appendFloat(b, 6, s.HeadAngleRad)
	b = appendFloat(b, 7, s.LiftHeightMm)
	if s.Accel != nil {
		b = appendMessage(b, 8, s.Accel)
	}
	if s.Gyro != nil {
		b = appendMessage(b, 9, s.Gyro)
	}
	b = appendInt32(b, 10, s.CarryingObjectID)
	b = appendInt32(b, 11, s.CarryingObjectOnTopID)
	b = appendInt32(b, 12, s.HeadTrackingObjectID)
	b = appendInt32(b, 13, s.LocalizedToObjectID)
	b = appendVarint(b, 14, uint64(s.LastImageTimeStamp))
	b = appendVarint(b, 15, uint64(s.Status))
	if s.ProxData != nil {
		b = appendMessage(b, 16, s.ProxData)
	}
	if s.TouchData != nil {
		b = appendMessage(b, 17, s.TouchData)
	}
	return b
}

func (s *RobotState) unmarshalProto(b []byte) error {
	*s = RobotState{}
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			s.Pose, err = sub[Pose](f)
		case 2:
			s.PoseAngleRad = f.float32()
		case 3:
			s.PosePitchRad = f.float32()
		case 4:
			s.LeftWheelSpeedMmps = f.float32()
		case 5:
			s.RightWheelSpeedMmps = f.float32()
		case 6:
			s.HeadAngleRad = f.float32()
		case 7:
			s.LiftHeightMm = f.float32()
		case 8:
			s.Accel, err = sub[Vector3](f)
		case 9:
			s.Gyro, err = sub[Vector3](f)
		case 10:
			s.CarryingObjectID = f.int32()
		case 11:
			s.CarryingObjectOnTopID = f.int32()
		case 12:
			s.HeadTrackingObjectID = f.int32()
		case 13:
			s.LocalizedToObjectID = f.int32()
		case 14:
			s.LastImageTimeStamp = f.uint32()
		case 15:
			s.Status = f.uint32()
		case 16:
			s.ProxData, err = sub[ProxData](f)
		case 17:
			s.TouchData, err = sub[TouchData](f)
		}
		return err
	})
}

func (p *Pose) marshalProto(b []byte) []byte {
	b = appendFloat(b, 1, p.X)
	b = appendFloat(b, 2, p.Y)
	b = appendFloat(b, 3, p.Z)
	b = appendFloat(b, 4, p.Q0)
	b = appendFloat(b, 5, p.Q1)
	b = appendFloat(b, 6, p.Q2)
	b = appendFloat(b, 7, p.Q3)
	return appendVarint(b, 8, uint64(p.OriginID))
}

func (p *Pose) unmarshalProto(b []byte) error {
	*p = Pose{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			p.X = f.float32()
		case 2:
			p.Y = f.float32()
		case 3:
			p.Z = f.float32()
		case 4:
			p.Q0 = f.float32()
		case 5:
			p.Q1 = f.float32()
		case 6:
			p.Q2 = f.float32()
		case 7:
			p.Q3 = f.float32()
		case 8:
			p.OriginID = f.uint32()
		}
		return nil
	})
}

func (v *Vector3) marshalProto(b []byte) []byte {
	b = appendFloat(b, 1, v.X)
	b = appendFloat(b, 2, v.Y)
	return appendFloat(b, 3, v.Z)
}

func (v *Vector3) unmarshalProto(b []byte) error {
	*v = Vector3{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			v.X = f.float32()
		case 2:
			v.Y = f.float32()
		case 3:
			v.Z = f.float32()
		}
		return nil
	})
}

func (p *ProxData) marshalProto(b []byte) []byte {
	b = appendVarint(b, 1, uint64(p.DistanceMm))
	b = appendFloat(b, 2, p.SignalQuality)
	b = appendBool(b, 3, p.Unobstructed)
	b = appendBool(b, 4, p.FoundObject)
	return appendBool(b, 5, p.IsLiftInFOV)
}

func (p *ProxData) unmarshalProto(b []byte) error {
	*p = ProxData{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			p.DistanceMm = f.uint32()
		case 2:
			p.SignalQuality = f.float32()
		case 3:
			p.Unobstructed = f.bool()
		case 4:
			p.FoundObject = f.bool()
		case 5:
			p.IsLiftInFOV = f.bool()
		}
		return nil
	})
}

func (t *TouchData) marshalProto(b []byte) []byte {
	b = appendVarint(b, 1, uint64(t.RawTouchValue))
	return appendBool(b, 2, t.IsBeingTouched)
}

func (t *TouchData) unmarshalProto(b []byte) error {
	*t = TouchData{}
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			t.RawTouchValue = f.uint32()
		case 2:
			t.IsBeingTouched = f.bool()
		}
		return nil
	})
}

// Behavior control

func (r *BehaviorControlRequest) marshalProto(b []byte) []byte {
	if r.ControlRelease != nil {
		b = appendMessage(b, 1, r.ControlRelease)
	}
	if r.ControlRequest != nil {
		b = appendMessage(b, 2, r.ControlRequest)
	}
	return b
}

func (r *BehaviorControlRequest) unmarshalProto(b []byte) error {
	*r = BehaviorControlRequest{}
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			r.ControlRelease, err = sub[ControlRelease](f)
		case 2:
			r.ControlRequest, err = sub[ControlRequest](f)
		}
		return err
	})
}

func (r *ControlRequest) marshalProto(b []byte) []byte {
	return appendInt32(b, 1, int32(r.Priority))
}

func (r *ControlRequest) unmarshalProto(b []byte) error {
	*r = ControlRequest{}
	return eachField(b, func(f field) error {
		if f.num == 1 {
			r.Priority = ControlPriority(f.int32())
		}
		return nil
	})
}

func (r *BehaviorControlResponse) marshalProto(b []byte) []byte {
	if r.ControlGrantedResponse != nil {
		b = appendMessage(b, 1, r.ControlGrantedResponse)
	}
	if r.ControlLostEvent != nil {
		b = appendMessage(b, 2, r.ControlLostEvent)
	}
	if r.KeepAlive != nil {
		b = appendMessage(b, 3, r.KeepAlive)
	}
	if r.ReservedControlLostEvent != nil {
		b = appendMessage(b, 4, r.ReservedControlLostEvent)
	}
	return b
}

func (r *BehaviorControlResponse) unmarshalProto(b []byte) error {
	*r = BehaviorControlResponse{}
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			r.ControlGrantedResponse, err = sub[ControlGrantedResponse](f)
		case 2:
			r.ControlLostEvent, err = sub[ControlLostEvent](f)
		case 3:
			r.KeepAlive, err = sub[KeepAlivePing](f)
		case 4:
			r.ReservedControlLostEvent, err = sub[ReservedControlLostEvent](f)
		}
		return err
	})
}
