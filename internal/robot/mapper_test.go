package robot

import (
	"testing"

	"github.com/nerrad567/vectorlink/internal/gateway"
)

func TestMapper_WakeWord(t *testing.T) {
	m := NewMapper()

	tests := []struct {
		name string
		in   *gateway.WakeWord
		want WakeWord
	}{
		{
			name: "begin only",
			in:   &gateway.WakeWord{WakeWordBegin: &gateway.WakeWordBegin{}},
			want: WakeWord{Begin: true},
		},
		{
			name: "end only",
			in: &gateway.WakeWord{WakeWordEnd: &gateway.WakeWordEnd{
				IntentHeard: "hey_vector",
				IntentJSON:  "{}",
			}},
			want: WakeWord{IntentHeard: "hey_vector", IntentJSON: "{}"},
		},
		{
			name: "begin and end",
			in: &gateway.WakeWord{
				WakeWordBegin: &gateway.WakeWordBegin{},
				WakeWordEnd:   &gateway.WakeWordEnd{IntentHeard: "hey_vector", IntentJSON: "{}"},
			},
			want: WakeWord{Begin: true, IntentHeard: "hey_vector", IntentJSON: "{}"},
		},
		{
			name: "neither",
			in:   &gateway.WakeWord{},
			want: WakeWord{},
		},
		{
			name: "nil",
			in:   nil,
			want: WakeWord{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.WakeWord(tt.in); got != tt.want {
				t.Errorf("WakeWord() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMapper_BatteryState(t *testing.T) {
	m := NewMapper()

	got := m.BatteryState(&gateway.BatteryStateResponse{
		Status:              &gateway.ResponseStatus{Code: gateway.ResponseOK},
		BatteryLevel:        gateway.BatteryLevelFull,
		BatteryVolts:        4.1,
		IsCharging:          true,
		IsOnChargerPlatform: true,
		CubeBattery:         &gateway.CubeBattery{FactoryID: "cube-1", BatteryVolts: 1.4},
	})

	if got.Level != BatteryLevelFull {
		t.Errorf("Level = %q, want %q", got.Level, BatteryLevelFull)
	}
	if got.Volts != 4.1 || !got.IsCharging || !got.IsOnChargerPlatform {
		t.Errorf("BatteryState() = %+v", got)
	}
	if got.Cube.FactoryID != "cube-1" || got.Cube.Volts != 1.4 {
		t.Errorf("Cube = %+v, want cube-1 at 1.4V", got.Cube)
	}
}

func TestMapper_ZeroValuesForAbsentRecords(t *testing.T) {
	m := NewMapper()

	if got := m.BatteryState(&gateway.BatteryStateResponse{BatteryLevel: 42}); got.Level != BatteryLevelUnknown || got.Cube != (CubeBattery{}) {
		t.Errorf("BatteryState() = %+v, want unknown level and empty cube", got)
	}
	if got := m.BatteryState(nil); got.Level != BatteryLevelUnknown {
		t.Errorf("BatteryState(nil).Level = %q, want unknown", got.Level)
	}
	if got := m.VersionState(nil); got != (VersionState{}) {
		t.Errorf("VersionState(nil) = %+v, want zero", got)
	}
	if got := m.NetworkState(&gateway.NetworkStateResponse{}); got != (NetworkState{}) {
		t.Errorf("NetworkState() = %+v, want zero", got)
	}
	if got := m.RobotState(&gateway.RobotState{HeadAngleRad: 0.3}); got.Pose != (Pose{}) || got.Touch != (Touch{}) || got.HeadAngleRad != 0.3 {
		t.Errorf("RobotState() = %+v, want zero nested records", got)
	}
}

func TestMapper_RobotState(t *testing.T) {
	m := NewMapper()

	got := m.RobotState(&gateway.RobotState{
		Pose:         &gateway.Pose{X: 10, Y: 20, OriginID: 3},
		LiftHeightMm: 32,
		Accel:        &gateway.Vector3{Z: 9.8},
		Status:       uint32(StatusOnCharger | StatusIsCharging),
		ProxData:     &gateway.ProxData{DistanceMm: 150, Unobstructed: true},
		TouchData:    &gateway.TouchData{RawTouchValue: 4500, IsBeingTouched: true},
	})

	if got.Pose.X != 10 || got.Pose.Y != 20 || got.Pose.OriginID != 3 {
		t.Errorf("Pose = %+v", got.Pose)
	}
	if got.Accel.Z != 9.8 {
		t.Errorf("Accel.Z = %v, want 9.8", got.Accel.Z)
	}
	if !got.Status.Has(StatusOnCharger) || !got.Status.Has(StatusIsCharging) || got.Status.Has(StatusPickedUp) {
		t.Errorf("Status = %#x, want on charger and charging", uint32(got.Status))
	}
	if got.Proximity.DistanceMm != 150 || !got.Proximity.Unobstructed {
		t.Errorf("Proximity = %+v", got.Proximity)
	}
	if !got.Touch.IsBeingTouched || got.Touch.RawValue != 4500 {
		t.Errorf("Touch = %+v", got.Touch)
	}
}

func TestMapper_Type(t *testing.T) {
	m := NewMapper()
	raw := []byte{}

	tests := []struct {
		name string
		in   *gateway.Event
		want EventType
	}{
		{"nil", nil, EventTypeUnknown},
		{"empty", &gateway.Event{}, EventTypeUnknown},
		{"wake word", &gateway.Event{WakeWord: &gateway.WakeWord{}}, EventTypeWakeWord},
		{"robot state", &gateway.Event{RobotState: &gateway.RobotState{}}, EventTypeRobotState},
		{"face", &gateway.Event{RobotObservedFace: raw}, EventTypeRobotObservedFace},
		{"cube battery", &gateway.Event{CubeBattery: &gateway.CubeBattery{}}, EventTypeCubeBattery},
		{"keep alive", &gateway.Event{KeepAlive: raw}, EventTypeKeepAlive},
		{"vision modes", &gateway.Event{VisionModesAutoDisabled: raw}, EventTypeVisionModesAutoDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Type(tt.in); got != tt.want {
				t.Errorf("Type() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMapper_Event(t *testing.T) {
	m := NewMapper()

	ev := m.Event(&gateway.Event{WakeWord: &gateway.WakeWord{WakeWordBegin: &gateway.WakeWordBegin{}}})
	if ev.Type != EventTypeWakeWord || ev.WakeWord == nil || !ev.WakeWord.Begin {
		t.Errorf("Event() = %+v, want wake word begin", ev)
	}
	if ev.RobotState != nil {
		t.Error("Event() wake word must not carry robot state")
	}

	ev = m.Event(&gateway.Event{PhotoTaken: []byte{0x08, 0x01}})
	if ev.Type != EventTypePhotoTaken || ev.WakeWord != nil || ev.RobotState != nil {
		t.Errorf("Event() = %+v, want bare photo_taken envelope", ev)
	}
}
