package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/vectorlink/internal/events"
	"github.com/nerrad567/vectorlink/internal/gateway"
	"github.com/nerrad567/vectorlink/internal/gateway/gatewaytest"
	"github.com/nerrad567/vectorlink/internal/infrastructure/influxdb"
	"github.com/nerrad567/vectorlink/internal/robot"
)

const testDevice = "Vector-A1B2"

type publishedMsg struct {
	topic    string
	payload  []byte
	retained bool
}

// mockPublisher records publishes as encoded JSON, like the MQTT client would send.
type mockPublisher struct {
	mu   sync.Mutex
	msgs []publishedMsg
	err  error
}

func (m *mockPublisher) PublishJSON(topic string, v any, retained bool) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, publishedMsg{topic, data, retained})
	return m.err
}

func (m *mockPublisher) published() []publishedMsg {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishedMsg(nil), m.msgs...)
}

type mockTelemetry struct {
	mu      sync.Mutex
	battery []influxdb.BatterySample
	motion  []influxdb.MotionSample
	events  []string
}

func (m *mockTelemetry) WriteBattery(s influxdb.BatterySample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.battery = append(m.battery, s)
}

func (m *mockTelemetry) WriteMotion(s influxdb.MotionSample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.motion = append(m.motion, s)
}

func (m *mockTelemetry) WriteEvent(_, eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, eventType)
}

type mockBroadcaster struct {
	mu       sync.Mutex
	channels []string
}

func (m *mockBroadcaster) Broadcast(channel string, _ any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, channel)
}

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type sinks struct {
	pub   *mockPublisher
	tel   *mockTelemetry
	ws    *mockBroadcaster
	clock *fakeClock
}

func newTestRelay(interval time.Duration) (*Relay, sinks) {
	s := sinks{
		pub:   &mockPublisher{},
		tel:   &mockTelemetry{},
		ws:    &mockBroadcaster{},
		clock: &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	r := New(Config{
		DeviceID:      testDevice,
		Publisher:     s.pub,
		Telemetry:     s.tel,
		Broadcaster:   s.ws,
		StateInterval: interval,
	})
	r.now = s.clock.now
	return r, s
}

func TestHandleWakeWord(t *testing.T) {
	r, s := newTestRelay(time.Second)

	r.HandleWakeWord(robot.WakeWord{IntentHeard: "hey_vector", IntentJSON: "{}"})

	msgs := s.pub.published()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	if msgs[0].topic != "vectorlink/robot/Vector-A1B2/event/wake_word" {
		t.Errorf("topic = %q", msgs[0].topic)
	}
	if msgs[0].retained {
		t.Error("events must not be retained")
	}

	var got struct {
		DeviceID  string         `json:"device_id"`
		Type      string         `json:"type"`
		Timestamp string         `json:"timestamp"`
		Data      robot.WakeWord `json:"data"`
	}
	if err := json.Unmarshal(msgs[0].payload, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got.DeviceID != testDevice || got.Type != "wake_word" || got.Data.IntentHeard != "hey_vector" {
		t.Errorf("payload = %+v", got)
	}
	if got.Timestamp != "2026-03-01T12:00:00Z" {
		t.Errorf("Timestamp = %q, want 2026-03-01T12:00:00Z", got.Timestamp)
	}

	if len(s.ws.channels) != 1 || s.ws.channels[0] != ChannelWakeWord {
		t.Errorf("broadcast channels = %v, want [%s]", s.ws.channels, ChannelWakeWord)
	}
	if len(s.tel.events) != 1 || s.tel.events[0] != "wake_word" {
		t.Errorf("telemetry events = %v, want [wake_word]", s.tel.events)
	}
}

func TestHandleRobotState_RateLimited(t *testing.T) {
	r, s := newTestRelay(time.Second)

	r.HandleRobotState(robot.RobotState{HeadAngleRad: 0.1})
	s.clock.advance(100 * time.Millisecond)
	r.HandleRobotState(robot.RobotState{HeadAngleRad: 0.2}) // dropped
	s.clock.advance(time.Second)
	r.HandleRobotState(robot.RobotState{HeadAngleRad: 0.3, LeftWheelSpeedMmps: 40})

	msgs := s.pub.published()
	if len(msgs) != 2 {
		t.Fatalf("published %d samples, want 2", len(msgs))
	}
	for _, m := range msgs {
		if m.topic != "vectorlink/robot/Vector-A1B2/event/robot_state" {
			t.Errorf("topic = %q", m.topic)
		}
	}
	if len(s.tel.motion) != 2 {
		t.Fatalf("wrote %d motion samples, want 2", len(s.tel.motion))
	}
	if got := s.tel.motion[1].LeftWheelMMPS; got != 40 {
		t.Errorf("LeftWheelMMPS = %v, want 40", got)
	}
	if len(s.ws.channels) != 2 {
		t.Errorf("broadcast %d samples, want 2", len(s.ws.channels))
	}
}

func TestHandleRobotState_NoInterval(t *testing.T) {
	r, s := newTestRelay(0)
	for i := 0; i < 5; i++ {
		r.HandleRobotState(robot.RobotState{})
	}
	if n := len(s.pub.published()); n != 5 {
		t.Errorf("published %d samples, want 5", n)
	}
}

func TestHandleSuppression(t *testing.T) {
	r, s := newTestRelay(time.Second)

	r.HandleSuppression(true)
	if !r.Suppressed() {
		t.Error("Suppressed() = false after HandleSuppression(true)")
	}
	r.HandleSuppression(false)
	if r.Suppressed() {
		t.Error("Suppressed() = true after HandleSuppression(false)")
	}

	msgs := s.pub.published()
	if len(msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(msgs))
	}
	for i, want := range []bool{true, false} {
		if msgs[i].topic != "vectorlink/robot/Vector-A1B2/control" || !msgs[i].retained {
			t.Errorf("msg %d topic=%q retained=%v, want retained control topic", i, msgs[i].topic, msgs[i].retained)
		}
		var got ControlMessage
		if err := json.Unmarshal(msgs[i].payload, &got); err != nil {
			t.Fatalf("payload is not JSON: %v", err)
		}
		if got.Suppressed != want {
			t.Errorf("msg %d Suppressed = %v, want %v", i, got.Suppressed, want)
		}
	}
}

func TestHandleBattery(t *testing.T) {
	r, s := newTestRelay(time.Second)

	if r.LastBattery() != nil {
		t.Error("LastBattery() should be nil before any poll")
	}
	r.HandleBattery(robot.BatteryState{
		Level:      robot.BatteryLevelNominal,
		Volts:      3.75,
		IsCharging: true,
		Cube:       robot.CubeBattery{FactoryID: "cube-1", Volts: 1.5},
	})

	msgs := s.pub.published()
	if len(msgs) != 1 || msgs[0].topic != "vectorlink/robot/Vector-A1B2/battery" || !msgs[0].retained {
		t.Fatalf("published = %+v, want one retained battery message", msgs)
	}
	if len(s.tel.battery) != 1 {
		t.Fatalf("wrote %d battery samples, want 1", len(s.tel.battery))
	}
	got := s.tel.battery[0]
	if got.Level != "nominal" || !got.Charging || got.CubeVolts != 1.5 {
		t.Errorf("battery sample = %+v", got)
	}
	if b := r.LastBattery(); b == nil || b.Volts != 3.75 {
		t.Errorf("LastBattery() = %+v, want volts 3.75", b)
	}
}

func TestBatterySample_NoCube(t *testing.T) {
	s := batterySample(testDevice, robot.BatteryState{Cube: robot.CubeBattery{Volts: 1.2}}, time.Time{})
	if s.CubeVolts != 0 {
		t.Errorf("CubeVolts = %v without a factory id, want 0", s.CubeVolts)
	}
}

func TestNilSinks(t *testing.T) {
	r := New(Config{DeviceID: testDevice})

	// Must not panic with every sink disabled.
	r.HandleWakeWord(robot.WakeWord{Begin: true})
	r.HandleRobotState(robot.RobotState{})
	r.HandleSuppression(true)
	r.HandleBattery(robot.BatteryState{})
}

func TestPublishFailureDoesNotStopOtherSinks(t *testing.T) {
	r, s := newTestRelay(time.Second)
	s.pub.err = errors.New("broker down")

	r.HandleWakeWord(robot.WakeWord{Begin: true})

	if len(s.ws.channels) != 1 || len(s.tel.events) != 1 {
		t.Errorf("ws=%v telemetry=%v, want both to receive the event", s.ws.channels, s.tel.events)
	}
}

type batterySource struct {
	mu    sync.Mutex
	calls int
	fail  bool
	polls chan struct{}
}

func (b *batterySource) BatteryState(context.Context) (robot.BatteryState, error) {
	b.mu.Lock()
	b.calls++
	fail := b.fail
	b.mu.Unlock()
	defer func() { b.polls <- struct{}{} }()
	if fail {
		return robot.BatteryState{}, errors.New("robot busy")
	}
	return robot.BatteryState{Level: robot.BatteryLevelFull, Volts: 4.1}, nil
}

func TestPollBattery(t *testing.T) {
	r, s := newTestRelay(time.Second)
	src := &batterySource{polls: make(chan struct{}, 16)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.PollBattery(ctx, src, 10*time.Millisecond)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-src.polls:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for poll %d", i+1)
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("PollBattery did not return after cancel")
	}

	s.tel.mu.Lock()
	n := len(s.tel.battery)
	s.tel.mu.Unlock()
	if n < 3 {
		t.Errorf("recorded %d battery samples, want at least 3", n)
	}
}

func TestPollBattery_FailuresSkipped(t *testing.T) {
	r, s := newTestRelay(time.Second)
	src := &batterySource{fail: true, polls: make(chan struct{}, 16)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.PollBattery(ctx, src, 10*time.Millisecond)

	for i := 0; i < 2; i++ {
		select {
		case <-src.polls:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for poll")
		}
	}
	if n := len(s.pub.published()); n != 0 {
		t.Errorf("published %d messages for failed polls, want 0", n)
	}
}

func TestPollBattery_Disabled(t *testing.T) {
	r, _ := newTestRelay(time.Second)
	src := &batterySource{polls: make(chan struct{}, 1)}

	r.PollBattery(context.Background(), src, 0)
	if src.calls != 0 {
		t.Errorf("polled %d times with zero interval, want 0", src.calls)
	}
}

type staticSource struct{ client gateway.Client }

func (s staticSource) Client() (gateway.Client, error) { return s.client, nil }

func TestAttach_RelaysDispatchedEvents(t *testing.T) {
	r, s := newTestRelay(0)

	client := gatewaytest.NewClient()
	d := events.NewDispatcher(staticSource{client}, robot.NewMapper())
	r.Attach(d, nil)

	client.Events.Push(&gateway.EventResponse{Event: &gateway.Event{WakeWord: &gateway.WakeWord{
		WakeWordEnd: &gateway.WakeWordEnd{IntentHeard: "hey_vector"},
	}}})
	client.Events.Push(&gateway.EventResponse{Event: &gateway.Event{RobotState: &gateway.RobotState{HeadAngleRad: 0.5}}})
	client.Events.End()

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	msgs := s.pub.published()
	if len(msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(msgs))
	}
	want := []string{
		"vectorlink/robot/Vector-A1B2/event/wake_word",
		"vectorlink/robot/Vector-A1B2/event/robot_state",
	}
	for i, topic := range want {
		if msgs[i].topic != topic {
			t.Errorf("msg %d topic = %q, want %q", i, msgs[i].topic, topic)
		}
	}
}
