package relay

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/vectorlink/internal/control"
	"github.com/nerrad567/vectorlink/internal/events"
	"github.com/nerrad567/vectorlink/internal/infrastructure/influxdb"
	"github.com/nerrad567/vectorlink/internal/infrastructure/mqtt"
	"github.com/nerrad567/vectorlink/internal/robot"
)

// WebSocket channels.
const (
	ChannelWakeWord   = "robot.wake_word"
	ChannelRobotState = "robot.state"
	ChannelControl    = "robot.control"
	ChannelBattery    = "robot.battery"
)

// eventTypeBattery tags polled battery snapshots, which are not stream events.
const eventTypeBattery robot.EventType = "battery"

// Publisher sends JSON payloads to the message bus.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// Telemetry records time-series points.
type Telemetry interface {
	WriteBattery(s influxdb.BatterySample)
	WriteMotion(s influxdb.MotionSample)
	WriteEvent(deviceID, eventType string)
}

// Broadcaster pushes payloads to live WebSocket clients.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// BatterySource is polled for battery state.
type BatterySource interface {
	BatteryState(ctx context.Context) (robot.BatteryState, error)
}

// Logger is the logging surface the relay needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Config wires a Relay. Every sink is optional.
type Config struct {
	DeviceID    string
	Publisher   Publisher
	Telemetry   Telemetry
	Broadcaster Broadcaster

	// StateInterval is the minimum spacing between relayed robot_state samples.
	// Zero relays every sample.
	StateInterval time.Duration
}

// Relay fans robot events out to the configured sinks.
type Relay struct {
	cfg    Config
	topics mqtt.Topics
	now    func() time.Time

	mu         sync.Mutex
	lastState  time.Time
	suppressed bool
	battery    *robot.BatteryState

	logger Logger
}

// New creates a relay. Call Attach to start receiving events.
func New(cfg Config) *Relay {
	return &Relay{
		cfg:    cfg,
		now:    time.Now,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger used for sink failures.
func (r *Relay) SetLogger(logger Logger) {
	r.logger = logger
}

// Attach registers the relay's listeners. Either argument may be nil.
func (r *Relay) Attach(d *events.Dispatcher, a *control.Arbiter) {
	if d != nil {
		d.OnWakeWord(r.HandleWakeWord)
		d.OnRobotState(r.HandleRobotState)
	}
	if a != nil {
		a.OnSuppressionChanged(r.HandleSuppression)
	}
}

// Suppressed reports the last relayed suppression state.
func (r *Relay) Suppressed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.suppressed
}

// LastBattery returns the most recent polled battery state, or nil.
func (r *Relay) LastBattery() *robot.BatteryState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.battery == nil {
		return nil
	}
	b := *r.battery
	return &b
}

// HandleWakeWord relays a wake word event to every sink.
func (r *Relay) HandleWakeWord(w robot.WakeWord) {
	msg := r.envelope(robot.EventTypeWakeWord, w)
	r.publish(r.topics.RobotEvent(r.cfg.DeviceID, string(robot.EventTypeWakeWord)), msg, false)
	r.broadcast(ChannelWakeWord, msg)
	if r.cfg.Telemetry != nil {
		r.cfg.Telemetry.WriteEvent(r.cfg.DeviceID, string(robot.EventTypeWakeWord))
	}
}

// HandleRobotState relays a robot state sample, subject to StateInterval.
func (r *Relay) HandleRobotState(s robot.RobotState) {
	now := r.now()
	r.mu.Lock()
	if !r.lastState.IsZero() && now.Sub(r.lastState) < r.cfg.StateInterval {
		r.mu.Unlock()
		return
	}
	r.lastState = now
	r.mu.Unlock()

	msg := r.envelope(robot.EventTypeRobotState, s)
	r.publish(r.topics.RobotEvent(r.cfg.DeviceID, string(robot.EventTypeRobotState)), msg, false)
	r.broadcast(ChannelRobotState, msg)
	if r.cfg.Telemetry != nil {
		r.cfg.Telemetry.WriteMotion(motionSample(r.cfg.DeviceID, s, now))
	}
}

// HandleSuppression relays a change in personality suppression.
func (r *Relay) HandleSuppression(isSuppressed bool) {
	r.mu.Lock()
	r.suppressed = isSuppressed
	r.mu.Unlock()

	msg := ControlMessage{
		DeviceID:   r.cfg.DeviceID,
		Suppressed: isSuppressed,
		Timestamp:  r.timestamp(),
	}
	r.publish(r.topics.RobotControl(r.cfg.DeviceID), msg, true)
	r.broadcast(ChannelControl, msg)
}

// HandleBattery relays a battery snapshot.
func (r *Relay) HandleBattery(b robot.BatteryState) {
	now := r.now()
	r.mu.Lock()
	r.battery = &b
	r.mu.Unlock()

	msg := r.envelope(eventTypeBattery, b)
	r.publish(r.topics.RobotBattery(r.cfg.DeviceID), msg, true)
	r.broadcast(ChannelBattery, msg)
	if r.cfg.Telemetry != nil {
		r.cfg.Telemetry.WriteBattery(batterySample(r.cfg.DeviceID, b, now))
	}
}

// PollBattery calls source every interval and relays the result until ctx
// is done. The first poll happens immediately. Failed polls are logged and
// skipped. A non-positive interval returns at once.
func (r *Relay) PollBattery(ctx context.Context, source BatterySource, interval time.Duration) {
	if interval <= 0 || source == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		b, err := source.BatteryState(ctx)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			r.logger.Warn("battery poll failed", "device_id", r.cfg.DeviceID, "error", err)
		default:
			r.HandleBattery(b)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Relay) publish(topic string, v any, retained bool) {
	if r.cfg.Publisher == nil {
		return
	}
	if err := r.cfg.Publisher.PublishJSON(topic, v, retained); err != nil {
		r.logger.Warn("relay publish failed", "topic", topic, "error", err)
	}
}

func (r *Relay) broadcast(channel string, v any) {
	if r.cfg.Broadcaster == nil {
		return
	}
	r.cfg.Broadcaster.Broadcast(channel, v)
}
