package events

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nerrad567/vectorlink/internal/gateway"
	"github.com/nerrad567/vectorlink/internal/robot"
)

// ClientSource yields the live gateway client. *session.Manager satisfies it.
type ClientSource interface {
	Client() (gateway.Client, error)
}

// Logger defines the logging interface for the dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Dispatcher reads the event stream and invokes registered listeners.
//
// Thread Safety:
//   - Listener registration is safe at any time, including during Run.
//     A registration takes effect from the next dispatched event.
type Dispatcher struct {
	source ClientSource
	mapper *robot.Mapper
	logger Logger

	running atomic.Bool

	mu           sync.RWMutex
	onWakeWord   []func(robot.WakeWord)
	onRobotState []func(robot.RobotState)
	onAnyEvent   []func(robot.Event)
}

// NewDispatcher creates a dispatcher reading from source.
func NewDispatcher(source ClientSource, mapper *robot.Mapper) *Dispatcher {
	return &Dispatcher{
		source: source,
		mapper: mapper,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// OnWakeWord registers fn for wake word events.
func (d *Dispatcher) OnWakeWord(fn func(robot.WakeWord)) {
	d.mu.Lock()
	d.onWakeWord = append(d.onWakeWord, fn)
	d.mu.Unlock()
}

// OnRobotState registers fn for robot state events.
func (d *Dispatcher) OnRobotState(fn func(robot.RobotState)) {
	d.mu.Lock()
	d.onRobotState = append(d.onRobotState, fn)
	d.mu.Unlock()
}

// OnAnyEvent registers fn as a generic listener. It observes every wake
// word event, after the type-specific listeners.
func (d *Dispatcher) OnAnyEvent(fn func(robot.Event)) {
	d.mu.Lock()
	d.onAnyEvent = append(d.onAnyEvent, fn)
	d.mu.Unlock()
}

// Running reports whether Run is active.
func (d *Dispatcher) Running() bool {
	return d.running.Load()
}

// Run opens the event subscription and dispatches until the stream ends.
//
// Returns nil when the robot closes the stream or ctx is cancelled. Any
// other stream error is returned as a *gateway.StreamFault; there is no retry.
func (d *Dispatcher) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer d.running.Store(false)

	client, err := d.source.Client()
	if err != nil {
		return err
	}

	connectionID := uuid.NewString()
	stream, err := client.EventStream(ctx, &gateway.EventRequest{ConnectionID: connectionID})
	if err != nil {
		if isCancellation(ctx, err) {
			return nil
		}
		return &gateway.StreamFault{Stream: gateway.MethodEventStream, Err: err}
	}

	d.logger.Info("event stream opened", "connection_id", connectionID)

	for {
		resp, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				d.logger.Info("event stream closed by robot", "connection_id", connectionID)
				return nil
			}
			if isCancellation(ctx, err) {
				d.logger.Debug("event stream cancelled", "connection_id", connectionID)
				return nil
			}
			d.logger.Warn("event stream failed", "connection_id", connectionID, "error", err)
			return &gateway.StreamFault{Stream: gateway.MethodEventStream, Err: err}
		}
		d.dispatch(resp.Event)
	}
}

func (d *Dispatcher) dispatch(e *gateway.Event) {
	ev := d.mapper.Event(e)
	switch ev.Type {
	case robot.EventTypeWakeWord:
		d.mu.RLock()
		typed := d.onWakeWord
		generic := d.onAnyEvent
		d.mu.RUnlock()

		for _, fn := range typed {
			fn(*ev.WakeWord)
		}
		for _, fn := range generic {
			fn(ev)
		}

	case robot.EventTypeRobotState:
		d.mu.RLock()
		typed := d.onRobotState
		d.mu.RUnlock()

		for _, fn := range typed {
			fn(*ev.RobotState)
		}

	default:
		d.logger.Debug("discarding event", "type", ev.Type)
	}
}

// isCancellation reports whether err is the stream observing its own
// context ending rather than a transport failure.
func isCancellation(ctx context.Context, err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	if status.Code(err) == codes.Canceled {
		return true
	}
	return ctx.Err() != nil
}
