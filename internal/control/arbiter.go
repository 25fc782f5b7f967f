package control

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nerrad567/vectorlink/internal/gateway"
)

// Priority is the level at which control is requested.
type Priority int

const (
	// PriorityTop is the default: above the robot's idle personality,
	// below its safety behaviours.
	PriorityTop Priority = iota

	// PriorityOverrideBehaviors outranks every robot behaviour, safety included.
	PriorityOverrideBehaviors
)

func (p Priority) wire() gateway.ControlPriority {
	if p == PriorityOverrideBehaviors {
		return gateway.ControlPriorityOverrideBehaviors
	}
	return gateway.ControlPriorityDefault
}

func (p Priority) String() string {
	if p == PriorityOverrideBehaviors {
		return "override_behaviors"
	}
	return "top"
}

// State is the arbiter's control state.
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateGranted    State = "granted"
	StateLost       State = "lost"
)

// ClientSource yields the live gateway client. *session.Manager satisfies it.
type ClientSource interface {
	Client() (gateway.Client, error)
}

// Logger defines the logging interface for the arbiter.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Arbiter runs the behaviour control loop.
type Arbiter struct {
	source ClientSource
	logger Logger

	running atomic.Bool

	stateMu sync.RWMutex
	state   State

	listenerMu sync.RWMutex
	listeners  []func(isSuppressed bool)
}

// NewArbiter creates an idle arbiter.
func NewArbiter(source ClientSource) *Arbiter {
	return &Arbiter{
		source: source,
		logger: noopLogger{},
		state:  StateIdle,
	}
}

// SetLogger sets the logger for the arbiter.
func (a *Arbiter) SetLogger(logger Logger) {
	a.logger = logger
}

// OnSuppressionChanged registers fn. It runs synchronously on the Run goroutine.
func (a *Arbiter) OnSuppressionChanged(fn func(isSuppressed bool)) {
	a.listenerMu.Lock()
	a.listeners = append(a.listeners, fn)
	a.listenerMu.Unlock()
}

// State returns the current control state.
func (a *Arbiter) State() State {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.state
}

func (a *Arbiter) setState(s State) {
	a.stateMu.Lock()
	a.state = s
	a.stateMu.Unlock()
}

func (a *Arbiter) notify(isSuppressed bool) {
	a.listenerMu.RLock()
	listeners := a.listeners
	a.listenerMu.RUnlock()

	for _, fn := range listeners {
		fn(isSuppressed)
	}
}

// Run requests control at priority and holds the stream until ctx is
// cancelled or the robot ends the stream, both of which return nil.
// Other stream errors are returned as a *gateway.StreamFault.
func (a *Arbiter) Run(ctx context.Context, priority Priority) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer a.running.Store(false)

	client, err := a.source.Client()
	if err != nil {
		return err
	}

	stream, err := client.BehaviorControl(ctx)
	if err != nil {
		if isCancellation(ctx, err) {
			return nil
		}
		return &gateway.StreamFault{Stream: gateway.MethodBehaviorControl, Err: err}
	}

	defer a.release()

	request := &gateway.BehaviorControlRequest{
		ControlRequest: &gateway.ControlRequest{Priority: priority.wire()},
	}

	if err := a.request(ctx, stream, request); err != nil {
		return err
	}
	a.logger.Info("behavior control requested", "priority", priority)

	for {
		resp, err := stream.Recv()
		if err != nil {
			return a.finish(ctx, stream, err)
		}

		switch {
		case resp.ControlGrantedResponse != nil:
			a.setState(StateGranted)
			a.logger.Info("behavior control granted", "priority", priority)
			a.notify(true)

		case resp.ControlLostEvent != nil:
			a.setState(StateLost)
			a.logger.Info("behavior control lost, re-requesting", "priority", priority)
			a.notify(false)
			if ctx.Err() != nil {
				return a.finish(ctx, stream, ctx.Err())
			}
			if err := a.request(ctx, stream, request); err != nil {
				return err
			}

		case resp.ReservedControlLostEvent != nil:
			a.logger.Warn("reserved behavior control lost")

		case resp.KeepAlive != nil:
			a.logger.Debug("behavior control keep-alive")
		}
	}
}

// request moves to Requesting and sends req.
func (a *Arbiter) request(ctx context.Context, stream gateway.BehaviorControlStream, req *gateway.BehaviorControlRequest) error {
	a.setState(StateRequesting)
	if err := stream.Send(req); err != nil {
		return a.finish(ctx, stream, err)
	}
	return nil
}

// finish closes the outbound side and classifies the terminating error.
func (a *Arbiter) finish(ctx context.Context, stream gateway.BehaviorControlStream, err error) error {
	if closeErr := stream.CloseSend(); closeErr != nil {
		a.logger.Debug("closing behavior control stream", "error", closeErr)
	}

	switch {
	case errors.Is(err, io.EOF):
		a.logger.Info("behavior control stream closed by robot")
		return nil
	case isCancellation(ctx, err):
		a.logger.Debug("behavior control cancelled")
		return nil
	default:
		a.logger.Warn("behavior control stream failed", "error", err)
		return &gateway.StreamFault{Stream: gateway.MethodBehaviorControl, Err: err}
	}
}

// release returns to Idle, telling listeners when control was held.
func (a *Arbiter) release() {
	wasGranted := a.State() == StateGranted
	a.setState(StateIdle)
	if wasGranted {
		a.notify(false)
	}
}

func isCancellation(ctx context.Context, err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	if status.Code(err) == codes.Canceled {
		return true
	}
	return ctx.Err() != nil
}
