package vector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/vectorlink/internal/actiontag"
	"github.com/nerrad567/vectorlink/internal/control"
	"github.com/nerrad567/vectorlink/internal/credential"
	"github.com/nerrad567/vectorlink/internal/events"
	"github.com/nerrad567/vectorlink/internal/gateway"
	"github.com/nerrad567/vectorlink/internal/grant"
	"github.com/nerrad567/vectorlink/internal/robot"
	"github.com/nerrad567/vectorlink/internal/session"
)

// Granter obtains a bundle from account credentials. *grant.Flow satisfies it.
type Granter interface {
	Run(ctx context.Context, req grant.Request) (*credential.Bundle, error)
}

// Config holds Robot collaborators. Only Store is required.
type Config struct {
	Store credential.Store

	// Dialer overrides the gRPC dialer (tests).
	Dialer session.Dialer

	// ConnectTimeout bounds Connect. Zero uses session.DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// Grant configures the default Granter when Granter is nil.
	Grant grant.Config

	// Granter overrides the grant flow (tests).
	Granter Granter
}

// Logger defines the logging interface shared by Robot and its components.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Robot is a client session to one robot.
//
// Thread Safety:
//   - All methods are safe for concurrent use. StartEventListening and
//     SuppressPersonality each allow one active call at a time.
type Robot struct {
	store   credential.Store
	granter Granter
	logger  Logger

	mapper  *robot.Mapper
	tags    *actiontag.Allocator
	session *session.Manager
	events  *events.Dispatcher
	control *control.Arbiter
}

// New creates a disconnected Robot.
func New(cfg Config) *Robot {
	mapper := robot.NewMapper()
	manager := session.NewManager(session.Config{
		Store:          cfg.Store,
		Dialer:         cfg.Dialer,
		ConnectTimeout: cfg.ConnectTimeout,
	})

	granter := cfg.Granter
	if granter == nil {
		g := cfg.Grant
		if g.Dialer == nil {
			g.Dialer = cfg.Dialer
		}
		if g.ConnectTimeout == 0 {
			g.ConnectTimeout = cfg.ConnectTimeout
		}
		granter = grant.NewFlow(g)
	}

	return &Robot{
		store:   cfg.Store,
		granter: granter,
		logger:  noopLogger{},
		mapper:  mapper,
		tags:    actiontag.New(),
		session: manager,
		events:  events.NewDispatcher(manager, mapper),
		control: control.NewArbiter(manager),
	}
}

// SetLogger sets the logger for the robot and its components.
func (r *Robot) SetLogger(logger Logger) {
	r.logger = logger
	r.session.SetLogger(logger)
	r.events.SetLogger(logger)
	r.control.SetLogger(logger)
	if f, ok := r.granter.(*grant.Flow); ok {
		f.SetLogger(logger)
	}
}

// Connect loads the bundle for deviceName and connects. A non-empty
// ipOverride replaces the stored address and is persisted on success.
func (r *Robot) Connect(ctx context.Context, deviceName, ipOverride string) error {
	if r.store == nil {
		return fmt.Errorf("%w: no credential store configured", ErrMissingCredential)
	}
	bundle, err := r.store.Get(ctx, deviceName)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrMissingCredential, deviceName)
		}
		return fmt.Errorf("loading credential for %s: %w", deviceName, err)
	}
	return r.session.Connect(ctx, bundle, ipOverride)
}

// ConnectWith connects using bundle directly, bypassing the store lookup.
func (r *Robot) ConnectWith(ctx context.Context, bundle *credential.Bundle) error {
	return r.session.Connect(ctx, bundle, "")
}

// Disconnect closes the channel. Safe to call at any time.
func (r *Robot) Disconnect() error {
	return r.session.Disconnect()
}

// GrantAccess runs the grant flow for a robot and persists the result.
func (r *Robot) GrantAccess(ctx context.Context, deviceName, ip, serial, username, password string) (*credential.Bundle, error) {
	bundle, err := r.granter.Run(ctx, grant.Request{
		DeviceName: deviceName,
		Address:    ip,
		Serial:     serial,
		Username:   username,
		Password:   password,
	})
	if err != nil {
		return nil, err
	}
	if r.store != nil {
		if err := r.store.Save(ctx, bundle); err != nil {
			return nil, fmt.Errorf("saving credential for %s: %w", deviceName, err)
		}
	}
	r.logger.Info("robot credential stored", "device", deviceName)
	return bundle, nil
}

// BatteryState queries robot and cube battery state.
func (r *Robot) BatteryState(ctx context.Context) (robot.BatteryState, error) {
	client, err := r.session.Client()
	if err != nil {
		return robot.BatteryState{}, err
	}
	resp, err := client.BatteryState(ctx)
	if err != nil {
		return robot.BatteryState{}, err
	}
	if err := gateway.CheckStatus(gateway.MethodBatteryState, resp.Status); err != nil {
		return robot.BatteryState{}, err
	}
	return r.mapper.BatteryState(resp), nil
}

// VersionState queries firmware identification.
func (r *Robot) VersionState(ctx context.Context) (robot.VersionState, error) {
	client, err := r.session.Client()
	if err != nil {
		return robot.VersionState{}, err
	}
	resp, err := client.VersionState(ctx)
	if err != nil {
		return robot.VersionState{}, err
	}
	if err := gateway.CheckStatus(gateway.MethodVersionState, resp.Status); err != nil {
		return robot.VersionState{}, err
	}
	return r.mapper.VersionState(resp), nil
}

// NetworkState queries link counters.
//
// Best-effort: the robot's implementation of this call is unreliable and
// its values should not drive decisions. Errors follow the same contract as
// the other queries.
func (r *Robot) NetworkState(ctx context.Context) (robot.NetworkState, error) {
	client, err := r.session.Client()
	if err != nil {
		return robot.NetworkState{}, err
	}
	resp, err := client.NetworkState(ctx)
	if err != nil {
		return robot.NetworkState{}, err
	}
	if err := gateway.CheckStatus(gateway.MethodNetworkState, resp.Status); err != nil {
		return robot.NetworkState{}, err
	}
	return r.mapper.NetworkState(resp), nil
}

// StartEventListening runs the event subscription until ctx is cancelled
// or the robot closes it. See events.Dispatcher.Run.
func (r *Robot) StartEventListening(ctx context.Context) error {
	return r.events.Run(ctx)
}

// SuppressPersonality takes behaviour control until ctx is cancelled.
// overrideSafety requests control above the robot's safety behaviours.
func (r *Robot) SuppressPersonality(ctx context.Context, overrideSafety bool) error {
	priority := control.PriorityTop
	if overrideSafety {
		priority = control.PriorityOverrideBehaviors
		r.logger.Warn("requesting behavior control above safety behaviors")
	}
	return r.control.Run(ctx, priority)
}

// NextActionTag allocates a tag for an SDK-issued action.
func (r *Robot) NextActionTag() int {
	return r.tags.Next()
}

// Events returns the dispatcher for listener registration.
func (r *Robot) Events() *events.Dispatcher {
	return r.events
}

// Control returns the arbiter for listener registration and state.
func (r *Robot) Control() *control.Arbiter {
	return r.control
}

// Session returns the connection manager.
func (r *Robot) Session() *session.Manager {
	return r.session
}
