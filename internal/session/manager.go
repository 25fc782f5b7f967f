package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/vectorlink/internal/credential"
	"github.com/nerrad567/vectorlink/internal/gateway"
)

// State is the channel state of a Manager.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// DefaultConnectTimeout bounds channel establishment when Config leaves it zero.
const DefaultConnectTimeout = 10 * time.Second

// Dialer opens a channel to a robot. Dial must honour ctx cancellation.
type Dialer interface {
	Dial(ctx context.Context, opts gateway.DialOptions) (gateway.Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, opts gateway.DialOptions) (gateway.Conn, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, opts gateway.DialOptions) (gateway.Conn, error) {
	return f(ctx, opts)
}

// GRPCDialer dials with gateway.Dial.
var GRPCDialer Dialer = DialerFunc(gateway.Dial)

// Config holds Manager settings.
type Config struct {
	// Store receives the bundle when the connected address differs from the stored one.
	// Nil disables persistence.
	Store credential.Store

	// Dialer opens channels. Nil uses GRPCDialer.
	Dialer Dialer

	// ConnectTimeout bounds Connect. Zero uses DefaultConnectTimeout.
	ConnectTimeout time.Duration
}

// Logger defines the logging interface for the connection manager.
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

// Manager manages the channel to one robot.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Concurrent Connect calls are serialised; the later ones are no-ops.
type Manager struct {
	config Config
	logger Logger

	// connectMu serialises Connect.
	connectMu sync.Mutex

	mu         sync.RWMutex
	state      State
	conn       gateway.Conn
	bundle     *credential.Bundle
	address    string
	cancelDial context.CancelFunc
}

// NewManager creates a disconnected Manager.
func NewManager(cfg Config) *Manager {
	if cfg.Dialer == nil {
		cfg.Dialer = GRPCDialer
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	return &Manager{
		config: cfg,
		logger: noopLogger{},
		state:  StateDisconnected,
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// Connect establishes the channel described by bundle. overrideAddress, when
// non-empty, replaces bundle.Address for this and later connections.
//
// Connect is a no-op while Connected. On failure the Manager is left
// Disconnected and may be connected again. A channel that does not become
// ready within the connect window yields ErrConnectionTimeout.
//
// The Manager keeps the bundle pointer for the lifetime of the connection
// and never modifies it.
func (m *Manager) Connect(ctx context.Context, bundle *credential.Bundle, overrideAddress string) error {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	if m.IsConnected() {
		return nil
	}

	if err := bundle.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	address := bundle.Address
	if overrideAddress != "" {
		address = overrideAddress
	}
	if address == "" {
		return fmt.Errorf("%w: no address for %s", ErrConnectionFailed, bundle.DeviceID)
	}

	dialCtx, cancel := context.WithTimeout(ctx, m.config.ConnectTimeout)
	defer cancel()

	m.mu.Lock()
	m.state = StateConnecting
	m.cancelDial = cancel
	m.mu.Unlock()

	m.logger.Debug("connecting to robot", "device", bundle.DeviceID, "address", address)

	conn, err := m.config.Dialer.Dial(dialCtx, gateway.DialOptions{
		Address:     address,
		ServerName:  bundle.DeviceID,
		Certificate: bundle.Certificate,
		Token:       bundle.Token,
	})

	m.mu.Lock()
	m.cancelDial = nil
	if err == nil && errors.Is(dialCtx.Err(), context.Canceled) {
		// Disconnect raced a successful dial.
		conn.Close() //nolint:errcheck // Connection was never handed out
		err = dialCtx.Err()
	}
	if err != nil {
		m.state = StateDisconnected
		m.mu.Unlock()
		return m.dialError(ctx, dialCtx, bundle.DeviceID, address, err)
	}
	m.state = StateConnected
	m.conn = conn
	m.bundle = bundle
	m.address = address
	m.mu.Unlock()

	m.logger.Info("connected to robot", "device", bundle.DeviceID, "address", address)

	if address != bundle.Address {
		m.persistAddress(ctx, bundle, address)
	}
	return nil
}

// dialError classifies a failed dial.
func (m *Manager) dialError(ctx, dialCtx context.Context, deviceID, address string, err error) error {
	switch {
	case ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded):
		// Caller cancelled.
		return ctx.Err()
	case errors.Is(dialCtx.Err(), context.DeadlineExceeded):
		m.logger.Warn("robot connection timed out",
			"device", deviceID, "address", address, "timeout", m.config.ConnectTimeout)
		return fmt.Errorf("%w: %s at %s after %v", ErrConnectionTimeout, deviceID, address, m.config.ConnectTimeout)
	case errors.Is(dialCtx.Err(), context.Canceled):
		return fmt.Errorf("%w: disconnected while connecting", ErrConnectionFailed)
	default:
		m.logger.Error("robot connection failed", "device", deviceID, "address", address, "error", err)
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
}

// persistAddress saves a copy of bundle pointing at address. Failure is logged only.
func (m *Manager) persistAddress(ctx context.Context, bundle *credential.Bundle, address string) {
	if m.config.Store == nil {
		return
	}
	if err := m.config.Store.Save(ctx, bundle.WithAddress(address)); err != nil {
		m.logger.Warn("failed to persist robot address",
			"device", bundle.DeviceID, "address", address, "error", err)
		return
	}
	m.logger.Debug("persisted robot address", "device", bundle.DeviceID, "address", address)
}

// Disconnect closes the channel. It is a no-op while Disconnected and aborts
// a Connect in progress. The Manager is Disconnected when Disconnect returns,
// even if the aborted Connect has not returned yet.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	if m.cancelDial != nil {
		m.cancelDial()
	}
	conn := m.conn
	m.conn = nil
	m.bundle = nil
	m.address = ""
	m.state = StateDisconnected
	m.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil {
		return fmt.Errorf("closing robot channel: %w", err)
	}
	m.logger.Info("disconnected from robot")
	return nil
}

// Client returns the live client or ErrNotConnected.
func (m *Manager) Client() (gateway.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.conn == nil {
		return nil, ErrNotConnected
	}
	return m.conn, nil
}

// State returns the current channel state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsConnected reports whether a channel is live.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// DeviceID returns the connected robot's device id, or "" when disconnected.
func (m *Manager) DeviceID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.bundle == nil {
		return ""
	}
	return m.bundle.DeviceID
}

// Address returns the address of the live channel, or "" when disconnected.
func (m *Manager) Address() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.address
}

// HealthCheck verifies the channel by requesting the robot's version.
func (m *Manager) HealthCheck(ctx context.Context) error {
	client, err := m.Client()
	if err != nil {
		return err
	}
	resp, err := client.VersionState(ctx)
	if err != nil {
		return fmt.Errorf("robot health check failed: %w", err)
	}
	return gateway.CheckStatus(gateway.MethodVersionState, resp.Status)
}
