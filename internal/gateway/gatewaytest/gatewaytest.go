// Package gatewaytest provides a scripted in-memory robot for tests of
// packages built on gateway.Client.
//
// Streams obey the same termination contract as the gRPC implementation:
// Recv returns io.EOF when the script ends and a codes.Canceled or
// codes.DeadlineExceeded status error once the call context is done.
package gatewaytest

import (
	"context"
	"errors"
	"io"
	"sync"

	"google.golang.org/grpc/status"

	"github.com/nerrad567/vectorlink/internal/gateway"
)

// ErrSendAfterClose is returned by ControlStream.Send after CloseSend.
var ErrSendAfterClose = errors.New("gatewaytest: send after CloseSend")

// Client is a fake gateway.Conn. Set the response fields before use.
// Unset responses yield an empty message with an OK status.
type Client struct {
	mu sync.Mutex

	Battery    *gateway.BatteryStateResponse
	BatteryErr error

	Version    *gateway.VersionStateResponse
	VersionErr error

	Network    *gateway.NetworkStateResponse
	NetworkErr error

	Auth    *gateway.UserAuthenticationResponse
	AuthErr error

	// Events is returned by EventStream. Nil makes EventStream fail.
	Events *Script[gateway.EventResponse]

	// Control is returned by BehaviorControl. Nil makes BehaviorControl fail.
	Control *ControlStream

	calls         map[string]int
	authRequests  []*gateway.UserAuthenticationRequest
	eventRequests []*gateway.EventRequest
	closed        int
}

var _ gateway.Conn = (*Client)(nil)

// NewClient returns a Client with fresh event and control scripts.
func NewClient() *Client {
	return &Client{
		Events:  NewScript[gateway.EventResponse](),
		Control: NewControlStream(),
	}
}

func (c *Client) record(method string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[method]++
}

// Calls returns how many times method was invoked.
func (c *Client) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// Closed returns how many times Close was called.
func (c *Client) Closed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// AuthRequests returns the UserAuthentication requests received.
func (c *Client) AuthRequests() []*gateway.UserAuthenticationRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*gateway.UserAuthenticationRequest(nil), c.authRequests...)
}

// EventRequests returns the EventStream requests received.
func (c *Client) EventRequests() []*gateway.EventRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*gateway.EventRequest(nil), c.eventRequests...)
}

func ok() *gateway.ResponseStatus {
	return &gateway.ResponseStatus{Code: gateway.ResponseOK}
}

func (c *Client) BatteryState(ctx context.Context) (*gateway.BatteryStateResponse, error) {
	c.record(gateway.MethodBatteryState)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.BatteryErr != nil {
		return nil, c.BatteryErr
	}
	if c.Battery == nil {
		return &gateway.BatteryStateResponse{Status: ok()}, nil
	}
	return c.Battery, nil
}

func (c *Client) VersionState(ctx context.Context) (*gateway.VersionStateResponse, error) {
	c.record(gateway.MethodVersionState)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.VersionErr != nil {
		return nil, c.VersionErr
	}
	if c.Version == nil {
		return &gateway.VersionStateResponse{Status: ok()}, nil
	}
	return c.Version, nil
}

func (c *Client) NetworkState(ctx context.Context) (*gateway.NetworkStateResponse, error) {
	c.record(gateway.MethodNetworkState)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.NetworkErr != nil {
		return nil, c.NetworkErr
	}
	if c.Network == nil {
		return &gateway.NetworkStateResponse{Status: ok()}, nil
	}
	return c.Network, nil
}

func (c *Client) UserAuthentication(ctx context.Context, req *gateway.UserAuthenticationRequest) (*gateway.UserAuthenticationResponse, error) {
	c.record(gateway.MethodUserAuthentication)
	c.mu.Lock()
	c.authRequests = append(c.authRequests, req)
	c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.AuthErr != nil {
		return nil, c.AuthErr
	}
	if c.Auth == nil {
		return &gateway.UserAuthenticationResponse{Status: ok()}, nil
	}
	return c.Auth, nil
}

func (c *Client) EventStream(ctx context.Context, req *gateway.EventRequest) (gateway.EventStream, error) {
	c.record(gateway.MethodEventStream)
	c.mu.Lock()
	c.eventRequests = append(c.eventRequests, req)
	c.mu.Unlock()
	if c.Events == nil {
		return nil, errors.New("gatewaytest: no event script")
	}
	return &eventStream{ctx: ctx, script: c.Events}, nil
}

func (c *Client) BehaviorControl(ctx context.Context) (gateway.BehaviorControlStream, error) {
	c.record(gateway.MethodBehaviorControl)
	if c.Control == nil {
		return nil, errors.New("gatewaytest: no control script")
	}
	c.Control.bind(ctx)
	return c.Control, nil
}

// Close implements gateway.Conn.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed++
	c.mu.Unlock()
	return nil
}

// Script is an ordered sequence of inbound stream messages.
type Script[T any] struct {
	ch chan item[T]
}

type item[T any] struct {
	msg *T
	err error
}

// NewScript returns an empty script with room for 64 pending items.
func NewScript[T any]() *Script[T] {
	return &Script[T]{ch: make(chan item[T], 64)}
}

// Push queues a message.
func (s *Script[T]) Push(msg *T) {
	s.ch <- item[T]{msg: msg}
}

// Fail queues a transport error.
func (s *Script[T]) Fail(err error) {
	s.ch <- item[T]{err: err}
}

// End queues a clean server close.
func (s *Script[T]) End() {
	s.ch <- item[T]{err: io.EOF}
}

func (s *Script[T]) recv(ctx context.Context) (*T, error) {
	// A done context wins over queued items, as with a real stream.
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	select {
	case it := <-s.ch:
		return it.msg, it.err
	case <-ctx.Done():
		return nil, status.FromContextError(ctx.Err()).Err()
	}
}

type eventStream struct {
	ctx    context.Context
	script *Script[gateway.EventResponse]
}

func (s *eventStream) Recv() (*gateway.EventResponse, error) {
	return s.script.recv(s.ctx)
}

// ControlStream is a scripted bidirectional control stream.
type ControlStream struct {
	*Script[gateway.BehaviorControlResponse]

	// OnSend, if set, runs synchronously inside every successful Send.
	OnSend func(*gateway.BehaviorControlRequest)

	mu         sync.Mutex
	ctx        context.Context
	sent       []*gateway.BehaviorControlRequest
	sentNotify chan struct{}
	closedSend bool
	lateSends  int
}

var _ gateway.BehaviorControlStream = (*ControlStream)(nil)

// NewControlStream returns an empty control stream.
func NewControlStream() *ControlStream {
	return &ControlStream{
		Script:     NewScript[gateway.BehaviorControlResponse](),
		ctx:        context.Background(),
		sentNotify: make(chan struct{}, 1),
	}
}

func (s *ControlStream) bind(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
}

// Send records req.
func (s *ControlStream) Send(req *gateway.BehaviorControlRequest) error {
	s.mu.Lock()
	if s.closedSend {
		s.lateSends++
		s.mu.Unlock()
		return ErrSendAfterClose
	}
	s.sent = append(s.sent, req)
	hook := s.OnSend
	s.mu.Unlock()

	if hook != nil {
		hook(req)
	}
	select {
	case s.sentNotify <- struct{}{}:
	default:
	}
	return nil
}

// Recv returns the next scripted response.
func (s *ControlStream) Recv() (*gateway.BehaviorControlResponse, error) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	return s.recv(ctx)
}

// CloseSend marks the outbound side closed.
func (s *ControlStream) CloseSend() error {
	s.mu.Lock()
	s.closedSend = true
	s.mu.Unlock()
	return nil
}

// Sent returns every request sent so far.
func (s *ControlStream) Sent() []*gateway.BehaviorControlRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*gateway.BehaviorControlRequest(nil), s.sent...)
}

// SendClosed reports whether CloseSend was called.
func (s *ControlStream) SendClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closedSend
}

// LateSends counts Send calls rejected after CloseSend.
func (s *ControlStream) LateSends() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lateSends
}

// WaitSent blocks until n requests have been sent in total or ctx ends.
func (s *ControlStream) WaitSent(ctx context.Context, n int) error {
	for {
		s.mu.Lock()
		count := len(s.sent)
		s.mu.Unlock()
		if count >= n {
			return nil
		}
		select {
		case <-s.sentNotify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
