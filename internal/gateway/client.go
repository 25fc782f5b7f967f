package gateway

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

// serviceName is the fully qualified gRPC service on the robot.
const serviceName = "/Anki.Vector.external_interface.ExternalInterface/"

// RPC method names, also used as CommunicationFault.Method.
const (
	MethodBatteryState       = "BatteryState"
	MethodVersionState       = "VersionState"
	MethodNetworkState       = "NetworkState"
	MethodUserAuthentication = "UserAuthentication"
	MethodEventStream        = "EventStream"
	MethodBehaviorControl    = "BehaviorControl"
)

// Client is the subset of the robot's external interface vectorlink uses.
//
// Unary methods return the raw response; callers check the embedded status
// with CheckStatus. Transport errors are returned wrapped with the method name.
type Client interface {
	BatteryState(ctx context.Context) (*BatteryStateResponse, error)
	VersionState(ctx context.Context) (*VersionStateResponse, error)
	NetworkState(ctx context.Context) (*NetworkStateResponse, error)
	UserAuthentication(ctx context.Context, req *UserAuthenticationRequest) (*UserAuthenticationResponse, error)

	// EventStream opens the server-streaming event subscription.
	EventStream(ctx context.Context, req *EventRequest) (EventStream, error)

	// BehaviorControl opens the bidirectional control stream.
	BehaviorControl(ctx context.Context) (BehaviorControlStream, error)
}

// EventStream yields events until the server closes (io.EOF) or the call context ends.
type EventStream interface {
	Recv() (*EventResponse, error)
}

// BehaviorControlStream is the bidirectional control channel.
type BehaviorControlStream interface {
	Send(*BehaviorControlRequest) error
	Recv() (*BehaviorControlResponse, error)
	CloseSend() error
}

// grpcClient implements Client over a gRPC channel.
type grpcClient struct {
	cc grpc.ClientConnInterface
}

var _ Client = (*grpcClient)(nil)

// NewClient returns a Client that issues protobuf-encoded calls on cc.
func NewClient(cc grpc.ClientConnInterface) Client {
	return &grpcClient{cc: cc}
}

func (c *grpcClient) invoke(ctx context.Context, method string, req, resp any) error {
	if err := c.cc.Invoke(ctx, serviceName+method, req, resp, callCodec); err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	return nil
}

func (c *grpcClient) BatteryState(ctx context.Context) (*BatteryStateResponse, error) {
	resp := &BatteryStateResponse{}
	if err := c.invoke(ctx, MethodBatteryState, &BatteryStateRequest{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *grpcClient) VersionState(ctx context.Context) (*VersionStateResponse, error) {
	resp := &VersionStateResponse{}
	if err := c.invoke(ctx, MethodVersionState, &VersionStateRequest{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *grpcClient) NetworkState(ctx context.Context) (*NetworkStateResponse, error) {
	resp := &NetworkStateResponse{}
	if err := c.invoke(ctx, MethodNetworkState, &NetworkStateRequest{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *grpcClient) UserAuthentication(ctx context.Context, req *UserAuthenticationRequest) (*UserAuthenticationResponse, error) {
	resp := &UserAuthenticationResponse{}
	if err := c.invoke(ctx, MethodUserAuthentication, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

var eventStreamDesc = &grpc.StreamDesc{
	StreamName:    MethodEventStream,
	ServerStreams: true,
}

func (c *grpcClient) EventStream(ctx context.Context, req *EventRequest) (EventStream, error) {
	cs, err := c.cc.NewStream(ctx, eventStreamDesc, serviceName+MethodEventStream, callCodec)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", MethodEventStream, err)
	}
	if err := cs.SendMsg(req); err != nil {
		return nil, fmt.Errorf("sending %s request: %w", MethodEventStream, err)
	}
	if err := cs.CloseSend(); err != nil {
		return nil, fmt.Errorf("closing %s send side: %w", MethodEventStream, err)
	}
	return &eventStream{cs: cs}, nil
}

type eventStream struct {
	cs grpc.ClientStream
}

func (s *eventStream) Recv() (*EventResponse, error) {
	m := &EventResponse{}
	if err := s.cs.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

var behaviorControlDesc = &grpc.StreamDesc{
	StreamName:    MethodBehaviorControl,
	ServerStreams: true,
	ClientStreams: true,
}

func (c *grpcClient) BehaviorControl(ctx context.Context) (BehaviorControlStream, error) {
	cs, err := c.cc.NewStream(ctx, behaviorControlDesc, serviceName+MethodBehaviorControl, callCodec)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", MethodBehaviorControl, err)
	}
	return &behaviorControlStream{cs: cs}, nil
}

type behaviorControlStream struct {
	cs grpc.ClientStream
}

func (s *behaviorControlStream) Send(m *BehaviorControlRequest) error {
	return s.cs.SendMsg(m)
}

func (s *behaviorControlStream) Recv() (*BehaviorControlResponse, error) {
	m := &BehaviorControlResponse{}
	if err := s.cs.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *behaviorControlStream) CloseSend() error {
	return s.cs.CloseSend()
}
