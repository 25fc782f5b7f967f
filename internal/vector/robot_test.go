package vector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/vectorlink/internal/actiontag"
	"github.com/nerrad567/vectorlink/internal/control"
	"github.com/nerrad567/vectorlink/internal/credential"
	"github.com/nerrad567/vectorlink/internal/gateway"
	"github.com/nerrad567/vectorlink/internal/gateway/gatewaytest"
	"github.com/nerrad567/vectorlink/internal/grant"
	"github.com/nerrad567/vectorlink/internal/robot"
	"github.com/nerrad567/vectorlink/internal/session"
)

type mockGranter struct {
	req    grant.Request
	bundle *credential.Bundle
	err    error
}

func (g *mockGranter) Run(_ context.Context, req grant.Request) (*credential.Bundle, error) {
	g.req = req
	return g.bundle, g.err
}

func testBundle() *credential.Bundle {
	return &credential.Bundle{
		DeviceID:    "Vector-A1B2",
		Address:     "192.168.1.50",
		Certificate: []byte("cert"),
		Token:       "tok",
	}
}

// connectedRobot returns a Robot connected to a scripted fake.
func connectedRobot(t *testing.T) (*Robot, *gatewaytest.Client) {
	t.Helper()
	conn := gatewaytest.NewClient()
	r := New(Config{
		Store: credential.NewMemoryStore(),
		Dialer: session.DialerFunc(func(context.Context, gateway.DialOptions) (gateway.Conn, error) {
			return conn, nil
		}),
	})
	if err := r.ConnectWith(context.Background(), testBundle()); err != nil {
		t.Fatalf("ConnectWith() error = %v", err)
	}
	t.Cleanup(func() { r.Disconnect() }) //nolint:errcheck // Test cleanup
	return r, conn
}

func TestRobot_BatteryState(t *testing.T) {
	r, conn := connectedRobot(t)

	conn.Battery = &gateway.BatteryStateResponse{
		Status:       &gateway.ResponseStatus{Code: gateway.ResponseOK},
		BatteryLevel: gateway.BatteryLevelNominal,
		BatteryVolts: 3.85,
		IsCharging:   true,
	}

	got, err := r.BatteryState(context.Background())
	if err != nil {
		t.Fatalf("BatteryState() error = %v", err)
	}
	if got.Level != robot.BatteryLevelNominal || got.Volts != 3.85 || !got.IsCharging {
		t.Errorf("BatteryState() = %+v", got)
	}
}

func TestRobot_BatteryStateCommunicationFault(t *testing.T) {
	r, conn := connectedRobot(t)

	conn.Battery = &gateway.BatteryStateResponse{
		Status:       &gateway.ResponseStatus{Code: gateway.ResponseForbidden},
		BatteryLevel: gateway.BatteryLevelFull,
	}

	got, err := r.BatteryState(context.Background())
	var fault *gateway.CommunicationFault
	if !errors.As(err, &fault) {
		t.Fatalf("BatteryState() error = %v, want *CommunicationFault", err)
	}
	if fault.Code != gateway.ResponseForbidden {
		t.Errorf("fault.Code = %v, want FORBIDDEN", fault.Code)
	}
	if got != (robot.BatteryState{}) {
		t.Errorf("BatteryState() = %+v, want zero value on fault", got)
	}
}

func TestRobot_VersionAndNetworkState(t *testing.T) {
	r, conn := connectedRobot(t)

	conn.Version = &gateway.VersionStateResponse{
		Status:        &gateway.ResponseStatus{Code: gateway.ResponseReceived},
		OSVersion:     "v1.8.1.6051-ep",
		EngineBuildID: "v1.8.1.6051",
	}
	conn.Network = &gateway.NetworkStateResponse{
		Status: &gateway.ResponseStatus{Code: gateway.ResponseNotFound},
	}

	version, err := r.VersionState(context.Background())
	if err != nil {
		t.Fatalf("VersionState() error = %v", err)
	}
	if version.OSVersion != "v1.8.1.6051-ep" {
		t.Errorf("OSVersion = %q", version.OSVersion)
	}

	if _, err := r.NetworkState(context.Background()); !errors.Is(err, gateway.ErrCommunicationFault) {
		t.Errorf("NetworkState() error = %v, want ErrCommunicationFault", err)
	}
}

func TestRobot_QueriesWhenDisconnected(t *testing.T) {
	r := New(Config{Store: credential.NewMemoryStore()})

	if _, err := r.BatteryState(context.Background()); !errors.Is(err, session.ErrNotConnected) {
		t.Errorf("BatteryState() error = %v, want ErrNotConnected", err)
	}
	if _, err := r.VersionState(context.Background()); !errors.Is(err, session.ErrNotConnected) {
		t.Errorf("VersionState() error = %v, want ErrNotConnected", err)
	}
	if err := r.Disconnect(); err != nil {
		t.Errorf("Disconnect() error = %v", err)
	}
}

func TestRobot_ConnectMissingCredential(t *testing.T) {
	r := New(Config{Store: credential.NewMemoryStore()})

	err := r.Connect(context.Background(), "Vector-NONE", "")
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("Connect() error = %v, want ErrMissingCredential", err)
	}
	if !errors.Is(err, credential.ErrNotFound) {
		t.Error("ErrMissingCredential should match credential.ErrNotFound")
	}
}

func TestRobot_ConnectFromStoreWithOverride(t *testing.T) {
	ctx := context.Background()
	store := credential.NewMemoryStore()
	if err := store.Save(ctx, testBundle()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var dialled string
	r := New(Config{
		Store: store,
		Dialer: session.DialerFunc(func(_ context.Context, opts gateway.DialOptions) (gateway.Conn, error) {
			dialled = opts.Address
			return gatewaytest.NewClient(), nil
		}),
	})

	if err := r.Connect(ctx, "Vector-A1B2", "10.0.0.9"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if dialled != "10.0.0.9" {
		t.Errorf("dialled %q, want 10.0.0.9", dialled)
	}
	stored, err := store.Get(ctx, "Vector-A1B2")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Address != "10.0.0.9" {
		t.Errorf("stored Address = %q, want 10.0.0.9", stored.Address)
	}
}

func TestRobot_GrantAccessPersists(t *testing.T) {
	ctx := context.Background()
	store := credential.NewMemoryStore()
	granter := &mockGranter{bundle: testBundle()}
	r := New(Config{Store: store, Granter: granter})

	bundle, err := r.GrantAccess(ctx, "Vector-A1B2", "192.168.1.50", "00e20100", "user", "pass")
	if err != nil {
		t.Fatalf("GrantAccess() error = %v", err)
	}
	if bundle.Token != "tok" {
		t.Errorf("Token = %q", bundle.Token)
	}
	if granter.req.Serial != "00e20100" || granter.req.Username != "user" || granter.req.Address != "192.168.1.50" {
		t.Errorf("grant request = %+v", granter.req)
	}
	if _, err := store.Get(ctx, "Vector-A1B2"); err != nil {
		t.Errorf("store.Get() error = %v, want persisted bundle", err)
	}
}

func TestRobot_GrantAccessFailureNotPersisted(t *testing.T) {
	ctx := context.Background()
	store := credential.NewMemoryStore()
	r := New(Config{Store: store, Granter: &mockGranter{err: grant.ErrLoginFailed}})

	if _, err := r.GrantAccess(ctx, "Vector-A1B2", "192.168.1.50", "00e20100", "user", "bad"); !errors.Is(err, grant.ErrLoginFailed) {
		t.Fatalf("GrantAccess() error = %v, want ErrLoginFailed", err)
	}
	if _, err := store.Get(ctx, "Vector-A1B2"); !errors.Is(err, credential.ErrNotFound) {
		t.Errorf("store.Get() error = %v, want ErrNotFound", err)
	}
}

func TestRobot_SuppressPersonalityPriority(t *testing.T) {
	tests := []struct {
		name           string
		overrideSafety bool
		want           gateway.ControlPriority
	}{
		{"default", false, gateway.ControlPriorityDefault},
		{"override safety", true, gateway.ControlPriorityOverrideBehaviors},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, conn := connectedRobot(t)
			conn.Control.End()

			if err := r.SuppressPersonality(context.Background(), tt.overrideSafety); err != nil {
				t.Fatalf("SuppressPersonality() error = %v", err)
			}
			sent := conn.Control.Sent()
			if len(sent) != 1 || sent[0].ControlRequest.Priority != tt.want {
				t.Errorf("sent = %+v, want one request at %d", sent, tt.want)
			}
			if r.Control().State() != control.StateIdle {
				t.Errorf("State() = %q, want idle after Run", r.Control().State())
			}
		})
	}
}

func TestRobot_StartEventListening(t *testing.T) {
	r, conn := connectedRobot(t)

	got := make(chan robot.WakeWord, 1)
	r.Events().OnWakeWord(func(w robot.WakeWord) { got <- w })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.StartEventListening(ctx) }()

	conn.Events.Push(&gateway.EventResponse{Event: &gateway.Event{WakeWord: &gateway.WakeWord{
		WakeWordEnd: &gateway.WakeWordEnd{IntentHeard: "hey_vector", IntentJSON: "{}"},
	}}})

	select {
	case w := <-got:
		if w.IntentHeard != "hey_vector" {
			t.Errorf("IntentHeard = %q", w.IntentHeard)
		}
	case <-time.After(time.Second):
		t.Fatal("wake word listener not called")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("StartEventListening() error = %v, want nil", err)
	}
}

func TestRobot_NextActionTag(t *testing.T) {
	r := New(Config{})
	if got := r.NextActionTag(); got != actiontag.FirstTag {
		t.Errorf("NextActionTag() = %d, want %d", got, actiontag.FirstTag)
	}
	if got := r.NextActionTag(); got != actiontag.FirstTag+1 {
		t.Errorf("NextActionTag() = %d, want %d", got, actiontag.FirstTag+1)
	}
}

func TestRobot_Status(t *testing.T) {
	r := New(Config{Store: credential.NewMemoryStore()})
	if got := r.Status(); got.Connection != session.StateDisconnected || got.Control != control.StateIdle || got.DeviceID != "" {
		t.Errorf("Status() before connect = %+v", got)
	}

	r, _ = connectedRobot(t)
	got := r.Status()
	if got.Connection != session.StateConnected {
		t.Errorf("Connection = %v, want %v", got.Connection, session.StateConnected)
	}
	if got.DeviceID != "Vector-A1B2" || got.Address != "192.168.1.50" {
		t.Errorf("Status() = %+v, want device and address of the bundle", got)
	}
	if got.EventsListening {
		t.Error("EventsListening = true before StartEventListening")
	}
}
