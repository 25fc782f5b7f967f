package grant

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nerrad567/vectorlink/internal/credential"
	"github.com/nerrad567/vectorlink/internal/gateway"
	"github.com/nerrad567/vectorlink/internal/session"
)

// appKeyHeader carries the application key on accounts requests.
const appKeyHeader = "Anki-App-Key"

// maxResponseBytes caps any cloud response body.
const maxResponseBytes = 1 << 20

// Config holds grant flow endpoints and collaborators.
type Config struct {
	// AccountsURL is the session login endpoint.
	AccountsURL string

	// CertsURL is the certificate endpoint; the serial is appended as a path segment.
	CertsURL string

	// AppKey is sent in the Anki-App-Key header.
	AppKey string

	// ClientName identifies this client to the robot.
	ClientName string

	// HTTPClient is used for both cloud legs. Nil uses a client with RequestTimeout.
	HTTPClient *http.Client

	// RequestTimeout bounds each HTTP request. Zero means 30s.
	RequestTimeout time.Duration

	// Dialer opens the certificate-pinned channel. Nil uses session.GRPCDialer.
	Dialer session.Dialer

	// ConnectTimeout bounds the robot leg. Zero uses session.DefaultConnectTimeout.
	ConnectTimeout time.Duration
}

// Request names the robot and carries the account credentials.
type Request struct {
	DeviceName string
	Address    string
	Serial     string
	Username   string
	Password   string
}

func (r Request) validate() error {
	var missing []string
	if r.DeviceName == "" {
		missing = append(missing, "device name")
	}
	if r.Address == "" {
		missing = append(missing, "address")
	}
	if r.Serial == "" {
		missing = append(missing, "serial")
	}
	if r.Username == "" {
		missing = append(missing, "username")
	}
	if r.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	return nil
}

// Logger defines the logging interface for the grant flow.
type Logger interface {
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}

// Flow runs the authorization grant.
type Flow struct {
	config Config
	logger Logger
}

// NewFlow creates a grant flow with defaults applied to zero fields.
func NewFlow(cfg Config) *Flow {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	if cfg.Dialer == nil {
		cfg.Dialer = session.GRPCDialer
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = session.DefaultConnectTimeout
	}
	return &Flow{config: cfg, logger: noopLogger{}}
}

// SetLogger sets the logger for the flow.
func (f *Flow) SetLogger(logger Logger) {
	f.logger = logger
}

// Run performs all three legs and returns the resulting bundle.
func (f *Flow) Run(ctx context.Context, req Request) (*credential.Bundle, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	sessionToken, err := f.login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	f.logger.Info("account login succeeded", "device", req.DeviceName)

	cert, err := f.fetchCertificate(ctx, req.Serial, req.DeviceName)
	if err != nil {
		return nil, err
	}
	f.logger.Info("robot certificate downloaded", "device", req.DeviceName, "serial", req.Serial)

	token, err := f.authenticate(ctx, req, cert, sessionToken)
	if err != nil {
		return nil, err
	}
	f.logger.Info("robot granted access", "device", req.DeviceName)

	return &credential.Bundle{
		DeviceID:    req.DeviceName,
		Address:     req.Address,
		Serial:      req.Serial,
		Certificate: cert,
		Token:       token,
	}, nil
}

type loginResponse struct {
	Session struct {
		SessionToken string `json:"session_token"`
	} `json:"session"`
}

func (f *Flow) login(ctx context.Context, username, password string) (string, error) {
	values := url.Values{}
	values.Set("username", username)
	values.Set("password", password)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.config.AccountsURL, strings.NewReader(values.Encode()))
	if err != nil {
		return "", fmt.Errorf("create login request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set(appKeyHeader, f.config.AppKey)

	resp, err := f.config.HTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: accounts service returned %s", ErrLoginFailed, resp.Status)
	}

	var payload loginResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode login response: %w", ErrLoginFailed, err)
	}
	if payload.Session.SessionToken == "" {
		return "", fmt.Errorf("%w: response carried no session token", ErrLoginFailed)
	}
	return payload.Session.SessionToken, nil
}

func (f *Flow) fetchCertificate(ctx context.Context, serial, deviceName string) ([]byte, error) {
	endpoint, err := url.JoinPath(f.config.CertsURL, serial)
	if err != nil {
		return nil, fmt.Errorf("%w: build url: %w", ErrCertificateFetch, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create certificate request: %w", err)
	}

	resp, err := f.config.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCertificateFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: certs service returned %s", ErrCertificateFetch, resp.Status)
	}

	pemBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrCertificateFetch, err)
	}
	if err := checkCommonName(pemBytes, deviceName); err != nil {
		return nil, err
	}
	return pemBytes, nil
}

// checkCommonName verifies the first certificate in pemBytes is issued to deviceName.
func checkCommonName(pemBytes []byte, deviceName string) error {
	block, _ := pem.Decode(pemBytes)
	if block == nil || block.Type != "CERTIFICATE" {
		return fmt.Errorf("%w: body is not a PEM certificate", ErrCertificateFetch)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCertificateFetch, err)
	}
	if cert.Subject.CommonName != deviceName {
		return fmt.Errorf("%w: certificate is for %q, not %q", ErrCertificateMismatch, cert.Subject.CommonName, deviceName)
	}
	return nil
}

func (f *Flow) authenticate(ctx context.Context, req Request, cert []byte, sessionToken string) (string, error) {
	dialCtx, cancel := context.WithTimeout(ctx, f.config.ConnectTimeout)
	defer cancel()

	conn, err := f.config.Dialer.Dial(dialCtx, gateway.DialOptions{
		Address:     req.Address,
		ServerName:  req.DeviceName,
		Certificate: cert,
	})
	if err != nil {
		if errors.Is(dialCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s after %v", session.ErrConnectionTimeout, req.Address, f.config.ConnectTimeout)
		}
		return "", fmt.Errorf("%w: %w", session.ErrConnectionFailed, err)
	}
	defer conn.Close() //nolint:errcheck // Channel is only used for this call

	resp, err := conn.UserAuthentication(ctx, &gateway.UserAuthenticationRequest{
		UserSessionID: []byte(sessionToken),
		ClientName:    []byte(f.config.ClientName),
	})
	if err != nil {
		return "", err
	}
	if resp.Status != nil {
		if err := gateway.CheckStatus(gateway.MethodUserAuthentication, resp.Status); err != nil {
			return "", err
		}
	}
	if resp.Code != gateway.UserAuthAuthorized {
		return "", ErrUnauthorized
	}
	if len(resp.ClientTokenGUID) == 0 {
		return "", fmt.Errorf("%w: robot returned an empty client token", ErrUnauthorized)
	}
	return string(resp.ClientTokenGUID), nil
}
