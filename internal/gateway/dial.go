package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
)

// DefaultPort is the robot gateway's TLS port.
const DefaultPort = "443"

// DialOptions describe one channel to one robot.
type DialOptions struct {
	// Address is host or host:port. DefaultPort is used when no port is given.
	Address string

	// ServerName must equal the certificate's common name; the robot's device name.
	ServerName string

	// Certificate is the PEM-encoded robot certificate. The peer must present
	// it, or a certificate it signed.
	Certificate []byte

	// Token is sent as a bearer token on every call. Empty disables the interceptors,
	// which the grant flow relies on before a token exists.
	Token string
}

// Conn is a live channel to the robot.
type Conn interface {
	Client
	Close() error
}

type grpcConn struct {
	Client
	cc *grpc.ClientConn
}

func (c *grpcConn) Close() error {
	return c.cc.Close()
}

// Target returns address with DefaultPort appended when it carries no port.
func Target(address string) string {
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address
	}
	return net.JoinHostPort(address, DefaultPort)
}

// Dial opens a certificate-pinned channel and blocks until it is ready or
// ctx ends. On ctx expiry the returned error wraps ctx.Err(). A peer whose
// certificate is rejected yields ErrHandshakeFailed without waiting for ctx.
func Dial(ctx context.Context, opts DialOptions) (Conn, error) {
	pinned, err := parseCertificates(opts.Certificate)
	if err != nil {
		return nil, err
	}

	watch := &handshakeWatch{
		TransportCredentials: credentials.NewTLS(pinnedTLSConfig(pinned, opts.ServerName)),
		last:                 &lastError{},
	}

	dialOpts := []grpc.DialOption{grpc.WithTransportCredentials(watch)}
	if opts.Token != "" {
		dialOpts = append(dialOpts,
			grpc.WithUnaryInterceptor(UnaryBearerInterceptor(opts.Token)),
			grpc.WithStreamInterceptor(StreamBearerInterceptor(opts.Token)),
		)
	}

	cc, err := grpc.NewClient(Target(opts.Address), dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating channel: %w", err)
	}

	if err := waitReady(ctx, cc, watch.last); err != nil {
		cc.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, err
	}

	return &grpcConn{Client: NewClient(cc), cc: cc}, nil
}

// parseCertificates decodes every CERTIFICATE block in pemBytes.
func parseCertificates(pemBytes []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	for {
		var block *pem.Block
		block, pemBytes = pem.Decode(pemBytes)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCertificate, err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, ErrInvalidCertificate
	}
	return certs, nil
}

// pinnedTLSConfig trusts only the pinned certificates and checks the peer's
// common name against serverName. Robot certificates name the device in the
// CN with no DNS SAN, so crypto/tls hostname verification is switched off and
// replaced by verifyPinned.
func pinnedTLSConfig(pinned []*x509.Certificate, serverName string) *tls.Config {
	return &tls.Config{
		ServerName:            serverName,
		InsecureSkipVerify:    true, //nolint:gosec // Peer is checked by verifyPinned
		VerifyPeerCertificate: verifyPinned(pinned, serverName),
		MinVersion:            tls.VersionTLS12,
	}
}

func verifyPinned(pinned []*x509.Certificate, serverName string) func([][]byte, [][]*x509.Certificate) error {
	roots := x509.NewCertPool()
	for _, c := range pinned {
		roots.AddCert(c)
	}

	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return errors.New("robot presented no certificate")
		}
		leaf, err := x509.ParseCertificate(rawCerts[0])
		if err != nil {
			return fmt.Errorf("parsing robot certificate: %w", err)
		}

		if !isPinned(leaf, pinned) {
			intermediates := x509.NewCertPool()
			for _, raw := range rawCerts[1:] {
				if c, err := x509.ParseCertificate(raw); err == nil {
					intermediates.AddCert(c)
				}
			}
			if _, err := leaf.Verify(x509.VerifyOptions{
				Roots:         roots,
				Intermediates: intermediates,
				KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
			}); err != nil {
				return fmt.Errorf("robot certificate is not the pinned certificate: %w", err)
			}
		}

		if serverName != "" && leaf.Subject.CommonName != serverName {
			return fmt.Errorf("robot certificate is for %q, want %q", leaf.Subject.CommonName, serverName)
		}
		return nil
	}
}

func isPinned(leaf *x509.Certificate, pinned []*x509.Certificate) bool {
	for _, c := range pinned {
		if bytes.Equal(leaf.Raw, c.Raw) {
			return true
		}
	}
	return false
}

// lastError holds the outcome of the most recent client handshake.
type lastError struct {
	mu  sync.Mutex
	err error
}

func (l *lastError) set(err error) {
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
}

func (l *lastError) get() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// handshakeWatch records every client handshake result in last.
type handshakeWatch struct {
	credentials.TransportCredentials
	last *lastError
}

func (w *handshakeWatch) ClientHandshake(ctx context.Context, authority string, rawConn net.Conn) (net.Conn, credentials.AuthInfo, error) {
	conn, info, err := w.TransportCredentials.ClientHandshake(ctx, authority, rawConn)
	w.last.set(err)
	return conn, info, err
}

func (w *handshakeWatch) Clone() credentials.TransportCredentials {
	return &handshakeWatch{TransportCredentials: w.TransportCredentials.Clone(), last: w.last}
}

// waitReady drives cc out of idle and waits for connectivity.Ready.
// Transient failures are retried by grpc's own backoff until ctx ends,
// except those caused by a failed handshake, which end the wait.
func waitReady(ctx context.Context, cc *grpc.ClientConn, handshake *lastError) error {
	cc.Connect()
	for {
		state := cc.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return fmt.Errorf("channel shut down while connecting")
		case connectivity.TransientFailure:
			if err := handshake.get(); err != nil {
				return fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
			}
		}
		if !cc.WaitForStateChange(ctx, state) {
			return fmt.Errorf("waiting for channel (last state %s): %w", state, ctx.Err())
		}
	}
}
