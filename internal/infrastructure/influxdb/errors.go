package influxdb

import "errors"

// Errors returned by the telemetry client. Check them with errors.Is.
var (
	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	// Callers treat it as "run without telemetry", not as a failure.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrIncompleteConfig is returned by Connect when telemetry is enabled
	// without a URL, org or bucket to write robot samples to.
	ErrIncompleteConfig = errors.New("influxdb: url, org and bucket are required")

	// ErrConnectionFailed is returned when the server does not answer the initial ping.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected is returned by HealthCheck after Close.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrWriteRejected wraps every asynchronous batch failure passed to the
	// SetOnError callback. The rejected samples are not retried.
	ErrWriteRejected = errors.New("influxdb: write rejected")
)
