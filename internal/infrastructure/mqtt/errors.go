package mqtt

import "errors"

// Errors returned by the relay's broker client. Check them with errors.Is.
var (
	// ErrConnectionFailed is returned by Connect when the broker cannot be reached.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrNotConnected is returned while the broker link is down. Robot events
	// published during an outage are dropped, not queued.
	ErrNotConnected = errors.New("mqtt: broker not connected")

	// ErrPublishFailed is returned when the broker refuses a message or does
	// not acknowledge it in time.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrPayloadTooLarge is returned for payloads over maxPayloadSize.
	ErrPayloadTooLarge = errors.New("mqtt: payload too large")

	// ErrEncodeFailed is returned by PublishJSON when the value has no JSON form.
	ErrEncodeFailed = errors.New("mqtt: cannot encode payload")

	// ErrInvalidQoS is returned for QoS levels other than 0, 1 or 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level")

	// ErrInvalidTopic is returned for an empty topic.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)
