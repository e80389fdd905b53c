package mqtt

import "errors"

// Sentinel errors returned by Client. Match them with errors.Is; the
// returned error usually wraps one of these with broker detail.
var (
	// ErrNotConnected means the broker is unreachable right now. Bridge
	// transports treat it as an expected outage, not a failure.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed means Connect did not reach the broker in time.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed wraps a rejected or unacknowledged publish.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed wraps a rejected or unacknowledged subscribe.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrInvalidQoS is returned for a QoS above 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned for an empty topic.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")

	// ErrTimeout is wrapped alongside ErrPublishFailed or ErrSubscribeFailed
	// when the broker does not acknowledge in time.
	ErrTimeout = errors.New("mqtt: operation timed out")
)
