package mqtt

import (
	"fmt"
)

// maxPayloadSize caps one message at 1 MiB. Join values are far smaller;
// the cap only guards against a runaway serial payload.
const maxPayloadSize = 1 << 20

// Publish sends payload to topic and waits for the broker to acknowledge.
//
// Bridge transports publish join values retained, so a subscriber that
// arrives later sees the current value of every join, and publish set
// requests as plain messages.
//
// Parameters:
//   - topic: Full topic, e.g. Topics{}.Join("eisc-1", "digital", 12)
//   - payload: Encoded value, at most 1 MiB
//   - qos: 0, 1 or 2
//   - retained: Whether the broker keeps the payload for new subscribers
//
// Returns:
//   - error: ErrNotConnected, ErrInvalidTopic, ErrInvalidQoS, or
//     ErrPublishFailed (wrapping ErrTimeout when unacknowledged)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := checkRequest(topic, qos); err != nil {
		return err
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload of %d bytes exceeds %d", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: %w after %v", ErrPublishFailed, ErrTimeout, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

func checkRequest(topic string, qos byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	return nil
}
