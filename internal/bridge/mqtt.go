package bridge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-io/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-io/internal/joinmap"
)

// MQTTClient is the interface for MQTT operations.
// *mqtt.Client satisfies it; tests use a mock.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
	AddConnectionListener(fn func(connected bool))
}

// MQTTOptions holds configuration for an MQTT transport.
type MQTTOptions struct {
	// Key is the bridge key; it forms part of every topic.
	Key string

	// Client is the shared MQTT client.
	Client MQTTClient

	// Codec encodes payloads. Nil selects JSON.
	Codec Codec

	// QoS for publishes and the /set subscription.
	QoS byte

	// Logger is optional structured logger.
	Logger Logger
}

// presence is published retained on the bridge status topic.
type presence struct {
	Status    string `json:"status" cbor:"status"`
	Bridge    string `json:"bridge" cbor:"bridge"`
	Codec     string `json:"codec" cbor:"codec"`
	Timestamp string `json:"timestamp" cbor:"timestamp"`
}

// MQTTTransport is a Transport over MQTT. Device values are published
// retained on graylogic/joins/{key}/{type}/{join}; writes arrive on the
// same topic with a /set suffix. The transport is online while the broker
// connection is up.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type MQTTTransport struct {
	key    string
	client MQTTClient
	codec  Codec
	qos    byte
	logger Logger
	table  *joinTable

	startOnce sync.Once
	startErr  error
}

// NewMQTTTransport creates a transport. Call Start to subscribe and begin
// tracking the connection.
func NewMQTTTransport(opts MQTTOptions) (*MQTTTransport, error) {
	if opts.Key == "" {
		return nil, fmt.Errorf("bridge key is required")
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Codec == nil {
		opts.Codec = JSONCodec{}
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	return &MQTTTransport{
		key:    opts.Key,
		client: opts.Client,
		codec:  opts.Codec,
		qos:    opts.QoS,
		logger: opts.Logger,
		table:  newJoinTable(),
	}, nil
}

// Start subscribes to inbound writes and follows the broker connection.
// Calling Start again has no effect.
func (m *MQTTTransport) Start(ctx context.Context) error {
	m.startOnce.Do(func() {
		if err := ctx.Err(); err != nil {
			m.startErr = err
			return
		}
		topic := mqtt.Topics{}.AllJoinSets(m.key)
		if err := m.client.Subscribe(topic, m.qos, m.handleSet); err != nil {
			m.startErr = fmt.Errorf("subscribe to %s: %w", topic, err)
			return
		}
		m.client.AddConnectionListener(m.connectionChanged)
		m.connectionChanged(m.client.IsConnected())
		m.logger.Info("mqtt bridge started", "bridge", m.key, "topic", topic, "codec", m.codec.Name())
	})
	return m.startErr
}

// Stop publishes offline presence. The shared client stays connected.
func (m *MQTTTransport) Stop() {
	if m.client.IsConnected() {
		m.publishPresence("offline")
	}
	m.table.setOnline(false)
}

// Key returns the bridge key.
func (m *MQTTTransport) Key() string { return m.key }

// Codec returns the payload codec.
func (m *MQTTTransport) Codec() Codec { return m.codec }

// SetDigital implements Transport.
func (m *MQTTTransport) SetDigital(join uint32, v bool) {
	m.set(Join{Type: joinmap.Digital, Number: join}, v)
}

// SetAnalog implements Transport.
func (m *MQTTTransport) SetAnalog(join uint32, v uint16) {
	m.set(Join{Type: joinmap.Analog, Number: join}, v)
}

// SetSerial implements Transport.
func (m *MQTTTransport) SetSerial(join uint32, v string) {
	m.set(Join{Type: joinmap.Serial, Number: join}, v)
}

// OnDigital implements Transport.
func (m *MQTTTransport) OnDigital(join uint32, fn func(bool)) {
	m.table.handle(Join{Type: joinmap.Digital, Number: join}, digitalHandler(fn))
}

// OnAnalog implements Transport.
func (m *MQTTTransport) OnAnalog(join uint32, fn func(uint16)) {
	m.table.handle(Join{Type: joinmap.Analog, Number: join}, analogHandler(fn))
}

// OnSerial implements Transport.
func (m *MQTTTransport) OnSerial(join uint32, fn func(string)) {
	m.table.handle(Join{Type: joinmap.Serial, Number: join}, serialHandler(fn))
}

// IsOnline implements Transport.
func (m *MQTTTransport) IsOnline() bool { return m.table.isOnline() }

// OnOnlineChange implements Transport.
func (m *MQTTTransport) OnOnlineChange(fn func(bool)) { m.table.onOnlineChange(fn) }

// Joins returns every join written so far with its last value.
func (m *MQTTTransport) Joins() []JoinValue { return m.table.snapshot() }

// Inject parses raw for the join's type and dispatches it as if it had
// arrived from the broker. It returns how many handlers ran.
func (m *MQTTTransport) Inject(j Join, raw string) (int, error) {
	v, err := ParseValue(j.Type, raw)
	if err != nil {
		return 0, fmt.Errorf("inject %s on %s: %w", j, m.key, err)
	}
	return m.table.dispatch(j, v), nil
}

// set records v and publishes it when online. Offline values are kept;
// the linker republishes them when the bridge comes back.
func (m *MQTTTransport) set(j Join, v any) {
	m.table.setOutput(j, v)
	if !m.table.isOnline() {
		return
	}

	payload, err := m.codec.Marshal(v)
	if err != nil {
		m.logger.Error("encoding join value", "bridge", m.key, "join", j.String(), "error", err)
		return
	}
	topic := mqtt.Topics{}.Join(m.key, string(j.Type), j.Number)
	if err := m.client.Publish(topic, payload, m.qos, true); err != nil {
		m.logger.Warn("publishing join value", "bridge", m.key, "topic", topic, "error", err)
	}
}

// handleSet decodes an inbound write and dispatches it.
func (m *MQTTTransport) handleSet(topic string, payload []byte) error {
	bridge, signal, join, ok := mqtt.Topics{}.ParseJoinSet(topic)
	if !ok || bridge != m.key {
		return nil
	}

	j := Join{Type: joinmap.SignalType(signal), Number: join}
	v, err := m.decode(j.Type, payload)
	if err != nil {
		return fmt.Errorf("join %s on %s: %w", j, m.key, err)
	}

	if n := m.table.dispatch(j, v); n == 0 {
		m.logger.Debug("inbound join has no handler", "bridge", m.key, "join", j.String())
	}
	return nil
}

func (m *MQTTTransport) decode(t joinmap.SignalType, payload []byte) (any, error) {
	switch t {
	case joinmap.Digital:
		var b bool
		if err := m.codec.Unmarshal(payload, &b); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		return b, nil
	case joinmap.Analog:
		var n int64
		if err := m.codec.Unmarshal(payload, &n); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		if n < 0 || n > math.MaxUint16 {
			return nil, fmt.Errorf("%w: analog %d out of range", ErrInvalidPayload, n)
		}
		return uint16(n), nil
	case joinmap.Serial:
		var s string
		if err := m.codec.Unmarshal(payload, &s); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSignal, t)
	}
}

func (m *MQTTTransport) connectionChanged(connected bool) {
	if connected {
		m.publishPresence("online")
	}
	if m.table.setOnline(connected) {
		m.logger.Info("mqtt bridge online state changed", "bridge", m.key, "online", connected)
	}
}

func (m *MQTTTransport) publishPresence(status string) {
	payload, err := m.codec.Marshal(presence{
		Status:    status,
		Bridge:    m.key,
		Codec:     m.codec.Name(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		m.logger.Error("encoding presence", "bridge", m.key, "error", err)
		return
	}
	if err := m.client.Publish(mqtt.Topics{}.BridgeStatus(m.key), payload, m.qos, true); err != nil && !errors.Is(err, mqtt.ErrNotConnected) {
		m.logger.Warn("publishing presence", "bridge", m.key, "error", err)
	}
}
