package mqtt

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-io/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "graylogic-io-test",
			TLS:      false,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// offlineClient builds a Client around an unconnected paho client so the
// callback plumbing can be tested without a broker.
func offlineClient(t *testing.T) *Client {
	t.Helper()
	cfg := testConfig()
	opts := buildClientOptions(cfg)
	return &Client{
		cfg:           cfg,
		options:       opts,
		client:        pahomqtt.NewClient(opts),
		subscriptions: make(map[string]subscription),
	}
}

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
	warns  []string
}

func (l *mockLogger) Info(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *mockLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *mockLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

// =============================================================================
// Topic Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"Join", Topics{}.Join("eisc-1", "digital", 12), "graylogic/joins/eisc-1/digital/12"},
		{"JoinSet", Topics{}.JoinSet("eisc-1", "serial", 3), "graylogic/joins/eisc-1/serial/3/set"},
		{"BridgeStatus", Topics{}.BridgeStatus("eisc-1"), "graylogic/joins/eisc-1/status"},
		{"AllJoinSets", Topics{}.AllJoinSets("eisc-1"), "graylogic/joins/eisc-1/+/+/set"},
		{"SystemStatus", Topics{}.SystemStatus(), "graylogic/system/status"},
		{"AllTopics", Topics{}.AllTopics(), "graylogic/#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}

func TestParseJoinSet(t *testing.T) {
	tests := []struct {
		topic      string
		wantBridge string
		wantSignal string
		wantJoin   uint32
		wantOK     bool
	}{
		{"graylogic/joins/eisc-1/digital/12/set", "eisc-1", "digital", 12, true},
		{"graylogic/joins/eisc-1/analog/1/set", "eisc-1", "analog", 1, true},
		{"graylogic/joins/eisc-1/digital/12", "", "", 0, false},
		{"graylogic/joins/eisc-1/digital/0/set", "", "", 0, false},
		{"graylogic/joins/eisc-1/digital/x/set", "", "", 0, false},
		{"graylogic/system/status", "", "", 0, false},
		{"graylogic/joins//digital/1/set", "", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			bridge, signal, join, ok := Topics{}.ParseJoinSet(tt.topic)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if bridge != tt.wantBridge || signal != tt.wantSignal || join != tt.wantJoin {
				t.Errorf("got (%q, %q, %d), want (%q, %q, %d)",
					bridge, signal, join, tt.wantBridge, tt.wantSignal, tt.wantJoin)
			}
		})
	}
}

// =============================================================================
// Options Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "io"
	cfg.Auth.Password = "secret"
	cfg.Broker.TLS = true

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want ssl://127.0.0.1:1883", opts.Servers)
	}
	if opts.ClientID != "graylogic-io-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "io" || opts.Password != "secret" {
		t.Errorf("credentials = %q/%q", opts.Username, opts.Password)
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Error("AutoReconnect and CleanSession should be enabled")
	}
	if opts.TLSConfig == nil {
		t.Error("TLSConfig = nil with TLS enabled")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := pahomqtt.NewClientOptions()
	configureLWT(opts, "graylogic-io")

	if !opts.WillEnabled || opts.WillTopic != "graylogic/system/status" || !opts.WillRetained {
		t.Errorf("will = %v %q retained=%v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}
}

func TestStatusPayload(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStatus string
		wantReason string
	}{
		{"online", buildOnlinePayload("io-1"), "online", ""},
		{"graceful", buildOfflinePayload("io-1"), "offline", "graceful_shutdown"},
		{"will", statusPayload("offline", "io-1", "unexpected_disconnect"), "offline", "unexpected_disconnect"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]string
			if err := json.Unmarshal([]byte(tt.payload), &got); err != nil {
				t.Fatalf("payload %s is not JSON: %v", tt.payload, err)
			}
			if got["status"] != tt.wantStatus || got["client_id"] != "io-1" || got["reason"] != tt.wantReason {
				t.Errorf("payload = %v", got)
			}
			if _, ok := got["reason"]; ok != (tt.wantReason != "") {
				t.Errorf("reason present = %v, want %v", ok, tt.wantReason != "")
			}
		})
	}
}

func TestForget(t *testing.T) {
	c := offlineClient(t)
	c.subscriptions["graylogic/joins/eisc-1/+/+/set"] = subscription{topic: "graylogic/joins/eisc-1/+/+/set"}

	c.forget("graylogic/joins/eisc-1/+/+/set")
	c.forget("graylogic/unknown")

	if n := c.SubscriptionCount(); n != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", n)
	}
}

// =============================================================================
// Callback Tests
// =============================================================================

func TestConnectionListeners(t *testing.T) {
	c := offlineClient(t)

	var mu sync.Mutex
	var got []bool
	for i := 0; i < 2; i++ {
		c.AddConnectionListener(func(connected bool) {
			mu.Lock()
			got = append(got, connected)
			mu.Unlock()
		})
	}
	logger := &mockLogger{}
	c.SetLogger(logger)

	c.handleConnect()
	c.handleDisconnect(errors.New("broker went away"))

	mu.Lock()
	defer mu.Unlock()
	want := []bool{true, true, false, false}
	if len(got) != len(want) {
		t.Fatalf("listener calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("listener calls = %v, want %v", got, want)
			break
		}
	}
	if len(logger.infos) != 1 || len(logger.warns) != 1 {
		t.Errorf("logged infos = %v, warns = %v; want one of each", logger.infos, logger.warns)
	}
	if c.connected {
		t.Error("connected still set after connection loss")
	}
}

func TestCloseNotifiesListenersOnce(t *testing.T) {
	c := offlineClient(t)
	c.connected = true

	calls := 0
	c.AddConnectionListener(func(connected bool) {
		if !connected {
			calls++
		}
	})

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("offline notifications = %d, want 1", calls)
	}
}

func TestCloseNil(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}

// =============================================================================
// Validation Tests
// =============================================================================

func TestPublishValidation(t *testing.T) {
	c := offlineClient(t)

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"invalid qos", "graylogic/test", []byte("x"), 3, ErrInvalidQoS},
		{"oversize payload", "graylogic/test", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"not connected", "graylogic/test", []byte("x"), 1, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeValidation(t *testing.T) {
	c := offlineClient(t)
	noop := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		wantErr error
	}{
		{"empty topic", "", 1, noop, ErrInvalidTopic},
		{"invalid qos", "graylogic/#", 3, noop, ErrInvalidQoS},
		{"nil handler", "graylogic/#", 1, nil, ErrSubscribeFailed},
		{"not connected", "graylogic/#", 1, noop, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Subscribe(tt.topic, tt.qos, tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after failed subscribes", c.SubscriptionCount())
	}
}

func TestWrapHandler(t *testing.T) {
	c := offlineClient(t)
	logger := &mockLogger{}
	c.SetLogger(logger)

	msg := fakeMessage{topic: "graylogic/joins/eisc-1/digital/1/set", payload: []byte("true")}

	c.wrapHandler(func(string, []byte) error { return errors.New("bad payload") })(nil, msg)
	c.wrapHandler(func(string, []byte) error { panic("boom") })(nil, msg)

	if len(logger.warns) != 1 {
		t.Errorf("warns = %v, want 1 for handler error", logger.warns)
	}
	if len(logger.errors) != 1 {
		t.Errorf("errors = %v, want 1 for recovered panic", logger.errors)
	}
}
