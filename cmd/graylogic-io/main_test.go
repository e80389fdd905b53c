package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nerrad567/gray-logic-io/internal/hardware"
	"github.com/nerrad567/gray-logic-io/internal/infrastructure/config"
)

const testSecret = "test-secret-key-at-least-32-characters-long"

const testDevicesFile = `
devices:
  - key: loads-1
    name: Stage Loads
    type: din8sw8
    control:
      cresnet_id: 0x30
  - key: rths-1
    type: c2nrths
    control:
      cresnet_id: 0x40
  - key: mystery
    type: flux-capacitor
`

// writeTestConfig writes a config and devices file into a temp dir and
// returns the config path.
func writeTestConfig(t *testing.T, extra string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	devicesPath := filepath.Join(tmpDir, "devices.yaml")
	dbPath := filepath.Join(tmpDir, "test.db")

	if err := os.WriteFile(devicesPath, []byte(testDevicesFile), 0600); err != nil {
		t.Fatalf("failed to write devices file: %v", err)
	}

	configContent := `
site:
  id: test-site

controller:
  model: cp4
  auto_online: true

devices_file: "` + devicesPath + `"

database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

influxdb:
  enabled: false

logging:
  level: error
  format: text
  output: stdout

api:
  enabled: false

security:
  jwt:
    secret: "` + testSecret + `"
    issuer: graylogic-io
` + extra
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, []string{"-config", "/nonexistent/path/config.yaml"}, &bytes.Buffer{}); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_BadFlag verifies unknown flags are rejected.
func TestRun_BadFlag(t *testing.T) {
	if err := run(context.Background(), []string{"-nope"}, &bytes.Buffer{}); err == nil {
		t.Fatal("run() should fail with an unknown flag")
	}
}

// TestRun_MissingDevicesFile verifies run fails when the devices file is absent.
func TestRun_MissingDevicesFile(t *testing.T) {
	configPath := writeTestConfig(t, "")
	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(cfg.DevicesFile); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = run(ctx, []string{"-config", configPath}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "loading devices") {
		t.Fatalf("run() error = %v, want loading devices failure", err)
	}
}

// TestRun_Token verifies -token prints a signed token and exits.
func TestRun_Token(t *testing.T) {
	configPath := writeTestConfig(t, "")
	var out bytes.Buffer

	if err := run(context.Background(), []string{"-config", configPath, "-token", "installer", "-token-ttl", "1h"}, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	raw := strings.TrimSpace(out.String())
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	if err != nil {
		t.Fatalf("printed token does not verify: %v", err)
	}
	if claims.Subject != "installer" || claims.Issuer != "graylogic-io" {
		t.Errorf("claims = %+v", claims)
	}
}

// TestRun_StartupAndShutdown runs the full service with a loopback bridge
// and stops it by cancelling the context.
func TestRun_StartupAndShutdown(t *testing.T) {
	configPath := writeTestConfig(t, `
bridges:
  - key: panel
    transport: loopback
    links:
      - device: loads-1
        join_start: 1
      - device: rths-1
        join_start: 21
      - device: missing
        join_start: 41

join_maps:
  loads-1: '{"Load1":{"joinNumber":10,"joinSpan":1,"joinType":"digital","direction":"both"}}'
`)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx, []string{"-config", configPath}, &bytes.Buffer{}) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not return after cancellation")
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("GRAYLOGIC_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("GRAYLOGIC_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}

	opts, err := parseFlags(nil)
	if err != nil {
		t.Fatal(err)
	}
	if opts.configPath != expected {
		t.Errorf("configPath = %q, want %q", opts.configPath, expected)
	}
}

func TestControllerFeatures(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ControllerConfig
		want []hardware.Feature
	}{
		{"none", config.ControllerConfig{}, nil},
		{"rf", config.ControllerConfig{InternalRFGateway: true}, []hardware.Feature{hardware.FeatureInternalRFGateway}},
		{"both", config.ControllerConfig{InternalRFGateway: true, ThreeSeriesCards: true},
			[]hardware.Feature{hardware.FeatureInternalRFGateway, hardware.FeatureThreeSeriesCards}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := controllerFeatures(tt.cfg)
			if len(got) != len(tt.want) {
				t.Fatalf("controllerFeatures() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("feature[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestUsesMQTT(t *testing.T) {
	if usesMQTT([]config.BridgeConfig{{Key: "a", Transport: config.TransportLoopback}}) {
		t.Error("loopback-only config should not need MQTT")
	}
	if !usesMQTT([]config.BridgeConfig{{Key: "a", Transport: config.TransportLoopback}, {Key: "b", Transport: config.TransportMQTT}}) {
		t.Error("mqtt bridge should need MQTT")
	}
}
