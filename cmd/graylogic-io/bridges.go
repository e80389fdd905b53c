package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-io/internal/bridge"
	"github.com/nerrad567/gray-logic-io/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-io/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-io/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-io/internal/modules"
)

// usesMQTT reports whether any configured bridge runs over MQTT.
func usesMQTT(bridges []config.BridgeConfig) bool {
	for _, b := range bridges {
		if b.Transport == config.TransportMQTT {
			return true
		}
	}
	return false
}

// startBridges creates a transport per configured bridge and links the
// listed devices to it. Link failures are logged; the bridge still starts.
//
// Parameters:
//   - ctx: Context for transport startup
//   - cfg: Application configuration
//   - linker: Linker the transports are registered with
//   - mqttClient: Shared MQTT client (nil when no bridge uses MQTT)
//   - mods: Built modules to link
//   - log: Logger instance
//
// Returns:
//   - func(): Stops every started transport
//   - error: If a transport cannot be created or started
func startBridges(ctx context.Context, cfg *config.Config, linker *bridge.Linker, mqttClient *mqtt.Client, mods []modules.Module, log *logging.Logger) (func(), error) {
	byKey := make(map[string]modules.Module, len(mods))
	for _, m := range mods {
		byKey[strings.ToLower(m.Key())] = m
	}

	var stops []func()
	stopAll := func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}

	for _, bc := range cfg.Bridges {
		t, stop, err := newTransport(ctx, bc, cfg.MQTT, mqttClient, log)
		if err != nil {
			stopAll()
			return nil, err
		}
		if stop != nil {
			stops = append(stops, stop)
		}
		linker.Register(t)

		linked := 0
		for _, lc := range bc.Links {
			m, ok := byKey[strings.ToLower(lc.Device)]
			if !ok {
				log.Warn("bridge link names unknown device", "bridge", bc.Key, "device", lc.Device)
				continue
			}
			res, linkErr := linker.Link(ctx, t, m, bridge.LinkOptions{
				JoinStart:  lc.JoinStart,
				JoinMapKey: lc.JoinMapKey,
			})
			if linkErr != nil {
				log.Warn("device not linked", "bridge", bc.Key, "device", lc.Device, "error", linkErr)
				continue
			}
			linked++
			if len(res.Skipped) > 0 {
				log.Warn("device linked with skipped joins", "bridge", bc.Key, "device", lc.Device, "skipped", len(res.Skipped))
			}
		}
		log.Info("bridge started", "bridge", bc.Key, "transport", bc.Transport, "linked", linked, "configured", len(bc.Links))
	}

	return stopAll, nil
}

// newTransport builds the transport for one bridge config entry.
func newTransport(ctx context.Context, bc config.BridgeConfig, mqttCfg config.MQTTConfig, mqttClient *mqtt.Client, log *logging.Logger) (bridge.Transport, func(), error) {
	switch bc.Transport {
	case config.TransportLoopback:
		lb := bridge.NewLoopback(bc.Key)
		lb.SetOnline(true)
		return lb, func() { lb.SetOnline(false) }, nil

	case config.TransportMQTT:
		if mqttClient == nil {
			return nil, nil, fmt.Errorf("bridge %s: MQTT client not connected", bc.Key)
		}
		codec, err := bridge.CodecByName(bc.Codec)
		if err != nil {
			return nil, nil, fmt.Errorf("bridge %s: %w", bc.Key, err)
		}
		mt, err := bridge.NewMQTTTransport(bridge.MQTTOptions{
			Key:    bc.Key,
			Client: mqttClient,
			Codec:  codec,
			QoS:    byte(mqttCfg.QoS), //nolint:gosec // validated 0-2
			Logger: log.Component("bridge"),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("bridge %s: %w", bc.Key, err)
		}
		if err := mt.Start(ctx); err != nil {
			return nil, nil, fmt.Errorf("starting bridge %s: %w", bc.Key, err)
		}
		return mt, mt.Stop, nil

	default:
		return nil, nil, fmt.Errorf("bridge %s: unknown transport %q", bc.Key, bc.Transport)
	}
}
