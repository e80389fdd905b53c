// Package mqtt provides MQTT client connectivity for gray-logic-io.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support, restored on reconnect
//   - Last Will and Testament (LWT) for offline detection
//   - Fan-out of connection changes to bridge transports
//
// # Architecture
//
// An MQTT bridge exposes device feedbacks as retained join topics and
// accepts writes from control surfaces on matching /set topics:
//
//	device feedback → bridge.MQTTTransport → graylogic/joins/{bridge}/{type}/{join}
//	control surface → graylogic/joins/{bridge}/{type}/{join}/set → device action
//
// Several bridges share one Client. Each registers a connection listener
// so its online state follows the broker connection.
//
// # Security Considerations
//
//   - TLS should be enabled for anything but a local broker (cfg.Broker.TLS=true)
//   - Credentials are validated against the broker ACL
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.AddConnectionListener(func(connected bool) {
//	    logger.Info("broker connection changed", "connected", connected)
//	})
package mqtt
