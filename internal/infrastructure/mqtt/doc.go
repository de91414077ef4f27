// Package mqtt provides MQTT client connectivity for the Graphite feeder.
//
// This package manages:
//   - Connection to the Gray Logic broker with auto-reconnect
//   - Topic subscriptions with wildcard support
//   - Status publishing with Last Will and Testament (LWT)
//   - Connection health monitoring
//
// # Architecture
//
// Gray Logic uses MQTT as the internal message bus. The Core publishes an
// event on every device state change; the feeder subscribes to those events
// and translates them into Graphite metric lines. The feeder only consumes
// from the bus — it never publishes commands or state.
//
//	Gray Logic Core → MQTT Broker → Graphite feeder → Graphite backend
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to state-change events from the Core
//	err = client.Subscribe(mqtt.Topics{}.CoreStateChanged(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
package mqtt
