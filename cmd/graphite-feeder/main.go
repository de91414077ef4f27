// Gray Logic Graphite Feeder
//
// This is the main entry point for the Graphite feeder, a companion
// service that subscribes to Gray Logic state-change events on the MQTT
// bus and forwards them to a Graphite-compatible metrics backend using
// the plaintext line protocol over TCP or UDP.
//
// Forwarding is best-effort by design: the backend being down never
// disturbs home-automation event processing, and nothing is buffered or
// replayed across restarts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/gray-logic-graphite/internal/api"
	"github.com/nerrad567/gray-logic-graphite/internal/forwarder"
	"github.com/nerrad567/gray-logic-graphite/internal/graphite"
	"github.com/nerrad567/gray-logic-graphite/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-graphite/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-graphite/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-graphite/internal/metrics"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Graphite feeder",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Self-telemetry
	feederMetrics := metrics.New()

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Set up MQTT logging callbacks
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Create the delivery channel. The socket is dialled lazily on the
	// first send, so a backend that is down does not block startup.
	channel, err := graphite.NewChannel(cfg.Graphite)
	if err != nil {
		return fmt.Errorf("creating delivery channel: %w", err)
	}
	log.Info("delivery channel ready",
		"backend", cfg.Graphite.Addr(),
		"protocol", cfg.Graphite.Protocol,
		"prefix", cfg.Graphite.Prefix,
	)

	// Start the forwarder
	fwd := forwarder.New(forwarder.Deps{
		Prefix:  cfg.Graphite.Prefix,
		Source:  forwarder.NewMQTTSource(mqttClient, byte(cfg.MQTT.QoS)),
		Channel: channel,
		Logger:  log.With("component", "forwarder"),
		Metrics: feederMetrics,
	})
	if err := fwd.Start(); err != nil {
		return fmt.Errorf("starting forwarder: %w", err)
	}
	defer func() {
		log.Info("releasing delivery channel")
		if closeErr := fwd.Close(); closeErr != nil {
			log.Error("error closing delivery channel", "error", closeErr)
		}
	}()

	// Start HTTP surface (health + Prometheus metrics)
	server := api.New(api.Deps{
		Config:  cfg.API,
		Logger:  log.With("component", "api"),
		Bus:     mqttClient,
		Metrics: feederMetrics,
		Version: version,
	})
	server.Start(ctx)
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("Graphite feeder running")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Delivery channel
	// 3. MQTT

	log.Info("Graphite feeder stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAPHITE_FEEDER_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAPHITE_FEEDER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
