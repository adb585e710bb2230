// VoiceLink Core - voice assistant to device bridge
//
// VoiceLink translates Alexa directives and Google smart home intents
// into a canonical command envelope published over MQTT, correlates
// device acknowledgements back to the waiting vendor call, and keeps
// the canonical device state current from device-reported changes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/voicelink/voicelink-core/migrations"

	"github.com/voicelink/voicelink-core/internal/alexa"
	"github.com/voicelink/voicelink-core/internal/api"
	"github.com/voicelink/voicelink-core/internal/bridge"
	"github.com/voicelink/voicelink-core/internal/device"
	"github.com/voicelink/voicelink-core/internal/google"
	"github.com/voicelink/voicelink-core/internal/infrastructure/config"
	"github.com/voicelink/voicelink-core/internal/infrastructure/database"
	"github.com/voicelink/voicelink-core/internal/infrastructure/influxdb"
	"github.com/voicelink/voicelink-core/internal/infrastructure/logging"
	"github.com/voicelink/voicelink-core/internal/infrastructure/mqtt"
	"github.com/voicelink/voicelink-core/internal/report"
	"github.com/voicelink/voicelink-core/internal/user"
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
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting VoiceLink Core",
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

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise device registry
	deviceRepo := device.NewSQLiteRepository(db.DB)
	registry := device.NewRegistry(deviceRepo)
	registry.SetLogger(log)

	if refreshErr := registry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}
	log.Info("device registry initialised")

	// User accounts (vendor link flags live here)
	userRepo := user.NewSQLiteRepository(db.DB)

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

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Command pipeline: correlation table, dispatcher, state mutator
	table := bridge.NewCorrelationTable()
	dispatcher := bridge.NewDispatcher(table, mqttClient)
	dispatcher.SetLogger(log)

	mutator := bridge.NewMutator(registry)
	mutator.SetLogger(log)
	if influxClient != nil {
		mutator.SetTelemetry(influxClient)
	}

	// Proactive state reports to vendor clouds
	reporter := report.NewPublisher(registry, userRepo, cfg.Vendors)
	reporter.SetLogger(log)
	mutator.SetReporter(reporter)

	// Vendor fulfillment services
	alexaService := alexa.NewService(registry, dispatcher)
	alexaService.SetLogger(log)

	googleService := google.NewService(registry, dispatcher)
	googleService.SetLogger(log)
	googleService.SetUnlink(func(ctx context.Context, username string) error {
		return userRepo.SetVendorLink(ctx, username, google.Vendor, false)
	})

	// HTTP API server
	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   log,
		Registry: registry,
		Alexa:    alexaService,
		Google:   googleService,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// The WebSocket hub doubles as the bridge's live state broadcaster.
	mutator.SetBroadcaster(apiServer.Hub())

	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Route acknowledgements and state reports off the bus
	listener := bridge.NewListener(dispatcher, mutator)
	listener.SetLogger(log)
	if err := listener.Start(mqttClient); err != nil {
		return fmt.Errorf("starting bridge listener: %w", err)
	}
	log.Info("bridge listener started")

	// Expire pending commands that never get acknowledged
	sweeper := bridge.NewSweeper(table, mqttClient, cfg.Bridge.SweepInterval(), cfg.Bridge.PendingDeadline())
	sweeper.SetLogger(log)
	go sweeper.Run(ctx)
	log.Info("correlation sweeper started",
		"interval", cfg.Bridge.SweepInterval(),
		"deadline", cfg.Bridge.PendingDeadline(),
	)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT
	// 4. Database

	log.Info("VoiceLink Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses VOICELINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("VOICELINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
