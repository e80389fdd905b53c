// Gray Logic IO - Hardware Binding and Signal Bridge
//
// This is the main entry point for the Gray Logic IO service. It loads a
// device topology, binds each device to hardware through its parent hubs and
// gateways, and links the bound devices to signal bridges (in-process
// loopback or MQTT) for control surfaces to drive.
//
// Usage:
//
//	graylogic-io [-config path]
//	graylogic-io -token <subject> [-token-ttl 24h]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-io/migrations"

	"github.com/nerrad567/gray-logic-io/internal/api"
	"github.com/nerrad567/gray-logic-io/internal/binding"
	"github.com/nerrad567/gray-logic-io/internal/bridge"
	"github.com/nerrad567/gray-logic-io/internal/device"
	"github.com/nerrad567/gray-logic-io/internal/hardware"
	"github.com/nerrad567/gray-logic-io/internal/hardware/sim"
	"github.com/nerrad567/gray-logic-io/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-io/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-io/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-io/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-io/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-io/internal/joinmap"
	"github.com/nerrad567/gray-logic-io/internal/lifecycle"
	"github.com/nerrad567/gray-logic-io/internal/modules"
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

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the command-line flags.
type options struct {
	configPath string
	tokenFor   string
	tokenTTL   time.Duration
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("graylogic-io", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "path to config.yaml (default $GRAYLOGIC_CONFIG or "+defaultConfigPath+")")
	fs.StringVar(&opts.tokenFor, "token", "", "print an API bearer token for this subject and exit")
	fs.DurationVar(&opts.tokenTTL, "token-ttl", 24*time.Hour, "lifetime of the token printed by -token")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.configPath == "" {
		opts.configPath = getConfigPath()
	}
	return opts, nil
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command-line arguments without the program name
//   - stdout: Where -token writes the token
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, args []string, stdout io.Writer) error { //nolint:gocognit,gocyclo // startup sequence: each step is linear
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	// Use default logger until config is loaded
	log := logging.Default()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if opts.tokenFor != "" {
		token, tokenErr := api.IssueToken(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer, opts.tokenFor, opts.tokenTTL)
		if tokenErr != nil {
			return fmt.Errorf("issuing token: %w", tokenErr)
		}
		fmt.Fprintln(stdout, token)
		return nil
	}

	log.Info("starting Gray Logic IO",
		"version", version,
		"commit", commit,
		"build_date", date,
	)
	log.Info("configuration loaded", "path", opts.configPath)

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
		Migrations:  migrations.FS,
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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	if status, statusErr := db.MigrationStatus(ctx); statusErr == nil {
		log.Info("database migrations complete", "schema", status.Current(), "applied", len(status.Applied))
	}

	// Stored overrides win over the ones in config.
	overrides := joinmap.NewSQLiteStore(db.DB)
	source := joinmap.Chain{overrides, joinmap.StaticSource(cfg.JoinMaps)}

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
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Connect to MQTT only when a bridge needs it
	var mqttClient *mqtt.Client
	if usesMQTT(cfg.Bridges) {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	}

	// Bring devices up against the controller
	ctrl := sim.NewController(sim.Options{
		Model:      cfg.Controller.Model,
		Features:   controllerFeatures(cfg.Controller),
		AutoOnline: cfg.Controller.AutoOnline,
	})
	mods, coord, err := bringUp(ctx, cfg, ctrl, log)
	if err != nil {
		return err
	}

	// Event fan-out: WebSocket hub and telemetry
	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	observers := []func(bridge.Push){hub.ObservePush}
	if influxClient != nil {
		observers = append(observers, func(p bridge.Push) {
			influxClient.WriteFeedback(influxdb.FeedbackPoint{
				Device:   p.Device,
				Feedback: p.Feedback,
				Bridge:   p.Bridge,
				Signal:   string(p.Type),
				Join:     p.Join,
				Value:    p.Value,
				Time:     p.Time,
			})
		})
	}
	watchOnline(mods, hub, influxClient)

	linker := bridge.NewLinker(bridge.LinkerOptions{
		Source:    source,
		Logger:    log.Component("bridge"),
		Observers: observers,
	})
	stopBridges, err := startBridges(ctx, cfg, linker, mqttClient, mods, log)
	if err != nil {
		return err
	}
	defer stopBridges()

	// Background pollers
	var wg sync.WaitGroup
	for _, m := range mods {
		if r, ok := m.(modules.Runner); ok {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.Run(ctx)
			}()
		}
	}
	defer wg.Wait()

	// Start inspection API (optional)
	if cfg.API.Enabled {
		devices := make([]api.Device, 0, len(mods))
		for _, m := range mods {
			devices = append(devices, m)
		}
		server, apiErr := api.New(api.Deps{
			Config:    cfg.API,
			WS:        cfg.WebSocket,
			Security:  cfg.Security,
			Logger:    log.Component("api"),
			Devices:   devices,
			States:    coord,
			Linker:    linker,
			Overrides: overrides,
			Hub:       hub,
			Version:   version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API disabled")
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: API, pollers, bridges, MQTT,
	// InfluxDB, database.
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// controllerFeatures maps controller config flags to hardware features.
func controllerFeatures(c config.ControllerConfig) []hardware.Feature {
	var features []hardware.Feature
	if c.InternalRFGateway {
		features = append(features, hardware.FeatureInternalRFGateway)
	}
	if c.ThreeSeriesCards {
		features = append(features, hardware.FeatureThreeSeriesCards)
	}
	return features
}

// bringUp loads the devices file, builds a module per descriptor and runs
// two-phase activation. A card cage that cannot be expanded or a
// descriptor that cannot be built is logged and left out; bind failures leave the device unbound.
//
// Returns:
//   - []modules.Module: Every built module, in file order
//   - *lifecycle.Coordinator: The coordinator, for state queries
//   - error: If the devices file cannot be loaded or activation is cancelled
func bringUp(ctx context.Context, cfg *config.Config, ctrl hardware.Controller, log *logging.Logger) ([]modules.Module, *lifecycle.Coordinator, error) {
	descs, err := device.LoadDescriptors(cfg.DevicesFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading devices: %w", err)
	}
	descs, cageErrs := modules.ExpandCards(descs)
	for _, cageErr := range cageErrs {
		log.Error("skipping card cage", "error", cageErr)
	}
	log.Info("devices loaded", "path", cfg.DevicesFile, "devices", len(descs))

	registry := device.NewRegistry()
	registry.SetLogger(log.Component("device"))
	coord := lifecycle.NewCoordinator(lifecycle.Env{
		Resolver: binding.NewResolver(ctrl, registry, log.Component("binding")),
		Registry: registry,
	}, log.Component("lifecycle"))

	cat := modules.NewCatalogue(modules.Options{Logger: log.Component("modules")})
	mods := make([]modules.Module, 0, len(descs))
	for _, d := range descs {
		m, buildErr := cat.Build(d)
		if buildErr != nil {
			log.Error("skipping device", "device", d.Key, "type", d.Type, "error", buildErr)
			continue
		}
		if addErr := coord.Add(m); addErr != nil {
			log.Error("skipping device", "device", d.Key, "error", addErr)
			continue
		}
		mods = append(mods, m)
	}

	report, err := coord.Activate(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("activating devices: %w", err)
	}
	log.Info("devices activated",
		"batch", report.BatchID,
		"ready", report.Ready,
		"failed", report.Failed,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return mods, coord, nil
}

// watchOnline relays endpoint online changes to the hub and telemetry.
func watchOnline(mods []modules.Module, hub *api.Hub, influxClient *influxdb.Client) {
	for _, m := range mods {
		sig := m.OnlineSignal()
		if sig == nil {
			continue
		}
		key := m.Key()
		sig.OnOnlineChange(func(online bool) {
			hub.DeviceOnline(key, online)
			if influxClient != nil {
				influxClient.WriteOnline(key, online)
			}
		})
	}
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if no bridge uses MQTT)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
