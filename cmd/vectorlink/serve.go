package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/nerrad567/vectorlink/internal/api"
	"github.com/nerrad567/vectorlink/internal/credential"
	"github.com/nerrad567/vectorlink/internal/grant"
	"github.com/nerrad567/vectorlink/internal/infrastructure/config"
	"github.com/nerrad567/vectorlink/internal/infrastructure/database"
	"github.com/nerrad567/vectorlink/internal/infrastructure/influxdb"
	"github.com/nerrad567/vectorlink/internal/infrastructure/logging"
	"github.com/nerrad567/vectorlink/internal/infrastructure/mqtt"
	"github.com/nerrad567/vectorlink/internal/relay"
	"github.com/nerrad567/vectorlink/internal/vector"
	"github.com/nerrad567/vectorlink/migrations"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to the robot and relay its events until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := getConfigPath(opts.configPath)
			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

// runServe is the long-running service, separated from the command for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - cfg: Loaded and validated configuration
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func runServe(ctx context.Context, cfg *config.Config) error {
	log := logging.New(cfg.Logging, version)
	log.Info("starting vectorlink",
		"version", version,
		"commit", commit,
		"build_date", date,
		"robot", cfg.Robot.Name,
	)

	db, store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database ready", "path", cfg.Database.Path)

	robot := newRobot(cfg, store)
	robot.SetLogger(log.With("component", "robot"))

	if connErr := robot.Connect(ctx, cfg.Robot.Name, cfg.Robot.Address); connErr != nil {
		return fmt.Errorf("connecting to robot: %w", connErr)
	}
	defer func() {
		log.Info("disconnecting from robot")
		if closeErr := robot.Disconnect(); closeErr != nil {
			log.Error("error disconnecting from robot", "error", closeErr)
		}
	}()
	log.Info("robot connected",
		"robot", robot.Session().DeviceID(),
		"address", robot.Session().Address(),
	)

	relayCfg := relay.Config{
		DeviceID:      robot.Session().DeviceID(),
		StateInterval: cfg.Relay.StateInterval,
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		mqttClient.SetLogger(log)
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		relayCfg.Publisher = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		relayCfg.Telemetry = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	}

	// The hub exists before the relay so both share it.
	var hub *api.Hub
	if cfg.API.Enabled {
		hub = api.NewHub(log.With("component", "api"))
		relayCfg.Broadcaster = hub
	}

	rl := relay.New(relayCfg)
	rl.SetLogger(log.With("component", "relay"))
	rl.Attach(robot.Events(), robot.Control())

	// Start the status API (optional)
	if cfg.API.Enabled {
		apiServer, err := api.New(api.Deps{
			Config:   cfg.API,
			WS:       cfg.WebSocket,
			Security: cfg.Security,
			Logger:   log.With("component", "api"),
			Robot:    robot,
			Relay:    rl,
			Hub:      hub,
			Version:  version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("status API disabled")
	}

	if err := healthCheck(ctx, db, robot.Session(), mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := robot.StartEventListening(runCtx); err != nil {
			log.Error("event stream ended", "error", err)
			return
		}
		log.Info("event stream closed")
	}()

	if cfg.Robot.BehaviorControl {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := robot.SuppressPersonality(runCtx, cfg.Robot.OverrideSafety); err != nil {
				log.Error("behavior control ended", "error", err)
			}
		}()
	}

	if cfg.Relay.BatteryInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rl.PollBattery(runCtx, robot, cfg.Relay.BatteryInterval)
		}()
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	stop()
	wg.Wait()

	// Deferred Close() calls run in reverse order:
	// API server, InfluxDB, MQTT, robot, database.
	log.Info("vectorlink stopped")
	return nil
}

// openStore opens the database, applies migrations and wraps it as a credential store.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (*database.DB, *credential.SQLiteStore, error) {
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, migrations.FS, "."); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, credential.NewSQLiteStore(db.DB), nil
}

// newRobot builds the robot facade from configuration.
func newRobot(cfg *config.Config, store credential.Store) *vector.Robot {
	return vector.New(vector.Config{
		Store:          store,
		ConnectTimeout: cfg.Robot.ConnectTimeout,
		Grant: grant.Config{
			AccountsURL:    cfg.Grant.AccountsURL,
			CertsURL:       cfg.Grant.CertsURL,
			AppKey:         cfg.Grant.AppKey,
			ClientName:     cfg.Grant.ClientName,
			RequestTimeout: cfg.GetGrantTimeout(),
		},
	})
}

// healthChecker is implemented by every dependency checked at startup.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// healthCheck verifies the robot channel and all infrastructure connections.
// robotSession, mqttClient and influxClient may be nil when not in use.
func healthCheck(ctx context.Context, db *database.DB, robotSession healthChecker, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if robotSession != nil {
		if err := robotSession.HealthCheck(ctx); err != nil {
			return fmt.Errorf("robot: %w", err)
		}
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
