// smarthome is the command-line front-end for the smart home core.
//
// Every invocation loads the saved home, performs one command and saves
// the home again:
//
//	smarthome [-config path] <command> [args...]
//
// Run "smarthome help" for the command list.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/smarthome-core/internal/eventlog"
	"github.com/nerrad567/smarthome-core/internal/home"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/config"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/database"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/logging"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/metrics"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/smarthome-core/internal/store"
	"github.com/nerrad567/smarthome-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path. A missing file means built-in defaults.
const defaultConfigPath = "smarthome.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Command output goes to stdout; logs go where the logging config says.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("smarthome", flag.ContinueOnError)
	fs.SetOutput(stdout)
	configFlag := fs.String("config", "", "path to the YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		printUsage(stdout)
		return errors.New("no command given")
	}
	if fs.Arg(0) == "help" {
		printUsage(stdout)
		return nil
	}

	// Use default logger until config is loaded
	log := logging.Default()
	log.Debug("starting smarthome",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath(*configFlag)
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	base, err := logging.New(cfg.Logging, version)
	if err != nil {
		return fmt.Errorf("initialising logger: %w", err)
	}
	defer func() {
		if closeErr := base.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing log file: %v\n", closeErr)
		}
	}()
	log = base.With("home", cfg.Home.Name)
	log.Debug("configuration loaded", "path", configPath, "storage", cfg.Home.Storage)

	var db *database.DB
	if cfg.Home.Storage == config.StorageSQLite || cfg.Database.EventLog {
		db, err = openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
	}

	var st store.Store
	if cfg.Home.Storage == config.StorageSQLite {
		st = store.NewSQLiteStore(db.DB)
	} else {
		st = store.NewFileStore(cfg.Home.DataFile, cfg.Home.RulesFile)
	}

	collector := metrics.New()

	recorder := eventlog.NewRecorder(eventlog.NewLogSink(log.Logger))
	recorder.SetLogger(log)

	a := &app{
		cfg:   cfg,
		store: st,
		out:   stdout,
		log:   log,
	}

	if cfg.Home.EventLog != "" {
		a.textLog = eventlog.NewTextFile(cfg.Home.EventLog)
		recorder.AddSink(a.textLog)
	}
	if cfg.Database.EventLog {
		a.events = eventlog.NewSQLiteSink(db.DB)
		recorder.AddSink(a.events)
	}

	if cfg.MQTT.Enabled {
		mqttClient, connErr := mqtt.Connect(cfg.MQTT)
		if connErr != nil {
			// The broker is optional; the home still works without it.
			log.Warn("MQTT unavailable, events will not be published", "error", connErr)
		} else {
			mqttClient.SetLogger(log)
			defer func() {
				if closeErr := mqttClient.Close(); closeErr != nil {
					log.Error("error closing MQTT", "error", closeErr)
				}
			}()
			recorder.AddSink(eventlog.NewMQTTSink(mqttClient, mqttClient.QoS()))
			log.Debug("MQTT connected",
				"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
				"client_id", cfg.MQTT.Broker.ClientID,
			)
		}
	}

	if cfg.InfluxDB.Enabled {
		influxClient, connErr := influxdb.Connect(cfg.InfluxDB)
		if connErr != nil {
			log.Warn("InfluxDB unavailable, device history will not be written", "error", connErr)
		} else {
			influxClient.SetOnError(func(writeErr error) {
				log.Warn("InfluxDB write failed", "error", writeErr)
			})
			defer func() {
				influxClient.Flush()
				if closeErr := influxClient.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			}()
			a.influx = influxClient
			recorder.AddSink(eventlog.NewInfluxSink(influxClient))
		}
	}

	h := home.New()
	h.SetLogger(log)
	h.SetRecorder(recorder)
	h.SetMetrics(collector)
	a.home = h

	if err := a.load(ctx); err != nil {
		return err
	}

	if err := a.dispatch(ctx, fs.Args()); err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		if err := exportMetrics(cfg.Metrics.TextfilePath, collector); err != nil {
			log.Warn("metrics export failed", "error", err)
		}
	}
	return nil
}

// getConfigPath returns the configuration file path: the -config flag,
// then SMARTHOME_CONFIG, then the default.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv("SMARTHOME_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

func exportMetrics(path string, c *metrics.Collector) error {
	reg, err := metrics.NewRegistry(c, version)
	if err != nil {
		return err
	}
	return metrics.WriteTextfile(path, reg)
}
