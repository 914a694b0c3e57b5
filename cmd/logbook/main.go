// File: cmd/logbook/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smartdevs17/sail-logbook/internal/config"
	"github.com/smartdevs17/sail-logbook/internal/location"
	"github.com/smartdevs17/sail-logbook/internal/logbook"
	"github.com/smartdevs17/sail-logbook/internal/metrics"
	"github.com/smartdevs17/sail-logbook/internal/models"
	"github.com/smartdevs17/sail-logbook/internal/server"
	"github.com/smartdevs17/sail-logbook/internal/storage"
	"github.com/smartdevs17/sail-logbook/pkg/utils"
)

// AppVersion contains the application version
const AppVersion = "1.0.0"

// Application wires configuration, storage, location and the logbook service
type Application struct {
	config    *config.Config
	logger    *logrus.Logger
	storage   storage.Store
	provider  location.Provider
	metrics   *metrics.Manager
	service   *logbook.Service
	server    *server.HTTPServer
	startTime time.Time
}

// NewApplication creates a new application instance with an open, migrated store
func NewApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	app := &Application{
		config:    cfg,
		startTime: time.Now(),
	}

	if err := app.initializeLogger(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := app.initializeComponents(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return app, nil
}

// initializeLogger initializes the application logger
func (app *Application) initializeLogger() error {
	logCfg := app.config.Logging

	if err := utils.InitLogger(logCfg.Level, logCfg.Format, logCfg.Output, logCfg.File); err != nil {
		return err
	}

	app.logger = utils.GetLogger()
	app.logger.WithFields(logrus.Fields{
		"level":  logCfg.Level,
		"format": logCfg.Format,
		"output": logCfg.Output,
	}).Debug("Logger initialized")

	return nil
}

func (app *Application) initializeComponents(ctx context.Context) error {
	app.metrics = metrics.NewManager()

	if err := app.initializeStorage(ctx); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	provider, err := location.NewProvider(&app.config.Location)
	if err != nil {
		return fmt.Errorf("failed to initialize location provider: %w", err)
	}
	app.provider = provider

	app.service = logbook.NewService(app.storage, app.provider, app.metrics)
	return nil
}

// initializeStorage opens the configured database and brings its schema up to date
func (app *Application) initializeStorage(ctx context.Context) error {
	app.logger.WithFields(logrus.Fields{
		"type": app.config.Storage.Type,
	}).Debug("Initializing storage layer")

	if err := storage.ValidateStorageConfig(&app.config.Storage); err != nil {
		return err
	}

	store, err := storage.NewStorage(&app.config.Storage)
	if err != nil {
		return err
	}
	wrapped := storage.NewStoreWithMetrics(store, app.metrics)

	if err := wrapped.Connect(ctx); err != nil {
		return err
	}
	app.storage = wrapped

	return wrapped.Migrate(ctx)
}

// initializeServer initializes the HTTP server
func (app *Application) initializeServer() {
	serverCfg := &server.ServerConfig{
		Port:          app.config.Server.Port,
		Host:          app.config.Server.Host,
		ReadTimeout:   app.config.Server.ReadTimeout,
		WriteTimeout:  app.config.Server.WriteTimeout,
		EnableMetrics: app.config.Server.EnableMetrics,
		EnableHealth:  app.config.Server.EnableHealth,
		Version:       AppVersion,
	}

	app.server = server.NewHTTPServer(serverCfg, app.service, app.storage, app.metrics)
}

// Serve starts the HTTP API and blocks until ctx is cancelled
func (app *Application) Serve(ctx context.Context) error {
	app.initializeServer()

	if err := app.server.Start(); err != nil {
		return err
	}

	app.logger.WithFields(logrus.Fields{
		"version": AppVersion,
		"address": app.server.Addr(),
		"storage": app.config.Storage.Type,
	}).Info("Sail logbook started")

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return app.server.Stop(shutdownCtx)
		case <-ticker.C:
			app.metrics.UpdateSystemMetrics()
			app.metrics.GetPrometheusMetrics().UpdateApplicationUptime(app.startTime)
		}
	}
}

// Close releases the storage handle
func (app *Application) Close() {
	if app.storage == nil {
		return
	}
	if err := app.storage.Close(); err != nil {
		app.logger.WithError(err).Error("Failed to close storage")
	}
}

// withApplication loads configuration, builds the application and runs fn
func withApplication(cmd *cobra.Command, fn func(ctx context.Context, app *Application) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := NewApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(ctx, app)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parseCoordinate reads an optional "lat lon" argument pair
func parseCoordinate(args []string) (*models.Coordinate, error) {
	switch len(args) {
	case 0:
		return nil, nil
	case 2:
	default:
		return nil, fmt.Errorf("expected latitude and longitude, got %d values", len(args))
	}

	lat, err := cast.ToFloat64E(args[0])
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", args[0], err)
	}
	lon, err := cast.ToFloat64E(args[1])
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", args[1], err)
	}

	coord := &models.Coordinate{Latitude: lat, Longitude: lon}
	if err := coord.Validate(); err != nil {
		return nil, err
	}
	return coord, nil
}

func printEntries(w io.Writer, entries []*models.LogEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No entries yet.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tACTIVITY\tPOSITION")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Timestamp, e.Entry, e.Coordinate())
	}
	return tw.Flush()
}

func printEntry(w io.Writer, entry *models.LogEntry) error {
	if viper.GetBool("json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entry)
	}

	fmt.Fprintf(w, "ID:        %s\n", entry.ID)
	fmt.Fprintf(w, "Activity:  %s\n", entry.Entry)
	fmt.Fprintf(w, "Position:  %s\n", entry.Coordinate())
	fmt.Fprintf(w, "Recorded:  %s\n", localTime(entry.RecordedAt, entry.Timestamp))
	if entry.Edited() {
		fmt.Fprintf(w, "Edited:    %s\n", localTime(entry.EditedAt, entry.UpdatedAt))
	}
	return nil
}

// displayLayout renders stored UTC timestamps in the local zone
const displayLayout = "Mon 2 Jan 2006 15:04:05 MST"

func localTime(parse func() (time.Time, error), raw string) string {
	t, err := parse()
	if err != nil {
		return raw
	}
	return t.In(time.Local).Format(displayLayout)
}

// CLI Commands

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "logbook",
	Short:         "Sailing logbook",
	Long:          `Records sailing activities together with the position they happened at.`,
	Version:       AppVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApplication(cmd, func(_ context.Context, app *Application) error {
			err := app.Serve(ctx)
			app.logger.Info("Sail logbook stopped")
			return err
		})
	},
}

var recordCmd = &cobra.Command{
	Use:   "record <activity> [latitude longitude]",
	Short: "Record an activity at the current or given position",
	Args:  cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		coord, err := parseCoordinate(args[1:])
		if err != nil {
			return err
		}

		return withApplication(cmd, func(ctx context.Context, app *Application) error {
			var entry *models.LogEntry
			if coord != nil {
				entry, err = app.service.RecordAt(ctx, args[0], *coord)
			} else {
				entry, err = app.service.Record(ctx, args[0])
			}
			if err != nil {
				return err
			}
			return printEntry(cmd.OutOrStdout(), entry)
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, app *Application) error {
			entries, err := app.service.Entries(ctx)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(entries)
			}
			return printEntries(cmd.OutOrStdout(), entries)
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, app *Application) error {
			entry, err := app.service.Entry(ctx, args[0])
			if err != nil {
				return err
			}
			return printEntry(cmd.OutOrStdout(), entry)
		})
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id> <text>",
	Short: "Replace the text of an entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, app *Application) error {
			entry, err := app.service.Rename(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printEntry(cmd.OutOrStdout(), entry)
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, app *Application) error {
			if err := app.service.Remove(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the database schema up to date",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, app *Application) error {
			version, err := app.storage.SchemaVersion(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema version %d\n", version)
			return nil
		})
	},
}

var activitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "List the preset activities",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, a := range logbook.Activities {
			fmt.Fprintln(cmd.OutOrStdout(), a)
		}
	},
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Sail logbook %s (schema %d)\n", AppVersion, storage.TargetVersion)
	},
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

// validateConfigCmd validates the configuration
var validateConfigCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration is valid!\n")
		fmt.Fprintf(out, "Environment: %s\n", cfg.App.Environment)
		fmt.Fprintf(out, "Database: %s (%s)\n", cfg.Storage.Type, cfg.Storage.ConnectionString)
		fmt.Fprintf(out, "Location provider: %s\n", cfg.Location.Provider)
		fmt.Fprintf(out, "Listen address: %s:%d\n", cfg.Server.Host, cfg.Server.Port)

		return nil
	},
}

// init initializes the CLI commands
func init() {
	// Add persistent flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("db", "", "database path or connection string")
	rootCmd.PersistentFlags().Bool("json", false, "print entries as JSON")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("storage.connection_string", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(activitiesCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(validateConfigCmd)
}

// main is the entry point
func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
