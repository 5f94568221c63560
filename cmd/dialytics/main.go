package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/dialytics/internal/api"
	"github.com/terraincognita07/dialytics/internal/cli"
	"github.com/terraincognita07/dialytics/internal/client"
	"github.com/terraincognita07/dialytics/internal/config"
	"github.com/terraincognita07/dialytics/internal/db"
	"github.com/terraincognita07/dialytics/internal/logger"
	"github.com/terraincognita07/dialytics/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	serviceName     = "dialytics"
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Peritoneal dialysis treatment analytics",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(clinicianCmd())
	return rootCmd
}

// environment is the configuration shared by every subcommand.
type environment struct {
	cfg      *config.Config
	logger   *zap.Logger
	location *time.Location
}

func loadEnvironment() (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &environment{cfg: cfg, logger: log, location: location}, nil
}

func (env *environment) openDatabase() (*gorm.DB, error) {
	database, err := db.OpenSQLite(env.cfg.DBPath, env.logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	return database, nil
}

func (env *environment) close(database *gorm.DB) {
	if database != nil {
		if err := db.Close(database); err != nil {
			env.logger.Warn("close database", zap.Error(err))
		}
	}
	_ = env.logger.Sync()
}

// newPatientSource picks where treatment records come from. Only the local
// store can enumerate patients.
func newPatientSource(cfg *config.Config, database *gorm.DB, location *time.Location, log *zap.Logger) (services.PatientDataSource, api.PatientLister) {
	if cfg.DataSource == config.DataSourceRemote {
		return client.NewPatientDataClient(client.Options{
			BaseURL:  cfg.RemoteBaseURL,
			Token:    cfg.RemoteToken,
			Timeout:  cfg.RemoteTimeout,
			Retries:  cfg.RemoteRetries,
			Location: location,
		}, log.Named("remote")), nil
	}
	store := db.NewPatientDataStore(database)
	return store, store
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the analytics API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(parent context.Context) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	database, err := env.openDatabase()
	if err != nil {
		return err
	}
	defer env.close(database)

	source, lister := newPatientSource(env.cfg, database, env.location, env.logger)
	analytics := services.NewAnalyticsService(source, env.location, env.logger.Named("analytics"))
	auth := services.NewAuthService(db.NewRepositories(database).Users)

	handler, err := api.NewHandler(analytics, auth, api.Options{
		SecretKey:          env.cfg.SecretKey,
		TokenTTL:           env.cfg.AuthTokenTTL,
		SeriesDefaultRange: env.cfg.SeriesDefaultRange,
		Patients:           lister,
		Logger:             env.logger.Named("api"),
	})
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}
	app := api.NewApp(handler)

	if parent == nil {
		parent = context.Background()
	}
	sigCtx, stopSignals := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			env.logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	env.logger.Info("server listening",
		zap.String("port", env.cfg.Port),
		zap.String("db_path", env.cfg.DBPath),
		zap.String("data_source", env.cfg.DataSource),
		zap.String("tz", env.location.String()),
	)
	if err := app.Listen(":" + env.cfg.Port); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	env.logger.Info("server stopped")
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			database, err := env.openDatabase()
			if err != nil {
				return err
			}
			defer env.close(database)

			fmt.Fprintf(cmd.OutOrStdout(), "Schema up to date (%s)\n", env.cfg.DBPath)
			return nil
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>...",
		Short: "Import patient payloads into the local store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			database, err := env.openDatabase()
			if err != nil {
				return err
			}
			defer env.close(database)

			store := db.NewPatientDataStore(database)
			for _, path := range args {
				if _, err := cli.ImportPatientFile(cmd.Context(), store, path, env.location, env.logger.Named("import"), cmd.OutOrStdout()); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			return nil
		},
	}
}

func reportCmd() *cobra.Command {
	var rangeInDays int
	cmd := &cobra.Command{
		Use:   "report <patient-id>",
		Short: "Print the full analytics report for one patient as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			database, err := env.openDatabase()
			if err != nil {
				return err
			}
			defer env.close(database)

			if !cmd.Flags().Changed("range") {
				rangeInDays = env.cfg.SeriesDefaultRange
			}
			source, _ := newPatientSource(env.cfg, database, env.location, env.logger)
			analytics := services.NewAnalyticsService(source, env.location, env.logger.Named("analytics"))
			return cli.WriteReport(cmd.Context(), analytics, args[0], rangeInDays, time.Now(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&rangeInDays, "range", 30, "Number of most recent days in the chart series (0 keeps all)")
	return cmd
}

func clinicianCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clinician",
		Short: "Manage clinician accounts",
	}

	var role string
	var promptPassword bool
	createCmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Create a clinician account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := ""
			if promptPassword {
				entered, err := cli.PromptPassword(os.Stdin, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				password = entered
			}
			return withAccounts(func(auth *services.AuthService) error {
				_, err := cli.CreateClinician(auth, args[0], role, password, cmd.OutOrStdout())
				return err
			})
		},
	}
	createCmd.Flags().StringVar(&role, "role", "clinician", "Account role: clinician or admin")
	createCmd.Flags().BoolVar(&promptPassword, "prompt-password", false, "Read the password from the terminal instead of generating one")
	cmd.AddCommand(createCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "reset-password <email>",
		Short: "Replace a clinician password with a temporary one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccounts(func(auth *services.AuthService) error {
				_, err := cli.ResetClinicianPassword(auth, args[0], cmd.OutOrStdout())
				return err
			})
		},
	})
	return cmd
}

func withAccounts(run func(auth *services.AuthService) error) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	database, err := env.openDatabase()
	if err != nil {
		return err
	}
	defer env.close(database)

	if err := run(services.NewAuthService(db.NewRepositories(database).Users)); err != nil {
		if errors.Is(err, services.ErrCreateClinicianFailed) {
			env.logger.Error("clinician account command failed", zap.Error(err))
		}
		return err
	}
	return nil
}
