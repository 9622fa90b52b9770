package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"pkgdb/pkgdb/config"
	"pkgdb/pkgdb/database"
	"pkgdb/pkgdb/services"
	"pkgdb/utils"
	"pkgdb/utils/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// app holds what every subcommand needs once the root command has loaded the
// environment and opened the database.
type app struct {
	env *config.PkgdbEnv
	db  *database.Database
	pkg services.PackageDB

	out     io.Writer
	logFile *os.File
}

// retry runs op, retrying conflicting updates as configured.
func (a *app) retry(ctx context.Context, op func() error) error {
	if a.env.ConflictRetries == 0 {
		return op()
	}
	return services.RetryOnConflict(ctx, services.DefaultRetryBackOff(a.env.ConflictRetries), op)
}

func (a *app) print(data interface{}) error {
	return utils.WriteJson(a.out, data)
}

func (a *app) setup(envFile string) error {
	env, err := config.LoadEnv(envFile)
	if err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	a.env = env

	level, err := logging.ParseLevel(env.Log.Level)
	if err != nil {
		return err
	}
	if env.Log.File != "" {
		a.logFile, err = os.OpenFile(env.Log.File, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
		if err != nil {
			return fmt.Errorf("error opening log file: %w", err)
		}
	}
	logging.Init(level, env.Log.Json, a.logFile)

	a.db, err = database.Open(env.DbDriver, env.DatabaseUri, database.Options{LogLevel: logging.GormLevel(level)})
	if err != nil {
		return err
	}
	if err := a.db.Migrate(); err != nil {
		return fmt.Errorf("error migrating database: %w", err)
	}

	a.pkg = services.New(a.db.DB)
	return nil
}

func (a *app) close() {
	if a.env != nil && a.env.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(a.env.MetricsFile, prometheus.DefaultGatherer); err != nil {
			slog.Error("error writing metrics file", "metrics_file", a.env.MetricsFile, "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}

func newRootCmd(a *app) *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "pkgdb",
		Short:         "Administer the package database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "Optional env file to load before reading the environment")

	root.AddCommand(
		newStatusCmd(a),
		newCollectionCmd(a),
		newPackageCmd(a),
		newListingCmd(a),
		newVersionCmd(a),
		newAclCmd(a),
		newLogCmd(a),
	)
	return root
}

// The reason we have a separate runApp function is because the defer calls don't
// run if we exit with os.Exit, so instead we return an err here and fail outside
func runApp() error {
	a := &app{out: os.Stdout}
	defer a.close()

	return newRootCmd(a).ExecuteContext(context.Background())
}

func main() {
	if err := runApp(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
