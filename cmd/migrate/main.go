// Command migrate manages the fuel inventory schema and master data.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/KMK-tech-v0/fuel/internal/application"
	"github.com/KMK-tech-v0/fuel/internal/config"
	"github.com/KMK-tech-v0/fuel/internal/infrastructure/postgres"
	"github.com/KMK-tech-v0/fuel/pkg/database"
	"github.com/KMK-tech-v0/fuel/pkg/idempotency"
	"github.com/KMK-tech-v0/fuel/pkg/logging"
	"github.com/KMK-tech-v0/fuel/pkg/metrics"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Manage the fuel inventory database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Create or update every table, index and constraint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd.Context(), func(env *environment) error {
			if err := postgres.Migrate(cmd.Context(), env.db); err != nil {
				return err
			}
			if err := idempotency.NewGormStore(env.db).Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to migrate idempotency table: %w", err)
			}
			env.logger.Info("Schema is up to date")
			return nil
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Drop every fuel inventory table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("refusing to drop tables without --yes")
		}
		return withDatabase(cmd.Context(), func(env *environment) error {
			if err := postgres.DropAll(cmd.Context(), env.db); err != nil {
				return err
			}
			env.logger.Warn("Dropped all fuel inventory tables")
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed FILE",
	Short: "Upsert master data from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		data, err := postgres.ParseSeed(f)
		if err != nil {
			return err
		}

		return withDatabase(cmd.Context(), func(env *environment) error {
			counts, err := postgres.Seed(cmd.Context(), env.db, data)
			if err != nil {
				return err
			}
			env.logger.Info("Seeded master data",
				"fuelTypes", counts.FuelTypes,
				"suppliers", counts.Suppliers,
				"townships", counts.Townships,
				"sites", counts.Sites,
				"warehouses", counts.Warehouses,
			)
			return nil
		})
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare every inventory record with its movement history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd.Context(), func(env *environment) error {
			client, err := database.NewClient(env.db, database.DefaultOptions("postgres"), env.metrics, env.logger)
			if err != nil {
				return err
			}
			reconciler := application.NewReconciler(postgres.NewReadRepository(client), env.metrics, env.logger)

			report, err := reconciler.Reconcile(cmd.Context())
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(report); err != nil {
				return err
			}
			if !report.Consistent {
				return fmt.Errorf("%d inventory discrepancies found", len(report.Discrepancies))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to an env file (defaults to .env when present)")
	downCmd.Flags().Bool("yes", false, "confirm dropping all tables")

	rootCmd.AddCommand(upCmd, downCmd, seedCmd, reconcileCmd)
}

type environment struct {
	db      *gorm.DB
	logger  *logging.Logger
	metrics *metrics.Metrics
}

func withDatabase(ctx context.Context, fn func(env *environment) error) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	logConfig := logging.DefaultConfig(config.ServiceName + "-migrate")
	logConfig.Level = cfg.LogLevel
	logConfig.Output = os.Stderr
	logger := logging.New(logConfig)

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	return fn(&environment{
		db:      db,
		logger:  logger,
		metrics: metrics.New(metrics.DefaultConfig(config.ServiceName)),
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
