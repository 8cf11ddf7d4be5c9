package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/repository"
	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/repository/postgres"
)

func migrateCmd(configPath *string) *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the storefront tables in Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Store != "postgres" {
				return errors.New("migrate requires store: postgres")
			}

			ctx := cmd.Context()
			db, err := postgres.InitDB(ctx, cfg.Database.Driver, cfg.Database.URL, postgres.Options{})
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
			if seed {
				if err := postgres.Seed(ctx, db, repository.DefaultDemoData()); err != nil {
					return err
				}
				slog.Info("Demo data seeded")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "insert demo products, an address and a cart")
	return cmd
}
