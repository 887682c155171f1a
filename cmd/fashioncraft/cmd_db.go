package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/fashioncraft/pkg/app"
)

// fashioncraft migrate: Mongo indexes or SQL tables.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the store's indexes (mongo) or tables (SQL drivers)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		fmt.Fprintf(cmd.OutOrStdout(), "Migrating %s store…\n", a.Store.Driver())
		if err := a.Migrate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅  Migrations complete")
		return nil
	},
}
