package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mfierro/gastos/internal/config"
	"github.com/mfierro/gastos/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database schema migrations",
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := storage.NewFromConfig(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(cmd.Context()); err != nil {
		return err
	}

	fmt.Println("Migrations complete")
	return nil
}
