package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mfierro/gastos/internal/config"
	"github.com/mfierro/gastos/internal/storage"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the aggregate expense summary",
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, _ []string) error {
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

	summary, err := store.Summary(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Messages:     %d\n", summary.MessageCount)
	fmt.Printf("Total amount: %s\n", summary.TotalAmount.StringFixed(2))
	if summary.LastMessageTS != nil {
		fmt.Printf("Last message: %d\n", *summary.LastMessageTS)
	} else {
		fmt.Println("Last message: never")
	}
	return nil
}
