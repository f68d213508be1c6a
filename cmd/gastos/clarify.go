package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mfierro/gastos/internal/common"
	"github.com/mfierro/gastos/internal/config"
	"github.com/mfierro/gastos/internal/model"
	"github.com/mfierro/gastos/internal/pipeline"
	"github.com/mfierro/gastos/internal/storage"
)

func clarifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clarify <wid> <category>",
		Short: "Assign a final category to a pending expense",
		Long: `Promotes a pending expense to the confirmed table with the supplied
category. Fails if the message is not awaiting clarification.`,
		Args: cobra.ExactArgs(2),
		RunE: runClarify,
	}
}

func runClarify(cmd *cobra.Command, args []string) error {
	wid, category := args[0], args[1]

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

	if err := pipeline.Clarify(cmd.Context(), store, wid, category); err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			return common.NewUserError(fmt.Sprintf("no pending message with id %q", wid), nil)
		case errors.Is(err, common.ErrInvalidCategory):
			names := make([]string, 0, len(model.KnownCategories()))
			for _, c := range model.KnownCategories() {
				names = append(names, string(c))
			}
			return common.NewUserError(fmt.Sprintf("category must be one of: %s", strings.Join(names, ", ")), nil)
		default:
			return err
		}
	}

	fmt.Printf("Message %s confirmed as %s\n", wid, category)
	return nil
}
