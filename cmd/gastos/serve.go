package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mfierro/gastos/internal/api"
	"github.com/mfierro/gastos/internal/config"
	"github.com/mfierro/gastos/internal/llm"
	"github.com/mfierro/gastos/internal/pipeline"
	"github.com/mfierro/gastos/internal/storage"
	"github.com/mfierro/gastos/internal/stream"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ingestion pipeline and the read API",
		Long: `Runs the full pipeline in one process: the stream consumer pulls message
envelopes, classifies them with the configured LLM, persists expenses, and
publishes confirmations, while the HTTP API serves reads and clarifications.`,
		RunE: runServe,
	}

	cmd.Flags().String("listen-addr", ":8000", "HTTP API listen address")
	cmd.Flags().String("db", "data/gastos.db", "SQLite database path")
	_ = viper.BindPFlag("api.listen_addr", cmd.Flags().Lookup("listen-addr"))
	_ = viper.BindPFlag("database.path", cmd.Flags().Lookup("db"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := storage.NewFromConfig(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	client, err := llm.NewClient(cfg.LLM, cfg.HomeCurrency)
	if err != nil {
		return err
	}
	classifier := llm.NewClassifier(client, cfg.LLM.Timeout, slog.Default())

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return err
	}
	rdb := redis.NewClient(opts)
	defer func() { _ = rdb.Close() }()

	publisher := stream.NewPublisher(rdb, cfg.Redis.ConfirmationChannel, slog.Default())
	processor := pipeline.New(store, classifier, publisher, slog.Default())
	consumer := stream.NewConsumer(rdb, processor, cfg.Redis, cfg.Consumer, slog.Default())
	server := api.NewServer(store, cfg.API, slog.Default())

	errCh := make(chan error, 2)
	go func() { errCh <- consumer.Run(ctx) }()
	go func() { errCh <- server.Run(ctx) }()

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
