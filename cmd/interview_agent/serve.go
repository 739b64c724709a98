package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-conductor/internal/config"
	"github.com/jonathan/interview-conductor/internal/engine"
	"github.com/jonathan/interview-conductor/internal/llm"
	"github.com/jonathan/interview-conductor/internal/server"
	"github.com/jonathan/interview-conductor/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the interview API server",
	Long:  `Start an HTTP server that hosts interview sessions over REST and WebSocket endpoints.`,
	RunE:  runServe,
}

var servePort int

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if err := cfg.JWT.Validate(); err != nil {
		return err
	}

	var client llm.Client
	if cfg.GeminiAPIKey != "" {
		llmCfg := llm.DefaultConfig().WithTemperature(float32(cfg.Temperature))
		client, err = llm.NewClient(ctx, llmCfg, cfg.GeminiAPIKey)
		if err != nil {
			return fmt.Errorf("failed to create reasoning client: %w", err)
		}
		defer client.Close()
	}

	backing, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	writer := store.NewAsyncWriter(backing, cfg.StoreWorkers)
	defer writer.Close()

	srv, err := server.New(server.Config{
		Port:             cfg.Port,
		JWT:              &cfg.JWT,
		Client:           client,
		Recorder:         writer,
		Variant:          engine.VariantKind(cfg.Variant),
		ReasoningTimeout: time.Duration(cfg.ReasoningTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start()
}

// buildStore prefers Postgres when DATABASE_URL is set and falls back to
// the local SQLite file otherwise.
func buildStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseURL != "" {
		pg, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return pg, nil
	}
	db, err := store.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	return db, nil
}
