package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Janarthanan-Gnanamurthy/Planora/internal/agent"
	"github.com/Janarthanan-Gnanamurthy/Planora/internal/config"
	"github.com/Janarthanan-Gnanamurthy/Planora/internal/llm"
	"github.com/Janarthanan-Gnanamurthy/Planora/internal/logging"
	"github.com/Janarthanan-Gnanamurthy/Planora/internal/server"
	"github.com/Janarthanan-Gnanamurthy/Planora/internal/store"
	"github.com/Janarthanan-Gnanamurthy/Planora/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFromPath(configFile)
	}
	return config.Load()
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	provider, err := llm.NewAnthropicClient(llm.AnthropicConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}

	registry := agent.NewRegistry(db)
	workflow := agent.NewWorkflow(provider, db, registry, db, logging.Component(log, "workflow"))
	breakdown := agent.NewBreakdownEngine(provider, db, logging.Component(log, "breakdown"))
	dispatcher := agent.NewDispatcher(workflow, breakdown, registry, logging.Component(log, "dispatcher"))

	api := server.New(db, provider, dispatcher, cfg.Server.CORSOrigins, logging.Component(log, "http"))

	// Log level follows config file edits when a file path is known.
	if configFile != "" {
		err := config.Watch(configFile, func(fresh *config.Config) {
			if err := logging.SetLevel(fresh.Logging.Level); err != nil {
				log.Warn().Err(err).Msg("ignoring invalid log level from config reload")
				return
			}
			log.Info().Str("level", fresh.Logging.Level).Msg("log level reloaded")
		})
		if err != nil {
			log.Warn().Err(err).Msg("config watch disabled")
		}
	}

	printBanner(cfg)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func printBanner(cfg *config.Config) {
	title := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)

	title.Printf("Planora %s\n", version.Get())
	dim.Printf("  addr:     %s\n", cfg.Server.Addr)
	dim.Printf("  database: %s\n", cfg.Database.Path)
	if cfg.Anthropic.UseAWSBedrock {
		dim.Printf("  provider: anthropic (bedrock, %s)\n", cfg.Anthropic.AWSRegion)
	} else {
		dim.Println("  provider: anthropic")
	}
}
