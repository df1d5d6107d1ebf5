package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/kestrelworks/skybridge/agent"
	"github.com/kestrelworks/skybridge/chat"
	"github.com/kestrelworks/skybridge/config"
	"github.com/kestrelworks/skybridge/interactive"
	"github.com/kestrelworks/skybridge/registry"
	"github.com/kestrelworks/skybridge/server"
	"github.com/kestrelworks/skybridge/tools"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	serve := flag.Bool("serve", false, "Run the HTTP front end instead of the interactive prompt")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Println("skybridge", Version)
		return
	}

	// Secrets come from the environment; .env keeps them out of the
	// config file during development
	if _, err := os.Stat(".env"); err == nil {
		godotenv.Load(".env")
	}

	cfg, created, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Configuration error:", err)
		os.Exit(1)
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	logger := setupLogging(cfg)

	if created {
		path, _ := config.GetConfigPath()
		logger.Info().Str("path", path).Msg("created default configuration")
	}

	if err := run(cfg, *serve, logger); err != nil {
		logger.Error().Err(err).Msg("fatal error")
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, bool, error) {
	if path != "" {
		cfg, err := config.Load(path)
		return cfg, false, err
	}
	return config.LoadOrCreate()
}

func run(cfg *config.Config, serve bool, logger zerolog.Logger) error {
	reg, cleanup, err := buildRegistry(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build tool registry: %w", err)
	}
	defer cleanup()

	if serve || cfg.Server.Enable {
		return runServer(cfg, reg, logger)
	}
	return runInteractive(cfg, reg, logger)
}

// buildRegistry assembles the in-process tools. A missing policy
// database disables that tool rather than failing startup.
func buildRegistry(cfg *config.Config, logger zerolog.Logger) (*registry.Registry, func() error, error) {
	reg := registry.New()

	if err := tools.RegisterTime(reg); err != nil {
		return nil, nil, err
	}

	cleanup := func() error { return nil }
	if cfg.Policy.Database != "" {
		store, err := tools.OpenPolicyStore(cfg.Policy.Database, logger)
		if err != nil {
			logger.Warn().Err(err).Str("database", cfg.Policy.Database).Msg("travel policy database unavailable")
		} else {
			if err := store.Register(reg); err != nil {
				store.Close()
				return nil, nil, err
			}
			cleanup = store.Close
		}
	}

	return reg, cleanup, nil
}

func runInteractive(cfg *config.Config, reg *registry.Registry, logger zerolog.Logger) error {
	client, err := chat.New(cfg, logger)
	if err != nil {
		return err
	}

	session, err := agent.New(cfg, reg, client, logger)
	if err != nil {
		client.Close()
		return err
	}
	defer session.Close()

	return interactive.New(cfg, session, logger).Run(context.Background())
}

func runServer(cfg *config.Config, reg *registry.Registry, logger zerolog.Logger) error {
	factory := func() (*agent.Session, error) {
		client, err := chat.New(cfg, logger)
		if err != nil {
			return nil, err
		}
		session, err := agent.New(cfg, reg, client, logger)
		if err != nil {
			client.Close()
			return nil, err
		}
		return session, nil
	}

	srv := server.New(cfg, factory, logger)
	manager := server.NewShutdownManager(srv, logger)

	shutdownErr := make(chan error, 1)
	go func() {
		shutdownErr <- manager.HandleGracefulShutdown()
	}()

	if err := srv.Start(); err != nil {
		return err
	}
	return <-shutdownErr
}

// setupLogging configures the process logger
func setupLogging(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Logging.Format == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}
