package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/kestrelworks/skybridge/mcpserver"
	"github.com/kestrelworks/skybridge/weather"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	httpAddr := flag.String("http", "", "Serve MCP over HTTP on this address (e.g. :9000) instead of stdio")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Println("skybridge-weather", Version)
		return
	}

	// stdout carries the protocol in stdio mode, so all logging goes
	// to stderr
	logger := setupLogging(*logLevel)

	srv := mcpserver.New(weather.NewClient(logger), logger)

	if *httpAddr != "" {
		if err := serveHTTP(srv, *httpAddr, logger); err != nil {
			logger.Error().Err(err).Msg("server failed")
			os.Exit(1)
		}
		return
	}

	if err := srv.ServeStdio(); err != nil {
		logger.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

// serveHTTP runs the HTTP mode until SIGINT or SIGTERM, then drains
func serveHTTP(srv *mcpserver.Server, addr string, logger zerolog.Logger) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("serving MCP over HTTP")
		if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-signals:
		logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return <-errCh
}

func setupLogging(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Logger()
}
