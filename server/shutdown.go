package server

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// ShutdownManager drives graceful shutdown of the HTTP front end when
// a termination signal arrives
type ShutdownManager struct {
	server  *Server
	timeout time.Duration
	logger  zerolog.Logger
}

// NewShutdownManager wires signal handling to a server
func NewShutdownManager(server *Server, logger zerolog.Logger) *ShutdownManager {
	return &ShutdownManager{
		server:  server,
		timeout: 30 * time.Second,
		logger:  logger.With().Str("component", "shutdown").Logger(),
	}
}

// HandleGracefulShutdown blocks until SIGINT or SIGTERM, then drains
// the server and closes its sessions, bounded by the manager's timeout
func (sm *ShutdownManager) HandleGracefulShutdown() error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	sig := <-signals
	sm.logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	done := make(chan error, 1)
	go func() {
		done <- sm.server.Shutdown()
	}()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
		sm.logger.Info().Msg("graceful shutdown completed")
		return nil
	case <-time.After(sm.timeout):
		return fmt.Errorf("shutdown timed out after %s", sm.timeout)
	}
}
