package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// SignalHandler manages graceful shutdown of the HTTP server
type SignalHandler struct {
	server          *http.Server
	shutdownTimeout time.Duration
	cleanup         []func()
	logger          *slog.Logger
}

// NewSignalHandler creates a new signal handler. cleanup runs in order
// before the HTTP server is shut down.
func NewSignalHandler(server *http.Server, shutdownTimeout time.Duration, logger *slog.Logger, cleanup ...func()) *SignalHandler {
	return &SignalHandler{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		cleanup:         cleanup,
		logger:          logger,
	}
}

// WaitForShutdown waits for SIGINT or SIGTERM and shuts down gracefully
func (sh *SignalHandler) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	sig := <-quit
	sh.logger.Info("Received signal, initiating graceful shutdown", "signal", sig.String())
	sh.Shutdown()
}

// Shutdown runs the cleanup functions and stops the HTTP server
func (sh *SignalHandler) Shutdown() {
	for _, fn := range sh.cleanup {
		fn()
	}

	ctx, cancel := context.WithTimeout(context.Background(), sh.shutdownTimeout)
	defer cancel()

	if err := sh.server.Shutdown(ctx); err != nil {
		sh.logger.Error("Server forced to shutdown due to timeout", "error", err)
	} else {
		sh.logger.Info("Server gracefully shut down")
	}
}

// HandleSignals starts the server and blocks until a shutdown signal has
// been handled. A listen failure is returned immediately.
func HandleSignals(server *http.Server, shutdownTimeout time.Duration, logger *slog.Logger, cleanup ...func()) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	done := make(chan struct{})
	handler := NewSignalHandler(server, shutdownTimeout, logger, cleanup...)
	go func() {
		handler.WaitForShutdown()
		close(done)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return err
		}
		<-done
		return nil
	case <-done:
		return nil
	}
}
