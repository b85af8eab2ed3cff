package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/recollect/internal/errutil"
	"github.com/lazypower/recollect/internal/llm"
	"github.com/lazypower/recollect/internal/logging"
	"github.com/lazypower/recollect/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Args:  validArgs(cobra.NoArgs),
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.Default()

	eng, closeFn, err := openEngine()
	if err != nil {
		return err
	}
	defer closeFn()

	// The API never calls the LLM; the client is only reported.
	if client, err := llm.NewClient(cfg.LLM); err != nil {
		log.Warn("LLM not configured, audit unavailable", "error", err)
	} else {
		eng.LLM = client
		log.Info("llm configured", "provider", cfg.LLM.Provider)
	}

	if h := cfg.Decay.IntervalHours; h > 0 {
		eng.StartDecayTimer(time.Duration(h) * time.Hour)
	}

	srv := server.New(eng, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Warn("recollect serving", "addr", addr, "db", cfg.Database.Path)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-done:
	case err := <-errCh:
		return errutil.Handle(log, err, "server error")
	}
	log.Warn("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
