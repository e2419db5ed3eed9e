package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docqa/internal/api"
	"github.com/dgallion1/docqa/internal/llm"
	"github.com/dgallion1/docqa/internal/rag"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the index, then serve POST /chat",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	completer, closeCompleter, err := newCompleter(cfg)
	if err != nil {
		return err
	}
	defer closeCompleter()

	ix, report, err := buildIndex(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		return err
	}

	stats := llm.NewStats(cfg.StatsWindow)
	svc := rag.NewService(
		rag.NewRetriever(ix, cfg.TopK),
		rag.NewGenerator(llm.WithStats(completer, stats)),
		cfg.TopK,
		log,
	)
	srv := api.NewServer(api.Deps{
		Service:  svc,
		Index:    ix,
		Report:   report,
		LLMStats: stats,
		LLMModel: completer.Model(),
	}, log)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting docqa", "port", cfg.Port, "chunks", ix.Len(), "llm", completer.Model())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
