// File path: cmd/pathwayd/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nextsteplk/pathway/internal/api"
	"github.com/nextsteplk/pathway/internal/common"
	"github.com/nextsteplk/pathway/internal/data/orchestrator"
	"github.com/nextsteplk/pathway/internal/graph"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		common.Logger().Warn("main: could not load .env", "error", err)
	}

	addr := flag.String("addr", ":8085", "listen address")
	cachePath := flag.String("cache", "", "cache database path (overrides CACHE_DB_PATH)")
	seedPath := flag.String("seed", "", "dataset JSON to seed the graph with")
	autoStart := flag.Bool("auto-start-integrations", false, "launch the kuzu helper server")
	flag.Parse()

	logger := common.Logger()
	if *cachePath != "" {
		os.Setenv("CACHE_DB_PATH", *cachePath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services := startIntegrations(ctx, *autoStart)
	defer stopIntegrations(services)

	orc, err := orchestrator.New(ctx)
	if err != nil {
		logger.Error("main: orchestrator init failed", "error", err)
		os.Exit(1)
	}
	defer orc.Close()

	if *seedPath != "" {
		if err := seedGraph(ctx, orc, *seedPath); err != nil {
			logger.Error("main: seeding failed", "path", *seedPath, "error", err)
			os.Exit(1)
		}
	}

	server := &http.Server{
		Addr:         *addr,
		Handler:      api.NewServer(orc).Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("main: listening", "addr", *addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("main: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("main: shutdown incomplete", "error", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("main: server failed", "error", err)
			os.Exit(1)
		}
	}
}

func seedGraph(ctx context.Context, orc *orchestrator.Orchestrator, path string) error {
	dataset, err := graph.LoadDataset(path)
	if err != nil {
		return err
	}
	if err := graph.Seed(ctx, orc.Graph(), dataset); err != nil {
		return err
	}
	common.Logger().Info("main: graph seeded", "path", path)
	return nil
}
