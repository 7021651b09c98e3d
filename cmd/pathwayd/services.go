// File path: cmd/pathwayd/services.go
package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/nextsteplk/pathway/internal/common"
	"github.com/nextsteplk/pathway/internal/common/process"
	"github.com/nextsteplk/pathway/internal/graph/kuzu"
)

// startIntegrations launches the Kuzu helper server when autostart is enabled
// and a binary is configured. Failure to start is logged, not fatal; the
// orchestrator falls back to the in-memory graph.
func startIntegrations(ctx context.Context, enabled bool) []*process.ManagedService {
	if !enabled {
		return nil
	}
	logger := common.Logger()
	var managed []*process.ManagedService

	binary := strings.TrimSpace(os.Getenv("KUZU_SERVER_BIN"))
	if binary == "" {
		if found, err := process.BinaryPath("kuzu-server"); err == nil {
			binary = found
		}
	}
	if binary == "" {
		logger.Info("services: no kuzu binary configured, skipping autostart")
		return managed
	}

	cfg, err := kuzu.LoadConfig()
	if err != nil {
		logger.Warn("services: kuzu config unavailable", "error", err)
		return managed
	}
	svc, err := process.Start(ctx, process.ServiceConfig{
		Name:          "kuzu",
		Command:       binary,
		Args:          []string{"--database", cfg.Database},
		ReadyURL:      strings.TrimRight(cfg.Endpoint, "/") + "/health",
		ReadyTimeout:  30 * time.Second,
		ReadyInterval: 500 * time.Millisecond,
		StopTimeout:   10 * time.Second,
	})
	if err != nil {
		logger.Warn("services: kuzu autostart failed", "error", err)
		return managed
	}
	managed = append(managed, svc)
	return managed
}

func stopIntegrations(services []*process.ManagedService) {
	for i := len(services) - 1; i >= 0; i-- {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := services[i].Stop(ctx); err != nil {
			common.Logger().Warn("services: stop failed", "error", err)
		}
		cancel()
	}
}
