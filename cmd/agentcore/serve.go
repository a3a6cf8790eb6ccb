package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ollamabot/agentcore/pkg/telemetry"
)

// ServeCmd starts the loopback-only telemetry server of spec §4.9 and
// blocks until interrupted. It exposes /metrics and /healthz only;
// agentcore has no network-facing agent server (spec §1 non-goals).
type ServeCmd struct {
	Addr string `help:"Address the telemetry server listens on (127.0.0.1 only)." default:"127.0.0.1:9090"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	addr := c.Addr
	if addr == "" {
		addr = cfg.Telemetry.Addr
	}

	port := 0
	if _, err := fmt.Sscanf(addr, "127.0.0.1:%d", &port); err != nil {
		slog.Warn("could not parse telemetry port from addr, using an ephemeral port", "addr", addr)
	}

	metrics := telemetry.New(true)
	server := telemetry.NewServer(metrics, port)
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start telemetry server: %w", err)
	}

	fmt.Printf("telemetry server listening on http://%s\n", server.Addr())
	fmt.Printf("  metrics: http://%s/metrics\n", server.Addr())
	fmt.Printf("  healthz: http://%s/healthz\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
