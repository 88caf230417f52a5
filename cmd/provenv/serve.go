package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/loykin/provenv"
)

func runServeCommand(flags *ServeFlags, args []string) error {
	configPath := flags.ConfigPath
	if len(args) > 0 {
		configPath = args[0]
	}
	cfg, err := loadRequiredConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Server.Listen == "" {
		return fmt.Errorf("[server] listen must be configured to run serve command")
	}

	ctx := context.Background()
	mgr, err := buildManager(ctx, cfg, flags.DryRun)
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	if err := provenv.RegisterMetricsDefault(); err != nil {
		fmt.Printf("Warning: failed to register metrics: %v\n", err)
	}
	if cfg.Server.MetricsListen != "" {
		go func() {
			if err := provenv.ServeMetrics(cfg.Server.MetricsListen); err != nil {
				fmt.Printf("Metrics server error: %v\n", err)
			}
		}()
	}

	server, err := provenv.NewHTTPServer(cfg.Server.Listen, cfg.Server.BasePath, mgr)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	fmt.Printf("Starting provenv server on %s%s\n", cfg.Server.Listen, cfg.Server.BasePath)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("Shutting down...")
	return server.Close()
}
