// cmd/nutrition-tracker/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"mcp-nutrition-tracker/internal/server"
)

var (
	port    = flag.Int("port", 8012, "Port for HTTP transport")
	host    = flag.String("host", "0.0.0.0", "Host address")
	address = flag.String("address", "", "Address (alias for host)")
	dbPath  = flag.String("db-path", "/data/nutrition-tracker.db", "Database path")
	debug   = flag.Bool("debug", false, "Enable debug logging")
	version = flag.Bool("version", false, "Show version")
)

func main() {
	godotenv.Load()
	flag.Parse()

	if *version {
		fmt.Println("mcp-nutrition-tracker version 1.0.0")
		os.Exit(0)
	}

	logger, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Use address if provided, otherwise use host
	hostAddr := *host
	if *address != "" {
		hostAddr = *address
	}

	config := &server.Config{
		Host:   hostAddr,
		Port:   *port,
		DBPath: *dbPath,
	}

	srv, err := server.NewNutritionServer(config, logger)
	if err != nil {
		logger.Fatal("failed to create server", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-sigCh:
		logger.Info("received shutdown signal")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	logger.Info("shutting down")
	cancel()
	if err := srv.Stop(); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
