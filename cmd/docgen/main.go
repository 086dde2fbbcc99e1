// docgen server — ingests sources, runs the generation workflow graph, and
// streams progress to clients over SSE.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/docgen-ai/docgen/pkg/api"
	"github.com/docgen-ai/docgen/pkg/cache"
	"github.com/docgen-ai/docgen/pkg/config"
	"github.com/docgen-ai/docgen/pkg/events"
	"github.com/docgen-ai/docgen/pkg/ingest"
	"github.com/docgen-ai/docgen/pkg/llm"
	"github.com/docgen-ai/docgen/pkg/render"
	"github.com/docgen-ai/docgen/pkg/tts"
	"github.com/docgen-ai/docgen/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./config"),
		"Path to configuration directory")
	flag.Parse()

	// Load .env file from config directory
	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", envPath)
	}

	slog.Info("Starting docgen",
		"version", version.Full(),
		"config_dir", *configDir)

	// 1. Initialize configuration
	cfg, err := config.Initialize(*configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}
	httpPort := getEnv("HTTP_PORT", cfg.Server.Port)

	// 2. Cache & manifest store
	store, err := cache.NewStore(cfg.Storage.CacheRoot, cfg.Storage.OutputRoot, slog.Default())
	if err != nil {
		slog.Error("Failed to initialize cache store", "error", err)
		os.Exit(1)
	}
	slog.Info("Cache store initialized",
		"cache_root", cfg.Storage.CacheRoot,
		"output_root", cfg.Storage.OutputRoot)

	// 3. LLM gateway and usage accounting
	usage := llm.NewUsageRegistry()
	gateway := llm.NewGateway(cfg.Providers, usage, cfg.Generation.CallTimeout)

	// 4. Ingestion: upload staging, URL fetching, file parsers
	uploads, err := ingest.NewUploadStore(filepath.Join(cfg.Storage.OutputRoot, "_uploads"))
	if err != nil {
		slog.Error("Failed to initialize upload store", "error", err)
		os.Exit(1)
	}
	fetcher := ingest.NewFetcher(nil, slog.Default())
	parsers := ingest.NewParserRegistry()
	ingestSvc := ingest.NewService(uploads, fetcher, parsers, gateway, slog.Default())

	// 5. Renderers and speech synthesis
	renderers := render.NewRegistry()
	synth := tts.NewGeminiSynthesizer(slog.Default())

	// 6. WebSocket mirror of the progress streams
	hub := events.NewHub(10*time.Second, slog.Default())

	// 7. HTTP server
	server := api.NewServer(cfg, gateway, store, ingestSvc, renderers, synth, hub, slog.Default())

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + httpPort
		slog.Info("HTTP server listening", "addr", addr)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	// 8. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 9. Graceful shutdown: stop accepting requests, give in-flight
	// generation streams a bounded drain window, then drop WS connections.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	hub.Close()

	slog.Info("docgen stopped")
}
