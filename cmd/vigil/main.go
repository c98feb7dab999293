// CLAUDE:SUMMARY Entry point for the vigil service — YAML config plus env overrides, SQLite audit DB, chi HTTP, optional MCP stdio.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/vigil"
	"github.com/hazyhaar/vigil/internal/dbopen"
	"github.com/hazyhaar/vigil/internal/store"
)

func main() {
	mcpTransport := env("MCP_TRANSPORT", "")
	logLevel := env("LOG_LEVEL", "info")

	// Logging. Stderr: stdout belongs to the MCP stdio transport.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Configuration: defaults, then optional YAML file, then env overrides.
	cfg := vigil.DefaultConfig()
	if path := env("VIGIL_CONFIG", ""); path != "" {
		loaded, err := vigil.LoadFile(path)
		if err != nil {
			slog.Error("load config", "path", path, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("CAPTURE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Error("CAPTURE_INTERVAL", "value", v, "error", err)
			os.Exit(1)
		}
		cfg.Capture.Interval = d
	}
	if v := os.Getenv("OCR_LANG"); v != "" {
		cfg.OCR.Language = v
	}
	if v := os.Getenv("SUMMARY_BASE_URL"); v != "" {
		cfg.Summary.BaseURL = v
	}
	if v := os.Getenv("SUMMARY_MODEL"); v != "" {
		cfg.Summary.Model = v
	}
	if v := os.Getenv("SUMMARY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Error("SUMMARY_TIMEOUT", "value", v, "error", err)
			os.Exit(1)
		}
		cfg.Summary.Timeout = d
	}

	// Audit DB.
	db, err := dbopen.Open(filepath.Join(cfg.DataDir, "vigil.db"),
		dbopen.WithMkdirAll(), dbopen.WithSchema(store.Schema))
	if err != nil {
		slog.Error("open db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Vigil service.
	svc, err := vigil.New(db, cfg, logger)
	if err != nil {
		slog.Error("vigil service", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	// Optional MCP over stdio.
	if mcpTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "vigil",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)

		go func() {
			slog.Info("MCP stdio starting")
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("MCP stdio", "error", err)
			}
		}()
	}

	// Start the capture scheduler.
	svc.Start(ctx)

	// HTTP server.
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           svc.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// --- Helpers ---

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
