package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/dtorcivia/flowdash/internal/config"
	"github.com/dtorcivia/flowdash/internal/server"
	"github.com/dtorcivia/flowdash/internal/server/middleware"
	"github.com/dtorcivia/flowdash/internal/status"
	"github.com/dtorcivia/flowdash/internal/util"
	"github.com/dtorcivia/flowdash/internal/webhook"
)

const shutdownTimeout = 30 * time.Second

// loadConfig loads configuration and installs the default logger.
func loadConfig(cCtx *cli.Context) (*config.Config, error) {
	if path := cCtx.String("config"); path != "" {
		if err := os.Setenv("FLOWDASH_CONFIG_FILE", path); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	util.SetDefaultLogger(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))
	return cfg, nil
}

func serveAction(cCtx *cli.Context) error {
	cfg, err := loadConfig(cCtx)
	if err != nil {
		return err
	}
	logger := util.GetDefaultLogger()

	logger.Info("Starting flowdash",
		"version", Version,
		"port", cfg.Server.Port,
		"operations_configured", cfg.Webhooks.ConfiguredCount(),
		"sheets_configured", cfg.Sheets.Configured(),
	)

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Channel for server errors
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	ctx, cancel := context.WithCancel(cCtx.Context)
	defer cancel()

	if err := srv.StartBackgroundWorkers(ctx); err != nil {
		return fmt.Errorf("failed to start background workers: %w", err)
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown
	logger.Info("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
	return nil
}

func triggerAction(cCtx *cli.Context) error {
	name := cCtx.Args().First()
	if name == "" {
		return errors.New("no operation specified")
	}
	op, err := webhook.ParseOperation(name)
	if err != nil {
		return fmt.Errorf("%w: %s (known: %s)", err, name, strings.Join(config.OperationNames, ", "))
	}
	payload, err := buildPayload(cCtx.String("payload"), cCtx.String("category"))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cCtx)
	if err != nil {
		return err
	}
	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	result := srv.Dispatcher().Dispatch(cCtx.Context, op, payload)
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	if !result.OK {
		return fmt.Errorf("%s failed with status %d", op, result.HTTPStatus())
	}
	return nil
}

// buildPayload merges an optional JSON object with the --category flag.
func buildPayload(raw, category string) (webhook.Payload, error) {
	var payload webhook.Payload
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return nil, fmt.Errorf("invalid --payload: %w", err)
		}
	}
	if category != "" {
		if payload == nil {
			payload = webhook.Payload{}
		}
		payload["category"] = category
	}
	return payload, nil
}

func categoriesAction(cCtx *cli.Context) error {
	agg, err := newAggregator(cCtx)
	if err != nil {
		return err
	}
	for _, c := range agg.RefreshCategories(cCtx.Context) {
		fmt.Println(c)
	}
	return nil
}

func statusAction(cCtx *cli.Context) error {
	agg, err := newAggregator(cCtx)
	if err != nil {
		return err
	}
	snap := agg.Refresh(cCtx.Context)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, b := range status.Buckets {
		fmt.Fprintf(w, "%s\t%s\n", b, humanize.Comma(int64(snap.Counts[b])))
	}
	fmt.Fprintf(w, "categories\t%s\n", humanize.Comma(int64(len(snap.Categories))))
	return w.Flush()
}

func newAggregator(cCtx *cli.Context) (*status.Aggregator, error) {
	cfg, err := loadConfig(cCtx)
	if err != nil {
		return nil, err
	}
	if !cfg.Sheets.Configured() {
		return nil, errors.New("spreadsheet not configured: set SHEETS_SPREADSHEET_ID")
	}
	srv, err := server.New(cfg)
	if err != nil {
		return nil, err
	}
	return srv.Aggregator(), nil
}

func hashPasswordAction(cCtx *cli.Context) error {
	password := cCtx.Args().First()
	if password == "" {
		return errors.New("usage: flowdash hash-password \"YourPassword\"")
	}
	hash, err := middleware.HashPassword(password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	fmt.Println(hash)
	return nil
}

func checkConfigAction(cCtx *cli.Context) error {
	cfg, err := loadConfig(cCtx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range config.OperationNames {
		state := "not configured"
		if cfg.Webhooks.URL(name) != "" {
			state = "configured"
		}
		fmt.Fprintf(w, "%s\t%s\n", name, state)
	}
	sheets := "not configured"
	if cfg.Sheets.Configured() {
		sheets = "configured"
	}
	fmt.Fprintf(w, "sheets\t%s\n", sheets)
	fmt.Fprintf(w, "auth\t%v\n", cfg.Auth.Enabled())
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println("Config is valid")
	return nil
}
