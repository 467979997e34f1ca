package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gradebook/gradebook/internal/api"
	"github.com/gradebook/gradebook/internal/command"
	"github.com/gradebook/gradebook/internal/config"
	"github.com/gradebook/gradebook/internal/metrics"
	"github.com/gradebook/gradebook/internal/record"
	"github.com/gradebook/gradebook/internal/slot"
	"github.com/gradebook/gradebook/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file; defaults are used when it does not exist")
	envFile := flag.String("env-file", ".env", "optional .env file loaded before the config")
	uiDir := flag.String("ui-dir", "", "serve static UI files from this directory (overrides server.ui_dir)")
	flag.Parse()

	level := new(slog.LevelVar)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if err := config.LoadEnv(*envFile); err != nil {
		slog.Error("failed to load env file", "err", err)
		os.Exit(1)
	}

	cfg, watch, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if *uiDir != "" {
		cfg.Server.UIDir = *uiDir
	}
	level.Set(cfg.Log.SlogLevel())

	slog.Info("gradebook starting",
		"config", *configPath,
		"http_port", cfg.Server.HTTPPort,
		"backend", cfg.Storage.Backend,
		"key", cfg.Storage.Key,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sl, err := slot.Open(cfg.Storage)
	if err != nil {
		slog.Error("failed to open storage", "backend", cfg.Storage.Backend, "err", err)
		os.Exit(1)
	}
	st := record.New(sl)

	collector := metrics.New()
	collector.TrackRecords(func() int { return st.Count(context.Background()) })

	cmds := command.New(st, collector)

	hub := ws.New(cmds, cfg.Server.StreamInterval)
	cmds.OnChange(hub.Notify)
	go hub.Run(ctx)

	if watch {
		go func() {
			err := config.Watch(ctx, *configPath, func(c *config.Config) {
				level.Set(c.Log.SlogLevel())
				slog.Info("config reloaded", "log_level", c.Log.Level)
			})
			if err != nil {
				slog.Warn("config watch stopped", "err", err)
			}
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", api.New(cmds))
	mux.Handle("/ws/records", hub)
	mux.Handle("/metrics", collector)
	if dir := cfg.Server.UIDir; dir != "" {
		mux.Handle("/", spaHandler(dir))
		slog.Info("serving UI static files", "dir", dir)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("gradebook shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	srv.Shutdown(shutdownCtx) //nolint:errcheck
}

// loadConfig reads path, or returns the defaults when it does not exist. The
// second result reports whether the file exists and can be watched.
func loadConfig(path string) (*config.Config, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config file not found, using defaults", "path", path)
		return config.Default(), false, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// spaHandler serves files from dir and falls back to index.html for unknown
// paths so client-side routes resolve.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		files.ServeHTTP(w, r)
	})
}
