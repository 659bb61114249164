package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gcviewer/backend/internal/api"
	"github.com/gcviewer/backend/internal/config"
	"github.com/gcviewer/backend/internal/dataset"
	"github.com/gcviewer/backend/internal/logging"
	"github.com/gcviewer/backend/internal/prefs"
	"github.com/gcviewer/backend/internal/watch"
	"github.com/gcviewer/backend/internal/workspace"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveConfigPath string

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "config file (default: "+config.FileName+" next to the executable)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gcviewer server",
	Long: `Starts the HTTP API, the document event WebSocket and the file
watcher that keeps watched documents following their logs.

The config file is created with defaults on first run.

Example:
  gcviewer serve
  gcviewer serve -c /etc/gcviewer/gcviewer.config.xml`,
	RunE: runServe,
}

func defaultConfigPath() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(exePath), config.FileName), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath := serveConfigPath
	if configPath == "" {
		var err error
		if configPath, err = defaultConfigPath(); err != nil {
			return err
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.SetLevel(cfg.Advanced.LogLevel)
	logger := logging.New("server")

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	catalog, err := dataset.NewCatalog(cfg.Catalog.Path, cfg.CatalogPragmas())
	if err != nil {
		return fmt.Errorf("failed to open dataset catalog: %w", err)
	}
	defer catalog.Close()

	prefsFile, err := cfg.GetPreferencesFile()
	if err != nil {
		return fmt.Errorf("failed to locate preferences: %w", err)
	}
	store := prefs.NewStore(prefsFile).Load()

	var watcher *watch.FileWatcher
	if cfg.Watch.Enabled {
		if watcher, err = watch.NewFileWatcher(cfg.GetWatchDebounce()); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws := workspace.NewManager(catalog, store, watcher)
	if watcher != nil {
		watcher.Start(ctx, ws.HandleFileEvent)
	}

	hub := api.NewEventHub(ws)
	go hub.Run(ctx)

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e, api.MiddlewareOptions{
		RequestLogging: cfg.Advanced.EnableRequestLogging,
		EnableCORS:     cfg.Server.EnableCORS,
		AllowOrigins:   cfg.GetAllowOrigins(),
		BodyLimit:      cfg.Server.BodyLimit,
	})
	api.RegisterRoutes(e, api.NewHandler(ws, catalog, Version), hub)

	s := &http.Server{
		Addr:        cfg.GetServerAddr(),
		ReadTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		IdleTimeout: time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	fmt.Printf("\n")
	fmt.Printf("  GCViewer backend %s (built %s)\n", Version, BuildTime)
	fmt.Printf("  Config:      %s\n", configPath)
	fmt.Printf("  Listen:      http://%s\n", cfg.GetServerAddr())
	fmt.Printf("  Preferences: %s (%s)\n", store.Path(), store.State())
	if catalog.Path() != "" {
		fmt.Printf("  Catalog:     %s\n", catalog.Path())
	} else {
		fmt.Printf("  Catalog:     in memory\n")
	}
	fmt.Printf("\n")

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.StartServer(s)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			ws.Shutdown()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	ws.Shutdown()
	return nil
}
