// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tejashwikalptaru/gostream/internal/adapter/catalog/jsonfile"
	"github.com/tejashwikalptaru/gostream/internal/adapter/catalog/tagscan"
	"github.com/tejashwikalptaru/gostream/internal/adapter/catalog/watch"
	"github.com/tejashwikalptaru/gostream/internal/adapter/device/mock"
	"github.com/tejashwikalptaru/gostream/internal/adapter/device/remote"
	"github.com/tejashwikalptaru/gostream/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/gostream/internal/adapter/httpapi"
	"github.com/tejashwikalptaru/gostream/internal/adapter/realtime"
	"github.com/tejashwikalptaru/gostream/internal/adapter/repository/kv"
	"github.com/tejashwikalptaru/gostream/internal/adapter/storage"
	"github.com/tejashwikalptaru/gostream/internal/config"
	"github.com/tejashwikalptaru/gostream/internal/logger"
	"github.com/tejashwikalptaru/gostream/internal/ports"
	"github.com/tejashwikalptaru/gostream/internal/service"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for cmd/gostream
type Application struct {
	// Core dependencies
	cfg    *config.Config
	logger *slog.Logger

	// Infrastructure
	eventBus *eventbus.SyncEventBus
	store    ports.KeyValueStore
	source   ports.CatalogSource

	// Services
	libraryService    *service.LibraryService
	sessionManager    *service.SessionManager
	collectionService *service.CollectionService
	preferenceService *service.PreferenceService
	statsService      *service.StatsService

	// Transports
	hub     *realtime.Hub
	bridge  *realtime.Bridge
	handler http.Handler

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewCatalogSource builds the catalog source named by the configuration.
func NewCatalogSource(cfg *config.Config, log *slog.Logger) ports.CatalogSource {
	if cfg.Catalog.Type == config.CatalogTagScan {
		return tagscan.New(cfg.TagScan(), log)
	}
	return jsonfile.New(cfg.JSONFile(), log)
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function. The catalog is loaded
// before it returns.
func NewApplication(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewLogger(cfg.Logger())
	}
	app := &Application{cfg: cfg, logger: log}

	app.logger.Info("initializing application",
		slog.String("version", GetVersionInfo().FullString()),
		slog.String("catalog", cfg.Catalog.Type),
		slog.String("store", cfg.Store.Type),
		slog.String("device", cfg.Player.Device))

	// Step 1: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus()
	app.eventBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))

	// Step 2: Open the key-value store
	store, err := storage.New(ctx, cfg.Store, app.logger)
	if err != nil {
		_ = app.eventBus.Close()
		return nil, errors.Wrap(err, "failed to open store")
	}
	app.store = store

	// Step 3: Create repositories
	playlists := kv.NewPlaylistRepository(store, app.logger)
	likes := kv.NewLikeRepository(store, app.logger)
	follows := kv.NewFollowRepository(store, app.logger)
	history := kv.NewHistoryRepository(store, app.logger)
	prefs := kv.NewPreferencesRepository(store, app.logger)

	// Step 4: Create services (with dependency injection)
	app.source = NewCatalogSource(cfg, app.logger)
	app.libraryService = service.NewLibraryService(app.logger, app.source, app.eventBus)

	var devices ports.DeviceFactory
	if cfg.Player.Device == config.DeviceMock {
		devices = mock.NewFactory(app.eventBus, app.logger)
	} else {
		devices = remote.NewFactory(app.eventBus, app.logger)
	}
	app.sessionManager = service.NewSessionManager(
		app.logger, app.eventBus, app.libraryService, devices, history, cfg.PlayerOptions())

	app.collectionService = service.NewCollectionService(app.logger, playlists, likes, follows, app.eventBus)
	app.preferenceService = service.NewPreferenceService(app.logger, prefs, app.eventBus)
	app.statsService = service.NewStatsService(history)

	// Step 5: Load the catalog
	if err := app.libraryService.Reload(ctx); err != nil {
		_ = app.Shutdown()
		return nil, err
	}

	// Step 6: Create transports
	app.hub = realtime.NewHub(app.logger)
	app.bridge = realtime.NewBridge(app.eventBus, app.hub, app.logger)

	var secret []byte
	if cfg.Auth.JWTSecret != "" {
		secret = []byte(cfg.Auth.JWTSecret)
	}
	api := httpapi.NewServer(app.logger, httpapi.Config{
		JWTSecret:   secret,
		DefaultUser: cfg.Auth.DefaultUser,
		CORSOrigin:  cfg.Server.CORSOrigin,
	}, httpapi.Deps{
		Library:     app.libraryService,
		Sessions:    app.sessionManager,
		Collections: app.collectionService,
		Preferences: app.preferenceService,
		Stats:       app.statsService,
		Reporter:    remote.NewReporter(app.eventBus),
		Stream:      app.hub,
	})

	router := api.Router()
	if cfg.Catalog.Type == config.CatalogTagScan {
		// Scanned tracks point below the URL prefix; serve the files themselves.
		prefix := strings.TrimSuffix(cfg.Catalog.URLPrefix, "/")
		router.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.Catalog.MusicDir))))
	}
	app.handler = router

	return app, nil
}

// Handler returns the HTTP handler of the application.
func (a *Application) Handler() http.Handler {
	return a.handler
}

// Library returns the catalog service.
func (a *Application) Library() *service.LibraryService {
	return a.libraryService
}

// Sessions returns the player session manager.
func (a *Application) Sessions() *service.SessionManager {
	return a.sessionManager
}

// EventBus returns the application event bus.
func (a *Application) EventBus() ports.EventBus {
	return a.eventBus
}

// Run serves HTTP on the configured address until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", a.cfg.Server.Addr)
	}
	return a.Serve(ctx, ln)
}

// Serve serves HTTP on ln until ctx is cancelled, then shuts the server
// down gracefully. The realtime hub and the catalog watcher run alongside.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	server := &http.Server{
		Handler:      a.handler,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.hub.Run(ctx)
	}()

	if a.cfg.Catalog.Watch {
		watcher := watch.New(a.cfg.CatalogPath(), a.libraryService, watch.DefaultDebounce, a.logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watcher.Run(ctx); err != nil {
				a.logger.Warn("catalog watcher stopped", slog.Any("error", err))
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("GoStream server started", slog.String("addr", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("received shutdown signal")
	case err := <-serveErr:
		runErr = errors.Wrap(err, "server error")
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("failed to shutdown server", slog.Any("error", err))
	}

	cancel()
	wg.Wait()
	<-serveErr

	a.logger.Info("server stopped")
	return runErr
}

// Shutdown gracefully shuts down the application.
// It is safe to call more than once.
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		if a.bridge != nil {
			a.bridge.Close()
		}

		// Shutdown services (in reverse order of creation)
		if a.sessionManager != nil {
			a.sessionManager.Shutdown()
		}

		if a.store != nil {
			if err := a.store.Close(); err != nil {
				a.logger.Warn("failed to close store", slog.Any("error", err))
				a.shutdownErr = errors.Wrap(err, "close store")
			}
		}

		if err := a.eventBus.Close(); err != nil {
			a.logger.Warn("failed to close event bus", slog.Any("error", err))
		}

		a.logger.Info("application shutdown complete")
	})
	return a.shutdownErr
}
