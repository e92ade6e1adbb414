package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/eugenenazirov/circle-packer/internal/api"
	"github.com/eugenenazirov/circle-packer/internal/config"
	"github.com/eugenenazirov/circle-packer/internal/packing"
	"github.com/eugenenazirov/circle-packer/internal/storage"
)

const redisPingTimeout = 3 * time.Second

// App encapsulates the application dependencies and HTTP server.
type App struct {
	panels  *storage.MemoryStorage
	layouts storage.LayoutStore
	engine  packing.Engine
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
	closers []func() error
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	panels := storage.NewMemoryStorage()
	if err := panels.SetPanel(cfg.Panel); err != nil {
		return nil, fmt.Errorf("failed to apply default panel: %w", err)
	}

	app := &App{
		panels: panels,
		engine: packing.New(),
		logger: logger,
	}

	layouts, err := app.newLayoutStore(cfg)
	if err != nil {
		return nil, err
	}
	app.layouts = layouts

	app.handler = api.NewHandler(app.engine, panels, layouts, api.WithLogger(logger))
	app.router = api.NewRouter(app.handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	rootHandler, err := BuildRootHandler(app.router)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to build HTTP handler: %w", err)
	}

	app.server = NewServer(cfg, rootHandler)
	return app, nil
}

func (a *App) newLayoutStore(cfg config.Config) (storage.LayoutStore, error) {
	switch cfg.LayoutStore {
	case config.LayoutStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := storage.NewRedisLayoutStore(client, storage.WithTTL(cfg.Redis.TTL))

		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}

		a.closers = append(a.closers, client.Close)
		a.logger.Info("using redis layout store", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
		return store, nil
	case config.LayoutStoreMemory, "":
		a.logger.Info("using in-memory layout store", zap.Int("capacity", cfg.LayoutCapacity))
		return storage.NewMemoryLayoutStore(storage.WithCapacity(cfg.LayoutCapacity)), nil
	}
	return nil, fmt.Errorf("unknown layout store %q", cfg.LayoutStore)
}

// BuildRootHandler constructs the root HTTP handler that serves static files and routes API requests.
func BuildRootHandler(apiHandler http.Handler) (http.Handler, error) {
	mux := http.NewServeMux()

	staticPath, err := resolveProjectPath(filepath.Join("web", "static"))
	if err != nil {
		return nil, err
	}
	staticDir := http.Dir(staticPath)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(staticDir)))
	mux.Handle("/api/", apiHandler)

	indexPath, err := resolveProjectPath(filepath.Join("web", "templates", "index.html"))
	if err != nil {
		return nil, err
	}
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, indexPath)
	}))

	return mux, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Close releases connections held by the layout store.
func (a *App) Close() error {
	var errs []error
	for _, closer := range a.closers {
		errs = append(errs, closer())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// resolveProjectPath locates a file or directory relative to the project root by walking up the directory tree.
func resolveProjectPath(relative string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, relative)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("unable to locate %s", relative)
}
