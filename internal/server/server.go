// Package server wires the core together and runs the shell-facing
// HTTP listener.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/Zombiegoblin4/Bastion-Browser/internal/api/middleware"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/events"
	bastionhttp "github.com/Zombiegoblin4/Bastion-Browser/internal/http"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/infrastructure/config"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/infrastructure/monitoring"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/logging"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/netclient"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/privacy"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/shared/paths"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/store"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/update"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/update/fetch"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/update/installer"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/update/release"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Server owns the core components and the HTTP listener.
type Server struct {
	cfg     *config.Config
	log     *logging.Logger
	router  *gin.Engine
	http    *http.Server
	privacy *privacy.Engine
	updates *update.Orchestrator
	bus     *events.Bus
}

// Options carries process identity into the server.
type Options struct {
	Version  string
	Packaged bool
	Layout   paths.Layout
}

// NewServer wires every component and registers the routes.
func NewServer(cfg *config.Config, opts Options, log *logging.Logger) *Server {
	layout := opts.Layout
	if layout.Root == "" {
		layout = paths.Default()
	}

	metrics, registry := monitoring.New()
	bus := events.NewBus()
	storage := store.New(layout, log)

	privacyEngine := privacy.NewEngine(storage, layout, bus, log, metrics)

	httpClient := netclient.New(opts.Version, config.GithubToken())
	releases := release.NewClient(httpClient, cfg.Update.ReleasesURL, log)
	fetcher := fetch.New(httpClient, log, metrics)
	archiveInstaller := installer.New(layout, log, "Bastion", nil)

	updates := update.New(update.Deps{
		Layout:     layout,
		Storage:    storage,
		Bus:        bus,
		Log:        log,
		Metrics:    metrics,
		HTTP:       httpClient,
		Releases:   releases,
		Fetcher:    fetcher,
		Installer:  archiveInstaller,
		Env:        cfg.Update,
		AppVersion: opts.Version,
		Packaged:   opts.Packaged,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(middleware.RateLimit(cfg.RateLimit))
	router.Use(monitoring.Middleware(metrics))

	handlers := bastionhttp.NewHandlers(privacyEngine, updates, opts.Version, log)
	wsHandler := ws.NewHandler(bus, privacyEngine, updates, log, metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Privacy engine
	router.GET("/privacy/config", handlers.GetPrivacyConfig)
	router.PATCH("/privacy/config", handlers.PatchPrivacyConfig)
	router.GET("/privacy/stats", handlers.GetPrivacyStats)
	router.POST("/privacy/intercept", handlers.Intercept)
	router.POST("/privacy/headers", handlers.MutateHeaders)
	router.POST("/privacy/permission", handlers.DecidePermission)
	router.POST("/privacy/clear-data", handlers.ClearData)

	// Update pipeline
	router.GET("/update/config", handlers.GetUpdateConfig)
	router.PATCH("/update/config", handlers.PatchUpdateConfig)
	router.GET("/update/status", handlers.GetUpdateStatus)
	router.POST("/update/check", handlers.CheckUpdates)
	router.POST("/update/download", handlers.DownloadUpdate)
	router.POST("/update/install", handlers.InstallUpdate)

	// Event stream
	router.GET("/stream", wsHandler.Stream)

	return &Server{
		cfg:     cfg,
		log:     log,
		router:  router,
		privacy: privacyEngine,
		updates: updates,
		bus:     bus,
	}
}

// Run starts the update loops and serves until the listener fails or
// Close is called.
func (s *Server) Run(ctx context.Context) error {
	s.updates.Start(ctx)

	addr := net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port)
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	s.log.Info("shell API listening", zap.String("addr", addr))

	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Close drains in-flight requests and stops the update loops.
func (s *Server) Close() error {
	s.updates.Close()
	if s.http == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}

// Privacy exposes the engine for in-process callers like exit hooks.
func (s *Server) Privacy() *privacy.Engine { return s.privacy }
