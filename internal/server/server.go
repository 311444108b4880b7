package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/sandfs/sandfs/internal/api/http"
	"github.com/sandfs/sandfs/internal/api/middleware"
	"github.com/sandfs/sandfs/internal/api/ws"
	"github.com/sandfs/sandfs/internal/config"
	"github.com/sandfs/sandfs/internal/logging"
	"github.com/sandfs/sandfs/internal/monitoring"
	"github.com/sandfs/sandfs/internal/providers/file"
	"github.com/sandfs/sandfs/internal/service"
	"github.com/sandfs/sandfs/internal/store"
	"github.com/sandfs/sandfs/internal/store/local"
	"github.com/sandfs/sandfs/internal/store/memory"
	"github.com/sandfs/sandfs/internal/vfs"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	store      store.Store
	logger     *logging.Logger
	metrics    *monitoring.Metrics
	done       chan struct{}
}

// New wires the store, engine, registry, transports and middleware
// from configuration.
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	st, err := newStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	engine := vfs.New(st, vfs.WithTempDir(cfg.Storage.TempDir))
	registry := service.NewRegistry()
	if err := registry.Register(file.NewProvider(engine)); err != nil {
		st.Close()
		return nil, fmt.Errorf("register file service: %w", err)
	}

	metrics := monitoring.NewMetrics()

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.CORS.AllowOrigins))
	if cfg.RateLimit.Enabled {
		limits := middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}
		router.Use(middleware.GlobalRateLimit(limits))
		router.Use(middleware.RateLimit(limits))
	}
	router.Use(monitoring.Middleware(metrics))

	handlers := apihttp.NewHandlers(registry, engine, metrics, logger)
	wsHandler := ws.NewHandler(registry, metrics, logger)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/services", handlers.ListServices)
	router.POST("/services/execute", handlers.ExecuteService)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/stream", wsHandler.HandleConnection)

	srv := &Server{
		httpServer: &http.Server{
			Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
			Handler: router,
		},
		store:   st,
		logger:  logger,
		metrics: metrics,
		done:    make(chan struct{}),
	}
	go srv.pollFreeSpace()
	return srv, nil
}

func newStore(cfg config.StorageConfig) (store.Store, error) {
	switch cfg.Backend {
	case "memory":
		return memory.New(cfg.QuotaBytes), nil
	case "local", "":
		return local.New(local.Config{
			Root:       cfg.Root,
			QuotaBytes: cfg.QuotaBytes,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// pollFreeSpace keeps the capacity gauge current.
func (s *Server) pollFreeSpace() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			free, err := s.store.FreeSpace(ctx)
			cancel()
			if err != nil {
				s.logger.Debug("free space poll failed", zap.Error(err))
				continue
			}
			s.metrics.SetStoreFreeSpace(free)
		}
	}
}

// Run starts the server and blocks until it stops.
func (s *Server) Run() error {
	s.logger.Info("starting sandfs",
		zap.String("addr", s.httpServer.Addr),
		zap.String("backend", s.store.Type()),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases resources.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.done)
	err := s.httpServer.Shutdown(ctx)
	if cerr := s.store.Close(); err == nil {
		err = cerr
	}
	return err
}
