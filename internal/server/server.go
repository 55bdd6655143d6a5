package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/payinhq/payin-calculator/internal/apidoc"
	"github.com/payinhq/payin-calculator/internal/config"
	"github.com/payinhq/payin-calculator/internal/constants"
	"github.com/payinhq/payin-calculator/internal/observability"
	"github.com/payinhq/payin-calculator/internal/ratetable"
	"github.com/payinhq/payin-calculator/internal/security"
)

type Server struct {
	config *config.Config
	store  *ratetable.Store
	cache  *sync.Map
	server *http.Server

	// Security
	authManager *security.AuthManager
	rateLimiter *security.RateLimiter

	// Observability
	logger    *observability.Logger
	metrics   *observability.Metrics
	tracer    *observability.Tracer
	startTime time.Time

	openapi []byte
}

func New(cfg *config.Config) (*Server, error) {
	logger, err := observability.NewLogger(cfg.Observability.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	metrics := observability.NewMetrics()
	if err := metrics.Register(); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	tracer, err := observability.NewTracer(cfg.Observability.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	authManager := security.NewAuthManager(&cfg.Security.Auth)
	rateLimiter := security.NewRateLimiter(&cfg.Security.RateLimit)

	openapi, err := apidoc.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to build OpenAPI document: %w", err)
	}

	s := &Server{
		config:      cfg,
		store:       ratetable.NewStore(),
		cache:       &sync.Map{},
		authManager: authManager,
		rateLimiter: rateLimiter,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
		startTime:   time.Now(),
		openapi:     openapi,
	}

	// The original deployment served (unhealthily) without its workbook, so
	// a missing or broken table is logged rather than fatal.
	if cfg.Table.Path != "" {
		if err := s.loadTable(); err != nil {
			logger.Logger.Error("Failed to load rate table",
				zap.String("path", cfg.Table.Path),
				zap.Error(err),
			)
		}
	} else {
		logger.Logger.Warn("No rate table configured, serving unhealthy")
	}

	return s, nil
}

// loadTable reads the configured table file and publishes it.
func (s *Server) loadTable() error {
	table, err := ratetable.Load(s.config.Table.Path, s.config.Table.Sheet)
	if err != nil {
		s.metrics.RecordTableReload("error")
		return err
	}

	s.store.Set(table)
	s.cache.Clear()
	s.metrics.RecordTableReload("success")
	s.metrics.SetTableRows(table.Len())
	s.metrics.SetHealthStatus(true)

	s.logger.Logger.Info("Rate table loaded",
		zap.String("path", s.config.Table.Path),
		zap.Int("rows", table.Len()),
		zap.Int("columns", len(table.Columns)),
	)
	return nil
}

// Reload re-reads the rate table. It implements hotreload.Reloadable; the
// previous table stays published when the new file fails to parse.
func (s *Server) Reload(ctx context.Context) error {
	return s.loadTable()
}

// Name implements hotreload.Reloadable.
func (s *Server) Name() string {
	return "rate-table"
}

// Store exposes the table store, primarily for tests.
func (s *Server) Store() *ratetable.Store {
	return s.store
}

// Handler builds the full route table with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.instrument("/", s.rootHandler))

	// The original accepts both the bare path and a trailing slash
	mux.HandleFunc("GET "+constants.PathData, s.instrument(constants.PathData, s.dataHandler))
	mux.HandleFunc("GET "+constants.PathData+"/{$}", s.instrument(constants.PathData, s.dataHandler))

	mux.HandleFunc("GET "+constants.PathProducts+"/{lender}", s.instrument(constants.PathProducts, s.productsHandler))
	mux.HandleFunc("GET "+constants.PathRegions+"/{lender}/{product}", s.instrument(constants.PathRegions, s.regionsHandler))

	mux.HandleFunc("POST "+constants.PathCalculate, s.instrument(constants.PathCalculate, s.calculateHandler))
	mux.HandleFunc("POST "+constants.PathCalculate+"/{$}", s.instrument(constants.PathCalculate, s.calculateHandler))

	mux.HandleFunc("GET "+constants.PathHealth, s.instrument(constants.PathHealth, s.healthHandler))
	mux.HandleFunc("GET "+constants.PathHealth+"/{$}", s.instrument(constants.PathHealth, s.healthHandler))
	mux.HandleFunc("GET "+constants.PathReady, s.instrument(constants.PathReady, s.readinessHandler))
	mux.HandleFunc("GET "+constants.PathOpenAPI, s.instrument(constants.PathOpenAPI, s.openapiHandler))
	mux.HandleFunc("GET "+constants.PathMetrics, s.metricsHandler)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.sendErrorResponse(w, http.StatusNotFound, "Endpoint not found")
	})

	return s.applyMiddleware(mux)
}

func (s *Server) Start() error {
	handler := s.Handler()

	s.server = &http.Server{
		Addr:           s.config.GetServerAddress(),
		Handler:        handler,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: constants.ServerMaxHeaderBytes,
	}

	s.logger.Logger.Info("Starting server",
		zap.String("host", s.config.Server.Host),
		zap.String("port", s.config.Server.Port),
		zap.Bool("tls", s.config.TLS.Enabled),
		zap.Int("table_rows", s.store.Get().Len()),
	)

	s.metrics.SetHealthStatus(s.store.Loaded())

	// Metrics get their own listener so scrapes stay off the API port
	var metricsServer *http.Server
	if s.config.Observability.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(s.config.Observability.Metrics.Path, s.metrics.Handler())
		metricsServer = &http.Server{
			Addr:              s.config.GetMetricsAddress(),
			Handler:           metricsMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		s.logger.Logger.Info("Starting metrics server",
			zap.String("port", s.config.Server.MetricsPort),
		)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	go func() {
		var err error
		if s.config.TLS.Enabled {
			err = s.server.ListenAndServeTLS(s.config.TLS.CertFile, s.config.TLS.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	s.logger.Logger.Info("Shutting down server...")
	s.metrics.SetHealthStatus(false)

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	if metricsServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.logger.Logger.Info("Shutting down metrics server...")
			if err := metricsServer.Shutdown(ctx); err != nil {
				s.logger.Logger.Error("Failed to shutdown metrics server", zap.Error(err))
				errChan <- fmt.Errorf("metrics server shutdown: %w", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.logger.Logger.Info("Shutting down main server...")
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Logger.Error("Failed to shutdown main server", zap.Error(err))
			errChan <- fmt.Errorf("main server shutdown: %w", err)
		}
	}()

	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}
