// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/mbd888/scamcheck/internal/assessment"
	"github.com/mbd888/scamcheck/internal/auth"
	"github.com/mbd888/scamcheck/internal/circuitbreaker"
	"github.com/mbd888/scamcheck/internal/config"
	"github.com/mbd888/scamcheck/internal/flows"
	"github.com/mbd888/scamcheck/internal/health"
	"github.com/mbd888/scamcheck/internal/logging"
	"github.com/mbd888/scamcheck/internal/metrics"
	"github.com/mbd888/scamcheck/internal/ratelimit"
	"github.com/mbd888/scamcheck/internal/realtime"
	"github.com/mbd888/scamcheck/internal/retry"
	"github.com/mbd888/scamcheck/internal/risk"
	"github.com/mbd888/scamcheck/internal/security"
	"github.com/mbd888/scamcheck/internal/traces"
	"github.com/mbd888/scamcheck/internal/validation"
)

// Version is reported by /health and /v1/info.
const Version = "0.1.0"

// Outcome writes are skipped for a cooldown after this many consecutive failures.
const (
	outcomeBreakerThreshold = 5
	outcomeBreakerCooldown  = 30 * time.Second
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg           *config.Config
	flowStore     flows.Store
	outcomes      risk.Store
	checks        *assessment.Service
	checkTimer    *assessment.Timer
	authMgr       *auth.Manager
	realtimeHub   *realtime.Hub
	health        *health.Registry
	rateLimiter   *ratelimit.Limiter
	db            *sql.DB // nil if using in-memory
	router        *gin.Engine
	httpSrv       *http.Server
	logger        *slog.Logger
	stopTracing   func(context.Context) error
	cancelRunCtx  context.CancelFunc // cancels background goroutines started in Run
	shutdownGrace time.Duration

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithFlowStore replaces the flow store (for testing)
func WithFlowStore(store flows.Store) Option {
	return func(s *Server) {
		s.flowStore = store
	}
}

// WithShutdownGrace sets how long Shutdown waits before closing listeners.
func WithShutdownGrace(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownGrace = d
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:           cfg,
		logger:        logging.New(cfg.LogLevel, cfg.LogFormat),
		health:        health.NewRegistry(),
		shutdownGrace: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx := context.Background()

	policy, err := assessment.ParsePolicy(cfg.AnswerPolicy)
	if err != nil {
		return nil, err
	}

	// Storage: Postgres if DATABASE_URL is set, otherwise in-memory.
	authStore := auth.Store(auth.NewMemoryStore())
	s.outcomes = risk.NewMemoryStore()
	base := flows.Store(flows.NewDefaultMemoryStore())

	if cfg.DatabaseURL != "" {
		db, err := openDB(ctx, cfg.DatabaseURL, s.logger)
		if err != nil {
			return nil, err
		}
		s.db = db
		s.logger.Info("using PostgreSQL storage", "url", maskDSN(cfg.DatabaseURL))

		pgFlows := flows.NewPostgresStore(db)
		pgOutcomes := risk.NewPostgresStore(db)
		pgAuth := auth.NewPostgresStore(db)
		for name, m := range map[string]interface{ Migrate(context.Context) error }{
			"flows": pgFlows, "outcomes": pgOutcomes, "auth": pgAuth,
		} {
			if err := m.Migrate(ctx); err != nil {
				s.logger.Warn("failed to migrate store", "store", name, "error", err)
			}
		}
		seeded, err := pgFlows.SeedIfEmpty(ctx, flows.Defaults())
		if err != nil {
			return nil, fmt.Errorf("failed to seed flows: %w", err)
		}
		if seeded {
			s.logger.Info("seeded built-in flows into empty database")
		}

		base, s.outcomes, authStore = pgFlows, pgOutcomes, pgAuth
		s.health.Register("database", health.Database(db, 2*time.Second))
	} else {
		s.logger.Info("using in-memory storage (data will not persist)")
	}

	if s.flowStore == nil {
		var overrides []flows.Source
		if cfg.FlowOverrideDir != "" {
			fs, err := flows.LoadDir(cfg.FlowOverrideDir)
			if err != nil {
				return nil, fmt.Errorf("failed to load flow overrides: %w", err)
			}
			if fs.Len() > 0 {
				overrides = append(overrides, fs)
				s.logger.Info("flow overrides loaded", "dir", fs.Dir(), "count", fs.Len())
			}
		}
		s.flowStore = flows.NewLayeredStore(base, overrides...)
	}
	s.health.Register("flows", health.FlowCatalog(s.flowStore, flows.MenuCategories()))

	s.authMgr = auth.NewManager(authStore, cfg.AdminSecret)
	s.realtimeHub = realtime.NewHub(s.logger)

	s.checks = assessment.NewService(s.flowStore, risk.NewClassifier(s.logger), assessment.NewMemoryStore(), s.logger).
		WithOutcomes(assessment.GuardOutcomes(s.outcomes, circuitbreaker.New("outcomes", outcomeBreakerThreshold, outcomeBreakerCooldown))).
		WithPublisher(s.realtimeHub).
		WithPolicy(policy).
		WithTTL(cfg.SessionTTL)
	s.checkTimer = assessment.NewTimer(s.checks, s.logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)
	return s, nil
}

// openDB connects to Postgres, retrying while the database comes up.
func openDB(ctx context.Context, dsn string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	err = retry.Do(ctx, retry.DBConnect, func(attempt int) error {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			logger.Warn("database not reachable", "attempt", attempt, "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// maskDSN hides password in connection string for logging
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	s.router.Use(security.HeadersMiddleware())
	s.router.Use(security.CORSMiddleware(s.cfg.CORSOrigins))
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	s.rateLimiter = ratelimit.New(ratelimit.ConfigForRPM(s.cfg.RateLimitRPM))
	s.router.Use(s.rateLimiter.Middleware())

	s.router.Use(metrics.Middleware())
	s.router.Use(s.requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for existing request ID (from load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" || len(requestID) > 64 {
			requestID = generateRequestID()
		}

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		logger := logging.L(c.Request.Context())

		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// Health & metrics endpoints
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	// Live outcome and flow-change feed
	s.router.GET("/ws/outcomes", func(c *gin.Context) {
		s.realtimeHub.HandleWebSocket(c.Writer, c.Request)
	})

	flowHandler := flows.NewHandler(s.flowStore).WithPublisher(s.realtimeHub)
	checkHandler := assessment.NewHandler(s.checks)
	outcomeHandler := risk.NewHandler(s.outcomes)
	authHandler := auth.NewHandler(s.authMgr)

	// PUBLIC ROUTES
	v1 := s.router.Group("/v1")
	v1.Use(validation.CategoryParamMiddleware())
	v1.GET("/info", s.infoHandler)
	flowHandler.RegisterRoutes(v1)
	checkHandler.RegisterRoutes(v1)

	// ADMIN ROUTES (credentials resolved once; each group applies its gate)
	admin := v1.Group("/admin")
	admin.Use(auth.Middleware(s.authMgr))
	authHandler.RegisterAdminRoutes(admin)

	viewer := admin.Group("", auth.RequireViewer())
	outcomeHandler.RegisterAdminRoutes(viewer)
	flowHandler.RegisterViewerRoutes(viewer)
	viewer.GET("/realtime/stats", s.realtimeStatsHandler)

	editor := admin.Group("", auth.RequireEditor())
	flowHandler.RegisterEditorRoutes(editor)
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

// HealthResponse for health check endpoints
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Checks    []health.Status `json:"checks,omitempty"`
	Timestamp string          `json:"timestamp"`
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	healthy, checks := s.health.CheckAll(ctx)

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Version:   Version,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) infoHandler(c *gin.Context) {
	storage := "memory"
	if s.db != nil {
		storage = "postgres"
	}
	c.JSON(http.StatusOK, gin.H{
		"name":          "scamcheck",
		"description":   "Scam risk self-assessment",
		"version":       Version,
		"storage":       storage,
		"answerPolicy":  s.cfg.AnswerPolicy,
		"sessionTtl":    s.checks.TTL().String(),
		"categoryCount": len(flows.MenuCategories()),
	})
}

func (s *Server) realtimeStatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.realtimeHub.Stats())
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server with graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	// Create a cancellable context for background goroutines so Shutdown() can stop them.
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	stopTracing, err := traces.Init(runCtx, traces.Options{
		Endpoint:    s.cfg.OTLPEndpoint,
		SampleRatio: s.cfg.TraceSampleRatio,
		Version:     Version,
	}, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize tracing", "error", err)
	} else {
		s.stopTracing = stopTracing
	}

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port, "env", s.cfg.Env)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	go s.realtimeHub.Run(runCtx)
	go s.checkTimer.Start(runCtx)
	if s.db != nil {
		go metrics.StartDBStatsCollector(runCtx, s.db, 15*time.Second)
	}

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	// Give load balancers time to stop sending traffic
	time.Sleep(s.shutdownGrace)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.checkTimer.Stop()
	s.rateLimiter.Stop()

	if s.stopTracing != nil {
		if err := s.stopTracing(ctx); err != nil {
			s.logger.Error("tracing shutdown error", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func generateRequestID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
