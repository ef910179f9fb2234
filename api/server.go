// Package api serves the oracle over HTTP: public price checks, an
// operator-only key rotation endpoint, health and metrics, and a websocket
// stream of oracle events.
package api

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/handlers"
	"github.com/gorilla/websocket"

	"github.com/0xOmarA/radix-oracle-contracts/api/health"
)

// Version is reported by the health endpoints.
const Version = "1.0.0"

// Server represents the main API server
type Server struct {
	router      *gin.Engine
	backend     Backend
	config      *Config
	logger      log.Logger
	wsHub       *WebSocketHub
	upgrader    websocket.Upgrader
	authService *AuthService
	health      *health.HealthChecker
}

// Config holds server configuration
type Config struct {
	Address           string
	JWTSecret         []byte
	CORSOrigins       []string
	RateLimitRPS      int
	MaxBodyBytes      int64
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	ShutdownTimeout   time.Duration
	TrustProxyHeaders bool
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Address:         "127.0.0.1:8080",
		CORSOrigins:     []string{"http://localhost:3000"},
		RateLimitRPS:    100,
		MaxBodyBytes:    1 << 20,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Address == "" {
		return errors.New("api address cannot be empty")
	}
	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return fmt.Errorf("invalid api address %q: %w", c.Address, err)
	}
	if c.RateLimitRPS <= 0 {
		return errors.New("rate limit must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("max body bytes must be positive")
	}
	return nil
}

// NewServer creates a new API server instance and subscribes it to the
// backend's events.
func NewServer(backend Backend, config *Config, logger log.Logger) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if len(config.JWTSecret) == 0 {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		config.JWTSecret = secret
		logger.Info("no JWT secret configured; generated an ephemeral one, admin endpoints are unusable until one is set")
	}

	server := &Server{
		backend:     backend,
		config:      config,
		logger:      logger.With("module", "api"),
		upgrader:    newUpgrader(config.CORSOrigins),
		authService: NewAuthService(config.JWTSecret),
		health:      health.NewHealthChecker(Version, 5*time.Second),
	}
	server.wsHub = NewWebSocketHub(server.logger)
	go server.wsHub.Run()

	backend.Subscribe(func(event sdk.Event) {
		server.wsHub.Broadcast(newEventMessage(event))
	})

	server.health.RegisterCheck("store", health.StoreCheck(func(ctx context.Context) error {
		_, err := backend.Status(ctx)
		return err
	}))
	server.health.RegisterCheck("oracle", health.InstantiatedCheck(func(ctx context.Context) (bool, error) {
		status, err := backend.Status(ctx)
		return status.Instantiated, err
	}))

	server.setupRouter()
	return server, nil
}

// setupRouter configures the Gin router with all routes and middleware
func (s *Server) setupRouter() {
	s.router = gin.New()

	// Global middleware - ORDER MATTERS!
	s.router.Use(gin.Recovery())
	s.router.Use(SecurityHeadersMiddleware())
	s.router.Use(RequestSizeLimitMiddleware(s.config.MaxBodyBytes))
	s.router.Use(RequestIDMiddleware())
	s.router.Use(LoggerMiddleware(s.logger))
	s.router.Use(s.CORSMiddleware())
	s.router.Use(RateLimitMiddleware(s.config.RateLimitRPS))

	s.registerRoutes()
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	if s.config.TrustProxyHeaders {
		return handlers.ProxyHeaders(s.router)
	}
	return s.router
}

// AuthService returns the token service guarding the admin endpoints.
func (s *Server) AuthService() *AuthService {
	return s.authService
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:           s.config.Address,
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting oracle API server", "address", s.config.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down oracle API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Close stops the websocket hub.
func (s *Server) Close() {
	s.wsHub.Close()
}
