package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Default server configuration.
const (
	DefaultAddr     = ":8080"
	shutdownTimeout = 10 * time.Second
)

// Config holds configuration for the REST server.
type Config struct {
	// Addr is the listen address (default: ":8080").
	Addr string
}

// Server is the REST server for FinSight.
type Server struct {
	ports      *Ports
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer creates a new REST server with the given ports.
func NewServer(cfg Config, ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), cors())

	s := &Server{
		ports:  ports,
		router: router,
	}
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// registerRoutes wires the REST surface.
func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.POST("/upload", s.handleUpload)
	s.router.POST("/chat", s.handleChat)
	s.router.GET("/chats", s.handleListChats)
	s.router.GET("/history/:chat_id", s.handleHistory)
	s.router.DELETE("/chat/:chat_id", s.handleDelete)
}

// Run starts the server and blocks until the context is cancelled or
// the listener fails. Cancellation triggers a graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Router exposes the HTTP handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// cors allows browser frontends on other origins to call the API.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
