// Package http exposes the RAG service, agents, and evaluations over a
// REST API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/temafey/rag-vector-doc-claude/internal/agent"
	"github.com/temafey/rag-vector-doc-claude/internal/document"
	"github.com/temafey/rag-vector-doc-claude/internal/evaluation"
	"github.com/temafey/rag-vector-doc-claude/internal/planner"
	"github.com/temafey/rag-vector-doc-claude/internal/rag"
)

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Services are the collaborators the API fronts. RAG and Documents are
// required; the rest disable their routes when nil.
type Services struct {
	RAG         *rag.Service
	Documents   *document.Service
	Agents      *agent.Service
	Planner     *planner.Service
	Loop        *evaluation.Loop
	Improver    *evaluation.Improver
	Evaluations *evaluation.Repository
}

// Server provides the REST endpoints.
type Server struct {
	echo     *echo.Echo
	services Services
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	config   *Config
}

// NewServer creates an HTTP server.
func NewServer(services Services, gatherer prometheus.Gatherer, metrics *Metrics, logger *zap.Logger, cfg *Config) (*Server, error) {
	if services.RAG == nil {
		return nil, fmt.Errorf("rag service is required")
	}
	if services.Documents == nil {
		return nil, fmt.Errorf("document service is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8080,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})
	if metrics != nil {
		e.Use(metrics.Middleware())
	}

	s := &Server{
		echo:     e,
		services: services,
		gatherer: gatherer,
		logger:   logger,
		config:   cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	if s.gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := s.echo.Group("/api/v1")

	v1.POST("/search", s.handleSearch)

	v1.POST("/documents", s.handleAddDocument)
	v1.GET("/documents/:id", s.handleGetDocument)
	v1.DELETE("/documents/:id", s.handleDeleteDocument)
	v1.POST("/documents/:id/reindex", s.handleReindexDocument)
	v1.PUT("/documents/:id/language", s.handleUpdateDocumentLanguage)

	v1.GET("/collections", s.handleListCollections)
	v1.POST("/collections", s.handleCreateCollection)
	v1.DELETE("/collections/:name", s.handleDeleteCollection)

	if s.services.Agents != nil {
		v1.POST("/agents", s.handleCreateAgent)
		v1.GET("/agents", s.handleListAgents)
		v1.GET("/agents/:id", s.handleGetAgent)
		v1.GET("/agents/conversation/:conversation_id", s.handleAgentsByConversation)
		v1.DELETE("/agents/:id", s.handleDeleteAgent)
		v1.POST("/agents/:id/query", s.handleAgentQuery)
		v1.POST("/agents/:id/actions", s.handleExecuteAction)
		v1.GET("/agents/:id/actions", s.handleListActions)
	}

	if s.services.Loop != nil && s.services.Agents != nil {
		v1.POST("/agents/:id/evaluate", s.handleEvaluate)
	}
	if s.services.Evaluations != nil {
		v1.GET("/evaluations/:id", s.handleGetEvaluation)
		if s.services.Improver != nil {
			v1.POST("/evaluations/:id/improve", s.handleImprove)
		}
	}

	if s.services.Planner != nil && s.services.Agents != nil {
		v1.POST("/agents/:id/plans", s.handleCreatePlan)
		v1.GET("/plans/:id", s.handleGetPlan)
		v1.POST("/plans/:id/execute", s.handleExecutePlan)
	}
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routing tree for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
