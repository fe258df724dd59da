// Package server exposes the monitoring pipeline over HTTP for the
// presentation layer: status, targets, findings, opportunities and
// on-demand scan triggering.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/intelscout/intelscout/pkg/domain"
)

// Server represents HTTP server instance
type Server struct {
	config  ConfigProvider
	store   Store
	scanner Scanner
	version string
	debug   bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Store interface for server persistence operations
type Store interface {
	GetStatus(ctx context.Context, organizationID int64) (*domain.MonitoringStatus, error)
	GetTargets(ctx context.Context, organizationID int64, activeOnly bool) ([]domain.Target, error)
	CreateTarget(ctx context.Context, target *domain.Target) error
	SetTargetActive(ctx context.Context, id int64, active bool) error
	GetFindings(ctx context.Context, organizationID int64, limit int) ([]domain.Finding, error)
	GetOpportunities(ctx context.Context, organizationID int64, status domain.OpportunityStatus, limit int) ([]domain.Opportunity, error)
	UpdateOpportunityStatus(ctx context.Context, id int64, status domain.OpportunityStatus) error
	Ping(ctx context.Context) error
}

// Scanner interface for on-demand scan operations
type Scanner interface {
	ScanByID(ctx context.Context, organizationID int64) (domain.ScanResult, error)
	CachedResult(organizationID int64) (domain.ScanResult, bool)
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
}

// New initializes a new server instance
func New(cfg ConfigProvider, store Store, scanner Scanner, version string, debug bool) *Server {
	s := &Server{
		config:  cfg,
		store:   store,
		scanner: scanner,
		version: version,
		debug:   debug,
		router:  routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and blocks until the context is canceled,
// then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()

	srv := &http.Server{
		Addr:         listen,
		Handler:      s.router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	s.lock.Lock()
	s.httpServer = srv
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lgr.Printf("[WARN] server shutdown: %v", err)
		}
	}()

	lgr.Printf("[INFO] http server listening on %s", listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("intelscout", "intelscout", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)

		r.Mount("/monitoring").Route(func(m *routegroup.Bundle) {
			m.HandleFunc("GET /status/{orgID}", s.monitoringStatusHandler)
			m.HandleFunc("GET /targets/{orgID}", s.getTargetsHandler)
			m.HandleFunc("POST /targets", s.createTargetHandler)
			m.HandleFunc("PUT /targets/{id}/active", s.setTargetActiveHandler)
			m.HandleFunc("GET /findings", s.getFindingsHandler)
			m.HandleFunc("GET /opportunities/{orgID}", s.getOpportunitiesHandler)
			m.HandleFunc("PUT /opportunities/{id}/status", s.updateOpportunityStatusHandler)
			m.HandleFunc("POST /trigger", s.triggerScanHandler)
		})
	})
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
	}
	RenderJSON(w, r, http.StatusOK, status)
}

// RenderJSON sends JSON response
func RenderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			lgr.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// RenderError sends error response as JSON
func RenderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	RenderJSON(w, r, code, map[string]string{"error": msg})
}
