// Package api implements the external collaborator API (spec.md §6,
// SPEC_FULL.md §4.10): read-only queries over Orchestrator/Monitor/
// Feedback/Privacy state plus a WebSocket event-subscription stream, for
// the personality/discovery plug-ins and the dashboard renderer — both
// out of core scope and consuming this surface only. Grounded directly
// on tarsy's pkg/api/server.go (Echo v5 server struct, Set<Service>
// wiring, route grouping) with the SQL-backed handlers replaced by calls
// into this core's own subsystems.
package api

import (
	"context"
	"net"
	"net/http"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/corepath/partner/pkg/events"
	"github.com/corepath/partner/pkg/feedback"
	"github.com/corepath/partner/pkg/monitor"
	"github.com/corepath/partner/pkg/orchestrator"
	"github.com/corepath/partner/pkg/privacy"
)

// Server is the read-only HTTP + WebSocket API exposed to external
// collaborators.
type Server struct {
	echo *echo.Echo
	http *http.Server

	orch         *orchestrator.Orchestrator
	ari          *monitor.ARI
	edm          *monitor.EDM
	feedbackLoop *feedback.Loop
	privacySvc   *privacy.Service
	events       *events.Manager

	allowedWSOrigins []string
}

// NewServer wires every subsystem's read handle into a Server and
// registers its routes.
func NewServer(
	orch *orchestrator.Orchestrator,
	ari *monitor.ARI,
	edm *monitor.EDM,
	feedbackLoop *feedback.Loop,
	privacySvc *privacy.Service,
	eventsMgr *events.Manager,
	allowedWSOrigins []string,
) *Server {
	e := echo.New()
	e.HideBanner = true

	s := &Server{
		echo:             e,
		orch:             orch,
		ari:              ari,
		edm:              edm,
		feedbackLoop:     feedbackLoop,
		privacySvc:       privacySvc,
		events:           eventsMgr,
		allowedWSOrigins: allowedWSOrigins,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.BodyLimit(1 << 20))
	s.echo.Use(requestID())
	s.echo.Use(accessLog())
	s.echo.Use(securityHeaders())
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthHandler)

	v1 := s.echo.Group("/v1")
	v1.GET("/requests/:id", s.getRequestHandler)
	v1.GET("/agency/report", s.agencyReportHandler)
	v1.GET("/debts", s.listDebtsHandler)
	v1.GET("/suggestions", s.listSuggestionsHandler)
	v1.POST("/consent", s.recordConsentHandler)
	v1.GET("/ws", s.wsHandler)
}

// Start runs the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.echo}
	return s.http.ListenAndServe()
}

// StartWithListener runs the HTTP server on a pre-created listener,
// for tests that need a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.http = &http.Server{Handler: s.echo}
	return s.http.Serve(ln)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
