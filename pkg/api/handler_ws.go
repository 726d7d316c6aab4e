package api

import (
	"net/http"

	"github.com/coder/websocket"
	echo "github.com/labstack/echo/v5"
)

// wsHandler handles GET /v1/ws, upgrading to a WebSocket event stream of
// feedback/gate-violation/ARI-alert/EDM-detection events (SPEC_FULL.md
// §4.10). RDI-private events are never published on this channel
// (spec.md §4.6 hard invariant) — the events.Manager simply never
// carries them.
func (s *Server) wsHandler(c *echo.Context) error {
	if s.events == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "event stream not available")
	}

	opts := &websocket.AcceptOptions{}
	if len(s.allowedWSOrigins) > 0 {
		opts.OriginPatterns = s.allowedWSOrigins
	} else {
		// No explicit allowlist configured: restrict to same-origin rather
		// than accepting every origin, since this stream can carry
		// per-user gate-violation and ARI-alert events.
		opts.OriginPatterns = []string{c.Request().Host}
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), opts)
	if err != nil {
		return err
	}
	s.events.HandleConnection(c.Request().Context(), conn)
	return nil
}
