// File: screenlink/handlers/health.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health reports live registry counts and mirror connectivity.
func (h *Handler) Health(c *gin.Context) {
	devices, activeSessions, totalSessions := h.Store.Counts()

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	mirrorConnected := h.Mirror.Ping(ctx) == nil

	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"timestamp":       time.Now().UTC(),
		"devicesCount":    devices,
		"sessionsCount":   totalSessions,
		"activeSessions":  activeSessions,
		"mirrorConnected": mirrorConnected,
	})
}

// Landing serves the human-readable index page.
func (h *Handler) Landing(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, landingPage)
}

const landingPage = `<h1>Screenlink Rendezvous Server</h1>
<p>Signaling relay for remote screen control sessions.</p>

<h2>API Endpoints:</h2>
<ul>
    <li><strong>POST</strong> /api/sessions - Start a session</li>
    <li><strong>GET</strong> /api/sessions/:id - Session status</li>
    <li><strong>POST</strong> /api/sessions/:id/stop - Stop a session</li>
    <li><strong>GET</strong> /api/sessions/available - Joinable sessions</li>
    <li><strong>POST</strong> /api/devices/register - Register a device</li>
    <li><strong>GET</strong> /api/devices - All devices</li>
    <li><strong>GET</strong> /api/servers - Available servers</li>
    <li><strong>GET</strong> /health - Health check</li>
</ul>

<h2>WebSocket Events (/ws):</h2>
<ul>
    <li><strong>register-device</strong> - Register a device</li>
    <li><strong>bind-server / bind-client</strong> - Join a session</li>
    <li><strong>offer / answer / candidate / data</strong> - Signaling relay</li>
    <li><strong>session-started / session-ended</strong> - Session lifecycle</li>
</ul>
`
