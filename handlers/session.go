// File: screenlink/handlers/session.go
package handlers

import (
	"net/http"

	"screenlink/models"
	"screenlink/utils"

	"github.com/gin-gonic/gin"
)

// CreateSession starts a new pairing attempt. When the caller supplies a
// deviceId it is registered if unknown, and server-capable devices get the
// new session pre-bound to them.
func (h *Handler) CreateSession(c *gin.Context) {
	var input struct {
		DeviceID     string            `json:"deviceId"`
		Name         string            `json:"name,omitempty"`
		Capabilities []string          `json:"capabilities,omitempty"`
		Metadata     map[string]string `json:"metadata,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if input.DeviceID == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "deviceId is required")
		return
	}

	// Register-or-refresh so a cold start_session call works without a
	// prior register-device.
	device, err := h.Store.Register(models.DeviceInfo{
		DeviceID:     input.DeviceID,
		Name:         input.Name,
		Capabilities: input.Capabilities,
		Metadata:     input.Metadata,
	})
	if err != nil {
		utils.JSONError(c, statusFor(err), "failed to register device", err.Error())
		return
	}

	serverID := ""
	if device.HasCapability(models.RoleServer) {
		serverID = device.ID
	}
	session, err := h.Store.CreateSession(serverID)
	if err != nil {
		utils.JSONError(c, statusFor(err), "failed to create session", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"deviceId":  device.ID,
		"sessionId": session.ID,
		"session":   session,
	})
}

// GetSession returns a session snapshot by token.
func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.Store.Session(c.Param("id"))
	if err != nil {
		utils.JSONError(c, statusFor(err), "session not found", err.Error())
		return
	}
	c.JSON(http.StatusOK, session)
}

// ListAvailableSessions returns publicly joinable sessions, longest
// waiting first.
func (h *Handler) ListAvailableSessions(c *gin.Context) {
	sessions := h.Store.ListAvailableSessions()
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// StopSession ends a session. Ending is terminal: the token is never
// reused and the reaper removes the record on its next sweep.
func (h *Handler) StopSession(c *gin.Context) {
	session, err := h.Store.EndSession(c.Param("id"))
	if err != nil {
		utils.JSONError(c, statusFor(err), "failed to stop session", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"session": session,
	})
}
