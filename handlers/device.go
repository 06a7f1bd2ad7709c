// File: screenlink/handlers/device.go
package handlers

import (
	"net/http"

	"screenlink/models"
	"screenlink/utils"

	"github.com/gin-gonic/gin"
)

// RegisterDevice creates or updates a device record.
func (h *Handler) RegisterDevice(c *gin.Context) {
	var input models.DeviceInfo
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	device, err := h.Store.Register(input)
	if err != nil {
		utils.JSONError(c, statusFor(err), "failed to register device", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"device": device,
	})
}

// ListDevices returns every registered device.
func (h *Handler) ListDevices(c *gin.Context) {
	devices := h.Store.ListDevices()
	c.JSON(http.StatusOK, gin.H{
		"devices": devices,
		"total":   len(devices),
	})
}

// ListServers returns the devices currently available to be controlled.
func (h *Handler) ListServers(c *gin.Context) {
	servers := serverSummaries(h.Store.ListAvailable(models.RoleServer))
	c.JSON(http.StatusOK, gin.H{
		"servers": servers,
		"total":   len(servers),
	})
}

func serverSummaries(devices []models.Device) []models.ServerSummary {
	out := make([]models.ServerSummary, 0, len(devices))
	for _, d := range devices {
		out = append(out, models.ServerSummary{
			ID:       d.ID,
			Name:     d.DisplayName,
			LastSeen: d.LastSeen,
		})
	}
	return out
}
