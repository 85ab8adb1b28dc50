package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepmyapp/notification/internal/domain"
)

// DeviceTokenHandler handles device token registration HTTP requests:
// registerDeviceToken and unregisterDeviceToken.
type DeviceTokenHandler struct {
	repo domain.DeviceTokenRepository
}

func NewDeviceTokenHandler(repo domain.DeviceTokenRepository) *DeviceTokenHandler {
	return &DeviceTokenHandler{repo: repo}
}

// RegisterRequest represents a device token registration request.
type RegisterRequest struct {
	Token      string            `json:"token" binding:"required"`
	Platform   string            `json:"platform" binding:"required,oneof=ios android web"`
	DeviceID   string            `json:"deviceId"`
	DeviceInfo map[string]string `json:"deviceInfo,omitempty"`
}

// Register registers or updates a device token for push notifications.
func (h *DeviceTokenHandler) Register(c *gin.Context) {
	tenantID, accountID, ok := identity(c)
	if !ok {
		return
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	platform := domain.Platform(req.Platform)
	if !platform.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid platform"})
		return
	}

	deviceToken := domain.NewDeviceToken(tenantID, accountID, req.Token, platform, req.DeviceID, req.DeviceInfo)

	id, err := h.repo.Register(c.Request.Context(), deviceToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register device token"})
		return
	}
	deviceToken.ID = id

	c.JSON(http.StatusOK, gin.H{"message": "device token registered", "device": deviceToken})
}

// List returns all device tokens registered for the authenticated account.
func (h *DeviceTokenHandler) List(c *gin.Context) {
	tenantID, accountID, ok := identity(c)
	if !ok {
		return
	}

	tokens, err := h.repo.ListForAccount(c.Request.Context(), tenantID, accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch device tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"devices": tokens, "count": len(tokens)})
}

// Unregister removes a device token (logout from device).
func (h *DeviceTokenHandler) Unregister(c *gin.Context) {
	tenantID, accountID, ok := identity(c)
	if !ok {
		return
	}

	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	removed, err := h.repo.Unregister(c.Request.Context(), tenantID, accountID, token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unregister device token"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "device token not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "device token unregistered"})
}

// RegisterRoutes registers device token routes on a router group.
func (h *DeviceTokenHandler) RegisterRoutes(rg *gin.RouterGroup) {
	devices := rg.Group("/device-tokens")
	devices.POST("", h.Register)
	devices.GET("", h.List)
	devices.DELETE("/:token", h.Unregister)
}
