package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepmyapp/notification/internal/domain"
	"github.com/prepmyapp/notification/internal/handler/middleware"
)

// PreferencesHandler handles channel/type preferences and quiet hours
// HTTP requests: getPreferences, updatePreferences, getQuietHours,
// updateQuietHours.
type PreferencesHandler struct {
	prefs      domain.PreferenceRepository
	quietHours domain.QuietHoursRepository
}

func NewPreferencesHandler(prefs domain.PreferenceRepository, quietHours domain.QuietHoursRepository) *PreferencesHandler {
	return &PreferencesHandler{prefs: prefs, quietHours: quietHours}
}

// PreferencesResponse represents an account's full preference set.
type PreferencesResponse struct {
	ChannelPrefs []domain.ChannelPreference `json:"channelPreferences"`
	TypePrefs    []domain.TypePreference    `json:"typePreferences"`
}

// UpdatePreferencesRequest represents a request to replace preferences.
type UpdatePreferencesRequest struct {
	ChannelPreferences []domain.ChannelPreference `json:"channelPreferences"`
	TypePreferences    []domain.TypePreference    `json:"typePreferences"`
}

// QuietHoursResponse represents an account's quiet-hours configuration.
type QuietHoursResponse struct {
	Enabled  bool   `json:"enabled"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
}

// UpdateQuietHoursRequest represents a request to set quiet hours.
type UpdateQuietHoursRequest struct {
	Enabled  bool   `json:"enabled"`
	Start    string `json:"start" binding:"required"`
	End      string `json:"end" binding:"required"`
	Timezone string `json:"timezone"`
}

// Get retrieves the current account's channel and type preferences.
func (h *PreferencesHandler) Get(c *gin.Context) {
	_, accountID, ok := identity(c)
	if !ok {
		return
	}
	tenantID := middleware.GetTenantID(c)

	result := h.prefs.Get(c.Request.Context(), tenantID, accountID)
	c.JSON(http.StatusOK, PreferencesResponse{ChannelPrefs: result.ChannelPrefs, TypePrefs: result.TypePrefs})
}

// Update replaces the current account's channel and type preferences.
func (h *PreferencesHandler) Update(c *gin.Context) {
	tenantID, accountID, ok := identity(c)
	if !ok {
		return
	}

	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.prefs.Update(c.Request.Context(), tenantID, accountID, req.ChannelPreferences, req.TypePreferences); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update preferences"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "preferences updated"})
}

// GetQuietHours retrieves the current account's quiet-hours configuration.
func (h *PreferencesHandler) GetQuietHours(c *gin.Context) {
	tenantID, accountID, ok := identity(c)
	if !ok {
		return
	}

	result := h.quietHours.Get(c.Request.Context(), tenantID, accountID)
	c.JSON(http.StatusOK, QuietHoursResponse{
		Enabled:  result.Config.Enabled,
		Start:    result.Config.StartTime,
		End:      result.Config.EndTime,
		Timezone: result.Config.Timezone,
	})
}

// UpdateQuietHours sets the current account's quiet-hours configuration.
func (h *PreferencesHandler) UpdateQuietHours(c *gin.Context) {
	tenantID, accountID, ok := identity(c)
	if !ok {
		return
	}

	var req UpdateQuietHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := domain.ValidateHHMM(req.Start); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start time: " + err.Error()})
		return
	}
	if err := domain.ValidateHHMM(req.End); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end time: " + err.Error()})
		return
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = domain.DefaultQuietHoursZone
	}
	if !domain.IsValidTimezone(timezone) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timezone"})
		return
	}

	config := domain.QuietHoursConfig{
		TenantID:  tenantID,
		AccountID: accountID,
		Enabled:   req.Enabled,
		StartTime: req.Start,
		EndTime:   req.End,
		Timezone:  timezone,
	}

	if err := h.quietHours.Update(c.Request.Context(), config); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update quiet hours"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "quiet hours updated"})
}

// RegisterRoutes registers preferences routes on a router group.
func (h *PreferencesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	prefs := rg.Group("/preferences")
	{
		prefs.GET("", h.Get)
		prefs.PUT("", h.Update)

		prefs.GET("/quiet-hours", h.GetQuietHours)
		prefs.PUT("/quiet-hours", h.UpdateQuietHours)
	}
}
