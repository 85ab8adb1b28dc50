package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepmyapp/notification/internal/domain"
	"github.com/prepmyapp/notification/internal/service"
)

// InternalHandler handles the API-key-authenticated internal surface
// other services call to dispatch notifications: sendNotification and
// sendBulkNotification.
type InternalHandler struct {
	dispatch *service.DispatchService
}

func NewInternalHandler(dispatch *service.DispatchService) *InternalHandler {
	return &InternalHandler{dispatch: dispatch}
}

// NotifyRequest represents a SendNotification request.
type NotifyRequest struct {
	TenantID       string            `json:"tenantId" binding:"required"`
	AccountID      string            `json:"accountId" binding:"required"`
	Type           string            `json:"type" binding:"required"`
	Channels       []string          `json:"channels,omitempty"`
	Title          string            `json:"title" binding:"required"`
	Body           string            `json:"body"`
	Locale         string            `json:"locale,omitempty"`
	Data           map[string]string `json:"data,omitempty"`
	SourceService  string            `json:"sourceService,omitempty"`
	Priority       string            `json:"priority,omitempty"`
	IdempotencyKey string            `json:"idempotencyKey,omitempty"`
}

// Notify implements sendNotification.
func (h *InternalHandler) Notify(c *gin.Context) {
	var req NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sendReq := toSendRequest(req)

	result, err := h.dispatch.SendNotification(c.Request.Context(), sendReq)
	if err != nil {
		status := http.StatusInternalServerError
		if _, ok := err.(*domain.ErrValidation); ok {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// BulkNotifyRequest represents a SendBulkNotification request.
type BulkNotifyRequest struct {
	TenantID      string           `json:"tenantId" binding:"required"`
	SourceService string           `json:"sourceService,omitempty"`
	Notifications []NotifyRequest  `json:"notifications" binding:"required"`
}

// NotifyBulk implements sendBulkNotification.
func (h *InternalHandler) NotifyBulk(c *gin.Context) {
	var req BulkNotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items := make([]service.SendRequest, len(req.Notifications))
	for i, item := range req.Notifications {
		items[i] = toSendRequest(item)
	}

	result, err := h.dispatch.SendBulkNotification(c.Request.Context(), service.BulkSendRequest{
		TenantID:      req.TenantID,
		SourceService: req.SourceService,
		Notifications: items,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func toSendRequest(req NotifyRequest) service.SendRequest {
	channels := make([]domain.Channel, len(req.Channels))
	for i, c := range req.Channels {
		channels[i] = domain.Channel(c)
	}

	priority := domain.Priority(req.Priority)
	if priority == "" {
		priority = domain.PriorityNormal
	}

	return service.SendRequest{
		TenantID:       req.TenantID,
		AccountID:      req.AccountID,
		Type:           domain.NotificationType(req.Type),
		Channels:       channels,
		Title:          req.Title,
		Body:           req.Body,
		Locale:         req.Locale,
		Data:           req.Data,
		SourceService:  req.SourceService,
		Priority:       priority,
		IdempotencyKey: req.IdempotencyKey,
	}
}

// RegisterRoutes registers internal API routes.
func (h *InternalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/notify", h.Notify)
	rg.POST("/notify/bulk", h.NotifyBulk)
}
