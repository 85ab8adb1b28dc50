package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepmyapp/notification/internal/domain"
	"github.com/prepmyapp/notification/internal/handler/middleware"
	"github.com/prepmyapp/notification/internal/service"
)

// NotificationHandler handles the account-facing notification inbox
// endpoints: getNotifications, markAsRead, getNotificationStatus.
type NotificationHandler struct {
	dispatch *service.DispatchService
}

func NewNotificationHandler(dispatch *service.DispatchService) *NotificationHandler {
	return &NotificationHandler{dispatch: dispatch}
}

// ListRequest represents pagination parameters.
type ListRequest struct {
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"pageSize,default=20"`
	Unread   bool   `form:"unread"`
	Channel  string `form:"channel"`
}

// ListResponse represents a paginated list of notifications.
type ListResponse struct {
	Items       []*domain.Notification `json:"items"`
	TotalCount  int64                  `json:"totalCount"`
	UnreadCount int64                  `json:"unreadCount"`
	Page        int                    `json:"page"`
	PageSize    int                    `json:"pageSize"`
}

func identity(c *gin.Context) (string, string, bool) {
	tenantID := middleware.GetTenantID(c)
	accountID := middleware.GetAccountID(c)
	if accountID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", "", false
	}
	return tenantID, accountID, true
}

// List returns a paginated list of notifications for the authenticated account.
func (h *NotificationHandler) List(c *gin.Context) {
	tenantID, accountID, ok := identity(c)
	if !ok {
		return
	}

	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := domain.ListOptions{Page: req.Page, PageSize: req.PageSize, UnreadOnly: req.Unread}
	if req.Channel != "" {
		ch := domain.Channel(req.Channel)
		opts.Channel = &ch
	}

	result, err := h.dispatch.GetNotifications(c.Request.Context(), tenantID, accountID, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Items:       result.Items,
		TotalCount:  result.TotalCount,
		UnreadCount: result.UnreadCount,
		Page:        req.Page,
		PageSize:    req.PageSize,
	})
}

// MarkAsReadRequest carries the notification ids to mark read.
type MarkAsReadRequest struct {
	NotificationIDs []string `json:"notificationIds" binding:"required"`
}

// MarkAsRead marks one or more notifications as read for the account.
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	tenantID, accountID, ok := identity(c)
	if !ok {
		return
	}

	var req MarkAsReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	count, err := h.dispatch.MarkAsRead(c.Request.Context(), tenantID, accountID, req.NotificationIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notifications as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"markedCount": count})
}

// Status returns the delivery status of a single notification.
func (h *NotificationHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.dispatch.GetNotificationStatus(c.Request.Context(), c.Param("id")))
}

// RegisterRoutes registers notification routes on a router group.
func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	notifications := rg.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.GET("/:id/status", h.Status)
		notifications.POST("/mark-read", h.MarkAsRead)
	}
}
