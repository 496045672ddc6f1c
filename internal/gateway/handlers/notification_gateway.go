package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"wesell-system/internal/gateway/middleware"
	notifyhandler "wesell-system/internal/services/notify/handler"
)

type NotificationHTTPHandler struct {
	notify *notifyhandler.NotifyHandler
}

func NewNotificationHTTPHandler(notify *notifyhandler.NotifyHandler) *NotificationHTTPHandler {
	return &NotificationHTTPHandler{
		notify: notify,
	}
}

type ListNotificationsQuery struct {
	Limit int `form:"limit,default=50"`
}

func (h *NotificationHTTPHandler) ListNotifications(c *gin.Context) {
	var query ListNotificationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notifications, err := h.notify.ListTeamNotifications(ctx, c.GetInt64(middleware.ContextTeamID), query.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Notification service error"))
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Notifications retrieved successfully", notifications, map[string]interface{}{
		"total": len(notifications),
	}))
}

func (h *NotificationHTTPHandler) MarkRead(c *gin.Context) {
	notificationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid notification ID"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.notify.MarkRead(ctx, notificationID, c.GetInt64(middleware.ContextUserID)); err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Notification service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Notification marked as read", nil))
}
