package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estateline/internal/services"
	"estateline/internal/transport/httpdto"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	page, err := parseInt(c.Query("page"))
	if err != nil {
		badRequest(c, "invalid page")
		return
	}
	limit, err := parseInt(c.Query("limit"))
	if err != nil {
		badRequest(c, "invalid limit")
		return
	}
	unreadOnly := c.Query("unread_only") == "true"

	items, total, unread, err := h.notifications.List(c.Request.Context(), p.UserID, unreadOnly, page, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NotificationListResponse{
		Notifications: httpdto.NewNotificationResponses(items),
		UnreadCount:   unread,
		Meta:          httpdto.PageMeta{Page: page, Limit: limit, Total: total},
	}))
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	id, err := parseUUID(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid notification id")
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), id, p.UserID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	if err := h.notifications.MarkAllRead(c.Request.Context(), p.UserID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	id, err := parseUUID(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid notification id")
		return
	}

	if err := h.notifications.Delete(c.Request.Context(), id, p.UserID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
