package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"estateline/internal/services"
	"estateline/internal/transport/httpdto"
)

// SyncHandler serves the poll fallback: the catch-up delta for clients
// without a live socket and the reconciliation pull after a reconnect.
type SyncHandler struct {
	readState *services.ReadStateService
}

func NewSyncHandler(readState *services.ReadStateService) *SyncHandler {
	return &SyncHandler{readState: readState}
}

func (h *SyncHandler) Sync(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var since time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(c, "invalid since cursor")
			return
		}
		since = parsed
	}
	limit, err := parseInt(c.Query("limit"))
	if err != nil {
		badRequest(c, "invalid limit")
		return
	}

	snapshot, err := h.readState.Sync(c.Request.Context(), p.UserID, since, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.SyncResponse{
		UnreadCount:     snapshot.UnreadCount,
		Notifications:   httpdto.NewNotificationResponses(snapshot.Notifications),
		ServerTime:      snapshot.ServerTime,
		NextPollSeconds: snapshot.NextPollSeconds,
	}))
}
