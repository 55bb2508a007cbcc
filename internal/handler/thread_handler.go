package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"estateline/internal/commands"
	"estateline/internal/services"
	"estateline/internal/transport/httpdto"
)

type ThreadHandler struct {
	conversations *services.ConversationService
	readState     *services.ReadStateService
}

func NewThreadHandler(conversations *services.ConversationService, readState *services.ReadStateService) *ThreadHandler {
	return &ThreadHandler{conversations: conversations, readState: readState}
}

// Ensure is the idempotent get-or-create: repeated calls for the same pair
// and property return the same thread.
func (h *ThreadHandler) Ensure(c *gin.Context) {
	var req httpdto.EnsureThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	otherID, err := parseUUID(req.OtherUserID)
	if err != nil {
		badRequest(c, "invalid other_user_id")
		return
	}
	propertyID, err := parseOptionalUUID(req.PropertyID)
	if err != nil {
		badRequest(c, "invalid property_id")
		return
	}

	conv, err := h.conversations.EnsureThread(c.Request.Context(), commands.EnsureThreadCommand{
		Self:        p,
		OtherUserID: otherID,
		PropertyID:  propertyID,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	unread, err := h.readState.UnreadCountByThread(c.Request.Context(), p.UserID, conv.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewThreadResponse(conv, unread)))
}

func (h *ThreadHandler) List(c *gin.Context) {
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

	threads, total, err := h.conversations.ListThreads(c.Request.Context(), p.UserID, page, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	views := make([]httpdto.ThreadResponse, 0, len(threads))
	for _, conv := range threads {
		unread, err := h.readState.UnreadCountByThread(c.Request.Context(), p.UserID, conv.ID)
		if err != nil {
			_ = c.Error(err)
			return
		}
		views = append(views, httpdto.NewThreadResponse(conv, unread))
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{
		"threads": views,
		"meta":    httpdto.PageMeta{Page: page, Limit: limit, Total: total},
	}))
}

func (h *ThreadHandler) Messages(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	threadID, err := parseUUID(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid thread id")
		return
	}
	afterSeq, err := parseInt64(c.Query("after_seq"))
	if err != nil {
		badRequest(c, "invalid after_seq")
		return
	}
	limit, err := parseInt(c.Query("limit"))
	if err != nil {
		badRequest(c, "invalid limit")
		return
	}

	msgs, err := h.conversations.ListMessages(c.Request.Context(), threadID, p.UserID, afterSeq, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{
		"messages": httpdto.NewMessageResponses(msgs),
	}))
}

func (h *ThreadHandler) MarkRead(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	threadID, err := parseUUID(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid thread id")
		return
	}

	var req httpdto.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		badRequest(c, "invalid request")
		return
	}

	messageIDs := make([]uuid.UUID, 0, len(req.MessageIDs))
	for _, raw := range req.MessageIDs {
		id, err := parseUUID(raw)
		if err != nil {
			badRequest(c, "invalid message id")
			return
		}
		messageIDs = append(messageIDs, id)
	}

	if err := h.conversations.MarkRead(c.Request.Context(), threadID, p.UserID, messageIDs); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
