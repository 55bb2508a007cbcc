package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"estateline/internal/commands"
	"estateline/internal/services"
	"estateline/internal/transport/httpdto"
)

type MessageHandler struct {
	conversations *services.ConversationService
}

func NewMessageHandler(conversations *services.ConversationService) *MessageHandler {
	return &MessageHandler{conversations: conversations}
}

func (h *MessageHandler) Send(c *gin.Context) {
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	threadID, err := parseOptionalUUID(req.ThreadID)
	if err != nil {
		badRequest(c, "invalid thread_id")
		return
	}
	recipientID, err := parseOptionalUUID(req.RecipientID)
	if err != nil {
		badRequest(c, "invalid recipient_id")
		return
	}
	propertyID, err := parseOptionalUUID(req.PropertyID)
	if err != nil {
		badRequest(c, "invalid property_id")
		return
	}

	attachmentIDs := make([]uuid.UUID, 0, len(req.AttachmentIDs))
	for _, raw := range req.AttachmentIDs {
		id, err := parseUUID(raw)
		if err != nil {
			badRequest(c, "invalid attachment id")
			return
		}
		attachmentIDs = append(attachmentIDs, id)
	}

	msg, err := h.conversations.SendMessage(c.Request.Context(), commands.SendMessageCommand{
		ThreadID:            threadID,
		RecipientID:         recipientID,
		Sender:              p,
		Text:                req.Text,
		AttachmentIDs:       attachmentIDs,
		PropertyID:          propertyID,
		IdempotencyKeyValue: req.IdempotencyKey,
		ClientMsgID:         req.ClientMsgID,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewMessageResponse(msg)))
}

func (h *MessageHandler) Edit(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	messageID, err := parseUUID(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid message id")
		return
	}

	var req httpdto.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	msg, err := h.conversations.EditMessage(c.Request.Context(), messageID, p.UserID, req.Text)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewMessageResponse(msg)))
}

func (h *MessageHandler) Delete(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	messageID, err := parseUUID(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid message id")
		return
	}

	if err := h.conversations.DeleteMessage(c.Request.Context(), messageID, p.UserID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
