package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estateline/internal/services"
	"estateline/internal/transport/httpdto"
)

type AttachmentHandler struct {
	attachments *services.AttachmentService
}

func NewAttachmentHandler(attachments *services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments}
}

func (h *AttachmentHandler) Presign(c *gin.Context) {
	var req httpdto.PresignUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	result, err := h.attachments.CreatePresignedUpload(c.Request.Context(), services.PresignInput{
		UploaderID:  p.UserID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.PresignUploadResponse{
		AttachmentID: result.Attachment.ID.String(),
		UploadURL:    result.UploadURL,
		Headers:      result.Headers,
	}))
}

func (h *AttachmentHandler) DownloadURL(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	id, err := parseUUID(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid attachment id")
		return
	}

	url, err := h.attachments.DownloadURL(c.Request.Context(), id, p.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.AttachmentURLResponse{
		AttachmentID: id.String(),
		URL:          url,
	}))
}
