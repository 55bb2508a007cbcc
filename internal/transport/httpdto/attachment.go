package httpdto

type PresignUploadRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	SizeBytes   int64  `json:"size_bytes" binding:"required"`
}

type PresignUploadResponse struct {
	AttachmentID string            `json:"attachment_id"`
	UploadURL    string            `json:"upload_url"`
	Headers      map[string]string `json:"headers,omitempty"`
}

type AttachmentURLResponse struct {
	AttachmentID string `json:"attachment_id"`
	URL          string `json:"url"`
}
