package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"estateline/internal/domain/message"
	"estateline/internal/repository"
	"estateline/internal/storage"
	estateline_errors "estateline/pkg/errors"
)

// AttachmentService hands out presigned S3 URLs. The API never proxies file
// bytes; clients upload straight to storage and reference the attachment id
// when sending the message.
type AttachmentService struct {
	messageRepo repository.MessageRepository
	storage     *storage.Client
}

func NewAttachmentService(messageRepo repository.MessageRepository, storage *storage.Client) *AttachmentService {
	return &AttachmentService{messageRepo: messageRepo, storage: storage}
}

type PresignInput struct {
	UploaderID  uuid.UUID
	FileName    string
	ContentType string
	SizeBytes   int64
}

type PresignResult struct {
	Attachment message.Attachment
	UploadURL  string
	Headers    map[string]string
}

func (s *AttachmentService) CreatePresignedUpload(ctx context.Context, input PresignInput) (PresignResult, error) {
	if s.storage == nil {
		return PresignResult{}, errors.New("s3 storage is not configured")
	}
	if input.UploaderID == uuid.Nil || input.FileName == "" || input.SizeBytes <= 0 {
		return PresignResult{}, estateline_errors.ErrInvalidInput
	}
	if err := s.storage.ValidateContentType(input.ContentType); err != nil {
		return PresignResult{}, estateline_errors.ErrInvalidInput
	}

	attachment := message.Attachment{
		ID:          uuid.New(),
		UploaderID:  input.UploaderID,
		FileName:    input.FileName,
		ContentType: input.ContentType,
		SizeBytes:   input.SizeBytes,
		CreatedAt:   time.Now(),
	}
	attachment.StorageKey = buildObjectKey(attachment)

	uploadURL, headers, err := s.storage.PresignPut(ctx, attachment.StorageKey, input.ContentType, input.SizeBytes)
	if err != nil {
		return PresignResult{}, err
	}

	if err := s.messageRepo.CreateAttachment(ctx, &attachment); err != nil {
		return PresignResult{}, err
	}

	return PresignResult{
		Attachment: attachment,
		UploadURL:  uploadURL,
		Headers:    headers,
	}, nil
}

// DownloadURL presigns a read of the caller's own upload. Attachments
// reached through a thread are served alongside the message listing.
func (s *AttachmentService) DownloadURL(ctx context.Context, attachmentID, userID uuid.UUID) (string, error) {
	if s.storage == nil {
		return "", errors.New("s3 storage is not configured")
	}
	a, err := s.messageRepo.GetAttachmentByID(ctx, attachmentID)
	if err != nil {
		return "", err
	}
	if a.UploaderID != userID {
		return "", estateline_errors.ErrNotFound
	}
	return s.storage.PresignGet(ctx, a.StorageKey)
}

func buildObjectKey(a message.Attachment) string {
	ext := strings.ToLower(path.Ext(a.FileName))
	base := fmt.Sprintf("attachments/%s/%s", a.UploaderID.String(), a.ID.String())
	if ext == "" {
		return base
	}
	return base + ext
}
