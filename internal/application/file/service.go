package file

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/hivedesk/api/internal/domain"
	s3infra "github.com/hivedesk/api/internal/infrastructure/s3"
	"github.com/hivedesk/api/internal/pkg/id"
)

const presignTTL = 15 * time.Minute

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
	IsPrivate   bool
	ProjectID   *string
	UploaderID  string
}

type Service interface {
	Upload(ctx context.Context, input UploadInput) (*domain.File, error)
	Download(ctx context.Context, fileID, requesterID string, isAdmin bool) (io.ReadCloser, *domain.File, error)
	// Presign returns the file record with a short-lived download URL filled in.
	Presign(ctx context.Context, fileID, requesterID string, isAdmin bool) (*domain.File, error)
	ListByUploader(ctx context.Context, userID string) ([]domain.File, error)
	Delete(ctx context.Context, fileID, requesterID string, isAdmin bool) error
}

type fileStore interface {
	Put(ctx context.Context, f *domain.File) error
	Get(ctx context.Context, fileID string) (*domain.File, error)
	ListByUploader(ctx context.Context, userID string) ([]domain.File, error)
	SoftDelete(ctx context.Context, fileID string) error
}

type service struct {
	s3       *s3infra.Store
	fileRepo fileStore
}

func NewService(s3 *s3infra.Store, fileRepo fileStore) Service {
	return &service{s3: s3, fileRepo: fileRepo}
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*domain.File, error) {
	safeName := sanitizeFilename(input.Filename)
	key := fmt.Sprintf("files/%s/%s-%s", input.UploaderID, id.New(), safeName)
	contentType := input.ContentType
	if contentType == "" {
		contentType = s3infra.DetectContentType(safeName)
	}
	if _, err := s.s3.Upload(ctx, key, input.Reader, contentType); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	f := &domain.File{
		FileID:           id.New(),
		Object:           key,
		Size:             input.Size,
		Type:             contentType,
		Name:             safeName,
		ProjectID:        input.ProjectID,
		IsPrivate:        input.IsPrivate,
		UploadedByUserID: input.UploaderID,
		Enable:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.fileRepo.Put(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *service) Download(ctx context.Context, fileID, requesterID string, isAdmin bool) (io.ReadCloser, *domain.File, error) {
	f, err := s.authorize(ctx, fileID, requesterID, isAdmin)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.s3.Download(ctx, f.Object)
	if err != nil {
		return nil, nil, err
	}
	return rc, f, nil
}

func (s *service) Presign(ctx context.Context, fileID, requesterID string, isAdmin bool) (*domain.File, error) {
	f, err := s.authorize(ctx, fileID, requesterID, isAdmin)
	if err != nil {
		return nil, err
	}
	url, err := s.s3.PresignedURL(ctx, f.Object, presignTTL)
	if err != nil {
		return nil, err
	}
	f.URL = &url
	return f, nil
}

func (s *service) ListByUploader(ctx context.Context, userID string) ([]domain.File, error) {
	return s.fileRepo.ListByUploader(ctx, userID)
}

func (s *service) Delete(ctx context.Context, fileID, requesterID string, isAdmin bool) error {
	f, err := s.authorize(ctx, fileID, requesterID, isAdmin)
	if err != nil {
		return err
	}
	if err := s.s3.Delete(ctx, f.Object); err != nil {
		return err
	}
	return s.fileRepo.SoftDelete(ctx, fileID)
}

func (s *service) authorize(ctx context.Context, fileID, requesterID string, isAdmin bool) (*domain.File, error) {
	f, err := s.fileRepo.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !f.Enable {
		return nil, fmt.Errorf("file not found: %w", domain.ErrNotFound)
	}
	if f.IsPrivate && f.UploadedByUserID != requesterID && !isAdmin {
		return nil, fmt.Errorf("access denied: %w", domain.ErrForbidden)
	}
	return f, nil
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." {
		return result
	}
	return "_"
}
