package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"stringtracker/internal/models"
	"stringtracker/internal/repositories"
	"stringtracker/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// ImagePathPrefix is the public URL prefix images are served under.
	ImagePathPrefix = "/images/"
	imageKeyPrefix  = "guitars/"
	// DefaultMaxImageBytes caps an upload when no limit is configured.
	DefaultMaxImageBytes int64 = 5 << 20
)

// ImageService stores guitar photos in an object store and links them to records.
type ImageService struct {
	store    storage.ObjectStore
	repo     repositories.GuitarRepository
	maxBytes int64
}

// NewImageService creates a new ImageService.
func NewImageService(store storage.ObjectStore, repo repositories.GuitarRepository, maxBytes int64) *ImageService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &ImageService{store: store, repo: repo, maxBytes: maxBytes}
}

// MaxBytes is the largest accepted upload.
func (s *ImageService) MaxBytes() int64 { return s.maxBytes }

// ImageUpload is a photo received from a client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Attach uploads a photo for a guitar owned by userID and points its
// imageUrl at it. A previously stored photo is discarded.
func (s *ImageService) Attach(ctx context.Context, userID string, id uint, upload ImageUpload) (*models.Guitar, error) {
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return nil, ErrUnsupportedImage
	}
	if upload.Size > s.maxBytes {
		return nil, ErrImageTooLarge
	}

	guitar, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if guitar.UserID != userID {
		return nil, fmt.Errorf("guitar with ID %d: %w", id, repositories.ErrNotFound)
	}

	key := fmt.Sprintf("%s%d/%s%s", imageKeyPrefix, id, uuid.NewString(), strings.ToLower(filepath.Ext(upload.Filename)))
	if err := s.store.Upload(ctx, key, upload.Body, upload.Size, upload.ContentType); err != nil {
		return nil, err
	}

	previous := guitar.ImageURL
	url := ImagePathPrefix + key
	guitar.ImageURL = &url
	if err := s.repo.Update(ctx, guitar, nil); err != nil {
		s.discardKey(ctx, key)
		return nil, err
	}
	if previous != nil {
		s.Discard(ctx, *previous)
	}
	return guitar, nil
}

// Open returns the stored photo under key.
func (s *ImageService) Open(ctx context.Context, key string) (*storage.Object, error) {
	key = path.Clean(strings.TrimPrefix(key, "/"))
	if !strings.HasPrefix(key, imageKeyPrefix) {
		return nil, fmt.Errorf("%s: %w", key, storage.ErrObjectNotFound)
	}
	return s.store.Download(ctx, key)
}

// Discard removes the object behind an image URL this service issued.
// Other URLs, such as external links or data URIs, are ignored.
func (s *ImageService) Discard(ctx context.Context, imageURL string) {
	if !strings.HasPrefix(imageURL, ImagePathPrefix+imageKeyPrefix) {
		return
	}
	s.discardKey(ctx, strings.TrimPrefix(imageURL, ImagePathPrefix))
}

func (s *ImageService) discardKey(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		zap.S().Named("image_service").Warnw("failed to discard image", "key", key, "error", err)
	}
}
