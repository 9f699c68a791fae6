package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gallformers/apperr"
	"gallformers/models"
	"gallformers/storage"
)

// ObjectStorage is the part of storage.ObjectStore the services use.
type ObjectStorage interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (storage.PutResult, error)
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context, prefix string) ([]storage.Object, error)
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
}

// Image size variants. Stored paths always contain the original segment.
const (
	SizeOriginal = "original"
	SizeSmall    = "small"
	SizeMedium   = "medium"
	SizeLarge    = "large"
	SizeXLarge   = "xlarge"
)

var imageSizes = []string{SizeOriginal, SizeSmall, SizeMedium, SizeLarge, SizeXLarge}

// PresignExpiry is how long an upload URL stays valid.
const PresignExpiry = 5 * time.Minute

// ImageService resolves image URLs and manages the stored files.
type ImageService struct {
	DB      *gorm.DB
	Store   ObjectStorage
	EdgeURL string
	Logger  *zap.Logger
}

// NewImageService creates a new ImageService.
func NewImageService(db *gorm.DB, store ObjectStorage, edgeURL string, logger *zap.Logger) *ImageService {
	return &ImageService{
		DB:      db,
		Store:   store,
		EdgeURL: strings.TrimRight(edgeURL, "/"),
		Logger:  logger,
	}
}

func variantKey(path, size string) string {
	return strings.Replace(path, SizeOriginal, size, 1)
}

// URL returns the public URL of one size of an image.
func (s *ImageService) URL(path, size string) string {
	return s.EdgeURL + "/" + variantKey(path, size)
}

// Paths returns the URLs of the images of a species in id order. With ids
// given, only those images are included.
func (s *ImageService) Paths(ctx context.Context, speciesID int, ids ...int) (models.ImagePaths, error) {
	q := s.DB.WithContext(ctx).Where("species_id = ?", speciesID)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	var images []models.Image
	if err := q.Order("id").Find(&images).Error; err != nil {
		return models.ImagePaths{}, apperr.Store("image paths", err)
	}
	return s.toPaths(images), nil
}

func (s *ImageService) toPaths(images []models.Image) models.ImagePaths {
	paths := models.ImagePaths{
		Small:    []string{},
		Medium:   []string{},
		Large:    []string{},
		XLarge:   []string{},
		Original: []string{},
	}
	for _, img := range images {
		paths.Small = append(paths.Small, s.URL(img.Path, SizeSmall))
		paths.Medium = append(paths.Medium, s.URL(img.Path, SizeMedium))
		paths.Large = append(paths.Large, s.URL(img.Path, SizeLarge))
		paths.XLarge = append(paths.XLarge, s.URL(img.Path, SizeXLarge))
		paths.Original = append(paths.Original, s.URL(img.Path, SizeOriginal))
	}
	return paths
}

// NewUploadPath returns a fresh key for an original image of a species.
func (s *ImageService) NewUploadPath(speciesID int, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	return fmt.Sprintf("gall/%d/%d_%s_%s.%s", speciesID, speciesID, uuid.NewString(), SizeOriginal, ext)
}

// PresignUpload returns a URL the browser can upload an original to.
func (s *ImageService) PresignUpload(ctx context.Context, path, mime string) (string, error) {
	if !strings.Contains(path, SizeOriginal) {
		return "", fmt.Errorf("%w: path %q has no %s segment", apperr.ErrValidation, path, SizeOriginal)
	}
	return s.Store.PresignPut(ctx, path, mime, PresignExpiry)
}

// Delete removes every size of the given images from object storage and
// then their rows.
func (s *ImageService) Delete(ctx context.Context, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var images []models.Image
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&images).Error; err != nil {
		return 0, apperr.Store("find images", err)
	}
	if len(images) == 0 {
		return 0, fmt.Errorf("images %v: %w", ids, apperr.ErrNotFound)
	}

	keys := make([]string, 0, len(images)*len(imageSizes))
	for _, img := range images {
		for _, size := range imageSizes {
			keys = append(keys, variantKey(img.Path, size))
		}
	}
	s.Logger.Info("Deleting images", zap.Strings("keys", keys))
	if err := s.Store.Delete(ctx, keys...); err != nil {
		s.Logger.Error("Failed to delete image files", zap.Error(err))
		return 0, err
	}

	found := make([]int, 0, len(images))
	for _, img := range images {
		found = append(found, img.ID)
	}
	res := s.DB.WithContext(ctx).Where("id IN ?", found).Delete(&models.Image{})
	if res.Error != nil {
		return 0, apperr.Store("delete images", res.Error)
	}
	return int(res.RowsAffected), nil
}
