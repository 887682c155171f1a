package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/fashioncraft/app/models"
	"github.com/shashiranjanraj/fashioncraft/app/repositories"
	"github.com/shashiranjanraj/fashioncraft/pkg/apperr"
	"github.com/shashiranjanraj/fashioncraft/pkg/logger"
	"github.com/shashiranjanraj/fashioncraft/pkg/metrics"
	"github.com/shashiranjanraj/fashioncraft/pkg/storage"
)

// DefaultMaxPreviewBytes caps preview uploads when no limit is configured.
const DefaultMaxPreviewBytes = 5 << 20

// previewTypes maps accepted image types to file extensions.
var previewTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// PreviewService stores garment preview images and links them to orders.
type PreviewService struct {
	orders   repositories.OrderRepository
	disk     storage.Disk
	maxBytes int64
}

func NewPreviewService(orders repositories.OrderRepository, disk storage.Disk, maxBytes int64) *PreviewService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPreviewBytes
	}
	return &PreviewService{orders: orders, disk: disk, maxBytes: maxBytes}
}

// MaxBytes is the largest accepted image.
func (s *PreviewService) MaxBytes() int64 { return s.maxBytes }

// Upload stores data as the preview of the owner's order and sets
// garment.previewReference to its public URL. The content type is sniffed
// from the bytes; the client's claim is ignored.
func (s *PreviewService) Upload(ctx context.Context, ownerID, id string, data []byte) (*models.Order, error) {
	if len(data) == 0 {
		return nil, apperr.Validation("empty image")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, apperr.ErrValidation.WithMessage(fmt.Sprintf("La imagen supera %d bytes", s.maxBytes))
	}
	contentType := http.DetectContentType(data)
	ext, ok := previewTypes[contentType]
	if !ok {
		return nil, apperr.ErrValidation.WithMessage("Formato de imagen no soportado")
	}

	existing, err := s.orders.Get(ctx, ownerID, id)
	if err != nil {
		return nil, apperr.ErrStore.WithCause(err)
	}
	if existing == nil {
		return nil, apperr.ErrNotFound.WithMessage("Orden no encontrada")
	}

	key := fmt.Sprintf("previews/%s/%s-%s%s", ownerID, id, uuid.NewString(), ext)
	if err := s.disk.Put(ctx, key, data, contentType); err != nil {
		return nil, apperr.ErrStore.WithCause(err)
	}

	ref := s.disk.URL(key)
	updated, err := s.orders.Update(ctx, ownerID, id, models.OrderPatch{
		Garment: &models.GarmentPatch{PreviewReference: &ref},
	})
	if err != nil || updated == nil {
		// Order vanished or the write failed; do not leave the object orphaned.
		if delErr := s.disk.Delete(ctx, key); delErr != nil {
			logger.WithCtx(ctx).Warn("preview cleanup failed", "key", key, "error", delErr)
		}
		if err != nil {
			return nil, apperr.ErrStore.WithCause(err)
		}
		return nil, apperr.ErrNotFound.WithMessage("Orden no encontrada")
	}

	metrics.RecordOrderMutation("preview")
	return updated, nil
}
