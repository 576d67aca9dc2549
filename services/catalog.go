package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"vestioapi/models"

	"github.com/getsentry/sentry-go"
	"gorm.io/gorm"
)

// Accessor failure kinds. Callers match with errors.Is and decide the HTTP
// shape; the catalog never retries and never serves stale data instead.
var (
	ErrCatalogUnavailable = errors.New("item catalog is unavailable")
	ErrCatalogForbidden   = errors.New("item catalog access denied")
)

// CatalogProvider abstracts "fetch all clothing items owned by a user".
// Backed by the database here, but nothing downstream may assume that; a
// network-backed catalog can replace this without touching composition.
type CatalogProvider interface {
	FetchItems(ctx context.Context, ownerID uint) ([]models.ClothingItem, error)
}

type DBCatalogService struct {
	DB *gorm.DB
}

func (s *DBCatalogService) FetchItems(ctx context.Context, ownerID uint) ([]models.ClothingItem, error) {
	var items []models.ClothingItem
	result := s.DB.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id").Find(&items)
	if result.Error != nil {
		if errors.Is(result.Error, context.Canceled) || errors.Is(result.Error, context.DeadlineExceeded) {
			return nil, result.Error
		}
		log.Printf("Catalog fetch failed for user %v: %v", ownerID, result.Error)
		sentry.CaptureException(result.Error)
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, result.Error)
	}
	return items, nil
}
