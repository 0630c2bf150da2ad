package repositories

import (
	"context"

	"campusmart/internal/models"
)

// ItemRepository defines the interface for catalog data access.
type ItemRepository interface {
	Create(ctx context.Context, item *models.Item) error
	GetByID(ctx context.Context, id string) (*models.Item, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Item, error)
	List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error)
	Delete(ctx context.Context, id string) error
	// MarkUnavailable flips available to false only if it is currently true.
	// It returns ErrStale when the item was already unavailable.
	MarkUnavailable(ctx context.Context, id string) error
}
