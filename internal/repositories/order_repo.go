package repositories

import (
	"context"
	"time"

	"campusmart/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByParticipant(ctx context.Context, userID string) ([]models.Order, error)
	// MarkDelivered sets delivered only if it is currently false.
	// It returns ErrStale when the order was already delivered.
	MarkDelivered(ctx context.Context, id string, at time.Time) error
}
