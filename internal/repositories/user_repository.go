package repositories

import (
	"context"

	"campusmart/internal/models"
)

// UserRepository defines the interface for user data access, including the
// cart and received reviews that hang off a user.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	AddCartItem(ctx context.Context, userID, itemID string) error
	RemoveCartItem(ctx context.Context, userID, itemID string) error
	ClearCart(ctx context.Context, userID string) error

	AddReview(ctx context.Context, review *models.SellerReview) error
}
