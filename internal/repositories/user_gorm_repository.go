package repositories

import (
	"context"
	"fmt"

	"campusmart/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit("CartItems", "SellerReviews").Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	return nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.withAssociations(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, fmt.Errorf("user with email %s: %w", email, translate(err))
	}
	return &user, nil
}

// GetByID retrieves a user by their ID, with cart and received reviews loaded.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.withAssociations(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("user with ID %s: %w", id, translate(err))
	}
	return &user, nil
}

// GetByIDs retrieves the users with the given IDs. Missing IDs are skipped.
func (r *GORMUserRepository) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

// UpdateProfile writes the editable profile columns of user.
func (r *GORMUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"first_name":     user.FirstName,
			"last_name":      user.LastName,
			"age":            user.Age,
			"contact_number": user.ContactNumber,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update user %s: %w", user.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s: %w", user.ID, ErrNotFound)
	}
	return nil
}

// UpdatePassword stores a new password hash.
func (r *GORMUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password", passwordHash)
	if res.Error != nil {
		return fmt.Errorf("failed to update password for user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// AddCartItem appends itemID to the user's cart.
func (r *GORMUserRepository) AddCartItem(ctx context.Context, userID, itemID string) error {
	entry := models.CartItem{UserID: userID, ItemID: itemID}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to add item %s to cart of %s: %w", itemID, userID, translate(err))
	}
	return nil
}

// RemoveCartItem removes itemID from the user's cart.
func (r *GORMUserRepository) RemoveCartItem(ctx context.Context, userID, itemID string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND item_id = ?", userID, itemID).Delete(&models.CartItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove item %s from cart of %s: %w", itemID, userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("item %s in cart of %s: %w", itemID, userID, ErrNotFound)
	}
	return nil
}

// ClearCart empties the user's cart.
func (r *GORMUserRepository) ClearCart(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart of %s: %w", userID, err)
	}
	return nil
}

// AddReview appends a review to the seller's profile.
func (r *GORMUserRepository) AddReview(ctx context.Context, review *models.SellerReview) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return fmt.Errorf("failed to add review for seller %s: %w", review.SellerID, err)
	}
	return nil
}

func (r *GORMUserRepository) withAssociations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("CartItems", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("SellerReviews", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}
