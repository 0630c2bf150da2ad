package services

import (
	"context"
	"errors"

	"campusmart/internal/apperrors"
	"campusmart/internal/models"
	"campusmart/internal/repositories"

	"go.uber.org/zap"
)

// CartService handles a buyer's cart. Entries are unique item references.
type CartService struct {
	userRepo repositories.UserRepository
	itemRepo repositories.ItemRepository
	log      *zap.Logger
}

// NewCartService creates a new CartService.
func NewCartService(userRepo repositories.UserRepository, itemRepo repositories.ItemRepository, log *zap.Logger) *CartService {
	return &CartService{
		userRepo: userRepo,
		itemRepo: itemRepo,
		log:      log,
	}
}

// Add puts itemID into the user's cart.
func (s *CartService) Add(ctx context.Context, userID, itemID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return notFoundOr(err, "User not found", "Error adding item to cart")
	}
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return notFoundOr(err, "Item not found", "Error adding item to cart")
	}
	if user.HasInCart(itemID) {
		return apperrors.New(apperrors.Conflict, "Item already in cart")
	}
	if item.SellerID == userID {
		return apperrors.New(apperrors.Conflict, "Cannot add your own item to cart")
	}

	if err := s.userRepo.AddCartItem(ctx, userID, itemID); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return apperrors.New(apperrors.Conflict, "Item already in cart")
		}
		return apperrors.Wrap(apperrors.Internal, "Error adding item to cart", err)
	}
	s.log.Debug("cart item added", zap.String("user_id", userID), zap.String("item_id", itemID))
	return nil
}

// Remove takes itemID out of the user's cart.
func (s *CartService) Remove(ctx context.Context, userID, itemID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return notFoundOr(err, "User not found", "Error removing item from cart")
	}
	if !user.HasInCart(itemID) {
		return apperrors.New(apperrors.NotFound, "Item not found in cart")
	}
	if err := s.userRepo.RemoveCartItem(ctx, userID, itemID); err != nil {
		return notFoundOr(err, "Item not found in cart", "Error removing item from cart")
	}
	s.log.Debug("cart item removed", zap.String("user_id", userID), zap.String("item_id", itemID))
	return nil
}

// List returns the items in the user's cart, in the order they were added.
// Items deleted since they were added are left out.
func (s *CartService) List(ctx context.Context, userID string) ([]models.Item, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "User not found", "Error fetching cart items")
	}

	ids := make([]string, 0, len(user.CartItems))
	for _, ci := range user.CartItems {
		ids = append(ids, ci.ItemID)
	}
	found, err := s.itemRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Error fetching cart items", err)
	}

	byID := make(map[string]models.Item, len(found))
	for _, it := range found {
		byID[it.ID] = it
	}
	items := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			items = append(items, it)
		}
	}
	return items, nil
}
