package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"campusmart/internal/apperrors"
	"campusmart/internal/models"
	"campusmart/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// priceScale matches the numeric(12,2) price column.
	priceScale = 2

	itemNameMin        = 3
	itemNameMax        = 50
	itemDescriptionMin = 5
	itemDescriptionMax = 500
	unknownSeller      = "Unknown Seller"
)

// CatalogService handles business logic related to item listings.
type CatalogService struct {
	itemRepo repositories.ItemRepository
	userRepo repositories.UserRepository
	log      *zap.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(itemRepo repositories.ItemRepository, userRepo repositories.UserRepository, log *zap.Logger) *CatalogService {
	return &CatalogService{
		itemRepo: itemRepo,
		userRepo: userRepo,
		log:      log,
	}
}

// NewItemInput describes a listing to create.
type NewItemInput struct {
	Name        string
	Price       decimal.Decimal
	Description string
	Image       string
	Category    string
	SellerID    string
}

// ItemListing is an item annotated with its seller's display name.
type ItemListing struct {
	models.Item
	SellerName string `json:"sellerName"`
}

// ItemDetail is the public view of an item with seller contact and reviews.
type ItemDetail struct {
	models.Item
	SellerName    string                `json:"sellerName"`
	SellerPhone   string                `json:"sellerPhone"`
	SellerReviews []models.SellerReview `json:"sellerReviews"`
}

// AddItem lists a new item for sale.
func (s *CatalogService) AddItem(ctx context.Context, in NewItemInput) (*models.Item, error) {
	if in.Price.IsNegative() {
		return nil, apperrors.New(apperrors.Validation, "Price cannot be negative")
	}
	if !in.Price.Equal(in.Price.Round(priceScale)) {
		return nil, apperrors.New(apperrors.Validation, "Price cannot have more than two decimal places")
	}
	name := strings.TrimSpace(in.Name)
	if n := utf8.RuneCountInString(name); n < itemNameMin || n > itemNameMax {
		return nil, apperrors.New(apperrors.Validation, "Name not in the allowed length")
	}
	if n := utf8.RuneCountInString(in.Description); n < itemDescriptionMin || n > itemDescriptionMax {
		return nil, apperrors.New(apperrors.Validation, "Description not in the allowed length")
	}
	if strings.TrimSpace(in.Image) == "" || strings.TrimSpace(in.Category) == "" {
		return nil, apperrors.New(apperrors.Validation, "All fields are required")
	}

	if _, err := s.userRepo.GetByID(ctx, in.SellerID); err != nil {
		return nil, notFoundOr(err, "Seller not found", "Error finding seller")
	}

	item := &models.Item{
		Name:        name,
		Price:       in.Price,
		Description: in.Description,
		Image:       in.Image,
		Category:    strings.TrimSpace(in.Category),
		SellerID:    in.SellerID,
		Available:   true,
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Error adding item", err)
	}
	s.log.Info("item listed", zap.String("item_id", item.ID), zap.String("seller_id", item.SellerID))
	return item, nil
}

// DeleteItem removes a listing. Only its seller may delete it.
func (s *CatalogService) DeleteItem(ctx context.Context, itemID, actorID string) error {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return notFoundOr(err, "Item not found", "Error deleting item")
	}
	if item.SellerID != actorID {
		return apperrors.New(apperrors.Unauthorized, "Unauthorized to delete this item")
	}
	if err := s.itemRepo.Delete(ctx, itemID); err != nil {
		return notFoundOr(err, "Item not found", "Error deleting item")
	}
	s.log.Info("item deleted", zap.String("item_id", itemID))
	return nil
}

// ListItems returns the catalog matching filter, each with its seller's name.
func (s *CatalogService) ListItems(ctx context.Context, filter models.ItemFilter) ([]ItemListing, error) {
	items, err := s.itemRepo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Error fetching items", err)
	}

	names, err := s.sellerNames(ctx, items)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Error fetching items", err)
	}

	listings := make([]ItemListing, 0, len(items))
	for _, it := range items {
		name, ok := names[it.SellerID]
		if !ok {
			name = unknownSeller
		}
		listings = append(listings, ItemListing{Item: it, SellerName: name})
	}
	return listings, nil
}

// ItemsBySeller returns every listing of one seller.
func (s *CatalogService) ItemsBySeller(ctx context.Context, sellerID string) ([]models.Item, error) {
	seller, err := s.userRepo.GetByID(ctx, sellerID)
	if err != nil {
		return nil, notFoundOr(err, "User not found", "Error finding item")
	}
	items, err := s.itemRepo.List(ctx, models.ItemFilter{SellerID: seller.ID})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Error finding item", err)
	}
	return items, nil
}

// ItemDetail returns an item with its seller's public profile.
func (s *CatalogService) ItemDetail(ctx context.Context, itemID string) (*ItemDetail, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, notFoundOr(err, "Item not found", "Error finding item")
	}
	seller, err := s.userRepo.GetByID(ctx, item.SellerID)
	if err != nil {
		return nil, notFoundOr(err, "Seller not found", "Error finding item")
	}
	reviews := seller.SellerReviews
	if reviews == nil {
		reviews = []models.SellerReview{}
	}
	return &ItemDetail{
		Item:          *item,
		SellerName:    seller.FullName(),
		SellerPhone:   seller.ContactNumber,
		SellerReviews: reviews,
	}, nil
}

func (s *CatalogService) sellerNames(ctx context.Context, items []models.Item) (map[string]string, error) {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.SellerID]; !ok {
			seen[it.SellerID] = struct{}{}
			ids = append(ids, it.SellerID)
		}
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for i := range users {
		names[users[i].ID] = users[i].FullName()
	}
	return names, nil
}
