package services

import (
	"context"
	"strings"
	"time"

	"campusmart/internal/apperrors"
	"campusmart/internal/models"
	"campusmart/internal/repositories"

	"go.uber.org/zap"
)

const (
	minRating = 0
	maxRating = 5
)

// ReviewService handles seller reviews.
type ReviewService struct {
	userRepo  repositories.UserRepository
	publisher EventPublisher
	log       *zap.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(userRepo repositories.UserRepository, publisher EventPublisher, log *zap.Logger) *ReviewService {
	return &ReviewService{
		userRepo:  userRepo,
		publisher: publisher,
		log:       log,
	}
}

// AddReview appends a review to the seller's profile. A user may review the
// same seller more than once, but never themselves.
func (s *ReviewService) AddReview(ctx context.Context, reviewerID, sellerID string, rating int, comment string) (*models.SellerReview, error) {
	if rating < minRating || rating > maxRating {
		return nil, apperrors.Newf(apperrors.Validation, "Rating must be between %d and %d", minRating, maxRating)
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, apperrors.New(apperrors.Validation, "Comment is required")
	}

	if _, err := s.userRepo.GetByID(ctx, reviewerID); err != nil {
		return nil, notFoundOr(err, "User not found", "Error adding review")
	}
	seller, err := s.userRepo.GetByID(ctx, sellerID)
	if err != nil {
		return nil, notFoundOr(err, "Seller not found", "Error adding review")
	}
	if seller.ID == reviewerID {
		return nil, apperrors.New(apperrors.Conflict, "Cannot review your own profile")
	}

	review := &models.SellerReview{
		SellerID:   seller.ID,
		ReviewerID: reviewerID,
		Rating:     rating,
		Comment:    comment,
	}
	if err := s.userRepo.AddReview(ctx, review); err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Error adding review", err)
	}

	publish(ctx, s.publisher, s.log, EventReviewAdded, ReviewAdded{
		SellerID:   seller.ID,
		ReviewerID: reviewerID,
		Rating:     rating,
		At:         time.Now(),
	})
	return review, nil
}

// publish sends an event and logs, rather than returns, a failure: the
// business change it describes has already been committed.
func publish(ctx context.Context, p EventPublisher, log *zap.Logger, routingKey string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, routingKey, payload); err != nil {
		log.Warn("failed to publish event", zap.String("routing_key", routingKey), zap.Error(err))
	}
}
