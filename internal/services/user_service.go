package services

import (
	"context"
	"strings"

	"campusmart/internal/apperrors"
	"campusmart/internal/models"
	"campusmart/internal/repositories"

	"go.uber.org/zap"
)

// UserService handles profile reads and edits.
type UserService struct {
	userRepo repositories.UserRepository
	log      *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository, log *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		log:      log,
	}
}

// ProfileUpdate carries a partial profile edit. Nil fields are left untouched;
// non-nil fields overwrite, so an explicit zero is validated rather than
// silently ignored.
type ProfileUpdate struct {
	FirstName     *string
	LastName      *string
	Age           *int
	ContactNumber *string
}

// Profile returns a user with cart and received reviews.
func (s *UserService) Profile(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "User not found", "Error fetching profile")
	}
	return user, nil
}

// UpdateProfile applies upd to the user's profile.
func (s *UserService) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "User not found", "Error updating profile")
	}

	if upd.FirstName != nil {
		v := strings.TrimSpace(*upd.FirstName)
		if v == "" {
			return nil, apperrors.New(apperrors.Validation, "First name cannot be empty")
		}
		user.FirstName = v
	}
	if upd.LastName != nil {
		v := strings.TrimSpace(*upd.LastName)
		if v == "" {
			return nil, apperrors.New(apperrors.Validation, "Last name cannot be empty")
		}
		user.LastName = v
	}
	if upd.Age != nil {
		if *upd.Age <= 0 {
			return nil, apperrors.New(apperrors.Validation, "Age must be positive")
		}
		user.Age = *upd.Age
	}
	if upd.ContactNumber != nil {
		v := strings.TrimSpace(*upd.ContactNumber)
		if !isDigits(v) {
			return nil, apperrors.New(apperrors.Validation, "Contact number must contain digits only")
		}
		user.ContactNumber = v
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, notFoundOr(err, "User not found", "Error updating profile")
	}
	s.log.Info("profile updated", zap.String("user_id", id))
	return user, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
