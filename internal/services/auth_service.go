package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusmart/internal/apperrors"
	"campusmart/internal/models"
	"campusmart/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
)

// MinPasswordLength is the shortest password accepted at registration and
// password change.
const MinPasswordLength = 6

// AuthConfig configures token issuance and registration rules.
type AuthConfig struct {
	JWTSecret          string
	TokenTTL           time.Duration
	AllowedEmailDomain string
}

// Claims are the JWT claims carried by access tokens.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.StandardClaims
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo  repositories.UserRepository
	captcha   CaptchaVerifier
	hasher    *Hasher
	jwtSecret []byte
	tokenTTL  time.Duration
	domain    string
	log       *zap.Logger
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, captcha CaptchaVerifier, hasher *Hasher, cfg AuthConfig, log *zap.Logger) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		userRepo:  userRepo,
		captcha:   captcha,
		hasher:    hasher,
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  ttl,
		domain:    strings.ToLower(cfg.AllowedEmailDomain),
		log:       log,
		now:       time.Now,
	}
}

// RegisterInput is the data needed to open an account.
type RegisterInput struct {
	FirstName     string
	LastName      string
	Email         string
	Age           int
	ContactNumber string
	Password      string
}

// InstitutionalEmail reports whether email belongs to the allowed domain or
// one of its subdomains.
func (s *AuthService) InstitutionalEmail(email string) bool {
	if s.domain == "" {
		return true
	}
	email = strings.ToLower(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	host := email[at+1:]
	return host == s.domain || strings.HasSuffix(host, "."+s.domain)
}

// Register creates an account, hashes the password, and issues a token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !s.InstitutionalEmail(email) {
		return nil, "", apperrors.New(apperrors.Validation, "Only institutional email addresses are allowed")
	}
	if in.Age <= 0 {
		return nil, "", apperrors.New(apperrors.Validation, "Age must be positive")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, "", apperrors.Newf(apperrors.Validation, "Password must be at least %d characters", MinPasswordLength)
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return nil, "", apperrors.New(apperrors.Conflict, "User already exists")
	case err != nil && !errors.Is(err, repositories.ErrNotFound):
		return nil, "", apperrors.Wrap(apperrors.Internal, "Error registering user", err)
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.Internal, "Error registering user", err)
	}

	user := &models.User{
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Email:         email,
		Age:           in.Age,
		ContactNumber: strings.TrimSpace(in.ContactNumber),
		Password:      hashed,
		CartItems:     []models.CartItem{},
		SellerReviews: []models.SellerReview{},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, "", apperrors.New(apperrors.Conflict, "User already exists")
		}
		return nil, "", apperrors.Wrap(apperrors.Internal, "Error registering user", err)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	s.log.Info("user registered", zap.String("user_id", user.ID))
	return user, token, nil
}

// Login checks the CAPTCHA and the password and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password, captchaToken, remoteIP string) (*models.User, string, error) {
	if err := s.captcha.Verify(ctx, captchaToken, remoteIP); err != nil {
		return nil, "", err
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Unknown emails and wrong passwords look the same to the caller.
			return nil, "", apperrors.New(apperrors.Unauthorized, "invalid credentials")
		}
		return nil, "", apperrors.Wrap(apperrors.Internal, "Error logging in", err)
	}
	if !s.hasher.Matches(user.Password, password) {
		return nil, "", apperrors.New(apperrors.Unauthorized, "invalid credentials")
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ChangePassword replaces the password after re-verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return apperrors.Newf(apperrors.Validation, "Password must be at least %d characters", MinPasswordLength)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return notFoundOr(err, "User not found", "Error changing password")
	}
	if !s.hasher.Matches(user.Password, currentPassword) {
		return apperrors.New(apperrors.Unauthorized, "invalid credentials")
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "Error changing password", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hashed); err != nil {
		return notFoundOr(err, "User not found", "Error changing password")
	}
	s.log.Info("password changed", zap.String("user_id", userID))
	return nil
}

// IssueToken signs an access token for user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
			Subject:   user.ID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperrors.Wrap(apperrors.Internal, "failed to generate token", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Unauthorized, "invalid token", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, apperrors.New(apperrors.Unauthorized, "invalid token")
	}
	return claims, nil
}

// notFoundOr classifies a repository error as NotFound (with notFoundMsg) or
// Internal (with internalMsg).
func notFoundOr(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.Wrap(apperrors.NotFound, notFoundMsg, err)
	}
	return apperrors.Wrap(apperrors.Internal, internalMsg, err)
}
