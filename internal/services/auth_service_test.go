package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"campusmart/internal/apperrors"
	"campusmart/internal/models"
	"campusmart/internal/repositories"
	"campusmart/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

func newAuthService(repo *MockUserRepository, captcha services.CaptchaVerifier) *services.AuthService {
	return services.NewAuthService(repo, captcha, services.NewHasher(bcrypt.MinCost), services.AuthConfig{
		JWTSecret:          testJWTSecret,
		TokenTTL:           time.Hour,
		AllowedEmailDomain: "iiit.ac.in",
	}, zap.NewNop())
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, repositories.ErrNotFound)
}

func validRegistration() services.RegisterInput {
	return services.RegisterInput{
		FirstName:     "Asha",
		LastName:      "Rao",
		Email:         "Asha.Rao@students.iiit.ac.in",
		Age:           20,
		ContactNumber: "9876543210",
		Password:      "password123",
	}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo, services.PresenceCaptchaVerifier{})

	// Test successful registration
	mockRepo.On("GetByEmail", ctx, "asha.rao@students.iiit.ac.in").Return(nil, notFound("user")).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = "user-1"
	}).Return(nil).Once()

	user, token, err := authService.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "asha.rao@students.iiit.ac.in", user.Email)
	assert.NotEqual(t, "password123", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	assert.NotEmpty(t, token)
	mockRepo.AssertExpectations(t)

	// Test email already registered
	mockRepo.On("GetByEmail", ctx, "asha.rao@students.iiit.ac.in").Return(&models.User{ID: "user-1"}, nil).Once()
	_, _, err = authService.Register(ctx, validRegistration())
	assert.Equal(t, apperrors.Conflict, apperrors.KindOf(err))
	assert.Equal(t, "User already exists", apperrors.Message(err))

	// Test a unique-index race is still a conflict
	mockRepo.On("GetByEmail", ctx, "asha.rao@students.iiit.ac.in").Return(nil, notFound("user")).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(repositories.ErrDuplicate).Once()
	_, _, err = authService.Register(ctx, validRegistration())
	assert.Equal(t, apperrors.Conflict, apperrors.KindOf(err))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterRejectsInput(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo, services.PresenceCaptchaVerifier{})

	tests := []struct {
		name   string
		mutate func(in *services.RegisterInput)
	}{
		{"foreign domain", func(in *services.RegisterInput) { in.Email = "asha@gmail.com" }},
		{"lookalike domain", func(in *services.RegisterInput) { in.Email = "asha@notiiit.ac.in" }},
		{"zero age", func(in *services.RegisterInput) { in.Age = 0 }},
		{"short password", func(in *services.RegisterInput) { in.Password = "abc" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRegistration()
			tt.mutate(&in)
			_, _, err := authService.Register(ctx, in)
			assert.Equal(t, apperrors.Validation, apperrors.KindOf(err))
		})
	}
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_InstitutionalEmail(t *testing.T) {
	authService := newAuthService(new(MockUserRepository), services.PresenceCaptchaVerifier{})

	assert.True(t, authService.InstitutionalEmail("a@iiit.ac.in"))
	assert.True(t, authService.InstitutionalEmail("a@research.iiit.ac.in"))
	assert.True(t, authService.InstitutionalEmail("A@IIIT.AC.IN"))
	assert.False(t, authService.InstitutionalEmail("a@fakeiiit.ac.in"))
	assert.False(t, authService.InstitutionalEmail("not-an-email"))
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	captcha := new(MockCaptchaVerifier)
	authService := newAuthService(mockRepo, captcha)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{
		ID:       "user-123",
		Email:    "test@iiit.ac.in",
		Password: string(hashedPassword),
	}

	// Test successful login
	captcha.On("Verify", ctx, "captcha-ok", "10.0.0.1").Return(nil)
	mockRepo.On("GetByEmail", ctx, "test@iiit.ac.in").Return(user, nil)

	got, token, err := authService.Login(ctx, "Test@iiit.ac.in", "password123", "captcha-ok", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	claims, err := authService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "test@iiit.ac.in", claims.Email)

	// Test wrong password
	_, _, err = authService.Login(ctx, "test@iiit.ac.in", "wrong", "captcha-ok", "10.0.0.1")
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))
	assert.Equal(t, "invalid credentials", apperrors.Message(err))

	// Test unknown email looks the same as a wrong password
	mockRepo.On("GetByEmail", ctx, "ghost@iiit.ac.in").Return(nil, notFound("user"))
	_, _, err = authService.Login(ctx, "ghost@iiit.ac.in", "password123", "captcha-ok", "10.0.0.1")
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))
	assert.Equal(t, "invalid credentials", apperrors.Message(err))
}

func TestAuthService_LoginChecksCaptchaFirst(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo, services.PresenceCaptchaVerifier{})

	_, _, err := authService.Login(ctx, "test@iiit.ac.in", "password123", "", "")
	assert.Equal(t, apperrors.Validation, apperrors.KindOf(err))
	assert.Equal(t, "Please complete the CAPTCHA", apperrors.Message(err))
	mockRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo, services.PresenceCaptchaVerifier{})

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("oldpassword"), bcrypt.MinCost)
	mockRepo.On("GetByID", ctx, "user-1").Return(&models.User{ID: "user-1", Password: string(hashedPassword)}, nil)

	// Test wrong current password
	err := authService.ChangePassword(ctx, "user-1", "nope", "newpassword")
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))

	// Test successful change stores a hash of the new password
	mockRepo.On("UpdatePassword", ctx, "user-1", mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("newpassword")) == nil
	})).Return(nil).Once()
	assert.NoError(t, authService.ChangePassword(ctx, "user-1", "oldpassword", "newpassword"))
	mockRepo.AssertExpectations(t)

	// Test too short
	err = authService.ChangePassword(ctx, "user-1", "oldpassword", "abc")
	assert.Equal(t, apperrors.Validation, apperrors.KindOf(err))
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := newAuthService(new(MockUserRepository), services.PresenceCaptchaVerifier{})

	// Test a token signed with a different secret
	claims := services.Claims{
		UserID: "user-1",
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other_secret"))
	require.NoError(t, err)
	_, err = authService.ValidateToken(forged)
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))

	// Test an expired token
	claims.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	_, err = authService.ValidateToken(expired)
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))

	// Test garbage
	_, err = authService.ValidateToken("not-a-token")
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))
}
