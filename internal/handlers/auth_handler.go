package handlers

import (
	"strings"

	"campusmart/internal/models"
	"campusmart/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler handles HTTP requests for accounts and authentication.
type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
	cas         services.TicketValidator
	frontendURL string
	validate    *validator.Validate
	log         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, userService *services.UserService, cas services.TicketValidator, frontendURL string, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		cas:         cas,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		validate:    validator.New(),
		log:         log,
	}
}

// RegisterRoutes registers the account routes. auth guards every route that
// needs a token.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	userRoutes := router.Group("/user")
	userRoutes.Post("/register", h.HandleRegister)
	userRoutes.Post("/login", h.HandleLogin)
	userRoutes.Get("/cas-auth", h.HandleCASAuth)
	userRoutes.Get("/profile/:id", auth, h.HandleProfile)
	userRoutes.Put("/update/:id", auth, h.HandleUpdateProfile)
	userRoutes.Put("/changepassword/:id", auth, h.HandleChangePassword)
}

// userResponse is a user as returned to its owner after authenticating.
type userResponse struct {
	*models.User
	Token string `json:"token,omitempty"`
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	FirstName     string `json:"firstName" validate:"required"`
	LastName      string `json:"lastName" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Age           int    `json:"age" validate:"required,gt=0"`
	ContactNumber string `json:"contactNumber" validate:"required,numeric"`
	Password      string `json:"password" validate:"required,min=6"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	user, token, err := h.authService.Register(c.UserContext(), services.RegisterInput{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Age:           req.Age,
		ContactNumber: req.ContactNumber,
		Password:      req.Password,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "User registered successfully",
		"accessToken": token,
		"user":        userResponse{User: user, Token: token},
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email          string `json:"email" validate:"required"`
	Password       string `json:"password" validate:"required"`
	RecaptchaToken string `json:"recaptchaToken"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	user, token, err := h.authService.Login(c.UserContext(), req.Email, req.Password, req.RecaptchaToken, c.IP())
	if err != nil {
		h.log.Debug("login rejected", zap.String("email", req.Email), zap.Error(err))
		return respondError(c, h.log, err)
	}

	return c.JSON(fiber.Map{
		"message":     "User logged in successfully",
		"accessToken": token,
		"user":        userResponse{User: user, Token: token},
	})
}

// HandleCASAuth validates a single sign-on ticket and returns the asserted
// email so the client can pre-fill registration. Any failure sends the
// browser back to the registration page.
func (h *AuthHandler) HandleCASAuth(c *fiber.Ctx) error {
	identity, err := h.cas.Validate(c.UserContext(), c.Query("ticket"))
	if err != nil {
		h.log.Warn("CAS authentication failed", zap.Error(err))
		return c.Redirect(h.frontendURL+"/register?error=Authentication+failed", fiber.StatusFound)
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"email":     identity.Email,
		"firstName": identity.FirstName,
		"lastName":  identity.LastName,
	})
}

// HandleProfile returns a user's profile with cart and received reviews.
func (h *AuthHandler) HandleProfile(c *fiber.Ctx) error {
	user, err := h.userService.Profile(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// UpdateProfileRequest carries the fields to change. Absent fields are kept.
type UpdateProfileRequest struct {
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	Age           *int    `json:"age"`
	ContactNumber *string `json:"contactNumber"`
}

// HandleUpdateProfile applies a partial profile edit for the caller.
func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	id := c.Params("id")
	if handled, err := requireSelf(c, id); handled {
		return err
	}

	var req UpdateProfileRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	user, err := h.userService.UpdateProfile(c.UserContext(), id, services.ProfileUpdate{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Age:           req.Age,
		ContactNumber: req.ContactNumber,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// ChangePasswordRequest represents the request body for a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// HandleChangePassword replaces the caller's password.
func (h *AuthHandler) HandleChangePassword(c *fiber.Ctx) error {
	id := c.Params("id")
	if handled, err := requireSelf(c, id); handled {
		return err
	}

	var req ChangePasswordRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	if err := h.authService.ChangePassword(c.UserContext(), id, req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}
