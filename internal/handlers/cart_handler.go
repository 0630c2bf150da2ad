package handlers

import (
	"campusmart/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CartHandler handles cart and seller review requests.
type CartHandler struct {
	cartService   *services.CartService
	reviewService *services.ReviewService
	validate      *validator.Validate
	log           *zap.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartService *services.CartService, reviewService *services.ReviewService, log *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService:   cartService,
		reviewService: reviewService,
		validate:      validator.New(),
		log:           log,
	}
}

// RegisterRoutes registers the cart and review routes. All require a token.
func (h *CartHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	// Guarded per route: a group-level handler would also cover the public
	// /user routes.
	userRoutes := router.Group("/user")
	userRoutes.Get("/cart/:id", auth, h.HandleGetCart)
	userRoutes.Post("/addcart", auth, h.HandleAddToCart)
	userRoutes.Delete("/remcart", auth, h.HandleRemoveFromCart)
	userRoutes.Post("/addreview", auth, h.HandleAddReview)
}

// CartRequest names a cart entry.
type CartRequest struct {
	UserID string `json:"userId" validate:"required"`
	ItemID string `json:"itemId" validate:"required"`
}

// HandleGetCart lists the items in a user's cart.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	items, err := h.cartService.List(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"message": "Cart items fetched successfully",
		"items":   items,
	})
}

// HandleAddToCart adds an item to the caller's cart.
func (h *CartHandler) HandleAddToCart(c *fiber.Ctx) error {
	var req CartRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}
	if handled, err := requireSelf(c, req.UserID); handled {
		return err
	}

	if err := h.cartService.Add(c.UserContext(), req.UserID, req.ItemID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Item added to cart successfully"})
}

// HandleRemoveFromCart removes an item from the caller's cart.
func (h *CartHandler) HandleRemoveFromCart(c *fiber.Ctx) error {
	var req CartRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}
	if handled, err := requireSelf(c, req.UserID); handled {
		return err
	}

	if err := h.cartService.Remove(c.UserContext(), req.UserID, req.ItemID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Item removed from cart successfully"})
}

// ReviewRequest represents the request body for a seller review. Rating is a
// pointer so that an explicit 0 passes the required check.
type ReviewRequest struct {
	UserID   string `json:"userId" validate:"required"`
	SellerID string `json:"sellerId" validate:"required"`
	Rating   *int   `json:"rating" validate:"required,min=0,max=5"`
	Comment  string `json:"comment" validate:"required"`
}

// HandleAddReview records the caller's review of a seller.
func (h *CartHandler) HandleAddReview(c *fiber.Ctx) error {
	var req ReviewRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}
	if handled, err := requireSelf(c, req.UserID); handled {
		return err
	}

	review, err := h.reviewService.AddReview(c.UserContext(), req.UserID, req.SellerID, *req.Rating, req.Comment)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"message": "Review added successfully",
		"review":  review,
	})
}
