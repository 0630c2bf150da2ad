package handlers

import (
	"campusmart/internal/middleware"
	"campusmart/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
	log      *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
		log:      log,
	}
}

// RegisterRoutes registers the order routes. All require a token.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	orderRoutes := router.Group("/order", auth)
	orderRoutes.Post("/add", h.HandleCheckout)
	orderRoutes.Get("/history/:id", h.HandleHistory)
	orderRoutes.Post("/verify", h.HandleVerify)
}

// CheckoutRequest represents the request body for a checkout. TotalAmount is
// the total the buyer was shown.
type CheckoutRequest struct {
	BuyerID     string           `json:"buyerId" validate:"required"`
	TotalAmount *decimal.Decimal `json:"totalAmount" validate:"required"`
}

// HandleCheckout turns the caller's cart into orders.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}
	if handled, err := requireSelf(c, req.BuyerID); handled {
		return err
	}

	result, err := h.service.Checkout(c.UserContext(), req.BuyerID, *req.TotalAmount)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(fiber.Map{
		"message":    "Order added successfully",
		"checkoutId": result.CheckoutID,
		"itemIds":    result.ItemIDs,
		"otp":        result.OTP,
	})
}

// HandleHistory returns the orders a user bought or sold.
func (h *OrderHandler) HandleHistory(c *fiber.Ctx) error {
	entries, err := h.service.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"message": "History fetched successfully",
		"orders":  entries,
	})
}

// VerifyRequest represents the request body for confirming delivery.
type VerifyRequest struct {
	OrderID string `json:"orderId" validate:"required"`
	OTP     string `json:"otp" validate:"required"`
}

// HandleVerify marks an order delivered when the delivery code matches. The
// caller must not be the order's buyer.
func (h *OrderHandler) HandleVerify(c *fiber.Ctx) error {
	var req VerifyRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	result, err := h.service.VerifyDelivery(c.UserContext(), req.OrderID, req.OTP, middleware.CurrentUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"message":          "OTP verified successfully",
		"alreadyDelivered": result.AlreadyDelivered,
	})
}
