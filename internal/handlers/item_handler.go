package handlers

import (
	"strconv"
	"strings"

	"campusmart/internal/middleware"
	"campusmart/internal/models"
	"campusmart/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ItemHandler handles HTTP requests for item listings.
type ItemHandler struct {
	service  *services.CatalogService
	validate *validator.Validate
	log      *zap.Logger
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(service *services.CatalogService, log *zap.Logger) *ItemHandler {
	return &ItemHandler{
		service:  service,
		validate: validator.New(),
		log:      log,
	}
}

// RegisterRoutes registers the item routes. Only item detail is public.
func (h *ItemHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	itemRoutes := router.Group("/item")
	itemRoutes.Post("/add", auth, h.HandleAddItem)
	itemRoutes.Delete("/delete/:id", auth, h.HandleDeleteItem)
	itemRoutes.Get("/all", auth, h.HandleListItems)
	itemRoutes.Get("/get/:id", auth, h.HandleItemsBySeller)
	itemRoutes.Get("/:id", h.HandleItemDetail)
}

// AddItemRequest represents the request body for a new listing.
type AddItemRequest struct {
	Name        string           `json:"name" validate:"required"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Description string           `json:"description" validate:"required"`
	Image       string           `json:"image" validate:"required"`
	Category    string           `json:"category" validate:"required"`
	SellerID    string           `json:"sellerId" validate:"required"`
}

// HandleAddItem lists a new item for the caller.
func (h *ItemHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}
	if handled, err := requireSelf(c, req.SellerID); handled {
		return err
	}

	item, err := h.service.AddItem(c.UserContext(), services.NewItemInput{
		Name:        req.Name,
		Price:       *req.Price,
		Description: req.Description,
		Image:       req.Image,
		Category:    req.Category,
		SellerID:    req.SellerID,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Item added successfully",
		"item":    item,
	})
}

// HandleDeleteItem removes one of the caller's listings.
func (h *ItemHandler) HandleDeleteItem(c *fiber.Ctx) error {
	if err := h.service.DeleteItem(c.UserContext(), c.Params("id"), middleware.CurrentUserID(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Item deleted successfully"})
}

// HandleListItems returns the catalog. Supported query parameters are q,
// category (repeatable or comma-separated) and available.
func (h *ItemHandler) HandleListItems(c *fiber.Ctx) error {
	filter := models.ItemFilter{Query: strings.TrimSpace(c.Query("q"))}

	for _, raw := range c.Context().QueryArgs().PeekMulti("category") {
		for _, category := range strings.Split(string(raw), ",") {
			if category = strings.TrimSpace(category); category != "" {
				filter.Categories = append(filter.Categories, category)
			}
		}
	}

	if raw := c.Query("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "available must be true or false",
			})
		}
		filter.Available = &available
	}

	items, err := h.service.ListItems(c.UserContext(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"message": "Items fetched successfully",
		"items":   items,
	})
}

// HandleItemsBySeller returns every listing of the seller in the path.
func (h *ItemHandler) HandleItemsBySeller(c *fiber.Ctx) error {
	items, err := h.service.ItemsBySeller(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"message": "Items fetched successfully",
		"items":   items,
	})
}

// HandleItemDetail returns an item with its seller's public profile.
func (h *ItemHandler) HandleItemDetail(c *fiber.Ctx) error {
	item, err := h.service.ItemDetail(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"message": "Item fetched successfully",
		"item":    item,
	})
}
