package handlers

import (
	"time"

	"campusmart/internal/middleware"
	"campusmart/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Auth    *services.AuthService
	Users   *services.UserService
	Cart    *services.CartService
	Reviews *services.ReviewService
	Catalog *services.CatalogService
	Orders  *services.OrderService
	CAS     services.TicketValidator

	AuthHeader  string
	FrontendURL string
	CORSOrigins string
	// AccessLog enables the request logger middleware.
	AccessLog bool
	Log       *zap.Logger
}

// NewApp builds the Fiber app with middleware, /health and every /api route.
func NewApp(deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "campusmart",
		ErrorHandler: ErrorHandler(deps.Log),
	})

	// --- Middleware ---
	app.Use(recover.New())
	if deps.AccessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: deps.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + deps.AuthHeader,
	}))

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- API Routes ---
	api := app.Group("/api")
	auth := middleware.AuthRequired(deps.Auth, deps.AuthHeader, deps.Log)

	NewAuthHandler(deps.Auth, deps.Users, deps.CAS, deps.FrontendURL, deps.Log).RegisterRoutes(api, auth)
	NewCartHandler(deps.Cart, deps.Reviews, deps.Log).RegisterRoutes(api, auth)
	NewItemHandler(deps.Catalog, deps.Log).RegisterRoutes(api, auth)
	NewOrderHandler(deps.Orders, deps.Log).RegisterRoutes(api, auth)

	return app
}
