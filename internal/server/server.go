// Package server assembles the HTTP application from its services.
package server

import (
	"errors"
	"time"

	"stringtracker/internal/handlers"
	"stringtracker/internal/middleware"
	"stringtracker/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

// Options wires the services behind the HTTP surface. Images may be nil
// when object storage is not configured.
type Options struct {
	Auth    *services.AuthService
	Guitars handlers.GuitarService
	Brands  *services.BrandService
	Images  *services.ImageService

	// BodyLimit caps request bodies in bytes. Zero keeps fiber's default.
	BodyLimit int
	// LoginAttempts per client IP and minute. Zero disables the limiter.
	LoginAttempts int
	// AccessLog enables the per-request log line.
	AccessLog bool
}

// New builds the fiber application with every route mounted.
func New(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "stringtracker",
		BodyLimit:             opts.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New())
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	imageHandler := handlers.NewImageHandler(opts.Images)
	imageHandler.RegisterPublicRoutes(app)

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")

	var loginGuards []fiber.Handler
	if opts.LoginAttempts > 0 {
		loginGuards = append(loginGuards, limiter.New(limiter.Config{
			Max:        opts.LoginAttempts,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				zap.S().Named("server").Warnw("login rate limit reached", "ip", c.IP())
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"message": "Too many attempts. Please try again later.",
				})
			},
		}))
	}
	handlers.NewAuthHandler(opts.Auth).RegisterRoutes(apiV1, loginGuards...)

	// Protected routes (require JWT authentication)
	protected := apiV1.Group("", middleware.AuthRequired(opts.Auth))
	handlers.NewGuitarHandler(opts.Guitars).RegisterRoutes(protected)
	imageHandler.RegisterRoutes(protected)
	if opts.Brands != nil {
		handlers.NewBrandHandler(opts.Brands).RegisterRoutes(protected)
	}

	return app
}

// errorHandler renders errors that escaped a handler, such as unknown routes
// or oversized bodies, as {"error": message}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		zap.S().Named("server").Errorw("unhandled error",
			"method", c.Method(), "path", c.Path(), "request_id", c.Locals("requestid"), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
