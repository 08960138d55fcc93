package routes

import (
	"time"

	"github.com/calltrackhq/calltrack-backend/internal/config"
	"github.com/calltrackhq/calltrack-backend/internal/handlers"
	"github.com/calltrackhq/calltrack-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	callHandler *handlers.CallHandler,
	profileHandler *handlers.ProfileHandler,
	phoneHandler *handlers.PhoneHandler,
	adminHandler *handlers.AdminHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	// Password reset is public; a dedicated rate limit keeps the 6-digit
	// code from being brute forced.
	reset := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
	api.Post("/user/initiate-reset", reset, profileHandler.InitiateReset)
	api.Post("/user/verify-code", reset, profileHandler.VerifyCode)
	api.Post("/user/reset-password", reset, profileHandler.ResetPassword)

	// Protected routes (JWT required) - apply middleware to individual
	// routes so it never touches the public ones
	jwt := middleware.JWTProtected(cfg)

	api.Post("/auth/logout", jwt, authHandler.Logout)

	api.Get("/calls", jwt, callHandler.Search)
	api.Get("/calls/user-info", jwt, callHandler.UserInfo)

	user := api.Group("/user", jwt)
	user.Get("/profile", profileHandler.Get)
	user.Put("/profile", profileHandler.Update)
	user.Post("/change-password", profileHandler.ChangePassword)
	user.Post("/avatar", profileHandler.UploadAvatar)
	user.Get("/phone-numbers", phoneHandler.List)
	user.Post("/phone-numbers", phoneHandler.Add)
	user.Put("/phone-numbers/:id/primary", phoneHandler.SetPrimary)
	user.Delete("/phone-numbers/:id", phoneHandler.Remove)

	admin := api.Group("/admin", jwt, middleware.AdminRequired(db))
	admin.Get("/users", adminHandler.ListUsers)
	admin.Put("/users/:id/role", adminHandler.ChangeRole)
	admin.Delete("/users/:id", adminHandler.DeleteUser)
	admin.Post("/seed", adminHandler.Seed)
}
