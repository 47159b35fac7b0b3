package routes

import (
	"log"

	"mathfarm/backend/config"
	"mathfarm/backend/controllers"
	"mathfarm/backend/middleware"
	"mathfarm/backend/storage"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, backend storage.Backend, cfg *config.Config, logger *log.Logger) {
	// Auth routes
	authController := controllers.NewAuthController(db, backend, cfg, logger)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)

	// User routes
	userController := controllers.NewUserController(db, backend, cfg, logger)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, userController.UpdateProfile)

	// Progress routes
	progressController := controllers.NewProgressController(backend, cfg, logger)
	prog := app.Group("/api/progress", authMiddleware)
	prog.Get("/", progressController.GetProgress)
	prog.Post("/events", progressController.RecordEvent)
	prog.Get("/stats", progressController.GetStats)
	prog.Get("/summary", progressController.GetSummary)
	prog.Get("/export", progressController.Export)
	prog.Post("/import", progressController.Import)
	prog.Delete("/", progressController.Clear)
}
