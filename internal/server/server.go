package server

import (
	"errors"

	"github.com/fathima-sithara/edu-auth-service/internal/config"
	"github.com/fathima-sithara/edu-auth-service/internal/middlewares"
	"github.com/fathima-sithara/edu-auth-service/internal/routes"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

// New initializes the Fiber application with config, middlewares, and routes.
func New(cfg *config.Config, d routes.Deps, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "edu-auth-service",
		ReadTimeout:           cfg.App.ReadTimeout,
		WriteTimeout:          cfg.App.WriteTimeout,
		IdleTimeout:           cfg.App.IdleTimeout,
		DisableStartupMessage: cfg.IsProduction(),
		ErrorHandler:          errorHandler(logger),
	})

	// Global Middlewares
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	app.Use(middlewares.RequestLogger(logger))

	routes.Setup(app, d)
	return app
}

// errorHandler keeps the {success:false, error} shape for errors that escape
// the handlers, such as unknown routes and recovered panics.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{"success": false, "error": message})
	}
}
