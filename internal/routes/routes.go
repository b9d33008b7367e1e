package routes

import (
	"net/http"

	"github.com/fathima-sithara/edu-auth-service/internal/handlers"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// Deps are the handlers mounted on the app. Metrics and DevMail are optional.
type Deps struct {
	Auth    *handlers.Handler
	Protect fiber.Handler
	Metrics http.Handler
	DevMail *handlers.DevMailHandler
}

func Setup(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(d.Metrics))
	}

	api := app.Group("/api")
	auth := api.Group("/auth")

	auth.Post("/register", d.Auth.Register)
	auth.Post("/login", d.Auth.Login)
	auth.Post("/verify-email", d.Auth.VerifyEmail)
	auth.Post("/resend-otp", d.Auth.ResendOTP)
	auth.Get("/me", d.Protect, d.Auth.Me)

	if d.DevMail != nil {
		api.Get("/dev/mail/:id", d.DevMail.Show)
	}
}
