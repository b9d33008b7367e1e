package handlers

import (
	"github.com/fathima-sithara/edu-auth-service/internal/middlewares"
	"github.com/fathima-sithara/edu-auth-service/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Handler struct {
	svc services.AuthService
	log *zap.Logger
}

func NewHandler(svc services.AuthService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(out)
}

// withDebug adds otp and previewUrl when the service exposed them. An absent
// preview link is sent as null.
func withDebug(body fiber.Map, d *services.DebugInfo) fiber.Map {
	if d == nil {
		return body
	}
	body["otp"] = d.OTP
	if d.PreviewURL != "" {
		body["previewUrl"] = d.PreviewURL
	} else {
		body["previewUrl"] = nil
	}
	return body
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	res, err := h.svc.Register(c.UserContext(), req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(withDebug(fiber.Map{
		"success": true,
		"message": "Registration successful. Please verify your email with the OTP sent.",
		"user": fiber.Map{
			"id":    res.User.ID,
			"email": res.User.Email,
			"role":  res.User.Role,
		},
	}, res.Debug))
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := parseBody(c, &req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	res, err := h.svc.Login(c.UserContext(), req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"token":   res.Token,
		"user": fiber.Map{
			"id":    res.User.ID,
			"name":  res.User.Name,
			"email": res.User.Email,
			"role":  res.User.Role,
		},
	})
}

func (h *Handler) VerifyEmail(c *fiber.Ctx) error {
	var req services.VerifyEmailInput
	if err := parseBody(c, &req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	res, err := h.svc.VerifyEmail(c.UserContext(), req)
	if err != nil {
		return h.writeError(c, err)
	}
	if res.AlreadyVerified {
		return c.JSON(fiber.Map{"success": true, "message": "Email already verified"})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Email verified successfully",
		"token":   res.Token,
		"user": fiber.Map{
			"id":    res.User.ID,
			"name":  res.User.Name,
			"email": res.User.Email,
			"role":  res.User.Role,
		},
	})
}

func (h *Handler) ResendOTP(c *fiber.Ctx) error {
	var req services.ResendOTPInput
	if err := parseBody(c, &req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	res, err := h.svc.ResendOTP(c.UserContext(), req)
	if err != nil {
		return h.writeError(c, err)
	}
	if res.AlreadyVerified {
		return c.JSON(fiber.Map{"success": true, "message": "Email already verified"})
	}
	return c.JSON(withDebug(fiber.Map{
		"success": true,
		"message": "OTP resent successfully",
	}, res.Debug))
}

func (h *Handler) Me(c *fiber.Ctx) error {
	user, err := h.svc.GetAccount(c.UserContext(), middlewares.UserID(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": user})
}
