package handlers

import (
	"errors"

	"github.com/fathima-sithara/edu-auth-service/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const serverError = "Server Error"

var errorStatus = []struct {
	err     error
	status  int
	message string
}{
	{services.ErrDuplicateAccount, fiber.StatusBadRequest, "User with this email already exists"},
	{services.ErrUserNotFound, fiber.StatusNotFound, "User not found"},
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized, "Invalid credentials"},
	{services.ErrEmailNotVerified, fiber.StatusForbidden, "Email not verified. Please check your email for the OTP or request a new one."},
	{services.ErrNoOTPSet, fiber.StatusBadRequest, "No OTP set. Please request a new one."},
	{services.ErrOTPExpired, fiber.StatusBadRequest, "OTP expired. Please request a new one."},
	{services.ErrInvalidOTP, fiber.StatusBadRequest, "Invalid OTP"},
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": message})
}

// writeError maps service errors onto status codes. Anything unrecognized is
// logged and reported as a bare 500.
func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		return fail(c, fiber.StatusBadRequest, ve.Message)
	}
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return fail(c, e.status, e.message)
		}
	}
	h.log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return fail(c, fiber.StatusInternalServerError, serverError)
}
