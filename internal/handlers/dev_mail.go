package handlers

import (
	"github.com/fathima-sithara/edu-auth-service/internal/mailer"
	"github.com/gofiber/fiber/v2"
)

type MailPreviewer interface {
	Get(id string) (mailer.StoredMessage, bool)
}

// DevMailHandler renders outbox messages behind the previewUrl links.
// Only mounted when debug secrets are exposed.
type DevMailHandler struct {
	outbox MailPreviewer
}

func NewDevMailHandler(outbox MailPreviewer) *DevMailHandler {
	return &DevMailHandler{outbox: outbox}
}

func (h *DevMailHandler) Show(c *fiber.Ctx) error {
	msg, ok := h.outbox.Get(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Message not found")
	}
	c.Set("X-Mail-To", msg.To)
	c.Set("X-Mail-Subject", msg.Subject)
	c.Type("html", "utf-8")
	return c.SendString(msg.HTML)
}
