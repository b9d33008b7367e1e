package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fathima-sithara/edu-auth-service/internal/auth"
	"github.com/fathima-sithara/edu-auth-service/internal/config"
	"github.com/fathima-sithara/edu-auth-service/internal/handlers"
	"github.com/fathima-sithara/edu-auth-service/internal/mailer"
	"github.com/fathima-sithara/edu-auth-service/internal/metrics"
	"github.com/fathima-sithara/edu-auth-service/internal/middlewares"
	"github.com/fathima-sithara/edu-auth-service/internal/routes"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Env = "development"
	cfg.App.ReadTimeout = time.Second
	cfg.App.WriteTimeout = time.Second
	return cfg
}

func newTestApp(outbox *mailer.Outbox) *fiber.App {
	m := metrics.New()
	m.ObserveOperation("register", "success")
	d := routes.Deps{
		Auth:    handlers.NewHandler(nil, nil),
		Protect: middlewares.Protect(auth.NewTokenIssuer("s3cret", time.Hour)),
		Metrics: m.Handler(),
	}
	if outbox != nil {
		d.DevMail = handlers.NewDevMailHandler(outbox)
	}
	return New(testConfig(), d, zap.NewNop())
}

func decode(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/api/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	body := decode(t, resp.Body)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), `auth_operations_total{operation="register",result="success"} 1`)
}

func TestMeRequiresToken(t *testing.T) {
	app := newTestApp(nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/api/auth/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Not authorized to access this route", decode(t, resp.Body)["error"])
}

func TestDevMailRoute(t *testing.T) {
	outbox := mailer.NewOutbox(5, "http://localhost:8081/api/dev/mail", nil)
	rcpt, err := outbox.Send(context.Background(), mailer.Message{To: "a@x.com", Subject: "s", HTML: "<p>x</p>"})
	require.NoError(t, err)

	resp, err := newTestApp(outbox).Test(httptest.NewRequest("GET", "/api/dev/mail/"+rcpt.MessageID, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = newTestApp(nil).Test(httptest.NewRequest("GET", "/api/dev/mail/"+rcpt.MessageID, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestRecoveredPanic(t *testing.T) {
	app := newTestApp(nil)
	app.Get("/boom", func(c *fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Server Error", decode(t, resp.Body)["error"])
}
