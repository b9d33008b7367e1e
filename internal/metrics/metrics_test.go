package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.ObserveOperation("register", "success")
	m.ObserveOperation("register", "success")
	m.ObserveOperation("login", "invalid_credentials")
	m.ObserveMail("outbox", "sent")

	out := scrape(t, m)
	assert.Contains(t, out, `auth_operations_total{operation="register",result="success"} 2`)
	assert.Contains(t, out, `auth_operations_total{operation="login",result="invalid_credentials"} 1`)
	assert.Contains(t, out, `auth_mail_deliveries_total{provider="outbox",result="sent"} 1`)
	assert.Contains(t, out, "go_goroutines")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("login", "success")
		m.ObserveMail("smtp", "failed")
	})
}
