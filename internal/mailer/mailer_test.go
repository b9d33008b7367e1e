package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

var sample = Message{To: "ann@x.com", Subject: "hi", HTML: "<p>hi</p>"}

type failingSender struct{ calls atomic.Int32 }

func (f *failingSender) Provider() string { return "failing" }

func (f *failingSender) Send(context.Context, Message) (Receipt, error) {
	f.calls.Add(1)
	return Receipt{}, errors.New("connection refused")
}

func TestOTPMail_Render(t *testing.T) {
	msg, err := OTPMail{To: "ann@x.com", Name: "Ann", Code: "123456", TTL: 15 * time.Minute}.Render()
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", msg.To)
	assert.Equal(t, SubjectVerify, msg.Subject)
	assert.Contains(t, msg.HTML, "123456")
	assert.Contains(t, msg.HTML, "Ann")
	assert.Contains(t, msg.HTML, "15 minutes")

	msg, err = OTPMail{To: "ann@x.com", Code: "654321", TTL: 15 * time.Minute, Resend: true}.Render()
	require.NoError(t, err)
	assert.Equal(t, SubjectResend, msg.Subject)
	assert.Contains(t, msg.HTML, "654321")
}

func TestOTPMail_RenderEscapesName(t *testing.T) {
	msg, err := OTPMail{To: "a@x.com", Name: "<script>", Code: "123456", TTL: time.Minute}.Render()
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
}

func TestOutbox(t *testing.T) {
	o := NewOutbox(2, "http://localhost:8081/api/dev/mail", nil)

	r1, err := o.Send(context.Background(), sample)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8081/api/dev/mail/"+r1.MessageID, r1.PreviewURL)

	got, ok := o.Get(r1.MessageID)
	require.True(t, ok)
	assert.Equal(t, sample.HTML, got.HTML)
	assert.Equal(t, sample.To, got.To)

	r2, err := o.Send(context.Background(), sample)
	require.NoError(t, err)
	r3, err := o.Send(context.Background(), sample)
	require.NoError(t, err)

	assert.Equal(t, 2, o.Len())
	_, ok = o.Get(r1.MessageID)
	assert.False(t, ok, "oldest message evicted")
	_, ok = o.Get(r2.MessageID)
	assert.True(t, ok)
	_, ok = o.Get(r3.MessageID)
	assert.True(t, ok)
}

func TestOutbox_Rejects(t *testing.T) {
	o := NewOutbox(0, "", nil)
	_, err := o.Send(context.Background(), Message{To: "a@x.com"})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = o.Send(ctx, sample)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, o.Len())
}

func TestBrevoSender(t *testing.T) {
	var got brevoSendReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.Header.Get("api-key"))
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"messageId":"<abc@smtp-relay.mailin.fr>"}`)
	}))
	defer srv.Close()

	b := NewBrevoSender("key-1", "no-reply@example.com", "Edu", time.Second)
	b.endpoint = srv.URL

	rcpt, err := b.Send(context.Background(), sample)
	require.NoError(t, err)
	assert.Equal(t, "<abc@smtp-relay.mailin.fr>", rcpt.MessageID)
	assert.Empty(t, rcpt.PreviewURL)
	assert.Equal(t, "no-reply@example.com", got.Sender.Email)
	assert.Equal(t, "ann@x.com", got.To[0].Email)
	assert.Equal(t, "<p>hi</p>", got.HTMLContent)
}

func TestBrevoSender_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"code":"unauthorized","message":"Key not found"}`)
	}))
	defer srv.Close()

	b := NewBrevoSender("bad", "no-reply@example.com", "Edu", time.Second)
	b.endpoint = srv.URL

	_, err := b.Send(context.Background(), sample)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSMTPSender_BuildsMessage(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{
		Host: "localhost", Port: 2525, Username: "u", Password: "p",
		From: "no-reply@example.com", FromName: "Edu",
	})
	require.NoError(t, err)
	assert.Equal(t, "smtp", s.Provider())

	m, err := s.build(sample)
	require.NoError(t, err)
	assert.Equal(t, []string{"hi"}, m.GetGenHeader(mail.HeaderSubject))
	assert.NotEmpty(t, m.GetGenHeader(mail.HeaderMessageID))

	_, err = s.build(Message{To: "not an address", Subject: "x", HTML: "y"})
	assert.Error(t, err)

	_, err = s.Send(context.Background(), Message{})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestBreakerSender_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &failingSender{}
	b := NewBreakerSender(inner, BreakerConfig{MaxFailures: 2, OpenTimeout: time.Minute}, nil)
	assert.Equal(t, "failing", b.Provider())

	for i := 0; i < 2; i++ {
		_, err := b.Send(context.Background(), sample)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Send(context.Background(), sample)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.EqualValues(t, 2, inner.calls.Load(), "open breaker skips the transport")
}

func TestBreakerSender_PassesReceipt(t *testing.T) {
	b := NewBreakerSender(NewOutbox(1, "http://x/mail", nil), BreakerConfig{}, nil)
	rcpt, err := b.Send(context.Background(), sample)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rcpt.PreviewURL, "http://x/mail/"))
}

func TestNotifier(t *testing.T) {
	o := NewOutbox(10, "http://x/mail", nil)
	n := NewNotifier(o, nil, nil, time.Second)

	rcpt, err := n.SendOTP(context.Background(), OTPMail{To: "ann@x.com", Code: "123456", TTL: 15 * time.Minute})
	require.NoError(t, err)
	stored, ok := o.Get(rcpt.MessageID)
	require.True(t, ok)
	assert.Equal(t, SubjectVerify, stored.Subject)

	n = NewNotifier(&failingSender{}, nil, nil, time.Second)
	_, err = n.SendOTP(context.Background(), OTPMail{To: "ann@x.com", Code: "123456", TTL: 15 * time.Minute})
	assert.Error(t, err)
}
