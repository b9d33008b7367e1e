package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	SubjectVerify = "Verify your email - OTP"
	SubjectResend = "Your new OTP code"
)

// OTPMail is the data for a verification code email.
type OTPMail struct {
	To     string
	Name   string
	Code   string
	TTL    time.Duration
	Resend bool
}

func (m OTPMail) Render() (Message, error) {
	name, subject := "verify_otp.html", SubjectVerify
	if m.Resend {
		name, subject = "resend_otp.html", SubjectResend
	}

	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, name, map[string]any{
		"Name":             m.Name,
		"Code":             m.Code,
		"ExpiresInMinutes": int(m.TTL.Minutes()),
	})
	if err != nil {
		return Message{}, fmt.Errorf("render %s: %w", name, err)
	}
	return Message{To: m.To, Subject: subject, HTML: buf.String()}, nil
}
