package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	brevoAPIURL    = "https://api.brevo.com/v3/smtp/email"
	defaultTimeout = 10 * time.Second
)

// BrevoSender represents the Brevo (formerly Sendinblue) transactional email API.
type BrevoSender struct {
	apiKey     string
	fromEmail  string
	fromName   string
	endpoint   string
	httpClient *http.Client
}

func NewBrevoSender(apiKey, fromEmail, fromName string, timeout time.Duration) *BrevoSender {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &BrevoSender{
		apiKey:     apiKey,
		fromEmail:  fromEmail,
		fromName:   fromName,
		endpoint:   brevoAPIURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (b *BrevoSender) Provider() string { return "brevo" }

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoSendReq struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

type brevoSendResp struct {
	MessageID string `json:"messageId"`
}

func (b *BrevoSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := msg.validate(); err != nil {
		return Receipt{}, err
	}

	body, err := json.Marshal(brevoSendReq{
		Sender:      brevoContact{Email: b.fromEmail, Name: b.fromName},
		To:          []brevoContact{{Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to marshal email request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to create HTTP request for Brevo: %w", err)
	}
	req.Header.Set("api-key", b.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("brevo send email request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errorBody map[string]any
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errorBody); decodeErr != nil {
			return Receipt{}, fmt.Errorf("brevo API error: status %d", resp.StatusCode)
		}
		return Receipt{}, fmt.Errorf("brevo API error: status %d, body: %v", resp.StatusCode, errorBody)
	}

	var out brevoSendResp
	// a 2xx without a readable body still means the message was accepted
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return Receipt{MessageID: out.MessageID}, nil
}
