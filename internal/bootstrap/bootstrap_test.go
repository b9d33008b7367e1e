package bootstrap

import (
	"testing"

	"github.com/fathima-sithara/edu-auth-service/internal/config"
	"github.com/fathima-sithara/edu-auth-service/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func baseConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.PublicURL = "http://localhost:8081"
	cfg.Mail.From = "no-reply@example.com"
	cfg.Mail.FromName = "Edu"
	return cfg
}

func TestNewMailSender(t *testing.T) {
	log := zap.NewNop()

	cfg := baseConfig()
	cfg.Mail.Provider = config.MailProviderOutbox
	sender, outbox, err := NewMailSender(cfg, log)
	require.NoError(t, err)
	require.NotNil(t, outbox)
	assert.Equal(t, "outbox", sender.Provider())

	cfg.Mail.Provider = config.MailProviderBrevo
	cfg.Mail.Brevo.APIKey = "key"
	sender, outbox, err = NewMailSender(cfg, log)
	require.NoError(t, err)
	assert.Nil(t, outbox)
	assert.Equal(t, "brevo", sender.Provider())

	cfg.Mail.Provider = config.MailProviderSMTP
	cfg.Mail.SMTP = config.SMTPCfg{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p"}
	sender, outbox, err = NewMailSender(cfg, log)
	require.NoError(t, err)
	assert.Nil(t, outbox)
	assert.Equal(t, "smtp", sender.Provider())
}

func TestNewPublisher(t *testing.T) {
	cfg := baseConfig()
	assert.IsType(t, events.Noop{}, NewPublisher(cfg, zap.NewNop()))

	cfg.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Kafka.Topic = "auth.account-events"
	p := NewPublisher(cfg, zap.NewNop())
	assert.IsType(t, &events.KafkaPublisher{}, p)
	assert.NoError(t, p.Close())
}

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		l, err := NewLogger(env)
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
}
