package mailer

import (
	"context"
	"time"

	"github.com/fathima-sithara/edu-auth-service/internal/metrics"
	"go.uber.org/zap"
)

// Notifier renders verification emails and hands them to a Sender.
// Every failure is logged and counted here; callers only need the error
// to know there is no receipt.
type Notifier struct {
	sender  Sender
	metrics *metrics.Metrics
	log     *zap.Logger
	timeout time.Duration
}

func NewNotifier(sender Sender, m *metrics.Metrics, log *zap.Logger, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{sender: sender, metrics: m, log: log, timeout: timeout}
}

func (n *Notifier) SendOTP(ctx context.Context, mail OTPMail) (Receipt, error) {
	msg, err := mail.Render()
	if err != nil {
		n.log.Error("render verification email", zap.Error(err))
		n.metrics.ObserveMail(n.sender.Provider(), "render_error")
		return Receipt{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	rcpt, err := n.sender.Send(ctx, msg)
	if err != nil {
		n.log.Warn("verification email not sent",
			zap.String("provider", n.sender.Provider()),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		n.metrics.ObserveMail(n.sender.Provider(), "failed")
		return Receipt{}, err
	}

	n.log.Info("verification email sent",
		zap.String("provider", n.sender.Provider()),
		zap.String("message_id", rcpt.MessageID))
	n.metrics.ObserveMail(n.sender.Provider(), "sent")
	return rcpt, nil
}
