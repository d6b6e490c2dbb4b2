package mailer

import (
	"fmt"

	"hrflow/internal/config"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer is the narrow email-gateway surface. Callers treat sends as
// fire-and-forget: a failure is logged and audited, never propagated into
// the state change that triggered it.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

func NewSMTPMailer(cfg config.Config, logger ...*zap.Logger) Mailer {
	l := zap.L().Named("mailer")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("mailer")
	}
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:   cfg.MailFrom,
		logger: l,
	}
}

func (m *smtpMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error("send mail failed",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	m.logger.Debug("mail sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
