// Package email envía los correos transaccionales del broker (hoy:
// códigos passwordless) vía SMTP.
package email

import (
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"

	"github.com/dropDatabas3/ssojohn/internal/observability/logger"
)

type Sender interface {
	Send(to string, subject string, htmlBody string, textBody string) error
}

type SMTPSender struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool
}

func NewSMTPSender(host string, port int, from, user, pass string) *SMTPSender {
	return &SMTPSender{
		Host:    host,
		Port:    port,
		From:    from,
		User:    user,
		Pass:    pass,
		TLSMode: "auto",
	}
}

func (s *SMTPSender) Send(to, subject, htmlBody, textBody string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)

	// Preferimos multipart/alternative (txt + html)
	if textBody != "" {
		m.SetBody("text/plain", textBody)
	}
	if htmlBody != "" {
		if textBody == "" {
			m.SetBody("text/html", htmlBody)
		} else {
			m.AddAlternative("text/html", htmlBody)
		}
	}

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.InsecureSkipVerify, // sólo dev
	}

	switch s.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: s.InsecureSkipVerify}
	default:
		// "auto"/"starttls": go-mail negocia STARTTLS si corresponde
	}

	if err := d.DialAndSend(m); err != nil {
		logger.L().Error("smtp send failed",
			logger.Component("email.smtp"),
			logger.String("to", to),
			logger.Err(err),
		)
		return fmt.Errorf("smtp send: %w", err)
	}
	logger.L().Info("smtp send ok",
		logger.Component("email.smtp"),
		logger.String("to", to),
	)
	return nil
}

// LogSender descarta el correo y solo deja registro. Para dev sin SMTP.
// No loguea subject ni cuerpo: ahí viaja el código.
type LogSender struct{}

func (LogSender) Send(to, _, _, _ string) error {
	logger.L().Info("email suppressed (no smtp configured)",
		logger.Component("email.log"),
		logger.String("to", to),
	)
	return nil
}
