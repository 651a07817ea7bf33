package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"subtrack/internal/logging"
)

// Service sends transactional email over SMTP.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	appURL       string
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword, appURL string) *Service {
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    smtpUser,
		appURL:       appURL,
	}
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
<html>
<body style="font-family: sans-serif; color: #333;">
  <h2>Welcome to subtrack{{if .FirstName}}, {{.FirstName}}{{end}}!</h2>
  <p>Your account is ready. Track your subscriptions, budgets, and more.</p>
  <p><a href="{{.AppURL}}/dashboard">Open your dashboard</a></p>
</body>
</html>
`))

// SendWelcomeEmail sends a welcome email after registration.
// This method is designed to be called in a goroutine.
func (s *Service) SendWelcomeEmail(ctx context.Context, toEmail, firstName string) error {
	logger := logging.GetLoggerFromContext(ctx)

	var body bytes.Buffer
	err := welcomeTemplate.Execute(&body, struct {
		FirstName string
		AppURL    string
	}{FirstName: firstName, AppURL: s.appURL})
	if err != nil {
		logger.Error("failed to render email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, "Welcome to subtrack", body.String()); err != nil {
		logger.Error("failed to send welcome email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("welcome email sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(to, subject, htmlBody string) error {
	if s.smtpHost == "" {
		// SMTP not configured; skip silently in local setups
		return nil
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.fromEmail, to, subject, htmlBody,
	)

	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
	addr := s.smtpHost + ":" + s.smtpPort

	return smtp.SendMail(addr, auth, s.fromEmail, []string{to}, []byte(msg))
}
