// utils/email.go
package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Mailer delivers a single email.
type Mailer interface {
	Send(ctx context.Context, toEmail, subject, htmlContent, textContent string) error
}

// PostmarkMailer sends email through Postmark.
type PostmarkMailer struct {
	client *postmark.Client
	from   string
}

func NewPostmarkMailer(serverToken, from string) *PostmarkMailer {
	return &PostmarkMailer{
		client: postmark.NewClient(serverToken, ""),
		from:   from,
	}
}

func (m *PostmarkMailer) Send(_ context.Context, toEmail, subject, htmlContent, textContent string) error {
	res, err := m.client.SendEmail(postmark.Email{
		From:     m.from,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: textContent,
	})
	if err != nil {
		return fmt.Errorf("postmark: %w", err)
	}
	if res.ErrorCode != 0 {
		return fmt.Errorf("postmark: error %d: %s", res.ErrorCode, res.Message)
	}
	return nil
}

// SendgridMailer sends email through SendGrid.
type SendgridMailer struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

func NewSendgridMailer(apiKey, from, fromName string) *SendgridMailer {
	return &SendgridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: fromName,
	}
}

func (m *SendgridMailer) Send(ctx context.Context, toEmail, subject, htmlContent, textContent string) error {
	msg := mail.NewSingleEmail(
		mail.NewEmail(m.fromName, m.from),
		subject,
		mail.NewEmail("", toEmail),
		textContent,
		htmlContent,
	)
	res, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// LogMailer writes emails to the log instead of sending them. Development only.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, toEmail, subject, _, textContent string) error {
	m.logger.Info("email not sent, log provider in use",
		zap.String("to", toEmail),
		zap.String("subject", subject),
		zap.String("body", textContent),
	)
	return nil
}

// EmailService renders and sends the storefront's transactional emails
type EmailService struct {
	mailer  Mailer
	appName string
}

// NewEmailService initializes and returns a new EmailService instance
func NewEmailService(mailer Mailer, appName string) *EmailService {
	if appName == "" {
		appName = "Storefront"
	}
	return &EmailService{mailer: mailer, appName: appName}
}

// SendPasswordResetCode emails a one-time password reset code
func (es *EmailService) SendPasswordResetCode(ctx context.Context, toEmail, name, code string, ttl time.Duration) error {
	if toEmail == "" || code == "" {
		return errors.New("recipient and code are required")
	}
	subject := fmt.Sprintf("%s password reset code", es.appName)
	minutes := int(ttl.Minutes())
	text := fmt.Sprintf("Hi %s,\n\nYour password reset code is %s. It expires in %d minutes.\n\nIf you did not ask for this, ignore this email.\n", name, code, minutes)
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your password reset code is <strong>%s</strong>. It expires in %d minutes.</p><p>If you did not ask for this, ignore this email.</p>",
		name, code, minutes,
	)
	return es.mailer.Send(ctx, toEmail, subject, html, text)
}
