package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"estatelink_backend/pkg/config"
	"estatelink_backend/pkg/logger"
)

type EmailService struct {
	sender    Sender
	templates *template.Template
}

type WelcomeEmailData struct {
	Name string
	Role string
}

type SubscriptionEmailData struct {
	Name           string
	PlanName       string
	Duration       string
	Amount         float64
	Currency       string
	ListingOffered int
	StartDate      time.Time
	EndDate        time.Time
}

type SubscriptionExpiryWarningData struct {
	Name       string
	PlanName   string
	DaysLeft   int
	ExpiryDate time.Time
	Remaining  int
}

type QueryNotificationData struct {
	OwnerName     string
	PropertyTitle string
	SenderName    string
	SenderEmail   string
	SenderMobile  string
	Query         string
}

type ListingDigestData struct {
	Name           string
	Since          time.Time
	LiveListings   int64
	NewQueries     int64
	PendingQueries int64
	SlotsRemaining int64
}

type PasswordChangedData struct {
	Email string
}

func NewEmailService(sender Sender) (*EmailService, error) {
	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("load email templates: %w", err)
	}
	return &EmailService{sender: sender, templates: templates}, nil
}

// NewSenderFromConfig picks the transport named by MAIL_PROVIDER.
func NewSenderFromConfig(cfg config.MailConfig) Sender {
	switch cfg.Provider {
	case "resend":
		if cfg.ResendAPIKey != "" {
			return NewResendSender(cfg.ResendAPIKey, cfg.From)
		}
	case "smtp":
		if cfg.SMTPHost != "" {
			return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.From)
		}
	}
	logger.Warn("mail provider not configured, emails will only be logged", "provider", cfg.Provider)
	return &LogSender{}
}

func (s *EmailService) render(templateName string, data interface{}) (string, error) {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", templateName, err)
	}
	return body.String(), nil
}

func (s *EmailService) sendTemplateEmail(ctx context.Context, to, subject, templateName string, data interface{}) error {
	html, err := s.render(templateName, data)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, to, subject, html); err != nil {
		return fmt.Errorf("send %s to %s: %w", templateName, to, err)
	}
	logger.FromContext(ctx).Debug("email sent", "to", to, "template", templateName)
	return nil
}

func (s *EmailService) SendWelcomeEmail(ctx context.Context, to, name, role string) error {
	return s.sendTemplateEmail(ctx, to, "Welcome to EstateLink!", "welcome.html",
		WelcomeEmailData{Name: name, Role: role})
}

func (s *EmailService) SendSubscriptionRequestedEmail(ctx context.Context, to string, data SubscriptionEmailData) error {
	return s.sendTemplateEmail(ctx, to, "We received your subscription request", "subscription_requested.html", data)
}

func (s *EmailService) SendSubscriptionActivatedEmail(ctx context.Context, to string, data SubscriptionEmailData) error {
	return s.sendTemplateEmail(ctx, to, "Your subscription is now active", "subscription_activated.html", data)
}

func (s *EmailService) SendSubscriptionExpiryWarning(ctx context.Context, to string, data SubscriptionExpiryWarningData) error {
	return s.sendTemplateEmail(ctx, to,
		fmt.Sprintf("Your subscription expires in %d days", data.DaysLeft),
		"subscription_expiry_warning.html", data)
}

func (s *EmailService) SendQueryNotificationEmail(ctx context.Context, to string, data QueryNotificationData) error {
	return s.sendTemplateEmail(ctx, to, "New enquiry for "+data.PropertyTitle, "query_notification.html", data)
}

func (s *EmailService) SendListingDigest(ctx context.Context, to string, data ListingDigestData) error {
	return s.sendTemplateEmail(ctx, to, "Your weekly listing summary", "listing_digest.html", data)
}

func (s *EmailService) SendPasswordChangedEmail(ctx context.Context, to string) error {
	return s.sendTemplateEmail(ctx, to, "Your password has been changed", "password_changed.html",
		PasswordChangedData{Email: to})
}

// Go sends in the background and logs a failure. Notifications never fail the request that triggered them.
func Go(name string, fn func(ctx context.Context) error) {
	if GlobalEmailService == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			logger.Error("email delivery failed", err, "email", name)
		}
	}()
}
