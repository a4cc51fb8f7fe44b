package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"estatelink_backend/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesRender(t *testing.T) {
	sender := &LogSender{}
	svc, err := NewEmailService(sender)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.SendWelcomeEmail(ctx, "a@example.com", "Asha", "dealer"))
	require.NoError(t, svc.SendSubscriptionActivatedEmail(ctx, "a@example.com", SubscriptionEmailData{
		Name:           "Asha",
		PlanName:       "Basic Plan",
		ListingOffered: 12,
		StartDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, svc.SendSubscriptionExpiryWarning(ctx, "a@example.com", SubscriptionExpiryWarningData{
		Name:       "Asha",
		PlanName:   "Basic Plan",
		DaysLeft:   3,
		ExpiryDate: time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC),
		Remaining:  4,
	}))

	msgs := sender.Messages()
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[0].Html, "free plan request")
	assert.Contains(t, msgs[1].Html, "29 Jan 2025")
	assert.Contains(t, msgs[1].Html, "12")
	assert.Equal(t, "Your subscription expires in 3 days", msgs[2].Subject)
	assert.Contains(t, msgs[2].Html, "4 unused listings")
}

func TestQueryNotificationEscapesInput(t *testing.T) {
	sender := &LogSender{}
	svc, err := NewEmailService(sender)
	require.NoError(t, err)

	err = svc.SendQueryNotificationEmail(context.Background(), "owner@example.com", QueryNotificationData{
		OwnerName:     "Owner",
		PropertyTitle: "Sea view flat",
		SenderName:    "<script>x</script>",
		Query:         "Is it available?",
	})
	require.NoError(t, err)

	msg := sender.Messages()[0]
	assert.Equal(t, "New enquiry for Sea view flat", msg.Subject)
	assert.NotContains(t, msg.Html, "<script>")
}

func TestResendSender(t *testing.T) {
	var got resendPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewResendSender("re_test", "EstateLink <noreply@example.com>")
	s.endpoint = srv.URL

	require.NoError(t, s.Send(context.Background(), "to@example.com", "Hi", "<p>hi</p>"))
	assert.Equal(t, "to@example.com", got.To)
	assert.Equal(t, "EstateLink <noreply@example.com>", got.From)
}

func TestResendSenderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid from"}`))
	}))
	defer srv.Close()

	s := NewResendSender("re_test", "bad")
	s.endpoint = srv.URL

	err := s.Send(context.Background(), "to@example.com", "Hi", "<p>hi</p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid from")
}

func TestNewSenderFromConfig(t *testing.T) {
	assert.IsType(t, &ResendSender{}, NewSenderFromConfig(config.MailConfig{Provider: "resend", ResendAPIKey: "k"}))
	assert.IsType(t, &SMTPSender{}, NewSenderFromConfig(config.MailConfig{Provider: "smtp", SMTPHost: "smtp.example.com", SMTPPort: 587}))
	assert.IsType(t, &LogSender{}, NewSenderFromConfig(config.MailConfig{Provider: "resend"}))
	assert.IsType(t, &LogSender{}, NewSenderFromConfig(config.MailConfig{}))
}
