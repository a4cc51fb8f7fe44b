package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

var ErrInvalidWebhook = errors.New("invalid webhook signature")

type Order struct {
	ID           string  `json:"order_id"`
	Receipt      string  `json:"receipt"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	ClientSecret string  `json:"client_secret"`
}

type Payment struct {
	ID       string          `json:"id"`
	OrderID  string          `json:"order_id"`
	Status   string          `json:"status"`
	Amount   float64         `json:"amount"`
	Currency string          `json:"currency"`
	Method   string          `json:"method"`
	Captured bool            `json:"captured"`
	Raw      json.RawMessage `json:"-"`
}

// Event is a verified gateway notification about one payment.
type Event struct {
	ID      string
	Type    string
	Payment *Payment
}

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

type Gateway interface {
	CreateOrder(ctx context.Context, amount float64, receipt, currency string) (*Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
	VerifySignature(orderID, paymentID, signature string) bool
	ParseWebhook(payload []byte, signatureHeader string) (*Event, error)
}

type StripeGateway struct {
	api           *client.API
	webhookSecret string
	signingSecret string
}

func NewStripeGateway(secretKey, webhookSecret, signingSecret string, backends *stripe.Backends) *StripeGateway {
	return &StripeGateway{
		api:           client.New(secretKey, backends),
		webhookSecret: webhookSecret,
		signingSecret: signingSecret,
	}
}

// toMinor converts a decimal amount into the smallest currency unit.
func toMinor(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromMinor(amount int64) float64 {
	return float64(amount) / 100
}

func (g *StripeGateway) CreateOrder(ctx context.Context, amount float64, receipt, currency string) (*Order, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinor(amount)),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("receipt", receipt)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &Order{
		ID:           pi.ID,
		Receipt:      receipt,
		Amount:       fromMinor(pi.Amount),
		Currency:     strings.ToUpper(string(pi.Currency)),
		ClientSecret: pi.ClientSecret,
	}, nil
}

func (g *StripeGateway) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(paymentID, params)
	if err != nil {
		return nil, fmt.Errorf("fetch payment intent %s: %w", paymentID, err)
	}
	return paymentFromIntent(pi), nil
}

func paymentFromIntent(pi *stripe.PaymentIntent) *Payment {
	method := ""
	if len(pi.PaymentMethodTypes) > 0 {
		method = pi.PaymentMethodTypes[0]
	}
	raw, _ := json.Marshal(pi)
	return &Payment{
		ID:       pi.ID,
		OrderID:  pi.ID,
		Status:   string(pi.Status),
		Amount:   fromMinor(pi.Amount),
		Currency: strings.ToUpper(string(pi.Currency)),
		Method:   method,
		Captured: pi.Status == stripe.PaymentIntentStatusSucceeded,
		Raw:      raw,
	}
}

// Sign returns the hex HMAC-SHA256 of "orderID|paymentID".
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *StripeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	if g.signingSecret == "" || signature == "" {
		return false
	}
	expected := Sign(orderID, paymentID, g.signingSecret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

func (g *StripeGateway) ParseWebhook(payload []byte, signatureHeader string) (*Event, error) {
	ev, err := webhook.ConstructEvent(payload, signatureHeader, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") && ev.Data != nil {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.Payment = paymentFromIntent(&pi)
	}
	return out, nil
}
