package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
	"github.com/google/uuid"

	"github.com/visitdesk/visitdesk/pkg/plan"
)

// PaddleConfig holds configuration for the Paddle payment gateway.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements PaymentProvider and CheckoutProvider for Paddle.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

// NewPaddleProvider creates a Paddle-backed payment provider.
func NewPaddleProvider(cfg PaddleConfig) (*PaddleProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("paddle API key is required")
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("paddle webhook secret is required")
	}

	var client *paddle.SDK
	var err error
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
	}, nil
}

// CreateCheckoutLink opens a hosted checkout session for a catalog price.
// The tenant and purchased item travel in custom data and come back on the
// transaction.completed webhook.
func (p *PaddleProvider) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if req.PriceID == "" {
		return nil, errors.New("price ID is required")
	}
	if req.TenantID == uuid.Nil {
		return nil, errors.New("tenant ID is required")
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})

	txnReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"tenant_id": req.TenantID.String(),
		},
	}
	if req.PlanType != "" {
		txnReq.CustomData["plan_type"] = string(req.PlanType)
	}
	if req.AddonID != "" {
		txnReq.CustomData["addon_id"] = req.AddonID
	}
	if req.Email != "" {
		txnReq.CustomData["email"] = req.Email
	}
	if req.SuccessURL != "" {
		txnReq.Checkout = &paddle.TransactionCheckout{URL: paddle.PtrTo(req.SuccessURL)}
	}

	txn, err := p.client.TransactionsClient.CreateTransaction(ctx, txnReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle transaction: %w", err)
	}
	if txn.Checkout == nil || txn.Checkout.URL == nil {
		return nil, errors.New("no checkout URL returned from paddle")
	}

	return &CheckoutLink{
		URL:       *txn.Checkout.URL,
		SessionID: txn.ID,
		ExpiresAt: time.Now().Add(24 * time.Hour), // Paddle checkout links expire in 24 hours
	}, nil
}

// ParseWebhook verifies the Paddle signature and normalizes the delivery
// into a PaymentEvent.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*PaymentEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, fmt.Errorf("webhook verification error: %w", err)
	}
	if !valid {
		return nil, errors.New("webhook signature verification failed")
	}

	var delivery struct {
		EventID   string         `json:"event_id"`
		EventType string         `json:"event_type"`
		Data      map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &delivery); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	return mapPaddleEvent(delivery.EventType, delivery.Data)
}

// mapPaddleEvent normalizes a parsed Paddle delivery. Unknown event types
// map to EventUnknown so the engine acknowledges without acting.
func mapPaddleEvent(eventType string, data map[string]any) (*PaymentEvent, error) {
	ev := &PaymentEvent{
		Kind:          EventUnknown,
		ProviderEvent: eventType,
		Raw:           data,
	}

	custom, _ := data["custom_data"].(map[string]any)
	if tid, ok := custom["tenant_id"].(string); ok {
		parsed, err := uuid.Parse(tid)
		if err != nil {
			return nil, fmt.Errorf("invalid tenant ID in webhook: %w", err)
		}
		ev.TenantID = parsed
	}

	switch eventType {
	case "transaction.completed":
		ev.Kind = EventPaymentSucceeded
		if id, ok := data["id"].(string); ok {
			ev.PaymentID = id
		}
		if inv, ok := data["invoice_id"].(string); ok {
			ev.OrderID = inv
		} else {
			ev.OrderID = ev.PaymentID
		}
		if pt, ok := custom["plan_type"].(string); ok {
			ev.PlanType = plan.Type(pt)
		}
		if addon, ok := custom["addon_id"].(string); ok {
			ev.AddonID = addon
		}
	case "payment_method.saved":
		ev.Kind = EventSetupVerified
		if id, ok := data["id"].(string); ok {
			ev.PaymentID = id
		}
	}

	return ev, nil
}
