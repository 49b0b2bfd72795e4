package domain

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CheckoutService interface {
	StartCheckout(ctx context.Context, schoolID, orderID snowflake.ID, outcome string) (*CheckoutSession, error)
}

type WebhookService interface {
	// Process applies a webhook delivery at most once and returns its
	// frozen receipt. Replays of a recorded event id return the stored
	// receipt without re-validation.
	Process(ctx context.Context, provider string, payload json.RawMessage, sig string) (*Receipt, error)
}

type Repository interface {
	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindPaymentByID(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) (*Payment, error)
	UpdatePaymentStatus(ctx context.Context, db *gorm.DB, paymentID snowflake.ID, status string) error

	FindEvent(ctx context.Context, db *gorm.DB, provider, eventID string) (*WebhookEvent, error)
	// InsertEventIgnoreConflict reports false when another delivery already
	// recorded the same (provider, event_id) key.
	InsertEventIgnoreConflict(ctx context.Context, db *gorm.DB, event *WebhookEvent) (bool, error)
}

var (
	ErrNotFound            = errors.New("payment_not_found")
	ErrGatewayDisabled     = errors.New("checkout_gateway_disabled")
	ErrOutcomeInvalid      = errors.New("checkout_outcome_invalid")
	ErrCheckoutRateLimited = errors.New("checkout_rate_limited")

	ErrProviderUnsupported = errors.New("webhook_provider_unsupported")
	ErrPayloadInvalid      = errors.New("webhook_payload_invalid")
	ErrResultInvalid       = errors.New("webhook_result_invalid")
	ErrSignatureInvalid    = errors.New("webhook_signature_invalid")
	ErrSchoolMismatch      = errors.New("webhook_school_mismatch")
	ErrOrderMismatch       = errors.New("webhook_order_mismatch")
)
