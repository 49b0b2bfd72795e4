// Package domain contains the payment ledger and webhook event models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	ProviderDemo = "DEMO"

	StatusInitiated = "INITIATED"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"

	ResultApproved = "APPROVED"
	ResultDeclined = "DECLINED"
)

// Payment is one checkout attempt against an order. It mirrors the order's
// eventual status once the webhook lands.
type Payment struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	SchoolID  snowflake.ID `gorm:"not null;index" json:"school_id"`
	OrderID   snowflake.ID `gorm:"not null;index" json:"order_id"`
	Provider  string       `gorm:"type:text;not null" json:"provider"`
	Status    string       `gorm:"type:text;not null" json:"status"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// WebhookEvent freezes one processed delivery. The (provider, event_id) key
// is the idempotency guard: once a row exists its result snapshot is what
// every replay gets back, and the row is never mutated.
type WebhookEvent struct {
	ID         snowflake.ID   `gorm:"primaryKey" json:"id"`
	Provider   string         `gorm:"type:text;not null;uniqueIndex:idx_webhook_events_key" json:"provider"`
	EventID    string         `gorm:"type:text;not null;uniqueIndex:idx_webhook_events_key" json:"event_id"`
	SchoolID   snowflake.ID   `gorm:"not null;index" json:"school_id"`
	Payload    datatypes.JSON `gorm:"not null" json:"payload"`
	Signature  string         `gorm:"type:text;not null" json:"signature"`
	Result     datatypes.JSON `gorm:"not null" json:"result"`
	ReceivedAt time.Time      `gorm:"not null" json:"received_at"`
}

// TableName sets the database table name.
func (WebhookEvent) TableName() string { return "webhook_events" }

// CheckoutPayload is the wire shape the demo gateway signs and the webhook
// endpoint later receives back. All ids travel as decimal strings.
type CheckoutPayload struct {
	Provider  string `json:"provider"`
	EventID   string `json:"event_id"`
	SchoolID  string `json:"school_id"`
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Result    string `json:"result"`
	TS        string `json:"ts"`
}

// Receipt is the frozen outcome of one webhook delivery. Replays of the same
// event id return the identical receipt.
type Receipt struct {
	EventID       string `json:"event_id"`
	OrderID       string `json:"order_id"`
	PaymentID     string `json:"payment_id"`
	Result        string `json:"result"`
	OrderStatus   string `json:"order_status"`
	PaymentStatus string `json:"payment_status"`
	EnrollmentID  string `json:"enrollment_id,omitempty"`
}

// CheckoutSession is what startCheckout hands back: the mock URL plus the
// payload/signature pair the caller must deliver to the webhook endpoint.
type CheckoutSession struct {
	CheckoutURL string          `json:"checkout_url"`
	Payment     *Payment        `json:"payment"`
	Payload     CheckoutPayload `json:"payload"`
	Signature   string          `json:"signature"`
}
