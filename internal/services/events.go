package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Routing keys of the events the marketplace emits.
const (
	EventCheckoutCompleted = "checkout.completed"
	EventOrderDelivered    = "order.delivered"
	EventReviewAdded       = "review.added"
)

// EventPublisher delivers marketplace events to interested consumers.
// *rabbitmq.Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

// Publish implements EventPublisher.
func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

// CheckoutCompleted is emitted after a checkout commits. It never carries
// the delivery code.
type CheckoutCompleted struct {
	CheckoutID string          `json:"checkoutId"`
	BuyerID    string          `json:"buyerId"`
	OrderIDs   []string        `json:"orderIds"`
	ItemIDs    []string        `json:"itemIds"`
	Total      decimal.Decimal `json:"total"`
	At         time.Time       `json:"at"`
}

// OrderDelivered is emitted when a delivery code is accepted.
type OrderDelivered struct {
	OrderID  string    `json:"orderId"`
	BuyerID  string    `json:"buyerId"`
	SellerID string    `json:"sellerId"`
	ItemID   string    `json:"itemId"`
	At       time.Time `json:"at"`
}

// ReviewAdded is emitted when a seller receives a review.
type ReviewAdded struct {
	SellerID   string    `json:"sellerId"`
	ReviewerID string    `json:"reviewerId"`
	Rating     int       `json:"rating"`
	At         time.Time `json:"at"`
}
