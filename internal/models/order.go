package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order records the sale of a single item. One checkout creates one order per
// cart item; orders from the same checkout share CheckoutID and HashedOTP.
type Order struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TransactionID string          `json:"transactionId" gorm:"type:varchar(36);not null;uniqueIndex"`
	CheckoutID    string          `json:"checkoutId" gorm:"type:varchar(36);not null;index"`
	BuyerID       string          `json:"buyerId" gorm:"type:varchar(36);not null;index"`
	SellerID      string          `json:"sellerId" gorm:"type:varchar(36);not null;index"`
	ItemID        string          `json:"itemId" gorm:"type:varchar(36);not null"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	HashedOTP     string          `json:"-" gorm:"column:hashed_otp;type:varchar(255);not null"`
	Delivered     bool            `json:"delivered" gorm:"not null;default:false"`
	DeliveredAt   *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}
