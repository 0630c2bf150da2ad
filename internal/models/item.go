package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, matching what clients send.
	decimal.MarshalJSONWithoutQuotes = true
}

// Item is a listing put up for sale by a seller.
type Item struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string          `json:"name" gorm:"type:varchar(50);not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	Description string          `json:"description" gorm:"type:varchar(500);not null"`
	Image       string          `json:"image" gorm:"type:text;not null"`
	Category    string          `json:"category" gorm:"type:varchar(50);not null;index"`
	SellerID    string          `json:"sellerId" gorm:"type:varchar(36);not null;index"`
	Available   bool            `json:"available" gorm:"not null;default:true;index"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ItemFilter narrows catalog listings. Zero values match everything.
type ItemFilter struct {
	Query      string
	Categories []string
	Available  *bool
	SellerID   string
}
