package models

import "time"

// User is a registered marketplace member. Users act as both buyers and sellers.
type User struct {
	ID            string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	FirstName     string         `json:"firstName" gorm:"type:varchar(100);not null"`
	LastName      string         `json:"lastName" gorm:"type:varchar(100);not null"`
	Email         string         `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Age           int            `json:"age" gorm:"not null"`
	ContactNumber string         `json:"contactNumber" gorm:"type:varchar(20);not null"`
	Password      string         `json:"-" gorm:"type:varchar(255);not null"`
	CartItems     []CartItem     `json:"cartItems" gorm:"foreignKey:UserID"`
	SellerReviews []SellerReview `json:"sellerReviews" gorm:"foreignKey:SellerID"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// FullName joins the first and last name the way listings display sellers.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// HasInCart reports whether itemID is already in the user's cart.
func (u *User) HasInCart(itemID string) bool {
	for _, ci := range u.CartItems {
		if ci.ItemID == itemID {
			return true
		}
	}
	return false
}

// CartItem is one entry in a buyer's cart. A user holds each item at most once.
type CartItem struct {
	ID        uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"-" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_user_item"`
	ItemID    string    `json:"itemId" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_user_item"`
	CreatedAt time.Time `json:"-"`
}

// SellerReview is a rating left on a seller's profile.
type SellerReview struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SellerID   string    `json:"-" gorm:"type:varchar(36);not null;index"`
	ReviewerID string    `json:"reviewerId" gorm:"type:varchar(36);not null"`
	Rating     int       `json:"rating" gorm:"not null"`
	Comment    string    `json:"comment" gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"createdAt"`
}
