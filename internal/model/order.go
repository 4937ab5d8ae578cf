package model

import "time"

// Order direction: which party initiated the order. This determines how the
// buyer/seller columns are assigned at creation time, nothing more.
const (
	OrderTypeBuy  = "buy"
	OrderTypeSell = "sell"
)

// Order is an immutable record of a buy or sell action. There is no status
// field: once created an order is never mutated or cancelled.
type Order struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Type       string    `json:"type" gorm:"type:varchar(10);not null"`
	BuyerID    uint      `json:"buyer_id" gorm:"index;not null"`
	SellerID   uint      `json:"seller_id" gorm:"index;not null"`
	ProductID  uint      `json:"product_id" gorm:"index;not null"`
	Product    *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity   int       `json:"quantity" gorm:"not null;default:1"`
	TotalPrice float64   `json:"total_price" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
