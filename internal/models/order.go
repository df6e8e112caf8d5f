package models

import "time"

// Order represents a customer order awaiting payment
type Order struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"index"`

	// Pricing
	TotalAmount float64 `json:"total_amount"`

	// Status tracking
	Status        string `json:"status"`         // "pending", "confirmed"
	PaymentStatus string `json:"payment_status"` // "pending", "completed", "expired", "failed"
	PaymentMethod string `json:"payment_method"` // currently always "upi"

	DeliveryAddress string `json:"delivery_address"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderStatus constants
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
)
