package models

import "time"

// Payment represents one UPI payment attempt for an order.
// A fresh row is created per payment request; historical attempts are
// kept, and status lookups use the most recent row per order.
type Payment struct {
	ID      string `json:"id" gorm:"primaryKey"` // transaction ID (UUID)
	OrderID string `json:"order_id" gorm:"not null;index"`

	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"` // "upi"
	Status        string  `json:"status"`         // "pending", "completed", "expired", "failed"

	UPIID         string `json:"upi_id" gorm:"column:upi_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`

	// Set by the wallet/gateway on confirmation
	UPITransactionID string `json:"upi_transaction_id" gorm:"column:upi_transaction_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PaymentStatus constants
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusExpired   = "expired"
	PaymentStatusFailed    = "failed"
	PaymentStatusNotFound  = "not_found"
)

// PaymentRequest is returned when a QR payment is issued
type PaymentRequest struct {
	OrderID       string    `json:"order_id"`
	Amount        float64   `json:"amount"`
	UPIID         string    `json:"upi_id"`
	QRCode        string    `json:"qr_code"` // data URI, base64 PNG
	PaymentURL    string    `json:"payment_url"`
	ExpiresAt     time.Time `json:"expires_at"`
	TransactionID string    `json:"transaction_id"`
}

// PaymentStatusView is the read model for payment status lookups.
// Status is "not_found" (with zero fields) when no payment exists.
type PaymentStatusView struct {
	OrderID       string     `json:"order_id"`
	PaymentStatus string     `json:"payment_status"`
	Amount        float64    `json:"amount"`
	UPIID         string     `json:"upi_id,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// ConfirmationResult reports the outcome of a payment confirmation
type ConfirmationResult struct {
	OrderID       string    `json:"order_id"`
	PaymentStatus string    `json:"payment_status"`
	OrderStatus   string    `json:"order_status"`
	UpdatedAt     time.Time `json:"updated_at"`
}
