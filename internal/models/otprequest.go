package models

import "time"

// OTPRequest is an intake record asking for an OTP to be generated and
// dispatched. Workers claim requests atomically (pending -> processing)
// and advance them to exactly one terminal status.
type OTPRequest struct {
	ID     string `json:"id" gorm:"primaryKey"`
	Mobile string `json:"mobile" gorm:"index"`
	Email  string `json:"email" gorm:"index"`

	Status string `json:"status" gorm:"index"` // "pending", "processing", "sent", "failed"

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OTPRequestStatus constants
const (
	OTPRequestStatusPending    = "pending"
	OTPRequestStatusProcessing = "processing"
	OTPRequestStatusSent       = "sent"
	OTPRequestStatusFailed     = "failed"
)
