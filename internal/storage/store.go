package storage

import (
	"errors"
	"time"

	"github.com/rishabhkap30/zipzy-backend/internal/models"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for storage operations
type Store interface {
	// Order operations.
	// CreateOrder is an insert-or-replace keyed by order ID: re-creating
	// with the same ID overwrites the order's fields but never touches
	// historical payment rows.
	CreateOrder(order *models.Order) (*models.Order, error)
	GetOrder(id string) (*models.Order, error)
	UpdateOrder(order *models.Order) error

	// Payment operations
	CreatePayment(payment *models.Payment) (*models.Payment, error)
	GetLatestPaymentByOrder(orderID string) (*models.Payment, error)
	GetPendingPaymentByOrder(orderID string) (*models.Payment, error)
	GetPaymentsByOrder(orderID string) ([]*models.Payment, error)
	UpdatePayment(payment *models.Payment) error
	// ExpirePayments transitions every pending payment with
	// expires_at < now to "expired" and returns how many rows changed.
	ExpirePayments(now time.Time) (int64, error)

	// User / OTP credential operations
	GetUserByIdentifier(identifier string) (*models.User, error)
	// UpsertUserByContact finds a user by email and/or mobile, creating
	// one when none matches.
	UpsertUserByContact(email, mobile string) (*models.User, error)
	SetUserOTP(userID uint, code string, expiry time.Time) error
	ClearUserOTP(userID uint) error
	// ClearExpiredOTPs removes code+expiry from every user whose expiry
	// has passed and returns how many rows changed.
	ClearExpiredOTPs(now time.Time) (int64, error)

	// OTP request queue operations
	CreateOTPRequest(req *models.OTPRequest) (*models.OTPRequest, error)
	GetOTPRequest(id string) (*models.OTPRequest, error)
	// ClaimPendingOTPRequest atomically moves the oldest pending request
	// to "processing" and returns it. Returns ErrNotFound when nothing
	// is pending. The pending->processing transition is a compare-and-set
	// so that at most one worker observes a given request as claimable.
	ClaimPendingOTPRequest() (*models.OTPRequest, error)
	UpdateOTPRequestStatus(id string, status string) error

	// Admin/ops counts for the health endpoint
	Counts() (orders, payments, users, otpRequests int64)
}
