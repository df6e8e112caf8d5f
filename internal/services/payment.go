package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/rishabhkap30/zipzy-backend/internal/models"
	"github.com/rishabhkap30/zipzy-backend/internal/storage"
	"github.com/rishabhkap30/zipzy-backend/internal/utils"
)

// Payment requests expire 15 minutes after issue
const paymentExpiry = 15 * time.Minute

// amountEpsilon absorbs floating-point representation error when
// comparing monetary amounts
const amountEpsilon = 0.01

// ErrNoPendingPayment is returned when confirming an order that has no
// active payment request.
var ErrNoPendingPayment = errors.New("no pending payment for order")

// ErrInvalidPaymentStatus is returned when a confirmation carries a
// status other than completed or failed.
var ErrInvalidPaymentStatus = errors.New("invalid payment status")

// PaymentService manages the UPI payment lifecycle for orders:
// create -> request payment (QR) -> confirm or expire
type PaymentService struct {
	store        storage.Store
	upiID        string
	merchantName string
	currency     string

	now func() time.Time
}

// NewPaymentService creates a new payment service. Merchant identity
// comes from UPI_ID and MERCHANT_NAME, with the original deployment's
// values as defaults.
func NewPaymentService(store storage.Store) *PaymentService {
	upiID := os.Getenv("UPI_ID")
	if upiID == "" {
		upiID = "rishabhkap30@okicici"
	}
	merchantName := os.Getenv("MERCHANT_NAME")
	if merchantName == "" {
		merchantName = "ZIPZY"
	}

	return &PaymentService{
		store:        store,
		upiID:        upiID,
		merchantName: merchantName,
		currency:     "INR",
		now:          time.Now,
	}
}

// CreateOrder inserts or replaces an order. Re-creating with the same
// ID overwrites the order's fields but keeps historical payments.
func (p *PaymentService) CreateOrder(orderID, userID string, amount float64, deliveryAddress string) (*models.Order, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order ID is required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	order := &models.Order{
		ID:              orderID,
		UserID:          userID,
		TotalAmount:     amount,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentMethod:   "upi",
		DeliveryAddress: deliveryAddress,
	}

	order, err := p.store.CreateOrder(order)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	log.Printf("Order created: %s (user %s, ₹%.2f)", orderID, userID, amount)
	return order, nil
}

// GetOrder retrieves order details
func (p *PaymentService) GetOrder(orderID string) (*models.Order, error) {
	return p.store.GetOrder(orderID)
}

// GeneratePaymentRequest issues a fresh payment attempt for an order:
// a new transaction ID, a UPI payment URI, a scannable QR artifact and
// a pending payment row expiring in 15 minutes. Each call creates a new
// payment row; earlier pending rows for the order are left alone.
func (p *PaymentService) GeneratePaymentRequest(orderID string, amount float64, customerName, customerPhone string) (*models.PaymentRequest, error) {
	if _, err := p.store.GetOrder(orderID); err != nil {
		return nil, fmt.Errorf("order %s: %w", orderID, err)
	}

	transactionID := utils.GenerateTransactionID()
	paymentURL := p.buildPaymentURI(orderID, amount, transactionID)

	png, err := qrcode.Encode(paymentURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}

	now := p.now()
	payment := &models.Payment{
		ID:            transactionID,
		OrderID:       orderID,
		Amount:        amount,
		PaymentMethod: "upi",
		Status:        models.PaymentStatusPending,
		UPIID:         p.upiID,
		CustomerName:  customerName,
		CustomerPhone: customerPhone,
		CreatedAt:     now,
		ExpiresAt:     now.Add(paymentExpiry),
	}
	if _, err := p.store.CreatePayment(payment); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	log.Printf("Payment request issued: order %s, txn %s, expires %s",
		orderID, transactionID, payment.ExpiresAt.Format(time.RFC3339))

	return &models.PaymentRequest{
		OrderID:       orderID,
		Amount:        amount,
		UPIID:         p.upiID,
		QRCode:        "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		PaymentURL:    paymentURL,
		ExpiresAt:     payment.ExpiresAt,
		TransactionID: transactionID,
	}, nil
}

// buildPaymentURI builds the upi://pay URI wallet apps consume
func (p *PaymentService) buildPaymentURI(orderID string, amount float64, transactionID string) string {
	params := url.Values{}
	params.Set("pa", p.upiID)
	params.Set("pn", p.merchantName)
	params.Set("tn", "Order_"+orderID)
	params.Set("am", strconv.FormatFloat(amount, 'f', 2, 64))
	params.Set("cu", p.currency)
	params.Set("tr", transactionID)
	return "upi://pay?" + params.Encode()
}

// GetPaymentStatus returns the most recently created payment for the
// order, or a not_found view when the order has no payments.
func (p *PaymentService) GetPaymentStatus(orderID string) (*models.PaymentStatusView, error) {
	payment, err := p.store.GetLatestPaymentByOrder(orderID)
	if err != nil {
		if err == storage.ErrNotFound {
			return &models.PaymentStatusView{
				OrderID:       orderID,
				PaymentStatus: models.PaymentStatusNotFound,
			}, nil
		}
		return nil, err
	}

	created := payment.CreatedAt
	expires := payment.ExpiresAt
	return &models.PaymentStatusView{
		OrderID:       orderID,
		PaymentStatus: payment.Status,
		Amount:        payment.Amount,
		UPIID:         payment.UPIID,
		TransactionID: payment.ID,
		CreatedAt:     &created,
		ExpiresAt:     &expires,
	}, nil
}

// ConfirmPayment records the outcome of the order's active payment and
// moves the order with it: the order becomes confirmed if and only if
// the payment completed. Confirming an order that does not exist, or
// has no pending payment, is an error.
func (p *PaymentService) ConfirmPayment(orderID, status, upiTransactionID string) (*models.ConfirmationResult, error) {
	if status != models.PaymentStatusCompleted && status != models.PaymentStatusFailed {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, status)
	}

	order, err := p.store.GetOrder(orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", orderID, err)
	}

	payment, err := p.store.GetPendingPaymentByOrder(orderID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, fmt.Errorf("order %s: %w", orderID, ErrNoPendingPayment)
		}
		return nil, err
	}

	payment.Status = status
	payment.UPITransactionID = upiTransactionID
	if err := p.store.UpdatePayment(payment); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	orderStatus := models.OrderStatusPending
	if status == models.PaymentStatusCompleted {
		orderStatus = models.OrderStatusConfirmed
	}
	order.Status = orderStatus
	order.PaymentStatus = status
	if err := p.store.UpdateOrder(order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	log.Printf("Payment %s for order %s: %s (upi txn: %s)",
		payment.ID, orderID, status, upiTransactionID)

	return &models.ConfirmationResult{
		OrderID:       orderID,
		PaymentStatus: status,
		OrderStatus:   orderStatus,
		UpdatedAt:     p.now(),
	}, nil
}

// ValidatePayment checks the claimed amount against the order total.
// Monetary floats are never compared exactly; a difference under 0.01
// is treated as equal. A missing order validates false.
func (p *PaymentService) ValidatePayment(orderID string, amount float64) (bool, error) {
	order, err := p.store.GetOrder(orderID)
	if err != nil {
		if err == storage.ErrNotFound {
			return false, nil
		}
		return false, err
	}

	diff := order.TotalAmount - amount
	if diff < 0 {
		diff = -diff
	}
	return diff < amountEpsilon, nil
}

// ListPayments returns all payment attempts for an order, most recent
// first
func (p *PaymentService) ListPayments(orderID string) ([]*models.Payment, error) {
	return p.store.GetPaymentsByOrder(orderID)
}

// SweepExpiredPayments expires every pending payment whose deadline has
// passed. Safe to call repeatedly: already-expired rows are untouched.
func (p *PaymentService) SweepExpiredPayments(now time.Time) (int64, error) {
	count, err := p.store.ExpirePayments(now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire payments: %w", err)
	}
	if count > 0 {
		log.Printf("Expired %d pending payment(s)", count)
	}
	return count, nil
}

// UPIDetails describes the merchant's UPI payment setup
type UPIDetails struct {
	UPIID         string   `json:"upi_id"`
	MerchantName  string   `json:"merchant_name"`
	Currency      string   `json:"currency"`
	SupportedApps []string `json:"supported_apps"`
	Instructions  []string `json:"instructions"`
}

// GetUPIDetails returns static merchant payment details for clients
func (p *PaymentService) GetUPIDetails() *UPIDetails {
	return &UPIDetails{
		UPIID:        p.upiID,
		MerchantName: p.merchantName,
		Currency:     p.currency,
		SupportedApps: []string{
			"Google Pay",
			"PhonePe",
			"Paytm",
			"BHIM",
			"Amazon Pay",
			"Any UPI App",
		},
		Instructions: []string{
			"1. Open any UPI app",
			"2. Scan QR code or enter UPI ID",
			"3. Enter amount and complete payment",
			"4. Click confirm payment button",
		},
	}
}
