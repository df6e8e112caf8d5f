package services

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishabhkap30/zipzy-backend/internal/models"
	"github.com/rishabhkap30/zipzy-backend/internal/storage"
)

func newTestPaymentService() (*PaymentService, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	return NewPaymentService(store), store
}

func TestPaymentLifecycle(t *testing.T) {
	svc, _ := newTestPaymentService()

	order, err := svc.CreateOrder("ORD-1", "U-1", 450.0, "Hostel Block A, Room 101")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)

	req, err := svc.GeneratePaymentRequest("ORD-1", 450.0, "Rahul Kumar", "+91 98765 43210")
	require.NoError(t, err)
	assert.NotEmpty(t, req.TransactionID)
	assert.True(t, strings.HasPrefix(req.QRCode, "data:image/png;base64,"))
	assert.True(t, strings.HasPrefix(req.PaymentURL, "upi://pay?"))

	status, err := svc.GetPaymentStatus("ORD-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, status.PaymentStatus)
	assert.Equal(t, 450.0, status.Amount)
	assert.Equal(t, req.TransactionID, status.TransactionID)

	result, err := svc.ConfirmPayment("ORD-1", models.PaymentStatusCompleted, "EXT-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, result.OrderStatus)
	assert.Equal(t, models.PaymentStatusCompleted, result.PaymentStatus)

	status, err = svc.GetPaymentStatus("ORD-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, status.PaymentStatus)

	order, err = svc.GetOrder("ORD-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, order.Status)
	assert.Equal(t, models.PaymentStatusCompleted, order.PaymentStatus)
}

func TestConfirmPaymentFailedKeepsOrderPending(t *testing.T) {
	svc, _ := newTestPaymentService()

	_, err := svc.CreateOrder("ORD-2", "U-1", 100.0, "addr")
	require.NoError(t, err)
	_, err = svc.GeneratePaymentRequest("ORD-2", 100.0, "", "")
	require.NoError(t, err)

	result, err := svc.ConfirmPayment("ORD-2", models.PaymentStatusFailed, "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, result.OrderStatus)
	assert.Equal(t, models.PaymentStatusFailed, result.PaymentStatus)
}

func TestConfirmPaymentGuards(t *testing.T) {
	svc, _ := newTestPaymentService()

	// unknown order
	_, err := svc.ConfirmPayment("NOPE", models.PaymentStatusCompleted, "")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// order without a payment request
	_, err = svc.CreateOrder("ORD-3", "U-1", 50.0, "addr")
	require.NoError(t, err)
	_, err = svc.ConfirmPayment("ORD-3", models.PaymentStatusCompleted, "")
	assert.ErrorIs(t, err, ErrNoPendingPayment)

	// unsupported status value
	_, err = svc.ConfirmPayment("ORD-3", "refunded", "")
	assert.ErrorIs(t, err, ErrInvalidPaymentStatus)
}

func TestValidatePayment(t *testing.T) {
	svc, _ := newTestPaymentService()

	_, err := svc.CreateOrder("ORD-4", "U-1", 450.0, "addr")
	require.NoError(t, err)

	tests := []struct {
		name   string
		amount float64
		want   bool
	}{
		{"exact", 450.0, true},
		{"within epsilon below", 449.995, true},
		{"within epsilon above", 450.005, true},
		// 450.01 sits inside the tolerance: the float difference is
		// 0.00999..., just under the 0.01 cutoff
		{"one paisa above, inside tolerance", 450.01, true},
		{"two paise above", 450.02, false},
		{"two paise below", 449.98, false},
		{"way off", 500.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, err := svc.ValidatePayment("ORD-4", tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, valid)
		})
	}

	// missing order validates false, not an error
	valid, err := svc.ValidatePayment("NOPE", 450.0)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestGeneratePaymentRequestUniqueTransactionIDs(t *testing.T) {
	svc, _ := newTestPaymentService()

	_, err := svc.CreateOrder("ORD-5", "U-1", 10.0, "addr")
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		req, err := svc.GeneratePaymentRequest("ORD-5", 10.0, "", "")
		require.NoError(t, err)
		assert.False(t, seen[req.TransactionID], "transaction ID reused: %s", req.TransactionID)
		seen[req.TransactionID] = true
	}
}

func TestGeneratePaymentRequestUnknownOrder(t *testing.T) {
	svc, _ := newTestPaymentService()

	_, err := svc.GeneratePaymentRequest("NOPE", 10.0, "", "")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPaymentURIFields(t *testing.T) {
	svc, _ := newTestPaymentService()

	_, err := svc.CreateOrder("ORD-6", "U-1", 450.0, "addr")
	require.NoError(t, err)
	req, err := svc.GeneratePaymentRequest("ORD-6", 450.0, "", "")
	require.NoError(t, err)

	parsed, err := url.Parse(req.PaymentURL)
	require.NoError(t, err)
	assert.Equal(t, "upi", parsed.Scheme)

	q := parsed.Query()
	assert.Equal(t, "rishabhkap30@okicici", q.Get("pa"))
	assert.Equal(t, "ZIPZY", q.Get("pn"))
	assert.Equal(t, "Order_ORD-6", q.Get("tn"))
	assert.Equal(t, "450.00", q.Get("am"))
	assert.Equal(t, "INR", q.Get("cu"))
	assert.Equal(t, req.TransactionID, q.Get("tr"))
}

func TestGetPaymentStatusNotFound(t *testing.T) {
	svc, _ := newTestPaymentService()

	status, err := svc.GetPaymentStatus("NO-PAYMENTS")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusNotFound, status.PaymentStatus)
	assert.Zero(t, status.Amount)
	assert.Empty(t, status.TransactionID)
	assert.Nil(t, status.CreatedAt)
	assert.Nil(t, status.ExpiresAt)
}

func TestGetPaymentStatusReturnsMostRecent(t *testing.T) {
	svc, _ := newTestPaymentService()
	base := time.Now()

	_, err := svc.CreateOrder("ORD-7", "U-1", 20.0, "addr")
	require.NoError(t, err)

	svc.now = func() time.Time { return base }
	_, err = svc.GeneratePaymentRequest("ORD-7", 20.0, "", "")
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(time.Minute) }
	second, err := svc.GeneratePaymentRequest("ORD-7", 20.0, "", "")
	require.NoError(t, err)

	status, err := svc.GetPaymentStatus("ORD-7")
	require.NoError(t, err)
	assert.Equal(t, second.TransactionID, status.TransactionID)
}

func TestSweepExpiredPaymentsIdempotent(t *testing.T) {
	svc, _ := newTestPaymentService()
	base := time.Now()
	svc.now = func() time.Time { return base }

	_, err := svc.CreateOrder("ORD-8", "U-1", 30.0, "addr")
	require.NoError(t, err)
	_, err = svc.GeneratePaymentRequest("ORD-8", 30.0, "", "")
	require.NoError(t, err)

	// before the deadline nothing expires
	count, err := svc.SweepExpiredPayments(base.Add(paymentExpiry - time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	after := base.Add(paymentExpiry + time.Second)
	count, err = svc.SweepExpiredPayments(after)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	status, err := svc.GetPaymentStatus("ORD-8")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusExpired, status.PaymentStatus)

	// second run with the same now is a no-op
	count, err = svc.SweepExpiredPayments(after)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCreateOrderUpsertKeepsPayments(t *testing.T) {
	svc, store := newTestPaymentService()

	_, err := svc.CreateOrder("ORD-9", "U-1", 40.0, "old address")
	require.NoError(t, err)
	_, err = svc.GeneratePaymentRequest("ORD-9", 40.0, "", "")
	require.NoError(t, err)

	// re-creating with the same ID replaces order fields
	order, err := svc.CreateOrder("ORD-9", "U-2", 60.0, "new address")
	require.NoError(t, err)
	assert.Equal(t, "U-2", order.UserID)
	assert.Equal(t, 60.0, order.TotalAmount)

	// but historical payments survive
	payments, err := store.GetPaymentsByOrder("ORD-9")
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}
