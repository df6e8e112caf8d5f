package storage

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishabhkap30/zipzy-backend/internal/models"
)

func TestClaimPendingOTPRequestConcurrent(t *testing.T) {
	store := NewMemoryStore()

	const requests = 20
	for i := 0; i < requests; i++ {
		_, err := store.CreateOTPRequest(&models.OTPRequest{
			ID:     fmt.Sprintf("req-%d", i),
			Mobile: fmt.Sprintf("+91%010d", i),
			Status: models.OTPRequestStatusPending,
		})
		require.NoError(t, err)
	}

	var mu sync.Mutex
	claimed := make(map[string]int)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				req, err := store.ClaimPendingOTPRequest()
				if err != nil {
					// ErrNotFound means the queue is drained
					return
				}
				mu.Lock()
				claimed[req.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, claimed, requests)
	for id, count := range claimed {
		assert.Equal(t, 1, count, "request %s claimed %d times", id, count)
	}
}

func TestClaimPendingOTPRequestOldestFirst(t *testing.T) {
	store := NewMemoryStore()

	for i := 0; i < 3; i++ {
		_, err := store.CreateOTPRequest(&models.OTPRequest{
			ID:     fmt.Sprintf("req-%d", i),
			Status: models.OTPRequestStatusPending,
		})
		require.NoError(t, err)
	}

	for i := 0; i < 3; i++ {
		req, err := store.ClaimPendingOTPRequest()
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("req-%d", i), req.ID)
		assert.Equal(t, models.OTPRequestStatusProcessing, req.Status)
	}

	_, err := store.ClaimPendingOTPRequest()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderUpsertSemantics(t *testing.T) {
	store := NewMemoryStore()

	first, err := store.CreateOrder(&models.Order{
		ID:          "ORD-1",
		UserID:      "U-1",
		TotalAmount: 100,
		Status:      models.OrderStatusPending,
	})
	require.NoError(t, err)
	created := first.CreatedAt

	second, err := store.CreateOrder(&models.Order{
		ID:          "ORD-1",
		UserID:      "U-2",
		TotalAmount: 200,
		Status:      models.OrderStatusPending,
	})
	require.NoError(t, err)

	assert.Equal(t, created, second.CreatedAt, "replace keeps original creation time")

	got, err := store.GetOrder("ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "U-2", got.UserID)
	assert.Equal(t, 200.0, got.TotalAmount)
}

func TestLatestPaymentOrdering(t *testing.T) {
	store := NewMemoryStore()
	base := time.Now()

	for i := 0; i < 3; i++ {
		_, err := store.CreatePayment(&models.Payment{
			ID:        fmt.Sprintf("txn-%d", i),
			OrderID:   "ORD-1",
			Status:    models.PaymentStatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	latest, err := store.GetLatestPaymentByOrder("ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "txn-2", latest.ID)

	all, err := store.GetPaymentsByOrder("ORD-1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "txn-2", all[0].ID)
	assert.Equal(t, "txn-0", all[2].ID)
}

func TestExpirePaymentsOnlyTouchesPending(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	_, err := store.CreatePayment(&models.Payment{
		ID:        "stale",
		OrderID:   "ORD-1",
		Status:    models.PaymentStatusPending,
		ExpiresAt: now.Add(-time.Minute),
	})
	require.NoError(t, err)
	_, err = store.CreatePayment(&models.Payment{
		ID:        "done",
		OrderID:   "ORD-1",
		Status:    models.PaymentStatusCompleted,
		ExpiresAt: now.Add(-time.Minute),
	})
	require.NoError(t, err)
	_, err = store.CreatePayment(&models.Payment{
		ID:        "fresh",
		OrderID:   "ORD-1",
		Status:    models.PaymentStatusPending,
		ExpiresAt: now.Add(time.Minute),
	})
	require.NoError(t, err)

	count, err := store.ExpirePayments(now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	all, err := store.GetPaymentsByOrder("ORD-1")
	require.NoError(t, err)
	statuses := make(map[string]string)
	for _, p := range all {
		statuses[p.ID] = p.Status
	}
	assert.Equal(t, models.PaymentStatusExpired, statuses["stale"])
	assert.Equal(t, models.PaymentStatusCompleted, statuses["done"])
	assert.Equal(t, models.PaymentStatusPending, statuses["fresh"])
}

func TestUserOTPClearing(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	user, err := store.UpsertUserByContact("a@example.com", "")
	require.NoError(t, err)

	require.NoError(t, store.SetUserOTP(user.ID, "123456", now.Add(5*time.Minute)))

	got, err := store.GetUserByIdentifier("a@example.com")
	require.NoError(t, err)
	require.NotNil(t, got.OTPCode)
	require.NotNil(t, got.OTPExpiry)

	require.NoError(t, store.ClearUserOTP(user.ID))
	got, err = store.GetUserByIdentifier("a@example.com")
	require.NoError(t, err)
	assert.Nil(t, got.OTPCode)
	assert.Nil(t, got.OTPExpiry)
}

func TestUpsertUserByContactReusesExisting(t *testing.T) {
	store := NewMemoryStore()

	first, err := store.UpsertUserByContact("b@example.com", "+911111111111")
	require.NoError(t, err)

	// matching on either contact returns the same user
	byEmail, err := store.UpsertUserByContact("b@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, byEmail.ID)

	byMobile, err := store.UpsertUserByContact("", "+911111111111")
	require.NoError(t, err)
	assert.Equal(t, first.ID, byMobile.ID)

	_, _, users, _ := store.Counts()
	assert.Equal(t, int64(1), users)
}
