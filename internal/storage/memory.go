package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/rishabhkap30/zipzy-backend/internal/models"
)

// MemoryStore holds all data in memory for local development and tests
type MemoryStore struct {
	orders   map[string]*models.Order
	payments map[string]*models.Payment
	users    map[uint]*models.User
	requests map[string]*models.OTPRequest

	// Mutexes for thread safety
	orderMu   sync.RWMutex
	paymentMu sync.RWMutex
	userMu    sync.RWMutex
	requestMu sync.RWMutex

	userCounter uint
	// monotonic tiebreakers so same-timestamp rows keep insertion order
	paymentSeq     map[string]int
	paymentCounter int
	requestSeq     map[string]int
	requestCounter int
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:     make(map[string]*models.Order),
		payments:   make(map[string]*models.Payment),
		users:      make(map[uint]*models.User),
		requests:   make(map[string]*models.OTPRequest),
		paymentSeq: make(map[string]int),
		requestSeq: make(map[string]int),
	}
}

// Order operations

func (m *MemoryStore) CreateOrder(order *models.Order) (*models.Order, error) {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	now := time.Now()
	if existing, ok := m.orders[order.ID]; ok {
		// insert-or-replace: keep the original creation time
		order.CreatedAt = existing.CreatedAt
	} else {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	saved := *order
	m.orders[order.ID] = &saved
	return order, nil
}

func (m *MemoryStore) GetOrder(id string) (*models.Order, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	order, exists := m.orders[id]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *MemoryStore) UpdateOrder(order *models.Order) error {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	if _, exists := m.orders[order.ID]; !exists {
		return ErrNotFound
	}
	order.UpdatedAt = time.Now()
	saved := *order
	m.orders[order.ID] = &saved
	return nil
}

// Payment operations

func (m *MemoryStore) CreatePayment(payment *models.Payment) (*models.Payment, error) {
	m.paymentMu.Lock()
	defer m.paymentMu.Unlock()

	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}
	payment.UpdatedAt = payment.CreatedAt

	m.paymentCounter++
	m.paymentSeq[payment.ID] = m.paymentCounter

	saved := *payment
	m.payments[payment.ID] = &saved
	return payment, nil
}

func (m *MemoryStore) GetLatestPaymentByOrder(orderID string) (*models.Payment, error) {
	payments, err := m.GetPaymentsByOrder(orderID)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, ErrNotFound
	}
	return payments[0], nil
}

func (m *MemoryStore) GetPendingPaymentByOrder(orderID string) (*models.Payment, error) {
	payments, err := m.GetPaymentsByOrder(orderID)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		if p.Status == models.PaymentStatusPending {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

// GetPaymentsByOrder returns the order's payments, most recent first
func (m *MemoryStore) GetPaymentsByOrder(orderID string) ([]*models.Payment, error) {
	m.paymentMu.RLock()
	defer m.paymentMu.RUnlock()

	var payments []*models.Payment
	for _, p := range m.payments {
		if p.OrderID == orderID {
			copied := *p
			payments = append(payments, &copied)
		}
	}

	sort.Slice(payments, func(i, j int) bool {
		if payments[i].CreatedAt.Equal(payments[j].CreatedAt) {
			return m.paymentSeq[payments[i].ID] > m.paymentSeq[payments[j].ID]
		}
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
	return payments, nil
}

func (m *MemoryStore) UpdatePayment(payment *models.Payment) error {
	m.paymentMu.Lock()
	defer m.paymentMu.Unlock()

	if _, exists := m.payments[payment.ID]; !exists {
		return ErrNotFound
	}
	payment.UpdatedAt = time.Now()
	saved := *payment
	m.payments[payment.ID] = &saved
	return nil
}

func (m *MemoryStore) ExpirePayments(now time.Time) (int64, error) {
	m.paymentMu.Lock()
	defer m.paymentMu.Unlock()

	var count int64
	for _, p := range m.payments {
		if p.Status == models.PaymentStatusPending && p.ExpiresAt.Before(now) {
			p.Status = models.PaymentStatusExpired
			p.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

// User / OTP credential operations

func (m *MemoryStore) GetUserByIdentifier(identifier string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	for _, u := range m.users {
		if (u.Email != "" && u.Email == identifier) || (u.Mobile != "" && u.Mobile == identifier) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpsertUserByContact(email, mobile string) (*models.User, error) {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	for _, u := range m.users {
		if (email != "" && u.Email == email) || (mobile != "" && u.Mobile == mobile) {
			copied := *u
			return &copied, nil
		}
	}

	name := email
	if name == "" {
		name = mobile
	}

	m.userCounter++
	user := &models.User{
		Name:   name,
		Email:  email,
		Mobile: mobile,
	}
	user.ID = m.userCounter
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	m.users[user.ID] = user
	copied := *user
	return &copied, nil
}

func (m *MemoryStore) SetUserOTP(userID uint, code string, expiry time.Time) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	user, exists := m.users[userID]
	if !exists {
		return ErrNotFound
	}
	user.OTPCode = &code
	user.OTPExpiry = &expiry
	user.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) ClearUserOTP(userID uint) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	user, exists := m.users[userID]
	if !exists {
		return ErrNotFound
	}
	user.OTPCode = nil
	user.OTPExpiry = nil
	user.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) ClearExpiredOTPs(now time.Time) (int64, error) {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	var count int64
	for _, u := range m.users {
		if u.OTPExpiry != nil && u.OTPExpiry.Before(now) {
			u.OTPCode = nil
			u.OTPExpiry = nil
			u.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

// OTP request queue operations

func (m *MemoryStore) CreateOTPRequest(req *models.OTPRequest) (*models.OTPRequest, error) {
	m.requestMu.Lock()
	defer m.requestMu.Unlock()

	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	req.UpdatedAt = req.CreatedAt

	m.requestCounter++
	m.requestSeq[req.ID] = m.requestCounter

	saved := *req
	m.requests[req.ID] = &saved
	return req, nil
}

func (m *MemoryStore) GetOTPRequest(id string) (*models.OTPRequest, error) {
	m.requestMu.RLock()
	defer m.requestMu.RUnlock()

	req, exists := m.requests[id]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *req
	return &copied, nil
}

// ClaimPendingOTPRequest claims the oldest pending request under the
// write lock, so no two callers can claim the same one.
func (m *MemoryStore) ClaimPendingOTPRequest() (*models.OTPRequest, error) {
	m.requestMu.Lock()
	defer m.requestMu.Unlock()

	var oldest *models.OTPRequest
	for _, r := range m.requests {
		if r.Status != models.OTPRequestStatusPending {
			continue
		}
		if oldest == nil || m.requestSeq[r.ID] < m.requestSeq[oldest.ID] {
			oldest = r
		}
	}
	if oldest == nil {
		return nil, ErrNotFound
	}

	oldest.Status = models.OTPRequestStatusProcessing
	oldest.UpdatedAt = time.Now()
	copied := *oldest
	return &copied, nil
}

func (m *MemoryStore) UpdateOTPRequestStatus(id string, status string) error {
	m.requestMu.Lock()
	defer m.requestMu.Unlock()

	req, exists := m.requests[id]
	if !exists {
		return ErrNotFound
	}
	req.Status = status
	req.UpdatedAt = time.Now()
	return nil
}

// Counts returns row counts for the health endpoint
func (m *MemoryStore) Counts() (orders, payments, users, otpRequests int64) {
	m.orderMu.RLock()
	orders = int64(len(m.orders))
	m.orderMu.RUnlock()

	m.paymentMu.RLock()
	payments = int64(len(m.payments))
	m.paymentMu.RUnlock()

	m.userMu.RLock()
	users = int64(len(m.users))
	m.userMu.RUnlock()

	m.requestMu.RLock()
	otpRequests = int64(len(m.requests))
	m.requestMu.RUnlock()
	return
}
