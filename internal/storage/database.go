package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rishabhkap30/zipzy-backend/internal/models"
)

// DatabaseStore implements Store backed by GORM (SQLite locally,
// PostgreSQL in production)
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a new database-backed storage
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Order operations

func (d *DatabaseStore) CreateOrder(order *models.Order) (*models.Order, error) {
	// insert-or-replace keyed by id; historical payments are untouched
	err := d.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "total_amount", "status", "payment_status",
			"payment_method", "delivery_address", "updated_at",
		}),
	}).Create(order).Error
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (d *DatabaseStore) GetOrder(id string) (*models.Order, error) {
	var order models.Order
	if err := d.db.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (d *DatabaseStore) UpdateOrder(order *models.Order) error {
	result := d.db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
		"payment_method": order.PaymentMethod,
		"updated_at":     time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Payment operations

func (d *DatabaseStore) CreatePayment(payment *models.Payment) (*models.Payment, error) {
	if err := d.db.Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (d *DatabaseStore) GetLatestPaymentByOrder(orderID string) (*models.Payment, error) {
	var payment models.Payment
	err := d.db.Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (d *DatabaseStore) GetPendingPaymentByOrder(orderID string) (*models.Payment, error) {
	var payment models.Payment
	err := d.db.Where("order_id = ? AND status = ?", orderID, models.PaymentStatusPending).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (d *DatabaseStore) GetPaymentsByOrder(orderID string) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := d.db.Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (d *DatabaseStore) UpdatePayment(payment *models.Payment) error {
	result := d.db.Model(&models.Payment{}).Where("id = ?", payment.ID).Updates(map[string]interface{}{
		"status":             payment.Status,
		"upi_transaction_id": payment.UPITransactionID,
		"updated_at":         time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) ExpirePayments(now time.Time) (int64, error) {
	result := d.db.Model(&models.Payment{}).
		Where("status = ? AND expires_at < ?", models.PaymentStatusPending, now).
		Updates(map[string]interface{}{
			"status":     models.PaymentStatusExpired,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// User / OTP credential operations

func (d *DatabaseStore) GetUserByIdentifier(identifier string) (*models.User, error) {
	var user models.User
	err := d.db.Where("email = ? OR mobile = ?", identifier, identifier).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (d *DatabaseStore) UpsertUserByContact(email, mobile string) (*models.User, error) {
	query := d.db.Model(&models.User{})
	switch {
	case email != "" && mobile != "":
		query = query.Where("email = ? OR mobile = ?", email, mobile)
	case email != "":
		query = query.Where("email = ?", email)
	case mobile != "":
		query = query.Where("mobile = ?", mobile)
	default:
		return nil, ErrNotFound
	}

	var user models.User
	err := query.First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	name := email
	if name == "" {
		name = mobile
	}
	user = models.User{Name: name, Email: email, Mobile: mobile}
	if err := d.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *DatabaseStore) SetUserOTP(userID uint, code string, expiry time.Time) error {
	result := d.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"otp_code":   code,
		"otp_expiry": expiry,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) ClearUserOTP(userID uint) error {
	result := d.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"otp_code":   nil,
		"otp_expiry": nil,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) ClearExpiredOTPs(now time.Time) (int64, error) {
	result := d.db.Model(&models.User{}).
		Where("otp_expiry < ?", now).
		Updates(map[string]interface{}{
			"otp_code":   nil,
			"otp_expiry": nil,
		})
	return result.RowsAffected, result.Error
}

// OTP request queue operations

func (d *DatabaseStore) CreateOTPRequest(req *models.OTPRequest) (*models.OTPRequest, error) {
	if err := d.db.Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

func (d *DatabaseStore) GetOTPRequest(id string) (*models.OTPRequest, error) {
	var req models.OTPRequest
	if err := d.db.First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ClaimPendingOTPRequest does a compare-and-set: the conditional UPDATE
// only succeeds while the row is still pending, so concurrent workers
// racing for the same request see exactly one winner. Losers retry on
// the next oldest row.
func (d *DatabaseStore) ClaimPendingOTPRequest() (*models.OTPRequest, error) {
	for attempt := 0; attempt < 3; attempt++ {
		var req models.OTPRequest
		err := d.db.Where("status = ?", models.OTPRequestStatusPending).
			Order("created_at ASC").
			First(&req).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}

		result := d.db.Model(&models.OTPRequest{}).
			Where("id = ? AND status = ?", req.ID, models.OTPRequestStatusPending).
			Updates(map[string]interface{}{
				"status":     models.OTPRequestStatusProcessing,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 1 {
			req.Status = models.OTPRequestStatusProcessing
			return &req, nil
		}
		// another worker won the race; try the next pending row
	}
	return nil, ErrNotFound
}

func (d *DatabaseStore) UpdateOTPRequestStatus(id string, status string) error {
	result := d.db.Model(&models.OTPRequest{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Counts returns row counts for the health endpoint
func (d *DatabaseStore) Counts() (orders, payments, users, otpRequests int64) {
	d.db.Model(&models.Order{}).Count(&orders)
	d.db.Model(&models.Payment{}).Count(&payments)
	d.db.Model(&models.User{}).Count(&users)
	d.db.Model(&models.OTPRequest{}).Count(&otpRequests)
	return
}
