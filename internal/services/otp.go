package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/rishabhkap30/zipzy-backend/internal/models"
	"github.com/rishabhkap30/zipzy-backend/internal/storage"
	"github.com/rishabhkap30/zipzy-backend/internal/utils"
)

// OTP codes expire 5 minutes after issue
const otpTTL = 5 * time.Minute

// OTPService manages time-boxed one-time codes tied to a user identity
// (email or mobile), plus the intake queue for asynchronous dispatch.
type OTPService struct {
	store storage.Store
	email *EmailService
	sms   *SMSService

	now func() time.Time
}

// NewOTPService creates a new OTP service
func NewOTPService(store storage.Store, email *EmailService, sms *SMSService) *OTPService {
	return &OTPService{
		store: store,
		email: email,
		sms:   sms,
		now:   time.Now,
	}
}

// GenerateCode draws a fresh 6-digit code for the identity and persists
// it with its expiry. Re-issuing always overwrites the previous code.
// Returns storage.ErrNotFound when no user matches the identifier.
func (s *OTPService) GenerateCode(identifier string) (string, error) {
	user, err := s.store.GetUserByIdentifier(identifier)
	if err != nil {
		return "", err
	}

	code, err := utils.GenerateOTPCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	if err := s.store.SetUserOTP(user.ID, code, s.now().Add(otpTTL)); err != nil {
		return "", fmt.Errorf("failed to persist OTP: %w", err)
	}
	return code, nil
}

// DispatchCode sends the identity's stored code through the named
// channel ("email" or "sms"). Returns whether delivery succeeded; a
// transport failure never invalidates the issued code.
func (s *OTPService) DispatchCode(identifier, channel string) (bool, error) {
	user, err := s.store.GetUserByIdentifier(identifier)
	if err != nil {
		return false, err
	}
	if user.OTPCode == nil {
		return false, fmt.Errorf("no active OTP for %s", identifier)
	}

	body := s.messageBody(*user.OTPCode)
	switch channel {
	case "email":
		return s.email.Send(user.Email, "Your ZIPZY OTP", body), nil
	case "sms":
		return s.sms.Send(user.Mobile, body), nil
	default:
		return false, fmt.Errorf("unknown dispatch channel %q", channel)
	}
}

// VerifyCode checks a submitted code against the stored one. It fails
// closed: unknown identity, absent code, expiry, or mismatch all return
// false. On success the code and expiry are cleared together, so a
// given code verifies at most once.
func (s *OTPService) VerifyCode(identifier, submitted string) (bool, error) {
	user, err := s.store.GetUserByIdentifier(identifier)
	if err != nil {
		if err == storage.ErrNotFound {
			return false, nil
		}
		return false, err
	}

	if user.OTPCode == nil || user.OTPExpiry == nil {
		return false, nil
	}
	if s.now().After(*user.OTPExpiry) {
		return false, nil
	}
	if strings.TrimSpace(submitted) != strings.TrimSpace(*user.OTPCode) {
		return false, nil
	}

	if err := s.store.ClearUserOTP(user.ID); err != nil {
		return false, fmt.Errorf("failed to clear OTP: %w", err)
	}
	return true, nil
}

// EnqueueRequest inserts a pending OTP request for the worker to pick
// up. At least one of mobile/email must be present.
func (s *OTPService) EnqueueRequest(mobile, email string) (string, error) {
	if mobile == "" && email == "" {
		return "", fmt.Errorf("at least one of mobile or email is required")
	}

	req := &models.OTPRequest{
		ID:     utils.GenerateTransactionID(),
		Mobile: mobile,
		Email:  email,
		Status: models.OTPRequestStatusPending,
	}
	if _, err := s.store.CreateOTPRequest(req); err != nil {
		return "", fmt.Errorf("failed to enqueue OTP request: %w", err)
	}
	return req.ID, nil
}

// GetRequest returns an intake record by ID
func (s *OTPService) GetRequest(id string) (*models.OTPRequest, error) {
	return s.store.GetOTPRequest(id)
}

// ProcessOnePending claims one pending request, resolves its identity,
// issues a code and dispatches it over whichever channels the request
// names. The claim is a single compare-and-set, so concurrent workers
// never double-process a request. Returns false when nothing was
// pending.
func (s *OTPService) ProcessOnePending() (bool, error) {
	req, err := s.store.ClaimPendingOTPRequest()
	if err != nil {
		if err == storage.ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to claim OTP request: %w", err)
	}

	user, err := s.store.UpsertUserByContact(req.Email, req.Mobile)
	if err != nil {
		_ = s.store.UpdateOTPRequestStatus(req.ID, models.OTPRequestStatusFailed)
		return true, fmt.Errorf("failed to resolve user for request %s: %w", req.ID, err)
	}

	code, err := utils.GenerateOTPCode()
	if err != nil {
		_ = s.store.UpdateOTPRequestStatus(req.ID, models.OTPRequestStatusFailed)
		return true, fmt.Errorf("failed to generate OTP: %w", err)
	}
	if err := s.store.SetUserOTP(user.ID, code, s.now().Add(otpTTL)); err != nil {
		_ = s.store.UpdateOTPRequestStatus(req.ID, models.OTPRequestStatusFailed)
		return true, fmt.Errorf("failed to persist OTP: %w", err)
	}

	body := s.messageBody(code)
	emailOK := true
	if req.Email != "" {
		emailOK = s.email.Send(req.Email, "Your ZIPZY OTP", body)
	}
	smsOK := true
	if req.Mobile != "" {
		smsOK = s.sms.Send(req.Mobile, body)
	}

	status := models.OTPRequestStatusSent
	if !emailOK || !smsOK {
		status = models.OTPRequestStatusFailed
	}
	if err := s.store.UpdateOTPRequestStatus(req.ID, status); err != nil {
		return true, fmt.Errorf("failed to finalize request %s: %w", req.ID, err)
	}

	log.Printf("Processed OTP request %s email_ok=%v sms_ok=%v", req.ID, emailOK, smsOK)
	return true, nil
}

// SweepExpiredCodes clears code and expiry on every user whose code has
// expired. Safe to call repeatedly.
func (s *OTPService) SweepExpiredCodes(now time.Time) (int64, error) {
	count, err := s.store.ClearExpiredOTPs(now)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired OTPs: %w", err)
	}
	if count > 0 {
		log.Printf("Cleaned %d expired OTP(s)", count)
	}
	return count, nil
}

func (s *OTPService) messageBody(code string) string {
	return fmt.Sprintf("Your ZIPZY OTP is %s. It expires in 5 minutes. Do not share.", code)
}
