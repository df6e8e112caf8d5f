package jobs

import (
	"log"
	"time"

	"github.com/rishabhkap30/zipzy-backend/internal/services"
)

// SweeperJob periodically expires stale payments and clears expired OTP
// codes. Both sweeps are idempotent, so overlapping or repeated runs are
// harmless.
type SweeperJob struct {
	payments *services.PaymentService
	otp      *services.OTPService
	interval time.Duration

	stop chan struct{}
}

// NewSweeperJob creates a new sweeper running at the given interval
func NewSweeperJob(payments *services.PaymentService, otp *services.OTPService, interval time.Duration) *SweeperJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SweeperJob{
		payments: payments,
		otp:      otp,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins the sweep loop
func (s *SweeperJob) Start() {
	log.Printf("Starting expiry sweeper (every %v)...", s.interval)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunOnce(time.Now())
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the sweep loop
func (s *SweeperJob) Stop() {
	close(s.stop)
	log.Println("Stopping expiry sweeper...")
}

// RunOnce performs one sweep pass
func (s *SweeperJob) RunOnce(now time.Time) {
	if _, err := s.payments.SweepExpiredPayments(now); err != nil {
		log.Printf("Error sweeping expired payments: %v", err)
	}
	if _, err := s.otp.SweepExpiredCodes(now); err != nil {
		log.Printf("Error sweeping expired OTP codes: %v", err)
	}
}
