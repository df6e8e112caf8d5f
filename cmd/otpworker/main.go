package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rishabhkap30/zipzy-backend/database"
	"github.com/rishabhkap30/zipzy-backend/internal/models"
	"github.com/rishabhkap30/zipzy-backend/internal/services"
	"github.com/rishabhkap30/zipzy-backend/internal/storage"
)

const (
	pollInterval    = 500 * time.Millisecond
	cleanupInterval = 60 * time.Second
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - checking environment variables")
	}

	db, err := database.Connect()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.OTPRequest{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	store := storage.NewDatabaseStore(db)
	otpService := services.NewOTPService(store, services.NewEmailService(), services.NewSMSService())

	args := os.Args[1:]
	switch {
	case len(args) >= 1 && args[0] == "worker":
		runWorker(otpService)
	case len(args) >= 3 && args[0] == "request":
		mobile := noneToEmpty(args[1])
		email := noneToEmpty(args[2])
		id, err := otpService.EnqueueRequest(mobile, email)
		if err != nil {
			log.Fatal("Failed to enqueue OTP request:", err)
		}
		fmt.Println(id)
	case len(args) >= 3 && args[0] == "verify":
		ok, err := otpService.VerifyCode(args[1], args[2])
		if err != nil {
			log.Fatal("Failed to verify OTP:", err)
		}
		if ok {
			fmt.Println("OK")
		} else {
			fmt.Println("FAIL")
			os.Exit(1)
		}
	default:
		fmt.Println("Usage:")
		fmt.Println("  otpworker worker")
		fmt.Println("  otpworker request <mobile|none> <email|none>")
		fmt.Println("  otpworker verify <email_or_mobile> <code>")
		os.Exit(2)
	}
}

// runWorker polls for pending requests and periodically clears expired
// codes, until interrupted
func runWorker(otpService *services.OTPService) {
	log.Println("🚀 OTP worker started. Watching for pending requests...")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	poll := time.NewTicker(pollInterval)
	defer poll.Stop()
	cleanup := time.NewTicker(cleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-poll.C:
			if _, err := otpService.ProcessOnePending(); err != nil {
				log.Printf("Error processing OTP request: %v", err)
			}
		case <-cleanup.C:
			if _, err := otpService.SweepExpiredCodes(time.Now()); err != nil {
				log.Printf("Error sweeping expired OTPs: %v", err)
			}
		case <-stop:
			log.Println("🛑 OTP worker shutting down...")
			return
		}
	}
}

func noneToEmpty(s string) string {
	if s == "none" {
		return ""
	}
	return s
}
