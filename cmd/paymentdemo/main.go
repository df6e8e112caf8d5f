package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/rishabhkap30/zipzy-backend/database"
	"github.com/rishabhkap30/zipzy-backend/internal/models"
	"github.com/rishabhkap30/zipzy-backend/internal/services"
	"github.com/rishabhkap30/zipzy-backend/internal/storage"
)

// Exercises the full payment flow end to end:
// create order -> generate QR -> check status -> confirm -> check status
func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - checking environment variables")
	}

	db, err := database.Connect()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.Payment{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	payments := services.NewPaymentService(storage.NewDatabaseStore(db))

	orderID := "ORD-123456"
	amount := 450.0

	order, err := payments.CreateOrder(orderID, "user-123", amount, "Hostel Block A, Room 101")
	if err != nil {
		log.Fatal("Failed to create order:", err)
	}
	fmt.Printf("Created order: %s (₹%.2f)\n", order.ID, order.TotalAmount)

	qr, err := payments.GeneratePaymentRequest(orderID, amount, "Rahul Kumar", "+91 98765 43210")
	if err != nil {
		log.Fatal("Failed to generate payment request:", err)
	}
	fmt.Printf("Generated QR for order: %s\n", qr.OrderID)
	fmt.Printf("UPI ID: %s\n", qr.UPIID)
	fmt.Printf("Payment URL: %s\n", qr.PaymentURL)
	fmt.Printf("Transaction ID: %s\n", qr.TransactionID)
	fmt.Printf("Expires at: %s\n", qr.ExpiresAt)

	status, err := payments.GetPaymentStatus(orderID)
	if err != nil {
		log.Fatal("Failed to get payment status:", err)
	}
	fmt.Printf("Payment status: %s\n", status.PaymentStatus)

	confirmation, err := payments.ConfirmPayment(orderID, models.PaymentStatusCompleted, "UPI123456789")
	if err != nil {
		log.Fatal("Failed to confirm payment:", err)
	}
	fmt.Printf("Payment confirmed: order=%s payment_status=%s order_status=%s\n",
		confirmation.OrderID, confirmation.PaymentStatus, confirmation.OrderStatus)

	status, err = payments.GetPaymentStatus(orderID)
	if err != nil {
		log.Fatal("Failed to get payment status:", err)
	}
	fmt.Printf("Payment status after confirmation: %s\n", status.PaymentStatus)

	details := payments.GetUPIDetails()
	fmt.Printf("Merchant: %s (%s), supported apps: %d\n",
		details.MerchantName, details.UPIID, len(details.SupportedApps))
}
