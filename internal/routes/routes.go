package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rishabhkap30/zipzy-backend/internal/handlers"
	"github.com/rishabhkap30/zipzy-backend/internal/middleware"
	"github.com/rishabhkap30/zipzy-backend/internal/services"
	"github.com/rishabhkap30/zipzy-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, store storage.Store, payments *services.PaymentService, otp *services.OTPService) {
	paymentHandler := handlers.NewPaymentHandler(payments)
	authHandler := handlers.NewAuthHandler(otp)
	adminHandler := handlers.NewAdminHandler(payments, otp)
	healthHandler := handlers.NewHealthHandler(store)

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to ZIPZY Backend!",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"health":   "/health",
				"api":      "/api",
				"payments": "/api/payments",
				"auth":     "/api/auth",
				"admin":    "/admin",
			},
		})
	})

	app.Get("/health", healthHandler.Check)

	// API routes
	api := app.Group("/api")

	// Order + payment lifecycle
	orders := api.Group("/orders")
	orders.Post("/", paymentHandler.CreateOrder)
	orders.Get("/:id", paymentHandler.GetOrder)

	payment := api.Group("/payments")
	payment.Post("/qr", paymentHandler.GenerateQR)
	payment.Get("/status/:orderId", paymentHandler.GetPaymentStatus)
	payment.Post("/validate", paymentHandler.ValidatePayment)
	payment.Get("/upi-details", paymentHandler.GetUPIDetails)
	// Confirmation comes from gateway callbacks; signed in production
	payment.Post("/confirm", middleware.ValidatePaymentSignature(), paymentHandler.ConfirmPayment)

	// OTP auth
	auth := api.Group("/auth")
	auth.Post("/otp/request", authHandler.RequestOTP)
	auth.Get("/otp/request/:id", authHandler.GetOTPRequestStatus)
	auth.Post("/otp/verify", authHandler.VerifyOTP)

	// ========== ADMIN ROUTES ==========
	admin := app.Group("/admin", middleware.RequireAdmin())
	admin.Post("/sweep", adminHandler.SweepExpired)
	admin.Get("/orders/:orderId/payments", adminHandler.ListOrderPayments)
}
