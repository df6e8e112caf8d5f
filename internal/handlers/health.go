package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rishabhkap30/zipzy-backend/internal/storage"
)

// HealthHandler reports service and storage health
type HealthHandler struct {
	store storage.Store
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store storage.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

// Check returns service status with live row counts
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	orders, payments, users, otpRequests := h.store.Counts()

	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "ZIPZY Backend API",
		"version": "1.0.0",
		"database": fiber.Map{
			"orders":       orders,
			"payments":     payments,
			"users":        users,
			"otp_requests": otpRequests,
		},
	})
}
