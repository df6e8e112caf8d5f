package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rishabhkap30/zipzy-backend/internal/services"
)

// AdminHandler exposes operational endpoints: manual sweeps and payment
// history inspection. Routes using it sit behind the admin JWT
// middleware.
type AdminHandler struct {
	payments *services.PaymentService
	otp      *services.OTPService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(payments *services.PaymentService, otp *services.OTPService) *AdminHandler {
	return &AdminHandler{payments: payments, otp: otp}
}

// SweepExpired runs both expiry sweeps immediately
func (h *AdminHandler) SweepExpired(c *fiber.Ctx) error {
	now := time.Now()

	expiredPayments, err := h.payments.SweepExpiredPayments(now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to sweep expired payments",
		})
	}

	clearedCodes, err := h.otp.SweepExpiredCodes(now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to sweep expired OTP codes",
		})
	}

	return c.JSON(fiber.Map{
		"message":          "Sweep completed",
		"expired_payments": expiredPayments,
		"cleared_codes":    clearedCodes,
	})
}

// ListOrderPayments returns every payment attempt for an order,
// most recent first
func (h *AdminHandler) ListOrderPayments(c *fiber.Ctx) error {
	orderID := c.Params("orderId")

	payments, err := h.payments.ListPayments(orderID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load payments",
		})
	}

	return c.JSON(fiber.Map{
		"order_id": orderID,
		"count":    len(payments),
		"payments": payments,
	})
}
