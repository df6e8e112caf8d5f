package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/rishabhkap30/zipzy-backend/internal/services"
	"github.com/rishabhkap30/zipzy-backend/internal/storage"
)

// AuthHandler exposes OTP request and verification endpoints
type AuthHandler struct {
	otp *services.OTPService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(otp *services.OTPService) *AuthHandler {
	return &AuthHandler{otp: otp}
}

// RequestOTPBody is the body for enqueueing an OTP request
type RequestOTPBody struct {
	Mobile string `json:"mobile"`
	Email  string `json:"email"`
}

// RequestOTP enqueues an OTP request; the worker generates and
// dispatches the code asynchronously
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var req RequestOTPBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Mobile == "" && req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one of mobile or email is required",
		})
	}

	requestID, err := h.otp.EnqueueRequest(req.Mobile, req.Email)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to enqueue OTP request",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message":    "OTP request accepted",
		"request_id": requestID,
		"status":     "pending",
	})
}

// GetOTPRequestStatus reports the intake record's status
func (h *AuthHandler) GetOTPRequestStatus(c *fiber.Ctx) error {
	req, err := h.otp.GetRequest(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "OTP request not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load OTP request",
		})
	}

	return c.JSON(req)
}

// VerifyOTPBody is the body for OTP verification
type VerifyOTPBody struct {
	Identifier string `json:"identifier"` // email or mobile
	Code       string `json:"code"`
}

// VerifyOTP checks a submitted code. Verification fails closed; a
// successful verification consumes the code.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req VerifyOTPBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Identifier == "" || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "identifier and code are required",
		})
	}

	ok, err := h.otp.VerifyCode(req.Identifier, req.Code)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to verify OTP",
		})
	}

	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"verified": false,
			"error":    "Invalid or expired OTP",
		})
	}

	return c.JSON(fiber.Map{
		"verified": true,
		"message":  "OTP verified successfully",
	})
}
