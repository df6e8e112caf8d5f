package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
)

// ValidatePaymentSignature validates the HMAC-SHA256 signature gateway
// callbacks carry in X-Payment-Signature, computed over the raw request
// body with PAYMENT_WEBHOOK_SECRET. Validation is skipped when no
// secret is configured (local development).
func ValidatePaymentSignature() fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := os.Getenv("PAYMENT_WEBHOOK_SECRET")
		if secret == "" {
			return c.Next()
		}

		signature := c.Get("X-Payment-Signature")
		if signature == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing payment signature",
			})
		}

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(c.Body())
		expected := hex.EncodeToString(mac.Sum(nil))

		if !hmac.Equal([]byte(signature), []byte(expected)) {
			log.Printf("Rejected payment callback with bad signature from %s", c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid signature",
			})
		}

		return c.Next()
	}
}
