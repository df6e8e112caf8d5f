package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishabhkap30/zipzy-backend/internal/handlers"
	"github.com/rishabhkap30/zipzy-backend/internal/services"
	"github.com/rishabhkap30/zipzy-backend/internal/storage"
)

func newTestApp() *fiber.App {
	store := storage.NewMemoryStore()
	payments := services.NewPaymentService(store)
	otp := services.NewOTPService(store, services.NewEmailService(), services.NewSMSService())

	paymentHandler := handlers.NewPaymentHandler(payments)
	authHandler := handlers.NewAuthHandler(otp)

	app := fiber.New()
	app.Post("/api/orders", paymentHandler.CreateOrder)
	app.Get("/api/orders/:id", paymentHandler.GetOrder)
	app.Post("/api/payments/qr", paymentHandler.GenerateQR)
	app.Get("/api/payments/status/:orderId", paymentHandler.GetPaymentStatus)
	app.Post("/api/payments/confirm", paymentHandler.ConfirmPayment)
	app.Post("/api/payments/validate", paymentHandler.ValidatePayment)
	app.Get("/api/payments/upi-details", paymentHandler.GetUPIDetails)
	app.Post("/api/auth/otp/request", authHandler.RequestOTP)
	app.Post("/api/auth/otp/verify", authHandler.VerifyOTP)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestPaymentEndpoints(t *testing.T) {
	app := newTestApp()

	resp, _ := doJSON(t, app, "POST", "/api/orders", map[string]interface{}{
		"order_id":         "ORD-1",
		"user_id":          "U-1",
		"amount":           450.0,
		"delivery_address": "Hostel Block A, Room 101",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, "POST", "/api/payments/qr", map[string]interface{}{
		"order_id": "ORD-1",
		"amount":   450.0,
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["transaction_id"])
	assert.Contains(t, body["qr_code"], "data:image/png;base64,")

	resp, body = doJSON(t, app, "GET", "/api/payments/status/ORD-1", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "pending", body["payment_status"])
	assert.Equal(t, 450.0, body["amount"])

	resp, body = doJSON(t, app, "POST", "/api/payments/confirm", map[string]interface{}{
		"order_id":           "ORD-1",
		"status":             "completed",
		"upi_transaction_id": "EXT-1",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "confirmed", body["order_status"])
	assert.Equal(t, "completed", body["payment_status"])

	// no pending payment remains
	resp, _ = doJSON(t, app, "POST", "/api/payments/confirm", map[string]interface{}{
		"order_id": "ORD-1",
		"status":   "completed",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestPaymentEndpointErrors(t *testing.T) {
	app := newTestApp()

	// unknown order
	resp, _ := doJSON(t, app, "GET", "/api/orders/NOPE", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/api/payments/qr", map[string]interface{}{
		"order_id": "NOPE",
		"amount":   10.0,
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// status lookup is a sentinel, never a 404
	resp, body := doJSON(t, app, "GET", "/api/payments/status/NOPE", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "not_found", body["payment_status"])

	// invalid confirm status
	doJSON(t, app, "POST", "/api/orders", map[string]interface{}{
		"order_id": "ORD-2", "user_id": "U-1", "amount": 10.0,
	})
	resp, _ = doJSON(t, app, "POST", "/api/payments/confirm", map[string]interface{}{
		"order_id": "ORD-2",
		"status":   "refunded",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// missing fields
	resp, _ = doJSON(t, app, "POST", "/api/orders", map[string]interface{}{
		"order_id": "", "user_id": "U-1", "amount": 10.0,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestValidateEndpoint(t *testing.T) {
	app := newTestApp()

	doJSON(t, app, "POST", "/api/orders", map[string]interface{}{
		"order_id": "ORD-3", "user_id": "U-1", "amount": 450.0,
	})

	resp, body := doJSON(t, app, "POST", "/api/payments/validate", map[string]interface{}{
		"order_id": "ORD-3", "amount": 450.005,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["valid"])

	_, body = doJSON(t, app, "POST", "/api/payments/validate", map[string]interface{}{
		"order_id": "ORD-3", "amount": 451.0,
	})
	assert.Equal(t, false, body["valid"])
}

func TestOTPEndpoints(t *testing.T) {
	app := newTestApp()

	// both contacts absent is rejected before any write
	resp, _ := doJSON(t, app, "POST", "/api/auth/otp/request", map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body := doJSON(t, app, "POST", "/api/auth/otp/request", map[string]interface{}{
		"mobile": "+911234567890",
	})
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.NotEmpty(t, body["request_id"])
	assert.Equal(t, "pending", body["status"])

	// nothing issued yet, verification fails closed
	resp, body = doJSON(t, app, "POST", "/api/auth/otp/verify", map[string]interface{}{
		"identifier": "+911234567890",
		"code":       "123456",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["verified"])
}

func TestUPIDetailsEndpoint(t *testing.T) {
	app := newTestApp()

	resp, body := doJSON(t, app, "GET", "/api/payments/upi-details", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ZIPZY", body["merchant_name"])
	assert.Equal(t, "INR", body["currency"])
}
