package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/rishabhkap30/zipzy-backend/internal/services"
	"github.com/rishabhkap30/zipzy-backend/internal/storage"
)

// PaymentHandler exposes the UPI payment lifecycle over REST
type PaymentHandler struct {
	payments *services.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreateOrderRequest is the body for order creation
type CreateOrderRequest struct {
	OrderID         string  `json:"order_id"`
	UserID          string  `json:"user_id"`
	Amount          float64 `json:"amount"`
	DeliveryAddress string  `json:"delivery_address"`
}

// CreateOrder handles order creation (insert-or-replace by order ID)
func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.OrderID == "" || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "order_id and user_id are required",
		})
	}
	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "amount must be positive",
		})
	}

	order, err := h.payments.CreateOrder(req.OrderID, req.UserID, req.Amount, req.DeliveryAddress)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create order",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order created successfully",
		"order":   order,
	})
}

// GetOrder retrieves order details by ID
func (h *PaymentHandler) GetOrder(c *fiber.Ctx) error {
	id := c.Params("id")

	order, err := h.payments.GetOrder(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Order not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load order",
		})
	}

	return c.JSON(order)
}

// GenerateQRRequest is the body for issuing a payment request
type GenerateQRRequest struct {
	OrderID       string  `json:"order_id"`
	Amount        float64 `json:"amount"`
	CustomerName  string  `json:"customer_name"`
	CustomerPhone string  `json:"customer_phone"`
}

// GenerateQR issues a fresh time-boxed UPI payment request with a
// scannable QR code
func (h *PaymentHandler) GenerateQR(c *fiber.Ctx) error {
	var req GenerateQRRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.OrderID == "" || req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "order_id and a positive amount are required",
		})
	}

	payment, err := h.payments.GeneratePaymentRequest(req.OrderID, req.Amount, req.CustomerName, req.CustomerPhone)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Order not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate payment request",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(payment)
}

// GetPaymentStatus returns the most recent payment for an order, or a
// not_found status when none exists
func (h *PaymentHandler) GetPaymentStatus(c *fiber.Ctx) error {
	orderID := c.Params("orderId")

	status, err := h.payments.GetPaymentStatus(orderID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load payment status",
		})
	}

	return c.JSON(status)
}

// ConfirmPaymentRequest is the body for payment confirmation
type ConfirmPaymentRequest struct {
	OrderID          string `json:"order_id"`
	Status           string `json:"status"`
	UPITransactionID string `json:"upi_transaction_id"`
}

// ConfirmPayment records a payment outcome and advances the order
func (h *PaymentHandler) ConfirmPayment(c *fiber.Ctx) error {
	var req ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.OrderID == "" || req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "order_id and status are required",
		})
	}

	result, err := h.payments.ConfirmPayment(req.OrderID, req.Status, req.UPITransactionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Order not found",
			})
		}
		if errors.Is(err, services.ErrNoPendingPayment) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "No pending payment for this order",
			})
		}
		if errors.Is(err, services.ErrInvalidPaymentStatus) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Status must be completed or failed",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to confirm payment",
		})
	}

	return c.JSON(fiber.Map{
		"message":        "Payment status updated successfully",
		"order_id":       result.OrderID,
		"payment_status": result.PaymentStatus,
		"order_status":   result.OrderStatus,
		"updated_at":     result.UpdatedAt,
	})
}

// ValidatePaymentRequest is the body for amount validation
type ValidatePaymentRequest struct {
	OrderID string  `json:"order_id"`
	Amount  float64 `json:"amount"`
}

// ValidatePayment checks a claimed amount against the stored order total
func (h *PaymentHandler) ValidatePayment(c *fiber.Ctx) error {
	var req ValidatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	valid, err := h.payments.ValidatePayment(req.OrderID, req.Amount)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to validate payment",
		})
	}

	return c.JSON(fiber.Map{
		"order_id": req.OrderID,
		"valid":    valid,
	})
}

// GetUPIDetails returns the merchant's UPI setup for client display
func (h *PaymentHandler) GetUPIDetails(c *fiber.Ctx) error {
	return c.JSON(h.payments.GetUPIDetails())
}
