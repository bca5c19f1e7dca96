package controllers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pictotext/pictotext/internal/pkg/mail"
	"github.com/pictotext/pictotext/internal/pkg/provisioning"
	"github.com/pictotext/pictotext/internal/pkg/session"
)

type paypalPaymentRequest struct {
	Email   string `json:"email" validate:"required,email"`
	OrderID string `json:"orderId"`
}

// HandlePayPalPayment confirms a premium payment for an email. It places the
// email on the allow-list and, when the caller's session holds a matching
// pending signup, creates the account in the same step.
func HandlePayPalPayment(c *fiber.Ctx) error {
	var req paypalPaymentRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Payment processing failed"})
	}

	orderRef := req.OrderID
	if orderRef == "" {
		// Development flow without the browser SDK round trip
		orderRef = fmt.Sprintf("PAYPAL_%d", time.Now().UnixMilli())
	}

	outcome, err := provisioningSvc.ConfirmPayment(session.SessionID(c), req.Email, orderRef)
	if err != nil {
		if errors.Is(err, provisioning.ErrRegistrationIncomplete) {
			return c.JSON(fiber.Map{
				"success":        true,
				"message":        "Payment successful! Please try registering again.",
				"paypalOrderId":  orderRef,
				"accountCreated": false,
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	go func(email string) {
		if err := mail.SendPremiumWelcome(email); err != nil {
			log.Printf("welcome mail to %s failed: %v", email, err)
		}
	}(req.Email)

	if outcome.AccountCreated {
		return c.JSON(fiber.Map{
			"success":        true,
			"message":        "Payment successful and account created! You can now sign in.",
			"paypalOrderId":  orderRef,
			"accountCreated": true,
		})
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"message":       "Payment successful! You can now create your account.",
		"paypalOrderId": orderRef,
	})
}

// HandlePayPalSetup returns a browser SDK client token.
func HandlePayPalSetup(c *fiber.Ctx) error {
	token, err := paypalClient.ClientToken(c.Context())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "PayPal is not available"})
	}
	return c.JSON(fiber.Map{"clientToken": token})
}

// HandlePayPalCreateOrder opens an order for the premium charge.
func HandlePayPalCreateOrder(c *fiber.Ctx) error {
	var req struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}
	_ = c.BodyParser(&req)

	order, err := paypalClient.CreateOrder(c.Context(), req.Amount, req.Currency)
	if err != nil {
		log.Printf("paypal order creation failed: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Could not create PayPal order"})
	}
	return c.JSON(order)
}

// HandlePayPalCaptureOrder captures an approved order and confirms the
// payment for the payer's email.
func HandlePayPalCaptureOrder(c *fiber.Ctx) error {
	orderID := c.Params("orderID")

	capture, err := paypalClient.CaptureOrder(c.Context(), orderID)
	if err != nil {
		log.Printf("paypal capture failed for %s: %v", orderID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Could not capture PayPal order"})
	}

	if capture.Status == "COMPLETED" && capture.PayerEmail != "" {
		outcome, err := provisioningSvc.ConfirmPayment(session.SessionID(c), capture.PayerEmail, capture.OrderID)
		if err != nil && !errors.Is(err, provisioning.ErrRegistrationIncomplete) {
			log.Printf("payment confirmation failed for %s: %v", capture.OrderID, err)
		}
		accountCreated := err == nil && outcome.AccountCreated

		go func(email string) {
			if err := mail.SendPremiumWelcome(email); err != nil {
				log.Printf("welcome mail to %s failed: %v", email, err)
			}
		}(capture.PayerEmail)

		return c.JSON(fiber.Map{
			"id":             capture.OrderID,
			"status":         capture.Status,
			"accountCreated": accountCreated,
		})
	}

	return c.JSON(fiber.Map{
		"id":     capture.OrderID,
		"status": capture.Status,
	})
}
