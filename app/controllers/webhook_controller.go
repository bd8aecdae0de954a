package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/codigarte/codigarte/internal/pkg/jobqueue"
	"github.com/codigarte/codigarte/internal/pkg/payments"
)

// HandleStripeWebhook receives gateway notifications. A bad signature or an
// unparseable payload is a 400 so the gateway retries; once an event parses
// it is always acknowledged with 200, even when applying it fails, because
// the ledger transitions are idempotent and a retry storm helps nobody.
func HandleStripeWebhook(c *fiber.Ctx) error {
	event, err := payments.VerifyWebhook(c.Body(), c.Get("Stripe-Signature"), appConfig.Stripe.WebhookSecret)
	if err != nil {
		log.Warnf("[Webhook] Rejected stripe event: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid webhook"})
	}

	if err := billingService.ApplyEvent(c.Context(), event); err != nil {
		log.Errorf("[Webhook] Failed to apply %s event: %v", event.EventType(), err)
		return c.SendStatus(fiber.StatusOK)
	}

	if completed, ok := event.(payments.CheckoutCompleted); ok {
		enqueueReceiptEmail(completed.SessionID)
	}

	return c.SendStatus(fiber.StatusOK)
}

// enqueueReceiptEmail queues a purchase receipt for the confirmed
// transaction behind a checkout session. Best effort.
func enqueueReceiptEmail(sessionID string) {
	txn, err := billingService.EnsureCheckoutApplied(context.Background(), sessionID)
	if err != nil {
		log.Warnf("[Webhook] No transaction for session %s: %v", sessionID, err)
		return
	}

	payload := jobqueue.ReceiptEmailJobPayload{PublicID: txn.PublicID, UserID: txn.UserID}
	if _, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeReceiptEmail, payload.ToMap()); err != nil {
		log.Errorf("[Webhook] Failed to enqueue receipt email for %s: %v", txn.PublicID, err)
	}
}
