package controllers

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/codigarte/codigarte/app/models"
	"github.com/codigarte/codigarte/internal/pkg/billing"
	"github.com/codigarte/codigarte/internal/pkg/jobqueue"
	"github.com/codigarte/codigarte/internal/pkg/usercontext"
)

func HandleTransactionHistory(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	transactions, err := billingService.ListTransactions(uc.UserID)
	if err != nil {
		return err
	}

	return c.Render("transactions/history", fiber.Map{
		"Title":        "My purchases",
		"IsLoggedIn":   true,
		"Transactions": transactions,
	})
}

// HandleTransactionDetail shows one transaction. For an in-flight refund it
// polls the gateway first, so the page never shows a stale refund status when
// the completing webhook was missed.
func HandleTransactionDetail(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	publicID := c.Params("publicID")

	txn, err := billingService.GetTransaction(uc.UserID, publicID)
	if err != nil {
		if errors.Is(err, billing.ErrTransactionNotFound) {
			return c.Status(fiber.StatusNotFound).Render("pages/404", fiber.Map{"Title": "Not found"})
		}
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context(), gatewayTimeout)
	defer cancel()
	if _, err := billingService.SyncRefundStatus(ctx, txn); err != nil {
		log.Warnf("[Transactions] Refund status sync failed for %s: %v", publicID, err)
	}

	return c.Render("transactions/detail", fiber.Map{
		"Title":         "Transaction " + txn.PublicID,
		"IsLoggedIn":    true,
		"Transaction":   txn,
		"RefundHistory": txn.RefundHistory(),
		"Refundable":    txn.Refundable(nowUTC()),
		"RefundAmount":  txn.RefundAmountFor(nowUTC()),
	})
}

// HandleCancelSubscription cancels the user's premium subscription, with an
// immediate refund inside the 7-day window.
func HandleCancelSubscription(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	var payload struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&payload); err != nil || payload.Reason == "" {
		payload.Reason = "Requested by the user"
	}

	ctx, cancel := context.WithTimeout(c.Context(), gatewayTimeout)
	defer cancel()

	result, err := billingService.CancelSubscription(ctx, uc.UserID, payload.Reason)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrNoPremiumToCancel):
			return c.JSON(fiber.Map{"success": false, "error": "You do not have an active premium subscription."})
		case errors.Is(err, billing.ErrAlreadyCancelled):
			return c.JSON(fiber.Map{"success": false, "error": "Your subscription was already cancelled."})
		case errors.Is(err, models.ErrRefundAlreadyRequested):
			return c.JSON(fiber.Map{"success": false, "error": "A refund was already requested for this subscription."})
		default:
			log.Errorf("[Transactions] Cancellation failed for user %d: %v", uc.UserID, err)
			return c.JSON(fiber.Map{"success": false, "error": "Could not cancel the subscription. Please try again."})
		}
	}

	var message string
	switch {
	case result.Refunded:
		message = fmt.Sprintf("Subscription cancelled! A full refund of %s was requested. Refund ID: %s",
			result.RefundAmount.StringFixed(2), result.RefundID)
		enqueueRefundSync(result.PublicID, uc.UserID)
	case result.RefundFailed:
		message = "Subscription cancelled, but the refund could not be processed right now. Premium access was removed; our team will retry the refund."
	default:
		message = "Subscription cancelled! You keep your premium benefits until " +
			result.PremiumUntil.Format("2006-01-02") + "."
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"refunded":      result.Refunded,
		"message":       message,
		"refund_id":     result.RefundID,
		"transaction":   result.PublicID,
		"refund_status": result.RefundStatus,
		"refund_amount": result.RefundAmount,
	})
}

// enqueueRefundSync schedules a background re-check of a refund that the
// gateway accepted but has not confirmed yet. Best effort; the periodic
// sweep picks up anything that slips through.
func enqueueRefundSync(publicID string, userID uint) {
	payload := jobqueue.RefundSyncJobPayload{PublicID: publicID, UserID: userID}
	if _, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeRefundSync, payload.ToMap()); err != nil {
		log.Errorf("[Transactions] Failed to enqueue refund sync for %s: %v", publicID, err)
	}
}

// HandleLivesRefund requests a prorated refund for the unused lives of a
// package.
func HandleLivesRefund(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	publicID := c.Params("publicID")

	var payload struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&payload); err != nil || payload.Reason == "" {
		payload.Reason = "Requested by the user"
	}

	ctx, cancel := context.WithTimeout(c.Context(), gatewayTimeout)
	defer cancel()

	result, err := billingService.RequestLivesRefund(ctx, uc.UserID, publicID, payload.Reason)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrTransactionNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "Transaction not found."})
		case errors.Is(err, billing.ErrNotLivesPackage):
			return c.JSON(fiber.Map{"success": false, "error": "This transaction is not a lives package."})
		case errors.Is(err, models.ErrRefundAlreadyRequested):
			return c.JSON(fiber.Map{"success": false, "error": "A refund was already requested for this transaction."})
		case errors.Is(err, billing.ErrAllLivesUsed):
			return c.JSON(fiber.Map{"success": false, "error": "This package cannot be refunded. All lives were already used."})
		case errors.Is(err, billing.ErrRefundWindowExpired):
			return c.JSON(fiber.Map{"success": false, "error": "This package cannot be refunded. The 7-day window has expired."})
		case errors.Is(err, billing.ErrMissingPaymentIntent):
			return c.JSON(fiber.Map{"success": false, "error": "The refund could not be processed. Payment intent not found."})
		default:
			log.Errorf("[Transactions] Lives refund failed for %s: %v", publicID, err)
			return c.JSON(fiber.Map{"success": false, "error": "Could not request the refund. Please try again."})
		}
	}

	enqueueRefundSync(publicID, uc.UserID)

	return c.JSON(fiber.Map{
		"success":       true,
		"message":       fmt.Sprintf("Partial refund of %s requested!", result.RefundAmount.StringFixed(2)),
		"refund_id":     result.RefundID,
		"refund_status": result.RefundStatus,
		"refund_amount": result.RefundAmount,
		"unused_lives":  result.LivesRemoved,
	})
}
