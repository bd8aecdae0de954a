package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/codigarte/codigarte/app/models"
	"github.com/codigarte/codigarte/app/repository"
	"github.com/codigarte/codigarte/internal/pkg/billing"
	"github.com/codigarte/codigarte/internal/pkg/entitlements"
	"github.com/codigarte/codigarte/internal/pkg/usercontext"
)

const gatewayTimeout = 15 * time.Second

func HandleStore(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	user, err := repository.GetGlobalRepositories().User.GetByID(uc.UserID)
	if err != nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	refundable := false
	if user.Premium {
		refundable = entitlements.SubscriptionRefundable(user, nowUTC())
	}

	return c.Render("store/index", fiber.Map{
		"Title":            "Store",
		"IsLoggedIn":       true,
		"Premium":          uc.Premium,
		"PremiumCancelled": user.PremiumCancelled,
		"Refundable":       refundable,
		"StripePublicKey":  appConfig.Stripe.PublicKey,
		"Flash":            flash.Get(c),
	})
}

// HandleCreateSubscriptionCheckout starts the premium subscription checkout.
func HandleCreateSubscriptionCheckout(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	ctx, cancel := context.WithTimeout(c.Context(), gatewayTimeout)
	defer cancel()

	result, err := billingService.CreateSubscriptionCheckout(ctx, uc.UserID)
	if err != nil {
		if errors.Is(err, billing.ErrAlreadyPremium) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "You already are a premium user!"})
		}
		log.Errorf("[Store] Subscription checkout failed for user %d: %v", uc.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Could not start the checkout. Please try again."})
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"checkout_url": result.CheckoutURL,
		"transaction":  result.Transaction.PublicID,
	})
}

// HandleCreateLivesCheckout starts a lives package checkout for 1, 3 or 5 lives.
func HandleCreateLivesCheckout(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	quantity, err := c.ParamsInt("quantity")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid package size"})
	}

	ctx, cancel := context.WithTimeout(c.Context(), gatewayTimeout)
	defer cancel()

	result, err := billingService.CreateLivesCheckout(ctx, uc.UserID, quantity)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrInvalidPackageSize):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid package size"})
		case errors.Is(err, billing.ErrPremiumNotNeeded):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Premium users already have unlimited lives!"})
		default:
			log.Errorf("[Store] Lives checkout failed for user %d: %v", uc.UserID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Could not start the checkout. Please try again."})
		}
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"checkout_url": result.CheckoutURL,
		"transaction":  result.Transaction.PublicID,
	})
}

// HandlePaymentSuccess renders the post-checkout page. When the confirming
// webhook has not arrived yet it re-checks the session with the gateway
// before giving up and showing the processing page.
func HandlePaymentSuccess(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return c.Redirect("/store", fiber.StatusSeeOther)
	}

	ctx, cancel := context.WithTimeout(c.Context(), gatewayTimeout)
	defer cancel()

	txn, err := billingService.EnsureCheckoutApplied(ctx, sessionID)
	if err != nil || txn == nil {
		if err != nil && !errors.Is(err, billing.ErrTransactionNotFound) {
			log.Errorf("[Store] Payment success check failed for session %s: %v", sessionID, err)
		}
		return c.Render("store/payment_processing", fiber.Map{
			"Title":      "Payment processing",
			"IsLoggedIn": isLoggedIn(c),
		})
	}

	if txn.Status != models.TransactionStatusConfirmed {
		return c.Render("store/payment_processing", fiber.Map{
			"Title":      "Payment processing",
			"IsLoggedIn": isLoggedIn(c),
		})
	}

	message := ""
	if txn.Kind == models.TransactionKindSubscription {
		message = "Your premium subscription is active! You now have unlimited lives and access to exclusive content."
	} else if txn.IsLivesPackage() {
		message = "Lives package purchased! Your lives were added to your account."
	}

	return c.Render("store/payment_success", fiber.Map{
		"Title":       "Payment successful",
		"IsLoggedIn":  isLoggedIn(c),
		"Message":     message,
		"Transaction": txn,
	})
}
