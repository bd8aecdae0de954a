package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/codigarte/codigarte/app/models"
	"github.com/codigarte/codigarte/internal/pkg/config"
	"github.com/codigarte/codigarte/internal/pkg/entitlements"
	"github.com/codigarte/codigarte/internal/pkg/payments"
)

// Service reconciles the local ledger and user entitlements with the payment
// gateway. All money movement flows through here: checkout creation, webhook
// application, cancellations and refund requests.
type Service struct {
	repo    Repository
	gateway payments.Gateway
	stripe  config.Stripe
	baseURL string

	clock func() time.Time
}

// NewService creates a billing service from injected dependencies.
func NewService(repo Repository, gateway payments.Gateway, stripe config.Stripe, baseURL string) *Service {
	return &Service{
		repo:    repo,
		gateway: gateway,
		stripe:  stripe,
		baseURL: baseURL,
	}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, gateway payments.Gateway, stripe config.Stripe, baseURL string) *Service {
	return NewService(NewRepository(db), gateway, stripe, baseURL)
}

func (s *Service) now() time.Time {
	if s.clock != nil {
		return s.clock().UTC()
	}
	return time.Now().UTC()
}

func centsToAmount(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
}

func kindForQuantity(quantity int) (string, error) {
	switch quantity {
	case 1:
		return models.TransactionKindLives1, nil
	case 3:
		return models.TransactionKindLives3, nil
	case 5:
		return models.TransactionKindLives5, nil
	default:
		return "", ErrInvalidPackageSize
	}
}

// CreateSubscriptionCheckout opens a gateway checkout session for the premium
// subscription and records a pending ledger row correlated by session id.
// Users with an active subscription are rejected before any gateway call.
func (s *Service) CreateSubscriptionCheckout(ctx context.Context, userID uint) (*CheckoutResult, error) {
	user, err := s.repo.GetUser(userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if entitlements.ExpireIfNeeded(user, now) {
		if err := s.repo.SaveUser(user); err != nil {
			return nil, err
		}
	}
	if entitlements.IsActive(user, now) {
		return nil, ErrAlreadyPremium
	}

	if s.stripe.PriceSubscription == "" {
		return nil, ErrPriceNotConfigured
	}
	price, err := s.gateway.RetrievePrice(ctx, s.stripe.PriceSubscription)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPriceNotFound, err)
	}

	txn, err := models.NewTransaction(userID, models.TransactionKindSubscription, centsToAmount(price.UnitAmount), "Premium subscription (30 days)", 0)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payments.CheckoutSessionParams{
		PriceID:       price.ID,
		Mode:          payments.CheckoutModeSubscription,
		CustomerEmail: user.Email,
		Metadata: map[string]string{
			"user_id": fmt.Sprintf("%d", user.ID),
			"kind":    txn.Kind,
		},
		SuccessURL: s.baseURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.baseURL + "/store",
	})
	if err != nil {
		return nil, err
	}

	txn.StripeSessionID = session.ID
	if err := s.repo.CreateTransaction(txn); err != nil {
		return nil, err
	}

	return &CheckoutResult{CheckoutURL: session.URL, Transaction: txn}, nil
}

// CreateLivesCheckout opens a gateway checkout session for a lives package.
// Premium users have unlimited lives and are rejected.
func (s *Service) CreateLivesCheckout(ctx context.Context, userID uint, quantity int) (*CheckoutResult, error) {
	kind, err := kindForQuantity(quantity)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUser(userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if entitlements.ExpireIfNeeded(user, now) {
		if err := s.repo.SaveUser(user); err != nil {
			return nil, err
		}
	}
	if entitlements.IsActive(user, now) {
		return nil, ErrPremiumNotNeeded
	}

	priceID, err := s.stripe.PriceForLives(quantity)
	if err != nil {
		return nil, ErrPriceNotConfigured
	}
	price, err := s.gateway.RetrievePrice(ctx, priceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPriceNotFound, err)
	}

	details := fmt.Sprintf("Lives package (%d lives)", quantity)
	txn, err := models.NewTransaction(userID, kind, centsToAmount(price.UnitAmount), details, quantity)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payments.CheckoutSessionParams{
		PriceID:       price.ID,
		Mode:          payments.CheckoutModePayment,
		CustomerEmail: user.Email,
		Metadata: map[string]string{
			"user_id": fmt.Sprintf("%d", user.ID),
			"kind":    kind,
		},
		SuccessURL: s.baseURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.baseURL + "/store",
	})
	if err != nil {
		return nil, err
	}

	txn.StripeSessionID = session.ID
	if err := s.repo.CreateTransaction(txn); err != nil {
		return nil, err
	}

	return &CheckoutResult{CheckoutURL: session.URL, Transaction: txn}, nil
}

// ApplyEvent dispatches a verified webhook event to its handler. Unknown
// event types are acknowledged without side effects.
func (s *Service) ApplyEvent(ctx context.Context, event payments.Event) error {
	switch e := event.(type) {
	case payments.CheckoutCompleted:
		return s.ApplyCheckoutCompleted(ctx, e)
	case payments.SubscriptionDeleted:
		return s.ApplySubscriptionDeleted(ctx, e)
	case payments.ChargeRefunded:
		return s.ApplyChargeRefunded(ctx, e)
	default:
		log.Debugf("[Billing] Ignoring webhook event type %s", event.EventType())
		return nil
	}
}

// ApplyCheckoutCompleted confirms the pending transaction behind a completed
// checkout session and delivers the purchased product. Replayed deliveries
// find the transaction already confirmed and change nothing; sessions with no
// matching transaction are logged and dropped so the webhook can be acked.
func (s *Service) ApplyCheckoutCompleted(ctx context.Context, event payments.CheckoutCompleted) error {
	_ = ctx
	now := s.now()

	return s.repo.Transact(func(r Repository) error {
		txn, err := r.GetTransactionBySessionID(event.SessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warnf("[Billing] Checkout completed for unknown session %s, dropping", event.SessionID)
				return nil
			}
			return err
		}
		if txn.Status != models.TransactionStatusPending {
			log.Infof("[Billing] Transaction %s already %s, ignoring replayed checkout event", txn.PublicID, txn.Status)
			return nil
		}

		txn.Status = models.TransactionStatusConfirmed
		if event.PaymentIntentID != "" {
			txn.StripePaymentIntentID = event.PaymentIntentID
		}
		if err := r.SaveTransaction(txn); err != nil {
			return err
		}

		user, err := r.GetUser(txn.UserID)
		if err != nil {
			return err
		}
		switch {
		case txn.Kind == models.TransactionKindSubscription:
			entitlements.GrantPremium(user, now)
		case txn.IsLivesPackage():
			user.AddPurchasedLives(txn.QuantityPurchased)
		}
		if err := r.SaveUser(user); err != nil {
			return err
		}

		log.Infof("[Billing] Confirmed transaction %s (%s) for user %d", txn.PublicID, txn.Kind, txn.UserID)
		return nil
	})
}

// ApplySubscriptionDeleted records a provider-side subscription end. Local
// entitlement changes happen through cancellation or lazy expiry, so this is
// informational only.
func (s *Service) ApplySubscriptionDeleted(ctx context.Context, event payments.SubscriptionDeleted) error {
	_ = ctx
	log.Infof("[Billing] Gateway subscription %s ended", event.SubscriptionID)
	return nil
}

// ApplyChargeRefunded advances the refund state machine from a gateway refund
// notification. Events for unknown payment intents or transactions in a state
// that cannot accept the transition are logged and dropped; the webhook must
// still be acknowledged.
func (s *Service) ApplyChargeRefunded(ctx context.Context, event payments.ChargeRefunded) error {
	_ = ctx
	now := s.now()

	txn, err := s.repo.GetTransactionByPaymentIntentID(event.PaymentIntentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Billing] Refund event for unknown payment intent %s, dropping", event.PaymentIntentID)
			return nil
		}
		return err
	}

	switch event.Status {
	case payments.RefundStatusSucceeded:
		err = txn.CompleteRefund(map[string]any{
			"refund_id": event.RefundID,
			"amount":    event.Amount,
			"currency":  event.Currency,
		}, now)
	case payments.RefundStatusFailed:
		err = txn.FailRefund(event.FailureReason, now)
	default:
		log.Infof("[Billing] Refund for transaction %s still %s", txn.PublicID, event.Status)
		return nil
	}
	if err != nil {
		log.Warnf("[Billing] Dropping refund event for transaction %s: %v", txn.PublicID, err)
		return nil
	}

	if event.RefundID != "" && txn.StripeRefundID == "" {
		txn.StripeRefundID = event.RefundID
	}
	return s.repo.SaveTransaction(txn)
}

// CancelSubscription cancels the user's premium subscription. Within the
// refund window the premium access is revoked immediately and a full refund
// is requested; the revocation happens before the gateway call and sticks
// even when the refund call fails. Outside the window no money moves and the
// user keeps the benefits until the already paid period ends.
func (s *Service) CancelSubscription(ctx context.Context, userID uint, reason string) (*CancellationResult, error) {
	user, err := s.repo.GetUser(userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if entitlements.ExpireIfNeeded(user, now) {
		if err := s.repo.SaveUser(user); err != nil {
			return nil, err
		}
		return nil, ErrNoPremiumToCancel
	}
	if !user.Premium {
		return nil, ErrNoPremiumToCancel
	}
	if user.PremiumCancelled {
		return nil, ErrAlreadyCancelled
	}

	if !entitlements.SubscriptionRefundable(user, now) {
		user.PremiumCancelled = true
		if err := s.repo.SaveUser(user); err != nil {
			return nil, err
		}
		log.Infof("[Billing] User %d cancelled premium outside the refund window, keeps access until expiry", userID)
		return &CancellationResult{PremiumUntil: user.PremiumExpiresAt}, nil
	}

	txn, err := s.repo.LatestSubscriptionTransaction(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// No ledger row to refund against, but the cancellation itself
		// must still take effect.
		entitlements.RevokePremium(user)
		if err := s.repo.SaveUser(user); err != nil {
			return nil, err
		}
		log.Warnf("[Billing] User %d cancelled premium with no subscription transaction on record", userID)
		return &CancellationResult{RefundFailed: true}, nil
	}

	if err := txn.RequestRefund(reason, now); err != nil {
		return nil, err
	}
	claimed, err := s.repo.ClaimRefundRequest(txn)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, models.ErrRefundAlreadyRequested
	}

	// Revoke before talking to the gateway: the user must not keep premium
	// access while a refund for it is in flight, and a gateway failure must
	// not resurrect the entitlement.
	entitlements.RevokePremium(user)
	if err := s.repo.SaveUser(user); err != nil {
		return nil, err
	}

	result := &CancellationResult{
		PublicID:     txn.PublicID,
		RefundAmount: txn.RefundAmount,
	}

	if txn.StripePaymentIntentID == "" {
		_ = txn.FailRefund("no payment intent recorded for this transaction", now)
		if err := s.repo.SaveTransaction(txn); err != nil {
			return nil, err
		}
		result.RefundFailed = true
		result.RefundStatus = txn.RefundStatus
		return result, nil
	}

	refund, err := s.gateway.CreateRefund(ctx, payments.RefundParams{
		PaymentIntentID: txn.StripePaymentIntentID,
		Metadata: map[string]string{
			"transaction": txn.PublicID,
			"kind":        txn.Kind,
		},
	})
	if err != nil {
		log.Errorf("[Billing] Refund creation failed for transaction %s: %v", txn.PublicID, err)
		_ = txn.FailRefund(err.Error(), now)
		if saveErr := s.repo.SaveTransaction(txn); saveErr != nil {
			return nil, saveErr
		}
		result.RefundFailed = true
		result.RefundStatus = txn.RefundStatus
		return result, nil
	}

	if err := txn.BeginRefundProcessing(refund.ID, now); err != nil {
		return nil, err
	}
	if err := s.repo.SaveTransaction(txn); err != nil {
		return nil, err
	}

	result.Refunded = true
	result.RefundID = refund.ID
	result.RefundStatus = txn.RefundStatus
	return result, nil
}

// RequestLivesRefund refunds the unused part of a lives package. The refund
// amount is prorated over the unused lives minus the processor fee and is
// frozen at request time. The refunded lives are removed from the user's pool
// once the gateway accepts the refund.
func (s *Service) RequestLivesRefund(ctx context.Context, userID uint, publicID, reason string) (*LivesRefundResult, error) {
	txn, err := s.repo.GetTransactionByPublicID(publicID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	if !txn.IsLivesPackage() {
		return nil, ErrNotLivesPackage
	}
	if txn.RefundStatus != models.RefundStatusNotRequested {
		return nil, models.ErrRefundAlreadyRequested
	}

	now := s.now()
	if now.Sub(txn.CreatedAt.UTC()) > models.RefundWindow {
		return nil, ErrRefundWindowExpired
	}
	unused := txn.UnusedQuantity()
	if unused == 0 {
		return nil, ErrAllLivesUsed
	}
	if txn.StripePaymentIntentID == "" {
		return nil, ErrMissingPaymentIntent
	}

	if err := txn.RequestRefund(reason, now); err != nil {
		return nil, err
	}
	claimed, err := s.repo.ClaimRefundRequest(txn)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, models.ErrRefundAlreadyRequested
	}

	cents := txn.RefundAmount.Mul(decimal.NewFromInt(100)).IntPart()
	refund, err := s.gateway.CreateRefund(ctx, payments.RefundParams{
		PaymentIntentID: txn.StripePaymentIntentID,
		AmountCents:     &cents,
		Metadata: map[string]string{
			"transaction":  txn.PublicID,
			"kind":         txn.Kind,
			"unused_lives": fmt.Sprintf("%d", unused),
		},
	})
	if err != nil {
		log.Errorf("[Billing] Refund creation failed for transaction %s: %v", txn.PublicID, err)
		_ = txn.FailRefund(err.Error(), now)
		if saveErr := s.repo.SaveTransaction(txn); saveErr != nil {
			return nil, saveErr
		}
		return nil, err
	}

	if err := txn.BeginRefundProcessing(refund.ID, now); err != nil {
		return nil, err
	}

	err = s.repo.Transact(func(r Repository) error {
		if err := r.SaveTransaction(txn); err != nil {
			return err
		}
		user, err := r.GetUser(userID)
		if err != nil {
			return err
		}
		user.Lives -= unused
		if user.Lives < 0 {
			user.Lives = 0
		}
		user.PurchasedLives -= unused
		if user.PurchasedLives < 0 {
			user.PurchasedLives = 0
		}
		return r.SaveUser(user)
	})
	if err != nil {
		return nil, err
	}

	return &LivesRefundResult{
		RefundID:     refund.ID,
		RefundStatus: txn.RefundStatus,
		RefundAmount: txn.RefundAmount,
		LivesRemoved: unused,
	}, nil
}

// SyncRefundStatus polls the gateway for the current state of an in-flight
// refund and advances the local state machine when it moved. It is the
// fallback for missed webhooks; it reports whether anything changed.
func (s *Service) SyncRefundStatus(ctx context.Context, txn *models.Transaction) (bool, error) {
	if txn.StripeRefundID == "" {
		return false, nil
	}
	if txn.RefundStatus != models.RefundStatusRequested && txn.RefundStatus != models.RefundStatusProcessing {
		return false, nil
	}

	refund, err := s.gateway.RetrieveRefund(ctx, txn.StripeRefundID)
	if err != nil {
		return false, err
	}

	now := s.now()
	switch refund.Status {
	case payments.RefundStatusSucceeded:
		err = txn.CompleteRefund(map[string]any{
			"refund_id": refund.ID,
			"amount":    refund.Amount,
			"currency":  refund.Currency,
		}, now)
	case payments.RefundStatusFailed:
		err = txn.FailRefund(refund.FailureReason, now)
	default:
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := s.repo.SaveTransaction(txn); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureCheckoutApplied is the synchronous fallback for the payment-success
// page: when the webhook has not landed yet it re-checks the session with the
// gateway and applies the confirmation directly. Returns the transaction in
// its current state either way.
func (s *Service) EnsureCheckoutApplied(ctx context.Context, sessionID string) (*models.Transaction, error) {
	txn, err := s.repo.GetTransactionBySessionID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if txn.Status != models.TransactionStatusPending {
		return txn, nil
	}

	details, err := s.gateway.RetrieveCheckoutSession(ctx, sessionID)
	if err != nil {
		return txn, nil
	}
	if !details.Paid() {
		return txn, nil
	}

	if err := s.ApplyCheckoutCompleted(ctx, payments.CheckoutCompleted{
		SessionID:       details.ID,
		PaymentIntentID: details.PaymentIntentID,
		Metadata:        details.Metadata,
	}); err != nil {
		return txn, err
	}
	return s.repo.GetTransactionBySessionID(sessionID)
}

// ListTransactions returns the user's ledger, newest first.
func (s *Service) ListTransactions(userID uint) ([]models.Transaction, error) {
	return s.repo.ListTransactionsByUser(userID)
}

// GetTransaction resolves a public id to the user's transaction.
func (s *Service) GetTransaction(userID uint, publicID string) (*models.Transaction, error) {
	txn, err := s.repo.GetTransactionByPublicID(publicID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return txn, nil
}
