package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/codigarte/codigarte/app/models"
	"github.com/codigarte/codigarte/internal/pkg/config"
	"github.com/codigarte/codigarte/internal/pkg/payments"
)

type fakeRepository struct {
	users  map[uint]models.User
	txns   map[uint]models.Transaction
	nextID uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users: make(map[uint]models.User),
		txns:  make(map[uint]models.Transaction),
	}
}

func (f *fakeRepository) addUser(u models.User) {
	f.users[u.ID] = u
}

func (f *fakeRepository) addTransaction(t models.Transaction) {
	if t.ID == 0 {
		f.nextID++
		t.ID = f.nextID
	} else if t.ID > f.nextID {
		f.nextID = t.ID
	}
	f.txns[t.ID] = t
}

func (f *fakeRepository) GetUser(id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := u
	return &copied, nil
}

func (f *fakeRepository) SaveUser(u *models.User) error {
	f.users[u.ID] = *u
	return nil
}

func (f *fakeRepository) CreateTransaction(t *models.Transaction) error {
	f.nextID++
	t.ID = f.nextID
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	f.txns[t.ID] = *t
	return nil
}

func (f *fakeRepository) SaveTransaction(t *models.Transaction) error {
	if _, ok := f.txns[t.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.txns[t.ID] = *t
	return nil
}

func (f *fakeRepository) GetTransactionByPublicID(publicID string, userID uint) (*models.Transaction, error) {
	for _, t := range f.txns {
		if t.PublicID == publicID && t.UserID == userID {
			copied := t
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetTransactionBySessionID(sessionID string) (*models.Transaction, error) {
	for _, t := range f.txns {
		if t.StripeSessionID == sessionID {
			copied := t
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetTransactionByPaymentIntentID(paymentIntentID string) (*models.Transaction, error) {
	for _, t := range f.txns {
		if t.StripePaymentIntentID == paymentIntentID {
			copied := t
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) LatestSubscriptionTransaction(userID uint) (*models.Transaction, error) {
	var latest *models.Transaction
	for id := range f.txns {
		t := f.txns[id]
		if t.UserID != userID || t.Kind != models.TransactionKindSubscription {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			copied := t
			latest = &copied
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (f *fakeRepository) ListTransactionsByUser(userID uint) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range f.txns {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepository) ClaimRefundRequest(t *models.Transaction) (bool, error) {
	stored, ok := f.txns[t.ID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if stored.RefundStatus != models.RefundStatusNotRequested {
		return false, nil
	}
	stored.RefundStatus = t.RefundStatus
	stored.RefundRequestedAt = t.RefundRequestedAt
	stored.RefundReason = t.RefundReason
	stored.RefundAmount = t.RefundAmount
	stored.RefundHistoryJSON = t.RefundHistoryJSON
	f.txns[t.ID] = stored
	return true, nil
}

func (f *fakeRepository) Transact(fn func(Repository) error) error {
	return fn(f)
}

type fakeGateway struct {
	prices        map[string]payments.Price
	refunds       map[string]payments.Refund
	refundErr     error
	refundStatus  string
	createdRefund *payments.RefundParams
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		prices:       make(map[string]payments.Price),
		refunds:      make(map[string]payments.Refund),
		refundStatus: payments.RefundStatusPending,
	}
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, params payments.CheckoutSessionParams) (*payments.CheckoutSession, error) {
	return &payments.CheckoutSession{
		ID:  "cs_test_1",
		URL: "https://checkout.example.com/cs_test_1",
	}, nil
}

func (g *fakeGateway) RetrieveCheckoutSession(_ context.Context, sessionID string) (*payments.CheckoutSessionDetails, error) {
	return &payments.CheckoutSessionDetails{ID: sessionID, PaymentStatus: "paid"}, nil
}

func (g *fakeGateway) RetrievePrice(_ context.Context, priceID string) (*payments.Price, error) {
	p, ok := g.prices[priceID]
	if !ok {
		return nil, errors.New("no such price")
	}
	return &p, nil
}

func (g *fakeGateway) CreateRefund(_ context.Context, params payments.RefundParams) (*payments.Refund, error) {
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	g.createdRefund = &params
	r := payments.Refund{ID: "re_test_1", Status: g.refundStatus}
	if params.AmountCents != nil {
		r.Amount = *params.AmountCents
	}
	g.refunds[r.ID] = r
	return &r, nil
}

func (g *fakeGateway) RetrieveRefund(_ context.Context, refundID string) (*payments.Refund, error) {
	r, ok := g.refunds[refundID]
	if !ok {
		return nil, errors.New("no such refund")
	}
	return &r, nil
}

var testStripeConfig = config.Stripe{
	SecretKey:         "sk_test",
	PriceSubscription: "price_sub",
	PriceLives1:       "price_l1",
	PriceLives3:       "price_l3",
	PriceLives5:       "price_l5",
}

func newTestService(repo *fakeRepository, gw *fakeGateway, now time.Time) *Service {
	svc := NewService(repo, gw, testStripeConfig, "https://codigarte.test")
	svc.clock = func() time.Time { return now }
	return svc
}

func mustNewTransaction(t *testing.T, userID uint, kind string, amount string, quantity int) *models.Transaction {
	t.Helper()
	txn, err := models.NewTransaction(userID, kind, decimal.RequireFromString(amount), "", quantity)
	require.NoError(t, err)
	return txn
}

func TestCreateSubscriptionCheckout(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	repo.addUser(models.User{ID: 1, Email: "ana@example.com"})
	gw := newFakeGateway()
	gw.prices["price_sub"] = payments.Price{ID: "price_sub", UnitAmount: 1349, Currency: "eur"}

	svc := newTestService(repo, gw, now)
	result, err := svc.CreateSubscriptionCheckout(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.example.com/cs_test_1", result.CheckoutURL)
	assert.Equal(t, models.TransactionStatusPending, result.Transaction.Status)
	assert.True(t, result.Transaction.Amount.Equal(decimal.RequireFromString("13.49")))

	stored, err := repo.GetTransactionBySessionID("cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionKindSubscription, stored.Kind)
}

func TestCreateSubscriptionCheckout_RejectsActivePremium(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	started := now.Add(-24 * time.Hour)
	expires := started.Add(30 * 24 * time.Hour)
	repo := newFakeRepository()
	repo.addUser(models.User{ID: 1, Premium: true, PremiumStartedAt: &started, PremiumExpiresAt: &expires})

	svc := newTestService(repo, newFakeGateway(), now)
	_, err := svc.CreateSubscriptionCheckout(context.Background(), 1)
	assert.ErrorIs(t, err, ErrAlreadyPremium)
}

func TestCreateLivesCheckout_InvalidQuantity(t *testing.T) {
	repo := newFakeRepository()
	repo.addUser(models.User{ID: 1})
	svc := newTestService(repo, newFakeGateway(), time.Now())

	for _, quantity := range []int{0, 2, 4, 6, -1} {
		_, err := svc.CreateLivesCheckout(context.Background(), 1, quantity)
		assert.ErrorIs(t, err, ErrInvalidPackageSize, "quantity %d", quantity)
	}
}

func TestCreateLivesCheckout_RejectsPremium(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	started := now.Add(-24 * time.Hour)
	expires := started.Add(30 * 24 * time.Hour)
	repo := newFakeRepository()
	repo.addUser(models.User{ID: 1, Premium: true, PremiumStartedAt: &started, PremiumExpiresAt: &expires})

	svc := newTestService(repo, newFakeGateway(), now)
	_, err := svc.CreateLivesCheckout(context.Background(), 1, 3)
	assert.ErrorIs(t, err, ErrPremiumNotNeeded)
}

func TestApplyCheckoutCompleted_GrantsPremiumOnce(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	repo.addUser(models.User{ID: 1})
	txn := mustNewTransaction(t, 1, models.TransactionKindSubscription, "13.49", 0)
	txn.StripeSessionID = "cs_1"
	repo.addTransaction(*txn)

	svc := newTestService(repo, newFakeGateway(), now)
	event := payments.CheckoutCompleted{SessionID: "cs_1", PaymentIntentID: "pi_1"}

	require.NoError(t, svc.ApplyCheckoutCompleted(context.Background(), event))

	user, _ := repo.GetUser(1)
	assert.True(t, user.Premium)
	require.NotNil(t, user.PremiumExpiresAt)
	firstExpiry := *user.PremiumExpiresAt
	assert.Equal(t, now.Add(30*24*time.Hour), firstExpiry)

	stored, _ := repo.GetTransactionBySessionID("cs_1")
	assert.Equal(t, models.TransactionStatusConfirmed, stored.Status)
	assert.Equal(t, "pi_1", stored.StripePaymentIntentID)

	// Replayed delivery must not extend the entitlement.
	later := newTestService(repo, newFakeGateway(), now.Add(time.Hour))
	require.NoError(t, later.ApplyCheckoutCompleted(context.Background(), event))

	user, _ = repo.GetUser(1)
	assert.Equal(t, firstExpiry, *user.PremiumExpiresAt)
}

func TestApplyCheckoutCompleted_LivesPackage(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	repo.addUser(models.User{ID: 1, Lives: 1})
	txn := mustNewTransaction(t, 1, models.TransactionKindLives5, "4.75", 5)
	txn.StripeSessionID = "cs_2"
	repo.addTransaction(*txn)

	svc := newTestService(repo, newFakeGateway(), now)
	event := payments.CheckoutCompleted{SessionID: "cs_2", PaymentIntentID: "pi_2"}

	require.NoError(t, svc.ApplyCheckoutCompleted(context.Background(), event))

	user, _ := repo.GetUser(1)
	assert.Equal(t, 6, user.Lives)
	assert.Equal(t, 5, user.PurchasedLives)

	// Replay must not grant the lives twice.
	require.NoError(t, svc.ApplyCheckoutCompleted(context.Background(), event))
	user, _ = repo.GetUser(1)
	assert.Equal(t, 6, user.Lives)
}

func TestApplyCheckoutCompleted_UnknownSession(t *testing.T) {
	svc := newTestService(newFakeRepository(), newFakeGateway(), time.Now())
	err := svc.ApplyCheckoutCompleted(context.Background(), payments.CheckoutCompleted{SessionID: "cs_missing"})
	assert.NoError(t, err)
}

func TestCancelSubscription_WithinWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	started := now.Add(-2 * 24 * time.Hour)
	expires := started.Add(30 * 24 * time.Hour)
	repo := newFakeRepository()
	repo.addUser(models.User{ID: 1, Premium: true, PremiumStartedAt: &started, PremiumExpiresAt: &expires})

	txn := mustNewTransaction(t, 1, models.TransactionKindSubscription, "13.49", 0)
	txn.Status = models.TransactionStatusConfirmed
	txn.StripeSessionID = "cs_1"
	txn.StripePaymentIntentID = "pi_1"
	txn.CreatedAt = started
	repo.addTransaction(*txn)

	gw := newFakeGateway()
	svc := newTestService(repo, gw, now)

	result, err := svc.CancelSubscription(context.Background(), 1, "changed my mind")
	require.NoError(t, err)

	assert.True(t, result.Refunded)
	assert.False(t, result.RefundFailed)
	assert.Equal(t, "re_test_1", result.RefundID)
	assert.True(t, result.RefundAmount.Equal(decimal.RequireFromString("13.49")))

	user, _ := repo.GetUser(1)
	assert.False(t, user.Premium)
	assert.True(t, user.PremiumCancelled)
	assert.Nil(t, user.PremiumExpiresAt)

	stored, _ := repo.GetTransactionByPaymentIntentID("pi_1")
	assert.Equal(t, models.RefundStatusProcessing, stored.RefundStatus)

	// Full refund: no partial amount sent to the gateway.
	require.NotNil(t, gw.createdRefund)
	assert.Nil(t, gw.createdRefund.AmountCents)
}

func TestCancelSubscription_GatewayFailureStillRevokes(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	started := now.Add(-2 * 24 * time.Hour)
	expires := started.Add(30 * 24 * time.Hour)
	repo := newFakeRepository()
	repo.addUser(models.User{ID: 1, Premium: true, PremiumStartedAt: &started, PremiumExpiresAt: &expires})

	txn := mustNewTransaction(t, 1, models.TransactionKindSubscription, "13.49", 0)
	txn.Status = models.TransactionStatusConfirmed
	txn.StripePaymentIntentID = "pi_1"
	txn.CreatedAt = started
	repo.addTransaction(*txn)

	gw := newFakeGateway()
	gw.refundErr = errors.New("gateway unavailable")
	svc := newTestService(repo, gw, now)

	result, err := svc.CancelSubscription(context.Background(), 1, "")
	require.NoError(t, err)

	assert.False(t, result.Refunded)
	assert.True(t, result.RefundFailed)

	// The entitlement is gone even though the refund call failed.
	user, _ := repo.GetUser(1)
	assert.False(t, user.Premium)
	assert.True(t, user.PremiumCancelled)

	stored, _ := repo.GetTransactionByPaymentIntentID("pi_1")
	assert.Equal(t, models.RefundStatusFailed, stored.RefundStatus)
	assert.NotEqual(t, models.TransactionStatusRefunded, stored.Status)
}

func TestCancelSubscription_OutsideWindow(t *testing.T) {
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	started := now.Add(-10 * 24 * time.Hour)
	expires := started.Add(30 * 24 * time.Hour)
	repo := newFakeRepository()
	repo.addUser(models.User{ID: 1, Premium: true, PremiumStartedAt: &started, PremiumExpiresAt: &expires})

	txn := mustNewTransaction(t, 1, models.TransactionKindSubscription, "13.49", 0)
	txn.Status = models.TransactionStatusConfirmed
	txn.StripePaymentIntentID = "pi_1"
	txn.CreatedAt = started
	repo.addTransaction(*txn)

	gw := newFakeGateway()
	svc := newTestService(repo, gw, now)

	result, err := svc.CancelSubscription(context.Background(), 1, "")
	require.NoError(t, err)

	assert.False(t, result.Refunded)
	require.NotNil(t, result.PremiumUntil)
	assert.Equal(t, expires, *result.PremiumUntil)
	assert.Nil(t, gw.createdRefund)

	// Benefits stay until the paid period runs out.
	user, _ := repo.GetUser(1)
	assert.True(t, user.Premium)
	assert.True(t, user.PremiumCancelled)
	require.NotNil(t, user.PremiumExpiresAt)
	assert.Equal(t, expires, *user.PremiumExpiresAt)

	stored, _ := repo.GetTransactionByPaymentIntentID("pi_1")
	assert.Equal(t, models.RefundStatusNotRequested, stored.RefundStatus)
}

func TestCancelSubscription_Validation(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	repo.addUser(models.User{ID: 1})
	started := now.Add(-2 * 24 * time.Hour)
	expires := started.Add(30 * 24 * time.Hour)
	repo.addUser(models.User{ID: 2, Premium: true, PremiumCancelled: true, PremiumStartedAt: &started, PremiumExpiresAt: &expires})

	svc := newTestService(repo, newFakeGateway(), now)

	_, err := svc.CancelSubscription(context.Background(), 1, "")
	assert.ErrorIs(t, err, ErrNoPremiumToCancel)

	_, err = svc.CancelSubscription(context.Background(), 2, "")
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestRequestLivesRefund_ProratesUnusedLives(t *testing.T) {
	now := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	repo.addUser(models.User{ID: 1, Lives: 4, PurchasedLives: 5, PurchasedLivesUsed: 2})

	txn := mustNewTransaction(t, 1, models.TransactionKindLives5, "4.75", 5)
	txn.Status = models.TransactionStatusConfirmed
	txn.StripePaymentIntentID = "pi_1"
	txn.QuantityUsed = 2
	txn.CreatedAt = now.Add(-48 * time.Hour)
	repo.addTransaction(*txn)

	gw := newFakeGateway()
	svc := newTestService(repo, gw, now)

	result, err := svc.RequestLivesRefund(context.Background(), 1, txn.PublicID, "no longer needed")
	require.NoError(t, err)

	// 3 unused of 5 at 4.75 total, minus the processor cut: 2.76.
	assert.True(t, result.RefundAmount.Equal(decimal.RequireFromString("2.76")), "got %s", result.RefundAmount)
	assert.Equal(t, 3, result.LivesRemoved)
	assert.Equal(t, models.RefundStatusProcessing, result.RefundStatus)

	require.NotNil(t, gw.createdRefund)
	require.NotNil(t, gw.createdRefund.AmountCents)
	assert.Equal(t, int64(276), *gw.createdRefund.AmountCents)

	user, _ := repo.GetUser(1)
	assert.Equal(t, 1, user.Lives)
	assert.Equal(t, 2, user.PurchasedLives)

	stored, _ := repo.GetTransactionByPublicID(txn.PublicID, 1)
	assert.Equal(t, models.RefundStatusProcessing, stored.RefundStatus)
	assert.True(t, stored.RefundAmount.Equal(decimal.RequireFromString("2.76")))
}

func TestRequestLivesRefund_Validation(t *testing.T) {
	now := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	repo.addUser(models.User{ID: 1})

	expired := mustNewTransaction(t, 1, models.TransactionKindLives3, "3.00", 3)
	expired.Status = models.TransactionStatusConfirmed
	expired.StripePaymentIntentID = "pi_old"
	expired.CreatedAt = now.Add(-models.RefundWindow - time.Second)
	repo.addTransaction(*expired)

	used := mustNewTransaction(t, 1, models.TransactionKindLives1, "0.99", 1)
	used.Status = models.TransactionStatusConfirmed
	used.StripePaymentIntentID = "pi_used"
	used.QuantityUsed = 1
	used.CreatedAt = now.Add(-time.Hour)
	repo.addTransaction(*used)

	subscription := mustNewTransaction(t, 1, models.TransactionKindSubscription, "13.49", 0)
	subscription.CreatedAt = now.Add(-time.Hour)
	repo.addTransaction(*subscription)

	svc := newTestService(repo, newFakeGateway(), now)
	ctx := context.Background()

	_, err := svc.RequestLivesRefund(ctx, 1, "CDGXXXXXXX", "")
	assert.ErrorIs(t, err, ErrTransactionNotFound)

	_, err = svc.RequestLivesRefund(ctx, 1, expired.PublicID, "")
	assert.ErrorIs(t, err, ErrRefundWindowExpired)

	_, err = svc.RequestLivesRefund(ctx, 1, used.PublicID, "")
	assert.ErrorIs(t, err, ErrAllLivesUsed)

	_, err = svc.RequestLivesRefund(ctx, 1, subscription.PublicID, "")
	assert.ErrorIs(t, err, ErrNotLivesPackage)
}

func TestRequestLivesRefund_DoubleRequest(t *testing.T) {
	now := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	repo.addUser(models.User{ID: 1, Lives: 3, PurchasedLives: 3})

	txn := mustNewTransaction(t, 1, models.TransactionKindLives3, "3.00", 3)
	txn.Status = models.TransactionStatusConfirmed
	txn.StripePaymentIntentID = "pi_1"
	txn.CreatedAt = now.Add(-time.Hour)
	repo.addTransaction(*txn)

	svc := newTestService(repo, newFakeGateway(), now)
	ctx := context.Background()

	_, err := svc.RequestLivesRefund(ctx, 1, txn.PublicID, "first")
	require.NoError(t, err)

	_, err = svc.RequestLivesRefund(ctx, 1, txn.PublicID, "second")
	assert.ErrorIs(t, err, models.ErrRefundAlreadyRequested)
}

func TestApplyChargeRefunded(t *testing.T) {
	now := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()

	txn := mustNewTransaction(t, 1, models.TransactionKindLives5, "4.75", 5)
	txn.Status = models.TransactionStatusConfirmed
	txn.StripePaymentIntentID = "pi_1"
	txn.CreatedAt = now.Add(-time.Hour)
	require.NoError(t, txn.RequestRefund("", now.Add(-time.Minute)))
	require.NoError(t, txn.BeginRefundProcessing("re_1", now.Add(-time.Minute)))
	repo.addTransaction(*txn)

	svc := newTestService(repo, newFakeGateway(), now)
	err := svc.ApplyChargeRefunded(context.Background(), payments.ChargeRefunded{
		PaymentIntentID: "pi_1",
		RefundID:        "re_1",
		Status:          payments.RefundStatusSucceeded,
		Amount:          460,
		Currency:        "eur",
	})
	require.NoError(t, err)

	stored, _ := repo.GetTransactionByPaymentIntentID("pi_1")
	assert.Equal(t, models.RefundStatusCompleted, stored.RefundStatus)
	assert.Equal(t, models.TransactionStatusRefunded, stored.Status)
	require.NotNil(t, stored.RefundProcessedAt)
}

func TestApplyChargeRefunded_Failed(t *testing.T) {
	now := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()

	txn := mustNewTransaction(t, 1, models.TransactionKindLives3, "3.00", 3)
	txn.Status = models.TransactionStatusConfirmed
	txn.StripePaymentIntentID = "pi_1"
	txn.CreatedAt = now.Add(-time.Hour)
	require.NoError(t, txn.RequestRefund("", now.Add(-time.Minute)))
	require.NoError(t, txn.BeginRefundProcessing("re_1", now.Add(-time.Minute)))
	repo.addTransaction(*txn)

	svc := newTestService(repo, newFakeGateway(), now)
	err := svc.ApplyChargeRefunded(context.Background(), payments.ChargeRefunded{
		PaymentIntentID: "pi_1",
		RefundID:        "re_1",
		Status:          payments.RefundStatusFailed,
		FailureReason:   "expired_or_canceled_card",
	})
	require.NoError(t, err)

	stored, _ := repo.GetTransactionByPaymentIntentID("pi_1")
	assert.Equal(t, models.RefundStatusFailed, stored.RefundStatus)
	assert.Equal(t, models.TransactionStatusConfirmed, stored.Status)
}

func TestApplyChargeRefunded_UnknownIntent(t *testing.T) {
	svc := newTestService(newFakeRepository(), newFakeGateway(), time.Now())
	err := svc.ApplyChargeRefunded(context.Background(), payments.ChargeRefunded{
		PaymentIntentID: "pi_missing",
		Status:          payments.RefundStatusSucceeded,
	})
	assert.NoError(t, err)
}

func TestSyncRefundStatus(t *testing.T) {
	now := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepository()
	gw := newFakeGateway()
	gw.refunds["re_1"] = payments.Refund{ID: "re_1", Status: payments.RefundStatusSucceeded, Amount: 276, Currency: "eur"}

	txn := mustNewTransaction(t, 1, models.TransactionKindLives5, "4.75", 5)
	txn.ID = 1
	txn.Status = models.TransactionStatusConfirmed
	txn.StripePaymentIntentID = "pi_1"
	txn.CreatedAt = now.Add(-time.Hour)
	require.NoError(t, txn.RequestRefund("", now.Add(-time.Minute)))
	require.NoError(t, txn.BeginRefundProcessing("re_1", now.Add(-time.Minute)))
	repo.addTransaction(*txn)

	svc := newTestService(repo, gw, now)
	changed, err := svc.SyncRefundStatus(context.Background(), txn)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.RefundStatusCompleted, txn.RefundStatus)

	// Terminal states are not polled again.
	changed, err = svc.SyncRefundStatus(context.Background(), txn)
	require.NoError(t, err)
	assert.False(t, changed)
}
