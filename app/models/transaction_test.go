package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var txNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func livesTransaction(t *testing.T, amount string, purchased, used int) *Transaction {
	t.Helper()
	tx, err := NewTransaction(1, TransactionKindLives5, decimal.RequireFromString(amount), "5 lives package", purchased)
	require.NoError(t, err)
	tx.CreatedAt = txNow.Add(-3 * 24 * time.Hour)
	tx.QuantityUsed = used
	return tx
}

func TestNewTransaction_PublicID(t *testing.T) {
	tx, err := NewTransaction(7, TransactionKindSubscription, decimal.RequireFromString("13.49"), "Premium subscription", 1)
	require.NoError(t, err)

	assert.Len(t, tx.PublicID, 10)
	assert.Equal(t, "CDG", tx.PublicID[:3])
	assert.Equal(t, TransactionStatusPending, tx.Status)
	assert.Equal(t, RefundStatusNotRequested, tx.RefundStatus)
}

func TestRefundable_Window(t *testing.T) {
	tx := livesTransaction(t, "4.75", 5, 0)

	// Exactly at the window boundary: still eligible (inclusive comparison).
	tx.CreatedAt = txNow.Add(-RefundWindow)
	assert.True(t, tx.Refundable(txNow))

	// One second past the window: no longer eligible.
	tx.CreatedAt = txNow.Add(-RefundWindow - time.Second)
	assert.False(t, tx.Refundable(txNow))
}

func TestRefundable_SubscriptionUsage(t *testing.T) {
	tx, err := NewTransaction(1, TransactionKindSubscription, decimal.RequireFromString("13.49"), "", 1)
	require.NoError(t, err)
	tx.CreatedAt = txNow.Add(-24 * time.Hour)

	assert.True(t, tx.Refundable(txNow))

	tx.MarkProductUsed()
	assert.False(t, tx.Refundable(txNow))
}

func TestRefundable_LivesFullyUsed(t *testing.T) {
	tx := livesTransaction(t, "4.75", 5, 5)
	assert.False(t, tx.Refundable(txNow))
}

func TestRefundable_UnknownKind(t *testing.T) {
	tx := livesTransaction(t, "4.75", 5, 0)
	tx.Kind = "mystery"
	assert.False(t, tx.Refundable(txNow))
}

func TestRefundAmountFor_ProratedLives(t *testing.T) {
	// 4.75 for 5 lives, 2 used: unit 0.95, unused 3, raw 2.85,
	// 2.85 * 0.968 = 2.7588 -> 2.76.
	tx := livesTransaction(t, "4.75", 5, 2)

	got := tx.RefundAmountFor(txNow)
	assert.True(t, got.Equal(decimal.RequireFromString("2.76")), "got %s", got)
}

func TestRefundAmountFor_Deterministic(t *testing.T) {
	tx := livesTransaction(t, "4.75", 5, 2)

	first := tx.RefundAmountFor(txNow)
	second := tx.RefundAmountFor(txNow)
	assert.True(t, first.Equal(second))
}

func TestRefundAmountFor_SubscriptionFullOrNothing(t *testing.T) {
	tx, err := NewTransaction(1, TransactionKindSubscription, decimal.RequireFromString("13.49"), "", 1)
	require.NoError(t, err)
	tx.CreatedAt = txNow.Add(-24 * time.Hour)

	assert.True(t, tx.RefundAmountFor(txNow).Equal(decimal.RequireFromString("13.49")))

	tx.MarkProductUsed()
	assert.True(t, tx.RefundAmountFor(txNow).IsZero())
}

func TestRequestRefund_FreezesAmount(t *testing.T) {
	tx := livesTransaction(t, "4.75", 5, 2)

	require.NoError(t, tx.RequestRefund("changed my mind", txNow))

	assert.Equal(t, RefundStatusRequested, tx.RefundStatus)
	assert.True(t, tx.RefundAmount.Equal(decimal.RequireFromString("2.76")))
	require.NotNil(t, tx.RefundRequestedAt)

	// Consuming more lives after the request must not change the promise.
	tx.RegisterLifeUse()
	assert.True(t, tx.RefundAmount.Equal(decimal.RequireFromString("2.76")))
}

func TestRequestRefund_SecondCallRejected(t *testing.T) {
	tx := livesTransaction(t, "4.75", 5, 0)

	require.NoError(t, tx.RequestRefund("first", txNow))
	err := tx.RequestRefund("second", txNow)
	assert.ErrorIs(t, err, ErrRefundAlreadyRequested)
}

func TestRefundStateMachine_HappyPath(t *testing.T) {
	tx := livesTransaction(t, "4.75", 5, 2)

	require.NoError(t, tx.RequestRefund("changed my mind", txNow))
	require.NoError(t, tx.BeginRefundProcessing("re_123", txNow))
	assert.Equal(t, "re_123", tx.StripeRefundID)

	require.NoError(t, tx.CompleteRefund(map[string]any{"status": "succeeded"}, txNow))
	assert.Equal(t, RefundStatusCompleted, tx.RefundStatus)
	assert.Equal(t, TransactionStatusRefunded, tx.Status)
	require.NotNil(t, tx.RefundProcessedAt)

	history := tx.RefundHistory()
	require.Len(t, history, 3)
	assert.Equal(t, RefundStatusRequested, history[0].Status)
	assert.Equal(t, RefundStatusProcessing, history[1].Status)
	assert.Equal(t, RefundStatusCompleted, history[2].Status)
}

func TestCompleteRefund_IdempotentReplay(t *testing.T) {
	tx := livesTransaction(t, "4.75", 5, 2)
	require.NoError(t, tx.RequestRefund("r", txNow))
	require.NoError(t, tx.BeginRefundProcessing("re_1", txNow))
	require.NoError(t, tx.CompleteRefund(nil, txNow))

	historyLen := len(tx.RefundHistory())
	require.NoError(t, tx.CompleteRefund(nil, txNow))
	assert.Len(t, tx.RefundHistory(), historyLen, "replay must not append audit entries")
}

func TestRefundStateMachine_IllegalTransitions(t *testing.T) {
	tx := livesTransaction(t, "4.75", 5, 0)

	// processing requires a prior request
	assert.ErrorIs(t, tx.BeginRefundProcessing("re_1", txNow), ErrInvalidRefundTransition)
	// completing before requesting is illegal
	assert.ErrorIs(t, tx.CompleteRefund(nil, txNow), ErrInvalidRefundTransition)
	// failing before requesting is illegal
	assert.ErrorIs(t, tx.FailRefund("boom", txNow), ErrInvalidRefundTransition)

	// no way out of failed
	require.NoError(t, tx.RequestRefund("r", txNow))
	require.NoError(t, tx.FailRefund("gateway down", txNow))
	assert.ErrorIs(t, tx.BeginRefundProcessing("re_2", txNow), ErrInvalidRefundTransition)
	assert.ErrorIs(t, tx.CompleteRefund(nil, txNow), ErrInvalidRefundTransition)
	assert.NoError(t, tx.FailRefund("again", txNow), "re-failing is a no-op")
}

func TestFailRefund_FromProcessing(t *testing.T) {
	tx := livesTransaction(t, "4.75", 5, 0)
	require.NoError(t, tx.RequestRefund("r", txNow))
	require.NoError(t, tx.BeginRefundProcessing("re_1", txNow))
	require.NoError(t, tx.FailRefund("declined", txNow))
	assert.Equal(t, RefundStatusFailed, tx.RefundStatus)
	// the parent transaction keeps its confirmed money state
	assert.NotEqual(t, TransactionStatusRefunded, tx.Status)
}

func TestRegisterLifeUse_Bounds(t *testing.T) {
	tx := livesTransaction(t, "3.00", 3, 2)

	assert.True(t, tx.RegisterLifeUse())
	assert.False(t, tx.RegisterLifeUse(), "cannot use more than purchased")
	assert.Equal(t, 3, tx.QuantityUsed)
	assert.Equal(t, 0, tx.UnusedQuantity())
}
