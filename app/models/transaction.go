package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/codigarte/codigarte/internal/pkg/publicid"
)

const (
	TransactionKindSubscription = "subscription"
	TransactionKindLives1       = "lives_1"
	TransactionKindLives3       = "lives_3"
	TransactionKindLives5       = "lives_5"
)

const (
	TransactionStatusPending   = "pending"
	TransactionStatusConfirmed = "confirmed"
	TransactionStatusRefunded  = "refunded"
)

const (
	RefundStatusNotRequested = "not_requested"
	RefundStatusRequested    = "requested"
	RefundStatusProcessing   = "processing"
	RefundStatusCompleted    = "completed"
	RefundStatusFailed       = "failed"
)

// RefundWindow is how long after purchase a transaction stays refundable.
// The comparison is inclusive: elapsed == RefundWindow is still eligible.
const RefundWindow = 7 * 24 * time.Hour

// processorFeeFactor is the non-refundable payment processor cut (about 3.2%)
// withheld from prorated lives refunds.
var processorFeeFactor = decimal.RequireFromString("0.968")

var (
	ErrRefundAlreadyRequested  = errors.New("refund already requested for this transaction")
	ErrInvalidRefundTransition = errors.New("invalid refund status transition")
)

// RefundEvent is one audit entry in a transaction's refund history. The
// ordered history is serialized to JSON only at the storage boundary.
type RefundEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Status    string         `json:"status"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
}

// Transaction is the durable record of one monetary event and its refund
// lifecycle. Internal ids are never exposed; PublicID is the only externally
// shareable reference.
type Transaction struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PublicID string `gorm:"type:varchar(20);uniqueIndex" json:"public_id"`
	UserID   uint   `gorm:"not null;index" json:"user_id"`

	Kind    string          `gorm:"type:varchar(50);not null" json:"kind"`
	Amount  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Details string          `gorm:"type:varchar(500)" json:"details"`
	Status  string          `gorm:"type:varchar(20);default:'pending'" json:"status"`

	// Gateway correlation ids, populated progressively: session at checkout,
	// payment intent on confirmation, refund id once a refund is created.
	StripeSessionID       string `gorm:"type:varchar(255);index" json:"-"`
	StripePaymentIntentID string `gorm:"type:varchar(255);index" json:"-"`
	StripeRefundID        string `gorm:"type:varchar(255)" json:"-"`

	// Product usage tracking. Subscriptions use the boolean; lives packages
	// track purchased vs used quantities (Used never exceeds Purchased).
	ProductUsed       bool `gorm:"default:false" json:"product_used"`
	QuantityPurchased int  `gorm:"default:0" json:"quantity_purchased"`
	QuantityUsed      int  `gorm:"default:0" json:"quantity_used"`

	RefundStatus      string          `gorm:"type:varchar(20);default:'not_requested';index" json:"refund_status"`
	RefundRequestedAt *time.Time      `gorm:"type:timestamp;default:null" json:"refund_requested_at,omitempty"`
	RefundProcessedAt *time.Time      `gorm:"type:timestamp;default:null" json:"refund_processed_at,omitempty"`
	RefundReason      string          `gorm:"type:varchar(500)" json:"refund_reason,omitempty"`
	RefundAmount      decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"refund_amount"`
	RefundHistoryJSON string          `gorm:"column:refund_history;type:longtext" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewTransaction builds a pending ledger row with a fresh public id.
func NewTransaction(userID uint, kind string, amount decimal.Decimal, details string, quantity int) (*Transaction, error) {
	id, err := publicid.New()
	if err != nil {
		return nil, err
	}
	return &Transaction{
		PublicID:          id,
		UserID:            userID,
		Kind:              kind,
		Amount:            amount,
		Details:           details,
		Status:            TransactionStatusPending,
		QuantityPurchased: quantity,
		RefundStatus:      RefundStatusNotRequested,
	}, nil
}

// IsLivesPackage reports whether the transaction bought a lives package.
func (t *Transaction) IsLivesPackage() bool {
	return strings.HasPrefix(t.Kind, "lives_")
}

// UnusedQuantity returns how many purchased units were never consumed.
func (t *Transaction) UnusedQuantity() int {
	unused := t.QuantityPurchased - t.QuantityUsed
	if unused < 0 {
		return 0
	}
	return unused
}

// Refundable reports whether a refund may still be requested. Subscriptions
// are refundable within the window while the product is unused; lives
// packages are refundable within the window while unused lives remain. The
// window comparison is inclusive (elapsed <= RefundWindow is eligible).
func (t *Transaction) Refundable(now time.Time) bool {
	elapsed := now.UTC().Sub(t.CreatedAt.UTC())
	if elapsed > RefundWindow {
		return false
	}

	switch {
	case t.Kind == TransactionKindSubscription:
		return !t.ProductUsed
	case t.IsLivesPackage():
		return t.UnusedQuantity() > 0
	default:
		return false
	}
}

// RefundAmountFor computes the refundable amount at the given instant. It is
// a pure function of the transaction's current fields: subscriptions refund
// in full or not at all; lives packages refund the unused share minus the
// processor fee, rounded to cents.
//
// The result is frozen into RefundAmount by RequestRefund and must never be
// recomputed afterwards: lives consumed after the request must not shrink an
// already promised refund.
func (t *Transaction) RefundAmountFor(now time.Time) decimal.Decimal {
	switch {
	case t.Kind == TransactionKindSubscription:
		if t.Refundable(now) {
			return t.Amount
		}
		return decimal.Zero
	case t.IsLivesPackage():
		if !t.Refundable(now) {
			return decimal.Zero
		}
		unused := t.UnusedQuantity()
		if unused <= 0 || t.QuantityPurchased <= 0 {
			return decimal.Zero
		}
		unitPrice := t.Amount.Div(decimal.NewFromInt(int64(t.QuantityPurchased)))
		raw := unitPrice.Mul(decimal.NewFromInt(int64(unused)))
		return raw.Mul(processorFeeFactor).Round(2)
	default:
		return decimal.Zero
	}
}

// RequestRefund moves the refund state machine from not_requested to
// requested and freezes the refund amount. Any other starting state is
// rejected so a second concurrent request cannot slip through.
func (t *Transaction) RequestRefund(reason string, now time.Time) error {
	if t.RefundStatus != RefundStatusNotRequested {
		return ErrRefundAlreadyRequested
	}

	now = now.UTC()
	t.RefundStatus = RefundStatusRequested
	t.RefundRequestedAt = &now
	t.RefundReason = reason
	t.RefundAmount = t.RefundAmountFor(now)

	t.appendRefundEvent(now, RefundStatusRequested, "Refund requested by the user", map[string]any{
		"reason":          reason,
		"refund_amount":   t.RefundAmount.String(),
		"original_amount": t.Amount.String(),
	})
	return nil
}

// BeginRefundProcessing records that the gateway acknowledged refund creation
// and moves requested to processing.
func (t *Transaction) BeginRefundProcessing(refundID string, now time.Time) error {
	if t.RefundStatus != RefundStatusRequested {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidRefundTransition, t.RefundStatus, RefundStatusProcessing)
	}

	t.RefundStatus = RefundStatusProcessing
	t.StripeRefundID = refundID

	t.appendRefundEvent(now.UTC(), RefundStatusProcessing, "Refund being processed by the payment gateway", map[string]any{
		"refund_id": refundID,
	})
	return nil
}

// CompleteRefund finishes the refund and flips the transaction to refunded.
// Completing an already-completed refund is a safe no-op so duplicate webhook
// deliveries do not corrupt the ledger.
func (t *Transaction) CompleteRefund(gatewayData map[string]any, now time.Time) error {
	if t.RefundStatus == RefundStatusCompleted {
		return nil
	}
	if t.RefundStatus != RefundStatusRequested && t.RefundStatus != RefundStatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidRefundTransition, t.RefundStatus, RefundStatusCompleted)
	}

	now = now.UTC()
	t.RefundStatus = RefundStatusCompleted
	t.RefundProcessedAt = &now
	t.Status = TransactionStatusRefunded

	t.appendRefundEvent(now, RefundStatusCompleted, "Refund processed successfully", map[string]any{
		"gateway": gatewayData,
	})
	return nil
}

// FailRefund marks the refund as failed. Only requested and processing can
// fail; a failed refund stays failed (re-failing is a no-op).
func (t *Transaction) FailRefund(errText string, now time.Time) error {
	if t.RefundStatus == RefundStatusFailed {
		return nil
	}
	if t.RefundStatus != RefundStatusRequested && t.RefundStatus != RefundStatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidRefundTransition, t.RefundStatus, RefundStatusFailed)
	}

	t.RefundStatus = RefundStatusFailed

	t.appendRefundEvent(now.UTC(), RefundStatusFailed, "Refund processing failed", map[string]any{
		"error": errText,
	})
	return nil
}

// MarkProductUsed flags a subscription's benefits as consumed, which makes
// the transaction ineligible for a refund.
func (t *Transaction) MarkProductUsed() {
	t.ProductUsed = true
}

// RegisterLifeUse consumes one purchased life from this package.
func (t *Transaction) RegisterLifeUse() bool {
	if t.QuantityUsed < t.QuantityPurchased {
		t.QuantityUsed++
		return true
	}
	return false
}

// RefundHistory decodes the ordered audit trail. A missing or corrupt
// history decodes to empty rather than failing a read path.
func (t *Transaction) RefundHistory() []RefundEvent {
	if t.RefundHistoryJSON == "" {
		return nil
	}
	var history []RefundEvent
	if err := json.Unmarshal([]byte(t.RefundHistoryJSON), &history); err != nil {
		return nil
	}
	return history
}

func (t *Transaction) appendRefundEvent(now time.Time, status, message string, data map[string]any) {
	history := t.RefundHistory()
	history = append(history, RefundEvent{
		Timestamp: now,
		Status:    status,
		Message:   message,
		Data:      data,
	})
	encoded, err := json.Marshal(history)
	if err != nil {
		return
	}
	t.RefundHistoryJSON = string(encoded)
}
