package billing

import (
	"gorm.io/gorm"

	"github.com/codigarte/codigarte/app/models"
)

// Repository provides the DB operations used by the billing service.
type Repository interface {
	GetUser(id uint) (*models.User, error)
	SaveUser(u *models.User) error

	CreateTransaction(t *models.Transaction) error
	SaveTransaction(t *models.Transaction) error
	GetTransactionByPublicID(publicID string, userID uint) (*models.Transaction, error)
	GetTransactionBySessionID(sessionID string) (*models.Transaction, error)
	GetTransactionByPaymentIntentID(paymentIntentID string) (*models.Transaction, error)
	LatestSubscriptionTransaction(userID uint) (*models.Transaction, error)
	ListTransactionsByUser(userID uint) ([]models.Transaction, error)

	// ClaimRefundRequest persists a freshly requested refund with a
	// conditional update guarded on refund_status = not_requested. It reports
	// false when another request already claimed the transaction, which is
	// how a concurrent double-refund is prevented.
	ClaimRefundRequest(t *models.Transaction) (bool, error)

	// Transact runs fn inside one storage transaction so multi-row updates
	// (user counters plus ledger row) commit or roll back together.
	Transact(fn func(Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUser(id uint) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) SaveUser(u *models.User) error {
	return r.db.Save(u).Error
}

func (r *gormRepository) CreateTransaction(t *models.Transaction) error {
	return r.db.Create(t).Error
}

func (r *gormRepository) SaveTransaction(t *models.Transaction) error {
	return r.db.Save(t).Error
}

func (r *gormRepository) GetTransactionByPublicID(publicID string, userID uint) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.Where("public_id = ? AND user_id = ?", publicID, userID).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *gormRepository) GetTransactionBySessionID(sessionID string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.Where("stripe_session_id = ?", sessionID).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *gormRepository) GetTransactionByPaymentIntentID(paymentIntentID string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.Where("stripe_payment_intent_id = ?", paymentIntentID).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *gormRepository) LatestSubscriptionTransaction(userID uint) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.
		Where("user_id = ? AND kind = ?", userID, models.TransactionKindSubscription).
		Order("created_at DESC").
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *gormRepository) ListTransactionsByUser(userID uint) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&txs).Error
	return txs, err
}

func (r *gormRepository) ClaimRefundRequest(t *models.Transaction) (bool, error) {
	res := r.db.Model(&models.Transaction{}).
		Where("id = ? AND refund_status = ?", t.ID, models.RefundStatusNotRequested).
		Updates(map[string]interface{}{
			"refund_status":       t.RefundStatus,
			"refund_requested_at": t.RefundRequestedAt,
			"refund_reason":       t.RefundReason,
			"refund_amount":       t.RefundAmount,
			"refund_history":      t.RefundHistoryJSON,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormRepository) Transact(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}
