package jobqueue

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/codigarte/codigarte/internal/pkg/billing"
)

var (
	billingService *billing.Service
	billingMu      sync.RWMutex
)

// SetBillingService wires the billing service used by refund sync jobs.
// Must be called during application startup before the manager starts.
func SetBillingService(svc *billing.Service) {
	billingMu.Lock()
	defer billingMu.Unlock()
	billingService = svc
}

func getBillingService() *billing.Service {
	billingMu.RLock()
	defer billingMu.RUnlock()
	return billingService
}

// processRefundSyncJob re-checks a pending refund against the payment
// gateway and advances the ledger when the gateway reached a terminal state.
func (q *Queue) processRefundSyncJob(ctx context.Context, job *Job) error {
	svc := getBillingService()
	if svc == nil {
		return fmt.Errorf("billing service not configured")
	}

	payload, err := RefundSyncJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid refund sync payload: %w", err)
	}

	txn, err := svc.GetTransaction(payload.UserID, payload.PublicID)
	if err != nil {
		return fmt.Errorf("transaction %s not found: %w", payload.PublicID, err)
	}

	changed, err := svc.SyncRefundStatus(ctx, txn)
	if err != nil {
		return fmt.Errorf("refund sync for %s: %w", payload.PublicID, err)
	}
	if changed {
		log.Infof("[JobQueue] Refund for transaction %s advanced to %s", txn.PublicID, txn.RefundStatus)
	}
	return nil
}
