package jobqueue

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/codigarte/codigarte/app/models"
	"github.com/codigarte/codigarte/internal/pkg/database"
	"github.com/codigarte/codigarte/internal/pkg/env"
	metrics "github.com/codigarte/codigarte/internal/pkg/metrics/counter"
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue              *Queue
	counterFlushTicker *time.Ticker
	refundSweepTicker  *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 3
		if v, err := strconv.Atoi(env.GetEnv("JOB_QUEUE_WORKERS", "3")); err == nil && v > 0 {
			workerCount = v
		}

		globalManager = &Manager{
			queue:  NewQueue(workerCount),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	// Start the job queue
	m.queue.Start()

	// Start counter flush worker (Redis -> DB) every 5 seconds
	m.counterFlushTicker = time.NewTicker(5 * time.Second)
	m.wg.Add(1)
	go m.counterFlushWorker()

	// Sweep pending refunds against the gateway every 5 minutes
	m.refundSweepTicker = time.NewTicker(5 * time.Minute)
	m.wg.Add(1)
	go m.refundSweepWorker()

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.counterFlushTicker != nil {
		m.counterFlushTicker.Stop()
	}
	if m.refundSweepTicker != nil {
		m.refundSweepTicker.Stop()
	}

	// Signal workers to stop
	close(m.stopCh)
	m.stopCh = nil
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	// Stop the job queue
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// counterFlushWorker periodically flushes exercise counters from Redis to DB
func (m *Manager) counterFlushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Counter flush worker stopping")
			return
		case <-m.counterFlushTicker.C:
			if err := metrics.FlushAll(); err != nil {
				log.Errorf("[JobQueue Manager] Counter flush error: %v", err)
			}
		}
	}
}

// refundSweepWorker re-enqueues sync jobs for refunds the gateway has not
// confirmed yet. Webhooks normally settle these; the sweep covers missed
// deliveries.
func (m *Manager) refundSweepWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Refund sweep worker stopping")
			return
		case <-m.refundSweepTicker.C:
			if err := m.sweepPendingRefunds(); err != nil {
				log.Errorf("[JobQueue Manager] Refund sweep error: %v", err)
			}
		}
	}
}

func (m *Manager) sweepPendingRefunds() error {
	var pending []models.Transaction
	err := database.GetDB().
		Where("refund_status = ? AND stripe_refund_id <> ''", models.RefundStatusProcessing).
		Find(&pending).Error
	if err != nil {
		return err
	}

	for i := range pending {
		txn := &pending[i]
		payload := RefundSyncJobPayload{
			TransactionID: txn.ID,
			PublicID:      txn.PublicID,
			UserID:        txn.UserID,
		}
		if _, err := m.queue.EnqueueJob(JobTypeRefundSync, payload.ToMap()); err != nil {
			log.Errorf("[JobQueue Manager] Failed to enqueue refund sync for %s: %v", txn.PublicID, err)
		}
	}
	return nil
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
