package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ruslanbay/milk-indent/internal/database"
	"github.com/ruslanbay/milk-indent/internal/logger"
)

const reconcileRetryDelay = time.Minute

// ReconcileService воспроизводит незавершенные сверки с кредитной книгой.
// Встроенные вызовы книги после записи заказа остаются best-effort; этот
// сервис лишь повторяет по записям намерений то, что уже не удалось, чтобы
// расхождение заказа и книги не оставалось постоянным.
type ReconcileService struct {
	storage         reconcileStorage
	ledger          creditLedger
	jobQueueService reconcileJobQueueService
}

type reconcileStorage interface {
	FindUnfinishedLedgerIntents(ctx context.Context) ([]database.LedgerIntentDB, error)

	MarkLedgerIntent(ctx context.Context, id int64, status database.LedgerIntentStatus) error
}

type reconcileJobQueueService interface {
	Enqueue(job Job)

	ScheduleJob(job Job, delay time.Duration)
}

func NewReconcileService(storage reconcileStorage, ledger creditLedger, jobQueueService reconcileJobQueueService) *ReconcileService {
	return &ReconcileService{
		storage:         storage,
		ledger:          ledger,
		jobQueueService: jobQueueService,
	}
}

// ReplayIntent ставит в очередь повтор одного намерения сверки.
func (rs *ReconcileService) ReplayIntent(intent database.LedgerIntentDB) {
	rs.jobQueueService.Enqueue(func(ctx context.Context) {
		if err := rs.callLedger(ctx, intent); err != nil {
			logger.Log.Error("failed to replay ledger intent",
				zap.Int64("intentID", intent.ID),
				zap.String("orderID", intent.OrderID),
				zap.String("kind", string(intent.Kind)),
				zap.Error(err))

			if err := rs.storage.MarkLedgerIntent(ctx, intent.ID, database.IntentStatusFailed); err != nil {
				logger.Log.Error("failed to mark ledger intent", zap.Error(err))
			}

			rs.jobQueueService.ScheduleJob(func(ctx context.Context) {
				rs.ReplayIntent(intent)
			}, reconcileRetryDelay)

			return
		}

		if err := rs.storage.MarkLedgerIntent(ctx, intent.ID, database.IntentStatusDone); err != nil {
			logger.Log.Error("failed to mark ledger intent", zap.Error(err))
			return
		}

		logger.Log.Info("replayed ledger intent",
			zap.Int64("intentID", intent.ID),
			zap.String("orderID", intent.OrderID),
			zap.String("kind", string(intent.Kind)))
	})
}

// StartReconciliation при старте сервиса ставит в очередь все незавершенные
// намерения сверки.
func (rs *ReconcileService) StartReconciliation(ctx context.Context) error {
	intents, err := rs.storage.FindUnfinishedLedgerIntents(ctx)
	if err != nil {
		return err
	}

	for _, intent := range intents {
		rs.ReplayIntent(intent)
	}

	return nil
}

func (rs *ReconcileService) callLedger(ctx context.Context, intent database.LedgerIntentDB) error {
	switch intent.Kind {
	case database.IntentDeduct:
		return rs.ledger.Deduct(ctx, intent.CustomerID, intent.Amount)
	case database.IntentIncrease:
		return rs.ledger.Increase(ctx, intent.CustomerID, intent.Amount)
	case database.IntentAmountDue:
		return rs.ledger.UpdateAmountDue(ctx, intent.CustomerID, intent.Amount, intent.OriginalAmount)
	default:
		return fmt.Errorf("unknown ledger intent kind %q", intent.Kind)
	}
}
