package walletpass

import (
	"context"
	"encoding/json"
	"fmt"

	"smallbiznis-stampcard/pkg/errutil"
	"smallbiznis-stampcard/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// LedgerReader loads the current wallet view of a customer's ledger.
type LedgerReader interface {
	WalletSnapshot(ctx context.Context, customerID string) (Update, error)
}

type SyncTask struct {
	pusher Pusher
	reader LedgerReader
}

type SyncTaskParams struct {
	fx.In
	Pusher Pusher
	Reader LedgerReader `optional:"true"`
}

func NewSyncTask(p SyncTaskParams) *SyncTask {
	return &SyncTask{pusher: p.Pusher, reader: p.Reader}
}

func RegisterTasks(mux *asynq.ServeMux, t *SyncTask) {
	mux.HandleFunc(taskname.WalletSyncPass, t.HandleSyncPass)
}

// HandleSyncPass pushes the latest ledger snapshot, falling back to the
// enqueued values when the ledger cannot be read. Configuration and missing
// pass errors are not retried.
func (t *SyncTask) HandleSyncPass(ctx context.Context, task *asynq.Task) error {
	var payload SyncPassPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}

	zapLog := zap.L().With(
		zap.String("task_type", task.Type()),
		zap.String("customer_id", payload.CustomerID),
		zap.String("trace_id", payload.TraceID),
	)

	if payload.CustomerID == "" {
		zapLog.Error("wallet sync without customer id")
		return fmt.Errorf("missing customer id: %w", asynq.SkipRetry)
	}

	update := payload.Update
	if t.reader != nil {
		snap, err := t.reader.WalletSnapshot(ctx, payload.CustomerID)
		switch {
		case err == nil:
			update = snap
		case errutil.Is(err, errutil.StatusNotFound):
			zapLog.Warn("wallet sync for unknown customer dropped", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		default:
			zapLog.Warn("ledger snapshot unavailable, pushing enqueued values", zap.Error(err))
		}
	}

	err := t.pusher.Push(ctx, update)
	switch {
	case err == nil:
		zapLog.Info("wallet sync done", zap.Int64("points", update.Points), zap.Int("stamps", update.Stamps))
		return nil
	case errutil.Is(err, errutil.StatusConfiguration),
		errutil.Is(err, errutil.StatusNotFound),
		errutil.Is(err, errutil.StatusValidationFailed):
		zapLog.Warn("wallet sync dropped", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	default:
		zapLog.Error("wallet sync failed, will retry", zap.Error(err))
		return err
	}
}
