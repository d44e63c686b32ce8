package walletpass

import (
	"context"
	"encoding/json"

	"smallbiznis-stampcard/pkg/config"
	"smallbiznis-stampcard/pkg/logger"
	"smallbiznis-stampcard/pkg/task"
	"smallbiznis-stampcard/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Notifier is told about committed ledger changes. It never reports failure;
// the ledger does not depend on the wallet mirror.
type Notifier interface {
	LedgerChanged(ctx context.Context, u Update)
}

type SyncPassPayload struct {
	Update
	TraceID string `json:"trace_id,omitempty"`
}

// QueueNotifier hands the update to the wallet sync worker.
type QueueNotifier struct {
	enqueuer task.Enqueuer
	sync     config.WalletSync
	metrics  *Metrics
}

type QueueNotifierParams struct {
	fx.In
	Config   *config.Config
	Enqueuer task.Enqueuer
	Metrics  *Metrics `optional:"true"`
}

func NewQueueNotifier(p QueueNotifierParams) *QueueNotifier {
	return &QueueNotifier{
		enqueuer: p.Enqueuer,
		sync:     p.Config.Wallet.Sync,
		metrics:  p.Metrics,
	}
}

func (n *QueueNotifier) LedgerChanged(ctx context.Context, u Update) {
	zapLog := zap.L().With(append(logger.TraceFields(ctx),
		zap.String("customer_id", u.CustomerID),
		zap.String("task_type", taskname.WalletSyncPass),
	)...)

	payload, err := json.Marshal(SyncPassPayload{
		Update:  u,
		TraceID: trace.SpanContextFromContext(ctx).TraceID().String(),
	})
	if err != nil {
		n.metrics.enqueued("error")
		zapLog.Error("failed to encode wallet sync payload", zap.Error(err))
		return
	}

	opts := []asynq.Option{asynq.MaxRetry(n.sync.MaxRetry)}
	if n.sync.Queue != "" {
		opts = append(opts, asynq.Queue(n.sync.Queue))
	}
	if n.sync.Timeout > 0 {
		opts = append(opts, asynq.Timeout(n.sync.Timeout))
	}

	// the request may be gone by the time redis answers
	info, err := n.enqueuer.Enqueue(context.WithoutCancel(ctx), asynq.NewTask(taskname.WalletSyncPass, payload), opts...)
	if err != nil {
		n.metrics.enqueued("error")
		zapLog.Error("failed to enqueue wallet sync", zap.Error(err))
		return
	}

	n.metrics.enqueued("ok")
	zapLog.Debug("wallet sync enqueued", zap.String("task_id", info.ID), zap.String("queue", info.Queue))
}
