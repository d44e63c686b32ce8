package walletpass

import (
	"smallbiznis-stampcard/pkg/config"
	"smallbiznis-stampcard/pkg/httpclient"
	"smallbiznis-stampcard/services/stampcard"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var Module = fx.Module("walletpass",
	fx.Provide(
		func(reg *prometheus.Registry) *Metrics { return NewMetrics(reg) },
		NewIssuer,
		fx.Annotate(NewUpdaterFromConfig, fx.As(new(Pusher))),
		fx.Annotate(NewQueueNotifier, fx.As(new(Notifier))),
		NewHandler,
	),
	fx.Invoke(RegisterRoutes),
)

// Worker registers the wallet sync task on the asynq mux.
var Worker = fx.Module("walletpass.worker",
	fx.Provide(NewSyncTask),
	fx.Invoke(RegisterTasks),
)

func NewUpdaterFromConfig(cfg *config.Config, sprites stampcard.SpriteTable, metrics *Metrics) *Updater {
	google := GoogleConfigFrom(cfg.Wallet.Google)
	timeout := cfg.Wallet.Google.Timeout

	creds := NewCredentials(google, newLazySigner(google.PrivateKey), httpclient.New("google-oauth", timeout))
	return NewUpdater(google, creds, httpclient.New("google-wallet", timeout), sprites, cfg.Loyalty, metrics)
}
