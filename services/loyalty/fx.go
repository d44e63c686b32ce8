package loyalty

import (
	"smallbiznis-stampcard/services/walletpass"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var Module = fx.Module("loyalty",
	fx.Provide(
		func(reg *prometheus.Registry) *Metrics { return NewMetrics(reg) },
		NewService,
		func(s *Service) walletpass.LedgerReader { return s },
		NewHandler,
	),
	fx.Invoke(RegisterRoutes),
)
