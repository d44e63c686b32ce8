package stampcard

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var Module = fx.Module("stampcard",
	fx.Provide(
		NewImageSource,
		func(reg *prometheus.Registry) *Metrics { return NewMetrics(reg) },
		NewRendererFromConfig,
		NewSpriteTableFromConfig,
		NewHandler,
	),
	fx.Invoke(RegisterRoutes),
)
