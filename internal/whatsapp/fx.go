package whatsapp

import "go.uber.org/fx"

var Module = fx.Module("whatsapp",
	fx.Provide(NewClient),
	fx.Provide(NewProcessor),
)
