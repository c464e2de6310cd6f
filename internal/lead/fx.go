package lead

import (
	"github.com/clientcare/crm/internal/lead/repository"
	"github.com/clientcare/crm/internal/lead/service"
	"go.uber.org/fx"
)

var Module = fx.Module("lead.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
