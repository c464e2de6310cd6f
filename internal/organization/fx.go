package organization

import (
	"github.com/clientcare/crm/internal/organization/repository"
	"github.com/clientcare/crm/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
