package note

import (
	"github.com/clientcare/crm/internal/note/repository"
	"github.com/clientcare/crm/internal/note/service"
	"go.uber.org/fx"
)

var Module = fx.Module("note.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
