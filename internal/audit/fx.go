package audit

import (
	"github.com/skolahq/skola/internal/audit/repository"
	"github.com/skolahq/skola/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
