package tenantdir

import (
	"github.com/skolahq/skola/internal/tenantdir/repository"
	"github.com/skolahq/skola/internal/tenantdir/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenantdir.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
