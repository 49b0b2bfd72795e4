package enrollment

import (
	"github.com/skolahq/skola/internal/enrollment/repository"
	"github.com/skolahq/skola/internal/enrollment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("enrollment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
