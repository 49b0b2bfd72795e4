package school

import (
	"github.com/skolahq/skola/internal/school/repository"
	"github.com/skolahq/skola/internal/school/service"
	"go.uber.org/fx"
)

var Module = fx.Module("school.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
