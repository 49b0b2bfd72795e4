package course

import (
	"github.com/skolahq/skola/internal/course/repository"
	"github.com/skolahq/skola/internal/course/service"
	"go.uber.org/fx"
)

var Module = fx.Module("course.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
