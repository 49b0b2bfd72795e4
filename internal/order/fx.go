package order

import (
	"github.com/skolahq/skola/internal/order/repository"
	"github.com/skolahq/skola/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
