package payment

import (
	"github.com/skolahq/skola/internal/payment/repository"
	"github.com/skolahq/skola/internal/payment/service"
	"github.com/skolahq/skola/internal/payment/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Provide(webhook.NewService),
)
