package service

import (
	"github.com/cyclebill/cyclebill/internal/config"
	"github.com/cyclebill/cyclebill/internal/domain/customer"
	"github.com/cyclebill/cyclebill/internal/domain/plan"
	"github.com/cyclebill/cyclebill/internal/domain/price"
	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/postgres"
)

// ServiceParams holds the dependencies shared by all services.
// Everything is passed in explicitly; services keep no state of their own
// between calls.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	SubRepo      subscription.Repository
	PlanRepo     plan.Repository
	PriceRepo    price.Repository
	CustomerRepo customer.Repository
}
