package repository

import (
	"github.com/cyclebill/cyclebill/internal/domain/customer"
	"github.com/cyclebill/cyclebill/internal/domain/plan"
	"github.com/cyclebill/cyclebill/internal/domain/price"
	"github.com/cyclebill/cyclebill/internal/domain/subscription"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/postgres"
	postgresRepo "github.com/cyclebill/cyclebill/internal/repository/postgres"
)

func NewSubscriptionRepository(db postgres.IClient, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(db, logger)
}

func NewPlanRepository(db postgres.IClient, logger *logger.Logger) plan.Repository {
	return postgresRepo.NewPlanRepository(db, logger)
}

func NewPriceRepository(db postgres.IClient, logger *logger.Logger) price.Repository {
	return postgresRepo.NewPriceRepository(db, logger)
}

func NewCustomerRepository(db postgres.IClient, logger *logger.Logger) customer.Repository {
	return postgresRepo.NewCustomerRepository(db, logger)
}
