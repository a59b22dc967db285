package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/cyclebill/cyclebill/internal/config"
	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/postgres"
	"github.com/cyclebill/cyclebill/internal/repository"
	"github.com/cyclebill/cyclebill/internal/service"
	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/samber/lo"
)

// The scheduler is the external collaborator that drives the time-based
// transitions: trial expiry activation and period renewal. It runs one sweep
// per invocation (cron-friendly); both underlying operations are idempotent
// so overlapping runs are safe.
func main() {
	tenantID := flag.String("tenant", "", "Tenant to sweep")
	mode := flag.String("mode", string(types.ModeLive), "Data partition to sweep: test or live")
	flag.Parse()

	if *tenantID == "" {
		log.Fatal("missing required -tenant flag")
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	db, err := postgres.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx := context.Background()
	ctx = types.SetTenantID(ctx, *tenantID)
	ctx = types.SetMode(ctx, types.Mode(*mode))
	if err := types.GetMode(ctx).Validate(); err != nil {
		logger.Fatalw("Invalid mode", "mode", *mode)
	}

	subscriptionService := service.NewSubscriptionService(service.ServiceParams{
		Logger:       logger,
		Config:       cfg,
		DB:           db,
		SubRepo:      repository.NewSubscriptionRepository(db, logger),
		PlanRepo:     repository.NewPlanRepository(db, logger),
		PriceRepo:    repository.NewPriceRepository(db, logger),
		CustomerRepo: repository.NewCustomerRepository(db, logger),
	})

	now := time.Now().UTC()
	sweepTrials(ctx, subscriptionService, logger, now)
	sweepRenewals(ctx, subscriptionService, logger, now)
}

func sweepTrials(ctx context.Context, svc service.SubscriptionService, logger *logger.Logger, now time.Time) {
	due, err := svc.ListTrialsDue(ctx, now)
	if err != nil {
		logger.Errorw("Failed to list trials due", "error", err)
		return
	}

	for _, sub := range due {
		if _, err := svc.ActivateExpiredTrial(ctx, sub.ID); err != nil {
			logger.Errorw("Failed to activate expired trial",
				"subscription_id", sub.ID, "error", err)
		}
	}
	logger.Infow("Trial sweep completed", "candidates", len(due))
}

func sweepRenewals(ctx context.Context, svc service.SubscriptionService, logger *logger.Logger, now time.Time) {
	processed := 0
	filter := &types.SubscriptionFilter{
		QueryFilter: &types.QueryFilter{Limit: lo.ToPtr(types.FILTER_MAX_LIMIT)},
		SubscriptionStatus: []types.SubscriptionStatus{
			types.SubscriptionStatusActive,
		},
	}

	for {
		page, err := svc.ListSubscriptions(ctx, filter)
		if err != nil {
			logger.Errorw("Failed to list subscriptions", "error", err)
			return
		}

		for _, sub := range page.Data {
			if sub.CurrentPeriodEnd.After(now) {
				continue
			}
			if _, err := svc.ProcessRenewal(ctx, sub.ID); err != nil {
				logger.Errorw("Failed to process renewal",
					"subscription_id", sub.ID, "error", err)
				continue
			}
			processed++
		}

		if !page.HasMore || len(page.Data) == 0 {
			break
		}
		filter.StartingAfter = lo.ToPtr(page.Data[len(page.Data)-1].ID)
	}

	logger.Infow("Renewal sweep completed", "processed", processed)
}
