// Package di provides dependency injection wiring and initialization.
package di

import (
	"context"
	"fmt"

	"github.com/aristath/solar-roi/internal/clientdata"
	"github.com/aristath/solar-roi/internal/clients/nasapower"
	"github.com/aristath/solar-roi/internal/clients/objectstore"
	"github.com/aristath/solar-roi/internal/config"
	"github.com/aristath/solar-roi/internal/modules/analysis"
	"github.com/aristath/solar-roi/internal/modules/irradiance"
	"github.com/aristath/solar-roi/internal/modules/roi"
	"github.com/aristath/solar-roi/internal/scheduler"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container
// Order of operations:
// 1. Initialize clients
// 2. Initialize caches
// 3. Initialize services
// 4. Register jobs (the scheduler is returned stopped)
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// Step 1: Clients
	if err := initializeClients(ctx, container, cfg, log); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	// Step 2: Caches
	container.ClientData = clientdata.NewRepository()

	// Step 3: Services
	if err := initializeServices(container, cfg, log); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Step 4: Jobs
	if err := registerJobs(container, cfg, log); err != nil {
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")

	return container, nil
}

func initializeClients(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.PowerClient = nasapower.NewClient(log,
		nasapower.WithBaseURL(cfg.PowerAPIURL),
		nasapower.WithTimeout(cfg.PowerTimeout),
		nasapower.WithRetryDelay(cfg.PowerRetryDelay),
	)

	if cfg.Export == nil {
		log.Info().Msg("EXPORT_BUCKET not set, CSV uploads disabled")
		return nil
	}

	exporter, err := objectstore.New(ctx, objectstore.Config{
		Bucket:          cfg.Export.Bucket,
		Endpoint:        cfg.Export.Endpoint,
		Region:          cfg.Export.Region,
		AccessKeyID:     cfg.Export.AccessKeyID,
		SecretAccessKey: cfg.Export.SecretAccessKey,
		Prefix:          cfg.Export.Prefix,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create export client: %w", err)
	}
	container.Exporter = exporter

	return nil
}

func initializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.Provider = irradiance.NewProvider(container.PowerClient, log,
		irradiance.WithCache(container.ClientData, cfg.CacheTTL),
		irradiance.WithAvailabilityLag(cfg.AvailabilityLag),
	)

	calculator, err := roi.NewCalculator(roi.Config{
		CostPerWattUSD:         cfg.Financial.CostPerWattUSD,
		SystemEfficiency:       cfg.Financial.SystemEfficiency,
		DegradationRatePerYear: cfg.Financial.DegradationRatePerYear,
		HorizonYears:           cfg.Financial.HorizonYears,
	})
	if err != nil {
		return fmt.Errorf("invalid financial configuration: %w", err)
	}
	container.Calculator = calculator

	container.Analysis = analysis.NewService(container.Provider, container.Calculator, log)
	container.Session = analysis.NewSession(container.Analysis)

	return nil
}

func registerJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.Scheduler = scheduler.New(log)
	container.CleanupJob = clientdata.NewCleanupJob(container.ClientData, log)
	container.CleanupCron = cfg.CacheCleanupCron

	if err := container.Scheduler.AddJob(cfg.CacheCleanupCron, container.CleanupJob); err != nil {
		return fmt.Errorf("invalid CACHE_CLEANUP_SCHEDULE %q: %w", cfg.CacheCleanupCron, err)
	}

	return nil
}
