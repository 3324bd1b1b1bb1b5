/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server and the CLI for access to services.
 */
package di

import (
	"github.com/aristath/solar-roi/internal/clientdata"
	"github.com/aristath/solar-roi/internal/clients/nasapower"
	"github.com/aristath/solar-roi/internal/clients/objectstore"
	"github.com/aristath/solar-roi/internal/modules/analysis"
	"github.com/aristath/solar-roi/internal/modules/irradiance"
	"github.com/aristath/solar-roi/internal/modules/roi"
	"github.com/aristath/solar-roi/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// Clients
	PowerClient *nasapower.Client
	Exporter    *objectstore.Client // nil when no export bucket is configured

	// Caches
	ClientData *clientdata.Repository

	// Services
	Provider   *irradiance.Provider
	Calculator *roi.Calculator
	Analysis   *analysis.Service
	Session    *analysis.Session // memoizes the last report for the HTTP API

	// Jobs
	Scheduler   *scheduler.Scheduler
	CleanupJob  *clientdata.CleanupJob
	CleanupCron string
}
