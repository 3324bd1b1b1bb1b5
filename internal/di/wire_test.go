package di

import (
	"context"
	"testing"
	"time"

	"github.com/aristath/solar-roi/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:             8001,
		PowerAPIURL:      config.DefaultPowerAPIURL,
		PowerTimeout:     5 * time.Second,
		PowerRetryDelay:  10 * time.Millisecond,
		AvailabilityLag:  3,
		CacheTTL:         time.Hour,
		CacheCleanupCron: "@every 10m",
		Financial: config.FinancialConfig{
			CostPerWattUSD:         2.5,
			SystemEfficiency:       0.8,
			DegradationRatePerYear: 0.005,
			HorizonYears:           25,
		},
	}
}

func TestWire(t *testing.T) {
	container, err := Wire(context.Background(), testConfig(), zerolog.Nop())
	require.NoError(t, err)

	assert.NotNil(t, container.PowerClient)
	assert.NotNil(t, container.ClientData)
	assert.NotNil(t, container.Provider)
	assert.NotNil(t, container.Calculator)
	assert.NotNil(t, container.Analysis)
	require.NotNil(t, container.Session)
	assert.Nil(t, container.Session.Last())
	assert.NotNil(t, container.Scheduler)
	assert.Nil(t, container.Exporter)

	jobs := container.Scheduler.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "client_data_cleanup", jobs[0].Name)
	assert.Equal(t, 25, container.Calculator.Config().HorizonYears)
}

func TestWire_WithExportBucket(t *testing.T) {
	cfg := testConfig()
	cfg.Export = &config.ExportConfig{
		Bucket:          "exports",
		Endpoint:        "http://localhost:9000",
		Region:          "auto",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Prefix:          "solar-data/",
	}

	container, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, container.Exporter)
	assert.Equal(t, "solar-data/a.csv", container.Exporter.Key("a.csv"))
}

func TestWire_InvalidFinancialConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Financial.SystemEfficiency = 1.5

	_, err := Wire(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestWire_InvalidCleanupSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.CacheCleanupCron = "every tuesday"

	_, err := Wire(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
